package ports

import "context"

// MessageConsumer — фоновый обработчик сообщений из шины.
type MessageConsumer interface {
	Run(ctx context.Context) error
	Close() error
}
