package ports

import (
	"context"

	"github.com/Gunvolt24/record_shop/internal/domain"
)

// EventPublisher — публикация событий жизненного цикла заказа после фиксации изменений.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}
