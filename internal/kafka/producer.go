package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/segmentio/kafka-go"
)

// Проверка, что Producer удовлетворяет интерфейсу EventPublisher.
var _ ports.EventPublisher = (*Producer)(nil)

// writer — минимальный контракт над kafka.Writer.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer — публикует события жизненного цикла заказа.
// Ключ сообщения — id заказа, поэтому события одного заказа попадают в одну партицию по порядку.
type Producer struct {
	writer       writer
	writeTimeout time.Duration
	closeOnce    sync.Once
}

// NewProducer — kafka.Writer с hash-балансировкой по ключу.
func NewProducer(cfg *ProducerConfig) *Producer {
	w := cfg.Writer()
	return &Producer{writer: w, writeTimeout: w.WriteTimeout}
}

// Publish — синхронная запись одного события.
func (p *Producer) Publish(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:     []byte(event.OrderID),
		Value:   payload,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}},
		Time:    event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write event %s: %w", event.Type, err)
	}
	return nil
}

// Close — дожидается отправки накопленного батча и закрывает writer.
func (p *Producer) Close() (retErr error) {
	p.closeOnce.Do(func() {
		retErr = p.writer.Close()
	})
	return retErr
}
