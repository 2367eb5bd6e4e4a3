package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/Gunvolt24/record_shop/pkg/metrics"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
)

var _ ports.MessageConsumer = (*Consumer)(nil)

// reader — то, что консьюмеру нужно от kafka.Reader.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// fulfillmentApplier — применяет событие исполнения к заказу.
// domain.ErrInvalidMessage означает, что повтор бесполезен.
type fulfillmentApplier interface {
	ApplyFulfillmentMessage(ctx context.Context, raw []byte) error
}

// Consumer — читает события исполнения и коммитит оффсет только после того,
// как сообщение применено или признано мусором.
type Consumer struct {
	reader         reader
	service        fulfillmentApplier
	log            ports.Logger
	processTimeout time.Duration
	backoff        func() retry.Backoff
	closeOnce      sync.Once
}

func NewConsumer(cfg *ConsumerConfig, service fulfillmentApplier, log ports.Logger) *Consumer {
	return &Consumer{
		reader:         kafka.NewReader(cfg.ReaderConfig()),
		service:        service,
		log:            log,
		processTimeout: durationOr(cfg.ProcessTimeout, 5*time.Second),
		backoff:        cappedBackoff(cfg.RetryInitial, cfg.RetryMax),
	}
}

// Run — цикл fetch → apply → commit до отмены ctx.
// Временная ошибка повторяет то же сообщение; при остановке текущий оффсет не коммитится.
func (c *Consumer) Run(ctx context.Context) error {
	rc := c.reader.Config()
	c.log.Infof(ctx, "fulfillment consumer started topic=%s group_id=%s brokers=%v", rc.Topic, rc.GroupID, rc.Brokers)

	for {
		msg, err := c.fetch(ctx)
		if err != nil {
			return err
		}
		metrics.KafkaMessagesConsumed.WithLabelValues(rc.Topic).Inc()

		if err := c.process(ctx, rc.Topic, msg); err != nil {
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Warnf(ctx, "commit failed partition=%d offset=%d: %v", msg.Partition, msg.Offset, err)
		}
	}
}

// fetch — следующее сообщение; сбои брокера повторяются до отмены ctx.
func (c *Consumer) fetch(ctx context.Context) (kafka.Message, error) {
	var msg kafka.Message
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warnf(ctx, "fetch failed: %v", err)
			return retry.RetryableError(err)
		}
		msg = m
		return nil
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return kafka.Message{}, ctxErr
	}
	return msg, err
}

// process — повторяет apply, пока сообщение не станет можно коммитить.
func (c *Consumer) process(ctx context.Context, topic string, msg kafka.Message) error {
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		return c.apply(ctx, topic, msg)
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// apply — одна попытка с собственным таймаутом.
func (c *Consumer) apply(ctx context.Context, topic string, msg kafka.Message) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.processTimeout)
	defer cancel()

	err := c.service.ApplyFulfillmentMessage(attemptCtx, msg.Value)
	switch {
	case err == nil:
		metrics.KafkaMessagesProcessed.WithLabelValues(topic).Inc()
		return nil
	case errors.Is(err, domain.ErrInvalidMessage):
		metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
		c.log.Warnf(ctx, "skip invalid message partition=%d offset=%d: %v", msg.Partition, msg.Offset, err)
		return nil
	default:
		metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
		c.log.Warnf(ctx, "apply failed partition=%d offset=%d: %v (retrying)", msg.Partition, msg.Offset, err)
		return retry.RetryableError(err)
	}
}

// Close — закрывает reader один раз.
func (c *Consumer) Close() (retErr error) {
	c.closeOnce.Do(func() {
		retErr = c.reader.Close()
	})
	return retErr
}
