package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/Gunvolt24/record_shop/pkg/metrics"
	"github.com/sethvargo/go-retry"
)

// RetryConfig — повтор атомарной единицы после конкурентной записи.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig — 3 попытки, 20ms → 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: 20 * time.Millisecond, MaxDelay: 500 * time.Millisecond}
}

func (c RetryConfig) normalized() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = def.InitialDelay
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	return c
}

// backoff — экспонента от InitialDelay с джиттером, не выше MaxDelay, всего MaxAttempts попыток.
func (c RetryConfig) backoff() retry.Backoff {
	b := retry.NewExponential(c.InitialDelay)
	b = retry.WithJitterPercent(50, b)
	b = retry.WithCappedDuration(c.MaxDelay, b)
	return retry.WithMaxRetries(uint64(c.MaxAttempts-1), b)
}

// withRetry — выполняет единицу; повторяется только domain.ErrConcurrentUpdate,
// после исчерпания попыток возвращается доменный Conflict с исходной причиной.
func withRetry(ctx context.Context, cfg RetryConfig, log ports.Logger, op string, unit func(ctx context.Context) error) error {
	attempt := 0
	err := retry.Do(ctx, cfg.backoff(), func(ctx context.Context) error {
		attempt++
		err := unit(ctx)
		if err == nil || !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
		if attempt < cfg.MaxAttempts {
			metrics.InventoryRetries.WithLabelValues(op).Inc()
			log.Warnf(ctx, "%s: concurrent update (attempt %d/%d): %v", op, attempt, cfg.MaxAttempts, err)
		}
		return retry.RetryableError(err)
	})
	if errors.Is(err, domain.ErrConcurrentUpdate) {
		return &domain.Error{Kind: domain.KindConflict, Message: domain.MsgConcurrentUpdate, Err: err}
	}
	return err
}

// resultLabel — метка результата для метрик мутаций.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(domain.KindOf(err))
}
