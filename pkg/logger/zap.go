package logger

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gunvolt24/record_shop/pkg/ctxmeta"
	"go.uber.org/zap"
)

// Options — режим и уровень логгера.
type Options struct {
	IsProd  bool
	Level   string // debug|info|warn|error; пусто — по режиму
	Service string // поле service в каждой записи
}

// ZapLogger — ports.Logger поверх zap; метаданные запроса из контекста идут отдельными полями.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// New — production-JSON или development-консоль; второе значение сбрасывает буферы.
func New(opts Options) (*ZapLogger, func() error, error) {
	zc := zap.NewDevelopmentConfig()
	if opts.IsProd {
		zc = zap.NewProductionConfig()
	}
	if lvl := strings.TrimSpace(opts.Level); lvl != "" {
		al, err := zap.ParseAtomicLevel(lvl)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = al
	}
	if opts.Service != "" {
		zc.InitialFields = map[string]any{"service": opts.Service}
	}

	l, err := zc.Build()
	if err != nil {
		return nil, nil, err
	}
	return NewFromZap(l), l.Sync, nil
}

// NewFromZap — обёртка над готовым *zap.Logger (например, zaptest/observer в тестах).
func NewFromZap(l *zap.Logger) *ZapLogger {
	// caller — место вызова Infof, а не этот файл
	return &ZapLogger{sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (z *ZapLogger) Infof(ctx context.Context, format string, args ...any) {
	z.with(ctx).Infof(format, args...)
}

func (z *ZapLogger) Warnf(ctx context.Context, format string, args ...any) {
	z.with(ctx).Warnf(format, args...)
}

func (z *ZapLogger) Errorf(ctx context.Context, format string, args ...any) {
	z.with(ctx).Errorf(format, args...)
}

func (z *ZapLogger) with(ctx context.Context) *zap.SugaredLogger {
	if fields := ctxmeta.Fields(ctx); len(fields) > 0 {
		return z.sugar.With(fields...)
	}
	return z.sugar
}
