package logger_test

import (
	"context"
	"testing"

	"github.com/Gunvolt24/record_shop/pkg/ctxmeta"
	"github.com/Gunvolt24/record_shop/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_AppendsContextFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := logger.NewFromZap(zap.New(core))

	ctx := ctxmeta.WithUser(ctxmeta.WithRequestID(context.Background(), "req-7"), "alice@example.com")
	l.Infof(ctx, "order created id=%s", "o-1")
	l.Warnf(context.Background(), "cache set failed")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Message != "order created id=o-1" {
		t.Fatalf("message=%q", first.Message)
	}
	fields := first.ContextMap()
	if fields["request_id"] != "req-7" || fields["user"] != "alice@example.com" {
		t.Fatalf("unexpected fields: %v", fields)
	}

	if second := entries[1]; second.Level != zap.WarnLevel || len(second.Context) != 0 {
		t.Fatalf("unexpected second entry: %+v", second)
	}
}

func TestNew_Modes(t *testing.T) {
	for _, opts := range []logger.Options{
		{},
		{IsProd: true, Service: "record-shop"},
		{IsProd: true, Level: "warn"},
	} {
		l, cleanup, err := logger.New(opts)
		if err != nil {
			t.Fatalf("New(%+v): %v", opts, err)
		}
		l.Infof(context.Background(), "hello")
		_ = cleanup()
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, _, err := logger.New(logger.Options{Level: "loud"}); err == nil {
		t.Fatal("expected level parse error")
	}
}
