package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gunvolt24/record_shop/config"
	"github.com/Gunvolt24/record_shop/internal/app"
)

// логгер-заглушка
type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

// фейковый консьюмер, который ждёт отмены контекста (или сразу падает с runErr)
type fakeConsumer struct {
	runCalls   int32
	closeCalls int32
	runErr     error
}

func (f *fakeConsumer) Run(ctx context.Context) error {
	atomic.AddInt32(&f.runCalls, 1)
	if f.runErr != nil {
		return f.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeConsumer) Close() error {
	atomic.AddInt32(&f.closeCalls, 1)
	return nil
}

func TestAppRun_GracefulShutdown(t *testing.T) {
	// HTTP-сервер на случайном свободном порту
	srv := &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: http.NewServeMux(),
	}

	fc := &fakeConsumer{}
	a := &app.App{
		Logger:        nopLogger{},
		HTTPServer:    srv,
		KafkaConsumer: fc,
	}

	// Запуск и быстрая остановка
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if atomic.LoadInt32(&fc.runCalls) == 0 {
		t.Fatalf("consumer.Run should be called")
	}
	if atomic.LoadInt32(&fc.closeCalls) == 0 {
		t.Fatalf("consumer.Close should be called")
	}
}

func TestAppRun_ConsumerFailure_ReturnsError(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}

	boom := errors.New("broker unreachable")
	fc := &fakeConsumer{runErr: boom}
	a := &app.App{Logger: nopLogger{}, HTTPServer: srv, KafkaConsumer: fc}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Run(ctx); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
	if atomic.LoadInt32(&fc.closeCalls) == 0 {
		t.Fatalf("consumer.Close should be called")
	}
}

func TestAppRun_WithoutConsumer(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	a := &app.App{Logger: nopLogger{}, HTTPServer: srv}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

// Сборка без внешних зависимостей: хранилище и кэш в памяти, Kafka выключена.
func TestBootstrap_MemoryStorage(t *testing.T) {
	c, err := config.LoadWithPrefix("RECORDS_TEST_BOOTSTRAP")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	c.Storage.Driver = "memory"
	c.Kafka.Enabled = false
	c.HTTP.GinMode = "test"

	a, cleanup, err := app.Bootstrap(context.Background(), &c)
	if err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}
	defer cleanup()

	if a.KafkaConsumer != nil {
		t.Fatalf("consumer should be nil when kafka is disabled")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", http.NoBody)
	w := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Fatalf("want empty catalog, got %s", w.Body.String())
	}
}

func TestBootstrap_UnknownStorageDriver(t *testing.T) {
	c, err := config.LoadWithPrefix("RECORDS_TEST_BOOTSTRAP_BAD")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	c.Storage.Driver = "sqlite"

	if _, _, err := app.Bootstrap(context.Background(), &c); err == nil {
		t.Fatalf("expected error for unknown storage driver")
	}
}
