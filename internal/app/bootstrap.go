package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gunvolt24/record_shop/config"
	cachemem "github.com/Gunvolt24/record_shop/internal/cache/memory"
	cacheredis "github.com/Gunvolt24/record_shop/internal/cache/redis"
	"github.com/Gunvolt24/record_shop/internal/kafka"
	"github.com/Gunvolt24/record_shop/internal/musicbrainz"
	"github.com/Gunvolt24/record_shop/internal/policy"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/Gunvolt24/record_shop/internal/repo/memory"
	"github.com/Gunvolt24/record_shop/internal/repo/postgres"
	rest "github.com/Gunvolt24/record_shop/internal/transport/http"
	"github.com/Gunvolt24/record_shop/internal/usecase"
	"github.com/Gunvolt24/record_shop/pkg/logger"
	"github.com/Gunvolt24/record_shop/pkg/metrics"
	"github.com/Gunvolt24/record_shop/pkg/telemetry"
	"github.com/Gunvolt24/record_shop/pkg/validate"
	"github.com/gin-gonic/gin"
)

// App — собранное приложение и его внешние интерфейсы (HTTP, consumer).
type App struct {
	Logger          ports.Logger          // логгер
	HTTPServer      *http.Server          // HTTP-сервер
	KafkaConsumer   ports.MessageConsumer // консьюмер событий исполнения; nil — выключен
	gracefulTimeout time.Duration         // время ожидания завершения HTTP-сервера
}

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// storage — реализации портов хранения одного драйвера.
type storage struct {
	store   ports.InventoryStore
	records ports.CatalogRepository
	orders  ports.OrderRepository
}

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → debug и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "", "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.DebugMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to debug", mode)
	}
}

// serviceOptions — настройки сервисов из конфигурации.
func serviceOptions(cfg *config.Config) usecase.Options {
	return usecase.Options{
		Retry: usecase.RetryConfig{
			MaxAttempts:  cfg.Inventory.RetryMaxAttempts,
			InitialDelay: cfg.Inventory.RetryInitialDelay,
			MaxDelay:     cfg.Inventory.RetryMaxDelay,
		},
		Cache: usecase.CachePolicies{
			RecordsList:  usecase.CachePolicy{KeyPrefix: usecase.PrefixRecordsList, TTL: cfg.Cache.RecordsListTTL},
			RecordDetail: usecase.CachePolicy{KeyPrefix: usecase.PrefixRecordDetail, TTL: cfg.Cache.RecordDetailTTL},
			OrdersList:   usecase.CachePolicy{KeyPrefix: usecase.PrefixOrdersList, TTL: cfg.Cache.OrdersListTTL},
			OrderDetail:  usecase.CachePolicy{KeyPrefix: usecase.PrefixOrderDetail, TTL: cfg.Cache.OrderDetailTTL},
		},
	}
}

// Bootstrap — собирает зависимости и возвращает приложение, функцию очистки и ошибку.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
	// Логгер (dev/prod режим задаётся конфигурацией).
	logg, cleanupLogger, err := logger.New(logger.Options{
		IsProd:  cfg.Logger.IsProd,
		Level:   cfg.Logger.Level,
		Service: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, func() {}, err
	}

	// Ресурсы закрываются в обратном порядке; логгер — последним.
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		if cerr := cleanupLogger(); cerr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cerr)
		}
	}
	fail := func(err error) (*App, Cleanup, error) {
		cleanup()
		return nil, func() {}, err
	}

	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию — no-op.
	shutdownTrace, err := telemetry.SetupTracing(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		Environment: cfg.Tracing.Environment,
	})
	if err != nil {
		logg.Warnf(ctx, "failed to setup tracing: %v", err)
	} else {
		if cfg.Tracing.Enabled {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		}
		closers = append(closers, func() {
			if terr := shutdownTrace(context.Background()); terr != nil {
				logg.Warnf(ctx, "shutdown tracing: %v", terr)
			}
		})
	}

	// Хранилище.
	st, closeStorage, err := openStorage(ctx, cfg, logg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStorage)

	// Кэш: Redis или LRU в памяти процесса.
	cache, closeCache, err := openCache(ctx, cfg, logg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeCache)

	// Публикация событий заказов (опционально).
	var events ports.EventPublisher
	if cfg.Kafka.EventsEnabled {
		producer := kafka.NewProducer(&kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.EventsTopic,
			WriteTimeout: cfg.Kafka.EventsWriteTimeout,
			BatchTimeout: cfg.Kafka.EventsBatchTimeout,
		})
		events = producer
		closers = append(closers, func() {
			if perr := producer.Close(); perr != nil {
				logg.Warnf(ctx, "kafka producer close error: %v", perr)
			}
		})
		logg.Infof(ctx, "order events enabled topic=%s", cfg.Kafka.EventsTopic)
	}

	// Источник списка треков.
	lookup, err := musicbrainz.New(musicbrainz.Config{
		BaseURL:    cfg.MusicBrainz.BaseURL,
		UserAgent:  cfg.MusicBrainz.UserAgent,
		Timeout:    cfg.MusicBrainz.Timeout,
		MaxRetries: cfg.MusicBrainz.MaxRetries,
		RetryDelay: cfg.MusicBrainz.RetryDelay,
	})
	if err != nil {
		return fail(err)
	}

	// Сборка зависимостей доменного слоя.
	opts := serviceOptions(cfg)
	access := policy.OwnerOrAdmin{}
	orderService := usecase.NewOrderService(st.store, st.orders, cache, access, events, logg, opts)
	catalogService := usecase.NewCatalogService(st.store, st.records, cache, access, lookup, validate.NewRecordValidator(), logg, opts)

	// Режим Gin.
	applyGinMode(ctx, cfg.HTTP.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	// Роутер и HTTP-сервер.
	httpHandler := rest.NewHandler(orderService, catalogService, logg, cfg.HTTP.HandlerTimeout)
	router := rest.NewRouter(httpHandler, otelServiceName)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	app := &App{
		Logger:          logg,
		HTTPServer:      httpSrv,
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}

	// Конфигурация и создание консьюмера Kafka.
	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(&kafka.ConsumerConfig{
			Brokers:        cfg.Kafka.Brokers,
			GroupID:        cfg.Kafka.GroupID,
			Topic:          cfg.Kafka.Topic,
			StartOffset:    cfg.Kafka.StartOffset,
			ProcessTimeout: cfg.Kafka.ProcessTimeout,
			RetryInitial:   cfg.Kafka.RetryInitial,
			RetryMax:       cfg.Kafka.RetryMax,
		}, orderService, logg)
		app.KafkaConsumer = consumer
		closers = append(closers, func() {
			if cerr := consumer.Close(); cerr != nil {
				logg.Warnf(ctx, "kafka consumer close error: %v", cerr)
			}
		})
	}

	return app, cleanup, nil
}

// openStorage — пул Postgres (с миграциями) или хранилище в памяти процесса.
func openStorage(ctx context.Context, cfg *config.Config, log ports.Logger) (storage, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case "memory":
		log.Warnf(ctx, "storage driver=memory: data is lost on restart")
		s := memory.NewStore()
		return storage{store: s, records: s.Records(), orders: s.Orders()}, func() {}, nil
	case "", "postgres":
	default:
		return storage{}, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Postgres.Migrate {
		n, err := postgres.Migrate(ctx, cfg.Postgres.DSN)
		if err != nil {
			return storage{}, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Infof(ctx, "postgres migrations applied=%d", n)
	}

	pool, err := postgres.Open(ctx, postgres.PoolConfig{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		ApplicationName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return storage{}, nil, err
	}
	return storage{
		store:   postgres.NewInventoryStore(pool),
		records: postgres.NewRecordRepository(pool),
		orders:  postgres.NewOrderRepository(pool),
	}, pool.Close, nil
}

// openCache — Redis при включённой конфигурации, иначе LRU.
func openCache(ctx context.Context, cfg *config.Config, log ports.Logger) (ports.CacheStore, func(), error) {
	if !cfg.Redis.Enabled {
		return cachemem.NewLRUStore(cfg.Cache.Capacity), func() {}, nil
	}
	client, err := cacheredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err != nil {
		return nil, nil, err
	}
	log.Infof(ctx, "redis cache enabled addr=%s db=%d", cfg.Redis.Addr, cfg.Redis.DB)
	return cacheredis.NewStore(client, cfg.Redis.ScanCount), func() {
		if cerr := client.Close(); cerr != nil {
			log.Warnf(ctx, "redis close error: %v", cerr)
		}
	}, nil
}

// Run — запускает HTTP-сервер и консьюмера; ждёт отмены контекста или ошибки и останавливает их.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	// Запуск консьюмера.
	if a.KafkaConsumer != nil {
		go func() {
			a.Logger.Infof(ctx, "kafka consumer starting")
			if err := a.KafkaConsumer.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	// Запуск HTTP-сервера.
	go func() {
		a.Logger.Infof(ctx, "http server starting (addr=%s)", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Ожидание сигнала остановки или фоновой ошибки.
	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Infof(ctx, "shutdown requested, starting graceful shutdown")
	case err := <-errCh:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.Logger.Infof(ctx, "background component stopped: %v", err)
		} else {
			a.Logger.Errorf(ctx, "background error: %v", err)
			runErr = err
		}
	}

	gt := a.gracefulTimeout
	if gt <= 0 {
		gt = 5 * time.Second
	}

	// Корректная остановка HTTP-сервера.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gt)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warnf(ctx, "http server shutdown failed: %v", err)
	} else {
		a.Logger.Infof(ctx, "http server stopped gracefully")
	}

	// Остановка Kafka-консьюмера
	if a.KafkaConsumer != nil {
		if err := a.KafkaConsumer.Close(); err != nil {
			a.Logger.Warnf(ctx, "kafka consumer close error: %v", err)
		}
	}

	a.Logger.Infof(ctx, "service stopped")
	return runErr
}
