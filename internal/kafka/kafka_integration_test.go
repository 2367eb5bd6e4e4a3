//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	cachemem "github.com/Gunvolt24/record_shop/internal/cache/memory"
	"github.com/Gunvolt24/record_shop/internal/domain"
	ikafka "github.com/Gunvolt24/record_shop/internal/kafka"
	"github.com/Gunvolt24/record_shop/internal/policy"
	"github.com/Gunvolt24/record_shop/internal/ports"
	pgrepo "github.com/Gunvolt24/record_shop/internal/repo/postgres"
	"github.com/Gunvolt24/record_shop/internal/testutil"
	"github.com/Gunvolt24/record_shop/internal/usecase"
	"github.com/Gunvolt24/record_shop/pkg/logger"
)

// stack — Postgres, Kafka и сервис заказов поверх них.
type stack struct {
	ctx    context.Context
	kf     *testutil.KafkaEnv
	pool   *pgxpool.Pool
	store  *pgrepo.InventoryStore
	orders *pgrepo.OrderRepository
	svc    *usecase.OrderService
	log    ports.Logger
}

// 1) Событие исполнения переводит заказ в completed
func TestKafka_Fulfillment_Completes_TC(t *testing.T) {
	s := newStack(t)

	topic, group, err := s.kf.NewTopic(s.ctx, t.Name())
	require.NoError(t, err)

	s.run(t, &ikafka.ConsumerConfig{
		Brokers:        s.kf.Brokers,
		Topic:          topic,
		GroupID:        group,
		StartOffset:    "first",
		ProcessTimeout: 5 * time.Second,
		RetryInitial:   200 * time.Millisecond,
		RetryMax:       2 * time.Second,
	}, s.svc)

	_, ord := s.seedOrder(t, 5, 2)
	writeMsg(t, s.ctx, s.kf.Brokers, topic, fulfillment(ord.ID, domain.OrderCompleted))

	s.waitStatus(t, ord.ID, domain.OrderCompleted, 20*time.Second)
}

// 2) Мусор и сообщение о несуществующем заказе пропускаются (коммитятся), следующее применяется
func TestKafka_Skip_Invalid_Then_Apply_TC(t *testing.T) {
	s := newStack(t)

	topic, group, err := s.kf.NewTopic(s.ctx, "invalid-"+t.Name())
	require.NoError(t, err)

	s.run(t, &ikafka.ConsumerConfig{
		Brokers:        s.kf.Brokers,
		Topic:          topic,
		GroupID:        group,
		StartOffset:    "first",
		ProcessTimeout: 3 * time.Second,
		RetryInitial:   200 * time.Millisecond,
		RetryMax:       2 * time.Second,
	}, s.svc)

	rec, ord := s.seedOrder(t, 5, 2)

	writeMsg(t, s.ctx, s.kf.Brokers, topic, []byte("not-a-json"))
	writeMsg(t, s.ctx, s.kf.Brokers, topic, []byte(`{"order_id":"`+ord.ID+`","status":"shipped"}`))
	writeMsg(t, s.ctx, s.kf.Brokers, topic, fulfillment(testutil.MakeRecord().ID, domain.OrderCompleted))
	writeMsg(t, s.ctx, s.kf.Brokers, topic, fulfillment(ord.ID, domain.OrderCancelled))

	s.waitStatus(t, ord.ID, domain.OrderCancelled, 20*time.Second)

	// отмена вернула остаток
	got, err := pgrepo.NewRecordRepository(s.pool).GetByID(s.ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.Qty)
}

// 3) StartOffset="last": сообщения, опубликованные до старта консьюмера, игнорируются
func TestKafka_StartOffset_Last_IgnoresOld_TC(t *testing.T) {
	s := newStack(t)

	topic, group, err := s.kf.NewTopic(s.ctx, "last-"+t.Name())
	require.NoError(t, err)

	_, old := s.seedOrder(t, 5, 1)
	writeMsg(t, s.ctx, s.kf.Brokers, topic, fulfillment(old.ID, domain.OrderCancelled))

	s.run(t, &ikafka.ConsumerConfig{
		Brokers:     s.kf.Brokers,
		Topic:       topic,
		GroupID:     group,
		StartOffset: "last",
	}, s.svc)

	// Публикуем новое несколько раз, пока не применится: одно из сообщений
	// окажется после позиции, с которой читает консьюмер. Повтор безопасен.
	_, fresh := s.seedOrder(t, 5, 1)
	raw := fulfillment(fresh.ID, domain.OrderCompleted)

	deadline := time.Now().Add(20 * time.Second)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for {
		writeMsg(t, s.ctx, s.kf.Brokers, topic, raw)

		got, err := s.orders.GetByID(s.ctx, fresh.ID)
		require.NoError(t, err)
		if got.Status == domain.OrderCompleted {
			gotOld, err := s.orders.GetByID(s.ctx, old.ID)
			require.NoError(t, err)
			require.Equal(t, domain.OrderPending, gotOld.Status)
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("order %s not completed in time", fresh.ID)
		}
		<-ticker.C
	}
}

// 4) At-least-once: временная ошибка без коммита — передоставка той же группе после перезапуска
func TestKafka_Redelivery_AfterRestart_NoCommit_TC(t *testing.T) {
	s := newStack(t)

	topic, group, err := s.kf.NewTopic(s.ctx, "redelivery-"+t.Name())
	require.NoError(t, err)

	_, ord := s.seedOrder(t, 5, 3)
	writeMsg(t, s.ctx, s.kf.Brokers, topic, fulfillment(ord.ID, domain.OrderCompleted))

	// Фаза 1: всегда временная ошибка => оффсет не коммитится
	failing := ikafka.NewConsumer(&ikafka.ConsumerConfig{
		Brokers:        s.kf.Brokers,
		Topic:          topic,
		GroupID:        group,
		StartOffset:    "first",
		ProcessTimeout: 300 * time.Millisecond,
		RetryInitial:   100 * time.Millisecond,
		RetryMax:       300 * time.Millisecond,
	}, alwaysTempFail{}, s.log)

	runCtx1, cancelRun1 := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = failing.Run(runCtx1)
	}()
	time.Sleep(3 * time.Second)
	cancelRun1()
	<-done
	_ = failing.Close()

	got, err := s.orders.GetByID(s.ctx, ord.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderPending, got.Status)

	// Фаза 2: та же группа с нормальным сервисом перехватывает некоммиченное
	s.run(t, &ikafka.ConsumerConfig{
		Brokers:     s.kf.Brokers,
		Topic:       topic,
		GroupID:     group,
		StartOffset: "first",
	}, s.svc)

	s.waitStatus(t, ord.ID, domain.OrderCompleted, 30*time.Second)
}

// 5) Producer: событие создания заказа уходит в топик с ключом = id заказа
func TestKafka_Producer_PublishesOrderEvents_TC(t *testing.T) {
	ctxStart, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStart()

	kf, stopKF, err := testutil.StartKafkaTC(ctxStart, "record-events-itc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopKF(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	topic, _, err := kf.NewTopic(ctx, t.Name())
	require.NoError(t, err)

	producer := ikafka.NewProducer(&ikafka.ProducerConfig{Brokers: kf.Brokers, Topic: topic})
	t.Cleanup(func() { _ = producer.Close() })

	rec := testutil.MakeRecord()
	ord := testutil.MakeOrder(rec, 2, "alice@example.com")
	require.NoError(t, producer.Publish(ctx, domain.NewOrderEvent(domain.EventOrderCreated, ord, time.Now())))

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   kf.Brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	defer r.Close()

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, ord.ID, string(msg.Key))

	var ev domain.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	require.Equal(t, domain.EventOrderCreated, ev.Type)
	require.Equal(t, rec.ID, ev.RecordID)
	require.Equal(t, 2, ev.Quantity)

	var eventType string
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			eventType = string(h.Value)
		}
	}
	require.Equal(t, string(domain.EventOrderCreated), eventType)
}

// -----------------функции-помощники-----------------

func newStack(t *testing.T) *stack {
	t.Helper()

	// Длинный контекст — на контейнеры
	ctxStart, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancelStart)

	pg, stopPG, err := testutil.StartPostgresTC(ctxStart)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopPG(context.Background()) })

	kf, stopKF, err := testutil.StartKafkaTC(ctxStart, "record-fulfillment-itc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopKF(context.Background()) })

	// Короткий контекст — сам тест
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	pool := pg.Pool

	logg, closer, err := logger.New(logger.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer() })

	store := pgrepo.NewInventoryStore(pool)
	orders := pgrepo.NewOrderRepository(pool)
	svc := usecase.NewOrderService(store, orders, cachemem.NewLRUStore(100), policy.OwnerOrAdmin{}, nil, logg, usecase.Options{})

	return &stack{ctx: ctx, kf: kf, pool: pool, store: store, orders: orders, svc: svc, log: logg}
}

// run — запускает консьюмера до конца теста.
func (s *stack) run(t *testing.T, cfg *ikafka.ConsumerConfig, svc interface {
	ApplyFulfillmentMessage(ctx context.Context, raw []byte) error
}) {
	t.Helper()
	consumer := ikafka.NewConsumer(cfg, svc, s.log)

	runCtx, cancelRun := context.WithCancel(s.ctx)
	t.Cleanup(func() {
		cancelRun()
		_ = consumer.Close()
	})
	go func() { _ = consumer.Run(runCtx) }()

	// даём консьюмеру присоединиться к группе/получить assignment
	time.Sleep(1500 * time.Millisecond)
}

// seedOrder — пластинка с остатком stock и pending-заказ на qty штук (остаток уже списан).
func (s *stack) seedOrder(t *testing.T, stock, qty int) (*domain.Record, *domain.Order) {
	t.Helper()
	rec := testutil.MakeRecord(testutil.WithQty(stock))
	require.NoError(t, pgrepo.NewRecordRepository(s.pool).Insert(s.ctx, rec))

	ord := testutil.MakeOrder(rec, qty, "alice@example.com")
	require.NoError(t, s.store.WithinRecord(s.ctx, rec.ID, func(ctx context.Context, tx ports.InventoryTx, _ *domain.Order, r *domain.Record) error {
		r.Qty -= qty
		if err := tx.SaveRecord(ctx, r); err != nil {
			return err
		}
		return tx.InsertOrder(ctx, ord)
	}))
	return rec, ord
}

func (s *stack) waitStatus(t *testing.T, orderID string, want domain.OrderStatus, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for {
		got, err := s.orders.GetByID(s.ctx, orderID)
		require.NoError(t, err)
		require.NotNil(t, got)
		if got.Status == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("order %s: status %s, want %s", orderID, got.Status, want)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func fulfillment(orderID string, status domain.OrderStatus) []byte {
	return []byte(fmt.Sprintf(`{"order_id":%q,"status":%q}`, orderID, status))
}

func writeMsg(t *testing.T, ctx context.Context, brokers []string, topic string, payload []byte) {
	t.Helper()
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.LeastBytes{},
	}
	defer w.Close()
	require.NoError(t, w.WriteMessages(ctx, kafka.Message{Value: payload}))
}

// временная "сетеподобная" ошибка
type tempNetErr struct{}

func (tempNetErr) Error() string   { return "temporary failure" }
func (tempNetErr) Temporary() bool { return true }
func (tempNetErr) Timeout() bool   { return true }

// сервис-заглушка, который всегда возвращает временную ошибку (оффсет не коммитится)
type alwaysTempFail struct{}

func (alwaysTempFail) ApplyFulfillmentMessage(context.Context, []byte) error { return tempNetErr{} }
