package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Gunvolt24/record_shop/internal/cache/memory"
	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/policy"
	"github.com/Gunvolt24/record_shop/internal/ports"
	repomem "github.com/Gunvolt24/record_shop/internal/repo/memory"
	"github.com/Gunvolt24/record_shop/internal/usecase"
	"github.com/shopspring/decimal"
)

// readGate — первое чтение останавливается после загрузки строки и ждёт release.
type readGate struct {
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func newReadGate() *readGate {
	return &readGate{loaded: make(chan struct{}), release: make(chan struct{})}
}

func (g *readGate) hold() {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.loaded)
		<-g.release
	}
}

func (g *readGate) waitLoaded(t *testing.T) {
	t.Helper()
	select {
	case <-g.loaded:
	case <-time.After(2 * time.Second):
		t.Fatal("reader never reached the repository")
	}
}

type gatedOrders struct {
	ports.OrderRepository
	gate *readGate
}

func (r *gatedOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := r.OrderRepository.GetByID(ctx, id)
	r.gate.hold()
	return o, err
}

type gatedRecords struct {
	ports.CatalogRepository
	gate *readGate
}

func (r *gatedRecords) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	rec, err := r.CatalogRepository.GetByID(ctx, id)
	r.gate.hold()
	return rec, err
}

func seedRecord(t *testing.T, base *repomem.Store, qty int) *domain.Record {
	t.Helper()
	rec := newVinyl("Miles Davis", "Kind of Blue")
	rec.ID = "r-1"
	rec.Qty = qty
	if err := base.Records().Insert(context.Background(), rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return rec
}

func testOptions() usecase.Options {
	return usecase.Options{Retry: usecase.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}}
}

func TestFindOrder_ReadOverlappingUpdateIsNotCached(t *testing.T) {
	ctx := context.Background()
	base := repomem.NewStore()
	rec := seedRecord(t, base, 10)
	cache := memory.NewLRUStore(100)
	gate := newReadGate()

	svc := usecase.NewOrderService(base, &gatedOrders{OrderRepository: base.Orders(), gate: gate},
		cache, policy.OwnerOrAdmin{}, nil, noopLogger{}, testOptions())

	o, err := svc.CreateOrder(ctx, alice, domain.CreateOrderInput{RecordID: rec.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	type result struct {
		order *domain.Order
		err   error
	}
	stale := make(chan result, 1)
	go func() {
		got, err := svc.FindOrder(ctx, alice, o.ID)
		stale <- result{got, err}
	}()
	gate.waitLoaded(t)

	if _, err = svc.UpdateOrder(ctx, alice, o.ID, domain.OrderPatch{Quantity: ptr(5)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	close(gate.release)

	first := <-stale
	if first.err != nil || first.order.Quantity != 3 {
		t.Fatalf("overlapping read: order=%+v err=%v", first.order, first.err)
	}

	got, err := svc.FindOrder(ctx, alice, o.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	wantTotal := rec.Price.Mul(decimal.NewFromInt(5))
	if got.Quantity != 5 || !got.TotalPrice.Equal(wantTotal) {
		t.Fatalf("stale order served from cache: qty=%d total=%s", got.Quantity, got.TotalPrice)
	}
}

func TestFindRecord_ReadOverlappingOrderIsNotCached(t *testing.T) {
	ctx := context.Background()
	base := repomem.NewStore()
	rec := seedRecord(t, base, 10)
	cache := memory.NewLRUStore(100)
	gate := newReadGate()
	opts := testOptions()

	catalog := usecase.NewCatalogService(base, &gatedRecords{CatalogRepository: base.Records(), gate: gate},
		cache, policy.OwnerOrAdmin{}, nil, nil, noopLogger{}, opts)
	orders := usecase.NewOrderService(base, base.Orders(), cache, policy.OwnerOrAdmin{}, nil, noopLogger{}, opts)

	done := make(chan error, 1)
	go func() {
		_, err := catalog.FindRecord(ctx, rec.ID)
		done <- err
	}()
	gate.waitLoaded(t)

	if _, err := orders.CreateOrder(ctx, alice, domain.CreateOrderInput{RecordID: rec.ID, Quantity: 4}); err != nil {
		t.Fatalf("create: %v", err)
	}
	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("overlapping read: %v", err)
	}

	got, err := catalog.FindRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Qty != 6 {
		t.Fatalf("stale stock served from cache: qty=%d, want 6", got.Qty)
	}
}
