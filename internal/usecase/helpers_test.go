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
	"github.com/Gunvolt24/record_shop/pkg/validate"
	"github.com/shopspring/decimal"
)

type noopLogger struct{}

func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

var (
	admin = domain.Requester{Email: "admin@shop.test", Role: domain.RoleAdmin}
	alice = domain.Requester{Email: "alice@example.com", Role: domain.RoleUser}
	bob   = domain.Requester{Email: "bob@example.com", Role: domain.RoleUser}
)

// tickingClock — монотонные метки времени, чтобы порядок created был детерминирован.
type tickingClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

// recordingPublisher — запоминает опубликованные события.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// stubLookup — отдаёт заранее заданные треки.
type stubLookup struct {
	tracks map[string][]domain.Track
	err    error
	calls  int
}

func (l *stubLookup) FetchTrackList(_ context.Context, mbid string) ([]domain.Track, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.tracks[mbid], nil
}

type testEnv struct {
	store   *repomem.Store
	cache   *memory.LRUStore
	events  *recordingPublisher
	lookup  *stubLookup
	orders  *usecase.OrderService
	catalog *usecase.CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithCache(t, memory.NewLRUStore(1000))
}

func newTestEnvWithCache(t *testing.T, cache ports.CacheStore) *testEnv {
	t.Helper()

	store := repomem.NewStore()
	clock := &tickingClock{cur: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts := usecase.Options{
		Retry: usecase.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
		Now:   clock.Now,
	}
	env := &testEnv{
		store:  store,
		events: &recordingPublisher{},
		lookup: &stubLookup{tracks: map[string][]domain.Track{}},
	}
	if lru, ok := cache.(*memory.LRUStore); ok {
		env.cache = lru
	}
	log := noopLogger{}
	env.orders = usecase.NewOrderService(store, store.Orders(), cache, policy.OwnerOrAdmin{}, env.events, log, opts)
	env.catalog = usecase.NewCatalogService(store, store.Records(), cache, policy.OwnerOrAdmin{},
		env.lookup, validate.NewRecordValidator(), log, opts)
	return env
}

// addRecord — позиция каталога через сервис (как это делает администратор).
func (e *testEnv) addRecord(t *testing.T, artist, album string, price string, qty int) *domain.Record {
	t.Helper()
	rec, err := e.catalog.CreateRecord(context.Background(), admin, &domain.Record{
		Artist:   artist,
		Album:    album,
		Price:    decimal.RequireFromString(price),
		Qty:      qty,
		Format:   domain.FormatVinyl,
		Category: domain.CategoryJazz,
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	return rec
}

// stock — остаток напрямую из хранилища, мимо кэша.
func (e *testEnv) stock(t *testing.T, recordID string) int {
	t.Helper()
	rec, err := e.store.Records().GetByID(context.Background(), recordID)
	if err != nil || rec == nil {
		t.Fatalf("get record %s: rec=%v err=%v", recordID, rec, err)
	}
	return rec.Qty
}

func (e *testEnv) order(t *testing.T, req domain.Requester, recordID string, qty int) *domain.Order {
	t.Helper()
	o, err := e.orders.CreateOrder(context.Background(), req, domain.CreateOrderInput{RecordID: recordID, Quantity: qty})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func ptr[T any](v T) *T { return &v }

func wantKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("want %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("want %s, got %s (%v)", kind, got, err)
	}
}
