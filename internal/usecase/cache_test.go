package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports/mocks"
	"github.com/golang/mock/gomock"
)

func TestFindRecord_CacheHitSkipsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheStore(ctrl)
	env := newTestEnvWithCache(t, cache)

	cached := []byte(`{"id":"r-1","artist":"Cached","album":"Hit","price":"1.00","qty":1,"format":"CD","category":"Pop","trackList":[]}`)
	cache.EXPECT().Get(gomock.Any(), `records:detail:{"id":"r-1"}`).Return(cached, true, nil)

	rec, err := env.catalog.FindRecord(context.Background(), "r-1")
	if err != nil || rec.Artist != "Cached" {
		t.Fatalf("expected hit, got rec=%+v err=%v", rec, err)
	}
}

func TestFindRecord_CacheFailuresDoNotBreakReads(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheStore(ctrl)
	env := newTestEnvWithCache(t, cache)

	rec := newVinyl("Miles Davis", "Kind of Blue")
	rec.ID = "r-1"
	if err := env.store.Records().Insert(context.Background(), rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("redis down")),
		cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down")),
	)

	got, err := env.catalog.FindRecord(context.Background(), "r-1")
	if err != nil || got.Album != "Kind of Blue" {
		t.Fatalf("read must survive cache failure: rec=%+v err=%v", got, err)
	}
}

func TestFindRecord_CorruptEntryReloaded(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheStore(ctrl)
	env := newTestEnvWithCache(t, cache)

	rec := newVinyl("Miles Davis", "Kind of Blue")
	rec.ID = "r-1"
	_ = env.store.Records().Insert(context.Background(), rec)

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return([]byte("{not json"), true, nil)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	got, err := env.catalog.FindRecord(context.Background(), "r-1")
	if err != nil || got.ID != "r-1" {
		t.Fatalf("expected reload, got rec=%+v err=%v", got, err)
	}
}

func TestFindRecord_NotFoundIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheStore(ctrl)
	env := newTestEnvWithCache(t, cache)

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, nil)
	// Set не ожидается

	_, err := env.catalog.FindRecord(context.Background(), "missing")
	wantKind(t, err, domain.KindNotFound)
}

func TestCreateOrder_InvalidatesAffectedReads(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheStore(ctrl)
	env := newTestEnvWithCache(t, cache)

	rec := newVinyl("Miles Davis", "Kind of Blue")
	rec.ID = "r-1"
	_ = env.store.Records().Insert(context.Background(), rec)

	gomock.InOrder(
		cache.EXPECT().DeleteByPattern(gomock.Any(), "orders:list*").Return(2, nil),
		cache.EXPECT().DeleteByPattern(gomock.Any(), "records:detail:*r-1*").Return(1, nil),
		cache.EXPECT().DeleteByPattern(gomock.Any(), "records:list*").Return(0, errors.New("redis down")),
	)

	o, err := env.orders.CreateOrder(context.Background(), alice, domain.CreateOrderInput{RecordID: "r-1", Quantity: 1})
	if err != nil || o == nil {
		t.Fatalf("invalidation failure must not fail the mutation: %v", err)
	}
}

func TestFailedMutation_DoesNotInvalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheStore(ctrl)
	env := newTestEnvWithCache(t, cache)

	// DeleteByPattern не ожидается
	_, err := env.orders.CreateOrder(context.Background(), alice, domain.CreateOrderInput{RecordID: "missing", Quantity: 1})
	wantKind(t, err, domain.KindNotFound)
}

func TestFindOrders_CacheKeyScopedByRequester(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheStore(ctrl)
	env := newTestEnvWithCache(t, cache)

	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), `orders:list:{"limit":10,"owner":"alice@example.com","page":1}`).Return(nil, false, nil),
		cache.EXPECT().Set(gomock.Any(), `orders:list:{"limit":10,"owner":"alice@example.com","page":1}`, gomock.Any(), gomock.Any()).Return(nil),
		cache.EXPECT().Get(gomock.Any(), `orders:list:{"limit":10,"page":1,"scope":"all"}`).Return(nil, false, nil),
		cache.EXPECT().Set(gomock.Any(), `orders:list:{"limit":10,"page":1,"scope":"all"}`, gomock.Any(), gomock.Any()).Return(nil),
	)

	upper := domain.Requester{Email: "Alice@Example.com", Role: domain.RoleUser}
	if _, err := env.orders.FindOrders(context.Background(), upper, 0, 0); err != nil {
		t.Fatalf("user list: %v", err)
	}
	if _, err := env.orders.FindOrders(context.Background(), admin, 1, 10); err != nil {
		t.Fatalf("admin list: %v", err)
	}
}
