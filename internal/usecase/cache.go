package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/Gunvolt24/record_shop/pkg/cachekey"
	"github.com/Gunvolt24/record_shop/pkg/metrics"
)

// Префиксы ключей кэша.
const (
	PrefixRecordsList  = "records:list"
	PrefixRecordDetail = "records:detail"
	PrefixOrdersList   = "orders:list"
	PrefixOrderDetail  = "orders:detail"
)

// CachePolicy — настройка кэширования одной операции чтения.
type CachePolicy struct {
	KeyPrefix string
	TTL       time.Duration
}

// CachePolicies — политики всех кэшируемых чтений.
type CachePolicies struct {
	RecordsList  CachePolicy
	RecordDetail CachePolicy
	OrdersList   CachePolicy
	OrderDetail  CachePolicy
}

// DefaultCachePolicies — списки 5 минут, карточка пластинки 10 минут, заказы 5 минут.
func DefaultCachePolicies() CachePolicies {
	return CachePolicies{
		RecordsList:  CachePolicy{KeyPrefix: PrefixRecordsList, TTL: 300 * time.Second},
		RecordDetail: CachePolicy{KeyPrefix: PrefixRecordDetail, TTL: 600 * time.Second},
		OrdersList:   CachePolicy{KeyPrefix: PrefixOrdersList, TTL: 300 * time.Second},
		OrderDetail:  CachePolicy{KeyPrefix: PrefixOrderDetail, TTL: 300 * time.Second},
	}
}

// generations — счётчики инвалидаций по префиксу ключа.
// Чтение, начавшееся до инвалидации, не должно записать в кэш прочитанное до неё значение.
type generations struct {
	mu       sync.Mutex
	byPrefix map[string]uint64
}

func (g *generations) current(prefix string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.byPrefix[prefix]
}

func (g *generations) bump(prefix string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.byPrefix[prefix]++
}

// storeGenerations — общие счётчики для сервисов, работающих с одним хранилищем.
var storeGenerations sync.Map

func generationsFor(store ports.CacheStore) *generations {
	g, _ := storeGenerations.LoadOrStore(store, &generations{byPrefix: make(map[string]uint64)})
	return g.(*generations)
}

// cacheLayer — read-through чтение и инвалидация по шаблонам.
// Сбои кэша логируются и никогда не ломают запрос.
type cacheLayer struct {
	store ports.CacheStore
	log   ports.Logger
	gen   *generations
}

func newCacheLayer(store ports.CacheStore, log ports.Logger) cacheLayer {
	return cacheLayer{store: store, log: log, gen: generationsFor(store)}
}

// readThrough — значение из кэша по ключу политики; при промахе load и запись в кэш.
// Ошибки load не кэшируются. Если за время load префикс инвалидировали, значение не кэшируется.
func readThrough[T any](
	ctx context.Context,
	c cacheLayer,
	policy CachePolicy,
	params map[string]any,
	load func(ctx context.Context) (T, error),
) (T, error) {
	key, err := cachekey.Generate(policy.KeyPrefix, params)
	if err != nil {
		c.log.Warnf(ctx, "cache bypassed err=%v", err)
		return load(ctx)
	}

	raw, found, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.log.Warnf(ctx, "cache.Get failed key=%s err=%v", key, err)
	case found:
		var cached T
		uErr := json.Unmarshal(raw, &cached)
		if uErr == nil {
			return cached, nil
		}
		c.log.Warnf(ctx, "cache entry corrupted key=%s err=%v", key, uErr)
	}

	gen := c.gen.current(policy.KeyPrefix)
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if c.gen.current(policy.KeyPrefix) != gen {
		return value, nil
	}

	encoded, mErr := json.Marshal(value)
	if mErr != nil {
		c.log.Warnf(ctx, "cache encode failed key=%s err=%v", key, mErr)
		return value, nil
	}
	if setErr := c.store.Set(ctx, key, encoded, policy.TTL); setErr != nil {
		c.log.Warnf(ctx, "cache.Set failed key=%s err=%v", key, setErr)
		return value, nil
	}
	// Инвалидация между проверкой и Set могла пройти раньше записи — убираем свою запись.
	if c.gen.current(policy.KeyPrefix) != gen {
		if _, dErr := c.store.DeleteByPattern(ctx, cachekey.EscapeGlob(key)); dErr != nil {
			c.log.Warnf(ctx, "cache stale entry cleanup failed key=%s err=%v", key, dErr)
		}
	}
	return value, nil
}

// invalidation — шаблон удаления и префикс, счётчик которого он сдвигает.
type invalidation struct {
	prefix  string
	pattern string
}

// invalidate — синхронно удаляет ключи по каждому шаблону; ошибки только логируются.
// Счётчик префикса сдвигается до удаления.
func (c cacheLayer) invalidate(ctx context.Context, targets ...invalidation) {
	for _, t := range targets {
		c.gen.bump(t.prefix)
		n, err := c.store.DeleteByPattern(ctx, t.pattern)
		if err != nil {
			metrics.CacheInvalidations.WithLabelValues("failed").Inc()
			c.log.Warnf(ctx, "cache invalidation failed pattern=%s err=%v", t.pattern, err)
			continue
		}
		metrics.CacheInvalidations.WithLabelValues("ok").Inc()
		if n > 0 {
			c.log.Infof(ctx, "cache invalidated pattern=%s keys=%d", t.pattern, n)
		}
	}
}

func allOf(prefix string) invalidation {
	return invalidation{prefix: prefix, pattern: cachekey.All(prefix)}
}

func containing(prefix, id string) invalidation {
	return invalidation{prefix: prefix, pattern: cachekey.Containing(prefix, id)}
}

func ordersListPattern() invalidation { return allOf(PrefixOrdersList) }

func orderDetailPattern(id string) invalidation { return containing(PrefixOrderDetail, id) }

func allOrderDetailsPattern() invalidation { return allOf(PrefixOrderDetail) }

func recordsListPattern() invalidation { return allOf(PrefixRecordsList) }

func recordDetailPattern(id string) invalidation { return containing(PrefixRecordDetail, id) }
