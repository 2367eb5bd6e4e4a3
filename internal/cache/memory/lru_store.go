package memory

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/Gunvolt24/record_shop/pkg/metrics"
	"github.com/gobwas/glob"
)

// Проверка, что LRUStore удовлетворяет порту кэша.
var _ ports.CacheStore = (*LRUStore)(nil)

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time // нулевое время — без истечения
}

// LRUStore — потокобезопасный LRU-кэш байтовых значений с TTL на каждую запись.
// Используется, когда Redis не настроен.
type LRUStore struct {
	capacity int

	ll    *list.List
	index map[string]*list.Element

	mu sync.Mutex

	now func() time.Time
}

// NewLRUStore — конструктор; capacity <= 0 трактуется как 1.
func NewLRUStore(capacity int) *LRUStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUStore{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Get — значение по ключу; истёкшая запись удаляется и считается промахом.
func (c *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[key]
	if !ok {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	ent := elem.Value.(*entry)
	if isExpired(ent, now) {
		metrics.CacheOps.WithLabelValues("expired").Inc()
		c.removeElement(elem)
		metrics.CacheSize.Set(float64(len(c.index)))
		return nil, false, nil
	}
	c.ll.MoveToFront(elem)

	metrics.CacheOps.WithLabelValues("hit").Inc()
	return cloneBytes(ent.value), true, nil
}

// Set — сохранить/обновить значение; срок жизни отсчитывается от момента записи.
func (c *LRUStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return nil
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = cloneBytes(value)
		ent.expiresAt = expiryFrom(now, ttl)
		c.ll.MoveToFront(elem)
		return nil
	}

	c.pruneExpiredFromBack(now)

	elem := c.ll.PushFront(&entry{
		key:       key,
		value:     cloneBytes(value),
		expiresAt: expiryFrom(now, ttl),
	})
	c.index[key] = elem
	metrics.CacheSize.Set(float64(len(c.index)))

	if c.ll.Len() > c.capacity {
		c.evictLRU()
	}
	return nil
}

// DeleteByPattern — удалить ключи по glob-шаблону (синтаксис Redis MATCH: *, ?, [...], \ экранирует).
func (c *LRUStore) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, elem := range c.index {
		if matcher.Match(key) {
			c.removeElement(elem)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheSize.Set(float64(len(c.index)))
	}
	return removed, nil
}

// Len — число записей (включая ещё не вычищенные истёкшие).
func (c *LRUStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// ------вспомогательные функции------

func (c *LRUStore) evictLRU() {
	if back := c.ll.Back(); back != nil {
		c.removeElement(back)
		metrics.CacheOps.WithLabelValues("evicted").Inc()
		metrics.CacheSize.Set(float64(len(c.index)))
	}
}

func (c *LRUStore) removeElement(elem *list.Element) {
	ent := elem.Value.(*entry)
	delete(c.index, ent.key)
	c.ll.Remove(elem)
}

// pruneExpiredFromBack — вычищает истёкшие записи с хвоста, пока не встретится живая.
func (c *LRUStore) pruneExpiredFromBack(now time.Time) {
	for {
		back := c.ll.Back()
		if back == nil {
			return
		}
		if !isExpired(back.Value.(*entry), now) {
			return
		}
		c.removeElement(back)
		metrics.CacheOps.WithLabelValues("expired").Inc()
		metrics.CacheSize.Set(float64(len(c.index)))
	}
}

func isExpired(ent *entry, now time.Time) bool {
	return !ent.expiresAt.IsZero() && now.After(ent.expiresAt)
}

func expiryFrom(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
