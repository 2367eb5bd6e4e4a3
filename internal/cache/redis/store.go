package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/Gunvolt24/record_shop/pkg/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// Проверка, что Store удовлетворяет порту кэша.
var _ ports.CacheStore = (*Store)(nil)

const defaultScanCount = 100

// Store — кэш поверх Redis. Шаблонная инвалидация через SCAN MATCH + UNLINK пачками,
// без блокирующего KEYS.
type Store struct {
	client    goredis.UniversalClient
	scanCount int64
}

// NewStore — конструктор; scanCount <= 0 → 100.
func NewStore(client goredis.UniversalClient, scanCount int) *Store {
	sc := int64(scanCount)
	if sc <= 0 {
		sc = defaultScanCount
	}
	return &Store{client: client, scanCount: sc}
}

// NewClient — клиент Redis с проверкой соединения (fail-fast).
func NewClient(ctx context.Context, addr, password string, db, poolSize int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false, nil
	case err != nil:
		metrics.CacheOps.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	metrics.CacheOps.WithLabelValues("hit").Inc()
	return val, true, nil
}

// Set — ttl <= 0 сохраняет ключ без истечения.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		metrics.CacheOps.WithLabelValues("error").Inc()
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern — обходит пространство ключей курсором SCAN и удаляет найденные ключи.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, s.scanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := s.client.Unlink(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis unlink %s: %w", pattern, err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
