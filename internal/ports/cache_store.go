package ports

import (
	"context"
	"time"
)

// CacheStore — key/value хранилище с TTL перед чтениями каталога и заказов.
// Требования к реализации: потокобезопасность; возврат копий значений;
// DeleteByPattern понимает glob (*, ?, [...]), отсутствие совпадений не ошибка.
type CacheStore interface {
	// Get — (value, true, nil) при попадании, (nil, false, nil) при промахе/истечении.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set — сохранить значение; ttl <= 0 — без истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeleteByPattern — удалить все ключи по glob-шаблону, вернуть число удалённых.
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}
