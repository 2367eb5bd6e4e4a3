package usecase

import (
	"time"

	"github.com/google/uuid"
)

// Options — общие настройки сервисов; нулевые поля заменяются значениями по умолчанию.
type Options struct {
	Retry RetryConfig
	Cache CachePolicies

	// Now и NewID подменяются в тестах.
	Now   func() time.Time
	NewID func() string
}

func (o Options) withDefaults() Options {
	o.Retry = o.Retry.normalized()
	if o.Cache == (CachePolicies{}) {
		o.Cache = DefaultCachePolicies()
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.NewString() }
	}
	return o
}
