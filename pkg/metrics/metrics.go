package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of messages fetched from Kafka",
		},
		[]string{"topic"},
	)
	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Number of messages processed successfully",
		},
		[]string{"topic"},
	)
	KafkaMessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Number of messages failed to process",
		},
		[]string{"topic"},
	)
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_events_published_total",
			Help: "Order lifecycle events published, by result",
		},
		[]string{"type", "result"}, // ok|failed
	)
)

var (
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache operations",
		},
		[]string{"op"}, // hit|miss|evicted|expired|error
	)
	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_size",
			Help: "Number of items currently in the in-memory cache",
		},
	)
	CacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Pattern invalidations issued after mutations",
		},
		[]string{"result"}, // ok|failed
	)
)

var (
	OrderMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_mutations_total",
			Help: "Order mutations by operation and result kind",
		},
		[]string{"op", "result"},
	)
	RecordMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_mutations_total",
			Help: "Catalog mutations by operation and result kind",
		},
		[]string{"op", "result"},
	)
	InventoryRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_unit_retries_total",
			Help: "Atomic inventory units retried after a concurrent update",
		},
		[]string{"op"},
	)
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

var registerOnce sync.Once

// MustRegister — регистрирует метрики в реестре по умолчанию; повторный вызов безопасен.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			KafkaMessagesConsumed, KafkaMessagesProcessed, KafkaMessagesFailed, EventsPublished,
			CacheOps, CacheSize, CacheInvalidations,
			OrderMutations, RecordMutations, InventoryRetries,
			HTTPRequests, HTTPDuration,
		)
	})
}
