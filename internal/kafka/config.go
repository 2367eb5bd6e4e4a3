package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ConsumerConfig — параметры консьюмера событий исполнения заказов.
type ConsumerConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	StartOffset string // first | last (по умолчанию last)

	ProcessTimeout time.Duration // таймаут обработки одного сообщения
	RetryInitial   time.Duration // начальная задержка повторов (fetch и обработка)
	RetryMax       time.Duration // верхняя граница задержки
}

// ReaderConfig — конфиг kafka.Reader с ручным коммитом оффсетов.
func (c *ConsumerConfig) ReaderConfig() kafka.ReaderConfig {
	start := kafka.LastOffset
	if strings.EqualFold(strings.TrimSpace(c.StartOffset), "first") {
		start = kafka.FirstOffset
	}
	return kafka.ReaderConfig{
		Brokers:        c.Brokers,
		GroupID:        c.GroupID,
		Topic:          c.Topic,
		StartOffset:    start,
		CommitInterval: 0, // коммит вручную после обработки
		MinBytes:       1,
		MaxBytes:       1 << 20,
	}
}

// ProducerConfig — параметры публикации событий жизненного цикла заказа.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	BatchTimeout time.Duration
}

// Writer — kafka.Writer: события одного заказа по ключу уходят в одну партицию.
func (c *ProducerConfig) Writer() *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           durationOr(c.BatchTimeout, 10*time.Millisecond),
		WriteTimeout:           durationOr(c.WriteTimeout, 5*time.Second),
		AllowAutoTopicCreation: true,
	}
}
