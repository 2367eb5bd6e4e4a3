//go:build integration

package testutil

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
)

// KafkaEnv — Redpanda с Kafka API; BaseTopic — префикс тестовых топиков.
type KafkaEnv struct {
	Container *redpanda.Container
	Brokers   []string
	BaseTopic string
}

func StartKafkaTC(ctx context.Context, baseTopic string) (*KafkaEnv, func(context.Context) error, error) {
	rp, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v23.3.8",
		lifecycle(),
		redpanda.WithAutoCreateTopics(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("run redpanda: %w", err)
	}

	seed, err := rp.KafkaSeedBroker(ctx)
	if err != nil {
		_ = tc.TerminateContainer(rp)
		return nil, nil, fmt.Errorf("seed broker: %w", err)
	}

	stop := func(_ context.Context) error { return tc.TerminateContainer(rp) }
	return &KafkaEnv{Container: rp, Brokers: []string{seed}, BaseTopic: baseTopic}, stop, nil
}

var unsafeTopicChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// NewTopic — уникальный топик (и одноимённая consumer group) для одного теста.
// Топик создаётся через admin-API брокера, вызов ждёт его появления в метаданных.
// Пример: base="record-fulfillment-itc", name="TestKafka/last" → "record-fulfillment-itc-TestKafka-last-1724630523123456789".
func (e *KafkaEnv) NewTopic(ctx context.Context, name string) (topic, group string, err error) {
	name = strings.Trim(unsafeTopicChars.ReplaceAllString(name, "-"), "-")
	topic = fmt.Sprintf("%s-%s-%d", e.BaseTopic, name, time.Now().UnixNano())

	client := &kafka.Client{Addr: kafka.TCP(e.Brokers...), Timeout: 10 * time.Second}
	resp, err := client.CreateTopics(ctx, &kafka.CreateTopicsRequest{
		Topics: []kafka.TopicConfig{{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}},
	})
	if err != nil {
		return "", "", fmt.Errorf("create topic %s: %w", topic, err)
	}
	if terr := resp.Errors[topic]; terr != nil && !errors.Is(terr, kafka.TopicAlreadyExists) {
		return "", "", fmt.Errorf("create topic %s: %w", topic, terr)
	}

	if err := waitTopicReady(ctx, client, topic); err != nil {
		return "", "", err
	}
	return topic, topic, nil
}

// waitTopicReady — опрашивает метаданные, пока у топика не появится лидер партиции.
func waitTopicReady(ctx context.Context, client *kafka.Client, topic string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	var lastErr error
	for {
		md, err := client.Metadata(ctx, &kafka.MetadataRequest{Topics: []string{topic}})
		switch {
		case err != nil:
			lastErr = err
		case len(md.Topics) == 1 && md.Topics[0].Error == nil && len(md.Topics[0].Partitions) > 0:
			return nil
		case len(md.Topics) == 1:
			lastErr = md.Topics[0].Error
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("topic %q not ready: %w", topic, lastErr)
			}
			return fmt.Errorf("topic %q not ready: %w", topic, ctx.Err())
		case <-tick.C:
		}
	}
}
