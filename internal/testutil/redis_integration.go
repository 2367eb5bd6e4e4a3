//go:build integration

package testutil

import (
	"context"
	"fmt"

	tc "github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisEnv — адрес host:port для go-redis.
type RedisEnv struct {
	Container *tcredis.RedisContainer
	Addr      string
}

func StartRedisTC(ctx context.Context) (*RedisEnv, func(context.Context) error, error) {
	rc, err := tcredis.Run(ctx, "redis:7-alpine", lifecycle())
	if err != nil {
		return nil, nil, fmt.Errorf("run redis: %w", err)
	}

	endpoint, err := rc.Endpoint(ctx, "")
	if err != nil {
		_ = tc.TerminateContainer(rc)
		return nil, nil, fmt.Errorf("redis endpoint: %w", err)
	}

	stop := func(_ context.Context) error { return tc.TerminateContainer(rc) }
	return &RedisEnv{Container: rc, Addr: endpoint}, stop, nil
}
