//go:build integration

package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgrepo "github.com/Gunvolt24/record_shop/internal/repo/postgres"
)

// PGContainer — Postgres с применёнными миграциями и открытым пулом.
type PGContainer struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	DSN       string
}

// StartPostgresTC — поднимает postgres:16, накатывает goose-миграции и открывает пул.
func StartPostgresTC(ctx context.Context) (*PGContainer, func(context.Context) error, error) {
	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		lifecycle(),
		postgres.WithDatabase("records"),
		postgres.WithUsername("app"),
		postgres.WithPassword("app"),
		tc.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(60*time.Second),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("run postgres: %w", err)
	}
	terminate := func(c context.Context) error { return pg.Terminate(c) }

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = terminate(ctx)
		return nil, nil, fmt.Errorf("conn string: %w", err)
	}

	n, err := pgrepo.Migrate(ctx, dsn)
	if err != nil {
		_ = terminate(ctx)
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	tcLogger.Printf("goose: applied %d migration(s)", n)

	pool, err := pgrepo.Open(ctx, pgrepo.PoolConfig{DSN: dsn, MaxConns: 5, ApplicationName: "testutil"})
	if err != nil {
		_ = terminate(ctx)
		return nil, nil, err
	}

	stop := func(c context.Context) error {
		pool.Close()
		return terminate(c)
	}
	return &PGContainer{Container: pg, Pool: pool, DSN: dsn}, stop, nil
}
