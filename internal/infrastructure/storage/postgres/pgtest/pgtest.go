//go:build integration

// Package pgtest starts a throwaway PostgreSQL container with the schema
// applied. Tests using it run with -tags integration.
package pgtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"workshop/internal/infrastructure/storage/postgres"
	"workshop/internal/infrastructure/storage/postgres/migrations"
	"workshop/pkg/logger"
)

// DB is a migrated database.
type DB struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	DSN       string
}

// Context returns ctx carrying the transaction manager, as the Database
// middleware does for requests.
func (db *DB) Context(ctx context.Context) context.Context {
	return postgres.WithTxManager(ctx, db.TxManager)
}

// New starts postgres:16-alpine, applies migrations and registers cleanup.
func New(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("workshop_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrations.New(dsn, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return &DB{Pool: pool, TxManager: postgres.NewTxManager(pool), DSN: dsn}
}
