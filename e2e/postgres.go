// Package e2e hosts the shared infrastructure for end-to-end tests: one
// Postgres container for the whole package run, migrated once.
package e2e

import (
	"context"
	"sync"
	"testing"

	"github.com/chimecord/chime/internal/datalayer"
	"github.com/chimecord/chime/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgOnce      sync.Once
	pgContainer *postgres.PostgresContainer
	pgConnStr   string
	pgErr       error
)

// UsePostgres starts the shared Postgres container on first use and
// returns its connection string.
func UsePostgres(t *testing.T) string {
	t.Helper()
	pgOnce.Do(func() {
		ctx := context.Background()
		pgContainer, pgErr = postgres.Run(
			ctx,
			"postgres",
			postgres.WithDatabase("chime"),
			postgres.WithUsername("user"),
			postgres.WithPassword("password"),
			postgres.BasicWaitStrategies(),
		)
		if pgErr != nil {
			return
		}
		pgConnStr, pgErr = pgContainer.ConnectionString(ctx)
	})
	if pgErr != nil {
		t.Fatalf("failed to provision postgres: %v", pgErr)
	}
	return pgConnStr
}

// GetRepository opens a pool against the shared container, runs
// migrations, and returns a repository. The pool closes with the test.
func GetRepository(t *testing.T, connStr string) *repository.PostgresChimeRepository {
	t.Helper()
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := datalayer.MigratePostgres(pool); err != nil {
		t.Fatalf("failed to migrate postgres: %v", err)
	}
	return repository.NewPostgresChimeRepository(pool)
}

// TerminatePostgresForE2E tears the shared container down; called from
// TestMain after all tests ran.
func TerminatePostgresForE2E() {
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
}
