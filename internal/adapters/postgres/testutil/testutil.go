// Package testutil provides database fixtures for Postgres adapter tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Thepalm86/tripweaver/internal/adapters/postgres"
	"github.com/Thepalm86/tripweaver/internal/adapters/postgres/migrations"
)

// OpenMigratedPool connects to the database named by TEST_DATABASE_URL and
// applies the schema. Tests are skipped when the variable is unset, so the
// suite stays green on machines without a database.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}
