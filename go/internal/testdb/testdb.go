// Package testdb opens a migrated Postgres database for integration tests.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/mcdev12/corkboard/go/internal/migrations"
)

// EnvVar names the DSN of a disposable test database
const EnvVar = "TEST_DATABASE_URL"

// Open returns a database with the schema applied and all rows removed.
// The test is skipped when TEST_DATABASE_URL is not set.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv(EnvVar)
	if dsn == "" {
		t.Skipf("%s not set, skipping database test", EnvVar)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pgx pool: %v", err)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE users, documents, vote_counts`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
