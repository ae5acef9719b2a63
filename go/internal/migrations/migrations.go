package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "documents",
		sql: `CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			state BYTEA NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	},
	{
		name: "users",
		sql: `CREATE TABLE IF NOT EXISTS users (
			id UUID NOT NULL,
			document_name TEXT NOT NULL REFERENCES documents(name) ON DELETE CASCADE,
			online BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(id, document_name)
		)`,
	},
	{
		name: "vote_counts",
		sql: `CREATE TABLE IF NOT EXISTS vote_counts (
			document_name TEXT PRIMARY KEY,
			count INTEGER NOT NULL DEFAULT 0,
			last_user_id TEXT,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	},
}

// Apply creates every table the service needs. Statements are idempotent.
func Apply(ctx context.Context, db Execer) error {
	for _, m := range migrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		log.Debug().Str("migration", m.name).Msg("migration applied")
	}

	log.Info().Int("migrations", len(migrations)).Msg("database schema ready")
	return nil
}
