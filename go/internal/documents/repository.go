package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository persists opaque CRDT document state keyed by document name
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new document repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Fetch returns the stored state for a document. found is false for unknown
// documents and for placeholder rows that never had state written.
func (r *Repository) Fetch(ctx context.Context, name string) (state []byte, found bool, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT state FROM documents WHERE name = $1`,
		name,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch document %q: %w", name, err)
	}
	if len(state) == 0 {
		return nil, false, nil
	}
	return state, true, nil
}

// Store upserts the full document state
func (r *Repository) Store(ctx context.Context, name string, state []byte) error {
	if state == nil {
		state = []byte{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (name, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name)
		DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()`,
		name, state,
	)
	if err != nil {
		return fmt.Errorf("failed to store document %q: %w", name, err)
	}
	return nil
}

// EnsureExists inserts an empty placeholder row so rows referencing the document can be written
func EnsureExists(ctx context.Context, tx *sql.Tx, name string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO documents (name, state)
		VALUES ($1, ''::bytea)
		ON CONFLICT (name) DO NOTHING`,
		name,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure document %q: %w", name, err)
	}
	return nil
}
