package votes

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/corkboard/go/internal/sqlutil"
)

// Repository keeps one vote counter per document
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new vote repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// IncrementVote adds a vote for the document and returns the new total
func (r *Repository) IncrementVote(ctx context.Context, documentName, userID string) (int, error) {
	count, err := sqlutil.RunValue(ctx, r.db, func(tx *sql.Tx) (int, error) {
		var count int
		err := tx.QueryRowContext(ctx, `
			INSERT INTO vote_counts (document_name, count, last_user_id, updated_at)
			VALUES ($1, 1, $2, NOW())
			ON CONFLICT (document_name)
			DO UPDATE SET count = vote_counts.count + 1, last_user_id = EXCLUDED.last_user_id, updated_at = NOW()
			RETURNING count`,
			documentName, userID,
		).Scan(&count)
		return count, err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment vote for %q: %w", documentName, err)
	}
	return count, nil
}
