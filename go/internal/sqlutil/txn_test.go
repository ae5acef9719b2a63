package sqlutil

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/mcdev12/corkboard/go/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countVotes(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM vote_counts`).Scan(&n))
	return n
}

func TestRun_CommitsAndRollsBack(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := Run(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO vote_counts (document_name, count) VALUES ('rolled-back', 1)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countVotes(t, db))

	require.NoError(t, Run(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO vote_counts (document_name, count) VALUES ('committed', 1)`)
		return err
	}))
	assert.Equal(t, 1, countVotes(t, db))
}

func TestRunValue(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	got, err := RunValue(ctx, db, func(tx *sql.Tx) (int, error) {
		var n int
		err := tx.QueryRowContext(ctx,
			`INSERT INTO vote_counts (document_name, count) VALUES ('doc', 7) RETURNING count`,
		).Scan(&n)
		return n, err
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
