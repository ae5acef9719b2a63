package documents

import (
	"context"
	"testing"

	"github.com/mcdev12/corkboard/go/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_FetchStore(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, found, err := repo.Fetch(ctx, "board")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Store(ctx, "board", []byte{1, 2, 3}))
	state, found, err := repo.Fetch(ctx, "board")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte{1, 2, 3}, state)

	require.NoError(t, repo.Store(ctx, "board", []byte{9}))
	state, _, err = repo.Fetch(ctx, "board")
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, state)
}

func TestEnsureExists_PlaceholderIsNotFound(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, EnsureExists(ctx, tx, "placeholder"))
	require.NoError(t, tx.Commit())

	_, found, err := NewRepository(db).Fetch(ctx, "placeholder")
	require.NoError(t, err)
	assert.False(t, found)
}
