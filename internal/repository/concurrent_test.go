package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mkessler/plantafel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentUpdates_ExactlyOneWins races N editors holding the same
// version against the compare-and-swap update. Exactly one must win per
// round; every loser gets ErrVersionConflict.
func TestConcurrentUpdates_ExactlyOneWins(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewSQLiteTodoRepo(database)

	todo := testutil.NewTestTodo("umkämpft")
	require.NoError(t, repo.Create(ctx, todo))

	const editors = 8
	var wg sync.WaitGroup
	results := make(chan error, editors)

	for i := 0; i < editors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clone := *todo // everyone starts from version 1
			clone.Title = "edited"
			results <- repo.Update(ctx, &clone)
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrVersionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, editors-1, conflicts)

	got, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version, "only the winner's increment lands")
}

// TestSequentialRetry_AfterConflict shows the documented retry protocol:
// re-read, reapply, update again.
func TestSequentialRetry_AfterConflict(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewSQLiteTodoRepo(database)

	todo := testutil.NewTestTodo("retry me")
	require.NoError(t, repo.Create(ctx, todo))

	winner := *todo
	winner.Priority = 5
	require.NoError(t, repo.Update(ctx, &winner))

	loser := *todo
	loser.Title = "second edit"
	require.ErrorIs(t, repo.Update(ctx, &loser), ErrVersionConflict)

	// Retry: re-read and reapply.
	fresh, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	fresh.Title = "second edit"
	require.NoError(t, repo.Update(ctx, fresh))

	got, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "second edit", got.Title)
	assert.Equal(t, 5, got.Priority, "winner's change survives the retry")
	assert.Equal(t, 3, got.Version)
}
