package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/repository"
	"github.com/mkessler/plantafel/internal/testutil"
)

func newDependencyFixture(t *testing.T) (DependencyService, *repository.SQLiteTodoRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	todos := repository.NewSQLiteTodoRepo(database)
	deps := repository.NewSQLiteDependencyRepo(database)
	return NewDependencyService(deps, todos, nil), todos
}

func TestDependencyService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults id and finish_to_start", func(t *testing.T) {
		svc, todos := newDependencyFixture(t)
		a := testutil.NewTestTodo("a")
		require.NoError(t, todos.Create(ctx, a))
		b := testutil.NewTestTodo("b")
		require.NoError(t, todos.Create(ctx, b))

		d := &domain.TodoDependency{PredecessorID: a.ID, SuccessorID: b.ID}
		require.NoError(t, svc.Create(ctx, d))
		require.NotEmpty(t, d.ID)

		listed, err := svc.ListByTodo(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		require.Equal(t, domain.FinishToStart, listed[0].Type)
	})

	t.Run("self dependency rejected", func(t *testing.T) {
		svc, todos := newDependencyFixture(t)
		a := testutil.NewTestTodo("a")
		require.NoError(t, todos.Create(ctx, a))
		err := svc.Create(ctx, &domain.TodoDependency{PredecessorID: a.ID, SuccessorID: a.ID})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown endpoint rejected", func(t *testing.T) {
		svc, todos := newDependencyFixture(t)
		a := testutil.NewTestTodo("a")
		require.NoError(t, todos.Create(ctx, a))
		err := svc.Create(ctx, &domain.TodoDependency{PredecessorID: a.ID, SuccessorID: "ghost"})
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("duplicate pair rejected regardless of type", func(t *testing.T) {
		svc, todos := newDependencyFixture(t)
		a := testutil.NewTestTodo("a")
		require.NoError(t, todos.Create(ctx, a))
		b := testutil.NewTestTodo("b")
		require.NoError(t, todos.Create(ctx, b))

		require.NoError(t, svc.Create(ctx, &domain.TodoDependency{
			PredecessorID: a.ID, SuccessorID: b.ID, Type: domain.FinishToStart,
		}))
		err := svc.Create(ctx, &domain.TodoDependency{
			PredecessorID: a.ID, SuccessorID: b.ID, Type: domain.StartToStart,
		})
		require.ErrorIs(t, err, repository.ErrDuplicateDependency)

		// Opposite direction is a different edge. Loops are allowed and
		// surface as scheduling conflicts instead.
		require.NoError(t, svc.Create(ctx, &domain.TodoDependency{
			PredecessorID: b.ID, SuccessorID: a.ID,
		}))
	})
}
