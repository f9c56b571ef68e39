package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCascadeDelete_TodoTakesEverything verifies that deleting a todo
// removes its segments, its dependency edges in both directions, and
// conflicts where it is subject or related.
func TestCascadeDelete_TodoTakesEverything(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	todos := NewSQLiteTodoRepo(database)
	segments := NewSQLiteSegmentRepo(database)
	deps := NewSQLiteDependencyRepo(database)
	conflicts := NewSQLiteConflictRepo(database)

	victim := testutil.NewTestTodo("victim")
	other := testutil.NewTestTodo("other")
	require.NoError(t, todos.Create(ctx, victim))
	require.NoError(t, todos.Create(ctx, other))

	start := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, segments.ReplaceForTodo(ctx, victim.ID, []*domain.TodoSegment{
		testutil.NewTestSegment(victim.ID, 0, start, start.Add(time.Hour)),
		testutil.NewTestSegment(victim.ID, 1, start.Add(2*time.Hour), start.Add(3*time.Hour)),
	}))
	require.NoError(t, deps.Create(ctx,
		testutil.NewTestDependency(victim.ID, other.ID, domain.FinishToStart, 0)))
	require.NoError(t, deps.Create(ctx,
		testutil.NewTestDependency(other.ID, victim.ID, domain.StartToStart, 0)))
	require.NoError(t, conflicts.Create(ctx,
		testutil.NewTestConflict(victim.ID, domain.ConflictDeliveryDate, domain.SeverityError)))

	related := testutil.NewTestConflict(other.ID, domain.ConflictResourceOverlap, domain.SeverityWarning)
	related.RelatedTodoID = &victim.ID
	require.NoError(t, conflicts.Create(ctx, related))

	require.NoError(t, todos.Delete(ctx, victim.ID))

	segs, err := segments.ListByTodo(ctx, victim.ID)
	require.NoError(t, err)
	assert.Empty(t, segs, "segments cascade with the todo")

	remaining, err := deps.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining, "edges in both directions cascade")

	conf, err := conflicts.ListByTodo(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, conf, "conflicts referencing the todo as related cascade")
}

// TestCascadeDelete_ParentTakesChildren verifies the parent_id cascade.
func TestCascadeDelete_ParentTakesChildren(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	todos := NewSQLiteTodoRepo(database)

	parent := testutil.NewTestTodo("Auftrag", testutil.WithType(domain.TypeContainerOrder))
	require.NoError(t, todos.Create(ctx, parent))
	child := testutil.NewTestTodo("Artikel",
		testutil.WithType(domain.TypeContainerArticle), testutil.WithParent(parent.ID))
	require.NoError(t, todos.Create(ctx, child))
	grandchild := testutil.NewTestTodo("Arbeitsgang", testutil.WithParent(child.ID))
	require.NoError(t, todos.Create(ctx, grandchild))

	require.NoError(t, todos.Delete(ctx, parent.ID))

	_, err := todos.GetByID(ctx, child.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = todos.GetByID(ctx, grandchild.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestResourceDelete_SetsAssignmentNull verifies that deleting a cached
// resource nulls todo assignments instead of deleting todos.
func TestResourceDelete_SetsAssignmentNull(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	todos := NewSQLiteTodoRepo(database)
	resources := NewSQLiteResourceRepo(database)

	machine := testutil.NewTestResource(domain.ResourceMachine, "Fräse 2")
	require.NoError(t, resources.Create(ctx, machine))

	todo := testutil.NewTestTodo("Fräsen", testutil.WithMachine(machine.ID))
	require.NoError(t, todos.Create(ctx, todo))

	require.NoError(t, resources.Delete(ctx, machine.ID))

	got, err := todos.GetByID(ctx, todo.ID)
	require.NoError(t, err, "todo must survive resource deletion")
	assert.Nil(t, got.MachineID, "assignment reference is nulled")
}
