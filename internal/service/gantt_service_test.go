package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/repository"
	"github.com/mkessler/plantafel/internal/testutil"
)

type ganttFixture struct {
	todos     *repository.SQLiteTodoRepo
	deps      *repository.SQLiteDependencyRepo
	conflicts *repository.SQLiteConflictRepo
	svc       GanttService
}

func newGanttFixture(t *testing.T) *ganttFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	todos := repository.NewSQLiteTodoRepo(database)
	deps := repository.NewSQLiteDependencyRepo(database)
	conflicts := repository.NewSQLiteConflictRepo(database)
	return &ganttFixture{
		todos:     todos,
		deps:      deps,
		conflicts: conflicts,
		svc:       NewGanttService(todos, deps, conflicts, testutil.NewTestUoW(database), nil),
	}
}

func taskByID(t *testing.T, data *GanttData, id string) GanttTask {
	t.Helper()
	for _, task := range data.Tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %s not in projection", id)
	return GanttTask{}
}

func TestGanttService_Data(t *testing.T) {
	ctx := context.Background()
	f := newGanttFixture(t)

	container := testutil.NewTestTodo("Auftrag 4711",
		testutil.WithType(domain.TypeContainerOrder))
	require.NoError(t, f.todos.Create(ctx, container))

	op := testutil.NewTestTodo("drill",
		testutil.WithParent(container.ID),
		testutil.WithStatus(domain.StatusInProgress),
		testutil.WithPlanned(at(0), at(60)),
		testutil.WithTimes(10, 5, 2))
	require.NoError(t, f.todos.Create(ctx, op))

	dep := testutil.NewTestDependency(container.ID, op.ID, domain.StartToStart, 30)
	require.NoError(t, f.deps.Create(ctx, dep))

	conflict := testutil.NewTestConflict(op.ID, domain.ConflictResourceOverlap, domain.SeverityError)
	require.NoError(t, f.conflicts.Create(ctx, conflict))

	data, err := f.svc.Data(ctx)
	require.NoError(t, err)
	require.Len(t, data.Tasks, 2)
	require.Len(t, data.Links, 1)

	root := taskByID(t, data, container.ID)
	require.Equal(t, "0", root.Parent)
	require.Equal(t, "project", root.Type)
	require.Zero(t, root.Progress)
	require.False(t, root.HasConflicts)

	child := taskByID(t, data, op.ID)
	require.Equal(t, container.ID, child.Parent)
	require.Equal(t, "task", child.Type)
	require.Equal(t, 0.5, child.Progress)
	require.Equal(t, 30, child.Duration, "10 + 5*2 rounded up to the slot")
	require.True(t, child.HasConflicts)

	link := data.Links[0]
	require.Equal(t, container.ID, link.Source)
	require.Equal(t, op.ID, link.Target)
	require.Equal(t, 1, link.Type)
	require.Equal(t, 30, link.Lag)
}

func TestGanttService_ProgressMapping(t *testing.T) {
	cases := []struct {
		status   domain.TodoStatus
		stored   float64
		expected float64
	}{
		{domain.StatusNew, 0.7, 0},
		{domain.StatusPlanned, 0.7, 0.1},
		{domain.StatusInProgress, 0.7, 0.5},
		{domain.StatusCompleted, 0.7, 1},
		{domain.StatusBlocked, 0.7, 0.7},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			todo := testutil.NewTestTodo("x", testutil.WithStatus(tc.status))
			todo.Progress = tc.stored
			require.Equal(t, tc.expected, ganttProgress(todo))
		})
	}
}

func TestGanttService_ApplyBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("create update delete in one batch", func(t *testing.T) {
		f := newGanttFixture(t)
		existing := testutil.NewTestTodo("move me",
			testutil.WithStatus(domain.StatusPlanned),
			testutil.WithPlanned(at(0), at(60)))
		require.NoError(t, f.todos.Create(ctx, existing))
		doomed := testutil.NewTestTodo("delete me")
		require.NoError(t, f.todos.Create(ctx, doomed))

		newStart := at(120)
		dur := 45
		result, err := f.svc.ApplyBatch(ctx, BatchRequest{
			CreatedTasks: []BatchTask{{Title: "fresh", Start: &newStart}},
			UpdatedTasks: []BatchTask{{
				ID:              existing.ID,
				Start:           &newStart,
				DurationMinutes: &dur,
				Version:         existing.Version,
			}},
			DeletedTasks: []string{doomed.ID},
		})
		require.NoError(t, err)
		require.Equal(t, 3, result.Applied)
		require.Empty(t, result.Errors)

		moved, err := f.todos.GetByID(ctx, existing.ID)
		require.NoError(t, err)
		require.True(t, moved.PlannedStart.Equal(newStart))
		require.True(t, moved.IsDurationManual, "board resize pins the duration")
		require.Equal(t, 45, moved.TotalDurationMinutes)
		require.True(t, moved.PlannedEnd.Equal(newStart.Add(45*time.Minute)))
		require.Equal(t, existing.Version+1, moved.Version)

		_, err = f.todos.GetByID(ctx, doomed.ID)
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("stale version fails the item, not the batch", func(t *testing.T) {
		f := newGanttFixture(t)
		a := testutil.NewTestTodo("a", testutil.WithStatus(domain.StatusPlanned),
			testutil.WithPlanned(at(0), at(60)))
		require.NoError(t, f.todos.Create(ctx, a))
		b := testutil.NewTestTodo("b", testutil.WithStatus(domain.StatusPlanned),
			testutil.WithPlanned(at(0), at(60)))
		require.NoError(t, f.todos.Create(ctx, b))

		start := at(240)
		result, err := f.svc.ApplyBatch(ctx, BatchRequest{
			UpdatedTasks: []BatchTask{
				{ID: a.ID, Start: &start, Version: a.Version + 5}, // stale board
				{ID: b.ID, Start: &start, Version: b.Version},
			},
		})
		require.NoError(t, err)
		require.Equal(t, 1, result.Applied)
		require.Len(t, result.Errors, 1)
		require.Equal(t, "task", result.Errors[0].Kind)
		require.Equal(t, a.ID, result.Errors[0].ID)

		moved, err := f.todos.GetByID(ctx, b.ID)
		require.NoError(t, err)
		require.True(t, moved.PlannedStart.Equal(start))
	})

	t.Run("links are created and removed", func(t *testing.T) {
		f := newGanttFixture(t)
		a := testutil.NewTestTodo("a")
		require.NoError(t, f.todos.Create(ctx, a))
		b := testutil.NewTestTodo("b")
		require.NoError(t, f.todos.Create(ctx, b))
		old := testutil.NewTestDependency(b.ID, a.ID, domain.FinishToStart, 0)
		require.NoError(t, f.deps.Create(ctx, old))

		result, err := f.svc.ApplyBatch(ctx, BatchRequest{
			CreatedLinks: []BatchLink{{Source: a.ID, Target: b.ID, Type: 2, LagMinutes: 15}},
			DeletedLinks: []string{old.ID},
		})
		require.NoError(t, err)
		require.Equal(t, 2, result.Applied)

		remaining, err := f.deps.List(ctx)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		require.Equal(t, domain.FinishToFinish, remaining[0].Type)
		require.Equal(t, 15, remaining[0].LagMinutes)
	})

	t.Run("vanished task and empty title are item errors", func(t *testing.T) {
		f := newGanttFixture(t)
		start := at(0)
		result, err := f.svc.ApplyBatch(ctx, BatchRequest{
			CreatedTasks: []BatchTask{{Title: "", Start: &start}},
			UpdatedTasks: []BatchTask{{ID: "gone", Start: &start, Version: 1}},
		})
		require.NoError(t, err)
		require.Zero(t, result.Applied)
		require.Len(t, result.Errors, 2)
	})
}
