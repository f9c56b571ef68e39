package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/erp"
	"github.com/mkessler/plantafel/internal/repository"
	"github.com/mkessler/plantafel/internal/service"
	"github.com/mkessler/plantafel/internal/testutil"
)

func waitForJob(t *testing.T, imp *Importer, jobID string, want domain.ImportJobState) *domain.ImportJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := imp.Status(context.Background(), jobID)
		require.NoError(t, err)
		if job.State == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached state %s", jobID, want)
	return nil
}

func items(n int) []erp.AssemblyItem {
	out := make([]erp.AssemblyItem, n)
	for i := range out {
		out[i] = erp.AssemblyItem{
			ArticleNumber: "X-" + string(rune('A'+i)),
			Description:   "Teil",
			Quantity:      float64(i + 1),
		}
	}
	return out
}

func TestImporter_RunsToCompletion(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	jobs := repository.NewSQLiteImportJobRepo(database)
	todos := repository.NewSQLiteTodoRepo(database)
	imp := New(jobs, testutil.NewTestUoW(database), nil, nil)

	jobID, err := imp.Start(ctx, Request{FileName: "baugruppe.csv", Items: items(3)})
	require.NoError(t, err)

	job := waitForJob(t, imp, jobID, domain.ImportCompleted)
	require.Equal(t, 3, job.ArticlesTotal)
	require.Equal(t, 3, job.ArticlesDone)
	require.Empty(t, job.Error)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.FinishedAt)

	created, err := todos.List(ctx, repository.TodoFilter{})
	require.NoError(t, err)
	require.Len(t, created, 3)
	for _, todo := range created {
		require.Equal(t, domain.TypeTask, todo.Type)
	}
}

func TestImporter_BadRowFailsJobAndRollsBack(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	jobs := repository.NewSQLiteImportJobRepo(database)
	todos := repository.NewSQLiteTodoRepo(database)
	imp := New(jobs, testutil.NewTestUoW(database), nil, nil)

	bad := items(3)
	bad[2].ArticleNumber = ""
	jobID, err := imp.Start(ctx, Request{FileName: "kaputt.csv", Items: bad})
	require.NoError(t, err)

	job := waitForJob(t, imp, jobID, domain.ImportFailed)
	require.Contains(t, job.Error, "row 3")
	require.Zero(t, job.ArticlesDone)

	created, err := todos.List(ctx, repository.TodoFilter{})
	require.NoError(t, err)
	require.Empty(t, created, "failed import must not leave partial rows")
}

func TestImporter_EmptyListRejectedUpFront(t *testing.T) {
	database := testutil.NewTestDB(t)
	imp := New(repository.NewSQLiteImportJobRepo(database), testutil.NewTestUoW(database), nil, nil)

	_, err := imp.Start(context.Background(), Request{FileName: "leer.csv"})
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestImporter_SecondJobWaitsForTheSlot(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	jobs := repository.NewSQLiteImportJobRepo(database)

	// Hold the only worker slot so started jobs can only queue.
	slot := make(chan struct{}, 1)
	slot <- struct{}{}
	imp := New(jobs, testutil.NewTestUoW(database), nil, slot)

	jobID, err := imp.Start(ctx, Request{FileName: "wartet.csv", Items: items(1)})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	job, err := imp.Status(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, domain.ImportPending, job.State, "job must not run while the slot is held")

	<-slot
	waitForJob(t, imp, jobID, domain.ImportCompleted)
}
