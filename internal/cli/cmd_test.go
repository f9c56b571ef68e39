package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkessler/plantafel/internal/config"
	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/erp"
	"github.com/mkessler/plantafel/internal/importer"
	"github.com/mkessler/plantafel/internal/repository"
	"github.com/mkessler/plantafel/internal/service"
	"github.com/mkessler/plantafel/internal/testutil"
)

type cannedResources struct {
	records map[domain.ResourceType][]erp.ResourceRecord
}

func (p cannedResources) FetchResources(_ context.Context, typ domain.ResourceType) ([]erp.ResourceRecord, error) {
	return p.records[typ], nil
}

type noErpOrders struct{}

func (noErpOrders) FetchOrder(context.Context, int64) (*erp.Order, error) {
	return nil, context.Canceled
}

func newTestApp(t *testing.T) (*App, *repository.SQLiteResourceRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	todos := repository.NewSQLiteTodoRepo(database)
	segments := repository.NewSQLiteSegmentRepo(database)
	deps := repository.NewSQLiteDependencyRepo(database)
	resources := repository.NewSQLiteResourceRepo(database)
	conflicts := repository.NewSQLiteConflictRepo(database)
	jobs := repository.NewSQLiteImportJobRepo(database)

	provider := cannedResources{records: map[domain.ResourceType][]erp.ResourceRecord{
		domain.ResourceMachine: {{ErpID: 1, Name: "Laser 1"}},
	}}

	app := &App{
		Config:    &config.Config{},
		Todos:     service.NewTodoService(todos, segments, resources, noErpOrders{}, uow, nil),
		Deps:      service.NewDependencyService(deps, todos, nil),
		Conflicts: service.NewConflictService(conflicts, uow, nil),
		Sync:      service.NewSyncService(provider, uow, nil),
		Gantt:     service.NewGanttService(todos, deps, conflicts, uow, nil),
		Importer:  importer.New(jobs, uow, nil, nil),
	}
	return app, resources
}

func runCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncCmd(t *testing.T) {
	app, _ := newTestApp(t)
	out, err := runCmd(t, app, "sync")
	require.NoError(t, err)
	require.Contains(t, out, "machine")
	require.Contains(t, out, "+1 added")
}

func TestTodoAddAndListCmd(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := runCmd(t, app, "todo", "add",
		"--title", "Vorrichtung bauen",
		"--start", "2026-03-02 08:00",
		"--duration", "90")
	require.NoError(t, err)
	require.Contains(t, out, "created ")

	out, err = runCmd(t, app, "todo", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Vorrichtung bauen")
	require.Contains(t, out, "planned")
}

func TestCheckCmdReportsOverlap(t *testing.T) {
	app, resources := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, app.Sync.SyncType(ctx, domain.ResourceMachine).Err)
	machines, err := resources.ListByType(ctx, domain.ResourceMachine, true)
	require.NoError(t, err)
	require.Len(t, machines, 1)

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	for _, title := range []string{"cut A", "cut B"} {
		out, err := runCmd(t, app, "todo", "add",
			"--title", title,
			"--start", start.Format("2006-01-02 15:04"),
			"--duration", "60")
		require.NoError(t, err)
		require.Contains(t, out, "created ")
	}

	// Put both on the synced machine so the pass finds the overlap.
	todos, err := app.Todos.List(ctx, repository.TodoFilter{})
	require.NoError(t, err)
	require.Len(t, todos, 2)
	for _, todo := range todos {
		todo.MachineID = &machines[0].ID
		require.NoError(t, app.Todos.Update(ctx, todo))
	}

	out, err := runCmd(t, app, "check", "--list")
	require.NoError(t, err)
	require.Contains(t, out, "resource overlaps:     1")
	require.Contains(t, out, "[error]")
}

func TestImportCmd(t *testing.T) {
	app, _ := newTestApp(t)
	path := writePartsFile(t, "X-1;Blech;2\nX-2;Deckel;1\n")

	out, err := runCmd(t, app, "import", path)
	require.NoError(t, err)
	require.Contains(t, out, "imported 2 articles")

	todos, err := app.Todos.List(context.Background(), repository.TodoFilter{})
	require.NoError(t, err)
	require.Len(t, todos, 2)
}
