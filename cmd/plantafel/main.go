package main

import (
	"fmt"
	"os"

	"github.com/mkessler/plantafel/internal/cli"
	"github.com/mkessler/plantafel/internal/config"
	"github.com/mkessler/plantafel/internal/db"
	"github.com/mkessler/plantafel/internal/erp"
	"github.com/mkessler/plantafel/internal/importer"
	"github.com/mkessler/plantafel/internal/repository"
	"github.com/mkessler/plantafel/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// ERP bridge: live or test host per config, or the unconfigured
	// stand-in when no DSN is set.
	var resourceProvider erp.ResourceProvider = erp.Unconfigured{}
	var orderProvider erp.OrderProvider = erp.Unconfigured{}
	if dsn := cfg.ActiveErpDSN(); dsn != "" {
		provider, err := erp.Connect(dsn)
		if err != nil {
			return fmt.Errorf("connecting to erp: %w", err)
		}
		defer provider.Close()
		resourceProvider = provider
		orderProvider = provider
	}

	// Wire repositories
	todoRepo := repository.NewSQLiteTodoRepo(database)
	segmentRepo := repository.NewSQLiteSegmentRepo(database)
	depRepo := repository.NewSQLiteDependencyRepo(database)
	resourceRepo := repository.NewSQLiteResourceRepo(database)
	conflictRepo := repository.NewSQLiteConflictRepo(database)
	jobRepo := repository.NewSQLiteImportJobRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)
	obs := service.NewLogUseCaseObserver(os.Stderr)

	app := &cli.App{
		Config:    cfg,
		Todos:     service.NewTodoService(todoRepo, segmentRepo, resourceRepo, orderProvider, uow, obs),
		Deps:      service.NewDependencyService(depRepo, todoRepo, obs),
		Conflicts: service.NewConflictService(conflictRepo, uow, obs),
		Sync:      service.NewSyncService(resourceProvider, uow, obs),
		Gantt:     service.NewGanttService(todoRepo, depRepo, conflictRepo, uow, obs),
		Importer:  importer.New(jobRepo, uow, obs, nil),
	}

	return cli.NewRootCmd(app).Execute()
}
