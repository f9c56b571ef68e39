// Package cli wires the planning services into the plantafel command
// tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mkessler/plantafel/internal/config"
	"github.com/mkessler/plantafel/internal/importer"
	"github.com/mkessler/plantafel/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Config    *config.Config
	Todos     service.TodoService
	Deps      service.DependencyService
	Conflicts service.ConflictService
	Sync      service.SyncService
	Gantt     service.GanttService
	Importer  *importer.Importer
}

// NewRootCmd creates the top-level "plantafel" command and registers
// all subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "plantafel",
		Short: "Production planning board and conflict checker",
	}

	root.AddCommand(
		newServeCmd(app),
		newTodoCmd(app),
		newSyncCmd(app),
		newCheckCmd(app),
		newBoardCmd(app),
		newImportCmd(app),
	)

	return root
}
