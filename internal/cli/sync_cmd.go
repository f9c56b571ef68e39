package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkessler/plantafel/internal/domain"
)

func newSyncCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror departments, machines and employees from the ERP",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := app.Sync.SyncAll(cmd.Context())

			for _, typ := range []domain.ResourceType{
				domain.ResourceDepartment,
				domain.ResourceMachine,
				domain.ResourceEmployee,
			} {
				r := result.ByType[typ]
				if r.Err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%-12s FAILED: %v\n", typ, r.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s +%d added  ~%d updated  -%d deactivated\n",
					typ, r.Added, r.Updated, r.Deactivated)
			}

			if !result.Success {
				return fmt.Errorf("sync finished with failures")
			}
			return nil
		},
	}
	return cmd
}
