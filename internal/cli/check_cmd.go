package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(app *App) *cobra.Command {
	var todoID string
	var list bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run conflict detection over the plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if todoID != "" {
				found, err := app.Conflicts.CheckTodo(ctx, todoID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d conflict(s) for todo %s\n", found, todoID)
			} else {
				counts, err := app.Conflicts.CheckAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "resource overlaps:     %d\n", counts.ResourceOverlaps)
				fmt.Fprintf(out, "dependency violations: %d\n", counts.DependencyViolations)
				fmt.Fprintf(out, "delivery overruns:     %d\n", counts.DeliveryOverruns)
			}

			if !list {
				return nil
			}
			conflicts, err := app.Conflicts.List(ctx, true)
			if err != nil {
				return err
			}
			for _, c := range conflicts {
				fmt.Fprintf(out, "[%s] %-17s %s\n", c.Conflict.Severity, c.Conflict.Type, c.Conflict.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&todoID, "todo", "", "re-check a single todo instead of the whole plan")
	cmd.Flags().BoolVar(&list, "list", false, "print the unresolved conflicts after the pass")
	return cmd
}
