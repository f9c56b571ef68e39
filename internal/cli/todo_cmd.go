package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/repository"
	"github.com/mkessler/plantafel/internal/service"
)

func newTodoCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage planning todos",
	}

	cmd.AddCommand(
		newTodoAddCmd(app),
		newTodoListCmd(app),
		newTodoRemoveCmd(app),
		newTodoGenerateCmd(app),
	)

	return cmd
}

func newTodoAddCmd(app *App) *cobra.Command {
	var title, typeStr, start, durationStr string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a todo",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				if !isatty.IsTerminal(os.Stdin.Fd()) {
					return fmt.Errorf("--interactive needs a terminal")
				}
				if err := todoForm(&title, &typeStr, &start, &durationStr).Run(); err != nil {
					return err
				}
			}

			todo := &domain.Todo{
				Type:  domain.TodoType(typeStr),
				Title: title,
			}
			if start != "" {
				t, err := time.Parse("2006-01-02 15:04", start)
				if err != nil {
					return fmt.Errorf("invalid start %q: %w", start, err)
				}
				utc := t.UTC()
				todo.PlannedStart = &utc
				todo.Status = domain.StatusPlanned
			}
			if durationStr != "" {
				minutes, err := strconv.Atoi(durationStr)
				if err != nil || minutes <= 0 {
					return fmt.Errorf("invalid duration %q", durationStr)
				}
				todo.IsDurationManual = true
				todo.TotalDurationMinutes = minutes
				if todo.PlannedStart != nil {
					end := todo.PlannedStart.Add(time.Duration(minutes) * time.Minute)
					todo.PlannedEnd = &end
				}
			}

			if err := app.Todos.Create(cmd.Context(), todo); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", todo.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "todo title")
	cmd.Flags().StringVar(&typeStr, "type", string(domain.TypeEigene), "todo type")
	cmd.Flags().StringVar(&start, "start", "", "planned start (YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVar(&durationStr, "duration", "", "manual duration in minutes")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for the fields")
	return cmd
}

func todoForm(title, typeStr, start, duration *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}).
				Value(title),
			huh.NewSelect[string]().
				Title("Type").
				Options(
					huh.NewOption("Eigenes Todo", string(domain.TypeEigene)),
					huh.NewOption("Task", string(domain.TypeTask)),
					huh.NewOption("Projekt", string(domain.TypeProject)),
				).
				Value(typeStr),
			huh.NewInput().
				Title("Planned start").
				Placeholder("YYYY-MM-DD HH:MM").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					_, err := time.Parse("2006-01-02 15:04", s)
					return err
				}).
				Value(start),
			huh.NewInput().
				Title("Duration (minutes)").
				Placeholder("optional").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					n, err := strconv.Atoi(s)
					if err != nil || n <= 0 {
						return fmt.Errorf("positive minutes expected")
					}
					return nil
				}).
				Value(duration),
		),
	)
}

func newTodoListCmd(app *App) *cobra.Command {
	var status, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := repository.TodoFilter{Search: search}
			if status != "" {
				filter.Statuses = []domain.TodoStatus{domain.TodoStatus(status)}
			}
			todos, err := app.Todos.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range todos {
				window := "unscheduled"
				if t.PlannedStart != nil && t.PlannedEnd != nil {
					window = fmt.Sprintf("%s – %s",
						t.PlannedStart.Format("02.01. 15:04"), t.PlannedEnd.Format("15:04"))
				}
				fmt.Fprintf(out, "%-36s  %-12s  %-20s  %s\n", t.ID, t.Status, window, t.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&search, "search", "", "title substring filter")
	return cmd
}

func newTodoRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a todo and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Todos.Delete(cmd.Context(), args[0])
		},
	}
}

func newTodoGenerateCmd(app *App) *cobra.Command {
	var withBom, withOps bool

	cmd := &cobra.Command{
		Use:   "generate <erp-order-id>",
		Short: "Generate a todo tree from an ERP order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}
			result, err := app.Todos.GenerateFromOrder(cmd.Context(), service.GenerateRequest{
				ErpOrderID:        orderID,
				IncludeBomItems:   withBom,
				IncludeOperations: withOps,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "container %s: %d articles, %d bom items, %d operations\n",
				result.ContainerID, result.ArticleCount, result.BomItemCount, result.OperationCount)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withBom, "bom", false, "also create todos for BOM items")
	cmd.Flags().BoolVar(&withOps, "operations", true, "also create todos for workplan operations")
	return cmd
}
