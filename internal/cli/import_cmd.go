package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkessler/plantafel/internal/domain"
	"github.com/mkessler/plantafel/internal/erp"
	"github.com/mkessler/plantafel/internal/importer"
)

func newImportCmd(app *App) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an assembly parts list as article todos",
		Long: `Import reads a semicolon-separated parts list
(article number;description;quantity, one row per part) and creates a
todo per row in the background. The command waits for the job and
reports its outcome.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readPartsList(args[0])
			if err != nil {
				return err
			}

			req := importer.Request{
				FileName: filepath.Base(args[0]),
				Items:    items,
			}
			if parentID != "" {
				req.ParentID = &parentID
			}

			ctx := cmd.Context()
			jobID, err := app.Importer.Start(ctx, req)
			if err != nil {
				return err
			}

			for {
				job, err := app.Importer.Status(ctx, jobID)
				if err != nil {
					return err
				}
				switch job.State {
				case domain.ImportCompleted:
					fmt.Fprintf(cmd.OutOrStdout(), "imported %d articles from %s\n",
						job.ArticlesDone, job.FileName)
					return nil
				case domain.ImportFailed:
					return fmt.Errorf("import failed: %s", job.Error)
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(100 * time.Millisecond):
				}
			}
		},
	}

	cmd.Flags().StringVar(&parentID, "parent", "", "hang the imported todos under this todo")
	return cmd
}

func readPartsList(path string) ([]erp.AssemblyItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []erp.AssemblyItem
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		row := strings.TrimSpace(scanner.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		fields := strings.Split(row, ";")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected article;description[;quantity]", line)
		}
		item := erp.AssemblyItem{
			ArticleNumber: strings.TrimSpace(fields[0]),
			Description:   strings.TrimSpace(fields[1]),
			Quantity:      1,
		}
		if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
			qty, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(fields[2]), ",", "."), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad quantity %q", line, fields[2])
			}
			item.Quantity = qty
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
