package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkessler/plantafel/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for the planning board",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewTextHandler(os.Stderr, nil))

			if listen == "" {
				listen = app.Config.ListenAddr
			}

			if app.Config.SyncOnStart {
				result := app.Sync.SyncAll(cmd.Context())
				for typ, r := range result.ByType {
					if r.Err != nil {
						log.Warn("startup sync failed", "type", string(typ), "error", r.Err)
					}
				}
			}

			srv := server.New(app.Todos, app.Deps, app.Conflicts, app.Sync, app.Gantt, app.Importer, log)
			httpSrv := &http.Server{
				Addr:              listen,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", listen)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "bind address (default from PLANTAFEL_LISTEN)")
	return cmd
}
