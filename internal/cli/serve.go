package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"daybook/internal/backup"
	appLog "daybook/internal/log"
	"daybook/internal/planner"
	"daybook/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI and JSON API, and run scheduled backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(func(p *planner.Planner) error {
				// --listen overrides the config file if provided.
				if listen != "" {
					app.cfg.Listen = listen
				}

				appLog.Info("effective config",
					"listen", app.cfg.Listen,
					"store_driver", app.cfg.Store.Driver,
					"store_path", app.cfg.Store.Path,
					"backup_schedule", app.cfg.Backup.Schedule,
					"basic_auth", app.cfg.BasicAuth != nil,
				)

				// Root context with cancellation on SIGINT/SIGTERM.
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()

				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				defer signal.Stop(sigCh)

				go func() {
					select {
					case sig := <-sigCh:
						appLog.Info("signal received, shutting down", "signal", sig.String())
						cancel()
					case <-ctx.Done():
					}
				}()

				sched := backup.NewScheduler(app.kv, app.cfg.Backup.Dir, app.cfg.Backup.Keep)
				if err := sched.Start(app.cfg.Backup.Schedule); err != nil {
					return err
				}
				defer sched.Stop()

				srv := web.NewServer(app.cfg, p)
				defer srv.Close()

				if err := srv.Start(ctx); err != nil {
					return err
				}
				appLog.Info("daybook exiting")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
