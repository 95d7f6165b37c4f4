package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"daybook/internal/config"
	"daybook/internal/kv"
	appLog "daybook/internal/log"
	"daybook/internal/planner"
	"daybook/internal/render"
	"daybook/internal/task"
)

// App carries the global flags and, once opened, the loaded state shared by
// every subcommand.
type App struct {
	ConfigPath string
	LogLevel   string

	cfg     *config.Config
	kv      kv.Store
	planner *planner.Planner

	// now overrides the planner clock; tests only.
	now func() time.Time
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "daybook",
		Short:        "Month calendar with hourly tasks and a journal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Show this month and today's agenda
  daybook month
  daybook day

  # Plan something
  daybook add 2024-05-07 10:00 --repeat weekly Standup

  # Serve the web UI and JSON API
  daybook serve
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if app.LogLevel != "" {
			appLog.SetLevel(appLog.ParseLevel(app.LogLevel))
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", config.DefaultPath(), "Path to config file (env DAYBOOK_CONFIG)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error); overrides config")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newMonthCmd(app))
	cmd.AddCommand(newDayCmd(app))
	cmd.AddCommand(newUpcomingCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newRecurringCmd(app))
	cmd.AddCommand(newJournalCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newSnapshotCmd(app))

	return cmd
}

// open loads config, opens the kv backend and builds the planner. It is
// idempotent.
func (app *App) open() error {
	if app.planner != nil {
		return nil
	}

	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", app.ConfigPath, err)
	}
	app.cfg = cfg
	if app.LogLevel == "" {
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	}

	store, err := kv.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	app.kv = store

	ts := task.NewStore(store)
	ts.Load()
	app.planner = planner.New(ts)
	if app.now != nil {
		app.planner.SetClock(app.now)
	}

	appLog.Debug("daybook opened",
		"config", app.ConfigPath,
		"driver", cfg.Store.Driver,
		"path", cfg.Store.Path,
	)
	return nil
}

func (app *App) close() {
	if app.kv == nil {
		return
	}
	if err := kv.Close(app.kv); err != nil {
		appLog.Error("close store failed", err, "driver", app.cfg.Store.Driver)
	}
	app.kv = nil
	app.planner = nil
}

// withPlanner opens the app, runs fn and closes the store again.
func (app *App) withPlanner(fn func(p *planner.Planner) error) error {
	if err := app.open(); err != nil {
		return err
	}
	defer app.close()
	return fn(app.planner)
}

func (app *App) renderer(cmd *cobra.Command) *render.Renderer {
	return render.New(cmd.OutOrStdout())
}
