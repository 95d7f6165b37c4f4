package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"daybook/internal/ics"
	appLog "daybook/internal/log"
	"daybook/internal/planner"
	"daybook/internal/task"
)

func newExportCmd(app *App) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all tasks as iCalendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(func(p *planner.Planner) error {
				now := p.Now()
				var body string
				p.Snapshot(func(s *task.Store) {
					body = ics.Export(s, now, now)
				})

				if out == "" || out == "-" {
					_, err := fmt.Fprint(cmd.OutOrStdout(), body)
					return err
				}
				if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to FILE instead of stdout")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var (
		daysBack  int
		daysAhead int
		maxPer    int
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE|URL",
		Short: "Import events from an iCalendar file or URL",
		Long: `Import events from an iCalendar file or http(s) URL.

Single events become one-time tasks in the slot of their start hour. Weekly
and yearly recurrences become recurring tasks. Other recurrences are expanded
into one-time tasks between --days-back and --days-ahead around today.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(func(p *planner.Planner) error {
				src := ics.Source{Location: args[0]}
				body, err := ics.NewFetcher(app.cfg.ICSCacheDir).Fetch(cmd.Context(), src)
				if err != nil {
					return fmt.Errorf("fetch %s: %w", src.Name(), err)
				}

				events, err := ics.ParseICS(src, body)
				if err != nil {
					return err
				}

				now := p.Now()
				res, err := ics.Convert(events, ics.ImportConfig{
					RangeStart:             now.AddDate(0, 0, -daysBack),
					RangeEnd:               now.AddDate(0, 0, daysAhead),
					MaxOccurrencesPerEvent: maxPer,
				})
				if err != nil {
					return err
				}

				appLog.Info("ics import converted",
					"source", src.Name(),
					"events", len(events),
					"one_time", len(res.OneTime),
					"recurring", len(res.Rules),
					"expanded", len(res.Expanded),
					"truncated", len(res.Truncated),
				)

				if !dryRun {
					if err := p.Import(res.OneTime, res.Rules); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d one-time and %d recurring tasks from %d events\n",
					len(res.OneTime), len(res.Rules), len(events))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&daysBack, "days-back", 30, "Expand recurrences starting this many days before today")
	cmd.Flags().IntVar(&daysAhead, "days-ahead", 365, "Expand recurrences up to this many days after today")
	cmd.Flags().IntVar(&maxPer, "max-per-event", 0, "Cap on expanded occurrences per event (0: default)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and convert only; do not save")
	return cmd
}
