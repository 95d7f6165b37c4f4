package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"daybook/internal/backup"
	"daybook/internal/capture"
	"daybook/internal/convert"
	"daybook/internal/planner"
)

func newBackupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot tasks and journal into the backup dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(func(p *planner.Planner) error {
				s := backup.NewScheduler(app.kv, app.cfg.Backup.Dir, app.cfg.Backup.Keep)
				path, err := s.RunOnce()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(func(p *planner.Planner) error {
				files, err := backup.List(app.cfg.Backup.Dir)
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore FILE",
		Short: "Replace tasks and journal with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(func(p *planner.Planner) error {
				path := args[0]
				if filepath.Base(path) == path {
					path = filepath.Join(app.cfg.Backup.Dir, path)
				}
				snap, err := backup.Read(path)
				if err != nil {
					return err
				}
				if err := backup.Restore(app.kv, snap); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %d entries from %s\n", len(snap.Entries), snap.TakenAt.Local().Format(time.RFC3339))
				return nil
			})
		},
	})
	return cmd
}

func newSnapshotCmd(app *App) *cobra.Command {
	var (
		out      string
		tricolor bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot [YYYY-MM]",
		Short: "Capture the month page of a running server as PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(func(p *planner.Planner) error {
				opts := capture.OptionsFromConfig(app.cfg)
				if out != "" {
					opts.OutputPath = out
				}

				cur := planner.CursorAt(p.Now())
				if len(args) == 1 {
					t, err := time.Parse("2006-01", args[0])
					if err != nil {
						return fmt.Errorf("month must be YYYY-MM: %q", args[0])
					}
					cur = planner.CursorAt(t)
				}
				opts, err := opts.ForMonth(cur.Year, cur.Month0+1)
				if err != nil {
					return err
				}

				if err := capture.MonthPNG(cmd.Context(), opts); err != nil {
					return err
				}
				if tricolor {
					if err := convert.TricolorFile(opts.OutputPath); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), opts.OutputPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "PNG path (default: capture.output from config)")
	cmd.Flags().BoolVar(&tricolor, "tricolor", false, "Reduce the PNG to black, red and white")
	return cmd
}
