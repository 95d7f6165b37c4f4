package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"daybook/internal/dateutil"
	"daybook/internal/model"
	"daybook/internal/planner"
)

func newAddCmd(app *App) *cobra.Command {
	var repeat string
	cmd := &cobra.Command{
		Use:   "add YYYY-MM-DD HH:00 [DESCRIPTION...]",
		Short: "Add a task to an hourly slot",
		Long: strings.TrimSpace(`
Add a task to an hourly slot. With --repeat weekly the task comes back every
week on the same weekday; with --repeat yearly every year on the same date.
`),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, tm := args[0], args[1]
			if _, err := dateutil.ParseDateKey(date); err != nil {
				return err
			}
			if !dateutil.IsHourKey(tm) {
				return fmt.Errorf("time must be a whole hour HH:00: %q", tm)
			}
			desc := strings.Join(args[2:], " ")

			return app.withPlanner(func(p *planner.Planner) error {
				if err := p.SubmitTask(date, tm, desc, model.Repeat(repeat)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s %s (%s)\n", date, tm, repeat)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&repeat, "repeat", string(model.RepeatNone), "Repeat mode (none|weekly|yearly)")
	return cmd
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm YYYY-MM-DD HH:00 INDEX",
		Short: "Remove a one-time task by its index within the slot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("index must be an integer: %q", args[2])
			}
			return app.withPlanner(func(p *planner.Planner) error {
				if err := p.DeleteOneTime(args[0], args[1], index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s %s [%d]\n", args[0], args[1], index)
				return nil
			})
		},
	}
}

func newRecurringCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "List recurring tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(func(p *planner.Planner) error {
				fmt.Fprint(cmd.OutOrStdout(), app.renderer(cmd).Rules(p.Rules()))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recurring tasks",
		Args:  cobra.NoArgs,
		RunE:  cmd.RunE,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm INDEX",
		Short: "Remove a recurring task by index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be an integer: %q", args[0])
			}
			return app.withPlanner(func(p *planner.Planner) error {
				if err := p.DeleteRecurring(index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed recurring [%d]\n", index)
				return nil
			})
		},
	})
	return cmd
}
