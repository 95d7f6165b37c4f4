package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"daybook/internal/calendar"
	"daybook/internal/dateutil"
	"daybook/internal/planner"
)

func newMonthCmd(app *App) *cobra.Command {
	var prev, next int
	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show the month grid (default: current month)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(func(p *planner.Planner) error {
				cur := planner.CursorAt(p.Now())
				if len(args) == 1 {
					t, err := time.Parse("2006-01", args[0])
					if err != nil {
						return fmt.Errorf("month must be YYYY-MM: %q", args[0])
					}
					cur = planner.CursorAt(t)
				}
				cur = cur.Shift(next - prev)

				out := app.renderer(cmd).Month(calendar.MonthTitle(cur.Year, cur.Month0), p.Month(cur.Year, cur.Month0))
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&prev, "prev", 0, "Go back N months")
	cmd.Flags().IntVar(&next, "next", 0, "Go forward N months")
	return cmd
}

func newDayCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "Show the hourly agenda of a day (default: today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(func(p *planner.Planner) error {
				date := dateutil.DateKeyOf(p.Now())
				if len(args) == 1 {
					date = args[0]
				}
				if _, err := dateutil.ParseDateKey(date); err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), app.renderer(cmd).Day(date, p.Day(date), all))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Show empty slots too")
	return cmd
}

func newUpcomingCmd(app *App) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List tasks of the next days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			return app.withPlanner(func(p *planner.Planner) error {
				fmt.Fprint(cmd.OutOrStdout(), app.renderer(cmd).Upcoming(p.Upcoming(p.Now(), days)))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to look ahead, today included")
	return cmd
}
