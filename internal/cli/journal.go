package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"daybook/internal/planner"
)

func newJournalCmd(app *App) *cobra.Command {
	var (
		set       string
		fromStdin bool
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print or replace the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setFlag := cmd.Flags().Changed("set")
			if setFlag && fromStdin {
				return errors.New("use either --set or --stdin")
			}

			text := set
			if fromStdin {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}

			return app.withPlanner(func(p *planner.Planner) error {
				if !setFlag && !fromStdin {
					fmt.Fprint(cmd.OutOrStdout(), p.Journal())
					return nil
				}
				if err := p.SetJournal(text); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "journal saved (%d bytes)\n", len(text))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "Replace the journal with TEXT")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Replace the journal with standard input")
	return cmd
}
