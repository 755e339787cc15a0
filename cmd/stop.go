package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newStopCmd(app *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "stop [skill-name]",
		Short: "Stop a running observer, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("provide a skill name or --all")
			}
			if all && len(args) > 0 {
				return errors.New("--all takes no skill name")
			}

			mgr, closeJournal, err := app.buildManager(false)
			if err != nil {
				return err
			}
			defer closeJournal()

			if all {
				stopped, err := mgr.StopAll(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stopped %d observer(s)\n", stopped)
				return err
			}

			if err := mgr.StopObserver(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stopped observer: %s\n", args[0])
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Stop every running observer")

	return cmd
}
