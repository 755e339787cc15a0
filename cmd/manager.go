package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newManagerCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "manager",
		Short: "Run the skill manager loop",
		Long:  "Watches the project's conversation transcript, periodically asks the reasoning engine which skills the session touches, and starts or stops skill observers to match. Runs until interrupted; observers it tracked are stopped on the way out.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mgr, closeJournal, err := app.buildManager(false)
			if err != nil {
				return err
			}
			defer closeJournal()

			return mgr.Run(ctx)
		},
	}
}
