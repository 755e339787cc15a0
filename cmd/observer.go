package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"skillwatch/internal/domain"
)

func newObserverCmd(app *app) *cobra.Command {
	var (
		description    string
		logFile        string
		includeHistory bool
	)

	cmd := &cobra.Command{
		Use:   "observer <skill-name>",
		Short: "Run a single skill observer",
		Long:  "Watches the project's conversation transcript and distills what it sees into one skill directory. Normally spawned by the manager; runs until interrupted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skill := domain.Skill{Name: args[0], Description: description}
			if err := skill.Validate(); err != nil {
				return err
			}

			if logFile != "" {
				if err := app.redirectLogs(logFile); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			obs, closeJournal, err := app.buildObserver(skill, includeHistory)
			if err != nil {
				return err
			}
			defer closeJournal()

			return obs.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "General knowledge about this topic", "Description of what this skill covers")
	cmd.Flags().StringVarP(&logFile, "log-file", "l", "", "Write logs to this file instead of stderr")
	cmd.Flags().BoolVar(&includeHistory, "include-history", false, "Ingest the existing transcript instead of only new messages")

	return cmd
}
