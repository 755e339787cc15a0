package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history [skill-name]",
		Short: "Show recent manager and observer events",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeJournal, err := app.buildStatusService()
			if err != nil {
				return err
			}
			defer closeJournal()

			skill := ""
			if len(args) == 1 {
				skill = args[0]
			}

			entries, err := svc.History(cmd.Context(), skill, limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No events recorded.")
				return err
			}

			for _, entry := range entries {
				skillLabel := entry.Skill
				if skillLabel == "" {
					skillLabel = "-"
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s  %-10s  %-12s  %s\n",
					entry.OccurredAt.Local().Format(time.DateTime),
					entry.Process,
					skillLabel,
					entry.Event,
					entry.Detail,
				)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of events to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
