package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"skillwatch/internal/application"
	"skillwatch/internal/domain"
)

func newEvaluateCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Ask the engine for a skill decision without acting on it",
		Long:  "Reads the project's conversation transcript, asks the reasoning engine which observers it would start, stop, or create, and prints the decision. Nothing is spawned or stopped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, closeJournal, err := app.buildManager(true)
			if err != nil {
				return err
			}
			defer closeJournal()

			var decision domain.Decision
			evaluate := func(ctx context.Context) error {
				var err error
				decision, err = mgr.EvaluateOnce(ctx)
				return err
			}

			if asJSON {
				err = evaluate(cmd.Context())
			} else {
				err = runEvaluateSpinner(cmd.Context(), cmd.ErrOrStderr(), evaluate)
			}
			if errors.Is(err, application.ErrNoMessages) {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No conversation messages to evaluate.")
				return err
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(decision)
			}

			return writeDecision(cmd, decision)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeDecision(cmd *cobra.Command, decision domain.Decision) error {
	out := cmd.OutOrStdout()

	lines := []string{
		"START: " + nameList(decision.Start),
		"STOP: " + nameList(decision.Stop),
	}
	if len(decision.Create) == 0 {
		lines = append(lines, "NEW: none")
	}
	for _, proposal := range decision.Create {
		lines = append(lines, fmt.Sprintf("NEW: %s: %s", proposal.Name, proposal.Description))
	}
	if decision.Reason != "" {
		lines = append(lines, "REASON: "+decision.Reason)
	}

	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}

func nameList(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
