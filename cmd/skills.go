package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"skillwatch/internal/application"
)

func newSkillsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Inspect skill knowledge directories",
	}

	cmd.AddCommand(
		newSkillsListCmd(app),
		newSkillsShowCmd(app),
	)

	return cmd
}

func newSkillsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known skills",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeJournal, err := app.buildStatusService()
			if err != nil {
				return err
			}
			defer closeJournal()

			statuses, err := svc.Overview(cmd.Context())
			if err != nil {
				return err
			}

			if len(statuses) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No skills yet.")
				return err
			}

			for _, status := range statuses {
				marker := " "
				if status.Running {
					marker = "*"
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, status.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newSkillsShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <skill-name>",
		Short: "Print a skill's knowledge artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeJournal, err := app.buildStatusService()
			if err != nil {
				return err
			}
			defer closeJournal()

			detail, err := svc.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(detail)
			}

			return writeSkillDetail(cmd, detail)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeSkillDetail(cmd *cobra.Command, detail application.SkillDetail) error {
	out := cmd.OutOrStdout()

	if detail.Index != "" {
		if _, err := fmt.Fprintf(out, "# index.md\n%s\n", detail.Index); err != nil {
			return err
		}
	}
	if detail.Details != "" {
		if _, err := fmt.Fprintf(out, "\n# details.md\n%s\n", detail.Details); err != nil {
			return err
		}
	}
	if len(detail.Resources) > 0 {
		if _, err := fmt.Fprintf(out, "\n# resources\n"); err != nil {
			return err
		}
		for _, name := range detail.Resources {
			if _, err := fmt.Fprintf(out, "- %s\n", name); err != nil {
				return err
			}
		}
	}
	if detail.Legacy != "" {
		if _, err := fmt.Fprintf(out, "\n# legacy %s.md\n%s\n", detail.Name, detail.Legacy); err != nil {
			return err
		}
	}

	return nil
}
