package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	statusrender "skillwatch/internal/adapters/render/status"
	"skillwatch/internal/application"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show every skill and its observer",
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

			return writeStatusOutput(cmd, app, statuses, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeStatusOutput(cmd *cobra.Command, app *app, statuses []application.SkillStatus, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	root, err := app.skillsRoot()
	if err != nil {
		return err
	}
	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}

	rendered, err := app.statusRenderer(statuses, statusrender.RenderOptions{
		SkillsDir:     root,
		MaxSkillBytes: cfg.MaxSkillBytes,
		MaxIndexBytes: cfg.MaxIndexBytes,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
