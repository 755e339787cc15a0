package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := newApp()

	rootCmd := &cobra.Command{
		Use:           "skillwatch",
		Short:         "skillwatch: grow reusable skills from coding sessions",
		Long:          "skillwatch tails Claude Code conversation transcripts, decides which skills a session touches, and runs one observer per skill that distills what it sees into a three-tier knowledge directory (index.md, details.md, resource files).",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.initLogger()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			app.sync()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Path to skillwatch.toml (default: search project dir)")
	rootCmd.PersistentFlags().StringVarP(&app.projectPath, "project", "p", "", "Project directory to watch (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newVersionCmd(),
		newManagerCmd(app),
		newObserverCmd(app),
		newStatusCmd(app),
		newSkillsCmd(app),
		newEvaluateCmd(app),
		newStopCmd(app),
		newHistoryCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
