package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var envFile string
	var actor string

	ctx := newCommandContext(&envFile, &actor)

	rootCmd := &cobra.Command{
		Use:           "memberctl",
		Short:         "Member registry maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "memberctl", "Actor recorded in the audit trail")

	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newTemplateCommand())
	rootCmd.AddCommand(newCleanupCINCommand(ctx))

	return rootCmd
}
