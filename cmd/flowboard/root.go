package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var asFlag string

	ctx := newCommandContext(&configFlag, &asFlag)

	rootCmd := &cobra.Command{
		Use:           "flowboard",
		Short:         "Flowboard content workflow CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&asFlag, "as", "", "Acting user id (defaults to the configured user)")

	rootCmd.AddCommand(newChannelCommand(ctx))
	rootCmd.AddCommand(newFieldCommand(ctx))
	rootCmd.AddCommand(newTaskCommand(ctx))
	rootCmd.AddCommand(newAdvanceCommand(ctx))
	rootCmd.AddCommand(newChecklistCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newArchiveCommand(ctx))
	rootCmd.AddCommand(newUserCommand(ctx))
	rootCmd.AddCommand(newRoleCommand(ctx))
	rootCmd.AddCommand(newOvertimeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
