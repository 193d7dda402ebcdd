package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/eepy-explorer/eepy/cmd"
	"github.com/eepy-explorer/eepy/cmd/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "eepy",
		Short:        "Duplicate detection and sync for markdown notes vaults",
		SilenceUsage: true,
	}

	config.AddGlobalFlags(rootCmd)
	cobra.OnInitialize(config.InitConfig)

	rootCmd.AddCommand(cmd.NewDedupeCmd())
	rootCmd.AddCommand(cmd.NewSyncCmd())
	rootCmd.AddCommand(cmd.NewIndexCmd())
	rootCmd.AddCommand(cmd.NewVersionsCmd())
	rootCmd.AddCommand(cmd.NewTagsCmd())
	rootCmd.AddCommand(cmd.NewCommandsCmd())
	rootCmd.AddCommand(cmd.NewLaunchCmd())
	rootCmd.AddCommand(cmd.NewBuildCmd())
	rootCmd.AddCommand(cmd.NewScheduleCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
