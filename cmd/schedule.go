package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eepy-explorer/eepy/cmd/config"
	"github.com/eepy-explorer/eepy/pkg/appconfig"
	"github.com/eepy-explorer/eepy/pkg/syncer"
)

func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage the saved sync schedule",
		Long: `Keep a list of directory pairs to synchronize and run them all in
one go.

Examples:
  eepy schedule add ~/Notes ~/Backup/Notes --mode two-way
  eepy schedule show
  eepy schedule frequency daily
  eepy schedule run`,
	}

	cmd.AddCommand(newScheduleShowCmd())
	cmd.AddCommand(newScheduleAddCmd())
	cmd.AddCommand(newScheduleRemoveCmd())
	cmd.AddCommand(newScheduleFrequencyCmd())
	cmd.AddCommand(newScheduleRunCmd())

	return cmd
}

func openScheduleStore() (*appconfig.ScheduleStore, error) {
	return appconfig.NewScheduleStore(config.Dir())
}

func newScheduleShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openScheduleStore()
			if err != nil {
				return err
			}

			schedule := store.Schedule()
			fmt.Printf("Frequency: %s\n", schedule.Frequency)
			if len(schedule.Pairs) == 0 {
				fmt.Println("No directory pairs scheduled")
				return nil
			}
			for _, pair := range schedule.Pairs {
				fmt.Printf("  %s -> %s (%s)\n", pair.Source, pair.Target, pair.Mode)
			}
			return nil
		},
	}

	return cmd
}

func newScheduleAddCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "add <source> <target>",
		Short: "Add a directory pair to the schedule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openScheduleStore()
			if err != nil {
				return err
			}

			err = store.AddPair(appconfig.SchedulePair{
				Source: args[0],
				Target: args[1],
				Mode:   mode,
			})
			if err != nil {
				return fmt.Errorf("add schedule pair: %w", err)
			}
			fmt.Printf("Scheduled %s -> %s (%s)\n", args[0], args[1], mode)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(syncer.ModeTwoWay), "Sync mode: two-way, mirror, or one-way")
	return cmd
}

func newScheduleRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <source> <target>",
		Short: "Remove a directory pair from the schedule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openScheduleStore()
			if err != nil {
				return err
			}
			if err := store.RemovePair(args[0], args[1]); err != nil {
				return fmt.Errorf("remove schedule pair: %w", err)
			}
			fmt.Printf("Removed %s -> %s\n", args[0], args[1])
			return nil
		},
	}

	return cmd
}

func newScheduleFrequencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frequency <on-demand|on-start|hourly|daily>",
		Short: "Set how often the schedule should run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openScheduleStore()
			if err != nil {
				return err
			}
			if err := store.SetFrequency(args[0]); err != nil {
				return fmt.Errorf("set frequency: %w", err)
			}
			fmt.Printf("Frequency set to %s\n", args[0])
			return nil
		},
	}

	return cmd
}

func newScheduleRunCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Synchronize every scheduled pair",
		Long: `Run every scheduled directory pair sequentially with the standard
settings: newer-wins conflicts, backups on, tag sync on, markdown files
only. A missing source directory skips its pair; one pair's failure
does not stop the rest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openScheduleStore()
			if err != nil {
				return err
			}

			pairs := store.Schedule().Pairs
			if len(pairs) == 0 {
				fmt.Println("No directory pairs scheduled")
				return nil
			}

			log := config.NewLogger()
			failures := 0
			for _, pair := range pairs {
				if _, err := os.Stat(pair.Source); err != nil {
					log.Warnf("schedule: skipping %s: %v", pair.Source, err)
					continue
				}

				fmt.Printf("Syncing %s -> %s (%s)\n", pair.Source, pair.Target, pair.Mode)
				stats, err := runSync(cmd.Context(), pair.Source, pair.Target, syncFlags{
					mode:       pair.Mode,
					conflicts:  string(syncer.PolicyNewer),
					dryRun:     dryRun,
					backups:    true,
					syncTags:   true,
					extensions: []string{".md"},
				}, log)
				if err != nil {
					failures++
					fmt.Printf("  failed: %v\n", err)
					continue
				}
				printSyncStats(stats, dryRun)
				fmt.Println()
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d scheduled pairs failed", failures, len(pairs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Preview every pair without changing files")
	return cmd
}
