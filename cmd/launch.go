package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eepy-explorer/eepy/cmd/config"
	"github.com/eepy-explorer/eepy/pkg/appconfig"
)

func NewLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Detect and launch projects",
		Long: `Detect project types in a directory and run them, or manage saved
launch configurations.

Examples:
  eepy launch detect ~/src/app        # Show runnable configurations
  eepy launch run ~/src/app           # Run the first detected configuration
  eepy launch run ~/src/app "Go Project"
  eepy launch save ~/src/app dev "npm run dev"`,
	}

	cmd.AddCommand(newLaunchDetectCmd())
	cmd.AddCommand(newLaunchRunCmd())
	cmd.AddCommand(newLaunchSaveCmd())
	cmd.AddCommand(newLaunchRemoveCmd())

	return cmd
}

func openLaunchStore() (*appconfig.LaunchStore, error) {
	return appconfig.NewLaunchStore(config.Dir())
}

// launchCandidates merges saved configurations with detected ones,
// saved first.
func launchCandidates(store *appconfig.LaunchStore, dir string) []appconfig.LaunchConfig {
	configs := append([]appconfig.LaunchConfig(nil), store.Get(dir)...)
	return append(configs, appconfig.DetectProject(dir)...)
}

func absDir(arg string) (string, error) {
	dir, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", arg, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return dir, nil
}

func newLaunchDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <dir>",
		Short: "Show launch configurations for a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := absDir(args[0])
			if err != nil {
				return err
			}
			store, err := openLaunchStore()
			if err != nil {
				return err
			}

			configs := launchCandidates(store, dir)
			if len(configs) == 0 {
				fmt.Println("No runnable project detected")
				return nil
			}
			for _, cfg := range configs {
				fmt.Printf("%-40s %s", cfg.Name, cfg.Command)
				if cfg.Type != "" {
					fmt.Printf("  [%s]", cfg.Type)
				}
				fmt.Println()
			}
			return nil
		},
	}

	return cmd
}

func newLaunchRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <dir> [name]",
		Short: "Launch a project",
		Long: `Run a launch configuration in a directory. With no name, the first
saved or detected configuration runs.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := absDir(args[0])
			if err != nil {
				return err
			}
			store, err := openLaunchStore()
			if err != nil {
				return err
			}

			configs := launchCandidates(store, dir)
			if len(configs) == 0 {
				return fmt.Errorf("no runnable project in %s", dir)
			}

			chosen := configs[0]
			if len(args) == 2 {
				found := false
				for _, cfg := range configs {
					if cfg.Name == args[1] {
						chosen = cfg
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("no launch configuration named %q in %s", args[1], dir)
				}
			}

			// Only saved configurations track usage.
			_ = store.MarkUsed(dir, chosen.Name)

			fmt.Printf("Running %s: %s\n", chosen.Name, chosen.Command)
			proc := exec.CommandContext(cmd.Context(), "sh", "-c", chosen.Command)
			proc.Dir = chosen.WorkingDir
			var stdout, stderr bytes.Buffer
			proc.Stdout = &stdout
			proc.Stderr = &stderr

			runErr := proc.Run()
			if stdout.Len() > 0 {
				fmt.Print(stdout.String())
			}
			if stderr.Len() > 0 {
				fmt.Print(stderr.String())
			}
			if runErr != nil {
				return fmt.Errorf("launch %s: %w", chosen.Name, runErr)
			}
			return nil
		},
	}

	return cmd
}

func newLaunchSaveCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "save <dir> <name> <command>",
		Short: "Save a launch configuration for a directory",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := absDir(args[0])
			if err != nil {
				return err
			}
			store, err := openLaunchStore()
			if err != nil {
				return err
			}

			err = store.Add(dir, appconfig.LaunchConfig{
				Name:        args[1],
				Command:     args[2],
				WorkingDir:  dir,
				Description: description,
			})
			if err != nil {
				return fmt.Errorf("save launch configuration: %w", err)
			}
			fmt.Printf("Saved %q for %s\n", args[1], dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "What this configuration does")
	return cmd
}

func newLaunchRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <dir> <name>",
		Short: "Remove a saved launch configuration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := absDir(args[0])
			if err != nil {
				return err
			}
			store, err := openLaunchStore()
			if err != nil {
				return err
			}
			if err := store.Remove(dir, args[1]); err != nil {
				return fmt.Errorf("remove launch configuration: %w", err)
			}
			fmt.Printf("Removed %q from %s\n", args[1], dir)
			return nil
		},
	}

	return cmd
}
