package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eepy-explorer/eepy/cmd/config"
	"github.com/eepy-explorer/eepy/pkg/appconfig"
)

func NewCommandsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Manage the saved command palette",
		Long: `Save shell commands by name and run them later from anywhere.

Examples:
  eepy commands add deploy "make deploy" --tag ops --cwd ~/src/app
  eepy commands list --recent
  eepy commands search deploy
  eepy commands run deploy`,
	}

	cmd.AddCommand(newCommandsAddCmd())
	cmd.AddCommand(newCommandsRemoveCmd())
	cmd.AddCommand(newCommandsListCmd())
	cmd.AddCommand(newCommandsSearchCmd())
	cmd.AddCommand(newCommandsRunCmd())

	return cmd
}

func openCommandStore() (*appconfig.CommandStore, error) {
	return appconfig.NewCommandStore(config.Dir())
}

func newCommandsAddCmd() *cobra.Command {
	var (
		description string
		tags        []string
		cwd         string
	)

	cmd := &cobra.Command{
		Use:   "add <name> <command>",
		Short: "Save a command",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCommandStore()
			if err != nil {
				return err
			}

			name := args[0]
			command := strings.Join(args[1:], " ")
			if err := store.Add(name, command, description, tags, cwd); err != nil {
				return fmt.Errorf("save command: %w", err)
			}
			fmt.Printf("Saved %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "What the command does")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tags for grouping and search")
	cmd.Flags().StringVar(&cwd, "cwd", "", "Default working directory")
	return cmd
}

func newCommandsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a saved command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCommandStore()
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return fmt.Errorf("remove command: %w", err)
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		},
	}

	return cmd
}

func newCommandsListCmd() *cobra.Command {
	var (
		recent  bool
		popular bool
		tag     string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCommandStore()
			if err != nil {
				return err
			}

			var names []string
			switch {
			case recent:
				names = store.Recent(limit)
			case popular:
				names = store.Popular(limit)
			case tag != "":
				names = store.ByTag(tag)
			default:
				names = store.Names()
			}

			if len(names) == 0 {
				fmt.Println("No saved commands")
				return nil
			}
			printCommands(store, names)
			return nil
		},
	}

	cmd.Flags().BoolVar(&recent, "recent", false, "Most recently used first")
	cmd.Flags().BoolVar(&popular, "popular", false, "Most used first")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Only commands with this tag")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Limit for --recent and --popular")
	return cmd
}

func printCommands(store *appconfig.CommandStore, names []string) {
	for _, name := range names {
		saved := store.Get(name)
		if saved == nil {
			continue
		}
		fmt.Printf("%-20s %s", name, saved.Command)
		if len(saved.Tags) > 0 {
			fmt.Printf("  [%s]", strings.Join(saved.Tags, ", "))
		}
		if saved.UseCount > 0 {
			fmt.Printf("  (used %d times)", saved.UseCount)
		}
		fmt.Println()
		if saved.Description != "" {
			fmt.Printf("%-20s %s\n", "", saved.Description)
		}
	}
}

func newCommandsSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search commands by name, description, or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCommandStore()
			if err != nil {
				return err
			}

			names := store.Search(args[0])
			if len(names) == 0 {
				fmt.Println("No matching commands")
				return nil
			}
			printCommands(store, names)
			return nil
		},
	}

	return cmd
}

func newCommandsRunCmd() *cobra.Command {
	var cwd string

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a saved command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCommandStore()
			if err != nil {
				return err
			}

			result, err := store.Run(cmd.Context(), args[0], cwd)
			if err != nil {
				return fmt.Errorf("run command: %w", err)
			}

			if result.Stdout != "" {
				fmt.Print(result.Stdout)
			}
			if result.Stderr != "" {
				fmt.Print(result.Stderr)
			}
			if result.ExitCode != 0 {
				return fmt.Errorf("command %s exited with code %d", args[0], result.ExitCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cwd, "cwd", "", "Working directory override")
	return cmd
}
