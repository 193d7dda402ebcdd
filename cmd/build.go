package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/eepy-explorer/eepy/cmd/config"
	"github.com/eepy-explorer/eepy/pkg/buildtool"
)

func NewBuildCmd() *cobra.Command {
	var binary string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run enzige build tool commands",
		Long: `Drive the enzige build tool for the current project.

Examples:
  eepy build run          # Compile the project
  eepy build cast         # Development build with debug symbols
  eepy build forge        # Optimized production build
  eepy build smelt        # Development mode with hot reloading
  eepy build verify       # Check contract assertions
  eepy build test         # Run automated tests
  eepy build doc          # Generate documentation`,
	}

	cmd.PersistentFlags().StringVar(&binary, "binary", "", "Path to the enzige binary (default: auto-detect)")

	newTool := func() (*buildtool.Tool, error) {
		dir, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		return buildtool.New(binary, dir, config.NewLogger()), nil
	}

	simple := func(use, short string, run func(*buildtool.Tool, *cobra.Command) (*buildtool.Result, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				tool, err := newTool()
				if err != nil {
					return err
				}
				result, err := run(tool, cmd)
				if err != nil {
					return err
				}
				return printBuildResult(use, result)
			},
		}
	}

	cmd.AddCommand(simple("run", "Compile the project", func(t *buildtool.Tool, c *cobra.Command) (*buildtool.Result, error) {
		return t.Build(c.Context())
	}))
	cmd.AddCommand(simple("cast", "Create a development build with debug symbols", func(t *buildtool.Tool, c *cobra.Command) (*buildtool.Result, error) {
		return t.Cast(c.Context())
	}))
	cmd.AddCommand(simple("forge", "Create an optimized production build", func(t *buildtool.Tool, c *cobra.Command) (*buildtool.Result, error) {
		return t.Forge(c.Context())
	}))
	cmd.AddCommand(simple("verify", "Verify contract assertions", func(t *buildtool.Tool, c *cobra.Command) (*buildtool.Result, error) {
		return t.Verify(c.Context())
	}))
	cmd.AddCommand(simple("test", "Run automated tests", func(t *buildtool.Tool, c *cobra.Command) (*buildtool.Result, error) {
		return t.Test(c.Context())
	}))
	cmd.AddCommand(newBuildDocCmd(newTool))
	cmd.AddCommand(newBuildSmeltCmd(newTool))

	return cmd
}

func printBuildResult(name string, result *buildtool.Result) error {
	if result.Stdout != "" {
		fmt.Print(result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprint(os.Stderr, result.Stderr)
	}
	if !result.Ok() {
		return fmt.Errorf("enzige %s failed with exit code %d", name, result.ExitCode)
	}
	return nil
}

func newBuildDocCmd(newTool func() (*buildtool.Tool, error)) *cobra.Command {
	var formats []string

	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Generate documentation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := newTool()
			if err != nil {
				return err
			}

			results, err := tool.Doc(cmd.Context(), formats)
			if err != nil {
				return err
			}
			for _, result := range results {
				if err := printBuildResult("doc", result); err != nil {
					return err
				}
			}
			fmt.Println("Documentation generated")
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "Output formats (default HTML, RTF, PDF)")
	return cmd
}

func newBuildSmeltCmd(newTool func() (*buildtool.Tool, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smelt",
		Short: "Start development mode with hot reloading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := newTool()
			if err != nil {
				return err
			}

			watch, err := tool.Smelt(cmd.Context(), func(status buildtool.WatchStatus, line string) {
				switch status {
				case buildtool.StatusWatching:
					fmt.Println("Watching for changes")
				case buildtool.StatusRecompiling:
					fmt.Println("Recompiling...")
				case buildtool.StatusError:
					fmt.Fprintln(os.Stderr, line)
				}
			})
			if err != nil {
				return fmt.Errorf("start development mode: %w", err)
			}

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)

			done := make(chan error, 1)
			go func() { done <- watch.Wait() }()

			select {
			case <-interrupt:
				fmt.Println("Stopping development mode")
				watch.Stop()
				return nil
			case err := <-done:
				if err != nil {
					return fmt.Errorf("development mode exited: %w", err)
				}
				return nil
			}
		},
	}

	return cmd
}
