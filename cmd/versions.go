package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eepy-explorer/eepy/cmd/config"
	"github.com/eepy-explorer/eepy/pkg/syncer"
)

func NewVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Manage saved file versions",
		Long: `Save, list, and restore timestamped versions of files. Versions
live under the vault's .eepy/versions directory, mirroring the file's
location.

Examples:
  eepy versions create notes/plan.md --reason "before rewrite"
  eepy versions list notes/plan.md
  eepy versions restore .eepy/versions/notes/plan.20260830120000.md`,
	}

	cmd.AddCommand(newVersionsCreateCmd())
	cmd.AddCommand(newVersionsListCmd())
	cmd.AddCommand(newVersionsRestoreCmd())

	return cmd
}

func openVersionManager() (*syncer.VersionManager, error) {
	root, err := config.ResolveVaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	return syncer.NewVersionManager(root, config.NewLogger())
}

// resolveVaultFile makes a path absolute relative to the vault root.
func resolveVaultFile(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	root, err := config.ResolveVaultPath()
	if err != nil {
		return "", fmt.Errorf("resolve vault path: %w", err)
	}
	return filepath.Join(root, path), nil
}

func newVersionsCreateCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Save a version of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := openVersionManager()
			if err != nil {
				return err
			}
			path, err := resolveVaultFile(args[0])
			if err != nil {
				return err
			}

			versionPath, err := vm.CreateVersion(path, reason)
			if err != nil {
				return fmt.Errorf("create version: %w", err)
			}
			fmt.Printf("Saved version: %s\n", versionPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "manual", "Why this version was saved")
	return cmd
}

func newVersionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <file>",
		Short: "List saved versions of a file, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := openVersionManager()
			if err != nil {
				return err
			}
			path, err := resolveVaultFile(args[0])
			if err != nil {
				return err
			}

			versions, err := vm.ListVersions(path)
			if err != nil {
				return fmt.Errorf("list versions: %w", err)
			}
			if len(versions) == 0 {
				fmt.Println("No saved versions")
				return nil
			}

			for _, info := range versions {
				fmt.Printf("%s  %8d bytes  %-10s  %s\n",
					info.Timestamp.Format("2006-01-02 15:04:05"), info.Size, info.Reason, info.Path)
			}
			return nil
		},
	}

	return cmd
}

func newVersionsRestoreCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "restore <version-file>",
		Short: "Restore a saved version",
		Long: `Restore a saved version over its original location (or --to a
different path). The current file is versioned first, so a restore is
never destructive.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := openVersionManager()
			if err != nil {
				return err
			}
			versionPath, err := resolveVaultFile(args[0])
			if err != nil {
				return err
			}

			if err := vm.RestoreVersion(versionPath, target); err != nil {
				return fmt.Errorf("restore version: %w", err)
			}
			if target != "" {
				fmt.Printf("Restored %s to %s\n", versionPath, target)
			} else {
				fmt.Printf("Restored %s\n", versionPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "Restore to this path instead of the original location")
	return cmd
}
