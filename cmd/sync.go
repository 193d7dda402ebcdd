package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eepy-explorer/eepy/cmd/config"
	"github.com/eepy-explorer/eepy/pkg/scan"
	"github.com/eepy-explorer/eepy/pkg/syncer"
)

// syncFlags carries every sync tuning flag so the schedule runner can
// reuse the same execution path.
type syncFlags struct {
	mode           string
	conflicts      string
	deleteOrphaned bool
	dryRun         bool
	backups        bool
	syncTags       bool
	compareHashes  bool
	extensions     []string
	skipGlobs      []string
}

func NewSyncCmd() *cobra.Command {
	flags := syncFlags{}

	cmd := &cobra.Command{
		Use:   "sync <source> <target>",
		Short: "Synchronize two directories",
		Long: `Synchronize markdown notes (or any files) between two directories.

Examples:
  eepy sync ~/Notes ~/Backup/Notes                      # Two-way, newer wins
  eepy sync ~/Notes /mnt/usb/Notes --mode mirror        # Mirror source
  eepy sync ~/Notes ~/Backup --conflicts keep-both      # Keep both versions
  eepy sync ~/Notes ~/Backup --dry-run                  # Preview only`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := runSync(cmd.Context(), args[0], args[1], flags, config.NewLogger())
			if err != nil {
				return err
			}
			printSyncStats(stats, flags.dryRun)
			return nil
		},
	}

	addSyncFlags(cmd, &flags)
	return cmd
}

func addSyncFlags(cmd *cobra.Command, flags *syncFlags) {
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", string(syncer.ModeTwoWay), "Sync mode: two-way, mirror, or one-way")
	cmd.Flags().StringVarP(&flags.conflicts, "conflicts", "c", string(syncer.PolicyNewer), "Conflict policy: newer, source, target, larger, keep-both, or skip")
	cmd.Flags().BoolVar(&flags.deleteOrphaned, "delete-orphaned", false, "Delete target files missing from the source (mirror/one-way)")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Report what would change without touching files")
	cmd.Flags().BoolVar(&flags.backups, "backups", true, "Back up files before overwriting or deleting them")
	cmd.Flags().BoolVar(&flags.syncTags, "sync-tags", true, "Merge destination front-matter tags into copied notes")
	cmd.Flags().BoolVar(&flags.compareHashes, "hash", false, "Compare file content hashes instead of size and mtime")
	cmd.Flags().StringSliceVarP(&flags.extensions, "ext", "e", []string{".md"}, "File extensions to sync")
	cmd.Flags().StringSliceVar(&flags.skipGlobs, "skip", nil, "Glob patterns to exclude (e.g. 'drafts/**')")
}

// runSync builds both indexes, diffs them, and applies the plan.
func runSync(ctx context.Context, source, target string, flags syncFlags, log *logrus.Logger) (*syncer.Stats, error) {
	engine := syncer.NewEngine(source, target, log)

	sourceIdx, targetIdx, err := engine.BuildIndexes(ctx, scan.Options{
		Recursive:      true,
		Extensions:     flags.extensions,
		SkipGlobs:      flags.skipGlobs,
		AnalyzeContent: flags.compareHashes,
	})
	if err != nil {
		return nil, fmt.Errorf("index directories: %w", err)
	}

	plan := engine.Diff(sourceIdx, targetIdx, syncer.DiffOptions{
		Mode:           syncer.Mode(flags.mode),
		Policy:         syncer.ConflictPolicy(flags.conflicts),
		DeleteOrphaned: flags.deleteOrphaned,
	})

	stats := engine.Apply(ctx, plan, syncer.ApplyOptions{
		DryRun:        flags.dryRun,
		CreateBackups: flags.backups,
		SyncTags:      flags.syncTags,
		Progress: func(completed, total int, message string) {
			log.Debugf("sync %d/%d: %s", completed, total, message)
		},
	})
	return stats, nil
}

func printSyncStats(stats *syncer.Stats, dryRun bool) {
	if dryRun {
		fmt.Println("Dry run; no files were changed")
	}
	fmt.Printf("Analyzed:  %d files\n", stats.FilesAnalyzed)
	fmt.Printf("To target: %d copied\n", stats.CopiedToTarget)
	fmt.Printf("To source: %d copied\n", stats.CopiedToSource)
	fmt.Printf("Deleted:   %d\n", stats.Deleted)
	fmt.Printf("Skipped:   %d\n", stats.Skipped)
	fmt.Printf("Conflicts: %d resolved\n", stats.ConflictsResolved)
	fmt.Printf("Bytes:     %d transferred in %s\n", stats.BytesTransferred, stats.Elapsed.Round(time.Millisecond))
	if stats.Cancelled {
		fmt.Println("Sync was cancelled before completion")
	}
	for _, entryErr := range stats.Errors {
		fmt.Printf("  error: %s (%s): %v\n", entryErr.RelativePath, entryErr.Action, entryErr.Err)
	}
}
