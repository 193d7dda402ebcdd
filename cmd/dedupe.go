package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eepy-explorer/eepy/cmd/config"
	"github.com/eepy-explorer/eepy/pkg/duplicate"
	"github.com/eepy-explorer/eepy/pkg/task"
)

func NewDedupeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Find and resolve duplicate files",
		Long: `Find groups of duplicate files by content or by heuristic, and
optionally resolve them.

Examples:
  eepy dedupe scan ~/Notes                    # Exact content duplicates
  eepy dedupe scan ~/Notes --mode suffix      # Copy-suffix heuristic
  eepy dedupe scan ~/Notes --mode tags        # Similar front-matter tags
  eepy dedupe resolve ~/Notes --mode suffix   # Verify and delete duplicates
  eepy dedupe compare a.md b.md               # Detailed two-file comparison`,
	}

	cmd.AddCommand(newDedupeScanCmd())
	cmd.AddCommand(newDedupeResolveCmd())
	cmd.AddCommand(newDedupeMergeCmd())
	cmd.AddCommand(newDedupeCompareCmd())

	return cmd
}

func dedupeScanOptions(mode string, recursive bool, extensions []string, minSize int64) duplicate.ScanOptions {
	return duplicate.ScanOptions{
		Mode:       duplicate.Mode(mode),
		Recursive:  recursive,
		Extensions: extensions,
		MinSize:    minSize,
	}
}

func newDedupeScanCmd() *cobra.Command {
	var (
		mode       string
		recursive  bool
		extensions []string
		minSize    int64
	)

	cmd := &cobra.Command{
		Use:   "scan <dir> [dir...]",
		Short: "Scan directories for duplicate groups",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := config.NewLogger()
			engine := duplicate.NewEngine(log)

			runner := task.NewRunner(task.EmitterFunc(func(event task.Event) {
				if p, ok := event.(task.Progress); ok {
					log.Debugf("scan progress: %d/%d", p.Completed, p.Total)
				}
			}))

			var groups []duplicate.Group
			job := runner.Go(cmd.Context(), "dedupe scan", func(ctx context.Context, report func(completed, total int, message string)) error {
				opts := dedupeScanOptions(mode, recursive, extensions, minSize)
				opts.Progress = func(processed, total int) { report(processed, total, "") }
				var err error
				groups, err = engine.Scan(ctx, args, opts)
				return err
			})
			if err := job.Wait(); err != nil {
				return fmt.Errorf("scan for duplicates: %w", err)
			}

			printGroups(groups)
			return nil
		},
	}

	addDedupeScanFlags(cmd, &mode, &recursive, &extensions, &minSize)
	return cmd
}

func addDedupeScanFlags(cmd *cobra.Command, mode *string, recursive *bool, extensions *[]string, minSize *int64) {
	cmd.Flags().StringVarP(mode, "mode", "m", string(duplicate.ModeContentHash), "Scan mode: content, suffix, title, or tags")
	cmd.Flags().BoolVarP(recursive, "recursive", "r", true, "Scan subdirectories")
	cmd.Flags().StringSliceVarP(extensions, "ext", "e", nil, "Only scan files with these extensions (e.g. .md)")
	cmd.Flags().Int64Var(minSize, "min-size", 0, "Minimum file size in bytes for content scans (default 1024)")
}

func printGroups(groups []duplicate.Group) {
	if len(groups) == 0 {
		fmt.Println("No duplicates found")
		return
	}

	real, informational := 0, 0
	for _, g := range groups {
		if g.Informational {
			informational++
		} else {
			real++
		}
	}
	fmt.Printf("Found %d duplicate groups", real)
	if informational > 0 {
		fmt.Printf(" (+%d informational)", informational)
	}
	fmt.Println()

	for _, group := range groups {
		fmt.Printf("\n[%s]", group.Key)
		if group.Informational {
			fmt.Print(" (informational)")
		}
		fmt.Println()

		original := group.Original()
		for _, member := range group.Members {
			marker := " "
			if original != nil && member.Path == original.Path {
				marker = "*"
			}
			fmt.Printf("  %s %s (%d bytes, %s)", marker, member.Path, member.Size, member.ModifiedTime.Format("2006-01-02 15:04"))
			if member.SuffixPattern != "" {
				fmt.Printf(" [suffix %q]", member.SuffixPattern)
			}
			fmt.Println()
		}
	}
}

func newDedupeResolveCmd() *cobra.Command {
	var (
		mode       string
		recursive  bool
		extensions []string
		minSize    int64
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <dir> [dir...]",
		Short: "Delete duplicates, keeping one original per group",
		Long: `Scan for duplicates and delete every non-original member. Members
found by a heuristic mode are byte-verified against the original first;
files that fail verification are reported, never deleted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := duplicate.NewEngine(config.NewLogger())

			groups, err := engine.Scan(cmd.Context(), args, dedupeScanOptions(mode, recursive, extensions, minSize))
			if err != nil {
				return fmt.Errorf("scan for duplicates: %w", err)
			}

			if dryRun {
				suggestions := engine.SuggestResolutions(groups)
				if len(suggestions) == 0 {
					fmt.Println("Nothing to resolve")
					return nil
				}
				for _, s := range suggestions {
					fmt.Printf("would %s %s (%s confidence): %s\n", s.Action, s.Path, s.Confidence, s.Reason)
				}
				return nil
			}

			result, unverified := engine.AutoResolve(cmd.Context(), groups)
			fmt.Printf("Deleted %d duplicates, %d failed\n", len(result.Succeeded), len(result.Failed))
			for _, action := range result.Failed {
				fmt.Printf("  failed: %s: %v\n", action.Path, action.Err)
			}
			for _, member := range unverified {
				fmt.Printf("  not verified, kept: %s\n", member.Path)
			}
			return nil
		},
	}

	addDedupeScanFlags(cmd, &mode, &recursive, &extensions, &minSize)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show suggested actions without deleting anything")
	return cmd
}

func newDedupeMergeCmd() *cobra.Command {
	var tagsOnly bool

	cmd := &cobra.Command{
		Use:   "merge <original> <duplicate>",
		Short: "Merge a duplicate note into the original and delete it",
		Long: `Merge the duplicate's front-matter tags into the original. Unless
--tags-only is set, the duplicate's body is appended under a "Content
from" heading. Identical files merge tags only. The duplicate is
removed afterwards.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := duplicate.NewEngine(config.NewLogger())

			if _, err := engine.MergeInto(args[0], args[1], tagsOnly); err != nil {
				return fmt.Errorf("merge notes: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merged %s into %s\n", args[1], args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&tagsOnly, "tags-only", false, "Merge tags without appending the duplicate's body")
	return cmd
}

func newDedupeCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <file-a> <file-b>",
		Short: "Compare two files stage by stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := duplicate.NewEngine(config.NewLogger())

			result, err := engine.Compare(args[0], args[1])
			if err != nil {
				return fmt.Errorf("compare files: %w", err)
			}

			fmt.Printf("%s: %d bytes, modified %s\n", result.NameA, result.SizeA, result.ModifiedA.Format("2006-01-02 15:04:05"))
			fmt.Printf("%s: %d bytes, modified %s\n", result.NameB, result.SizeB, result.ModifiedB.Format("2006-01-02 15:04:05"))
			fmt.Printf("size match:       %v\n", result.SizeMatch)
			if result.SizeMatch {
				fmt.Printf("quick hash match: %v\n", result.QuickHashMatch)
			}
			if result.QuickHashMatch {
				fmt.Printf("full hash match:  %v\n", result.FullHashMatch)
			}
			if result.Identical {
				fmt.Println("Files are identical")
			} else {
				fmt.Println("Files differ")
			}
			return nil
		},
	}

	return cmd
}
