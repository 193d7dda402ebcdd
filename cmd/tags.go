package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eepy-explorer/eepy/pkg/search"
)

func NewTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Browse front-matter tags across the vault",
		Long: `Browse the tags extracted from note front matter. Requires an up to
date search index ('eepy index refresh').

Examples:
  eepy tags list             # Every tag with its note count
  eepy tags notes work       # Notes tagged 'work', newest first`,
	}

	cmd.AddCommand(newTagsListCmd())
	cmd.AddCommand(newTagsNotesCmd())

	return cmd
}

func newTagsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tags with note counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVault()
			if err != nil {
				return err
			}

			idx, err := search.NewIndex(searchDBPath(v))
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			defer idx.Close()

			counts, err := idx.AllTags()
			if err != nil {
				return fmt.Errorf("list tags: %w", err)
			}
			if len(counts) == 0 {
				fmt.Println("No tags found; run 'eepy index refresh' first")
				return nil
			}

			tags := make([]string, 0, len(counts))
			for tag := range counts {
				tags = append(tags, tag)
			}
			sort.Slice(tags, func(i, j int) bool {
				if counts[tags[i]] != counts[tags[j]] {
					return counts[tags[i]] > counts[tags[j]]
				}
				return tags[i] < tags[j]
			})

			for _, tag := range tags {
				fmt.Printf("%4d  %s\n", counts[tag], tag)
			}
			return nil
		},
	}

	return cmd
}

func newTagsNotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes <tag>",
		Short: "List notes carrying a tag, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVault()
			if err != nil {
				return err
			}

			idx, err := search.NewIndex(searchDBPath(v))
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			defer idx.Close()

			notes, err := idx.NotesByTag(args[0])
			if err != nil {
				return fmt.Errorf("list notes by tag: %w", err)
			}
			if len(notes) == 0 {
				fmt.Printf("No notes tagged %q\n", args[0])
				return nil
			}

			for _, note := range notes {
				fmt.Printf("%s  %s", note.ModifiedAt.Format("2006-01-02"), note.Path)
				if len(note.Tags) > 1 {
					fmt.Printf("  (%s)", strings.Join(note.Tags, ", "))
				}
				fmt.Println()
			}
			return nil
		},
	}

	return cmd
}
