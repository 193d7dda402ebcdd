package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eepy-explorer/eepy/cmd/config"
	"github.com/eepy-explorer/eepy/pkg/search"
	"github.com/eepy-explorer/eepy/pkg/vault"
)

func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Maintain and query the notes vault index",
		Long: `Maintain the vault's cached file index and its full-text search
index.

Examples:
  eepy index refresh               # Rebuild if the vault changed
  eepy index refresh --force       # Rebuild unconditionally
  eepy index search "kubernetes"   # Full-text search
  eepy index search todo -t work   # Search within a tag`,
	}

	cmd.AddCommand(newIndexRefreshCmd())
	cmd.AddCommand(newIndexSearchCmd())
	cmd.AddCommand(newIndexStatusCmd())

	return cmd
}

func openVault() (*vault.Vault, error) {
	root, err := config.ResolveVaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	return vault.Open(root, config.NewLogger())
}

func searchDBPath(v *vault.Vault) string {
	return filepath.Join(v.EepyDir(), "search.db")
}

func newIndexRefreshCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the vault index when its contents changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVault()
			if err != nil {
				return err
			}

			indexFile, rebuilt, err := v.Refresh(cmd.Context(), force)
			if err != nil {
				return fmt.Errorf("refresh vault index: %w", err)
			}
			if !rebuilt {
				fmt.Printf("Index up to date (%d items)\n", len(indexFile.Items))
				return nil
			}

			idx, err := search.NewIndex(searchDBPath(v))
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			defer idx.Close()

			indexed, err := idx.IndexVault(cmd.Context(), v.Root())
			if err != nil {
				return fmt.Errorf("index notes: %w", err)
			}

			fmt.Printf("Indexed %d items (%d notes searchable)\n", len(indexFile.Items), indexed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Rebuild even when the vault fingerprint is unchanged")
	return cmd
}

func newIndexSearchCmd() *cobra.Command {
	var (
		tag   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed notes",
		Args:  cobra.MinimumNArgs(1),
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

			query := strings.Join(args, " ")
			results, err := idx.Search(query, &search.Options{Tag: tag, Limit: limit})
			if err != nil {
				return fmt.Errorf("search notes: %w", err)
			}

			if len(results) == 0 {
				fmt.Println("No results found")
				return nil
			}

			fmt.Printf("Found %d results:\n\n", len(results))
			for i, note := range results {
				fmt.Printf("%d. %s\n   %s\n", i+1, note.Title, note.Path)
				if len(note.Tags) > 0 {
					fmt.Printf("   tags: %s\n", strings.Join(note.Tags, ", "))
				}
				if note.Snippet != "" {
					fmt.Printf("   %s\n", note.Snippet)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Restrict results to notes carrying this tag")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of results")
	return cmd
}

func newIndexStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the cached index matches the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVault()
			if err != nil {
				return err
			}

			cached, err := v.LoadIndex()
			if err != nil {
				return fmt.Errorf("load cached index: %w", err)
			}
			if cached == nil {
				fmt.Println("No cached index; run 'eepy index refresh'")
				return nil
			}

			current, err := v.Fingerprint()
			if err != nil {
				return fmt.Errorf("fingerprint vault: %w", err)
			}

			fmt.Printf("Vault:   %s\n", v.Root())
			fmt.Printf("Items:   %d\n", len(cached.Items))
			fmt.Printf("Built:   %s\n", cached.Timestamp)
			if cached.Hash == current {
				fmt.Println("Status:  up to date")
			} else {
				fmt.Println("Status:  stale; run 'eepy index refresh'")
			}
			return nil
		},
	}

	return cmd
}
