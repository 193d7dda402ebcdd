// Package search maintains a sqlite index over a notes vault for
// full-text and tag queries.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eepy-explorer/eepy/pkg/frontmatter"
	"github.com/eepy-explorer/eepy/pkg/scan"
)

// Note is one indexed vault note.
type Note struct {
	Path       string
	Title      string
	Tags       []string
	ModifiedAt time.Time
	WordCount  int
	Snippet    string
}

// Index manages the search index
type Index struct {
	db     *sql.DB
	useFTS bool
}

// NewIndex creates a new search index
func NewIndex(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	idx := &Index{db: db}
	if err := idx.init(); err != nil {
		return nil, err
	}

	return idx, nil
}

// init creates the database schema
func (idx *Index) init() error {
	idx.useFTS = idx.checkFTS5Support()

	metaSchema := `
	CREATE TABLE IF NOT EXISTS notes_meta (
		path TEXT PRIMARY KEY,
		title TEXT,
		tags TEXT,
		content TEXT,
		modified_at TIMESTAMP,
		word_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_notes_meta_title ON notes_meta(title);
	CREATE INDEX IF NOT EXISTS idx_notes_meta_tags ON notes_meta(tags);
	CREATE INDEX IF NOT EXISTS idx_notes_meta_modified ON notes_meta(modified_at);
	`

	if _, err := idx.db.Exec(metaSchema); err != nil {
		return err
	}

	if idx.useFTS {
		ftsSchema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			path UNINDEXED,
			title,
			tags,
			content,
			tokenize = 'porter unicode61'
		);
		`

		if _, err := idx.db.Exec(ftsSchema); err != nil {
			// If FTS creation fails, disable FTS and continue
			idx.useFTS = false
		}
	}

	return nil
}

// checkFTS5Support checks if the FTS5 module is available
func (idx *Index) checkFTS5Support() bool {
	_, err := idx.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS fts5_test USING fts5(content)")
	if err != nil {
		return false
	}

	_, _ = idx.db.Exec("DROP TABLE IF EXISTS fts5_test")
	return true
}

// IndexNote indexes or reindexes a single note file.
func (idx *Index) IndexNote(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	block, body := frontmatter.Parse(string(content))
	tags := frontmatter.ExtractTags(block)
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if meta := frontmatter.ParseMeta(block); meta.Title != "" {
		title = meta.Title
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if idx.useFTS {
		if _, err := tx.Exec("DELETE FROM notes_fts WHERE path = ?", path); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM notes_meta WHERE path = ?", path); err != nil {
		return err
	}

	tagList := strings.Join(tags, " ")
	wordCount := len(strings.Fields(body))

	if idx.useFTS {
		if _, err := tx.Exec(`
			INSERT INTO notes_fts (path, title, tags, content)
			VALUES (?, ?, ?, ?)
		`, path, title, tagList, body); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO notes_meta (path, title, tags, content, modified_at, word_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, path, title, tagList, body, info.ModTime(), wordCount); err != nil {
		return err
	}

	return tx.Commit()
}

// IndexVault walks a vault root and (re)indexes every markdown note.
// Individual note failures are skipped; the count of indexed notes is
// returned.
func (idx *Index) IndexVault(ctx context.Context, root string) (int, error) {
	scanner := scan.NewScanner(nil, nil)
	index, err := scanner.BuildIndex(ctx, root, scan.Options{
		Recursive:  true,
		Extensions: []string{".md"},
	})
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, rec := range index {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if err := idx.IndexNote(rec.Path); err != nil {
			continue
		}
		indexed++
	}
	return indexed, nil
}

// Options for searching
type Options struct {
	// Tag restricts results to notes carrying the tag.
	Tag   string
	Limit int
}

// Search performs a full-text search
func (idx *Index) Search(query string, opts *Options) ([]*Note, error) {
	if opts == nil {
		opts = &Options{Limit: 50}
	}
	if opts.Limit == 0 {
		opts.Limit = 50
	}

	if idx.useFTS {
		return idx.searchWithFTS(query, opts)
	}
	return idx.searchWithoutFTS(query, opts)
}

// searchWithFTS performs search using FTS5
func (idx *Index) searchWithFTS(query string, opts *Options) ([]*Note, error) {
	var conditions []string
	var args []any

	conditions = append(conditions, "notes_fts MATCH ?")
	args = append(args, query)

	if opts.Tag != "" {
		conditions = append(conditions, "(' ' || m.tags || ' ') LIKE ?")
		args = append(args, "% "+opts.Tag+" %")
	}

	searchQuery := fmt.Sprintf(`
		SELECT
			f.path, f.title, m.tags, m.modified_at, m.word_count,
			snippet(notes_fts, 3, '<match>', '</match>', '...', 32) as snippet
		FROM notes_fts f
		JOIN notes_meta m ON f.path = m.path
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := idx.db.Query(searchQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotes(rows, true)
}

// searchWithoutFTS performs search using LIKE queries on the metadata table
func (idx *Index) searchWithoutFTS(query string, opts *Options) ([]*Note, error) {
	var conditions []string
	var args []any

	searchPattern := "%" + strings.ReplaceAll(query, " ", "%") + "%"
	conditions = append(conditions, "(title LIKE ? OR content LIKE ? OR tags LIKE ?)")
	args = append(args, searchPattern, searchPattern, searchPattern)

	if opts.Tag != "" {
		conditions = append(conditions, "(' ' || tags || ' ') LIKE ?")
		args = append(args, "% "+opts.Tag+" %")
	}

	searchQuery := fmt.Sprintf(`
		SELECT path, title, tags, modified_at, word_count
		FROM notes_meta
		WHERE %s
		ORDER BY modified_at DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := idx.db.Query(searchQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotes(rows, false)
}

// NotesByTag returns every indexed note carrying the tag, newest first.
func (idx *Index) NotesByTag(tag string) ([]*Note, error) {
	rows, err := idx.db.Query(`
		SELECT path, title, tags, modified_at, word_count
		FROM notes_meta
		WHERE (' ' || tags || ' ') LIKE ?
		ORDER BY modified_at DESC
	`, "% "+tag+" %")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotes(rows, false)
}

// AllTags returns every distinct tag in the index with its note count.
func (idx *Index) AllTags() (map[string]int, error) {
	rows, err := idx.db.Query("SELECT tags FROM notes_meta WHERE tags != ''")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var tagList string
		if err := rows.Scan(&tagList); err != nil {
			return nil, err
		}
		for _, tag := range strings.Fields(tagList) {
			counts[tag]++
		}
	}
	return counts, rows.Err()
}

func scanNotes(rows *sql.Rows, withSnippet bool) ([]*Note, error) {
	var results []*Note
	for rows.Next() {
		note := &Note{}
		var tagList string

		var err error
		if withSnippet {
			err = rows.Scan(&note.Path, &note.Title, &tagList, &note.ModifiedAt, &note.WordCount, &note.Snippet)
		} else {
			err = rows.Scan(&note.Path, &note.Title, &tagList, &note.ModifiedAt, &note.WordCount)
		}
		if err != nil {
			return nil, err
		}

		if tagList != "" {
			note.Tags = strings.Fields(tagList)
		}
		results = append(results, note)
	}
	return results, rows.Err()
}

// RemoveNote removes a note from the index
func (idx *Index) RemoveNote(path string) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if idx.useFTS {
		if _, err := tx.Exec("DELETE FROM notes_fts WHERE path = ?", path); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM notes_meta WHERE path = ?", path); err != nil {
		return err
	}

	return tx.Commit()
}

// Close closes the index
func (idx *Index) Close() error {
	return idx.db.Close()
}
