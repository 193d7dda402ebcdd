// Package scan walks directory trees into comparable file indexes.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/eepy-explorer/eepy/pkg/frontmatter"
	"github.com/eepy-explorer/eepy/pkg/hasher"
)

// DefaultSkipDirs are subtree names excluded from every walk. They hold
// application state or VCS data, never note content.
var DefaultSkipDirs = []string{".eepy", ".obsidian", ".git", ".trash", ".archived", "__pycache__"}

// Options controls a directory scan.
type Options struct {
	// Recursive walks subdirectories; otherwise only the root's direct
	// children are scanned.
	Recursive bool

	// Extensions, when non-empty, keeps only files whose lowercased name
	// ends with one of these (e.g. ".md").
	Extensions []string

	// SkipDirs lists directory names to prune. Nil means DefaultSkipDirs.
	SkipDirs []string

	// SkipGlobs are doublestar patterns matched against the relative path;
	// a match excludes the file.
	SkipGlobs []string

	// AnalyzeContent computes ContentHash and, for markdown files, Tags
	// for every record. Expensive; only worth it when the caller needs
	// content-aware comparison.
	AnalyzeContent bool

	// Progress, when set, receives (scanned, message) at a bounded cadence.
	Progress func(scanned int, message string)
}

// Scanner builds file indexes rooted at a directory.
type Scanner struct {
	hasher *hasher.Hasher
	log    *logrus.Logger
}

// NewScanner returns a Scanner using the given hasher. A nil logger
// discards log output.
func NewScanner(h *hasher.Hasher, log *logrus.Logger) *Scanner {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	return &Scanner{hasher: h, log: log}
}

// progressInterval bounds how often the Progress callback fires.
const progressInterval = 25

// BuildIndex walks root and returns an Index keyed by relative path.
// Dotfiles are always skipped. Unreadable files are logged and omitted;
// the walk itself only fails on a broken root or a cancelled context.
func (s *Scanner) BuildIndex(ctx context.Context, root string, opts Options) (Index, error) {
	skipDirs := opts.SkipDirs
	if skipDirs == nil {
		skipDirs = DefaultSkipDirs
	}
	skipSet := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skipSet[d] = true
	}

	index := make(Index)
	scanned := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.log.Warnf("scan: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") || skipSet[name] {
				return filepath.SkipDir
			}
			if !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if !matchesExtension(name, opts.Extensions) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matchesGlob(rel, opts.SkipGlobs) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.log.Warnf("scan: stat %s: %v", path, err)
			return nil
		}

		record := FileRecord{
			Path:         path,
			RelativePath: rel,
			Size:         info.Size(),
			ModifiedTime: info.ModTime(),
		}

		if opts.AnalyzeContent {
			s.enrich(&record)
		}

		index[rel] = record
		scanned++
		if opts.Progress != nil && scanned%progressInterval == 0 {
			opts.Progress(scanned, "Analyzed "+rel)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if opts.Progress != nil {
		opts.Progress(scanned, "Scan complete")
	}

	return index, nil
}

// enrich fills in ContentHash and, for markdown, Tags. Failures leave the
// fields empty: an unhashable file is "cannot compare", never an error.
func (s *Scanner) enrich(record *FileRecord) {
	digest, err := s.hasher.FullHash(record.Path)
	if err != nil {
		s.log.Warnf("scan: hash %s: %v", record.Path, err)
	} else {
		record.ContentHash = digest
	}

	if strings.EqualFold(filepath.Ext(record.Path), ".md") {
		record.Tags = ExtractFileTags(record.Path)
	}
}

// tagScanLimit bounds how much of a file is read when hunting for front
// matter. Front matter lives at the top; reading more is wasted I/O.
const tagScanLimit = 2048

// ExtractFileTags reads the head of a markdown file and extracts its
// front-matter tags. Unreadable or untagged files yield an empty list.
func ExtractFileTags(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return []string{}
	}
	defer f.Close()

	buf := make([]byte, tagScanLimit)
	n, _ := f.Read(buf)
	head := string(buf[:n])

	if !strings.HasPrefix(head, "---") {
		return []string{}
	}
	end := strings.Index(head[3:], "---")
	if end < 0 {
		return []string{}
	}
	block := strings.TrimSpace(head[3 : 3+end])

	return frontmatter.ExtractTags(block)
}

func matchesExtension(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func matchesGlob(rel string, globs []string) bool {
	for _, pattern := range globs {
		matched, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
