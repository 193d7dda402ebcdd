// Package syncer diffs two directory trees into a typed plan of copy,
// delete, and rename actions, then applies the plan with backups,
// tag merging, and best-effort error handling.
package syncer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eepy-explorer/eepy/pkg/frontmatter"
	"github.com/eepy-explorer/eepy/pkg/hasher"
	"github.com/eepy-explorer/eepy/pkg/scan"
)

// BackupDirName is the per-tree directory that receives pre-overwrite
// backups, relative to the file being replaced.
const BackupDirName = ".eepy/backups"

const backupTimestampFormat = "20060102150405"

// Engine syncs one source/target directory pair. An engine owns its own
// indexes for the lifetime of a run; build a new one per pair rather than
// sharing across concurrent syncs.
type Engine struct {
	sourceRoot string
	targetRoot string

	hasher  *hasher.Hasher
	scanner *scan.Scanner
	log     *logrus.Logger

	filesAnalyzed int
}

// NewEngine creates a sync engine for the given directory pair.
func NewEngine(sourceRoot, targetRoot string, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	h := hasher.MustNew()
	return &Engine{
		sourceRoot: sourceRoot,
		targetRoot: targetRoot,
		hasher:     h,
		scanner:    scan.NewScanner(h, log),
		log:        log,
	}
}

// SourceRoot returns the source directory of this pair.
func (e *Engine) SourceRoot() string { return e.sourceRoot }

// TargetRoot returns the target directory of this pair.
func (e *Engine) TargetRoot() string { return e.targetRoot }

// BuildIndexes scans both trees. The target directory is created when
// missing, so a first sync into a fresh location works without setup.
func (e *Engine) BuildIndexes(ctx context.Context, opts scan.Options) (source, target scan.Index, err error) {
	if _, err := os.Stat(e.sourceRoot); err != nil {
		return nil, nil, fmt.Errorf("source directory: %w", err)
	}
	if err := os.MkdirAll(e.targetRoot, 0755); err != nil {
		return nil, nil, fmt.Errorf("create target directory: %w", err)
	}

	source, err = e.scanner.BuildIndex(ctx, e.sourceRoot, opts)
	if err != nil {
		return nil, nil, err
	}
	target, err = e.scanner.BuildIndex(ctx, e.targetRoot, opts)
	if err != nil {
		return nil, nil, err
	}
	e.filesAnalyzed = len(source) + len(target)
	return source, target, nil
}

// Apply executes a plan entry by entry. Failures are recorded in the
// stats and do not stop the batch. Cancellation stops between entries;
// files already written stay written.
func (e *Engine) Apply(ctx context.Context, plan []PlanEntry, opts ApplyOptions) *Stats {
	stats := &Stats{FilesAnalyzed: e.filesAnalyzed}
	start := time.Now()
	defer func() { stats.Elapsed = time.Since(start) }()

	for i, entry := range plan {
		if ctx.Err() != nil {
			stats.Cancelled = true
			break
		}
		if opts.Progress != nil {
			opts.Progress(i, len(plan), entry.String())
		}

		if opts.DryRun {
			e.log.WithFields(logrus.Fields{
				"action": entry.Action,
				"path":   entry.RelativePath,
			}).Info(entry.Reason)
			continue
		}

		if err := e.applyEntry(entry, opts, stats); err != nil {
			stats.Errors = append(stats.Errors, EntryError{
				RelativePath: entry.RelativePath,
				Action:       entry.Action,
				Err:          err,
			})
			e.log.WithError(err).WithFields(logrus.Fields{
				"action": entry.Action,
				"path":   entry.RelativePath,
			}).Warn("sync entry failed")
		}
	}

	if opts.Progress != nil {
		opts.Progress(len(plan), len(plan), "done")
	}
	return stats
}

func (e *Engine) applyEntry(entry PlanEntry, opts ApplyOptions, stats *Stats) error {
	switch entry.Action {
	case ActionSkip:
		stats.Skipped++
		return nil

	case ActionCopyToTarget:
		dest := filepath.Join(e.targetRoot, entry.RelativePath)
		if err := e.copyWithGuards(entry.Source.Path, dest, opts); err != nil {
			return err
		}
		stats.CopiedToTarget++
		stats.BytesTransferred += entry.Source.Size
		if entry.Target != nil {
			stats.ConflictsResolved++
		}
		return nil

	case ActionCopyToSource:
		dest := filepath.Join(e.sourceRoot, entry.RelativePath)
		if err := e.copyWithGuards(entry.Target.Path, dest, opts); err != nil {
			return err
		}
		stats.CopiedToSource++
		stats.BytesTransferred += entry.Target.Size
		if entry.Source != nil {
			stats.ConflictsResolved++
		}
		return nil

	case ActionDelete:
		path := filepath.Join(e.targetRoot, entry.RelativePath)
		if opts.CreateBackups {
			if _, err := CreateBackup(path); err != nil {
				e.log.WithError(err).WithField("path", path).Warn("backup before delete failed")
			}
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		stats.Deleted++
		return nil

	case ActionRenameWithSuffix:
		// The conflicted file is copied across under its disambiguated
		// name; the plain-named file on each side stays in place.
		var src, dest string
		if entry.Source != nil {
			src = entry.Source.Path
			dest = filepath.Join(e.targetRoot, entry.NewRelativePath)
		} else {
			src = entry.Target.Path
			dest = filepath.Join(e.sourceRoot, entry.NewRelativePath)
		}
		if err := copyPreserving(src, dest); err != nil {
			return err
		}
		stats.ConflictsResolved++
		return nil
	}
	return fmt.Errorf("unknown plan action: %s", entry.Action)
}

// copyWithGuards performs an overwriting copy with the optional backup
// and tag-preservation steps around it.
func (e *Engine) copyWithGuards(src, dest string, opts ApplyOptions) error {
	var destTags []string
	if opts.SyncTags && isNote(dest) && isNote(src) {
		destTags = scan.ExtractFileTags(dest)
	}

	if opts.CreateBackups {
		if _, err := os.Stat(dest); err == nil {
			if _, err := CreateBackup(dest); err != nil {
				e.log.WithError(err).WithField("path", dest).Warn("backup failed")
			}
		}
	}

	if err := copyPreserving(src, dest); err != nil {
		return err
	}

	if len(destTags) > 0 {
		if err := mergeTagsIntoFile(dest, destTags); err != nil {
			e.log.WithError(err).WithField("path", dest).Warn("tag merge failed")
		}
	}
	return nil
}

// copyPreserving copies src over dest, creating parent directories and
// carrying over permissions and the modified time.
func copyPreserving(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}

	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("preserve mtime on %s: %w", dest, err)
	}
	return nil
}

// CreateBackup copies a file into the .eepy/backups directory next to it,
// named with a timestamp so successive backups never collide within the
// same second's resolution.
func CreateBackup(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	backupDir := filepath.Join(filepath.Dir(path), BackupDirName)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	stamp := time.Now().Format(backupTimestampFormat)
	backupPath := filepath.Join(backupDir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
	if err := copyPreserving(path, backupPath); err != nil {
		return "", err
	}
	return backupPath, nil
}

// mergeTagsIntoFile unions extra tags into a note's front matter. Notes
// without front matter are left untouched rather than having a block
// invented for them, a note already carrying every extra tag is not
// rewritten, and a real merge keeps the note's modified time so repeated
// syncs settle instead of ping-ponging.
func mergeTagsIntoFile(path string, extra []string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	block, body := frontmatter.Parse(string(content))
	if block == "" {
		return nil
	}

	existing := frontmatter.ExtractTags(block)
	merged := frontmatter.MergeTags(existing, extra)
	if len(merged) == len(frontmatter.MergeTags(existing)) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	updated := frontmatter.Compose(frontmatter.RewriteTags(block, merged), body)
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("preserve mtime on %s: %w", path, err)
	}
	return nil
}

func isNote(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}
