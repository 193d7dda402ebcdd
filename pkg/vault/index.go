package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eepy-explorer/eepy/pkg/scan"
)

// IndexSchemaVersion is bumped when the cache layout changes; older
// caches are discarded rather than migrated.
const IndexSchemaVersion = 1

// IndexItem is one cached vault entry, file or directory.
type IndexItem struct {
	Path       string   `json:"path"`
	IsDir      bool     `json:"is_dir"`
	ModTime    string   `json:"mod_time"`
	Tags       []string `json:"tags"`
	ParentPath string   `json:"parent_path"`
}

// IndexFile is the persisted notes index cache.
type IndexFile struct {
	Hash      string      `json:"hash"`
	QuickHash string      `json:"quick_hash,omitempty"`
	Timestamp string      `json:"timestamp"`
	Version   int         `json:"version"`
	Items     []IndexItem `json:"items"`
}

// BuildItems walks the vault and produces the cache items: every
// directory and markdown file, with front-matter tags attached to files.
func (v *Vault) BuildItems(ctx context.Context) ([]IndexItem, error) {
	var items []IndexItem

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, relErr := filepath.Rel(v.root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
		} else if strings.HasPrefix(d.Name(), ".") || !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			v.log.WithError(infoErr).WithField("path", path).Warn("skipping unreadable vault entry")
			return nil
		}

		item := IndexItem{
			Path:       path,
			IsDir:      d.IsDir(),
			ModTime:    info.ModTime().Format(time.RFC3339),
			Tags:       []string{},
			ParentPath: filepath.Dir(path),
		}
		if !d.IsDir() {
			item.Tags = scan.ExtractFileTags(path)
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}
	return items, nil
}

// SaveIndex writes the cache atomically: a temp file in the same
// directory is renamed into place so a crash never leaves a truncated
// index behind.
func (v *Vault) SaveIndex(items []IndexItem, hash, quickHash string) error {
	if hash == "" {
		return fmt.Errorf("refusing to save index without a fingerprint")
	}

	index := IndexFile{
		Hash:      hash,
		QuickHash: quickHash,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   IndexSchemaVersion,
		Items:     items,
	}
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	tempPath := v.IndexPath() + ".temp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write index temp file: %w", err)
	}
	if err := os.Rename(tempPath, v.IndexPath()); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replace index: %w", err)
	}

	v.log.WithFields(map[string]interface{}{
		"items": len(items),
		"hash":  hash[:8],
	}).Debug("saved notes index")
	return nil
}

// LoadIndex reads the cached index. A missing file returns (nil, nil); a
// present but invalid or outdated-schema cache is reported as an error so
// the caller rebuilds.
func (v *Vault) LoadIndex() (*IndexFile, error) {
	data, err := os.ReadFile(v.IndexPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var index IndexFile
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	if index.Hash == "" || len(index.Items) == 0 {
		return nil, fmt.Errorf("index at %s is missing hash or items", v.IndexPath())
	}
	if index.Version != IndexSchemaVersion {
		return nil, fmt.Errorf("index schema version %d, want %d", index.Version, IndexSchemaVersion)
	}
	return &index, nil
}

// Refresh rebuilds and saves the index when the vault content no longer
// matches the cached fingerprint. The cheap quick fingerprint is checked
// first; the full fingerprint is computed only when the quick value is
// absent or differs. It returns the up-to-date index and whether a
// rebuild happened.
func (v *Vault) Refresh(ctx context.Context, force bool) (*IndexFile, bool, error) {
	cached, err := v.LoadIndex()
	if err != nil {
		v.log.WithError(err).Warn("discarding unusable notes index")
		cached = nil
	}

	if cached != nil && !force {
		quick, err := v.QuickFingerprint()
		if err != nil {
			return nil, false, err
		}
		if cached.QuickHash != "" && cached.QuickHash == quick {
			return cached, false, nil
		}
		full, err := v.Fingerprint()
		if err != nil {
			return nil, false, err
		}
		if cached.Hash == full {
			// Content is unchanged; record the current quick value so
			// the next refresh stops at the pre-check.
			cached.QuickHash = quick
			if err := v.SaveIndex(cached.Items, cached.Hash, quick); err != nil {
				v.log.WithError(err).Warn("could not update notes index pre-check hash")
			}
			return cached, false, nil
		}
	}

	items, err := v.BuildItems(ctx)
	if err != nil {
		return nil, false, err
	}
	hash, err := v.Fingerprint()
	if err != nil {
		return nil, false, err
	}
	quick, err := v.QuickFingerprint()
	if err != nil {
		return nil, false, err
	}
	if err := v.SaveIndex(items, hash, quick); err != nil {
		return nil, false, err
	}

	return &IndexFile{
		Hash:      hash,
		QuickHash: quick,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   IndexSchemaVersion,
		Items:     items,
	}, true, nil
}
