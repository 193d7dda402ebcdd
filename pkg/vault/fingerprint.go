package vault

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/eepy-explorer/eepy/pkg/scan"
)

// Fingerprint digests the vault's markdown content state: the sorted
// subdirectory paths, each markdown file as "relpath:size", and the file
// count. Modification times are deliberately excluded so touch-only
// changes do not invalidate the cache.
func (v *Vault) Fingerprint() (string, error) {
	var dirs []string
	type fileEntry struct {
		rel  string
		size int64
	}
	var files []fileEntry

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(v.root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			dirs = append(dirs, rel)
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			v.log.WithError(infoErr).WithField("path", path).Warn("skipping unreadable file in fingerprint")
			return nil
		}
		files = append(files, fileEntry{rel: rel, size: info.Size()})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk vault: %w", err)
	}

	sort.Strings(dirs)
	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	for _, dir := range dirs {
		h.Write([]byte(dir))
	}
	for _, f := range files {
		fmt.Fprintf(h, "%s:%d", f.rel, f.size)
	}
	fmt.Fprintf(h, "%d", len(files))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// QuickFingerprint is a cheap pre-check digest over directory names and
// the markdown file count only. When it matches the previous quick value
// the full fingerprint is usually unchanged too; when it differs the
// caller should fall back to Fingerprint.
func (v *Vault) QuickFingerprint() (string, error) {
	var dirs []string
	mdCount := 0

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			rel, relErr := filepath.Rel(v.root, path)
			if relErr != nil {
				return relErr
			}
			if rel == "." {
				return nil
			}
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			dirs = append(dirs, rel)
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".md") && !strings.HasPrefix(d.Name(), ".") {
			mdCount++
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk vault: %w", err)
	}

	sort.Strings(dirs)
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	for _, dir := range dirs {
		h.Write([]byte(dir))
	}
	fmt.Fprintf(h, "%d", mdCount)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// skipDir matches the scan package's pruning so fingerprints and index
// contents stay in step.
func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, skip := range scan.DefaultSkipDirs {
		if name == skip {
			return true
		}
	}
	return false
}
