package syncer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eepy-explorer/eepy/pkg/hasher"
)

// VersionDirName is the sidecar store under a vault that keeps file
// versions, mirroring the vault's directory layout.
const VersionDirName = ".eepy/versions"

const versionTimestampFormat = "20060102150405"

// VersionInfo describes one stored version of a file.
type VersionInfo struct {
	ID           string
	Path         string
	OriginalPath string
	Timestamp    time.Time
	Reason       string
	Hash         string
	Size         int64
}

// VersionManager stores and restores point-in-time copies of files under
// a base directory. Each version file carries a .meta sidecar with enough
// context to restore it even after the original moves.
type VersionManager struct {
	baseDir    string
	versionDir string
	hasher     *hasher.Hasher
	log        *logrus.Logger
}

// NewVersionManager creates the version store for a base directory,
// ensuring the sidecar directory exists.
func NewVersionManager(baseDir string, log *logrus.Logger) (*VersionManager, error) {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	versionDir := filepath.Join(baseDir, VersionDirName)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return nil, fmt.Errorf("create version dir: %w", err)
	}
	return &VersionManager{
		baseDir:    baseDir,
		versionDir: versionDir,
		hasher:     hasher.MustNew(),
		log:        log,
	}, nil
}

// CreateVersion copies the file into the version store, keyed by its
// relative path plus a timestamp, and writes the metadata sidecar.
func (vm *VersionManager) CreateVersion(path, reason string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	rel, err := filepath.Rel(vm.baseDir, path)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", path, err)
	}

	subdir := filepath.Join(vm.versionDir, filepath.Dir(rel))
	if err := os.MkdirAll(subdir, 0755); err != nil {
		return "", fmt.Errorf("create version subdir: %w", err)
	}

	name := filepath.Base(path)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	// Timestamps have second resolution; bump forward until the slot is
	// free so two versions in the same second never overwrite each other.
	now := time.Now()
	var stamp string
	var versionPath string
	for {
		stamp = now.Format(versionTimestampFormat)
		versionPath = filepath.Join(subdir, base+"."+stamp+ext)
		if _, err := os.Stat(versionPath); os.IsNotExist(err) {
			break
		}
		now = now.Add(time.Second)
	}

	if err := copyPreserving(path, versionPath); err != nil {
		return "", err
	}

	digest, err := vm.hasher.FullHash(path)
	if err != nil {
		digest = ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	meta := fmt.Sprintf("id=%s\noriginal_path=%s\ntimestamp=%s\nreason=%s\nhash=%s\nsize=%d\n",
		uuid.NewString(), rel, stamp, reason, digest, info.Size())
	if err := os.WriteFile(versionPath+".meta", []byte(meta), 0644); err != nil {
		return "", fmt.Errorf("write version metadata: %w", err)
	}

	vm.log.WithFields(logrus.Fields{
		"path":    path,
		"version": versionPath,
		"reason":  reason,
	}).Debug("created version")
	return versionPath, nil
}

// ListVersions returns the stored versions of a file, newest first.
func (vm *VersionManager) ListVersions(path string) ([]VersionInfo, error) {
	rel, err := filepath.Rel(vm.baseDir, path)
	if err != nil {
		return nil, fmt.Errorf("relativize %s: %w", path, err)
	}

	subdir := filepath.Join(vm.versionDir, filepath.Dir(rel))
	entries, err := os.ReadDir(subdir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read version dir: %w", err)
	}

	name := filepath.Base(path)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	var versions []VersionInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".meta") {
			continue
		}
		entryExt := filepath.Ext(entry.Name())
		entryBase := strings.TrimSuffix(entry.Name(), entryExt)
		if entryExt != ext || !strings.HasPrefix(entryBase, base+".") {
			continue
		}
		stamp := strings.TrimPrefix(entryBase, base+".")
		ts, err := time.ParseInLocation(versionTimestampFormat, stamp, time.Local)
		if err != nil {
			continue
		}

		versionPath := filepath.Join(subdir, entry.Name())
		info := VersionInfo{Path: versionPath, Timestamp: ts}
		if fi, err := entry.Info(); err == nil {
			info.Size = fi.Size()
		}
		applyMeta(&info, versionPath+".meta")
		versions = append(versions, info)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i].Timestamp.After(versions[j].Timestamp) })
	return versions, nil
}

// RestoreVersion copies a stored version back over its original path, or
// over targetPath when given. The current target is itself versioned
// first, so a restore never destroys the immediately prior state.
func (vm *VersionManager) RestoreVersion(versionPath, targetPath string) error {
	if _, err := os.Stat(versionPath); err != nil {
		return fmt.Errorf("stat version %s: %w", versionPath, err)
	}

	if targetPath == "" {
		var info VersionInfo
		applyMeta(&info, versionPath+".meta")
		if info.OriginalPath == "" {
			return fmt.Errorf("version %s has no recorded original path", versionPath)
		}
		targetPath = filepath.Join(vm.baseDir, info.OriginalPath)
	}

	if _, err := os.Stat(targetPath); err == nil {
		if _, err := vm.CreateVersion(targetPath, "restore"); err != nil {
			return fmt.Errorf("version current target: %w", err)
		}
	}

	if err := copyPreserving(versionPath, targetPath); err != nil {
		return err
	}
	vm.log.WithFields(logrus.Fields{
		"version": versionPath,
		"target":  targetPath,
	}).Info("restored version")
	return nil
}

// applyMeta fills in fields from a .meta sidecar when it exists.
func applyMeta(info *VersionInfo, metaPath string) {
	f, err := os.Open(metaPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		switch key {
		case "id":
			info.ID = value
		case "original_path":
			info.OriginalPath = value
		case "reason":
			info.Reason = value
		case "hash":
			info.Hash = value
		case "size":
			fmt.Sscanf(value, "%d", &info.Size)
		case "timestamp":
			if ts, err := time.ParseInLocation(versionTimestampFormat, value, time.Local); err == nil {
				info.Timestamp = ts
			}
		}
	}
}
