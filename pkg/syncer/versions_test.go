package syncer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateVersion(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "notes/idea.md", "first draft\n")

	vm, err := NewVersionManager(root, nil)
	if err != nil {
		t.Fatalf("NewVersionManager: %v", err)
	}

	versionPath, err := vm.CreateVersion(path, "sync")
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	content, err := os.ReadFile(versionPath)
	if err != nil {
		t.Fatalf("read version: %v", err)
	}
	if string(content) != "first draft\n" {
		t.Errorf("version content wrong: %q", content)
	}
	if !strings.Contains(versionPath, filepath.Join(VersionDirName, "notes")) {
		t.Errorf("version should mirror the vault layout, got %s", versionPath)
	}

	meta, err := os.ReadFile(versionPath + ".meta")
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	for _, field := range []string{"id=", "original_path=notes/idea.md", "reason=sync", "hash=", "size=12"} {
		if !strings.Contains(string(meta), field) {
			t.Errorf("metadata missing %q:\n%s", field, meta)
		}
	}
}

func TestCreateVersionMissingFile(t *testing.T) {
	vm, err := NewVersionManager(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewVersionManager: %v", err)
	}
	if _, err := vm.CreateVersion(filepath.Join(vm.baseDir, "gone.md"), "sync"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestListVersionsNewestFirst(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "idea.md", "v1\n")

	vm, err := NewVersionManager(root, nil)
	if err != nil {
		t.Fatalf("NewVersionManager: %v", err)
	}

	if _, err := vm.CreateVersion(path, "sync"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	// Same second: the store bumps the timestamp instead of overwriting.
	writeFile(t, root, "idea.md", "v2 content\n")
	if _, err := vm.CreateVersion(path, "sync"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	versions, err := vm.ListVersions(path)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if !versions[0].Timestamp.After(versions[1].Timestamp) {
		t.Errorf("versions not newest-first: %v then %v", versions[0].Timestamp, versions[1].Timestamp)
	}
	if versions[0].Reason != "sync" {
		t.Errorf("metadata not applied: %+v", versions[0])
	}
}

func TestListVersionsIgnoresUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "idea.md", "v1\n")

	vm, err := NewVersionManager(root, nil)
	if err != nil {
		t.Fatalf("NewVersionManager: %v", err)
	}
	if _, err := vm.CreateVersion(path, "sync"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	// A different note's version in the same directory must not match.
	other := writeFile(t, root, "other.md", "x\n")
	if _, err := vm.CreateVersion(other, "sync"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	versions, err := vm.ListVersions(path)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Errorf("expected 1 version for idea.md, got %d", len(versions))
	}
}

func TestRestoreVersionIsNonDestructive(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "idea.md", "original\n")

	vm, err := NewVersionManager(root, nil)
	if err != nil {
		t.Fatalf("NewVersionManager: %v", err)
	}
	versionPath, err := vm.CreateVersion(path, "sync")
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	writeFile(t, root, "idea.md", "edited since\n")

	if err := vm.RestoreVersion(versionPath, ""); err != nil {
		t.Fatalf("RestoreVersion: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if string(content) != "original\n" {
		t.Errorf("restore did not bring back the version: %q", content)
	}

	// The pre-restore state must itself have been versioned.
	versions, err := vm.ListVersions(path)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	var sawRestore bool
	for _, v := range versions {
		if v.Reason == "restore" {
			sawRestore = true
			content, err := os.ReadFile(v.Path)
			if err != nil {
				t.Fatalf("read restore version: %v", err)
			}
			if string(content) != "edited since\n" {
				t.Errorf("restore version should hold the pre-restore state, got %q", content)
			}
		}
	}
	if !sawRestore {
		t.Error("restoring should version the current target with reason=restore")
	}
}

func TestRestoreVersionToExplicitTarget(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "idea.md", "original\n")

	vm, err := NewVersionManager(root, nil)
	if err != nil {
		t.Fatalf("NewVersionManager: %v", err)
	}
	versionPath, err := vm.CreateVersion(path, "sync")
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	dest := filepath.Join(root, "copy-of-idea.md")
	if err := vm.RestoreVersion(versionPath, dest); err != nil {
		t.Fatalf("RestoreVersion: %v", err)
	}
	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read restored copy: %v", err)
	}
	if string(content) != "original\n" {
		t.Errorf("explicit-target restore wrong: %q", content)
	}
}
