package appconfig

import (
	"os"
	"path/filepath"
	"strings"
)

// NotesConfig points at the markdown notes vault.
type NotesConfig struct {
	VaultPath string `json:"vault_path"`
}

// NotesStore persists the vault location to notes_config.json.
type NotesStore struct {
	path   string
	config NotesConfig
}

// NewNotesStore loads (or initializes) the store under dir.
func NewNotesStore(dir string) (*NotesStore, error) {
	s := &NotesStore{path: filepath.Join(dir, "notes_config.json")}
	if _, err := loadJSON(s.path, &s.config); err != nil {
		return nil, err
	}
	return s, nil
}

// VaultPath returns the configured vault path, which may be empty.
func (s *NotesStore) VaultPath() string {
	return s.config.VaultPath
}

// SetVaultPath saves the vault location.
func (s *NotesStore) SetVaultPath(path string) error {
	s.config.VaultPath = path
	return saveJSON(s.path, &s.config)
}

// ResolveVaultPath picks the notes vault directory. Resolution order:
// the configured path, a ~/.eepy_vault pointer file, then home/Notes as
// the fallback. Configured locations that no longer exist are skipped.
func (s *NotesStore) ResolveVaultPath(home string) string {
	if s.config.VaultPath != "" && dirExists(s.config.VaultPath) {
		return s.config.VaultPath
	}

	pointer := filepath.Join(home, ".eepy_vault")
	if data, err := os.ReadFile(pointer); err == nil {
		path := strings.TrimSpace(string(data))
		if path != "" && dirExists(path) {
			return path
		}
	}

	return filepath.Join(home, "Notes")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
