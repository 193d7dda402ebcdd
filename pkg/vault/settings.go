package vault

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the per-vault configuration stored at .eepy/vault.yml.
type Settings struct {
	// Name labels the vault in listings.
	Name string `yaml:"name,omitempty"`
	// Extensions limits scans to these file extensions. Empty means
	// markdown only.
	Extensions []string `yaml:"extensions,omitempty"`
	// SkipDirs adds vault-specific directory names to the default skip
	// list.
	SkipDirs []string `yaml:"skip_dirs,omitempty"`
	// SyncTags controls whether sync runs merge front-matter tags.
	SyncTags bool `yaml:"sync_tags"`
	// CreateBackups controls whether sync runs back up overwritten files.
	CreateBackups bool `yaml:"create_backups"`
}

// DefaultSettings are used when a vault has no settings file.
func DefaultSettings() Settings {
	return Settings{
		Extensions:    []string{".md"},
		SyncTags:      true,
		CreateBackups: true,
	}
}

// LoadSettings reads the vault settings, falling back to defaults when
// the file is absent.
func (v *Vault) LoadSettings() (Settings, error) {
	data, err := os.ReadFile(v.SettingsPath())
	if os.IsNotExist(err) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read vault settings: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse vault settings: %w", err)
	}
	return settings, nil
}

// SaveSettings writes the vault settings file.
func (v *Vault) SaveSettings(settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal vault settings: %w", err)
	}
	if err := os.WriteFile(v.SettingsPath(), data, 0644); err != nil {
		return fmt.Errorf("write vault settings: %w", err)
	}
	return nil
}
