// Package vault manages a notes vault's .eepy sidecar directory: the
// cached notes index, its freshness fingerprints, and per-vault settings.
package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// EepyDirName is the per-vault application directory.
const EepyDirName = ".eepy"

const readmeContent = `# .eepy Directory

This directory contains application data and cache files for the EEPY Explorer application.

## Contents

- **notes_index.json**: Cache of the notes vault structure and metadata
- **vault.yml**: Local configuration for the vault
- **backups/**: Pre-overwrite file backups from sync runs
- **versions/**: Point-in-time file versions

You can safely ignore this directory, but don't delete it as it helps improve performance.
`

// Vault is an opened notes vault root.
type Vault struct {
	root string
	log  *logrus.Logger
}

// Open prepares a vault at root, creating the .eepy directory and its
// README when missing.
func Open(root string, log *logrus.Logger) (*Vault, error) {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("vault root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault root %s is not a directory", root)
	}

	v := &Vault{root: root, log: log}
	if err := os.MkdirAll(v.EepyDir(), 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", EepyDirName, err)
	}

	readme := filepath.Join(v.EepyDir(), "README.md")
	if _, err := os.Stat(readme); os.IsNotExist(err) {
		if err := os.WriteFile(readme, []byte(readmeContent), 0644); err != nil {
			log.WithError(err).Warn("could not write .eepy README")
		}
	}
	return v, nil
}

// Root returns the vault's root directory.
func (v *Vault) Root() string { return v.root }

// EepyDir returns the vault's application directory.
func (v *Vault) EepyDir() string { return filepath.Join(v.root, EepyDirName) }

// IndexPath returns the notes index cache location.
func (v *Vault) IndexPath() string { return filepath.Join(v.EepyDir(), "notes_index.json") }

// SettingsPath returns the per-vault settings file location.
func (v *Vault) SettingsPath() string { return filepath.Join(v.EepyDir(), "vault.yml") }

// BackupsDir returns the sync backup directory.
func (v *Vault) BackupsDir() string { return filepath.Join(v.EepyDir(), "backups") }

// VersionsDir returns the version store directory.
func (v *Vault) VersionsDir() string { return filepath.Join(v.EepyDir(), "versions") }
