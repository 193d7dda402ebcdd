package appconfig

import (
	"os"
	"path/filepath"
	"time"
)

// LaunchConfig is one way to run a project directory.
type LaunchConfig struct {
	Name        string     `json:"name"`
	Type        string     `json:"type,omitempty"`
	Command     string     `json:"command"`
	WorkingDir  string     `json:"working_dir"`
	Description string     `json:"description,omitempty"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	UseCount    int        `json:"use_count,omitempty"`
}

// LaunchStore persists saved launch configurations per project path to
// launches.json.
type LaunchStore struct {
	path     string
	launches map[string][]LaunchConfig
}

// NewLaunchStore loads (or initializes) the store under dir.
func NewLaunchStore(dir string) (*LaunchStore, error) {
	s := &LaunchStore{
		path:     filepath.Join(dir, "launches.json"),
		launches: make(map[string][]LaunchConfig),
	}
	if _, err := loadJSON(s.path, &s.launches); err != nil {
		return nil, err
	}
	return s, nil
}

// Add saves a launch configuration for a project path, replacing any
// existing configuration of the same name.
func (s *LaunchStore) Add(projectPath string, config LaunchConfig) error {
	configs := s.launches[projectPath]
	replaced := false
	for i, existing := range configs {
		if existing.Name == config.Name {
			configs[i] = config
			replaced = true
			break
		}
	}
	if !replaced {
		configs = append(configs, config)
	}
	s.launches[projectPath] = configs
	return s.save()
}

// Remove drops the named configuration for a project path. The path's
// entry disappears entirely when its last configuration is removed.
func (s *LaunchStore) Remove(projectPath, name string) error {
	configs, ok := s.launches[projectPath]
	if !ok {
		return nil
	}
	kept := configs[:0]
	for _, config := range configs {
		if config.Name != name {
			kept = append(kept, config)
		}
	}
	if len(kept) == 0 {
		delete(s.launches, projectPath)
	} else {
		s.launches[projectPath] = kept
	}
	return s.save()
}

// Get returns the saved configurations for a project path.
func (s *LaunchStore) Get(projectPath string) []LaunchConfig {
	return s.launches[projectPath]
}

// MarkUsed records a launch of the named configuration.
func (s *LaunchStore) MarkUsed(projectPath, name string) error {
	configs := s.launches[projectPath]
	for i := range configs {
		if configs[i].Name == name {
			now := time.Now()
			configs[i].LastUsed = &now
			configs[i].UseCount++
			return s.save()
		}
	}
	return nil
}

func (s *LaunchStore) save() error {
	return saveJSON(s.path, s.launches)
}

// DetectProject inspects a directory for project markers and returns
// runnable launch configurations for every project type found.
func DetectProject(path string) []LaunchConfig {
	var configs []LaunchConfig
	configs = append(configs, detectPython(path)...)
	configs = append(configs, detectNode(path)...)
	configs = append(configs, detectRust(path)...)
	configs = append(configs, detectGo(path)...)
	configs = append(configs, detectZig(path)...)
	return configs
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func detectPython(path string) []LaunchConfig {
	var configs []LaunchConfig
	if fileExists(filepath.Join(path, "pyproject.toml")) {
		configs = append(configs, LaunchConfig{
			Name:        "Python Project (pyproject.toml)",
			Type:        "python",
			Command:     "uv run",
			WorkingDir:  path,
			Description: "Run with uv (pyproject.toml)",
		})
	}
	if fileExists(filepath.Join(path, "setup.py")) {
		configs = append(configs, LaunchConfig{
			Name:        "Python Project (setup.py)",
			Type:        "python",
			Command:     "python setup.py develop",
			WorkingDir:  path,
			Description: "Run with setup.py",
		})
	}
	if fileExists(filepath.Join(path, "requirements.txt")) {
		configs = append(configs, LaunchConfig{
			Name:        "Python Project (requirements.txt)",
			Type:        "python",
			Command:     "python -m pip install -r requirements.txt",
			WorkingDir:  path,
			Description: "Install requirements",
		})
	}
	for _, entry := range []string{"main.py", "app.py", "run.py"} {
		if fileExists(filepath.Join(path, entry)) {
			configs = append(configs, LaunchConfig{
				Name:        "Python Script (" + entry + ")",
				Type:        "python",
				Command:     "python " + entry,
				WorkingDir:  path,
				Description: "Run " + entry,
			})
		}
	}
	return configs
}

func detectNode(path string) []LaunchConfig {
	if !fileExists(filepath.Join(path, "package.json")) {
		return nil
	}
	return []LaunchConfig{{
		Name:        "Node.js Project",
		Type:        "node",
		Command:     "npm install && npm start",
		WorkingDir:  path,
		Description: "Install dependencies and start",
	}}
}

func detectRust(path string) []LaunchConfig {
	if !fileExists(filepath.Join(path, "Cargo.toml")) {
		return nil
	}
	return []LaunchConfig{{
		Name:        "Rust Project",
		Type:        "rust",
		Command:     "cargo run",
		WorkingDir:  path,
		Description: "Build and run with Cargo",
	}}
}

func detectGo(path string) []LaunchConfig {
	if !fileExists(filepath.Join(path, "go.mod")) {
		return nil
	}
	return []LaunchConfig{{
		Name:        "Go Project",
		Type:        "go",
		Command:     "go run .",
		WorkingDir:  path,
		Description: "Run Go project",
	}}
}

func detectZig(path string) []LaunchConfig {
	if !fileExists(filepath.Join(path, "build.zig")) {
		return nil
	}
	return []LaunchConfig{{
		Name:        "Zig Project",
		Type:        "zig",
		Command:     "zig build run",
		WorkingDir:  path,
		Description: "Build and run with Zig",
	}}
}
