package appconfig

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Command is one saved shell command in the palette.
type Command struct {
	Command     string     `json:"command"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	WorkingDir  string     `json:"cwd,omitempty"`
	Created     time.Time  `json:"created"`
	LastUsed    *time.Time `json:"last_used"`
	UseCount    int        `json:"use_count"`
}

// CommandStore persists the command palette to commands.json.
type CommandStore struct {
	path     string
	commands map[string]*Command
}

// NewCommandStore loads (or initializes) the store under dir.
func NewCommandStore(dir string) (*CommandStore, error) {
	s := &CommandStore{
		path:     filepath.Join(dir, "commands.json"),
		commands: make(map[string]*Command),
	}
	if _, err := loadJSON(s.path, &s.commands); err != nil {
		return nil, err
	}
	return s, nil
}

// Add creates or updates a named command. Usage stats survive updates.
func (s *CommandStore) Add(name, command, description string, tags []string, cwd string) error {
	if tags == nil {
		tags = []string{}
	}
	existing, ok := s.commands[name]
	if ok {
		existing.Command = command
		existing.Description = description
		existing.Tags = tags
		existing.WorkingDir = cwd
	} else {
		s.commands[name] = &Command{
			Command:     command,
			Description: description,
			Tags:        tags,
			WorkingDir:  cwd,
			Created:     time.Now(),
		}
	}
	return s.save()
}

// Remove deletes a command. Removing an unknown name is a no-op.
func (s *CommandStore) Remove(name string) error {
	if _, ok := s.commands[name]; !ok {
		return nil
	}
	delete(s.commands, name)
	return s.save()
}

// Get returns the named command, or nil when absent.
func (s *CommandStore) Get(name string) *Command {
	return s.commands[name]
}

// Names returns all command names sorted.
func (s *CommandStore) Names() []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Recent returns up to limit command names, most recently used first.
// Never-used commands are excluded.
func (s *CommandStore) Recent(limit int) []string {
	var names []string
	for name, cmd := range s.commands {
		if cmd.LastUsed != nil {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := s.commands[names[i]].LastUsed, s.commands[names[j]].LastUsed
		if ti.Equal(*tj) {
			return names[i] < names[j]
		}
		return ti.After(*tj)
	})
	return truncate(names, limit)
}

// Popular returns up to limit command names by descending use count.
func (s *CommandStore) Popular(limit int) []string {
	names := s.Names()
	sort.SliceStable(names, func(i, j int) bool {
		return s.commands[names[i]].UseCount > s.commands[names[j]].UseCount
	})
	return truncate(names, limit)
}

// ByTag returns names of commands carrying the tag, sorted.
func (s *CommandStore) ByTag(tag string) []string {
	var names []string
	for name, cmd := range s.commands {
		for _, t := range cmd.Tags {
			if t == tag {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// AllTags returns every distinct tag across the palette, sorted.
func (s *CommandStore) AllTags() []string {
	seen := make(map[string]bool)
	for _, cmd := range s.commands {
		for _, t := range cmd.Tags {
			seen[t] = true
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Search matches query case-insensitively against names, descriptions
// and tags, returning matching names sorted.
func (s *CommandStore) Search(query string) []string {
	query = strings.ToLower(query)
	var names []string
	for name, cmd := range s.commands {
		if commandMatches(name, cmd, query) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func commandMatches(name string, cmd *Command, query string) bool {
	if strings.Contains(strings.ToLower(name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(cmd.Description), query) {
		return true
	}
	for _, tag := range cmd.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// RunResult captures one command execution.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes the named command through the shell, records the usage,
// and returns the captured output. cwd overrides the command's saved
// working directory when non-empty. A non-zero exit is reported in the
// result, not as an error.
func (s *CommandStore) Run(ctx context.Context, name, cwd string) (*RunResult, error) {
	cmd, ok := s.commands[name]
	if !ok {
		return nil, fmt.Errorf("command not found: %s", name)
	}

	now := time.Now()
	cmd.LastUsed = &now
	cmd.UseCount++
	if err := s.save(); err != nil {
		return nil, err
	}

	dir := cwd
	if dir == "" {
		dir = cmd.WorkingDir
	}

	proc := exec.CommandContext(ctx, "sh", "-c", cmd.Command)
	proc.Dir = dir
	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	err := proc.Run()
	result := &RunResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("run %s: %w", name, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	return result, nil
}

func (s *CommandStore) save() error {
	return saveJSON(s.path, s.commands)
}

func truncate(names []string, limit int) []string {
	if limit > 0 && len(names) > limit {
		return names[:limit]
	}
	return names
}
