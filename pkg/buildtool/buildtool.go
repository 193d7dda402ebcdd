// Package buildtool shells out to the external enzige build tool. It
// wraps process invocation only; interpreting build output beyond exit
// codes is left to callers.
package buildtool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// DocFormats are the documentation formats enzige can emit.
var DocFormats = []string{"HTML", "RTF", "PDF"}

// Result captures one finished enzige invocation.
type Result struct {
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports whether the invocation exited cleanly.
func (r *Result) Ok() bool {
	return r.ExitCode == 0
}

// Tool runs enzige subcommands in a working directory.
type Tool struct {
	binary string
	dir    string
	log    *logrus.Logger
}

// New returns a Tool running the given binary in dir. An empty binary
// resolves via FindBinary from dir.
func New(binary, dir string, log *logrus.Logger) *Tool {
	if binary == "" {
		binary = FindBinary(dir)
	}
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	return &Tool{binary: binary, dir: dir, log: log}
}

// FindBinary locates the enzige binary. A workspace-local build is
// preferred over source checkout over whatever is on PATH.
func FindBinary(workspaceRoot string) string {
	candidates := []string{
		filepath.Join(workspaceRoot, "enzige", "zig-out", "bin", "enzige"),
		filepath.Join(workspaceRoot, "enzige", "src", "enzige"),
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return "enzige"
}

// run executes one subcommand to completion, capturing output. A
// non-zero exit is reported in the Result; only spawn failures are
// errors.
func (t *Tool) run(ctx context.Context, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, t.binary, args...)
	cmd.Dir = t.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.log.Debugf("buildtool: %s %s", t.binary, strings.Join(args, " "))

	err := cmd.Run()
	result := &Result{
		Args:   args,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("run %s %s: %w", t.binary, strings.Join(args, " "), err)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	return result, nil
}

// Build compiles the current project.
func (t *Tool) Build(ctx context.Context) (*Result, error) {
	return t.run(ctx, "build")
}

// Cast creates a development build with debug symbols.
func (t *Tool) Cast(ctx context.Context) (*Result, error) {
	return t.run(ctx, "cast")
}

// Forge creates an optimized production build.
func (t *Tool) Forge(ctx context.Context) (*Result, error) {
	return t.run(ctx, "forge")
}

// Verify checks the project's contract assertions.
func (t *Tool) Verify(ctx context.Context) (*Result, error) {
	return t.run(ctx, "verify")
}

// Test runs the project's automated tests.
func (t *Tool) Test(ctx context.Context) (*Result, error) {
	return t.run(ctx, "test", "--auto")
}

// Doc generates documentation in each requested format, stopping at the
// first failed invocation. Nil formats means DocFormats.
func (t *Tool) Doc(ctx context.Context, formats []string) ([]*Result, error) {
	if formats == nil {
		formats = DocFormats
	}
	var results []*Result
	for _, format := range formats {
		result, err := t.run(ctx, "doc", "--format="+format)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if !result.Ok() {
			break
		}
	}
	return results, nil
}

// WatchStatus is a coarse classification of development-mode output.
type WatchStatus string

const (
	StatusWatching    WatchStatus = "watching"
	StatusRecompiling WatchStatus = "recompiling"
	StatusError       WatchStatus = "error"
)

// Watch is a running `enzige smelt --watch --dev` process.
type Watch struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Smelt starts development mode with hot reloading. Each recognized
// status line from the process is delivered to onStatus (which may be
// nil) until the process exits or Stop is called.
func (t *Tool) Smelt(ctx context.Context, onStatus func(WatchStatus, string)) (*Watch, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, t.binary, "smelt", "--watch", "--dev")
	cmd.Dir = t.dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("pipe smelt output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start smelt: %w", err)
	}

	w := &Watch{cmd: cmd, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(w.done)

		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			if onStatus == nil {
				continue
			}
			switch {
			case strings.Contains(line, "Watching for changes"):
				onStatus(StatusWatching, line)
			case strings.Contains(line, "Recompiling"):
				onStatus(StatusRecompiling, line)
			case strings.Contains(line, "Error"):
				onStatus(StatusError, line)
			}
		}

		err := cmd.Wait()
		w.mu.Lock()
		w.err = err
		w.mu.Unlock()
	}()

	return w, nil
}

// Stop terminates the watch process and waits for it to exit.
func (w *Watch) Stop() {
	w.cancel()
	<-w.done
}

// Wait blocks until the watch process exits on its own.
func (w *Watch) Wait() error {
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
