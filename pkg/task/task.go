// Package task runs long operations in the background with
// cancellation and progress events.
package task

import (
	"context"
	"sync"
	"time"
)

// Event is a progress notification from a running task.
type Event interface{ isEvent() }

// Started is emitted when a task begins.
type Started struct {
	Name string
}

// Progress reports partial completion. Total is 0 when unknown.
type Progress struct {
	Name      string
	Completed int
	Total     int
	Message   string
}

// Finished is emitted exactly once when a task ends, with its error.
type Finished struct {
	Name    string
	Err     error
	Elapsed time.Duration
}

func (Started) isEvent()  {}
func (Progress) isEvent() {}
func (Finished) isEvent() {}

// EventEmitter receives task events. Implementations must be safe for
// concurrent use.
type EventEmitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to the EventEmitter interface.
type EmitterFunc func(Event)

// Emit implements EventEmitter.
func (f EmitterFunc) Emit(event Event) { f(event) }

// Task is a running background operation.
type Task struct {
	name    string
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time

	mu  sync.Mutex
	err error
}

// Runner starts background tasks and fans their events to an optional
// emitter.
type Runner struct {
	emitter EventEmitter
}

// NewRunner returns a Runner. A nil emitter discards events.
func NewRunner(emitter EventEmitter) *Runner {
	return &Runner{emitter: emitter}
}

func (r *Runner) emit(event Event) {
	if r.emitter != nil {
		r.emitter.Emit(event)
	}
}

// Go runs fn in the background under a cancellable context derived from
// ctx. The returned Task tracks completion; fn's error is available
// from Wait and mirrored in the Finished event.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context, report func(completed, total int, message string)) error) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		name:    name,
		cancel:  cancel,
		done:    make(chan struct{}),
		started: time.Now(),
	}

	report := func(completed, total int, message string) {
		r.emit(Progress{Name: name, Completed: completed, Total: total, Message: message})
	}

	go func() {
		defer cancel()
		r.emit(Started{Name: name})

		err := fn(ctx, report)

		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		close(t.done)
		r.emit(Finished{Name: name, Err: err, Elapsed: time.Since(t.started)})
	}()

	return t
}

// Name returns the task's name.
func (t *Task) Name() string { return t.name }

// Cancel requests cancellation. The task may still run until it next
// observes its context.
func (t *Task) Cancel() { t.cancel() }

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes and returns its error.
func (t *Task) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
