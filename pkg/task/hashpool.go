package task

import (
	"context"
	"runtime"
	"sync"

	"github.com/eepy-explorer/eepy/pkg/hasher"
)

// HashResult is one file's digest, or the error computing it.
type HashResult struct {
	Path   string
	Digest string
	Err    error
}

// DefaultHashWorkers is the worker count used when none is given.
func DefaultHashWorkers() int {
	return runtime.NumCPU()
}

// HashFiles computes full digests for paths across a worker pool.
// Results flow through a single aggregation goroutine, so the returned
// map needs no locking by the caller. Per-file failures land in the
// result's Err; only cancellation aborts the pool early, returning what
// was hashed so far.
func HashFiles(ctx context.Context, h *hasher.Hasher, paths []string, workers int, progress func(completed, total int)) (map[string]HashResult, error) {
	if workers <= 0 {
		workers = DefaultHashWorkers()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string)
	results := make(chan HashResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				digest, err := h.FullHash(path)
				select {
				case results <- HashResult{Path: path, Digest: digest, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]HashResult, len(paths))
	for result := range results {
		out[result.Path] = result
		if progress != nil {
			progress(len(out), len(paths))
		}
	}

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
