// Package parallel runs indexed units of work on a bounded goroutine pool.
package parallel

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each unit of work completes.
type ProgressFunc func()

// Workers resolves a configured worker count; values <= 0 mean 2x NumCPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return n
}

// ForEach calls fn for every index in [0, n) with at most maxWorkers running
// at once. If maxWorkers is <= 0, defaults to 2x NumCPU.
//
// The first error cancels the context passed to the remaining calls and is
// returned once all started calls have finished. Calls that have not started
// when the context is done are skipped.
func ForEach(ctx context.Context, n, maxWorkers int, fn func(ctx context.Context, i int) error, onProgress ProgressFunc) error {
	if n <= 0 {
		return ctx.Err()
	}

	p := pool.New().
		WithMaxGoroutines(Workers(maxWorkers)).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i := 0; i < n; i++ {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err := fn(ctx, i); err != nil {
				return err
			}

			if onProgress != nil {
				onProgress()
			}
			return nil
		})
	}
	return p.Wait()
}
