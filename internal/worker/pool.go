// Package worker runs article extractions concurrently under per-host rate
// limits.
package worker

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// Pool bounds how many jobs run at once
type Pool struct {
	workers int
}

// NewPool creates a pool of at least one worker
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the concurrency bound
func (p *Pool) Workers() int {
	return p.workers
}

// Run calls job once for every index in [0, n) and returns the outputs in
// index order. Jobs started after ctx is cancelled still run and see the
// cancelled context. A panicking job is re-raised by Run once all jobs are
// done.
func Run[T any](ctx context.Context, p *Pool, n int, job func(ctx context.Context, i int) T) []T {
	out := make([]T, n)
	if n == 0 {
		return out
	}

	workers := pool.New().WithMaxGoroutines(min(p.workers, n))
	for i := range n {
		workers.Go(func() {
			out[i] = job(ctx, i)
		})
	}
	workers.Wait()
	return out
}
