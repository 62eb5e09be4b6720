package scoring

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool splits a range of work into chunks evaluated by a bounded number of goroutines.
type Pool struct {
	workers   int
	chunkSize int
}

// NewPool creates a pool. workers <= 0 uses GOMAXPROCS; chunkSize <= 0 uses 256.
func NewPool(workers, chunkSize int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if chunkSize <= 0 {
		chunkSize = 256
	}
	return &Pool{workers: workers, chunkSize: chunkSize}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// Run calls fn for consecutive [lo, hi) chunks covering [0, n).
// Chunks write disjoint ranges, so fn needs no locking for per-index results.
// The first error cancels dispatch of the remaining chunks and is returned.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	if n <= p.chunkSize || p.workers == 1 {
		return fn(ctx, 0, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for lo := 0; lo < n; lo += p.chunkSize {
		if gctx.Err() != nil {
			break
		}
		hi := min(lo+p.chunkSize, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, lo, hi)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
