// Package resource provides the worker-pool handle shared by evaluators and
// classifier adapters.
//
// A Controller is created by the caller and passed explicitly to every
// component that fans out work. There is no process-wide default.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxWorkers is the maximum number of concurrent tasks.
	// If 0, defaults to 1.
	MaxWorkers int64

	// CallsPerSecond limits calls to external collaborators such as a
	// black-box classifier. If 0, unlimited.
	CallsPerSecond float64

	// Burst is the rate limiter bucket size. If 0, defaults to MaxWorkers.
	Burst int

	// MemoryLimitBytes is the hard limit for tracked memory (e.g. caches).
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64
}

// Controller bounds concurrency, external call rate and tracked memory.
type Controller struct {
	cfg Config

	workers *semaphore.Weighted
	limiter *rate.Limiter

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.MaxWorkers)
	}

	c := &Controller{
		cfg:     cfg,
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.CallsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.CallsPerSecond), cfg.Burst)
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	return c
}

// MaxWorkers returns the configured concurrency. A nil controller runs
// everything sequentially.
func (c *Controller) MaxWorkers() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxWorkers)
}

// ForEach runs fn for every index in [0, n), at most MaxWorkers at a time.
// The first error cancels the remaining tasks and is returned.
// A nil controller runs the tasks sequentially on the calling goroutine.
func (c *Controller) ForEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	if c == nil || c.cfg.MaxWorkers == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		if err := c.AcquireWorker(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer c.ReleaseWorker()
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// AcquireWorker blocks until a worker slot is available.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workers.Acquire(ctx, 1)
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// Wait blocks until the call rate limit allows one more external call.
func (c *Controller) Wait(ctx context.Context) error {
	if c == nil || c.limiter == nil {
		return ctx.Err()
	}
	return c.limiter.Wait(ctx)
}

// TryAcquireMemory attempts to reserve memory without blocking. Requests
// larger than the limit always fail.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}
