package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a charge would exceed the budget.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits. Zero values mean unlimited.
type Config struct {
	// MemoryLimitBytes caps the estimated memory of the committed state.
	MemoryLimitBytes int64

	// WritesPerSecond limits how fast write transactions are admitted.
	WritesPerSecond float64

	// WriteBurst is the number of write admissions allowed at once.
	// Defaults to 1.
	WriteBurst int
}

// Usage is a snapshot of the memory budget.
type Usage struct {
	Used     int64
	Limit    int64
	Peak     int64
	Rejected int64
}

// Controller guards the memory budget of committed state and admits write
// transactions. A nil *Controller imposes no limits.
type Controller struct {
	limit int64
	mem   *semaphore.Weighted // nil if unlimited; holds at least used

	used     atomic.Int64
	peak     atomic.Int64
	rejected atomic.Int64

	writes *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.WriteBurst <= 0 {
		cfg.WriteBurst = 1
	}

	c := &Controller{limit: cfg.MemoryLimitBytes}
	if cfg.MemoryLimitBytes > 0 {
		c.mem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.WritesPerSecond > 0 {
		c.writes = rate.NewLimiter(rate.Limit(cfg.WritesPerSecond), cfg.WriteBurst)
	}
	return c
}

// Charge applies a signed change of committed memory. Growth that would
// exceed the limit fails with ErrMemoryLimitExceeded and leaves the usage
// unchanged; shrinking always succeeds and stops at zero. Charge never waits.
func (c *Controller) Charge(delta int64) error {
	if c == nil || delta == 0 {
		return nil
	}
	if delta > 0 {
		return c.grow(delta)
	}
	c.shrink(-delta)
	return nil
}

func (c *Controller) grow(n int64) error {
	if c.mem != nil && !c.mem.TryAcquire(n) {
		c.rejected.Add(1)
		return fmt.Errorf("%w: %d + %d > %d bytes", ErrMemoryLimitExceeded, c.used.Load(), n, c.limit)
	}
	c.notePeak(c.used.Add(n))
	return nil
}

func (c *Controller) shrink(n int64) {
	for {
		cur := c.used.Load()
		amt := min(n, cur)
		if amt == 0 {
			return
		}
		if c.used.CompareAndSwap(cur, cur-amt) {
			if c.mem != nil {
				c.mem.Release(amt)
			}
			return
		}
	}
}

func (c *Controller) notePeak(v int64) {
	for {
		p := c.peak.Load()
		if v <= p || c.peak.CompareAndSwap(p, v) {
			return
		}
	}
}

// Usage returns the current memory budget figures.
func (c *Controller) Usage() Usage {
	if c == nil {
		return Usage{}
	}
	return Usage{
		Used:     c.used.Load(),
		Limit:    c.limit,
		Peak:     c.peak.Load(),
		Rejected: c.rejected.Load(),
	}
}

// AdmitWrite waits until a write transaction may begin.
func (c *Controller) AdmitWrite(ctx context.Context) error {
	if c == nil || c.writes == nil {
		return nil
	}
	return c.writes.Wait(ctx)
}

// TryAdmitWrite reports whether a write transaction may begin now.
func (c *Controller) TryAdmitWrite() bool {
	if c == nil || c.writes == nil {
		return true
	}
	return c.writes.Allow()
}
