package txn

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/quadstore/internal/resource"
)

// Generation is one committed, immutable state of the store.
type Generation[G any] struct {
	// Version counts the commits that led to this generation.
	Version uint64
	// Data is the store state. It must not be mutated once published.
	Data G
}

// Stats is a point-in-time view of the coordinator counters.
type Stats struct {
	Version       uint64
	ActiveReaders int64
	ActiveWriters int64
	Begins        int64
	BeginReads    int64
	BeginWrites   int64
	Commits       int64
	Aborts        int64
	Promotions    int64
}

// Coordinator serializes writers and hands out generations to transactions.
type Coordinator[G any] struct {
	current atomic.Pointer[Generation[G]]

	writer      *semaphore.Weighted // single writer permit, FIFO waiters
	exclusivity sync.RWMutex        // shared by every transaction, exclusive for StartExclusive
	rc          *resource.Controller

	nextID atomic.Uint64
	closed atomic.Bool

	activeReaders atomic.Int64
	activeWriters atomic.Int64
	begins        atomic.Int64
	beginReads    atomic.Int64
	beginWrites   atomic.Int64
	commits       atomic.Int64
	aborts        atomic.Int64
	promotions    atomic.Int64
}

// New returns a coordinator whose first generation holds initial.
// rc may be nil.
func New[G any](initial G, rc *resource.Controller) *Coordinator[G] {
	c := &Coordinator[G]{
		writer: semaphore.NewWeighted(1),
		rc:     rc,
	}
	c.current.Store(&Generation[G]{Data: initial})
	return c
}

// Current returns the latest committed generation.
func (c *Coordinator[G]) Current() *Generation[G] {
	return c.current.Load()
}

// Version returns the version of the latest committed generation.
func (c *Coordinator[G]) Version() uint64 {
	return c.current.Load().Version
}

// Begin starts a transaction of type typ.
//
// Readers never wait for the writer. A writer waits for write admission and
// then for the writer permit; both waits honour ctx.
func (c *Coordinator[G]) Begin(ctx context.Context, typ Type) (*Transaction[G], error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	writable := typ.InitialMode() == ModeWrite
	if writable {
		if err := c.rc.AdmitWrite(ctx); err != nil {
			return nil, err
		}
	}

	c.exclusivity.RLock()

	// Ensure only one writable transaction at a time.
	if writable {
		if err := c.writer.Acquire(ctx, 1); err != nil {
			c.exclusivity.RUnlock()
			return nil, err
		}
	}

	if c.closed.Load() {
		c.cleanup(writable)
		return nil, ErrClosed
	}

	return c.start(typ), nil
}

// TryBegin starts a transaction without blocking.
// It returns ErrWouldBlock if the transaction would have to wait.
func (c *Coordinator[G]) TryBegin(typ Type) (*Transaction[G], error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	writable := typ.InitialMode() == ModeWrite
	if writable && !c.rc.TryAdmitWrite() {
		return nil, ErrWouldBlock
	}
	if !c.exclusivity.TryRLock() {
		return nil, ErrWouldBlock
	}
	if writable && !c.writer.TryAcquire(1) {
		c.exclusivity.RUnlock()
		return nil, ErrWouldBlock
	}

	return c.start(typ), nil
}

// start must be called holding the locks for typ. A writer loads the current
// generation only after it holds the writer permit.
func (c *Coordinator[G]) start(typ Type) *Transaction[G] {
	t := &Transaction[G]{
		c:    c,
		id:   c.nextID.Add(1),
		typ:  typ,
		mode: typ.InitialMode(),
		base: c.current.Load(),
	}

	c.begins.Add(1)
	if t.mode == ModeWrite {
		c.beginWrites.Add(1)
		c.activeWriters.Add(1)
	} else {
		c.beginReads.Add(1)
		c.activeReaders.Add(1)
	}
	return t
}

func (c *Coordinator[G]) cleanup(writable bool) {
	if writable {
		c.writer.Release(1)
	}
	c.exclusivity.RUnlock()
}

// StartExclusive waits for all running transactions to finish and blocks
// new ones until FinishExclusive. It must not be called inside a transaction.
func (c *Coordinator[G]) StartExclusive() {
	c.exclusivity.Lock()
}

// TryExclusive enters exclusive mode if no transaction is running.
func (c *Coordinator[G]) TryExclusive() bool {
	return c.exclusivity.TryLock()
}

// FinishExclusive leaves exclusive mode.
func (c *Coordinator[G]) FinishExclusive() {
	c.exclusivity.Unlock()
}

// Exclusive runs fn in exclusive mode.
func (c *Coordinator[G]) Exclusive(fn func() error) error {
	c.StartExclusive()
	defer c.FinishExclusive()
	return fn()
}

// Close makes later begins fail with ErrClosed. Running transactions are
// unaffected.
func (c *Coordinator[G]) Close() {
	c.closed.Store(true)
}

// Stats returns the coordinator counters.
func (c *Coordinator[G]) Stats() Stats {
	return Stats{
		Version:       c.Version(),
		ActiveReaders: c.activeReaders.Load(),
		ActiveWriters: c.activeWriters.Load(),
		Begins:        c.begins.Load(),
		BeginReads:    c.beginReads.Load(),
		BeginWrites:   c.beginWrites.Load(),
		Commits:       c.commits.Load(),
		Aborts:        c.aborts.Load(),
		Promotions:    c.promotions.Load(),
	}
}
