package txn

import (
	"context"
	"sync"
)

// Transaction is one transaction handed out by a Coordinator.
//
// A transaction is driven by one goroutine; Abort and End may additionally
// be called from a supervising goroutine.
type Transaction[G any] struct {
	c   *Coordinator[G]
	id  uint64
	typ Type

	mu       sync.Mutex
	mode     Mode
	state    State
	base     *Generation[G]
	released bool
}

// ID returns the transaction id.
func (t *Transaction[G]) ID() uint64 { return t.id }

// Type returns the type requested at begin.
func (t *Transaction[G]) Type() Type { return t.typ }

// Mode returns the current mode.
func (t *Transaction[G]) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// State returns the lifecycle state.
func (t *Transaction[G]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsActive reports whether the transaction has not committed, aborted or ended.
func (t *Transaction[G]) IsActive() bool {
	return t.State() == StateActive
}

// Base returns the generation the transaction reads from.
func (t *Transaction[G]) Base() *Generation[G] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.base
}

// Promote turns a read transaction into the writer.
//
// TypeReadPromote succeeds only if no commit happened since the transaction
// began. TypeReadCommittedPromote always succeeds once it holds the writer
// permit and moves its base to the latest generation. TypeRead transactions
// cannot be promoted. Promoting a writer is a no-op.
func (t *Transaction[G]) Promote(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return ErrFinished
	}
	if t.mode == ModeWrite {
		t.mu.Unlock()
		return nil
	}
	if t.typ == TypeRead {
		t.mu.Unlock()
		return ErrPromoteFailed
	}
	strict := t.typ == TypeReadPromote
	startVersion := t.base.Version
	t.mu.Unlock()

	// Reject early, before waiting for the permit.
	if strict && t.c.Version() != startVersion {
		return ErrPromoteFailed
	}

	if err := t.c.writer.Acquire(ctx, 1); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		t.c.writer.Release(1)
		return ErrFinished
	}

	current := t.c.current.Load()
	if strict && current.Version != startVersion {
		t.c.writer.Release(1)
		return ErrPromoteFailed
	}

	t.base = current
	t.mode = ModeWrite
	t.c.activeReaders.Add(-1)
	t.c.activeWriters.Add(1)
	t.c.promotions.Add(1)
	return nil
}

// Publish commits a writer by installing next as the current generation.
// The store state next must not be mutated afterwards.
func (t *Transaction[G]) Publish(next G) (*Generation[G], error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return nil, ErrFinished
	}
	if t.mode != ModeWrite {
		return nil, ErrNotWriter
	}

	gen := &Generation[G]{Version: t.base.Version + 1, Data: next}
	if !t.c.current.CompareAndSwap(t.base, gen) {
		t.state = StateAborted
		t.c.aborts.Add(1)
		t.release()
		return nil, ErrConflict
	}

	t.state = StateCommitted
	t.c.commits.Add(1)
	t.release()
	return gen, nil
}

// Commit finishes the transaction without publishing anything.
// It is the commit of readers and of writers that changed nothing.
func (t *Transaction[G]) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return ErrFinished
	}
	t.state = StateCommitted
	t.c.commits.Add(1)
	t.release()
	return nil
}

// Abort finishes the transaction and discards its work.
func (t *Transaction[G]) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return ErrFinished
	}
	t.state = StateAborted
	t.c.aborts.Add(1)
	t.release()
	return nil
}

// End releases the transaction. A transaction that neither committed nor
// aborted is aborted. End is idempotent.
func (t *Transaction[G]) End() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateActive {
		t.c.aborts.Add(1)
	}
	t.state = StateEnded
	t.release()
}

// release must be called with t.mu held.
func (t *Transaction[G]) release() {
	if t.released {
		return
	}
	t.released = true

	if t.mode == ModeWrite {
		t.c.activeWriters.Add(-1)
	} else {
		t.c.activeReaders.Add(-1)
	}
	t.c.cleanup(t.mode == ModeWrite)
}
