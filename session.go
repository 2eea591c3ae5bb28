package quadstore

import (
	"context"
	"iter"
	"sync"

	"github.com/hupe1980/quadstore/model"
)

// SessionState is the state of a Session.
type SessionState uint8

const (
	// SessionIdle means no transaction is active.
	SessionIdle SessionState = iota
	// SessionReading means a read transaction is active.
	SessionReading
	// SessionWriting means a write transaction is active.
	SessionWriting
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionReading:
		return "reading"
	case SessionWriting:
		return "writing"
	default:
		return "unknown"
	}
}

// Session binds at most one transaction at a time to a caller, so the
// dataset can be used without passing a *Txn around. Operations outside a
// transaction fail with ErrNotInTransaction, and Begin inside one fails
// with ErrTxnActive.
//
// A session is meant to be driven by one goroutine; Abort and End may also
// be called from another goroutine to cancel the work.
type Session struct {
	ds *Dataset

	mu sync.Mutex
	tx *Txn
}

// State returns the session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil || !s.tx.IsActive() {
		return SessionIdle
	}
	if s.tx.Mode() == ModeWrite {
		return SessionWriting
	}
	return SessionReading
}

// InTransaction reports whether a transaction is active.
func (s *Session) InTransaction() bool {
	return s.State() != SessionIdle
}

// Begin starts a transaction of type typ.
func (s *Session) Begin(ctx context.Context, typ TxnType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		if s.tx.IsActive() {
			return ErrTxnActive
		}
		// Finished by a direct call on the *Txn.
		s.tx.End()
		s.tx = nil
	}

	tx, err := s.ds.Begin(ctx, typ)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// Txn returns the active transaction.
func (s *Session) Txn() (*Txn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil || !s.tx.IsActive() {
		return nil, ErrNotInTransaction
	}
	return s.tx, nil
}

// Commit commits the active transaction and returns the session to idle.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNotInTransaction
	}
	err := s.tx.Commit()
	s.tx.End()
	s.tx = nil
	return err
}

// Abort aborts the active transaction and returns the session to idle.
func (s *Session) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNotInTransaction
	}
	err := s.tx.Abort()
	s.tx.End()
	s.tx = nil
	return err
}

// End ends the transaction, aborting it if still active. End is allowed
// in every state.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		s.tx.End()
		s.tx = nil
	}
}

// Promote promotes the active transaction to a writer.
func (s *Session) Promote(ctx context.Context) error {
	tx, err := s.Txn()
	if err != nil {
		return err
	}
	return tx.Promote(ctx)
}

// Add adds a quad in the active transaction.
func (s *Session) Add(g, sub, p, o model.Term) error {
	tx, err := s.Txn()
	if err != nil {
		return err
	}
	return tx.Add(g, sub, p, o)
}

// AddQuad adds q in the active transaction.
func (s *Session) AddQuad(q model.Quad) error {
	return s.Add(q.G, q.S, q.P, q.O)
}

// Delete removes a quad in the active transaction.
func (s *Session) Delete(g, sub, p, o model.Term) error {
	tx, err := s.Txn()
	if err != nil {
		return err
	}
	return tx.Delete(g, sub, p, o)
}

// DeleteQuad removes q in the active transaction.
func (s *Session) DeleteQuad(q model.Quad) error {
	return s.Delete(q.G, q.S, q.P, q.O)
}

// DeleteAny removes all quads matching the pattern in the active transaction.
func (s *Session) DeleteAny(g, sub, p, o model.Term) (int, error) {
	tx, err := s.Txn()
	if err != nil {
		return 0, err
	}
	return tx.DeleteAny(g, sub, p, o)
}

// Find returns the quads matching the pattern in the active transaction.
func (s *Session) Find(g, sub, p, o model.Term) (iter.Seq[model.Quad], error) {
	tx, err := s.Txn()
	if err != nil {
		return nil, err
	}
	return tx.Find(g, sub, p, o)
}

// FindNG is like Find but never searches the default graph.
func (s *Session) FindNG(g, sub, p, o model.Term) (iter.Seq[model.Quad], error) {
	tx, err := s.Txn()
	if err != nil {
		return nil, err
	}
	return tx.FindNG(g, sub, p, o)
}

// Contains reports whether any quad matches the pattern.
func (s *Session) Contains(g, sub, p, o model.Term) (bool, error) {
	tx, err := s.Txn()
	if err != nil {
		return false, err
	}
	return tx.Contains(g, sub, p, o)
}

// IsEmpty reports whether the dataset holds no quads.
func (s *Session) IsEmpty() (bool, error) {
	tx, err := s.Txn()
	if err != nil {
		return false, err
	}
	return tx.IsEmpty()
}

// ListGraphNodes returns the names of all non-empty named graphs.
func (s *Session) ListGraphNodes() (iter.Seq[model.Term], error) {
	tx, err := s.Txn()
	if err != nil {
		return nil, err
	}
	return tx.ListGraphNodes()
}

// Graph returns a view of the graph called name.
func (s *Session) Graph(name model.Term) (*Graph, error) {
	tx, err := s.Txn()
	if err != nil {
		return nil, err
	}
	return tx.Graph(name), nil
}

// Prefixes returns the prefix mapping of the graph called g.
func (s *Session) Prefixes(g model.Term) (*PrefixMapping, error) {
	tx, err := s.Txn()
	if err != nil {
		return nil, err
	}
	return tx.Prefixes(g), nil
}
