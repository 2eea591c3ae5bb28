package quadstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/quadstore/internal/index"
	"github.com/hupe1980/quadstore/internal/resource"
	"github.com/hupe1980/quadstore/internal/txn"
	"github.com/hupe1980/quadstore/model"
)

var (
	// ErrClosed is returned when a transaction is started on a closed dataset.
	ErrClosed = errors.New("dataset closed")

	// ErrNotInTransaction is returned when a session is used outside a transaction.
	ErrNotInTransaction = errors.New("not in a transaction")

	// ErrTxnActive is returned when a session begins while a transaction is active.
	ErrTxnActive = errors.New("transaction already active")

	// ErrTxnFinished is returned when a transaction is used after commit, abort or end.
	ErrTxnFinished = errors.New("transaction already finished")

	// ErrReadOnly is returned when a read transaction attempts a mutation.
	ErrReadOnly = errors.New("transaction is read-only")

	// ErrWouldBlock is returned by TryBegin when the transaction would have to wait.
	ErrWouldBlock = errors.New("operation would block")

	// ErrPromoteFailed is returned when a read transaction cannot become the writer.
	ErrPromoteFailed = errors.New("transaction promotion failed")

	// ErrUnionGraphReadOnly is returned when the union graph is modified.
	ErrUnionGraphReadOnly = errors.New("union graph is read-only")

	// ErrResourceExhausted is returned when a commit would exceed the memory limit.
	// The previously committed generation is left untouched.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// ErrInvalidTuple indicates a tuple that cannot be stored, for example one
// holding a wildcard.
type ErrInvalidTuple struct {
	Position string
	Term     model.Term
	cause    error
}

func (e *ErrInvalidTuple) Error() string {
	if e.Term == nil {
		return fmt.Sprintf("invalid tuple: %s is unbound", e.Position)
	}
	return fmt.Sprintf("invalid tuple: %s is %s", e.Position, e.Term.Kind())
}

func (e *ErrInvalidTuple) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Lifecycle unification.
	if errors.Is(err, txn.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, txn.ErrFinished) || errors.Is(err, index.ErrNotActive) {
		return fmt.Errorf("%w: %w", ErrTxnFinished, err)
	}
	if errors.Is(err, txn.ErrWouldBlock) {
		return fmt.Errorf("%w: %w", ErrWouldBlock, err)
	}
	if errors.Is(err, txn.ErrPromoteFailed) {
		return fmt.Errorf("%w: %w", ErrPromoteFailed, err)
	}

	// Mode normalization.
	if errors.Is(err, txn.ErrNotWriter) || errors.Is(err, index.ErrNotWritable) {
		return fmt.Errorf("%w: %w", ErrReadOnly, err)
	}

	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}

	return err
}

func checkConcrete(position string, t model.Term) error {
	if model.IsWildcard(t) {
		return &ErrInvalidTuple{Position: position, Term: t}
	}
	return nil
}
