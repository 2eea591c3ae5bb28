package txn

import "errors"

var (
	// ErrClosed is returned when beginning a transaction on a closed coordinator.
	ErrClosed = errors.New("txn: coordinator closed")

	// ErrFinished is returned when a transaction is used after commit or abort.
	ErrFinished = errors.New("txn: transaction already finished")

	// ErrWouldBlock is returned by non-blocking operations that would have to wait.
	ErrWouldBlock = errors.New("txn: operation would block")

	// ErrPromoteFailed is returned when a read transaction cannot become a writer.
	ErrPromoteFailed = errors.New("txn: promotion failed")

	// ErrNotWriter is returned when a read transaction tries to publish.
	ErrNotWriter = errors.New("txn: not a write transaction")

	// ErrConflict is returned when the published generation moved under a writer.
	// It indicates a broken single-writer invariant.
	ErrConflict = errors.New("txn: generation changed under writer")
)
