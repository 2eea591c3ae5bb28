package index

import "errors"

var (
	// ErrTableActive is returned when Begin is called on an active table.
	ErrTableActive = errors.New("index: transaction already active")

	// ErrNotActive is returned when a table is used outside a transaction.
	ErrNotActive = errors.New("index: no active transaction")

	// ErrNotWritable is returned when a mutation happens outside a write transaction.
	ErrNotWritable = errors.New("index: not in a write transaction")
)
