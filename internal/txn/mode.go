package txn

import "fmt"

// Mode is the access mode of a running transaction.
type Mode uint8

const (
	// ModeRead transactions observe one committed generation.
	ModeRead Mode = iota
	// ModeWrite transactions hold the writer permit and build the next generation.
	ModeWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Type is the kind of transaction requested at begin.
type Type uint8

const (
	// TypeRead is a read-only transaction.
	TypeRead Type = iota
	// TypeWrite is a write transaction.
	TypeWrite
	// TypeReadPromote starts reading and may promote to a writer if no
	// commit happened since it began.
	TypeReadPromote
	// TypeReadCommittedPromote starts reading and may promote to a writer,
	// moving its view to the latest committed generation.
	TypeReadCommittedPromote
)

func (t Type) String() string {
	switch t {
	case TypeRead:
		return "read"
	case TypeWrite:
		return "write"
	case TypeReadPromote:
		return "read-promote"
	case TypeReadCommittedPromote:
		return "read-committed-promote"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// InitialMode returns the mode a transaction of type t starts in.
func (t Type) InitialMode() Mode {
	if t == TypeWrite {
		return ModeWrite
	}
	return ModeRead
}

// State is the lifecycle state of a transaction.
type State uint8

const (
	StateActive State = iota
	StateCommitted
	StateAborted
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}
