package nodetable

import (
	"sync"

	"github.com/hupe1980/quadstore/model"
)

// ID is a node identifier. Zero is the wildcard.
type ID uint32

// Any is the wildcard ID.
const Any ID = 0

// Table is a concurrent, append-only term dictionary.
type Table struct {
	mu    sync.RWMutex
	ids   map[model.Term]ID
	terms []model.Term // terms[id-1]
}

// New creates an empty table.
func New() *Table {
	return &Table{
		ids: make(map[model.Term]ID),
	}
}

// Lookup returns the ID of t without allocating one.
// Wildcards map to Any with ok == true.
func (t *Table) Lookup(term model.Term) (ID, bool) {
	if model.IsWildcard(term) {
		return Any, true
	}

	t.mu.RLock()
	id, ok := t.ids[term]
	t.mu.RUnlock()
	return id, ok
}

// GetOrAllocate returns the ID of term, assigning a new one if needed.
// Wildcards are not interned and return Any.
func (t *Table) GetOrAllocate(term model.Term) ID {
	if model.IsWildcard(term) {
		return Any
	}

	// Fast path
	t.mu.RLock()
	id, ok := t.ids[term]
	t.mu.RUnlock()
	if ok {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Reload under lock
	if id, ok := t.ids[term]; ok {
		return id
	}

	t.terms = append(t.terms, term)
	id = ID(len(t.terms))
	t.ids[term] = id
	return id
}

// Term returns the term for id. It returns nil for Any and unknown IDs.
func (t *Table) Term(id ID) model.Term {
	if id == Any {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if int(id) > len(t.terms) {
		return nil
	}
	return t.terms[id-1]
}

// Len returns the number of interned terms.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.terms)
}
