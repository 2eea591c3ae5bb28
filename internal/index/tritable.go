package index

import (
	"iter"

	"github.com/hupe1980/quadstore/internal/txn"
)

// TriRoot is the committed, immutable state of a TriTable.
type TriRoot struct {
	tables [NumTripleForms]*Map
}

// EmptyTriRoot returns the root of an empty TriTable.
func EmptyTriRoot() TriRoot {
	var r TriRoot
	for i := range r.tables {
		r.tables[i] = emptyMap()
	}
	return r
}

// Len returns the number of triples in the root.
func (r TriRoot) Len() int {
	if r.tables[SPO] == nil {
		return 0
	}
	return r.tables[SPO].Len()
}

// TriTable is a triple store: three triple tables, one per
// TripleTableForm, kept in lock-step. It backs the default graph.
type TriTable struct {
	tables [NumTripleForms]*TripleTable
}

// NewTriTable returns a TriTable starting from root.
func NewTriTable(root TriRoot) *TriTable {
	t := &TriTable{}
	for _, f := range TripleTableForms() {
		t.tables[f] = NewTripleTable(f, root.tables[f])
	}
	return t
}

func (t *TriTable) primary() *TripleTable { return t.tables[SPO] }

// Begin enters a transaction on all three tables.
func (t *TriTable) Begin(mode txn.Mode) error {
	if t.primary().IsActive() {
		return ErrTableActive
	}
	for _, tt := range t.tables {
		_ = tt.Begin(mode)
	}
	return nil
}

// Add inserts a triple. It reports whether the triple was absent.
func (t *TriTable) Add(tr Tuple) (bool, error) {
	if err := t.primary().checkWritable(); err != nil {
		return false, err
	}
	if t.primary().Contains(tr) {
		return false, nil
	}
	for _, tt := range t.tables {
		if _, err := tt.Add(tr); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Delete removes a triple. It reports whether the triple was present.
func (t *TriTable) Delete(tr Tuple) (bool, error) {
	if err := t.primary().checkWritable(); err != nil {
		return false, err
	}
	if !t.primary().Contains(tr) {
		return false, nil
	}
	for _, tt := range t.tables {
		if _, err := tt.Delete(tr); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Clear removes every triple.
func (t *TriTable) Clear() error {
	for _, tt := range t.tables {
		if err := tt.Clear(); err != nil {
			return err
		}
	}
	return nil
}

// Contains reports whether the triple is present.
func (t *TriTable) Contains(tr Tuple) bool {
	return t.primary().Contains(tr)
}

// Len returns the number of triples.
func (t *TriTable) Len() int {
	return t.primary().Len()
}

// Find returns the triples matching pattern. The graph slot of the
// pattern is ignored.
func (t *TriTable) Find(pattern Tuple) (iter.Seq[Tuple], error) {
	pattern[SlotGraph] = 0
	form, _ := ChooseTripleForm(ShapeOf(pattern))
	return t.tables[form].Find(pattern)
}

// Commit publishes all three tables.
func (t *TriTable) Commit() error {
	if !t.primary().IsActive() {
		return ErrNotActive
	}
	for _, tt := range t.tables {
		_ = tt.Commit()
	}
	return nil
}

// Abort drops all pending changes.
func (t *TriTable) Abort() error {
	if !t.primary().IsActive() {
		return ErrNotActive
	}
	for _, tt := range t.tables {
		_ = tt.Abort()
	}
	return nil
}

// End finishes the transaction; an uncommitted write is aborted.
func (t *TriTable) End() {
	for _, tt := range t.tables {
		tt.End()
	}
}

// Root returns the committed state.
func (t *TriTable) Root() TriRoot {
	var r TriRoot
	for i, tt := range t.tables {
		r.tables[i] = tt.Root()
	}
	return r
}
