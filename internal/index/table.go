package index

import (
	"cmp"
	"iter"

	"github.com/benbjohnson/immutable"

	"github.com/hupe1980/quadstore/internal/nodetable"
	"github.com/hupe1980/quadstore/internal/txn"
)

// Key is a tuple permuted into a table's slot order.
// Positions past the order length are zero.
type Key [numSlots]nodetable.ID

type keyComparer struct{}

// Compare orders keys lexicographically.
func (keyComparer) Compare(a, b Key) int {
	for i := range a {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Map is the persistent sorted map backing one table generation.
type Map = immutable.SortedMap[Key, struct{}]

func emptyMap() *Map {
	return immutable.NewSortedMap[Key, struct{}](keyComparer{})
}

// table is the transactional core shared by TripleTable and QuadTable.
type table struct {
	order     []Slot
	committed *Map
	pending   *Map // nil unless a write transaction is active
	mode      txn.Mode
	active    bool
}

func newTable(order []Slot, root *Map) table {
	if root == nil {
		root = emptyMap()
	}
	return table{order: order, committed: root}
}

func (t *table) key(tu Tuple) Key {
	var k Key
	for i, s := range t.order {
		k[i] = tu[s]
	}
	return k
}

func (t *table) tuple(k Key) Tuple {
	var tu Tuple
	for i, s := range t.order {
		tu[s] = k[i]
	}
	return tu
}

// Begin enters a transaction on the table.
func (t *table) Begin(mode txn.Mode) error {
	if t.active {
		return ErrTableActive
	}
	t.active = true
	t.mode = mode
	if mode == txn.ModeWrite {
		t.pending = t.committed
	}
	return nil
}

func (t *table) view() *Map {
	if t.active && t.mode == txn.ModeWrite {
		return t.pending
	}
	return t.committed
}

func (t *table) checkWritable() error {
	if !t.active {
		return ErrNotActive
	}
	if t.mode != txn.ModeWrite {
		return ErrNotWritable
	}
	return nil
}

// Add inserts tu into the pending view. It reports whether tu was absent.
func (t *table) Add(tu Tuple) (bool, error) {
	if err := t.checkWritable(); err != nil {
		return false, err
	}
	k := t.key(tu)
	if _, ok := t.pending.Get(k); ok {
		return false, nil
	}
	t.pending = t.pending.Set(k, struct{}{})
	return true, nil
}

// Delete removes tu from the pending view. It reports whether tu was present.
func (t *table) Delete(tu Tuple) (bool, error) {
	if err := t.checkWritable(); err != nil {
		return false, err
	}
	k := t.key(tu)
	if _, ok := t.pending.Get(k); !ok {
		return false, nil
	}
	t.pending = t.pending.Delete(k)
	return true, nil
}

// Clear empties the pending view.
func (t *table) Clear() error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	t.pending = emptyMap()
	return nil
}

// Contains reports whether the transaction's view holds tu.
func (t *table) Contains(tu Tuple) bool {
	_, ok := t.view().Get(t.key(tu))
	return ok
}

// Len returns the number of tuples in the transaction's view.
func (t *table) Len() int {
	return t.view().Len()
}

// Find returns the tuples of the current view matching pattern.
//
// The view is captured at call time, so the sequence is stable under later
// mutations of the same transaction and may be iterated any number of times.
// Bound slots forming a prefix of the table order restrict the scan to one key
// range; remaining bound slots are filtered.
func (t *table) Find(pattern Tuple) (iter.Seq[Tuple], error) {
	if !t.active {
		return nil, ErrNotActive
	}

	m := t.view()
	prefix := t.key(pattern)
	n := 0
	for n < len(t.order) && prefix[n] != nodetable.Any {
		n++
	}
	for i := n; i < len(prefix); i++ {
		prefix[i] = nodetable.Any
	}

	return func(yield func(Tuple) bool) {
		itr := m.Iterator()
		if n > 0 {
			itr.Seek(prefix)
		}
		for !itr.Done() {
			k, _, ok := itr.Next()
			if !ok {
				return
			}
			for i := 0; i < n; i++ {
				if k[i] != prefix[i] {
					return
				}
			}
			tu := t.tuple(k)
			if !matchTuple(pattern, tu) {
				continue
			}
			if !yield(tu) {
				return
			}
		}
	}, nil
}

// Commit publishes the pending view as the committed map.
func (t *table) Commit() error {
	if !t.active {
		return ErrNotActive
	}
	if t.mode == txn.ModeWrite {
		t.committed = t.pending
	}
	t.finish()
	return nil
}

// Abort drops the pending view.
func (t *table) Abort() error {
	if !t.active {
		return ErrNotActive
	}
	t.finish()
	return nil
}

// End finishes the transaction; an uncommitted write is aborted.
func (t *table) End() {
	if t.active {
		t.finish()
	}
}

// Root returns the committed map.
func (t *table) Root() *Map {
	return t.committed
}

// IsActive reports whether a transaction is active on the table.
func (t *table) IsActive() bool {
	return t.active
}

func (t *table) finish() {
	t.pending = nil
	t.active = false
}

func matchTuple(pattern, tu Tuple) bool {
	for i, id := range pattern {
		if id != nodetable.Any && tu[i] != id {
			return false
		}
	}
	return true
}

// TripleTable is one triple index ordered by its form.
type TripleTable struct {
	table
	form TripleTableForm
}

// NewTripleTable returns a table of form f starting from the committed root.
// A nil root is an empty table.
func NewTripleTable(f TripleTableForm, root *Map) *TripleTable {
	return &TripleTable{table: newTable(f.Order(), root), form: f}
}

// Form returns the table's form.
func (t *TripleTable) Form() TripleTableForm { return t.form }

// QuadTable is one quad index ordered by its form.
type QuadTable struct {
	table
	form QuadTableForm
}

// NewQuadTable returns a table of form f starting from the committed root.
// A nil root is an empty table.
func NewQuadTable(f QuadTableForm, root *Map) *QuadTable {
	return &QuadTable{table: newTable(f.Order(), root), form: f}
}

// Form returns the table's form.
func (t *QuadTable) Form() QuadTableForm { return t.form }
