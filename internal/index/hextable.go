package index

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/quadstore/internal/nodetable"
	"github.com/hupe1980/quadstore/internal/txn"
)

// HexRoot is the committed, immutable state of a HexTable.
// It is safe to share between goroutines.
type HexRoot struct {
	tables [NumQuadForms]*Map
	graphs *roaring.Bitmap // IDs of non-empty graphs; never mutated once published
}

// EmptyHexRoot returns the root of an empty HexTable.
func EmptyHexRoot() HexRoot {
	var r HexRoot
	for i := range r.tables {
		r.tables[i] = emptyMap()
	}
	r.graphs = roaring.New()
	return r
}

// Len returns the number of quads in the root.
func (r HexRoot) Len() int {
	if r.tables[GSPO] == nil {
		return 0
	}
	return r.tables[GSPO].Len()
}

// GraphCount returns the number of non-empty graphs in the root.
func (r HexRoot) GraphCount() int {
	if r.graphs == nil {
		return 0
	}
	return int(r.graphs.GetCardinality())
}

// HexTable is the quad store: six quad tables, one per QuadTableForm, kept
// in lock-step behind one transactional API.
type HexTable struct {
	tables [NumQuadForms]*QuadTable

	graphs        *roaring.Bitmap
	pendingGraphs *roaring.Bitmap // copy-on-write clone, nil until first change
}

// NewHexTable returns a HexTable starting from root.
func NewHexTable(root HexRoot) *HexTable {
	if root.graphs == nil {
		root = EmptyHexRoot()
	}
	h := &HexTable{graphs: root.graphs}
	for _, f := range QuadTableForms() {
		h.tables[f] = NewQuadTable(f, root.tables[f])
	}
	return h
}

func (h *HexTable) primary() *QuadTable { return h.tables[GSPO] }

// Begin enters a transaction on all six tables.
func (h *HexTable) Begin(mode txn.Mode) error {
	if h.primary().IsActive() {
		return ErrTableActive
	}
	for _, t := range h.tables {
		// Cannot fail: the tables share one lifecycle.
		_ = t.Begin(mode)
	}
	return nil
}

// Add inserts a quad. It reports whether the quad was absent.
func (h *HexTable) Add(q Tuple) (bool, error) {
	if err := h.primary().checkWritable(); err != nil {
		return false, err
	}
	if h.primary().Contains(q) {
		return false, nil
	}
	for _, t := range h.tables {
		if _, err := t.Add(q); err != nil {
			return false, err
		}
	}

	g := uint32(q[SlotGraph])
	if !h.graphView().Contains(g) {
		h.mutableGraphs().Add(g)
	}
	return true, nil
}

// Delete removes a quad. It reports whether the quad was present.
// The graph is dropped from the graph set when its last quad goes.
func (h *HexTable) Delete(q Tuple) (bool, error) {
	if err := h.primary().checkWritable(); err != nil {
		return false, err
	}
	if !h.primary().Contains(q) {
		return false, nil
	}
	for _, t := range h.tables {
		if _, err := t.Delete(q); err != nil {
			return false, err
		}
	}

	g := q[SlotGraph]
	if !h.graphHasQuads(g) {
		h.mutableGraphs().Remove(uint32(g))
	}
	return true, nil
}

// Clear removes every quad.
func (h *HexTable) Clear() error {
	if err := h.primary().checkWritable(); err != nil {
		return err
	}
	for _, t := range h.tables {
		if err := t.Clear(); err != nil {
			return err
		}
	}
	h.pendingGraphs = roaring.New()
	return nil
}

// Contains reports whether the quad is present.
func (h *HexTable) Contains(q Tuple) bool {
	return h.primary().Contains(q)
}

// Len returns the number of quads.
func (h *HexTable) Len() int {
	return h.primary().Len()
}

// Find returns the quads matching pattern, served by the table whose form
// answers the pattern's shape. The empty shape scans GSPO.
func (h *HexTable) Find(pattern Tuple) (iter.Seq[Tuple], error) {
	form, _ := ChooseQuadForm(ShapeOf(pattern))
	return h.tables[form].Find(pattern)
}

// FindUnion returns the distinct triples (SlotGraph unset) of all quads
// matching pattern, ignoring the pattern's graph slot.
func (h *HexTable) FindUnion(pattern Tuple) (iter.Seq[Tuple], error) {
	pattern[SlotGraph] = nodetable.Any
	form, adjacent := chooseUnionForm(ShapeOf(pattern))
	seq, err := h.tables[form].Find(pattern)
	if err != nil {
		return nil, err
	}

	return func(yield func(Tuple) bool) {
		var (
			last  Tuple
			first = true
			seen  map[Tuple]struct{}
		)
		if !adjacent {
			seen = make(map[Tuple]struct{})
		}
		for tu := range seq {
			tu[SlotGraph] = nodetable.Any
			if adjacent {
				if !first && tu == last {
					continue
				}
				first = false
				last = tu
			} else {
				if _, dup := seen[tu]; dup {
					continue
				}
				seen[tu] = struct{}{}
			}
			if !yield(tu) {
				return
			}
		}
	}, nil
}

// chooseUnionForm prefers a form ordering the graph last: equal triples from
// different graphs are then adjacent and dedup needs no memory.
func chooseUnionForm(shape Shape) (QuadTableForm, bool) {
	for _, f := range QuadTableForms() {
		order := f.Order()
		if order[len(order)-1] != SlotGraph {
			continue
		}
		if shape.IsEmpty() || f.Test(shape) {
			return f, true
		}
	}
	f, _ := ChooseQuadForm(shape)
	return f, false
}

// ListGraphNodes returns the IDs of all graphs holding at least one quad.
func (h *HexTable) ListGraphNodes() (iter.Seq[nodetable.ID], error) {
	if !h.primary().IsActive() {
		return nil, ErrNotActive
	}
	ids := h.graphView().ToArray()
	return func(yield func(nodetable.ID) bool) {
		for _, id := range ids {
			if !yield(nodetable.ID(id)) {
				return
			}
		}
	}, nil
}

// ContainsGraph reports whether graph g holds at least one quad.
func (h *HexTable) ContainsGraph(g nodetable.ID) bool {
	return h.graphView().Contains(uint32(g))
}

// GraphCount returns the number of non-empty graphs.
func (h *HexTable) GraphCount() int {
	return int(h.graphView().GetCardinality())
}

// Commit publishes all six tables and the graph set.
func (h *HexTable) Commit() error {
	if !h.primary().IsActive() {
		return ErrNotActive
	}
	for _, t := range h.tables {
		_ = t.Commit()
	}
	if h.pendingGraphs != nil {
		h.graphs = h.pendingGraphs
	}
	h.pendingGraphs = nil
	return nil
}

// Abort drops all pending changes.
func (h *HexTable) Abort() error {
	if !h.primary().IsActive() {
		return ErrNotActive
	}
	for _, t := range h.tables {
		_ = t.Abort()
	}
	h.pendingGraphs = nil
	return nil
}

// End finishes the transaction; an uncommitted write is aborted.
func (h *HexTable) End() {
	for _, t := range h.tables {
		t.End()
	}
	h.pendingGraphs = nil
}

// Root returns the committed state.
func (h *HexTable) Root() HexRoot {
	var r HexRoot
	for i, t := range h.tables {
		r.tables[i] = t.Root()
	}
	r.graphs = h.graphs
	return r
}

func (h *HexTable) graphView() *roaring.Bitmap {
	if h.pendingGraphs != nil {
		return h.pendingGraphs
	}
	return h.graphs
}

func (h *HexTable) mutableGraphs() *roaring.Bitmap {
	if h.pendingGraphs == nil {
		h.pendingGraphs = h.graphs.Clone()
	}
	return h.pendingGraphs
}

func (h *HexTable) graphHasQuads(g nodetable.ID) bool {
	seq, err := h.tables[GSPO].Find(Tuple{SlotGraph: g})
	if err != nil {
		return false
	}
	for range seq {
		return true
	}
	return false
}
