package quadstore

import (
	"context"
	"iter"
	"sync/atomic"
	"time"

	"github.com/hupe1980/quadstore/internal/index"
	"github.com/hupe1980/quadstore/internal/txn"
	"github.com/hupe1980/quadstore/model"
)

// Txn is a transaction on a Dataset.
//
// A Txn sees a stable snapshot of the dataset: the state committed when it
// began, plus its own changes if it writes. It is not safe for concurrent
// use; each goroutine begins its own transaction. The one exception is
// Abort and End, which another goroutine may call to cancel the owner's
// work: later calls by the owner then fail with ErrTxnFinished.
type Txn struct {
	ds    *Dataset
	tx    *txn.Transaction[state]
	log   *Logger
	start time.Time

	quads    *index.HexTable
	triples  *index.TriTable
	prefixes *prefixRoot

	// Owned by the goroutine driving the transaction. A cancelling Abort
	// never touches them.
	dirty bool

	adds    atomic.Int64
	deletes atomic.Int64
}

func newTxn(ds *Dataset, tx *txn.Transaction[state], start time.Time) *Txn {
	t := &Txn{
		ds:    ds,
		tx:    tx,
		log:   ds.logger.WithTxn(tx.ID()),
		start: start,
	}
	t.attach(tx.Base().Data, tx.Mode())
	return t
}

func (t *Txn) attach(st state, mode txn.Mode) {
	t.quads = index.NewHexTable(st.quads)
	t.triples = index.NewTriTable(st.triples)
	t.prefixes = st.prefixes
	// Fresh tables have no active transaction, so Begin cannot fail.
	_ = t.quads.Begin(mode)
	_ = t.triples.Begin(mode)
}

func (t *Txn) detach() {
	t.quads.End()
	t.triples.End()
}

// ID returns the transaction id. Ids increase in begin order.
func (t *Txn) ID() uint64 { return t.tx.ID() }

// Type returns the type requested at begin.
func (t *Txn) Type() TxnType { return t.tx.Type() }

// Mode returns the current access mode. It changes to ModeWrite on a
// successful Promote.
func (t *Txn) Mode() TxnMode { return t.tx.Mode() }

// Version returns the version of the committed state the transaction
// started from.
func (t *Txn) Version() uint64 { return t.tx.Base().Version }

// IsActive reports whether the transaction can still be used.
func (t *Txn) IsActive() bool { return t.tx.IsActive() }

func (t *Txn) checkActive() error {
	if !t.tx.IsActive() {
		return ErrTxnFinished
	}
	return nil
}

func (t *Txn) checkWrite() error {
	if err := t.checkActive(); err != nil {
		return err
	}
	if t.tx.Mode() != txn.ModeWrite {
		return ErrReadOnly
	}
	return nil
}

func checkGraphName(g model.Term) error {
	if g == model.Any {
		return &ErrInvalidTuple{Position: "graph", Term: g}
	}
	if model.IsUnionGraph(g) {
		return ErrUnionGraphReadOnly
	}
	return nil
}

func checkTriple(s, p, o model.Term) error {
	if err := checkConcrete("subject", s); err != nil {
		return err
	}
	if err := checkConcrete("predicate", p); err != nil {
		return err
	}
	return checkConcrete("object", o)
}

// Add adds the quad (g, s, p, o). A nil or DefaultGraph g adds the triple to
// the default graph. Adding a present quad is a no-op.
func (t *Txn) Add(g, s, p, o model.Term) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	if err := checkGraphName(g); err != nil {
		return err
	}
	if err := checkTriple(s, p, o); err != nil {
		return err
	}

	nodes := t.ds.nodes
	si, pi, oi := nodes.GetOrAllocate(s), nodes.GetOrAllocate(p), nodes.GetOrAllocate(o)

	var (
		added bool
		err   error
	)
	if model.IsDefaultGraph(g) {
		added, err = t.triples.Add(index.TripleTuple(si, pi, oi))
	} else {
		added, err = t.quads.Add(index.QuadTuple(nodes.GetOrAllocate(g), si, pi, oi))
	}
	if err != nil {
		return translateError(err)
	}
	if added {
		t.dirty = true
		t.adds.Add(1)
	}
	return nil
}

// AddQuad adds q.
func (t *Txn) AddQuad(q model.Quad) error {
	return t.Add(q.G, q.S, q.P, q.O)
}

// Delete removes the quad (g, s, p, o). Deleting an absent quad is a no-op.
// Use DeleteAny to remove by pattern.
func (t *Txn) Delete(g, s, p, o model.Term) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	if err := checkGraphName(g); err != nil {
		return err
	}
	if err := checkTriple(s, p, o); err != nil {
		return err
	}

	nodes := t.ds.nodes
	si, ok1 := nodes.Lookup(s)
	pi, ok2 := nodes.Lookup(p)
	oi, ok3 := nodes.Lookup(o)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}

	var (
		deleted bool
		err     error
	)
	if model.IsDefaultGraph(g) {
		deleted, err = t.triples.Delete(index.TripleTuple(si, pi, oi))
	} else {
		gi, ok := nodes.Lookup(g)
		if !ok {
			return nil
		}
		deleted, err = t.quads.Delete(index.QuadTuple(gi, si, pi, oi))
	}
	if err != nil {
		return translateError(err)
	}
	if deleted {
		t.dirty = true
		t.deletes.Add(1)
	}
	return nil
}

// DeleteQuad removes q.
func (t *Txn) DeleteQuad(q model.Quad) error {
	return t.Delete(q.G, q.S, q.P, q.O)
}

// DeleteAny removes every quad matching the pattern and returns how many
// were removed. Wildcards are nil or model.Any; a wildcard graph matches the
// default graph and every named graph.
func (t *Txn) DeleteAny(g, s, p, o model.Term) (int, error) {
	if err := t.checkWrite(); err != nil {
		return 0, err
	}
	if model.IsUnionGraph(g) {
		return 0, ErrUnionGraphReadOnly
	}

	pattern, ok := t.encode(model.Any, s, p, o)
	if !ok {
		return 0, nil
	}

	n := 0
	// Find ranges over a snapshot of the pending view, so deleting while
	// iterating is safe.
	if model.IsWildcard(g) || model.IsDefaultGraph(g) {
		seq, err := t.triples.Find(pattern)
		if err != nil {
			return n, translateError(err)
		}
		for tu := range seq {
			if _, err := t.triples.Delete(tu); err != nil {
				return n, translateError(err)
			}
			n++
		}
	}
	if !model.IsDefaultGraph(g) || model.IsWildcard(g) {
		if !model.IsWildcard(g) {
			gi, ok := t.ds.nodes.Lookup(g)
			if !ok {
				return n, t.noteDeletes(n)
			}
			pattern[index.SlotGraph] = gi
		}
		seq, err := t.quads.Find(pattern)
		if err != nil {
			return n, translateError(err)
		}
		for tu := range seq {
			if _, err := t.quads.Delete(tu); err != nil {
				return n, translateError(err)
			}
			n++
		}
	}
	return n, t.noteDeletes(n)
}

func (t *Txn) noteDeletes(n int) error {
	if n > 0 {
		t.dirty = true
		t.deletes.Add(int64(n))
	}
	return nil
}

// encode resolves a pattern to node IDs. Wildcards become nodetable.Any.
// ok is false if a bound term was never stored, so nothing can match.
func (t *Txn) encode(g, s, p, o model.Term) (index.Tuple, bool) {
	var tu index.Tuple
	terms := [...]struct {
		slot index.Slot
		term model.Term
	}{
		{index.SlotGraph, g},
		{index.SlotSubject, s},
		{index.SlotPredicate, p},
		{index.SlotObject, o},
	}
	for _, e := range terms {
		id, ok := t.ds.nodes.Lookup(e.term)
		if !ok {
			return tu, false
		}
		tu[e.slot] = id
	}
	return tu, true
}

func (t *Txn) decode(g model.Term, tu index.Tuple) model.Quad {
	nodes := t.ds.nodes
	if g == nil {
		g = nodes.Term(tu[index.SlotGraph])
	}
	return model.Quad{
		G: g,
		S: nodes.Term(tu[index.SlotSubject]),
		P: nodes.Term(tu[index.SlotPredicate]),
		O: nodes.Term(tu[index.SlotObject]),
	}
}

func noQuads(func(model.Quad) bool) {}

// Find returns the quads matching the pattern. Wildcards are nil or
// model.Any.
//
// The graph selects what is searched: a wildcard searches the default graph
// (reported with G = model.DefaultGraph) followed by all named graphs,
// model.DefaultGraph only the default graph, model.UnionGraph the distinct
// triples of all named graphs (reported with G = model.UnionGraph), and any
// other term that named graph.
//
// The sequence reflects the transaction's view at the time of the call.
func (t *Txn) Find(g, s, p, o model.Term) (iter.Seq[model.Quad], error) {
	if err := t.checkActive(); err != nil {
		return nil, err
	}

	switch {
	case model.IsWildcard(g):
		def, err := t.findDefault(s, p, o)
		if err != nil {
			return nil, err
		}
		named, err := t.findNamed(model.Any, s, p, o)
		if err != nil {
			return nil, err
		}
		return func(yield func(model.Quad) bool) {
			for q := range def {
				if !yield(q) {
					return
				}
			}
			for q := range named {
				if !yield(q) {
					return
				}
			}
		}, nil
	case model.IsDefaultGraph(g):
		return t.findDefault(s, p, o)
	case model.IsUnionGraph(g):
		return t.findUnion(s, p, o)
	default:
		return t.findNamed(g, s, p, o)
	}
}

// FindNG is like Find but never searches the default graph.
func (t *Txn) FindNG(g, s, p, o model.Term) (iter.Seq[model.Quad], error) {
	if err := t.checkActive(); err != nil {
		return nil, err
	}

	switch {
	case model.IsWildcard(g):
		return t.findNamed(model.Any, s, p, o)
	case model.IsDefaultGraph(g):
		return noQuads, nil
	case model.IsUnionGraph(g):
		return t.findUnion(s, p, o)
	default:
		return t.findNamed(g, s, p, o)
	}
}

func (t *Txn) findDefault(s, p, o model.Term) (iter.Seq[model.Quad], error) {
	pattern, ok := t.encode(model.Any, s, p, o)
	if !ok {
		return noQuads, nil
	}
	form, _ := index.ChooseTripleForm(index.ShapeOf(pattern))
	t.ds.metrics.RecordFind(form.String())

	seq, err := t.triples.Find(pattern)
	if err != nil {
		return nil, translateError(err)
	}
	return t.quadSeq(model.DefaultGraph, seq), nil
}

func (t *Txn) findNamed(g, s, p, o model.Term) (iter.Seq[model.Quad], error) {
	pattern, ok := t.encode(g, s, p, o)
	if !ok {
		return noQuads, nil
	}
	form, _ := index.ChooseQuadForm(index.ShapeOf(pattern))
	t.ds.metrics.RecordFind(form.String())

	seq, err := t.quads.Find(pattern)
	if err != nil {
		return nil, translateError(err)
	}
	return t.quadSeq(nil, seq), nil
}

func (t *Txn) findUnion(s, p, o model.Term) (iter.Seq[model.Quad], error) {
	pattern, ok := t.encode(model.Any, s, p, o)
	if !ok {
		return noQuads, nil
	}
	t.ds.metrics.RecordFind("union")

	seq, err := t.quads.FindUnion(pattern)
	if err != nil {
		return nil, translateError(err)
	}
	return t.quadSeq(model.UnionGraph, seq), nil
}

// quadSeq decodes tuples. A nil g takes the graph from each tuple.
func (t *Txn) quadSeq(g model.Term, seq iter.Seq[index.Tuple]) iter.Seq[model.Quad] {
	return func(yield func(model.Quad) bool) {
		for tu := range seq {
			if !yield(t.decode(g, tu)) {
				return
			}
		}
	}
}

// Contains reports whether any quad matches the pattern, with the graph
// interpreted as in Find.
func (t *Txn) Contains(g, s, p, o model.Term) (bool, error) {
	seq, err := t.Find(g, s, p, o)
	if err != nil {
		return false, err
	}
	for range seq {
		return true, nil
	}
	return false, nil
}

// IsEmpty reports whether the dataset holds no quads, including the default
// graph.
func (t *Txn) IsEmpty() (bool, error) {
	if err := t.checkActive(); err != nil {
		return false, err
	}
	return t.quads.Len() == 0 && t.triples.Len() == 0, nil
}

// Len returns the number of quads, counting default graph triples.
func (t *Txn) Len() (int, error) {
	if err := t.checkActive(); err != nil {
		return 0, err
	}
	return t.quads.Len() + t.triples.Len(), nil
}

// Size returns the number of named graphs holding at least one quad.
func (t *Txn) Size() (int, error) {
	if err := t.checkActive(); err != nil {
		return 0, err
	}
	return t.quads.GraphCount(), nil
}

// ListGraphNodes returns the names of all non-empty named graphs.
func (t *Txn) ListGraphNodes() (iter.Seq[model.Term], error) {
	if err := t.checkActive(); err != nil {
		return nil, err
	}
	ids, err := t.quads.ListGraphNodes()
	if err != nil {
		return nil, translateError(err)
	}
	nodes := t.ds.nodes
	return func(yield func(model.Term) bool) {
		for id := range ids {
			if !yield(nodes.Term(id)) {
				return
			}
		}
	}, nil
}

// ContainsGraph reports whether the named graph g holds at least one quad.
// The default graph and the union graph always exist.
func (t *Txn) ContainsGraph(g model.Term) (bool, error) {
	if err := t.checkActive(); err != nil {
		return false, err
	}
	switch {
	case g == model.Any:
		return false, nil
	case model.IsDefaultGraph(g), model.IsUnionGraph(g):
		return true, nil
	}
	id, ok := t.ds.nodes.Lookup(g)
	if !ok {
		return false, nil
	}
	return t.quads.ContainsGraph(id), nil
}

// DefaultGraph returns a view of the default graph.
func (t *Txn) DefaultGraph() *Graph {
	return &Graph{txn: t, name: model.DefaultGraph}
}

// UnionGraph returns a read-only view of the union of all named graphs.
func (t *Txn) UnionGraph() *Graph {
	return &Graph{txn: t, name: model.UnionGraph}
}

// Graph returns a view of the graph called name. A nil name or
// model.DefaultGraph returns the default graph.
func (t *Txn) Graph(name model.Term) *Graph {
	if model.IsDefaultGraph(name) {
		return t.DefaultGraph()
	}
	return &Graph{txn: t, name: name}
}

// AddGraph adds all triples to the graph called name.
func (t *Txn) AddGraph(name model.Term, triples iter.Seq[model.Triple]) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	if err := checkGraphName(name); err != nil {
		return err
	}
	for tr := range triples {
		if err := t.Add(name, tr.S, tr.P, tr.O); err != nil {
			return err
		}
	}
	return nil
}

// RemoveGraph removes every quad of the graph called name and detaches its
// prefix mapping.
func (t *Txn) RemoveGraph(name model.Term) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	if err := checkGraphName(name); err != nil {
		return err
	}
	if model.IsDefaultGraph(name) {
		name = model.DefaultGraph
	}
	if _, err := t.DeleteAny(name, model.Any, model.Any, model.Any); err != nil {
		return err
	}

	key := prefixKey(name)
	if _, ok := t.prefixes.Get(key); ok {
		t.prefixes = t.prefixes.Delete(key)
		t.dirty = true
	}
	return nil
}

// Clear removes every quad, every named graph and all prefix mappings.
func (t *Txn) Clear() error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	n := t.quads.Len() + t.triples.Len()
	if err := t.quads.Clear(); err != nil {
		return translateError(err)
	}
	if err := t.triples.Clear(); err != nil {
		return translateError(err)
	}
	if t.prefixes.Len() > 0 {
		t.prefixes = emptyPrefixRoot()
		t.dirty = true
	}
	return t.noteDeletes(n)
}

// Prefixes returns the prefix mapping of the graph called g. The union
// graph shares the mapping of the default graph.
func (t *Txn) Prefixes(g model.Term) *PrefixMapping {
	return &PrefixMapping{txn: t, key: prefixKey(g)}
}

// Promote turns a TxnReadPromote or TxnReadCommittedPromote transaction into
// the writer, waiting for the current writer to finish.
//
// A TxnReadPromote transaction fails with ErrPromoteFailed if another
// transaction committed since it began. A TxnReadCommittedPromote
// transaction instead continues from the latest committed state. TxnRead
// transactions cannot be promoted. Promoting a writer is a no-op.
func (t *Txn) Promote(ctx context.Context) error {
	if err := t.checkActive(); err != nil {
		return err
	}
	if t.tx.Mode() == txn.ModeWrite {
		return nil
	}

	err := t.tx.Promote(ctx)
	t.log.LogPromote(ctx, err)
	if err != nil {
		return translateError(err)
	}

	t.detach()
	t.attach(t.tx.Base().Data, txn.ModeWrite)
	return nil
}

// Commit finishes the transaction. The changes of a writer become visible
// to transactions that begin afterwards.
//
// If a memory limit is configured and the new state would exceed it, the
// transaction is aborted and ErrResourceExhausted returned.
func (t *Txn) Commit() error {
	if err := t.checkActive(); err != nil {
		return err
	}

	ctx := context.Background()
	mode := t.tx.Mode()
	if mode == txn.ModeRead || !t.dirty {
		t.detach()
		if err := t.tx.Commit(); err != nil {
			return translateError(err)
		}
		t.ds.metrics.RecordCommit(mode, time.Since(t.start), 0, 0, nil)
		t.log.LogCommit(ctx, t.Version(), 0, 0, nil)
		return nil
	}

	base := t.tx.Base()

	// The tables were begun in write mode, so sealing cannot fail.
	_ = t.quads.Commit()
	_ = t.triples.Commit()
	next := state{
		quads:    t.quads.Root(),
		triples:  t.triples.Root(),
		prefixes: t.prefixes,
	}

	delta := next.footprint() - base.Data.footprint()
	if err := t.ds.rc.Charge(delta); err != nil {
		_ = t.tx.Abort()
		return t.commitFailed(ctx, mode, translateError(err))
	}

	gen, err := t.tx.Publish(next)
	if err != nil {
		_ = t.ds.rc.Charge(-delta)
		return t.commitFailed(ctx, mode, translateError(err))
	}

	adds, deletes := t.counts()
	t.ds.metrics.RecordCommit(mode, time.Since(t.start), adds, deletes, nil)
	t.log.LogCommit(ctx, gen.Version, adds, deletes, nil)
	return nil
}

func (t *Txn) commitFailed(ctx context.Context, mode TxnMode, err error) error {
	adds, deletes := t.counts()
	t.ds.metrics.RecordCommit(mode, time.Since(t.start), adds, deletes, err)
	t.log.LogCommit(ctx, t.Version(), adds, deletes, err)
	return err
}

func (t *Txn) counts() (adds, deletes int) {
	return int(t.adds.Load()), int(t.deletes.Load())
}

// Abort finishes the transaction and discards its changes. It may be
// called from another goroutine to cancel the transaction.
//
// Only the coordinator side is finished here. The private tables belong to
// the owning goroutine, which may still be inside an Add; they are dropped
// with the Txn.
func (t *Txn) Abort() error {
	mode := t.tx.Mode()
	if err := t.tx.Abort(); err != nil {
		return translateError(err)
	}
	adds, deletes := t.counts()
	t.ds.metrics.RecordAbort(mode, time.Since(t.start))
	t.log.LogAbort(context.Background(), adds, deletes)
	return nil
}

// End releases the transaction, aborting it if it is still active.
// End is idempotent and is usually deferred right after Begin.
func (t *Txn) End() {
	if t.tx.IsActive() {
		_ = t.Abort()
	}
	t.tx.End()
}
