package quadstore

import (
	"iter"

	"github.com/hupe1980/quadstore/model"
)

// Graph is a view of one graph of a dataset inside a transaction: the
// default graph, a named graph or the read-only union graph.
type Graph struct {
	txn  *Txn
	name model.Term
}

// Name returns the graph name. The default graph is model.DefaultGraph.
func (g *Graph) Name() model.Term { return g.name }

// Add adds a triple to the graph.
func (g *Graph) Add(t model.Triple) error {
	return g.txn.Add(g.name, t.S, t.P, t.O)
}

// Delete removes a triple from the graph.
func (g *Graph) Delete(t model.Triple) error {
	return g.txn.Delete(g.name, t.S, t.P, t.O)
}

// Find returns the triples of the graph matching the pattern.
func (g *Graph) Find(s, p, o model.Term) (iter.Seq[model.Triple], error) {
	seq, err := g.txn.Find(g.name, s, p, o)
	if err != nil {
		return nil, err
	}
	return func(yield func(model.Triple) bool) {
		for q := range seq {
			if !yield(q.Triple()) {
				return
			}
		}
	}, nil
}

// Contains reports whether any triple of the graph matches the pattern.
func (g *Graph) Contains(s, p, o model.Term) (bool, error) {
	return g.txn.Contains(g.name, s, p, o)
}

// Size returns the number of triples in the graph.
func (g *Graph) Size() (int, error) {
	if model.IsDefaultGraph(g.name) {
		if err := g.txn.checkActive(); err != nil {
			return 0, err
		}
		return g.txn.triples.Len(), nil
	}

	seq, err := g.Find(model.Any, model.Any, model.Any)
	if err != nil {
		return 0, err
	}
	n := 0
	for range seq {
		n++
	}
	return n, nil
}

// IsEmpty reports whether the graph holds no triples.
func (g *Graph) IsEmpty() (bool, error) {
	ok, err := g.Contains(model.Any, model.Any, model.Any)
	return !ok, err
}

// Clear removes every triple of the graph. Unlike RemoveGraph on the
// transaction, the prefix mapping of the graph is kept.
func (g *Graph) Clear() error {
	if model.IsUnionGraph(g.name) {
		if err := g.txn.checkWrite(); err != nil {
			return err
		}
		return ErrUnionGraphReadOnly
	}
	_, err := g.txn.DeleteAny(g.name, model.Any, model.Any, model.Any)
	return err
}

// Prefixes returns the prefix mapping of the graph.
func (g *Graph) Prefixes() *PrefixMapping {
	return g.txn.Prefixes(g.name)
}
