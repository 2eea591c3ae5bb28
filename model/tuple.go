package model

import "fmt"

// Triple is an RDF triple.
type Triple struct {
	S Term
	P Term
	O Term
}

// NewTriple returns a triple.
func NewTriple(s, p, o Term) Triple {
	return Triple{S: s, P: p, O: o}
}

// String returns an N-Triples style representation.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", termString(t.S), termString(t.P), termString(t.O))
}

// ToQuad places the triple in graph g.
func (t Triple) ToQuad(g Term) Quad {
	return Quad{G: g, S: t.S, P: t.P, O: t.O}
}

// IsConcrete reports whether every position is bound.
func (t Triple) IsConcrete() bool {
	return IsConcrete(t.S) && IsConcrete(t.P) && IsConcrete(t.O)
}

// Matches reports whether t matches the pattern (s, p, o).
func (t Triple) Matches(s, p, o Term) bool {
	return matches(s, t.S) && matches(p, t.P) && matches(o, t.O)
}

// Quad is an RDF quad (a triple plus a graph name).
type Quad struct {
	G Term
	S Term
	P Term
	O Term
}

// NewQuad returns a quad.
func NewQuad(g, s, p, o Term) Quad {
	return Quad{G: g, S: s, P: p, O: o}
}

// Triple returns the quad without its graph name.
func (q Quad) Triple() Triple {
	return Triple{S: q.S, P: q.P, O: q.O}
}

// InDefaultGraph reports whether the quad belongs to the default graph.
func (q Quad) InDefaultGraph() bool {
	return IsDefaultGraph(q.G)
}

// String returns an N-Quads style representation.
func (q Quad) String() string {
	if q.InDefaultGraph() {
		return q.Triple().String()
	}
	return fmt.Sprintf("%s %s %s %s .", termString(q.S), termString(q.P), termString(q.O), termString(q.G))
}

// Matches reports whether q matches the pattern (g, s, p, o).
func (q Quad) Matches(g, s, p, o Term) bool {
	return matches(g, q.G) && matches(s, q.S) && matches(p, q.P) && matches(o, q.O)
}

func matches(pattern, t Term) bool {
	return IsWildcard(pattern) || pattern == t
}

func termString(t Term) string {
	switch v := t.(type) {
	case nil:
		return "ANY"
	case IRI:
		return "<" + v.Value + ">"
	default:
		return v.String()
	}
}
