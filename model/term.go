package model

import (
	"fmt"
	"strings"
)

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// KindIRI represents an IRI term.
	KindIRI TermKind = iota
	// KindBlankNode represents a blank node term.
	KindBlankNode
	// KindLiteral represents a literal term.
	KindLiteral
	// KindAny represents the match-anything wildcard.
	KindAny
)

// String returns the name of the kind.
func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlankNode:
		return "blank"
	case KindLiteral:
		return "literal"
	case KindAny:
		return "any"
	default:
		return fmt.Sprintf("TermKind(%d)", uint8(k))
	}
}

// Term is a value that can appear in an RDF tuple.
//
// All implementations are comparable value types.
type Term interface {
	Kind() TermKind
	String() string
}

// IRI represents an RDF IRI.
type IRI struct {
	// Value is the IRI string value.
	Value string
}

// NewIRI returns an IRI term.
func NewIRI(value string) IRI { return IRI{Value: value} }

// Kind returns KindIRI.
func (i IRI) Kind() TermKind { return KindIRI }

// String returns the IRI value.
func (i IRI) String() string { return i.Value }

// BlankNode represents an RDF blank node.
type BlankNode struct {
	// ID is the blank node label.
	ID string
}

// NewBlankNode returns a blank node term.
func NewBlankNode(id string) BlankNode { return BlankNode{ID: id} }

// Kind returns KindBlankNode.
func (b BlankNode) Kind() TermKind { return KindBlankNode }

// String returns the blank node label prefixed with "_:".
func (b BlankNode) String() string { return "_:" + b.ID }

// Literal represents an RDF literal.
type Literal struct {
	// Lexical is the lexical form of the literal.
	Lexical string
	// Datatype is the datatype IRI, if any.
	Datatype string
	// Lang is the language tag, if any.
	Lang string
}

// NewLiteral returns a plain literal.
func NewLiteral(lexical string) Literal { return Literal{Lexical: lexical} }

// NewTypedLiteral returns a literal with a datatype IRI.
func NewTypedLiteral(lexical, datatype string) Literal {
	return Literal{Lexical: lexical, Datatype: datatype}
}

// NewLangLiteral returns a language-tagged literal. The tag is lower-cased,
// language tags compare case-insensitively.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Lang: strings.ToLower(lang)}
}

// Kind returns KindLiteral.
func (l Literal) Kind() TermKind { return KindLiteral }

// String returns an N-Triples style representation of the literal.
func (l Literal) String() string {
	if l.Lang != "" {
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	}
	if l.Datatype != "" {
		return fmt.Sprintf("%q^^<%s>", l.Lexical, l.Datatype)
	}
	return fmt.Sprintf("%q", l.Lexical)
}

type anyTerm struct{}

func (anyTerm) Kind() TermKind { return KindAny }
func (anyTerm) String() string { return "ANY" }

// Any matches every term in a find pattern. It is never stored.
var Any Term = anyTerm{}

var (
	// DefaultGraph names the default graph of a dataset.
	DefaultGraph = IRI{Value: "urn:x-arq:DefaultGraph"}

	// UnionGraph names the virtual union of all named graphs.
	UnionGraph = IRI{Value: "urn:x-arq:UnionGraph"}
)

// IsWildcard reports whether t is unbound in a pattern (nil or Any).
func IsWildcard(t Term) bool {
	return t == nil || t == Any
}

// IsDefaultGraph reports whether g denotes the default graph.
// A nil graph name is the default graph when storing tuples.
func IsDefaultGraph(g Term) bool {
	return g == nil || g == Term(DefaultGraph)
}

// IsUnionGraph reports whether g is the union graph sentinel.
func IsUnionGraph(g Term) bool {
	return g == Term(UnionGraph)
}

// IsConcrete reports whether t can be stored in a tuple.
func IsConcrete(t Term) bool {
	return !IsWildcard(t)
}
