// Package model defines the RDF data model stored by quadstore.
//
// # Terms
//
//   - IRI: an RDF IRI
//   - BlankNode: a blank node identified by a label
//   - Literal: lexical form with optional datatype or language tag
//   - Any: the wildcard used in find patterns (never stored)
//
// Terms are comparable values, so equality of terms, triples and quads is
// structural (==) and they can be used as map keys.
//
// # Tuples
//
//   - Triple: subject, predicate, object
//   - Quad: graph, subject, predicate, object
//
// # Graph Names
//
// DefaultGraph names the default graph of a dataset and UnionGraph names the
// read-only union of all named graphs:
//
//	q := model.NewQuad(model.NewIRI("http://example.org/g"),
//	    model.NewIRI("http://example.org/s"),
//	    model.NewIRI("http://example.org/p"),
//	    model.NewLiteral("o"))
//
// A nil term and Any are interchangeable in patterns.
package model
