// Package nodetable interns RDF terms to dense node IDs.
//
// Indexes store tuples of node IDs instead of terms so that keys are
// fixed-size and compare with integer comparisons. The table is append-only:
// an ID, once assigned, maps to the same term for the lifetime of the table.
// IDs allocated by transactions that later abort stay allocated, they are
// simply never referenced by a committed tuple.
//
// ID 0 is reserved as the wildcard and is never assigned to a term.
package nodetable
