// Package index implements the redundant tuple indexes of the store.
//
// Every physical index (a table) orders the slots of a tuple in one fixed
// permutation, its table form, and keeps the permuted tuples in a persistent
// sorted map. A lookup whose bound slots form a prefix of a table's order
// visits a contiguous key range only, so a set of forms that covers every
// non-empty shape avoids full scans for every pattern:
//
//	triples: SPO POS OSP
//	quads:   GSPO GOPS SPOG OPSG OSGP PGSO
//
// Tables are transactional: Begin captures the committed map, writes build a
// pending map by structural sharing, Commit publishes it with one pointer
// assignment and Abort drops it. A HexTable holds the six quad tables and a
// TriTable the three triple tables, each moving its tables in lock-step.
// Roots of committed tables are immutable and may be shared between any
// number of goroutines.
package index
