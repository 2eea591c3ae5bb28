// Package testutil provides testing utilities for quadstore.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random datasets and patterns and
// for computing the exact answer of a find by brute force.
//
// # Random Data Generation
//
//	rng := testutil.NewRNG(seed)
//	quads := rng.Quads(1000, testutil.Shape{Graphs: 8, Nodes: 64})
//	g, s, p, o := rng.Pattern(quads[0])
//
// # Ground Truth
//
//	want := testutil.ExactFind(quads, g, s, p, o)
//	testutil.SortQuads(got)
package testutil
