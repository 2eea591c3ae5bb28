package index

import (
	"math/bits"
	"strings"

	"github.com/hupe1980/quadstore/internal/nodetable"
)

// Slot is a position in a tuple.
type Slot uint8

const (
	SlotSubject Slot = iota
	SlotPredicate
	SlotObject
	SlotGraph

	numSlots = 4
)

var slotNames = [numSlots]string{"S", "P", "O", "G"}

// String returns the one-letter slot name.
func (s Slot) String() string {
	if int(s) < numSlots {
		return slotNames[s]
	}
	return "?"
}

// Tuple is a tuple of node IDs indexed by Slot. Triples leave SlotGraph as
// nodetable.Any. In patterns nodetable.Any marks an unbound slot.
type Tuple [numSlots]nodetable.ID

// TripleTuple builds a triple tuple.
func TripleTuple(s, p, o nodetable.ID) Tuple {
	return Tuple{SlotSubject: s, SlotPredicate: p, SlotObject: o}
}

// QuadTuple builds a quad tuple.
func QuadTuple(g, s, p, o nodetable.ID) Tuple {
	return Tuple{SlotSubject: s, SlotPredicate: p, SlotObject: o, SlotGraph: g}
}

// Shape is the set of bound slots of a pattern.
type Shape uint8

// ShapeFrom returns the shape containing slots.
func ShapeFrom(slots ...Slot) Shape {
	var sh Shape
	for _, s := range slots {
		sh |= 1 << s
	}
	return sh
}

// ShapeOf returns the bound slots of pattern.
func ShapeOf(pattern Tuple) Shape {
	var sh Shape
	for s, id := range pattern {
		if id != nodetable.Any {
			sh |= 1 << Slot(s)
		}
	}
	return sh
}

// Has reports whether slot s is bound.
func (sh Shape) Has(s Slot) bool { return sh&(1<<s) != 0 }

// Len returns the number of bound slots.
func (sh Shape) Len() int { return bits.OnesCount8(uint8(sh)) }

// IsEmpty reports whether no slot is bound.
func (sh Shape) IsEmpty() bool { return sh == 0 }

// String lists the bound slots in G, S, P, O order, e.g. "{G,O}".
func (sh Shape) String() string {
	var parts []string
	for _, s := range []Slot{SlotGraph, SlotSubject, SlotPredicate, SlotObject} {
		if sh.Has(s) {
			parts = append(parts, s.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}
