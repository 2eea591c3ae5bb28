package index

import "fmt"

// TripleTableForm is an ordering of the triple slots.
type TripleTableForm uint8

const (
	SPO TripleTableForm = iota
	POS
	OSP

	// NumTripleForms is the number of triple forms.
	NumTripleForms = 3
)

var tripleOrders = [NumTripleForms][]Slot{
	SPO: {SlotSubject, SlotPredicate, SlotObject},
	POS: {SlotPredicate, SlotObject, SlotSubject},
	OSP: {SlotObject, SlotSubject, SlotPredicate},
}

// TripleTableForms returns all triple forms in priority order.
func TripleTableForms() []TripleTableForm {
	return []TripleTableForm{SPO, POS, OSP}
}

// Order returns the slot order of the form.
func (f TripleTableForm) Order() []Slot { return tripleOrders[f] }

// Test reports whether a table of this form can answer shape without a full scan.
func (f TripleTableForm) Test(shape Shape) bool { return answers(f.Order(), shape) }

// NewTable returns a fresh, empty table of this form.
func (f TripleTableForm) NewTable() *TripleTable { return NewTripleTable(f, nil) }

func (f TripleTableForm) String() string {
	if int(f) < NumTripleForms {
		return orderName(f.Order())
	}
	return fmt.Sprintf("TripleTableForm(%d)", uint8(f))
}

// ChooseTripleForm returns the first form that answers shape.
// The empty shape is never answered; callers scan any table.
func ChooseTripleForm(shape Shape) (TripleTableForm, bool) {
	for _, f := range TripleTableForms() {
		if f.Test(shape) {
			return f, true
		}
	}
	return SPO, false
}

// QuadTableForm is an ordering of the quad slots.
type QuadTableForm uint8

const (
	GSPO QuadTableForm = iota
	GOPS
	SPOG
	OPSG
	OSGP
	PGSO

	// NumQuadForms is the number of quad forms.
	NumQuadForms = 6
)

var quadOrders = [NumQuadForms][]Slot{
	GSPO: {SlotGraph, SlotSubject, SlotPredicate, SlotObject},
	GOPS: {SlotGraph, SlotObject, SlotPredicate, SlotSubject},
	SPOG: {SlotSubject, SlotPredicate, SlotObject, SlotGraph},
	OPSG: {SlotObject, SlotPredicate, SlotSubject, SlotGraph},
	OSGP: {SlotObject, SlotSubject, SlotGraph, SlotPredicate},
	PGSO: {SlotPredicate, SlotGraph, SlotSubject, SlotObject},
}

// QuadTableForms returns all quad forms in priority order.
func QuadTableForms() []QuadTableForm {
	return []QuadTableForm{GSPO, GOPS, SPOG, OPSG, OSGP, PGSO}
}

// Order returns the slot order of the form.
func (f QuadTableForm) Order() []Slot { return quadOrders[f] }

// Test reports whether a table of this form can answer shape without a full scan.
func (f QuadTableForm) Test(shape Shape) bool { return answers(f.Order(), shape) }

// NewTable returns a fresh, empty table of this form.
func (f QuadTableForm) NewTable() *QuadTable { return NewQuadTable(f, nil) }

func (f QuadTableForm) String() string {
	if int(f) < NumQuadForms {
		return orderName(f.Order())
	}
	return fmt.Sprintf("QuadTableForm(%d)", uint8(f))
}

// ChooseQuadForm returns the first form that answers shape.
// The empty shape is never answered; callers scan any table.
func ChooseQuadForm(shape Shape) (QuadTableForm, bool) {
	for _, f := range QuadTableForms() {
		if f.Test(shape) {
			return f, true
		}
	}
	return GSPO, false
}

// answers holds when the bound slots are exactly a leading run of order.
func answers(order []Slot, shape Shape) bool {
	n := shape.Len()
	if n == 0 || n > len(order) {
		return false
	}
	return ShapeFrom(order[:n]...) == shape
}

func orderName(order []Slot) string {
	b := make([]byte, 0, len(order))
	for _, s := range order {
		b = append(b, s.String()...)
	}
	return string(b)
}
