package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuadFormsAnswerEveryShape(t *testing.T) {
	for sh := Shape(1); sh < 1<<numSlots; sh++ {
		f, ok := ChooseQuadForm(sh)
		require.True(t, ok, "no quad form for %s", sh)
		assert.True(t, f.Test(sh))
	}

	_, ok := ChooseQuadForm(0)
	assert.False(t, ok)
	for _, f := range QuadTableForms() {
		assert.False(t, f.Test(0), f.String())
	}
}

func TestTripleFormsAnswerEveryShape(t *testing.T) {
	for _, sh := range []Shape{
		ShapeFrom(SlotSubject),
		ShapeFrom(SlotPredicate),
		ShapeFrom(SlotObject),
		ShapeFrom(SlotSubject, SlotPredicate),
		ShapeFrom(SlotPredicate, SlotObject),
		ShapeFrom(SlotSubject, SlotObject),
		ShapeFrom(SlotSubject, SlotPredicate, SlotObject),
	} {
		f, ok := ChooseTripleForm(sh)
		require.True(t, ok, "no triple form for %s", sh)
		assert.True(t, f.Test(sh))
	}

	_, ok := ChooseTripleForm(0)
	assert.False(t, ok)
}

func TestChooseFormPicksFirstMatch(t *testing.T) {
	tests := []struct {
		shape Shape
		want  QuadTableForm
	}{
		{ShapeFrom(SlotGraph), GSPO},
		{ShapeFrom(SlotGraph, SlotObject), GOPS},
		{ShapeFrom(SlotSubject), SPOG},
		{ShapeFrom(SlotObject), OPSG},
		{ShapeFrom(SlotObject, SlotSubject), OSGP},
		{ShapeFrom(SlotPredicate, SlotGraph), PGSO},
		{ShapeFrom(SlotGraph, SlotSubject, SlotPredicate, SlotObject), GSPO},
	}
	for _, tt := range tests {
		t.Run(tt.shape.String(), func(t *testing.T) {
			got, ok := ChooseQuadForm(tt.shape)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := ChooseTripleForm(ShapeFrom(SlotObject, SlotSubject))
	require.True(t, ok)
	assert.Equal(t, OSP, got)
}

func TestFormTestRequiresLeadingRun(t *testing.T) {
	// {G,P} is bound in GSPO but not as a leading run.
	assert.False(t, GSPO.Test(ShapeFrom(SlotGraph, SlotPredicate)))
	assert.True(t, PGSO.Test(ShapeFrom(SlotGraph, SlotPredicate)))
	assert.False(t, SPO.Test(ShapeFrom(SlotSubject, SlotObject)))
}

func TestFormNames(t *testing.T) {
	assert.Equal(t, "GSPO", GSPO.String())
	assert.Equal(t, "OSGP", OSGP.String())
	assert.Equal(t, "POS", POS.String())
	assert.Equal(t, "{G,O}", ShapeFrom(SlotObject, SlotGraph).String())
	assert.Equal(t, "{}", Shape(0).String())
}

func TestFormCounts(t *testing.T) {
	assert.Len(t, QuadTableForms(), NumQuadForms)
	assert.Len(t, TripleTableForms(), NumTripleForms)
}
