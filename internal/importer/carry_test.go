package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCarryState_Absorb(t *testing.T) {
	rows := []SourceRow{
		{Line: 2, CategoryName: "A", ItemCode: "X1", FrameSize: "1000x2000", PiecesPerCarton: "4", Description: "p1"},
		{Line: 3, Description: "p2", GraphicSize: "980x1980"},
		{Line: 4, CategoryName: "B", Description: "p3"},
		{Line: 5, ItemCode: "Y2", PackingSize: "120x40x40", GrossWeight: "18"},
	}

	var states []CarryState
	var s CarryState
	for _, r := range rows {
		s = s.Absorb(r)
		states = append(states, s)
	}

	assert.Equal(t, CarryState{CategoryName: "A", ItemCode: "X1", FrameSize: "1000x2000", PiecesPerCarton: "4"}, states[0])
	assert.Equal(t, CarryState{CategoryName: "A", ItemCode: "X1", FrameSize: "1000x2000", GraphicSize: "980x1980", PiecesPerCarton: "4"}, states[1])

	// Category change keeps every other carried value.
	assert.Equal(t, "B", states[2].CategoryName)
	assert.Equal(t, "X1", states[2].ItemCode)
	assert.Equal(t, "1000x2000", states[2].FrameSize)
	assert.Equal(t, "980x1980", states[2].GraphicSize)
	assert.Equal(t, "4", states[2].PiecesPerCarton)

	assert.Equal(t, CarryState{
		CategoryName:    "B",
		ItemCode:        "Y2",
		FrameSize:       "1000x2000",
		GraphicSize:     "980x1980",
		PiecesPerCarton: "4",
		GrossWeight:     "18",
		PackingSize:     "120x40x40",
	}, states[3])
}

func TestCarryState_AbsorbIsPure(t *testing.T) {
	before := CarryState{CategoryName: "A", ItemCode: "X1"}
	after := before.Absorb(SourceRow{CategoryName: "B", ItemCode: "X2"})

	assert.Equal(t, "A", before.CategoryName)
	assert.Equal(t, "X1", before.ItemCode)
	assert.Equal(t, "B", after.CategoryName)
	assert.Equal(t, "X2", after.ItemCode)
}

func TestCarryState_WhitespaceDoesNotOverwrite(t *testing.T) {
	s := CarryState{ItemCode: "X1"}.Absorb(SourceRow{ItemCode: "   "})
	assert.Equal(t, "X1", s.ItemCode)

	s = s.Absorb(SourceRow{ItemCode: "  X2 "})
	assert.Equal(t, "X2", s.ItemCode)
}
