package importer

import "strings"

// CarryState holds, per sticky field, the last non-empty value seen in the
// current import run. It is a plain value: Absorb returns the next state and
// leaves the receiver untouched.
//
// Fields are carried independently and nothing resets on a category change,
// so a row under a new category still inherits the previous item code until
// the sheet supplies another one.
type CarryState struct {
	CategoryName    string
	ItemCode        string
	FrameSize       string
	GraphicSize     string
	PiecesPerCarton string
	GrossWeight     string
	PackingSize     string
}

// Absorb folds one row into the state.
func (s CarryState) Absorb(row SourceRow) CarryState {
	s.CategoryName = carry(s.CategoryName, row.CategoryName)
	s.ItemCode = carry(s.ItemCode, row.ItemCode)
	s.FrameSize = carry(s.FrameSize, row.FrameSize)
	s.GraphicSize = carry(s.GraphicSize, row.GraphicSize)
	s.PiecesPerCarton = carry(s.PiecesPerCarton, row.PiecesPerCarton)
	s.GrossWeight = carry(s.GrossWeight, row.GrossWeight)
	s.PackingSize = carry(s.PackingSize, row.PackingSize)
	return s
}

func carry(prev, next string) string {
	if v := strings.TrimSpace(next); v != "" {
		return v
	}
	return prev
}
