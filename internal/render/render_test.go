package render

import (
	"testing"

	"github.com/termforge/termcore/internal/vt"
)

func TestFrameCellLookup(t *testing.T) {
	f := &Frame{
		Cols:  3,
		Rows:  2,
		Cells: make([]vt.Cell, 6),
	}
	for i := range f.Cells {
		f.Cells[i] = vt.Cell{Rune: rune('a' + i), Width: 1}
	}

	if got := f.Cell(0, 0).Rune; got != 'a' {
		t.Errorf("Expected 'a' at (0,0), got %q", got)
	}
	if got := f.Cell(2, 1).Rune; got != 'f' {
		t.Errorf("Expected 'f' at (2,1), got %q", got)
	}
}

func TestFrameCellOutOfRange(t *testing.T) {
	f := &Frame{Cols: 2, Rows: 2, Cells: make([]vt.Cell, 4)}

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 0},
		{"negative y", 0, -1},
		{"x past width", 2, 0},
		{"y past height", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Cell(tt.x, tt.y); got != vt.EmptyCell {
				t.Errorf("Expected empty cell for (%d,%d), got %+v", tt.x, tt.y, got)
			}
		})
	}
}

func TestFrameCellShortSlice(t *testing.T) {
	// A frame whose cell slice is shorter than Cols*Rows must not panic.
	f := &Frame{Cols: 4, Rows: 4, Cells: make([]vt.Cell, 2)}
	if got := f.Cell(3, 3); got != vt.EmptyCell {
		t.Errorf("Expected empty cell past slice end, got %+v", got)
	}
}
