// Package render defines the frame snapshot a session hands to a
// host-side renderer. Rasterization itself is the host's business;
// the session only produces immutable snapshots.
package render

import (
	"github.com/termforge/termcore/internal/vt"
)

// Frame is an immutable snapshot of the visible grid. Cells are laid
// out row-major, one slice entry per column. Cell colors are resolved
// to concrete RGB before the snapshot is built, so a renderer never
// needs palette access.
type Frame struct {
	Cols int
	Rows int

	// Cell pixel metrics at the time of the snapshot.
	CellWidth  int
	CellHeight int

	Cells []vt.Cell

	CursorX       int
	CursorY       int
	CursorVisible bool

	Title string

	// Generation is the config generation the frame was built under,
	// so a renderer can notice font or palette changes.
	Generation uint64

	// Seq increases by one per snapshot for deduplication.
	Seq uint64
}

// Cell returns the cell at (x, y). Out-of-range coordinates yield an
// empty cell.
func (f *Frame) Cell(x, y int) vt.Cell {
	if x < 0 || y < 0 || x >= f.Cols || y >= f.Rows {
		return vt.EmptyCell
	}
	i := y*f.Cols + x
	if i >= len(f.Cells) {
		return vt.EmptyCell
	}
	return f.Cells[i]
}

// Renderer consumes frames. Init runs once before the first frame;
// Resize runs whenever the grid dimensions or cell metrics change.
type Renderer interface {
	Init(cols, rows, cellWidth, cellHeight int) error
	RenderFrame(f *Frame) error
	Resize(cols, rows, cellWidth, cellHeight int) error
}
