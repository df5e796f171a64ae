package vt

import "strings"

// Cursor is the text insertion point of a screen.
type Cursor struct {
	X, Y int
}

// Screen is a rows x cols buffer of cells plus the cursor addressing
// it. Both dimensions are always at least 1 and every coordinate in
// range holds a defined cell. The main screen carries a scrollback
// buffer; the alternate screen does not.
type Screen struct {
	cells []Cell
	w, h  int

	cur Cursor

	// atPhantom marks the deferred-wrap state: a rune was printed in
	// the last column and the next printable wraps before writing.
	atPhantom bool

	scrollback *Scrollback
}

// NewScreen creates a screen of the given size filled with blank
// cells. Dimensions below 1 are clamped to 1.
func NewScreen(w, h int) *Screen {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	s := &Screen{w: w, h: h, cells: make([]Cell, w*h)}
	for i := range s.cells {
		s.cells[i] = EmptyCell
	}
	return s
}

// Width returns the number of columns.
func (s *Screen) Width() int { return s.w }

// Height returns the number of rows.
func (s *Screen) Height() int { return s.h }

// CursorPos returns the cursor position.
func (s *Screen) CursorPos() (x, y int) { return s.cur.X, s.cur.Y }

// CellAt returns the cell at (x, y). Out-of-range coordinates are a
// programming error and panic; callers crossing an external boundary
// must clamp first.
func (s *Screen) CellAt(x, y int) Cell {
	if x < 0 || x >= s.w || y < 0 || y >= s.h {
		panic("vt: cell read out of range")
	}
	return s.cells[y*s.w+x]
}

// SetCell writes the cell at (x, y). Out-of-range coordinates panic.
func (s *Screen) SetCell(x, y int, c Cell) {
	if x < 0 || x >= s.w || y < 0 || y >= s.h {
		panic("vt: cell write out of range")
	}
	s.cells[y*s.w+x] = c
}

// Fill overwrites every cell with c.
func (s *Screen) Fill(c Cell) {
	for i := range s.cells {
		s.cells[i] = c
	}
}

// Resize reallocates the screen to the new dimensions, preserving the
// overlapping top-left region and filling newly exposed cells with
// blanks. The cursor is clamped into the new bounds and any pending
// wrap is cancelled. Dimensions below 1 are clamped to 1.
func (s *Screen) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w == s.w && h == s.h {
		return
	}

	cells := make([]Cell, w*h)
	for i := range cells {
		cells[i] = EmptyCell
	}
	copyW := min(w, s.w)
	copyH := min(h, s.h)
	for y := 0; y < copyH; y++ {
		copy(cells[y*w:y*w+copyW], s.cells[y*s.w:y*s.w+copyW])
	}

	s.cells = cells
	s.w = w
	s.h = h
	s.cur.X = min(s.cur.X, w-1)
	s.cur.Y = min(s.cur.Y, h-1)
	s.atPhantom = false
}

// Clear blanks the whole screen and homes the cursor.
func (s *Screen) Clear(pen Pen) {
	s.Fill(blankCell(pen))
	s.cur = Cursor{}
	s.atPhantom = false
}

// EraseBelow blanks from the cursor to the end of the screen.
func (s *Screen) EraseBelow(pen Pen) {
	s.EraseLineRight(pen)
	blank := blankCell(pen)
	for i := (s.cur.Y + 1) * s.w; i < len(s.cells); i++ {
		s.cells[i] = blank
	}
}

// EraseAbove blanks from the start of the screen through the cursor.
func (s *Screen) EraseAbove(pen Pen) {
	blank := blankCell(pen)
	for i := 0; i < s.cur.Y*s.w; i++ {
		s.cells[i] = blank
	}
	s.EraseLineLeft(pen)
}

// EraseLineRight blanks from the cursor to the end of the line.
func (s *Screen) EraseLineRight(pen Pen) {
	blank := blankCell(pen)
	row := s.cur.Y * s.w
	for x := s.cur.X; x < s.w; x++ {
		s.cells[row+x] = blank
	}
}

// EraseLineLeft blanks from the start of the line through the cursor.
func (s *Screen) EraseLineLeft(pen Pen) {
	blank := blankCell(pen)
	row := s.cur.Y * s.w
	for x := 0; x <= min(s.cur.X, s.w-1); x++ {
		s.cells[row+x] = blank
	}
}

// EraseLine blanks the cursor's entire line.
func (s *Screen) EraseLine(pen Pen) {
	blank := blankCell(pen)
	row := s.cur.Y * s.w
	for x := 0; x < s.w; x++ {
		s.cells[row+x] = blank
	}
}

// EraseCells blanks n cells starting at the cursor without moving
// the remainder of the line.
func (s *Screen) EraseCells(n int, pen Pen) {
	blank := blankCell(pen)
	row := s.cur.Y * s.w
	for x := s.cur.X; x < min(s.cur.X+n, s.w); x++ {
		s.cells[row+x] = blank
	}
}

// DeleteCells removes n cells at the cursor, shifting the rest of the
// line left and filling the tail with blanks.
func (s *Screen) DeleteCells(n int, pen Pen) {
	blank := blankCell(pen)
	row := s.cur.Y * s.w
	for x := s.cur.X; x < s.w; x++ {
		if x+n < s.w {
			s.cells[row+x] = s.cells[row+x+n]
		} else {
			s.cells[row+x] = blank
		}
	}
}

// InsertCells inserts n blank cells at the cursor, shifting the rest
// of the line right; cells pushed past the edge are lost.
func (s *Screen) InsertCells(n int, pen Pen) {
	blank := blankCell(pen)
	row := s.cur.Y * s.w
	for x := s.w - 1; x >= s.cur.X; x-- {
		if x >= s.cur.X+n {
			s.cells[row+x] = s.cells[row+x-n]
		} else {
			s.cells[row+x] = blank
		}
	}
}

// InsertLines inserts n blank lines at row `at`, pushing lines below
// it down to the region bottom. Lines pushed past the bottom are lost.
func (s *Screen) InsertLines(at, n, bottom int, pen Pen) {
	if at > bottom {
		return
	}
	for ; n > 0; n-- {
		for y := bottom; y > at; y-- {
			copy(s.cells[y*s.w:(y+1)*s.w], s.cells[(y-1)*s.w:y*s.w])
		}
		s.blankLine(at, pen)
	}
}

// DeleteLines deletes n lines at row `at`, pulling lines below it up
// and blanking freed lines at the region bottom.
func (s *Screen) DeleteLines(at, n, bottom int, pen Pen) {
	if at > bottom {
		return
	}
	for ; n > 0; n-- {
		for y := at; y < bottom; y++ {
			copy(s.cells[y*s.w:(y+1)*s.w], s.cells[(y+1)*s.w:(y+2)*s.w])
		}
		s.blankLine(bottom, pen)
	}
}

// ScrollRegionUp scrolls the rows in [top, bottom] up by one line.
// When the region starts at the top of the screen the departing row is
// pushed to the scrollback.
func (s *Screen) ScrollRegionUp(top, bottom int, pen Pen) {
	if top == 0 && s.scrollback != nil {
		s.scrollback.PushLine(s.cells[:s.w])
	}
	for y := top; y < bottom; y++ {
		copy(s.cells[y*s.w:(y+1)*s.w], s.cells[(y+1)*s.w:(y+2)*s.w])
	}
	s.blankLine(bottom, pen)
}

// ScrollRegionDown scrolls the rows in [top, bottom] down by one line,
// blanking the new top row. Nothing is pushed to scrollback.
func (s *Screen) ScrollRegionDown(top, bottom int, pen Pen) {
	for y := bottom; y > top; y-- {
		copy(s.cells[y*s.w:(y+1)*s.w], s.cells[(y-1)*s.w:y*s.w])
	}
	s.blankLine(top, pen)
}

// ScrollUp scrolls the full screen up by n lines, feeding departing
// top rows to the scrollback.
func (s *Screen) ScrollUp(n int, pen Pen) {
	for ; n > 0; n-- {
		s.ScrollRegionUp(0, s.h-1, pen)
	}
}

func (s *Screen) blankLine(y int, pen Pen) {
	blank := blankCell(pen)
	row := y * s.w
	for x := 0; x < s.w; x++ {
		s.cells[row+x] = blank
	}
}

// ExtractText returns the text between two inclusive positions,
// reading in row-major stream order. Spacer cells are skipped and
// trailing blanks on each line are trimmed, with lines joined by a
// newline.
func (s *Screen) ExtractText(startRow, startCol, endRow, endCol int) string {
	var b strings.Builder
	endRow = min(endRow, s.h-1)
	for row := startRow; row <= endRow; row++ {
		if row < 0 {
			continue
		}
		colStart := 0
		if row == startRow {
			colStart = max(startCol, 0)
		}
		colEnd := s.w
		if row == endRow {
			colEnd = min(endCol+1, s.w)
		}
		var line strings.Builder
		for col := colStart; col < colEnd; col++ {
			if c := s.cells[row*s.w+col]; c.Rune != 0 {
				line.WriteRune(c.Rune)
			}
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		if row != endRow {
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), " \n")
}
