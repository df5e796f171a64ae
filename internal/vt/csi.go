package vt

import "fmt"

// csiSeq is one parsed CSI sequence handed to a dispatch entry.
type csiSeq struct {
	params        []int
	intermediates []byte
}

// Param returns parameter i, or def when the parameter is absent or
// zero. A zero-valued parameter selects the default per the protocol.
func (s *csiSeq) Param(i, def int) int {
	if i < len(s.params) && s.params[i] != 0 {
		return s.params[i]
	}
	return def
}

// Len returns the number of parameters present.
func (s *csiSeq) Len() int { return len(s.params) }

// csiKey packs a dispatch key from the leading intermediate (0 when
// none) and the final byte.
func csiKey(intermediate, final byte) uint16 {
	return uint16(intermediate)<<8 | uint16(final)
}

// handleCsi routes a completed CSI sequence through the dispatch
// table. Sequences without an entry are consumed with no state
// change.
func (e *Emulator) handleCsi(params []int, intermediates []byte, final byte) {
	var marker byte
	if len(intermediates) > 0 {
		marker = intermediates[0]
	}
	h, ok := e.csiHandlers[csiKey(marker, final)]
	if !ok {
		e.logf("vt: unhandled CSI %q %c %v", marker, final, params)
		return
	}
	h(&csiSeq{params: params, intermediates: intermediates})
}

// registerDefaultHandlers builds the CSI dispatch table. Keeping
// dispatch in one table makes the recognized surface auditable in one
// place.
func (e *Emulator) registerDefaultHandlers() {
	e.csiHandlers = map[uint16]func(*csiSeq){
		csiKey(0, 'A'):   e.csiCursorUp,
		csiKey(0, 'B'):   e.csiCursorDown,
		csiKey(0, 'C'):   e.csiCursorForward,
		csiKey(0, 'D'):   e.csiCursorBack,
		csiKey(0, 'E'):   e.csiCursorNextLine,
		csiKey(0, 'F'):   e.csiCursorPrevLine,
		csiKey(0, 'G'):   e.csiCursorColumn,
		csiKey(0, '`'):   e.csiCursorColumn,
		csiKey(0, 'H'):   e.csiCursorPosition,
		csiKey(0, 'f'):   e.csiCursorPosition,
		csiKey(0, 'd'):   e.csiCursorRow,
		csiKey(0, 'I'):   e.csiTabForward,
		csiKey(0, 'Z'):   e.csiTabBack,
		csiKey(0, 'J'):   e.csiEraseDisplay,
		csiKey(0, 'K'):   e.csiEraseLine,
		csiKey(0, 'X'):   e.csiEraseChars,
		csiKey(0, 'L'):   e.csiInsertLines,
		csiKey(0, 'M'):   e.csiDeleteLines,
		csiKey(0, 'P'):   e.csiDeleteChars,
		csiKey(0, '@'):   e.csiInsertChars,
		csiKey(0, 'S'):   e.csiScrollUp,
		csiKey(0, 'T'):   e.csiScrollDown,
		csiKey(0, 'b'):   e.csiRepeat,
		csiKey(0, 'm'):   e.csiSgr,
		csiKey(0, 'r'):   e.csiSetScrollRegion,
		csiKey(0, 'h'):   e.csiAnsiModeSet,
		csiKey(0, 'l'):   e.csiAnsiModeReset,
		csiKey('?', 'h'): e.csiDecModeSet,
		csiKey('?', 'l'): e.csiDecModeReset,
		csiKey(0, 's'):   e.csiSaveCursor,
		csiKey(0, 'u'):   e.csiRestoreCursor,
		csiKey(0, 'n'):   e.csiDeviceStatus,
		csiKey('?', 'n'): e.csiDecDeviceStatus,
		csiKey(0, 'c'):   e.csiDeviceAttributes,
		csiKey(0, 'g'):   e.csiTabClear,
		csiKey(' ', 'q'): e.csiCursorStyle,
		csiKey(0, 't'):   e.csiWindowOps,
	}
}

func (e *Emulator) csiCursorUp(s *csiSeq) {
	n := s.Param(0, 1)
	top := 0
	if e.isModeSet(modeOrigin) {
		top = e.scrollTop
	}
	e.setCursor(e.scr.cur.X, max(e.scr.cur.Y-n, top))
}

func (e *Emulator) csiCursorDown(s *csiSeq) {
	n := s.Param(0, 1)
	bottom := e.scr.Height() - 1
	if e.isModeSet(modeOrigin) {
		bottom = e.scrollBottom
	}
	e.setCursor(e.scr.cur.X, min(e.scr.cur.Y+n, bottom))
}

func (e *Emulator) csiCursorForward(s *csiSeq) {
	n := s.Param(0, 1)
	e.setCursor(min(e.scr.cur.X+n, e.scr.Width()-1), e.scr.cur.Y)
}

func (e *Emulator) csiCursorBack(s *csiSeq) {
	n := s.Param(0, 1)
	e.setCursor(max(e.scr.cur.X-n, 0), e.scr.cur.Y)
}

func (e *Emulator) csiCursorNextLine(s *csiSeq) {
	n := s.Param(0, 1)
	e.setCursor(0, min(e.scr.cur.Y+n, e.scr.Height()-1))
}

func (e *Emulator) csiCursorPrevLine(s *csiSeq) {
	n := s.Param(0, 1)
	e.setCursor(0, max(e.scr.cur.Y-n, 0))
}

func (e *Emulator) csiCursorColumn(s *csiSeq) {
	col := s.Param(0, 1) - 1
	e.setCursor(min(col, e.scr.Width()-1), e.scr.cur.Y)
}

func (e *Emulator) csiCursorPosition(s *csiSeq) {
	row := s.Param(0, 1) - 1
	col := s.Param(1, 1) - 1
	if e.isModeSet(modeOrigin) {
		row += e.scrollTop
	}
	e.setCursor(
		min(col, e.scr.Width()-1),
		min(row, e.scr.Height()-1),
	)
}

func (e *Emulator) csiCursorRow(s *csiSeq) {
	row := s.Param(0, 1) - 1
	e.setCursor(e.scr.cur.X, min(row, e.scr.Height()-1))
}

func (e *Emulator) csiTabForward(s *csiSeq) {
	e.scr.atPhantom = false
	for n := s.Param(0, 1); n > 0; n-- {
		e.scr.cur.X = e.tabstops.Next(e.scr.cur.X)
	}
}

func (e *Emulator) csiTabBack(s *csiSeq) {
	e.scr.atPhantom = false
	for n := s.Param(0, 1); n > 0; n-- {
		e.scr.cur.X = e.tabstops.Prev(e.scr.cur.X)
	}
}

func (e *Emulator) csiEraseDisplay(s *csiSeq) {
	switch s.Param(0, 0) {
	case 0:
		e.scr.EraseBelow(e.pen)
	case 1:
		e.scr.EraseAbove(e.pen)
	case 2:
		e.scr.Clear(e.pen)
	case 3:
		e.scr.Clear(e.pen)
		e.scrs[0].scrollback.Clear()
	}
}

func (e *Emulator) csiEraseLine(s *csiSeq) {
	switch s.Param(0, 0) {
	case 0:
		e.scr.EraseLineRight(e.pen)
	case 1:
		e.scr.EraseLineLeft(e.pen)
	case 2:
		e.scr.EraseLine(e.pen)
	}
}

func (e *Emulator) csiEraseChars(s *csiSeq) {
	e.scr.EraseCells(s.Param(0, 1), e.pen)
}

func (e *Emulator) csiInsertLines(s *csiSeq) {
	e.scr.InsertLines(e.scr.cur.Y, s.Param(0, 1), e.scrollBottom, e.pen)
}

func (e *Emulator) csiDeleteLines(s *csiSeq) {
	e.scr.DeleteLines(e.scr.cur.Y, s.Param(0, 1), e.scrollBottom, e.pen)
}

func (e *Emulator) csiDeleteChars(s *csiSeq) {
	e.scr.DeleteCells(s.Param(0, 1), e.pen)
}

func (e *Emulator) csiInsertChars(s *csiSeq) {
	e.scr.InsertCells(s.Param(0, 1), e.pen)
}

func (e *Emulator) csiScrollUp(s *csiSeq) {
	for n := s.Param(0, 1); n > 0; n-- {
		e.scr.ScrollRegionUp(e.scrollTop, e.scrollBottom, e.pen)
	}
}

func (e *Emulator) csiScrollDown(s *csiSeq) {
	for n := s.Param(0, 1); n > 0; n-- {
		e.scr.ScrollRegionDown(e.scrollTop, e.scrollBottom, e.pen)
	}
}

// csiRepeat reprints the rune preceding the cursor n times.
func (e *Emulator) csiRepeat(s *csiSeq) {
	scr := e.scr
	x := scr.cur.X
	if !scr.atPhantom {
		x--
	}
	if x < 0 {
		return
	}
	r := scr.CellAt(x, scr.cur.Y).Rune
	if r == 0 {
		return
	}
	for n := s.Param(0, 1); n > 0; n-- {
		e.print(r)
	}
}

// csiSetScrollRegion sets the vertical margins (DECSTBM) and homes
// the cursor.
func (e *Emulator) csiSetScrollRegion(s *csiSeq) {
	rows := e.scr.Height()
	top := s.Param(0, 1)
	bottom := s.Param(1, rows)
	e.scrollTop = min(top-1, rows-1)
	e.scrollBottom = min(bottom-1, rows-1)
	y := 0
	if e.isModeSet(modeOrigin) {
		y = e.scrollTop
	}
	e.setCursor(0, y)
}

func (e *Emulator) csiAnsiModeSet(s *csiSeq) {
	for i := 0; i < s.Len(); i++ {
		if n := s.Param(i, 0); n > 0 {
			e.setAnsiMode(n, true)
		}
	}
}

func (e *Emulator) csiAnsiModeReset(s *csiSeq) {
	for i := 0; i < s.Len(); i++ {
		if n := s.Param(i, 0); n > 0 {
			e.setAnsiMode(n, false)
		}
	}
}

func (e *Emulator) csiDecModeSet(s *csiSeq) {
	for i := 0; i < s.Len(); i++ {
		if n := s.Param(i, 0); n > 0 {
			e.setDecMode(n, true)
		}
	}
}

func (e *Emulator) csiDecModeReset(s *csiSeq) {
	for i := 0; i < s.Len(); i++ {
		if n := s.Param(i, 0); n > 0 {
			e.setDecMode(n, false)
		}
	}
}

func (e *Emulator) csiSaveCursor(*csiSeq) {
	e.saveCursor()
}

func (e *Emulator) csiRestoreCursor(*csiSeq) {
	e.restoreCursor()
}

// csiDeviceStatus answers DSR. The cursor report is origin-relative
// when origin mode is set.
func (e *Emulator) csiDeviceStatus(s *csiSeq) {
	switch s.Param(0, 0) {
	case 5: // operating status
		e.reply("\x1b[0n")
	case 6: // cursor position report
		x, y := e.scr.CursorPos()
		if e.isModeSet(modeOrigin) {
			y -= e.scrollTop
		}
		e.reply(fmt.Sprintf("\x1b[%d;%dR", y+1, x+1))
	}
}

// csiDecDeviceStatus answers DECXCPR with the absolute cursor
// position.
func (e *Emulator) csiDecDeviceStatus(s *csiSeq) {
	if s.Param(0, 0) == 6 {
		x, y := e.scr.CursorPos()
		e.reply(fmt.Sprintf("\x1b[?%d;%dR", y+1, x+1))
	}
}

// csiDeviceAttributes answers primary DA as a VT220 with ANSI color.
func (e *Emulator) csiDeviceAttributes(s *csiSeq) {
	if s.Param(0, 0) == 0 {
		e.reply("\x1b[?62;22c")
	}
}

func (e *Emulator) csiTabClear(s *csiSeq) {
	switch s.Param(0, 0) {
	case 0:
		e.tabstops.Clear(e.scr.cur.X)
	case 3:
		e.tabstops.ClearAll()
	}
}

// csiCursorStyle records the DECSCUSR cursor style for hosts that
// render the cursor themselves.
func (e *Emulator) csiCursorStyle(s *csiSeq) {
	e.cursorStyle = s.Param(0, 0)
}

// csiWindowOps answers the XTWINOPS size reports; window manipulation
// requests are ignored.
func (e *Emulator) csiWindowOps(s *csiSeq) {
	cw, ch := e.CellSize()
	switch s.Param(0, 0) {
	case 14: // text area size in pixels
		e.reply(fmt.Sprintf("\x1b[4;%d;%dt", e.Height()*ch, e.Width()*cw))
	case 16: // cell size in pixels
		e.reply(fmt.Sprintf("\x1b[6;%d;%dt", ch, cw))
	case 18: // text area size in characters
		e.reply(fmt.Sprintf("\x1b[8;%d;%dt", e.Height(), e.Width()))
	}
}
