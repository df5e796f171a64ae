package vt

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// print writes a single rune at the cursor using the current pen,
// handling deferred auto-wrap and wide runes. A rune printed in the
// last column leaves the cursor there with a pending wrap; the wrap
// happens when the next rune arrives.
func (e *Emulator) print(r rune) {
	w := runeDisplayWidth(r)
	if w == 0 {
		return
	}
	scr := e.scr
	cols := scr.Width()
	autoWrap := e.isModeSet(ansi.ModeAutoWrap)

	if scr.atPhantom {
		scr.atPhantom = false
		if autoWrap {
			scr.cur.X = 0
			e.index()
		}
	}

	// A wide rune that doesn't fit moves to the next line, leaving a
	// padding cell behind.
	if w == 2 && scr.cur.X+1 >= cols {
		if autoWrap {
			scr.SetCell(scr.cur.X, scr.cur.Y, newCell(' ', 1, e.pen))
			scr.cur.X = 0
			e.index()
		} else if cols >= 2 {
			scr.cur.X = cols - 2
		}
	}

	scr.SetCell(scr.cur.X, scr.cur.Y, newCell(r, w, e.pen))
	if w == 2 && scr.cur.X+1 < cols {
		scr.SetCell(scr.cur.X+1, scr.cur.Y, spacerCell(e.pen))
	}

	next := scr.cur.X + w
	if next >= cols {
		scr.cur.X = cols - 1
		scr.atPhantom = autoWrap
	} else {
		scr.cur.X = next
	}
}

// execute handles a C0 control byte.
func (e *Emulator) execute(b byte) {
	scr := e.scr
	switch b {
	case 0x07: // BEL
		if e.cb.Bell != nil {
			e.cb.Bell()
		}
	case 0x08: // BS
		if scr.atPhantom {
			scr.atPhantom = false
		} else if scr.cur.X > 0 {
			scr.cur.X--
		}
	case 0x09: // HT
		scr.atPhantom = false
		scr.cur.X = e.tabstops.Next(scr.cur.X)
	case 0x0a, 0x0b, 0x0c: // LF, VT, FF
		e.index()
	case 0x0d: // CR
		scr.atPhantom = false
		scr.cur.X = 0
	}
}

// index moves the cursor down one line, scrolling the region when the
// cursor sits on its bottom row.
func (e *Emulator) index() {
	scr := e.scr
	switch {
	case scr.cur.Y == e.scrollBottom:
		scr.ScrollRegionUp(e.scrollTop, e.scrollBottom, e.pen)
	case scr.cur.Y < scr.Height()-1:
		scr.cur.Y++
	}
}

// reverseIndex moves the cursor up one line, scrolling the region
// down when the cursor sits on its top row.
func (e *Emulator) reverseIndex() {
	scr := e.scr
	switch {
	case scr.cur.Y == e.scrollTop:
		scr.ScrollRegionDown(e.scrollTop, e.scrollBottom, e.pen)
	case scr.cur.Y > 0:
		scr.cur.Y--
	}
}

// setCursor places the cursor, cancelling any pending wrap. Callers
// clamp coordinates to the op's own rules first.
func (e *Emulator) setCursor(x, y int) {
	e.scr.cur.X = x
	e.scr.cur.Y = y
	e.scr.atPhantom = false
}

func (e *Emulator) saveCursor() {
	x, y := e.scr.CursorPos()
	e.saved = savedCursor{cur: Cursor{X: x, Y: y}, pen: e.pen}
}

func (e *Emulator) restoreCursor() {
	e.pen = e.saved.pen
	e.setCursor(
		min(e.saved.cur.X, e.Width()-1),
		min(e.saved.cur.Y, e.Height()-1),
	)
}

// enterAltScreen activates the alternate screen. The alternate screen
// starts blank with the cursor homed. Re-entering while already
// active is a no-op so the saved main-screen state survives.
func (e *Emulator) enterAltScreen(saveCursor bool) {
	if e.IsAltScreen() {
		return
	}
	if saveCursor {
		e.saveCursor()
	}
	e.scr = &e.scrs[1]
	e.scr.Clear(Pen{})
}

func (e *Emulator) exitAltScreen(restoreCursor bool) {
	if !e.IsAltScreen() {
		return
	}
	e.scr = &e.scrs[0]
	if restoreCursor {
		e.restoreCursor()
	}
}

// setDecMode applies one DEC private mode change. Every mode number
// is recorded so later queries and serialization see it; only the
// modes below carry behavior.
func (e *Emulator) setDecMode(n int, set bool) {
	mode := ansi.DECMode(n)
	switch mode {
	case modeSaveCursor:
		// ?1048 is an action, not a state.
		if set {
			e.saveCursor()
		} else {
			e.restoreCursor()
		}
		return
	case modeAltScreen47, ansi.ModeAltScreen:
		if set {
			e.enterAltScreen(false)
		} else {
			e.exitAltScreen(false)
		}
	case ansi.ModeAltScreenSaveCursor:
		if set {
			e.enterAltScreen(true)
		} else {
			e.exitAltScreen(true)
		}
	}
	if set {
		e.modes[mode] = ansi.ModeSet
	} else {
		e.modes[mode] = ansi.ModeReset
	}
}

// setAnsiMode applies one ANSI mode change. IRM and LNM are
// recognized as flags without behavior.
func (e *Emulator) setAnsiMode(n int, set bool) {
	mode := ansi.ANSIMode(n)
	switch mode {
	case modeInsertReplace, modeNewline:
	default:
		e.logf("vt: unhandled ANSI mode %d", n)
	}
	if set {
		e.modes[mode] = ansi.ModeSet
	} else {
		e.modes[mode] = ansi.ModeReset
	}
}

// handleEsc handles a completed escape sequence (non-CSI, non-OSC).
func (e *Emulator) handleEsc(intermediates []byte, final byte) {
	if len(intermediates) > 0 {
		// DECALN fills the screen for alignment checks; other
		// intermediate forms (charset selection among them) are
		// consumed without effect.
		if intermediates[0] == '#' && final == '8' {
			e.scr.Fill(newCell('E', 1, Pen{}))
		}
		return
	}
	switch final {
	case '7': // DECSC
		e.saveCursor()
	case '8': // DECRC
		e.restoreCursor()
	case 'D': // IND
		e.index()
	case 'E': // NEL
		e.setCursor(0, e.scr.cur.Y)
		e.index()
	case 'H': // HTS
		e.tabstops.Set(e.scr.cur.X)
	case 'M': // RI
		e.reverseIndex()
	case '=': // DECKPAM
		e.keypadApp = true
	case '>': // DECKPNM
		e.keypadApp = false
	case 'c': // RIS
		e.Reset()
	default:
		e.logf("vt: unhandled ESC %q", final)
	}
}

// Reset performs a full terminal reset (RIS): both screens and the
// scrollback are cleared, modes, pen, tab stops and the scroll region
// return to power-on defaults. The screen size, theme colors and
// callbacks are kept.
func (e *Emulator) Reset() {
	for i := range e.scrs {
		e.scrs[i].Clear(Pen{})
	}
	e.scr = &e.scrs[0]
	e.scrs[0].scrollback.Clear()
	e.pen = Pen{}
	e.saved = savedCursor{}
	e.resetModes()
	e.scrollTop = 0
	e.scrollBottom = e.scr.Height() - 1
	e.tabstops.Reset(e.scr.Width())
	e.keypadApp = false
	e.cursorStyle = 0
	e.title = ""
	e.iconName = ""
	e.cwd = ""
	e.marks = e.marks[:0]
	e.responses = nil
}

// handleOsc handles a completed operating system command. The payload
// arrives without the introducer and terminator.
func (e *Emulator) handleOsc(data []byte) {
	cmd, rest, ok := strings.Cut(string(data), ";")
	if !ok {
		return
	}
	switch cmd {
	case "0":
		e.title = rest
		e.iconName = rest
		if e.cb.Title != nil {
			e.cb.Title(rest)
		}
		if e.cb.IconName != nil {
			e.cb.IconName(rest)
		}
	case "1":
		e.iconName = rest
		if e.cb.IconName != nil {
			e.cb.IconName(rest)
		}
	case "2":
		e.title = rest
		if e.cb.Title != nil {
			e.cb.Title(rest)
		}
	case "7":
		e.cwd = rest
		if e.cb.WorkingDirectory != nil {
			e.cb.WorkingDirectory(rest)
		}
	case "52":
		if e.cb.Clipboard != nil {
			e.cb.Clipboard(rest)
		}
	case "133":
		e.handlePromptMark(rest)
	default:
		e.logf("vt: unhandled OSC %s", cmd)
	}
}

// handlePromptMark records shell integration marks. 'A' marks a
// prompt start and is remembered for prompt navigation; the other
// kinds are only surfaced through the callback.
func (e *Emulator) handlePromptMark(data string) {
	kind, rest, _ := strings.Cut(data, ";")
	if kind == "" {
		return
	}
	row := e.scr.cur.Y
	switch kind[0] {
	case 'A':
		e.marks = append(e.marks, row)
		if len(e.marks) > maxPromptMarks {
			e.marks = append(e.marks[:0], e.marks[len(e.marks)-maxPromptMarks:]...)
		}
	case 'B', 'C', 'D':
	default:
		return
	}
	if e.cb.PromptMark != nil {
		e.cb.PromptMark(kind[0], row, rest)
	}
}
