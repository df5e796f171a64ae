package vt

import (
	"io"

	"github.com/charmbracelet/x/ansi"
)

// Logger represents a logger interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Callbacks are optional hooks fired while the emulator interprets the
// stream. A nil hook is skipped.
type Callbacks struct {
	// Bell is called when the stream rings the terminal bell.
	Bell func()

	// Title is called when the stream sets the window title.
	Title func(title string)

	// IconName is called when the stream sets the icon name.
	IconName func(name string)

	// WorkingDirectory is called when the shell reports its working
	// directory via OSC 7. The value is the raw reported URL.
	WorkingDirectory func(url string)

	// Clipboard is called when the stream offers clipboard data via
	// OSC 52. The payload is passed through uninterpreted.
	Clipboard func(payload string)

	// PromptMark is called on shell integration marks (OSC 133). kind
	// is one of 'A', 'B', 'C' or 'D', row is the cursor row the mark
	// was emitted on and data is the rest of the payload, the exit
	// code for 'D' marks.
	PromptMark func(kind byte, row int, data string)
}

// DEC private modes dispatched by number.
const (
	modeCursorKeys  = ansi.DECMode(1)
	modeOrigin      = ansi.DECMode(6)
	modeTextCursor  = ansi.DECMode(25)
	modeAltScreen47 = ansi.DECMode(47)
	modeSaveCursor  = ansi.DECMode(1048)
)

// ANSI modes recognized but carrying no behavior beyond the flag.
const (
	modeInsertReplace = ansi.ANSIMode(4)
	modeNewline       = ansi.ANSIMode(20)
)

// maxPromptMarks bounds the retained shell integration prompt rows.
const maxPromptMarks = 1000

// savedCursor is the state captured by DECSC and CSI s.
type savedCursor struct {
	cur Cursor
	pen Pen
}

// Emulator is a virtual terminal. It consumes a byte stream of text
// and control sequences through Write and maintains the resulting
// screen, cursor, mode and attribute state. It performs no I/O of its
// own; responses the stream requests (DSR, DA, window reports) are
// buffered and drained with TakeResponses.
//
// An Emulator is not safe for concurrent use; the owner serializes
// access.
type Emulator struct {
	// The terminal's indexed 256 colors. A zero entry falls back to
	// the built-in palette.
	colors [256]Color

	// Both main and alt screens and a pointer to the currently active
	// screen.
	scrs [2]Screen
	scr  *Screen

	// The stream parser feeding this emulator.
	parser *Parser

	// pen is the graphic rendition applied to printed cells.
	pen Pen

	// Terminal modes.
	modes ansi.Modes

	// Scroll region rows, both inclusive.
	scrollTop    int
	scrollBottom int

	// tabstops is the list of tab stops.
	tabstops *TabStops

	saved savedCursor

	// keypadApp tracks DECKPAM/DECKPNM.
	keypadApp bool

	// cursorStyle is the last DECSCUSR argument.
	cursorStyle int

	// CSI dispatch table keyed on (intermediate, final byte).
	csiHandlers map[uint16]func(*csiSeq)

	// responses collects bytes owed to the application side.
	responses []byte

	cb Callbacks

	// The terminal's icon name and title.
	iconName, title string
	// The current reported working directory. This is not validated.
	cwd string

	// marks holds shell integration prompt rows, oldest first.
	marks []int

	// log is the logger to use.
	logger Logger

	// Terminal default colors.
	defaultFg, defaultBg, defaultCur Color

	// Indicates if the terminal is closed.
	closed bool

	// Cell size in pixels for size reporting (XTWINOPS).
	cellWidth  int
	cellHeight int
}

// NewEmulator creates a new virtual terminal emulator of the given
// size with default scrollback.
func NewEmulator(w, h int) *Emulator {
	t := new(Emulator)
	t.scrs[0] = *NewScreen(w, h)
	t.scrs[1] = *NewScreen(w, h)
	t.scrs[0].scrollback = NewScrollback(DefaultScrollbackLines)
	t.scr = &t.scrs[0]
	t.parser = NewParser(Handler{
		Print:     t.print,
		Execute:   t.execute,
		HandleCsi: t.handleCsi,
		HandleEsc: t.handleEsc,
		HandleOsc: t.handleOsc,
	})
	t.resetModes()
	t.tabstops = DefaultTabStops(t.scr.Width())
	t.scrollBottom = t.scr.Height() - 1
	t.registerDefaultHandlers()

	t.defaultFg = RGBColor(204, 204, 204)
	t.defaultBg = RGBColor(0, 0, 0)
	t.defaultCur = RGBColor(204, 204, 204)

	return t
}

// SetLogger sets the terminal's logger.
func (e *Emulator) SetLogger(l Logger) {
	e.logger = l
}

// SetCallbacks sets the terminal's callbacks.
func (e *Emulator) SetCallbacks(cb Callbacks) {
	e.cb = cb
}

// Write feeds stream bytes to the terminal. Partial UTF-8 sequences
// and unterminated control sequences are carried over to the next
// call.
func (e *Emulator) Write(p []byte) (n int, err error) {
	if e.closed {
		return 0, io.ErrClosedPipe
	}
	for i := range p {
		e.parser.Advance(p[i])
	}
	return len(p), nil
}

// WriteString writes a string to the terminal.
func (e *Emulator) WriteString(s string) (n int, err error) {
	return e.Write([]byte(s))
}

// Close closes the terminal. Further writes fail with
// io.ErrClosedPipe.
func (e *Emulator) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return nil
}

// TakeResponses drains and returns the bytes the emulator generated
// in response to queries in the stream (DSR, DA, DECXCPR, window
// reports). The caller forwards them to the application. It returns
// nil when nothing is pending.
func (e *Emulator) TakeResponses() []byte {
	if len(e.responses) == 0 {
		return nil
	}
	out := e.responses
	e.responses = nil
	return out
}

func (e *Emulator) reply(s string) {
	e.responses = append(e.responses, s...)
}

// Height returns the height of the terminal.
func (e *Emulator) Height() int {
	return e.scr.Height()
}

// Width returns the width of the terminal.
func (e *Emulator) Width() int {
	return e.scr.Width()
}

// CellAt returns the cell of the active screen at the given position.
// Out-of-bounds coordinates return the empty cell; queries cross an
// external boundary and never fail.
func (e *Emulator) CellAt(x, y int) Cell {
	if x < 0 || x >= e.scr.Width() || y < 0 || y >= e.scr.Height() {
		return EmptyCell
	}
	return e.scr.CellAt(x, y)
}

// CursorPos returns the cursor position on the active screen.
func (e *Emulator) CursorPos() (x, y int) {
	return e.scr.CursorPos()
}

// IsCursorHidden returns whether the stream hid the cursor (DECTCEM).
func (e *Emulator) IsCursorHidden() bool {
	return !e.isModeSet(modeTextCursor)
}

// IsAltScreen returns whether the alternate screen is active. The
// alternate screen is used by full-screen applications like vim, less
// and htop.
func (e *Emulator) IsAltScreen() bool {
	return e.scr == &e.scrs[1]
}

// CursorKeysApplication returns whether DECCKM application cursor key
// encoding is requested.
func (e *Emulator) CursorKeysApplication() bool {
	return e.isModeSet(modeCursorKeys)
}

// KeypadApplication returns whether DECKPAM application keypad
// encoding is requested.
func (e *Emulator) KeypadApplication() bool {
	return e.keypadApp
}

// BracketedPasteEnabled returns whether pasted text must be bracketed.
func (e *Emulator) BracketedPasteEnabled() bool {
	return e.isModeSet(ansi.ModeBracketedPaste)
}

// Title returns the window title last set by the stream.
func (e *Emulator) Title() string {
	return e.title
}

// IconName returns the icon name last set by the stream.
func (e *Emulator) IconName() string {
	return e.iconName
}

// WorkingDirectory returns the raw working directory URL last
// reported by the shell, or the empty string.
func (e *Emulator) WorkingDirectory() string {
	return e.cwd
}

// CursorStyle returns the last cursor style selected with DECSCUSR,
// zero when never set.
func (e *Emulator) CursorStyle() int {
	return e.cursorStyle
}

// ExtractText returns the visible text between two inclusive screen
// positions in stream order.
func (e *Emulator) ExtractText(startRow, startCol, endRow, endCol int) string {
	return e.scr.ExtractText(startRow, startCol, endRow, endCol)
}

// Scrollback returns the scrollback buffer of the main screen.
// The alternate screen does not maintain scrollback.
func (e *Emulator) Scrollback() *Scrollback {
	return e.scrs[0].scrollback
}

// ScrollbackLen returns the number of lines in the scrollback buffer.
func (e *Emulator) ScrollbackLen() int {
	return e.scrs[0].scrollback.Len()
}

// ScrollbackLine returns a line from the scrollback buffer at the
// given index. Index 0 is the oldest line. Returns nil if index is
// out of bounds.
func (e *Emulator) ScrollbackLine(index int) []Cell {
	return e.scrs[0].scrollback.Line(index)
}

// ClearScrollback clears the scrollback buffer of the main screen.
func (e *Emulator) ClearScrollback() {
	e.scrs[0].scrollback.Clear()
}

// SetScrollbackMaxLines sets the maximum number of lines for the
// scrollback buffer.
func (e *Emulator) SetScrollbackMaxLines(maxLines int) {
	e.scrs[0].scrollback.SetMaxLines(maxLines)
}

// PromptMarks returns the rows of recorded shell integration prompt
// marks, oldest first.
func (e *Emulator) PromptMarks() []int {
	out := make([]int, len(e.marks))
	copy(out, e.marks)
	return out
}

// PrevPrompt returns the nearest prompt row above row, or -1.
func (e *Emulator) PrevPrompt(row int) int {
	for i := len(e.marks) - 1; i >= 0; i-- {
		if e.marks[i] < row {
			return e.marks[i]
		}
	}
	return -1
}

// NextPrompt returns the nearest prompt row below row, or -1.
func (e *Emulator) NextPrompt(row int) int {
	for _, r := range e.marks {
		if r > row {
			return r
		}
	}
	return -1
}

// SetCellSize sets the pixel dimensions of a single character cell.
// Used for XTWINOPS terminal size reporting.
func (e *Emulator) SetCellSize(width, height int) {
	e.cellWidth = width
	e.cellHeight = height
}

// CellSize returns the pixel dimensions of a single character cell.
func (e *Emulator) CellSize() (width, height int) {
	// Default to 8x16 pixels if not set (common VGA text mode dimensions).
	if e.cellWidth == 0 || e.cellHeight == 0 {
		return 8, 16
	}
	return e.cellWidth, e.cellHeight
}

// Resize resizes the terminal. Content in the surviving region is
// preserved, the scroll region resets to the full new height and the
// cursor is clamped into bounds. When the height shrinks past the
// cursor the main screen scrolls so the cursor line stays visible.
func (e *Emulator) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	x, y := e.scr.CursorPos()
	oldHeight := e.Height()

	if e.scr.atPhantom && x < width-1 {
		e.scr.atPhantom = false
		x++
	}

	// Auto-scroll to keep the cursor visible when the height shrinks,
	// pushing departing rows into the scrollback.
	if y >= height && oldHeight > height {
		e.scr.ScrollUp(y-(height-1), e.pen)
		y = height - 1
	} else if y >= height {
		y = height - 1
	}
	x = min(x, width-1)

	e.scrs[0].Resize(width, height)
	e.scrs[1].Resize(width, height)
	e.scrollTop = 0
	e.scrollBottom = height - 1
	e.tabstops.Reset(width)
	e.scr.cur = Cursor{X: x, Y: y}

	if e.isModeSet(ansi.ModeInBandResize) {
		e.reply(ansi.InBandResize(e.Height(), e.Width(), 0, 0))
	}
}

// isModeSet reports whether a mode is currently set.
func (e *Emulator) isModeSet(m ansi.Mode) bool {
	return e.modes[m] == ansi.ModeSet
}

// resetModes restores the power-on mode defaults.
func (e *Emulator) resetModes() {
	e.modes = ansi.Modes{}
	e.modes[ansi.ModeAutoWrap] = ansi.ModeSet
	e.modes[modeTextCursor] = ansi.ModeSet
}

// GetModes returns the numbers of the DEC modes currently set. This is
// used for session state serialization to preserve terminal modes
// across restarts (mouse tracking, bracketed paste, etc.).
func (e *Emulator) GetModes() map[int]bool {
	modes := make(map[int]bool)
	for _, mode := range []ansi.DECMode{
		ansi.ModeMouseX10,
		ansi.ModeMouseNormal,
		ansi.ModeMouseHighlight,
		ansi.ModeMouseButtonEvent,
		ansi.ModeMouseAnyEvent,
		ansi.ModeMouseExtSgr,
		ansi.ModeAltScreen,
		ansi.ModeAltScreenSaveCursor,
		ansi.ModeBracketedPaste,
		ansi.ModeFocusEvent,
		ansi.ModeAutoWrap,
		modeCursorKeys,
		modeOrigin,
		modeTextCursor,
	} {
		if e.isModeSet(mode) {
			modes[int(mode.Mode())] = true
		}
	}
	return modes
}

// RestoreModes restores terminal modes from a saved state without
// triggering mode change side effects such as screen switching.
func (e *Emulator) RestoreModes(modes map[int]bool) {
	if modes == nil {
		return
	}
	for modeNum, enabled := range modes {
		mode := ansi.DECMode(modeNum)
		if enabled {
			e.modes[mode] = ansi.ModeSet
		} else {
			e.modes[mode] = ansi.ModeReset
		}
	}
}

// RestoreAltScreen switches the active screen buffer without touching
// the modes map or clearing content. This is used when rehydrating a
// persisted session.
func (e *Emulator) RestoreAltScreen(enabled bool) {
	if enabled {
		e.scr = &e.scrs[1]
	} else {
		e.scr = &e.scrs[0]
	}
}

// HasMouseMode returns true if any mouse tracking mode is enabled.
func (e *Emulator) HasMouseMode() bool {
	for _, m := range []ansi.DECMode{
		ansi.ModeMouseX10,
		ansi.ModeMouseNormal,
		ansi.ModeMouseHighlight,
		ansi.ModeMouseButtonEvent,
		ansi.ModeMouseAnyEvent,
	} {
		if e.isModeSet(m) {
			return true
		}
	}
	return false
}

// MouseEvent describes a pointer event to forward to the application.
// X and Y are zero-based cell coordinates.
type MouseEvent struct {
	X, Y    int
	Button  ansi.MouseButton
	Motion  bool
	Release bool
	Shift   bool
	Alt     bool
	Ctrl    bool
}

// EncodeMouseEvent encodes a mouse event as the escape sequence the
// application asked for, honoring the tracking and encoding modes the
// stream enabled. It returns the empty string when the event must not
// be forwarded.
func (e *Emulator) EncodeMouseEvent(m MouseEvent) string {
	var enc, mode ansi.Mode

	for _, mm := range []ansi.DECMode{
		ansi.ModeMouseX10,
		ansi.ModeMouseNormal,
		ansi.ModeMouseHighlight,
		ansi.ModeMouseButtonEvent,
		ansi.ModeMouseAnyEvent,
	} {
		if e.isModeSet(mm) {
			mode = mm
		}
	}

	if mode == nil {
		return ""
	}

	// X10 reports presses only; motion needs button-event tracking or
	// wider.
	switch {
	case mode == ansi.ModeMouseX10 && (m.Motion || m.Release):
		return ""
	case m.Motion && mode != ansi.ModeMouseButtonEvent && mode != ansi.ModeMouseAnyEvent:
		return ""
	case m.Motion && mode == ansi.ModeMouseButtonEvent && m.Button == ansi.MouseNone:
		return ""
	}

	if e.isModeSet(ansi.ModeMouseExtSgr) {
		enc = ansi.ModeMouseExtSgr
	}

	b := ansi.EncodeMouseButton(m.Button, m.Motion, m.Shift, m.Alt, m.Ctrl)

	switch enc {
	case nil: // X10 mouse encoding
		return ansi.MouseX10(b, m.X, m.Y)
	case ansi.ModeMouseExtSgr: // SGR mouse encoding
		return ansi.MouseSgr(b, m.X, m.Y, m.Release)
	}
	return ""
}

// EncodePaste encodes pasted text for the application, bracketing it
// when bracketed paste mode is enabled.
func (e *Emulator) EncodePaste(text string) string {
	if e.isModeSet(ansi.ModeBracketedPaste) {
		return ansi.BracketedPasteStart + text + ansi.BracketedPasteEnd
	}
	return text
}

// EncodeFocus encodes a focus change report, or the empty string when
// the application did not ask for focus events.
func (e *Emulator) EncodeFocus(focused bool) string {
	if !e.isModeSet(ansi.ModeFocusEvent) {
		return ""
	}
	if focused {
		return "\x1b[I"
	}
	return "\x1b[O"
}

// ForegroundColor returns the terminal's default foreground color.
func (e *Emulator) ForegroundColor() Color {
	return e.defaultFg
}

// BackgroundColor returns the terminal's default background color.
func (e *Emulator) BackgroundColor() Color {
	return e.defaultBg
}

// CursorColor returns the terminal's cursor color.
func (e *Emulator) CursorColor() Color {
	return e.defaultCur
}

// IndexedColor returns a terminal's indexed color resolved to RGB. An
// indexed color is a color between 0 and 255.
func (e *Emulator) IndexedColor(i int) Color {
	if i < 0 || i > 255 {
		return DefaultColor
	}
	if c := e.colors[i]; !c.IsDefault() {
		return c
	}
	if i < 16 {
		return ansiPalette[i]
	}
	return color256(i)
}

// SetIndexedColor overrides one of the terminal's 256 indexed colors.
func (e *Emulator) SetIndexedColor(i int, c Color) {
	if i < 0 || i > 255 {
		return
	}
	e.colors[i] = c
}

// SetThemeColors sets the terminal's default foreground, background
// and cursor colors along with the first 16 ANSI colors. Zero palette
// entries keep the built-in colors. Theme colors survive a full
// terminal reset.
func (e *Emulator) SetThemeColors(fg, bg, cur Color, palette [16]Color) {
	if !fg.IsDefault() {
		e.defaultFg = fg
	}
	if !bg.IsDefault() {
		e.defaultBg = bg
	}
	if !cur.IsDefault() {
		e.defaultCur = cur
	}
	for i, c := range palette {
		if !c.IsDefault() {
			e.colors[i] = c
		}
	}
}

// ResolveColor resolves a cell color to concrete RGB: default colors
// resolve against the terminal defaults, indexed colors against the
// palette.
func (e *Emulator) ResolveColor(c Color, fg bool) Color {
	switch {
	case c.IsIndexed():
		return e.IndexedColor(int(c.Index()))
	case c.IsDefault() && fg:
		return e.defaultFg
	case c.IsDefault():
		return e.defaultBg
	}
	return c
}

func (e *Emulator) logf(format string, v ...any) {
	if e.logger != nil {
		e.logger.Printf(format, v...)
	}
}
