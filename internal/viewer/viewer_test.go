package viewer

import (
	"bytes"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/termforge/termcore/internal/config"
	"github.com/termforge/termcore/internal/render"
	"github.com/termforge/termcore/internal/session"
	"github.com/termforge/termcore/internal/vt"
)

// TestKeyBytes tests translation of key presses to PTY byte
// sequences.
func TestKeyBytes(t *testing.T) {
	tests := []struct {
		name      string
		msg       tea.KeyPressMsg
		appCursor bool
		want      []byte
	}{
		{"printable", tea.KeyPressMsg{Code: 'a', Text: "a"}, false, []byte("a")},
		{"unicode", tea.KeyPressMsg{Code: 'é', Text: "é"}, false, []byte("é")},
		{"enter", tea.KeyPressMsg{Code: tea.KeyEnter}, false, []byte{'\r'}},
		{"tab", tea.KeyPressMsg{Code: tea.KeyTab}, false, []byte{'\t'}},
		{"backspace", tea.KeyPressMsg{Code: tea.KeyBackspace}, false, []byte{0x7f}},
		{"escape", tea.KeyPressMsg{Code: tea.KeyEscape}, false, []byte{0x1b}},
		{"space", tea.KeyPressMsg{Code: tea.KeySpace}, false, []byte(" ")},
		{"delete", tea.KeyPressMsg{Code: tea.KeyDelete}, false, []byte("\x1b[3~")},
		{"page up", tea.KeyPressMsg{Code: tea.KeyPgUp}, false, []byte("\x1b[5~")},
		{"up normal", tea.KeyPressMsg{Code: tea.KeyUp}, false, []byte("\x1b[A")},
		{"up application", tea.KeyPressMsg{Code: tea.KeyUp}, true, []byte("\x1bOA")},
		{"left application", tea.KeyPressMsg{Code: tea.KeyLeft}, true, []byte("\x1bOD")},
		{"home normal", tea.KeyPressMsg{Code: tea.KeyHome}, false, []byte("\x1b[H")},
		{"home application", tea.KeyPressMsg{Code: tea.KeyHome}, true, []byte("\x1bOH")},
		{"f1", tea.KeyPressMsg{Code: tea.KeyF1}, false, []byte("\x1bOP")},
		{"f5", tea.KeyPressMsg{Code: tea.KeyF5}, false, []byte("\x1b[15~")},
		{"f12", tea.KeyPressMsg{Code: tea.KeyF12}, false, []byte("\x1b[24~")},
		{"ctrl+c", tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}, false, []byte{0x03}},
		{"ctrl+z", tea.KeyPressMsg{Code: 'z', Mod: tea.ModCtrl}, false, []byte{0x1a}},
		{"ctrl+space", tea.KeyPressMsg{Code: tea.KeySpace, Mod: tea.ModCtrl}, false, []byte{0x00}},
		{"ctrl+backslash", tea.KeyPressMsg{Code: '\\', Mod: tea.ModCtrl}, false, []byte{0x1c}},
		{"alt+x", tea.KeyPressMsg{Code: 'x', Mod: tea.ModAlt, Text: "x"}, false, []byte{0x1b, 'x'}},
		{"alt+backspace", tea.KeyPressMsg{Code: tea.KeyBackspace, Mod: tea.ModAlt}, false, []byte{0x1b, 0x7f}},
		{"shift+up", tea.KeyPressMsg{Code: tea.KeyUp, Mod: tea.ModShift}, false, []byte("\x1b[1;2A")},
		{"ctrl+right", tea.KeyPressMsg{Code: tea.KeyRight, Mod: tea.ModCtrl}, false, []byte("\x1b[1;5C")},
		// Modified cursor keys stay CSI even in application mode.
		{"ctrl+right application", tea.KeyPressMsg{Code: tea.KeyRight, Mod: tea.ModCtrl}, true, []byte("\x1b[1;5C")},
		{"shift+f5", tea.KeyPressMsg{Code: tea.KeyF5, Mod: tea.ModShift}, false, []byte("\x1b[15;2~")},
		{"ctrl+f1", tea.KeyPressMsg{Code: tea.KeyF1, Mod: tea.ModCtrl}, false, []byte("\x1b[1;5P")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keyBytes(tt.msg, tt.appCursor)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("key bytes mismatch: got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestMouseButtonMapping tests the UI to wire button translation.
func TestMouseButtonMapping(t *testing.T) {
	tests := []struct {
		in   tea.MouseButton
		want ansi.MouseButton
	}{
		{tea.MouseLeft, ansi.MouseLeft},
		{tea.MouseMiddle, ansi.MouseMiddle},
		{tea.MouseRight, ansi.MouseRight},
		{tea.MouseWheelUp, ansi.MouseWheelUp},
		{tea.MouseWheelDown, ansi.MouseWheelDown},
		{tea.MouseNone, ansi.MouseNone},
	}
	for _, tt := range tests {
		if got := mouseButton(tt.in); got != tt.want {
			t.Errorf("button mismatch: got %v, want %v", got, tt.want)
		}
	}
}

// TestRenderFrame tests grid painting with styles stripped.
func TestRenderFrame(t *testing.T) {
	f := &render.Frame{
		Cols: 4,
		Rows: 2,
		Cells: []vt.Cell{
			{Rune: 'h', Width: 1, Fg: vt.RGBColor(204, 204, 204), Bg: vt.RGBColor(0, 0, 0)},
			{Rune: 'i', Width: 1, Fg: vt.RGBColor(205, 49, 49), Bg: vt.RGBColor(0, 0, 0), Attrs: vt.AttrBold},
			{Rune: ' ', Width: 1, Fg: vt.RGBColor(204, 204, 204), Bg: vt.RGBColor(0, 0, 0)},
			{Rune: ' ', Width: 1, Fg: vt.RGBColor(204, 204, 204), Bg: vt.RGBColor(0, 0, 0)},
			{Rune: '界', Width: 2, Fg: vt.RGBColor(204, 204, 204), Bg: vt.RGBColor(0, 0, 0)},
			{Rune: 0, Width: 0},
			{Rune: '!', Width: 1, Fg: vt.RGBColor(204, 204, 204), Bg: vt.RGBColor(0, 0, 0)},
			{Rune: ' ', Width: 1, Fg: vt.RGBColor(204, 204, 204), Bg: vt.RGBColor(0, 0, 0)},
		},
	}

	out := renderFrame(f)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("line count mismatch: got %d, want 2", len(lines))
	}
	if got := ansi.Strip(lines[0]); got != "hi  " {
		t.Errorf("row 0 mismatch: got %q, want %q", got, "hi  ")
	}
	if got := ansi.Strip(lines[1]); got != "界! " {
		t.Errorf("row 1 mismatch: got %q, want %q", got, "界! ")
	}
}

// TestRenderFrameCursor tests that the cursor inverts its cell.
func TestRenderFrameCursor(t *testing.T) {
	cells := []vt.Cell{
		{Rune: 'x', Width: 1, Fg: vt.RGBColor(10, 20, 30), Bg: vt.RGBColor(40, 50, 60)},
	}
	plain := renderFrame(&render.Frame{Cols: 1, Rows: 1, Cells: cells})
	cursor := renderFrame(&render.Frame{Cols: 1, Rows: 1, Cells: cells, CursorVisible: true})

	if plain == cursor {
		t.Error("cursor cell rendered identically to plain cell")
	}
	if got := ansi.Strip(cursor); got != "x" {
		t.Errorf("cursor cell text mismatch: got %q, want %q", got, "x")
	}
}

// TestModelResize tests that window size changes reach the session.
func TestModelResize(t *testing.T) {
	sess, err := session.New(config.DefaultConfig(), 80, 24)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer sess.Close()

	m := New(sess)
	if _, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40}); cmd != nil {
		t.Error("resize returned a command")
	}
	cols, rows := sess.GridSize()
	if cols != 120 || rows != 40 {
		t.Errorf("grid size mismatch: got %dx%d, want 120x40", cols, rows)
	}
}

// TestModelChildExit tests that a child exit quits the program.
func TestModelChildExit(t *testing.T) {
	sess, err := session.New(config.DefaultConfig(), 80, 24)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer sess.Close()

	m := New(sess)
	_, cmd := m.Update(childExitMsg{})
	if cmd == nil {
		t.Fatal("child exit produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("child exit did not quit")
	}
	if m.Err() != nil {
		t.Errorf("clean exit reported error: %v", m.Err())
	}
}

// TestModelViewContent tests that fed session content lands in the
// rendered frame.
func TestModelViewContent(t *testing.T) {
	sess, err := session.New(config.DefaultConfig(), 20, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer sess.Close()
	if _, err := sess.Feed([]byte("hello viewer")); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}

	out := renderFrame(sess.Snapshot())
	if got := ansi.Strip(strings.Split(out, "\n")[0]); !strings.HasPrefix(got, "hello viewer") {
		t.Errorf("frame content mismatch: got %q", got)
	}
}
