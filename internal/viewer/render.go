package viewer

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/termforge/termcore/internal/render"
	"github.com/termforge/termcore/internal/vt"
)

// cellLook is the styling identity of a cell. Runs of cells with the
// same look render as one styled string instead of one per cell.
type cellLook struct {
	fg     vt.Color
	bg     vt.Color
	attrs  vt.AttrMask
	cursor bool
}

// renderFrame paints a snapshot as styled lines. Frame colors arrive
// already resolved to RGB, so the look maps straight to styles.
func renderFrame(f *render.Frame) string {
	var sb strings.Builder
	sb.Grow(f.Cols * f.Rows * 2)
	for y := 0; y < f.Rows; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		renderRow(&sb, f, y)
	}
	return sb.String()
}

func renderRow(sb *strings.Builder, f *render.Frame, y int) {
	var batch strings.Builder
	var look cellLook
	started := false

	flush := func() {
		if batch.Len() == 0 {
			return
		}
		sb.WriteString(lookStyle(look).Render(batch.String()))
		batch.Reset()
	}

	for x := 0; x < f.Cols; {
		c := f.Cell(x, y)
		if c.Width == 0 {
			// Spacer behind a wide rune.
			x++
			continue
		}

		cl := cellLook{
			fg:     c.Fg,
			bg:     c.Bg,
			attrs:  c.Attrs,
			cursor: f.CursorVisible && x == f.CursorX && y == f.CursorY,
		}
		if !started || cl != look {
			flush()
			look = cl
			started = true
		}
		batch.WriteRune(c.Rune)
		x += int(c.Width)
	}
	flush()
}

// lookStyle builds the lipgloss style for a cell look. The cursor
// shows by swapping foreground and background.
func lookStyle(l cellLook) lipgloss.Style {
	fg, bg := l.fg, l.bg
	if l.cursor {
		fg, bg = bg, fg
	}

	st := lipgloss.NewStyle()
	if fg.IsRGB() {
		st = st.Foreground(lipgloss.Color(hexColor(fg)))
	}
	if bg.IsRGB() {
		st = st.Background(lipgloss.Color(hexColor(bg)))
	}

	if l.attrs != 0 {
		if l.attrs.Contains(vt.AttrBold) {
			st = st.Bold(true)
		}
		if l.attrs.Contains(vt.AttrFaint) {
			st = st.Faint(true)
		}
		if l.attrs.Contains(vt.AttrItalic) {
			st = st.Italic(true)
		}
		if l.attrs.Contains(vt.AttrUnderline) {
			st = st.Underline(true)
		}
		if l.attrs.Contains(vt.AttrBlink) {
			st = st.Blink(true)
		}
		if l.attrs.Contains(vt.AttrInverse) {
			st = st.Reverse(true)
		}
		if l.attrs.Contains(vt.AttrStrike) {
			st = st.Strikethrough(true)
		}
	}
	return st
}

func hexColor(c vt.Color) string {
	return fmt.Sprintf("#%06x", c.Packed())
}
