package viewer

import (
	"io"
	"strings"
)

// RestoreHost writes the reset sequences that undo every mode the
// viewer enables on the host terminal: mouse tracking, focus
// reporting, the alternate screen, and a hidden cursor. The program
// normally restores these on exit; this covers the paths where it
// could not.
func RestoreHost(w io.Writer) {
	var sb strings.Builder
	sb.WriteString("\x1b[?1000l") // normal mouse tracking off
	sb.WriteString("\x1b[?1002l") // button-event tracking off
	sb.WriteString("\x1b[?1003l") // all-motion tracking off
	sb.WriteString("\x1b[?1006l") // SGR mouse encoding off
	sb.WriteString("\x1b[?1004l") // focus reporting off
	sb.WriteString("\x1b[?2004l") // bracketed paste off
	sb.WriteString("\x1b[?1049l") // back to the main screen
	sb.WriteString("\x1b[?25h")   // cursor visible
	sb.WriteString("\x1b[0m")     // attributes reset
	_, _ = io.WriteString(w, sb.String())
}
