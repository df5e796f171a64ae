package viewer

import (
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

// keyBytes translates a key press into the byte sequence a terminal
// application expects. appCursor selects SS3 encoding for the cursor
// and home/end keys, which applications enable via DECCKM.
func keyBytes(msg tea.KeyPressMsg, appCursor bool) []byte {
	key := msg.Key()

	if key.Mod != 0 {
		if key.Mod&tea.ModCtrl != 0 {
			if b := ctrlKeyBytes(key.Code); b != nil {
				return b
			}
		}

		if key.Mod&tea.ModAlt != 0 {
			switch key.Code {
			case tea.KeyBackspace:
				return []byte{0x1b, 0x7f}
			default:
				// Alt+character sends ESC followed by the character.
				if len(key.Text) == 1 {
					return []byte{0x1b, key.Text[0]}
				}
				if key.Code >= 32 && key.Code <= 126 {
					return []byte{0x1b, byte(key.Code)}
				}
			}
		}

		if seq := modifiedKeyBytes(key, appCursor); len(seq) > 0 {
			return seq
		}
	}

	switch key.Code {
	case tea.KeyEnter:
		return []byte{'\r'}
	case tea.KeyTab:
		return []byte{'\t'}
	case tea.KeyBackspace:
		return []byte{0x7f}
	case tea.KeyEscape:
		return []byte{0x1b}
	case tea.KeySpace:
		return []byte{' '}
	case tea.KeyDelete:
		return []byte{0x1b, '[', '3', '~'}
	case tea.KeyInsert:
		return []byte{0x1b, '[', '2', '~'}
	case tea.KeyPgUp:
		return []byte{0x1b, '[', '5', '~'}
	case tea.KeyPgDown:
		return []byte{0x1b, '[', '6', '~'}
	case tea.KeyUp:
		return cursorKeyBytes('A', appCursor)
	case tea.KeyDown:
		return cursorKeyBytes('B', appCursor)
	case tea.KeyRight:
		return cursorKeyBytes('C', appCursor)
	case tea.KeyLeft:
		return cursorKeyBytes('D', appCursor)
	case tea.KeyHome:
		return cursorKeyBytes('H', appCursor)
	case tea.KeyEnd:
		return cursorKeyBytes('F', appCursor)
	}

	if seq := functionKeyBytes(key.Code); len(seq) > 0 {
		return seq
	}

	// Printable characters carry their text, which handles Unicode and
	// shifted keys.
	if key.Text != "" {
		return []byte(key.Text)
	}
	if key.Code >= 32 && key.Code <= 126 {
		return []byte{byte(key.Code)}
	}

	return nil
}

// ctrlKeyBytes maps Ctrl combinations to their control codes.
func ctrlKeyBytes(code rune) []byte {
	switch code {
	case tea.KeySpace, '@':
		return []byte{0x00}
	case tea.KeyBackspace:
		return []byte{0x08}
	case tea.KeyTab:
		return []byte{0x09}
	case tea.KeyEnter:
		return []byte{0x0a}
	case tea.KeyEscape, '[':
		return []byte{0x1b}
	case '\\':
		return []byte{0x1c}
	case ']':
		return []byte{0x1d}
	case '^':
		return []byte{0x1e}
	case '_':
		return []byte{0x1f}
	case '?':
		return []byte{0x7f}
	}
	if code >= 'a' && code <= 'z' {
		return []byte{byte(code - 'a' + 1)}
	}
	if code >= 'A' && code <= 'Z' {
		return []byte{byte(code - 'A' + 1)}
	}
	return nil
}

// cursorKeyBytes encodes a cursor key final byte as CSI or, in
// application cursor keys mode, SS3.
func cursorKeyBytes(final byte, appCursor bool) []byte {
	if appCursor {
		return []byte{0x1b, 'O', final}
	}
	return []byte{0x1b, '[', final}
}

// modifiedKeyBytes encodes cursor and function keys carrying Shift,
// Alt or Ctrl as CSI sequences with a modifier parameter.
func modifiedKeyBytes(key tea.Key, appCursor bool) []byte {
	mod := modParam(key.Mod)

	if seq := functionKeySequence(key.Code, mod); len(seq) > 0 {
		return seq
	}

	if final := cursorKeyFinal(key.Code); final != 0 {
		if mod <= 1 {
			return cursorKeyBytes(final, appCursor)
		}
		// Modified cursor keys are always CSI 1;mod regardless of
		// DECCKM, matching xterm.
		return []byte{0x1b, '[', '1', ';', byte('0' + mod), final}
	}

	return nil
}

// modParam computes the xterm modifier parameter for CSI sequences.
func modParam(mod tea.KeyMod) int {
	p := 1
	if mod&tea.ModShift != 0 {
		p++
	}
	if mod&tea.ModAlt != 0 {
		p += 2
	}
	if mod&tea.ModCtrl != 0 {
		p += 4
	}
	return p
}

// cursorKeyFinal returns the final byte for cursor movement keys, or
// zero for anything else.
func cursorKeyFinal(code rune) byte {
	switch code {
	case tea.KeyUp:
		return 'A'
	case tea.KeyDown:
		return 'B'
	case tea.KeyRight:
		return 'C'
	case tea.KeyLeft:
		return 'D'
	case tea.KeyHome:
		return 'H'
	case tea.KeyEnd:
		return 'F'
	}
	return 0
}

// functionKeyBytes returns the unmodified encoding for F1-F12.
func functionKeyBytes(code rune) []byte {
	switch code {
	case tea.KeyF1:
		return []byte{0x1b, 'O', 'P'}
	case tea.KeyF2:
		return []byte{0x1b, 'O', 'Q'}
	case tea.KeyF3:
		return []byte{0x1b, 'O', 'R'}
	case tea.KeyF4:
		return []byte{0x1b, 'O', 'S'}
	case tea.KeyF5:
		return []byte("\x1b[15~")
	case tea.KeyF6:
		return []byte("\x1b[17~")
	case tea.KeyF7:
		return []byte("\x1b[18~")
	case tea.KeyF8:
		return []byte("\x1b[19~")
	case tea.KeyF9:
		return []byte("\x1b[20~")
	case tea.KeyF10:
		return []byte("\x1b[21~")
	case tea.KeyF11:
		return []byte("\x1b[23~")
	case tea.KeyF12:
		return []byte("\x1b[24~")
	}
	return nil
}

// functionKeySequence encodes F1-F12 with a modifier parameter.
func functionKeySequence(code rune, mod int) []byte {
	// F1-F4 use SS3 finals unmodified and CSI 1;mod with modifiers.
	var ss3 byte
	switch code {
	case tea.KeyF1:
		ss3 = 'P'
	case tea.KeyF2:
		ss3 = 'Q'
	case tea.KeyF3:
		ss3 = 'R'
	case tea.KeyF4:
		ss3 = 'S'
	}
	if ss3 != 0 {
		if mod <= 1 {
			return []byte{0x1b, 'O', ss3}
		}
		return []byte{0x1b, '[', '1', ';', byte('0' + mod), ss3}
	}

	var num int
	switch code {
	case tea.KeyF5:
		num = 15
	case tea.KeyF6:
		num = 17
	case tea.KeyF7:
		num = 18
	case tea.KeyF8:
		num = 19
	case tea.KeyF9:
		num = 20
	case tea.KeyF10:
		num = 21
	case tea.KeyF11:
		num = 23
	case tea.KeyF12:
		num = 24
	default:
		return nil
	}
	return csiTilde(num, mod)
}

// csiTilde builds a CSI num;mod ~ sequence, omitting the modifier
// when it is the default.
func csiTilde(num, mod int) []byte {
	b := make([]byte, 0, 8)
	b = append(b, 0x1b, '[')
	b = append(b, byte('0'+num/10), byte('0'+num%10))
	if mod > 1 {
		b = append(b, ';', byte('0'+mod))
	}
	return append(b, '~')
}

// mouseButton maps a UI mouse button to its wire value.
func mouseButton(b tea.MouseButton) ansi.MouseButton {
	switch b {
	case tea.MouseLeft:
		return ansi.MouseLeft
	case tea.MouseMiddle:
		return ansi.MouseMiddle
	case tea.MouseRight:
		return ansi.MouseRight
	case tea.MouseWheelUp:
		return ansi.MouseWheelUp
	case tea.MouseWheelDown:
		return ansi.MouseWheelDown
	case tea.MouseWheelLeft:
		return ansi.MouseWheelLeft
	case tea.MouseWheelRight:
		return ansi.MouseWheelRight
	case tea.MouseBackward:
		return ansi.MouseBackward
	case tea.MouseForward:
		return ansi.MouseForward
	default:
		return ansi.MouseNone
	}
}
