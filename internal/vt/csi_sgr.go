package vt

// csiSgr handles Select Graphic Rendition (SGR) sequences, folding
// each parameter into the pen applied to subsequent prints.
func (e *Emulator) csiSgr(s *csiSeq) {
	e.readStyle(s.params, &e.pen)
}

// readStyle reads SGR parameters into pen. Palette colors are stored
// as indexed references and resolved against the theme when read, so
// a later theme change restyles existing cells.
func (e *Emulator) readStyle(params []int, pen *Pen) {
	if len(params) == 0 {
		*pen = Pen{}
		return
	}

	for i := 0; i < len(params); i++ {
		switch p := params[i]; p {
		case 0: // Reset
			*pen = Pen{}
		case 1: // Bold
			pen.Attrs |= AttrBold
		case 2: // Dim/Faint
			pen.Attrs |= AttrFaint
		case 3: // Italic
			pen.Attrs |= AttrItalic
		case 4: // Underline
			pen.Attrs |= AttrUnderline
		case 5, 6: // Blink
			pen.Attrs |= AttrBlink
		case 7: // Reverse
			pen.Attrs |= AttrInverse
		case 8: // Conceal
			pen.Attrs |= AttrHidden
		case 9: // Strikethrough
			pen.Attrs |= AttrStrike
		case 22: // Normal intensity
			pen.Attrs &^= AttrBold | AttrFaint
		case 23: // Not italic
			pen.Attrs &^= AttrItalic
		case 24: // Not underlined
			pen.Attrs &^= AttrUnderline
		case 25: // Blink off
			pen.Attrs &^= AttrBlink
		case 27: // Positive
			pen.Attrs &^= AttrInverse
		case 28: // Reveal
			pen.Attrs &^= AttrHidden
		case 29: // Not crossed out
			pen.Attrs &^= AttrStrike
		case 30, 31, 32, 33, 34, 35, 36, 37: // Foreground
			pen.Fg = IndexedColor(uint8(p - 30))
		case 38: // Foreground, 256 or truecolor
			if c, n, ok := readSgrColor(params, i); n > 0 {
				if ok {
					pen.Fg = c
				}
				i += n
			}
		case 39: // Default foreground
			pen.Fg = DefaultColor
		case 40, 41, 42, 43, 44, 45, 46, 47: // Background
			pen.Bg = IndexedColor(uint8(p - 40))
		case 48: // Background, 256 or truecolor
			if c, n, ok := readSgrColor(params, i); n > 0 {
				if ok {
					pen.Bg = c
				}
				i += n
			}
		case 49: // Default background
			pen.Bg = DefaultColor
		case 58: // Underline color, consumed but unsupported
			if _, n, _ := readSgrColor(params, i); n > 0 {
				i += n
			}
		case 59: // Default underline color, unsupported
		case 90, 91, 92, 93, 94, 95, 96, 97: // Bright foreground
			pen.Fg = IndexedColor(uint8(p - 90 + 8))
		case 100, 101, 102, 103, 104, 105, 106, 107: // Bright background
			pen.Bg = IndexedColor(uint8(p - 100 + 8))
		}
	}
}

// readSgrColor reads the extended color form following a 38/48/58
// introducer at params[i]. It returns the color, how many parameters
// past the introducer were consumed, and whether a usable color was
// read. Unknown forms consume nothing so the stream resynchronizes on
// the next parameter; truncated known forms consume the remainder.
func readSgrColor(params []int, i int) (Color, int, bool) {
	if i+1 >= len(params) {
		return DefaultColor, 0, false
	}
	switch params[i+1] {
	case 5: // indexed color
		if i+2 >= len(params) {
			return DefaultColor, len(params) - i - 1, false
		}
		idx := params[i+2]
		if idx < 0 || idx > 255 {
			return DefaultColor, 2, false
		}
		return IndexedColor(uint8(idx)), 2, true
	case 2: // direct RGB
		if i+4 >= len(params) {
			return DefaultColor, len(params) - i - 1, false
		}
		return RGBColor(
			clampColorComponent(params[i+2]),
			clampColorComponent(params[i+3]),
			clampColorComponent(params[i+4]),
		), 4, true
	}
	return DefaultColor, 0, false
}

func clampColorComponent(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
