package vt

import (
	"github.com/mattn/go-runewidth"
)

// AttrMask is a bitfield of cell display attributes.
type AttrMask uint8

// Cell attribute flags.
const (
	AttrBold AttrMask = 1 << iota
	AttrFaint
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrInverse
	AttrHidden
	AttrStrike
)

// Contains reports whether all flags in m are set.
func (a AttrMask) Contains(m AttrMask) bool {
	return a&m == m
}

// Color is a packed terminal color. The zero value is the "default"
// color, which resolves to the terminal's default foreground or
// background depending on where it is used. The other two kinds are an
// indexed palette color (0-255) and a direct 24-bit RGB color.
type Color uint32

const (
	colorKindIndexed uint32 = 1 << 24
	colorKindRGB     uint32 = 2 << 24
	colorKindMask    uint32 = 3 << 24
)

// DefaultColor is the unset color.
const DefaultColor Color = 0

// IndexedColor returns a palette color with the given index.
func IndexedColor(i uint8) Color {
	return Color(colorKindIndexed | uint32(i))
}

// RGBColor returns a direct 24-bit color.
func RGBColor(r, g, b uint8) Color {
	return Color(colorKindRGB | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// IsDefault reports whether c is the default color.
func (c Color) IsDefault() bool {
	return uint32(c)&colorKindMask == 0
}

// IsIndexed reports whether c is a palette color.
func (c Color) IsIndexed() bool {
	return uint32(c)&colorKindMask == colorKindIndexed
}

// IsRGB reports whether c is a direct 24-bit color.
func (c Color) IsRGB() bool {
	return uint32(c)&colorKindMask == colorKindRGB
}

// Index returns the palette index of an indexed color.
func (c Color) Index() uint8 {
	return uint8(c & 0xff)
}

// RGB returns the components of a direct color.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16 & 0xff), uint8(c >> 8 & 0xff), uint8(c & 0xff)
}

// Packed returns the color as 0x00RRGGBB. Only meaningful for RGB
// colors; indexed and default colors must be resolved first.
func (c Color) Packed() uint32 {
	return uint32(c) &^ colorKindMask
}

// Pen is the current graphic rendition applied to newly written cells.
type Pen struct {
	Fg    Color
	Bg    Color
	Attrs AttrMask
}

// Cell is a single character cell. Rune 0 with Width 0 marks the
// spacer cell behind a double-width rune; every other cell holds a
// complete rune, never partial UTF-8.
type Cell struct {
	Rune  rune
	Width uint8
	Fg    Color
	Bg    Color
	Attrs AttrMask
}

// EmptyCell is a blank cell with default colors.
var EmptyCell = Cell{Rune: ' ', Width: 1}

// blankCell returns the cell used to fill erased regions: a space
// carrying the pen's background so erase honors the current SGR
// background, with no other styling.
func blankCell(pen Pen) Cell {
	return Cell{Rune: ' ', Width: 1, Bg: pen.Bg}
}

// newCell builds a cell from the pen and a rune of the given width.
func newCell(r rune, width int, pen Pen) Cell {
	return Cell{
		Rune:  r,
		Width: uint8(width), //nolint:gosec // width is 0..2
		Fg:    pen.Fg,
		Bg:    pen.Bg,
		Attrs: pen.Attrs,
	}
}

// spacerCell is the placeholder written behind a double-width rune.
func spacerCell(pen Pen) Cell {
	return Cell{Rune: 0, Width: 0, Fg: pen.Fg, Bg: pen.Bg, Attrs: pen.Attrs}
}

// runeDisplayWidth returns the number of columns a rune occupies:
// 0 for combining/zero-width runes, 2 for wide CJK and emoji, else 1.
func runeDisplayWidth(r rune) int {
	if r == 0 {
		return 0
	}
	return runewidth.RuneWidth(r)
}

// ansiPalette holds the base 16 ANSI colors used when no theme
// overrides them.
var ansiPalette = [16]Color{
	RGBColor(0, 0, 0),       // black
	RGBColor(205, 49, 49),   // red
	RGBColor(13, 188, 121),  // green
	RGBColor(229, 229, 16),  // yellow
	RGBColor(36, 114, 200),  // blue
	RGBColor(188, 63, 188),  // magenta
	RGBColor(17, 168, 205),  // cyan
	RGBColor(204, 204, 204), // white
	RGBColor(102, 102, 102), // bright black
	RGBColor(241, 76, 76),   // bright red
	RGBColor(35, 209, 139),  // bright green
	RGBColor(245, 245, 67),  // bright yellow
	RGBColor(59, 142, 234),  // bright blue
	RGBColor(214, 112, 214), // bright magenta
	RGBColor(41, 184, 219),  // bright cyan
	RGBColor(242, 242, 242), // bright white
}

// color256 converts a 256-color palette index to its RGB value: the 16
// ANSI colors, the 6x6x6 color cube, then the grayscale ramp.
func color256(i int) Color {
	switch {
	case i < 0 || i > 255:
		return DefaultColor
	case i < 16:
		return ansiPalette[i]
	case i < 232:
		c := i - 16
		conv := func(v int) uint8 {
			if v == 0 {
				return 0
			}
			return uint8(55 + 40*v) //nolint:gosec // v is 0..5
		}
		return RGBColor(conv(c/36%6), conv(c/6%6), conv(c%6))
	default:
		v := uint8(8 + 10*(i-232)) //nolint:gosec // i is 232..255
		return RGBColor(v, v, v)
	}
}
