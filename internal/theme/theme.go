// Package theme resolves the terminal's default colors and ANSI
// palette from a named tint or the user's configured hex values.
package theme

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	tint "github.com/lrstanley/bubbletint/v2"

	"github.com/termforge/termcore/internal/config"
	"github.com/termforge/termcore/internal/vt"
)

var enabled bool

// Initialize sets up the tint registry with the named theme. Call
// this once at startup. An empty name or "default" disables tinting;
// the config's hex colors and palette are used instead. An unknown
// name also falls back to the config colors.
func Initialize(name string) error {
	if name == "" || name == "default" {
		enabled = false
		return nil
	}

	tint.NewDefaultRegistry()
	enabled = tint.SetTintID(name)
	return nil
}

// IsEnabled returns true if a tint is active.
func IsEnabled() bool {
	return enabled
}

// Current returns the currently active tint.
// Returns nil if tinting is disabled.
func Current() *tint.Tint {
	if !enabled {
		return nil
	}
	return tint.Current()
}

// Foreground returns the terminal's default foreground color.
func Foreground(cfg *config.Config) vt.Color {
	if t := Current(); t != nil {
		return FromColor(t.Fg)
	}
	if c, ok := ParseHex(conf(cfg).Colors.Foreground); ok {
		return c
	}
	return vt.RGBColor(0xcc, 0xcc, 0xcc)
}

// Background returns the terminal's default background color.
func Background(cfg *config.Config) vt.Color {
	if t := Current(); t != nil {
		return FromColor(t.Bg)
	}
	if c, ok := ParseHex(conf(cfg).Colors.Background); ok {
		return c
	}
	return vt.RGBColor(0, 0, 0)
}

// Cursor returns the cursor color. An unset or invalid hex falls back
// to the foreground.
func Cursor(cfg *config.Config) vt.Color {
	if t := Current(); t != nil {
		return FromColor(t.Cursor)
	}
	if c, ok := ParseHex(conf(cfg).Colors.Cursor); ok {
		return c
	}
	return Foreground(cfg)
}

// ANSIPalette returns the 16 ANSI colors (0-15) injected into the
// terminal emulator, from the active tint or the config palette.
// Invalid hex entries keep the emulator's built-in color.
func ANSIPalette(cfg *config.Config) [16]vt.Color {
	if t := Current(); t != nil {
		return [16]vt.Color{
			FromColor(t.Black),        // 0
			FromColor(t.Red),          // 1
			FromColor(t.Green),        // 2
			FromColor(t.Yellow),       // 3
			FromColor(t.Blue),         // 4
			FromColor(t.Purple),       // 5
			FromColor(t.Cyan),         // 6
			FromColor(t.White),        // 7
			FromColor(t.BrightBlack),  // 8
			FromColor(t.BrightRed),    // 9
			FromColor(t.BrightGreen),  // 10
			FromColor(t.BrightYellow), // 11
			FromColor(t.BrightBlue),   // 12
			FromColor(t.BrightPurple), // 13
			FromColor(t.BrightCyan),   // 14
			FromColor(t.BrightWhite),  // 15
		}
	}

	var palette [16]vt.Color
	for i, hex := range conf(cfg).PaletteOrDefault() {
		if i >= 16 {
			break
		}
		if c, ok := ParseHex(hex); ok {
			palette[i] = c
		}
	}
	return palette
}

// ParseHex parses a "#rrggbb" or "rrggbb" hex string.
func ParseHex(s string) (vt.Color, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return vt.DefaultColor, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return vt.DefaultColor, false
	}
	return vt.RGBColor(uint8(v>>16), uint8(v>>8), uint8(v)), true //nolint:gosec // masked to 8 bits
}

// FromColor converts a standard library color to a terminal color.
func FromColor(c color.Color) vt.Color {
	if c == nil {
		return vt.DefaultColor
	}
	r, g, b, _ := c.RGBA()
	// RGBA returns values in range 0-65535, convert to 0-255
	return vt.RGBColor(uint8(r>>8), uint8(g>>8), uint8(b>>8)) //nolint:gosec // shifted into 8 bits
}

// Hex formats a resolved RGB color as a "#rrggbb" string.
// Used where colors need to be displayed or stored as strings.
func Hex(c vt.Color) string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func conf(cfg *config.Config) *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}
