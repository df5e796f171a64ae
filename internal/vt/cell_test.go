package vt

import "testing"

func TestColorKinds(t *testing.T) {
	if !DefaultColor.IsDefault() {
		t.Error("Expected zero color to be default")
	}
	if DefaultColor.IsIndexed() || DefaultColor.IsRGB() {
		t.Error("Expected default color to have no other kind")
	}

	c := IndexedColor(196)
	if !c.IsIndexed() || c.IsDefault() || c.IsRGB() {
		t.Error("Expected indexed kind")
	}
	if c.Index() != 196 {
		t.Errorf("Expected index 196, got %d", c.Index())
	}

	r := RGBColor(1, 2, 3)
	if !r.IsRGB() || r.IsDefault() || r.IsIndexed() {
		t.Error("Expected RGB kind")
	}
	rr, gg, bb := r.RGB()
	if rr != 1 || gg != 2 || bb != 3 {
		t.Errorf("Expected components (1,2,3), got (%d,%d,%d)", rr, gg, bb)
	}
	if r.Packed() != 0x010203 {
		t.Errorf("Expected packed 0x010203, got 0x%06x", r.Packed())
	}

	// Index and component zero must stay distinguishable from the
	// default color.
	if IndexedColor(0) == DefaultColor {
		t.Error("Expected indexed 0 distinct from default")
	}
	if RGBColor(0, 0, 0) == DefaultColor {
		t.Error("Expected black distinct from default")
	}
}

func TestColor256Conversion(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  Color
	}{
		{name: "ansi passthrough", index: 1, want: ansiPalette[1]},
		{name: "cube start", index: 16, want: RGBColor(0, 0, 0)},
		{name: "cube red", index: 196, want: RGBColor(255, 0, 0)},
		{name: "cube blue", index: 21, want: RGBColor(0, 0, 255)},
		{name: "cube white", index: 231, want: RGBColor(255, 255, 255)},
		{name: "cube gray", index: 59, want: RGBColor(95, 95, 95)},
		{name: "grayscale start", index: 232, want: RGBColor(8, 8, 8)},
		{name: "grayscale end", index: 255, want: RGBColor(238, 238, 238)},
		{name: "out of range", index: 300, want: DefaultColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := color256(tt.index); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAttrMaskContains(t *testing.T) {
	a := AttrBold | AttrUnderline
	if !a.Contains(AttrBold) {
		t.Error("Expected bold set")
	}
	if !a.Contains(AttrBold | AttrUnderline) {
		t.Error("Expected combined mask set")
	}
	if a.Contains(AttrItalic) {
		t.Error("Expected italic unset")
	}
	if a.Contains(AttrBold | AttrItalic) {
		t.Error("Expected partial match to fail")
	}
}

func TestCellConstruction(t *testing.T) {
	pen := Pen{Fg: IndexedColor(2), Bg: RGBColor(9, 9, 9), Attrs: AttrBold}

	c := newCell('x', 1, pen)
	if c.Rune != 'x' || c.Width != 1 {
		t.Errorf("Expected rune x width 1, got %q width %d", c.Rune, c.Width)
	}
	if c.Fg != pen.Fg || c.Bg != pen.Bg || c.Attrs != pen.Attrs {
		t.Error("Expected cell to carry the pen")
	}

	// Erased cells keep only the pen background.
	b := blankCell(pen)
	if b.Rune != ' ' || b.Width != 1 {
		t.Errorf("Expected blank space, got %q width %d", b.Rune, b.Width)
	}
	if b.Bg != pen.Bg {
		t.Errorf("Expected blank to keep pen background, got %v", b.Bg)
	}
	if b.Fg != DefaultColor || b.Attrs != 0 {
		t.Error("Expected blank without foreground or attributes")
	}

	sp := spacerCell(pen)
	if sp.Rune != 0 || sp.Width != 0 {
		t.Errorf("Expected spacer, got %q width %d", sp.Rune, sp.Width)
	}
}

func TestRuneDisplayWidth(t *testing.T) {
	tests := []struct {
		name string
		r    rune
		want int
	}{
		{name: "ascii", r: 'a', want: 1},
		{name: "cjk", r: '中', want: 2},
		{name: "nul", r: 0, want: 0},
		{name: "combining accent", r: 0x0301, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runeDisplayWidth(tt.r); got != tt.want {
				t.Errorf("Expected width %d, got %d", tt.want, got)
			}
		})
	}
}
