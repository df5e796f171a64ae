package vt

// defaultTabInterval is the column spacing of freshly initialized tab
// stops.
const defaultTabInterval = 8

// TabStops tracks the horizontal tab stops of a screen, one flag per
// column.
type TabStops struct {
	stops []bool
}

// DefaultTabStops returns tab stops for a screen of the given width
// with a stop every eighth column.
func DefaultTabStops(width int) *TabStops {
	t := &TabStops{}
	t.Reset(width)
	return t
}

// Reset reinitializes the stops for a screen of the given width,
// discarding any custom stops.
func (t *TabStops) Reset(width int) {
	if width < 1 {
		width = 1
	}
	t.stops = make([]bool, width)
	for i := 0; i < width; i += defaultTabInterval {
		t.stops[i] = true
	}
}

// Set marks a tab stop at col.
func (t *TabStops) Set(col int) {
	if col >= 0 && col < len(t.stops) {
		t.stops[col] = true
	}
}

// Clear removes the tab stop at col, if any.
func (t *TabStops) Clear(col int) {
	if col >= 0 && col < len(t.stops) {
		t.stops[col] = false
	}
}

// ClearAll removes every tab stop.
func (t *TabStops) ClearAll() {
	for i := range t.stops {
		t.stops[i] = false
	}
}

// Next returns the first tab stop after col, or the last column when
// none remains.
func (t *TabStops) Next(col int) int {
	for i := col + 1; i < len(t.stops); i++ {
		if t.stops[i] {
			return i
		}
	}
	return len(t.stops) - 1
}

// Prev returns the last tab stop before col, or column zero when none
// precedes it.
func (t *TabStops) Prev(col int) int {
	for i := min(col, len(t.stops)) - 1; i >= 0; i-- {
		if t.stops[i] {
			return i
		}
	}
	return 0
}
