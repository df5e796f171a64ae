package vt

import "testing"

func TestTabStopsDefaults(t *testing.T) {
	ts := DefaultTabStops(80)

	tests := []struct {
		name string
		col  int
		want int
	}{
		{name: "from start", col: 0, want: 8},
		{name: "mid field", col: 3, want: 8},
		{name: "on a stop", col: 8, want: 16},
		{name: "near the end", col: 73, want: 79},
		{name: "past last stop", col: 78, want: 79},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ts.Next(tt.col); got != tt.want {
				t.Errorf("Expected next stop %d, got %d", tt.want, got)
			}
		})
	}

	if got := ts.Prev(20); got != 16 {
		t.Errorf("Expected previous stop 16, got %d", got)
	}
	if got := ts.Prev(16); got != 8 {
		t.Errorf("Expected previous stop 8, got %d", got)
	}
	if got := ts.Prev(0); got != 0 {
		t.Errorf("Expected column 0, got %d", got)
	}
}

func TestTabStopsSetClear(t *testing.T) {
	ts := DefaultTabStops(40)

	ts.Set(3)
	if got := ts.Next(0); got != 3 {
		t.Errorf("Expected custom stop 3, got %d", got)
	}
	ts.Clear(3)
	if got := ts.Next(0); got != 8 {
		t.Errorf("Expected default stop 8 after clear, got %d", got)
	}

	ts.Clear(8)
	if got := ts.Next(0); got != 16 {
		t.Errorf("Expected stop 16 after clearing 8, got %d", got)
	}

	// Out-of-range columns are ignored.
	ts.Set(-1)
	ts.Set(400)
	ts.Clear(-1)
	ts.Clear(400)
}

func TestTabStopsClearAll(t *testing.T) {
	ts := DefaultTabStops(40)
	ts.ClearAll()

	if got := ts.Next(0); got != 39 {
		t.Errorf("Expected last column with no stops, got %d", got)
	}
	if got := ts.Prev(39); got != 0 {
		t.Errorf("Expected column 0 with no stops, got %d", got)
	}
}

func TestTabStopsReset(t *testing.T) {
	ts := DefaultTabStops(40)
	ts.ClearAll()
	ts.Set(5)

	ts.Reset(16)
	if got := ts.Next(0); got != 8 {
		t.Errorf("Expected default stops back, got %d", got)
	}
	if got := ts.Next(8); got != 15 {
		t.Errorf("Expected last column 15, got %d", got)
	}
}
