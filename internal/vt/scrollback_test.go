package vt

import "testing"

// sbLine builds a one-cell line so tests can tell entries apart.
func sbLine(r rune) []Cell {
	return []Cell{{Rune: r, Width: 1}}
}

func TestScrollbackPushAndOrder(t *testing.T) {
	sb := NewScrollback(10)
	sb.PushLine(sbLine('a'))
	sb.PushLine(sbLine('b'))
	sb.PushLine(sbLine('c'))

	if sb.Len() != 3 {
		t.Fatalf("Expected 3 lines, got %d", sb.Len())
	}
	for i, want := range []rune{'a', 'b', 'c'} {
		if got := sb.Line(i); got == nil || got[0].Rune != want {
			t.Errorf("Expected line %d to be %q", i, want)
		}
	}

	lines := sb.Lines()
	if len(lines) != 3 || lines[0][0].Rune != 'a' || lines[2][0].Rune != 'c' {
		t.Errorf("Expected Lines oldest to newest, got %d entries", len(lines))
	}
}

func TestScrollbackCopiesLines(t *testing.T) {
	sb := NewScrollback(10)
	src := sbLine('a')
	sb.PushLine(src)
	src[0].Rune = 'z'

	if got := sb.Line(0); got[0].Rune != 'a' {
		t.Errorf("Expected stored copy unaffected, got %q", got[0].Rune)
	}
}

func TestScrollbackEvictsOldest(t *testing.T) {
	sb := NewScrollback(3)
	for _, r := range "abcde" {
		sb.PushLine(sbLine(r))
	}

	if sb.Len() != 3 {
		t.Fatalf("Expected capacity 3, got %d", sb.Len())
	}
	for i, want := range []rune{'c', 'd', 'e'} {
		if got := sb.Line(i); got == nil || got[0].Rune != want {
			t.Errorf("Expected line %d to be %q", i, want)
		}
	}
}

func TestScrollbackLineOutOfRange(t *testing.T) {
	sb := NewScrollback(3)
	sb.PushLine(sbLine('a'))

	if sb.Line(-1) != nil {
		t.Error("Expected nil for negative index")
	}
	if sb.Line(1) != nil {
		t.Error("Expected nil past the end")
	}
}

func TestScrollbackIgnoresEmptyLines(t *testing.T) {
	sb := NewScrollback(3)
	sb.PushLine(nil)
	sb.PushLine([]Cell{})

	if sb.Len() != 0 {
		t.Errorf("Expected empty pushes ignored, got %d lines", sb.Len())
	}
}

func TestScrollbackClear(t *testing.T) {
	sb := NewScrollback(3)
	for _, r := range "abcde" {
		sb.PushLine(sbLine(r))
	}
	sb.Clear()

	if sb.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d lines", sb.Len())
	}
	if sb.MaxLines() != 3 {
		t.Errorf("Expected capacity kept, got %d", sb.MaxLines())
	}

	// The buffer stays usable after a clear.
	sb.PushLine(sbLine('x'))
	if sb.Len() != 1 || sb.Line(0)[0].Rune != 'x' {
		t.Error("Expected push after clear to work")
	}
}

func TestScrollbackSetMaxLines(t *testing.T) {
	t.Run("shrink keeps newest", func(t *testing.T) {
		sb := NewScrollback(10)
		for _, r := range "abcdef" {
			sb.PushLine(sbLine(r))
		}
		sb.SetMaxLines(3)

		if sb.Len() != 3 || sb.MaxLines() != 3 {
			t.Fatalf("Expected 3/3, got %d/%d", sb.Len(), sb.MaxLines())
		}
		for i, want := range []rune{'d', 'e', 'f'} {
			if got := sb.Line(i); got == nil || got[0].Rune != want {
				t.Errorf("Expected line %d to be %q", i, want)
			}
		}

		// The shrunk ring must evict correctly on the next push.
		sb.PushLine(sbLine('g'))
		if got := sb.Line(0); got[0].Rune != 'e' {
			t.Errorf("Expected oldest e after push, got %q", got[0].Rune)
		}
	})

	t.Run("grow keeps content", func(t *testing.T) {
		sb := NewScrollback(2)
		sb.PushLine(sbLine('a'))
		sb.PushLine(sbLine('b'))
		sb.SetMaxLines(5)

		if sb.Len() != 2 || sb.MaxLines() != 5 {
			t.Fatalf("Expected 2/5, got %d/%d", sb.Len(), sb.MaxLines())
		}
		if got := sb.Line(0); got[0].Rune != 'a' {
			t.Errorf("Expected oldest a, got %q", got[0].Rune)
		}
	})
}
