package vt

// DefaultScrollbackLines is the scrollback capacity used when a
// caller does not specify one.
const DefaultScrollbackLines = 10000

// Scrollback holds lines that have scrolled off the top of the main
// screen. It is a fixed-capacity ring buffer so pushing a line is O(1)
// and the oldest line is dropped once the capacity is reached.
type Scrollback struct {
	// lines is the ring storage; a nil entry is an unused slot.
	lines [][]Cell
	// maxLines is the ring capacity.
	maxLines int
	// head indexes the oldest stored line.
	head int
	// tail indexes the slot the next line lands in.
	tail int
	// full is set once tail has wrapped around onto head.
	full bool
}

// NewScrollback creates a scrollback buffer holding at most maxLines
// lines. A non-positive maxLines selects DefaultScrollbackLines.
func NewScrollback(maxLines int) *Scrollback {
	if maxLines <= 0 {
		maxLines = DefaultScrollbackLines
	}
	return &Scrollback{
		lines:    make([][]Cell, maxLines),
		maxLines: maxLines,
	}
}

// PushLine appends a copy of line as the newest scrollback entry,
// evicting the oldest entry if the buffer is at capacity.
func (sb *Scrollback) PushLine(line []Cell) {
	if len(line) == 0 {
		return
	}

	// Copy so later screen edits don't alias into the scrollback.
	lineCopy := make([]Cell, len(line))
	copy(lineCopy, line)

	sb.lines[sb.tail] = lineCopy
	sb.tail = (sb.tail + 1) % sb.maxLines
	if sb.full {
		sb.head = (sb.head + 1) % sb.maxLines
	}
	if sb.tail == sb.head {
		sb.full = true
	}
}

// Len returns the number of stored lines.
func (sb *Scrollback) Len() int {
	if sb.full {
		return sb.maxLines
	}
	if sb.tail >= sb.head {
		return sb.tail - sb.head
	}
	return sb.maxLines - sb.head + sb.tail
}

// Line returns the stored line at index, where 0 is the oldest line
// and Len()-1 the newest. It returns nil when index is out of range.
// The returned slice must not be modified.
func (sb *Scrollback) Line(index int) []Cell {
	if index < 0 || index >= sb.Len() {
		return nil
	}
	return sb.lines[(sb.head+index)%sb.maxLines]
}

// Lines returns all stored lines from oldest to newest. The returned
// slices must not be modified.
func (sb *Scrollback) Lines() [][]Cell {
	length := sb.Len()
	if length == 0 {
		return nil
	}
	result := make([][]Cell, length)
	for i := 0; i < length; i++ {
		result[i] = sb.lines[(sb.head+i)%sb.maxLines]
	}
	return result
}

// Clear drops every stored line while keeping the capacity.
func (sb *Scrollback) Clear() {
	sb.head = 0
	sb.tail = 0
	sb.full = false
	for i := range sb.lines {
		sb.lines[i] = nil
	}
}

// MaxLines returns the ring capacity.
func (sb *Scrollback) MaxLines() int {
	return sb.maxLines
}

// SetMaxLines changes the ring capacity. When shrinking below the
// current length the oldest lines are discarded.
func (sb *Scrollback) SetMaxLines(maxLines int) {
	if maxLines <= 0 {
		maxLines = DefaultScrollbackLines
	}
	if maxLines == sb.maxLines {
		return
	}

	oldLen := sb.Len()
	newLines := make([][]Cell, maxLines)
	newLen := min(oldLen, maxLines)

	// Keep the newest newLen lines.
	start := oldLen - newLen
	for i := 0; i < newLen; i++ {
		newLines[i] = sb.lines[(sb.head+start+i)%sb.maxLines]
	}

	sb.lines = newLines
	sb.maxLines = maxLines
	sb.head = 0
	sb.tail = newLen % maxLines
	sb.full = newLen == maxLines
}
