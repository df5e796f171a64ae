package session

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/termforge/termcore/internal/vt"
)

// urlRe matches http(s) URLs in rendered row text.
var urlRe = regexp.MustCompile("https?://[^\\s<>\\[\\]{}|\\\\^`\\x00-\\x1f]+")

// trailingPunct is the punctuation commonly trailing prose links and
// never part of the URL itself.
const trailingPunct = ".,;:!?)\"'"

// URLMatch is a clickable URL found on a screen row. ColEnd is
// exclusive.
type URLMatch struct {
	Row      int
	ColStart int
	ColEnd   int
	URL      string
}

// URLAt returns the URL covering the given screen position, if any.
func (s *Session) URLAt(row, col int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range detectRowURLs(s.emu, row) {
		if col >= m.ColStart && col < m.ColEnd {
			return m.URL, true
		}
	}
	return "", false
}

// DetectURLs scans the whole visible grid for URLs, top to bottom.
func (s *Session) DetectURLs() []URLMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []URLMatch
	for row := range s.emu.Height() {
		out = append(out, detectRowURLs(s.emu, row)...)
	}
	return out
}

// detectRowURLs scans one row. Every cell contributes exactly one
// rune to the scanned text (spacers behind wide runes become spaces),
// so rune offsets are column numbers.
func detectRowURLs(emu *vt.Emulator, row int) []URLMatch {
	width := emu.Width()
	var b strings.Builder
	b.Grow(width)
	for col := 0; col < width; col++ {
		r := emu.CellAt(col, row).Rune
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	text := b.String()

	var matches []URLMatch
	for _, loc := range urlRe.FindAllStringIndex(text, -1) {
		url := strings.TrimRight(text[loc[0]:loc[1]], trailingPunct)
		if url == "" {
			continue
		}
		start := utf8.RuneCountInString(text[:loc[0]])
		matches = append(matches, URLMatch{
			Row:      row,
			ColStart: start,
			ColEnd:   start + utf8.RuneCountInString(url),
			URL:      url,
		})
	}
	return matches
}
