package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/termforge/termcore/internal/vt"
)

// SessionState is the serializable part of a session, enough to
// rehydrate the view after a restart: identity, geometry, shell,
// title and the scrollback rendered to text.
type SessionState struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	WorkingDir string       `json:"working_dir"`
	Shell      string       `json:"shell"`
	Cols       int          `json:"cols"`
	Rows       int          `json:"rows"`
	AltScreen  bool         `json:"alt_screen,omitempty"`
	Modes      map[int]bool `json:"modes,omitempty"`
	Scrollback []string     `json:"scrollback_lines,omitempty"`
}

// StateDir returns the directory session state files live in.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "termcore", "sessions")
}

// Capture snapshots the serializable session state.
func (s *Session) Capture() *SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &SessionState{
		ID:         s.id,
		Title:      s.emu.Title(),
		WorkingDir: s.tracker.workingDir,
		Shell:      s.shell,
		Cols:       s.emu.Width(),
		Rows:       s.emu.Height(),
		AltScreen:  s.emu.IsAltScreen(),
		Modes:      s.emu.GetModes(),
	}
	n := s.emu.ScrollbackLen()
	if n > 0 {
		st.Scrollback = make([]string, 0, n)
		for i := 0; i < n; i++ {
			st.Scrollback = append(st.Scrollback, cellsToText(s.emu.ScrollbackLine(i)))
		}
	}
	return st
}

// Restore rehydrates a freshly created session from saved state: the
// scrollback text is replayed through the emulator, then the saved
// title, modes and screen selection are applied. It must run before
// SpawnShell.
func (s *Session) Restore(st *SessionState) error {
	if st == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateRunning:
		return ErrAlreadySpawned
	case StateFailed:
		return ErrSpawnFailed
	}

	for _, line := range st.Scrollback {
		_, _ = s.emu.WriteString(line)
		_, _ = s.emu.WriteString("\r\n")
	}
	if st.Title != "" {
		_, _ = s.emu.WriteString("\x1b]2;" + st.Title + "\x07")
	}
	s.emu.RestoreModes(st.Modes)
	s.emu.RestoreAltScreen(st.AltScreen)
	if st.WorkingDir != "" {
		s.tracker.workingDir = st.WorkingDir
	}
	return nil
}

// Save writes the state as JSON, creating parent directories.
func (st *SessionState) Save(path string) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}

// LoadState reads a state file written by Save.
func LoadState(path string) (*SessionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session state: %w", err)
	}
	var st SessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse session state: %w", err)
	}
	return &st, nil
}

// cellsToText renders a cell row to plain text, dropping wide-rune
// spacers and trailing blanks.
func cellsToText(cells []vt.Cell) string {
	var b strings.Builder
	b.Grow(len(cells))
	for _, c := range cells {
		if c.Width == 0 {
			continue
		}
		b.WriteRune(c.Rune)
	}
	return strings.TrimRight(b.String(), " ")
}
