package session

import (
	"strconv"
	"strings"
	"time"
)

// maxCommandHistory bounds the retained command regions.
const maxCommandHistory = 1000

// Command is one completed shell command, delimited by the OSC 133
// marks the integration scripts emit: A prompt start, B command
// start, C output start, D command finished.
type Command struct {
	PromptRow  int
	CommandRow int
	OutputRow  int
	EndRow     int
	ExitCode   int // -1 when the shell did not report one
	Duration   time.Duration
	WorkingDir string
}

type shellPhase int

const (
	phaseIdle shellPhase = iota
	phasePrompt
	phaseCommand
	phaseOutput
)

// commandTracker follows the OSC 133 protocol and keeps a bounded
// history of completed commands. It is guarded by the owning
// session's mutex; the mark and cwd hooks fire during PumpPty, under
// the write lock.
type commandTracker struct {
	phase      shellPhase
	commands   []Command
	promptRow  int
	commandRow int
	outputRow  int
	started    time.Time
	workingDir string
}

func (t *commandTracker) mark(kind byte, row int, data string) {
	switch kind {
	case 'A':
		t.phase = phasePrompt
		t.promptRow = row
	case 'B':
		t.phase = phaseCommand
		t.commandRow = row
		t.started = time.Now()
	case 'C':
		t.phase = phaseOutput
		t.outputRow = row
	case 'D':
		code := -1
		if n, err := strconv.Atoi(data); err == nil {
			code = n
		}
		var dur time.Duration
		if !t.started.IsZero() {
			dur = time.Since(t.started)
		}
		t.commands = append(t.commands, Command{
			PromptRow:  t.promptRow,
			CommandRow: t.commandRow,
			OutputRow:  t.outputRow,
			EndRow:     row,
			ExitCode:   code,
			Duration:   dur,
			WorkingDir: t.workingDir,
		})
		if len(t.commands) > maxCommandHistory {
			t.commands = t.commands[1:]
		}
		t.phase = phaseIdle
		t.started = time.Time{}
	}
}

// cwd records an OSC 7 report. The payload is file://hostname/path;
// the hostname is skipped.
func (t *commandTracker) cwd(url string) {
	path, ok := strings.CutPrefix(url, "file://")
	if !ok {
		return
	}
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		t.workingDir = path[idx:]
	}
}

// history returns the completed commands, oldest first. The returned
// slice is a copy.
func (t *commandTracker) history() []Command {
	out := make([]Command, len(t.commands))
	copy(out, t.commands)
	return out
}

func (t *commandTracker) lastExitCode() int {
	if len(t.commands) == 0 {
		return -1
	}
	return t.commands[len(t.commands)-1].ExitCode
}

// active reports whether the shell has emitted at least one mark.
func (t *commandTracker) active() bool {
	return t.phase != phaseIdle || len(t.commands) > 0
}
