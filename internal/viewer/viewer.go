// Package viewer presents one terminal session as a full-screen
// Bubble Tea program. It pumps the session's PTY on a tick, paints the
// grid, and forwards keys, paste, mouse and focus events the way the
// child application asked for them. The model does not own the
// session; the caller is responsible for closing it.
package viewer

import (
	"errors"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"

	"github.com/termforge/termcore/internal/session"
	"github.com/termforge/termcore/internal/vt"
)

var logger *log.Logger

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "viewer",
	})
}

// SetLogLevel adjusts the verbosity of the viewer logger.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// FPS is the refresh and PTY pump rate.
const FPS = 60

// Model drives a single attached session.
type Model struct {
	sess    *session.Session
	width   int
	height  int
	err     error
	exiting bool
}

// New returns a model attached to sess. The session should already
// have its shell spawned.
func New(sess *session.Session) *Model {
	return &Model{sess: sess}
}

// Err reports the pump error that ended the program, if any. A clean
// child exit is not an error.
func (m *Model) Err() error {
	return m.err
}

// TickMsg drives the PTY pump and repaint loop.
type TickMsg time.Time

// childExitMsg is delivered once the session's child process is gone.
type childExitMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/FPS, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func watchExit(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		<-sess.Done()
		return childExitMsg{}
	}
}

// Init starts the pump tick and the child exit watcher.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), watchExit(m.sess))
}

// Update handles pump ticks and forwards input to the PTY.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if m.exiting {
			return m, nil
		}
		if _, err := m.sess.PumpPty(); err != nil {
			m.exiting = true
			if !errors.Is(err, session.ErrChildExited) && !errors.Is(err, session.ErrSessionClosed) {
				m.err = err
				logger.Error("pty pump", "err", err)
			}
			return m, tea.Quit
		}
		return m, tickCmd()

	case childExitMsg:
		// Drain whatever the child wrote on its way out so the final
		// frame is complete.
		if !m.exiting {
			_, _ = m.sess.PumpPty()
		}
		m.exiting = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width > 0 && msg.Height > 0 {
			if err := m.sess.Resize(msg.Width, msg.Height, 0, 0); err != nil {
				logger.Warn("resize", "err", err)
			}
		}
		return m, nil

	case tea.KeyPressMsg:
		m.write(keyBytes(msg, m.sess.CursorKeysAppMode()))
		return m, nil

	case tea.PasteMsg:
		m.write([]byte(m.sess.EncodePaste(msg.Content)))
		return m, nil

	case tea.MouseClickMsg:
		m.forwardMouse(msg.Mouse(), false, false)
		return m, nil

	case tea.MouseReleaseMsg:
		m.forwardMouse(msg.Mouse(), false, true)
		return m, nil

	case tea.MouseMotionMsg:
		m.forwardMouse(msg.Mouse(), true, false)
		return m, nil

	case tea.MouseWheelMsg:
		m.forwardMouse(msg.Mouse(), false, false)
		return m, nil

	case tea.FocusMsg:
		m.write([]byte(m.sess.EncodeFocus(true)))
		return m, nil

	case tea.BlurMsg:
		m.write([]byte(m.sess.EncodeFocus(false)))
		return m, nil
	}

	return m, nil
}

// View paints the session grid.
func (m *Model) View() tea.View {
	var view tea.View
	view.SetContent(renderFrame(m.sess.Snapshot()))
	view.AltScreen = true
	view.MouseMode = tea.MouseModeAllMotion
	view.ReportFocus = true
	return view
}

// write sends bytes to the PTY, swallowing the errors that just mean
// the session is on its way down.
func (m *Model) write(p []byte) {
	if len(p) == 0 || m.exiting {
		return
	}
	if _, err := m.sess.WritePty(p); err != nil {
		if errors.Is(err, session.ErrChildExited) || errors.Is(err, session.ErrSessionClosed) {
			return
		}
		logger.Warn("pty write", "err", err)
	}
}

// forwardMouse translates a pointer event and sends it when the child
// enabled mouse tracking. The session encodes per the active mode, so
// events the child did not ask for come back empty.
func (m *Model) forwardMouse(mouse tea.Mouse, motion, release bool) {
	if !m.sess.MouseModeActive() {
		return
	}
	ev := vt.MouseEvent{
		X:       mouse.X,
		Y:       mouse.Y,
		Button:  mouseButton(mouse.Button),
		Motion:  motion,
		Release: release,
		Shift:   mouse.Mod&tea.ModShift != 0,
		Alt:     mouse.Mod&tea.ModAlt != 0,
		Ctrl:    mouse.Mod&tea.ModCtrl != 0,
	}
	m.write([]byte(m.sess.EncodeMouse(ev)))
}
