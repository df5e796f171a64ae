// Package session couples a terminal emulator with the PTY its shell
// runs on and exposes a single synchronized surface to hosts: spawn,
// pump, write, resize, query and snapshot without further locking.
//
// The pump follows a single-pump discipline. The host polls the
// master descriptor from Fd for readiness and calls PumpPty to drain
// whatever is available; the session never reads the PTY on its own.
package session

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/termforge/termcore/internal/config"
	"github.com/termforge/termcore/internal/render"
	"github.com/termforge/termcore/internal/theme"
	"github.com/termforge/termcore/internal/vt"
)

var logger *log.Logger

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "session",
	})
}

// SetLogLevel sets the log level for session logging.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// vtLogger routes emulator diagnostics (unhandled sequences) to the
// session logger at debug level.
type vtLogger struct{}

func (vtLogger) Printf(format string, v ...any) {
	logger.Debugf(format, v...)
}

// readChunkSize is the PTY drain granularity of one pump pass.
const readChunkSize = 8192

// killWait bounds how long Close waits for the child to die.
const killWait = 500 * time.Millisecond

// State is a session lifecycle state.
type State int

const (
	// StateCreated is a session before SpawnShell.
	StateCreated State = iota
	// StateRunning is a session with a live shell.
	StateRunning
	// StateFailed is a session whose spawn attempt failed. Only Close
	// is useful on it.
	StateFailed
	// StateClosed is a session after Close.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is a live terminal: an emulator fed by the PTY its shell
// runs on. All methods are safe for concurrent use. Mutating
// operations take the write lock; queries share the read lock, so
// concurrent readers never block each other.
type Session struct {
	mu sync.RWMutex

	id    string
	cfg   *config.Config
	gen   uint64
	state State

	emu       *vt.Emulator
	tracker   commandTracker
	clipboard func(payload string)

	shell string
	cmd   *exec.Cmd
	ptmx  *os.File

	renderer render.Renderer
	frameSeq atomic.Uint64

	exited   atomic.Bool
	exitOnce sync.Once
	exitCh   chan struct{}

	readBuf []byte
}

// New builds a session of the given grid size with the config's
// scrollback limit and theme colors applied. A nil config uses the
// defaults. The shell is not started yet; call SpawnShell.
func New(cfg *config.Config, cols, rows int) (*Session, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDims, cols, rows)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := theme.Initialize(cfg.Colors.Theme); err != nil {
		logger.Warn("theme not applied", "theme", cfg.Colors.Theme, "err", err)
	}

	emu := vt.NewEmulator(cols, rows)
	emu.SetLogger(vtLogger{})
	emu.SetScrollbackMaxLines(cfg.Scrollback.Lines)
	emu.SetThemeColors(
		theme.Foreground(cfg),
		theme.Background(cfg),
		theme.Cursor(cfg),
		theme.ANSIPalette(cfg),
	)

	s := &Session{
		id:      uuid.NewString(),
		cfg:     cfg,
		state:   StateCreated,
		emu:     emu,
		exitCh:  make(chan struct{}),
		readBuf: make([]byte, readChunkSize),
	}
	emu.SetCallbacks(vt.Callbacks{
		WorkingDirectory: s.tracker.cwd,
		PromptMark:       s.tracker.mark,
		Clipboard:        s.clipboardOffer,
	})
	return s, nil
}

// clipboardOffer relays an OSC 52 payload to the registered handler.
// It fires during PumpPty or Feed, under the write lock.
func (s *Session) clipboardOffer(payload string) {
	if s.clipboard != nil {
		s.clipboard(payload)
	}
}

// OnClipboard registers fn to receive OSC 52 clipboard offers from the
// stream. The payload is the selection name and base64 data exactly as
// sent; the session never interprets it. fn runs during the pump with
// the session locked, so it must not call back into the session.
func (s *Session) OnClipboard(fn func(payload string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipboard = fn
}

// ID returns the session's UUID.
func (s *Session) ID() string {
	return s.id
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Shell returns the resolved shell path, empty before SpawnShell.
func (s *Session) Shell() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shell
}

// Pid returns the shell process id, zero before SpawnShell.
func (s *Session) Pid() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Done returns a channel closed once the shell process has exited or
// the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.exitCh
}

// ChildExited reports whether the shell process has exited.
func (s *Session) ChildExited() bool {
	return s.exited.Load()
}

// SpawnShell launches the shell on a fresh PTY sized to the current
// grid. An empty shellPath falls back to the configured program, then
// to environment detection. Spawn failure is terminal for the
// session: the state becomes failed and only Close is useful
// afterwards.
func (s *Session) SpawnShell(shellPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateFailed:
		return ErrSpawnFailed
	case StateRunning:
		return ErrAlreadySpawned
	}

	shell := resolveShell(s.cfg, shellPath)
	var args []string
	if shellPath == "" && s.cfg.Shell.Program != "" {
		args = s.cfg.Shell.Args
	}

	// #nosec G204 -- the shell is user-controlled on purpose.
	cmd := exec.Command(shell, args...)
	cmd.Env = buildShellEnv(s.cfg, s.id, shell)

	cols, rows := s.emu.Width(), s.emu.Height()
	cw, ch := s.emu.CellSize()
	ptmx, err := startShellPty(cmd, cols, rows, cols*cw, rows*ch)
	if err != nil {
		s.state = StateFailed
		logger.Error("shell spawn failed", "shell", shell, "err", err)
		return &SpawnError{Shell: shell, Err: err}
	}

	s.shell = shell
	s.cmd = cmd
	s.ptmx = ptmx
	s.state = StateRunning
	logger.Info("shell spawned", "shell", shell, "pid", cmd.Process.Pid, "size", fmt.Sprintf("%dx%d", cols, rows))

	go func() {
		_ = cmd.Wait()
		s.exited.Store(true)
		s.signalExit()
	}()
	return nil
}

func (s *Session) signalExit() {
	s.exitOnce.Do(func() { close(s.exitCh) })
}

// ptyReady verifies the session has a live PTY. Callers hold the
// lock.
func (s *Session) ptyReady() error {
	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateFailed:
		return ErrSpawnFailed
	case StateCreated:
		return ErrNotSpawned
	}
	return nil
}

// PumpPty drains the PTY of everything currently available, feeds it
// to the emulator and flushes any responses the stream requested
// (DSR, DA, window reports) back to the PTY. It returns the number of
// bytes processed and never blocks waiting for output. Once the child
// has exited and the PTY is drained it returns ErrChildExited.
//
// PumpPty is meant to be driven by a single caller polling Fd for
// readiness.
func (s *Session) PumpPty() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ptyReady(); err != nil {
		return 0, err
	}

	total := 0
	for {
		n, err := readPty(s.ptmx, s.readBuf)
		if n > 0 {
			_, _ = s.emu.Write(s.readBuf[:n])
			total += n
		}
		if err == nil {
			if n == 0 {
				_ = s.flushResponses()
				return total, ErrChildExited
			}
			continue
		}
		if isDrained(err) {
			break
		}
		if isHangup(err) {
			_ = s.flushResponses()
			return total, ErrChildExited
		}
		return total, fmt.Errorf("pty read: %w", err)
	}

	if err := s.flushResponses(); err != nil {
		return total, err
	}
	return total, nil
}

// flushResponses forwards pending emulator write-back to the PTY.
// Callers hold the write lock.
func (s *Session) flushResponses() error {
	resp := s.emu.TakeResponses()
	if len(resp) == 0 {
		return nil
	}
	if _, err := writePty(s.ptmx, resp); err != nil {
		return fmt.Errorf("pty response write: %w", err)
	}
	return nil
}

// WritePty sends host input to the shell. Short writes are reported
// as errors, never retried.
func (s *Session) WritePty(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ptyReady(); err != nil {
		return 0, err
	}
	n, err := writePty(s.ptmx, p)
	if err != nil {
		return n, fmt.Errorf("pty write: %w", err)
	}
	if n < len(p) {
		return n, fmt.Errorf("pty write: short write %d of %d bytes", n, len(p))
	}
	return n, nil
}

// Feed interprets bytes as if they had been read from the PTY,
// without a shell attached. It exists for replay and tests; any
// responses the stream requests are delivered to the shell on the
// next pump.
func (s *Session) Feed(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return 0, ErrSessionClosed
	}
	n, err := s.emu.Write(p)
	if err != nil {
		return n, fmt.Errorf("feed: %w", err)
	}
	return n, nil
}

// Fd returns the PTY master descriptor for readiness polling.
func (s *Session) Fd() (uintptr, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ptyReady(); err != nil {
		return 0, err
	}
	return s.ptmx.Fd(), nil
}

// Resize applies a new grid and pixel size to the emulator, the PTY
// and the renderer in one step. Content in the surviving region is
// preserved and the cursor is clamped; no caller ever observes a
// half-resized session.
func (s *Session) Resize(cols, rows, pixelW, pixelH int) error {
	if cols < 1 || rows < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDims, cols, rows)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateFailed:
		return ErrSpawnFailed
	}

	s.emu.Resize(cols, rows)
	if pixelW > 0 && pixelH > 0 {
		s.emu.SetCellSize(pixelW/cols, pixelH/rows)
	}

	if s.state == StateRunning {
		if err := resizePty(s.ptmx, cols, rows, pixelW, pixelH); err != nil {
			return fmt.Errorf("pty resize: %w", err)
		}
	}

	if s.renderer != nil {
		cw, ch := s.emu.CellSize()
		if err := s.renderer.Resize(cols, rows, cw, ch); err != nil {
			return fmt.Errorf("renderer resize: %w", err)
		}
	}
	return nil
}

// Close tears the session down: closes the PTY, kills the shell with
// a bounded wait, and closes the emulator. It is idempotent. Every
// other method fails with ErrSessionClosed afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}

	if s.ptmx != nil {
		_ = s.ptmx.Close()
		s.ptmx = nil
	}

	if s.cmd != nil && s.cmd.Process != nil {
		cmd := s.cmd
		done := make(chan struct{}, 1)
		go func() {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			done <- struct{}{}
		}()
		select {
		case <-done:
		case <-time.After(killWait):
		}
	}
	s.cmd = nil

	_ = s.emu.Close()
	s.state = StateClosed
	s.signalExit()
	logger.Info("session closed", "id", s.id)
	return nil
}

// Grid queries. All take (row, col) and clamp out-of-range
// coordinates to the empty cell; they never panic.

// CellRune returns the rune at the given screen position. Spacer
// cells behind double-width runes yield rune zero.
func (s *Session) CellRune(row, col int) rune {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.CellAt(col, row).Rune
}

// CellFg returns the cell foreground resolved to packed 0xRRGGBB,
// with default and indexed colors resolved against the theme.
func (s *Session) CellFg(row, col int) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.emu.CellAt(col, row)
	return s.emu.ResolveColor(c.Fg, true).Packed()
}

// CellBg returns the cell background resolved to packed 0xRRGGBB.
func (s *Session) CellBg(row, col int) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.emu.CellAt(col, row)
	return s.emu.ResolveColor(c.Bg, false).Packed()
}

// CellAttrs returns the cell's attribute bitfield.
func (s *Session) CellAttrs(row, col int) vt.AttrMask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.CellAt(col, row).Attrs
}

// CursorPos returns the cursor position as (row, col).
func (s *Session) CursorPos() (row, col int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	x, y := s.emu.CursorPos()
	return y, x
}

// GridSize returns the grid dimensions as (cols, rows).
func (s *Session) GridSize() (cols, rows int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.Width(), s.emu.Height()
}

// Title returns the window title last set by the stream.
func (s *Session) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.Title()
}

// WorkingDirectory returns the path last reported by the shell via
// OSC 7, empty until the shell integration reports one.
func (s *Session) WorkingDirectory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.workingDir
}

// CursorKeysAppMode reports DECCKM application cursor key encoding.
func (s *Session) CursorKeysAppMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.CursorKeysApplication()
}

// CursorVisible reports whether the cursor is shown.
func (s *Session) CursorVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.emu.IsCursorHidden()
}

// BracketedPaste reports whether pasted text must be bracketed.
func (s *Session) BracketedPaste() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.BracketedPasteEnabled()
}

// AltScreenActive reports whether the alternate screen is in use.
func (s *Session) AltScreenActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.IsAltScreen()
}

// MouseModeActive reports whether the application enabled any mouse
// tracking mode.
func (s *Session) MouseModeActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.HasMouseMode()
}

// EncodeMouse encodes a pointer event per the tracking and encoding
// modes the application enabled, empty when it must not be sent.
func (s *Session) EncodeMouse(m vt.MouseEvent) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.EncodeMouseEvent(m)
}

// EncodePaste encodes pasted text, bracketing it when the application
// asked for bracketed paste.
func (s *Session) EncodePaste(text string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.EncodePaste(text)
}

// EncodeFocus encodes a focus report, empty when not requested.
func (s *Session) EncodeFocus(focused bool) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.EncodeFocus(focused)
}

// ScrollbackLen returns the number of scrollback lines.
func (s *Session) ScrollbackLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.ScrollbackLen()
}

// ScrollbackLine returns a copy of the scrollback line at index,
// oldest first, or nil when out of range.
func (s *Session) ScrollbackLine(index int) []vt.Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	line := s.emu.ScrollbackLine(index)
	if line == nil {
		return nil
	}
	out := make([]vt.Cell, len(line))
	copy(out, line)
	return out
}

// ExtractText returns the visible text between two inclusive screen
// positions, for selection copy.
func (s *Session) ExtractText(startRow, startCol, endRow, endCol int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.ExtractText(startRow, startCol, endRow, endCol)
}

// Shell integration queries, fed by the OSC 133/OSC 7 marks the
// integration scripts emit.

// LastExitCode returns the exit code of the last completed command,
// -1 when none completed or the shell did not report one.
func (s *Session) LastExitCode() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.lastExitCode()
}

// Commands returns the completed command history, oldest first.
func (s *Session) Commands() []Command {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.history()
}

// CommandCount returns the number of completed commands.
func (s *Session) CommandCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracker.commands)
}

// PrevPrompt returns the nearest prompt row above row, or -1. The
// still-open prompt participates.
func (s *Session) PrevPrompt(row int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.PrevPrompt(row)
}

// NextPrompt returns the nearest prompt row below row, or -1.
func (s *Session) NextPrompt(row int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.NextPrompt(row)
}

// ShellIntegrationActive reports whether the shell has emitted at
// least one integration mark.
func (s *Session) ShellIntegrationActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.active()
}

// Config passthrough.

// Config returns the session's current configuration.
func (s *Session) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// FontSize returns the configured font size in points.
func (s *Session) FontSize() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Font.Size
}

// FontFamily returns the configured font family.
func (s *Session) FontFamily() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Font.Family
}

// WindowWidth returns the configured window width in pixels.
func (s *Session) WindowWidth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Window.Width
}

// WindowHeight returns the configured window height in pixels.
func (s *Session) WindowHeight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Window.Height
}

// ThemeForeground returns the default foreground as packed 0xRRGGBB.
func (s *Session) ThemeForeground() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.ForegroundColor().Packed()
}

// ThemeBackground returns the default background as packed 0xRRGGBB.
func (s *Session) ThemeBackground() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.BackgroundColor().Packed()
}

// Generation returns the config generation, bumped on every
// UpdateConfig.
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// UpdateConfig swaps the configuration, reapplies theme colors and
// the scrollback limit, and bumps the generation. Hosts typically
// wire a config.Watcher to this.
func (s *Session) UpdateConfig(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}

	if err := theme.Initialize(cfg.Colors.Theme); err != nil {
		logger.Warn("theme not applied", "theme", cfg.Colors.Theme, "err", err)
	}
	s.cfg = cfg
	s.gen++
	s.emu.SetThemeColors(
		theme.Foreground(cfg),
		theme.Background(cfg),
		theme.Cursor(cfg),
		theme.ANSIPalette(cfg),
	)
	s.emu.SetScrollbackMaxLines(cfg.Scrollback.Lines)
	logger.Info("config updated", "generation", s.gen)
	return nil
}

// Renderer hooks.

// InitRenderer attaches a renderer and records the host's cell pixel
// metrics, which also feed terminal size reporting. A nil renderer
// detaches.
func (s *Session) InitRenderer(r render.Renderer, cellW, cellH int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if cellW > 0 && cellH > 0 {
		s.emu.SetCellSize(cellW, cellH)
	}
	s.renderer = r
	if r == nil {
		return nil
	}
	cw, ch := s.emu.CellSize()
	if err := r.Init(s.emu.Width(), s.emu.Height(), cw, ch); err != nil {
		s.renderer = nil
		return fmt.Errorf("renderer init: %w", err)
	}
	return nil
}

// RenderFrame snapshots the grid and hands it to the attached
// renderer. Without a renderer it is a no-op.
func (s *Session) RenderFrame() error {
	s.mu.RLock()
	r := s.renderer
	if r == nil {
		s.mu.RUnlock()
		return nil
	}
	f := s.snapshotLocked()
	s.mu.RUnlock()

	if err := r.RenderFrame(f); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	return nil
}

// Snapshot returns an immutable copy of the visible grid with all
// colors resolved to RGB, suitable for handing to a renderer on
// another goroutine.
func (s *Session) Snapshot() *render.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *render.Frame {
	cols, rows := s.emu.Width(), s.emu.Height()
	cw, ch := s.emu.CellSize()
	f := &render.Frame{
		Cols:          cols,
		Rows:          rows,
		CellWidth:     cw,
		CellHeight:    ch,
		Cells:         make([]vt.Cell, 0, cols*rows),
		CursorVisible: !s.emu.IsCursorHidden(),
		Title:         s.emu.Title(),
		Generation:    s.gen,
		Seq:           s.frameSeq.Add(1),
	}
	f.CursorX, f.CursorY = s.emu.CursorPos()
	for row := range rows {
		for col := range cols {
			c := s.emu.CellAt(col, row)
			c.Fg = s.emu.ResolveColor(c.Fg, true)
			c.Bg = s.emu.ResolveColor(c.Bg, false)
			f.Cells = append(f.Cells, c)
		}
	}
	return f
}
