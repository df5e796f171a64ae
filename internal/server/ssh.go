// Package server runs the SSH front end. Every connection gets its
// own shell session sized to the client's PTY and presented through
// the viewer; closing the connection tears the shell down.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"charm.land/wish/v2"
	"charm.land/wish/v2/bubbletea"
	"charm.land/wish/v2/logging"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"

	"github.com/termforge/termcore/internal/config"
	"github.com/termforge/termcore/internal/session"
	"github.com/termforge/termcore/internal/viewer"
)

var logger *log.Logger

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "server",
	})
}

// SetLogLevel adjusts the verbosity of the server logger.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// Config holds the listener settings.
type Config struct {
	Host    string
	Port    string
	KeyPath string // host key location, generated when absent
	Shell   string // shell for spawned sessions, empty autodetects
}

// Start runs the SSH server until ctx is canceled, then shuts it down
// gracefully.
func Start(ctx context.Context, cfg *Config, appCfg *config.Config) error {
	hostKeyPath := cfg.KeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".ssh", "termcore_host_key")
	}

	srv, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.Host, cfg.Port)),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(sessionHandler(cfg, appCfg)),
			logging.Middleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("create ssh server: %w", err)
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Error("ssh serve", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	return srv.Shutdown(ctx)
}

// sessionHandler builds the per-connection viewer. The client's
// requested command, if any, overrides the shell.
func sessionHandler(cfg *Config, appCfg *config.Config) bubbletea.Handler {
	return func(sshSess ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, active := sshSess.Pty()
		if !active {
			wish.Fatalln(sshSess, "a PTY is required, connect with ssh -t")
			return nil, nil
		}

		cols, rows := pty.Window.Width, pty.Window.Height
		if cols < 1 {
			cols = 80
		}
		if rows < 1 {
			rows = 24
		}

		sess, err := session.New(appCfg, cols, rows)
		if err != nil {
			wish.Fatalln(sshSess, "session:", err)
			return nil, nil
		}

		shell := cfg.Shell
		if cmd := sshSess.Command(); len(cmd) > 0 {
			shell = cmd[0]
		}
		if err := sess.SpawnShell(shell); err != nil {
			_ = sess.Close()
			wish.Fatalln(sshSess, "spawn:", err)
			return nil, nil
		}
		logger.Info("session started",
			"id", sess.ID(), "user", sshSess.User(), "shell", sess.Shell(),
			"cols", cols, "rows", rows)

		// The connection owns the shell: kill it when the client goes
		// away, whether the program quit cleanly or the link dropped.
		go func() {
			<-sshSess.Context().Done()
			_ = sess.Close()
			logger.Info("session closed", "id", sess.ID())
		}()

		return viewer.New(sess), []tea.ProgramOption{tea.WithFPS(viewer.FPS)}
	}
}
