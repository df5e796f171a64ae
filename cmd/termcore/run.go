package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/termforge/termcore/internal/config"
	"github.com/termforge/termcore/internal/server"
	"github.com/termforge/termcore/internal/session"
	"github.com/termforge/termcore/internal/viewer"
)

// execPumpInterval is how often the headless runner drains the PTY.
const execPumpInterval = 10 * time.Millisecond

// runLocal spawns a shell session and attaches the full-screen viewer
// to the current terminal.
func runLocal(shell string) error {
	applyDebug()

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				log.Printf("Warning: failed to close CPU profile file: %v", closeErr)
			}
		}()

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal (use %q for headless runs)", "termcore exec")
	}

	cfg, err := config.LoadUserConfig()
	if err != nil {
		log.Printf("Warning: Failed to load config, using defaults: %v", err)
		cfg = config.DefaultConfig()
	}

	if debugMode {
		configPath, _ := config.ConfigPath()
		log.Printf("Configuration: %s", configPath)
	}

	// Size the session to the terminal up front so the first frame is
	// right. The viewer keeps it in sync from then on.
	cols, rows := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		cols, rows = w, h
	}

	sess, err := session.New(cfg, cols, rows)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	if err := sess.SpawnShell(shell); err != nil {
		return err
	}

	// Edits to the config file land in the live session.
	if path, err := config.ConfigPath(); err == nil {
		watcher, werr := config.NewWatcher(path, cfg, func(next *config.Config) {
			if uerr := sess.UpdateConfig(next); uerr != nil {
				log.Printf("Warning: config update failed: %v", uerr)
			}
		})
		if werr != nil {
			log.Printf("Warning: config watcher disabled: %v", werr)
		} else {
			defer watcher.Close()
		}
	}

	m := viewer.New(sess)

	p := tea.NewProgram(
		m,
		tea.WithFPS(viewer.FPS),
		tea.WithoutSignalHandler(),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		p.Send(tea.QuitMsg{})
	}()

	_, runErr := p.Run()

	// The program restores the terminal on clean exits; make sure of
	// it on the others.
	viewer.RestoreHost(os.Stdout)

	if runErr != nil {
		return fmt.Errorf("program error: %w", runErr)
	}
	return m.Err()
}

// runExec runs a command headless: spawn it behind a PTY, pump output
// into the grid until it exits or the timeout elapses, print the final
// screen.
func runExec(args []string, cols, rows int, timeout time.Duration) error {
	applyDebug()

	cfg, err := config.LoadUserConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	// The command line replaces the configured shell wholesale.
	cfg.Shell.Program = args[0]
	cfg.Shell.Args = args[1:]

	sess, err := session.New(cfg, cols, rows)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	if err := sess.SpawnShell(""); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(execPumpInterval)
	defer ticker.Stop()

	timedOut := false
loop:
	for {
		select {
		case <-ctx.Done():
			timedOut = true
			break loop
		case <-sess.Done():
			// The child is gone but its last output may still be
			// buffered in the PTY.
			_, _ = sess.PumpPty()
			break loop
		case <-ticker.C:
			if _, err := sess.PumpPty(); err != nil {
				if errors.Is(err, session.ErrChildExited) {
					break loop
				}
				return fmt.Errorf("pty pump: %w", err)
			}
		}
	}

	if out := screenText(sess); out != "" {
		fmt.Println(out)
	}
	if timedOut {
		return fmt.Errorf("command did not exit within %s", timeout)
	}
	return nil
}

// screenText returns the visible grid as plain text with trailing
// blank lines removed.
func screenText(sess *session.Session) string {
	cols, rows := sess.GridSize()
	if cols == 0 || rows == 0 {
		return ""
	}
	return strings.TrimRight(sess.ExtractText(0, 0, rows-1, cols-1), "\n ")
}

// runServe starts the SSH server and blocks until interrupted.
func runServe(host, port, keyPath, shell string) error {
	applyDebug()

	cfg, err := config.LoadUserConfig()
	if err != nil {
		log.Printf("Warning: Failed to load config, using defaults: %v", err)
		cfg = config.DefaultConfig()
	}

	log.Printf("Starting termcore SSH server on %s:%s", host, port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutting down SSH server...")
		cancel()
	}()

	srvCfg := &server.Config{
		Host:    host,
		Port:    port,
		KeyPath: keyPath,
		Shell:   shell,
	}
	if err := server.Start(ctx, srvCfg, cfg); err != nil {
		return fmt.Errorf("SSH server error: %w", err)
	}
	return nil
}
