package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Package-level logger
var logger *log.Logger

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "config",
	})
}

// SetLogLevel sets the logging level for the config package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// debounceInterval coalesces the burst of filesystem events an editor
// save produces into a single reload.
const debounceInterval = 100 * time.Millisecond

// Watcher reloads the config file when it changes on disk. Reloads
// that fail to parse keep the previous config, so a half-saved edit
// never downgrades a running session to defaults.
type Watcher struct {
	mu       sync.Mutex
	path     string
	current  *Config
	onChange func(*Config)

	fw     *fsnotify.Watcher
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewWatcher watches the config file at path. The watch is placed on
// the parent directory so atomic saves (write to temp, rename over)
// are still observed. onChange runs on the watcher goroutine with
// each successfully parsed config; it may be nil.
func NewWatcher(path string, initial *Config, onChange func(*Config)) (*Watcher, error) {
	if initial == nil {
		initial = DefaultConfig()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fw.Close()
		return nil, fmt.Errorf("could not create config directory: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("could not watch %s: %w", dir, err)
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		current:  initial,
		onChange: onChange,
		fw:       fw,
		done:     make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Current returns the most recent successfully parsed config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	err := w.fw.Close()
	w.wg.Wait()
	return err
}

// loop coalesces events for the config file and reloads after the
// debounce interval passes without further writes.
func (w *Watcher) loop() {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceInterval)
				pending = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-pending:
					default:
					}
				}
				timer.Reset(debounceInterval)
			}

		case <-pending:
			timer = nil
			pending = nil
			w.reload()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Warn("config watch error", "err", err)
		}
	}
}

// reload re-parses the config file. Parse failures keep the last good
// config and skip the callback.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logger.Warn("config reload failed, keeping previous", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	w.current = cfg
	cb := w.onChange
	w.mu.Unlock()

	logger.Info("config reloaded", "path", w.path)
	if cb != nil {
		cb(cfg)
	}
}
