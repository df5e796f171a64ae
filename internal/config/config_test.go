package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/termforge/termcore/internal/config"
)

// =============================================================================
// Default Configuration Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Font.Family != "Menlo" {
		t.Errorf("Expected default font family Menlo, got %q", cfg.Font.Family)
	}
	if cfg.Font.Size != 14.0 {
		t.Errorf("Expected default font size 14.0, got %v", cfg.Font.Size)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("Expected default window 800x600, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Opacity != 1.0 {
		t.Errorf("Expected default opacity 1.0, got %v", cfg.Window.Opacity)
	}
	if !cfg.Window.Decorations {
		t.Error("Expected window decorations enabled by default")
	}
	if cfg.Colors.Foreground != "#cccccc" {
		t.Errorf("Expected default foreground #cccccc, got %q", cfg.Colors.Foreground)
	}
	if cfg.Colors.Background != "#000000" {
		t.Errorf("Expected default background #000000, got %q", cfg.Colors.Background)
	}
	if cfg.Scrollback.Lines != 10000 {
		t.Errorf("Expected default scrollback 10000, got %d", cfg.Scrollback.Lines)
	}
	if cfg.Shell.Program == "" {
		t.Error("Expected default shell program to be set")
	}
	if len(cfg.Shell.Args) != 1 || cfg.Shell.Args[0] != "--login" {
		t.Errorf("Expected default shell args [--login], got %v", cfg.Shell.Args)
	}
	if cfg.Terminal.Term != "" {
		t.Errorf("Expected empty TERM override by default, got %q", cfg.Terminal.Term)
	}
}

func TestDefaultPalette(t *testing.T) {
	if len(config.DefaultPalette) != 16 {
		t.Fatalf("Expected 16 palette entries, got %d", len(config.DefaultPalette))
	}

	checks := map[int]string{
		0:  "#000000",
		1:  "#cd3131",
		7:  "#cccccc",
		12: "#3b8eea",
		15: "#f2f2f2",
	}
	for idx, want := range checks {
		if got := config.DefaultPalette[idx]; got != want {
			t.Errorf("Expected palette[%d] = %s, got %s", idx, want, got)
		}
	}
}

// =============================================================================
// Parse Tests
// =============================================================================

func TestParseEmpty(t *testing.T) {
	cfg, err := config.Parse(nil)
	if err != nil {
		t.Fatalf("Parse(empty) returned error: %v", err)
	}
	if cfg.Font.Family != "Menlo" {
		t.Errorf("Expected default font family, got %q", cfg.Font.Family)
	}
	if cfg.Scrollback.Lines != 10000 {
		t.Errorf("Expected default scrollback, got %d", cfg.Scrollback.Lines)
	}
}

func TestParsePartialPreservesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[font]
family = "JetBrains Mono"
size = 16.0

[scrollback]
lines = 5000
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if cfg.Font.Family != "JetBrains Mono" {
		t.Errorf("Expected font family JetBrains Mono, got %q", cfg.Font.Family)
	}
	if cfg.Font.Size != 16.0 {
		t.Errorf("Expected font size 16.0, got %v", cfg.Font.Size)
	}
	if cfg.Scrollback.Lines != 5000 {
		t.Errorf("Expected scrollback 5000, got %d", cfg.Scrollback.Lines)
	}

	// Unset sections keep defaults.
	if cfg.Window.Width != 800 {
		t.Errorf("Expected default window width 800, got %d", cfg.Window.Width)
	}
	if cfg.Colors.Background != "#000000" {
		t.Errorf("Expected default background, got %q", cfg.Colors.Background)
	}
}

func TestParseFull(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[font]
family = "Fira Code"
size = 13.0

[window]
width = 1024
height = 768
opacity = 0.95
padding = 8
decorations = false

[colors]
foreground = "#e0e0e0"
background = "#1a1a2e"
cursor = "#ffffff"
theme = "dracula"

[shell]
program = "/bin/bash"
args = ["-l"]

[scrollback]
lines = 20000

[terminal]
term = "xterm-256color"
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if cfg.Font.Family != "Fira Code" {
		t.Errorf("Expected font family Fira Code, got %q", cfg.Font.Family)
	}
	if cfg.Window.Opacity != 0.95 {
		t.Errorf("Expected opacity 0.95, got %v", cfg.Window.Opacity)
	}
	if cfg.Window.Decorations {
		t.Error("Expected decorations disabled")
	}
	if cfg.Colors.Theme != "dracula" {
		t.Errorf("Expected theme dracula, got %q", cfg.Colors.Theme)
	}
	if cfg.Shell.Program != "/bin/bash" {
		t.Errorf("Expected shell /bin/bash, got %q", cfg.Shell.Program)
	}
	if len(cfg.Shell.Args) != 1 || cfg.Shell.Args[0] != "-l" {
		t.Errorf("Expected shell args [-l], got %v", cfg.Shell.Args)
	}
	if cfg.Scrollback.Lines != 20000 {
		t.Errorf("Expected scrollback 20000, got %d", cfg.Scrollback.Lines)
	}
	if cfg.Terminal.Term != "xterm-256color" {
		t.Errorf("Expected TERM override xterm-256color, got %q", cfg.Terminal.Term)
	}
}

func TestParseInvalidFallsBack(t *testing.T) {
	cfg, err := config.Parse([]byte("this is not valid toml {{{}}}"))
	if err == nil {
		t.Error("Expected parse error for invalid TOML")
	}
	if cfg == nil {
		t.Fatal("Expected defaults for invalid TOML, got nil")
	}
	if cfg.Font.Family != "Menlo" {
		t.Errorf("Expected default font family after parse failure, got %q", cfg.Font.Family)
	}
}

func TestPaletteOrDefault(t *testing.T) {
	cfg := config.DefaultConfig()

	// No override configured.
	pal := cfg.PaletteOrDefault()
	if len(pal) != 16 || pal[1] != "#cd3131" {
		t.Errorf("Expected stock palette, got %v", pal)
	}

	// Wrong entry count falls back.
	cfg.Colors.Palette = []string{"#111111", "#222222"}
	pal = cfg.PaletteOrDefault()
	if pal[0] != "#000000" {
		t.Errorf("Expected stock palette for short override, got %v", pal)
	}

	// Full override is used as-is.
	full := make([]string, 16)
	for i := range full {
		full[i] = "#123456"
	}
	cfg.Colors.Palette = full
	pal = cfg.PaletteOrDefault()
	if pal[5] != "#123456" {
		t.Errorf("Expected overridden palette, got %v", pal)
	}
}

// =============================================================================
// Load / Save Tests
// =============================================================================

func TestLoadMissingFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if cfg.Font.Family != "Menlo" {
		t.Errorf("Expected defaults for missing file, got font %q", cfg.Font.Family)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err == nil {
		t.Error("Expected error loading invalid TOML")
	}
	if cfg == nil || cfg.Scrollback.Lines != 10000 {
		t.Error("Expected usable defaults after load failure")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "termcore.toml")

	cfg := config.DefaultConfig()
	cfg.Font.Family = "Fira Code"
	cfg.Scrollback.Lines = 4321
	cfg.Colors.Theme = "nord"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Could not read saved config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# termcore configuration") {
		t.Error("Expected saved config to start with header comment")
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Font.Family != "Fira Code" {
		t.Errorf("Expected font family Fira Code, got %q", loaded.Font.Family)
	}
	if loaded.Scrollback.Lines != 4321 {
		t.Errorf("Expected scrollback 4321, got %d", loaded.Scrollback.Lines)
	}
	if loaded.Colors.Theme != "nord" {
		t.Errorf("Expected theme nord, got %q", loaded.Colors.Theme)
	}
}

// =============================================================================
// Watcher Tests
// =============================================================================

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termcore.toml")
	if err := os.WriteFile(path, []byte("[scrollback]\nlines = 1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	initial, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *config.Config, 4)
	w, err := config.NewWatcher(path, initial, func(c *config.Config) {
		reloaded <- c
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if got := w.Current().Scrollback.Lines; got != 1000 {
		t.Fatalf("Expected initial scrollback 1000, got %d", got)
	}

	if err := os.WriteFile(path, []byte("[scrollback]\nlines = 2000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Scrollback.Lines != 2000 {
			t.Errorf("Expected reloaded scrollback 2000, got %d", cfg.Scrollback.Lines)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for config reload")
	}

	if got := w.Current().Scrollback.Lines; got != 2000 {
		t.Errorf("Expected Current to track reload, got %d", got)
	}
}

func TestWatcherKeepsLastGoodOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termcore.toml")
	if err := os.WriteFile(path, []byte("[scrollback]\nlines = 1500\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	initial, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *config.Config, 4)
	w, err := config.NewWatcher(path, initial, func(c *config.Config) {
		reloaded <- c
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	// Break the file. The watcher should keep the last good config and
	// never fire the callback.
	if err := os.WriteFile(path, []byte("broken = [toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		t.Fatalf("Expected no reload for invalid TOML, got scrollback %d", cfg.Scrollback.Lines)
	case <-time.After(500 * time.Millisecond):
	}

	if got := w.Current().Scrollback.Lines; got != 1500 {
		t.Errorf("Expected last good config retained, got scrollback %d", got)
	}

	// Fix the file and verify the watcher is still alive.
	if err := os.WriteFile(path, []byte("[scrollback]\nlines = 1600\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Scrollback.Lines != 1600 {
			t.Errorf("Expected scrollback 1600 after repair, got %d", cfg.Scrollback.Lines)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for reload after repair")
	}
}

func TestWatcherCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termcore.toml")

	w, err := config.NewWatcher(path, config.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("First Close returned error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Second Close returned error: %v", err)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = config.DefaultConfig()
	}
}

func BenchmarkParse(b *testing.B) {
	data := []byte("[font]\nfamily = \"Menlo\"\nsize = 14.0\n\n[scrollback]\nlines = 10000\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = config.Parse(data)
	}
}
