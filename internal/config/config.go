// Package config loads and persists the user-facing terminal
// configuration from a TOML file in the XDG config directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// configRelPath is the config file location relative to the XDG config
// directory, e.g. ~/.config/termcore/termcore.toml.
const configRelPath = "termcore/termcore.toml"

// Config is the full user configuration. Every field has a default, so
// a missing or partial file always yields a usable config.
type Config struct {
	Font       FontConfig       `toml:"font"`
	Window     WindowConfig     `toml:"window"`
	Colors     ColorConfig      `toml:"colors"`
	Shell      ShellConfig      `toml:"shell"`
	Scrollback ScrollbackConfig `toml:"scrollback"`
	Terminal   TerminalConfig   `toml:"terminal"`
}

// FontConfig selects the cell font used by graphical hosts.
type FontConfig struct {
	Family string  `toml:"family"`
	Size   float64 `toml:"size"`
}

// WindowConfig holds the initial window geometry and chrome settings.
type WindowConfig struct {
	Width       int     `toml:"width"`
	Height      int     `toml:"height"`
	Opacity     float64 `toml:"opacity"`
	Padding     int     `toml:"padding"`
	Decorations bool    `toml:"decorations"`
}

// ColorConfig holds the default colors as hex strings plus an optional
// named theme and a 16-entry ANSI palette override.
type ColorConfig struct {
	Foreground string   `toml:"foreground"`
	Background string   `toml:"background"`
	Cursor     string   `toml:"cursor"`
	Theme      string   `toml:"theme"`
	Palette    []string `toml:"palette,omitempty"`
}

// ShellConfig selects the child program spawned into the PTY.
type ShellConfig struct {
	Program string   `toml:"program"`
	Args    []string `toml:"args"`
}

// ScrollbackConfig bounds the scrollback buffer.
type ScrollbackConfig struct {
	Lines int `toml:"lines"`
}

// TerminalConfig overrides terminal environment settings for the
// child process. An empty Term autodetects.
type TerminalConfig struct {
	Term string `toml:"term"`
}

// DefaultPalette is the stock 16-color ANSI palette as hex strings,
// index 0 through 15.
var DefaultPalette = []string{
	"#000000", "#cd3131", "#0dbc79", "#e5e510",
	"#2472c8", "#bc3fbc", "#11a8cd", "#cccccc",
	"#666666", "#f14c4c", "#23d18b", "#f5f543",
	"#3b8eea", "#d670d6", "#29b8db", "#f2f2f2",
}

// DefaultConfig returns the built-in defaults. The shell program
// follows $SHELL when set, matching what a login terminal would spawn.
func DefaultConfig() *Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/zsh"
	}
	return &Config{
		Font: FontConfig{
			Family: "Menlo",
			Size:   14.0,
		},
		Window: WindowConfig{
			Width:       800,
			Height:      600,
			Opacity:     1.0,
			Padding:     4,
			Decorations: true,
		},
		Colors: ColorConfig{
			Foreground: "#cccccc",
			Background: "#000000",
			Cursor:     "#cccccc",
			Theme:      "default",
		},
		Shell: ShellConfig{
			Program: shell,
			Args:    []string{"--login"},
		},
		Scrollback: ScrollbackConfig{
			Lines: 10000,
		},
		Terminal: TerminalConfig{},
	}
}

// ConfigPath returns the config file path inside the XDG config
// directory, creating parent directories as needed.
func ConfigPath() (string, error) {
	path, err := xdg.ConfigFile(configRelPath)
	if err != nil {
		return "", fmt.Errorf("could not resolve config path: %w", err)
	}
	return path, nil
}

// Load reads a config file from path. A missing file yields the
// defaults with no error. A file that fails to parse also yields the
// defaults, with the parse error returned so callers can warn.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("could not read config: %w", err)
	}
	return Parse(data)
}

// LoadUserConfig loads the config from the XDG location. On any
// failure the returned config is still usable (defaults).
func LoadUserConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return Load(path)
}

// Parse decodes TOML into a config. Unset fields keep their defaults;
// invalid TOML returns the defaults along with the error.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("could not parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config as TOML to path, creating parent directories.
// The file carries a short header pointing back at its own location.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# termcore configuration\n")
	sb.WriteString("# Location: " + path + "\n\n")
	sb.Write(data)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// PaletteOrDefault returns the configured ANSI palette when it has
// exactly 16 entries, otherwise the stock palette.
func (c *Config) PaletteOrDefault() []string {
	if len(c.Colors.Palette) == 16 {
		return c.Colors.Palette
	}
	return DefaultPalette
}
