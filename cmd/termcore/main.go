// Package main implements termcore, a terminal session core with a
// thin command line around it: run a shell in the current terminal,
// execute commands headless, or serve sessions over SSH.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/termforge/termcore/internal/config"
	"github.com/termforge/termcore/internal/server"
	"github.com/termforge/termcore/internal/session"
	"github.com/termforge/termcore/internal/theme"
	"github.com/termforge/termcore/internal/viewer"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode  bool
	cpuProfile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "termcore",
		Short: "Terminal session core",
		Long: `termcore - terminal session core

A PTY-backed terminal emulator core. Spawns a shell behind a
pseudo-terminal, interprets its output into a queryable grid with
scrollback, and exposes the result to hosts: the built-in viewer,
headless execution, or an SSH server.`,
		Example: `  # Run a shell in the current terminal
  termcore

  # Run a specific shell
  termcore run --shell /bin/fish

  # Capture the final screen of a command
  termcore exec -- ls -la

  # Serve sessions over SSH
  termcore serve --port 2222

  # Show the configuration
  termcore config show`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal("")
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")

	var runShell string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a shell session in the current terminal",
		Long: `Run a shell session in the current terminal

Spawns the configured shell behind a PTY and attaches the full-screen
viewer. The session ends when the shell exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(runShell)
		},
	}
	runCmd.Flags().StringVar(&runShell, "shell", "", "Shell to spawn (default: configured or autodetected)")

	var execCols, execRows int
	var execTimeout time.Duration
	execCmd := &cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "Run a command headless and print the final screen",
		Long: `Run a command headless and print the final screen

Spawns the command behind a PTY, pumps its output into the grid until
the command exits or the timeout elapses, then prints the visible
screen as plain text.`,
		Example: `  # Capture colored ls output as plain text
  termcore exec -- ls -la

  # Give a slow command more time
  termcore exec --timeout 30s -- make test`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(args, execCols, execRows, execTimeout)
		},
	}
	execCmd.Flags().IntVar(&execCols, "cols", 80, "Grid width in cells")
	execCmd.Flags().IntVar(&execRows, "rows", 24, "Grid height in cells")
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 10*time.Second, "Give up after this long")

	var serveHost, servePort, serveKeyPath, serveShell string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve terminal sessions over SSH",
		Long: `Serve terminal sessions over SSH

Each connection gets its own shell session sized to the client's PTY.
The host key is generated on first start when not specified.`,
		Example: `  # Start on the default port
  termcore serve

  # Custom port and host key
  termcore serve --port 2222 --key-path /path/to/host_key`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(serveHost, servePort, serveKeyPath, serveShell)
		},
	}
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Address to listen on")
	serveCmd.Flags().StringVar(&servePort, "port", "2222", "Port to listen on")
	serveCmd.Flags().StringVar(&serveKeyPath, "key-path", "", "Path to the SSH host key (auto-generated if not specified)")
	serveCmd.Flags().StringVar(&serveShell, "shell", "", "Shell for remote sessions (default: configured or autodetected)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage termcore configuration",
		Long:  `Manage the termcore configuration file and settings`,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printConfigPath()
		},
	}

	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a default configuration file

Creates the configuration file with default settings. Refuses to
overwrite an existing file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile()
		},
	}

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	}

	configCmd.AddCommand(configPathCmd, configInitCmd, configShowCmd)

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show environment and host diagnostics",
		Long: `Show environment and host diagnostics

Reports the detected shell, terminal color profile, configuration
location and host numbers useful when filing issues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}

	rootCmd.AddCommand(runCmd, execCmd, serveCmd, configCmd, infoCmd)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

// applyDebug raises the log level of every package that logs.
func applyDebug() {
	if !debugMode {
		return
	}
	config.SetLogLevel(log.DebugLevel)
	session.SetLogLevel(log.DebugLevel)
	viewer.SetLogLevel(log.DebugLevel)
	server.SetLogLevel(log.DebugLevel)
}

// printConfigPath prints the config file path.
func printConfigPath() error {
	path, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}
	fmt.Println(path)
	return nil
}

// initConfigFile writes the default configuration, refusing to clobber
// an existing file.
func initConfigFile() error {
	path, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}
	fmt.Printf("Wrote default configuration to %s\n", path)
	return nil
}

// showConfig prints the active configuration as per-section tables.
func showConfig() error {
	cfg, err := config.LoadUserConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config, showing defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().
		Padding(0, 1)

	sections := []struct {
		Title string
		Rows  [][]string
	}{
		{
			Title: "Font",
			Rows: [][]string{
				{"family", cfg.Font.Family},
				{"size", strconv.FormatFloat(cfg.Font.Size, 'f', -1, 64)},
			},
		},
		{
			Title: "Window",
			Rows: [][]string{
				{"width", strconv.Itoa(cfg.Window.Width)},
				{"height", strconv.Itoa(cfg.Window.Height)},
				{"opacity", strconv.FormatFloat(cfg.Window.Opacity, 'f', -1, 64)},
				{"padding", strconv.Itoa(cfg.Window.Padding)},
				{"decorations", strconv.FormatBool(cfg.Window.Decorations)},
			},
		},
		{
			Title: "Colors",
			Rows: [][]string{
				{"foreground", cfg.Colors.Foreground},
				{"background", cfg.Colors.Background},
				{"cursor", cfg.Colors.Cursor},
				{"theme", cfg.Colors.Theme},
				{"palette", fmt.Sprintf("%d colors", len(cfg.PaletteOrDefault()))},
			},
		},
		{
			Title: "Shell",
			Rows: [][]string{
				{"program", orDefault(cfg.Shell.Program, "(autodetect)")},
				{"args", fmt.Sprintf("%v", cfg.Shell.Args)},
			},
		},
		{
			Title: "Scrollback",
			Rows: [][]string{
				{"lines", strconv.Itoa(cfg.Scrollback.Lines)},
			},
		},
		{
			Title: "Terminal",
			Rows: [][]string{
				{"term", orDefault(cfg.Terminal.Term, "(autodetect)")},
			},
		},
	}

	path, _ := config.ConfigPath()
	fmt.Println()
	fmt.Println(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Render("termcore configuration"))
	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(path))
	fmt.Println()

	for _, section := range sections {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
			Headers("Setting", "Value").
			Rows(section.Rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == -1 {
					return headerStyle
				}
				return cellStyle
			})

		fmt.Println(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")).Render(section.Title))
		fmt.Println(t.Render())
		fmt.Println()
	}
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func profileName(p colorprofile.Profile) string {
	switch p {
	case colorprofile.TrueColor:
		return "truecolor"
	case colorprofile.ANSI256:
		return "256 colors"
	case colorprofile.ANSI:
		return "16 colors"
	case colorprofile.Ascii:
		return "monochrome"
	case colorprofile.NoTTY:
		return "no tty"
	default:
		return "unknown"
	}
}

// runInfo prints environment and host diagnostics.
func runInfo() error {
	cfg, err := config.LoadUserConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if err := theme.Initialize(cfg.Colors.Theme); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: theme %q: %v\n", cfg.Colors.Theme, err)
	}

	profile := colorprofile.Detect(os.Stdout, os.Environ())
	configPath, _ := config.ConfigPath()

	rows := [][]string{
		{"version", version},
		{"commit", commit},
		{"config", configPath},
		{"shell", session.DetectShell()},
		{"theme", cfg.Colors.Theme},
		{"color profile", profileName(profile)},
		{"TERM", os.Getenv("TERM")},
		{"stdout is tty", strconv.FormatBool(term.IsTerminal(int(os.Stdout.Fd())))},
	}

	if hi, err := host.Info(); err == nil {
		rows = append(rows,
			[]string{"host", hi.Hostname},
			[]string{"os", fmt.Sprintf("%s (%s %s)", hi.OS, hi.Platform, hi.PlatformVersion)},
			[]string{"kernel", hi.KernelVersion},
		)
	}
	if n, err := cpu.Counts(true); err == nil {
		rows = append(rows, []string{"cpus", strconv.Itoa(n)})
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		rows = append(rows, []string{
			"memory",
			fmt.Sprintf("%.1f/%.1f GiB (%.0f%%)",
				float64(vm.Used)/(1<<30), float64(vm.Total)/(1<<30), vm.UsedPercent),
		})
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("Key", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	fmt.Println()
	fmt.Println(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Render("termcore " + version))
	fmt.Println(t.Render())
	fmt.Println()
	return nil
}
