package session

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/colorprofile"

	"github.com/termforge/termcore/internal/config"
)

// Identity advertised to child processes.
const (
	termProgram        = "termcore"
	termProgramVersion = "0.1.0"
)

// resolveShell picks the shell to launch: an explicit path wins, then
// the configured program, then environment detection.
func resolveShell(cfg *config.Config, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.Shell.Program != "" {
		return cfg.Shell.Program
	}
	return detectShell()
}

// DetectShell returns the shell a session would spawn when neither the
// caller nor the configuration names one.
func DetectShell() string {
	return detectShell()
}

func detectShell() string {
	// Check environment variable first
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}

	if runtime.GOOS == "windows" {
		shells := []string{
			"powershell.exe",
			"pwsh.exe", // PowerShell Core/7+
			"cmd.exe",
		}
		for _, shell := range shells {
			if _, err := exec.LookPath(shell); err == nil {
				return shell
			}
		}
		return "cmd.exe"
	}

	shells := []string{"/bin/bash", "/bin/zsh", "/bin/fish", "/bin/sh"}
	for _, shell := range shells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

// Terminal capability detection is cached for the process lifetime.
var (
	envOnce      sync.Once
	envTermType  string
	envColorTerm string
)

// terminalEnv returns the TERM and COLORTERM values advertised to
// child shells. Detection runs once, from the host environment, so
// SSH-forwarded variables are honored.
func terminalEnv() (termType, colorTerm string) {
	envOnce.Do(func() {
		profile := colorprofile.Detect(os.Stdout, os.Environ())
		envTermType, envColorTerm = profileToEnv(profile)
	})
	return envTermType, envColorTerm
}

// profileToEnv maps a detected color profile to TERM and COLORTERM.
// A parent TERM that already names a capable terminal is preserved.
func profileToEnv(profile colorprofile.Profile) (termType, colorTerm string) {
	parentTerm := os.Getenv("TERM")

	switch profile {
	case colorprofile.TrueColor:
		if parentTerm != "" && (strings.Contains(parentTerm, "256color") ||
			strings.Contains(parentTerm, "truecolor") ||
			parentTerm == "xterm-direct" ||
			parentTerm == "alacritty" ||
			parentTerm == "kitty" ||
			strings.HasPrefix(parentTerm, "kitty-")) {
			termType = parentTerm
		} else {
			termType = "xterm-256color"
		}
		colorTerm = "truecolor"

	case colorprofile.ANSI256:
		switch {
		case strings.Contains(parentTerm, "256color"):
			termType = parentTerm
		case strings.HasPrefix(parentTerm, "screen"):
			termType = "screen-256color"
		case strings.HasPrefix(parentTerm, "tmux"):
			termType = "tmux-256color"
		default:
			termType = "xterm-256color"
		}

	case colorprofile.ANSI:
		if parentTerm != "" && parentTerm != "dumb" {
			termType = parentTerm
		} else {
			termType = "xterm"
		}

	case colorprofile.Ascii, colorprofile.NoTTY:
		termType = "dumb"

	default:
		termType = "xterm-256color"
	}
	return termType, colorTerm
}

// buildShellEnv assembles the child environment: the host environment
// plus TERM/COLORTERM (configured override or detected), the session
// identity variables and the shell integration hook-in for zsh and
// bash.
func buildShellEnv(cfg *config.Config, id, shell string) []string {
	termType, colorTerm := terminalEnv()
	if cfg != nil && cfg.Terminal.Term != "" {
		termType = cfg.Terminal.Term
	}

	env := append(os.Environ(),
		"TERM="+termType,
		"COLORTERM="+colorTerm,
		"TERM_PROGRAM="+termProgram,
		"TERM_PROGRAM_VERSION="+termProgramVersion,
		"TERMCORE_SESSION_ID="+id,
	)

	dir, err := writeIntegrationScripts()
	if err != nil {
		logger.Warn("shell integration scripts not written", "err", err)
		return env
	}
	switch {
	case strings.Contains(shell, "zsh"):
		env = append(env, "ZDOTDIR="+dir)
	case strings.Contains(shell, "bash"):
		env = append(env, "ENV="+filepath.Join(dir, ".bashrc"))
	}
	return env
}

// Shell integration hooks, sourced at shell startup. They wrap every
// prompt and command in OSC 133 marks and report the working
// directory via OSC 7, which feeds command tracking and prompt
// navigation.
const zshIntegration = `# termcore shell integration (zsh)
__termcore_precmd() {
    local exit_code=$?
    printf '\e]133;D;%d\a' "$exit_code"
    printf '\e]133;A\a'
    printf '\e]7;file://%s%s\a' "$(hostname)" "$PWD"
}
__termcore_preexec() {
    printf '\e]133;B\a'
    printf '\e]133;C\a'
}
[[ -z "$__termcore_integrated" ]] && {
    export __termcore_integrated=1
    precmd_functions+=(__termcore_precmd)
    preexec_functions+=(__termcore_preexec)
    printf '\e]133;A\a'
    printf '\e]7;file://%s%s\a' "$(hostname)" "$PWD"
}
`

const bashIntegration = `# termcore shell integration (bash)
__termcore_prompt_cmd() {
    local exit_code=$?
    printf '\e]133;D;%d\a' "$exit_code"
    printf '\e]133;A\a'
    printf '\e]7;file://%s%s\a' "$(hostname)" "$PWD"
}
__termcore_preexec() {
    printf '\e]133;B\a'
    printf '\e]133;C\a'
}
if [[ -z "$__termcore_integrated" ]]; then
    export __termcore_integrated=1
    PROMPT_COMMAND='__termcore_prompt_cmd'
    trap '__termcore_preexec' DEBUG
    printf '\e]133;A\a'
    printf '\e]7;file://%s%s\a' "$(hostname)" "$PWD"
fi
`

// writeIntegrationScripts writes the integration rc files to a shared
// temp directory and returns its path. The generated .zshrc and
// .bashrc source the user's own rc file first, then the hooks, so
// integration never replaces the user's setup.
func writeIntegrationScripts() (string, error) {
	dir := filepath.Join(os.TempDir(), "termcore-shell-integration")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create integration dir: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	zshHooks := filepath.Join(dir, "integration.zsh")
	if err := os.WriteFile(zshHooks, []byte(zshIntegration), 0o644); err != nil {
		return "", fmt.Errorf("write zsh hooks: %w", err)
	}
	userZshrc := filepath.Join(home, ".zshrc")
	zshrc := fmt.Sprintf("[[ -f %q ]] && source %q\nsource %q\n", userZshrc, userZshrc, zshHooks)
	if err := os.WriteFile(filepath.Join(dir, ".zshrc"), []byte(zshrc), 0o644); err != nil {
		return "", fmt.Errorf("write .zshrc: %w", err)
	}

	bashHooks := filepath.Join(dir, "integration.bash")
	if err := os.WriteFile(bashHooks, []byte(bashIntegration), 0o644); err != nil {
		return "", fmt.Errorf("write bash hooks: %w", err)
	}
	userBashrc := filepath.Join(home, ".bashrc")
	bashrc := fmt.Sprintf("[[ -f %q ]] && source %q\nsource %q\n", userBashrc, userBashrc, bashHooks)
	if err := os.WriteFile(filepath.Join(dir, ".bashrc"), []byte(bashrc), 0o644); err != nil {
		return "", fmt.Errorf("write .bashrc: %w", err)
	}

	return dir, nil
}
