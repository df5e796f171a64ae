//go:build windows

package session

import (
	"errors"
	"os"
	"os/exec"
)

// errPtyUnsupported is returned on platforms without Unix PTY
// semantics. The non-blocking drain discipline depends on them.
var errPtyUnsupported = errors.New("pty sessions are not supported on windows")

func configurePTYCommand(cmd *exec.Cmd) {}

func startShellPty(cmd *exec.Cmd, cols, rows, pixelW, pixelH int) (*os.File, error) {
	return nil, errPtyUnsupported
}

func resizePty(f *os.File, cols, rows, pixelW, pixelH int) error {
	return errPtyUnsupported
}

func readPty(f *os.File, buf []byte) (int, error) {
	return 0, errPtyUnsupported
}

func writePty(f *os.File, p []byte) (int, error) {
	return 0, errPtyUnsupported
}

func isDrained(err error) bool { return false }

func isHangup(err error) bool { return false }
