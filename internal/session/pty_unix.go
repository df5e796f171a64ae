//go:build !windows

package session

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// configurePTYCommand sets up the command for PTY usage on Unix
// systems: a new session with the PTY slave as controlling terminal.
func configurePTYCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true, // Create new session
		Setctty: true, // Set controlling terminal
		Ctty:    0,    // Use stdin (which will be the PTY slave)
	}
}

// startShellPty launches cmd attached to a fresh PTY pair of the
// given size and returns the master end, switched to non-blocking so
// the pump can drain it without stalling.
func startShellPty(cmd *exec.Cmd, cols, rows, pixelW, pixelH int) (*os.File, error) {
	configurePTYCommand(cmd)
	ws := &pty.Winsize{
		Rows: uint16(rows),   //nolint:gosec // dims validated positive
		Cols: uint16(cols),   //nolint:gosec
		X:    uint16(pixelW), //nolint:gosec
		Y:    uint16(pixelH), //nolint:gosec
	}
	ptmx, err := pty.StartWithAttrs(cmd, ws, cmd.SysProcAttr)
	if err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(int(ptmx.Fd()), true); err != nil {
		_ = ptmx.Close()
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return nil, err
	}
	return ptmx, nil
}

// resizePty forwards the new grid and pixel dimensions to the kernel.
func resizePty(f *os.File, cols, rows, pixelW, pixelH int) error {
	return pty.Setsize(f, &pty.Winsize{
		Rows: uint16(rows),   //nolint:gosec // dims validated positive
		Cols: uint16(cols),   //nolint:gosec
		X:    uint16(pixelW), //nolint:gosec
		Y:    uint16(pixelH), //nolint:gosec
	})
}

// readPty reads available bytes from the non-blocking master.
// Returns an EAGAIN error when drained.
func readPty(f *os.File, buf []byte) (int, error) {
	for {
		n, err := unix.Read(int(f.Fd()), buf)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// writePty writes p to the master.
func writePty(f *os.File, p []byte) (int, error) {
	for {
		n, err := unix.Write(int(f.Fd()), p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// isDrained reports an empty non-blocking read.
func isDrained(err error) bool {
	return errors.Is(err, unix.EAGAIN)
}

// isHangup reports the errno a PTY master read yields once the child
// side is gone.
func isHangup(err error) bool {
	return errors.Is(err, unix.EIO)
}
