package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for lifecycle misuse. Every method checks the
// session state explicitly; a closed or unspawned handle fails fast
// instead of touching freed resources.
var (
	// ErrInvalidDims is returned by New when either dimension is below
	// one.
	ErrInvalidDims = errors.New("invalid terminal dimensions")

	// ErrSessionClosed is returned by every operation after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrNotSpawned is returned by PTY operations before SpawnShell
	// succeeded.
	ErrNotSpawned = errors.New("shell not spawned")

	// ErrAlreadySpawned is returned by SpawnShell when the session
	// already has a live shell.
	ErrAlreadySpawned = errors.New("shell already spawned")

	// ErrSpawnFailed is returned by operations on a session whose
	// spawn attempt failed. Only Close is useful on such a session.
	ErrSpawnFailed = errors.New("shell spawn failed")

	// ErrChildExited reports that the shell process exited and the PTY
	// has been drained.
	ErrChildExited = errors.New("child process exited")
)

// SpawnError wraps a shell launch failure with the shell that was
// attempted. A failed spawn is terminal for the session.
type SpawnError struct {
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Shell, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
