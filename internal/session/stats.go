package session

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// Stats is a point-in-time sample of the shell process, for
// diagnostics surfaces.
type Stats struct {
	Pid        int32
	Name       string
	CPUPercent float64
	RSS        uint64
	NumThreads int32
}

// Stats samples the shell process from the OS process table. It
// fails before SpawnShell and once the process is gone.
func (s *Session) Stats() (*Stats, error) {
	s.mu.RLock()
	if err := s.ptyReady(); err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	pid := int32(s.cmd.Process.Pid) //nolint:gosec // pids fit in int32
	s.mu.RUnlock()

	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("inspect pid %d: %w", pid, err)
	}

	st := &Stats{Pid: pid}
	if name, err := proc.Name(); err == nil {
		st.Name = name
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		st.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		st.RSS = mem.RSS
	}
	if threads, err := proc.NumThreads(); err == nil {
		st.NumThreads = threads
	}
	return st, nil
}
