// Package procinfo maps process ids to the argument vector that launched them.
package procinfo

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/procfs"
)

// ErrNotFound is returned when the process no longer exists or has no command line.
var ErrNotFound = errors.New("process not found")

// Inspector resolves a pid to its argv.
type Inspector interface {
	Argv(pid int) ([]string, error)
}

// ProcFS reads command lines from /proc.
type ProcFS struct {
	fs procfs.FS
}

// New opens the default /proc mount.
func New() (*ProcFS, error) {
	return NewWithMount(procfs.DefaultMountPoint)
}

// NewWithMount opens a proc filesystem mounted at mountPoint.
func NewWithMount(mountPoint string) (*ProcFS, error) {
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs at %s: %w", mountPoint, err)
	}
	return &ProcFS{fs: fs}, nil
}

// Argv returns the command line of pid.
func (p *ProcFS) Argv(pid int) ([]string, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("pid %d: %w", pid, ErrNotFound)
	}

	proc, err := p.fs.Proc(pid)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("pid %d: %w", pid, ErrNotFound)
		}
		return nil, fmt.Errorf("pid %d: %w", pid, err)
	}

	argv, err := proc.CmdLine()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("pid %d: %w", pid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read command line of pid %d: %w", pid, err)
	}
	// Kernel threads and zombies have an empty cmdline
	if len(argv) == 0 {
		return nil, fmt.Errorf("pid %d has no command line: %w", pid, ErrNotFound)
	}
	return argv, nil
}

// Static is an Inspector backed by a fixed table.
type Static map[int][]string

// Argv returns the table entry for pid
func (s Static) Argv(pid int) ([]string, error) {
	argv, ok := s[pid]
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, ErrNotFound)
	}
	return argv, nil
}
