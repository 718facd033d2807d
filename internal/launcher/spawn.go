package launcher

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/bryanchriswhite/swayrst/internal/logger"
)

// ExecSpawner starts processes with os/exec in their own process group so
// they outlive an interrupted restore.
type ExecSpawner struct{}

// Spawn starts argv in dir and reaps it in the background
func (s ExecSpawner) Spawn(argv []string, dir string) error {
	_, err := s.Start(argv, dir)
	return err
}

// Start is Spawn returning the child's pid. The child sees argv unchanged,
// so its command line matches the saved command even when argv[0] is
// resolved through PATH.
func (ExecSpawner) Start(argv []string, dir string) (int, error) {
	if len(argv) == 0 {
		return 0, errors.New("empty command")
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return 0, fmt.Errorf("failed to find %s: %w", argv[0], err)
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Args = argv
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	pid := cmd.Process.Pid
	go func() {
		err := cmd.Wait()
		logger.WithComponent("launcher").Debug().Err(err).Int("pid", pid).Strs("argv", argv).Msg("Started app exited")
	}()

	return pid, nil
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns time.Now
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep calls time.Sleep
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
