package window

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/bryanchriswhite/swayrst/internal/logger"
)

// ErrNoSocket is returned when no IPC socket could be located.
var ErrNoSocket = errors.New("no window manager IPC socket found (is sway or i3 running?)")

// SocketPath locates the IPC socket: $SWAYSOCK, $I3SOCK, the I3_SOCKET_PATH
// property on the X11 root window, then `--get-socketpath` of the installed
// sway or i3 binary.
func SocketPath() (string, error) {
	log := logger.WithComponent("ipc")

	for _, env := range []string{"SWAYSOCK", "I3SOCK"} {
		if path := os.Getenv(env); path != "" {
			log.Debug().Str("env", env).Str("socket", path).Msg("Using socket from environment")
			return path, nil
		}
	}

	if path, err := x11SocketPath(); err == nil && path != "" {
		log.Debug().Str("socket", path).Msg("Using socket from X11 root window")
		return path, nil
	} else if err != nil {
		log.Debug().Err(err).Msg("X11 socket lookup failed")
	}

	for _, bin := range []string{"sway", "i3"} {
		if _, err := exec.LookPath(bin); err != nil {
			continue
		}
		out, err := exec.Command(bin, "--get-socketpath").Output()
		if err != nil {
			log.Debug().Err(err).Str("binary", bin).Msg("--get-socketpath failed")
			continue
		}
		if path := strings.TrimSpace(string(out)); path != "" {
			log.Debug().Str("binary", bin).Str("socket", path).Msg("Using socket reported by binary")
			return path, nil
		}
	}

	return "", ErrNoSocket
}
