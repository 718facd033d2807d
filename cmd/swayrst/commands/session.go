package commands

import (
	"fmt"

	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/bryanchriswhite/swayrst/internal/procinfo"
	"github.com/bryanchriswhite/swayrst/internal/profile"
	"github.com/bryanchriswhite/swayrst/internal/restore"
	"github.com/bryanchriswhite/swayrst/internal/window"
)

// connect opens the window manager session and builds a Restorer on it.
// The returned func releases the connections.
func connect() (*restore.Restorer, func(), error) {
	log := logger.WithComponent("cli")

	ipc, err := window.Dial("")
	if err != nil {
		return nil, nil, err
	}
	if v, err := ipc.Version(); err == nil {
		log.Info().Str("socket", ipc.SocketPath()).Str("version", v.HumanReadable).Msg("Connected to window manager")
	}

	var session window.Session = ipc
	cleanup := func() { ipc.Close() }

	// i3 does not report pids; sway omits them for some Xwayland windows
	if resolver, err := window.NewX11PIDResolver(); err == nil {
		session = &window.PIDFillingSession{Session: ipc, Resolver: resolver}
		cleanup = func() {
			resolver.Close()
			ipc.Close()
		}
	} else {
		log.Debug().Err(err).Msg("No X11 connection, using pids reported by the window manager")
	}

	inspector, err := procinfo.New()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to open /proc: %w", err)
	}

	opts := restore.Options{
		StartMissingApps:       cfg.StartMissingApps.Active,
		RespectOtherWorkspaces: cfg.RespectOtherWorkspaces,
		Launcher:               cfg.LauncherOptions(),
	}
	return restore.New(session, profile.NewStore(cfg.ProfileDir), inspector, opts), cleanup, nil
}
