// Package launcher starts applications that are part of a saved layout but
// are not running, and waits for their windows to show up.
package launcher

import (
	"os"
	"time"

	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/bryanchriswhite/swayrst/internal/matcher"
	"github.com/rs/zerolog"
)

// Options controls the launch loop
type Options struct {
	// CommandTranslation replaces argv[0] before spawning
	CommandTranslation map[string]string
	// WaitAfterSpawn is slept after every spawn before recomputing
	WaitAfterSpawn time.Duration
	// Timeout bounds the whole loop
	Timeout time.Duration
	// Dir is the working directory of spawned processes, the home directory when empty
	Dir string
}

// Spawner starts a process without waiting for it.
type Spawner interface {
	Spawn(argv []string, dir string) error
}

// Clock abstracts time so the loop can be tested without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// MissingFunc recomputes the missing apps against the live session.
type MissingFunc func() ([]matcher.MissingApp, error)

// Result summarises a launch run
type Result struct {
	Spawned   [][]string           `json:"spawned"`
	Failed    [][]string           `json:"failed"`
	TimedOut  bool                 `json:"timed_out"`
	Remaining []matcher.MissingApp `json:"remaining"`
}

// Launcher runs the start-and-poll loop.
type Launcher struct {
	opts    Options
	spawner Spawner
	clock   Clock
	log     *zerolog.Logger

	// OnSpawn, when set, is called after every spawn attempt
	OnSpawn func(original, argv []string, err error)
}

// New creates a Launcher.
func New(opts Options, spawner Spawner, clock Clock) *Launcher {
	if opts.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opts.Dir = home
		}
	}
	return &Launcher{
		opts:    opts,
		spawner: spawner,
		clock:   clock,
		log:     logger.WithComponent("launcher"),
	}
}

// Translate applies the command translation to argv[0]. argv is not modified.
func (l *Launcher) Translate(argv []string) []string {
	out := append([]string(nil), argv...)
	if len(out) == 0 {
		return out
	}
	if replacement, ok := l.opts.CommandTranslation[out[0]]; ok {
		out[0] = replacement
	}
	return out
}

// Run spawns one missing app at a time until nothing is missing, the
// timeout elapses, or every remaining app failed to spawn.
func (l *Launcher) Run(missing MissingFunc) Result {
	var result Result
	failed := make(map[string]bool)
	start := l.clock.Now()

	for {
		apps, err := missing()
		if err != nil {
			l.log.Error().Err(err).Msg("Failed to compute missing apps")
			return result
		}
		result.Remaining = apps
		if len(apps) == 0 {
			l.log.Info().Int("spawned", len(result.Spawned)).Msg("All apps are running")
			return result
		}

		if l.clock.Now().Sub(start) >= l.opts.Timeout {
			result.TimedOut = true
			l.log.Warn().
				Dur("timeout", l.opts.Timeout).
				Int("missing", len(apps)).
				Msg("Timeout while starting missing apps, continuing with the apps found")
			return result
		}

		next := l.pick(apps, failed)
		if next == nil {
			l.log.Warn().Int("missing", len(apps)).Msg("Remaining apps could not be started")
			return result
		}

		argv := l.Translate(next.Command)
		l.log.Debug().Strs("command", next.Command).Strs("argv", argv).Msg("Starting app")

		err = l.spawner.Spawn(argv, l.opts.Dir)
		if l.OnSpawn != nil {
			l.OnSpawn(next.Command, argv, err)
		}
		if err != nil {
			l.log.Error().Err(err).Strs("argv", argv).Msg("Failed to start app")
			failed[matcher.CommandKey(next.Command)] = true
			result.Failed = append(result.Failed, argv)
			continue
		}

		result.Spawned = append(result.Spawned, argv)
		l.clock.Sleep(l.opts.WaitAfterSpawn)
	}
}

func (l *Launcher) pick(apps []matcher.MissingApp, failed map[string]bool) *matcher.MissingApp {
	for i := range apps {
		if !failed[matcher.CommandKey(apps[i].Command)] {
			return &apps[i]
		}
	}
	return nil
}
