// Package restore saves the live window layout as a profile and rebuilds a
// saved profile in the running session.
package restore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bryanchriswhite/swayrst/internal/capture"
	"github.com/bryanchriswhite/swayrst/internal/launcher"
	"github.com/bryanchriswhite/swayrst/internal/layout"
	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/bryanchriswhite/swayrst/internal/matcher"
	"github.com/bryanchriswhite/swayrst/internal/procinfo"
	"github.com/bryanchriswhite/swayrst/internal/profile"
	"github.com/bryanchriswhite/swayrst/internal/replay"
	"github.com/bryanchriswhite/swayrst/internal/window"
	"github.com/rs/zerolog"
)

// Options selects the optional restore steps
type Options struct {
	StartMissingApps       bool
	RespectOtherWorkspaces bool
	Launcher               launcher.Options
}

// Report summarises a restore
type Report struct {
	Profile   string               `json:"profile"`
	Spawned   [][]string           `json:"spawned"`
	Failed    [][]string           `json:"failed"`
	TimedOut  bool                 `json:"timed_out"`
	Remaining []matcher.MissingApp `json:"remaining"`
	Matched   int                  `json:"matched"`
	Unmatched int                  `json:"unmatched"`
	Commands  int                  `json:"commands"`
	Failures  int                  `json:"failures"`
	Skipped   int                  `json:"skipped"`
}

// Restorer runs save and load against one window manager session.
// Operations are serialised.
type Restorer struct {
	session   window.Session
	store     *profile.Store
	inspector procinfo.Inspector
	spawner   launcher.Spawner
	clock     launcher.Clock
	opts      Options
	log       *zerolog.Logger

	op        sync.Mutex
	mu        sync.RWMutex
	listeners []chan Event
}

// Option configures a Restorer
type Option func(*Restorer)

// WithSpawner replaces the process spawner used for missing apps.
func WithSpawner(s launcher.Spawner) Option {
	return func(r *Restorer) {
		r.spawner = s
	}
}

// WithClock replaces the clock of the launch loop and event timestamps.
func WithClock(c launcher.Clock) Option {
	return func(r *Restorer) {
		r.clock = c
	}
}

// New creates a Restorer.
func New(session window.Session, store *profile.Store, inspector procinfo.Inspector, opts Options, extra ...Option) *Restorer {
	r := &Restorer{
		session:   session,
		store:     store,
		inspector: inspector,
		spawner:   launcher.ExecSpawner{},
		clock:     launcher.SystemClock{},
		opts:      opts,
		log:       logger.WithComponent("restore"),
		listeners: make([]chan Event, 0),
	}
	for _, opt := range extra {
		opt(r)
	}
	return r
}

// Store returns the profile store
func (r *Restorer) Store() *profile.Store {
	return r.store
}

// Tree captures the whole live session.
func (r *Restorer) Tree() (*layout.Tree, error) {
	return capture.New(r.inspector).FromSession(r.session)
}

func (r *Restorer) fatal(code int, format string, args ...any) error {
	err := Fatal(code, format, args...)
	r.log.WithLevel(zerolog.FatalLevel).Int("code", code).Msg(err.Error())
	return err
}

// Save captures the live session and stores it under name.
func (r *Restorer) Save(name string) error {
	r.op.Lock()
	defer r.op.Unlock()

	if name == "" {
		return r.fatal(ExitNoProfile, "no profile set")
	}

	tree, err := r.Tree()
	if err != nil {
		return err
	}

	r.log.Info().Str("profile", name).Str("path", r.store.Path(name)).Msg("Saving profile")
	if err := r.store.Save(name, tree); err != nil {
		return err
	}

	r.publish(Event{Type: EventSaved, Profile: name})
	return nil
}

// Load rebuilds the named profile: missing apps are started, saved windows
// are matched to live ones, live windows are parked in the scratchpad and
// the saved workspaces are replayed.
func (r *Restorer) Load(name string) (*Report, error) {
	r.op.Lock()
	defer r.op.Unlock()

	if name == "" {
		return nil, r.fatal(ExitNoProfile, "no profile set")
	}

	saved, err := r.store.Load(name)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil, r.fatal(ExitProfileNotFound, "profile file %s doesn't exist", r.store.Path(name))
		}
		return nil, err
	}

	var captureOpts []capture.Option
	if r.opts.RespectOtherWorkspaces {
		captureOpts = append(captureOpts, capture.WithReference(saved))
	}
	capturer := capture.New(r.inspector, captureOpts...)

	live, err := capturer.FromSession(r.session)
	if err != nil {
		return nil, err
	}
	if !saved.SharesOutput(live) {
		return nil, r.fatal(ExitNoCommonOutput, "no common output name in profile %s and current system", name)
	}

	r.publish(Event{Type: EventStarted, Profile: name})
	report := &Report{Profile: name, Spawned: [][]string{}, Failed: [][]string{}, Remaining: []matcher.MissingApp{}}

	old := matcher.NewIndex(saved)

	if r.opts.StartMissingApps {
		if err := r.startMissing(name, saved, old, capturer, report); err != nil {
			return nil, err
		}
	}

	root, err := r.session.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	cur := capturer.Capture(root)
	mapping := matcher.Map(old, matcher.NewIndex(cur))
	report.Matched = len(mapping)
	report.Unmatched = len(old.Apps) - len(mapping)

	replayer := replay.New(r.session, mapping)
	replayer.OnCommand(func(command string, target int64, err error) {
		ev := Event{Type: EventCommand, Profile: name, Command: command, Target: target}
		if err != nil {
			ev.Type = EventCommandFailed
			ev.Error = err.Error()
		}
		r.publish(ev)
	})
	replayer.Quarantine(capturer.Windows(root))
	stats := replayer.Replay(saved)

	report.Commands = stats.Commands
	report.Failures = stats.Failures
	report.Skipped = stats.Skipped

	r.log.Info().
		Str("profile", name).
		Int("matched", report.Matched).
		Int("unmatched", report.Unmatched).
		Int("commands", report.Commands).
		Int("failures", report.Failures).
		Msg("Profile restored")

	r.publish(Event{Type: EventFinished, Profile: name, Report: report})
	return report, nil
}

func (r *Restorer) startMissing(name string, saved *layout.Tree, old *matcher.Index, capturer *capture.Capturer, report *Report) error {
	// Guard only: Load indexes the saved tree before calling here, so a nil
	// index means a caller skipped that step.
	if old == nil {
		return r.fatal(ExitNoMapping, "no map for command to ids to restore available")
	}

	if ws := saved.FirstWorkspace(); ws != nil {
		if ws.Number != nil {
			if err := r.session.Execute(fmt.Sprintf("workspace number %d", *ws.Number), nil); err != nil {
				r.log.Error().Err(err).Int("number", *ws.Number).Msg("Failed to switch to first workspace")
			}
		} else {
			r.log.Warn().Str("workspace", ws.Name).Msg("First workspace has no number, not switching")
		}
	}

	l := launcher.New(r.opts.Launcher, r.spawner, r.clock)
	l.OnSpawn = func(original, argv []string, err error) {
		ev := Event{Type: EventAppSpawned, Profile: name, Argv: argv}
		if err != nil {
			ev.Type = EventSpawnFailed
			ev.Error = err.Error()
		}
		r.publish(ev)
	}

	res := l.Run(r.missingFunc(old, capturer))
	report.Spawned = append(report.Spawned, res.Spawned...)
	report.Failed = append(report.Failed, res.Failed...)
	report.TimedOut = res.TimedOut
	report.Remaining = append(report.Remaining, res.Remaining...)
	return nil
}

// missingFunc recaptures the session on every call and compares it with old.
func (r *Restorer) missingFunc(old *matcher.Index, capturer *capture.Capturer) launcher.MissingFunc {
	return func() ([]matcher.MissingApp, error) {
		cur, err := capturer.FromSession(r.session)
		if err != nil {
			return nil, err
		}
		return matcher.Missing(old, matcher.NewIndex(cur)), nil
	}
}
