// Package replay rebuilds a saved layout on the live session by issuing
// window manager commands, then nudges window sizes toward the saved ones.
package replay

import (
	"github.com/bryanchriswhite/swayrst/internal/layout"
	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/bryanchriswhite/swayrst/internal/matcher"
	"github.com/bryanchriswhite/swayrst/internal/window"
	"github.com/rs/zerolog"
)

// Stats counts what a replay did
type Stats struct {
	Commands int `json:"commands"`
	Failures int `json:"failures"`
	Skipped  int `json:"skipped"`
}

// CommandHook observes every issued command. target is 0 for session commands.
type CommandHook func(command string, target int64, err error)

// runner issues commands one at a time and never stops on failure.
type runner struct {
	session window.Session
	mapping matcher.Mapping
	log     *zerolog.Logger
	stats   Stats
	hook    CommandHook
}

func newRunner(session window.Session, mapping matcher.Mapping, component string) *runner {
	return &runner{
		session: session,
		mapping: mapping,
		log:     logger.WithComponent(component),
	}
}

func (r *runner) exec(command string, target *window.Node) {
	r.stats.Commands++
	err := r.session.Execute(command, target)

	var id int64
	if target != nil {
		id = target.ID
	}
	if r.hook != nil {
		r.hook(command, id, err)
	}
	if err != nil {
		r.stats.Failures++
		r.log.Error().Err(err).Str("command", command).Int64("target", id).Msg("Error while executing IPC command")
	}
}

// lookup returns the live window for a saved app, or nil when the app has
// no partner or its window is gone.
func (r *runner) lookup(app *layout.AppContainer) *window.Node {
	newID, ok := r.mapping.Resolve(app.ID)
	if !ok {
		r.stats.Skipped++
		r.log.Debug().Int64("id", app.ID).Strs("command", app.Command).Msg("No running window for app, skipping")
		return nil
	}
	win, err := r.session.FindWindow(newID)
	if err != nil {
		r.log.Error().Err(err).Int64("id", newID).Msg("Failed to look up window")
		return nil
	}
	if win == nil {
		r.stats.Skipped++
		r.log.Debug().Int64("id", newID).Msg("Window vanished, skipping")
	}
	return win
}

// resolve returns the live window of the first app under n that is mapped
// and still has a window.
func (r *runner) resolve(n layout.Node) *window.Node {
	var win *window.Node
	app := layout.FirstApp(n, func(a *layout.AppContainer) bool {
		newID, ok := r.mapping.Resolve(a.ID)
		if !ok {
			return false
		}
		w, err := r.session.FindWindow(newID)
		if err != nil {
			r.log.Error().Err(err).Int64("id", newID).Msg("Failed to look up window")
			return false
		}
		if w == nil {
			r.log.Debug().Int64("id", newID).Msg("Window vanished, trying next app")
			return false
		}
		win = w
		return true
	})
	if app == nil {
		r.stats.Skipped++
		r.log.Debug().Int64("id", n.NodeID()).Msg("No running window under node, skipping")
		return nil
	}
	return win
}
