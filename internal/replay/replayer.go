package replay

import (
	"fmt"

	"github.com/bryanchriswhite/swayrst/internal/layout"
	"github.com/bryanchriswhite/swayrst/internal/matcher"
	"github.com/bryanchriswhite/swayrst/internal/window"
)

// Commands sent to the window manager
const (
	cmdFocus           = "focus"
	cmdSplitToggle     = "split toggle"
	cmdFloatingOff     = "floating off"
	cmdMoveScratchpad  = "move scratchpad"
	cmdLayoutFmt       = "layout %s"
	cmdMoveToWsFmt     = "move container to workspace number %d"
	cmdWorkspaceFmt    = "workspace number %d"
	cmdMoveWsOutputFmt = "move workspace to output %s"
)

// Replayer rebuilds saved workspaces from live windows.
type Replayer struct {
	*runner
	resizer *Resizer
}

// New creates a Replayer driving session. mapping links saved ids to live ones.
func New(session window.Session, mapping matcher.Mapping) *Replayer {
	r := &Replayer{runner: newRunner(session, mapping, "replay")}
	r.resizer = &Resizer{runner: r.runner}
	return r
}

// OnCommand installs a hook called for every issued command
func (r *Replayer) OnCommand(hook CommandHook) {
	r.hook = hook
}

// Stats returns the counters accumulated so far
func (r *Replayer) Stats() Stats {
	return r.stats
}

// Quarantine moves every given live window to the scratchpad so placement
// starts from an empty canvas.
func (r *Replayer) Quarantine(windows []*window.Node) {
	for _, win := range windows {
		r.exec(cmdMoveScratchpad, win)
	}
}

// Replay places the windows of every numbered workspace of tree and
// resizes them. It never stops on a failed command.
func (r *Replayer) Replay(tree *layout.Tree) Stats {
	for _, output := range tree.Outputs {
		if output.Name == layout.ReservedOutput {
			continue
		}
		for i := range output.Workspaces {
			ws := &output.Workspaces[i]
			if ws.Number == nil {
				r.log.Warn().Str("workspace", ws.Name).Msg("Workspace without number found, skipping")
				continue
			}
			r.replayWorkspace(output.Name, ws)
		}
	}
	return r.stats
}

func (r *Replayer) replayWorkspace(outputName string, ws *layout.Workspace) {
	num := *ws.Number
	r.log.Info().Str("output", outputName).Str("workspace", ws.Name).Int("number", num).Msg("Restoring workspace")

	first := true
	for _, entry := range ws.Containers {
		win := r.resolve(entry)
		if win == nil {
			continue
		}
		r.exec(fmt.Sprintf(cmdMoveToWsFmt, num), win)
		r.exec(cmdFloatingOff, win)
		if first {
			r.establish(win, ws.Layout)
			first = false
		}
	}

	_ = layout.Walk(ws.Containers, func(n layout.Node) error {
		if c, ok := n.(*layout.Container); ok {
			r.arrange(c.SubContainers, c.Layout, num)
		}
		return nil
	})

	for _, entry := range ws.FloatingContainers {
		win := r.resolve(entry)
		if win == nil {
			continue
		}
		r.exec(fmt.Sprintf(cmdMoveToWsFmt, num), win)
	}

	r.exec(fmt.Sprintf(cmdWorkspaceFmt, num), nil)
	r.exec(fmt.Sprintf(cmdMoveWsOutputFmt, outputName), nil)

	r.resizer.Resize(ws.Containers)
}

// arrange rebuilds one level of nesting: the first resolvable child opens a
// split with the container's layout, the others are moved in beside it.
func (r *Replayer) arrange(children []layout.Node, l layout.Layout, num int) {
	first := true
	for _, child := range children {
		win := r.resolve(child)
		if win == nil {
			continue
		}
		if first {
			r.establish(win, l)
			first = false
			continue
		}
		r.exec(fmt.Sprintf(cmdMoveToWsFmt, num), win)
		r.exec(cmdFloatingOff, win)
	}
}

func (r *Replayer) establish(win *window.Node, l layout.Layout) {
	r.exec(cmdFocus, win)
	r.exec(cmdSplitToggle, win)
	if l == "" {
		r.log.Debug().Int64("id", win.ID).Msg("No layout recorded, keeping default")
		return
	}
	r.exec(fmt.Sprintf(cmdLayoutFmt, l.Keyword()), win)
}
