package replay

import (
	"fmt"

	"github.com/bryanchriswhite/swayrst/internal/layout"
	"github.com/bryanchriswhite/swayrst/internal/matcher"
	"github.com/bryanchriswhite/swayrst/internal/window"
)

// Resizer grows or shrinks windows toward their saved size. Siblings share
// space, so later resizes can undo earlier ones; this is an approximation.
type Resizer struct {
	*runner
}

// NewResizer creates a standalone Resizer.
func NewResizer(session window.Session, mapping matcher.Mapping) *Resizer {
	return &Resizer{runner: newRunner(session, mapping, "resize")}
}

// Resize walks nodes depth-first and resizes every resolvable app.
func (r *Resizer) Resize(nodes []layout.Node) {
	_ = layout.Walk(nodes, func(n layout.Node) error {
		if app, ok := n.(*layout.AppContainer); ok {
			if win := r.lookup(app); win != nil {
				r.resize(win, app)
			}
		}
		return nil
	})
}

func (r *Resizer) resize(win *window.Node, app *layout.AppContainer) {
	if cmd := ResizeCommand("height", win.WindowRect.Height, app.Height); cmd != "" {
		r.exec(cmd, win)
	}
	if cmd := ResizeCommand("width", win.WindowRect.Width, app.Width); cmd != "" {
		r.exec(cmd, win)
	}
}

// ResizeCommand returns the command moving one axis from current to target,
// or "" when they are equal.
func ResizeCommand(axis string, current, target int) string {
	switch {
	case target > current:
		return fmt.Sprintf("resize grow %s %d px", axis, target-current)
	case target < current:
		return fmt.Sprintf("resize shrink %s %d px", axis, current-target)
	default:
		return ""
	}
}
