package layout

import "errors"

var (
	// SkipChildren tells Walk not to descend into the current container.
	SkipChildren = errors.New("skip children")
	// StopWalk ends a walk early. Walk returns nil when it sees it.
	StopWalk = errors.New("stop walk")
)

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(n Node) error

// Walk visits nodes depth-first, leftmost first. A container is visited
// before its sub containers.
func Walk(nodes []Node, fn WalkFunc) error {
	err := walk(nodes, fn)
	if errors.Is(err, StopWalk) {
		return nil
	}
	return err
}

func walk(nodes []Node, fn WalkFunc) error {
	for _, n := range nodes {
		err := fn(n)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		switch n := n.(type) {
		case *Container:
			if err := walk(n.SubContainers, fn); err != nil {
				return err
			}
		case *AppContainer:
		}
	}
	return nil
}

// FirstApp returns the first AppContainer under n, in depth-first order,
// for which accept returns true. A nil accept matches any app.
func FirstApp(n Node, accept func(*AppContainer) bool) *AppContainer {
	var found *AppContainer
	_ = Walk([]Node{n}, func(n Node) error {
		app, ok := n.(*AppContainer)
		if !ok {
			return nil
		}
		if accept == nil || accept(app) {
			found = app
			return StopWalk
		}
		return nil
	})
	return found
}
