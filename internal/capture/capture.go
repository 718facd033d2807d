// Package capture turns a live IPC tree into a layout.Tree.
package capture

import (
	"errors"
	"fmt"

	"github.com/bryanchriswhite/swayrst/internal/layout"
	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/bryanchriswhite/swayrst/internal/procinfo"
	"github.com/bryanchriswhite/swayrst/internal/window"
	"github.com/rs/zerolog"
)

// Capturer builds layout trees from IPC snapshots.
type Capturer struct {
	inspector procinfo.Inspector
	reference *layout.Tree
	log       *zerolog.Logger
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithReference restricts capture to the outputs and workspaces that also
// exist in ref, so restoring a profile leaves everything else alone.
func WithReference(ref *layout.Tree) Option {
	return func(c *Capturer) {
		c.reference = ref
	}
}

// New creates a Capturer resolving commands with inspector.
func New(inspector procinfo.Inspector, opts ...Option) *Capturer {
	c := &Capturer{
		inspector: inspector,
		log:       logger.WithComponent("capture"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromSession snapshots the session and captures the result.
func (c *Capturer) FromSession(s window.Session) (*layout.Tree, error) {
	root, err := s.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	return c.Capture(root), nil
}

// Capture converts root. Problems with single nodes are logged and the
// node is left out; capture itself never fails.
func (c *Capturer) Capture(root *window.Node) *layout.Tree {
	tree := &layout.Tree{Version: layout.CurrentVersion, Outputs: []layout.Output{}}

	for _, node := range root.Nodes {
		if node.Type != window.NodeTypeOutput {
			c.log.Warn().Str("type", node.Type).Int64("id", node.ID).Msg("Unexpected node type found")
		}
		if node.Name == layout.ReservedOutput {
			continue
		}
		if c.reference != nil && !c.reference.HasOutput(node.Name) {
			c.log.Debug().Str("output", node.Name).Msg("Output not in reference tree, skipping")
			continue
		}

		tree.Outputs = append(tree.Outputs, layout.Output{
			ID:         node.ID,
			Name:       node.Name,
			Workspaces: c.workspaces(node.Nodes, node.Name),
		})
	}

	return tree
}

// Windows returns every window leaf on the outputs and workspaces Capture
// keeps, including windows whose process cannot be inspected.
func (c *Capturer) Windows(root *window.Node) []*window.Node {
	var windows []*window.Node

	for _, output := range root.Nodes {
		if output.Name == layout.ReservedOutput {
			continue
		}
		if c.reference != nil && !c.reference.HasOutput(output.Name) {
			continue
		}
		for _, ws := range workspaceNodes(output.Nodes) {
			if c.reference != nil && !c.reference.HasWorkspace(output.Name, ws.Name) {
				continue
			}
			ws.Walk(func(n *window.Node) bool {
				if n != ws && len(n.Nodes) == 0 {
					windows = append(windows, n)
				}
				return true
			})
		}
	}

	return windows
}

// workspaceNodes lists the workspaces below an output. i3 wraps them in a
// "content" container next to the dock areas.
func workspaceNodes(nodes []*window.Node) []*window.Node {
	var result []*window.Node
	for _, node := range nodes {
		if node.IsContent() {
			result = append(result, workspaceNodes(node.Nodes)...)
			continue
		}
		if node.Type == window.NodeTypeDockarea || node.Layout == window.NodeTypeDockarea {
			continue
		}
		result = append(result, node)
	}
	return result
}

func (c *Capturer) workspaces(nodes []*window.Node, outputName string) []layout.Workspace {
	workspaces := []layout.Workspace{}

	for _, node := range workspaceNodes(nodes) {
		if node.Type != window.NodeTypeWorkspace {
			c.log.Warn().Str("type", node.Type).Int64("id", node.ID).Msg("Unexpected node type found")
		}
		if c.reference != nil && !c.reference.HasWorkspace(outputName, node.Name) {
			c.log.Debug().Str("output", outputName).Str("workspace", node.Name).Msg("Workspace not in reference tree, skipping")
			continue
		}

		var number *int
		if node.Num != nil && *node.Num >= 0 {
			n := *node.Num
			number = &n
		}

		workspaces = append(workspaces, layout.Workspace{
			ID:                 node.ID,
			Name:               node.Name,
			Number:             number,
			Containers:         c.containers(node.Nodes),
			FloatingContainers: c.containers(node.FloatingNodes),
			Layout:             layout.Layout(node.Layout),
		})
	}

	return workspaces
}

func (c *Capturer) containers(nodes []*window.Node) []layout.Node {
	result := []layout.Node{}

	for _, node := range nodes {
		if node.Type != window.NodeTypeCon && node.Type != window.NodeTypeFloatingCon {
			c.log.Warn().Str("type", node.Type).Int64("id", node.ID).Msg("Unexpected node type found")
		}

		if len(node.Nodes) == 0 {
			app, err := c.app(node)
			if err != nil {
				c.log.Warn().Err(err).Int64("id", node.ID).Str("title", node.Name).Msg("Skipping window")
				continue
			}
			result = append(result, app)
			continue
		}

		subs := c.containers(node.Nodes)
		if len(subs) == 0 {
			c.log.Warn().Int64("id", node.ID).Msg("Skipping container without resolvable windows")
			continue
		}
		result = append(result, &layout.Container{
			ID:            node.ID,
			SubContainers: subs,
			Layout:        layout.Layout(node.Layout),
		})
	}

	return result
}

func (c *Capturer) app(node *window.Node) (*layout.AppContainer, error) {
	argv, err := c.inspector.Argv(node.PID)
	if err != nil {
		if errors.Is(err, procinfo.ErrNotFound) {
			return nil, fmt.Errorf("process of window is gone: %w", err)
		}
		return nil, err
	}
	return &layout.AppContainer{
		ID:      node.ID,
		Command: argv,
		Width:   node.WindowRect.Width,
		Height:  node.WindowRect.Height,
		Title:   node.Name,
	}, nil
}
