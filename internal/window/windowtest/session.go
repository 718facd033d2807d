// Package windowtest provides an in-memory window.Session for tests.
package windowtest

import (
	"github.com/bryanchriswhite/swayrst/internal/window"
)

// Session records every executed command and serves snapshots from Root.
type Session struct {
	Root *window.Node

	// Commands holds executed commands, prefixed with their criteria when targeted
	Commands []string

	// Fail maps a full command string to the error message returned for it
	Fail map[string]string

	// OnExecute, when set, runs after a command is recorded and may mutate Root
	OnExecute func(s *Session, command string, target *window.Node)

	SnapshotErr error
}

// NewSession returns a session serving root.
func NewSession(root *window.Node) *Session {
	return &Session{Root: root, Fail: map[string]string{}}
}

// Snapshot returns Root
func (s *Session) Snapshot() (*window.Node, error) {
	if s.SnapshotErr != nil {
		return nil, s.SnapshotErr
	}
	return s.Root, nil
}

// Execute records the command
func (s *Session) Execute(command string, target *window.Node) error {
	full := window.Targeted(command, target)
	s.Commands = append(s.Commands, full)
	if s.OnExecute != nil {
		s.OnExecute(s, command, target)
	}
	if msg, ok := s.Fail[full]; ok {
		return &window.CommandError{Command: full, Message: msg}
	}
	return nil
}

// FindWindow looks id up in Root
func (s *Session) FindWindow(id int64) (*window.Node, error) {
	if s.Root == nil {
		return nil, nil
	}
	return s.Root.FindByID(id), nil
}

// Reset clears the recorded commands
func (s *Session) Reset() {
	s.Commands = nil
}

// Window builds a leaf node.
func Window(id int64, pid int, title string, width, height int) *window.Node {
	return &window.Node{
		ID:         id,
		Type:       window.NodeTypeCon,
		Name:       title,
		PID:        pid,
		Layout:     "none",
		WindowRect: window.Rect{Width: width, Height: height},
	}
}

// Con builds an inner container.
func Con(id int64, layout string, children ...*window.Node) *window.Node {
	return &window.Node{ID: id, Type: window.NodeTypeCon, Layout: layout, Nodes: children}
}

// Workspace builds a workspace node; num < 0 leaves the number unset.
func Workspace(id int64, name string, num int, layout string, tiling []*window.Node, floating []*window.Node) *window.Node {
	ws := &window.Node{
		ID:            id,
		Type:          window.NodeTypeWorkspace,
		Name:          name,
		Layout:        layout,
		Nodes:         tiling,
		FloatingNodes: floating,
	}
	if num >= 0 {
		ws.Num = &num
	}
	return ws
}

// Output builds an output node.
func Output(id int64, name string, workspaces ...*window.Node) *window.Node {
	return &window.Node{ID: id, Type: window.NodeTypeOutput, Name: name, Layout: "output", Nodes: workspaces}
}

// Root builds the tree root.
func Root(outputs ...*window.Node) *window.Node {
	return &window.Node{ID: 1, Type: window.NodeTypeRoot, Name: "root", Nodes: outputs}
}
