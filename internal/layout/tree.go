// Package layout holds the captured window tree: outputs, workspaces, nested
// containers and application windows.
package layout

// CurrentVersion is the profile document version written by this build.
const CurrentVersion = 2

// ReservedOutput is the window manager's internal output hosting the
// scratchpad. It is never captured or replayed.
const ReservedOutput = "__i3"

// Layout is the arrangement a container applies to its direct children.
type Layout string

const (
	LayoutSplitH  Layout = "splith"
	LayoutSplitV  Layout = "splitv"
	LayoutTabbed  Layout = "tabbed"
	LayoutStacked Layout = "stacked"
)

// Keyword returns the word the layout command expects for l.
// The tree reports "stacked" but the command only accepts "stacking".
func (l Layout) Keyword() string {
	if l == LayoutStacked {
		return "stacking"
	}
	return string(l)
}

// Known reports whether l is one of the tiling layouts the replayer can set.
func (l Layout) Known() bool {
	switch l {
	case LayoutSplitH, LayoutSplitV, LayoutTabbed, LayoutStacked:
		return true
	}
	return false
}

// Node is either an *AppContainer or a *Container.
type Node interface {
	NodeID() int64
	node()
}

// AppContainer is a leaf representing one application window.
type AppContainer struct {
	ID      int64    `json:"id" yaml:"id"`
	Command []string `json:"command" yaml:"command"`
	Width   int      `json:"width" yaml:"width"`
	Height  int      `json:"height" yaml:"height"`
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
}

// Container groups sibling nodes under one layout.
type Container struct {
	ID            int64  `json:"id" yaml:"id"`
	SubContainers []Node `json:"sub_containers" yaml:"sub_containers"`
	Layout        Layout `json:"layout" yaml:"layout"`
}

func (a *AppContainer) NodeID() int64 { return a.ID }
func (c *Container) NodeID() int64    { return c.ID }

func (*AppContainer) node() {}
func (*Container) node()    {}

// Workspace is a numbered virtual desktop.
type Workspace struct {
	ID                 int64  `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	Number             *int   `json:"number" yaml:"number"`
	Containers         []Node `json:"containers" yaml:"containers"`
	FloatingContainers []Node `json:"floating_containers" yaml:"floating_containers"`
	Layout             Layout `json:"layout" yaml:"layout"`
}

// Output is a display hosting workspaces.
type Output struct {
	ID         int64       `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Workspaces []Workspace `json:"workspaces" yaml:"workspaces"`
}

// Tree is the root of a captured layout.
type Tree struct {
	Version int      `json:"version" yaml:"version"`
	Outputs []Output `json:"outputs" yaml:"outputs"`
}

// Apps returns every AppContainer of the tree, tiling before floating per
// workspace, in depth-first order.
func (t *Tree) Apps() []*AppContainer {
	var apps []*AppContainer
	collect := func(n Node) error {
		if app, ok := n.(*AppContainer); ok {
			apps = append(apps, app)
		}
		return nil
	}
	for _, output := range t.Outputs {
		for _, ws := range output.Workspaces {
			_ = Walk(ws.Containers, collect)
			_ = Walk(ws.FloatingContainers, collect)
		}
	}
	return apps
}

// OutputNames returns the names of all outputs except the reserved one.
func (t *Tree) OutputNames() []string {
	names := make([]string, 0, len(t.Outputs))
	for _, output := range t.Outputs {
		if output.Name == ReservedOutput {
			continue
		}
		names = append(names, output.Name)
	}
	return names
}

// HasOutput reports whether an output with the given name exists.
func (t *Tree) HasOutput(name string) bool {
	for _, output := range t.Outputs {
		if output.Name == name {
			return true
		}
	}
	return false
}

// HasWorkspace reports whether a workspace named ws lives on the named output.
func (t *Tree) HasWorkspace(outputName, ws string) bool {
	for _, output := range t.Outputs {
		if output.Name != outputName {
			continue
		}
		for _, w := range output.Workspaces {
			if w.Name == ws {
				return true
			}
		}
	}
	return false
}

// SharesOutput reports whether t and other have a non-reserved output name in common.
func (t *Tree) SharesOutput(other *Tree) bool {
	for _, name := range t.OutputNames() {
		if other.HasOutput(name) {
			return true
		}
	}
	return false
}

// FirstWorkspace returns the first workspace outside the reserved output.
func (t *Tree) FirstWorkspace() *Workspace {
	for i := range t.Outputs {
		if t.Outputs[i].Name == ReservedOutput {
			continue
		}
		if len(t.Outputs[i].Workspaces) > 0 {
			return &t.Outputs[i].Workspaces[0]
		}
	}
	return nil
}
