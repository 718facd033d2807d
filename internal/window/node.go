package window

// Node types reported in the IPC tree
const (
	NodeTypeRoot           = "root"
	NodeTypeOutput         = "output"
	NodeTypeWorkspace      = "workspace"
	NodeTypeCon            = "con"
	NodeTypeFloatingCon    = "floating_con"
	NodeTypeDockarea       = "dockarea"
	i3ContentContainerName = "content"
)

// Rect represents window geometry
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Node is one entry of the tree returned by GET_TREE.
type Node struct {
	ID            int64   `json:"id"`
	Type          string  `json:"type"`
	Name          string  `json:"name"`
	Num           *int    `json:"num,omitempty"`
	Layout        string  `json:"layout"`
	Focused       bool    `json:"focused"`
	Rect          Rect    `json:"rect"`
	WindowRect    Rect    `json:"window_rect"`
	PID           int     `json:"pid,omitempty"`
	AppID         *string `json:"app_id,omitempty"`
	Window        *uint32 `json:"window,omitempty"`
	Nodes         []*Node `json:"nodes"`
	FloatingNodes []*Node `json:"floating_nodes"`
}

// IsContent reports whether n is the i3 wrapper holding an output's workspaces.
func (n *Node) IsContent() bool {
	return n.Type == NodeTypeCon && n.Name == i3ContentContainerName
}

// Walk calls fn for n and all of its descendants, tiling children before
// floating ones. Returning false stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Nodes {
		if !child.Walk(fn) {
			return false
		}
	}
	for _, child := range n.FloatingNodes {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// FindByID returns the node with the given id, or nil.
func (n *Node) FindByID(id int64) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}
