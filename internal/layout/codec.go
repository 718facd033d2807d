package layout

import (
	"encoding/json"
	"fmt"
)

const (
	nodeTypeApp       = "app"
	nodeTypeContainer = "con"
)

// MarshalJSON tags the node so the variant survives a round trip.
func (a *AppContainer) MarshalJSON() ([]byte, error) {
	type plain AppContainer
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{nodeTypeApp, (*plain)(a)})
}

// MarshalJSON tags the node so the variant survives a round trip.
func (c *Container) MarshalJSON() ([]byte, error) {
	type plain Container
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{nodeTypeContainer, (*plain)(c)})
}

// UnmarshalJSON decodes the sub containers as tagged nodes.
func (c *Container) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID            int64             `json:"id"`
		SubContainers []json.RawMessage `json:"sub_containers"`
		Layout        Layout            `json:"layout"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	subs, err := decodeNodes(aux.SubContainers)
	if err != nil {
		return fmt.Errorf("container %d: %w", aux.ID, err)
	}
	c.ID = aux.ID
	c.SubContainers = subs
	c.Layout = aux.Layout
	return nil
}

// UnmarshalJSON decodes tiling and floating children as tagged nodes.
func (w *Workspace) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID                 int64             `json:"id"`
		Name               string            `json:"name"`
		Number             *int              `json:"number"`
		Containers         []json.RawMessage `json:"containers"`
		FloatingContainers []json.RawMessage `json:"floating_containers"`
		Layout             Layout            `json:"layout"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	containers, err := decodeNodes(aux.Containers)
	if err != nil {
		return fmt.Errorf("workspace %q: %w", aux.Name, err)
	}
	floating, err := decodeNodes(aux.FloatingContainers)
	if err != nil {
		return fmt.Errorf("workspace %q floating: %w", aux.Name, err)
	}
	*w = Workspace{
		ID:                 aux.ID,
		Name:               aux.Name,
		Number:             aux.Number,
		Containers:         containers,
		FloatingContainers: floating,
		Layout:             aux.Layout,
	}
	return nil
}

func decodeNodes(raw []json.RawMessage) ([]Node, error) {
	if raw == nil {
		return nil, nil
	}
	nodes := make([]Node, 0, len(raw))
	for _, r := range raw {
		n, err := DecodeNode(r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// DecodeNode decodes one node. Untagged documents written before nodes
// carried a "type" are recognised by the presence of "sub_containers".
func DecodeNode(data []byte) (Node, error) {
	var probe struct {
		Type          string          `json:"type"`
		SubContainers json.RawMessage `json:"sub_containers"`
		Command       json.RawMessage `json:"command"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	kind := probe.Type
	if kind == "" {
		switch {
		case probe.SubContainers != nil:
			kind = nodeTypeContainer
		case probe.Command != nil:
			kind = nodeTypeApp
		}
	}

	switch kind {
	case nodeTypeContainer:
		c := &Container{}
		if err := json.Unmarshal(data, c); err != nil {
			return nil, err
		}
		return c, nil
	case nodeTypeApp:
		type plain AppContainer
		a := &plain{}
		if err := json.Unmarshal(data, a); err != nil {
			return nil, err
		}
		return (*AppContainer)(a), nil
	default:
		return nil, fmt.Errorf("unknown node type %q", probe.Type)
	}
}
