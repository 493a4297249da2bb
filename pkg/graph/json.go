package graph

import (
	"encoding/json"
	"fmt"

	"github.com/mandelsoft/regraph/pkg/attrset"
)

type wireAttrs map[string]json.RawMessage

func marshalAttrs(m attrset.Map) (wireAttrs, error) {
	out := make(wireAttrs, len(m))
	for _, k := range m.Keys() {
		data, err := attrset.MarshalJSON(m[k])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = data
	}
	return out, nil
}

func unmarshalAttrs(w wireAttrs) (attrset.Map, error) {
	out := make(attrset.Map, len(w))
	for k, data := range w {
		v, err := attrset.UnmarshalJSON(data)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

type wireNode struct {
	ID    NodeID    `json:"id"`
	Attrs wireAttrs `json:"attrs,omitempty"`
}

type wireEdge struct {
	From  NodeID    `json:"from"`
	To    NodeID    `json:"to"`
	Attrs wireAttrs `json:"attrs,omitempty"`
}

type wireGraph struct {
	Nodes []wireNode `json:"nodes"`
	Edges []wireEdge `json:"edges"`
}

// MarshalJSON encodes g as {nodes: [{id, attrs}], edges: [{from, to, attrs}]}.
func (g *Graph) MarshalJSON() ([]byte, error) {
	w := wireGraph{}
	for _, id := range g.Nodes() {
		wa, err := marshalAttrs(g.NodeAttrs(id))
		if err != nil {
			return nil, fmt.Errorf("graph: node %q: %w", id, err)
		}
		w.Nodes = append(w.Nodes, wireNode{ID: id, Attrs: wa})
	}
	for _, e := range g.Edges() {
		wa, err := marshalAttrs(e.Attrs)
		if err != nil {
			return nil, fmt.Errorf("graph: edge (%q,%q): %w", e.From, e.To, err)
		}
		w.Edges = append(w.Edges, wireEdge{From: e.From, To: e.To, Attrs: wa})
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes g from the §6 wire format, replacing its contents.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var w wireGraph
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	ng := New()
	for _, n := range w.Nodes {
		attrs, err := unmarshalAttrs(n.Attrs)
		if err != nil {
			return fmt.Errorf("graph: node %q: %w", n.ID, err)
		}
		if err := ng.AddNode(n.ID, attrs); err != nil {
			return err
		}
	}
	for _, e := range w.Edges {
		attrs, err := unmarshalAttrs(e.Attrs)
		if err != nil {
			return fmt.Errorf("graph: edge (%q,%q): %w", e.From, e.To, err)
		}
		if err := ng.AddEdge(e.From, e.To, attrs); err != nil {
			return err
		}
	}
	*g = *ng
	return nil
}
