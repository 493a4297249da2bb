package hierarchy

import (
	"encoding/json"

	"github.com/mandelsoft/regraph/pkg/attrset"
	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/ids"
	"github.com/mandelsoft/regraph/pkg/version"
)

// contentSnapshot is the canonical, JSON-hashable shape of a graph's own
// content, independent of what it is typed by or types.
type contentSnapshot struct {
	Nodes []nodeSnapshot `json:"nodes"`
	Edges []edgeSnapshot `json:"edges"`
}

type nodeSnapshot struct {
	ID    graph.NodeID               `json:"id"`
	Attrs map[string]json.RawMessage `json:"attrs,omitempty"`
}

type edgeSnapshot struct {
	From  graph.NodeID               `json:"from"`
	To    graph.NodeID               `json:"to"`
	Attrs map[string]json.RawMessage `json:"attrs,omitempty"`
}

func attrSnapshot(m attrset.Map) map[string]json.RawMessage {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for _, k := range m.Keys() {
		data, err := attrset.MarshalJSON(m.Get(k))
		if err != nil {
			continue
		}
		out[k] = data
	}
	return out
}

// contentHash returns a stable content address for graphID's own nodes,
// edges and attributes, ignoring typing. Graph.Nodes/Edges already return
// their elements in deterministic order.
func (h *Hierarchy) contentHash(graphID string) string {
	g := h.graphs[graphID]

	nodes := g.Nodes()
	snap := contentSnapshot{Nodes: make([]nodeSnapshot, 0, len(nodes))}
	for _, n := range nodes {
		snap.Nodes = append(snap.Nodes, nodeSnapshot{ID: n, Attrs: attrSnapshot(g.NodeAttrs(n))})
	}

	edges := g.Edges()
	snap.Edges = make([]edgeSnapshot, 0, len(edges))
	for _, e := range edges {
		snap.Edges = append(snap.Edges, edgeSnapshot{From: e.From, To: e.To, Attrs: attrSnapshot(e.Attrs)})
	}

	return ids.ContentHash(snap)
}

// versionNode builds the version.Node for graphID as of right now: its own
// content hash, plus one link per graph it is directly typed by. GetId's
// recursive walk over GetLinks reaches every graph graphID's meaning
// transitively depends on, so two hierarchies with the same typed structure
// produce the same version regardless of insertion order.
func (h *Hierarchy) versionNode(graphID string) version.Node {
	n := version.NewNode("graph", graphID, h.contentHash(graphID))
	for _, tgt := range h.directDescendants(graphID) {
		n.AddDep(h.versionNode(tgt))
	}
	return n
}

// GraphVersion returns a deterministic identifier for graphID that changes
// whenever graphID's own content changes, or the content of anything it is
// typed by changes — a cache key or optimistic-concurrency token a caller
// can compare across two points in time without diffing the whole DAG.
func (h *Hierarchy) GraphVersion(graphID string) (string, error) {
	if !h.HasGraph(graphID) {
		return "", newErr("graph_version", "graph %q does not exist", graphID)
	}
	return version.Hash(h.versionNode(graphID)), nil
}
