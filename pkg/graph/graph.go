// Package graph implements the simple directed attributed graph and its
// homomorphisms: arena-stored nodes and edges, each carrying an attribute
// map, with the primitive edits (add/remove, clone, merge, relabel) that
// the matcher, rule and rewrite engine build on.
//
// Storage follows an arena style — a graph owns a flat map of node ids plus
// separate outgoing/incoming adjacency maps — rather than nodes holding
// pointers to their neighbors, so that clone/merge stay proportional to a
// node's degree and graphs never contain reference cycles.
package graph

import (
	"github.com/mandelsoft/regraph/pkg/attrset"
	"github.com/mandelsoft/regraph/pkg/ids"
	"github.com/mandelsoft/regraph/pkg/reglog"
	"github.com/mandelsoft/regraph/pkg/utils"
)

var log = reglog.New(reglog.RealmGraph)

// NodeID is an opaque, comparable node identifier.
type NodeID = string

// Edge is a directed, attributed pair (From, To); at most one Edge exists
// per ordered pair in a Graph.
type Edge struct {
	From, To NodeID
	Attrs    attrset.Map
}

type edgeKey struct {
	From, To NodeID
}

// Graph is a simple directed graph: unique node ids, at most one edge per
// ordered pair, loops permitted.
type Graph struct {
	nodes map[NodeID]attrset.Map
	edges map[edgeKey]attrset.Map
	out   map[NodeID]map[NodeID]struct{}
	in    map[NodeID]map[NodeID]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: map[NodeID]attrset.Map{},
		edges: map[edgeKey]attrset.Map{},
		out:   map[NodeID]map[NodeID]struct{}{},
		in:    map[NodeID]map[NodeID]struct{}{},
	}
}

// Clone returns a deep, independent copy of g.
func (g *Graph) Clone() *Graph {
	ng := New()
	for _, id := range g.Nodes() {
		_ = ng.AddNode(id, g.NodeAttrs(id))
	}
	for _, e := range g.Edges() {
		_ = ng.AddEdge(e.From, e.To, e.Attrs)
	}
	return ng
}

// ReplaceWith replaces g's entire content with other's, in place. Any
// *Graph aliases held elsewhere observe the swap; other must not be used
// again afterward.
func (g *Graph) ReplaceWith(other *Graph) {
	g.nodes = other.nodes
	g.edges = other.edges
	g.out = other.out
	g.in = other.in
}

// HasNode reports whether id names a node of g.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether (u,v) is an edge of g.
func (g *Graph) HasEdge(u, v NodeID) bool {
	_, ok := g.edges[edgeKey{u, v}]
	return ok
}

// Nodes returns the node ids in deterministic (lexicographic) order.
func (g *Graph) Nodes() []NodeID {
	return utils.OrderedMapKeys(g.nodes)
}

// Edges returns the edges in deterministic order (by From, then To).
func (g *Graph) Edges() []Edge {
	keys := utils.MapKeys(g.edges, func(a, b edgeKey) int {
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		if a.To != b.To {
			if a.To < b.To {
				return -1
			}
			return 1
		}
		return 0
	})
	out := make([]Edge, len(keys))
	for i, k := range keys {
		out[i] = Edge{From: k.From, To: k.To, Attrs: g.edges[k]}
	}
	return out
}

// NodeAttrs returns the attribute map of id, or nil if id is absent.
func (g *Graph) NodeAttrs(id NodeID) attrset.Map {
	return g.nodes[id]
}

// EdgeAttrs returns the attribute map of (u,v), or nil if the edge is absent.
func (g *Graph) EdgeAttrs(u, v NodeID) attrset.Map {
	return g.edges[edgeKey{u, v}]
}

// OutNeighbors returns the direct successors of id in deterministic order.
func (g *Graph) OutNeighbors(id NodeID) []NodeID {
	return utils.OrderedMapKeys(g.out[id])
}

// InNeighbors returns the direct predecessors of id in deterministic order.
func (g *Graph) InNeighbors(id NodeID) []NodeID {
	return utils.OrderedMapKeys(g.in[id])
}

// Degree returns the total in+out degree of id (a self-loop counts once on
// each side).
func (g *Graph) Degree(id NodeID) int {
	return len(g.out[id]) + len(g.in[id])
}

// IsEmpty reports whether g has no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.nodes) == 0
}

// AddNode adds a node with the given attributes; fails if id is present.
func (g *Graph) AddNode(id NodeID, attrs attrset.Map) error {
	if g.HasNode(id) {
		return newGraphErr("add_node", "node %q already exists", id)
	}
	if attrs == nil {
		attrs = attrset.Map{}
	}
	g.nodes[id] = attrs.Clone()
	g.out[id] = map[NodeID]struct{}{}
	g.in[id] = map[NodeID]struct{}{}
	return nil
}

// RemoveNode removes id and every edge incident to it.
func (g *Graph) RemoveNode(id NodeID) error {
	if !g.HasNode(id) {
		return newGraphErr("remove_node", "node %q does not exist", id)
	}
	for v := range g.out[id] {
		delete(g.edges, edgeKey{id, v})
		delete(g.in[v], id)
	}
	for u := range g.in[id] {
		delete(g.edges, edgeKey{u, id})
		delete(g.out[u], id)
	}
	delete(g.out, id)
	delete(g.in, id)
	delete(g.nodes, id)
	return nil
}

// AddEdge adds an edge (u,v); fails if the edge exists or an endpoint is
// missing.
func (g *Graph) AddEdge(u, v NodeID, attrs attrset.Map) error {
	if !g.HasNode(u) {
		return newGraphErr("add_edge", "source node %q does not exist", u)
	}
	if !g.HasNode(v) {
		return newGraphErr("add_edge", "target node %q does not exist", v)
	}
	if g.HasEdge(u, v) {
		return newGraphErr("add_edge", "edge (%q,%q) already exists", u, v)
	}
	if attrs == nil {
		attrs = attrset.Map{}
	}
	g.edges[edgeKey{u, v}] = attrs.Clone()
	g.out[u][v] = struct{}{}
	g.in[v][u] = struct{}{}
	return nil
}

// RemoveEdge removes edge (u,v); fails if absent.
func (g *Graph) RemoveEdge(u, v NodeID) error {
	if !g.HasEdge(u, v) {
		return newGraphErr("remove_edge", "edge (%q,%q) does not exist", u, v)
	}
	delete(g.edges, edgeKey{u, v})
	delete(g.out[u], v)
	delete(g.in[v], u)
	return nil
}

// AddNodeAttrs unions attrs into the existing attribute map of id, per key.
func (g *Graph) AddNodeAttrs(id NodeID, attrs attrset.Map) error {
	cur, ok := g.nodes[id]
	if !ok {
		return newGraphErr("add_node_attrs", "node %q does not exist", id)
	}
	merged, err := cur.UnionAttrs(attrs)
	if err != nil {
		return err
	}
	g.nodes[id] = merged
	return nil
}

// AddEdgeAttrs unions attrs into the existing attribute map of (u,v), per key.
func (g *Graph) AddEdgeAttrs(u, v NodeID, attrs attrset.Map) error {
	key := edgeKey{u, v}
	cur, ok := g.edges[key]
	if !ok {
		return newGraphErr("add_edge_attrs", "edge (%q,%q) does not exist", u, v)
	}
	merged, err := cur.UnionAttrs(attrs)
	if err != nil {
		return err
	}
	g.edges[key] = merged
	return nil
}

// RemoveNodeAttrs computes the per-key difference of id's attributes with attrs.
func (g *Graph) RemoveNodeAttrs(id NodeID, attrs attrset.Map) error {
	cur, ok := g.nodes[id]
	if !ok {
		return newGraphErr("remove_node_attrs", "node %q does not exist", id)
	}
	diff, err := cur.RemoveAttrs(attrs)
	if err != nil {
		return err
	}
	g.nodes[id] = diff
	return nil
}

// RemoveEdgeAttrs computes the per-key difference of (u,v)'s attributes with attrs.
func (g *Graph) RemoveEdgeAttrs(u, v NodeID, attrs attrset.Map) error {
	key := edgeKey{u, v}
	cur, ok := g.edges[key]
	if !ok {
		return newGraphErr("remove_edge_attrs", "edge (%q,%q) does not exist", u, v)
	}
	diff, err := cur.RemoveAttrs(attrs)
	if err != nil {
		return err
	}
	g.edges[key] = diff
	return nil
}

// IntersectNodeAttrs narrows id's attribute map to its per-key
// intersection with other.
func (g *Graph) IntersectNodeAttrs(id NodeID, other attrset.Map) error {
	cur, ok := g.nodes[id]
	if !ok {
		return newGraphErr("intersect_node_attrs", "node %q does not exist", id)
	}
	narrowed, err := cur.IntersectAttrs(other)
	if err != nil {
		return err
	}
	g.nodes[id] = narrowed
	return nil
}

// IntersectEdgeAttrs narrows (u,v)'s attribute map to its per-key
// intersection with other.
func (g *Graph) IntersectEdgeAttrs(u, v NodeID, other attrset.Map) error {
	key := edgeKey{u, v}
	cur, ok := g.edges[key]
	if !ok {
		return newGraphErr("intersect_edge_attrs", "edge (%q,%q) does not exist", u, v)
	}
	narrowed, err := cur.IntersectAttrs(other)
	if err != nil {
		return err
	}
	g.edges[key] = narrowed
	return nil
}

// CloneNode creates a disjoint copy of id's attribute map under a fresh (or
// explicitly given) id, duplicating every incident edge onto the clone. A
// self-loop on the original becomes four edges: orig->orig, orig->clone,
// clone->orig, clone->clone, each carrying the original loop's attributes.
func (g *Graph) CloneNode(id NodeID, newID string) (NodeID, error) {
	if !g.HasNode(id) {
		return "", newGraphErr("clone_node", "node %q does not exist", id)
	}
	if newID == "" {
		newID = ids.Fresh(id, g.HasNode)
	} else if g.HasNode(newID) {
		return "", newGraphErr("clone_node", "node %q already exists", newID)
	}

	if err := g.AddNode(newID, g.nodes[id]); err != nil {
		return "", err
	}

	selfLoop := g.HasEdge(id, id)
	var selfLoopAttrs attrset.Map
	if selfLoop {
		selfLoopAttrs = g.edges[edgeKey{id, id}]
	}

	for _, in := range g.InNeighbors(id) {
		if in == id {
			continue
		}
		if err := g.AddEdge(in, newID, g.edges[edgeKey{in, id}]); err != nil {
			return "", err
		}
	}
	for _, out := range g.OutNeighbors(id) {
		if out == id {
			continue
		}
		if err := g.AddEdge(newID, out, g.edges[edgeKey{id, out}]); err != nil {
			return "", err
		}
	}
	if selfLoop {
		if err := g.AddEdge(id, newID, selfLoopAttrs); err != nil {
			return "", err
		}
		if err := g.AddEdge(newID, id, selfLoopAttrs); err != nil {
			return "", err
		}
		if err := g.AddEdge(newID, newID, selfLoopAttrs); err != nil {
			return "", err
		}
	}
	log.Debug("cloned node", "node", id, "clone", newID)
	return newID, nil
}

// RelabelNode renames old to new, preserving attributes and incident edges.
func (g *Graph) RelabelNode(old, newID NodeID) error {
	if old == newID {
		return nil
	}
	if !g.HasNode(old) {
		return newGraphErr("relabel_node", "node %q does not exist", old)
	}
	if g.HasNode(newID) {
		return newGraphErr("relabel_node", "node %q already exists", newID)
	}
	if _, err := g.CloneNode(old, newID); err != nil {
		return err
	}
	return g.RemoveNode(old)
}

// MergeNodes merges a set of nodes into one under a fresh (or explicitly
// given) id. Attribute maps union per key; every edge incident to any
// member redirects to the merged node, with parallel redirected edges
// unioning their attributes; loops on or between members collapse to a
// single loop on the merged node whose attributes union all contributors.
func (g *Graph) MergeNodes(members []NodeID, newID string) (NodeID, error) {
	if len(members) == 0 {
		return "", newGraphErr("merge_nodes", "no nodes given")
	}
	memberSet := map[NodeID]struct{}{}
	for _, m := range members {
		if !g.HasNode(m) {
			return "", newGraphErr("merge_nodes", "node %q does not exist", m)
		}
		memberSet[m] = struct{}{}
	}

	if len(members) == 1 {
		if newID == "" || newID == members[0] {
			return members[0], nil
		}
		if err := g.RelabelNode(members[0], newID); err != nil {
			return "", err
		}
		return newID, nil
	}

	if newID == "" {
		newID = members[0]
		for _, m := range members[1:] {
			newID += "_" + m
		}
	}
	if g.HasNode(newID) {
		if _, already := memberSet[newID]; !already {
			return "", newGraphErr("merge_nodes", "node %q already exists", newID)
		}
	}

	attrAcc := attrset.Map{}
	var err error
	for _, m := range members {
		attrAcc, err = attrAcc.UnionAttrs(g.nodes[m])
		if err != nil {
			return "", err
		}
	}

	selfLoop := false
	selfLoopAttrs := attrset.Map{}
	inAttrs := map[NodeID]attrset.Map{}
	outAttrs := map[NodeID]attrset.Map{}

	for _, m := range members {
		for _, in := range g.InNeighbors(m) {
			a := g.edges[edgeKey{in, m}]
			if _, isMember := memberSet[in]; isMember {
				selfLoop = true
				merged, e := selfLoopAttrs.UnionAttrs(a)
				if e != nil {
					return "", e
				}
				selfLoopAttrs = merged
				continue
			}
			merged, e := utils.OptionalDefaulted(attrset.Map{}, inAttrs[in]).UnionAttrs(a)
			if e != nil {
				return "", e
			}
			inAttrs[in] = merged
		}
		for _, out := range g.OutNeighbors(m) {
			a := g.edges[edgeKey{m, out}]
			if _, isMember := memberSet[out]; isMember {
				continue
			}
			merged, e := utils.OptionalDefaulted(attrset.Map{}, outAttrs[out]).UnionAttrs(a)
			if e != nil {
				return "", e
			}
			outAttrs[out] = merged
		}
	}

	for _, m := range members {
		if err := g.RemoveNode(m); err != nil {
			return "", err
		}
	}

	if err := g.AddNode(newID, attrAcc); err != nil {
		return "", err
	}
	if selfLoop {
		if err := g.AddEdge(newID, newID, selfLoopAttrs); err != nil {
			return "", err
		}
	}
	for _, n := range utils.OrderedMapKeys(inAttrs) {
		if err := g.AddEdge(n, newID, inAttrs[n]); err != nil {
			return "", err
		}
	}
	for _, n := range utils.OrderedMapKeys(outAttrs) {
		if err := g.AddEdge(newID, n, outAttrs[n]); err != nil {
			return "", err
		}
	}
	log.Debug("merged nodes", "members", members, "result", newID)
	return newID, nil
}
