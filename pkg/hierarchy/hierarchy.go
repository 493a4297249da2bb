// Package hierarchy maintains a DAG of graphs connected by typing
// homomorphisms, plus a symmetric relation store between graph node sets,
// and drives rewrites across the whole DAG so that every typing triangle
// keeps commuting.
//
// A typing edge (src, tgt) means src is typed by tgt: there is a
// homomorphism src -> tgt. The "ancestors" of a graph N are the graphs
// typed by N, transitively (more concrete graphs, reached by following
// typing edges backward into N); its "descendants" are the graphs that N
// is typed by, transitively (more abstract graphs, reached by following
// typing edges forward out of N).
package hierarchy

import (
	"sort"

	"github.com/mandelsoft/regraph/pkg/attrset"
	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/match"
	"github.com/mandelsoft/regraph/pkg/reglog"
)

var log = reglog.New(reglog.RealmHierarchy)

type relKey struct {
	A, B string
}

// Hierarchy is a DAG of named graphs, the typing homomorphisms between
// them, and symmetric node-set relations.
type Hierarchy struct {
	graphs  map[string]*graph.Graph
	attrs   map[string]attrset.Map
	typings map[string]map[string]*graph.Hom // typings[src][tgt]
	out     map[string]map[string]bool       // out[src] = {tgt, ...}
	in      map[string]map[string]bool       // in[tgt] = {src, ...}

	relations map[relKey]map[[2]graph.NodeID]bool
}

// New returns an empty hierarchy.
func New() *Hierarchy {
	return &Hierarchy{
		graphs:    map[string]*graph.Graph{},
		attrs:     map[string]attrset.Map{},
		typings:   map[string]map[string]*graph.Hom{},
		out:       map[string]map[string]bool{},
		in:        map[string]map[string]bool{},
		relations: map[relKey]map[[2]graph.NodeID]bool{},
	}
}

// Clone returns a deep, independent copy of h: every graph, typing,
// attribute map and relation is copied, so that mutating the clone never
// touches h — the basis for branching a hierarchy under version control.
func (h *Hierarchy) Clone() *Hierarchy {
	nh := New()
	for id, g := range h.graphs {
		nh.graphs[id] = g.Clone()
		nh.attrs[id] = h.attrs[id].Clone()
		nh.typings[id] = map[string]*graph.Hom{}
		nh.out[id] = map[string]bool{}
		nh.in[id] = map[string]bool{}
	}
	for src, targets := range h.typings {
		for tgt, hom := range targets {
			cloned := &graph.Hom{Map: make(map[graph.NodeID]graph.NodeID, len(hom.Map))}
			for k, v := range hom.Map {
				cloned.Map[k] = v
			}
			nh.typings[src][tgt] = cloned
		}
	}
	for src, targets := range h.out {
		for tgt := range targets {
			nh.out[src][tgt] = true
		}
	}
	for tgt, srcs := range h.in {
		for src := range srcs {
			nh.in[tgt][src] = true
		}
	}
	for k, pairs := range h.relations {
		cp := make(map[[2]graph.NodeID]bool, len(pairs))
		for p := range pairs {
			cp[p] = true
		}
		nh.relations[k] = cp
	}
	return nh
}

func (h *Hierarchy) HasGraph(id string) bool {
	_, ok := h.graphs[id]
	return ok
}

// Graph returns the named graph, or nil if it does not exist.
func (h *Hierarchy) Graph(id string) *graph.Graph {
	return h.graphs[id]
}

// AddGraph registers a new, untyped graph under id.
func (h *Hierarchy) AddGraph(id string, g *graph.Graph, attrs attrset.Map) error {
	if h.HasGraph(id) {
		return newErr("add_graph", "graph %q already exists", id)
	}
	h.graphs[id] = g
	h.attrs[id] = attrs
	h.typings[id] = map[string]*graph.Hom{}
	h.out[id] = map[string]bool{}
	h.in[id] = map[string]bool{}
	return nil
}

// RemoveGraph deletes a graph and every typing touching it. If reconnect is
// set, every ancestor->id->descendant path is composed into a direct
// ancestor->descendant typing before id is dropped, so that typings already
// established through id are not lost.
func (h *Hierarchy) RemoveGraph(id string, reconnect bool) error {
	if !h.HasGraph(id) {
		return newErr("remove_graph", "graph %q does not exist", id)
	}
	if reconnect {
		preds := sortedKeys(h.in[id])
		succs := sortedKeys(h.out[id])
		for _, p := range preds {
			for _, s := range succs {
				composed, err := graph.Compose(h.typings[p][id], h.typings[id][s])
				if err != nil {
					return newErr("remove_graph", "cannot compose %q->%q->%q: %v", p, id, s, err)
				}
				if _, exists := h.typings[p][s]; exists {
					continue
				}
				if err := h.AddTyping(p, s, composed.Map); err != nil {
					return newErr("remove_graph", "reconnecting %q->%q: %v", p, s, err)
				}
			}
		}
	}
	for other := range h.typings[id] {
		delete(h.typings[other], id)
		delete(h.out[other], id)
		delete(h.in[other], id)
	}
	for p := range h.in[id] {
		delete(h.typings[p], id)
		delete(h.out[p], id)
	}
	delete(h.graphs, id)
	delete(h.attrs, id)
	delete(h.typings, id)
	delete(h.out, id)
	delete(h.in, id)
	for k := range h.relations {
		if k.A == id || k.B == id {
			delete(h.relations, k)
		}
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// reachable returns every node reachable from start by following adj edges
// (not including start itself).
func reachable(start string, adj map[string]map[string]bool) map[string]bool {
	seen := map[string]bool{}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range sortedKeys(adj[cur]) {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

func homEqual(a, b *graph.Hom) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Map) != len(b.Map) {
		return false
	}
	for k, v := range a.Map {
		if b.Map[k] != v {
			return false
		}
	}
	return true
}

// AddTyping validates that mapping is a homomorphism src -> tgt, that
// adding it keeps the DAG acyclic, and that it commutes with every typing
// directly incident to src or tgt that already exists.
func (h *Hierarchy) AddTyping(src, tgt string, mapping map[graph.NodeID]graph.NodeID) error {
	if !h.HasGraph(src) {
		return newErr("add_typing", "graph %q does not exist", src)
	}
	if !h.HasGraph(tgt) {
		return newErr("add_typing", "graph %q does not exist", tgt)
	}
	if _, exists := h.typings[src][tgt]; exists {
		return newErr("add_typing", "a typing %q -> %q already exists", src, tgt)
	}
	hom, err := graph.NewHom(h.graphs[src], h.graphs[tgt], mapping)
	if err != nil {
		return newErr("add_typing", "%q -> %q: %v", src, tgt, err)
	}
	if src == tgt || reachable(tgt, h.out)[src] {
		return newErr("add_typing", "adding %q -> %q would create a cycle", src, tgt)
	}
	for _, p := range sortedKeys(h.in[src]) {
		if existing, ok := h.typings[p][tgt]; ok {
			composed, err := graph.Compose(h.typings[p][src], hom)
			if err != nil {
				return newErr("add_typing", "composing %q->%q->%q: %v", p, src, tgt, err)
			}
			if !homEqual(composed, existing) {
				return newErr("add_typing", "%q -> %q -> %q does not commute with existing %q -> %q", p, src, tgt, p, tgt)
			}
		}
	}
	for _, s := range sortedKeys(h.out[tgt]) {
		if existing, ok := h.typings[src][s]; ok {
			composed, err := graph.Compose(hom, h.typings[tgt][s])
			if err != nil {
				return newErr("add_typing", "composing %q->%q->%q: %v", src, tgt, s, err)
			}
			if !homEqual(composed, existing) {
				return newErr("add_typing", "%q -> %q -> %q does not commute with existing %q -> %q", src, tgt, s, src, s)
			}
		}
	}
	for _, mid := range sortedKeys(h.out[src]) {
		if via, ok := h.typings[mid][tgt]; ok {
			composed, err := graph.Compose(h.typings[src][mid], via)
			if err != nil {
				return newErr("add_typing", "composing %q->%q->%q: %v", src, mid, tgt, err)
			}
			if !homEqual(composed, hom) {
				return newErr("add_typing", "%q -> %q -> %q does not commute with direct %q -> %q", src, mid, tgt, src, tgt)
			}
		}
	}
	h.typings[src][tgt] = hom
	h.out[src][tgt] = true
	h.in[tgt][src] = true
	log.Debug("added typing", "src", src, "tgt", tgt)
	return nil
}

func relKeyOf(a, b string) (relKey, bool) {
	if a <= b {
		return relKey{a, b}, false
	}
	return relKey{b, a}, true
}

// AddRelation records a symmetric node-set relation between graphs a and b.
// Each pair is (a-node, b-node); no propagation obligation follows from it.
func (h *Hierarchy) AddRelation(a, b string, pairs [][2]graph.NodeID) error {
	if !h.HasGraph(a) || !h.HasGraph(b) {
		return newErr("add_relation", "graph %q or %q does not exist", a, b)
	}
	key, swapped := relKeyOf(a, b)
	set := h.relations[key]
	if set == nil {
		set = map[[2]graph.NodeID]bool{}
		h.relations[key] = set
	}
	for _, p := range pairs {
		if swapped {
			p = [2]graph.NodeID{p[1], p[0]}
		}
		set[p] = true
	}
	return nil
}

// Relation returns every recorded (a-node, b-node) pair for graphs a and b.
func (h *Hierarchy) Relation(a, b string) [][2]graph.NodeID {
	key, swapped := relKeyOf(a, b)
	set := h.relations[key]
	out := make([][2]graph.NodeID, 0, len(set))
	for p := range set {
		if swapped {
			p = [2]graph.NodeID{p[1], p[0]}
		}
		out = append(out, p)
	}
	return out
}

// revalidateRelations drops relation entries naming a node no longer
// present in its graph, per the post-rewrite consistency requirement.
func (h *Hierarchy) revalidateRelations() {
	for key, set := range h.relations {
		ga, gb := h.graphs[key.A], h.graphs[key.B]
		for p := range set {
			if !ga.HasNode(p[0]) || !gb.HasNode(p[1]) {
				delete(set, p)
			}
		}
	}
}

// NodeType reports, for every outbound typing of graphID, the image of
// node under that typing.
func (h *Hierarchy) NodeType(graphID string, node graph.NodeID) (map[string]graph.NodeID, error) {
	if !h.HasGraph(graphID) {
		return nil, newErr("node_type", "graph %q does not exist", graphID)
	}
	out := map[string]graph.NodeID{}
	for _, tgt := range sortedKeys(h.out[graphID]) {
		if img, ok := h.typings[graphID][tgt].Map[node]; ok {
			out[tgt] = img
		}
	}
	return out, nil
}

// FindMatching enumerates matches of pattern in graphID, optionally
// restricted by typing.
func (h *Hierarchy) FindMatching(graphID string, pattern *graph.Graph, typing match.Typing) (*match.Iterator, error) {
	if !h.HasGraph(graphID) {
		return nil, newErr("find_matching", "graph %q does not exist", graphID)
	}
	return match.FindMatching(pattern, h.graphs[graphID], typing)
}

// directAncestors returns the graphs typed directly by graphID.
func (h *Hierarchy) directAncestors(graphID string) []string { return sortedKeys(h.in[graphID]) }

// directDescendants returns the graphs graphID is typed directly by.
func (h *Hierarchy) directDescendants(graphID string) []string { return sortedKeys(h.out[graphID]) }
