// Package rule constructs and introspects sesqui-pushout rewrite rules: a
// span L ←ℓ P →ρ R of graphs and homomorphisms, either built explicitly or
// grown incrementally from a pattern by injecting primitive edits.
package rule

import (
	"sort"

	"github.com/mandelsoft/regraph/pkg/attrset"
	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/reglog"
)

var log = reglog.New(reglog.RealmRule)

// Rule is a span L ←ℓ P →ρ R. L is the pattern, P the preserved interface,
// R the result. PtoL and PtoR carry ℓ and ρ as plain node-id maps — data,
// not methods on a graph — so injections can mutate them directly as P and
// R grow.
type Rule struct {
	L, P, R *graph.Graph
	PtoL    map[graph.NodeID]graph.NodeID
	PtoR    map[graph.NodeID]graph.NodeID
}

// NewExplicit builds a rule from three already-constructed graphs and the
// two node-id maps, validating both as homomorphisms.
func NewExplicit(l, p, r *graph.Graph, ptoL, ptoR map[graph.NodeID]graph.NodeID) (*Rule, error) {
	ellMap := make(map[graph.NodeID]graph.NodeID, len(ptoL))
	for k, v := range ptoL {
		ellMap[k] = v
	}
	rhoMap := make(map[graph.NodeID]graph.NodeID, len(ptoR))
	for k, v := range ptoR {
		rhoMap[k] = v
	}
	if _, err := graph.NewHom(p, l, ellMap); err != nil {
		return nil, newErr("new_explicit", "ℓ: P→L is not a valid homomorphism: %v", err)
	}
	if _, err := graph.NewHom(p, r, rhoMap); err != nil {
		return nil, newErr("new_explicit", "ρ: P→R is not a valid homomorphism: %v", err)
	}
	return &Rule{L: l, P: p, R: r, PtoL: ellMap, PtoR: rhoMap}, nil
}

// NewFromPattern starts the transform-from-pattern construction: P = L,
// R = L, with both ℓ and ρ the identity. Callers then grow P and R by
// injecting primitive edits.
func NewFromPattern(l *graph.Graph) *Rule {
	p := l.Clone()
	r := l.Clone()
	ptoL := make(map[graph.NodeID]graph.NodeID, len(p.Nodes()))
	ptoR := make(map[graph.NodeID]graph.NodeID, len(p.Nodes()))
	for _, id := range p.Nodes() {
		ptoL[id] = id
		ptoR[id] = id
	}
	return &Rule{L: l.Clone(), P: p, R: r, PtoL: ptoL, PtoR: ptoR}
}

func fiberOf(m map[graph.NodeID]graph.NodeID, y graph.NodeID) []graph.NodeID {
	var out []graph.NodeID
	for src, img := range m {
		if img == y {
			out = append(out, src)
		}
	}
	sort.Strings(out)
	return out
}

// LPreimage returns the P-nodes mapping to the L-node x under ℓ, in
// deterministic order: empty if x is deleted, length 1 if preserved,
// length ≥2 if cloned.
func (r *Rule) LPreimage(x graph.NodeID) []graph.NodeID {
	return fiberOf(r.PtoL, x)
}

// RPreimage returns the P-nodes mapping to the R-node y under ρ, in
// deterministic order: empty if y is newly added, length 1 if preserved,
// length ≥2 if merged.
func (r *Rule) RPreimage(y graph.NodeID) []graph.NodeID {
	return fiberOf(r.PtoR, y)
}

// DeletedNodes returns every L node with no preimage under ℓ, in
// deterministic order.
func (r *Rule) DeletedNodes() []graph.NodeID {
	var out []graph.NodeID
	for _, x := range r.L.Nodes() {
		if len(fiberOf(r.PtoL, x)) == 0 {
			out = append(out, x)
		}
	}
	return out
}

// ClonedNodes returns, for every L node with two or more preimages under
// ℓ, the P-node ids of those preimages.
func (r *Rule) ClonedNodes() map[graph.NodeID][]graph.NodeID {
	out := map[graph.NodeID][]graph.NodeID{}
	for _, x := range r.L.Nodes() {
		fiber := fiberOf(r.PtoL, x)
		if len(fiber) >= 2 {
			out[x] = fiber
		}
	}
	return out
}

// AddedNodes returns every R node with no preimage under ρ, in
// deterministic order.
func (r *Rule) AddedNodes() []graph.NodeID {
	var out []graph.NodeID
	for _, y := range r.R.Nodes() {
		if len(fiberOf(r.PtoR, y)) == 0 {
			out = append(out, y)
		}
	}
	return out
}

// MergedNodes returns, for every R node with two or more preimages under
// ρ, the P-node ids of those preimages.
func (r *Rule) MergedNodes() map[graph.NodeID][]graph.NodeID {
	out := map[graph.NodeID][]graph.NodeID{}
	for _, y := range r.R.Nodes() {
		fiber := fiberOf(r.PtoR, y)
		if len(fiber) >= 2 {
			out[y] = fiber
		}
	}
	return out
}

func hitByImage(edges []graph.Edge, mapping map[graph.NodeID]graph.NodeID, domEdges []graph.Edge) map[[2]graph.NodeID]bool {
	hit := map[[2]graph.NodeID]bool{}
	for _, e := range domEdges {
		u, okU := mapping[e.From]
		v, okV := mapping[e.To]
		if okU && okV {
			hit[[2]graph.NodeID{u, v}] = true
		}
	}
	return hit
}

// DeletedEdges returns every L edge with no preimage edge under ℓ.
func (r *Rule) DeletedEdges() []graph.Edge {
	hit := hitByImage(r.L.Edges(), r.PtoL, r.P.Edges())
	var out []graph.Edge
	for _, e := range r.L.Edges() {
		if !hit[[2]graph.NodeID{e.From, e.To}] {
			out = append(out, e)
		}
	}
	return out
}

// AddedEdges returns every R edge with no preimage edge under ρ.
func (r *Rule) AddedEdges() []graph.Edge {
	hit := hitByImage(r.R.Edges(), r.PtoR, r.P.Edges())
	var out []graph.Edge
	for _, e := range r.R.Edges() {
		if !hit[[2]graph.NodeID{e.From, e.To}] {
			out = append(out, e)
		}
	}
	return out
}

// DeletedNodeAttrsAt returns L's node attrs minus P's node attrs at the
// P-node p: the attrs the delete phase must strip from a preserved node.
func (r *Rule) DeletedNodeAttrsAt(p graph.NodeID) (attrset.Map, error) {
	x, ok := r.PtoL[p]
	if !ok {
		return nil, newErr("deleted_attrs", "P-node %q has no ℓ-image", p)
	}
	return r.L.NodeAttrs(x).RemoveAttrs(r.P.NodeAttrs(p))
}

// AddedNodeAttrsAt returns R's node attrs minus P's node attrs at the
// P-node p: the attrs the add phase must union onto a preserved node.
func (r *Rule) AddedNodeAttrsAt(p graph.NodeID) (attrset.Map, error) {
	y, ok := r.PtoR[p]
	if !ok {
		return nil, newErr("added_attrs", "P-node %q has no ρ-image", p)
	}
	return r.R.NodeAttrs(y).RemoveAttrs(r.P.NodeAttrs(p))
}

// DeletedEdgeAttrsAt returns L's edge attrs minus P's edge attrs for the
// P-edge (u,v).
func (r *Rule) DeletedEdgeAttrsAt(u, v graph.NodeID) (attrset.Map, error) {
	lu, lv := r.PtoL[u], r.PtoL[v]
	return r.L.EdgeAttrs(lu, lv).RemoveAttrs(r.P.EdgeAttrs(u, v))
}

// AddedEdgeAttrsAt returns R's edge attrs minus P's edge attrs for the
// P-edge (u,v).
func (r *Rule) AddedEdgeAttrsAt(u, v graph.NodeID) (attrset.Map, error) {
	ru, rv := r.PtoR[u], r.PtoR[v]
	return r.R.EdgeAttrs(ru, rv).RemoveAttrs(r.P.EdgeAttrs(u, v))
}
