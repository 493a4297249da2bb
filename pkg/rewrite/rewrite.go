// Package rewrite applies a rule span against a matched instance in a
// target graph: a final-pullback-complement phase (clone, then delete)
// followed by a pushout phase (add, then merge), in that strict order.
package rewrite

import (
	"sort"

	"github.com/mandelsoft/regraph/pkg/attrset"
	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/ids"
	"github.com/mandelsoft/regraph/pkg/match"
	"github.com/mandelsoft/regraph/pkg/reglog"
	"github.com/mandelsoft/regraph/pkg/rule"
)

var log = reglog.New(reglog.RealmRewrite)

// Derivation records, in terms of the target graph's pre-rewrite node
// identities, exactly which nodes were cloned, deleted, added, or merged —
// the provenance a hierarchy needs to propagate the same rewrite to
// ancestor and descendant graphs.
type Derivation struct {
	// Cloned maps an original node id to every surviving copy: index 0 is
	// the original id itself, the rest are fresh clone ids, in the order
	// the rule's ℓ-preimages were processed.
	Cloned map[graph.NodeID][]graph.NodeID
	// Deleted lists the original node ids removed from the graph.
	Deleted []graph.NodeID
	// Added lists the fresh node ids introduced by the rule's R-only
	// elements.
	Added []graph.NodeID
	// Merged maps the resulting merged node id to the original member ids
	// that were folded into it.
	Merged map[graph.NodeID][]graph.NodeID
	// ShrunkNodeAttrs maps a surviving node id to its full attribute map
	// immediately after the delete phase stripped attributes from it — the
	// post-shrink snapshot a hierarchy intersects down into ancestor
	// instances to keep every typing triangle's attribute subsumption
	// consistent. A node absent here had no attributes removed.
	ShrunkNodeAttrs map[graph.NodeID]attrset.Map
	// ShrunkEdgeAttrs is the edge analogue of ShrunkNodeAttrs.
	ShrunkEdgeAttrs []EdgeAttrSnapshot
	// RHS is the derived match R → g'.
	RHS match.Match
}

// EdgeAttrSnapshot names an edge by its post-rewrite endpoints alongside
// an attribute map captured at some point during the rewrite.
type EdgeAttrSnapshot struct {
	From, To graph.NodeID
	Attrs    attrset.Map
}

func validateMatch(r *rule.Rule, g *graph.Graph, m match.Match) error {
	if _, err := graph.NewHom(r.L, g, m.Map); err != nil {
		return newErr("invalid_match", "%v", err)
	}
	seen := map[graph.NodeID]bool{}
	for _, v := range m.Map {
		if seen[v] {
			return newErr("invalid_match", "match is not injective: target node %q hit twice", v)
		}
		seen[v] = true
	}
	return nil
}

// Apply performs the sesqui-pushout rewrite of g, given a rule r and a
// match m: L → g, and returns the full derivation provenance. The rewrite
// is atomic: it runs against a scratch clone of g and only replaces g's
// content once every phase — including every attribute-diff check — has
// succeeded. On any error g is returned exactly as it was passed in.
func Apply(g *graph.Graph, r *rule.Rule, m match.Match) (*Derivation, error) {
	scratch := g.Clone()
	deriv, err := applyInPlace(scratch, r, m)
	if err != nil {
		return nil, err
	}
	g.ReplaceWith(scratch)
	return deriv, nil
}

// applyInPlace is the sesqui-pushout rewrite itself, mutating g directly.
// Callers that need atomicity go through Apply instead.
func applyInPlace(g *graph.Graph, r *rule.Rule, m match.Match) (*Derivation, error) {
	if err := validateMatch(r, g, m); err != nil {
		return nil, err
	}

	pToG := map[graph.NodeID]graph.NodeID{}
	deriv := &Derivation{
		Cloned:          map[graph.NodeID][]graph.NodeID{},
		Merged:          map[graph.NodeID][]graph.NodeID{},
		ShrunkNodeAttrs: map[graph.NodeID]attrset.Map{},
	}

	// Clone phase: L-nodes with ≥2 ℓ-preimages get the matched G-node
	// cloned once per extra preimage.
	lNodes := append([]graph.NodeID(nil), r.L.Nodes()...)
	sort.Slice(lNodes, func(i, j int) bool { return lNodes[i] < lNodes[j] })
	for _, x := range lNodes {
		keys := r.LPreimage(x)
		if len(keys) == 0 {
			continue
		}
		orig := m.Map[x]
		pToG[keys[0]] = orig
		if len(keys) > 1 {
			copies := []graph.NodeID{orig}
			for _, k := range keys[1:] {
				newID, err := g.CloneNode(orig, "")
				if err != nil {
					return nil, newErr("clone_phase", "%v", err)
				}
				pToG[k] = newID
				copies = append(copies, newID)
			}
			deriv.Cloned[orig] = copies
		}
	}

	// Delete phase: L-nodes with no ℓ-preimage are removed (cascading);
	// L-edges with no ℓ-preimage edge are removed between each pair of
	// surviving/cloned endpoint copies; attribute differences strip from
	// surviving nodes/edges.
	for _, x := range r.DeletedNodes() {
		orig := m.Map[x]
		if err := g.RemoveNode(orig); err != nil {
			return nil, newErr("delete_phase", "%v", err)
		}
		deriv.Deleted = append(deriv.Deleted, orig)
	}
	for _, e := range r.DeletedEdges() {
		for _, k1 := range r.LPreimage(e.From) {
			for _, k2 := range r.LPreimage(e.To) {
				u, v := pToG[k1], pToG[k2]
				if g.HasEdge(u, v) {
					if err := g.RemoveEdge(u, v); err != nil {
						return nil, newErr("delete_phase", "%v", err)
					}
				}
			}
		}
	}
	for _, p := range r.P.Nodes() {
		diff, err := r.DeletedNodeAttrsAt(p)
		if err != nil {
			return nil, newErr("attribute_incompatible", "node %q: %v", p, err)
		}
		if len(diff) > 0 {
			orig := pToG[p]
			if err := g.RemoveNodeAttrs(orig, diff); err != nil {
				return nil, newErr("attribute_incompatible", "node %q: %v", p, err)
			}
			deriv.ShrunkNodeAttrs[orig] = g.NodeAttrs(orig)
		}
	}
	for _, e := range r.P.Edges() {
		diff, err := r.DeletedEdgeAttrsAt(e.From, e.To)
		if err != nil {
			return nil, newErr("attribute_incompatible", "edge %q->%q: %v", e.From, e.To, err)
		}
		if len(diff) > 0 {
			u, v := pToG[e.From], pToG[e.To]
			if g.HasEdge(u, v) {
				if err := g.RemoveEdgeAttrs(u, v, diff); err != nil {
					return nil, newErr("attribute_incompatible", "edge %q->%q: %v", e.From, e.To, err)
				}
				deriv.ShrunkEdgeAttrs = append(deriv.ShrunkEdgeAttrs, EdgeAttrSnapshot{From: u, To: v, Attrs: g.EdgeAttrs(u, v)})
			}
		}
	}

	// Add phase: R-nodes with no ρ-preimage are added with fresh ids,
	// then R-edges between (new ∪ preserved) endpoints; attribute
	// differences union onto preserved/new elements.
	added := map[graph.NodeID]graph.NodeID{}
	for _, y := range r.AddedNodes() {
		freshID := ids.Fresh(string(y), g.HasNode)
		if err := g.AddNode(freshID, r.R.NodeAttrs(y)); err != nil {
			return nil, newErr("add_phase", "%v", err)
		}
		added[y] = freshID
		deriv.Added = append(deriv.Added, freshID)
	}
	resolveR := func(y graph.NodeID) graph.NodeID {
		if ps := r.RPreimage(y); len(ps) > 0 {
			return pToG[ps[0]]
		}
		return added[y]
	}
	for _, e := range r.AddedEdges() {
		u, v := resolveR(e.From), resolveR(e.To)
		if !g.HasEdge(u, v) {
			if err := g.AddEdge(u, v, e.Attrs); err != nil {
				return nil, newErr("add_phase", "%v", err)
			}
		}
	}
	for _, p := range r.P.Nodes() {
		diff, err := r.AddedNodeAttrsAt(p)
		if err != nil {
			return nil, newErr("attribute_incompatible", "node %q: %v", p, err)
		}
		if len(diff) > 0 {
			if err := g.AddNodeAttrs(pToG[p], diff); err != nil {
				return nil, newErr("add_phase", "%v", err)
			}
		}
	}
	for _, e := range r.P.Edges() {
		diff, err := r.AddedEdgeAttrsAt(e.From, e.To)
		if err != nil {
			return nil, newErr("attribute_incompatible", "edge %q->%q: %v", e.From, e.To, err)
		}
		if len(diff) > 0 {
			u, v := pToG[e.From], pToG[e.To]
			if err := g.AddEdgeAttrs(u, v, diff); err != nil {
				return nil, newErr("attribute_incompatible", "edge %q->%q: %v", e.From, e.To, err)
			}
		}
	}

	// Merge phase: preserved G-elements sharing a ρ-fiber are merged,
	// with attribute union (no failure for duplicate merge results).
	merged := map[graph.NodeID]graph.NodeID{}
	mergedTargets := []graph.NodeID{}
	for y := range r.MergedNodes() {
		mergedTargets = append(mergedTargets, y)
	}
	sort.Slice(mergedTargets, func(i, j int) bool { return mergedTargets[i] < mergedTargets[j] })
	for _, y := range mergedTargets {
		members := r.MergedNodes()[y]
		gMembers := make([]graph.NodeID, 0, len(members))
		origMembers := make([]graph.NodeID, 0, len(members))
		seen := map[graph.NodeID]bool{}
		for _, p := range members {
			g2 := pToG[p]
			origMembers = append(origMembers, g2)
			if !seen[g2] {
				seen[g2] = true
				gMembers = append(gMembers, g2)
			}
		}
		mergedID, err := g.MergeNodes(gMembers, "")
		if err != nil {
			return nil, newErr("merge_phase", "%v", err)
		}
		for _, p := range members {
			pToG[p] = mergedID
		}
		merged[y] = mergedID
		deriv.Merged[mergedID] = origMembers
	}

	log.Debug("applied rewrite", "cloned", len(r.ClonedNodes()), "deleted", len(r.DeletedNodes()), "added", len(r.AddedNodes()), "merged", len(r.MergedNodes()))

	mR := match.Match{Map: map[graph.NodeID]graph.NodeID{}}
	for _, y := range r.R.Nodes() {
		ps := r.RPreimage(y)
		switch {
		case len(ps) == 0:
			mR.Map[y] = added[y]
		case len(ps) == 1:
			mR.Map[y] = pToG[ps[0]]
		default:
			mR.Map[y] = merged[y]
		}
	}
	deriv.RHS = mR
	return deriv, nil
}

// ApplyPure performs the rewrite on a clone of g, leaving g untouched, and
// returns the derived graph alongside the derivation.
func ApplyPure(g *graph.Graph, r *rule.Rule, m match.Match) (*graph.Graph, *Derivation, error) {
	g2 := g.Clone()
	deriv, err := applyInPlace(g2, r, m)
	if err != nil {
		return nil, nil, err
	}
	return g2, deriv, nil
}
