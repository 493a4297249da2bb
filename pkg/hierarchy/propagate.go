package hierarchy

import (
	"sort"

	"github.com/mandelsoft/regraph/pkg/attrset"
	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/ids"
	"github.com/mandelsoft/regraph/pkg/match"
	"github.com/mandelsoft/regraph/pkg/rewrite"
	"github.com/mandelsoft/regraph/pkg/rule"
)

// backDelta is the propagation payload carried from a graph to its
// ancestors: elements removed, and nodes cloned (original id -> all
// surviving copies, index 0 the original), both expressed in that graph's
// own node identity.
type backDelta struct {
	deleted []graph.NodeID
	cloned  map[graph.NodeID][]graph.NodeID
	// nodeAttrs maps a surviving node id to its attribute map right after
	// shrinking, for intersecting down into ancestor instances.
	nodeAttrs map[graph.NodeID]attrset.Map
	edgeAttrs []rewrite.EdgeAttrSnapshot
}

// fwdDelta is the propagation payload carried from a graph to its
// descendants: nodes added, and nodes merged (resulting id -> original
// member ids).
type fwdDelta struct {
	added  []graph.NodeID
	merged map[graph.NodeID][]graph.NodeID
}

func mergeBackDelta(dst *backDelta, src backDelta) {
	dst.deleted = append(dst.deleted, src.deleted...)
	if dst.cloned == nil {
		dst.cloned = map[graph.NodeID][]graph.NodeID{}
	}
	for k, v := range src.cloned {
		dst.cloned[k] = v
	}
	if dst.nodeAttrs == nil {
		dst.nodeAttrs = map[graph.NodeID]attrset.Map{}
	}
	for k, v := range src.nodeAttrs {
		dst.nodeAttrs[k] = v
	}
	dst.edgeAttrs = append(dst.edgeAttrs, src.edgeAttrs...)
}

func mergeFwdDelta(dst *fwdDelta, src fwdDelta) {
	dst.added = append(dst.added, src.added...)
	if dst.merged == nil {
		dst.merged = map[graph.NodeID][]graph.NodeID{}
	}
	for k, v := range src.merged {
		dst.merged[k] = v
	}
}

// Rewrite applies rule r under match m to graphID, then propagates the
// effect across the hierarchy so every typing triangle keeps commuting.
//
// In strict mode the rewrite is rejected outright when it would force any
// propagation; otherwise backward propagation (deletions, clones) runs to
// completion before forward propagation (additions, merges) begins, each
// visiting the DAG in topological order outward from graphID.
func (h *Hierarchy) Rewrite(graphID string, r *rule.Rule, m match.Match, pTyping, rhsTyping map[string]map[graph.NodeID]graph.NodeID, strict bool) (*rewrite.Derivation, error) {
	g := h.graphs[graphID]
	if g == nil {
		return nil, newErr("rewrite", "graph %q does not exist", graphID)
	}
	if strict {
		if err := h.checkStrict(graphID, r, m, pTyping, rhsTyping); err != nil {
			if he, ok := err.(*HierarchyError); ok {
				return nil, &rewrite.RewritingError{Op: he.Op, Message: he.Message}
			}
			return nil, err
		}
	}

	deriv, err := rewrite.Apply(g, r, m)
	if err != nil {
		return nil, newErr("rewrite", "%v", err)
	}

	initial := backDelta{
		deleted:   deriv.Deleted,
		cloned:    deriv.Cloned,
		nodeAttrs: deriv.ShrunkNodeAttrs,
		edgeAttrs: deriv.ShrunkEdgeAttrs,
	}
	if err := h.propagateBackward(graphID, initial, pTyping); err != nil {
		return nil, err
	}
	if err := h.propagateForward(graphID, fwdDelta{added: deriv.Added, merged: deriv.Merged}, rhsTyping); err != nil {
		return nil, err
	}
	h.revalidateRelations()
	return deriv, nil
}

func (h *Hierarchy) checkStrict(graphID string, r *rule.Rule, m match.Match, pTyping, rhsTyping map[string]map[graph.NodeID]graph.NodeID) error {
	descendants := sortedKeys(h.out[graphID])
	for _, y := range r.AddedNodes() {
		for _, d := range descendants {
			if _, ok := rhsTyping[d][y]; !ok {
				return newErr("strict_violation", "added node %q has no rhs_typing image in descendant %q", y, d)
			}
		}
	}

	ancestors := sortedKeys(h.in[graphID])
	for x, copies := range r.ClonedNodes() {
		gNode := m.Map[x]
		for _, a := range ancestors {
			fiber := h.typings[a][graphID].Fiber(gNode)
			if len(fiber) == 0 {
				continue
			}
			for _, an := range fiber {
				if _, ok := pTyping[a][an]; !ok {
					return newErr("strict_violation", "node %q in ancestor %q typed by cloned node %q has no p_typing assignment among %d clones", an, a, gNode, len(copies))
				}
			}
		}
	}

	for _, members := range r.MergedNodes() {
		for _, d := range descendants {
			images := map[graph.NodeID]bool{}
			for _, p := range members {
				gNode := m.Map[r.PtoL[p]]
				if gNode == "" {
					continue
				}
				if img, ok := h.typings[graphID][d].Map[gNode]; ok {
					images[img] = true
				}
			}
			if len(images) > 1 {
				return newErr("strict_violation", "merge forces a downstream merge in descendant %q", d)
			}
		}
	}

	for _, x := range r.DeletedNodes() {
		orig := m.Map[x]
		for _, a := range ancestors {
			if len(h.typings[a][graphID].Fiber(orig)) > 0 {
				return newErr("strict_violation", "deleted node %q has instances in ancestor %q", orig, a)
			}
		}
	}

	for _, e := range r.DeletedEdges() {
		gU, gV := m.Map[e.From], m.Map[e.To]
		for _, a := range ancestors {
			hom := h.typings[a][graphID]
			ag := h.graphs[a]
			for _, au := range hom.Fiber(gU) {
				for _, av := range hom.Fiber(gV) {
					if ag.HasEdge(au, av) {
						return newErr("strict_violation", "deleted edge (%q,%q) has an instance edge (%q,%q) in ancestor %q", gU, gV, au, av, a)
					}
				}
			}
		}
	}

	for _, p := range r.P.Nodes() {
		diff, err := r.DeletedNodeAttrsAt(p)
		if err != nil {
			return newErr("strict_violation", "%v", err)
		}
		if len(diff) == 0 {
			continue
		}
		gNode := m.Map[r.PtoL[p]]
		for _, a := range ancestors {
			ag := h.graphs[a]
			for _, an := range h.typings[a][graphID].Fiber(gNode) {
				attrs := ag.NodeAttrs(an)
				for _, k := range diff.Keys() {
					if !attrs.Get(k).IsEmpty() {
						return newErr("strict_violation", "removed attribute %q of node %q has a non-empty instance in ancestor %q", k, gNode, a)
					}
				}
			}
		}
	}

	for _, e := range r.P.Edges() {
		diff, err := r.DeletedEdgeAttrsAt(e.From, e.To)
		if err != nil {
			return newErr("strict_violation", "%v", err)
		}
		if len(diff) == 0 {
			continue
		}
		gU, gV := m.Map[r.PtoL[e.From]], m.Map[r.PtoL[e.To]]
		for _, a := range ancestors {
			hom := h.typings[a][graphID]
			ag := h.graphs[a]
			for _, au := range hom.Fiber(gU) {
				for _, av := range hom.Fiber(gV) {
					if !ag.HasEdge(au, av) {
						continue
					}
					attrs := ag.EdgeAttrs(au, av)
					for _, k := range diff.Keys() {
						if !attrs.Get(k).IsEmpty() {
							return newErr("strict_violation", "removed attribute %q of edge (%q,%q) has a non-empty instance in ancestor %q", k, gU, gV, a)
						}
					}
				}
			}
		}
	}
	return nil
}

// propagateBackward walks the ancestor subgraph of graphID breadth-first,
// outward, applying each accumulated delta once all of a node's
// propagation sources (its direct descendants within the walk) have been
// applied to it.
func (h *Hierarchy) propagateBackward(graphID string, initial backDelta, pTyping map[string]map[graph.NodeID]graph.NodeID) error {
	deltas := map[string]backDelta{graphID: initial}
	walk := reachable(graphID, h.in)
	pending := map[string]int{}
	for a := range walk {
		for _, d := range h.directDescendants(a) {
			if d == graphID || walk[d] {
				pending[a]++
			}
		}
	}
	queue := []string{graphID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, a := range h.directAncestors(cur) {
			d, err := h.applyBackward(a, cur, deltas[cur], pTyping)
			if err != nil {
				return err
			}
			merged := deltas[a]
			mergeBackDelta(&merged, d)
			deltas[a] = merged
			if pending[a]--; pending[a] == 0 {
				queue = append(queue, a)
			}
		}
	}
	return nil
}

// applyBackward removes/clones A's elements typed by child's removed/cloned
// elements, and returns the delta that resulted within A, to be carried on
// to A's own ancestors.
func (h *Hierarchy) applyBackward(a, child string, delta backDelta, pTyping map[string]map[graph.NodeID]graph.NodeID) (backDelta, error) {
	hom := h.typings[a][child]
	g := h.graphs[a]
	out := backDelta{cloned: map[graph.NodeID][]graph.NodeID{}, nodeAttrs: map[graph.NodeID]attrset.Map{}}

	for _, e := range delta.deleted {
		for _, an := range hom.Fiber(e) {
			if !g.HasNode(an) {
				continue
			}
			if err := g.RemoveNode(an); err != nil {
				return out, newErr("propagate_backward", "graph %q: %v", a, err)
			}
			out.deleted = append(out.deleted, an)
		}
	}
	for _, d := range out.deleted {
		delete(hom.Map, d)
	}

	origKeys := make([]graph.NodeID, 0, len(delta.cloned))
	for orig := range delta.cloned {
		origKeys = append(origKeys, orig)
	}
	sort.Slice(origKeys, func(i, j int) bool { return origKeys[i] < origKeys[j] })
	for _, orig := range origKeys {
		copies := delta.cloned[orig]
		for _, an := range hom.Fiber(orig) {
			if assigned, ok := pTyping[a][an]; ok {
				hom.Map[an] = assigned
				continue
			}
			produced := []graph.NodeID{an}
			for _, c := range copies[1:] {
				newID, err := g.CloneNode(an, "")
				if err != nil {
					return out, newErr("propagate_backward", "graph %q: cloning %q: %v", a, an, err)
				}
				hom.Map[newID] = c
				produced = append(produced, newID)
			}
			hom.Map[an] = copies[0]
			out.cloned[an] = produced
		}
	}

	// Attribute-difference propagation: narrow every ancestor instance
	// typed onto a node or edge that shrank at child down to its
	// intersection with the new, shrunk attribute value, keeping the
	// typing triangle's subsumption requirement satisfied. The narrowing
	// itself may shrink A further, so it is carried on to A's own
	// ancestors the same way deletions and clones are.
	nodeAttrKeys := make([]graph.NodeID, 0, len(delta.nodeAttrs))
	for n := range delta.nodeAttrs {
		nodeAttrKeys = append(nodeAttrKeys, n)
	}
	sort.Slice(nodeAttrKeys, func(i, j int) bool { return nodeAttrKeys[i] < nodeAttrKeys[j] })
	for _, n := range nodeAttrKeys {
		shrunk := delta.nodeAttrs[n]
		for _, an := range hom.Fiber(n) {
			if !g.HasNode(an) {
				continue
			}
			before := g.NodeAttrs(an)
			if err := g.IntersectNodeAttrs(an, shrunk); err != nil {
				return out, newErr("propagate_backward", "graph %q: narrowing node %q: %v", a, an, err)
			}
			after := g.NodeAttrs(an)
			if eq, _ := before.Equals(after); !eq {
				out.nodeAttrs[an] = after
			}
		}
	}
	for _, es := range delta.edgeAttrs {
		for _, au := range hom.Fiber(es.From) {
			for _, av := range hom.Fiber(es.To) {
				if !g.HasEdge(au, av) {
					continue
				}
				before := g.EdgeAttrs(au, av)
				if err := g.IntersectEdgeAttrs(au, av, es.Attrs); err != nil {
					return out, newErr("propagate_backward", "graph %q: narrowing edge (%q,%q): %v", a, au, av, err)
				}
				after := g.EdgeAttrs(au, av)
				if eq, _ := before.Equals(after); !eq {
					out.edgeAttrs = append(out.edgeAttrs, rewrite.EdgeAttrSnapshot{From: au, To: av, Attrs: after})
				}
			}
		}
	}

	h.typings[a][child] = hom
	return out, nil
}

// propagateForward walks the descendant subgraph of graphID breadth-first,
// outward, mirroring propagateBackward.
func (h *Hierarchy) propagateForward(graphID string, initial fwdDelta, rhsTyping map[string]map[graph.NodeID]graph.NodeID) error {
	deltas := map[string]fwdDelta{graphID: initial}
	walk := reachable(graphID, h.out)
	pending := map[string]int{}
	for d := range walk {
		for _, p := range h.directAncestors(d) {
			if p == graphID || walk[p] {
				pending[d]++
			}
		}
	}
	queue := []string{graphID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range h.directDescendants(cur) {
			delta, err := h.applyForward(cur, d, deltas[cur], rhsTyping)
			if err != nil {
				return err
			}
			merged := deltas[d]
			mergeFwdDelta(&merged, delta)
			deltas[d] = merged
			if pending[d]--; pending[d] == 0 {
				queue = append(queue, d)
			}
		}
	}
	return nil
}

// applyForward adds to / merges within descendant D the images of parent's
// added/merged elements, and returns the delta that resulted within D.
func (h *Hierarchy) applyForward(parent, d string, delta fwdDelta, rhsTyping map[string]map[graph.NodeID]graph.NodeID) (fwdDelta, error) {
	hom := h.typings[parent][d]
	target := h.graphs[d]
	out := fwdDelta{merged: map[graph.NodeID][]graph.NodeID{}}

	for _, y := range delta.added {
		if img, ok := rhsTyping[d][y]; ok {
			hom.Map[y] = img
			continue
		}
		freshID := ids.Fresh(string(y), target.HasNode)
		if err := target.AddNode(freshID, nil); err != nil {
			return out, newErr("propagate_forward", "graph %q: %v", d, err)
		}
		hom.Map[y] = freshID
		out.added = append(out.added, freshID)
	}

	mergedKeys := make([]graph.NodeID, 0, len(delta.merged))
	for y := range delta.merged {
		mergedKeys = append(mergedKeys, y)
	}
	sort.Slice(mergedKeys, func(i, j int) bool { return mergedKeys[i] < mergedKeys[j] })
	for _, y := range mergedKeys {
		members := delta.merged[y]
		images := []graph.NodeID{}
		seen := map[graph.NodeID]bool{}
		for _, mem := range members {
			if img, ok := hom.Map[mem]; ok && !seen[img] {
				seen[img] = true
				images = append(images, img)
			}
		}
		var final graph.NodeID
		if len(images) > 1 {
			sort.Slice(images, func(i, j int) bool { return images[i] < images[j] })
			mergedID, err := target.MergeNodes(images, "")
			if err != nil {
				return out, newErr("propagate_forward", "graph %q: %v", d, err)
			}
			final = mergedID
			out.merged[mergedID] = images
		} else if len(images) == 1 {
			final = images[0]
		} else {
			continue
		}
		for _, mem := range members {
			delete(hom.Map, mem)
		}
		hom.Map[y] = final
	}

	h.typings[parent][d] = hom
	return out, nil
}
