package rule

import (
	"github.com/mandelsoft/regraph/pkg/attrset"
	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/ids"
)

// InjectCloneNode grows the rule to clone the L-node n: a fresh P-node is
// cloned from n's existing preimage, and a corresponding RHS node is added
// (under a fresh id when the clone's id is already taken in R) with
// edges reconnected to whatever the clone's P-neighbors already map to.
func (r *Rule) InjectCloneNode(n graph.NodeID, newID string) (graph.NodeID, graph.NodeID, error) {
	pNodes := fiberOf(r.PtoL, n)
	if len(pNodes) == 0 {
		return "", "", newErr("inject_clone_node", "node %q is already being removed by the rule; revert its removal first", n)
	}
	if newID != "" && r.P.HasNode(newID) {
		return "", "", newErr("inject_clone_node", "node %q already exists in the preserved part", newID)
	}
	some := pNodes[0]
	pNew, err := r.P.CloneNode(some, newID)
	if err != nil {
		return "", "", newErr("inject_clone_node", "cloning %q in P: %v", some, err)
	}
	r.PtoL[pNew] = n

	rhsNew := graph.NodeID(pNew)
	if r.R.HasNode(rhsNew) {
		rhsNew = graph.NodeID(ids.Fresh(string(pNew), func(c string) bool { return r.R.HasNode(graph.NodeID(c)) }))
	}
	if err := r.R.AddNode(rhsNew, r.P.NodeAttrs(pNew)); err != nil {
		return "", "", newErr("inject_clone_node", "adding clone to R: %v", err)
	}
	r.PtoR[pNew] = rhsNew

	for _, pred := range r.P.InNeighbors(pNew) {
		ru, rv := r.PtoR[pred], rhsNew
		if !r.R.HasEdge(ru, rv) {
			if err := r.R.AddEdge(ru, rv, r.P.EdgeAttrs(pred, pNew)); err != nil {
				return "", "", newErr("inject_clone_node", "reconnecting predecessor edge: %v", err)
			}
		}
	}
	for _, succ := range r.P.OutNeighbors(pNew) {
		ru, rv := rhsNew, r.PtoR[succ]
		if !r.R.HasEdge(ru, rv) {
			if err := r.R.AddEdge(ru, rv, r.P.EdgeAttrs(pNew, succ)); err != nil {
				return "", "", newErr("inject_clone_node", "reconnecting successor edge: %v", err)
			}
		}
	}
	return pNew, rhsNew, nil
}

// InjectRemoveNode grows the rule to delete the P-node p: p is removed from
// P, and its RHS image (plus anything else mapping to that same image) is
// removed from R and the ρ map.
func (r *Rule) InjectRemoveNode(p graph.NodeID) error {
	if !r.P.HasNode(p) {
		return newErr("inject_remove_node", "node %q does not exist in the preserved part", p)
	}
	rhsID := r.PtoR[p]
	if err := r.P.RemoveNode(p); err != nil {
		return newErr("inject_remove_node", "removing from P: %v", err)
	}
	if r.R.HasNode(rhsID) {
		if err := r.R.RemoveNode(rhsID); err != nil {
			return newErr("inject_remove_node", "removing from R: %v", err)
		}
		for _, affected := range fiberOf(r.PtoR, rhsID) {
			delete(r.PtoR, affected)
		}
	}
	delete(r.PtoL, p)
	return nil
}

// InjectRemoveEdge grows the rule to delete the P-edge (u,v), removing its
// image from R too.
func (r *Rule) InjectRemoveEdge(u, v graph.NodeID) error {
	if !r.P.HasEdge(u, v) {
		return newErr("inject_remove_edge", "edge %q->%q does not exist in the preserved part", u, v)
	}
	if err := r.P.RemoveEdge(u, v); err != nil {
		return newErr("inject_remove_edge", "removing from P: %v", err)
	}
	if err := r.R.RemoveEdge(r.PtoR[u], r.PtoR[v]); err != nil {
		return newErr("inject_remove_edge", "removing from R: %v", err)
	}
	return nil
}

// InjectRemoveNodeAttrs grows the rule to strip attrs from the P-node n,
// mirroring the removal onto its RHS image.
func (r *Rule) InjectRemoveNodeAttrs(n graph.NodeID, attrs attrset.Map) error {
	if !r.P.HasNode(n) {
		return newErr("inject_remove_node_attrs", "node %q does not exist in the preserved part", n)
	}
	if err := r.P.RemoveNodeAttrs(n, attrs); err != nil {
		return newErr("inject_remove_node_attrs", "stripping from P: %v", err)
	}
	if err := r.R.RemoveNodeAttrs(r.PtoR[n], attrs); err != nil {
		return newErr("inject_remove_node_attrs", "stripping from R: %v", err)
	}
	return nil
}

// InjectRemoveEdgeAttrs grows the rule to strip attrs from the P-edge
// (u,v), mirroring the removal onto its RHS image.
func (r *Rule) InjectRemoveEdgeAttrs(u, v graph.NodeID, attrs attrset.Map) error {
	if !r.P.HasNode(u) {
		return newErr("inject_remove_edge_attrs", "node %q does not exist in the preserved part", u)
	}
	if !r.P.HasNode(v) {
		return newErr("inject_remove_edge_attrs", "node %q does not exist in the preserved part", v)
	}
	if !r.P.HasEdge(u, v) {
		return newErr("inject_remove_edge_attrs", "edge %q->%q does not exist in the preserved part", u, v)
	}
	if err := r.P.RemoveEdgeAttrs(u, v, attrs); err != nil {
		return newErr("inject_remove_edge_attrs", "stripping from P: %v", err)
	}
	if err := r.R.RemoveEdgeAttrs(r.PtoR[u], r.PtoR[v], attrs); err != nil {
		return newErr("inject_remove_edge_attrs", "stripping from R: %v", err)
	}
	return nil
}

// InjectAddNode grows the rule to add a fresh node to R only, with no P or
// L preimage.
func (r *Rule) InjectAddNode(id graph.NodeID, attrs attrset.Map) error {
	if r.R.HasNode(id) {
		return newErr("inject_add_node", "node %q already exists in the right-hand side", id)
	}
	return r.R.AddNode(id, attrs)
}

// InjectAddEdge grows the rule to add an edge between two existing RHS
// nodes, with no P or L preimage.
func (r *Rule) InjectAddEdge(u, v graph.NodeID, attrs attrset.Map) error {
	if !r.R.HasNode(u) {
		return newErr("inject_add_edge", "node %q does not exist in the right-hand side", u)
	}
	if !r.R.HasNode(v) {
		return newErr("inject_add_edge", "node %q does not exist in the right-hand side", v)
	}
	if r.R.HasEdge(u, v) {
		return newErr("inject_add_edge", "edge %q->%q already exists in the right-hand side", u, v)
	}
	return r.R.AddEdge(u, v, attrs)
}

// InjectMergeNodes grows the rule to merge the RHS images of the given
// P-nodes into a single R node, redirecting every P-node (and anything
// else already sharing one of those RHS images) to the merge result.
func (r *Rule) InjectMergeNodes(members []graph.NodeID, newID string) (graph.NodeID, error) {
	rhsSet := map[graph.NodeID]bool{}
	var rhsMembers []graph.NodeID
	for _, n := range members {
		if !r.P.HasNode(n) {
			return "", newErr("inject_merge_nodes", "node %q does not exist in the preserved part", n)
		}
		rn := r.PtoR[n]
		if !rhsSet[rn] {
			rhsSet[rn] = true
			rhsMembers = append(rhsMembers, rn)
		}
	}
	merged, err := r.R.MergeNodes(rhsMembers, newID)
	if err != nil {
		return "", newErr("inject_merge_nodes", "merging in R: %v", err)
	}
	for _, n := range members {
		r.PtoR[n] = merged
	}
	for _, rn := range rhsMembers {
		for _, p := range fiberOf(r.PtoR, rn) {
			r.PtoR[p] = merged
		}
	}
	return merged, nil
}

// InjectAddNodeAttrs grows the rule to union attrs onto the RHS node n,
// with no corresponding change to P or L.
func (r *Rule) InjectAddNodeAttrs(n graph.NodeID, attrs attrset.Map) error {
	if !r.R.HasNode(n) {
		return newErr("inject_add_node_attrs", "node %q does not exist in the right-hand side", n)
	}
	return r.R.AddNodeAttrs(n, attrs)
}

// InjectAddEdgeAttrs grows the rule to union attrs onto the RHS edge
// (u,v), with no corresponding change to P or L.
func (r *Rule) InjectAddEdgeAttrs(u, v graph.NodeID, attrs attrset.Map) error {
	if !r.R.HasEdge(u, v) {
		return newErr("inject_add_edge_attrs", "edge %q->%q does not exist in the right-hand side", u, v)
	}
	return r.R.AddEdgeAttrs(u, v, attrs)
}
