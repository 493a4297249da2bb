package audit

import (
	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/hierarchy"
	"github.com/mandelsoft/regraph/pkg/match"
	"github.com/mandelsoft/regraph/pkg/rewrite"
	"github.com/mandelsoft/regraph/pkg/rule"
)

// VersionedHierarchy wraps a hierarchy under branch/commit/rollback
// control, mirroring VersionedGraph: every branch keeps its own
// materialized hierarchy state (branching deep-clones every graph, typing
// and relation the hierarchy holds), so switching branches is O(1) and a
// rewrite on one branch never touches another.
type VersionedHierarchy struct {
	log     *Log
	current string
	states  map[string]*hierarchy.Hierarchy
}

// NewVersionedHierarchy starts version control over h on a single branch.
func NewVersionedHierarchy(branch string, h *hierarchy.Hierarchy) *VersionedHierarchy {
	return &VersionedHierarchy{
		log:     NewLog(branch),
		current: branch,
		states:  map[string]*hierarchy.Hierarchy{branch: h},
	}
}

// CurrentBranch returns the active branch name.
func (v *VersionedHierarchy) CurrentBranch() string { return v.current }

// Hierarchy returns the active branch's materialized hierarchy.
func (v *VersionedHierarchy) Hierarchy() *hierarchy.Hierarchy { return v.states[v.current] }

// Log exposes the underlying revision log.
func (v *VersionedHierarchy) Log() *Log { return v.log }

// Rewrite applies r under m to graphID within the active branch's
// hierarchy and commits the result.
func (v *VersionedHierarchy) Rewrite(graphID string, r *rule.Rule, m match.Match, pTyping, rhsTyping map[string]map[graph.NodeID]graph.NodeID, strict bool, message string) (*rewrite.Derivation, error) {
	h := v.states[v.current]
	deriv, err := h.Rewrite(graphID, r, m, pTyping, rhsTyping, strict)
	if err != nil {
		return nil, newErr("rewrite", "%v", err)
	}
	head, _ := v.log.Head(v.current)
	v.log.commit(v.current, []CommitID{head}, message, Payload{
		Kind: KindRewrite, Rule: r, Match: m, RHS: deriv.RHS, Deriv: deriv, GraphID: graphID,
	})
	return deriv, nil
}

// Branch creates a new branch as a clone of the active branch's current
// hierarchy and switches to it. An empty name mints a fresh
// human-readable one.
func (v *VersionedHierarchy) Branch(name string) (string, error) {
	if name == "" {
		name = v.log.GenerateBranchName()
	}
	if v.log.HasBranch(name) {
		return "", newErr("branch", "branch %q already exists", name)
	}
	head, _ := v.log.Head(v.current)
	v.states[name] = v.states[v.current].Clone()
	v.log.commit(name, []CommitID{head}, "branch "+name, Payload{
		Kind: KindBranchCreate, SourceBranch: v.current, NewBranch: name,
	})
	v.current = name
	return name, nil
}

// SwitchBranch repositions the working head onto an existing branch.
func (v *VersionedHierarchy) SwitchBranch(name string) error {
	if !v.log.HasBranch(name) {
		return newErr("switch_branch", "branch %q does not exist", name)
	}
	v.current = name
	return nil
}

// MergeWith replays every rewrite commit made on other since its last
// common ancestor with the active branch onto the active branch's
// hierarchy — the same replay-based three-way merge VersionedGraph uses —
// then consumes the other branch.
func (v *VersionedHierarchy) MergeWith(other string) (*Commit, error) {
	if !v.log.HasBranch(other) {
		return nil, newErr("merge_with", "branch %q does not exist", other)
	}
	if other == v.current {
		return nil, newErr("merge_with", "cannot merge a branch with itself")
	}
	otherHead, _ := v.log.Head(other)
	currentHead, _ := v.log.Head(v.current)

	ancestor, err := v.commonAncestor(currentHead, otherHead)
	if err != nil {
		return nil, newErr("merge_with", "%v", err)
	}
	chain, err := v.log.ancestorChain(otherHead, ancestor)
	if err != nil {
		return nil, newErr("merge_with", "%v", err)
	}

	h := v.states[v.current]
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		if c.Payload.Kind != KindRewrite {
			continue
		}
		if _, err := h.Rewrite(c.Payload.GraphID, c.Payload.Rule, c.Payload.Match, nil, nil, false); err != nil {
			return nil, newErr("merge_with", "conflict replaying commit %q: %v", c.ID, err)
		}
	}

	id := v.log.commit(v.current, []CommitID{currentHead, otherHead}, "merge "+other, Payload{
		Kind: KindMerge, OtherHead: otherHead,
	})
	delete(v.states, other)
	delete(v.log.heads, other)
	c, _ := v.log.Get(id)
	return c, nil
}

// commonAncestor finds the nearest commit reachable from both a and b by
// following first-parent links, mirroring VersionedGraph.commonAncestor.
func (v *VersionedHierarchy) commonAncestor(a, b CommitID) (CommitID, error) {
	seen := map[CommitID]bool{}
	for cur := a; ; {
		seen[cur] = true
		c, ok := v.log.Get(cur)
		if !ok || len(c.Parents) == 0 {
			break
		}
		cur = c.Parents[0]
	}
	for cur := b; ; {
		if seen[cur] {
			return cur, nil
		}
		c, ok := v.log.Get(cur)
		if !ok || len(c.Parents) == 0 {
			break
		}
		cur = c.Parents[0]
	}
	return "", newErr("common_ancestor", "branches share no common ancestor")
}

// Rollback applies the algebraic inverse of every rewrite commit between
// commitID and the current head, in reverse order, to the graph each was
// originally applied to — on every branch whose head descends from
// commitID, not just the active one — and records a new head on each of
// them. History is retained; no commit is removed from the log.
func (v *VersionedHierarchy) Rollback(commitID CommitID) (*Commit, error) {
	if _, ok := v.log.Get(commitID); !ok {
		return nil, newErr("rollback", "commit %q does not exist", commitID)
	}

	var result *Commit
	for _, branch := range v.log.Branches() {
		head, ok := v.log.Head(branch)
		if !ok {
			continue
		}
		chain, err := v.log.ancestorChain(head, commitID)
		if err != nil {
			continue
		}

		h := v.states[branch]
		for _, c := range chain {
			if c.Payload.Kind != KindRewrite {
				continue
			}
			inv := invertRule(c.Payload.Rule)
			g := h.Graph(c.Payload.GraphID)
			if g == nil {
				return nil, newErr("rollback", "commit %q names graph %q, no longer in the hierarchy", c.ID, c.Payload.GraphID)
			}
			if _, err := rewrite.Apply(g, inv, c.Payload.RHS); err != nil {
				return nil, newErr("rollback", "branch %q: inverting commit %q: %v", branch, c.ID, err)
			}
		}

		id := v.log.commit(branch, []CommitID{head}, "rollback to "+string(commitID), Payload{
			Kind: KindRollbackTarget, RollbackTarget: commitID,
		})
		c, _ := v.log.Get(id)
		if branch == v.current || result == nil {
			result = c
		}
	}
	if result == nil {
		return nil, newErr("rollback", "commit %q is not reachable from any branch head", commitID)
	}
	return result, nil
}

// PrintHistory returns the flat chronological commit listing.
func (v *VersionedHierarchy) PrintHistory() []string { return v.log.PrintHistory() }

// ToJSON renders the same listing as JSON.
func (v *VersionedHierarchy) ToJSON() ([]byte, error) { return v.log.ToJSON() }
