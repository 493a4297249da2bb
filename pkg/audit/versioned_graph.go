package audit

import (
	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/match"
	"github.com/mandelsoft/regraph/pkg/rewrite"
	"github.com/mandelsoft/regraph/pkg/rule"
)

// VersionedGraph wraps a graph under branch/commit/rollback control. Every
// branch keeps its own materialized graph state (branching clones the
// current state rather than recomputing it by replay), so switching
// branches is O(1).
type VersionedGraph struct {
	log     *Log
	current string
	states  map[string]*graph.Graph
}

// NewVersionedGraph starts version control over g on a single branch.
func NewVersionedGraph(branch string, g *graph.Graph) *VersionedGraph {
	return &VersionedGraph{
		log:     NewLog(branch),
		current: branch,
		states:  map[string]*graph.Graph{branch: g},
	}
}

// CurrentBranch returns the active branch name.
func (v *VersionedGraph) CurrentBranch() string { return v.current }

// Graph returns the materialized state of the active branch.
func (v *VersionedGraph) Graph() *graph.Graph { return v.states[v.current] }

// Log exposes the underlying revision log, e.g. for PrintHistory/ToJSON.
func (v *VersionedGraph) Log() *Log { return v.log }

// Rewrite applies r under m to the active branch's graph and commits the
// result, recording enough to invert the rewrite later.
func (v *VersionedGraph) Rewrite(r *rule.Rule, m match.Match, message string) (*rewrite.Derivation, error) {
	g := v.states[v.current]
	deriv, err := rewrite.Apply(g, r, m)
	if err != nil {
		return nil, newErr("rewrite", "%v", err)
	}
	head, _ := v.log.Head(v.current)
	v.log.commit(v.current, []CommitID{head}, message, Payload{
		Kind: KindRewrite, Rule: r, Match: m, RHS: deriv.RHS, Deriv: deriv,
	})
	return deriv, nil
}

// Branch creates a new branch as a clone of the active branch's current
// state and switches to it. An empty name mints a fresh human-readable one.
func (v *VersionedGraph) Branch(name string) (string, error) {
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
func (v *VersionedGraph) SwitchBranch(name string) error {
	if !v.log.HasBranch(name) {
		return newErr("switch_branch", "branch %q does not exist", name)
	}
	v.current = name
	return nil
}

// MergeWith replays every rewrite commit made on other since its last
// common ancestor with the active branch onto the active branch's graph —
// the graph analogue of a three-way merge as a sequence of pushouts — then
// consumes the other branch.
func (v *VersionedGraph) MergeWith(other string) (*Commit, error) {
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

	g := v.states[v.current]
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		if c.Payload.Kind != KindRewrite {
			continue
		}
		if _, err := rewrite.Apply(g, c.Payload.Rule, c.Payload.Match); err != nil {
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
// following first-parent links, the branch points share before diverging.
func (v *VersionedGraph) commonAncestor(a, b CommitID) (CommitID, error) {
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
// commitID and the current head, in reverse order, on every branch whose
// head descends from commitID — not just the active branch — and records a
// new head on each of them. History is retained; no commit is removed from
// the log.
func (v *VersionedGraph) Rollback(commitID CommitID) (*Commit, error) {
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

		g := v.states[branch]
		for _, c := range chain {
			if c.Payload.Kind != KindRewrite {
				continue
			}
			inv := invertRule(c.Payload.Rule)
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
func (v *VersionedGraph) PrintHistory() []string { return v.log.PrintHistory() }

// ToJSON renders the same listing as JSON.
func (v *VersionedGraph) ToJSON() ([]byte, error) { return v.log.ToJSON() }
