package audit

import (
	"github.com/mandelsoft/regraph/pkg/match"
	"github.com/mandelsoft/regraph/pkg/rewrite"
	"github.com/mandelsoft/regraph/pkg/rule"
	"github.com/mandelsoft/regraph/pkg/utils"
)

// CommitID identifies a node in the revision DAG.
type CommitID string

// PayloadKind discriminates the four commit payload shapes the revision
// DAG carries.
type PayloadKind string

const (
	KindRewrite        PayloadKind = "rewrite"
	KindBranchCreate   PayloadKind = "branch-create"
	KindMerge          PayloadKind = "merge"
	KindRollbackTarget PayloadKind = "rollback-target"
)

// Payload is the union of data a commit may carry, tagged by Kind.
type Payload struct {
	Kind PayloadKind

	// KindRewrite: the rule and match applied, the derived RHS-instance
	// (which doubles as the invert key), and the full per-element
	// derivation (for hierarchy-level commits, the deltas across every
	// affected graph would be recorded the same way, graph by graph).
	Rule  *rule.Rule
	Match match.Match
	RHS   match.Match
	Deriv *rewrite.Derivation
	// GraphID names the hierarchy graph a rewrite was applied to; empty
	// for a plain VersionedGraph commit, which has only one graph.
	GraphID string

	// KindBranchCreate.
	SourceBranch string
	NewBranch    string

	// KindMerge: the other branch's head merged into the current branch.
	OtherHead CommitID

	// KindRollbackTarget: the commit rolled back to.
	RollbackTarget CommitID
}

// Commit is one node in the append-only revision DAG.
type Commit struct {
	ID        CommitID
	Branch    string
	Parents   []CommitID
	Timestamp utils.Timestamp
	Message   string
	Payload   Payload
}

// invertRule returns the algebraic inverse R ← P → L of r, used to replay a
// rewrite backward during rollback.
func invertRule(r *rule.Rule) *rule.Rule {
	return &rule.Rule{L: r.R, P: r.P, R: r.L, PtoL: r.PtoR, PtoR: r.PtoL}
}
