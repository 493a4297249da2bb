package audit

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/goombaio/namegenerator"
	"github.com/mandelsoft/regraph/pkg/reglog"
	"github.com/mandelsoft/regraph/pkg/utils"
)

var log = reglog.New(reglog.RealmAudit)

// Log is the append-only revision DAG: every commit ever made, the current
// head of every branch, and nothing else — history is never destroyed by
// any operation.
type Log struct {
	commits map[CommitID]*Commit
	order   []CommitID
	heads   map[string]CommitID
	names   namegenerator.Generator
}

// NewLog creates a revision log with a single root commit on initialBranch.
func NewLog(initialBranch string) *Log {
	l := &Log{
		commits: map[CommitID]*Commit{},
		heads:   map[string]CommitID{},
		names:   namegenerator.NewNameGenerator(1),
	}
	root := l.append(initialBranch, nil, "initial revision", Payload{Kind: KindBranchCreate, NewBranch: initialBranch})
	l.heads[initialBranch] = root
	return l
}

func (l *Log) append(branch string, parents []CommitID, message string, payload Payload) CommitID {
	id := CommitID(uuid.New().String())
	c := &Commit{
		ID:        id,
		Branch:    branch,
		Parents:   parents,
		Timestamp: utils.NewTimestamp(),
		Message:   message,
		Payload:   payload,
	}
	l.commits[id] = c
	l.order = append(l.order, id)
	return id
}

// Head returns the current head commit of branch.
func (l *Log) Head(branch string) (CommitID, bool) {
	id, ok := l.heads[branch]
	return id, ok
}

// Get returns the commit named by id.
func (l *Log) Get(id CommitID) (*Commit, bool) {
	c, ok := l.commits[id]
	return c, ok
}

// HasBranch reports whether branch has a recorded head.
func (l *Log) HasBranch(branch string) bool {
	_, ok := l.heads[branch]
	return ok
}

// Branches lists every branch with a live head, lexicographically.
func (l *Log) Branches() []string {
	out := make([]string, 0, len(l.heads))
	for b := range l.heads {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// GenerateBranchName mints a human-readable, unused branch name.
func (l *Log) GenerateBranchName() string {
	for {
		name := l.names.Generate()
		if !l.HasBranch(name) {
			return name
		}
	}
}

// commit appends a new commit as a child of branch's current head (or of
// an explicit parent set, for merges) and advances the branch's head.
func (l *Log) commit(branch string, parents []CommitID, message string, payload Payload) CommitID {
	id := l.append(branch, parents, message, payload)
	l.heads[branch] = id
	log.Debug("committed", "branch", branch, "id", id, "kind", payload.Kind)
	return id
}

// ancestorChain walks single-parent links (the first parent, for merge
// commits) from start back to target, returning the commits from start
// (included) up to target (excluded) in newest-first order. It fails if
// target is not found on that chain.
func (l *Log) ancestorChain(start, target CommitID) ([]*Commit, error) {
	var chain []*Commit
	cur := start
	for cur != target {
		c, ok := l.commits[cur]
		if !ok {
			return nil, newErr("rollback", "commit %q does not exist", cur)
		}
		chain = append(chain, c)
		if len(c.Parents) == 0 {
			return nil, newErr("rollback", "commit %q is not reachable from %q", target, start)
		}
		cur = c.Parents[0]
	}
	return chain, nil
}

// historyEntry is the flat (timestamp, id, branch, message) tuple exposed
// by PrintHistory and ToJSON.
type historyEntry struct {
	Timestamp utils.Timestamp `json:"timestamp"`
	ID        CommitID        `json:"id"`
	Branch    string          `json:"branch"`
	Message   string          `json:"message"`
}

func (l *Log) history() []historyEntry {
	out := make([]historyEntry, 0, len(l.order))
	for _, id := range l.order {
		c := l.commits[id]
		out = append(out, historyEntry{Timestamp: c.Timestamp, ID: c.ID, Branch: c.Branch, Message: c.Message})
	}
	return out
}

// PrintHistory returns the flat chronological listing of every commit ever
// made, across every branch, oldest first.
func (l *Log) PrintHistory() []string {
	entries := l.history()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s  %s  [%s]  %s", e.Timestamp.String(), e.ID, e.Branch, e.Message))
	}
	return out
}

// ToJSON renders the same chronological listing as JSON.
func (l *Log) ToJSON() ([]byte, error) {
	return json.Marshal(l.history())
}
