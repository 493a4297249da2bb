// Package match implements subgraph-monomorphism search: enumerating every
// node-injective homomorphism of a pattern graph into a target graph that
// respects edge adjacency and attribute subsumption, optionally restricted
// by a typing.
package match

import (
	"sort"

	"github.com/mandelsoft/regraph/pkg/graph"
	"github.com/mandelsoft/regraph/pkg/reglog"
)

var log = reglog.New(reglog.RealmMatch)

// Match is a total, injective, edge- and attribute-preserving map from a
// pattern graph's nodes to a target graph's nodes.
type Match struct {
	Map map[graph.NodeID]graph.NodeID
}

// Typing restricts each pattern node to a permitted subset of target nodes,
// per a hierarchy's "find_matching with a typing" constraint.
type Typing map[graph.NodeID][]graph.NodeID

// Iterator is a lazy, pull-based sequence of matches produced by a
// backtracking search. Callers stop early simply by no longer calling
// Next; the underlying search goroutine is released the first time it
// blocks trying to deliver a match nobody is waiting for, once Close is
// called.
type Iterator struct {
	results chan Match
	stop    chan struct{}
}

// Next blocks until the next match is available, returning ok=false once
// the sequence is exhausted.
func (it *Iterator) Next() (Match, bool) {
	m, ok := <-it.results
	return m, ok
}

// Close releases the backtracking goroutine if the caller does not intend
// to drain the sequence to exhaustion.
func (it *Iterator) Close() {
	select {
	case <-it.stop:
	default:
		close(it.stop)
	}
}

// All drains the iterator into a slice; only safe when the match space is
// known to be small or bounded by the pattern/target sizes, which it always
// is here (no unbounded generator is ever constructed).
func All(it *Iterator) []Match {
	var out []Match
	for {
		m, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, m)
	}
}

// FindMatching enumerates every monomorphism pattern -> target, lazily, in
// a deterministic order (pattern nodes visited by descending degree, ties
// broken lexicographically; for each, candidate target nodes tried
// lexicographically). An optional typing
// restricts the target candidates for each pattern node.
func FindMatching(pattern, target *graph.Graph, typing Typing) (*Iterator, error) {
	for p := range typing {
		if !pattern.HasNode(p) {
			return nil, newErr("find_matching", "typing names pattern node %q, which does not exist", p)
		}
	}

	order := pattern.Nodes() // already lexicographic
	sort.SliceStable(order, func(i, j int) bool {
		return pattern.Degree(order[i]) > pattern.Degree(order[j])
	})

	it := &Iterator{
		results: make(chan Match),
		stop:    make(chan struct{}),
	}
	go func() {
		defer close(it.results)
		s := &search{pattern: pattern, target: target, typing: typing, order: order, it: it}
		s.backtrack(0, map[graph.NodeID]graph.NodeID{}, map[graph.NodeID]struct{}{})
	}()
	return it, nil
}

type search struct {
	pattern, target *graph.Graph
	typing          Typing
	order           []graph.NodeID
	it              *Iterator
}

func (s *search) backtrack(i int, assignment map[graph.NodeID]graph.NodeID, used map[graph.NodeID]struct{}) bool {
	if i == len(s.order) {
		out := make(map[graph.NodeID]graph.NodeID, len(assignment))
		for k, v := range assignment {
			out[k] = v
		}
		select {
		case s.it.results <- Match{Map: out}:
			return true
		case <-s.it.stop:
			return false
		}
	}

	p := s.order[i]
	candidates := s.candidateTargets(p)
	for _, t := range candidates {
		if _, taken := used[t]; taken {
			continue
		}
		if s.target.Degree(t) < s.pattern.Degree(p) {
			continue
		}
		ok, err := s.pattern.NodeAttrs(p).Subsumes(s.target.NodeAttrs(t))
		if err != nil || !ok {
			continue
		}
		if s.pattern.HasEdge(p, p) {
			if !s.target.HasEdge(t, t) {
				continue
			}
			ok, err := s.pattern.EdgeAttrs(p, p).Subsumes(s.target.EdgeAttrs(t, t))
			if err != nil || !ok {
				continue
			}
		}
		if !s.edgesConsistent(p, t, assignment) {
			continue
		}
		assignment[p] = t
		used[t] = struct{}{}
		cont := s.backtrack(i+1, assignment, used)
		delete(assignment, p)
		delete(used, t)
		if !cont {
			return false
		}
	}
	return true
}

func (s *search) candidateTargets(p graph.NodeID) []graph.NodeID {
	if allowed, ok := s.typing[p]; ok {
		out := append([]graph.NodeID{}, allowed...)
		sort.Strings(out)
		return out
	}
	return s.target.Nodes()
}

func (s *search) edgesConsistent(p, t graph.NodeID, assignment map[graph.NodeID]graph.NodeID) bool {
	for _, q := range s.pattern.Nodes() {
		tq, ok := assignment[q]
		if !ok {
			continue
		}
		if s.pattern.HasEdge(p, q) {
			if !s.target.HasEdge(t, tq) {
				return false
			}
			ok, err := s.pattern.EdgeAttrs(p, q).Subsumes(s.target.EdgeAttrs(t, tq))
			if err != nil || !ok {
				return false
			}
		}
		if s.pattern.HasEdge(q, p) {
			if !s.target.HasEdge(tq, t) {
				return false
			}
			ok, err := s.pattern.EdgeAttrs(q, p).Subsumes(s.target.EdgeAttrs(tq, t))
			if err != nil || !ok {
				return false
			}
		}
	}
	return true
}
