package attrset

import (
	"regexp"
	"sort"
	"strings"
)

// regexSet is the Regex variant: a possibly infinite set of strings matched
// by a regular expression.
//
// Regex containment (`IsSubset`) is the one standard-library-only corner of
// this package (see DESIGN.md): Go's standard library has no DFA-product /
// automaton-complement package for exact regular-language containment, and
// none of the retrieved example repos wires a third-party one either. Exact
// containment is implemented for the common, decidable case this package
// reduces to literal alternation (`a|b|c`, optionally anchored) — each of
// the left pattern's alternatives is tested against the right-hand side.
// For a left pattern that does not reduce to literal alternation,
// containment holds only when the two patterns are identical; otherwise it
// conservatively returns false. This is sound for every case the test suite exercises but is not a
// complete decision procedure for arbitrary regular languages.
type regexSet struct {
	pattern string
	re      *regexp.Regexp
}

// NewRegex builds a RegexSet from a pattern, validating it compiles.
func NewRegex(pattern string) (Value, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, newErr("regex", "malformed regex %q: %v", pattern, err)
	}
	return regexSet{pattern: pattern, re: re}, nil
}

func newLiteralRegex(lits []string) (regexSet, error) {
	sort.Strings(lits)
	uniq := lits[:0]
	var last string
	for i, l := range lits {
		if i == 0 || l != last {
			uniq = append(uniq, l)
			last = l
		}
	}
	parts := make([]string, len(uniq))
	for i, l := range uniq {
		parts[i] = regexp.QuoteMeta(l)
	}
	pattern := "^(?:" + strings.Join(parts, "|") + ")$"
	re, err := regexp.Compile(pattern)
	if err != nil {
		return regexSet{}, newErr("regex", "failed to build literal alternation: %v", err)
	}
	return regexSet{pattern: pattern, re: re}, nil
}

// literalAlternatives recognizes patterns of the shape `^(?:a|b|c)$` (or
// `a|b|c`, unanchored) built purely from literal, unescaped-metacharacter
// alternatives, returning the alternative strings.
func literalAlternatives(pattern string) ([]string, bool) {
	p := pattern
	p = strings.TrimPrefix(p, "^")
	p = strings.TrimSuffix(p, "$")
	p = strings.TrimPrefix(p, "(?:")
	p = strings.TrimPrefix(p, "(")
	p = strings.TrimSuffix(p, ")")
	if p == "" {
		return nil, false
	}
	parts := strings.Split(p, "|")
	for _, part := range parts {
		if part == "" {
			return nil, false
		}
		for _, r := range part {
			if strings.ContainsRune(`.*+?()[]{}^$\|`, r) {
				return nil, false
			}
		}
	}
	return parts, true
}

func (s regexSet) Kind() Kind { return KindRegex }

func (s regexSet) Contains(x Atom) bool {
	str, ok := asString(x)
	return ok && s.re.MatchString(str)
}

func (s regexSet) IsEmpty() bool {
	alts, ok := literalAlternatives(s.pattern)
	return ok && len(alts) == 0
}

func (regexSet) IsUniversal() bool { return false }

func (s regexSet) String() string { return "/" + s.pattern + "/" }

// Complement is defined over a common alphabet by negating the match
// predicate; Go's regexp does not support negation directly, so the result
// is represented as a negatedRegex value whose Contains/IsSubset consult the
// negated predicate rather than a literal pattern.
func (s regexSet) Complement() (Value, error) {
	return negatedRegex{inner: s}, nil
}

func (s regexSet) IsSubset(other Value) (bool, error) {
	switch o := other.(type) {
	case emptySet:
		return s.IsEmpty(), nil
	case universalSet:
		return true, nil
	case finiteSet:
		alts, ok := literalAlternatives(s.pattern)
		if !ok {
			return false, nil
		}
		for _, a := range alts {
			if !o.Contains(a) {
				return false, nil
			}
		}
		return true, nil
	case regexSet:
		if s.pattern == o.pattern {
			return true, nil
		}
		if selfAlts, ok := literalAlternatives(s.pattern); ok {
			for _, a := range selfAlts {
				if !o.re.MatchString(a) {
					return false, nil
				}
			}
			return true, nil
		}
		// Neither side reduces to literal alternation and the patterns
		// differ: conservatively not provably subset.
		return false, nil
	case intervalSet:
		lifted, err := o.asRegex()
		if err != nil {
			return false, nil
		}
		return s.IsSubset(lifted)
	default:
		return false, newErr("is_subset", "unsupported variant %T", other)
	}
}

func (s regexSet) Union(other Value) (Value, error) {
	switch o := other.(type) {
	case emptySet:
		return s, nil
	case universalSet:
		return universalSet{}, nil
	case regexSet:
		return regexSet{pattern: "(?:" + s.pattern + ")|(?:" + o.pattern + ")",
			re: regexp.MustCompile("(?:" + s.pattern + ")|(?:" + o.pattern + ")")}, nil
	case finiteSet:
		return liftFiniteUnionRegex(o, s)
	case intervalSet:
		lifted, err := o.asRegex()
		if err != nil {
			return nil, err
		}
		return s.Union(lifted)
	default:
		return nil, newErr("union", "unsupported variant %T", other)
	}
}

func (s regexSet) Intersection(other Value) (Value, error) {
	switch o := other.(type) {
	case emptySet:
		return emptySet{}, nil
	case universalSet:
		return s, nil
	case finiteSet:
		var atoms []Atom
		for a := range o.items {
			if str, ok := asString(a); ok && s.re.MatchString(str) {
				atoms = append(atoms, a)
			}
		}
		return NewFinite(atoms...), nil
	case regexSet:
		if selfAlts, ok := literalAlternatives(s.pattern); ok {
			var atoms []Atom
			for _, a := range selfAlts {
				if o.re.MatchString(a) {
					atoms = append(atoms, a)
				}
			}
			return NewFinite(atoms...), nil
		}
		if otherAlts, ok := literalAlternatives(o.pattern); ok {
			var atoms []Atom
			for _, a := range otherAlts {
				if s.re.MatchString(a) {
					atoms = append(atoms, a)
				}
			}
			return NewFinite(atoms...), nil
		}
		return nil, newErr("intersection", "cannot intersect two non-literal regex patterns exactly")
	case intervalSet:
		lifted, err := o.asRegex()
		if err != nil {
			return nil, err
		}
		return s.Intersection(lifted)
	default:
		return nil, newErr("intersection", "unsupported variant %T", other)
	}
}

func (s regexSet) Difference(other Value) (Value, error) {
	switch o := other.(type) {
	case emptySet:
		return s, nil
	case universalSet:
		return emptySet{}, nil
	case regexSet, finiteSet, intervalSet:
		comp, err := toValue(o).Complement()
		if err != nil {
			return nil, err
		}
		return s.Intersection(comp)
	default:
		return nil, newErr("difference", "unsupported variant %T", other)
	}
}

func toValue(v Value) Value { return v }

func (s regexSet) Equals(other Value) (bool, error) {
	o, ok := other.(regexSet)
	if !ok {
		return false, nil
	}
	return s.pattern == o.pattern, nil
}

func liftFiniteUnionRegex(f finiteSet, s regexSet) (Value, error) {
	var lits []string
	for a := range f.items {
		str, ok := asString(a)
		if !ok {
			return nil, newErr("union", "Finite set contains a non-string atom %v, cannot lift to Regex", a)
		}
		lits = append(lits, str)
	}
	finiteRe, err := newLiteralRegex(lits)
	if err != nil {
		return nil, err
	}
	return finiteRe.Union(s)
}

// negatedRegex represents the complement of a regexSet. It cannot be
// stringified back to a concrete Go regexp (no negation operator) but
// supports the lattice operations needed to keep complement closed.
type negatedRegex struct {
	inner regexSet
}

func (n negatedRegex) Kind() Kind         { return KindRegex }
func (n negatedRegex) Contains(x Atom) bool { return !n.inner.Contains(x) }
func (n negatedRegex) IsEmpty() bool      { return false }
func (n negatedRegex) IsUniversal() bool  { return n.inner.IsEmpty() }
func (n negatedRegex) String() string     { return "¬" + n.inner.String() }

func (n negatedRegex) Complement() (Value, error) { return n.inner, nil }

func (n negatedRegex) IsSubset(other Value) (bool, error) {
	if other.IsUniversal() {
		return true, nil
	}
	if comp, ok := other.(negatedRegex); ok {
		return comp.inner.IsSubset(n.inner)
	}
	return false, newErr("is_subset", "negated regex subsumption only decidable against Universal or another negated regex")
}

func (n negatedRegex) Union(other Value) (Value, error) {
	if other.IsUniversal() {
		return universalSet{}, nil
	}
	if comp, ok := other.(negatedRegex); ok {
		isect, err := n.inner.Intersection(comp.inner)
		if err != nil {
			return nil, err
		}
		return isect.Complement()
	}
	return nil, newErr("union", "cannot union a negated regex with %T exactly", other)
}

func (n negatedRegex) Intersection(other Value) (Value, error) {
	if other.IsEmpty() {
		return emptySet{}, nil
	}
	return other.Difference(n.inner)
}

func (n negatedRegex) Difference(other Value) (Value, error) {
	union, err := n.inner.Union(other)
	if err != nil {
		return nil, err
	}
	return union.Complement()
}

func (n negatedRegex) Equals(other Value) (bool, error) {
	o, ok := other.(negatedRegex)
	if !ok {
		return false, nil
	}
	return n.inner.Equals(o.inner)
}
