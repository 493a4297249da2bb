package attrset

import (
	"fmt"
	"sort"
	"strings"
)

// finiteSet is a canonical (de-duplicated) finite set of atoms.
type finiteSet struct {
	items map[Atom]struct{}
}

// NewFinite builds a canonical FiniteSet from atoms (string, int64 or bool).
// An empty list yields the bottom element, not a distinct "empty finite set"
// representation — canonical form collapses to emptySet on construction.
func NewFinite(atoms ...Atom) Value {
	if len(atoms) == 0 {
		return emptySet{}
	}
	items := make(map[Atom]struct{}, len(atoms))
	for _, a := range atoms {
		items[a] = struct{}{}
	}
	return finiteSet{items: items}
}

func (f finiteSet) sorted() []Atom {
	r := make([]Atom, 0, len(f.items))
	for a := range f.items {
		r = append(r, a)
	}
	sort.Slice(r, func(i, j int) bool {
		return fmt.Sprint(r[i]) < fmt.Sprint(r[j])
	})
	return r
}

func (f finiteSet) Kind() Kind { return KindFinite }

func (f finiteSet) Contains(x Atom) bool {
	_, ok := f.items[x]
	return ok
}

func (f finiteSet) IsEmpty() bool     { return len(f.items) == 0 }
func (finiteSet) IsUniversal() bool   { return false }

func (f finiteSet) String() string {
	parts := make([]string, 0, len(f.items))
	for _, a := range f.sorted() {
		parts = append(parts, fmt.Sprint(a))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Complement is undefined for Finite without an explicit ambient universe;
// this variant only defines complement when a universe is supplied
// (see ComplementIn).
func (f finiteSet) Complement() (Value, error) {
	return nil, ErrUndefinedComplement
}

// ComplementIn computes the complement of f relative to an explicit finite
// universe.
func (f finiteSet) ComplementIn(universe Value) (Value, error) {
	u, ok := universe.(finiteSet)
	if !ok {
		return nil, newErr("complement", "universe must be a FiniteSet")
	}
	var atoms []Atom
	for a := range u.items {
		if !f.Contains(a) {
			atoms = append(atoms, a)
		}
	}
	return NewFinite(atoms...), nil
}

func (f finiteSet) IsSubset(other Value) (bool, error) {
	switch o := other.(type) {
	case emptySet:
		return f.IsEmpty(), nil
	case universalSet:
		return true, nil
	case finiteSet:
		for a := range f.items {
			if !o.Contains(a) {
				return false, nil
			}
		}
		return true, nil
	case intervalSet:
		ints, ok := f.asIntegers()
		if !ok {
			return false, nil
		}
		for _, v := range ints {
			if !o.containsInt(v) {
				return false, nil
			}
		}
		return true, nil
	case regexSet:
		for a := range f.items {
			s, ok := asString(a)
			if !ok || !o.re.MatchString(s) {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, newErr("is_subset", "unsupported variant %T", other)
	}
}

func (f finiteSet) Union(other Value) (Value, error) {
	switch o := other.(type) {
	case emptySet:
		return f, nil
	case universalSet:
		return universalSet{}, nil
	case finiteSet:
		atoms := f.sorted()
		atoms = append(atoms, o.sorted()...)
		return NewFinite(atoms...), nil
	case intervalSet:
		return liftFiniteUnionInterval(f, o)
	case regexSet:
		return liftFiniteUnionRegex(f, o)
	default:
		return nil, newErr("union", "unsupported variant %T", other)
	}
}

func (f finiteSet) Intersection(other Value) (Value, error) {
	switch o := other.(type) {
	case emptySet:
		return emptySet{}, nil
	case universalSet:
		return f, nil
	case finiteSet:
		var atoms []Atom
		for a := range f.items {
			if o.Contains(a) {
				atoms = append(atoms, a)
			}
		}
		return NewFinite(atoms...), nil
	case intervalSet:
		var atoms []Atom
		for a := range f.items {
			if v, ok := asInt(a); ok && o.containsInt(v) {
				atoms = append(atoms, a)
			}
		}
		return NewFinite(atoms...), nil
	case regexSet:
		var atoms []Atom
		for a := range f.items {
			if s, ok := asString(a); ok && o.re.MatchString(s) {
				atoms = append(atoms, a)
			}
		}
		return NewFinite(atoms...), nil
	default:
		return nil, newErr("intersection", "unsupported variant %T", other)
	}
}

func (f finiteSet) Difference(other Value) (Value, error) {
	switch o := other.(type) {
	case emptySet:
		return f, nil
	case universalSet:
		return emptySet{}, nil
	case finiteSet:
		var atoms []Atom
		for a := range f.items {
			if !o.Contains(a) {
				atoms = append(atoms, a)
			}
		}
		return NewFinite(atoms...), nil
	case intervalSet:
		var atoms []Atom
		for a := range f.items {
			if v, ok := asInt(a); !ok || !o.containsInt(v) {
				atoms = append(atoms, a)
			}
		}
		return NewFinite(atoms...), nil
	case regexSet:
		var atoms []Atom
		for a := range f.items {
			if s, ok := asString(a); !ok || !o.re.MatchString(s) {
				atoms = append(atoms, a)
			}
		}
		return NewFinite(atoms...), nil
	default:
		return nil, newErr("difference", "unsupported variant %T", other)
	}
}

func (f finiteSet) Equals(other Value) (bool, error) {
	o, ok := other.(finiteSet)
	if !ok {
		return false, nil
	}
	if len(f.items) != len(o.items) {
		return false, nil
	}
	for a := range f.items {
		if !o.Contains(a) {
			return false, nil
		}
	}
	return true, nil
}

func (f finiteSet) asIntegers() ([]int64, bool) {
	var out []int64
	for a := range f.items {
		v, ok := asInt(a)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func asInt(a Atom) (int64, bool) {
	switch v := a.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

func asString(a Atom) (string, bool) {
	s, ok := a.(string)
	return s, ok
}
