package attrset

import "github.com/mandelsoft/regraph/pkg/utils"

// Map is an attribute map: attribute name → attribute value. Empty
// values are allowed and are semantically equivalent to absence for
// subsumption purposes, but the map still distinguishes them; Erase removes
// the key entirely.
type Map map[string]Value

// NewMap builds an attribute map, cloning the given values.
func NewMap(values map[string]Value) Map {
	m := make(Map, len(values))
	for k, v := range values {
		m[k] = v
	}
	return m
}

// Clone returns a shallow copy (attribute Values are immutable once built).
func (m Map) Clone() Map {
	c := make(Map, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Keys returns the sorted attribute names, for deterministic iteration.
func (m Map) Keys() []string {
	return utils.OrderedMapKeys(m)
}

// Get returns the value for k, or Empty() if absent.
func (m Map) Get(k string) Value {
	if v, ok := m[k]; ok {
		return v
	}
	return emptySet{}
}

// UnionAttrs merges other into m per key (add_node_attrs / add_edge_attrs):
// the per-key union of the existing and incoming value.
func (m Map) UnionAttrs(other Map) (Map, error) {
	out := m.Clone()
	for _, k := range other.Keys() {
		v, err := out.Get(k).Union(other[k])
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// RemoveAttrs computes the per-key difference (remove_node_attrs /
// remove_edge_attrs). A key whose resulting value is empty is erased.
func (m Map) RemoveAttrs(other Map) (Map, error) {
	out := m.Clone()
	for _, k := range other.Keys() {
		cur, ok := out[k]
		if !ok {
			continue
		}
		v, err := cur.Difference(other[k])
		if err != nil {
			return nil, err
		}
		if v.IsEmpty() {
			delete(out, k)
		} else {
			out[k] = v
		}
	}
	return out, nil
}

// IntersectAttrs computes the per-key intersection of m with other,
// narrowing m down to stay consistent with a shrunk typing target — the
// operation backward propagation uses to pull an ancestor instance's
// attribute back into subsumption range after a rewrite strips an
// attribute from the graph it is typed by. A key absent from other
// intersects against Empty and is erased.
func (m Map) IntersectAttrs(other Map) (Map, error) {
	out := m.Clone()
	for _, k := range m.Keys() {
		v, err := out.Get(k).Intersection(other.Get(k))
		if err != nil {
			return nil, err
		}
		if v.IsEmpty() {
			delete(out, k)
		} else {
			out[k] = v
		}
	}
	return out, nil
}

// Erase drops keys whose value is Empty, matching the convention that an
// erased attribute removes the key entirely.
func (m Map) Erase() Map {
	out := make(Map, len(m))
	for k, v := range m {
		if !v.IsEmpty() {
			out[k] = v
		}
	}
	return out
}

// Subsumes reports whether every attribute of m is a subset of the
// corresponding attribute of other (homomorphism attribute preservation).
// Keys present in m but not in other are treated as Empty on other's side,
// since an absent attribute is equivalent to an empty one.
func (m Map) Subsumes(other Map) (bool, error) {
	for _, k := range m.Keys() {
		v := m[k]
		if v.IsEmpty() {
			continue
		}
		ok, err := v.IsSubset(other.Get(k))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Equals reports structural lattice equality, key by key.
func (m Map) Equals(other Map) (bool, error) {
	seen := map[string]bool{}
	for _, k := range m.Keys() {
		seen[k] = true
		ok, err := m[k].Equals(other.Get(k))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	for _, k := range other.Keys() {
		if seen[k] {
			continue
		}
		ok, err := other[k].Equals(m.Get(k))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
