package attrset

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// NegInf and PosInf are the sentinel bounds representing -∞/+∞ over ℤ.
// Representing the unbounded ends of ℤ∪{±∞} within int64 is a pragmatic
// bound shared by every caller of this package; values outside
// [NegInf+1, PosInf-1] are not addressable as finite endpoints.
const (
	NegInf = math.MinInt64
	PosInf = math.MaxInt64
)

// Interval is a closed interval [Lo, Hi] over ℤ∪{±∞}.
type Interval struct {
	Lo, Hi int64
}

type intervalSet struct {
	intervals []Interval // sorted, disjoint, canonical (merged/adjacent collapsed)
}

// NewIntegerInterval builds a canonical IntegerInterval from possibly
// overlapping/unsorted intervals.
func NewIntegerInterval(intervals ...Interval) Value {
	ivs := normalizeIntervals(intervals)
	if len(ivs) == 0 {
		return emptySet{}
	}
	if len(ivs) == 1 && ivs[0].Lo == NegInf && ivs[0].Hi == PosInf {
		return universalSet{}
	}
	return intervalSet{intervals: ivs}
}

func normalizeIntervals(in []Interval) []Interval {
	var clean []Interval
	for _, iv := range in {
		if iv.Lo > iv.Hi {
			continue
		}
		clean = append(clean, iv)
	}
	if len(clean) == 0 {
		return nil
	}
	sort.Slice(clean, func(i, j int) bool { return clean[i].Lo < clean[j].Lo })
	out := []Interval{clean[0]}
	for _, iv := range clean[1:] {
		last := &out[len(out)-1]
		if iv.Lo <= addOne(last.Hi) {
			if iv.Hi > last.Hi {
				last.Hi = iv.Hi
			}
		} else {
			out = append(out, iv)
		}
	}
	return out
}

func addOne(v int64) int64 {
	if v == PosInf {
		return PosInf
	}
	return v + 1
}

func subOne(v int64) int64 {
	if v == NegInf {
		return NegInf
	}
	return v - 1
}

func (s intervalSet) Kind() Kind { return KindInterval }

func (s intervalSet) containsInt(x int64) bool {
	for _, iv := range s.intervals {
		if iv.Lo <= x && x <= iv.Hi {
			return true
		}
	}
	return false
}

func (s intervalSet) Contains(x Atom) bool {
	v, ok := asInt(x)
	return ok && s.containsInt(v)
}

func (s intervalSet) IsEmpty() bool   { return len(s.intervals) == 0 }
func (intervalSet) IsUniversal() bool { return false }

func (s intervalSet) String() string {
	parts := make([]string, 0, len(s.intervals))
	for _, iv := range s.intervals {
		lo := fmt.Sprint(iv.Lo)
		if iv.Lo == NegInf {
			lo = "-inf"
		}
		hi := fmt.Sprint(iv.Hi)
		if iv.Hi == PosInf {
			hi = "inf"
		}
		parts = append(parts, fmt.Sprintf("[%s,%s]", lo, hi))
	}
	return strings.Join(parts, " ∪ ")
}

func (s intervalSet) Complement() (Value, error) {
	var out []Interval
	cursor := int64(NegInf)
	for _, iv := range s.intervals {
		if cursor < iv.Lo {
			out = append(out, Interval{Lo: cursor, Hi: subOne(iv.Lo)})
		}
		if iv.Hi == PosInf {
			return NewIntegerInterval(out...), nil
		}
		cursor = iv.Hi + 1
	}
	out = append(out, Interval{Lo: cursor, Hi: PosInf})
	return NewIntegerInterval(out...), nil
}

func (s intervalSet) IsSubset(other Value) (bool, error) {
	switch o := other.(type) {
	case emptySet:
		return s.IsEmpty(), nil
	case universalSet:
		return true, nil
	case intervalSet:
		for _, a := range s.intervals {
			if !coveredBy(a, o.intervals) {
				return false, nil
			}
		}
		return true, nil
	case finiteSet:
		// An interval (possibly infinite) can only be a subset of a finite
		// set if it reduces to the same finite cardinality; in practice this
		// only holds for the empty interval, handled above.
		return false, nil
	case regexSet:
		// Lift to a regex view (stringified digits) and defer to regex
		// containment; only sound for bounded intervals.
		lifted, err := s.asRegex()
		if err != nil {
			return false, nil
		}
		return lifted.IsSubset(o)
	default:
		return false, newErr("is_subset", "unsupported variant %T", other)
	}
}

func coveredBy(a Interval, ivs []Interval) bool {
	for _, b := range ivs {
		if b.Lo <= a.Lo && a.Hi <= b.Hi {
			return true
		}
	}
	return false
}

func (s intervalSet) Union(other Value) (Value, error) {
	switch o := other.(type) {
	case emptySet:
		return s, nil
	case universalSet:
		return universalSet{}, nil
	case intervalSet:
		ivs := append(append([]Interval{}, s.intervals...), o.intervals...)
		return NewIntegerInterval(ivs...), nil
	case finiteSet:
		return liftFiniteUnionInterval(o, s)
	case regexSet:
		lifted, err := s.asRegex()
		if err != nil {
			return nil, err
		}
		return lifted.Union(o)
	default:
		return nil, newErr("union", "unsupported variant %T", other)
	}
}

func (s intervalSet) Intersection(other Value) (Value, error) {
	switch o := other.(type) {
	case emptySet:
		return emptySet{}, nil
	case universalSet:
		return s, nil
	case intervalSet:
		var out []Interval
		for _, a := range s.intervals {
			for _, b := range o.intervals {
				lo := a.Lo
				if b.Lo > lo {
					lo = b.Lo
				}
				hi := a.Hi
				if b.Hi < hi {
					hi = b.Hi
				}
				if lo <= hi {
					out = append(out, Interval{Lo: lo, Hi: hi})
				}
			}
		}
		return NewIntegerInterval(out...), nil
	case finiteSet:
		return o.Intersection(s)
	case regexSet:
		lifted, err := s.asRegex()
		if err != nil {
			return nil, err
		}
		return lifted.Intersection(o)
	default:
		return nil, newErr("intersection", "unsupported variant %T", other)
	}
}

func (s intervalSet) Difference(other Value) (Value, error) {
	switch o := other.(type) {
	case emptySet:
		return s, nil
	case universalSet:
		return emptySet{}, nil
	case intervalSet:
		comp, err := o.Complement()
		if err != nil {
			return nil, err
		}
		return s.Intersection(comp)
	case finiteSet:
		var out []Interval
		for _, iv := range s.intervals {
			out = append(out, subtractFiniteFromInterval(iv, o)...)
		}
		return NewIntegerInterval(out...), nil
	case regexSet:
		lifted, err := s.asRegex()
		if err != nil {
			return nil, err
		}
		return lifted.Difference(o)
	default:
		return nil, newErr("difference", "unsupported variant %T", other)
	}
}

func subtractFiniteFromInterval(iv Interval, f finiteSet) []Interval {
	points, ok := f.asIntegers()
	if !ok {
		return []Interval{iv}
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
	out := []Interval{iv}
	for _, p := range points {
		var next []Interval
		for _, cur := range out {
			if p < cur.Lo || p > cur.Hi {
				next = append(next, cur)
				continue
			}
			if cur.Lo <= subOne(p) {
				next = append(next, Interval{Lo: cur.Lo, Hi: subOne(p)})
			}
			if addOne(p) <= cur.Hi {
				next = append(next, Interval{Lo: addOne(p), Hi: cur.Hi})
			}
		}
		out = next
	}
	return out
}

func (s intervalSet) Equals(other Value) (bool, error) {
	o, ok := other.(intervalSet)
	if !ok {
		return false, nil
	}
	if len(s.intervals) != len(o.intervals) {
		return false, nil
	}
	for i := range s.intervals {
		if s.intervals[i] != o.intervals[i] {
			return false, nil
		}
	}
	return true, nil
}

// asRegex stringifies a bounded interval set into a literal-alternation
// regex, used only to support heterogeneous ops against RegexSet. Unbounded
// intervals cannot be represented this way.
func (s intervalSet) asRegex() (regexSet, error) {
	var lits []string
	for _, iv := range s.intervals {
		if iv.Lo == NegInf || iv.Hi == PosInf {
			return regexSet{}, newErr("lift", "cannot stringify unbounded interval to a regex")
		}
		for v := iv.Lo; v <= iv.Hi; v++ {
			lits = append(lits, fmt.Sprint(v))
			if len(lits) > 10000 {
				return regexSet{}, newErr("lift", "interval too large to stringify")
			}
		}
	}
	return newLiteralRegex(lits)
}

func liftFiniteUnionInterval(f finiteSet, s intervalSet) (Value, error) {
	ints, ok := f.asIntegers()
	if ok {
		ivs := append([]Interval{}, s.intervals...)
		for _, v := range ints {
			ivs = append(ivs, Interval{Lo: v, Hi: v})
		}
		return NewIntegerInterval(ivs...), nil
	}
	// Finite(strings) ∪ IntegerInterval: lift to Regex if the interval is
	// bounded (stringable); otherwise the union cannot be expressed exactly.
	ir, err := s.asRegex()
	if err != nil {
		return nil, newErr("union", "Finite(strings) ∪ unbounded IntegerInterval has no faithful representation: %v", err)
	}
	return ir.Union(f)
}
