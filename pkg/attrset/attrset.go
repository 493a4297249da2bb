// Package attrset implements the closed family of attribute value variants
// as a bounded lattice ⟨Value, ⊆, ∪, ∩, ∖, ∅, 𝒰⟩. The variant family is
// realized as a tagged sum type (one struct per variant) with a type-switch
// double-dispatch table for binary operations, generalizing the
// dynamic-dispatch-via-type-registry idiom used for typed object schemes
// elsewhere in this module (see pkg/runtime) from a name-keyed registry to
// an in-process variant switch.
package attrset

import (
	"fmt"

	"github.com/mandelsoft/regraph/pkg/reglog"
)

var log = reglog.New(reglog.RealmAttrSet)

// Atom is a comparable value drawn from string, int64 or bool domains.
type Atom = any

// Kind identifies a variant of the attribute-value lattice.
type Kind string

const (
	KindEmpty     Kind = "EmptySet"
	KindUniversal Kind = "UniversalSet"
	KindFinite    Kind = "FiniteSet"
	KindInterval  Kind = "IntegerSet"
	KindRegex     Kind = "RegexSet"
)

// Value is an attribute value: a possibly infinite set of atoms drawn from
// a closed variant family (EmptySet, UniversalSet, FiniteSet, IntegerSet,
// RegexSet).
type Value interface {
	Kind() Kind
	Contains(x Atom) bool
	IsEmpty() bool
	IsUniversal() bool
	IsSubset(other Value) (bool, error)
	Union(other Value) (Value, error)
	Intersection(other Value) (Value, error)
	Difference(other Value) (Value, error)
	Complement() (Value, error)
	Equals(other Value) (bool, error)
	String() string
}

// AttributeSetError is the error kind for attribute-set operations (type clashes, malformed
// regex, undefined complement).
type AttributeSetError struct {
	Op      string
	Message string
}

func (e *AttributeSetError) Error() string {
	return fmt.Sprintf("attrset: %s: %s", e.Op, e.Message)
}

func newErr(op, format string, args ...any) error {
	return &AttributeSetError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// ErrUndefinedComplement is returned when complement is not defined for a
// variant (Finite without an explicit universe).
var ErrUndefinedComplement = newErr("complement", "undefined for this variant without a universe")

// Empty returns the bottom element ∅.
func Empty() Value { return emptySet{} }

// Universal returns the top element 𝒰.
func Universal() Value { return universalSet{} }

func equalAtom(a, b Atom) bool {
	return a == b
}
