package utils

import (
	"cmp"
	"reflect"
	"slices"
)

// TypeOf returns the reflect.Type of T, used to name a generic type in an
// error message or a registry lookup key without an instance in hand.
func TypeOf[T any]() reflect.Type {
	var t T
	return reflect.TypeOf(&t).Elem()
}

// MapKeys returns m's keys, optionally ordered by cmp.
func MapKeys[K comparable, V any](m map[K]V, cmp ...func(a, b K) int) []K {
	r := []K{}

	for k := range m {
		r = append(r, k)
	}
	if len(cmp) > 0 {
		slices.SortFunc(r, cmp[0])
	}
	return r
}

// OrderedMapKeys returns m's keys sorted ascending, the deterministic
// iteration order graph/hierarchy traversal relies on.
func OrderedMapKeys[K cmp.Ordered, V any](m map[K]V) []K {
	r := MapKeys(m)
	slices.Sort(r)
	return r
}
