// Package xslices implements the handful of generic slice helpers used
// across the module.
package xslices

import "golang.org/x/exp/constraints"

// Epsilon is the default tolerance used in tests comparing float values.
const Epsilon = 1e-6

// SliceWithValue returns a slice of the given size filled with the given
// value.
func SliceWithValue[T any](size int, value T) []T {
	s := make([]T, size)
	for ii := range s {
		s[ii] = value
	}
	return s
}

// Map applies fn to every element of in, returning a new slice.
func Map[In, Out any](in []In, fn func(In) Out) []Out {
	out := make([]Out, len(in))
	for ii, v := range in {
		out[ii] = fn(v)
	}
	return out
}

// ArgMax returns the index of the largest value. Ties resolve to the lowest
// index. It returns -1 for an empty slice.
func ArgMax[T constraints.Ordered](values []T) int {
	if len(values) == 0 {
		return -1
	}
	best := 0
	for ii := 1; ii < len(values); ii++ {
		if values[ii] > values[best] {
			best = ii
		}
	}
	return best
}

// Sum adds all values.
func Sum[T constraints.Integer | constraints.Float](values []T) T {
	var total T
	for _, v := range values {
		total += v
	}
	return total
}
