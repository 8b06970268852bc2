// Package shapes defines Shape and the assert tools used to keep tabs on
// tensor dimensions across the inference pipeline.
//
// All tensors in this module are float32, so a Shape is only its dimensions.
// Axes follow the HWC convention for images: axis 0 is height, axis 1 width
// and axis 2 the channels.
//
// There are two variations of the check functionality:
//
//   - CheckDims and CheckRank return an error (wrapping ErrMismatch) and are
//     meant for validating data that crosses the module boundary.
//   - AssertDims and AssertRank panic and are meant as in-code documentation
//     of invariants that only break on programming errors. Panics are
//     converted back to errors at the inference.Engine boundary.
//
// A value of UncheckedAxis (-1) in a dimensions list means that axis can take
// any value.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
)

// Shape represents the dimensions of a Tensor.
//
// Use Make to create a new one. The zero value is an invalid scalar-like
// shape with no axes.
type Shape struct {
	Dimensions []int
}

// Make returns a Shape with the given dimensions.
// It panics if any dimension is <= 0.
func Make(dimensions ...int) Shape {
	s := Shape{Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// Rank returns the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// Size returns the total number of elements, the product of all dimensions.
func (s Shape) Size() int {
	size := 1
	for _, dim := range s.Dimensions {
		size *= dim
	}
	return size
}

// Dim returns the dimension of the given axis. Negative axes count from the
// end, python-style.
func (s Shape) Dim(axis int) int {
	if axis < 0 {
		axis += s.Rank()
	}
	if axis < 0 || axis >= s.Rank() {
		exceptions.Panicf("shape %s has no axis %d", s, axis)
	}
	return s.Dimensions[axis]
}

// Clone makes a deep copy of the Shape.
func (s Shape) Clone() Shape {
	return Shape{Dimensions: slices.Clone(s.Dimensions)}
}

// Equal compares rank and dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s.Dimensions, other.Dimensions)
}

// Shape implements HasShape, so a Shape can be passed wherever a shaped
// value is expected.
func (s Shape) Shape() Shape { return s }

// String implements fmt.Stringer, printing as "[224 224 3]".
func (s Shape) String() string {
	parts := make([]string, 0, s.Rank())
	for _, dim := range s.Dimensions {
		parts = append(parts, fmt.Sprintf("%d", dim))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
