package shapes

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// UncheckedAxis can be used in CheckDims or AssertDims for an axis whose
// dimension doesn't matter.
const UncheckedAxis = int(-1)

// ErrMismatch is the cause of every error returned by the Check* functions.
// Callers classify shape failures with errors.Is(err, shapes.ErrMismatch).
var ErrMismatch = errors.New("shape mismatch")

// HasShape is an interface for objects with an associated Shape. Tensor and
// Shape itself implement it.
type HasShape interface {
	Shape() Shape
}

// CheckDims checks that the shape has the given dimensions and rank. A value
// of UncheckedAxis (-1) means the axis can take any value.
//
// The returned error wraps ErrMismatch.
func (s Shape) CheckDims(dimensions ...int) error {
	if len(dimensions) != s.Rank() {
		return errors.Wrapf(ErrMismatch, "shape %s has rank %d, wanted rank %d", s, s.Rank(), len(dimensions))
	}
	for axis, wanted := range dimensions {
		if wanted != UncheckedAxis && wanted != s.Dimensions[axis] {
			return errors.Wrapf(ErrMismatch, "shape %s axis %d has dimension %d, wanted %d",
				s, axis, s.Dimensions[axis], wanted)
		}
	}
	return nil
}

// CheckRank checks that the shape has the given rank.
//
// The returned error wraps ErrMismatch.
func (s Shape) CheckRank(rank int) error {
	if rank != s.Rank() {
		return errors.Wrapf(ErrMismatch, "shape %s has rank %d, wanted rank %d", s, s.Rank(), rank)
	}
	return nil
}

// AssertDims panics if the shaped value doesn't have the given dimensions.
// UncheckedAxis (-1) axes are skipped.
func AssertDims(shaped HasShape, dimensions ...int) {
	if err := shaped.Shape().CheckDims(dimensions...); err != nil {
		exceptions.Panicf("AssertDims: %v", err)
	}
}

// AssertRank panics if the shaped value doesn't have the given rank.
func AssertRank(shaped HasShape, rank int) {
	if err := shaped.Shape().CheckRank(rank); err != nil {
		exceptions.Panicf("AssertRank: %v", err)
	}
}
