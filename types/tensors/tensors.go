// Package tensors provides the concrete float32 Tensor used throughout the
// inference pipeline: a flat row-major buffer plus its Shape.
//
// Tensors are per-request values: they are created when a request starts and
// garbage-collected when it ends, nothing retains them across calls. Model
// parameters are also stored as Tensors, but those are built once at startup
// and treated as read-only afterwards.
package tensors

import (
	"math"

	"github.com/gomlx/exceptions"
	"github.com/leafscan/fusionnet/types/shapes"
)

// Tensor holds a row-major flat buffer of float32 values and its Shape.
type Tensor struct {
	shape shapes.Shape
	flat  []float32
}

// New creates a zero-initialized Tensor with the given shape.
func New(shape shapes.Shape) *Tensor {
	return &Tensor{
		shape: shape,
		flat:  make([]float32, shape.Size()),
	}
}

// FromFlat creates a Tensor that takes ownership of the given flat buffer.
// It panics if the buffer size doesn't match the shape.
func FromFlat(shape shapes.Shape, flat []float32) *Tensor {
	if len(flat) != shape.Size() {
		exceptions.Panicf("tensors.FromFlat: buffer has %d values, shape %s requires %d",
			len(flat), shape, shape.Size())
	}
	return &Tensor{shape: shape, flat: flat}
}

// FromValues creates a rank-1 Tensor from the given values, copying them.
func FromValues(values ...float32) *Tensor {
	flat := make([]float32, len(values))
	copy(flat, values)
	return &Tensor{shape: shapes.Make(len(values)), flat: flat}
}

// Shape returns the Tensor shape. Implements shapes.HasShape.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// Rank is a shortcut for t.Shape().Rank().
func (t *Tensor) Rank() int { return t.shape.Rank() }

// Size returns the number of elements in the Tensor.
func (t *Tensor) Size() int { return len(t.flat) }

// Flat returns the underlying buffer. The caller must honor the read-only
// convention for parameter tensors.
func (t *Tensor) Flat() []float32 { return t.flat }

// At returns the value at the given indices.
func (t *Tensor) At(indices ...int) float32 {
	return t.flat[t.flatIndex(indices)]
}

// Set sets the value at the given indices.
func (t *Tensor) Set(value float32, indices ...int) {
	t.flat[t.flatIndex(indices)] = value
}

func (t *Tensor) flatIndex(indices []int) int {
	if len(indices) != t.shape.Rank() {
		exceptions.Panicf("tensor %s indexed with %d indices", t.shape, len(indices))
	}
	pos := 0
	for axis, idx := range indices {
		dim := t.shape.Dimensions[axis]
		if idx < 0 || idx >= dim {
			exceptions.Panicf("tensor %s index %d out of range for axis %d", t.shape, idx, axis)
		}
		pos = pos*dim + idx
	}
	return pos
}

// Clone returns a deep copy of the Tensor.
func (t *Tensor) Clone() *Tensor {
	flat := make([]float32, len(t.flat))
	copy(flat, t.flat)
	return &Tensor{shape: t.shape.Clone(), flat: flat}
}

// Equal reports whether two tensors have the same shape and bit-identical
// values.
func (t *Tensor) Equal(other *Tensor) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for ii, v := range t.flat {
		if v != other.flat[ii] {
			return false
		}
	}
	return true
}

// IsFinite reports whether every value is neither NaN nor Inf. Used by the
// encoders to detect numerical blow-ups before they reach the classifier.
func (t *Tensor) IsFinite() bool {
	return finite(t.flat)
}

func finite(values []float32) bool {
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// FiniteSlice reports whether every value of a plain slice is finite.
func FiniteSlice(values []float32) bool { return finite(values) }
