package tensors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafscan/fusionnet/types/shapes"
)

func TestNewAndIndexing(t *testing.T) {
	tensor := New(shapes.Make(2, 3, 4))
	require.Equal(t, 24, tensor.Size())

	tensor.Set(7.5, 1, 2, 3)
	assert.Equal(t, float32(7.5), tensor.At(1, 2, 3))
	// Row-major: last axis is contiguous.
	assert.Equal(t, float32(7.5), tensor.Flat()[23])

	assert.Panics(t, func() { tensor.At(1, 2) })
	assert.Panics(t, func() { tensor.At(2, 0, 0) })
}

func TestFromFlat(t *testing.T) {
	tensor := FromFlat(shapes.Make(2, 2), []float32{1, 2, 3, 4})
	assert.Equal(t, float32(3), tensor.At(1, 0))
	assert.Panics(t, func() { FromFlat(shapes.Make(2, 2), []float32{1, 2, 3}) })
}

func TestCloneAndEqual(t *testing.T) {
	a := FromValues(1, 2, 3)
	b := a.Clone()
	require.True(t, a.Equal(b))
	b.Flat()[1] = 9
	assert.False(t, a.Equal(b))
	assert.Equal(t, float32(2), a.Flat()[1])
	assert.False(t, a.Equal(FromValues(1, 2)))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, FromValues(0, -1, 1e30).IsFinite())
	assert.False(t, FromValues(0, float32(math.NaN())).IsFinite())
	assert.False(t, FromValues(float32(math.Inf(1))).IsFinite())
	assert.True(t, FiniteSlice([]float32{1, 2}))
	assert.False(t, FiniteSlice([]float32{float32(math.Inf(-1))}))
}
