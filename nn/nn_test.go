package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
	"github.com/leafscan/fusionnet/types/xslices"
)

func TestConv2DIdentity(t *testing.T) {
	x := tensors.FromFlat(shapes.Make(2, 2, 1), []float32{1, 2, 3, 4})
	kernel := tensors.FromFlat(shapes.Make(1, 1, 1, 1), []float32{1})
	out := Conv2D(x, kernel, nil, 1, false)
	require.True(t, out.Shape().Equal(shapes.Make(2, 2, 1)))
	assert.Equal(t, x.Flat(), out.Flat())
}

func TestConv2DValid(t *testing.T) {
	// 3x3 input, 3x3 kernel of ones: single output = sum of inputs.
	x := tensors.FromFlat(shapes.Make(3, 3, 1), []float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	kernel := tensors.FromFlat(shapes.Make(3, 3, 1, 1), xslices.SliceWithValue(9, float32(1)))
	out := Conv2D(x, kernel, []float32{0.5}, 1, false)
	require.True(t, out.Shape().Equal(shapes.Make(1, 1, 1)))
	assert.InDelta(t, 45.5, out.At(0, 0, 0), xslices.Epsilon)
}

func TestConv2DSamePaddingAndStride(t *testing.T) {
	x := tensors.New(shapes.Make(5, 5, 2))
	kernel := tensors.New(shapes.Make(3, 3, 2, 4))
	out := Conv2D(x, kernel, nil, 2, true)
	// Same padding: ceil(5/2) = 3.
	assert.True(t, out.Shape().Equal(shapes.Make(3, 3, 4)))

	// Same padding keeps a centered kernel on the corners: with a kernel
	// that only picks the center tap, padding contributes nothing.
	center := tensors.New(shapes.Make(3, 3, 1, 1))
	center.Set(1, 1, 1, 0, 0)
	x2 := tensors.FromFlat(shapes.Make(2, 2, 1), []float32{1, 2, 3, 4})
	out2 := Conv2D(x2, center, nil, 1, true)
	assert.Equal(t, x2.Flat(), out2.Flat())
}

func TestConv2DBadShapes(t *testing.T) {
	x := tensors.New(shapes.Make(4, 4, 3))
	kernel := tensors.New(shapes.Make(3, 3, 2, 8)) // wrong input channels
	assert.Panics(t, func() { Conv2D(x, kernel, nil, 1, true) })
	good := tensors.New(shapes.Make(3, 3, 3, 8))
	assert.Panics(t, func() { Conv2D(x, good, []float32{1}, 1, true) }) // bad bias
	assert.Panics(t, func() { Conv2D(x, good, nil, 0, true) })          // bad stride
}

func TestDepthwiseConv2D(t *testing.T) {
	// 1x1 depthwise kernel scales each channel independently.
	x := tensors.FromFlat(shapes.Make(1, 2, 2), []float32{1, 10, 2, 20})
	kernel := tensors.FromFlat(shapes.Make(1, 1, 2), []float32{2, 3})
	out := DepthwiseConv2D(x, kernel, []float32{0, 1}, 1, false)
	require.True(t, out.Shape().Equal(shapes.Make(1, 2, 2)))
	assert.Equal(t, []float32{2, 31, 4, 61}, out.Flat())
}

func TestDepthwiseConv2DStride(t *testing.T) {
	x := tensors.New(shapes.Make(6, 6, 3))
	kernel := tensors.New(shapes.Make(3, 3, 3))
	out := DepthwiseConv2D(x, kernel, nil, 2, true)
	assert.True(t, out.Shape().Equal(shapes.Make(3, 3, 3)))
}

func TestDense(t *testing.T) {
	// y = Wᵀx + b with W [2, 3].
	weights := tensors.FromFlat(shapes.Make(2, 3), []float32{
		1, 2, 3,
		4, 5, 6,
	})
	y := Dense([]float32{1, 2}, weights, []float32{0.5, 0, -0.5})
	require.Len(t, y, 3)
	assert.InDelta(t, 9.5, y[0], xslices.Epsilon)
	assert.InDelta(t, 12.0, y[1], xslices.Epsilon)
	assert.InDelta(t, 14.5, y[2], xslices.Epsilon)

	assert.Panics(t, func() { Dense([]float32{1}, weights, nil) })
	assert.Panics(t, func() { Dense([]float32{1, 2}, weights, []float32{1}) })
}

func TestGlobalAvgPool(t *testing.T) {
	x := tensors.FromFlat(shapes.Make(2, 2, 2), []float32{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	pooled := GlobalAvgPool(x)
	require.Len(t, pooled, 2)
	assert.InDelta(t, 2.5, pooled[0], xslices.Epsilon)
	assert.InDelta(t, 25, pooled[1], xslices.Epsilon)
}

func TestBatchNorm(t *testing.T) {
	x := tensors.FromFlat(shapes.Make(1, 2, 1), []float32{1, 3})
	out := BatchNorm(x, []float32{2}, []float32{4}, []float32{2}, []float32{10}, 0)
	// (1-2)/2*2+10 = 9, (3-2)/2*2+10 = 11.
	assert.InDelta(t, 9, out.At(0, 0, 0), 1e-5)
	assert.InDelta(t, 11, out.At(0, 1, 0), 1e-5)
	assert.Panics(t, func() { BatchNorm(x, []float32{1, 2}, []float32{1}, []float32{1}, []float32{1}, 0) })
}

func TestLayerNorm(t *testing.T) {
	// One spatial position with channels {1, 3}: mean 2, variance 1.
	x := tensors.FromFlat(shapes.Make(1, 1, 2), []float32{1, 3})
	out := LayerNorm(x, []float32{1, 1}, []float32{0, 0}, 0)
	assert.InDelta(t, -1, out.At(0, 0, 0), 1e-5)
	assert.InDelta(t, 1, out.At(0, 0, 1), 1e-5)

	// Gain and bias apply after normalization.
	x2 := tensors.FromFlat(shapes.Make(1, 1, 2), []float32{1, 3})
	out2 := LayerNorm(x2, []float32{2, 2}, []float32{5, 5}, 0)
	assert.InDelta(t, 3, out2.At(0, 0, 0), 1e-5)
	assert.InDelta(t, 7, out2.At(0, 0, 1), 1e-5)
}

func TestReLU(t *testing.T) {
	x := tensors.FromValues(-2, -0.5, 0, 0.5, 2)
	assert.Equal(t, []float32{0, 0, 0, 0.5, 2}, ReLU(x).Flat())
}

func TestGELU(t *testing.T) {
	x := tensors.FromValues(0, 1, -1)
	out := GELU(x).Flat()
	assert.InDelta(t, 0, out[0], 1e-6)
	assert.InDelta(t, 0.8413447, out[1], 1e-5)
	assert.InDelta(t, -0.1586553, out[2], 1e-5)
}

func TestKernelsAreDeterministic(t *testing.T) {
	x := tensors.New(shapes.Make(8, 8, 3))
	for ii := range x.Flat() {
		x.Flat()[ii] = float32(math.Sin(float64(ii)))
	}
	kernel := tensors.New(shapes.Make(3, 3, 3, 4))
	for ii := range kernel.Flat() {
		kernel.Flat()[ii] = float32(math.Cos(float64(ii)))
	}
	a := Conv2D(x, kernel, nil, 1, true)
	b := Conv2D(x, kernel, nil, 1, true)
	assert.True(t, a.Equal(b))
}
