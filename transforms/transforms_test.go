package transforms

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafscan/fusionnet/params"
	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

func testBank(t *testing.T) *Bank {
	t.Helper()
	filter := tensors.New(shapes.Make(params.InputHeight, params.InputWidth))
	for ii := range filter.Flat() {
		filter.Flat()[ii] = 1
	}
	bank, err := NewBank(filter)
	require.NoError(t, err)
	return bank
}

func constantImage(value float32) *tensors.Tensor {
	img := tensors.New(shapes.Make(params.InputHeight, params.InputWidth, params.InputChannels))
	for ii := range img.Flat() {
		img.Flat()[ii] = value
	}
	return img
}

func randomImage(seed int64) *tensors.Tensor {
	rng := rand.New(rand.NewSource(seed))
	img := tensors.New(shapes.Make(params.InputHeight, params.InputWidth, params.InputChannels))
	for ii := range img.Flat() {
		img.Flat()[ii] = float32(rng.Float64())
	}
	return img
}

func TestNewBankRejectsBadFilter(t *testing.T) {
	_, err := NewBank(nil)
	assert.Error(t, err)
	_, err = NewBank(tensors.New(shapes.Make(10, 10)))
	assert.ErrorIs(t, err, shapes.ErrMismatch)
}

func TestApplyAllShapes(t *testing.T) {
	bank := testBank(t)
	outputs := bank.ApplyAll(randomImage(1))
	want := shapes.Make(params.InputHeight, params.InputWidth, params.InputChannels)
	for ii, out := range outputs {
		assert.True(t, out.Shape().Equal(want), "transform %s", Kinds()[ii])
		assert.True(t, out.IsFinite(), "transform %s", Kinds()[ii])
	}
}

func TestApplyRejectsWrongShape(t *testing.T) {
	bank := testBank(t)
	assert.Panics(t, func() { bank.Apply(KindDCT, tensors.New(shapes.Make(100, 100, 3))) })
}

func TestDCTOfConstantImage(t *testing.T) {
	// A flat image has all its block energy in the DC coefficient: the
	// orthonormal 8x8 DCT of a constant c has 8c at (0, 0) and 0 elsewhere.
	bank := testBank(t)
	out := bank.Apply(KindDCT, constantImage(0.5))
	luma := float32(0.5) // gray 0.5 has luma 0.5
	for _, by := range []int{0, 8, 216} {
		assert.InDelta(t, 8*luma, out.At(by, by, 0), 1e-4)
		assert.InDelta(t, 0, out.At(by, by+1, 0), 1e-4)
		assert.InDelta(t, 0, out.At(by+1, by, 0), 1e-4)
		assert.InDelta(t, 0, out.At(by+3, by+5, 0), 1e-4)
	}
}

func TestWaveletOfConstantImage(t *testing.T) {
	// Orthonormal Haar LL of a constant c block is (4c)/2 = 2c everywhere.
	bank := testBank(t)
	out := bank.Apply(KindWavelet, constantImage(0.25))
	for _, pos := range [][2]int{{0, 0}, {111, 111}, {223, 223}, {17, 200}} {
		assert.InDelta(t, 0.5, out.At(pos[0], pos[1], 0), 1e-4)
	}
}

func TestSTFTRowInvariance(t *testing.T) {
	// Every row of a constant image has the same spectrum, so every output
	// row must be identical.
	bank := testBank(t)
	out := bank.Apply(KindSTFT, constantImage(0.7))
	width := params.InputWidth
	for _, y := range []int{1, 100, 223} {
		for x := 0; x < width; x += 13 {
			assert.InDelta(t, out.At(0, x, 0), out.At(y, x, 0), 1e-5)
		}
	}
	// The DC bin of a Hann-windowed constant segment is positive.
	assert.Greater(t, out.At(0, 0, 0), float32(0))
}

func TestLearnableFilterMultiplies(t *testing.T) {
	filter := tensors.New(shapes.Make(params.InputHeight, params.InputWidth))
	for ii := range filter.Flat() {
		filter.Flat()[ii] = 2
	}
	bank, err := NewBank(filter)
	require.NoError(t, err)

	out := bank.Apply(KindLearnable, constantImage(0.25))
	for c := 0; c < 3; c++ {
		assert.InDelta(t, 0.5, out.At(31, 57, c), 1e-5)
	}
}

func TestTransformsAreDeterministic(t *testing.T) {
	bank := testBank(t)
	img := randomImage(99)
	first := bank.ApplyAll(img)
	second := bank.ApplyAll(img.Clone())
	for ii := range first {
		assert.True(t, first[ii].Equal(second[ii]), "transform %s not bit-reproducible", Kinds()[ii])
	}
}

func TestChannelsAreReplicated(t *testing.T) {
	bank := testBank(t)
	for _, kind := range Kinds() {
		out := bank.Apply(kind, randomImage(3))
		for _, pos := range [][2]int{{0, 0}, {100, 37}} {
			v := out.At(pos[0], pos[1], 0)
			assert.Equal(t, v, out.At(pos[0], pos[1], 1), "transform %s", kind)
			assert.Equal(t, v, out.At(pos[0], pos[1], 2), "transform %s", kind)
		}
	}
}

func TestBilinearResizePreservesConstants(t *testing.T) {
	plane := tensors.New(shapes.Make(7, 5))
	for ii := range plane.Flat() {
		plane.Flat()[ii] = 3.25
	}
	out := bilinearResize(plane, 224, 224)
	require.True(t, out.Shape().Equal(shapes.Make(224, 224)))
	for _, v := range out.Flat() {
		if math.Abs(float64(v)-3.25) > 1e-5 {
			t.Fatalf("resize of constant plane produced %v", v)
		}
	}
}
