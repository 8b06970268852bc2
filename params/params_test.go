package params

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafscan/fusionnet/types/shapes"
	"github.com/leafscan/fusionnet/types/tensors"
)

func TestSyntheticValidatesAndIsDeterministic(t *testing.T) {
	a := NewSynthetic(42)
	require.NoError(t, a.Validate())

	b := NewSynthetic(42)
	assert.True(t, a.Transform.FrequencyFilter.Equal(b.Transform.FrequencyFilter))
	assert.True(t, a.Fusion.Head.Weights.Equal(b.Fusion.Head.Weights))
	assert.Equal(t, a.Mobile.StemNorm.Variance, b.Mobile.StemNorm.Variance)

	c := NewSynthetic(43)
	assert.False(t, a.Fusion.Head.Weights.Equal(c.Fusion.Head.Weights))
}

func TestNumParameters(t *testing.T) {
	m := NewSynthetic(1)
	count := m.NumParameters()
	assert.Greater(t, count, int64(FusedDim*NumClasses))
	// The frequency filter alone is 224*224.
	assert.Greater(t, count, int64(InputHeight*InputWidth))
}

func TestValidateCatchesMissingParameter(t *testing.T) {
	m := NewSynthetic(2)
	m.Cascade.Patchify.Kernel = nil
	err := m.Validate()
	assert.ErrorIs(t, err, ErrLoad)
}

func TestValidateCatchesWrongShape(t *testing.T) {
	m := NewSynthetic(3)
	m.Fusion.Head.Weights = tensors.New(shapes.Make(FusedDim, NumClasses+1))
	err := m.Validate()
	assert.ErrorIs(t, err, ErrLoad)
}

func TestValidateCatchesWrongVectorLength(t *testing.T) {
	m := NewSynthetic(4)
	m.Mobile.Head.Bias = make([]float32, 3)
	err := m.Validate()
	assert.ErrorIs(t, err, ErrLoad)
}

func TestValidateCatchesNonFinite(t *testing.T) {
	m := NewSynthetic(5)
	m.Mobile.Stem.Kernel.Flat()[0] = float32(math.Inf(1))
	assert.ErrorIs(t, m.Validate(), ErrLoad)

	m = NewSynthetic(5)
	m.Cascade.FinalNorm.Gain[0] = float32(math.NaN())
	assert.ErrorIs(t, m.Validate(), ErrLoad)
}

func TestValidateCatchesNonPositiveVariance(t *testing.T) {
	m := NewSynthetic(6)
	m.Mobile.StemNorm.Variance[0] = 0
	assert.ErrorIs(t, m.Validate(), ErrLoad)
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ckpt")
	saved := NewSynthetic(7)
	require.NoError(t, saved.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Validate())
	assert.Equal(t, saved.NumParameters(), loaded.NumParameters())

	// float16 storage: values match to half precision.
	want := saved.Fusion.Head.Weights.Flat()
	got := loaded.Fusion.Head.Weights.Flat()
	require.Len(t, got, len(want))
	for ii := range want {
		assert.InDelta(t, want[ii], got[ii], 1e-2)
	}

	// A second load is identical to the first: no hidden state.
	again, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Fusion.Head.Weights.Equal(again.Fusion.Head.Weights))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.ckpt"))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.ckpt")
	require.NoError(t, os.WriteFile(path, []byte("not a checkpoint"), 0o644))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestSaveRefusesIncompleteModel(t *testing.T) {
	m := NewSynthetic(8)
	m.Transform.FrequencyFilter = nil
	err := m.Save(filepath.Join(t.TempDir(), "model.ckpt"))
	assert.ErrorIs(t, err, ErrLoad)
}
