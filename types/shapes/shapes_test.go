package shapes

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	s := Make(224, 224, 3)
	assert.Equal(t, 3, s.Rank())
	assert.Equal(t, 224*224*3, s.Size())
	assert.Equal(t, "[224 224 3]", s.String())
	assert.Equal(t, 3, s.Dim(-1))
	assert.Equal(t, 224, s.Dim(0))

	assert.Panics(t, func() { Make(10, 0) })
	assert.Panics(t, func() { Make(-1) })
}

func TestEqualAndClone(t *testing.T) {
	s := Make(2, 3)
	clone := s.Clone()
	assert.True(t, s.Equal(clone))
	clone.Dimensions[0] = 7
	assert.False(t, s.Equal(clone))
	assert.Equal(t, 2, s.Dimensions[0])
}

func TestCheckDims(t *testing.T) {
	s := Make(224, 224, 3)
	require.NoError(t, s.CheckDims(224, 224, 3))
	require.NoError(t, s.CheckDims(UncheckedAxis, UncheckedAxis, 3))

	err := s.CheckDims(224, 224)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMismatch))

	err = s.CheckDims(224, 112, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMismatch))
}

func TestCheckRank(t *testing.T) {
	s := Make(5, 5)
	require.NoError(t, s.CheckRank(2))
	err := s.CheckRank(3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMismatch))
}

func TestAsserts(t *testing.T) {
	s := Make(4, 4, 3)
	assert.NotPanics(t, func() { AssertDims(s, 4, 4, 3) })
	assert.NotPanics(t, func() { AssertRank(s, 3) })
	assert.Panics(t, func() { AssertDims(s, 4, 4, 1) })
	assert.Panics(t, func() { AssertRank(s, 2) })
}
