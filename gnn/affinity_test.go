package gnn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewAffinity(t *testing.T) {
	aff, err := NewAffinity(2, 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	n, m := aff.Dims()
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, m)
	assert.Equal(t, 6.0, aff.At(1, 2))
	assert.Equal(t, []float64{4, 5, 6}, aff.Row(1))

	_, err = NewAffinity(2, 3, []float64{1, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewAffinity(-1, 3, nil)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestAffinityDegenerateShapes(t *testing.T) {
	for _, shape := range [][2]int{{0, 4}, {3, 0}, {0, 0}} {
		aff, err := NewAffinity(shape[0], shape[1], nil)
		require.NoError(t, err)
		assert.True(t, aff.IsEmpty())
		assert.Nil(t, aff.Dense())
		n, m := aff.Dims()
		assert.Equal(t, shape[0], n)
		assert.Equal(t, shape[1], m)
	}
}

func TestAffinityFromRows(t *testing.T) {
	aff, err := AffinityFromRows([][]float64{{1, 0}, {0, 1}, {0, 0}}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, aff.At(1, 1))

	empty, err := AffinityFromRows(nil, 5)
	require.NoError(t, err)
	n, m := empty.Dims()
	assert.Equal(t, 0, n)
	assert.Equal(t, 5, m)

	_, err = AffinityFromRows([][]float64{{1, 0}, {0}}, 2)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestAffinityDenseRoundTrip(t *testing.T) {
	dense := mat.NewDense(2, 2, []float64{0.1, 0.2, 0.3, 0.4})
	aff := AffinityFromDense(dense)
	assert.True(t, mat.Equal(dense, aff.Dense()))

	aff.Set(0, 0, math.NaN())
	assert.False(t, aff.IsFinite())
}

func TestAffinityIndexPanics(t *testing.T) {
	aff, err := NewAffinity(1, 1, nil)
	require.NoError(t, err)
	assert.Panics(t, func() { aff.At(1, 0) })
	assert.Panics(t, func() { aff.Set(0, -1, 1) })
}
