package common

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	table := []struct {
		a, b Vector
		want float64
	}{
		{Vector{0, 0}, Vector{3, 4}, 5},
		{Vector{1, 1}, Vector{1, 1}, 0},
		{Vector{0, 0, 0}, Vector{1, 2, 2}, 3},
		{Vector{-2}, Vector{3}, 5},
	}

	for i, tt := range table {
		got, err := tt.a.Distance(tt.b)
		require.NoError(t, err, "%d)", i+1)
		assert.InDelta(t, tt.want, got, 1e-12, "%d) %s -> %s", i+1, tt.a, tt.b)
	}
}

func TestDimensionMismatch(t *testing.T) {
	a, b := Vector{0, 0}, Vector{0, 0, 0}

	_, err := a.Distance(b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	var dimErr *DimensionMismatchError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Want)
	assert.Equal(t, 3, dimErr.Got)

	_, err = a.Add(b)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	_, err = a.Subtract(b)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	_, err = a.Heading(b)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestArithmetic(t *testing.T) {
	a, b := Vector{1, 2, 3}, Vector{0.5, -1, 4}

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 1, 7}, []float64(sum), 1e-12)

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 3, -1}, []float64(diff), 1e-12)

	assert.InDeltaSlice(t, []float64{2.5, 5, 7.5}, []float64(a.Scale(2.5)), 1e-12)
	assert.InDelta(t, 14.0, a.NormSq(), 1e-12)

	// Operations must not alias their receiver.
	assert.Equal(t, Vector{1, 2, 3}, a)
}

func TestHeading(t *testing.T) {
	origin := Vector{0, 0}
	table := []struct {
		to   Vector
		want float64
	}{
		{Vector{0, 1}, 0},
		{Vector{1, 0}, math.Pi / 2},
		{Vector{0, -1}, math.Pi},
		{Vector{-1, 0}, 3 * math.Pi / 2},
	}
	for _, tt := range table {
		got, err := origin.Heading(tt.to)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "heading to %s", tt.to)
	}

	_, err := Vector{0}.Heading(Vector{1})
	assert.Error(t, err)
}

func TestNewRandomVector(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bounds := []float64{-1, 1, 10, 20}

	for i := 0; i < 100; i++ {
		v, err := NewRandomVector(rng, 2, bounds)
		require.NoError(t, err)
		assert.True(t, v[0] >= -1 && v[0] <= 1, "x out of bounds: %g", v[0])
		assert.True(t, v[1] >= 10 && v[1] <= 20, "y out of bounds: %g", v[1])
	}

	_, err := NewRandomVector(rng, 3, bounds)
	assert.Error(t, err)
}

func TestCloneAndString(t *testing.T) {
	v := Vector{1, 2.5}
	c := v.Clone()
	c[0] = 9
	assert.Equal(t, 1.0, v[0])
	assert.Equal(t, "[1.000, 2.500]", v.String())
}

func TestCheckFinite(t *testing.T) {
	assert.NoError(t, Vector{1, -2, 0}.CheckFinite())
	assert.NoError(t, Vector{}.CheckFinite())
	for _, v := range []Vector{{math.NaN(), 0}, {0, math.Inf(1)}, {math.Inf(-1)}} {
		err := v.CheckFinite()
		require.Error(t, err, "%v", v)
		assert.True(t, errors.Is(err, ErrNonFinite))
	}
}
