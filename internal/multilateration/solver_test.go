package multilateration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reclevel-sim/internal/common"
	"reclevel-sim/internal/reclevel"
)

func exactRanges(t *testing.T, source common.Vector, receivers []common.Vector) []Measurement {
	t.Helper()
	out := make([]Measurement, len(receivers))
	for i, r := range receivers {
		d, err := source.Distance(r)
		require.NoError(t, err)
		out[i] = Measurement{ReceiverPosition: r, Distance: d}
	}
	return out
}

func TestSolveLeastSquaresExact(t *testing.T) {
	square := []common.Vector{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	src := common.Vector{0.7, 1.3}

	sol, err := SolveLeastSquares(exactRanges(t, src, square), 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64(src), []float64(sol.Position), 1e-9)
	assert.InDelta(t, 0, sol.ResidualError, 1e-9)

	locErr, err := LocalizationError(src, sol.Position)
	require.NoError(t, err)
	assert.InDelta(t, 0, locErr, 1e-9)
}

func TestSolveLeastSquares3D(t *testing.T) {
	receivers := []common.Vector{{0, 0, 0}, {3, 0, 0}, {0, 3, 0}, {0, 0, 3}, {3, 3, 3}}
	src := common.Vector{1, 2, 0.5}

	sol, err := SolveLeastSquares(exactRanges(t, src, receivers), 3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64(src), []float64(sol.Position), 1e-9)
}

func TestSolveLeastSquaresErrors(t *testing.T) {
	_, err := SolveLeastSquares(exactRanges(t, common.Vector{1, 1}, []common.Vector{{0, 0}, {1, 0}}), 2)
	assert.Error(t, err, "too few measurements")

	line := []common.Vector{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	_, err = SolveLeastSquares(exactRanges(t, common.Vector{1, 1}, line), 2)
	assert.Error(t, err, "collinear receivers")

	mixed := []Measurement{
		{ReceiverPosition: common.Vector{0, 0}, Distance: 1},
		{ReceiverPosition: common.Vector{1, 0, 0}, Distance: 1},
		{ReceiverPosition: common.Vector{0, 1}, Distance: 1},
	}
	_, err = SolveLeastSquares(mixed, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDimensionMismatch))
}

func TestRangesFromLevels(t *testing.T) {
	receivers := []common.Vector{{0, 0}, {2.5, 0}, {2.5, 2.5}, {0, 2.5}, {1.25, 0}}
	src := common.Vector{1.0, 0.8}

	for _, ref := range []float64{1, 0.1} {
		levels, err := reclevel.Calculate(100, src, receivers, reclevel.WithReferenceDistance(ref))
		require.NoError(t, err)

		ranges, err := RangesFromLevels(100, levels, receivers, ref)
		require.NoError(t, err)
		require.Len(t, ranges, len(receivers))
		for i, m := range ranges {
			want, _ := src.Distance(receivers[i])
			assert.InDelta(t, want, m.Distance, 1e-9, "ref %g receiver %d", ref, i)
		}

		sol, err := SolveLeastSquares(ranges, 2)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64(src), []float64(sol.Position), 1e-9)
	}

	_, err := RangesFromLevels(100, []float64{90}, receivers, 1)
	assert.Error(t, err)
	_, err = RangesFromLevels(100, []float64{90}, receivers[:1], 0)
	assert.Error(t, err)
}

func TestLocalizationErrorEmpty(t *testing.T) {
	_, err := LocalizationError(nil, common.Vector{1})
	assert.Error(t, err)
}
