package reclevel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reclevel-sim/internal/common"
)

func tutorialCalls() []CallSpec {
	levels := []float64{100, 96, 90, 84, 84}
	path := []common.Vector{{0.45, 0.3}, {1.0, 0.8}, {1.5, 1.2}, {2.0, 0.6}, {2.4, 0.4}}
	calls := make([]CallSpec, len(levels))
	for i := range levels {
		calls[i] = CallSpec{Level: levels[i], Source: path[i]}
	}
	return calls
}

func wallMics() []common.Vector {
	return []common.Vector{
		{0, 0}, {0, 2.0 / 3}, {0, 4.0 / 3}, {0, 2},
		{0.5, 2.5}, {1, 2.5}, {1.5, 2.5}, {2, 2.5},
		{2.5, 2}, {2.5, 4.0 / 3}, {2.5, 2.0 / 3}, {2.5, 0},
	}
}

func TestCalculateTableMatchesColumns(t *testing.T) {
	calls, mics := tutorialCalls(), wallMics()

	tab, err := CalculateTable(context.Background(), calls, mics)
	require.NoError(t, err)
	require.Equal(t, len(mics), tab.Receivers())
	require.Equal(t, len(calls), tab.Calls())

	for c, call := range calls {
		want, err := Calculate(call.Level, call.Source, mics)
		require.NoError(t, err)
		assert.Equal(t, want, tab.Column(c), "call %d", c)
	}

	row := tab.Row(3)
	require.Len(t, row, len(calls))
	for c := range calls {
		assert.Equal(t, tab.At(3, c), row[c])
	}
}

func TestCalculateTableParallelMatchesSequential(t *testing.T) {
	calls, mics := tutorialCalls(), wallMics()

	seq, err := CalculateTable(context.Background(), calls, mics, WithParallelism(1))
	require.NoError(t, err)
	par, err := CalculateTable(context.Background(), calls, mics, WithParallelism(8))
	require.NoError(t, err)

	assert.Equal(t, seq.Dense().RawMatrix().Data, par.Dense().RawMatrix().Data)
}

func TestCalculateTableErrors(t *testing.T) {
	mics := wallMics()

	calls := tutorialCalls()
	calls[2].Source = common.Vector{0.5, 2.5} // on top of a mic
	_, err := CalculateTable(context.Background(), calls, mics)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateGeometry))
	assert.Contains(t, err.Error(), "call 2")

	calls = tutorialCalls()
	calls[0].Source = common.Vector{0.45, 0.3, 1}
	_, err = CalculateTable(context.Background(), calls, mics)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = CalculateTable(context.Background(), nil, mics)
	assert.Error(t, err)
	_, err = CalculateTable(context.Background(), tutorialCalls(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CalculateTable(ctx, tutorialCalls(), mics)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTableDenseIsCopy(t *testing.T) {
	tab, err := CalculateTable(context.Background(), tutorialCalls(), wallMics())
	require.NoError(t, err)

	before := tab.At(0, 0)
	d := tab.Dense()
	d.Set(0, 0, -1)
	assert.Equal(t, before, tab.At(0, 0))
}

func TestTableFormat(t *testing.T) {
	tab, err := CalculateTable(context.Background(),
		[]CallSpec{{Level: 100, Source: common.Vector{0, 0}}},
		[]common.Vector{{1, 0}, {2, 0}})
	require.NoError(t, err)

	out := tab.Format([]string{"left"}, nil)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "call-0")
	assert.Contains(t, lines[1], "left")
	assert.Contains(t, lines[1], "100.00")
	assert.Contains(t, lines[2], "mic-1")
	assert.Contains(t, lines[2], "93.98")
}
