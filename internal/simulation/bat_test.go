package simulation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reclevel-sim/internal/common"
)

func TestBatFliesPath(t *testing.T) {
	bat, err := NewBat([]common.Vector{{0, 0}, {1, 0}, {1, 1}}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, bat.Waypoint())
	assert.False(t, bat.Done())

	bat.Update(0.5, nil)
	assert.False(t, bat.Arrived())
	assert.InDeltaSlice(t, []float64{0.5, 0}, []float64(bat.GetPosition()), 1e-12)

	bat.Update(0.75, nil) // overshoot stops on the waypoint
	assert.True(t, bat.Arrived())
	assert.Equal(t, 1, bat.Waypoint())
	assert.Equal(t, common.Vector{1, 0}, bat.GetPosition())

	bat.Update(0.25, nil)
	assert.False(t, bat.Arrived())
	bat.Update(1, nil)
	assert.True(t, bat.Arrived())
	assert.True(t, bat.Done())
	assert.Equal(t, 2, bat.Waypoint())

	bat.Update(1, nil)
	assert.False(t, bat.Arrived())
	assert.Equal(t, common.Vector{1, 1}, bat.GetPosition())
}

func TestBatRepeatedWaypoint(t *testing.T) {
	bat, err := NewBat([]common.Vector{{1, 1}, {1, 1}}, 2)
	require.NoError(t, err)
	bat.Update(0.01, nil)
	assert.True(t, bat.Arrived())
	assert.True(t, bat.Done())
}

func TestBatClampsToBounds(t *testing.T) {
	bat, err := NewBat([]common.Vector{{0, 0}, {0, 5}}, 10)
	require.NoError(t, err)
	bat.Update(1, []float64{0, 1, 0, 2})
	assert.Equal(t, common.Vector{0, 2}, bat.GetPosition())
}

func TestNewBatValidation(t *testing.T) {
	_, err := NewBat(nil, 1)
	assert.Error(t, err)
	_, err = NewBat([]common.Vector{{0, 0}}, 0)
	assert.Error(t, err)
	_, err = NewBat([]common.Vector{{0, 0}, {1, 1, 1}}, 1)
	assert.Error(t, err)
	_, err = NewBat([]common.Vector{{1, 1}, {math.NaN(), 1}}, DefaultFlightSpeed)
	assert.True(t, errors.Is(err, common.ErrNonFinite))
	_, err = NewBat([]common.Vector{{0, math.Inf(1)}}, 1)
	assert.True(t, errors.Is(err, common.ErrNonFinite))
	_, err = NewBat([]common.Vector{{0, 0}}, math.NaN())
	assert.Error(t, err)
	_, err = NewBat([]common.Vector{{0, 0}}, math.Inf(1))
	assert.Error(t, err)

	bat, err := NewBat([]common.Vector{{0, 0}, {1, 1}}, 1)
	require.NoError(t, err)
	assert.Error(t, bat.SetPosition(common.Vector{1}))
	assert.True(t, errors.Is(bat.SetPosition(common.Vector{math.NaN(), 0}), common.ErrNonFinite))
	require.NoError(t, bat.SetPosition(common.Vector{0.5, 0.5}))
	assert.Equal(t, common.Vector{0.5, 0.5}, bat.GetPosition())
	assert.Len(t, bat.Path(), 2)
}
