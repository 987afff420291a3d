package visualization

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reclevel-sim/internal/common"
	"reclevel-sim/internal/simulation"
)

func TestProjectorPassThrough(t *testing.T) {
	p := NewPCAProjector()

	got, err := p.Project([]common.Vector{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []common.Vector{{1, 2}, {3, 4}}, got)

	got, err = p.Project([]common.Vector{{5}, {-1}})
	require.NoError(t, err)
	assert.Equal(t, []common.Vector{{5, 0}, {-1, 0}}, got)

	got, err = p.Project(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = p.Project([]common.Vector{{1, 2}, {1, 2, 3}})
	assert.Error(t, err)
}

func TestProjectorPreservesPlanarDistances(t *testing.T) {
	// Points on a tilted plane keep their pairwise distances under PCA.
	points := []common.Vector{
		{0, 0, 0}, {1, 0, 1}, {0, 1, 0}, {1, 1, 1}, {2, 0.5, 2}, {0.3, 2, 0.3},
	}
	got, err := NewPCAProjector().Project(points)
	require.NoError(t, err)
	require.Len(t, got, len(points))

	for i := range points {
		for j := i + 1; j < len(points); j++ {
			want, _ := points[i].Distance(points[j])
			have, _ := got[i].Distance(got[j])
			assert.InDelta(t, want, have, 1e-9, "pair %d-%d", i, j)
		}
	}
}

func TestNewScene(t *testing.T) {
	sim, err := simulation.TutorialScenario()
	require.NoError(t, err)
	sim.SetLogger(nil)
	require.NoError(t, sim.Run(context.Background(), simulation.TutorialPlan()))

	sc, err := NewScene(sim, NewPCAProjector())
	require.NoError(t, err)

	assert.Len(t, sc.Mics, 12)
	assert.Len(t, sc.MicNames, 12)
	assert.Len(t, sc.Calls, 5)
	assert.Len(t, sc.Levels, 5)
	assert.Len(t, sc.Levels[0], 12)
	assert.Len(t, sc.Estimates, 5)
	assert.Len(t, sc.Located, 5)

	// First call points 15 degrees right of +y.
	a := sc.Arrows[0]
	assert.InDelta(t, 0.45+ArrowLength*math.Sin(15*math.Pi/180), a.To[0], 1e-12)
	assert.InDelta(t, 0.3+ArrowLength*math.Cos(15*math.Pi/180), a.To[1], 1e-12)

	minX, maxX, minY, maxY := sc.Extent()
	assert.Equal(t, 0.0, minX)
	assert.Equal(t, 2.5, maxX)
	assert.InDelta(t, 0.4+ArrowLength*math.Cos(200*math.Pi/180), minY, 1e-12) // last call points down past the wall
	assert.Equal(t, 2.5, maxY)

	lo, hi, ok := sc.LevelRange()
	require.True(t, ok)
	assert.Less(t, lo, hi)
	assert.LessOrEqual(t, hi, 100.0+20)
}

func TestFitViewport(t *testing.T) {
	v := FitViewport(0, 2, 0, 1, 400, 300, 50)
	// 300 px of usable width for 2 m, 200 px of height for 1 m.
	assert.InDelta(t, 150, v.Scale, 1e-12)

	x, y := v.ToScreen(1, 0.5)
	assert.InDelta(t, 200, x, 1e-4)
	assert.InDelta(t, 150, y, 1e-4)

	// y grows upwards on screen.
	_, yTop := v.ToScreen(1, 1)
	_, yBottom := v.ToScreen(1, 0)
	assert.Less(t, yTop, yBottom)

	v = FitViewport(math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1), 100, 100, 10)
	assert.Equal(t, 1.0, v.Scale)

	v = FitViewport(1, 1, 1, 1, 100, 100, 10)
	assert.InDelta(t, 80, v.Scale, 1e-12)
}

func TestLevelColor(t *testing.T) {
	assert.Equal(t, uint8(0), LevelColor(60, 60, 100).R)
	assert.Equal(t, uint8(255), LevelColor(60, 60, 100).B)
	assert.Equal(t, uint8(255), LevelColor(100, 60, 100).R)
	assert.Equal(t, uint8(255), LevelColor(200, 60, 100).R)
	assert.Equal(t, uint8(128), LevelColor(80, 60, 100).R)
	assert.Equal(t, uint8(128), LevelColor(5, 5, 5).R)
}
