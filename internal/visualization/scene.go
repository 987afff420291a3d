package visualization

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"reclevel-sim/internal/common"
	"reclevel-sim/internal/reclevel"
	"reclevel-sim/internal/simulation"
)

// ArrowLength is the world length of a drawn call-direction arrow.
const ArrowLength = 0.5

// Arrow is a call direction drawn from the emission point.
type Arrow struct {
	From, To common.Vector
}

// Scene is a 2D snapshot of a simulation ready to be drawn.
type Scene struct {
	MicNames  []string
	Mics      []common.Vector
	Calls     []simulation.Call
	CallPos   []common.Vector
	Arrows    []Arrow
	Levels    [][]float64 // [call][mic]; nil until the simulation computed levels
	Estimates []reclevel.Summary
	Located   []simulation.Localization
	Time      float64
	Dimension int
}

// NewScene projects the simulation's microphones and call positions to 2D.
func NewScene(sim *simulation.Simulation, projector Projector) (*Scene, error) {
	mics := sim.Microphones()
	calls := sim.Calls()
	if len(mics) == 0 {
		return nil, errors.New("nothing to draw: no microphones")
	}

	points := make([]common.Vector, 0, len(mics)+len(calls))
	for _, m := range mics {
		points = append(points, m.GetPosition())
	}
	for _, c := range calls {
		points = append(points, c.Position)
	}
	projected, err := projector.Project(points)
	if err != nil {
		return nil, fmt.Errorf("projecting scene: %w", err)
	}

	sc := &Scene{
		MicNames:  make([]string, len(mics)),
		Mics:      projected[:len(mics)],
		Calls:     calls,
		CallPos:   projected[len(mics):],
		Arrows:    make([]Arrow, len(calls)),
		Estimates: sim.Estimates(),
		Located:   sim.Localizations(),
		Time:      sim.CurrentTime(),
		Dimension: sim.Dimension(),
	}
	for i, m := range mics {
		sc.MicNames[i] = m.Name()
	}
	for i, c := range calls {
		from := sc.CallPos[i]
		to := common.Vector{
			from[0] + ArrowLength*math.Sin(c.Direction),
			from[1] + ArrowLength*math.Cos(c.Direction),
		}
		sc.Arrows[i] = Arrow{From: from, To: to}
	}

	if t := sim.Table(); t != nil {
		sc.Levels = make([][]float64, t.Calls())
		for c := range sc.Levels {
			sc.Levels[c] = t.Column(c)
		}
	}
	return sc, nil
}

// Extent returns the bounding box of everything drawn, arrows included.
func (s *Scene) Extent() (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	grow := func(p common.Vector) {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}
	for _, p := range s.Mics {
		grow(p)
	}
	for _, a := range s.Arrows {
		grow(a.From)
		grow(a.To)
	}
	return minX, maxX, minY, maxY
}

// LevelRange returns the smallest and largest received level in the scene.
func (s *Scene) LevelRange() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, col := range s.Levels {
		for _, l := range col {
			lo, hi = math.Min(lo, l), math.Max(hi, l)
		}
	}
	return lo, hi, lo <= hi
}

// Viewport maps world coordinates to screen pixels, y up.
type Viewport struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// FitViewport scales and centres the world box on a width x height screen,
// keeping the aspect ratio and leaving padding pixels on every side.
func FitViewport(minX, maxX, minY, maxY float64, width, height int, padding float64) Viewport {
	if math.IsInf(minX, 0) || math.IsInf(maxX, 0) || math.IsInf(minY, 0) || math.IsInf(maxY, 0) {
		return Viewport{Scale: 1, OffsetX: float64(width) / 2, OffsetY: float64(height) / 2}
	}

	worldWidth := maxX - minX
	worldHeight := maxY - minY
	if worldWidth == 0 {
		worldWidth = 1
	}
	if worldHeight == 0 {
		worldHeight = 1
	}

	scaleX := (float64(width) - 2*padding) / worldWidth
	scaleY := (float64(height) - 2*padding) / worldHeight
	scale := math.Min(scaleX, scaleY)
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}

	centerX := (minX + maxX) / 2
	centerY := (minY + maxY) / 2
	return Viewport{
		Scale:   scale,
		OffsetX: float64(width)/2 - centerX*scale,
		OffsetY: float64(height)/2 + centerY*scale,
	}
}

// ToScreen converts world coordinates to screen coordinates.
func (v Viewport) ToScreen(x, y float64) (float32, float32) {
	return float32(x*v.Scale + v.OffsetX), float32(v.OffsetY - y*v.Scale)
}

// LevelColor maps level linearly from blue at lo to red at hi.
func LevelColor(level, lo, hi float64) color.RGBA {
	t := 0.5
	if hi > lo {
		t = (level - lo) / (hi - lo)
	}
	t = math.Max(0, math.Min(1, t))
	return color.RGBA{R: uint8(math.Round(255 * t)), G: 0, B: uint8(math.Round(255 * (1 - t))), A: 255}
}
