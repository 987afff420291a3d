// Package config reads scenario files: gcfg (INI-style) files describing the
// microphone array, the bat's calls and the level-calculation settings,
// optionally pointing at whitespace-separated position tables.
package config

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"time"

	"github.com/phil-mansfield/table"
	"gopkg.in/gcfg.v1"

	"reclevel-sim/internal/common"
	"reclevel-sim/internal/reclevel"
	"reclevel-sim/internal/simulation"
)

const ExampleScenarioFile = `[Scenario]

#######################
# Required Parameters #
#######################

# Number of spatial dimensions, 1 to 3. Positions use X, then Y, then Z.
Dimension = 2

#######################
# Optional Parameters #
#######################

# Distance (m) at which call levels are quoted. Default is 1.
# ReferenceDistance = 1

# By default a microphone sitting on top of a call position is an error.
# A positive ClampDistance instead treats closer microphones as being this far.
# ClampDistance = 0.05

# Number of calls computed concurrently. Default is one per CPU.
# Parallelism = 4

# Flight speed (m/s) and simulation step (ms). Defaults are 4 and 10.
# FlightSpeed = 4
# TickMillis = 10

# Room bounds as repeated Bound lines: minX, maxX, minY, maxY, ... Defaults
# to the bounding box of all microphones and calls.
Bound = 0
Bound = 2.5
Bound = 0
Bound = 2.5

# Whitespace-separated tables of extra positions. MicFile has one microphone
# per line (X Y [Z]). PathFile has one call per line (X Y [Z] Level
# Direction). Relative paths are relative to this file.
# MicFile = mics.txt
# PathFile = path.txt

# Microphones and calls are ordered by name.
[Mic "mic00"]
X = 0
Y = 0
[Mic "mic01"]
X = 0
Y = 0.6666666666666666
[Mic "mic02"]
X = 0
Y = 1.3333333333333333
[Mic "mic03"]
X = 0
Y = 2
[Mic "mic04"]
X = 0.5
Y = 2.5
[Mic "mic05"]
X = 1
Y = 2.5
[Mic "mic06"]
X = 1.5
Y = 2.5
[Mic "mic07"]
X = 2
Y = 2.5
[Mic "mic08"]
X = 2.5
Y = 2
[Mic "mic09"]
X = 2.5
Y = 1.3333333333333333
[Mic "mic10"]
X = 2.5
Y = 0.6666666666666666
[Mic "mic11"]
X = 2.5
Y = 0

# Level is dB SPL re 20 uPa at ReferenceDistance. Direction is in degrees,
# clockwise from +Y.
[Call "call1"]
X = 0.45
Y = 0.3
Level = 100
Direction = 15
[Call "call2"]
X = 1.0
Y = 0.8
Level = 96
Direction = 60
[Call "call3"]
X = 1.5
Y = 1.2
Level = 90
Direction = 140
[Call "call4"]
X = 2.0
Y = 0.6
Level = 84
Direction = 160
[Call "call5"]
X = 2.4
Y = 0.4
Level = 84
Direction = 200`

type ScenarioConfig struct {
	// Required
	Dimension int

	// Optional
	ReferenceDistance float64
	ClampDistance     float64
	Parallelism       int
	FlightSpeed       float64
	TickMillis        float64
	Bound             []float64
	MicFile           string
	PathFile          string
}

type MicConfig struct {
	X, Y, Z float64
}

type CallConfig struct {
	X, Y, Z   float64
	Level     float64
	Direction float64
}

// Wrapper is the gcfg target for a scenario file.
type Wrapper struct {
	Scenario ScenarioConfig
	Mic      map[string]*MicConfig
	Call     map[string]*CallConfig
}

// NamedPosition is a microphone position and its display name.
type NamedPosition struct {
	Name     string
	Position common.Vector
}

// Scenario is a validated scenario ready to be simulated.
type Scenario struct {
	Dimension         int
	Bounds            []float64
	Mics              []NamedPosition
	Path              []common.Vector
	Plan              []simulation.CallPlan
	FlightSpeed       float64
	Tick              time.Duration
	ReferenceDistance float64
	LevelOptions      []reclevel.Option
}

// ReadFile parses and validates the scenario file fname.
func ReadFile(fname string) (*Scenario, error) {
	wrap := &Wrapper{}
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", fname, err)
	}
	return wrap.Scenario.CheckInit(wrap, filepath.Dir(fname))
}

// ReadString parses and validates a scenario held in memory. Table files
// are resolved against dir.
func ReadString(s, dir string) (*Scenario, error) {
	wrap := &Wrapper{}
	if err := gcfg.ReadStringInto(wrap, s); err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return wrap.Scenario.CheckInit(wrap, dir)
}

// CheckInit fills in defaults, loads table files and validates the result.
func (con *ScenarioConfig) CheckInit(wrap *Wrapper, dir string) (*Scenario, error) {
	if con.Dimension < 1 || con.Dimension > 3 {
		return nil, fmt.Errorf("Dimension must be 1, 2 or 3, but is %d", con.Dimension)
	}
	if con.ReferenceDistance == 0 {
		con.ReferenceDistance = reclevel.DefaultReferenceDistance
	} else if !(con.ReferenceDistance > 0) || !finite(con.ReferenceDistance) {
		return nil, fmt.Errorf("ReferenceDistance must be positive, but is %g", con.ReferenceDistance)
	}
	if !(con.ClampDistance >= 0) || !finite(con.ClampDistance) {
		return nil, fmt.Errorf("ClampDistance must be non-negative, but is %g", con.ClampDistance)
	}
	if con.Parallelism < 0 {
		return nil, fmt.Errorf("Parallelism must be non-negative, but is %d", con.Parallelism)
	}
	if con.FlightSpeed == 0 {
		con.FlightSpeed = simulation.DefaultFlightSpeed
	} else if !(con.FlightSpeed > 0) || !finite(con.FlightSpeed) {
		return nil, fmt.Errorf("FlightSpeed must be positive, but is %g", con.FlightSpeed)
	}
	if con.TickMillis == 0 {
		con.TickMillis = 10
	} else if !(con.TickMillis > 0) || !finite(con.TickMillis) {
		return nil, fmt.Errorf("TickMillis must be positive, but is %g", con.TickMillis)
	}
	if len(con.Bound) != 0 && len(con.Bound) != 2*con.Dimension {
		return nil, fmt.Errorf("need %d Bound values for Dimension %d, got %d", 2*con.Dimension, con.Dimension, len(con.Bound))
	}
	for i, b := range con.Bound {
		if !finite(b) {
			return nil, fmt.Errorf("Bound %d must be finite, but is %g", i, b)
		}
	}

	sc := &Scenario{
		Dimension:         con.Dimension,
		FlightSpeed:       con.FlightSpeed,
		Tick:              time.Duration(con.TickMillis * float64(time.Millisecond)),
		ReferenceDistance: con.ReferenceDistance,
	}

	if con.MicFile != "" {
		rows, err := readColumns(resolve(dir, con.MicFile), con.Dimension)
		if err != nil {
			return nil, err
		}
		for i, row := range rows {
			sc.Mics = append(sc.Mics, NamedPosition{Name: fmt.Sprintf("file%02d", i), Position: row})
		}
	}
	for _, name := range sortedKeys(wrap.Mic) {
		m := wrap.Mic[name]
		sc.Mics = append(sc.Mics, NamedPosition{Name: name, Position: position(con.Dimension, m.X, m.Y, m.Z)})
	}

	if con.PathFile != "" {
		rows, err := readColumns(resolve(dir, con.PathFile), con.Dimension+2)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			sc.Path = append(sc.Path, common.Vector(row[:con.Dimension]).Clone())
			sc.Plan = append(sc.Plan, simulation.CallPlan{
				Level:     row[con.Dimension],
				Direction: row[con.Dimension+1] * math.Pi / 180,
			})
		}
	}
	for _, name := range sortedKeys(wrap.Call) {
		c := wrap.Call[name]
		sc.Path = append(sc.Path, position(con.Dimension, c.X, c.Y, c.Z))
		sc.Plan = append(sc.Plan, simulation.CallPlan{Level: c.Level, Direction: c.Direction * math.Pi / 180})
	}

	if len(sc.Mics) == 0 {
		return nil, fmt.Errorf("scenario has no microphones")
	}
	for _, m := range sc.Mics {
		if err := m.Position.CheckFinite(); err != nil {
			return nil, fmt.Errorf("microphone %s: %w", m.Name, err)
		}
	}
	for i, p := range sc.Path {
		if err := p.CheckFinite(); err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		if !finite(sc.Plan[i].Level) || !finite(sc.Plan[i].Direction) {
			return nil, fmt.Errorf("call %d: Level and Direction must be finite, but are %g and %g",
				i, sc.Plan[i].Level, sc.Plan[i].Direction)
		}
	}
	if len(sc.Path) == 0 {
		return nil, fmt.Errorf("scenario has no calls")
	}

	if len(con.Bound) != 0 {
		sc.Bounds = append([]float64(nil), con.Bound...)
		for i, p := range sc.Path {
			for j, x := range p {
				if x < sc.Bounds[2*j] || x > sc.Bounds[2*j+1] {
					return nil, fmt.Errorf("call %d at %s lies outside Bound", i, p)
				}
			}
		}
	} else {
		sc.Bounds = boundingBox(con.Dimension, sc.Mics, sc.Path)
	}

	sc.LevelOptions = []reclevel.Option{reclevel.WithReferenceDistance(con.ReferenceDistance)}
	if con.ClampDistance > 0 {
		sc.LevelOptions = append(sc.LevelOptions, reclevel.WithClamp(con.ClampDistance))
	}
	if con.Parallelism > 0 {
		sc.LevelOptions = append(sc.LevelOptions, reclevel.WithParallelism(con.Parallelism))
	}
	return sc, nil
}

// Build creates a simulation holding the scenario's microphones and bat.
func (sc *Scenario) Build() (*simulation.Simulation, error) {
	sim, err := simulation.NewSimulation(sc.Dimension, sc.Bounds, sc.Tick)
	if err != nil {
		return nil, err
	}
	sim.SetLevelOptions(sc.LevelOptions...)
	for _, m := range sc.Mics {
		if _, err := sim.AddMicrophone(m.Position, m.Name); err != nil {
			return nil, fmt.Errorf("microphone %s: %w", m.Name, err)
		}
	}
	if _, err := sim.SetBat(sc.Path, sc.FlightSpeed); err != nil {
		return nil, err
	}
	return sim, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func readColumns(fname string, n int) ([]common.Vector, error) {
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	cols, err := table.ReadTable(fname, idxs, nil)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", fname, err)
	}
	rows := make([]common.Vector, len(cols[0]))
	for i := range rows {
		row := common.NewVector(n)
		for j := range cols {
			row[j] = cols[j][i]
		}
		rows[i] = row
	}
	return rows, nil
}

func position(dim int, x, y, z float64) common.Vector {
	return common.Vector{x, y, z}[:dim].Clone()
}

func resolve(dir, fname string) string {
	if filepath.IsAbs(fname) || dir == "" {
		return fname
	}
	return filepath.Join(dir, fname)
}

func sortedKeys[T any](m map[string]*T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func boundingBox(dim int, mics []NamedPosition, path []common.Vector) []float64 {
	bounds := make([]float64, 2*dim)
	for i := 0; i < dim; i++ {
		bounds[2*i] = math.Inf(1)
		bounds[2*i+1] = math.Inf(-1)
	}
	grow := func(p common.Vector) {
		for i := 0; i < dim; i++ {
			bounds[2*i] = math.Min(bounds[2*i], p[i])
			bounds[2*i+1] = math.Max(bounds[2*i+1], p[i])
		}
	}
	for _, m := range mics {
		grow(m.Position)
	}
	for _, p := range path {
		grow(p)
	}
	return bounds
}
