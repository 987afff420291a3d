package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"reclevel-sim/internal/common"
	"reclevel-sim/internal/multilateration"
	"reclevel-sim/internal/reclevel"
)

// ErrNoBat is returned when calls are requested before a bat was added.
var ErrNoBat = errors.New("simulation has no bat")

// Localization is where a call appears to come from when its received
// levels are turned back into ranges assuming an omnidirectional source of
// known level. Position is nil when the array geometry could not locate it.
type Localization struct {
	Position common.Vector
	Residual float64
	Error    float64 // distance from the true call position
}

// Simulation holds a microphone array, one flying bat and the calls it made.
type Simulation struct {
	dimension      int
	bounds         []float64                   // [minX, maxX, minY, maxY, ...]
	objects        map[string]SimulationObject // all objects, by ID
	mics           []*Microphone               // in insertion order; rows of the level table
	bat            *Bat
	calls          []Call
	simulationTime float64
	tickDuration   time.Duration

	levelOpts []reclevel.Option
	logger    *log.Logger
	rng       *rand.Rand

	table         *reclevel.Table
	estimates     []reclevel.Summary // apparent source level per call
	localizations []Localization
	computedAt    []common.Vector // mic positions the results were computed for
}

// NewSimulation creates a new simulation environment.
func NewSimulation(dimension int, bounds []float64, tickDuration time.Duration) (*Simulation, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	if len(bounds) != dimension*2 {
		return nil, fmt.Errorf("bounds length must be dimension * 2, got %d, expected %d", len(bounds), dimension*2)
	}
	if tickDuration <= 0 {
		return nil, fmt.Errorf("tick duration must be positive, got %s", tickDuration)
	}

	return &Simulation{
		dimension:    dimension,
		bounds:       append([]float64(nil), bounds...),
		objects:      make(map[string]SimulationObject),
		tickDuration: tickDuration,
		logger:       log.Default(),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// SetLogger replaces the progress logger. nil silences it.
func (s *Simulation) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	s.logger = l
}

// Seed makes random microphone placement reproducible.
func (s *Simulation) Seed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// SetLevelOptions sets the options passed to the received-level calculator.
func (s *Simulation) SetLevelOptions(opts ...reclevel.Option) {
	s.levelOpts = opts
}

// AddObject adds a simulation object to the simulation.
func (s *Simulation) AddObject(obj SimulationObject) error {
	if obj.GetPosition().Dimension() != s.dimension {
		return fmt.Errorf("object dimension %d does not match simulation dimension %d", obj.GetPosition().Dimension(), s.dimension)
	}
	if err := obj.GetPosition().CheckFinite(); err != nil {
		return fmt.Errorf("object %s: %w", obj.GetID(), err)
	}
	id := obj.GetID()
	if _, exists := s.objects[id]; exists {
		return fmt.Errorf("object with ID %s already exists", id)
	}

	switch v := obj.(type) {
	case *Microphone:
		s.mics = append(s.mics, v)
	case *Bat:
		if s.bat != nil {
			return fmt.Errorf("simulation already has bat %s", s.bat.GetID())
		}
		if err := v.within(s.bounds); err != nil {
			return err
		}
		s.bat = v
	}
	s.objects[id] = obj
	s.invalidate()
	return nil
}

// AddMicrophone adds a microphone at pos.
func (s *Simulation) AddMicrophone(pos common.Vector, name string) (*Microphone, error) {
	mic := NewMicrophone(pos, name)
	if err := s.AddObject(mic); err != nil {
		return nil, err
	}
	return mic, nil
}

// AddRandomMicrophone adds a microphone at a random position within bounds.
func (s *Simulation) AddRandomMicrophone() (*Microphone, error) {
	pos, err := common.NewRandomVector(s.rng, s.dimension, s.bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random position for microphone: %w", err)
	}
	return s.AddMicrophone(pos, "")
}

// SetBat adds a bat that will fly path at speed.
func (s *Simulation) SetBat(path []common.Vector, speed float64) (*Bat, error) {
	bat, err := NewBat(path, speed)
	if err != nil {
		return nil, err
	}
	if err := s.AddObject(bat); err != nil {
		return nil, err
	}
	return bat, nil
}

// Emit records a call at the bat's current position.
func (s *Simulation) Emit(level, direction float64) (Call, error) {
	if s.bat == nil {
		return Call{}, ErrNoBat
	}
	c := newCall(len(s.calls), level, s.bat.GetPosition(), direction, s.simulationTime)
	s.calls = append(s.calls, c)
	s.invalidate()
	s.logger.Printf("  %s", c)
	return c, nil
}

// Run flies the bat along its path, calling at every waypoint according to
// plan, then computes the received levels of all calls. plan must have one
// entry per waypoint.
func (s *Simulation) Run(ctx context.Context, plan []CallPlan) error {
	if s.bat == nil {
		return ErrNoBat
	}
	if n := len(s.bat.path); len(plan) != n {
		return fmt.Errorf("call plan has %d entries for %d waypoints", len(plan), n)
	}
	if len(s.calls) > 0 || s.bat.Waypoint() != 0 {
		return errors.New("simulation has already been run")
	}

	s.logger.Printf("Starting simulation: Dimension=%d, Bounds=%v, TickDuration=%s, Mics=%d",
		s.dimension, s.bounds, s.tickDuration, len(s.mics))

	deltaTime := s.tickDuration.Seconds() // Time elapsed in each step

	// The bat starts on its first waypoint and calls there
	if _, err := s.Emit(plan[s.bat.Waypoint()].Level, plan[s.bat.Waypoint()].Direction); err != nil {
		return err
	}
	for !s.bat.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.simulationTime += deltaTime

		// 1. Move everything (microphones stay put)
		for _, obj := range s.objects {
			obj.Update(deltaTime, s.bounds)
		}

		// 2. Call on reaching a waypoint
		if s.bat.Arrived() {
			p := plan[s.bat.Waypoint()]
			if _, err := s.Emit(p.Level, p.Direction); err != nil {
				return err
			}
		}
	}

	// 3. Levels, estimates and localizations for the whole flight
	return s.Compute(ctx)
}

// Compute calculates the received level of every recorded call at every
// microphone and the apparent source level each microphone implies.
func (s *Simulation) Compute(ctx context.Context) error {
	specs := make([]reclevel.CallSpec, len(s.calls))
	for i, c := range s.calls {
		specs[i] = c.Spec()
	}
	positions := s.MicrophonePositions() // Table rows, in insertion order

	table, err := reclevel.CalculateTable(ctx, specs, positions, s.levelOpts...)
	if err != nil {
		return fmt.Errorf("computing received levels: %w", err)
	}

	// Invert the spreading law at each mic, knowing where the call came from
	estimates := make([]reclevel.Summary, len(s.calls))
	for i, c := range s.calls {
		est, err := reclevel.EstimateSourceLevels(table.Column(i), c.Position, positions, s.levelOpts...)
		if err != nil {
			return fmt.Errorf("estimating source level of call %d: %w", i, err)
		}
		estimates[i] = reclevel.Summarize(est)
	}

	s.table = table
	s.estimates = estimates
	s.localizations = s.locate(table, positions)
	s.computedAt = positions
	s.logger.Printf("Computed received levels: %d mics x %d calls", table.Receivers(), table.Calls())
	return nil
}

func (s *Simulation) locate(table *reclevel.Table, positions []common.Vector) []Localization {
	ref := reclevel.ApplyOptions(s.levelOpts...).ReferenceDistance
	out := make([]Localization, len(s.calls))
	for i, c := range s.calls {
		// Known on-axis level turns each received level into a range
		ranges, err := multilateration.RangesFromLevels(c.Level, table.Column(i), positions, ref)
		if err != nil {
			s.logger.Printf("  Call %d: %v", i, err)
			continue
		}
		sol, err := multilateration.SolveLeastSquares(ranges, s.dimension)
		if err != nil {
			// Leave the call unlocated, the levels are still valid
			s.logger.Printf("  Call %d: localization failed: %v", i, err)
			continue
		}
		locErr, _ := multilateration.LocalizationError(c.Position, sol.Position)
		out[i] = Localization{Position: sol.Position, Residual: sol.ResidualError, Error: locErr}
	}
	return out
}

func (s *Simulation) invalidate() {
	s.table = nil
	s.estimates = nil
	s.localizations = nil
	s.computedAt = nil
}

// current reports whether computed results exist and no microphone has been
// moved since. Microphones handed out by Microphones or GetObject can be
// moved with SetPosition behind the simulation's back.
func (s *Simulation) current() bool {
	if s.table == nil || len(s.computedAt) != len(s.mics) {
		return false
	}
	for i, m := range s.mics {
		if !floats.Equal(s.computedAt[i], m.position) {
			return false
		}
	}
	return true
}

// Dimension returns the dimensionality of the simulation space.
func (s *Simulation) Dimension() int {
	return s.dimension
}

// Bounds returns a copy of the simulation bounds.
func (s *Simulation) Bounds() []float64 {
	return append([]float64(nil), s.bounds...)
}

// CurrentTime returns the elapsed simulation time in seconds.
func (s *Simulation) CurrentTime() float64 {
	return s.simulationTime
}

// GetObject returns an object by its ID.
func (s *Simulation) GetObject(id string) (SimulationObject, bool) {
	obj, exists := s.objects[id]
	return obj, exists
}

// AllObjects returns the microphones in order followed by the bat.
func (s *Simulation) AllObjects() []SimulationObject {
	out := make([]SimulationObject, 0, len(s.mics)+1)
	for _, m := range s.mics {
		out = append(out, m)
	}
	if s.bat != nil {
		out = append(out, s.bat)
	}
	return out
}

// Microphones returns the microphones in insertion order.
func (s *Simulation) Microphones() []*Microphone {
	return append([]*Microphone(nil), s.mics...)
}

// MicrophonePositions returns the microphone positions in insertion order.
func (s *Simulation) MicrophonePositions() []common.Vector {
	out := make([]common.Vector, len(s.mics))
	for i, m := range s.mics {
		out[i] = m.GetPosition()
	}
	return out
}

// Bat returns the bat, or nil.
func (s *Simulation) Bat() *Bat {
	return s.bat
}

// Calls returns the recorded calls in emission order.
func (s *Simulation) Calls() []Call {
	return append([]Call(nil), s.calls...)
}

// Table returns the last computed received-level table, or nil if the
// scene changed since. Call Compute again after moving a microphone.
func (s *Simulation) Table() *reclevel.Table {
	if !s.current() {
		return nil
	}
	return s.table
}

// Estimates returns the apparent source level summary of each call from the
// last Compute.
func (s *Simulation) Estimates() []reclevel.Summary {
	if !s.current() {
		return nil
	}
	return append([]reclevel.Summary(nil), s.estimates...)
}

// Localizations returns the position of each call recovered from its
// received levels in the last Compute.
func (s *Simulation) Localizations() []Localization {
	if !s.current() {
		return nil
	}
	return append([]Localization(nil), s.localizations...)
}

// PrintState writes the microphones, the bat, the calls and, when
// available, the received-level table.
func (s *Simulation) PrintState(w io.Writer) {
	fmt.Fprintln(w, "--- Current Simulation State ---")
	fmt.Fprintf(w, "Time: %.2fs\n", s.simulationTime)
	fmt.Fprintln(w, "Microphones:")
	if len(s.mics) == 0 {
		fmt.Fprintln(w, "  None")
	}
	for _, m := range s.mics {
		fmt.Fprintf(w, "  %s\n", m)
	}
	if s.bat != nil {
		fmt.Fprintf(w, "%s\n", s.bat)
	}
	fmt.Fprintln(w, "Calls:")
	if len(s.calls) == 0 {
		fmt.Fprintln(w, "  None")
	}
	estimates, located := s.Estimates(), s.Localizations()
	for i, c := range s.calls {
		fmt.Fprintf(w, "  %s", c)
		if i < len(estimates) {
			fmt.Fprintf(w, " | apparent SL %s", estimates[i])
		}
		if i < len(located) && located[i].Position != nil {
			loc := located[i]
			fmt.Fprintf(w, " | located %s (err %.3f)", loc.Position, loc.Error)
		}
		fmt.Fprintln(w)
	}
	if table := s.Table(); table != nil {
		names := make([]string, len(s.mics))
		for i, m := range s.mics {
			names[i] = m.Name()
		}
		fmt.Fprintln(w, "Received levels (dB):")
		fmt.Fprint(w, table.Format(names, nil))
	}
	fmt.Fprintln(w, "-----------------------------")
}
