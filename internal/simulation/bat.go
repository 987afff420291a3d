package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"reclevel-sim/internal/common"
)

// DefaultFlightSpeed is a typical bat flight speed in m/s.
const DefaultFlightSpeed = 4.0

// Bat is a sound source flying a fixed path of waypoints at constant speed.
// It calls once at every waypoint.
type Bat struct {
	id       string
	position common.Vector
	path     []common.Vector
	next     int // index of the waypoint being flown to
	speed    float64
	arrived  bool
}

// NewBat creates a bat sitting on the first waypoint of path.
func NewBat(path []common.Vector, speed float64) (*Bat, error) {
	if len(path) == 0 {
		return nil, errors.New("flight path needs at least one waypoint")
	}
	if !(speed > 0) || math.IsInf(speed, 1) {
		return nil, fmt.Errorf("flight speed must be positive and finite, got %g", speed)
	}
	dim := path[0].Dimension()
	cloned := make([]common.Vector, len(path))
	for i, p := range path {
		if p.Dimension() != dim {
			return nil, fmt.Errorf("waypoint %d: %w", i, &common.DimensionMismatchError{Want: dim, Got: p.Dimension()})
		}
		if err := p.CheckFinite(); err != nil {
			return nil, fmt.Errorf("waypoint %d: %w", i, err)
		}
		cloned[i] = p.Clone()
	}
	return &Bat{
		id:       fmt.Sprintf("bat-%s", uuid.NewString()[:8]),
		position: cloned[0].Clone(),
		path:     cloned,
		next:     1,
		speed:    speed,
	}, nil
}

// GetID returns the unique identifier of the bat.
func (b *Bat) GetID() string {
	return b.id
}

// GetPosition returns the current position of the bat.
func (b *Bat) GetPosition() common.Vector {
	return b.position.Clone()
}

// SetPosition moves the bat without changing the waypoint it is flying to.
func (b *Bat) SetPosition(pos common.Vector) error {
	if pos.Dimension() != b.position.Dimension() {
		return &common.DimensionMismatchError{Want: b.position.Dimension(), Got: pos.Dimension()}
	}
	if err := pos.CheckFinite(); err != nil {
		return err
	}
	b.position = pos.Clone()
	return nil
}

// within fails if a waypoint lies outside bounds. Update clamps to bounds,
// so such a waypoint could never be reached.
func (b *Bat) within(bounds []float64) error {
	for i, p := range b.path {
		for j, x := range p {
			if x < bounds[j*2] || x > bounds[j*2+1] {
				return fmt.Errorf("waypoint %d %s lies outside bounds %v", i, p, bounds)
			}
		}
	}
	return nil
}

// Path returns a copy of the waypoints.
func (b *Bat) Path() []common.Vector {
	out := make([]common.Vector, len(b.path))
	for i, p := range b.path {
		out[i] = p.Clone()
	}
	return out
}

// Done reports whether the last waypoint has been reached.
func (b *Bat) Done() bool {
	return b.next >= len(b.path)
}

// Arrived reports whether the last Update ended on a waypoint.
func (b *Bat) Arrived() bool {
	return b.arrived
}

// Waypoint returns the index of the last waypoint reached.
func (b *Bat) Waypoint() int {
	return b.next - 1
}

// Update flies towards the next waypoint for deltaTime seconds. A step that
// would overshoot stops on the waypoint.
func (b *Bat) Update(deltaTime float64, bounds []float64) {
	b.arrived = false
	if b.Done() {
		return
	}

	target := b.path[b.next]
	remaining, err := b.position.Distance(target)
	if err != nil {
		return
	}

	step := b.speed * deltaTime
	if step >= remaining {
		b.position = target.Clone()
		b.next++
		b.arrived = true
	} else {
		delta, _ := target.Subtract(b.position)
		b.position, _ = b.position.Add(delta.Scale(step / remaining))
	}

	dim := b.position.Dimension()
	if len(bounds) != dim*2 {
		return
	}
	for i := 0; i < dim; i++ {
		if b.position[i] < bounds[i*2] {
			b.position[i] = bounds[i*2]
		} else if b.position[i] > bounds[i*2+1] {
			b.position[i] = bounds[i*2+1]
		}
	}
}

func (b *Bat) String() string {
	return fmt.Sprintf("Bat[%s] Pos: %s Waypoint: %d/%d", b.id, b.position, b.Waypoint()+1, len(b.path))
}
