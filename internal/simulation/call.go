package simulation

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"reclevel-sim/internal/common"
	"reclevel-sim/internal/reclevel"
)

// CallPlan is what the bat does at one waypoint.
type CallPlan struct {
	Level     float64 // on-axis level, dB SPL re the reference distance
	Direction float64 // radians, clockwise from +y
}

// Call is one emitted vocalization.
type Call struct {
	ID        string
	Index     int
	Level     float64
	Position  common.Vector
	Direction float64
	Time      float64 // simulation seconds at emission
}

func newCall(index int, level float64, pos common.Vector, direction, t float64) Call {
	return Call{
		ID:        fmt.Sprintf("call-%s", uuid.NewString()[:8]),
		Index:     index,
		Level:     level,
		Position:  pos.Clone(),
		Direction: direction,
		Time:      t,
	}
}

// Spec returns the part of the call the level calculator needs.
func (c Call) Spec() reclevel.CallSpec {
	return reclevel.CallSpec{Level: c.Level, Source: c.Position.Clone()}
}

func (c Call) String() string {
	return fmt.Sprintf("Call[%d] t=%.3fs Pos: %s SL: %.1f dB Direction: %.1f°",
		c.Index, c.Time, c.Position, c.Level, c.Direction*180/math.Pi)
}
