package simulation

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"reclevel-sim/internal/common"
)

// RoomSize is the side of the square flight room used by RoomArray.
const RoomSize = 2.5

// RoomArray returns 12 microphones on three walls of a 2.5 m room at flight
// height, four per wall on the left, far and right walls, ordered clockwise
// from the bottom-left corner.
func RoomArray() []common.Vector {
	mics := make([]common.Vector, 0, 12)
	for _, y := range floats.Span(make([]float64, 4), 0, 2) {
		mics = append(mics, common.Vector{0, y})
	}
	for _, x := range floats.Span(make([]float64, 4), 0.5, 2) {
		mics = append(mics, common.Vector{x, RoomSize})
	}
	ys := floats.Span(make([]float64, 4), 0, 2)
	for i := len(ys) - 1; i >= 0; i-- {
		mics = append(mics, common.Vector{RoomSize, ys[i]})
	}
	return mics
}

// TutorialPath is where the bat was at each of its five calls.
func TutorialPath() []common.Vector {
	return []common.Vector{
		{0.45, 0.3},
		{1.0, 0.8},
		{1.5, 1.2},
		{2.0, 0.6},
		{2.4, 0.4},
	}
}

// TutorialPlan is a bat closing in on prey: call level drops while it turns
// across the room.
func TutorialPlan() []CallPlan {
	levels := []float64{100, 96, 90, 84, 84}
	directions := []float64{15, 60, 140, 160, 200}
	plan := make([]CallPlan, len(levels))
	for i := range levels {
		plan[i] = CallPlan{Level: levels[i], Direction: directions[i] * math.Pi / 180}
	}
	return plan
}

// TutorialScenario builds the room, the array and the bat. It does not run.
func TutorialScenario() (*Simulation, error) {
	sim, err := NewSimulation(2, []float64{0, RoomSize, 0, RoomSize}, 10*time.Millisecond)
	if err != nil {
		return nil, err
	}
	for i, pos := range RoomArray() {
		if _, err := sim.AddMicrophone(pos, fmt.Sprintf("mic%02d", i)); err != nil {
			return nil, err
		}
	}
	if _, err := sim.SetBat(TutorialPath(), DefaultFlightSpeed); err != nil {
		return nil, err
	}
	return sim, nil
}
