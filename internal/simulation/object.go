package simulation

import "reclevel-sim/internal/common"

// SimulationObject defines the interface for any object within the simulation.
type SimulationObject interface {
	// GetPosition returns the current position of the object.
	GetPosition() common.Vector
	// SetPosition sets the position of the object.
	SetPosition(pos common.Vector) error
	// Update advances the object by deltaTime seconds. bounds limit the
	// simulation space as [minX, maxX, minY, maxY, ...].
	Update(deltaTime float64, bounds []float64)
	// GetID returns the unique identifier of the object.
	GetID() string
}
