package simulation

import (
	"fmt"

	"github.com/google/uuid"

	"reclevel-sim/internal/common"
)

// Microphone is a fixed receiver. Microphones are ideal: flat response and
// no noise floor.
type Microphone struct {
	id       string
	name     string
	position common.Vector
}

// NewMicrophone creates a microphone at pos. An empty name defaults to the ID.
func NewMicrophone(pos common.Vector, name string) *Microphone {
	id := fmt.Sprintf("mic-%s", uuid.NewString()[:8])
	if name == "" {
		name = id
	}
	return &Microphone{
		id:       id,
		name:     name,
		position: pos.Clone(),
	}
}

// GetID returns the unique identifier of the microphone.
func (m *Microphone) GetID() string {
	return m.id
}

// Name returns the display name of the microphone.
func (m *Microphone) Name() string {
	return m.name
}

// GetPosition returns the position of the microphone.
func (m *Microphone) GetPosition() common.Vector {
	return m.position.Clone()
}

// SetPosition sets the position of the microphone.
func (m *Microphone) SetPosition(pos common.Vector) error {
	if pos.Dimension() != m.position.Dimension() {
		return &common.DimensionMismatchError{Want: m.position.Dimension(), Got: pos.Dimension()}
	}
	if err := pos.CheckFinite(); err != nil {
		return err
	}
	m.position = pos.Clone()
	return nil
}

// Update does nothing: microphones are static.
func (m *Microphone) Update(deltaTime float64, bounds []float64) {}

func (m *Microphone) String() string {
	return fmt.Sprintf("Mic[%s] Pos: %s", m.name, m.position)
}
