package common

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch is matched by every DimensionMismatchError through errors.Is.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// DimensionMismatchError reports two positions that do not live in the same space.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vectors must have the same dimension: %d != %d", e.Want, e.Got)
}

// Is lets callers test against ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// ErrNonFinite is returned (wrapped) for a position with a NaN or infinite
// coordinate.
var ErrNonFinite = errors.New("position must be finite")

// Vector represents a point or vector in n-dimensional space.
type Vector []float64

// NewVector creates a new vector of a given dimension.
func NewVector(dimension int) Vector {
	return make(Vector, dimension)
}

// NewRandomVector creates a vector with random coordinates within given bounds.
// bounds should have dimension * 2 elements: [minX, maxX, minY, maxY, ...]
func NewRandomVector(rng *rand.Rand, dimension int, bounds []float64) (Vector, error) {
	if len(bounds) != dimension*2 {
		return nil, fmt.Errorf("bounds length must be dimension * 2, got %d, expected %d", len(bounds), dimension*2)
	}
	v := NewVector(dimension)
	for i := 0; i < dimension; i++ {
		min := bounds[i*2]
		max := bounds[i*2+1]
		v[i] = min + rng.Float64()*(max-min)
	}
	return v, nil
}

// Dimension returns the dimension of the vector.
func (v Vector) Dimension() int {
	return len(v)
}

// CheckFinite returns an error wrapping ErrNonFinite if any coordinate is NaN
// or infinite.
func (v Vector) CheckFinite() error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: coordinate %d is %g", ErrNonFinite, i, x)
		}
	}
	return nil
}

func (v Vector) checkDimension(other Vector) error {
	if v.Dimension() != other.Dimension() {
		return &DimensionMismatchError{Want: v.Dimension(), Got: other.Dimension()}
	}
	return nil
}

// Distance calculates the Euclidean distance between two vectors.
func (v Vector) Distance(other Vector) (float64, error) {
	if err := v.checkDimension(other); err != nil {
		return 0, err
	}
	return floats.Distance(v, other, 2), nil
}

// Add adds another vector to this vector.
func (v Vector) Add(other Vector) (Vector, error) {
	if err := v.checkDimension(other); err != nil {
		return nil, err
	}
	result := v.Clone()
	vecmath.AddBlockInPlace(result, other)
	return result, nil
}

// Subtract subtracts another vector from this vector.
func (v Vector) Subtract(other Vector) (Vector, error) {
	if err := v.checkDimension(other); err != nil {
		return nil, err
	}
	result := NewVector(v.Dimension())
	floats.SubTo(result, v, other)
	return result, nil
}

// Scale multiplies the vector by a scalar value.
func (v Vector) Scale(scalar float64) Vector {
	result := NewVector(v.Dimension())
	vecmath.ScaleBlock(result, v, scalar)
	return result
}

// Heading returns the direction from v to other in radians, measured
// clockwise from the +y axis and wrapped to [0, 2π). Only the first two
// coordinates are used.
func (v Vector) Heading(other Vector) (float64, error) {
	if err := v.checkDimension(other); err != nil {
		return 0, err
	}
	if v.Dimension() < 2 {
		return 0, fmt.Errorf("heading needs at least 2 dimensions, got %d", v.Dimension())
	}
	h := math.Atan2(other[0]-v[0], other[1]-v[1])
	if h < 0 {
		h += 2 * math.Pi
	}
	return h, nil
}

// String returns a string representation of the vector.
func (v Vector) String() string {
	strs := make([]string, len(v))
	for i, val := range v {
		strs[i] = fmt.Sprintf("%.3f", val)
	}
	return fmt.Sprintf("[%s]", strings.Join(strs, ", "))
}

// Clone creates a deep copy of the vector.
func (v Vector) Clone() Vector {
	clone := make(Vector, len(v))
	copy(clone, v)
	return clone
}

// NormSq calculates the squared Euclidean norm of the vector.
func (v Vector) NormSq() float64 {
	return floats.Dot(v, v)
}
