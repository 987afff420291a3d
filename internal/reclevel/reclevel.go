// Package reclevel computes received sound levels at a set of receivers from
// a point source under free-field spherical spreading, with no directivity.
//
// A source of on-axis level L (dB re the reference distance r0) is heard at
// distance d with level
//
//	L - 20*log10(d/r0)
//
// which loses 6.02 dB for every doubling of distance.
package reclevel

import (
	"errors"
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"reclevel-sim/internal/common"
)

var (
	// ErrDegenerateGeometry is matched by every DegenerateGeometryError.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrDimensionMismatch is returned (wrapped) when source and receivers
	// do not share a dimensionality.
	ErrDimensionMismatch = common.ErrDimensionMismatch
	// ErrInvalidReferenceDistance is returned for a non-positive or
	// non-finite reference distance.
	ErrInvalidReferenceDistance = errors.New("reference distance must be positive and finite")
	// ErrInvalidLevel is returned for a NaN or infinite source level.
	ErrInvalidLevel = errors.New("source level must be finite")
	// ErrInvalidPosition is returned (wrapped) when the source or a receiver
	// has a NaN or infinite coordinate.
	ErrInvalidPosition = common.ErrNonFinite
)

// DegenerateGeometryError reports a receiver that (nearly) coincides with
// the source, where the spreading law has no finite value.
type DegenerateGeometryError struct {
	Receiver int
	Distance float64
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("receiver %d is %g from the source: received level undefined", e.Receiver, e.Distance)
}

// Is lets callers test against ErrDegenerateGeometry.
func (e *DegenerateGeometryError) Is(target error) bool {
	return target == ErrDegenerateGeometry
}

// SpreadingLoss returns the spherical spreading loss in dB between the
// reference distance and d.
func SpreadingLoss(d, reference float64) float64 {
	return linearToDB(d / reference)
}

// linearToDB converts a linear amplitude ratio to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func linearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}
	if linear == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(linear)
}

// Distances returns the Euclidean distance from source to each receiver, in
// receiver order. 2D geometry is computed in one vectorised pass.
// Positions must be finite.
func Distances(source common.Vector, receivers []common.Vector) ([]float64, error) {
	dim := source.Dimension()
	if err := source.CheckFinite(); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	for i, r := range receivers {
		if r.Dimension() != dim {
			return nil, fmt.Errorf("receiver %d: %w", i, &common.DimensionMismatchError{Want: dim, Got: r.Dimension()})
		}
		if err := r.CheckFinite(); err != nil {
			return nil, fmt.Errorf("receiver %d: %w", i, err)
		}
	}

	out := make([]float64, len(receivers))
	if len(receivers) == 0 {
		return out, nil
	}

	if dim == 2 {
		dx := make([]float64, len(receivers))
		dy := make([]float64, len(receivers))
		for i, r := range receivers {
			dx[i] = r[0] - source[0]
			dy[i] = r[1] - source[1]
		}
		vecmath.Magnitude(out, dx, dy)
		return out, nil
	}

	for i, r := range receivers {
		out[i] = floats.Distance(source, r, 2)
	}
	return out, nil
}

// Calculate returns the received level at each receiver for a source of
// on-axis level onAxisLevel (dB re the reference distance) at source. The
// result has one entry per receiver, in receiver order.
//
// A receiver closer than the configured epsilon fails with a
// *DegenerateGeometryError unless WithClamp is given.
func Calculate(onAxisLevel float64, source common.Vector, receivers []common.Vector, opts ...Option) ([]float64, error) {
	cfg := ApplyOptions(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return calculate(cfg, onAxisLevel, source, receivers)
}

// CalcMicLevelNoBeamshape is Calculate under the name used by the
// beamshapes tutorials: mic levels for an omnidirectional call.
func CalcMicLevelNoBeamshape(callLevel float64, source common.Vector, mics []common.Vector, opts ...Option) ([]float64, error) {
	return Calculate(callLevel, source, mics, opts...)
}

func calculate(cfg Config, onAxisLevel float64, source common.Vector, receivers []common.Vector) ([]float64, error) {
	if math.IsNaN(onAxisLevel) || math.IsInf(onAxisLevel, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidLevel, onAxisLevel)
	}

	dists, err := Distances(source, receivers)
	if err != nil {
		return nil, err
	}
	if err := cfg.resolve(dists); err != nil {
		return nil, err
	}

	levels := make([]float64, len(dists))
	for i, d := range dists {
		levels[i] = onAxisLevel - SpreadingLoss(d, cfg.ReferenceDistance)
	}
	return levels, nil
}

// resolve applies the degenerate-geometry policy to dists in place.
func (cfg Config) resolve(dists []float64) error {
	for i, d := range dists {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return fmt.Errorf("receiver %d: %w: distance is %g", i, ErrInvalidPosition, d)
		}
		if cfg.ClampDistance > 0 {
			if d < cfg.ClampDistance {
				dists[i] = cfg.ClampDistance
			}
			continue
		}
		if !(d > cfg.Epsilon) {
			return &DegenerateGeometryError{Receiver: i, Distance: d}
		}
	}
	return nil
}
