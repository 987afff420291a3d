package reclevel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"reclevel-sim/internal/common"
)

// EstimateSourceLevels inverts the spreading law: for each receiver it
// returns the source level that would explain the received level if the
// source were omnidirectional. With a directional source these estimates
// disagree across receivers.
func EstimateSourceLevels(received []float64, source common.Vector, receivers []common.Vector, opts ...Option) ([]float64, error) {
	cfg := ApplyOptions(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(received) != len(receivers) {
		return nil, fmt.Errorf("got %d received levels for %d receivers", len(received), len(receivers))
	}

	dists, err := Distances(source, receivers)
	if err != nil {
		return nil, err
	}
	if err := cfg.resolve(dists); err != nil {
		return nil, err
	}

	out := make([]float64, len(dists))
	for i, d := range dists {
		out[i] = received[i] + SpreadingLoss(d, cfg.ReferenceDistance)
	}
	return out, nil
}

// Summary describes a set of source-level estimates.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize returns the mean, sample standard deviation and range of
// levels. The standard deviation of a single value is 0.
func Summarize(levels []float64) Summary {
	if len(levels) == 0 {
		return Summary{Mean: math.NaN(), StdDev: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	}
	s := Summary{
		N:    len(levels),
		Mean: stat.Mean(levels, nil),
		Min:  floats.Min(levels),
		Max:  floats.Max(levels),
	}
	if len(levels) > 1 {
		s.StdDev = stat.StdDev(levels, nil)
	}
	return s
}

// Spread is the difference between the largest and smallest estimate.
func (s Summary) Spread() float64 {
	return s.Max - s.Min
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d mean=%.2f sd=%.2f range=[%.2f, %.2f]", s.N, s.Mean, s.StdDev, s.Min, s.Max)
}
