package reclevel

import (
	"fmt"
	"math"
	"runtime"
)

const (
	// DefaultReferenceDistance is the distance at which on-axis levels are quoted.
	DefaultReferenceDistance = 1.0
	// DefaultEpsilon is the smallest source-receiver distance accepted without clamping.
	DefaultEpsilon = 1e-9
)

// Config controls how received levels are computed.
type Config struct {
	// ReferenceDistance is the distance at which the on-axis level was defined.
	ReferenceDistance float64
	// Epsilon is the distance below which geometry is considered degenerate.
	Epsilon float64
	// ClampDistance, when positive, replaces any distance below it instead
	// of failing with a DegenerateGeometryError.
	ClampDistance float64
	// Parallelism bounds the number of calls computed concurrently by
	// CalculateTable. 1 runs sequentially.
	Parallelism int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the free-field defaults: 1 unit reference distance,
// failure on degenerate geometry, one worker per CPU.
func DefaultConfig() Config {
	return Config{
		ReferenceDistance: DefaultReferenceDistance,
		Epsilon:           DefaultEpsilon,
		Parallelism:       runtime.GOMAXPROCS(0),
	}
}

// WithReferenceDistance sets the distance at which on-axis levels are defined.
func WithReferenceDistance(distance float64) Option {
	return func(cfg *Config) {
		cfg.ReferenceDistance = distance
	}
}

// WithEpsilon sets the degenerate-distance threshold.
func WithEpsilon(eps float64) Option {
	return func(cfg *Config) {
		cfg.Epsilon = eps
	}
}

// WithClamp switches the degenerate-geometry policy from failure to
// clamping distances to minDistance.
func WithClamp(minDistance float64) Option {
	return func(cfg *Config) {
		cfg.ClampDistance = minDistance
	}
}

// WithParallelism bounds the number of concurrently computed calls.
func WithParallelism(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Parallelism = n
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg Config) validate() error {
	if !(cfg.ReferenceDistance > 0) || math.IsInf(cfg.ReferenceDistance, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidReferenceDistance, cfg.ReferenceDistance)
	}
	if cfg.Epsilon < 0 || math.IsNaN(cfg.Epsilon) {
		return fmt.Errorf("epsilon must be >= 0: %g", cfg.Epsilon)
	}
	if cfg.ClampDistance < 0 || math.IsNaN(cfg.ClampDistance) || math.IsInf(cfg.ClampDistance, 0) {
		return fmt.Errorf("clamp distance must be finite and >= 0: %g", cfg.ClampDistance)
	}
	return nil
}
