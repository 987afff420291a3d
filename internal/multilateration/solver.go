// Package multilateration locates a sound source from the ranges implied by
// its received levels.
package multilateration

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"

	"reclevel-sim/internal/common"
)

// Measurement is the range from one receiver to the source.
type Measurement struct {
	ReceiverPosition common.Vector
	Distance         float64
}

// Solution contains the estimated position and a measure of the solution quality.
type Solution struct {
	Position      common.Vector
	ResidualError float64 // ||Ax - b|| / sqrt(m); lower is better
}

// RangesFromLevels inverts spherical spreading: a call of on-axis level
// sourceLevel (dB re referenceDistance) received at level l was heard from
// referenceDistance * 10^((sourceLevel-l)/20). The ranges are only right if
// the source radiated equally in every direction.
func RangesFromLevels(sourceLevel float64, received []float64, receivers []common.Vector, referenceDistance float64) ([]Measurement, error) {
	if len(received) != len(receivers) {
		return nil, fmt.Errorf("got %d received levels for %d receivers", len(received), len(receivers))
	}
	if !(referenceDistance > 0) || math.IsInf(referenceDistance, 0) {
		return nil, fmt.Errorf("reference distance must be positive and finite, got %g", referenceDistance)
	}
	out := make([]Measurement, len(received))
	for i, l := range received {
		out[i] = Measurement{
			ReceiverPosition: receivers[i].Clone(),
			Distance:         referenceDistance * math.Pow(10, (sourceLevel-l)/20),
		}
	}
	return out, nil
}

// SolveLeastSquares finds the source position that best fits the ranges by
// linearising the range equations against the last receiver and solving the
// resulting system with QR. It needs at least dimension+1 measurements.
func SolveLeastSquares(measurements []Measurement, dimension int) (Solution, error) {
	numMeasurements := len(measurements)

	// n+1 ranges give n independent difference equations
	if numMeasurements < dimension+1 {
		return Solution{}, fmt.Errorf("insufficient measurements: got %d, need at least %d for dimension %d", numMeasurements, dimension+1, dimension)
	}
	for i, m := range measurements {
		if m.ReceiverPosition.Dimension() != dimension {
			return Solution{}, fmt.Errorf("measurement %d: %w", i, &common.DimensionMismatchError{Want: dimension, Got: m.ReceiverPosition.Dimension()})
		}
	}

	// The last receiver is the reference (k in the equations)
	ref := measurements[numMeasurements-1]
	refDist := math.Max(ref.Distance, 0)
	refDistSq := refDist * refDist              // d_k^2
	refNormSq := ref.ReceiverPosition.NormSq() // ||S_k||^2

	// A is (m-1) x n, b is (m-1) x 1
	numEquations := numMeasurements - 1
	aData := make([]float64, 0, numEquations*dimension)
	bData := make([]float64, numEquations)
	for i := 0; i < numEquations; i++ {
		m := measurements[i]
		dist := math.Max(m.Distance, 0)

		// Row i of A: 2 * (S_k - S_i)
		diff, err := ref.ReceiverPosition.Subtract(m.ReceiverPosition)
		if err != nil {
			return Solution{}, err
		}
		aData = append(aData, diff.Scale(2)...)

		// Element i of b: d_i^2 - d_k^2 - ||S_i||^2 + ||S_k||^2
		bData[i] = dist*dist - refDistSq - m.ReceiverPosition.NormSq() + refNormSq
	}

	A := mat.NewDense(numEquations, dimension, aData)
	b := mat.NewVecDense(numEquations, bData)

	// --- Solve min ||Ax - b||_2 with QR, without forming A^T A ---
	var qr mat.QR
	qr.Factorize(A)

	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		return Solution{}, fmt.Errorf("QR least squares solve failed: %w", err)
	}
	// Collinear receivers in 2D (coplanar in 3D) leave a direction unconstrained
	if cond := mat.Cond(A, 2); math.IsInf(cond, 1) || cond > 1e12 {
		return Solution{}, errors.New("receiver geometry is degenerate: receivers are collinear or coincident")
	}

	// --- Residual ---
	var residual mat.VecDense
	residual.MulVec(A, &x)        // A*x
	residual.SubVec(b, &residual) // b - A*x
	// Normalised by sqrt(m-1) so it does not grow with the array size
	normalized := blas64.Nrm2(residual.RawVector()) / math.Sqrt(float64(numEquations))

	pos := common.NewVector(dimension)
	for i := range pos {
		pos[i] = x.AtVec(i)
	}
	return Solution{Position: pos, ResidualError: normalized}, nil
}

// LocalizationError is the Euclidean distance between the true and estimated positions.
func LocalizationError(truePosition, estimatedPosition common.Vector) (float64, error) {
	if len(truePosition) == 0 || len(estimatedPosition) == 0 {
		return 0, errors.New("cannot calculate error with empty vectors")
	}
	return truePosition.Distance(estimatedPosition)
}
