package visualization

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"reclevel-sim/internal/common"
)

// Projector is an interface for dimensionality reduction techniques.
type Projector interface {
	// Project maps points to 2D. The result is index-aligned with points.
	Project(points []common.Vector) ([]common.Vector, error)
}

// PCAProjector uses Principal Component Analysis to project n-dimensional data to 2D.
type PCAProjector struct {
	targetDimension int
}

// NewPCAProjector creates a new PCA projector targeting 2D.
func NewPCAProjector() *PCAProjector {
	return &PCAProjector{targetDimension: 2}
}

// Project performs PCA on points and returns their coordinates along the
// first two principal components. 1D and 2D inputs are passed through, 1D
// padded with a zero y-coordinate.
func (p *PCAProjector) Project(points []common.Vector) ([]common.Vector, error) {
	if len(points) == 0 {
		return nil, nil
	}

	sourceDim := points[0].Dimension()
	for i, pt := range points {
		if pt.Dimension() != sourceDim {
			return nil, fmt.Errorf("point %d: %w", i, &common.DimensionMismatchError{Want: sourceDim, Got: pt.Dimension()})
		}
	}

	if sourceDim <= p.targetDimension {
		projected := make([]common.Vector, len(points))
		for i, pt := range points {
			v := common.NewVector(p.targetDimension)
			copy(v, pt)
			projected[i] = v
		}
		return projected, nil
	}

	numSamples := len(points)
	data := make([]float64, 0, numSamples*sourceDim)
	for _, pt := range points {
		data = append(data, pt...)
	}
	matrix := mat.NewDense(numSamples, sourceDim, data)

	var pc stat.PC
	if ok := pc.PrincipalComponents(matrix, nil); !ok {
		return nil, fmt.Errorf("PCA computation failed")
	}

	var vec, reduced mat.Dense
	pc.VectorsTo(&vec)
	k := p.targetDimension
	if _, c := vec.Dims(); c < k {
		k = c
	}
	reduced.Mul(matrix, vec.Slice(0, sourceDim, 0, k))

	projected := make([]common.Vector, numSamples)
	for i := range projected {
		v := common.NewVector(p.targetDimension)
		for j := 0; j < k; j++ {
			v[j] = reduced.At(i, j)
		}
		projected[i] = v
	}
	return projected, nil
}
