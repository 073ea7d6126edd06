package insar

import (
	"fmt"
	"math"
)

// Cell is a grid index pair.
type Cell struct {
	Row int
	Col int
}

// DefaultStride is the decimation interval applied when none is configured.
const DefaultStride = 5

// DefaultCoherenceThreshold is the acceptance threshold applied when none
// is configured. Cells survive only when coherence is strictly greater.
const DefaultCoherenceThreshold = 0.3

// SelectCells performs spatial decimation and validity filtering over a
// deformation grid. A cell survives when it lies on the decimation grid
// (row%stride == 0 and col%stride == 0), its deformation value is not NaN,
// and — when a coherence grid is supplied — its coherence exceeds the
// threshold. A nil coherence grid keeps every decimated, non-NaN cell, the
// deliberate graceful-degradation policy for pairs without a coherence
// product.
//
// Cells are returned in row-major scan order, so identical inputs always
// produce identical selections. A coherence grid with different dimensions
// fails with ErrDimensionMismatch. Zero survivors is not an error.
func SelectCells(deformation, coherence *RasterGrid, stride int, threshold float64) ([]Cell, error) {
	if stride < 1 {
		return nil, fmt.Errorf("stride must be positive, got %d", stride)
	}
	if coherence != nil &&
		(coherence.Width != deformation.Width || coherence.Height != deformation.Height) {
		return nil, fmt.Errorf("coherence is %dx%d, deformation is %dx%d: %w",
			coherence.Width, coherence.Height,
			deformation.Width, deformation.Height, ErrDimensionMismatch)
	}

	var cells []Cell
	for row := 0; row < deformation.Height; row += stride {
		for col := 0; col < deformation.Width; col += stride {
			z := deformation.At(row, col)
			if math.IsNaN(z) {
				continue
			}
			if coherence != nil && !(coherence.At(row, col) > threshold) {
				continue
			}
			cells = append(cells, Cell{Row: row, Col: col})
		}
	}
	return cells, nil
}
