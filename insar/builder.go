package insar

// Attribute names carried by every converted cloud.
const (
	AttrDeformation = "deformation"
	AttrCoherence   = "coherence"
)

// BuildPointCloud assembles the surviving cells into a point cloud. Each
// cell is geocoded through the deformation grid's transform, Z is the
// deformation value, and the "deformation" and "coherence" attributes are
// populated index-aligned with the points. Without a coherence grid the
// coherence attribute is a uniform 1.0 fill.
//
// The cells are assumed to come from SelectCells against the same grids, so
// no validity re-checks happen here.
func BuildPointCloud(deformation, coherence *RasterGrid, cells []Cell) (*PointCloud, error) {
	points := make([]GeoPoint, len(cells))
	deform := make([]float32, len(cells))
	coher := make([]float32, len(cells))

	for i, c := range cells {
		x, y := deformation.Transform.CellToGround(c.Row, c.Col)
		z := deformation.At(c.Row, c.Col)
		points[i] = GeoPoint{X: x, Y: y, Z: z}
		deform[i] = float32(z)
		if coherence != nil {
			coher[i] = float32(coherence.At(c.Row, c.Col))
		} else {
			coher[i] = 1.0
		}
	}

	attrs := NewAttributeSet(len(cells))
	if err := attrs.Add(AttrDeformation, deform); err != nil {
		return nil, err
	}
	if err := attrs.Add(AttrCoherence, coher); err != nil {
		return nil, err
	}

	return &PointCloud{
		Points:     points,
		Attributes: attrs,
		CRS:        deformation.CRS,
	}, nil
}
