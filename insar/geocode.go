package insar

// GeoTransform is the six-parameter affine mapping from grid indices to
// ground coordinates, in GDAL coefficient order:
//
//	x = OriginX + col*PixelWidth + row*RotX
//	y = OriginY + col*RotY + row*PixelHeight
//
// For axis-aligned north-up rasters RotX and RotY are zero and PixelHeight
// is negative (rows advance southward).
type GeoTransform struct {
	OriginX     float64 `yaml:"originX" json:"originX"`
	PixelWidth  float64 `yaml:"pixelWidth" json:"pixelWidth"`
	RotX        float64 `yaml:"rotX" json:"rotX"`
	OriginY     float64 `yaml:"originY" json:"originY"`
	RotY        float64 `yaml:"rotY" json:"rotY"`
	PixelHeight float64 `yaml:"pixelHeight" json:"pixelHeight"`
}

// FromOrigin builds a north-up transform from the coordinates of the upper
// left corner and the cell sizes. Mirrors rasterio's from_origin: pixelHeight
// is stored negated so increasing rows move south.
func FromOrigin(west, north, xsize, ysize float64) GeoTransform {
	return GeoTransform{
		OriginX:     west,
		PixelWidth:  xsize,
		OriginY:     north,
		PixelHeight: -ysize,
	}
}

// CellToGround maps a (row, col) grid index to ground (x, y). Coordinates
// are evaluated at the cell index itself, not at the cell center.
func (t GeoTransform) CellToGround(row, col int) (x, y float64) {
	r := float64(row)
	c := float64(col)
	x = t.OriginX + c*t.PixelWidth + r*t.RotX
	y = t.OriginY + c*t.RotY + r*t.PixelHeight
	return x, y
}

// Coefficients returns the transform as a flat [6]float64 in GDAL order.
func (t GeoTransform) Coefficients() [6]float64 {
	return [6]float64{t.OriginX, t.PixelWidth, t.RotX, t.OriginY, t.RotY, t.PixelHeight}
}

// TransformFromCoefficients builds a GeoTransform from a flat coefficient
// array in GDAL order.
func TransformFromCoefficients(c [6]float64) GeoTransform {
	return GeoTransform{
		OriginX:     c[0],
		PixelWidth:  c[1],
		RotX:        c[2],
		OriginY:     c[3],
		RotY:        c[4],
		PixelHeight: c[5],
	}
}
