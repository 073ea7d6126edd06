package insar

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// GeoPoint is a ground-coordinate triple. Z carries the deformation value
// at that location; invalid cells are filtered before a GeoPoint exists, so
// Z is never a sentinel.
type GeoPoint struct {
	X float64
	Y float64
	Z float64
}

// AttributeSet is an ordered bag of named per-point value sequences,
// index-aligned with the point order of the cloud that owns it. The single
// invariant — every attribute has exactly N values — is enforced in Add,
// not at the call sites.
type AttributeSet struct {
	n      int
	names  []string
	values map[string][]float32
}

// NewAttributeSet creates an empty attribute set for clouds of n points.
func NewAttributeSet(n int) *AttributeSet {
	return &AttributeSet{
		n:      n,
		values: make(map[string][]float32),
	}
}

// Add appends a named attribute. The value sequence must be exactly as long
// as the point count; duplicate names are rejected.
func (a *AttributeSet) Add(name string, values []float32) error {
	if len(values) != a.n {
		return fmt.Errorf("attribute %q has %d values for %d points: %w",
			name, len(values), a.n, ErrAttributeLength)
	}
	if _, exists := a.values[name]; exists {
		return fmt.Errorf("attribute %q already declared", name)
	}
	a.names = append(a.names, name)
	a.values[name] = values
	return nil
}

// Names returns attribute names in insertion order.
func (a *AttributeSet) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Values returns the value sequence for a named attribute.
func (a *AttributeSet) Values(name string) ([]float32, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Len returns the number of declared attributes.
func (a *AttributeSet) Len() int { return len(a.names) }

// PointCloud is an ordered sequence of points plus one index-aligned
// attribute set. Built once per raster pair and not mutated afterwards.
type PointCloud struct {
	Points     []GeoPoint
	Attributes *AttributeSet
	CRS        string
}

// Bounds returns the planar bounding box of the cloud's x/y coordinates.
// An empty cloud yields the zero bound.
func (pc *PointCloud) Bounds() orb.Bound {
	if len(pc.Points) == 0 {
		return orb.Bound{}
	}
	b := orb.Bound{
		Min: orb.Point{pc.Points[0].X, pc.Points[0].Y},
		Max: orb.Point{pc.Points[0].X, pc.Points[0].Y},
	}
	for _, p := range pc.Points[1:] {
		b = b.Extend(orb.Point{p.X, p.Y})
	}
	return b
}

// ZRange returns the minimum and maximum Z values, or (0, 0) for an empty
// cloud.
func (pc *PointCloud) ZRange() (min, max float64) {
	if len(pc.Points) == 0 {
		return 0, 0
	}
	min, max = math.Inf(1), math.Inf(-1)
	for _, p := range pc.Points {
		if p.Z < min {
			min = p.Z
		}
		if p.Z > max {
			max = p.Z
		}
	}
	return min, max
}
