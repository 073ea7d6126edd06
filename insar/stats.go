package insar

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AttributeStats summarizes one attribute of a cloud.
type AttributeStats struct {
	Name   string
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

// CloudStats computes summary statistics for every attribute of a cloud, in
// attribute insertion order. An empty cloud yields zero-valued stats with
// Count 0.
func CloudStats(pc *PointCloud) []AttributeStats {
	names := pc.Attributes.Names()
	out := make([]AttributeStats, 0, len(names))

	for _, name := range names {
		values, _ := pc.Attributes.Values(name)
		out = append(out, attributeStats(name, values))
	}
	return out
}

func attributeStats(name string, values []float32) AttributeStats {
	s := AttributeStats{Name: name, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i] = float64(v)
	}
	sort.Float64s(xs)

	s.Min = xs[0]
	s.Max = xs[len(xs)-1]
	s.Mean = stat.Mean(xs, nil)
	s.StdDev = stat.StdDev(xs, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
	return s
}
