package insar

import (
	"encoding/json"
	"os"

	"github.com/paulmach/orb/geojson"
)

// WriteFootprint writes a GeoJSON FeatureCollection describing a converted
// cloud: a bounding-box polygon feature carrying the datestamp, point count,
// CRS and per-attribute summary statistics. Dashboards use these to place
// conversion results on a map without parsing the cloud itself.
//
// An empty cloud produces a feature with a degenerate (zero) bound and a
// point count of 0, matching the empty-output policy of the cloud writers.
func WriteFootprint(path, datestamp string, pc *PointCloud) error {
	feature := geojson.NewFeature(pc.Bounds().ToPolygon())
	feature.Properties["datestamp"] = datestamp
	feature.Properties["points"] = len(pc.Points)
	if pc.CRS != "" {
		feature.Properties["crs"] = pc.CRS
	}

	for _, s := range CloudStats(pc) {
		feature.Properties[s.Name+"_min"] = s.Min
		feature.Properties[s.Name+"_max"] = s.Max
		feature.Properties[s.Name+"_mean"] = s.Mean
	}

	fc := geojson.NewFeatureCollection()
	fc.Append(feature)

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
