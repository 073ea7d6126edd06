package insar

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TextCloudWriter serializes clouds as space-delimited text: a header line
// naming the columns (X Y Z then attributes in insertion order), then one
// record per point in cloud order. Numbers use shortest round-trip
// formatting, float64 for coordinates and float32 for attributes.
type TextCloudWriter struct{}

// Ext returns "xyz".
func (TextCloudWriter) Ext() string { return "xyz" }

// Write serializes the cloud to path.
func (TextCloudWriter) Write(path string, pc *PointCloud) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)

	names := pc.Attributes.Names()
	columns := append([]string{"X", "Y", "Z"}, names...)
	if _, err := fmt.Fprintln(w, strings.Join(columns, " ")); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	attrValues := make([][]float32, len(names))
	for i, name := range names {
		attrValues[i], _ = pc.Attributes.Values(name)
	}

	record := make([]string, len(columns))
	for i, p := range pc.Points {
		record[0] = formatCoord(p.X)
		record[1] = formatCoord(p.Y)
		record[2] = formatCoord(p.Z)
		for j := range names {
			record[3+j] = strconv.FormatFloat(float64(attrValues[j][i]), 'g', -1, 32)
		}
		if _, err := fmt.Fprintln(w, strings.Join(record, " ")); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	if err := w.Flush(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// ReadTextCloud parses a text cloud file back into a point cloud. Columns
// beyond X Y Z become float32 attributes in header order.
func ReadTextCloud(path string) (*PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading cloud: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
		return nil, fmt.Errorf("missing header line")
	}

	columns := strings.Fields(scanner.Text())
	if len(columns) < 3 || columns[0] != "X" || columns[1] != "Y" || columns[2] != "Z" {
		return nil, fmt.Errorf("header must start with X Y Z, got %v", columns)
	}
	attrNames := columns[3:]

	var points []GeoPoint
	attrValues := make([][]float32, len(attrNames))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != len(columns) {
			return nil, fmt.Errorf("record %d has %d columns, want %d", len(points)+1, len(parts), len(columns))
		}

		var p GeoPoint
		if p.X, err = strconv.ParseFloat(parts[0], 64); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(points)+1, err)
		}
		if p.Y, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(points)+1, err)
		}
		if p.Z, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(points)+1, err)
		}
		points = append(points, p)

		for j := range attrNames {
			v, err := strconv.ParseFloat(parts[3+j], 32)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", len(points), err)
			}
			attrValues[j] = append(attrValues[j], float32(v))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	attrs := NewAttributeSet(len(points))
	for j, name := range attrNames {
		values := attrValues[j]
		if values == nil {
			values = []float32{}
		}
		if err := attrs.Add(name, values); err != nil {
			return nil, err
		}
	}

	return &PointCloud{Points: points, Attributes: attrs}, nil
}
