package insar

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// The binary cloud format ("BPC") is a text header followed by a
// little-endian binary body, one fixed-width record per point:
//
//	BPC 1.0
//	CRS <crs string, "-" when empty>
//	POINTS <n>
//	BOUNDS <minX> <minY> <minZ> <maxX> <maxY> <maxZ>
//	FIELDS x y z <attribute names...>
//	SIZE 8 8 8 4...
//	TYPE F F F F...
//	DATA binary
//
// Coordinates are float64, attributes float32. Attribute fields appear in
// the header in insertion order before any record is written.
const (
	binaryCloudMagic   = "BPC"
	binaryCloudVersion = "1.0"
)

// BinaryCloudWriter serializes clouds to the BPC format.
type BinaryCloudWriter struct{}

// Ext returns "bpc".
func (BinaryCloudWriter) Ext() string { return "bpc" }

// Write serializes the cloud to path. The header and body are assembled in
// memory and written in a single pass, so a filesystem failure never leaves
// a file whose declared point count disagrees with its body length.
func (BinaryCloudWriter) Write(path string, pc *PointCloud) error {
	var buf bytes.Buffer

	crs := pc.CRS
	if crs == "" {
		crs = "-"
	}

	bound := pc.Bounds()
	minZ, maxZ := pc.ZRange()
	names := pc.Attributes.Names()

	fields := append([]string{"x", "y", "z"}, names...)
	sizes := []string{"8", "8", "8"}
	types := []string{"F", "F", "F"}
	for range names {
		sizes = append(sizes, "4")
		types = append(types, "F")
	}

	fmt.Fprintf(&buf, "%s %s\n", binaryCloudMagic, binaryCloudVersion)
	fmt.Fprintf(&buf, "CRS %s\n", crs)
	fmt.Fprintf(&buf, "POINTS %d\n", len(pc.Points))
	fmt.Fprintf(&buf, "BOUNDS %s %s %s %s %s %s\n",
		formatCoord(bound.Min[0]), formatCoord(bound.Min[1]), formatCoord(minZ),
		formatCoord(bound.Max[0]), formatCoord(bound.Max[1]), formatCoord(maxZ))
	fmt.Fprintf(&buf, "FIELDS %s\n", strings.Join(fields, " "))
	fmt.Fprintf(&buf, "SIZE %s\n", strings.Join(sizes, " "))
	fmt.Fprintf(&buf, "TYPE %s\n", strings.Join(types, " "))
	fmt.Fprintf(&buf, "DATA binary\n")

	record := make([]byte, 24+4*len(names))
	attrValues := make([][]float32, len(names))
	for i, name := range names {
		attrValues[i], _ = pc.Attributes.Values(name)
	}

	for i, p := range pc.Points {
		binary.LittleEndian.PutUint64(record[0:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(record[8:], math.Float64bits(p.Y))
		binary.LittleEndian.PutUint64(record[16:], math.Float64bits(p.Z))
		for j := range names {
			binary.LittleEndian.PutUint32(record[24+4*j:], math.Float32bits(attrValues[j][i]))
		}
		buf.Write(record)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadBinaryCloud loads a BPC file back into a point cloud. Point order,
// coordinates and attribute values round-trip exactly at their stored
// widths.
func ReadBinaryCloud(path string) (*PointCloud, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cloud: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	var (
		crs    string
		count  = -1
		fields []string
		offset int
	)
	for scanner.Scan() {
		line := scanner.Text()
		offset += len(line) + 1
		key, rest, _ := strings.Cut(line, " ")
		switch key {
		case binaryCloudMagic:
			if rest != binaryCloudVersion {
				return nil, fmt.Errorf("unsupported BPC version %q", rest)
			}
		case "CRS":
			if rest != "-" {
				crs = rest
			}
		case "POINTS":
			count, err = strconv.Atoi(rest)
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid POINTS line %q", line)
			}
		case "BOUNDS", "SIZE", "TYPE":
			// Derived from the body and FIELDS; nothing to retain.
		case "FIELDS":
			fields = strings.Fields(rest)
		case "DATA":
			if rest != "binary" {
				return nil, fmt.Errorf("unsupported DATA encoding %q", rest)
			}
		default:
			return nil, fmt.Errorf("unexpected header line %q", line)
		}
		if key == "DATA" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if count < 0 {
		return nil, fmt.Errorf("header missing POINTS")
	}
	if len(fields) < 3 || fields[0] != "x" || fields[1] != "y" || fields[2] != "z" {
		return nil, fmt.Errorf("header FIELDS must start with x y z, got %v", fields)
	}
	attrNames := fields[3:]

	body := raw[offset:]
	recordSize := 24 + 4*len(attrNames)
	if len(body) != count*recordSize {
		return nil, fmt.Errorf("body is %d bytes, want %d for %d points", len(body), count*recordSize, count)
	}

	points := make([]GeoPoint, count)
	attrValues := make([][]float32, len(attrNames))
	for i := range attrValues {
		attrValues[i] = make([]float32, count)
	}

	for i := 0; i < count; i++ {
		rec := body[i*recordSize:]
		points[i] = GeoPoint{
			X: math.Float64frombits(binary.LittleEndian.Uint64(rec[0:])),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(rec[8:])),
			Z: math.Float64frombits(binary.LittleEndian.Uint64(rec[16:])),
		}
		for j := range attrNames {
			attrValues[j][i] = math.Float32frombits(binary.LittleEndian.Uint32(rec[24+4*j:]))
		}
	}

	attrs := NewAttributeSet(count)
	for j, name := range attrNames {
		if err := attrs.Add(name, attrValues[j]); err != nil {
			return nil, err
		}
	}

	return &PointCloud{Points: points, Attributes: attrs, CRS: crs}, nil
}
