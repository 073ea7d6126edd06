package insar

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Sample dtypes supported by the flat raster format.
const (
	DtypeFloat32 = "float32"
	DtypeFloat64 = "float64"
)

// RasterGrid is a single-band geo-referenced grid loaded into memory.
// Samples are held as float64 regardless of the on-disk dtype; Dtype records
// the source width so a write round-trips exactly. Immutable once read.
type RasterGrid struct {
	Width     int
	Height    int
	Dtype     string
	Data      []float64 // row-major, len == Width*Height
	Transform GeoTransform
	CRS       string
}

// At returns the sample at (row, col). Callers are expected to stay in
// bounds; the sampler iterates the declared dimensions only.
func (g *RasterGrid) At(row, col int) float64 {
	return g.Data[row*g.Width+col]
}

// rasterHeader is the YAML sidecar document stored next to the sample data.
type rasterHeader struct {
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	Dtype     string    `yaml:"dtype"`
	Transform []float64 `yaml:"transform"`
	CRS       string    `yaml:"crs,omitempty"`
}

// HeaderPath returns the sidecar header path for a raster data file.
func HeaderPath(dataPath string) string {
	return dataPath + ".hdr"
}

func sampleSize(dtype string) (int, error) {
	switch dtype {
	case DtypeFloat32:
		return 4, nil
	case DtypeFloat64:
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported dtype %q", dtype)
	}
}

// ReadRaster loads a flat binary raster and its YAML sidecar header.
// The data file holds row-major little-endian samples; the sidecar declares
// dimensions, dtype, the affine geocoding transform and the CRS. Every
// failure mode is reported as a *RasterReadError.
func ReadRaster(path string) (*RasterGrid, error) {
	fail := func(err error) (*RasterGrid, error) {
		return nil, &RasterReadError{Path: path, Err: err}
	}

	hdrData, err := os.ReadFile(HeaderPath(path))
	if err != nil {
		return fail(fmt.Errorf("reading sidecar header: %w", err))
	}

	var hdr rasterHeader
	if err := yaml.Unmarshal(hdrData, &hdr); err != nil {
		return fail(fmt.Errorf("parsing sidecar header: %w", err))
	}

	if hdr.Width <= 0 || hdr.Height <= 0 {
		return fail(fmt.Errorf("invalid dimensions %dx%d", hdr.Width, hdr.Height))
	}
	size, err := sampleSize(hdr.Dtype)
	if err != nil {
		return fail(err)
	}
	if len(hdr.Transform) != 6 {
		return fail(fmt.Errorf("transform has %d coefficients, want 6", len(hdr.Transform)))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("reading sample data: %w", err))
	}

	want := hdr.Width * hdr.Height * size
	if len(raw) != want {
		return fail(fmt.Errorf("sample data is %d bytes, want %d for %dx%d %s",
			len(raw), want, hdr.Width, hdr.Height, hdr.Dtype))
	}

	data := make([]float64, hdr.Width*hdr.Height)
	switch hdr.Dtype {
	case DtypeFloat32:
		for i := range data {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			data[i] = float64(math.Float32frombits(bits))
		}
	case DtypeFloat64:
		for i := range data {
			bits := binary.LittleEndian.Uint64(raw[i*8:])
			data[i] = math.Float64frombits(bits)
		}
	}

	var coeff [6]float64
	copy(coeff[:], hdr.Transform)

	return &RasterGrid{
		Width:     hdr.Width,
		Height:    hdr.Height,
		Dtype:     hdr.Dtype,
		Data:      data,
		Transform: TransformFromCoefficients(coeff),
		CRS:       hdr.CRS,
	}, nil
}

// WriteRaster writes a grid as a flat binary raster plus YAML sidecar
// header, the inverse of ReadRaster. Used by the sample-data generator
// and by tests.
func WriteRaster(path string, g *RasterGrid) error {
	fail := func(err error) error {
		return &WriteError{Path: path, Err: err}
	}

	if g.Width <= 0 || g.Height <= 0 {
		return fail(fmt.Errorf("invalid dimensions %dx%d", g.Width, g.Height))
	}
	if len(g.Data) != g.Width*g.Height {
		return fail(fmt.Errorf("sample count %d does not match %dx%d", len(g.Data), g.Width, g.Height))
	}
	size, err := sampleSize(g.Dtype)
	if err != nil {
		return fail(err)
	}

	raw := make([]byte, len(g.Data)*size)
	switch g.Dtype {
	case DtypeFloat32:
		for i, v := range g.Data {
			binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(float32(v)))
		}
	case DtypeFloat64:
		for i, v := range g.Data {
			binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
		}
	}

	coeff := g.Transform.Coefficients()
	hdr := rasterHeader{
		Width:     g.Width,
		Height:    g.Height,
		Dtype:     g.Dtype,
		Transform: coeff[:],
		CRS:       g.CRS,
	}
	hdrData, err := yaml.Marshal(&hdr)
	if err != nil {
		return fail(fmt.Errorf("marshaling sidecar header: %w", err))
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fail(err)
	}
	if err := os.WriteFile(HeaderPath(path), hdrData, 0644); err != nil {
		return fail(err)
	}
	return nil
}
