package insar

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// GenerateOptions controls the synthetic sample-data generator.
type GenerateOptions struct {
	Width    int
	Height   int
	CellSize float64 // ground units per cell
	NumDates int     // epochs in the time series
	BaseDate time.Time
	Interval time.Duration // spacing between epochs
	Seed     int64         // deterministic noise for reproducible fixtures
}

// DefaultGenerateOptions mirrors a Sentinel-style acquisition: 500x500 grid,
// 30 m cells, three epochs 12 days apart.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Width:    500,
		Height:   500,
		CellSize: 30.0,
		NumDates: 3,
		BaseDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval: 12 * 24 * time.Hour,
		Seed:     1,
	}
}

const sampleCRS = "+proj=utm +zone=50 +datum=WGS84"

// GenerateSampleData writes a synthetic deformation/coherence time series
// into outputDir, one `<datestamp>_unwrap.geo` / `<datestamp>_corr.geo` pair
// per epoch. The deformation is a Gaussian subsidence bowl growing linearly
// over the series with light noise; coherence is high near the bowl center
// and decays toward the edges. Returns the datestamps written.
func GenerateSampleData(outputDir string, opts GenerateOptions) ([]string, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", opts.Width, opts.Height)
	}
	if opts.NumDates < 1 {
		return nil, fmt.Errorf("numDates must be positive, got %d", opts.NumDates)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	transform := FromOrigin(500000.0, 3000000.0, opts.CellSize, opts.CellSize)

	xCenter := float64(opts.Width) / 2
	yCenter := float64(opts.Height) / 2
	sigmaX := float64(opts.Width) / 5
	sigmaY := float64(opts.Height) / 3.3
	maxDist := math.Hypot(xCenter, yCenter)

	var datestamps []string
	for i := 0; i < opts.NumDates; i++ {
		date := opts.BaseDate.Add(time.Duration(i) * opts.Interval)
		datestamp := date.Format("20060102")

		// Subsidence deepens linearly over the series.
		amplitude := -20.0 * float64(i+1) / float64(opts.NumDates)

		deformation := &RasterGrid{
			Width:     opts.Width,
			Height:    opts.Height,
			Dtype:     DtypeFloat32,
			Data:      make([]float64, opts.Width*opts.Height),
			Transform: transform,
			CRS:       sampleCRS,
		}
		coherence := &RasterGrid{
			Width:     opts.Width,
			Height:    opts.Height,
			Dtype:     DtypeFloat32,
			Data:      make([]float64, opts.Width*opts.Height),
			Transform: transform,
			CRS:       sampleCRS,
		}

		for row := 0; row < opts.Height; row++ {
			for col := 0; col < opts.Width; col++ {
				dx := float64(col) - xCenter
				dy := float64(row) - yCenter

				bowl := amplitude * math.Exp(-(dx*dx/(2*sigmaX*sigmaX) + dy*dy/(2*sigmaY*sigmaY)))
				noise := rng.NormFloat64() * math.Abs(amplitude) * 0.05

				dist := math.Hypot(dx, dy)
				coh := 0.9 - 0.5*dist/maxDist + rng.NormFloat64()*0.06
				if coh < 0.1 {
					coh = 0.1
				}
				if coh > 1.0 {
					coh = 1.0
				}

				idx := row*opts.Width + col
				deformation.Data[idx] = bowl + noise
				coherence.Data[idx] = coh
			}
		}

		deformationPath := filepath.Join(outputDir, datestamp+DeformationSuffix)
		coherencePath := filepath.Join(outputDir, datestamp+CoherenceSuffix)

		if err := WriteRaster(deformationPath, deformation); err != nil {
			return nil, err
		}
		if err := WriteRaster(coherencePath, coherence); err != nil {
			return nil, err
		}

		log.Printf("Generated %s and %s", deformationPath, coherencePath)
		datestamps = append(datestamps, datestamp)
	}

	return datestamps, nil
}
