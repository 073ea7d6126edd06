package insar

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File naming convention for raster pairs: a datestamp prefix plus a fixed
// product suffix. The coherence counterpart is optional.
const (
	DeformationSuffix = "_unwrap.geo"
	CoherenceSuffix   = "_corr.geo"
)

// Pair is a deformation raster matched with its optional coherence raster.
type Pair struct {
	Datestamp       string
	DeformationPath string
	CoherencePath   string // empty when no coherence product exists
}

// Summary reports the outcome of a directory conversion.
type Summary struct {
	Found     int `json:"found"`
	Converted int `json:"converted"`
	Failed    int `json:"failed"`
}

// Options configures a conversion run.
type Options struct {
	Stride    int
	Threshold float64
	Writers   []CloudWriter
	Footprint bool       // also emit a GeoJSON footprint per pair
	Workers   int        // concurrent pair conversions; <=1 is sequential
	Events    *Publisher // optional conversion event stream; nil disables
}

// DefaultWriters returns the standard binary + text writer set.
func DefaultWriters() []CloudWriter {
	return []CloudWriter{BinaryCloudWriter{}, TextCloudWriter{}}
}

// ScanPairs finds deformation rasters in inputDir by naming convention and
// matches each with its coherence counterpart. A missing input directory is
// an error; a missing coherence file is not. Pairs come back in directory
// (lexical, therefore datestamp) order.
func ScanPairs(inputDir string) ([]Pair, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("scanning input directory: %w", err)
	}

	var pairs []Pair
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, DeformationSuffix) {
			continue
		}
		datestamp := strings.TrimSuffix(name, DeformationSuffix)

		pair := Pair{
			Datestamp:       datestamp,
			DeformationPath: filepath.Join(inputDir, name),
		}
		coherence := filepath.Join(inputDir, datestamp+CoherenceSuffix)
		if _, err := os.Stat(coherence); err == nil {
			pair.CoherencePath = coherence
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// ConvertPair runs the full pipeline for one raster pair: read, select,
// build, and write through every configured writer. Outputs are named
// <datestamp>_unwrap.<ext> in outputDir. The returned cloud is the one that
// was written, handy for callers that publish or inspect it.
func ConvertPair(pair Pair, outputDir string, opts Options) (*PointCloud, error) {
	deformation, err := ReadRaster(pair.DeformationPath)
	if err != nil {
		return nil, err
	}

	var coherence *RasterGrid
	if pair.CoherencePath != "" {
		coherence, err = ReadRaster(pair.CoherencePath)
		if err != nil {
			return nil, err
		}
	}

	cells, err := SelectCells(deformation, coherence, opts.Stride, opts.Threshold)
	if err != nil {
		return nil, err
	}

	pc, err := BuildPointCloud(deformation, coherence, cells)
	if err != nil {
		return nil, err
	}

	for _, w := range opts.Writers {
		out := filepath.Join(outputDir, pair.Datestamp+"_unwrap."+w.Ext())
		if err := w.Write(out, pc); err != nil {
			return nil, err
		}
	}

	if opts.Footprint {
		out := filepath.Join(outputDir, pair.Datestamp+"_unwrap.geojson")
		if err := WriteFootprint(out, pair.Datestamp, pc); err != nil {
			return nil, err
		}
	}

	return pc, nil
}

// ConvertDirectory converts every pair found in inputDir. One pair's failure
// is logged with the offending path and counted; it never aborts the
// remaining pairs. Only the directory scan itself is fatal. With
// Options.Workers > 1 pairs are converted concurrently; the datestamp naming
// convention guarantees distinct output names, so no further coordination is
// needed.
func ConvertDirectory(inputDir, outputDir string, opts Options) (Summary, error) {
	if opts.Stride == 0 {
		opts.Stride = DefaultStride
	}
	if len(opts.Writers) == 0 {
		opts.Writers = DefaultWriters()
	}

	pairs, err := ScanPairs(inputDir)
	if err != nil {
		return Summary{}, err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory: %w", err)
	}

	summary := Summary{Found: len(pairs)}
	var mu sync.Mutex

	convert := func(pair Pair) {
		pc, err := ConvertPair(pair, outputDir, opts)
		if err != nil {
			log.Printf("Conversion failed for %s: %v", pair.DeformationPath, err)
			publishEvent(opts.Events, ConversionEvent{
				Datestamp: pair.Datestamp,
				Error:     err.Error(),
			})
			mu.Lock()
			summary.Failed++
			mu.Unlock()
			return
		}

		log.Printf("Converted %s: %d points", pair.DeformationPath, len(pc.Points))
		publishEvent(opts.Events, ConversionEvent{
			Datestamp: pair.Datestamp,
			Points:    len(pc.Points),
		})
		mu.Lock()
		summary.Converted++
		mu.Unlock()
	}

	if opts.Workers <= 1 {
		for _, pair := range pairs {
			convert(pair)
		}
	} else {
		queue := make(chan Pair)
		var wg sync.WaitGroup
		for i := 0; i < opts.Workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for pair := range queue {
					convert(pair)
				}
			}()
		}
		for _, pair := range pairs {
			queue <- pair
		}
		close(queue)
		wg.Wait()
	}

	if err := opts.Events.PublishSummary(summary); err != nil {
		log.Printf("Error publishing summary: %v", err)
	}
	return summary, nil
}

// publishEvent is a best-effort publish; failures are logged, never fatal.
func publishEvent(p *Publisher, ev ConversionEvent) {
	if err := p.PublishConversion(ev); err != nil {
		log.Printf("Error publishing conversion event for %s: %v", ev.Datestamp, err)
	}
}
