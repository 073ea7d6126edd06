package insar

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePair writes a deformation raster, and optionally a coherence raster,
// under the naming convention the scanner expects.
func writePair(t *testing.T, dir, datestamp string, deformation, coherence *RasterGrid) {
	t.Helper()
	require.NoError(t, WriteRaster(filepath.Join(dir, datestamp+DeformationSuffix), deformation))
	if coherence != nil {
		require.NoError(t, WriteRaster(filepath.Join(dir, datestamp+CoherenceSuffix), coherence))
	}
}

func TestScanPairs(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "20210101", sequentialGrid(4, 4), uniformGrid(4, 4, 0.9))
	writePair(t, dir, "20210113", sequentialGrid(4, 4), nil)

	// Noise the scanner must ignore.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive_unwrap.geo"), 0755))

	pairs, err := ScanPairs(dir)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	assert.Equal(t, "20210101", pairs[0].Datestamp)
	assert.Equal(t, filepath.Join(dir, "20210101_unwrap.geo"), pairs[0].DeformationPath)
	assert.Equal(t, filepath.Join(dir, "20210101_corr.geo"), pairs[0].CoherencePath)

	assert.Equal(t, "20210113", pairs[1].Datestamp)
	assert.Empty(t, pairs[1].CoherencePath, "pair without a coherence product")
}

func TestScanPairsMissingDir(t *testing.T) {
	_, err := ScanPairs(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestConvertPair(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writePair(t, inputDir, "20210101", sequentialGrid(4, 4), uniformGrid(4, 4, 0.9))

	pairs, err := ScanPairs(inputDir)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	opts := Options{Stride: 2, Threshold: 0.3, Writers: DefaultWriters()}
	pc, err := ConvertPair(pairs[0], outputDir, opts)
	require.NoError(t, err)
	require.Len(t, pc.Points, 4)

	binary, err := ReadBinaryCloud(filepath.Join(outputDir, "20210101_unwrap.bpc"))
	require.NoError(t, err)
	assertCloudsEqual(t, pc, binary)

	text, err := ReadTextCloud(filepath.Join(outputDir, "20210101_unwrap.xyz"))
	require.NoError(t, err)
	text.CRS = pc.CRS
	assertCloudsEqual(t, pc, text)

	deform, _ := binary.Attributes.Values(AttrDeformation)
	assert.Equal(t, []float32{0, 2, 8, 10}, deform)
}

func TestConvertPairWithoutCoherence(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	deformation := sequentialGrid(4, 4)
	writePair(t, inputDir, "20210101", deformation, nil)

	pairs, err := ScanPairs(inputDir)
	require.NoError(t, err)

	pc, err := ConvertPair(pairs[0], outputDir, Options{Stride: 2, Threshold: 0.3, Writers: DefaultWriters()})
	require.NoError(t, err)

	coher, ok := pc.Attributes.Values(AttrCoherence)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 1, 1, 1}, coher)
}

func TestConvertPairCorruptDeformation(t *testing.T) {
	inputDir := t.TempDir()
	path := filepath.Join(inputDir, "20210101"+DeformationSuffix)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(HeaderPath(path), []byte("not: [valid"), 0644))

	pairs, err := ScanPairs(inputDir)
	require.NoError(t, err)

	_, err = ConvertPair(pairs[0], t.TempDir(), Options{Stride: 2, Threshold: 0.3, Writers: DefaultWriters()})
	var rerr *RasterReadError
	require.ErrorAs(t, err, &rerr)
}

func TestConvertPairCorruptCoherence(t *testing.T) {
	inputDir := t.TempDir()
	writePair(t, inputDir, "20210101", sequentialGrid(4, 4), nil)
	corr := filepath.Join(inputDir, "20210101"+CoherenceSuffix)
	require.NoError(t, os.WriteFile(corr, []byte("garbage"), 0644))

	pairs, err := ScanPairs(inputDir)
	require.NoError(t, err)
	require.NotEmpty(t, pairs[0].CoherencePath)

	// A coherence product that exists but cannot be read fails the pair
	// rather than silently degrading to the keep-all policy.
	_, err = ConvertPair(pairs[0], t.TempDir(), Options{Stride: 2, Threshold: 0.3, Writers: DefaultWriters()})
	var rerr *RasterReadError
	require.ErrorAs(t, err, &rerr)
}

func TestConvertPairFootprint(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writePair(t, inputDir, "20210101", sequentialGrid(4, 4), uniformGrid(4, 4, 0.9))

	pairs, err := ScanPairs(inputDir)
	require.NoError(t, err)

	opts := Options{Stride: 2, Threshold: 0.3, Writers: DefaultWriters(), Footprint: true}
	_, err = ConvertPair(pairs[0], outputDir, opts)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(outputDir, "20210101_unwrap.geojson"))
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "20210101", fc.Features[0].Properties["datestamp"])
	assert.EqualValues(t, 4, fc.Features[0].Properties["points"])
}

func TestConvertDirectory(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writePair(t, inputDir, "20210101", sequentialGrid(4, 4), uniformGrid(4, 4, 0.9))
	writePair(t, inputDir, "20210113", sequentialGrid(4, 4), nil)

	// One pair with an unreadable deformation raster must not abort the run.
	bad := filepath.Join(inputDir, "20210125"+DeformationSuffix)
	require.NoError(t, os.WriteFile(bad, []byte{1, 2, 3}, 0644))
	require.NoError(t, os.WriteFile(HeaderPath(bad),
		[]byte("width: 4\nheight: 4\ndtype: float32\ntransform: [0, 1, 0, 0, 0, -1]\n"), 0644))

	summary, err := ConvertDirectory(inputDir, outputDir, Options{})
	require.NoError(t, err)
	assert.Equal(t, Summary{Found: 3, Converted: 2, Failed: 1}, summary)

	for _, datestamp := range []string{"20210101", "20210113"} {
		for _, ext := range []string{"bpc", "xyz"} {
			path := filepath.Join(outputDir, datestamp+"_unwrap."+ext)
			if _, err := os.Stat(path); err != nil {
				t.Errorf("missing output %s: %v", path, err)
			}
		}
	}
	_, err = os.Stat(filepath.Join(outputDir, "20210125_unwrap.bpc"))
	assert.True(t, os.IsNotExist(err), "failed pair must not leave outputs")
}

func TestConvertDirectoryEmpty(t *testing.T) {
	summary, err := ConvertDirectory(t.TempDir(), t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}

func TestConvertDirectoryMissingInput(t *testing.T) {
	_, err := ConvertDirectory(filepath.Join(t.TempDir(), "absent"), t.TempDir(), Options{})
	assert.Error(t, err)
}

func TestConvertDirectoryIdempotent(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writePair(t, inputDir, "20210101", sequentialGrid(8, 8), uniformGrid(8, 8, 0.6))

	opts := Options{Stride: 3, Threshold: 0.3}
	_, err := ConvertDirectory(inputDir, outputDir, opts)
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(outputDir, "20210101_unwrap.bpc"))
	require.NoError(t, err)

	_, err = ConvertDirectory(inputDir, outputDir, opts)
	require.NoError(t, err)

	second, err := os.ReadFile(filepath.Join(outputDir, "20210101_unwrap.bpc"))
	require.NoError(t, err)
	assert.Equal(t, first, second, "re-running the conversion must be byte-identical")
}

func TestConvertDirectoryWorkers(t *testing.T) {
	inputDir := t.TempDir()
	sequentialOut := t.TempDir()
	concurrentOut := t.TempDir()

	for _, datestamp := range []string{"20210101", "20210113", "20210125", "20210206"} {
		writePair(t, inputDir, datestamp, sequentialGrid(10, 10), uniformGrid(10, 10, 0.7))
	}

	base := Options{Stride: 2, Threshold: 0.3}
	wantSummary := Summary{Found: 4, Converted: 4}

	summary, err := ConvertDirectory(inputDir, sequentialOut, base)
	require.NoError(t, err)
	assert.Equal(t, wantSummary, summary)

	concurrent := base
	concurrent.Workers = 4
	summary, err = ConvertDirectory(inputDir, concurrentOut, concurrent)
	require.NoError(t, err)
	assert.Equal(t, wantSummary, summary)

	// Worker count must not change the outputs.
	for _, datestamp := range []string{"20210101", "20210113", "20210125", "20210206"} {
		seq, err := os.ReadFile(filepath.Join(sequentialOut, datestamp+"_unwrap.bpc"))
		require.NoError(t, err)
		conc, err := os.ReadFile(filepath.Join(concurrentOut, datestamp+"_unwrap.bpc"))
		require.NoError(t, err)
		assert.Equal(t, seq, conc, "pair %s", datestamp)
	}
}

func TestConvertDirectoryPublishesEvents(t *testing.T) {
	inputDir := t.TempDir()
	writePair(t, inputDir, "20210101", sequentialGrid(4, 4), uniformGrid(4, 4, 0.9))

	client := NewMockClient()
	opts := Options{Events: NewPublisher(client, "defocloud")}

	summary, err := ConvertDirectory(inputDir, t.TempDir(), opts)
	require.NoError(t, err)
	assert.Equal(t, Summary{Found: 1, Converted: 1}, summary)

	messages := client.PublishedMessages()
	require.Len(t, messages, 2)

	assert.Equal(t, "defocloud/conversions", messages[0].Topic)
	var ev ConversionEvent
	require.NoError(t, json.Unmarshal(messages[0].Payload, &ev))
	assert.Equal(t, "20210101", ev.Datestamp)
	assert.Equal(t, 1, ev.Points)
	assert.Empty(t, ev.Error)

	assert.Equal(t, "defocloud/summary", messages[1].Topic)
	var s Summary
	require.NoError(t, json.Unmarshal(messages[1].Payload, &s))
	assert.Equal(t, summary, s)
}
