package insar

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestCloud runs the full selection and assembly pipeline against a
// small deterministic grid pair.
func buildTestCloud(t *testing.T) *PointCloud {
	t.Helper()
	deformation := sequentialGrid(6, 6)
	coherence := uniformGrid(6, 6, 0.75)
	cells, err := SelectCells(deformation, coherence, 2, 0.3)
	require.NoError(t, err)
	pc, err := BuildPointCloud(deformation, coherence, cells)
	require.NoError(t, err)
	return pc
}

// assertCloudsEqual compares two clouds point by point and attribute by
// attribute.
func assertCloudsEqual(t *testing.T, want, got *PointCloud) {
	t.Helper()
	assert.Equal(t, want.CRS, got.CRS)
	require.Equal(t, want.Points, got.Points)
	require.Equal(t, want.Attributes.Names(), got.Attributes.Names())
	for _, name := range want.Attributes.Names() {
		wv, _ := want.Attributes.Values(name)
		gv, _ := got.Attributes.Values(name)
		assert.Equal(t, wv, gv, "attribute %q", name)
	}
}

func TestBinaryCloudRoundTrip(t *testing.T) {
	pc := buildTestCloud(t)
	path := filepath.Join(t.TempDir(), "cloud.bpc")

	require.NoError(t, BinaryCloudWriter{}.Write(path, pc))

	got, err := ReadBinaryCloud(path)
	require.NoError(t, err)
	assertCloudsEqual(t, pc, got)
}

func TestBinaryCloudHeader(t *testing.T) {
	pc := buildTestCloud(t)
	path := filepath.Join(t.TempDir(), "cloud.bpc")
	require.NoError(t, BinaryCloudWriter{}.Write(path, pc))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		lines = append(lines, line)
		if strings.HasPrefix(line, "DATA") {
			break
		}
	}

	require.GreaterOrEqual(t, len(lines), 8)
	assert.Equal(t, "BPC 1.0", lines[0])
	assert.Equal(t, "CRS "+pc.CRS, lines[1])
	assert.Equal(t, "POINTS 9", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "BOUNDS "), "line 4 = %q", lines[3])
	assert.Equal(t, "FIELDS x y z deformation coherence", lines[4])
	assert.Equal(t, "SIZE 8 8 8 4 4", lines[5])
	assert.Equal(t, "TYPE F F F F F", lines[6])
	assert.Equal(t, "DATA binary", lines[7])

	// Fixed-width records: 24 coordinate bytes plus 4 per attribute.
	header := 0
	for _, l := range lines {
		header += len(l) + 1
	}
	assert.Equal(t, 9*(24+4*2), len(raw)-header)
}

func TestBinaryCloudEmpty(t *testing.T) {
	pc := &PointCloud{Attributes: NewAttributeSet(0), CRS: "EPSG:32650"}
	require.NoError(t, pc.Attributes.Add(AttrDeformation, nil))
	require.NoError(t, pc.Attributes.Add(AttrCoherence, nil))

	path := filepath.Join(t.TempDir(), "empty.bpc")
	require.NoError(t, BinaryCloudWriter{}.Write(path, pc))

	got, err := ReadBinaryCloud(path)
	require.NoError(t, err)
	assert.Empty(t, got.Points)
	assert.Equal(t, []string{AttrDeformation, AttrCoherence}, got.Attributes.Names())
	assert.Equal(t, "EPSG:32650", got.CRS)
}

func TestBinaryCloudWriteFailure(t *testing.T) {
	pc := buildTestCloud(t)
	err := BinaryCloudWriter{}.Write(filepath.Join(t.TempDir(), "missing", "cloud.bpc"), pc)
	var werr *WriteError
	require.True(t, errors.As(err, &werr))
	assert.ErrorIs(t, werr.Err, os.ErrNotExist)
}

func TestReadBinaryCloudRejectsCorrupt(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, content []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, content, 0644))
		return path
	}

	tests := []struct {
		name string
		path string
	}{
		{"bad version", write("v.bpc", []byte("BPC 9.9\nDATA binary\n"))},
		{"missing points", write("p.bpc", []byte("BPC 1.0\nFIELDS x y z\nDATA binary\n"))},
		{"fields without xyz", write("f.bpc", []byte("BPC 1.0\nPOINTS 0\nFIELDS a b c\nDATA binary\n"))},
		{"truncated body", write("t.bpc", []byte("BPC 1.0\nPOINTS 2\nFIELDS x y z\nDATA binary\n1234"))},
		{"unknown header line", write("u.bpc", []byte("BPC 1.0\nPOINTS 0\nWHAT ever\nFIELDS x y z\nDATA binary\n"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadBinaryCloud(tt.path)
			assert.Error(t, err)
		})
	}
}
