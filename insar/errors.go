package insar

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch reports a coherence raster whose dimensions differ
// from its deformation counterpart. It is always returned wrapped with the
// offending dimensions; check with errors.Is.
var ErrDimensionMismatch = errors.New("coherence dimensions differ from deformation dimensions")

// ErrAttributeLength reports an attribute value sequence whose length does
// not match the point count of the cloud it is attached to.
var ErrAttributeLength = errors.New("attribute length differs from point count")

// RasterReadError wraps any failure to load a raster: missing files,
// unparseable sidecar headers, bad dimensions, truncated sample data.
type RasterReadError struct {
	Path string
	Err  error
}

func (e *RasterReadError) Error() string {
	return fmt.Sprintf("reading raster %s: %v", e.Path, e.Err)
}

func (e *RasterReadError) Unwrap() error { return e.Err }

// WriteError wraps a filesystem failure while writing an output file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
