package insar

// CloudWriter serializes a point cloud to a file. The orchestrator holds a
// slice of writers and stays agnostic to formats; adding a format means
// adding an implementation, not touching pipeline logic.
type CloudWriter interface {
	// Write serializes the cloud to path. Implementations must produce a
	// validly-formatted file even for an empty cloud, and must not leave a
	// file whose header disagrees with its body on failure.
	Write(path string, pc *PointCloud) error

	// Ext returns the file extension for this format, without the dot.
	Ext() string
}
