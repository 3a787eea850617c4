package csg

import "errors"

// Tolerances used by the engine. Geometry is float64 throughout; these
// thresholds decide when two values are treated as equal.
const (
	// BoundTolerance widens bounding boxes in overlap tests.
	BoundTolerance = 1e-10
	// LineTolerance guards denominators in line/line and line/plane solves.
	LineTolerance = 1e-10
	// FaceTolerance is the plane-distance and area threshold for faces.
	FaceTolerance = 1e-10
	// VertexTolerance is the per-axis distance below which vertices merge.
	VertexTolerance = 1e-5
	// DefaultPerturbation is the magnitude of the random nudge applied to a
	// classification ray that lies inside a face plane.
	DefaultPerturbation = 1e-5
)

// ErrMalformedSolid is returned when solid buffers are inconsistent.
var ErrMalformedSolid = errors.New("csg: malformed solid")
