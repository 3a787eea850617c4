package graph

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// BoxData is an axis-aligned box centered on the origin.
type BoxData struct {
	Size  Vec3  `json:"size"`
	Color *RGBA `json:"color,omitempty"`
}

func (BoxData) nodeData() {}

// CylinderData is a closed cylinder along Z centered on the origin.
// Segments is the facet count; zero means the kernel default.
type CylinderData struct {
	Height   float64 `json:"height"`
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
	Color    *RGBA   `json:"color,omitempty"`
}

func (CylinderData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData is a spatial transformation applied to a single child.
// Set fields apply in the order scale, rotation, translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
	Scale       *Vec3 `json:"scale,omitempty"`
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BoolOp enumerates the Boolean operations.
type BoolOp int

const (
	OpUnion BoolOp = iota
	OpDifference
	OpIntersection
)

func (op BoolOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// ParseBoolOp maps an operation name to its BoolOp.
func ParseBoolOp(s string) (BoolOp, bool) {
	switch s {
	case "union":
		return OpUnion, true
	case "difference", "subtract":
		return OpDifference, true
	case "intersection", "intersect":
		return OpIntersection, true
	}
	return 0, false
}

// BooleanData combines exactly two children: Children[0] op Children[1].
type BooleanData struct {
	Op BoolOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData is a named solid made of one or more bodies. Its children are
// unioned when the group is tessellated.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
