// Package kernel defines the abstract geometry kernel interface.
// Implementations (polyhedral, sdfx) provide solid modeling and
// boolean operations behind this interface. The kernel abstraction
// allows swapping backends without changing the rest of the system.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Contains reports whether p lies inside the solid or on its surface.
	Contains(p [3]float64) bool
}

// Kernel is the abstract geometry kernel interface.
// Solids are values: operations return new solids and leave their
// arguments untouched.
type Kernel interface {
	// Primitives, centered on the origin. Cylinders run along Z.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // degrees about the center, X then Y then Z
	Scale(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Painter is implemented by kernels whose solids carry per-vertex color.
// Paint returns a copy of s with every vertex set to rgba.
type Painter interface {
	Paint(s Solid, rgba [4]float32) Solid
}
