// Package polyhedral implements the kernel.Kernel interface on top of the
// exact polyhedral Boolean engine in pkg/csg. Solids are triangle meshes,
// so tessellation is a format conversion rather than a sampling step.
package polyhedral

import (
	"fmt"

	"github.com/chazu/polybool/pkg/csg"
	"github.com/chazu/polybool/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var (
	_ kernel.Kernel  = (*PolyhedralKernel)(nil)
	_ kernel.Painter = (*PolyhedralKernel)(nil)
)

// DefaultSegments is the cylinder facet count used when a caller passes
// a non-positive segment count.
const DefaultSegments = 32

// DefaultColor is the vertex color given to primitives.
var DefaultColor = csg.Color{R: 0.8, G: 0.8, B: 0.8, A: 1}

// polySolid wraps a *csg.Solid to implement kernel.Solid. The wrapped
// solid is never mutated after construction.
type polySolid struct {
	s *csg.Solid
}

// BoundingBox returns the axis-aligned bounding box.
func (p *polySolid) BoundingBox() (min, max [3]float64) {
	if p.s.VertexCount() == 0 {
		return min, max
	}
	b := p.s.Bound()
	lo, hi := b.Min(), b.Max()
	return [3]float64{lo.X, lo.Y, lo.Z}, [3]float64{hi.X, hi.Y, hi.Z}
}

// Contains reports whether p lies inside the solid or on its surface.
func (p *polySolid) Contains(pt [3]float64) bool {
	return p.s.Contains(v3.Vec{X: pt[0], Y: pt[1], Z: pt[2]})
}

// PolyhedralKernel implements kernel.Kernel using the csg Boolean engine.
type PolyhedralKernel struct {
	opts     csg.Options
	color    csg.Color
	segments int
}

// Option configures a PolyhedralKernel.
type Option func(*PolyhedralKernel)

// WithOptions sets the Boolean engine options (seed, perturbation,
// sequential classification).
func WithOptions(opts csg.Options) Option {
	return func(k *PolyhedralKernel) { k.opts = opts }
}

// WithColor sets the vertex color of new primitives.
func WithColor(c csg.Color) Option {
	return func(k *PolyhedralKernel) { k.color = c }
}

// WithSegments sets the facet count used for cylinders whose caller
// passes a non-positive segment count.
func WithSegments(n int) Option {
	return func(k *PolyhedralKernel) {
		if n > 0 {
			k.segments = n
		}
	}
}

// New returns a PolyhedralKernel with default engine options.
func New(opts ...Option) *PolyhedralKernel {
	k := &PolyhedralKernel{
		opts:     csg.DefaultOptions(),
		color:    DefaultColor,
		segments: DefaultSegments,
	}
	for _, o := range opts {
		o(k)
	}
	return k
}

// Wrap exposes an existing csg solid as a kernel.Solid. The solid is
// copied.
func Wrap(s *csg.Solid) kernel.Solid {
	return &polySolid{s: s.Clone()}
}

// FromMesh wraps an imported csg mesh, such as one read from STL.
func FromMesh(m *csg.Mesh) (kernel.Solid, error) {
	s, err := csg.MeshToSolid(m)
	if err != nil {
		return nil, fmt.Errorf("polyhedral: %w", err)
	}
	return &polySolid{s: s}, nil
}

// Unwrap returns a copy of the csg solid behind a kernel.Solid produced by
// this package.
func Unwrap(s kernel.Solid) (*csg.Solid, bool) {
	p, ok := s.(*polySolid)
	if !ok {
		return nil, false
	}
	return p.s.Clone(), true
}

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) *csg.Solid {
	return s.(*polySolid).s
}

// wrap creates a kernel.Solid from a csg solid the caller owns.
func wrap(s *csg.Solid) kernel.Solid {
	return &polySolid{s: s}
}

// Box creates a box with the given dimensions centered on the origin.
func (k *PolyhedralKernel) Box(x, y, z float64) kernel.Solid {
	return wrap(csg.NewBox(v3.Vec{}, v3.Vec{X: x, Y: y, Z: z}, k.color))
}

// Cylinder creates a closed cylinder along Z centered on the origin.
// Segment counts below three are raised to three.
func (k *PolyhedralKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	if segments <= 0 {
		segments = k.segments
	}
	return wrap(csg.NewCylinder(v3.Vec{}, radius, height, segments, k.color))
}

// boolean runs the modeller on a and b. Inputs are validated by the
// modeller; a malformed operand is a programming error in this package.
func (k *PolyhedralKernel) boolean(a, b kernel.Solid, op func(*csg.Modeller) *csg.Solid) kernel.Solid {
	m, err := csg.NewModeller(unwrap(a), unwrap(b), k.opts)
	if err != nil {
		panic(fmt.Sprintf("polyhedral: %v", err))
	}
	return wrap(op(m))
}

// Union returns the union of two solids.
func (k *PolyhedralKernel) Union(a, b kernel.Solid) kernel.Solid {
	return k.boolean(a, b, (*csg.Modeller).Union)
}

// Difference returns the difference a - b.
func (k *PolyhedralKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return k.boolean(a, b, (*csg.Modeller).Difference)
}

// Intersection returns the intersection of two solids.
func (k *PolyhedralKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return k.boolean(a, b, (*csg.Modeller).Intersection)
}

// Translate moves a solid by (x, y, z).
func (k *PolyhedralKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	out := unwrap(s).Clone()
	out.Translate(x, y)
	out.Zoom(z)
	return wrap(out)
}

// Rotate rotates a solid by Euler angles (degrees) about the center of its
// bounding box, X first, then Y, then Z.
func (k *PolyhedralKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	out := unwrap(s).Clone()
	if out.VertexCount() == 0 {
		return wrap(out)
	}
	out.Transform(kernel.RotationAbout(out.Bound().Box().Center(), x, y, z))
	return wrap(out)
}

// Scale scales a solid about the origin. A negative factor product mirrors
// the solid, so the winding is reversed to keep normals outward.
func (k *PolyhedralKernel) Scale(s kernel.Solid, x, y, z float64) kernel.Solid {
	out := unwrap(s).Clone()
	out.Scale(x, y, z)
	if x*y*z < 0 {
		out.Invert()
	}
	return wrap(out)
}

// Paint returns a copy of s with every vertex colored rgba. Colors survive
// Boolean operations, so a part keeps the colors of the faces it came from.
func (k *PolyhedralKernel) Paint(s kernel.Solid, rgba [4]float32) kernel.Solid {
	out := unwrap(s).Clone()
	c := csg.Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
	for i := range out.Colors {
		out.Colors[i] = c
	}
	return wrap(out)
}

// ToMesh converts a solid to the flat render mesh. Vertices are shared
// between triangles, so normals are averaged per vertex.
func (k *PolyhedralKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	src := unwrap(s)
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("polyhedral: ToMesh: %w", err)
	}

	vertices := make([]float32, 0, len(src.Vertices)*3)
	colors := make([]float32, 0, len(src.Vertices)*4)
	for i, p := range src.Vertices {
		vertices = append(vertices, float32(p.X), float32(p.Y), float32(p.Z))
		c := src.Colors[i]
		colors = append(colors, c.R, c.G, c.B, c.A)
	}
	indices := append([]uint32(nil), src.Indices...)

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  kernel.ComputeVertexNormals(vertices, indices),
		Colors:   colors,
		Indices:  indices,
	}, nil
}

// Volume returns the enclosed volume of a solid produced by this kernel.
func Volume(s kernel.Solid) float64 {
	return unwrap(s).Volume()
}
