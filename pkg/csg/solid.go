package csg

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Solid is a closed triangulated polyhedron stored as parallel arrays.
// Colors[i] is the color of Vertices[i]; every three Indices form a
// counter-clockwise triangle seen from outside.
type Solid struct {
	Vertices []v3.Vec
	Colors   []Color
	Indices  []uint32
}

// NewSolid copies the given buffers into a Solid. It fails with
// ErrMalformedSolid when the buffers are inconsistent.
func NewSolid(vertices []v3.Vec, indices []uint32, colors []Color) (*Solid, error) {
	s := &Solid{
		Vertices: slices.Clone(vertices),
		Colors:   slices.Clone(colors),
		Indices:  slices.Clone(indices),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSolidColor is NewSolid with one color for every vertex.
func NewSolidColor(vertices []v3.Vec, indices []uint32, color Color) (*Solid, error) {
	colors := make([]Color, len(vertices))
	for i := range colors {
		colors[i] = color
	}
	return NewSolid(vertices, indices, colors)
}

// Validate checks buffer lengths and index ranges. A nil solid is
// malformed.
func (s *Solid) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil solid", ErrMalformedSolid)
	}
	if len(s.Colors) != len(s.Vertices) {
		return fmt.Errorf("%w: %d colors for %d vertices", ErrMalformedSolid, len(s.Colors), len(s.Vertices))
	}
	if len(s.Indices)%3 != 0 {
		return fmt.Errorf("%w: index count %d is not a multiple of 3", ErrMalformedSolid, len(s.Indices))
	}
	for i, idx := range s.Indices {
		if int(idx) >= len(s.Vertices) {
			return fmt.Errorf("%w: index %d at position %d out of range (%d vertices)",
				ErrMalformedSolid, idx, i, len(s.Vertices))
		}
	}
	return nil
}

// IsEmpty reports whether the solid has no triangles.
func (s *Solid) IsEmpty() bool { return len(s.Indices) == 0 }

// VertexCount returns the number of vertices.
func (s *Solid) VertexCount() int { return len(s.Vertices) }

// FaceCount returns the number of triangles.
func (s *Solid) FaceCount() int { return len(s.Indices) / 3 }

// Clone returns a deep copy.
func (s *Solid) Clone() *Solid {
	return &Solid{
		Vertices: slices.Clone(s.Vertices),
		Colors:   slices.Clone(s.Colors),
		Indices:  slices.Clone(s.Indices),
	}
}

// Bound returns the bounding box of the vertices.
func (s *Solid) Bound() Bound { return BoundOf(s.Vertices) }

// Mean returns the average vertex position.
func (s *Solid) Mean() v3.Vec {
	var sum v3.Vec
	if len(s.Vertices) == 0 {
		return sum
	}
	for _, p := range s.Vertices {
		sum = sum.Add(p)
	}
	return sum.DivScalar(float64(len(s.Vertices)))
}

// ---------------------------------------------------------------------------
// Transforms
// ---------------------------------------------------------------------------

// Translate moves the solid in the XY plane.
func (s *Solid) Translate(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	for i := range s.Vertices {
		s.Vertices[i].X += dx
		s.Vertices[i].Y += dy
	}
}

// Zoom moves the solid along Z.
func (s *Solid) Zoom(dz float64) {
	if dz == 0 {
		return
	}
	for i := range s.Vertices {
		s.Vertices[i].Z += dz
	}
}

// Scale multiplies each coordinate by the matching factor.
func (s *Solid) Scale(dx, dy, dz float64) {
	for i := range s.Vertices {
		s.Vertices[i].X *= dx
		s.Vertices[i].Y *= dy
		s.Vertices[i].Z *= dz
	}
}

// Rotate turns the solid about its mean, by dx radians around the X axis
// and then by dy radians around the Y axis.
func (s *Solid) Rotate(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	cosX, sinX := math.Cos(dx), math.Sin(dx)
	cosY, sinY := math.Cos(dy), math.Sin(dy)
	mean := s.Mean()

	for i, p := range s.Vertices {
		p = p.Sub(mean)
		if dx != 0 {
			p.Y, p.Z = p.Y*cosX-p.Z*sinX, p.Y*sinX+p.Z*cosX
		}
		if dy != 0 {
			p.X, p.Z = p.X*cosY+p.Z*sinY, -p.X*sinY+p.Z*cosY
		}
		s.Vertices[i] = p.Add(mean)
	}
}

// RotateZ turns the solid about its mean by dz radians around the Z axis.
func (s *Solid) RotateZ(dz float64) {
	if dz == 0 {
		return
	}
	cosZ, sinZ := math.Cos(dz), math.Sin(dz)
	mean := s.Mean()

	for i, p := range s.Vertices {
		p = p.Sub(mean)
		p.X, p.Y = p.X*cosZ-p.Y*sinZ, p.X*sinZ+p.Y*cosZ
		s.Vertices[i] = p.Add(mean)
	}
}

// Transform applies an affine matrix to every vertex.
func (s *Solid) Transform(m sdf.M44) {
	for i, p := range s.Vertices {
		s.Vertices[i] = m.MulPosition(p)
	}
}

// Invert reverses the winding of every triangle, turning the solid inside
// out. Used after mirroring transforms.
func (s *Solid) Invert() {
	for i := 0; i+2 < len(s.Indices); i += 3 {
		s.Indices[i], s.Indices[i+1] = s.Indices[i+1], s.Indices[i]
	}
}

// ---------------------------------------------------------------------------
// Measures
// ---------------------------------------------------------------------------

func (s *Solid) triangle(i int) (v3.Vec, v3.Vec, v3.Vec) {
	return s.Vertices[s.Indices[3*i]], s.Vertices[s.Indices[3*i+1]], s.Vertices[s.Indices[3*i+2]]
}

// Volume returns the enclosed volume. It is negative for an inside-out
// solid and meaningless for an open one.
func (s *Solid) Volume() float64 {
	var vol float64
	for i := range s.FaceCount() {
		p1, p2, p3 := s.triangle(i)
		vol += p1.Dot(p2.Cross(p3))
	}
	return vol / 6
}

// SurfaceArea returns the summed triangle area.
func (s *Solid) SurfaceArea() float64 {
	var area float64
	for i := range s.FaceCount() {
		p1, p2, p3 := s.triangle(i)
		area += p2.Sub(p1).Cross(p3.Sub(p1)).Length() / 2
	}
	return area
}

// containsDirection is the ray direction used by Contains. It is kept off
// the coordinate axes and diagonals.
var containsDirection = v3.Vec{X: 0.5773, Y: 0.6123, Z: 0.5402}

// Contains reports whether p is inside the solid or on its surface. It uses
// the rule of face classification: the nearest face hit by a ray from p
// decides by the side it faces.
func (s *Solid) Contains(p v3.Vec) bool {
	if s.IsEmpty() || s.Validate() != nil {
		return false
	}
	o := newObject3D(s)
	r := rand.New(rand.NewPCG(0, 0))
	closest, dist, ray := nearestHit(NewRay(containsDirection, p), o.faces, r, DefaultPerturbation)
	if closest == nil {
		return false
	}
	if math.Abs(dist) < FaceTolerance {
		return true
	}
	return closest.normal.Dot(ray.Direction) > FaceTolerance
}
