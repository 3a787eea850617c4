package csg

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultBoxVertices are the corners of the unit cube centered on the
// origin.
var DefaultBoxVertices = []v3.Vec{
	{X: -0.5, Y: -0.5, Z: -0.5},
	{X: 0.5, Y: -0.5, Z: -0.5},
	{X: -0.5, Y: 0.5, Z: -0.5},
	{X: 0.5, Y: 0.5, Z: -0.5},
	{X: -0.5, Y: -0.5, Z: 0.5},
	{X: 0.5, Y: -0.5, Z: 0.5},
	{X: -0.5, Y: 0.5, Z: 0.5},
	{X: 0.5, Y: 0.5, Z: 0.5},
}

// DefaultBoxIndices triangulates DefaultBoxVertices, two triangles per side.
var DefaultBoxIndices = []uint32{
	0, 2, 3,
	3, 1, 0,
	4, 5, 7,
	7, 6, 4,
	0, 1, 5,
	5, 4, 0,
	1, 3, 7,
	7, 5, 1,
	3, 2, 6,
	6, 7, 3,
	2, 0, 4,
	4, 6, 2,
}

// NewBox returns an axis-aligned box of the given size centered on center.
func NewBox(center, size v3.Vec, color Color) *Solid {
	s, _ := NewSolidColor(DefaultBoxVertices, DefaultBoxIndices, color)
	s.Scale(size.X, size.Y, size.Z)
	s.Translate(center.X, center.Y)
	s.Zoom(center.Z)
	return s
}

// NewCylinder returns a closed cylinder along Z centered on center, with
// segments sides. Fewer than 3 segments are raised to 3.
func NewCylinder(center v3.Vec, radius, height float64, segments int, color Color) *Solid {
	n := max(segments, 3)
	h := height / 2

	vertices := make([]v3.Vec, 0, 2*n+2)
	vertices = append(vertices, v3.Vec{Z: -h}, v3.Vec{Z: h})
	for _, z := range [2]float64{-h, h} {
		for i := range n {
			angle := 2 * math.Pi * float64(i) / float64(n)
			vertices = append(vertices, v3.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle), Z: z})
		}
	}

	const bottomCenter, topCenter = 0, 1
	bottom := func(i int) uint32 { return uint32(2 + i%n) }
	top := func(i int) uint32 { return uint32(2 + n + i%n) }

	indices := make([]uint32, 0, 12*n)
	for i := range n {
		a, b := bottom(i), bottom(i+1)
		c, d := top(i), top(i+1)
		indices = append(indices,
			a, b, d,
			a, d, c,
			topCenter, c, d,
			bottomCenter, b, a,
		)
	}

	s, _ := NewSolidColor(vertices, indices, color)
	s.Translate(center.X, center.Y)
	s.Zoom(center.Z)
	return s
}
