package csg

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Bound is the axis-aligned extent of a face or a solid. It is only used as
// a fast reject before the expensive intersection tests.
type Bound struct {
	box sdf.Box3
}

// NewBound returns the bound of a triangle.
func NewBound(p1, p2, p3 v3.Vec) Bound {
	b := Bound{box: sdf.Box3{Min: p1, Max: p1}}
	b.check(p2)
	b.check(p3)
	return b
}

// BoundOf returns the bound of a point set. An empty set yields the zero
// Bound.
func BoundOf(points []v3.Vec) Bound {
	if len(points) == 0 {
		return Bound{}
	}
	b := Bound{box: sdf.Box3{Min: points[0], Max: points[0]}}
	for _, p := range points[1:] {
		b.check(p)
	}
	return b
}

// check widens the bound to include p. Each axis is compared against the
// maximum first and against the minimum only when p is not above it.
func (b *Bound) check(p v3.Vec) {
	if p.X > b.box.Max.X {
		b.box.Max.X = p.X
	} else if p.X < b.box.Min.X {
		b.box.Min.X = p.X
	}

	if p.Y > b.box.Max.Y {
		b.box.Max.Y = p.Y
	} else if p.Y < b.box.Min.Y {
		b.box.Min.Y = p.Y
	}

	if p.Z > b.box.Max.Z {
		b.box.Max.Z = p.Z
	} else if p.Z < b.box.Min.Z {
		b.box.Min.Z = p.Z
	}
}

// Overlap reports whether two bounds touch or intersect. Boxes closer than
// BoundTolerance count as overlapping.
func (b Bound) Overlap(o Bound) bool {
	switch {
	case b.box.Min.X > o.box.Max.X+BoundTolerance,
		b.box.Max.X < o.box.Min.X-BoundTolerance,
		b.box.Min.Y > o.box.Max.Y+BoundTolerance,
		b.box.Max.Y < o.box.Min.Y-BoundTolerance,
		b.box.Min.Z > o.box.Max.Z+BoundTolerance,
		b.box.Max.Z < o.box.Min.Z-BoundTolerance:
		return false
	}
	return true
}

// Min returns the minimum corner.
func (b Bound) Min() v3.Vec { return b.box.Min }

// Max returns the maximum corner.
func (b Bound) Max() v3.Vec { return b.box.Max }

// Box returns the bound as an sdfx box.
func (b Bound) Box() sdf.Box3 { return b.box }

func (b Bound) String() string {
	return fmt.Sprintf("x: %g .. %g, y: %g .. %g, z: %g .. %g",
		b.box.Min.X, b.box.Max.X, b.box.Min.Y, b.box.Max.Y, b.box.Min.Z, b.box.Max.Z)
}
