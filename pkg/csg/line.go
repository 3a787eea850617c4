package csg

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Perturber is the random source used to nudge degenerate rays.
// *rand.Rand from math/rand/v2 satisfies it.
type Perturber interface {
	Float64() float64
}

// Line is an infinite line or a ray, given by a point and a direction.
type Line struct {
	Point     v3.Vec
	Direction v3.Vec
}

// NewRay returns a line through point along the normalized direction.
func NewRay(direction, point v3.Vec) Line {
	return Line{Point: point, Direction: direction.Normalize()}
}

// LineFromPlanes returns the intersection line of the plane through p1 with
// normal n1 and the plane through p2 with normal n2. Both normals must be
// unit length. Parallel planes give a degenerate line with a zero direction;
// check Degenerate before using the result.
func LineFromPlanes(n1, p1, n2, p2 v3.Vec) Line {
	dir := n1.Cross(n2)
	if dir.Length() < LineTolerance {
		return Line{}
	}

	d1 := -n1.Dot(p1)
	d2 := -n2.Dot(p2)

	// Zero the coordinate whose direction component is largest so the
	// remaining 2x2 system is as well conditioned as possible.
	var point v3.Vec
	ax, ay, az := math.Abs(dir.X), math.Abs(dir.Y), math.Abs(dir.Z)
	switch {
	case ax >= ay && ax >= az:
		point.Y = (d2*n1.Z - d1*n2.Z) / dir.X
		point.Z = (d1*n2.Y - d2*n1.Y) / dir.X
	case ay >= az:
		point.X = (d1*n2.Z - d2*n1.Z) / dir.Y
		point.Z = (d2*n1.X - d1*n2.X) / dir.Y
	default:
		point.X = (d2*n1.Y - d1*n2.Y) / dir.Z
		point.Y = (d1*n2.X - d2*n1.X) / dir.Z
	}

	return Line{Point: point, Direction: dir.Normalize()}
}

// Degenerate reports whether the line has no usable direction.
func (l Line) Degenerate() bool {
	return l.Direction.Length() < LineTolerance
}

// PointDistance returns the distance from the line point to p, which is
// assumed to lie on the line. The distance is negative when p is behind the
// line point with respect to the direction.
func (l Line) PointDistance(p v3.Vec) float64 {
	diff := p.Sub(l.Point)
	dist := diff.Length()
	if diff.Dot(l.Direction) < 0 {
		return -dist
	}
	return dist
}

// LineIntersection returns the point where l meets o. The 2x2 system is
// solved on the first non-degenerate axis pair in the order XY, XZ, YZ.
// It reports false when all three pairs are degenerate.
func (l Line) LineIntersection(o Line) (v3.Vec, bool) {
	p, d := l.Point, l.Direction
	q, e := o.Point, o.Direction

	var t float64
	if den := d.Y*e.X - d.X*e.Y; math.Abs(den) > LineTolerance {
		t = (-p.Y*e.X + q.Y*e.X + e.Y*p.X - e.Y*q.X) / den
	} else if den := -d.X*e.Z + d.Z*e.X; math.Abs(den) > LineTolerance {
		t = -(-e.Z*p.X + e.Z*q.X + e.X*p.Z - e.X*q.Z) / den
	} else if den := -d.Z*e.Y + d.Y*e.Z; math.Abs(den) > LineTolerance {
		t = (p.Z*e.Y - q.Z*e.Y - e.Z*p.Y + e.Z*q.Y) / den
	} else {
		return v3.Vec{}, false
	}

	return p.Add(d.MulScalar(t)), true
}

// closestPoint returns the point of l nearest to o. Used as a fallback when
// LineIntersection cannot pick an axis pair.
func (l Line) closestPoint(o Line) v3.Vec {
	w := l.Point.Sub(o.Point)
	a := l.Direction.Dot(l.Direction)
	b := l.Direction.Dot(o.Direction)
	c := o.Direction.Dot(o.Direction)
	d := l.Direction.Dot(w)
	e := o.Direction.Dot(w)
	den := a*c - b*b
	if math.Abs(den) < LineTolerance {
		return l.Point
	}
	t := (b*e - c*d) / den
	return l.Point.Add(l.Direction.MulScalar(t))
}

// PlaneIntersection returns the point where the line crosses the plane
// through planePoint with the given normal. A line lying in the plane
// returns its own point; a parallel line reports false.
func (l Line) PlaneIntersection(normal, planePoint v3.Vec) (v3.Vec, bool) {
	d := -normal.Dot(planePoint)
	numerator := normal.Dot(l.Point) + d
	denominator := normal.Dot(l.Direction)

	if math.Abs(denominator) < LineTolerance {
		if math.Abs(numerator) < LineTolerance {
			return l.Point, true
		}
		return v3.Vec{}, false
	}

	t := -numerator / denominator
	return l.Point.Add(l.Direction.MulScalar(t)), true
}

// Perturb adds magnitude*r.Float64() to each direction component.
func (l *Line) Perturb(r Perturber, magnitude float64) {
	l.Direction.X += magnitude * r.Float64()
	l.Direction.Y += magnitude * r.Float64()
	l.Direction.Z += magnitude * r.Float64()
}

func (l Line) String() string {
	return fmt.Sprintf("direction: %v, point: %v", l.Direction, l.Point)
}
