package csg

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// FaceStatus classifies a face relative to the other solid of a Boolean
// pair.
type FaceStatus int

const (
	FaceUnknown FaceStatus = iota + 1
	FaceInside
	FaceOutside
	// FaceSame is a face coplanar with a face of the other solid and
	// facing the same way.
	FaceSame
	// FaceOpposite is a face coplanar with a face of the other solid and
	// facing the other way.
	FaceOpposite
)

func (s FaceStatus) String() string {
	switch s {
	case FaceUnknown:
		return "unknown"
	case FaceInside:
		return "inside"
	case FaceOutside:
		return "outside"
	case FaceSame:
		return "same"
	case FaceOpposite:
		return "opposite"
	default:
		return fmt.Sprintf("FaceStatus(%d)", int(s))
	}
}

// vertexStatus is the status a face floods onto its unclassified vertices.
func (s FaceStatus) vertexStatus() Status {
	switch s {
	case FaceInside:
		return StatusInside
	case FaceOutside:
		return StatusOutside
	case FaceSame, FaceOpposite:
		return StatusBoundary
	default:
		return StatusUnknown
	}
}

// Face is a triangle over three vertices of a VertexSet, wound
// counter-clockwise when seen from outside the solid.
type Face struct {
	V1, V2, V3 int
	Status     FaceStatus

	verts  *VertexSet
	normal v3.Vec
	bound  Bound
}

// newFace builds a face and caches its normal and bound. Vertex positions
// never move once inside a VertexSet.
func newFace(verts *VertexSet, a, b, c int) *Face {
	f := &Face{V1: a, V2: b, V3: c, Status: FaceUnknown, verts: verts}
	p1, p2, p3 := f.positions()
	f.normal = p2.Sub(p1).Cross(p3.Sub(p1)).Normalize()
	f.bound = NewBound(p1, p2, p3)
	return f
}

func (f *Face) positions() (v3.Vec, v3.Vec, v3.Vec) {
	return f.verts.At(f.V1).Pos, f.verts.At(f.V2).Pos, f.verts.At(f.V3).Pos
}

// Normal returns the unit normal given by the winding.
func (f *Face) Normal() v3.Vec { return f.normal }

// Bound returns the bounding box of the triangle.
func (f *Face) Bound() Bound { return f.bound }

// Area returns the triangle area.
func (f *Face) Area() float64 {
	p1, p2, p3 := f.positions()
	return p2.Sub(p1).Cross(p3.Sub(p1)).Length() / 2
}

// Centroid returns the mean of the three corners.
func (f *Face) Centroid() v3.Vec {
	p1, p2, p3 := f.positions()
	return p1.Add(p2).Add(p3).DivScalar(3)
}

// Equals reports whether two faces use the same vertices in the same
// cyclic order.
func (f *Face) Equals(o *Face) bool {
	return (f.V1 == o.V1 && f.V2 == o.V2 && f.V3 == o.V3) ||
		(f.V1 == o.V2 && f.V2 == o.V3 && f.V3 == o.V1) ||
		(f.V1 == o.V3 && f.V2 == o.V1 && f.V3 == o.V2)
}

// invert reverses the winding.
func (f *Face) invert() {
	f.V1, f.V2 = f.V2, f.V1
	f.normal = f.normal.Neg()
}

// simpleClassify takes the status of the first vertex already known to be
// inside or outside.
func (f *Face) simpleClassify() bool {
	for _, id := range [3]int{f.V1, f.V2, f.V3} {
		switch f.verts.At(id).Status {
		case StatusInside:
			f.Status = FaceInside
			return true
		case StatusOutside:
			f.Status = FaceOutside
			return true
		}
	}
	return false
}

// rayTraceClassify casts a ray from the centroid along the normal and
// classifies the face by the nearest face of other it hits.
func (f *Face) rayTraceClassify(other *object3D, r Perturber, magnitude float64) {
	ray := NewRay(f.normal, f.Centroid())
	closest, dist, ray := nearestHit(ray, other.faces, r, magnitude)

	if closest == nil {
		f.Status = FaceOutside
		return
	}

	dot := closest.normal.Dot(ray.Direction)
	if math.Abs(dist) < FaceTolerance {
		if dot > FaceTolerance {
			f.Status = FaceSame
		} else if dot < -FaceTolerance {
			f.Status = FaceOpposite
		}
		return
	}
	if dot > FaceTolerance {
		f.Status = FaceInside
	} else if dot < -FaceTolerance {
		f.Status = FaceOutside
	}
}

// maxRayAttempts bounds the number of perturbations of a ray that keeps
// lying inside a face plane.
const maxRayAttempts = 64

// nearestHit returns the face nearest to the ray origin in front of it, the
// distance to the hit, and the ray actually traced. A hit at distance zero
// means the origin lies on that face. A ray lying in a face plane is
// perturbed and traced again.
func nearestHit(ray Line, faces []*Face, r Perturber, magnitude float64) (*Face, float64, Line) {
	var (
		closest     *Face
		closestDist float64
	)

	for attempt := 0; ; attempt++ {
		closest, closestDist = nil, math.MaxFloat64
		inPlane := false

		for _, face := range faces {
			dot := face.normal.Dot(ray.Direction)
			hit, ok := ray.PlaneIntersection(face.normal, face.verts.At(face.V1).Pos)
			if !ok {
				continue
			}
			dist := ray.PointDistance(hit)

			if math.Abs(dist) < FaceTolerance && math.Abs(dot) < FaceTolerance {
				inPlane = true
				break
			}

			if math.Abs(dist) < FaceTolerance && math.Abs(dot) > FaceTolerance {
				if face.hasPoint(hit) {
					closest, closestDist = face, 0
					break
				}
			} else if math.Abs(dot) > FaceTolerance && dist > FaceTolerance {
				if dist < closestDist && face.hasPoint(hit) {
					closest, closestDist = face, dist
				}
			}
		}

		if !inPlane {
			return closest, closestDist, ray
		}
		if attempt+1 >= maxRayAttempts {
			Logger().Warn("csg: ray perturbation attempts exhausted", "attempts", maxRayAttempts)
			return closest, closestDist, ray
		}
		ray.Perturb(r, magnitude)
	}
}

type linePosition int

const (
	lineNone linePosition = iota
	lineUp
	lineDown
	lineOn
)

// hasPoint reports whether p, assumed to lie in the face plane, is inside
// the triangle or on its border. The test runs in the projection that drops
// the dominant normal axis.
func (f *Face) hasPoint(p v3.Vec) bool {
	p1, p2, p3 := f.positions()
	n := f.normal.Abs()

	// project maps a point to the two kept coordinates (u, w).
	var project func(v3.Vec) (float64, float64)
	switch {
	case n.X >= n.Y && n.X >= n.Z:
		project = func(v v3.Vec) (float64, float64) { return v.Y, v.Z }
	case n.Y >= n.Z:
		project = func(v v3.Vec) (float64, float64) { return v.X, v.Z }
	default:
		project = func(v v3.Vec) (float64, float64) { return v.X, v.Y }
	}

	pu, pw := project(p)
	r1 := linePositionOf(pu, pw, project, p1, p2)
	r2 := linePositionOf(pu, pw, project, p2, p3)
	r3 := linePositionOf(pu, pw, project, p3, p1)

	up := r1 == lineUp || r2 == lineUp || r3 == lineUp
	down := r1 == lineDown || r2 == lineDown || r3 == lineDown
	if up && down {
		return true
	}
	return r1 == lineOn || r2 == lineOn || r3 == lineOn
}

// linePositionOf tells whether the segment a-b passes above, below or
// through (pu, pw) along the w axis of the projection. Segments that do not
// span pu, or are vertical in the projection, give lineNone.
func linePositionOf(pu, pw float64, project func(v3.Vec) (float64, float64), a, b v3.Vec) linePosition {
	au, aw := project(a)
	bu, bw := project(b)
	if math.Abs(au-bu) <= FaceTolerance {
		return lineNone
	}
	if !((pu >= au && pu <= bu) || (pu <= au && pu >= bu)) {
		return lineNone
	}
	slope := (bw - aw) / (bu - au)
	w := slope*(pu-au) + aw
	switch {
	case w > pw+FaceTolerance:
		return lineUp
	case w < pw-FaceTolerance:
		return lineDown
	default:
		return lineOn
	}
}

func (f *Face) String() string {
	return fmt.Sprintf("face(%d, %d, %d) %s", f.V1, f.V2, f.V3, f.Status)
}
