package csg

import (
	"math"
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Splitting stops once a face list grows past
// start*splitGrowthFactor + splitGrowthFloor faces.
const (
	splitGrowthFactor = 100
	splitGrowthFloor  = 100000
)

// object3D is the working form of a Solid during a Boolean operation: a
// deduplicated vertex arena plus a mutable face list.
type object3D struct {
	verts *VertexSet
	faces []*Face
	bound Bound
}

func newObject3D(s *Solid) *object3D {
	o := &object3D{verts: NewVertexSet(len(s.Vertices))}

	ids := make([]int, len(s.Vertices))
	for i, p := range s.Vertices {
		ids[i] = o.verts.Add(p, s.Colors[i], StatusUnknown)
	}
	o.faces = make([]*Face, 0, len(s.Indices)/3)
	for i := 0; i+2 < len(s.Indices); i += 3 {
		o.addFace(ids[s.Indices[i]], ids[s.Indices[i+1]], ids[s.Indices[i+2]])
	}
	o.bound = BoundOf(s.Vertices)
	return o
}

// addFace appends a face unless it repeats a vertex or has no area.
func (o *object3D) addFace(a, b, c int) *Face {
	if a == b || a == c || b == c {
		return nil
	}
	p1, p2, p3 := o.verts.At(a).Pos, o.verts.At(b).Pos, o.verts.At(c).Pos
	if p2.Sub(p1).Cross(p3.Sub(p1)).Length()/2 <= FaceTolerance {
		return nil
	}
	f := newFace(o.verts, a, b, c)
	o.faces = append(o.faces, f)
	return f
}

func (o *object3D) addVertex(pos v3.Vec, color Color, status Status) int {
	return o.verts.Add(pos, color, status)
}

func (o *object3D) removeFace(i int) *Face {
	f := o.faces[i]
	o.faces = slices.Delete(o.faces, i, i+1)
	return f
}

// ---------------------------------------------------------------------------
// Splitting
// ---------------------------------------------------------------------------

// splitFaces splits the faces of o along their intersections with the faces
// of other, so that afterwards no face of o crosses a face of other.
func (o *object3D) splitFaces(other *object3D) {
	if !o.bound.Overlap(other.bound) {
		return
	}

	start := len(o.faces)
	limit := start*splitGrowthFactor + splitGrowthFloor

	for i := 0; i < len(o.faces); i++ {
		face1 := o.faces[i]
		if !face1.bound.Overlap(other.bound) {
			continue
		}

		for _, face2 := range other.faces {
			if !face1.bound.Overlap(face2.bound) {
				continue
			}

			// Faces whose vertices all lie on one side of the other
			// plane, or all on it, do not cross.
			p1, p2, p3 := face1.positions()
			s1 := signOf(planeDistance(p1, face2))
			s2 := signOf(planeDistance(p2, face2))
			s3 := signOf(planeDistance(p3, face2))
			if s1 == s2 && s2 == s3 {
				continue
			}
			q1, q2, q3 := face2.positions()
			t1 := signOf(planeDistance(q1, face1))
			t2 := signOf(planeDistance(q2, face1))
			t3 := signOf(planeDistance(q3, face1))
			if t1 == t2 && t2 == t3 {
				continue
			}

			line := LineFromPlanes(face1.normal, p1, face2.normal, q1)
			if line.Degenerate() {
				continue
			}
			seg1 := newSegment(line, face1, s1, s2, s3)
			seg2 := newSegment(line, face2, t1, t2, t3)
			if !seg1.intersect(seg2) {
				continue
			}

			o.splitFace(i, seg1, seg2)

			if len(o.faces) > limit {
				Logger().Warn("csg: face split limit reached, result may be incomplete",
					"start", start, "faces", len(o.faces))
				return
			}

			if i < len(o.faces) && o.faces[i] == face1 {
				continue
			}
			// A break that reproduced the original face: put it back and
			// keep testing it.
			if last := len(o.faces) - 1; last >= 0 && face1.Equals(o.faces[last]) {
				if i != last {
					o.faces = slices.Insert(o.faces[:last], i, face1)
				} else {
					o.faces[i] = face1
				}
				continue
			}
			// The face at i is now the next one; test it from scratch.
			i--
			break
		}
	}

	Logger().Debug("csg: split faces", "before", start, "after", len(o.faces))
}

// splitFace replaces the face at pos by the fragments cut by the overlap of
// seg1 (on the face) and seg2 (on the other face).
func (o *object3D) splitFace(pos int, seg1, seg2 *segment) {
	face := o.faces[pos]
	startVertex, endVertex := seg1.startVertex, seg1.endVertex

	var (
		startType, endType segmentType
		startDist, endDist float64
		startPos, endPos   v3.Vec
	)
	if seg2.startDist > seg1.startDist+LineTolerance {
		startDist, startType, startPos = seg2.startDist, seg1.middleType, seg2.startPos
	} else {
		startDist, startType, startPos = seg1.startDist, seg1.startType, seg1.startPos
	}
	if seg2.endDist < seg1.endDist-LineTolerance {
		endDist, endType, endPos = seg2.endDist, seg1.middleType, seg2.endPos
	} else {
		endDist, endType, endPos = seg1.endDist, seg1.endType, seg1.endPos
	}
	middleType := seg1.middleType

	if startType == segVertex {
		o.verts.At(startVertex).setStatus(StatusBoundary)
	}
	if endType == segVertex {
		o.verts.At(endVertex).setStatus(StatusBoundary)
	}

	switch {
	case startType == segVertex && endType == segVertex:
		// The cut runs along existing vertices only.

	case middleType == segEdge:
		edge := 3
		switch {
		case (startVertex == face.V1 && endVertex == face.V2) || (startVertex == face.V2 && endVertex == face.V1):
			edge = 1
		case (startVertex == face.V2 && endVertex == face.V3) || (startVertex == face.V3 && endVertex == face.V2):
			edge = 2
		}
		switch {
		case startType == segVertex:
			o.breakInTwoEdge(pos, endPos, edge)
		case endType == segVertex:
			o.breakInTwoEdge(pos, startPos, edge)
		case startDist == endDist:
			o.breakInTwoEdge(pos, endPos, edge)
		case (startVertex == face.V1 && endVertex == face.V2) ||
			(startVertex == face.V2 && endVertex == face.V3) ||
			(startVertex == face.V3 && endVertex == face.V1):
			o.breakInThreeEdge(pos, startPos, endPos, edge)
		default:
			o.breakInThreeEdge(pos, endPos, startPos, edge)
		}

	case startType == segVertex && endType == segEdge:
		o.breakInTwoVertex(pos, endPos, endVertex)
	case startType == segEdge && endType == segVertex:
		o.breakInTwoVertex(pos, startPos, startVertex)
	case startType == segVertex && endType == segFace:
		o.breakInThreeVertex(pos, endPos, startVertex)
	case startType == segFace && endType == segVertex:
		o.breakInThreeVertex(pos, startPos, endVertex)
	case startType == segEdge && endType == segEdge:
		o.breakInThreeEdges(pos, startPos, endPos, startVertex, endVertex)
	case startType == segEdge && endType == segFace:
		o.breakInFour(pos, startPos, endPos, startVertex)
	case startType == segFace && endType == segEdge:
		o.breakInFour(pos, endPos, startPos, endVertex)

	case startType == segFace && endType == segFace:
		seg := startPos.Sub(endPos)
		if v := seg.Abs(); v.X < LineTolerance && v.Y < LineTolerance && v.Z < LineTolerance {
			o.breakInThreePoint(pos, startPos)
			return
		}

		// Pick the corner most lined up with the cut.
		p1, p2, p3 := face.positions()
		dot1 := math.Abs(seg.Dot(endPos.Sub(p1).Normalize()))
		dot2 := math.Abs(seg.Dot(endPos.Sub(p2).Normalize()))
		dot3 := math.Abs(seg.Dot(endPos.Sub(p3).Normalize()))
		lined, linedPos := 3, p3
		switch {
		case dot1 > dot2 && dot1 > dot3:
			lined, linedPos = 1, p1
		case dot2 > dot3 && dot2 > dot1:
			lined, linedPos = 2, p2
		}

		if linedPos.Sub(startPos).Length() > linedPos.Sub(endPos).Length() {
			o.breakInFive(pos, startPos, endPos, lined)
		} else {
			o.breakInFive(pos, endPos, startPos, lined)
		}
	}
}

// corners returns the face vertices rotated so that the one selected by
// which (1, 2 or 3) comes first.
func corners(f *Face, which int) (int, int, int) {
	switch which {
	case 1:
		return f.V1, f.V2, f.V3
	case 2:
		return f.V2, f.V3, f.V1
	default:
		return f.V3, f.V1, f.V2
	}
}

// cornerIndex tells which corner of f the vertex id is.
func cornerIndex(f *Face, id int) int {
	switch id {
	case f.V1:
		return 1
	case f.V2:
		return 2
	default:
		return 3
	}
}

func (o *object3D) boundaryVertex(f *Face, pos v3.Vec) int {
	return o.addVertex(pos, o.verts.At(f.V1).Color, StatusBoundary)
}

// breakInTwoEdge splits the face by a point on the given edge, with edge 1
// running V1-V2, edge 2 V2-V3 and edge 3 V3-V1.
func (o *object3D) breakInTwoEdge(pos int, p v3.Vec, edge int) {
	face := o.removeFace(pos)
	m := o.boundaryVertex(face, p)
	a, b, c := corners(face, edge)
	o.addFace(a, m, c)
	o.addFace(m, b, c)
}

// breakInTwoVertex splits the face by a point on the edge starting at the
// corner edgeVertex.
func (o *object3D) breakInTwoVertex(pos int, p v3.Vec, edgeVertex int) {
	face := o.faces[pos]
	o.breakInTwoEdge(pos, p, cornerIndex(face, edgeVertex))
}

// breakInThreeEdge splits the face by two points on one edge, p1 nearer the
// edge start.
func (o *object3D) breakInThreeEdge(pos int, p1, p2 v3.Vec, edge int) {
	face := o.removeFace(pos)
	m1 := o.boundaryVertex(face, p1)
	m2 := o.boundaryVertex(face, p2)
	a, b, c := corners(face, edge)
	o.addFace(a, m1, c)
	o.addFace(m1, m2, c)
	o.addFace(m2, b, c)
}

// breakInThreeVertex fans the face around an interior point, starting at
// the corner endVertex.
func (o *object3D) breakInThreeVertex(pos int, p v3.Vec, endVertex int) {
	face := o.faces[pos]
	o.fanAround(pos, p, cornerIndex(face, endVertex))
}

// breakInThreePoint fans the face around an interior point.
func (o *object3D) breakInThreePoint(pos int, p v3.Vec) {
	o.fanAround(pos, p, 1)
}

func (o *object3D) fanAround(pos int, p v3.Vec, first int) {
	face := o.removeFace(pos)
	m := o.boundaryVertex(face, p)
	a, b, c := corners(face, first)
	o.addFace(a, b, m)
	o.addFace(b, c, m)
	o.addFace(c, a, m)
}

// breakInThreeEdges cuts a corner off the face. p1 lies on the edge that
// starts at startVertex and p2 on the edge that starts at endVertex.
func (o *object3D) breakInThreeEdges(pos int, p1, p2 v3.Vec, startVertex, endVertex int) {
	face := o.removeFace(pos)
	m1 := o.boundaryVertex(face, p1)
	m2 := o.boundaryVertex(face, p2)
	c1, c2, c3 := face.V1, face.V2, face.V3

	switch {
	case startVertex == c1 && endVertex == c2:
		o.addFace(c1, m1, m2)
		o.addFace(c1, m2, c3)
		o.addFace(m1, c2, m2)
	case startVertex == c2 && endVertex == c1:
		o.addFace(c1, m2, m1)
		o.addFace(c1, m1, c3)
		o.addFace(m2, c2, m1)
	case startVertex == c2 && endVertex == c3:
		o.addFace(c2, m1, m2)
		o.addFace(c2, m2, c1)
		o.addFace(m1, c3, m2)
	case startVertex == c3 && endVertex == c2:
		o.addFace(c2, m2, m1)
		o.addFace(c2, m1, c1)
		o.addFace(m2, c3, m1)
	case startVertex == c3 && endVertex == c1:
		o.addFace(c3, m1, m2)
		o.addFace(c3, m2, c2)
		o.addFace(m1, c1, m2)
	default:
		o.addFace(c3, m2, m1)
		o.addFace(c3, m1, c2)
		o.addFace(m2, c1, m1)
	}
}

// breakInFour splits the face by a point p1 on the edge starting at
// edgeVertex and an interior point p2.
func (o *object3D) breakInFour(pos int, p1, p2 v3.Vec, edgeVertex int) {
	face := o.removeFace(pos)
	m1 := o.boundaryVertex(face, p1)
	m2 := o.boundaryVertex(face, p2)
	a, b, c := corners(face, cornerIndex(face, edgeVertex))
	o.addFace(a, m1, m2)
	o.addFace(m1, b, m2)
	o.addFace(b, c, m2)
	o.addFace(c, a, m2)
}

// breakInFive splits the face by two interior points. p2 is the one nearer
// the corner lined up with the cut.
func (o *object3D) breakInFive(pos int, p1, p2 v3.Vec, lined int) {
	face := o.removeFace(pos)
	m1 := o.boundaryVertex(face, p1)
	m2 := o.boundaryVertex(face, p2)
	l, a, b := corners(face, lined)
	o.addFace(a, b, m1)
	o.addFace(a, m1, m2)
	o.addFace(b, m2, m1)
	o.addFace(a, m2, l)
	o.addFace(b, l, m2)
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

// classifyFaces sets the status of every face of o relative to other.
// Statuses found by ray tracing are flooded to connected vertices so most
// faces classify from their vertices alone.
func (o *object3D) classifyFaces(other *object3D, r Perturber, magnitude float64) {
	for _, f := range o.faces {
		o.verts.Link(f.V1, f.V2)
		o.verts.Link(f.V2, f.V3)
		o.verts.Link(f.V3, f.V1)
	}

	traced := 0
	for _, f := range o.faces {
		if f.simpleClassify() {
			continue
		}
		f.rayTraceClassify(other, r, magnitude)
		traced++

		status := f.Status.vertexStatus()
		for _, id := range [3]int{f.V1, f.V2, f.V3} {
			if o.verts.At(id).Status == StatusUnknown {
				o.verts.Mark(id, status)
			}
		}
	}

	Logger().Debug("csg: classified faces", "faces", len(o.faces), "ray_traced", traced)
}
