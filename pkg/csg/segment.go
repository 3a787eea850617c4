package csg

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// segmentType tells what part of a face a segment end or middle lies on.
type segmentType int

const (
	segVertex segmentType = iota + 1
	segFace
	segEdge
)

// segment is the part of an intersection line covered by one face. Ends are
// ordered so startDist <= endDist along the line.
type segment struct {
	line Line

	// ends set so far
	index int

	startVertex, endVertex int
	startType, endType     segmentType
	middleType             segmentType
	startDist, endDist     float64
	startPos, endPos       v3.Vec
}

// newSegment builds the segment of line inside face f, given the signs of
// f's vertices against the plane of the other face.
func newSegment(line Line, f *Face, sign1, sign2, sign3 int) *segment {
	s := &segment{line: line}

	if sign1 == 0 {
		s.setVertex(f, f.V1)
		if sign2 == sign3 {
			s.setVertex(f, f.V1)
		}
	}
	if sign2 == 0 {
		s.setVertex(f, f.V2)
		if sign1 == sign3 {
			s.setVertex(f, f.V2)
		}
	}
	if sign3 == 0 {
		s.setVertex(f, f.V3)
		if sign1 == sign2 {
			s.setVertex(f, f.V3)
		}
	}

	if s.index != 2 {
		if sign1*sign2 == -1 {
			s.setEdge(f, f.V1, f.V2)
		}
		if sign2*sign3 == -1 {
			s.setEdge(f, f.V2, f.V3)
		}
		if sign3*sign1 == -1 {
			s.setEdge(f, f.V3, f.V1)
		}
	}
	return s
}

func (s *segment) setVertex(f *Face, id int) {
	pos := f.verts.At(id).Pos
	switch s.index {
	case 0:
		s.startVertex, s.startType = id, segVertex
		s.startDist = s.line.PointDistance(pos)
		s.startPos = pos
		s.index++
	case 1:
		s.endVertex, s.endType = id, segVertex
		s.endDist = s.line.PointDistance(pos)
		s.endPos = pos
		s.index++

		if s.startVertex == s.endVertex {
			s.middleType = segVertex
		} else if s.startType == segVertex {
			s.middleType = segEdge
		}
		if s.startDist > s.endDist {
			s.swapEnds()
		}
	}
}

func (s *segment) setEdge(f *Face, a, b int) {
	p1 := f.verts.At(a).Pos
	p2 := f.verts.At(b).Pos
	edge := Line{Point: p1, Direction: p2.Sub(p1)}

	pos, ok := s.line.LineIntersection(edge)
	if !ok {
		pos = s.line.closestPoint(edge)
	}

	switch s.index {
	case 0:
		s.startVertex, s.startType = a, segEdge
		s.startPos = pos
		s.startDist = s.line.PointDistance(pos)
		s.middleType = segFace
		s.index++
	case 1:
		s.endVertex, s.endType = a, segEdge
		s.endPos = pos
		s.endDist = s.line.PointDistance(pos)
		s.middleType = segFace
		s.index++
		if s.startDist > s.endDist {
			s.swapEnds()
		}
	}
}

func (s *segment) swapEnds() {
	s.startDist, s.endDist = s.endDist, s.startDist
	s.startType, s.endType = s.endType, s.startType
	s.startVertex, s.endVertex = s.endVertex, s.startVertex
	s.startPos, s.endPos = s.endPos, s.startPos
}

// intersect reports whether two segments on the same line overlap.
func (s *segment) intersect(o *segment) bool {
	return !(s.endDist < o.startDist+LineTolerance || o.endDist < s.startDist+LineTolerance)
}

// signOf maps a plane distance to -1, 0 or 1 with FaceTolerance.
func signOf(d float64) int {
	switch {
	case d > FaceTolerance:
		return 1
	case d < -FaceTolerance:
		return -1
	default:
		return 0
	}
}

// planeDistance is the signed distance of p from the plane of f.
func planeDistance(p v3.Vec, f *Face) float64 {
	return f.normal.Dot(p) - f.normal.Dot(f.verts.At(f.V1).Pos)
}
