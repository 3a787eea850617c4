package csg

import (
	"math"
	"math/rand/v2"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func vecNear(a, b v3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

// --- Bound ---

func TestNewBound(t *testing.T) {
	b := NewBound(v3.Vec{X: 1, Y: 5, Z: -1}, v3.Vec{X: -2, Y: 3, Z: 4}, v3.Vec{X: 0, Y: 7, Z: 2})
	if want := (v3.Vec{X: -2, Y: 3, Z: -1}); b.Min() != want {
		t.Errorf("Min() = %v, want %v", b.Min(), want)
	}
	if want := (v3.Vec{X: 1, Y: 7, Z: 4}); b.Max() != want {
		t.Errorf("Max() = %v, want %v", b.Max(), want)
	}
}

func TestBoundOfEmpty(t *testing.T) {
	b := BoundOf(nil)
	if b.Min() != (v3.Vec{}) || b.Max() != (v3.Vec{}) {
		t.Errorf("BoundOf(nil) = %v, want zero bound", b)
	}
}

func TestBoundOverlap(t *testing.T) {
	unit := BoundOf([]v3.Vec{{}, {X: 1, Y: 1, Z: 1}})
	tests := []struct {
		name  string
		other Bound
		want  bool
	}{
		{"inside", BoundOf([]v3.Vec{{X: 0.2, Y: 0.2, Z: 0.2}, {X: 0.8, Y: 0.8, Z: 0.8}}), true},
		{"crossing", BoundOf([]v3.Vec{{X: 0.5, Y: 0.5, Z: 0.5}, {X: 2, Y: 2, Z: 2}}), true},
		{"touching face", BoundOf([]v3.Vec{{X: 1, Y: 0, Z: 0}, {X: 2, Y: 1, Z: 1}}), true},
		{"within tolerance", BoundOf([]v3.Vec{{X: 1 + 1e-11, Y: 0, Z: 0}, {X: 2, Y: 1, Z: 1}}), true},
		{"separated x", BoundOf([]v3.Vec{{X: 1.1, Y: 0, Z: 0}, {X: 2, Y: 1, Z: 1}}), false},
		{"separated z", BoundOf([]v3.Vec{{X: 0, Y: 0, Z: -3}, {X: 1, Y: 1, Z: -0.5}}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unit.Overlap(tt.other); got != tt.want {
				t.Errorf("a.Overlap(b) = %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlap(unit); got != tt.want {
				t.Errorf("b.Overlap(a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoundOverlapSymmetric(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	point := func() v3.Vec {
		return v3.Vec{X: r.Float64()*4 - 2, Y: r.Float64()*4 - 2, Z: r.Float64()*4 - 2}
	}
	for i := 0; i < 500; i++ {
		a := NewBound(point(), point(), point())
		b := NewBound(point(), point(), point())
		if a.Overlap(b) != b.Overlap(a) {
			t.Fatalf("Overlap not symmetric for %v and %v", a, b)
		}
	}
}

// --- Line ---

func TestLineFromPlanes(t *testing.T) {
	// z = 1 and x = 2 meet in a line parallel to Y through (2, *, 1).
	l := LineFromPlanes(v3.Vec{Z: 1}, v3.Vec{Z: 1}, v3.Vec{X: 1}, v3.Vec{X: 2})
	if l.Degenerate() {
		t.Fatal("expected a usable line")
	}
	if math.Abs(math.Abs(l.Direction.Y)-1) > 1e-12 {
		t.Errorf("direction = %v, want ±Y", l.Direction)
	}
	if math.Abs(l.Point.X-2) > 1e-12 || math.Abs(l.Point.Z-1) > 1e-12 {
		t.Errorf("point = %v, want x=2 z=1", l.Point)
	}
}

func TestLineFromPlanesOblique(t *testing.T) {
	n1 := v3.Vec{X: 1, Y: 1, Z: 0}.Normalize()
	n2 := v3.Vec{X: 0, Y: 1, Z: 1}.Normalize()
	p1 := v3.Vec{X: 1, Y: 2, Z: 3}
	p2 := v3.Vec{X: -1, Y: 0, Z: 4}
	l := LineFromPlanes(n1, p1, n2, p2)
	for _, s := range []float64{-3, 0, 2.5} {
		p := l.Point.Add(l.Direction.MulScalar(s))
		if d := n1.Dot(p.Sub(p1)); math.Abs(d) > 1e-9 {
			t.Errorf("point %v off plane 1 by %g", p, d)
		}
		if d := n2.Dot(p.Sub(p2)); math.Abs(d) > 1e-9 {
			t.Errorf("point %v off plane 2 by %g", p, d)
		}
	}
}

func TestLineFromParallelPlanes(t *testing.T) {
	l := LineFromPlanes(v3.Vec{Z: 1}, v3.Vec{}, v3.Vec{Z: 1}, v3.Vec{Z: 5})
	if !l.Degenerate() {
		t.Errorf("parallel planes gave %v, want degenerate line", l)
	}
}

func TestPointDistance(t *testing.T) {
	l := NewRay(v3.Vec{X: 2}, v3.Vec{X: 1, Y: 1})
	if d := l.PointDistance(v3.Vec{X: 4, Y: 1}); math.Abs(d-3) > 1e-12 {
		t.Errorf("ahead distance = %g, want 3", d)
	}
	if d := l.PointDistance(v3.Vec{X: -1, Y: 1}); math.Abs(d+2) > 1e-12 {
		t.Errorf("behind distance = %g, want -2", d)
	}
}

func TestLineIntersection(t *testing.T) {
	tests := []struct {
		name string
		a, b Line
		want v3.Vec
		ok   bool
	}{
		{
			"xy plane",
			NewRay(v3.Vec{X: 1}, v3.Vec{Y: 1}),
			NewRay(v3.Vec{Y: 1}, v3.Vec{X: 3}),
			v3.Vec{X: 3, Y: 1}, true,
		},
		{
			"xz plane",
			NewRay(v3.Vec{X: 1}, v3.Vec{Z: 2}),
			NewRay(v3.Vec{Z: 1}, v3.Vec{X: -1}),
			v3.Vec{X: -1, Z: 2}, true,
		},
		{
			"yz plane",
			NewRay(v3.Vec{Y: 1}, v3.Vec{X: 5, Z: 1}),
			NewRay(v3.Vec{Z: 1}, v3.Vec{X: 5, Y: 4}),
			v3.Vec{X: 5, Y: 4, Z: 1}, true,
		},
		{
			"parallel",
			NewRay(v3.Vec{X: 1}, v3.Vec{}),
			NewRay(v3.Vec{X: 1}, v3.Vec{Y: 1}),
			v3.Vec{}, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.LineIntersection(tt.b)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !vecNear(got, tt.want, 1e-12) {
				t.Errorf("LineIntersection = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClosestPoint(t *testing.T) {
	tests := []struct {
		name string
		a, b Line
		want v3.Vec
	}{
		{
			"skew",
			Line{Direction: v3.Vec{X: 1}},
			Line{Point: v3.Vec{X: 2, Y: -1, Z: 1}, Direction: v3.Vec{Y: 1}},
			v3.Vec{X: 2},
		},
		{
			"crossing",
			Line{Direction: v3.Vec{X: 1, Y: 1}},
			Line{Point: v3.Vec{X: 2}, Direction: v3.Vec{Y: 1}},
			v3.Vec{X: 2, Y: 2},
		},
		{
			"parallel keeps own point",
			Line{Point: v3.Vec{Z: 1}, Direction: v3.Vec{X: 1}},
			Line{Point: v3.Vec{Y: 1}, Direction: v3.Vec{X: 2}},
			v3.Vec{Z: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.closestPoint(tt.b); !vecNear(got, tt.want, 1e-12) {
				t.Errorf("closestPoint = %v, want %v", got, tt.want)
			}
		})
	}
}

// An edge parallel to the cut line has no intersection; the segment end
// falls back to the line's own point.
func TestSegmentEdgeParallelToLine(t *testing.T) {
	vs := NewVertexSet(3)
	f := newFace(vs,
		vs.Add(v3.Vec{}, Color{}, StatusUnknown),
		vs.Add(v3.Vec{X: 1}, Color{}, StatusUnknown),
		vs.Add(v3.Vec{Y: 1}, Color{}, StatusUnknown))

	line := NewRay(v3.Vec{X: 1}, v3.Vec{Y: 5})
	if _, ok := line.LineIntersection(Line{Direction: v3.Vec{X: 1}}); ok {
		t.Fatal("parallel lines reported an intersection")
	}

	s := &segment{line: line}
	s.setEdge(f, f.V1, f.V2)
	if s.index != 1 || s.startType != segEdge || s.middleType != segFace {
		t.Fatalf("segment = %+v, want one edge end", s)
	}
	if s.startPos != line.Point {
		t.Errorf("start = %v, want %v", s.startPos, line.Point)
	}
	if s.startDist != 0 {
		t.Errorf("start distance = %g, want 0", s.startDist)
	}
}

func TestPlaneIntersection(t *testing.T) {
	n := v3.Vec{Z: 1}
	plane := v3.Vec{Z: 2}

	l := NewRay(v3.Vec{X: 1, Z: 1}, v3.Vec{})
	if got, ok := l.PlaneIntersection(n, plane); !ok || !vecNear(got, v3.Vec{X: 2, Z: 2}, 1e-12) {
		t.Errorf("crossing line: got %v, %v", got, ok)
	}

	parallel := NewRay(v3.Vec{X: 1}, v3.Vec{})
	if _, ok := parallel.PlaneIntersection(n, plane); ok {
		t.Error("parallel line should not intersect")
	}

	inside := NewRay(v3.Vec{X: 1}, v3.Vec{Y: 3, Z: 2})
	if got, ok := inside.PlaneIntersection(n, plane); !ok || got != inside.Point {
		t.Errorf("contained line: got %v, %v, want its own point", got, ok)
	}
}

func TestPerturbDeterministic(t *testing.T) {
	base := NewRay(v3.Vec{Z: 1}, v3.Vec{})
	a, b := base, base
	a.Perturb(rand.New(rand.NewPCG(42, 1)), DefaultPerturbation)
	b.Perturb(rand.New(rand.NewPCG(42, 1)), DefaultPerturbation)
	if a.Direction != b.Direction {
		t.Errorf("same seed gave %v and %v", a.Direction, b.Direction)
	}
	if a.Direction == base.Direction {
		t.Error("perturbation did not change the direction")
	}
	if d := a.Direction.Sub(base.Direction).Length(); d > 2*DefaultPerturbation {
		t.Errorf("perturbation moved direction by %g", d)
	}
}

// --- Vertex and VertexSet ---

func TestVertexSetAddDeduplicates(t *testing.T) {
	red := Color{R: 1, A: 1}
	blue := Color{B: 1, A: 1}
	s := NewVertexSet(4)

	a := s.Add(v3.Vec{X: 1, Y: 1, Z: 1}, red, StatusUnknown)
	b := s.Add(v3.Vec{X: 1 + 1e-7, Y: 1, Z: 1 - 1e-7}, red, StatusBoundary)
	if a != b {
		t.Fatalf("near-equal vertex got new id %d, want %d", b, a)
	}
	if got := s.At(a).Status; got != StatusBoundary {
		t.Errorf("status after re-add = %v, want boundary", got)
	}

	c := s.Add(v3.Vec{X: 1, Y: 1, Z: 1}, blue, StatusUnknown)
	if c == a {
		t.Error("vertices of different color must not merge")
	}
	d := s.Add(v3.Vec{X: 1.001, Y: 1, Z: 1}, red, StatusUnknown)
	if d == a {
		t.Error("vertices farther than tolerance must not merge")
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestVertexSetAddAcrossCells(t *testing.T) {
	s := NewVertexSet(2)
	// Straddle a hash cell boundary.
	x := 3 * VertexTolerance
	a := s.Add(v3.Vec{X: x - 1e-8}, Color{}, StatusUnknown)
	b := s.Add(v3.Vec{X: x + 1e-8}, Color{}, StatusUnknown)
	if a != b {
		t.Errorf("vertices across a cell boundary got ids %d and %d", a, b)
	}
}

func TestVertexSetIgnoresInvalidStatus(t *testing.T) {
	s := NewVertexSet(1)
	id := s.Add(v3.Vec{}, Color{}, StatusInside)
	s.Add(v3.Vec{}, Color{}, Status(9))
	if got := s.At(id).Status; got != StatusInside {
		t.Errorf("status = %v, want inside", got)
	}
}

func TestAddAdjacentIdempotent(t *testing.T) {
	s := NewVertexSet(2)
	a := s.Add(v3.Vec{}, Color{}, StatusUnknown)
	b := s.Add(v3.Vec{X: 1}, Color{}, StatusUnknown)
	s.AddAdjacent(a, b)
	s.AddAdjacent(a, b)
	if got := len(s.At(a).Adjacent()); got != 1 {
		t.Errorf("adjacent count = %d, want 1", got)
	}
	if got := len(s.At(b).Adjacent()); got != 0 {
		t.Errorf("AddAdjacent must be one-sided, got %d neighbours on b", got)
	}
}

// chain builds n vertices linked in a path and returns their ids.
func chain(s *VertexSet, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = s.Add(v3.Vec{X: float64(i)}, Color{}, StatusUnknown)
		if i > 0 {
			s.Link(ids[i-1], ids[i])
		}
	}
	return ids
}

func TestMarkFloodsComponent(t *testing.T) {
	s := NewVertexSet(8)
	ids := chain(s, 5)
	// A separate component.
	lone := s.Add(v3.Vec{Y: 9}, Color{}, StatusUnknown)

	s.Mark(ids[2], StatusInside)
	for _, id := range ids {
		if got := s.At(id).Status; got != StatusInside {
			t.Errorf("vertex %d status = %v, want inside", id, got)
		}
	}
	if got := s.At(lone).Status; got != StatusUnknown {
		t.Errorf("unconnected vertex status = %v, want unknown", got)
	}
}

func TestMarkStopsAtClassified(t *testing.T) {
	s := NewVertexSet(8)
	ids := chain(s, 5)
	s.At(ids[2]).Status = StatusBoundary

	s.Mark(ids[0], StatusOutside)
	want := []Status{StatusOutside, StatusOutside, StatusBoundary, StatusUnknown, StatusUnknown}
	for i, id := range ids {
		if got := s.At(id).Status; got != want[i] {
			t.Errorf("vertex %d status = %v, want %v", i, got, want[i])
		}
	}
}

func TestMarkUnknownOnlySetsSeed(t *testing.T) {
	s := NewVertexSet(4)
	ids := chain(s, 3)
	s.At(ids[0]).Status = StatusInside
	s.Mark(ids[0], StatusUnknown)
	if got := s.At(ids[0]).Status; got != StatusUnknown {
		t.Errorf("seed status = %v, want unknown", got)
	}
}

func TestMarkLongChain(t *testing.T) {
	s := NewVertexSet(200000)
	ids := chain(s, 200000)
	s.Mark(ids[0], StatusInside)
	if got := s.At(ids[len(ids)-1]).Status; got != StatusInside {
		t.Errorf("last vertex status = %v, want inside", got)
	}
}

// --- Face ---

func TestFaceBasics(t *testing.T) {
	s := NewVertexSet(3)
	a := s.Add(v3.Vec{}, Color{}, StatusUnknown)
	b := s.Add(v3.Vec{X: 2}, Color{}, StatusUnknown)
	c := s.Add(v3.Vec{Y: 2}, Color{}, StatusUnknown)
	f := newFace(s, a, b, c)

	if !vecNear(f.Normal(), v3.Vec{Z: 1}, 1e-12) {
		t.Errorf("Normal() = %v, want +Z", f.Normal())
	}
	if math.Abs(f.Area()-2) > 1e-12 {
		t.Errorf("Area() = %g, want 2", f.Area())
	}
	if !vecNear(f.Centroid(), v3.Vec{X: 2.0 / 3, Y: 2.0 / 3}, 1e-12) {
		t.Errorf("Centroid() = %v", f.Centroid())
	}

	g := newFace(s, b, c, a)
	if !f.Equals(g) {
		t.Error("rotated face should be equal")
	}
	g.invert()
	if f.Equals(g) {
		t.Error("inverted face should differ")
	}
	if !vecNear(g.Normal(), v3.Vec{Z: -1}, 1e-12) {
		t.Errorf("inverted normal = %v, want -Z", g.Normal())
	}
}

func TestFaceHasPoint(t *testing.T) {
	s := NewVertexSet(3)
	a := s.Add(v3.Vec{Z: 1}, Color{}, StatusUnknown)
	b := s.Add(v3.Vec{X: 2, Z: 1}, Color{}, StatusUnknown)
	c := s.Add(v3.Vec{Y: 2, Z: 1}, Color{}, StatusUnknown)
	f := newFace(s, a, b, c)

	tests := []struct {
		name string
		p    v3.Vec
		want bool
	}{
		{"interior", v3.Vec{X: 0.5, Y: 0.5, Z: 1}, true},
		{"on edge", v3.Vec{X: 1, Y: 0, Z: 1}, true},
		{"on hypotenuse", v3.Vec{X: 1, Y: 1, Z: 1}, true},
		{"corner", v3.Vec{X: 2, Z: 1}, true},
		{"outside", v3.Vec{X: 1.5, Y: 1.5, Z: 1}, false},
		{"negative side", v3.Vec{X: -0.5, Y: 0.5, Z: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.hasPoint(tt.p); got != tt.want {
				t.Errorf("hasPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestSimpleClassify(t *testing.T) {
	s := NewVertexSet(3)
	a := s.Add(v3.Vec{}, Color{}, StatusBoundary)
	b := s.Add(v3.Vec{X: 1}, Color{}, StatusOutside)
	c := s.Add(v3.Vec{Y: 1}, Color{}, StatusInside)
	f := newFace(s, a, b, c)
	if !f.simpleClassify() {
		t.Fatal("simpleClassify() = false")
	}
	if f.Status != FaceOutside {
		t.Errorf("status = %v, want outside (first decided vertex)", f.Status)
	}

	s.At(b).Status = StatusBoundary
	s.At(c).Status = StatusUnknown
	g := newFace(s, a, b, c)
	if g.simpleClassify() {
		t.Error("simpleClassify() = true with no inside/outside vertex")
	}
}

func TestRayTraceClassify(t *testing.T) {
	cube := newObject3D(NewBox(v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1}, Color{}))
	r := rand.New(rand.NewPCG(1, 1))

	tests := []struct {
		name    string
		a, b, c v3.Vec
		want    FaceStatus
	}{
		{"inside facing up", v3.Vec{X: -0.1, Y: -0.1}, v3.Vec{X: 0.1, Y: -0.1}, v3.Vec{Y: 0.1}, FaceInside},
		{"outside facing away", v3.Vec{X: 2, Y: -0.1}, v3.Vec{X: 2.2, Y: -0.1}, v3.Vec{X: 2.1, Y: 0.1}, FaceOutside},
		{"outside facing cube", v3.Vec{X: -0.1, Y: -0.1, Z: 2}, v3.Vec{Y: 0.1, Z: 2}, v3.Vec{X: 0.1, Y: -0.1, Z: 2}, FaceOutside},
		{"same as top", v3.Vec{X: -0.1, Y: -0.1, Z: 0.5}, v3.Vec{X: 0.1, Y: -0.1, Z: 0.5}, v3.Vec{Y: 0.1, Z: 0.5}, FaceSame},
		{"opposite to top", v3.Vec{X: -0.1, Y: -0.1, Z: 0.5}, v3.Vec{Y: 0.1, Z: 0.5}, v3.Vec{X: 0.1, Y: -0.1, Z: 0.5}, FaceOpposite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewVertexSet(3)
			f := newFace(s,
				s.Add(tt.a, Color{}, StatusUnknown),
				s.Add(tt.b, Color{}, StatusUnknown),
				s.Add(tt.c, Color{}, StatusUnknown))
			f.rayTraceClassify(cube, r, DefaultPerturbation)
			if f.Status != tt.want {
				t.Errorf("status = %v, want %v", f.Status, tt.want)
			}
		})
	}
}

// A ray from the centroid of a top-face triangle at x = 1/6 lies in the
// x = 1/6 side plane of the box, so it must be perturbed before tracing.
func TestNearestHitPerturbsInPlaneRay(t *testing.T) {
	box := newObject3D(NewBox(v3.Vec{X: 1.0/6 + 0.5, Z: 1.5}, v3.Vec{X: 1, Y: 1, Z: 1}, Color{}))
	start := NewRay(v3.Vec{Z: 1}, v3.Vec{X: 1.0 / 6, Z: 0.5})

	for seed := uint64(0); seed < 5; seed++ {
		_, _, first := nearestHit(start, box.faces, rand.New(rand.NewPCG(seed, 1)), DefaultPerturbation)
		if first.Direction == start.Direction {
			t.Errorf("seed %d: ray was not perturbed", seed)
		}
		if first.Point != start.Point {
			t.Errorf("seed %d: origin moved to %v", seed, first.Point)
		}
		f2, d2, second := nearestHit(start, box.faces, rand.New(rand.NewPCG(seed, 1)), DefaultPerturbation)
		f1, d1, _ := nearestHit(start, box.faces, rand.New(rand.NewPCG(seed, 1)), DefaultPerturbation)
		if second != first || f1 != f2 || d1 != d2 {
			t.Errorf("seed %d: repeated trace differs: %v vs %v", seed, first, second)
		}
	}
}
