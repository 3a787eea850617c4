package csg

import (
	"fmt"
	"math"
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Status classifies a vertex relative to the other solid of a Boolean pair.
type Status int

const (
	StatusUnknown  Status = 1
	StatusInside   Status = 2
	StatusOutside  Status = 3
	StatusBoundary Status = 4
)

func (s Status) valid() bool {
	return s >= StatusUnknown && s <= StatusBoundary
}

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusInside:
		return "inside"
	case StatusOutside:
		return "outside"
	case StatusBoundary:
		return "boundary"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Vertex is a point of an object3D. Adjacent vertices are referenced by
// their ID in the owning VertexSet.
type Vertex struct {
	Pos      v3.Vec
	Color    Color
	Status   Status
	adjacent []int
}

// Equals reports whether two vertices coincide within VertexTolerance and
// carry the same color.
func (v *Vertex) Equals(o *Vertex) bool {
	return math.Abs(v.Pos.X-o.Pos.X) < VertexTolerance &&
		math.Abs(v.Pos.Y-o.Pos.Y) < VertexTolerance &&
		math.Abs(v.Pos.Z-o.Pos.Z) < VertexTolerance &&
		v.Color == o.Color
}

// Adjacent returns the IDs of the vertices sharing an edge with v.
func (v *Vertex) Adjacent() []int { return v.adjacent }

func (v *Vertex) setStatus(s Status) {
	if s.valid() {
		v.Status = s
	}
}

func (v *Vertex) String() string {
	return fmt.Sprintf("(%g, %g, %g) %s", v.Pos.X, v.Pos.Y, v.Pos.Z, v.Status)
}

type cellKey [3]int64

// VertexSet is an arena of vertices addressed by integer ID. Positions that
// are equal within VertexTolerance and share a color collapse into one
// vertex.
type VertexSet struct {
	verts []Vertex
	cells map[cellKey][]int
}

// NewVertexSet returns an empty set with room for n vertices.
func NewVertexSet(n int) *VertexSet {
	return &VertexSet{
		verts: make([]Vertex, 0, n),
		cells: make(map[cellKey][]int, n),
	}
}

func cellOf(p v3.Vec) cellKey {
	return cellKey{
		int64(math.Floor(p.X / VertexTolerance)),
		int64(math.Floor(p.Y / VertexTolerance)),
		int64(math.Floor(p.Z / VertexTolerance)),
	}
}

// Len returns the number of vertices.
func (s *VertexSet) Len() int { return len(s.verts) }

// At returns the vertex with the given ID. The pointer is invalidated by the
// next Add.
func (s *VertexSet) At(id int) *Vertex { return &s.verts[id] }

// Find returns the ID of a vertex equal to (pos, color), or -1.
func (s *VertexSet) Find(pos v3.Vec, color Color) int {
	probe := Vertex{Pos: pos, Color: color}
	c := cellOf(pos)
	found := -1
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, id := range s.cells[cellKey{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if (found < 0 || id < found) && s.verts[id].Equals(&probe) {
						found = id
					}
				}
			}
		}
	}
	return found
}

// Add returns the ID of the vertex equal to (pos, color). An existing vertex
// takes the new status; otherwise a vertex is appended.
func (s *VertexSet) Add(pos v3.Vec, color Color, status Status) int {
	if id := s.Find(pos, color); id >= 0 {
		s.verts[id].setStatus(status)
		return id
	}
	id := len(s.verts)
	v := Vertex{Pos: pos, Color: color, Status: StatusUnknown}
	v.setStatus(status)
	s.verts = append(s.verts, v)
	c := cellOf(pos)
	s.cells[c] = append(s.cells[c], id)
	return id
}

// AddAdjacent records adj as adjacent to id. Only id's list changes.
func (s *VertexSet) AddAdjacent(id, adj int) {
	v := &s.verts[id]
	if !slices.Contains(v.adjacent, adj) {
		v.adjacent = append(v.adjacent, adj)
	}
}

// Link records an edge between a and b in both directions.
func (s *VertexSet) Link(a, b int) {
	s.AddAdjacent(a, b)
	s.AddAdjacent(b, a)
}

// Mark sets the status of id and floods it to every UNKNOWN vertex reachable
// from id through UNKNOWN vertices. Vertices with a known status stop the
// flood. Marking with StatusUnknown only sets id.
func (s *VertexSet) Mark(id int, status Status) {
	if !status.valid() {
		return
	}
	s.verts[id].Status = status
	if status == StatusUnknown {
		return
	}

	stack := []int{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, adj := range s.verts[cur].adjacent {
			if s.verts[adj].Status == StatusUnknown {
				s.verts[adj].Status = status
				stack = append(stack, adj)
			}
		}
	}
}
