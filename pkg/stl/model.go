// Package stl reads and writes STL files and converts them to and from
// indexed csg meshes.
package stl

import (
	"github.com/chazu/polybool/pkg/csg"
	"github.com/chazu/polybool/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangle is one STL facet. Normal is taken from the file as is and may
// be zero.
type Triangle struct {
	Normal v3.Vec
	V      [3]v3.Vec
}

// FaceNormal returns the unit normal implied by the vertex winding, or the
// zero vector for a degenerate triangle.
func (t Triangle) FaceNormal() v3.Vec {
	n := t.V[1].Sub(t.V[0]).Cross(t.V[2].Sub(t.V[0]))
	if n.Length() == 0 {
		return v3.Vec{}
	}
	return n.Normalize()
}

// Area returns the area of the triangle.
func (t Triangle) Area() float64 {
	return t.V[1].Sub(t.V[0]).Cross(t.V[2].Sub(t.V[0])).Length() / 2
}

// Model represents a complete STL model
type Model struct {
	Name      string
	Triangles []Triangle
}

// NewModel creates a new STL model
func NewModel(name string) *Model {
	return &Model{
		Name:      name,
		Triangles: make([]Triangle, 0),
	}
}

// AddTriangle adds a triangle to the model
func (m *Model) AddTriangle(t Triangle) {
	m.Triangles = append(m.Triangles, t)
}

// TriangleCount returns the number of triangles in the model
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// BoundingBox calculates the bounding box of the entire model. An empty
// model has a zero box.
func (m *Model) BoundingBox() sdf.Box3 {
	if len(m.Triangles) == 0 {
		return sdf.Box3{}
	}
	bb := sdf.Box3{Min: m.Triangles[0].V[0], Max: m.Triangles[0].V[0]}
	for _, t := range m.Triangles {
		for _, p := range t.V {
			bb = bb.Include(p)
		}
	}
	return bb
}

// SurfaceArea calculates the total surface area of the model
func (m *Model) SurfaceArea() float64 {
	total := 0.0
	for _, t := range m.Triangles {
		total += t.Area()
	}
	return total
}

// Volume returns the signed enclosed volume. It is positive for a closed
// model wound counter-clockwise seen from outside.
func (m *Model) Volume() float64 {
	total := 0.0
	for _, t := range m.Triangles {
		total += t.V[0].Dot(t.V[1].Cross(t.V[2]))
	}
	return total / 6
}

// Mesh welds the model into an indexed mesh. Vertices whose float32
// positions are identical are merged; STL stores float32, so this joins
// every vertex the file shares between facets. All vertices get color.
func (m *Model) Mesh(color csg.Color) *csg.Mesh {
	out := &csg.Mesh{
		Name:    m.Name,
		Indices: make([]uint32, 0, len(m.Triangles)*3),
	}
	index := make(map[[3]float32]uint32, len(m.Triangles)/2)
	for _, t := range m.Triangles {
		for _, p := range t.V {
			key := [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
			i, ok := index[key]
			if !ok {
				i = uint32(len(out.Vertices))
				index[key] = i
				out.Vertices = append(out.Vertices, csg.MeshVertex{
					Position: v3.Vec{X: float64(key[0]), Y: float64(key[1]), Z: float64(key[2])},
					Color:    color,
				})
			}
			out.Indices = append(out.Indices, i)
		}
	}
	return out
}

// FromMesh expands an indexed mesh into a model with face normals.
// Trailing indices that do not form a whole triangle are ignored.
func FromMesh(m *csg.Mesh) *Model {
	model := NewModel(m.Name)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		var t Triangle
		for j := 0; j < 3; j++ {
			t.V[j] = m.Vertices[m.Indices[i+j]].Position
		}
		t.Normal = t.FaceNormal()
		model.AddTriangle(t)
	}
	return model
}

// FromKernelMesh builds a model from a tessellated part. The part name
// becomes the solid name.
func FromKernelMesh(m *kernel.Mesh) *Model {
	model := NewModel(m.PartName)
	at := func(i uint32) v3.Vec {
		return v3.Vec{
			X: float64(m.Vertices[3*i]),
			Y: float64(m.Vertices[3*i+1]),
			Z: float64(m.Vertices[3*i+2]),
		}
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		t := Triangle{V: [3]v3.Vec{at(m.Indices[i]), at(m.Indices[i+1]), at(m.Indices[i+2])}}
		t.Normal = t.FaceNormal()
		model.AddTriangle(t)
	}
	return model
}
