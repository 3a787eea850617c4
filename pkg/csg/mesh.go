package csg

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MeshVertex is an interleaved vertex record as produced by importers.
type MeshVertex struct {
	Position v3.Vec
	Normal   v3.Vec
	Tangent  v3.Vec
	Color    Color
	UV       [2]float64
}

// Mesh is an indexed triangle mesh with interleaved vertices.
type Mesh struct {
	Name     string
	Vertices []MeshVertex
	Indices  []uint32
}

// SolidToMesh converts a solid to a mesh. Normals, tangents and UVs are
// left zero.
func SolidToMesh(s *Solid) *Mesh {
	m := &Mesh{
		Vertices: make([]MeshVertex, len(s.Vertices)),
		Indices:  append([]uint32(nil), s.Indices...),
	}
	for i, p := range s.Vertices {
		m.Vertices[i].Position = p
		if i < len(s.Colors) {
			m.Vertices[i].Color = s.Colors[i]
		}
	}
	return m
}

// MeshToSolid converts a mesh to a solid, keeping positions and colors.
func MeshToSolid(m *Mesh) (*Solid, error) {
	vertices := make([]v3.Vec, len(m.Vertices))
	colors := make([]Color, len(m.Vertices))
	for i, v := range m.Vertices {
		vertices[i] = v.Position
		colors[i] = v.Color
	}
	s, err := NewSolid(vertices, m.Indices, colors)
	if err != nil {
		return nil, fmt.Errorf("csg: mesh %q: %w", m.Name, err)
	}
	return s, nil
}

// IntersectMeshes returns the intersection of two meshes.
func IntersectMeshes(a, b *Mesh, opts Options) (*Mesh, error) {
	return meshBoolean(a, b, opts, (*Modeller).Intersection)
}

// UnionMeshes returns the union of two meshes.
func UnionMeshes(a, b *Mesh, opts Options) (*Mesh, error) {
	return meshBoolean(a, b, opts, (*Modeller).Union)
}

// SubtractMeshes returns a with b removed.
func SubtractMeshes(a, b *Mesh, opts Options) (*Mesh, error) {
	return meshBoolean(a, b, opts, (*Modeller).Difference)
}

func meshBoolean(a, b *Mesh, opts Options, op func(*Modeller) *Solid) (*Mesh, error) {
	sa, err := MeshToSolid(a)
	if err != nil {
		return nil, err
	}
	sb, err := MeshToSolid(b)
	if err != nil {
		return nil, err
	}
	m, err := NewModeller(sa, sb, opts)
	if err != nil {
		return nil, err
	}
	out := SolidToMesh(op(m))
	out.Name = a.Name
	return out, nil
}
