package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Write encodes the model as binary STL. Normals are recomputed from the
// vertex winding.
func Write(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	copy(header[:], m.Name)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("stl: write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return fmt.Errorf("stl: write triangle count: %w", err)
	}

	for i, t := range m.Triangles {
		f := binaryFacet{Normal: f32(t.FaceNormal())}
		for j, p := range t.V {
			f.V[j] = f32(p)
		}
		if err := binary.Write(bw, binary.LittleEndian, &f); err != nil {
			return fmt.Errorf("stl: write triangle %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteASCII encodes the model as ASCII STL.
func WriteASCII(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)
	name := m.Name
	if name == "" {
		name = "polybool"
	}

	fmt.Fprintf(bw, "solid %s\n", name)
	for _, t := range m.Triangles {
		n := t.FaceNormal()
		fmt.Fprintf(bw, "  facet normal %g %g %g\n", n.X, n.Y, n.Z)
		fmt.Fprintln(bw, "    outer loop")
		for _, p := range t.V {
			fmt.Fprintf(bw, "      vertex %g %g %g\n", float32(p.X), float32(p.Y), float32(p.Z))
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}

// WriteFile writes the model to filename, as ASCII when ascii is set and
// binary otherwise. Binary files are written by render.SaveSTL and carry an
// empty header; use Write for a named binary file.
func WriteFile(filename string, m *Model, ascii bool) (err error) {
	if !ascii {
		if err := render.SaveSTL(filename, m.sdfTriangles()); err != nil {
			return fmt.Errorf("failed to save STL %s: %w", filename, err)
		}
		return nil
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteASCII(f, m)
}

// sdfTriangles converts the model to the sdfx triangle mesh.
func (m *Model) sdfTriangles() []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, len(m.Triangles))
	for _, t := range m.Triangles {
		out = append(out, &sdf.Triangle3{t.V[0], t.V[1], t.V[2]})
	}
	return out
}

func f32(v v3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
