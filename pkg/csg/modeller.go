package csg

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Options tunes a Boolean operation.
type Options struct {
	// Seed drives the perturbation of rays that lie inside a face plane.
	// Equal seeds give equal results.
	Seed uint64
	// Perturbation is the magnitude added to each ray direction component
	// when a ray has to be nudged. Zero means DefaultPerturbation.
	Perturbation float64
	// Sequential classifies the two solids one after the other instead of
	// concurrently.
	Sequential bool
}

// DefaultOptions returns the options used by the package level
// Intersection, Union and Difference.
func DefaultOptions() Options {
	return Options{Seed: 1, Perturbation: DefaultPerturbation}
}

// Modeller holds two solids split against each other and classified, ready
// to assemble any of the three Boolean results.
type Modeller struct {
	a, b *object3D
}

// NewModeller splits a against b and b against a, then classifies the
// faces of each solid against the other. The inputs are not modified.
func NewModeller(a, b *Solid, opts Options) (*Modeller, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("csg: first solid: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("csg: second solid: %w", err)
	}
	if opts.Perturbation <= 0 {
		opts.Perturbation = DefaultPerturbation
	}

	m := &Modeller{a: newObject3D(a), b: newObject3D(b)}

	m.a.splitFaces(m.b)
	m.b.splitFaces(m.a)

	// Each side gets its own stream so the result does not depend on
	// scheduling.
	ra := rand.New(rand.NewPCG(opts.Seed, 1))
	rb := rand.New(rand.NewPCG(opts.Seed, 2))

	if opts.Sequential {
		m.a.classifyFaces(m.b, ra, opts.Perturbation)
		m.b.classifyFaces(m.a, rb, opts.Perturbation)
		return m, nil
	}

	// Classification only writes statuses and adjacency of its own
	// object and reads positions of the other.
	var g errgroup.Group
	g.Go(func() error {
		m.a.classifyFaces(m.b, ra, opts.Perturbation)
		return nil
	})
	g.Go(func() error {
		m.b.classifyFaces(m.a, rb, opts.Perturbation)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// Intersection returns the volume common to both solids.
func (m *Modeller) Intersection() *Solid {
	return m.compose([]FaceStatus{FaceInside, FaceSame}, []FaceStatus{FaceInside}, false)
}

// Union returns the volume covered by either solid.
func (m *Modeller) Union() *Solid {
	return m.compose([]FaceStatus{FaceOutside, FaceSame}, []FaceStatus{FaceOutside}, false)
}

// Difference returns the volume of the first solid not covered by the
// second.
func (m *Modeller) Difference() *Solid {
	return m.compose([]FaceStatus{FaceOutside, FaceOpposite}, []FaceStatus{FaceInside}, true)
}

// compose gathers the faces of a and b whose status is listed. Coplanar
// faces are only ever taken from a. Faces of b are reversed when invertB is
// set.
func (m *Modeller) compose(keepA, keepB []FaceStatus, invertB bool) *Solid {
	out := &Solid{}
	appendFaces(out, m.a, keepA, false)
	appendFaces(out, m.b, keepB, invertB)
	return out
}

// appendFaces copies the kept faces of o into out. Vertices are shared
// between faces of o but never with faces already in out.
func appendFaces(out *Solid, o *object3D, keep []FaceStatus, invert bool) {
	index := make(map[int]uint32)
	for _, f := range o.faces {
		if !slices.Contains(keep, f.Status) {
			continue
		}
		ids := [3]int{f.V1, f.V2, f.V3}
		if invert {
			ids[0], ids[1] = ids[1], ids[0]
		}
		for _, id := range ids {
			idx, ok := index[id]
			if !ok {
				v := o.verts.At(id)
				idx = uint32(len(out.Vertices))
				out.Vertices = append(out.Vertices, v.Pos)
				out.Colors = append(out.Colors, v.Color)
				index[id] = idx
			}
			out.Indices = append(out.Indices, idx)
		}
	}
}

// Intersection returns a ∩ b with DefaultOptions.
func Intersection(a, b *Solid) (*Solid, error) {
	m, err := NewModeller(a, b, DefaultOptions())
	if err != nil {
		return nil, err
	}
	return m.Intersection(), nil
}

// Union returns a ∪ b with DefaultOptions.
func Union(a, b *Solid) (*Solid, error) {
	m, err := NewModeller(a, b, DefaultOptions())
	if err != nil {
		return nil, err
	}
	return m.Union(), nil
}

// Difference returns a − b with DefaultOptions.
func Difference(a, b *Solid) (*Solid, error) {
	m, err := NewModeller(a, b, DefaultOptions())
	if err != nil {
		return nil, err
	}
	return m.Difference(), nil
}
