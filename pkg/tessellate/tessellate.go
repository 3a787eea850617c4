// Package tessellate walks a design graph and produces triangle meshes
// using a geometry kernel. One mesh is produced per root solid.
package tessellate

import (
	"context"
	"fmt"

	"github.com/chazu/polybool/pkg/graph"
	"github.com/chazu/polybool/pkg/kernel"
	"golang.org/x/sync/errgroup"
)

// Tessellate evaluates every root of the design graph into one solid and
// converts it to a triangle mesh using the provided geometry kernel.
// Meshes are returned in root order. The tessellator is read-only and
// never mutates the graph.
func Tessellate(g *graph.DesignGraph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	return TessellateContext(context.Background(), g, k)
}

// TessellateContext is Tessellate with cancellation. Roots are evaluated
// concurrently; the first failure cancels the rest.
func TessellateContext(ctx context.Context, g *graph.DesignGraph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	meshes := make([]*kernel.Mesh, len(g.Roots))
	eg, ctx := errgroup.WithContext(ctx)
	for i, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		eg.Go(func() (err error) {
			// Kernels panic on parameters they cannot build.
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("tessellate: root %s: kernel panic: %v", rootID.Short(), r)
				}
			}()

			w := newWalker(ctx, g, k)
			solid, err := w.solid(root)
			if err != nil {
				return fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
			}
			mesh, err := k.ToMesh(solid)
			if err != nil {
				return fmt.Errorf("tessellate: ToMesh failed for root %s: %w", rootID.Short(), err)
			}

			// Set the part name: prefer the node's Name, fall back to short ID.
			if root.Name != "" {
				mesh.PartName = root.Name
			} else {
				mesh.PartName = rootID.Short()
			}
			meshes[i] = mesh
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := meshes[:0]
	for _, m := range meshes {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// Solid evaluates the subtree rooted at n into a single kernel solid.
func Solid(g *graph.DesignGraph, k kernel.Kernel, n *graph.Node) (kernel.Solid, error) {
	return newWalker(context.Background(), g, k).solid(n)
}

// walker evaluates one root. Shared subtrees are evaluated once; kernel
// solids are values, so reusing them is safe.
type walker struct {
	ctx  context.Context
	g    *graph.DesignGraph
	k    kernel.Kernel
	memo map[graph.NodeID]kernel.Solid
}

func newWalker(ctx context.Context, g *graph.DesignGraph, k kernel.Kernel) *walker {
	return &walker{ctx: ctx, g: g, k: k, memo: make(map[graph.NodeID]kernel.Solid)}
}

// solid recursively evaluates a node and its children.
func (w *walker) solid(n *graph.Node) (kernel.Solid, error) {
	if s, ok := w.memo[n.ID]; ok {
		return s, nil
	}
	if err := w.ctx.Err(); err != nil {
		return nil, err
	}

	var (
		s   kernel.Solid
		err error
	)
	switch n.Kind {
	case graph.NodePrimitive:
		s, err = w.primitive(n)

	case graph.NodeTransform:
		s, err = w.transform(n)

	case graph.NodeBoolean:
		s, err = w.boolean(n)

	case graph.NodeGroup:
		s, err = w.group(n)

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
	if err != nil {
		return nil, err
	}
	w.memo[n.ID] = s
	return s, nil
}

// children evaluates the children of n in order.
func (w *walker) children(n *graph.Node) ([]kernel.Solid, error) {
	if len(n.Children) == 0 {
		return nil, fmt.Errorf("%s node %s has no children", n.Kind, n.ID.Short())
	}
	out := make([]kernel.Solid, 0, len(n.Children))
	for _, cid := range n.Children {
		c := w.g.Get(cid)
		if c == nil {
			return nil, fmt.Errorf("node %s: child %s does not exist", n.ID.Short(), cid.Short())
		}
		s, err := w.solid(c)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// primitive creates geometry for a primitive node.
func (w *walker) primitive(n *graph.Node) (kernel.Solid, error) {
	var (
		s     kernel.Solid
		color *graph.RGBA
	)

	switch data := n.Data.(type) {
	case graph.BoxData:
		s = w.k.Box(data.Size.X, data.Size.Y, data.Size.Z)
		color = data.Color
	case graph.CylinderData:
		segments := data.Segments
		if segments <= 0 {
			segments = w.g.Defaults.Segments
		}
		s = w.k.Cylinder(data.Height, data.Radius, segments)
		color = data.Color
	default:
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}

	if p, ok := w.k.(kernel.Painter); ok && color != nil {
		s = p.Paint(s, [4]float32{color.R, color.G, color.B, color.A})
	}
	return s, nil
}

// transform applies scale, then rotation, then translation to its child.
func (w *walker) transform(n *graph.Node) (kernel.Solid, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	children, err := w.children(n)
	if err != nil {
		return nil, err
	}
	s := children[0]

	if v := td.Scale; v != nil && *v != (graph.Vec3{X: 1, Y: 1, Z: 1}) {
		s = w.k.Scale(s, v.X, v.Y, v.Z)
	}
	if v := td.Rotation; v != nil && !v.IsZero() {
		s = w.k.Rotate(s, v.X, v.Y, v.Z)
	}
	if v := td.Translation; v != nil && !v.IsZero() {
		s = w.k.Translate(s, v.X, v.Y, v.Z)
	}
	return s, nil
}

// boolean combines its two children.
func (w *walker) boolean(n *graph.Node) (kernel.Solid, error) {
	bd, ok := n.Data.(graph.BooleanData)
	if !ok {
		return nil, fmt.Errorf("boolean node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	if len(n.Children) != 2 {
		return nil, fmt.Errorf("boolean node %s has %d children, want 2", n.ID.Short(), len(n.Children))
	}
	children, err := w.children(n)
	if err != nil {
		return nil, err
	}
	a, b := children[0], children[1]

	switch bd.Op {
	case graph.OpUnion:
		return w.k.Union(a, b), nil
	case graph.OpDifference:
		return w.k.Difference(a, b), nil
	case graph.OpIntersection:
		return w.k.Intersection(a, b), nil
	}
	return nil, fmt.Errorf("boolean node %s has unknown operation %v", n.ID.Short(), bd.Op)
}

// group unions its bodies.
func (w *walker) group(n *graph.Node) (kernel.Solid, error) {
	children, err := w.children(n)
	if err != nil {
		return nil, err
	}
	s := children[0]
	for _, c := range children[1:] {
		s = w.k.Union(s, c)
	}
	return s, nil
}
