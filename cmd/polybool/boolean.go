package main

import (
	"fmt"

	"github.com/chazu/polybool/pkg/csg"
	"github.com/chazu/polybool/pkg/stl"
	"github.com/spf13/cobra"
)

var meshColor = csg.Color{R: 0.8, G: 0.8, B: 0.8, A: 1}

type meshOp func(a, b *csg.Mesh, opts csg.Options) (*csg.Mesh, error)

var meshOps = map[string]meshOp{
	"union":        csg.UnionMeshes,
	"intersection": csg.IntersectMeshes,
	"difference":   csg.SubtractMeshes,
}

func newBooleanCmd(o *options) *cobra.Command {
	var (
		output string
		ascii  bool
	)
	cmd := &cobra.Command{
		Use:   "boolean <union|intersection|difference> <a.stl> <b.stl>",
		Short: "Combine two closed STL meshes",
		Long: `Run a polyhedral Boolean operation on two closed, consistently wound
STL meshes. Difference subtracts the second mesh from the first.`,
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"union", "intersection", "difference"},
		RunE: func(cmd *cobra.Command, args []string) error {
			op, ok := meshOps[args[0]]
			if !ok {
				return fmt.Errorf("unknown operation %q, want union, intersection or difference", args[0])
			}
			if output == "" {
				return fmt.Errorf("missing output file (-o)")
			}

			a, err := stl.ReadFile(args[1])
			if err != nil {
				return err
			}
			b, err := stl.ReadFile(args[2])
			if err != nil {
				return err
			}

			result, err := op(a.Mesh(meshColor), b.Mesh(meshColor), o.cfg.CSGOptions())
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			result.Name = args[0]

			model := stl.FromMesh(result)
			if err := stl.WriteFile(output, model, ascii); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d triangles, volume %.6f\n", output, model.TriangleCount(), model.Volume())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output STL file (required)")
	cmd.Flags().BoolVar(&ascii, "ascii", false, "write ASCII instead of binary STL")
	return cmd
}
