package main

import (
	"fmt"

	"github.com/chazu/polybool/pkg/csg"
	"github.com/chazu/polybool/pkg/stl"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.stl>",
		Short: "Display general information about an STL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			model, err := stl.ReadFile(filename)
			if err != nil {
				return err
			}
			mesh := model.Mesh(meshColor)
			bb := model.BoundingBox()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "STL File Information")
			fmt.Fprintln(out, "====================")
			if model.Name != "" {
				fmt.Fprintf(out, "Name: %s\n", model.Name)
			}
			fmt.Fprintf(out, "File: %s\n\n", filename)

			fmt.Fprintln(out, "Model Statistics:")
			fmt.Fprintf(out, "  Triangles: %d\n", model.TriangleCount())
			fmt.Fprintf(out, "  Vertices: %d\n", len(mesh.Vertices))
			fmt.Fprintf(out, "  Surface Area: %.6f square units\n", model.SurfaceArea())
			fmt.Fprintf(out, "  Volume: %.6f cubic units\n", model.Volume())
			if _, err := csg.MeshToSolid(mesh); err != nil {
				fmt.Fprintf(out, "  Valid Solid: no (%v)\n\n", err)
			} else {
				fmt.Fprint(out, "  Valid Solid: yes\n\n")
			}

			fmt.Fprintln(out, "Bounding Box:")
			fmt.Fprintf(out, "  Min: %s\n", formatVec(bb.Min))
			fmt.Fprintf(out, "  Max: %s\n", formatVec(bb.Max))
			fmt.Fprintf(out, "  Size: %s\n", formatVec(bb.Max.Sub(bb.Min)))
			return nil
		},
	}
}

func formatVec(v v3.Vec) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
