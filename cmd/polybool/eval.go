package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/polybool/pkg/app"
	"github.com/chazu/polybool/pkg/kernel"
	"github.com/chazu/polybool/pkg/stl"
	"github.com/spf13/cobra"
)

func newEvalCmd(o *options) *cobra.Command {
	var (
		output string
		part   string
		ascii  bool
	)
	cmd := &cobra.Command{
		Use:   "eval <script>",
		Short: "Evaluate a script and optionally write its solids as STL",
		Long: `Evaluate a Lisp script, tessellate every solid declared with defsolid
and print a summary per part. With -o all parts (or the one named by --part)
are written to a single STL file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			a, err := app.New(o.cfg, o.logger)
			if err != nil {
				return err
			}
			meshes, warnings, err := a.Parts(cmd.Context(), string(source))
			for _, w := range warnings {
				attrs := []any{"script", args[0]}
				if !w.NodeID.IsZero() {
					attrs = append(attrs, "node", w.NodeID.Short())
				}
				o.logger.Warn(w.Message, attrs...)
			}
			var evalErrs app.EvalErrors
			if errors.As(err, &evalErrs) {
				for _, e := range evalErrs {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", args[0], e.Error())
				}
				return fmt.Errorf("%s: %d error(s)", args[0], len(evalErrs))
			}
			if err != nil {
				return err
			}

			if part != "" {
				meshes = selectPart(meshes, part)
				if len(meshes) == 0 {
					return fmt.Errorf("no part named %q", part)
				}
			}

			out := cmd.OutOrStdout()
			for _, m := range meshes {
				model := stl.FromKernelMesh(m)
				fmt.Fprintf(out, "%-16s %8d triangles  volume %.6f\n", m.PartName, model.TriangleCount(), model.Volume())
			}

			if output == "" {
				return nil
			}
			model := combine(meshes)
			if err := stl.WriteFile(output, model, ascii); err != nil {
				return err
			}
			o.logger.Info("wrote stl", "file", output, "parts", len(meshes), "triangles", model.TriangleCount())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to this STL file")
	cmd.Flags().StringVar(&part, "part", "", "only output the named part")
	cmd.Flags().BoolVar(&ascii, "ascii", false, "write ASCII instead of binary STL")
	return cmd
}

func selectPart(meshes []*kernel.Mesh, name string) []*kernel.Mesh {
	for _, m := range meshes {
		if m.PartName == name {
			return []*kernel.Mesh{m}
		}
	}
	return nil
}

// combine puts every part into one model. A single part keeps its name.
func combine(meshes []*kernel.Mesh) *stl.Model {
	if len(meshes) == 1 {
		return stl.FromKernelMesh(meshes[0])
	}
	model := stl.NewModel("polybool")
	for _, m := range meshes {
		for _, t := range stl.FromKernelMesh(m).Triangles {
			model.AddTriangle(t)
		}
	}
	return model
}
