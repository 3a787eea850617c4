// Package app runs the full polybool pipeline: Lisp source is evaluated
// into a design graph, the graph is tessellated through a geometry kernel
// and the result is returned as serializable mesh data.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chazu/polybool/pkg/config"
	"github.com/chazu/polybool/pkg/engine"
	"github.com/chazu/polybool/pkg/kernel"
	"github.com/chazu/polybool/pkg/kernel/polyhedral"
	"github.com/chazu/polybool/pkg/kernel/sdfx"
	"github.com/chazu/polybool/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App ties an engine to a kernel.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	logger *slog.Logger
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Colors   []float32 `json:"colors,omitempty"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// EvalErrors is the error returned by Parts when the script itself is
// wrong, as opposed to a failure of the pipeline.
type EvalErrors []engine.EvalError

func (e EvalErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ee := range e {
		msgs[i] = ee.Error()
	}
	return strings.Join(msgs, "\n")
}

// NewKernel returns the backend named by cfg.Kernel.
func NewKernel(cfg *config.Config) (kernel.Kernel, error) {
	switch cfg.Kernel {
	case config.KernelPolyhedral:
		return polyhedral.New(
			polyhedral.WithOptions(cfg.CSGOptions()),
			polyhedral.WithSegments(cfg.Segments),
		), nil
	case config.KernelSdfx:
		return sdfx.New(sdfx.WithMeshCells(cfg.MeshCells)), nil
	}
	return nil, fmt.Errorf("app: unknown kernel %q", cfg.Kernel)
}

// New creates an App configured by cfg. A nil logger uses slog.Default.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	k, err := NewKernel(cfg)
	if err != nil {
		return nil, err
	}
	eng := engine.NewEngine(
		engine.WithTimeout(cfg.EvalTimeout),
		engine.WithSegments(cfg.Segments),
		engine.WithLogger(logger),
	)
	return &App{engine: eng, kernel: k, logger: logger}, nil
}

// NewApp creates an App with the default polyhedral kernel.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: polyhedral.New(),
		logger: slog.Default(),
	}
}

// Kernel returns the geometry kernel in use.
func (a *App) Kernel() kernel.Kernel { return a.kernel }

// Parts evaluates source and tessellates every root solid. Script errors
// are returned as EvalErrors.
func (a *App) Parts(ctx context.Context, source string) ([]*kernel.Mesh, []engine.EvalWarning, error) {
	res, err := a.engine.EvaluateResult(source)
	if err != nil {
		return nil, nil, err
	}
	if len(res.Errors) > 0 {
		return nil, res.Warnings, EvalErrors(res.Errors)
	}

	meshes, err := tessellate.TessellateContext(ctx, res.Graph, a.kernel)
	if err != nil {
		return nil, res.Warnings, err
	}
	return meshes, res.Warnings, nil
}

// Evaluate takes Lisp source and returns mesh data, errors and warnings.
// Slices in the result are never nil.
func (a *App) Evaluate(source string) EvalResult {
	return a.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate with cancellation of the tessellation step.
func (a *App) EvaluateContext(ctx context.Context, source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	meshes, warnings, err := a.Parts(ctx, source)
	for _, w := range warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: w.Message,
		})
	}

	if evalErrs, ok := err.(EvalErrors); ok {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	if err != nil {
		// Fatal error (panic, timeout, tessellation failure).
		a.logger.Error("evaluate failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Colors:   m.Colors,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	a.logger.Debug("evaluate finished", "parts", len(result.Meshes), "warnings", len(result.Warnings))

	return result
}
