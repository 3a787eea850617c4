package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/chazu/polybool/pkg/config"
	"github.com/chazu/polybool/pkg/kernel/polyhedral"
	"github.com/chazu/polybool/pkg/kernel/sdfx"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg, quietLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func readExample(t *testing.T, name string) string {
	t.Helper()
	source, err := os.ReadFile("../../examples/" + name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(source)
}

func requireNoErrors(t *testing.T, result EvalResult) {
	t.Helper()
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
}

// meshVolume sums signed tetrahedron volumes over the triangles of m.
func meshVolume(m MeshData) float64 {
	at := func(i uint32) [3]float64 {
		return [3]float64{
			float64(m.Vertices[3*i]),
			float64(m.Vertices[3*i+1]),
			float64(m.Vertices[3*i+2]),
		}
	}
	var vol float64
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := at(m.Indices[i]), at(m.Indices[i+1]), at(m.Indices[i+2])
		vol += a[0]*(b[1]*c[2]-b[2]*c[1]) -
			a[1]*(b[0]*c[2]-b[2]*c[0]) +
			a[2]*(b[0]*c[1]-b[1]*c[0])
	}
	return vol / 6
}

// TestE2EBracketExample exercises the full pipeline: Lisp source, engine,
// graph, tessellation, meshes.
func TestE2EBracketExample(t *testing.T) {
	a := NewApp()
	result := a.Evaluate(readExample(t, "bracket.lisp"))
	requireNoErrors(t, result)

	want := []string{"plate", "upright", "knob"}
	if len(result.Meshes) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(result.Meshes))
	}
	for i, m := range result.Meshes {
		if m.PartName != want[i] {
			t.Errorf("mesh %d: part name %q, want %q", i, m.PartName, want[i])
		}
		if len(m.Vertices) == 0 || len(m.Indices) == 0 {
			t.Errorf("part %q: empty geometry", m.PartName)
		}
		if len(m.Normals) != len(m.Vertices) {
			t.Errorf("part %q: %d normals for %d vertex coordinates", m.PartName, len(m.Normals), len(m.Vertices))
		}
		if len(m.Colors) != len(m.Vertices)/3*4 {
			t.Errorf("part %q: %d color components for %d vertices", m.PartName, len(m.Colors), len(m.Vertices)/3)
		}
		if m.Color != colorPalette[i] {
			t.Errorf("part %q: color %q, want %q", m.PartName, m.Color, colorPalette[i])
		}
	}

	polygon := func(n int, r float64) float64 {
		return float64(n) / 2 * r * r * math.Sin(2*math.Pi/float64(n))
	}
	plate := 60*30*4 - 2*4*polygon(16, 2.5)
	if got := meshVolume(result.Meshes[0]); math.Abs(got-plate) > 1e-2 {
		t.Errorf("plate volume = %f, want %f", got, plate)
	}
	upright := 8*30*40 - 8*6*20.0
	if got := meshVolume(result.Meshes[1]); math.Abs(got-upright) > 1e-2 {
		t.Errorf("upright volume = %f, want %f", got, upright)
	}
}

func TestE2EBooleansExample(t *testing.T) {
	a := NewApp()
	result := a.Evaluate(readExample(t, "booleans.lisp"))
	requireNoErrors(t, result)

	want := map[string]float64{
		"union":        1875,
		"difference":   875,
		"intersection": 125,
		"mirrored":     875,
	}
	if len(result.Meshes) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(result.Meshes))
	}
	for _, m := range result.Meshes {
		if got := meshVolume(m); math.Abs(got-want[m.PartName]) > 1e-3 {
			t.Errorf("%s volume = %f, want %f", m.PartName, got, want[m.PartName])
		}
	}

	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w.Message, "mirrors") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a mirror warning, got %v", result.Warnings)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully
// and that result slices serialize as [] rather than null.
func TestE2EEmptySource(t *testing.T) {
	a := NewApp()
	for _, source := range []string{"", "   \n\t ", ";; just a comment\n;; and another"} {
		result := a.Evaluate(source)
		if len(result.Errors) != 0 || len(result.Meshes) != 0 || len(result.Warnings) != 0 {
			t.Errorf("source %q: got %d errors, %d meshes, %d warnings",
				source, len(result.Errors), len(result.Meshes), len(result.Warnings))
		}
		if result.Meshes == nil || result.Errors == nil || result.Warnings == nil {
			t.Errorf("source %q: result has nil slices", source)
		}
	}
}

func TestE2EScriptErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"unmatched paren", "(+ 1 2)\n(defsolid \"test\"", ""},
		{"undefined function", "(undefined-func 1 2 3)", ""},
		{"unknown solid", `(defsolid "a" (solid "missing"))`, "no solid named"},
		{"zero dimension", `(defsolid "flat" (box 10 10 0))`, "box dimension Z"},
		{"negative radius", `(defsolid "c" (cylinder 10 -2))`, "cylinder radius"},
		{"single operand", `(defsolid "u" (union (box 1 1 1)))`, "at least 2 solids"},
		{"defsolid without body", `(defsolid "empty")`, "requires a name"},
		{"duplicate defsolid", `(defsolid "a" (box 1 1 1)) (defsolid "a" (box 2 2 2))`, "already defined"},
	}
	a := NewApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatal("expected eval errors")
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
			}
			if result.Errors[0].Message == "" {
				t.Error("error message should not be empty")
			}
			if tt.wantMsg == "" {
				return
			}
			var all []string
			for _, e := range result.Errors {
				all = append(all, e.Message)
			}
			if joined := strings.Join(all, "\n"); !strings.Contains(joined, tt.wantMsg) {
				t.Errorf("errors %q do not mention %q", joined, tt.wantMsg)
			}
		})
	}
}

func TestE2EOrphanWarning(t *testing.T) {
	a := NewApp()
	result := a.Evaluate(`(box 1 1 1)`)
	requireNoErrors(t, result)
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0].Message, "orphan") {
		t.Errorf("warnings = %v, want one orphan warning", result.Warnings)
	}
}

func TestE2EArithmetic(t *testing.T) {
	a := NewApp()
	source := `
(def width (* 2 10))
(def depth (/ width 2))
(def height (+ 1.5 1.5))
(defsolid "block" (box width depth height))
`
	result := a.Evaluate(source)
	requireNoErrors(t, result)
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if got := meshVolume(result.Meshes[0]); math.Abs(got-600) > 1e-3 {
		t.Errorf("volume = %f, want 600", got)
	}
}

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Alternates between valid and invalid sources. The engine must recover
	// cleanly between error and success states.
	a := NewApp()

	sources := []string{
		`(defsolid "ok" (box 10 5 1))`,
		`(defsolid "broken"`,
		``,
		`(defsolid "x" (solid "missing"))`,
		`(defsolid "also-ok" (cylinder 4 2))`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(undefined-func 1 2 3)`,
		`(defsolid "last" (difference (box 4 4 4) (cylinder 6 1)))`,
	}

	var result EvalResult
	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			result = a.Evaluate(source)
		}()
	}
	requireNoErrors(t, result)
	if len(result.Meshes) != 1 || result.Meshes[0].PartName != "last" {
		t.Errorf("final evaluation: %d meshes", len(result.Meshes))
	}
}

func TestE2EColorPaletteWrapping(t *testing.T) {
	a := NewApp()

	// More parts than the palette has colors.
	var b strings.Builder
	n := len(colorPalette) + 2
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "(defsolid \"p%d\" (translate (box 10 10 10) %d 0 0))\n", i, i*20)
	}
	result := a.Evaluate(b.String())
	requireNoErrors(t, result)

	if len(result.Meshes) != n {
		t.Fatalf("expected %d meshes, got %d", n, len(result.Meshes))
	}
	for i, m := range result.Meshes {
		if want := fmt.Sprintf("p%d", i); m.PartName != want {
			t.Errorf("mesh %d: part name %q, want %q", i, m.PartName, want)
		}
		if m.Color != colorPalette[i%len(colorPalette)] {
			t.Errorf("mesh %q: color %q, want %q", m.PartName, m.Color, colorPalette[i%len(colorPalette)])
		}
	}
}

func TestPartsReturnsEvalErrors(t *testing.T) {
	a := NewApp()
	_, _, err := a.Parts(context.Background(), `(defsolid "flat" (box 0 1 1))`)
	var evalErrs EvalErrors
	if !errors.As(err, &evalErrs) {
		t.Fatalf("err = %v, want EvalErrors", err)
	}
	if len(evalErrs) == 0 || !strings.Contains(evalErrs.Error(), "box dimension X") {
		t.Errorf("EvalErrors = %q", evalErrs.Error())
	}
}

func TestEvaluateCancelled(t *testing.T) {
	a := NewApp()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := a.EvaluateContext(ctx, `(defsolid "p" (box 1 1 1))`)
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want one", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Message, context.Canceled.Error()) {
		t.Errorf("error = %q, want cancellation", result.Errors[0].Message)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

func TestNewKernel(t *testing.T) {
	cfg := config.Default()
	k, err := NewKernel(cfg)
	if err != nil {
		t.Fatalf("NewKernel failed: %v", err)
	}
	if _, ok := k.(*polyhedral.PolyhedralKernel); !ok {
		t.Errorf("kernel = %T, want polyhedral", k)
	}

	cfg.Kernel = config.KernelSdfx
	k, err = NewKernel(cfg)
	if err != nil {
		t.Fatalf("NewKernel failed: %v", err)
	}
	if _, ok := k.(*sdfx.SdfxKernel); !ok {
		t.Errorf("kernel = %T, want sdfx", k)
	}

	cfg.Kernel = "manifold"
	if _, err := NewKernel(cfg); err == nil {
		t.Error("expected error for unknown kernel")
	}
	if _, err := New(cfg, nil); err == nil {
		t.Error("New should reject an unknown kernel")
	}
}

func TestSdfxPipeline(t *testing.T) {
	cfg := config.Default()
	cfg.Kernel = config.KernelSdfx
	cfg.MeshCells = 30
	a := newTestApp(t, cfg)

	result := a.Evaluate(`(defsolid "rod" (difference (box 20 20 20) (cylinder 30 5)))`)
	requireNoErrors(t, result)
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	m := result.Meshes[0]
	if m.PartName != "rod" || len(m.Indices) == 0 {
		t.Errorf("mesh %q has %d indices", m.PartName, len(m.Indices))
	}
	// Marching cubes only approximates the hole.
	want := 8000 - math.Pi*25*20
	if got := meshVolume(m); math.Abs(got-want)/want > 0.05 {
		t.Errorf("volume = %f, want about %f", got, want)
	}
}

func TestConfigSegments(t *testing.T) {
	cfg := config.Default()
	cfg.Segments = 6
	a := newTestApp(t, cfg)

	result := a.Evaluate(`(defsolid "hex" (cylinder 1 1))`)
	requireNoErrors(t, result)
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	want := 3 * math.Sqrt(3) / 2
	if got := meshVolume(result.Meshes[0]); math.Abs(got-want) > 1e-6 {
		t.Errorf("volume = %f, want %f", got, want)
	}
}
