package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/polybool/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms polybool Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: hole-depth -> hole_depth
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(solid %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpColor wraps a graph.RGBA.
type sexpColor struct {
	c graph.RGBA
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgba %g %g %g %g)", c.c.R, c.c.G, c.c.B, c.c.A)
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a Sexp. Floats are accepted only when they
// have no fractional part.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_union) and plain strings ("union").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBoolOp converts a keyword or string to a graph.BoolOp.
func toBoolOp(s zygo.Sexp) (graph.BoolOp, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected operation keyword (:union, :difference, :intersection): %w", err)
	}
	op, ok := graph.ParseBoolOp(name)
	if !ok {
		return 0, fmt.Errorf("invalid operation %q, expected union, difference or intersection", name)
	}
	return op, nil
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (graph.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return graph.ZeroID, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toColor extracts an RGBA from a sexpColor.
func toColor(s zygo.Sexp) (*graph.RGBA, error) {
	if c, ok := s.(*sexpColor); ok {
		rgba := c.c
		return &rgba, nil
	}
	return nil, fmt.Errorf("expected rgba, got %T (%s)", s, s.SexpString(nil))
}

// toTriple reads a vector given either as a single vec3 or as three numbers.
// When uniform is set a single number n is read as (n, n, n).
func toTriple(args []zygo.Sexp, uniform bool) (graph.Vec3, error) {
	switch len(args) {
	case 1:
		if v, ok := args[0].(*sexpVec3); ok {
			return v.vec, nil
		}
		if uniform {
			f, err := toFloat64(args[0])
			if err != nil {
				return graph.Vec3{}, fmt.Errorf("expected vec3 or number: %w", err)
			}
			return graph.Vec3{X: f, Y: f, Z: f}, nil
		}
		return toVec3(args[0])
	case 3:
		var out [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return graph.Vec3{}, fmt.Errorf("component %d: %w", i, err)
			}
			out[i] = f
		}
		return graph.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected a vec3 or 3 numbers, got %d arguments", len(args))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toOperands collects solid references from args, splicing lists and arrays
// so that (union (list a b c)) and (union a b c) are equivalent.
func toOperands(args []zygo.Sexp) ([]graph.NodeID, error) {
	var ids []graph.NodeID
	for i, a := range args {
		switch a.(type) {
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(a)
			if err != nil {
				return nil, fmt.Errorf("operand %d: %w", i, err)
			}
			inner, err := toOperands(items)
			if err != nil {
				return nil, err
			}
			ids = append(ids, inner...)
			continue
		}
		id, err := toNodeRef(a)
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Graph builder
// ---------------------------------------------------------------------------

// builder accumulates nodes for one evaluation. Anonymous nodes get ids from
// per-kind counters, so evaluating the same source twice yields the same ids.
type builder struct {
	g        *graph.DesignGraph
	counters map[string]int
}

func newBuilder(g *graph.DesignGraph) *builder {
	return &builder{g: g, counters: make(map[string]int)}
}

// nextID returns the id for the next anonymous node of the given kind,
// such as "box/1", "box/2".
func (b *builder) nextID(kind string) graph.NodeID {
	b.counters[kind]++
	return graph.NewNodeID(fmt.Sprintf("%s/%d", kind, b.counters[kind]))
}

// add stores a node and returns a reference to it.
func (b *builder) add(n *graph.Node) zygo.Sexp {
	b.g.AddNode(n)
	return &sexpNodeRef{id: n.ID, name: n.Name}
}

// transform wraps child in a transform node.
func (b *builder) transform(kind string, child graph.NodeID, td graph.TransformData) zygo.Sexp {
	return b.add(&graph.Node{
		ID:       b.nextID(kind),
		Kind:     graph.NodeTransform,
		Children: []graph.NodeID{child},
		Data:     td,
	})
}

// boolean folds operands left into binary Boolean nodes:
// (difference a b c) is (a - b) - c.
func (b *builder) boolean(op graph.BoolOp, operands []graph.NodeID) (zygo.Sexp, error) {
	if len(operands) < 2 {
		return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", op, len(operands))
	}
	acc := operands[0]
	for _, next := range operands[1:] {
		id := b.nextID(op.String())
		b.g.AddNode(&graph.Node{
			ID:       id,
			Kind:     graph.NodeBoolean,
			Children: []graph.NodeID{acc, next},
			Data:     graph.BooleanData{Op: op},
		})
		acc = id
	}
	return &sexpNodeRef{id: acc}, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all polybool DSL builtins into a zygomys
// environment. The builtins operate on the provided DesignGraph, populating
// it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *graph.DesignGraph) {
	b := newBuilder(g)

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := toTriple(args, false)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (rgba 1 0 0) or (rgba 1 0 0 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("rgba", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 && len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("rgba requires 3 or 4 arguments, got %d", len(args))
		}
		c := [4]float32{0, 0, 0, 1}
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rgba: component %d: %w", i, err)
			}
			c[i] = float32(f)
		}
		return &sexpColor{c: graph.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}}, nil
	})

	// -----------------------------------------------------------------------
	// (box 40 20 2 :color c) or (box :size (vec3 40 20 2))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		bd := graph.BoxData{}

		size := pa.positional
		if v, ok := pa.kw["size"]; ok {
			size = []zygo.Sexp{v}
		}
		s, err := toTriple(size, true)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		bd.Size = s

		if v, ok := pa.kw["color"]; ok {
			c, err := toColor(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: color: %w", err)
			}
			bd.Color = c
		}

		return b.add(&graph.Node{ID: b.nextID("box"), Kind: graph.NodePrimitive, Data: bd}), nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 10 :radius 3 :segments 24 :color c)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		cd := graph.CylinderData{}

		if len(pa.positional) == 2 {
			h, err := toFloat64(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
			}
			r, err := toFloat64(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
			}
			cd.Height, cd.Radius = h, r
		} else if len(pa.positional) != 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder takes a height and a radius, got %d positional arguments", len(pa.positional))
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
			}
			cd.Height = f
		}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
			}
			cd.Radius = f
		}
		if v, ok := pa.kw["segments"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
			}
			cd.Segments = n
		}
		if v, ok := pa.kw["color"]; ok {
			c, err := toColor(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: color: %w", err)
			}
			cd.Color = c
		}

		return b.add(&graph.Node{ID: b.nextID("cylinder"), Kind: graph.NodePrimitive, Data: cd}), nil
	})

	// -----------------------------------------------------------------------
	// (translate s (vec3 5 0 0)) or (translate s 5 0 0)
	// (rotate s 0 0 90)          Euler angles in degrees
	// (scale s 2) or (scale s 1 1 -1)
	// -----------------------------------------------------------------------
	transformFn := func(kind string, uniform bool, set func(*graph.TransformData, graph.Vec3)) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid and a vector", kind)
			}
			child, err := toNodeRef(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", kind, err)
			}
			v, err := toTriple(args[1:], uniform)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", kind, err)
			}
			var td graph.TransformData
			set(&td, v)
			return b.transform(kind, child, td), nil
		}
	}
	env.AddFunction("translate", transformFn("translate", false, func(td *graph.TransformData, v graph.Vec3) {
		td.Translation = &v
	}))
	env.AddFunction("rotate", transformFn("rotate", false, func(td *graph.TransformData, v graph.Vec3) {
		td.Rotation = &v
	}))
	env.AddFunction("scale", transformFn("scale", true, func(td *graph.TransformData, v graph.Vec3) {
		td.Scale = &v
	}))

	// -----------------------------------------------------------------------
	// (union a b ...), (difference a b ...), (intersection a b ...)
	// (boolean :subtract a b)
	// -----------------------------------------------------------------------
	for _, op := range []graph.BoolOp{graph.OpUnion, graph.OpDifference, graph.OpIntersection} {
		env.AddFunction(op.String(), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			operands, err := toOperands(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			return b.boolean(op, operands)
		})
	}
	env.AddFunction("boolean", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("boolean requires an operation keyword")
		}
		op, err := toBoolOp(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("boolean: %w", err)
		}
		operands, err := toOperands(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("boolean: %w", err)
		}
		return b.boolean(op, operands)
	})

	// -----------------------------------------------------------------------
	// (defsolid "bracket" body ... :description "text")
	// -----------------------------------------------------------------------
	env.AddFunction("defsolid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("defsolid requires a name and at least one body")
		}

		solidName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: name: %w", err)
		}
		if g.Lookup(solidName) != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: %q is already defined", solidName)
		}

		bodies, err := toOperands(pa.positional[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid %q: %w", solidName, err)
		}

		gd := graph.GroupData{}
		if v, ok := pa.kw["description"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defsolid %q: description: %w", solidName, err)
			}
			gd.Description = s
		}

		id := graph.NewNodeID("defsolid/" + solidName)
		ref := b.add(&graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     solidName,
			Children: bodies,
			Data:     gd,
		})
		g.AddRoot(id)

		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (solid "bracket")
	// -----------------------------------------------------------------------
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires a name argument")
		}

		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: name: %w", err)
		}

		n := g.Lookup(solidName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("solid: no solid named %q", solidName)
		}

		return &sexpNodeRef{id: n.ID, name: solidName}, nil
	})
}
