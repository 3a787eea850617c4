package graph

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Tier 2: geometric validation, errors and warnings
// ---------------------------------------------------------------------------

// minSegments is the smallest cylinder facet count a kernel can build.
const minSegments = 3

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateDimensions(g)...)
	errs = append(errs, validateColors(g)...)

	scaleErrs, scaleWarnings := validateScale(g)
	errs = append(errs, scaleErrs...)
	warnings = append(warnings, scaleWarnings...)

	warnings = append(warnings, validateSegments(g)...)
	warnings = append(warnings, validateSameOperands(g)...)

	return errs, warnings
}

// positive reports whether x is a finite number greater than zero.
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}

// validateDimensions checks that every primitive has positive, finite
// dimensions.
func validateDimensions(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	bad := func(id NodeID, what string, v float64) {
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  fmt.Sprintf("%s is %.4f, must be positive", what, v),
			Severity: SeverityError,
		})
	}

	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case BoxData:
			if !positive(d.Size.X) {
				bad(node.ID, "box dimension X", d.Size.X)
			}
			if !positive(d.Size.Y) {
				bad(node.ID, "box dimension Y", d.Size.Y)
			}
			if !positive(d.Size.Z) {
				bad(node.ID, "box dimension Z", d.Size.Z)
			}
		case CylinderData:
			if !positive(d.Height) {
				bad(node.ID, "cylinder height", d.Height)
			}
			if !positive(d.Radius) {
				bad(node.ID, "cylinder radius", d.Radius)
			}
		}
	}

	return errs
}

// validateColors checks that primitive colors lie in [0, 1].
func validateColors(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		var c *RGBA
		switch d := node.Data.(type) {
		case BoxData:
			c = d.Color
		case CylinderData:
			c = d.Color
		}
		if c != nil && !c.Valid() {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("color %v has components outside [0, 1]", *c),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateScale rejects scale factors that collapse a solid and warns about
// mirroring scales.
func validateScale(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		td, ok := node.Data.(TransformData)
		if !ok || td.Scale == nil {
			continue
		}
		s := *td.Scale
		if s.X == 0 || s.Y == 0 || s.Z == 0 {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("scale %v has a zero factor", s),
				Severity: SeverityError,
			})
			continue
		}
		if s.X*s.Y*s.Z < 0 {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("scale %v mirrors the solid", s),
			})
		}
	}

	return errs, warnings
}

// validateSegments warns about cylinders whose facet count will be raised
// to the minimum.
func validateSegments(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		cd, ok := node.Data.(CylinderData)
		if !ok {
			continue
		}
		if cd.Segments > 0 && cd.Segments < minSegments {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("cylinder has %d segments, using %d", cd.Segments, minSegments),
			})
		}
	}

	return warnings
}

// validateSameOperands warns about Boolean nodes whose two operands are the
// same node: the result is the operand itself, or empty for a difference.
func validateSameOperands(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		bd, ok := node.Data.(BooleanData)
		if !ok || len(node.Children) != 2 {
			continue
		}
		if node.Children[0] == node.Children[1] {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("%s of node %s with itself", bd.Op, node.Children[0].Short()),
			})
		}
	}

	return warnings
}
