package graph

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildValidPlate creates a plate with a hole: a box minus a translated
// cylinder, wrapped in a named group root.
func buildValidPlate() *DesignGraph {
	g := New()

	plateID := NewNodeID("box/1")
	holeID := NewNodeID("cylinder/1")
	moveID := NewNodeID("translate/1")
	diffID := NewNodeID("difference/1")
	groupID := NewNodeID("defsolid/bracket")

	offset := Vec3{5, 0, 0}
	g.AddNode(&Node{
		ID: plateID, Kind: NodePrimitive,
		Data: BoxData{Size: Vec3{40, 20, 2}},
	})
	g.AddNode(&Node{
		ID: holeID, Kind: NodePrimitive,
		Data: CylinderData{Height: 4, Radius: 3, Segments: 24},
	})
	g.AddNode(&Node{
		ID: moveID, Kind: NodeTransform,
		Children: []NodeID{holeID},
		Data:     TransformData{Translation: &offset},
	})
	g.AddNode(&Node{
		ID: diffID, Kind: NodeBoolean,
		Children: []NodeID{plateID, moveID},
		Data:     BooleanData{Op: OpDifference},
	})
	g.AddNode(&Node{
		ID:       groupID,
		Kind:     NodeGroup,
		Name:     "bracket",
		Children: []NodeID{diffID},
		Data:     GroupData{Description: "plate with a hole"},
	})
	g.AddRoot(groupID)

	return g
}

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// hasWarning returns true if errs contains at least one warning-severity
// finding whose message contains substr.
func hasWarning(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityWarning && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// errorCount returns the number of error-severity findings.
func errorCount(errs []ValidationError) int {
	n := 0
	for _, e := range errs {
		if e.Severity == SeverityError {
			n++
		}
	}
	return n
}

// logFindings dumps every finding, for failure diagnostics.
func logFindings(t *testing.T, errs []ValidationError) {
	t.Helper()
	for _, e := range errs {
		t.Logf("  %s", e)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestValidate_ValidGraph(t *testing.T) {
	g := buildValidPlate()
	errs := Validate(g)
	if len(errs) != 0 {
		for _, e := range errs {
			t.Errorf("unexpected validation error: %s", e)
		}
	}
}

func TestValidate_EmptyGraph(t *testing.T) {
	g := New()
	errs := Validate(g)
	if len(errs) != 0 {
		for _, e := range errs {
			t.Errorf("unexpected validation error on empty graph: %s", e)
		}
	}
}

func TestValidate_CycleDetection(t *testing.T) {
	g := New()

	aID := NewNodeID("a")
	bID := NewNodeID("b")
	cID := NewNodeID("c")

	// Create a cycle: a -> b -> c -> a
	g.AddNode(&Node{
		ID: aID, Kind: NodeGroup, Name: "a",
		Children: []NodeID{bID},
		Data:     GroupData{},
	})
	g.AddNode(&Node{
		ID: bID, Kind: NodeGroup, Name: "b",
		Children: []NodeID{cID},
		Data:     GroupData{},
	})
	g.AddNode(&Node{
		ID: cID, Kind: NodeGroup, Name: "c",
		Children: []NodeID{aID},
		Data:     GroupData{},
	})
	g.AddRoot(aID)

	errs := Validate(g)
	if !hasError(errs, "cycle") {
		t.Error("expected cycle detection error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_DanglingReference(t *testing.T) {
	g := New()

	parentID := NewNodeID("parent")
	missingID := NewNodeID("missing-child")

	g.AddNode(&Node{
		ID: parentID, Kind: NodeGroup, Name: "parent",
		Children: []NodeID{missingID},
		Data:     GroupData{},
	})
	g.AddRoot(parentID)

	errs := Validate(g)
	if !hasError(errs, "does not exist") {
		t.Error("expected dangling reference error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_DuplicateName(t *testing.T) {
	g := New()

	aID := NewNodeID("defsolid/a")
	bID := NewNodeID("defsolid/b")

	g.AddNode(&Node{
		ID: aID, Kind: NodePrimitive, Name: "dup",
		Data: BoxData{Size: Vec3{1, 1, 1}},
	})
	g.AddNode(&Node{
		ID: bID, Kind: NodePrimitive, Name: "dup",
		Data: BoxData{Size: Vec3{2, 2, 2}},
	})
	g.AddRoot(aID)
	g.AddRoot(bID)

	errs := Validate(g)
	if !hasError(errs, "duplicate name") {
		t.Error("expected duplicate name error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_OrphanNode(t *testing.T) {
	g := buildValidPlate()

	orphanID := NewNodeID("box/orphan")
	g.AddNode(&Node{
		ID: orphanID, Kind: NodePrimitive,
		Data: BoxData{Size: Vec3{1, 1, 1}},
	})

	errs := Validate(g)
	if !hasWarning(errs, "orphan") {
		t.Error("expected orphan warning, got none")
		logFindings(t, errs)
	}
	if errorCount(errs) != 0 {
		t.Errorf("orphan should only warn, got %d errors", errorCount(errs))
	}
}

func TestValidate_Arity(t *testing.T) {
	box := func(path string) *Node {
		return &Node{ID: NewNodeID(path), Kind: NodePrimitive, Data: BoxData{Size: Vec3{1, 1, 1}}}
	}

	tests := []struct {
		name     string
		kind     NodeKind
		data     NodeData
		children int
		want     string
	}{
		{"boolean with one operand", NodeBoolean, BooleanData{Op: OpUnion}, 1, "boolean node has 1 children, want 2"},
		{"boolean with three operands", NodeBoolean, BooleanData{Op: OpUnion}, 3, "want 2"},
		{"transform with two children", NodeTransform, TransformData{}, 2, "transform node has 2 children, want 1"},
		{"empty group", NodeGroup, GroupData{}, 0, "want at least 1"},
		{"primitive with a child", NodePrimitive, BoxData{Size: Vec3{1, 1, 1}}, 1, "primitive node has 1 children, want 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			var children []NodeID
			for i := 0; i < tt.children; i++ {
				c := box(tt.name + "/" + string(rune('a'+i)))
				g.AddNode(c)
				children = append(children, c.ID)
			}
			id := NewNodeID(tt.name)
			g.AddNode(&Node{ID: id, Kind: tt.kind, Children: children, Data: tt.data})
			g.AddRoot(id)

			errs := Validate(g)
			if !hasError(errs, tt.want) {
				t.Errorf("expected error containing %q", tt.want)
				logFindings(t, errs)
			}
		})
	}
}

func TestValidate_DataMismatch(t *testing.T) {
	g := New()
	id := NewNodeID("box/1")
	g.AddNode(&Node{ID: id, Kind: NodeGroup, Data: BoxData{Size: Vec3{1, 1, 1}}})
	g.AddRoot(id)

	errs := Validate(g)
	if !hasError(errs, "unexpected data type") {
		t.Error("expected data mismatch error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_NameIndexPointsToMissingNode(t *testing.T) {
	g := New()
	g.NameIndex["ghost"] = NewNodeID("ghost")

	errs := Validate(g)
	if !hasError(errs, "non-existent node") {
		t.Error("expected name index error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_RootReferencesNonExistentNode(t *testing.T) {
	g := New()
	g.AddRoot(NewNodeID("nowhere"))

	errs := Validate(g)
	if !hasError(errs, "root reference") {
		t.Error("expected root reference error, got none")
		logFindings(t, errs)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	// Graph with multiple problems: bad arity + dangling child + orphan.
	g := buildValidPlate()

	orphanID := NewNodeID("box/orphan")
	badID := NewNodeID("union/bad")
	g.AddNode(&Node{
		ID: orphanID, Kind: NodePrimitive,
		Data: BoxData{Size: Vec3{1, 1, 1}},
	})
	g.AddNode(&Node{
		ID: badID, Kind: NodeBoolean, Name: "bad",
		Children: []NodeID{NewNodeID("missing")},
		Data:     BooleanData{Op: OpUnion},
	})
	g.AddRoot(badID)

	errs := Validate(g)

	if !hasError(errs, "want 2") {
		t.Error("expected arity error")
	}
	if !hasError(errs, "does not exist") {
		t.Error("expected dangling reference error")
	}
	if !hasWarning(errs, "orphan") {
		t.Error("expected orphan warning")
	}
}

func TestValidationError_String(t *testing.T) {
	// Graph-level error (zero NodeID).
	e1 := ValidationError{
		Message:  "test graph error",
		Severity: SeverityError,
	}
	if !strings.Contains(e1.Error(), "error") {
		t.Errorf("expected 'error' in string, got %q", e1.Error())
	}
	if !strings.Contains(e1.Error(), "test graph error") {
		t.Errorf("expected message in string, got %q", e1.Error())
	}

	// Node-level warning.
	e2 := ValidationError{
		NodeID:   NewNodeID("test"),
		Message:  "test node warning",
		Severity: SeverityWarning,
	}
	if !strings.Contains(e2.Error(), "warning") {
		t.Errorf("expected 'warning' in string, got %q", e2.Error())
	}
	if !strings.Contains(e2.Error(), "node") {
		t.Errorf("expected 'node' in string, got %q", e2.Error())
	}
}
