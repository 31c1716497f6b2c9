package graph

import (
	"errors"
	"testing"

	errs "github.com/matzehuels/nodeplot/pkg/errors"
)

// pin returns the id of the attribute with kind and label on node, failing the
// test when absent.
func pin(t *testing.T, g *Graph, node ID, kind AttributeKind, label string) ID {
	t.Helper()
	a, ok := g.FindAttribute(node, kind, label)
	if !ok {
		t.Fatalf("node %d has no %s %q", node, kind, label)
	}
	return a.ID
}

func mustAdd(t *testing.T, g *Graph, typ NodeType) ID {
	t.Helper()
	id, err := g.AddPrefab(typ, Position{})
	if err != nil {
		t.Fatalf("AddPrefab(%s) error: %v", typ, err)
	}
	return id
}

func TestNextIDMonotonic(t *testing.T) {
	g := New()
	seen := map[ID]bool{}
	prev := ID(0)
	for range 100 {
		id := g.NextID()
		if seen[id] {
			t.Fatalf("NextID() reused %d", id)
		}
		if id <= prev {
			t.Fatalf("NextID() = %d, want > %d", id, prev)
		}
		seen[id] = true
		prev = id
	}
}

func TestAddNode(t *testing.T) {
	g := New()
	n := PrefabCurve(g.NextID)
	if err := g.AddNode(n, Position{X: 10, Y: 20}); err != nil {
		t.Fatalf("AddNode() error: %v", err)
	}

	if got := g.NodeCount(); got != 1 {
		t.Errorf("NodeCount() = %d, want 1", got)
	}
	if got := g.AttributeCount(); got != 5 {
		t.Errorf("AttributeCount() = %d, want 5", got)
	}
	for _, aid := range n.AttributeIDs() {
		a, ok := g.Attribute(aid)
		if !ok {
			t.Fatalf("Attribute(%d) missing from arena", aid)
		}
		if a.NodeID != n.ID {
			t.Errorf("Attribute(%d).NodeID = %d, want %d", aid, a.NodeID, n.ID)
		}
	}
	if p, _ := g.Position(n.ID); p != (Position{X: 10, Y: 20}) {
		t.Errorf("Position() = %v, want {10 20}", p)
	}
	if len(n.Pending()) != 0 {
		t.Errorf("Pending() = %d attributes after AddNode, want 0", len(n.Pending()))
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestAddNodeDuplicateID(t *testing.T) {
	g := New()
	mustAdd(t, g, Interval)
	before := g.AttributeCount()

	// Reuse id 3, which the interval's "name" field already holds.
	clash := NewNode(100, Other, "clash",
		NewStatic(101, 100, "a", &Text{}),
		NewStatic(3, 100, "b", &Text{}),
	)
	err := g.AddNode(clash, Position{})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("AddNode() error = %v, want ErrDuplicateID", err)
	}
	if g.AttributeCount() != before {
		t.Errorf("AttributeCount() = %d after failed add, want %d", g.AttributeCount(), before)
	}
	if _, ok := g.Node(100); ok {
		t.Error("failed AddNode left node 100 in graph")
	}

	self := NewNode(200, Other, "self", NewStatic(200, 200, "a", &Text{}))
	if err := g.AddNode(self, Position{}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("AddNode(node id == attr id) error = %v, want ErrDuplicateID", err)
	}
}

func TestAddNodeAdvancesCounter(t *testing.T) {
	g := New()
	n := NewNode(50, Other, "external", NewStatic(51, 50, "a", &Text{}))
	if err := g.AddNode(n, Position{}); err != nil {
		t.Fatalf("AddNode() error: %v", err)
	}
	if id := g.NextID(); id != 52 {
		t.Errorf("NextID() = %d, want 52", id)
	}
}

func TestAddNodeTwice(t *testing.T) {
	g := New()
	n := PrefabRendering(g.NextID)
	if err := g.AddNode(n, Position{}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(n, Position{}); !errors.Is(err, ErrNodeRegistered) {
		t.Errorf("second AddNode() error = %v, want ErrNodeRegistered", err)
	}
}

func TestAddPrefabUnknown(t *testing.T) {
	g := New()
	if _, err := g.AddPrefab(Other, Position{}); !errors.Is(err, ErrUnknownType) {
		t.Errorf("AddPrefab(Other) error = %v, want ErrUnknownType", err)
	}
}

func TestTryCreateLink(t *testing.T) {
	g := New()
	iv := mustAdd(t, g, Interval)
	cv := mustAdd(t, g, Curve)
	mx := mustAdd(t, g, Matrix)

	ivOut := pin(t, g, iv, Output, "interval")
	cvIn := pin(t, g, cv, Input, "interval")
	cvOut := pin(t, g, cv, Output, "geometry")
	cvFx := pin(t, g, cv, Static, "fx")
	mxIn := pin(t, g, mx, Input, "interval")
	mxOut := pin(t, g, mx, Output, "matrix")

	tests := []struct {
		name string
		a, b ID
		want bool
	}{
		{"output then input", ivOut, cvIn, true},
		{"input then output", mxIn, ivOut, true},
		{"pin kind mismatch", mxOut, cvIn, false},
		{"two outputs", ivOut, cvOut, false},
		{"two inputs", cvIn, mxIn, false},
		{"static endpoint", cvFx, ivOut, false},
		{"missing attribute", 9999, cvIn, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.TryCreateLink(tt.a, tt.b); got != tt.want {
				t.Errorf("TryCreateLink(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if out, ok := g.LinkedOutput(cvIn); !ok || out != ivOut {
		t.Errorf("LinkedOutput(%d) = %d, %v, want %d, true", cvIn, out, ok, ivOut)
	}
	if got := g.LinkCount(); got != 2 {
		t.Errorf("LinkCount() = %d, want 2 (fan-out from one output)", got)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestTryCreateLinkReplaces(t *testing.T) {
	g := New()
	a := mustAdd(t, g, Interval)
	b := mustAdd(t, g, Interval)
	cv := mustAdd(t, g, Curve)
	in := pin(t, g, cv, Input, "interval")

	if !g.TryCreateLink(pin(t, g, a, Output, "interval"), in) {
		t.Fatal("first link rejected")
	}
	if !g.TryCreateLink(in, pin(t, g, b, Output, "interval")) {
		t.Fatal("second link rejected")
	}
	if g.LinkCount() != 1 {
		t.Errorf("LinkCount() = %d, want 1", g.LinkCount())
	}
	if src, _ := g.FindLinkedNode(in); src != b {
		t.Errorf("FindLinkedNode() = %d, want %d", src, b)
	}
}

func TestDestroyLink(t *testing.T) {
	g := New()
	iv := mustAdd(t, g, Interval)
	cv := mustAdd(t, g, Curve)
	in := pin(t, g, cv, Input, "interval")
	g.TryCreateLink(pin(t, g, iv, Output, "interval"), in)

	g.DestroyLink(in)
	if _, ok := g.FindLinkedNode(in); ok {
		t.Error("FindLinkedNode() found a link after DestroyLink")
	}
	g.DestroyLink(in) // absent: no-op
	g.DestroyLink(12345)
}

func TestRemoveNodeCascade(t *testing.T) {
	g := New()
	iv := mustAdd(t, g, Interval)
	cv := mustAdd(t, g, Curve)
	r := mustAdd(t, g, Rendering)
	g.TryCreateLink(pin(t, g, iv, Output, "interval"), pin(t, g, cv, Input, "interval"))
	g.TryCreateLink(pin(t, g, cv, Output, "geometry"), pin(t, g, r, Input, "geometry"))

	owned := g.nodes[cv].AttributeIDs()
	if !g.RemoveNode(cv) {
		t.Fatal("RemoveNode() = false, want true")
	}
	if g.RemoveNode(cv) {
		t.Error("second RemoveNode() = true, want false")
	}

	if g.LinkCount() != 0 {
		t.Errorf("LinkCount() = %d, want 0", g.LinkCount())
	}
	for _, aid := range owned {
		if _, ok := g.Attribute(aid); ok {
			t.Errorf("attribute %d still in arena", aid)
		}
		for in, out := range g.Links() {
			if in == aid || out == aid {
				t.Errorf("link %d -> %d references removed attribute", in, out)
			}
		}
	}
	if _, ok := g.Position(cv); ok {
		t.Error("position of removed node still recorded")
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestRenameNode(t *testing.T) {
	g := New()
	id := mustAdd(t, g, Curve)

	ok, err := g.RenameNode(id, "helix")
	if !ok || err != nil {
		t.Fatalf("RenameNode() = %v, %v, want true, nil", ok, err)
	}
	if n, _ := g.Node(id); n.Name != "helix" {
		t.Errorf("Name = %q, want helix", n.Name)
	}

	if ok, err := g.RenameNode(999, "x"); ok || err != nil {
		t.Errorf("RenameNode(missing) = %v, %v, want false, nil", ok, err)
	}
	_, err = g.RenameNode(id, "   ")
	if !errs.Is(err, errs.ErrCodeInvalidName) {
		t.Errorf("RenameNode(blank) error = %v, want INVALID_NAME", err)
	}
}

func TestPayloadSetters(t *testing.T) {
	g := New()
	iv := mustAdd(t, g, Interval)
	mx := mustAdd(t, g, Matrix)

	if err := g.SetText(iv, "name", "t"); err != nil {
		t.Fatalf("SetText() error: %v", err)
	}
	a, _ := g.FindAttribute(iv, Static, "name")
	if got := a.Payload.Literal(); got != "t" {
		t.Errorf("name = %v, want t", got)
	}

	tests := []struct {
		in, want int
	}{
		{8, 8},
		{0, QualityMin},
		{99, QualityMax},
	}
	for _, tt := range tests {
		got, err := g.SetSlider(iv, "quality", tt.in)
		if err != nil || got != tt.want {
			t.Errorf("SetSlider(%d) = %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}

	row := [4]string{"2", "0", "0", "1"}
	if err := g.SetMatrixRow(mx, "row_1", row); err != nil {
		t.Fatalf("SetMatrixRow() error: %v", err)
	}

	if err := g.SetText(iv, "quality", "x"); !errors.Is(err, ErrPayloadMismatch) {
		t.Errorf("SetText(slider) error = %v, want ErrPayloadMismatch", err)
	}
	if err := g.SetText(iv, "nope", "x"); !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("SetText(missing label) error = %v, want ErrUnknownAttribute", err)
	}
	if err := g.SetText(404, "name", "x"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("SetText(missing node) error = %v, want ErrUnknownNode", err)
	}
}

func TestRoots(t *testing.T) {
	g := New()
	r1 := mustAdd(t, g, Rendering)
	mustAdd(t, g, Curve)
	r2 := mustAdd(t, g, Rendering)

	roots := g.Roots()
	if len(roots) != 2 || roots[0].ID != r1 || roots[1].ID != r2 {
		t.Errorf("Roots() = %v, want [%d %d]", roots, r1, r2)
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	t.Run("dangling link", func(t *testing.T) {
		g := New()
		cv := mustAdd(t, g, Curve)
		g.links[pin(t, g, cv, Input, "interval")] = 777
		if err := g.Validate(); !errors.Is(err, ErrDanglingLink) {
			t.Errorf("Validate() = %v, want ErrDanglingLink", err)
		}
	})
	t.Run("incompatible link", func(t *testing.T) {
		g := New()
		cv := mustAdd(t, g, Curve)
		g.links[pin(t, g, cv, Output, "geometry")] = pin(t, g, cv, Input, "interval")
		if err := g.Validate(); !errors.Is(err, ErrIncompatibleLink) {
			t.Errorf("Validate() = %v, want ErrIncompatibleLink", err)
		}
	})
	t.Run("orphan attribute", func(t *testing.T) {
		g := New()
		g.attrs[42] = NewStatic(42, 41, "x", &Text{})
		if err := g.Validate(); !errors.Is(err, ErrDanglingAttribute) {
			t.Errorf("Validate() = %v, want ErrDanglingAttribute", err)
		}
	})
}

func TestParseNodeType(t *testing.T) {
	for _, typ := range []NodeType{Curve, Interval, Surface, Matrix, Transform, Rendering, Other} {
		got, err := ParseNodeType(typ.String())
		if err != nil || got != typ {
			t.Errorf("ParseNodeType(%q) = %v, %v", typ.String(), got, err)
		}
	}
	if got, _ := ParseNodeType(" curve "); got != Curve {
		t.Errorf("ParseNodeType(\" curve \") = %v, want Curve", got)
	}
	if _, err := ParseNodeType("teapot"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("ParseNodeType(teapot) error = %v, want ErrUnknownType", err)
	}
}
