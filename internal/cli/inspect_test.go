package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/nodeplot/pkg/engine"
	"github.com/matzehuels/nodeplot/pkg/feedback"
	"github.com/matzehuels/nodeplot/pkg/graph"
	"github.com/matzehuels/nodeplot/pkg/scene"
)

func inspectScene(t *testing.T) *scene.Scene {
	t.Helper()
	script, err := scene.Parse([]byte(helixScene), scene.FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := script.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestInspectFrameEvaluates(t *testing.T) {
	sc := inspectScene(t)
	curve := sc.Keys["helix"]
	eng := engine.Func(func(ctx context.Context, req *engine.Request) ([]feedback.Record, error) {
		return []feedback.Record{{NodeID: curve, Message: "unknown symbol u"}}, nil
	})
	m := newInspectModel(context.Background(), sc.Graph, sc.Globals, eng)

	cmd := m.frame()
	if cmd == nil {
		t.Fatal("frame() on a new model should start an evaluation")
	}
	if m.descriptors == 0 || m.pending != 1 {
		t.Errorf("after frame: descriptors=%d pending=%d", m.descriptors, m.pending)
	}
	if again := m.frame(); again != nil {
		t.Error("frame() without edits should do nothing")
	}

	next, _ := m.Update(cmd())
	m = next.(inspectModel)
	if n, _ := sc.Graph.Node(curve); n.Status() != graph.StatusError {
		t.Errorf("curve status = %s, want error", n.Status())
	}
	if m.pending != 0 {
		t.Errorf("pending = %d after delivery, want 0", m.pending)
	}
}

func TestInspectStaleResults(t *testing.T) {
	sc := inspectScene(t)
	curve := sc.Keys["helix"]
	eng := engine.Func(func(ctx context.Context, req *engine.Request) ([]feedback.Record, error) {
		return []feedback.Record{{NodeID: curve, IsWarning: true, Message: req.ID}}, nil
	})
	m := newInspectModel(context.Background(), sc.Graph, sc.Globals, eng)

	first := m.frame()
	next, _ := m.key("+") // cursor is on the interval node
	m = next.(inspectModel)
	second := m.frame()
	if first == nil || second == nil {
		t.Fatal("both frames should evaluate")
	}

	next, _ = m.Update(first())
	m = next.(inspectModel)
	if m.stale != 1 {
		t.Errorf("stale = %d, want 1", m.stale)
	}
	if n, _ := sc.Graph.Node(curve); n.Status() != graph.StatusOk {
		t.Error("stale results must not touch the graph")
	}

	next, _ = m.Update(second())
	m = next.(inspectModel)
	n, _ := sc.Graph.Node(curve)
	if n.Status() != graph.StatusWarning || n.Message() != m.exchange.Latest().ID {
		t.Errorf("curve = %s %q, want warning from latest request", n.Status(), n.Message())
	}
}

func TestInspectKeys(t *testing.T) {
	sc := inspectScene(t)
	m := newInspectModel(context.Background(), sc.Graph, sc.Globals, nil)
	if m.auto {
		t.Error("auto should be off without an engine")
	}
	m.frame()

	press := func(k string) {
		t.Helper()
		next, _ := m.key(k)
		m = next.(inspectModel)
	}

	press("+")
	iv := sc.Keys["t"]
	q, _ := sc.Graph.FindAttribute(iv, graph.Static, "quality")
	if got := q.Payload.(*graph.IntSlider).Value; got != 9 {
		t.Errorf("quality after + = %d, want 9", got)
	}
	if !m.dirty {
		t.Error("edit should mark the model dirty")
	}

	press("down")
	press("u")
	in, _ := sc.Graph.FindAttribute(sc.Keys["helix"], graph.Input, "interval")
	if _, ok := sc.Graph.LinkedOutput(in.ID); ok {
		t.Error("u should unlink the selected node's inputs")
	}

	press("x")
	if _, ok := sc.Graph.Node(sc.Keys["helix"]); ok {
		t.Error("x should remove the selected node")
	}

	press("e")
	if m.message != "no compute engine configured" {
		t.Errorf("message = %q", m.message)
	}

	if _, cmd := m.key("q"); cmd == nil {
		t.Error("q should quit")
	}
}

func TestInspectWrite(t *testing.T) {
	sc := inspectScene(t)
	m := newInspectModel(context.Background(), sc.Graph, sc.Globals, nil)
	m.path = writeScene(t, t.TempDir(), "helix.yaml", "")
	m.format = scene.FormatYAML

	next, _ := m.key("w")
	m = next.(inspectModel)
	if !strings.HasPrefix(m.message, "wrote ") {
		t.Fatalf("message = %q", m.message)
	}

	script, err := scene.Load(m.path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(script.Nodes) != 3 || len(script.Links) != 2 || len(script.Globals) != 1 {
		t.Errorf("written scene has %d nodes, %d links, %d globals", len(script.Nodes), len(script.Links), len(script.Globals))
	}
}

func TestInspectView(t *testing.T) {
	sc := inspectScene(t)
	m := newInspectModel(context.Background(), sc.Graph, sc.Globals, nil)
	m.frame()

	view := m.View()
	for _, want := range []string{"helix", "Interval", "quality", "descriptors"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
