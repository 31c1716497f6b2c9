package scene

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	errs "github.com/matzehuels/nodeplot/pkg/errors"
	"github.com/matzehuels/nodeplot/pkg/graph"
	"github.com/matzehuels/nodeplot/pkg/lower"
)

const helixTOML = `
[[globals]]
name = "speed"
value = 2.0

[[nodes]]
key = "t"
prefab = "Interval"
x = 10.0
fields = { name = "t", begin = "0.0", end = "1.0", quality = 8 }

[[nodes]]
key = "helix"
prefab = "curve"
name = "Helix"
fields = { fx = "cos(speed*t)", fy = "sin(speed*t)", fz = 0 }

[[nodes]]
key = "out"
prefab = "Rendering"

[[links]]
from = "t.interval"
to = "helix.interval"

[[links]]
from = "helix.geometry"
to = "out.geometry"
`

const helixYAML = `
globals:
  - name: speed
    value: 2.0
nodes:
  - key: t
    prefab: Interval
    x: 10
    fields: {name: t, begin: "0.0", end: "1.0", quality: 8}
  - key: helix
    prefab: curve
    name: Helix
    fields: {fx: cos(speed*t), fy: sin(speed*t), fz: 0}
  - key: out
    prefab: Rendering
links:
  - {from: t.interval, to: helix.interval}
  - {from: helix.geometry, to: out.geometry}
`

func TestParseAndBuild(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"toml", helixTOML, FormatTOML},
		{"yaml", helixYAML, FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			sc, err := s.Build(nil)
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}

			g := sc.Graph
			if g.NodeCount() != 3 || g.LinkCount() != 2 {
				t.Errorf("graph has %d nodes, %d links; want 3, 2", g.NodeCount(), g.LinkCount())
			}
			if v, ok := sc.Globals.Get("speed"); !ok || v != 2 {
				t.Errorf("speed = %v, %v", v, ok)
			}

			helix := sc.Keys["helix"]
			if n, _ := g.Node(helix); n.Name != "Helix" || n.Type != graph.Curve {
				t.Errorf("helix node = %+v", n)
			}
			fz, _ := g.FindAttribute(helix, graph.Static, "fz")
			if fz.Payload.Literal() != "0" {
				t.Errorf("fz = %v, want \"0\"", fz.Payload.Literal())
			}
			q, _ := g.FindAttribute(sc.Keys["t"], graph.Static, "quality")
			if q.Payload.Literal() != 8 {
				t.Errorf("quality = %v, want 8", q.Payload.Literal())
			}
			if p, _ := g.Position(sc.Keys["t"]); p.X != 10 {
				t.Errorf("t position = %+v, want X=10", p)
			}

			doc, err := lower.Lower(g, lower.Options{Globals: sc.Globals})
			if err != nil {
				t.Fatalf("Lower() error: %v", err)
			}
			if len(doc.Descriptors) != 2 {
				t.Errorf("lowered %d descriptors, want 2", len(doc.Descriptors))
			}
		})
	}
}

func TestBuildMatrixRows(t *testing.T) {
	s, err := Parse([]byte(`
nodes:
  - key: m
    prefab: Matrix
    fields:
      row_1: [2, 0, 0, "t"]
`), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := s.Build(nil)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	a, _ := sc.Graph.FindAttribute(sc.Keys["m"], graph.Static, "row_1")
	if got, want := a.Payload.Literal(), []string{"2", "0", "0", "t"}; !reflect.DeepEqual(got, want) {
		t.Errorf("row_1 = %v, want %v", got, want)
	}
}

func TestCheckField(t *testing.T) {
	g := graph.New()
	iv, _ := g.AddPrefab(graph.Interval, graph.Position{})
	m, _ := g.AddPrefab(graph.Matrix, graph.Position{})

	tests := []struct {
		name    string
		id      graph.ID
		label   string
		value   any
		want    any
		wantErr bool
	}{
		{"text", iv, "begin", "-pi", "-pi", false},
		{"text from number", iv, "end", 2.5, "2.5", false},
		{"slider from float", iv, "quality", 6.0, 6, false},
		{"slider from string", iv, "quality", "7", 7, false},
		{"matrix row", m, "row_1", []any{1, "0", 0, "t"}, [4]string{"1", "0", "0", "t"}, false},
		{"short matrix row", m, "row_1", []string{"1", "2", "3"}, nil, true},
		{"slider from word", iv, "quality", "high", nil, true},
		{"unknown field", iv, "fx", "x", nil, true},
		{"pin is not a field", iv, "interval", "x", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckField(g, tt.id, tt.label, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckField() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CheckField() = %#v, want %#v", got, tt.want)
			}
		})
	}

	a, _ := g.FindAttribute(iv, graph.Static, "begin")
	if a.Payload.Literal() != "" {
		t.Errorf("CheckField wrote begin = %v", a.Payload.Literal())
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantCode errs.Code
	}{
		{"unknown prefab", `
nodes:
  - {key: a, prefab: Teapot}`, errs.ErrCodeInvalidScene},
		{"duplicate key", `
nodes:
  - {key: a, prefab: Curve}
  - {key: a, prefab: Curve}`, errs.ErrCodeInvalidScene},
		{"unknown field", `
nodes:
  - {key: a, prefab: Curve, fields: {fw: x}}`, errs.ErrCodeInvalidScene},
		{"short matrix row", `
nodes:
  - {key: m, prefab: Matrix, fields: {row_1: [1, 2]}}`, errs.ErrCodeInvalidScene},
		{"incompatible link", `
nodes:
  - {key: m, prefab: Matrix}
  - {key: c, prefab: Curve}
links:
  - {from: m.matrix, to: c.interval}`, errs.ErrCodeInvalidScene},
		{"link to unknown key", `
nodes:
  - {key: c, prefab: Curve}
links:
  - {from: x.interval, to: c.interval}`, errs.ErrCodeInvalidScene},
		{"link from input", `
nodes:
  - {key: a, prefab: Curve}
  - {key: b, prefab: Curve}
links:
  - {from: a.interval, to: b.interval}`, errs.ErrCodeInvalidScene},
		{"reserved global", `
globals:
  - {name: pi, value: 3}
nodes: []`, errs.ErrCodeReservedName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.data), FormatYAML)
			if err == nil {
				_, err = s.Build(nil)
			}
			if !errs.Is(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing key", `nodes: [{prefab: Curve}]`},
		{"dotted key", `nodes: [{key: a.b, prefab: Curve}]`},
		{"bad link ref", `
nodes: [{key: a, prefab: Curve}]
links: [{from: a, to: a.interval}]`},
		{"malformed yaml", `nodes: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), FormatYAML); !errs.Is(err, errs.ErrCodeInvalidScene) {
				t.Errorf("Parse() error = %v, want INVALID_SCENE", err)
			}
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"scene.toml", FormatTOML, false},
		{"dir/Scene.YAML", FormatYAML, false},
		{"a.yml", FormatYAML, false},
		{"scene.json", "", true},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatOf(%q) = %q, %v", tt.path, got, err)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helix.toml")
	if err := os.WriteFile(path, []byte(helixTOML), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(s.Nodes) != 3 || len(s.Links) != 2 {
		t.Errorf("Load() = %d nodes, %d links", len(s.Nodes), len(s.Links))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load(missing) should fail")
	}
}

func TestExampleScenes(t *testing.T) {
	tests := []struct {
		file        string
		nodes       int
		links       int
		descriptors int
	}{
		{"helix.toml", 3, 2, 2},
		{"torus.yaml", 7, 6, 6},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			s, err := Load(filepath.Join("..", "..", "examples", tt.file))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			sc, err := s.Build(nil)
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			if sc.Graph.NodeCount() != tt.nodes || sc.Graph.LinkCount() != tt.links {
				t.Errorf("graph = %d nodes, %d links; want %d, %d",
					sc.Graph.NodeCount(), sc.Graph.LinkCount(), tt.nodes, tt.links)
			}
			doc, err := lower.Lower(sc.Graph, lower.Options{Globals: sc.Globals})
			if err != nil {
				t.Fatalf("Lower() error: %v", err)
			}
			if len(doc.Descriptors) != tt.descriptors || len(doc.Unconnected) != 0 {
				t.Errorf("document = %d descriptors, %d unconnected; want %d, 0",
					len(doc.Descriptors), len(doc.Unconnected), tt.descriptors)
			}
		})
	}
}

func TestCaptureRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			s, _ := Parse([]byte(helixTOML), FormatTOML)
			orig, err := s.Build(nil)
			if err != nil {
				t.Fatal(err)
			}

			data, err := Marshal(Capture(orig.Graph, orig.Globals), format)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			again, err := Parse(data, format)
			if err != nil {
				t.Fatalf("Parse(captured) error: %v\n%s", err, data)
			}
			rebuilt, err := again.Build(nil)
			if err != nil {
				t.Fatalf("Build(captured) error: %v\n%s", err, data)
			}

			want := lowered(t, orig)
			got := lowered(t, rebuilt)
			if !bytes.Equal(got, want) {
				t.Errorf("rebuilt scene lowers differently:\n got %s\nwant %s", got, want)
			}
		})
	}
}

func lowered(t *testing.T, sc *Scene) []byte {
	t.Helper()
	doc, err := lower.Lower(sc.Graph, lower.Options{Globals: sc.Globals})
	if err != nil {
		t.Fatal(err)
	}
	data, err := lower.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
