package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/nodeplot/pkg/cache"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, input string
		count         int
		want          string
	}{
		{"", "scenes/helix.toml", 1, ""},
		{"doc.json", "scenes/helix.toml", 1, "doc.json"},
		{"", "scenes/helix.toml", 2, filepath.Join("scenes", "helix.json")},
		{"out", "scenes/torus.yaml", 3, filepath.Join("out", "torus.json")},
	}
	for _, tt := range tests {
		if got := outputPath(tt.output, tt.input, tt.count); got != tt.want {
			t.Errorf("outputPath(%q, %q, %d) = %q, want %q", tt.output, tt.input, tt.count, got, tt.want)
		}
	}
}

func TestRunLowerSingle(t *testing.T) {
	c, _ := testCLI(t)
	dir := t.TempDir()
	in := writeScene(t, dir, "helix.toml", helixScene)
	out := filepath.Join(dir, "helix.json")

	if err := c.runLower(context.Background(), []string{in}, out, "  ", false); err != nil {
		t.Fatalf("runLower() error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		GlobalNames []string          `json:"global_names"`
		Descriptors []json.RawMessage `json:"descriptors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not a document: %v\n%s", err, data)
	}
	if len(doc.GlobalNames) != 1 || doc.GlobalNames[0] != "speed" {
		t.Errorf("global_names = %v, want [speed]", doc.GlobalNames)
	}
	if len(doc.Descriptors) == 0 {
		t.Error("document has no descriptors")
	}
}

func TestRunLowerCached(t *testing.T) {
	c, logs := testCLI(t)
	dir := t.TempDir()
	in := writeScene(t, dir, "helix.toml", helixScene)
	out := filepath.Join(dir, "helix.json")
	ctx := context.Background()

	if err := c.runLower(ctx, []string{in}, out, "  ", false); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(out)

	if err := c.runLower(ctx, []string{in}, out, "  ", false); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(out)

	if string(first) != string(second) {
		t.Error("cached document differs from the lowered one")
	}
	if !strings.Contains(logs.String(), "document cache hit") {
		t.Error("second run should hit the cache")
	}
}

func TestLowerSceneCachedKeepsCounts(t *testing.T) {
	c, _ := testCLI(t)
	dir := t.TempDir()
	spare := "[[nodes]]\nkey = \"spare\"\nprefab = \"Rendering\"\n"
	in := writeScene(t, dir, "helix.toml", spare+helixScene)

	store := c.newCache(false)
	defer store.Close()
	docs := cache.NewDocuments(store, 0)
	ctx := context.Background()

	first, err := c.lowerScene(ctx, docs, in, "json", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.lowerScene(ctx, docs, in, "json", "")
	if err != nil {
		t.Fatal(err)
	}

	if first.cached || !second.cached {
		t.Fatalf("cached = %v, %v; want false, true", first.cached, second.cached)
	}
	if first.nodes != 4 || first.links != 2 || first.unconnected != 1 {
		t.Errorf("first run = %d nodes, %d links, %d unconnected; want 4, 2, 1", first.nodes, first.links, first.unconnected)
	}
	if second.nodes != first.nodes || second.links != first.links || second.unconnected != first.unconnected {
		t.Errorf("cached run = %d nodes, %d links, %d unconnected; want %d, %d, %d",
			second.nodes, second.links, second.unconnected, first.nodes, first.links, first.unconnected)
	}
	if string(second.data) != string(first.data) {
		t.Error("cached document differs from the lowered one")
	}
}

func TestRunLowerMany(t *testing.T) {
	c, _ := testCLI(t)
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	var inputs []string
	for _, name := range []string{"a.toml", "b.toml", "c.toml"} {
		inputs = append(inputs, writeScene(t, dir, name, helixScene))
	}

	if err := c.runLower(context.Background(), inputs, outDir, "", true); err != nil {
		t.Fatalf("runLower() error: %v", err)
	}
	for _, name := range []string{"a.json", "b.json", "c.json"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if strings.Contains(string(data), "\n  ") {
			t.Errorf("%s should be compact with empty indent", name)
		}
	}
}

func TestRunLowerCycle(t *testing.T) {
	c, _ := testCLI(t)
	dir := t.TempDir()
	in := writeScene(t, dir, "loop.toml", `
[[nodes]]
key = "a"
prefab = "Transform"

[[nodes]]
key = "b"
prefab = "Transform"

[[nodes]]
key = "out"
prefab = "Rendering"

[[links]]
from = "a.geometry"
to = "b.geometry"

[[links]]
from = "b.geometry"
to = "a.geometry"

[[links]]
from = "a.geometry"
to = "out.geometry"
`)

	err := c.runLower(context.Background(), []string{in}, filepath.Join(dir, "loop.json"), "  ", true)
	if err == nil || !strings.Contains(err.Error(), "loop.toml") {
		t.Errorf("runLower() error = %v, want cycle error naming the scene", err)
	}
}
