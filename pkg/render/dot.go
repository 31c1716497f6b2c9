package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodeplot/pkg/graph"
)

// Options configures diagram output.
type Options struct {
	// Detailed lists each node's static fields under its name.
	Detailed bool
}

var statusFill = map[graph.Status]string{
	graph.StatusOk:      "white",
	graph.StatusWarning: "\"#ffe8a3\"",
	graph.StatusError:   "\"#ffb3b3\"",
}

// ToDOT converts g to Graphviz DOT. Output is deterministic: nodes by id,
// edges by input attribute id.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph nodeplot {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(fmtAttrs(g, n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	links := g.Links()
	for _, in := range slices.Sorted(maps.Keys(links)) {
		ia, okIn := g.Attribute(in)
		oa, okOut := g.Attribute(links[in])
		if !okIn || !okOut {
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [label=%q];\n", oa.NodeID, ia.NodeID, ia.Label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *graph.Graph, n *graph.Node, detailed bool) string {
	head := fmt.Sprintf("%s\n(%s #%d)", n.Name, n.Type, n.ID)
	if !detailed {
		return head
	}
	var parts []string
	for _, a := range g.Attributes(n.ID) {
		if a.Kind == graph.Static {
			parts = append(parts, fmt.Sprintf("%s: %v", a.Label, a.Payload.Literal()))
		}
	}
	if len(parts) == 0 {
		return head
	}
	return head + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(g *graph.Graph, n *graph.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(g, n, detailed))}
	if n.Status() != graph.StatusOk {
		attrs = append(attrs, "fillcolor="+statusFill[n.Status()])
		if n.Message() != "" {
			attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Message()))
		}
	}
	if n.Type == graph.Rendering {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg header with a plain
// viewBox so the diagram scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
