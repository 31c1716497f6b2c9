package graph_test

import (
	"fmt"

	"github.com/matzehuels/nodeplot/pkg/graph"
)

func ExampleGraph_TryCreateLink() {
	g := graph.New()
	iv, _ := g.AddPrefab(graph.Interval, graph.Position{})
	cv, _ := g.AddPrefab(graph.Curve, graph.Position{X: 200})

	out, _ := g.FindAttribute(iv, graph.Output, "interval")
	in, _ := g.FindAttribute(cv, graph.Input, "interval")
	geo, _ := g.FindAttribute(cv, graph.Output, "geometry")

	fmt.Println("input first:", g.TryCreateLink(in.ID, out.ID))
	fmt.Println("wrong pin kind:", g.TryCreateLink(in.ID, geo.ID))
	src, _ := g.FindLinkedNode(in.ID)
	fmt.Println("curve fed by interval:", src == iv)
	// Output:
	// input first: true
	// wrong pin kind: false
	// curve fed by interval: true
}

func ExampleGraph_RemoveNode() {
	g := graph.New()
	iv, _ := g.AddPrefab(graph.Interval, graph.Position{})
	cv, _ := g.AddPrefab(graph.Curve, graph.Position{})
	out, _ := g.FindAttribute(iv, graph.Output, "interval")
	in, _ := g.FindAttribute(cv, graph.Input, "interval")
	g.TryCreateLink(out.ID, in.ID)

	g.RemoveNode(iv)
	fmt.Println("nodes:", g.NodeCount())
	fmt.Println("links:", g.LinkCount())
	// Output:
	// nodes: 1
	// links: 0
}

func ExampleGraph_MarkError() {
	g := graph.New()
	cv, _ := g.AddPrefab(graph.Curve, graph.Position{})

	g.MarkError(cv, "unknown symbol u")
	g.MarkError(9999, "node was removed") // ignored

	n, _ := g.Node(cv)
	fmt.Println(n.Status(), n.Message())
	// Output:
	// error unknown symbol u
}
