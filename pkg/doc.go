// Package pkg provides the core libraries for nodeplot, a node-graph editor
// for parametric plots.
//
// # Overview
//
// A nodeplot scene is a graph of nodes (intervals, curves, surfaces, matrices,
// transforms and renderings) whose typed attributes are connected by links.
// The graph is lowered into a flat, dependency-ordered document that an
// external compute engine evaluates. The engine answers with per-node
// validation records, which are applied back onto the graph as node status.
//
// # Architecture
//
// The typical data flow:
//
//	Scene script (TOML / YAML)
//	         ↓
//	    [scene] package (parse + build)
//	         ↓
//	    [graph] package (nodes, attributes, links)
//	         ↓
//	    [lower] package (topological lowering)
//	         ↓
//	    [engine] package (request/response exchange)
//	         ↓
//	    [feedback] package (apply validation records)
//
// # Quick Start
//
// Load a scene and evaluate it against an engine:
//
//	import (
//	    "context"
//	    "time"
//
//	    "github.com/matzehuels/nodeplot/pkg/engine"
//	    "github.com/matzehuels/nodeplot/pkg/scene"
//	)
//
//	script, _ := scene.Load("helix.toml")
//	sc, _ := script.Build(nil)
//
//	eng, _ := engine.NewHTTPEngine("http://localhost:9000/evaluate", 30*time.Second)
//	x := engine.NewExchange(sc.Graph, sc.Globals, eng, nil)
//	summary, err := x.Run(context.Background())
//
// # Main Packages
//
// [graph] - The node graph: prefab node types, attribute kinds and pin
// types, link validation, and per-node status.
//
// [globals] - Named global variables shared by every expression in a scene.
//
// [lower] - Lowering of the graph into engine descriptors. Cycles are
// reported as [lower.CycleError]; nodes with unconnected inputs are skipped.
//
// [feedback] - Decoding and application of engine validation records.
//
// [engine] - The [engine.Engine] interface, an HTTP implementation, and the
// [engine.Exchange] that pairs requests with their responses and discards
// stale results.
//
// [scene] - TOML and YAML scene scripts: parse, build, and capture.
//
// [render] - Graphviz DOT and SVG views of a graph.
//
// [cache] - Content-addressed document cache with file and null backends.
//
// [observability] - Hook interfaces for lowering, engine and cache events.
//
// [errors] - Error codes shared by the CLI and the HTTP server.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/graph/...    # Specific package
//	go test -run Example       # Examples only
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/nodeplot/pkg/graph
// [globals]: https://pkg.go.dev/github.com/matzehuels/nodeplot/pkg/globals
// [lower]: https://pkg.go.dev/github.com/matzehuels/nodeplot/pkg/lower
// [feedback]: https://pkg.go.dev/github.com/matzehuels/nodeplot/pkg/feedback
// [engine]: https://pkg.go.dev/github.com/matzehuels/nodeplot/pkg/engine
// [scene]: https://pkg.go.dev/github.com/matzehuels/nodeplot/pkg/scene
// [render]: https://pkg.go.dev/github.com/matzehuels/nodeplot/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/nodeplot/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/nodeplot/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/nodeplot/pkg/errors
package pkg
