// Package render draws a node graph as a Graphviz diagram.
//
// The diagram is a debugging view of what the editor holds: one box per
// node, colored by validation status, and one arrow per link from the node
// owning the output pin to the node owning the input pin, labeled with the
// input pin.
//
//	dot := render.ToDOT(g, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// Status colors: white for ok, amber for warnings, red for errors. The status
// message becomes the node tooltip in SVG output.
package render
