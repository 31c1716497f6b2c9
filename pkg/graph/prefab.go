package graph

import "fmt"

// IDAllocator hands out a fresh id on every call. [Graph.NextID] is the
// allocator every construction path should use so node and attribute ids
// never collide.
type IDAllocator func() ID

// Prefab builds a node of a fixed shape. It calls next once for the node id and
// then once per attribute, in attribute order.
type Prefab func(next IDAllocator) *Node

// Slider bounds of the Interval quality field.
const (
	QualityMin     = 1
	QualityMax     = 16
	QualityDefault = 4
)

var identityRows = [3][4]string{
	{"1.0", "0.0", "0.0", "0.0"},
	{"0.0", "1.0", "0.0", "0.0"},
	{"0.0", "0.0", "1.0", "0.0"},
}

// PrefabInterval builds a parameter interval: out interval, text name, begin
// and end, and a quality slider.
func PrefabInterval(next IDAllocator) *Node {
	id := next()
	return NewNode(id, Interval, "Interval",
		NewOutput(next(), id, PinInterval, "interval"),
		NewStatic(next(), id, "name", &Text{}),
		NewStatic(next(), id, "begin", &Text{}),
		NewStatic(next(), id, "end", &Text{}),
		NewStatic(next(), id, "quality", &IntSlider{Value: QualityDefault, Min: QualityMin, Max: QualityMax}),
	)
}

// PrefabCurve builds a parametric curve over one interval.
func PrefabCurve(next IDAllocator) *Node {
	id := next()
	return NewNode(id, Curve, "Curve",
		NewInput(next(), id, PinInterval, "interval"),
		NewStatic(next(), id, "fx", &Text{}),
		NewStatic(next(), id, "fy", &Text{}),
		NewStatic(next(), id, "fz", &Text{}),
		NewOutput(next(), id, PinGeometry, "geometry"),
	)
}

// PrefabSurface builds a parametric surface over two intervals.
func PrefabSurface(next IDAllocator) *Node {
	id := next()
	return NewNode(id, Surface, "Surface",
		NewInput(next(), id, PinInterval, "interval_1"),
		NewInput(next(), id, PinInterval, "interval_2"),
		NewStatic(next(), id, "fx", &Text{}),
		NewStatic(next(), id, "fy", &Text{}),
		NewStatic(next(), id, "fz", &Text{}),
		NewOutput(next(), id, PinGeometry, "geometry"),
	)
}

// PrefabMatrix builds a 3x4 matrix node initialized to identity.
func PrefabMatrix(next IDAllocator) *Node {
	id := next()
	attrs := []*Attribute{NewInput(next(), id, PinInterval, "interval")}
	for i, row := range identityRows {
		attrs = append(attrs, NewStatic(next(), id, fmt.Sprintf("row_%d", i+1), &MatrixRow{Cells: row}))
	}
	attrs = append(attrs, NewOutput(next(), id, PinMatrix, "matrix"))
	return NewNode(id, Matrix, "Matrix", attrs...)
}

// PrefabTransform builds a node applying a matrix to a geometry.
func PrefabTransform(next IDAllocator) *Node {
	id := next()
	return NewNode(id, Transform, "Transform",
		NewInput(next(), id, PinGeometry, "geometry"),
		NewInput(next(), id, PinMatrix, "matrix"),
		NewOutput(next(), id, PinGeometry, "geometry"),
	)
}

// PrefabRendering builds a sink node. Rendering nodes are lowering roots.
func PrefabRendering(next IDAllocator) *Node {
	id := next()
	return NewNode(id, Rendering, "Rendering",
		NewInput(next(), id, PinGeometry, "geometry"),
	)
}

var prefabs = map[NodeType]Prefab{
	Interval:  PrefabInterval,
	Curve:     PrefabCurve,
	Surface:   PrefabSurface,
	Matrix:    PrefabMatrix,
	Transform: PrefabTransform,
	Rendering: PrefabRendering,
}

// PrefabFor returns the prefab constructor for t. Other has no prefab.
func PrefabFor(t NodeType) (Prefab, bool) {
	p, ok := prefabs[t]
	return p, ok
}

// PrefabTypes lists the node types that have a prefab, in menu order.
func PrefabTypes() []NodeType {
	return []NodeType{Interval, Curve, Surface, Matrix, Transform, Rendering}
}
