package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	errs "github.com/matzehuels/nodeplot/pkg/errors"
)

var (
	// ErrDuplicateID is returned by [Graph.AddNode] when the node id or one of
	// its attribute ids is already present. The graph is left unchanged.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrNodeRegistered is returned by [Graph.AddNode] when the node's
	// attributes were already moved into a graph arena.
	ErrNodeRegistered = errors.New("node already registered")

	// ErrUnknownType is returned by [ParseNodeType] and [Graph.AddPrefab] for
	// a type without a prefab.
	ErrUnknownType = errors.New("unknown node type")

	// ErrUnknownNode is returned by lookups that must resolve a node id.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownAttribute is returned by payload setters when no Static
	// attribute with the given label exists on the node.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrPayloadMismatch is returned by payload setters when the attribute
	// holds a different payload variant.
	ErrPayloadMismatch = errors.New("payload type mismatch")
)

// Position is the cosmetic canvas position of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Graph owns nodes, the attribute arena, and the link table.
//
// The zero value is not usable; use [New].
type Graph struct {
	nodes     map[ID]*Node
	attrs     map[ID]*Attribute
	links     map[ID]ID // input attribute id -> output attribute id
	positions map[ID]Position
	next      ID
}

// New returns an empty graph whose allocator starts at 1.
func New() *Graph {
	return &Graph{
		nodes:     make(map[ID]*Node),
		attrs:     make(map[ID]*Attribute),
		links:     make(map[ID]ID),
		positions: make(map[ID]Position),
		next:      1,
	}
}

// NextID returns a fresh id. Ids are never reused within a graph.
func (g *Graph) NextID() ID {
	id := g.next
	g.next++
	return id
}

func (g *Graph) taken(id ID) bool {
	_, isNode := g.nodes[id]
	_, isAttr := g.attrs[id]
	return isNode || isAttr
}

// AddNode moves n's attributes into the arena, inserts n, and records its
// position. Any id collision fails with [ErrDuplicateID] before anything is
// modified. Ids allocated outside [Graph.NextID] advance the counter so later
// allocations stay unique.
func (g *Graph) AddNode(n *Node, pos Position) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrUnknownNode)
	}
	if len(n.pending) != len(n.attrs) {
		return fmt.Errorf("%w: node %d", ErrNodeRegistered, n.ID)
	}

	seen := map[ID]bool{n.ID: true}
	if g.taken(n.ID) {
		return fmt.Errorf("%w: node %d", ErrDuplicateID, n.ID)
	}
	for _, a := range n.pending {
		if seen[a.ID] || g.taken(a.ID) {
			return fmt.Errorf("%w: attribute %d", ErrDuplicateID, a.ID)
		}
		seen[a.ID] = true
	}

	maxID := n.ID
	for _, a := range n.pending {
		a.NodeID = n.ID
		g.attrs[a.ID] = a
		maxID = max(maxID, a.ID)
	}
	n.pending = nil
	g.nodes[n.ID] = n
	g.positions[n.ID] = pos
	if maxID >= g.next {
		g.next = maxID + 1
	}
	return nil
}

// AddPrefab builds a node of type t with the graph's allocator and adds it.
func (g *Graph) AddPrefab(t NodeType, pos Position) (ID, error) {
	build, ok := PrefabFor(t)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	n := build(g.NextID)
	if err := g.AddNode(n, pos); err != nil {
		return 0, err
	}
	return n.ID, nil
}

// RemoveNode erases the node, its attributes, and every link whose input or
// output belongs to it. It reports whether the node existed.
func (g *Graph) RemoveNode(id ID) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	owned := make(map[ID]bool, len(n.attrs))
	for _, aid := range n.attrs {
		owned[aid] = true
		delete(g.attrs, aid)
	}
	maps.DeleteFunc(g.links, func(in, out ID) bool {
		return owned[in] || owned[out]
	})
	delete(g.nodes, id)
	delete(g.positions, id)
	return true
}

// RenameNode sets the node's display name. A missing node is a no-op and
// reports false; an invalid name is rejected with a coded error.
func (g *Graph) RenameNode(id ID, name string) (bool, error) {
	n, ok := g.nodes[id]
	if !ok {
		return false, nil
	}
	if err := errs.ValidateNodeName(name); err != nil {
		return false, err
	}
	n.Name = name
	return true, nil
}

// TryCreateLink links an Input to an Output of the same pin kind. The two
// attributes may be given in either order. An existing link on the input is
// replaced. It reports whether a link was made.
func (g *Graph) TryCreateLink(a, b ID) bool {
	x, okA := g.attrs[a]
	y, okB := g.attrs[b]
	if !okA || !okB || !x.IsCompatible(y) {
		return false
	}
	if x.Kind == Output {
		x, y = y, x
	}
	g.links[x.ID] = y.ID
	return true
}

// DestroyLink removes the link feeding input. Absent links are ignored.
func (g *Graph) DestroyLink(input ID) {
	delete(g.links, input)
}

// LinkedOutput returns the output attribute feeding input.
func (g *Graph) LinkedOutput(input ID) (ID, bool) {
	out, ok := g.links[input]
	return out, ok
}

// FindLinkedNode returns the node owning the output attribute that feeds
// input, or false when the input is unlinked.
func (g *Graph) FindLinkedNode(input ID) (ID, bool) {
	out, ok := g.links[input]
	if !ok {
		return 0, false
	}
	a, ok := g.attrs[out]
	if !ok {
		return 0, false
	}
	return a.NodeID, true
}

// Node returns the node with the given id.
func (g *Graph) Node(id ID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by id.
func (g *Graph) Nodes() []*Node {
	ids := slices.Sorted(maps.Keys(g.nodes))
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// Roots returns the Rendering nodes sorted by id. These are the starting
// points of lowering.
func (g *Graph) Roots() []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Type == Rendering {
			out = append(out, n)
		}
	}
	return out
}

// Attribute returns the attribute with the given id.
func (g *Graph) Attribute(id ID) (*Attribute, bool) {
	a, ok := g.attrs[id]
	return a, ok
}

// Attributes returns a node's attributes in declaration order, or nil if the
// node does not exist.
func (g *Graph) Attributes(nodeID ID) []*Attribute {
	n, ok := g.nodes[nodeID]
	if !ok {
		return nil
	}
	out := make([]*Attribute, 0, len(n.attrs))
	for _, id := range n.attrs {
		if a, ok := g.attrs[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// FindAttribute returns the first attribute of the node with the given kind
// and label.
func (g *Graph) FindAttribute(nodeID ID, kind AttributeKind, label string) (*Attribute, bool) {
	for _, a := range g.Attributes(nodeID) {
		if a.Kind == kind && a.Label == label {
			return a, true
		}
	}
	return nil, false
}

// Links returns a copy of the link table.
func (g *Graph) Links() map[ID]ID {
	return maps.Clone(g.links)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// AttributeCount returns the number of attributes in the arena.
func (g *Graph) AttributeCount() int { return len(g.attrs) }

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int { return len(g.links) }

// Position returns the canvas position of a node.
func (g *Graph) Position(id ID) (Position, bool) {
	p, ok := g.positions[id]
	return p, ok
}

// SetPosition moves a node. Missing nodes are ignored.
func (g *Graph) SetPosition(id ID, p Position) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	g.positions[id] = p
	return true
}

func (g *Graph) staticPayload(nodeID ID, label string) (Payload, error) {
	if _, ok := g.nodes[nodeID]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, nodeID)
	}
	a, ok := g.FindAttribute(nodeID, Static, label)
	if !ok {
		return nil, fmt.Errorf("%w: node %d has no field %q", ErrUnknownAttribute, nodeID, label)
	}
	return a.Payload, nil
}

// SetText replaces the content of a text field.
func (g *Graph) SetText(nodeID ID, label, content string) error {
	p, err := g.staticPayload(nodeID, label)
	if err != nil {
		return err
	}
	t, ok := p.(*Text)
	if !ok {
		return fmt.Errorf("%w: field %q is not text", ErrPayloadMismatch, label)
	}
	t.Content = content
	return nil
}

// SetMatrixRow replaces the four cells of a matrix row field.
func (g *Graph) SetMatrixRow(nodeID ID, label string, cells [4]string) error {
	p, err := g.staticPayload(nodeID, label)
	if err != nil {
		return err
	}
	m, ok := p.(*MatrixRow)
	if !ok {
		return fmt.Errorf("%w: field %q is not a matrix row", ErrPayloadMismatch, label)
	}
	m.Cells = cells
	return nil
}

// SetSlider stores v, clamped to the slider bounds, and returns the stored value.
func (g *Graph) SetSlider(nodeID ID, label string, v int) (int, error) {
	p, err := g.staticPayload(nodeID, label)
	if err != nil {
		return 0, err
	}
	s, ok := p.(*IntSlider)
	if !ok {
		return 0, fmt.Errorf("%w: field %q is not a slider", ErrPayloadMismatch, label)
	}
	s.Set(v)
	return s.Value, nil
}
