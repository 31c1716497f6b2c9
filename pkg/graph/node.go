package graph

import (
	"fmt"
	"strings"
)

// NodeType classifies a node. The type name is the key of the node's
// descriptor payload after lowering.
type NodeType int

const (
	Curve NodeType = iota
	Interval
	Surface
	Matrix
	Transform
	Rendering
	Other
)

var nodeTypeNames = [...]string{
	Curve:     "Curve",
	Interval:  "Interval",
	Surface:   "Surface",
	Matrix:    "Matrix",
	Transform: "Transform",
	Rendering: "Rendering",
	Other:     "Other",
}

// String returns the type name used in lowered documents.
func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
	return nodeTypeNames[t]
}

// ParseNodeType resolves a type name case-insensitively.
func ParseNodeType(s string) (NodeType, error) {
	for i, name := range nodeTypeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return NodeType(i), nil
		}
	}
	return Other, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Status is the validation state reported for a node by the compute engine.
type Status int

const (
	StatusOk Status = iota
	StatusWarning
	StatusError
)

// String returns "ok", "warning" or "error".
func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Node is an ordered set of attribute ids plus identity and status.
//
// A Node built by a prefab carries its attributes as pending until
// [Graph.AddNode] moves them into the arena. Once registered, the graph owns
// the attributes and the node keeps only their ids.
type Node struct {
	ID   ID
	Type NodeType
	Name string

	status  Status
	message string
	attrs   []ID
	pending []*Attribute
}

// NewNode builds an unregistered node owning attrs in the given order.
// Each attribute's NodeID is set to id.
func NewNode(id ID, typ NodeType, name string, attrs ...*Attribute) *Node {
	n := &Node{ID: id, Type: typ, Name: name}
	for _, a := range attrs {
		a.NodeID = id
		n.attrs = append(n.attrs, a.ID)
		n.pending = append(n.pending, a)
	}
	return n
}

// SetStatus overwrites the validation state. Last write wins.
func (n *Node) SetStatus(s Status, message string) {
	n.status = s
	n.message = message
}

// Status returns the current validation state.
func (n *Node) Status() Status { return n.status }

// Message returns the message attached by the last SetStatus call.
func (n *Node) Message() string { return n.message }

// AttributeIDs returns the node's attribute ids in declaration order.
// The returned slice is a copy.
func (n *Node) AttributeIDs() []ID {
	return append([]ID(nil), n.attrs...)
}

// Pending returns the attributes not yet registered with a graph.
func (n *Node) Pending() []*Attribute {
	return append([]*Attribute(nil), n.pending...)
}
