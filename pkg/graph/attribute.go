package graph

import "fmt"

// ID identifies a node or an attribute. Both share one id space.
type ID int

// AttributeKind tells pins (Input, Output) apart from literal fields (Static).
type AttributeKind int

const (
	// Input is a pin that receives at most one link from an Output.
	Input AttributeKind = iota
	// Output is a pin that can feed any number of Inputs.
	Output
	// Static is a non-linkable field carrying a literal [Payload].
	Static
)

// String returns the lowercase kind name.
func (k AttributeKind) String() string {
	switch k {
	case Input:
		return "input"
	case Output:
		return "output"
	case Static:
		return "static"
	default:
		return fmt.Sprintf("AttributeKind(%d)", int(k))
	}
}

// PinKind is the compatibility tag of a pin. Two pins can only be linked when
// their PinKind values are equal.
type PinKind int

const (
	// PinNone is the PinKind of Static attributes.
	PinNone PinKind = iota
	PinInterval
	PinGeometry
	PinMatrix
)

// String returns the pin kind name as shown on node pins.
func (p PinKind) String() string {
	switch p {
	case PinNone:
		return "none"
	case PinInterval:
		return "interval"
	case PinGeometry:
		return "geometry"
	case PinMatrix:
		return "matrix"
	default:
		return fmt.Sprintf("PinKind(%d)", int(p))
	}
}

// Payload is the literal content of a Static attribute. The set of payloads is
// closed: [*Text], [*MatrixRow] and [*IntSlider].
//
// Payloads are mutable in place; the interaction layer edits them directly.
type Payload interface {
	// Literal returns the JSON-ready value: a string, a 4-element []string or an int.
	Literal() any
	payload()
}

// Text is a free-form text field. The content is opaque and passed through verbatim.
type Text struct {
	Content string
}

// Literal returns the text content.
func (t *Text) Literal() any { return t.Content }
func (*Text) payload()       {}

// MatrixRow holds the four cells of one row of a 3x4 matrix, as text.
type MatrixRow struct {
	Cells [4]string
}

// Literal returns a copy of the cells as a 4-element slice.
func (m *MatrixRow) Literal() any { return append([]string(nil), m.Cells[:]...) }

func (*MatrixRow) payload() {}

// IntSlider is a bounded integer field.
type IntSlider struct {
	Value int
	Min   int
	Max   int
}

// Set stores v clamped to [Min, Max].
func (s *IntSlider) Set(v int) {
	s.Value = min(max(v, s.Min), s.Max)
}

// Literal returns the current slider value.
func (s *IntSlider) Literal() any { return s.Value }
func (*IntSlider) payload()       {}

// Attribute is a pin or field belonging to exactly one node.
type Attribute struct {
	ID      ID
	NodeID  ID
	Kind    AttributeKind
	Pin     PinKind // PinNone for Static attributes
	Label   string
	Payload Payload // nil for pins
}

// NewInput creates an input pin.
func NewInput(id, nodeID ID, pin PinKind, label string) *Attribute {
	return &Attribute{ID: id, NodeID: nodeID, Kind: Input, Pin: pin, Label: label}
}

// NewOutput creates an output pin.
func NewOutput(id, nodeID ID, pin PinKind, label string) *Attribute {
	return &Attribute{ID: id, NodeID: nodeID, Kind: Output, Pin: pin, Label: label}
}

// NewStatic creates a literal field.
func NewStatic(id, nodeID ID, label string, p Payload) *Attribute {
	return &Attribute{ID: id, NodeID: nodeID, Kind: Static, Pin: PinNone, Label: label, Payload: p}
}

// IsPin reports whether the attribute can take part in links.
func (a *Attribute) IsPin() bool { return a.Kind == Input || a.Kind == Output }

// IsCompatible reports whether a and other can be linked: both must be pins of
// opposite direction with equal PinKind. The relation is symmetric and Static
// attributes are never compatible with anything.
func (a *Attribute) IsCompatible(other *Attribute) bool {
	if a == nil || other == nil || !a.IsPin() || !other.IsPin() {
		return false
	}
	return a.Kind != other.Kind && a.Pin == other.Pin
}
