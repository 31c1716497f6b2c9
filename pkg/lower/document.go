package lower

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/nodeplot/pkg/graph"
)

// Document is the lowered form of a graph.
type Document struct {
	GlobalNames      []string     `json:"global_names"`
	GlobalInitValues []float64    `json:"global_init_values"`
	Descriptors      []Descriptor `json:"descriptors"`

	// Unconnected lists nodes with at least one unlinked input, in the order
	// they were found. It is not part of the wire format.
	Unconnected []graph.ID `json:"-"`
}

// Descriptor is one lowered node.
type Descriptor struct {
	ID     graph.ID
	Type   string
	Fields []Field
}

// Field is one entry of a descriptor payload.
type Field struct {
	Name  string
	Input bool
	Dep   *graph.ID // set for linked inputs
	Value any       // literal of static fields
}

// Dependencies returns the node ids referenced by linked inputs, in field order.
func (d Descriptor) Dependencies() []graph.ID {
	var out []graph.ID
	for _, f := range d.Fields {
		if f.Input && f.Dep != nil {
			out = append(out, *f.Dep)
		}
	}
	return out
}

// Field returns the field with the given name.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MarshalJSON writes {"id":N,"data":{"<Type>":{fields...}}} with fields in
// attribute order.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	typ, err := json.Marshal(d.Type)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, `{"id":%d,"data":{%s:{`, d.ID, typ)
	for i, f := range d.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		var val any = f.Value
		if f.Input {
			val = f.Dep
		}
		v, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString("}}}")
	return buf.Bytes(), nil
}

// Marshal encodes doc compactly. This is the form sent to the compute engine
// and the input to request fingerprints.
func Marshal(doc *Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// Encode writes doc to w, indented with indent ("" for compact output).
func Encode(doc *Document, w io.Writer, indent string) error {
	enc := json.NewEncoder(w)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteJSON writes doc to w with two-space indentation.
func WriteJSON(doc *Document, w io.Writer) error {
	return Encode(doc, w, "  ")
}

// ExportJSON writes doc to a JSON file at path.
func ExportJSON(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(doc, f)
}
