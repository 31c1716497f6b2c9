// Package scene loads node graphs from scene scripts.
//
// A scene script replays the mutation requests of an editing session:
// declare globals, add nodes from prefabs, fill in their fields, and link
// pins. Scripts are TOML or YAML:
//
//	[[globals]]
//	name = "speed"
//	value = 2.0
//
//	[[nodes]]
//	key = "t"
//	prefab = "Interval"
//	fields = { name = "t", begin = "0.0", end = "2*pi", quality = 8 }
//
//	[[nodes]]
//	key = "helix"
//	prefab = "Curve"
//	fields = { fx = "cos(speed*t)", fy = "sin(speed*t)", fz = "t" }
//
//	[[nodes]]
//	key = "out"
//	prefab = "Rendering"
//
//	[[links]]
//	from = "t.interval"
//	to = "helix.interval"
//
//	[[links]]
//	from = "helix.geometry"
//	to = "out.geometry"
//
// Link endpoints are "<node key>.<pin label>": from names an output pin and
// to names an input pin. Nodes are built in file order, so a script always
// yields the same ids on a fresh graph.
package scene

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/nodeplot/pkg/errors"
	"github.com/matzehuels/nodeplot/pkg/globals"
)

// Format is a scene script encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

var validate = validator.New()

// Script is the decoded form of a scene file.
type Script struct {
	Globals []globals.Variable `toml:"globals,omitempty" yaml:"globals,omitempty"`
	Nodes   []NodeSpec         `toml:"nodes" yaml:"nodes" validate:"dive"`
	Links   []LinkSpec         `toml:"links,omitempty" yaml:"links,omitempty" validate:"dive"`
}

// NodeSpec adds one prefab node.
type NodeSpec struct {
	Key    string         `toml:"key" yaml:"key" validate:"required,max=64,excludes=."`
	Prefab string         `toml:"prefab" yaml:"prefab" validate:"required"`
	Name   string         `toml:"name,omitempty" yaml:"name,omitempty"`
	X      float64        `toml:"x,omitempty" yaml:"x,omitempty"`
	Y      float64        `toml:"y,omitempty" yaml:"y,omitempty"`
	Fields map[string]any `toml:"fields,omitempty" yaml:"fields,omitempty"`
}

// LinkSpec connects an output pin to an input pin.
type LinkSpec struct {
	From string `toml:"from" yaml:"from" validate:"required,contains=."`
	To   string `toml:"to" yaml:"to" validate:"required,contains=."`
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errs.New(errs.ErrCodeInvalidScene, "unsupported scene file %s (want .toml, .yaml or .yml)", filepath.Base(path))
	}
}

// Parse decodes and validates a script.
func Parse(data []byte, format Format) (*Script, error) {
	var s Script
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "parse toml")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "parse yaml")
		}
	default:
		return nil, errs.New(errs.ErrCodeInvalidScene, "unknown scene format %q", format)
	}
	if err := validate.Struct(&s); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "invalid scene")
	}
	return &s, nil
}

// Load reads and parses a scene file, choosing the format by extension.
func Load(path string) (*Script, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, format)
}

// Encode writes s to w in the given format.
func Encode(w io.Writer, s *Script, format Format) error {
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(s); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return errs.New(errs.ErrCodeInvalidScene, "unknown scene format %q", format)
	}
	return nil
}

// Marshal encodes s into a byte slice.
func Marshal(s *Script, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
