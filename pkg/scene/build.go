package scene

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cast"

	errs "github.com/matzehuels/nodeplot/pkg/errors"
	"github.com/matzehuels/nodeplot/pkg/globals"
	"github.com/matzehuels/nodeplot/pkg/graph"
)

// Scene is a graph built from a script, with the globals it declares.
type Scene struct {
	Graph   *graph.Graph
	Globals *globals.Set
	// Keys maps script node keys to graph node ids.
	Keys map[string]graph.ID
}

// Build replays the script on a fresh graph. Any failing step aborts the
// build with an INVALID_SCENE error naming the offending node or link;
// global variable errors keep their own codes.
func (s *Script) Build(logger *log.Logger) (*Scene, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	vars, err := globals.New(s.Globals...)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	keys := make(map[string]graph.ID, len(s.Nodes))
	for i, spec := range s.Nodes {
		if _, dup := keys[spec.Key]; dup {
			return nil, errs.New(errs.ErrCodeInvalidScene, "node %d: duplicate key %q", i, spec.Key)
		}
		typ, err := graph.ParseNodeType(spec.Prefab)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "node %q", spec.Key)
		}
		id, err := g.AddPrefab(typ, graph.Position{X: spec.X, Y: spec.Y})
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "node %q", spec.Key)
		}
		keys[spec.Key] = id

		if spec.Name != "" {
			if _, err := g.RenameNode(id, spec.Name); err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "node %q", spec.Key)
			}
		}
		for _, label := range slices.Sorted(maps.Keys(spec.Fields)) {
			if err := SetField(g, id, label, spec.Fields[label]); err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "node %q field %q", spec.Key, label)
			}
		}
		logger.Debug("node added", "key", spec.Key, "id", id, "type", typ)
	}

	for i, l := range s.Links {
		out, err := endpoint(g, keys, l.From, graph.Output)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "link %d from", i)
		}
		in, err := endpoint(g, keys, l.To, graph.Input)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "link %d to", i)
		}
		if !g.TryCreateLink(out, in) {
			return nil, errs.New(errs.ErrCodeInvalidScene, "link %d: %s and %s are not compatible", i, l.From, l.To)
		}
	}

	return &Scene{Graph: g, Globals: vars, Keys: keys}, nil
}

func endpoint(g *graph.Graph, keys map[string]graph.ID, ref string, kind graph.AttributeKind) (graph.ID, error) {
	key, label, ok := strings.Cut(ref, ".")
	if !ok || key == "" || label == "" {
		return 0, fmt.Errorf("malformed endpoint %q (want key.label)", ref)
	}
	id, ok := keys[key]
	if !ok {
		return 0, fmt.Errorf("unknown node key %q", key)
	}
	a, ok := g.FindAttribute(id, kind, label)
	if !ok {
		return 0, fmt.Errorf("node %q has no %s pin %q", key, kind, label)
	}
	return a.ID, nil
}

// SetField writes a decoded value into a static field. TOML, YAML and JSON
// decode numbers and arrays into different Go types, so values are coerced.
func SetField(g *graph.Graph, id graph.ID, label string, v any) error {
	value, err := CheckField(g, id, label, v)
	if err != nil {
		return err
	}
	switch value := value.(type) {
	case string:
		return g.SetText(id, label, value)
	case int:
		_, err = g.SetSlider(id, label, value)
		return err
	default:
		return g.SetMatrixRow(id, label, value.([4]string))
	}
}

// CheckField coerces v for the static field label of node id without
// writing it. The result is a string, an int or a [4]string, matching the
// field's payload.
func CheckField(g *graph.Graph, id graph.ID, label string, v any) (any, error) {
	a, ok := g.FindAttribute(id, graph.Static, label)
	if !ok {
		return nil, fmt.Errorf("%w: no field %q", graph.ErrUnknownAttribute, label)
	}
	switch a.Payload.(type) {
	case *graph.Text:
		return cast.ToStringE(v)
	case *graph.IntSlider:
		return cast.ToIntE(v)
	case *graph.MatrixRow:
		cells, err := cast.ToStringSliceE(v)
		if err != nil {
			return nil, err
		}
		if len(cells) != 4 {
			return nil, fmt.Errorf("matrix row needs 4 cells, got %d", len(cells))
		}
		return [4]string(cells), nil
	default:
		return nil, fmt.Errorf("%w: field %q", graph.ErrPayloadMismatch, label)
	}
}

// Capture describes the current state of g as a script. Node keys are "n"
// followed by the node id; links are listed by input id.
func Capture(g *graph.Graph, vars *globals.Set) *Script {
	s := &Script{Globals: vars.Snapshot()}
	key := func(id graph.ID) string { return fmt.Sprintf("n%d", id) }

	for _, n := range g.Nodes() {
		pos, _ := g.Position(n.ID)
		spec := NodeSpec{Key: key(n.ID), Prefab: n.Type.String(), Name: n.Name, X: pos.X, Y: pos.Y}
		for _, a := range g.Attributes(n.ID) {
			if a.Kind != graph.Static {
				continue
			}
			if spec.Fields == nil {
				spec.Fields = make(map[string]any)
			}
			spec.Fields[a.Label] = a.Payload.Literal()
		}
		s.Nodes = append(s.Nodes, spec)
	}

	links := g.Links()
	for _, in := range slices.Sorted(maps.Keys(links)) {
		ia, _ := g.Attribute(in)
		oa, _ := g.Attribute(links[in])
		s.Links = append(s.Links, LinkSpec{
			From: key(oa.NodeID) + "." + oa.Label,
			To:   key(ia.NodeID) + "." + ia.Label,
		})
	}
	return s
}
