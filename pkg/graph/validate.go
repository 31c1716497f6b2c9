package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrDanglingAttribute is returned by [Graph.Validate] when a node lists
	// an attribute id missing from the arena, or the arena holds an attribute
	// whose owner does not list it.
	ErrDanglingAttribute = errors.New("dangling attribute")

	// ErrDanglingLink is returned by [Graph.Validate] when a link endpoint is
	// not in the arena.
	ErrDanglingLink = errors.New("dangling link")

	// ErrIncompatibleLink is returned by [Graph.Validate] when a link is not
	// keyed by an Input fed by an Output of the same pin kind.
	ErrIncompatibleLink = errors.New("incompatible link")
)

// Validate checks the structural invariants of the graph: every node
// attribute is in the arena with a matching owner, every arena entry is owned,
// and every link joins an Input key to a compatible Output value.
//
// Mutation through Graph methods keeps these invariants; Validate exists for
// tests and for graphs rebuilt from external input.
func (g *Graph) Validate() error {
	owned := make(map[ID]bool, len(g.attrs))
	for _, id := range slices.Sorted(maps.Keys(g.nodes)) {
		n := g.nodes[id]
		for _, aid := range n.attrs {
			a, ok := g.attrs[aid]
			if !ok {
				return fmt.Errorf("%w: node %d lists missing attribute %d", ErrDanglingAttribute, id, aid)
			}
			if a.NodeID != id {
				return fmt.Errorf("%w: attribute %d owned by %d, listed by %d", ErrDanglingAttribute, aid, a.NodeID, id)
			}
			owned[aid] = true
		}
	}
	for aid := range g.attrs {
		if !owned[aid] {
			return fmt.Errorf("%w: attribute %d has no owner", ErrDanglingAttribute, aid)
		}
	}
	for _, in := range slices.Sorted(maps.Keys(g.links)) {
		out := g.links[in]
		ia, okIn := g.attrs[in]
		oa, okOut := g.attrs[out]
		if !okIn || !okOut {
			return fmt.Errorf("%w: %d -> %d", ErrDanglingLink, in, out)
		}
		if ia.Kind != Input || oa.Kind != Output || ia.Pin != oa.Pin {
			return fmt.Errorf("%w: %d -> %d", ErrIncompatibleLink, in, out)
		}
	}
	return nil
}
