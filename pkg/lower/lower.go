package lower

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/nodeplot/pkg/errors"
	"github.com/matzehuels/nodeplot/pkg/globals"
	"github.com/matzehuels/nodeplot/pkg/graph"
)

// ErrCycle is returned by [Lower] when links form a loop. The returned error
// wraps a [*CycleError] and carries the CYCLE error code.
var ErrCycle = errors.New("graph contains a cycle")

// CycleError describes the loop found during lowering.
type CycleError struct {
	// NodeID is the node reached a second time while still in progress.
	NodeID graph.ID
	// Path lists the nodes on the loop, starting and ending with NodeID.
	Path []graph.ID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("cycle at node %d: %s", e.NodeID, strings.Join(parts, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// Options configures [Lower].
type Options struct {
	// Globals supplies global_names and global_init_values. Nil yields empty arrays.
	Globals *globals.Set
	// Logger receives unconnected-input warnings. Nil discards them.
	Logger *log.Logger
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	emitted
)

type lowering struct {
	g       *graph.Graph
	logger  *log.Logger
	state   map[graph.ID]visitState
	stack   []graph.ID
	flagged map[graph.ID]bool
	doc     *Document
}

// Lower produces the descriptor document for g. It does not modify g.
func Lower(g *graph.Graph, opts Options) (*Document, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	l := &lowering{
		g:       g,
		logger:  logger,
		state:   make(map[graph.ID]visitState),
		flagged: make(map[graph.ID]bool),
		doc: &Document{
			GlobalNames:      opts.Globals.Names(),
			GlobalInitValues: opts.Globals.Values(),
			Descriptors:      []Descriptor{},
		},
	}

	for _, root := range g.Roots() {
		linked := false
		for _, a := range g.Attributes(root.ID) {
			if a.Kind != graph.Input {
				continue
			}
			dep, ok := g.FindLinkedNode(a.ID)
			if !ok {
				l.flag(root.ID)
				continue
			}
			linked = true
			if err := l.visit(dep); err != nil {
				return nil, err
			}
		}
		if !linked {
			logger.Warn("unconnected", "node", root.ID, "name", root.Name)
		}
	}
	return l.doc, nil
}

func (l *lowering) flag(id graph.ID) {
	if !l.flagged[id] {
		l.flagged[id] = true
		l.doc.Unconnected = append(l.doc.Unconnected, id)
	}
}

func (l *lowering) visit(id graph.ID) error {
	switch l.state[id] {
	case emitted:
		return nil
	case inProgress:
		return l.cycle(id)
	}

	n, ok := l.g.Node(id)
	if !ok {
		return errs.New(errs.ErrCodeInternal, "link refers to missing node %d", id)
	}
	l.state[id] = inProgress
	l.stack = append(l.stack, id)

	d := Descriptor{ID: id, Type: n.Type.String()}
	for _, a := range l.g.Attributes(id) {
		switch a.Kind {
		case graph.Input:
			f := Field{Name: a.Label, Input: true}
			if dep, ok := l.g.FindLinkedNode(a.ID); ok {
				if err := l.visit(dep); err != nil {
					return err
				}
				f.Dep = &dep
			} else {
				l.logger.Warn("unconnected input", "node", id, "input", a.Label)
				l.flag(id)
			}
			d.Fields = append(d.Fields, f)
		case graph.Static:
			d.Fields = append(d.Fields, Field{Name: a.Label, Value: a.Payload.Literal()})
		}
	}

	l.stack = l.stack[:len(l.stack)-1]
	l.state[id] = emitted
	l.doc.Descriptors = append(l.doc.Descriptors, d)
	return nil
}

func (l *lowering) cycle(id graph.ID) error {
	start := len(l.stack) - 1
	for start > 0 && l.stack[start] != id {
		start--
	}
	path := append(append([]graph.ID(nil), l.stack[start:]...), id)
	ce := &CycleError{NodeID: id, Path: path}
	return errs.Wrap(errs.ErrCodeCycle, ce, "cannot lower graph")
}
