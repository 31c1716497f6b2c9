package server

import (
	"bytes"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nodeplot/pkg/engine"
	errs "github.com/matzehuels/nodeplot/pkg/errors"
	"github.com/matzehuels/nodeplot/pkg/feedback"
	"github.com/matzehuels/nodeplot/pkg/globals"
	"github.com/matzehuels/nodeplot/pkg/graph"
	"github.com/matzehuels/nodeplot/pkg/lower"
	"github.com/matzehuels/nodeplot/pkg/render"
	"github.com/matzehuels/nodeplot/pkg/scene"
)

// =============================================================================
// Views
// =============================================================================

// NodeView is the JSON form of a node and its attributes.
type NodeView struct {
	ID         graph.ID        `json:"id"`
	Type       string          `json:"type"`
	Name       string          `json:"name"`
	Status     string          `json:"status"`
	Message    string          `json:"message,omitempty"`
	Position   graph.Position  `json:"position"`
	Attributes []AttributeView `json:"attributes"`
}

// AttributeView is the JSON form of an attribute. Link is set on connected inputs.
type AttributeView struct {
	ID    graph.ID  `json:"id"`
	Kind  string    `json:"kind"`
	Pin   string    `json:"pin,omitempty"`
	Label string    `json:"label"`
	Value any       `json:"value,omitempty"`
	Link  *graph.ID `json:"link,omitempty"`
}

// LinkView is one entry of the link table.
type LinkView struct {
	Input  graph.ID `json:"input"`
	Output graph.ID `json:"output"`
}

func nodeView(g *graph.Graph, n *graph.Node) NodeView {
	pos, _ := g.Position(n.ID)
	v := NodeView{
		ID:       n.ID,
		Type:     n.Type.String(),
		Name:     n.Name,
		Status:   n.Status().String(),
		Message:  n.Message(),
		Position: pos,
	}
	for _, a := range g.Attributes(n.ID) {
		av := AttributeView{ID: a.ID, Kind: a.Kind.String(), Label: a.Label}
		if a.IsPin() {
			av.Pin = a.Pin.String()
		}
		if a.Payload != nil {
			av.Value = a.Payload.Literal()
		}
		if out, ok := g.LinkedOutput(a.ID); ok {
			av.Link = &out
		}
		v.Attributes = append(v.Attributes, av)
	}
	return v
}

func pathID(r *http.Request, param string) (graph.ID, error) {
	n, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil {
		return 0, errs.New(errs.ErrCodeInvalidInput, "%s must be an integer id", param)
	}
	return graph.ID(n), nil
}

// =============================================================================
// Nodes
// =============================================================================

func (s *Server) handleListNodes(w http.ResponseWriter, _ *http.Request) {
	var views []NodeView
	s.withGraph(func(g *graph.Graph) {
		views = make([]NodeView, 0, g.NodeCount())
		for _, n := range g.Nodes() {
			views = append(views, nodeView(g, n))
		}
	})
	respondJSON(w, http.StatusOK, views)
}

type addNodeRequest struct {
	Type string  `json:"type" validate:"required"`
	Name string  `json:"name" validate:"omitempty,max=64"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	typ, err := graph.ParseNodeType(req.Type)
	if err != nil {
		respondError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "add node"))
		return
	}

	var (
		view  NodeView
		opErr error
	)
	s.withGraph(func(g *graph.Graph) {
		id, err := g.AddPrefab(typ, graph.Position{X: req.X, Y: req.Y})
		if err != nil {
			opErr = classify(err, errs.ErrCodeInvalidInput)
			return
		}
		if req.Name != "" {
			if _, err := g.RenameNode(id, req.Name); err != nil {
				g.RemoveNode(id)
				opErr = err
				return
			}
		}
		n, _ := g.Node(id)
		view = nodeView(g, n)
	})
	if opErr != nil {
		respondError(w, opErr)
		return
	}
	s.logger.Debug("node added", "id", view.ID, "type", view.Type)
	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var (
		view  NodeView
		found bool
	)
	s.withGraph(func(g *graph.Graph) {
		if n, ok := g.Node(id); ok {
			view, found = nodeView(g, n), true
		}
	})
	if !found {
		respondError(w, errs.New(errs.ErrCodeNotFound, "node %d not found", id))
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type updateNodeRequest struct {
	Name     *string         `json:"name"`
	Position *graph.Position `json:"position"`
	Fields   map[string]any  `json:"fields"`
}

// handleUpdateNode renames, moves, and edits static fields of one node. All
// changes are checked against the node before any is applied.
func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req updateNodeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Name != nil {
		if err := errs.ValidateNodeName(*req.Name); err != nil {
			respondError(w, err)
			return
		}
	}

	var (
		view  NodeView
		opErr error
	)
	s.withGraph(func(g *graph.Graph) {
		n, ok := g.Node(id)
		if !ok {
			opErr = errs.New(errs.ErrCodeNotFound, "node %d not found", id)
			return
		}
		labels := slices.Sorted(maps.Keys(req.Fields))
		for _, label := range labels {
			if _, ok := g.FindAttribute(id, graph.Static, label); !ok {
				opErr = errs.New(errs.ErrCodeNotFound, "node %d has no field %q", id, label)
				return
			}
			if _, err := scene.CheckField(g, id, label, req.Fields[label]); err != nil {
				opErr = errs.Wrap(errs.ErrCodeInvalidInput, err, "field %q", label)
				return
			}
		}
		if req.Name != nil {
			_, _ = g.RenameNode(id, *req.Name)
		}
		if req.Position != nil {
			g.SetPosition(id, *req.Position)
		}
		for _, label := range labels {
			if err := scene.SetField(g, id, label, req.Fields[label]); err != nil {
				opErr = classify(err, errs.ErrCodeInvalidInput)
				return
			}
		}
		view = nodeView(g, n)
	})
	if opErr != nil {
		respondError(w, opErr)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var removed bool
	s.withGraph(func(g *graph.Graph) { removed = g.RemoveNode(id) })
	if !removed {
		respondError(w, errs.New(errs.ErrCodeNotFound, "node %d not found", id))
		return
	}
	s.logger.Debug("node removed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Links
// =============================================================================

func (s *Server) handleListLinks(w http.ResponseWriter, _ *http.Request) {
	var views []LinkView
	s.withGraph(func(g *graph.Graph) {
		links := g.Links()
		views = make([]LinkView, 0, len(links))
		for _, in := range slices.Sorted(maps.Keys(links)) {
			views = append(views, LinkView{Input: in, Output: links[in]})
		}
	})
	respondJSON(w, http.StatusOK, views)
}

type createLinkRequest struct {
	A graph.ID `json:"a" validate:"gt=0"`
	B graph.ID `json:"b" validate:"gt=0"`
}

// handleCreateLink links two attributes given in either order. A link already
// on the input is replaced.
func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	var (
		created bool
		view    LinkView
	)
	s.withGraph(func(g *graph.Graph) {
		if !g.TryCreateLink(req.A, req.B) {
			return
		}
		created = true
		for _, in := range []graph.ID{req.A, req.B} {
			if out, ok := g.LinkedOutput(in); ok {
				view = LinkView{Input: in, Output: out}
			}
		}
	})
	if !created {
		respondError(w, errs.New(errs.ErrCodeInvalidInput, "attributes %d and %d cannot be linked", req.A, req.B))
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleDestroyLink(w http.ResponseWriter, r *http.Request) {
	in, err := pathID(r, "input")
	if err != nil {
		respondError(w, err)
		return
	}
	s.withGraph(func(g *graph.Graph) { g.DestroyLink(in) })
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Globals
// =============================================================================

func (s *Server) handleListGlobals(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	vars := s.globals.Snapshot()
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, vars)
}

type putGlobalRequest struct {
	Value float64 `json:"value"`
}

// handlePutGlobal sets a variable's value, declaring it first if needed.
func (s *Server) handlePutGlobal(w http.ResponseWriter, r *http.Request) {
	var req putGlobalRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	name, err := globals.ValidateName(chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, err)
		return
	}

	s.mu.Lock()
	status := http.StatusOK
	if _, ok := s.globals.Get(name); ok {
		err = s.globals.SetValue(name, req.Value)
	} else {
		err = s.globals.Add(name, req.Value)
		status = http.StatusCreated
	}
	s.mu.Unlock()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, status, globals.Variable{Name: name, Value: req.Value})
}

func (s *Server) handleDeleteGlobal(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	removed := s.globals.Remove(name)
	s.mu.Unlock()
	if !removed {
		respondError(w, errs.New(errs.ErrCodeNotFound, "global %q not found", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Documents and feedback
// =============================================================================

// handleDocument lowers the graph without registering a request.
func (s *Server) handleDocument(w http.ResponseWriter, _ *http.Request) {
	var (
		doc *lower.Document
		err error
	)
	s.withGraph(func(g *graph.Graph) {
		doc, err = lower.Lower(g, lower.Options{Globals: s.globals, Logger: s.logger})
	})
	if err != nil {
		respondError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := lower.WriteJSON(doc, &buf); err != nil {
		respondError(w, errs.Wrap(errs.ErrCodeInternal, err, "encode document"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

// handleSubmit registers a new request for an external engine to answer via
// POST /feedback. Earlier requests become stale.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var (
		req *engine.Request
		err error
	)
	s.withGraph(func(*graph.Graph) { req, err = s.exchange.Submit(r.Context()) })
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(engine.HeaderRequestID, req.ID)
	w.Header().Set(engine.HeaderDocumentHash, req.Hash)
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(req.Body)
}

// SummaryResponse reports an applied feedback batch.
type SummaryResponse struct {
	RequestID string `json:"request_id"`
	Errors    int    `json:"errors"`
	Warnings  int    `json:"warnings"`
	Dropped   int    `json:"dropped"`
}

// handleFeedback applies a batch answering the request named in the
// X-Request-ID header.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(engine.HeaderRequestID)
	if id == "" {
		respondError(w, errs.New(errs.ErrCodeInvalidInput, "missing %s header", engine.HeaderRequestID))
		return
	}
	batch, err := feedback.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, err)
		return
	}

	var sum feedback.Summary
	s.withGraph(func(*graph.Graph) { sum, err = s.exchange.Deliver(r.Context(), id, batch) })
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, SummaryResponse{RequestID: id, Errors: sum.Errors, Warnings: sum.Warnings, Dropped: sum.Dropped})
}

// handleEvaluate runs one full round trip against the configured engine.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		respondError(w, errs.New(errs.ErrCodeEngine, "no compute engine configured"))
		return
	}

	var (
		x   *engine.Exchange
		req *engine.Request
		err error
	)
	s.withGraph(func(*graph.Graph) {
		x = s.exchange
		req, err = x.Submit(r.Context())
	})
	if err != nil {
		respondError(w, err)
		return
	}

	batch, err := x.Evaluate(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	var sum feedback.Summary
	s.withGraph(func(*graph.Graph) {
		if s.exchange != x {
			err = errs.New(errs.ErrCodeStale, "graph was replaced during evaluation")
			return
		}
		sum, err = x.Deliver(r.Context(), req.ID, batch)
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, SummaryResponse{RequestID: req.ID, Errors: sum.Errors, Warnings: sum.Warnings, Dropped: sum.Dropped})
}

// =============================================================================
// Diagrams and scenes
// =============================================================================

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	opts := render.Options{Detailed: r.URL.Query().Get("detailed") == "true"}
	var dot string
	s.withGraph(func(g *graph.Graph) { dot = render.ToDOT(g, opts) })

	if r.URL.Query().Get("format") == "svg" {
		svg, err := render.RenderSVG(r.Context(), dot)
		if err != nil {
			respondError(w, errs.Wrap(errs.ErrCodeInternal, err, "render svg"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(dot))
}

func sceneFormat(r *http.Request) (scene.Format, error) {
	switch f := strings.ToLower(r.URL.Query().Get("format")); f {
	case "", "toml":
		return scene.FormatTOML, nil
	case "yaml", "yml":
		return scene.FormatYAML, nil
	default:
		return "", errs.New(errs.ErrCodeInvalidInput, "unknown scene format %q", f)
	}
}

// handleGetScene captures the live graph as a scene script.
func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	format, err := sceneFormat(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var data []byte
	s.withGraph(func(g *graph.Graph) {
		data, err = scene.Marshal(scene.Capture(g, s.globals), format)
	})
	if err != nil {
		respondError(w, errs.Wrap(errs.ErrCodeInternal, err, "encode scene"))
		return
	}
	w.Header().Set("Content-Type", "application/"+string(format))
	_, _ = w.Write(data)
}

// handlePutScene replaces the live graph and globals with a built script.
// Pending requests against the old graph become stale.
func (s *Server) handlePutScene(w http.ResponseWriter, r *http.Request) {
	format, err := sceneFormat(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, maxBodyBytes)); err != nil {
		respondError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "read scene"))
		return
	}
	script, err := scene.Parse(buf.Bytes(), format)
	if err != nil {
		respondError(w, err)
		return
	}
	sc, err := script.Build(s.logger)
	if err != nil {
		respondError(w, err)
		return
	}

	s.withGraph(func(*graph.Graph) {
		s.graph = sc.Graph
		s.globals = sc.Globals
		s.exchange = engine.NewExchange(sc.Graph, sc.Globals, s.engine, s.logger)
	})
	s.logger.Info("scene loaded", "nodes", sc.Graph.NodeCount(), "links", sc.Graph.LinkCount())
	respondJSON(w, http.StatusOK, sc.Keys)
}
