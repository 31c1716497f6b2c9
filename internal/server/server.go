// Package server exposes a live node graph over HTTP.
//
// The server owns one graph, its global variables, and an engine exchange.
// Every handler that touches the graph holds the server lock; the compute
// engine round trip in POST /evaluate runs outside it so edits stay
// responsive while the engine works.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/nodeplot/pkg/buildinfo"
	"github.com/matzehuels/nodeplot/pkg/engine"
	errs "github.com/matzehuels/nodeplot/pkg/errors"
	"github.com/matzehuels/nodeplot/pkg/globals"
	"github.com/matzehuels/nodeplot/pkg/graph"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// Options configures a Server.
type Options struct {
	// Engine evaluates documents for POST /evaluate. Nil disables the route's
	// engine call; documents can still be pulled and answered through
	// POST /requests and POST /feedback.
	Engine engine.Engine
	// Metrics receives request metrics and is served at /metrics. Nil disables both.
	Metrics *Metrics
	// Logger defaults to a discard logger.
	Logger *log.Logger
}

// Server serves one graph.
type Server struct {
	mu       sync.Mutex
	graph    *graph.Graph
	globals  *globals.Set
	exchange *engine.Exchange

	engine  engine.Engine
	metrics *Metrics
	logger  *log.Logger
	router  chi.Router
}

// New creates a server for g. A nil g starts from an empty graph and a nil
// vars from an empty variable set.
func New(g *graph.Graph, vars *globals.Set, opts Options) *Server {
	if g == nil {
		g = graph.New()
	}
	if vars == nil {
		vars = &globals.Set{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		graph:   g,
		globals: vars,
		engine:  opts.Engine,
		metrics: opts.Metrics,
		logger:  logger,
	}
	s.exchange = engine.NewExchange(g, vars, opts.Engine, logger)
	s.router = s.routes()
	if s.metrics != nil {
		s.metrics.RecordGraphSize(g.NodeCount(), g.LinkCount())
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/nodes", func(r chi.Router) {
		r.Get("/", s.handleListNodes)
		r.Post("/", s.handleAddNode)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetNode)
			r.Patch("/", s.handleUpdateNode)
			r.Delete("/", s.handleRemoveNode)
		})
	})

	r.Route("/links", func(r chi.Router) {
		r.Get("/", s.handleListLinks)
		r.Post("/", s.handleCreateLink)
		r.Delete("/{input}", s.handleDestroyLink)
	})

	r.Route("/globals", func(r chi.Router) {
		r.Get("/", s.handleListGlobals)
		r.Put("/{name}", s.handlePutGlobal)
		r.Delete("/{name}", s.handleDeleteGlobal)
	})

	r.Get("/document", s.handleDocument)
	r.Post("/requests", s.handleSubmit)
	r.Post("/feedback", s.handleFeedback)
	r.Post("/evaluate", s.handleEvaluate)

	r.Get("/dot", s.handleDOT)
	r.Get("/scene", s.handleGetScene)
	r.Put("/scene", s.handlePutScene)

	return r
}

// observe records request metrics under the matched route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "took", time.Since(start))
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		}
	})
}

// withGraph runs fn under the server lock and refreshes the graph gauges.
func (s *Server) withGraph(fn func(g *graph.Graph)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.graph)
	if s.metrics != nil {
		s.metrics.RecordGraphSize(s.graph.NodeCount(), s.graph.LinkCount())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	msg := errs.UserMessage(err)
	var e *errs.Error
	if errors.As(err, &e) && e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	respondJSON(w, errs.HTTPStatus(err), ErrorResponse{Error: string(code), Message: msg})
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request body")
	}
	if err := validate.Struct(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request")
	}
	return nil
}

// classify attaches a code to graph errors. Lookups that miss are NOT_FOUND;
// anything else uncoded becomes fallback.
func classify(err error, fallback errs.Code) error {
	if err == nil || errs.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, graph.ErrUnknownNode), errors.Is(err, graph.ErrUnknownAttribute):
		return errs.Wrap(errs.ErrCodeNotFound, err, "lookup failed")
	default:
		return errs.Wrap(fallback, err, "request rejected")
	}
}
