package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/nodeplot/pkg/cache"
	errs "github.com/matzehuels/nodeplot/pkg/errors"
	"github.com/matzehuels/nodeplot/pkg/feedback"
	"github.com/matzehuels/nodeplot/pkg/globals"
	"github.com/matzehuels/nodeplot/pkg/graph"
	"github.com/matzehuels/nodeplot/pkg/lower"
	"github.com/matzehuels/nodeplot/pkg/observability"
)

// Exchange pairs a graph with an engine and tracks which request is current.
//
// Submit and Deliver read and mutate the graph; callers must serialize them
// with any other graph access. The engine call in between needs no lock.
type Exchange struct {
	graph   *graph.Graph
	globals *globals.Set
	engine  Engine
	logger  *log.Logger

	mu     sync.Mutex
	latest *Request
}

// NewExchange creates an exchange. A nil logger discards output.
func NewExchange(g *graph.Graph, vars *globals.Set, eng Engine, logger *log.Logger) *Exchange {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Exchange{graph: g, globals: vars, engine: eng, logger: logger}
}

// Submit lowers the graph into a new request, which becomes the latest.
//
// When lowering fails, there is no latest request until the next successful
// Submit, so batches for earlier requests are stale. On a cycle the marks are
// cleared and the node closing the cycle is marked as an error, the same way
// an engine would report it.
func (x *Exchange) Submit(ctx context.Context) (*Request, error) {
	hooks := observability.Lowering()
	hooks.OnLowerStart(ctx, len(x.graph.Roots()))
	start := time.Now()

	doc, err := lower.Lower(x.graph, lower.Options{Globals: x.globals, Logger: x.logger})
	if err != nil {
		hooks.OnLowerComplete(ctx, 0, 0, time.Since(start), err)
		x.mu.Lock()
		x.latest = nil
		x.mu.Unlock()
		var ce *lower.CycleError
		if errors.As(err, &ce) {
			x.graph.ClearAllMarks()
			x.graph.MarkError(ce.NodeID, "cycle detected")
		}
		return nil, err
	}
	hooks.OnLowerComplete(ctx, len(doc.Descriptors), len(doc.Unconnected), time.Since(start), nil)

	body, err := lower.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode document")
	}
	req := &Request{
		ID:       uuid.NewString(),
		Hash:     cache.Hash(body),
		Document: doc,
		Body:     body,
	}

	x.mu.Lock()
	x.latest = req
	x.mu.Unlock()

	x.logger.Debug("submitted", "request", req.ID, "descriptors", len(doc.Descriptors), "bytes", len(body))
	return req, nil
}

// Latest returns the most recently submitted request, or nil.
func (x *Exchange) Latest() *Request {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.latest
}

// Deliver applies a result batch if it answers the latest request. Batches for
// superseded requests are dropped with an ENGINE_STALE_RESULT error and leave
// the graph untouched.
func (x *Exchange) Deliver(ctx context.Context, requestID string, batch []feedback.Record) (feedback.Summary, error) {
	x.mu.Lock()
	current := x.latest != nil && x.latest.ID == requestID
	x.mu.Unlock()
	if !current {
		observability.Feedback().OnStaleBatch(ctx, requestID)
		x.logger.Debug("stale results dropped", "request", requestID)
		return feedback.Summary{}, errs.New(errs.ErrCodeStale, "results for request %s are stale", requestID)
	}

	s := feedback.Apply(x.graph, batch)
	observability.Feedback().OnFeedbackApplied(ctx, s.Errors, s.Warnings, s.Dropped)
	if s.Dropped > 0 {
		x.logger.Debug("feedback for removed nodes ignored", "count", s.Dropped)
	}
	return s, nil
}

// Evaluate sends req to the engine and reports the round trip to the engine hooks.
func (x *Exchange) Evaluate(ctx context.Context, req *Request) ([]feedback.Record, error) {
	if x.engine == nil {
		return nil, errs.New(errs.ErrCodeEngine, "no compute engine configured")
	}
	hooks := observability.Engine()
	hooks.OnRequest(ctx, req.ID, len(req.Body))
	start := time.Now()

	batch, err := x.engine.Evaluate(ctx, req)
	if err != nil {
		hooks.OnError(ctx, req.ID, err)
		if errs.GetCode(err) == "" {
			err = errs.Wrap(errs.ErrCodeEngine, err, "evaluate request %s", req.ID)
		}
		return nil, err
	}
	hooks.OnResponse(ctx, req.ID, len(batch), time.Since(start))
	return batch, nil
}

// Run submits the current graph, waits for the engine, and delivers the
// results. The graph must not be mutated concurrently.
func (x *Exchange) Run(ctx context.Context) (feedback.Summary, error) {
	req, err := x.Submit(ctx)
	if err != nil {
		return feedback.Summary{}, err
	}
	batch, err := x.Evaluate(ctx, req)
	if err != nil {
		return feedback.Summary{}, err
	}
	s, err := x.Deliver(ctx, req.ID, batch)
	if err != nil {
		return s, fmt.Errorf("deliver: %w", err)
	}
	return s, nil
}
