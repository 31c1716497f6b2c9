package engine

import (
	"context"

	"github.com/matzehuels/nodeplot/pkg/feedback"
	"github.com/matzehuels/nodeplot/pkg/lower"
)

// Request is one document sent to the compute engine.
type Request struct {
	// ID identifies the request. Results are delivered against it.
	ID string
	// Hash is the SHA-256 of Body.
	Hash string
	// Document is the lowered graph.
	Document *lower.Document
	// Body is the compact JSON encoding of Document.
	Body []byte
}

// Engine evaluates lowered documents.
type Engine interface {
	Evaluate(ctx context.Context, req *Request) ([]feedback.Record, error)
}

// Func adapts a function to [Engine].
type Func func(ctx context.Context, req *Request) ([]feedback.Record, error)

// Evaluate calls f.
func (f Func) Evaluate(ctx context.Context, req *Request) ([]feedback.Record, error) {
	return f(ctx, req)
}
