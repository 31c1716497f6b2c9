package engine

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	errs "github.com/matzehuels/nodeplot/pkg/errors"
	"github.com/matzehuels/nodeplot/pkg/feedback"
)

// DefaultTimeout bounds one evaluation round trip.
const DefaultTimeout = 30 * time.Second

// Header names sent with every evaluation request.
const (
	HeaderRequestID    = "X-Request-ID"
	HeaderDocumentHash = "X-Document-Hash"
)

// HTTPEngine posts documents to a compute engine over HTTP. The engine
// answers 2xx with a JSON array of feedback records.
type HTTPEngine struct {
	url    string
	client *http.Client
}

// NewHTTPEngine validates url and returns an engine posting to it. A zero
// timeout uses [DefaultTimeout].
func NewHTTPEngine(url string, timeout time.Duration) (*HTTPEngine, error) {
	if err := errs.ValidateURL(url); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPEngine{url: url, client: &http.Client{Timeout: timeout}}, nil
}

// Evaluate posts req.Body and decodes the feedback batch.
func (e *HTTPEngine) Evaluate(ctx context.Context, req *Request) ([]feedback.Record, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(req.Body))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeEngine, err, "build request")
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set(HeaderRequestID, req.ID)
	hreq.Header.Set(HeaderDocumentHash, req.Hash)

	resp, err := e.client.Do(hreq)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeEngine, err, "post to compute engine")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errs.New(errs.ErrCodeEngine, "compute engine returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	batch, err := feedback.Decode(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeEngine, err, "read engine response")
	}
	return batch, nil
}
