// Package feedback applies compute engine validation results to a graph.
//
// The engine answers a lowered document with a batch of records, one per node
// it has something to say about. A batch replaces all previous marks: [Apply]
// clears every node first, then applies the records in order. Records naming
// nodes that no longer exist are counted and skipped.
package feedback

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	errs "github.com/matzehuels/nodeplot/pkg/errors"
	"github.com/matzehuels/nodeplot/pkg/graph"
)

var validate = validator.New()

// Record is one engine result for one node.
type Record struct {
	NodeID    graph.ID `json:"node_id" validate:"gte=0"`
	IsWarning bool     `json:"is_warning"`
	Message   string   `json:"message" validate:"max=4096"`
}

// Summary counts what [Apply] did with a batch.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Dropped  int `json:"dropped"`
}

// Decode reads a JSON array of records from r.
func Decode(r io.Reader) ([]Record, error) {
	var batch []Record
	dec := json.NewDecoder(r)
	if err := dec.Decode(&batch); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode feedback")
	}
	if err := Validate(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// Validate checks every record of a batch.
func Validate(batch []Record) error {
	for i := range batch {
		if err := validate.Struct(&batch[i]); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "feedback record %d", i)
		}
	}
	return nil
}

// Apply clears all marks on g and then marks each record's node as an error,
// or a warning when IsWarning is set. Later records for the same node win.
func Apply(g *graph.Graph, batch []Record) Summary {
	g.ClearAllMarks()
	var s Summary
	for _, r := range batch {
		var ok bool
		if r.IsWarning {
			ok = g.MarkWarning(r.NodeID, r.Message)
		} else {
			ok = g.MarkError(r.NodeID, r.Message)
		}
		switch {
		case !ok:
			s.Dropped++
		case r.IsWarning:
			s.Warnings++
		default:
			s.Errors++
		}
	}
	return s
}

// String renders the summary for log lines.
func (s Summary) String() string {
	return fmt.Sprintf("%d errors, %d warnings, %d dropped", s.Errors, s.Warnings, s.Dropped)
}
