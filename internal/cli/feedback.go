package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeplot/pkg/feedback"
	"github.com/matzehuels/nodeplot/pkg/graph"
)

// feedbackCommand creates the feedback command.
func (c *CLI) feedbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "feedback [scene] [results.json]",
		Short: "Apply saved engine results to a scene",
		Long: `Apply a saved batch of engine validation results to a scene and show the
resulting node statuses. Use "-" to read the results from stdin.

Results are a JSON array of {"node_id", "is_warning", "message"} records.
Records naming nodes the scene does not have are counted as dropped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, err := c.loadScene(args[0])
			if err != nil {
				return err
			}
			summary, err := applyResults(sc.Graph, args[1])
			if err != nil {
				return err
			}
			printSummary(summary)
			printStatuses(sc.Graph)
			return nil
		},
	}
}

// applyResults decodes a feedback batch from path ("-" for stdin) and
// applies it to g.
func applyResults(g *graph.Graph, path string) (feedback.Summary, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return feedback.Summary{}, err
		}
		defer f.Close()
		r = f
	}
	batch, err := feedback.Decode(r)
	if err != nil {
		return feedback.Summary{}, err
	}
	return feedback.Apply(g, batch), nil
}
