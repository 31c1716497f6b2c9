package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeplot/pkg/render"
)

// dotCommand creates the dot command.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		output   string
		svg      bool
		detailed bool
		results  string
	)

	cmd := &cobra.Command{
		Use:   "dot [scene]",
		Short: "Export a scene's node graph as Graphviz DOT or SVG",
		Long: `Export a scene's node graph as a Graphviz diagram. Nodes are colored by
status; pass --results to apply saved engine results first.

SVG output is selected with --svg or an .svg output file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.EqualFold(filepath.Ext(output), ".svg") {
				svg = true
			}
			return c.runDOT(cmd.Context(), args[0], output, results, svg, render.Options{Detailed: detailed})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&svg, "svg", false, "render SVG instead of DOT")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "list static fields in node labels")
	cmd.Flags().StringVar(&results, "results", "", "engine results to apply before export")

	return cmd
}

func (c *CLI) runDOT(ctx context.Context, input, output, results string, svg bool, opts render.Options) error {
	sc, _, err := c.loadScene(input)
	if err != nil {
		return err
	}
	if results != "" {
		summary, err := applyResults(sc.Graph, results)
		if err != nil {
			return err
		}
		c.Logger.Debug("results applied", "summary", summary.String())
	}

	data := []byte(render.ToDOT(sc.Graph, opts))
	if svg {
		if data, err = render.RenderSVG(ctx, string(data)); err != nil {
			return err
		}
	}
	if err := writeOutput(output, data); err != nil {
		return err
	}
	if output != "" {
		printFile(output)
	}
	return nil
}
