package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nodeplot/pkg/cache"
	"github.com/matzehuels/nodeplot/pkg/lower"
)

// lowerResult is the outcome for one scene file.
type lowerResult struct {
	input       string
	output      string
	data        []byte
	nodes       int
	links       int
	unconnected int
	cached      bool
}

// lowerCommand creates the lower command.
func (c *CLI) lowerCommand() *cobra.Command {
	var (
		output  string
		indent  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "lower [scene...]",
		Short: "Lower scene scripts into engine documents",
		Long: `Lower scene scripts into the JSON documents a compute engine evaluates.

With one scene the document goes to stdout, or to --output. With several
scenes each document is written next to its scene as <name>.json, or into
the --output directory. Scenes are processed concurrently.

Documents are cached by scene content; use --no-cache to always lower.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("indent") {
				indent = c.Config.Output.Indent
			}
			return c.runLower(cmd.Context(), args, output, indent, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (one scene) or directory (several)")
	cmd.Flags().StringVar(&indent, "indent", "  ", "JSON indent; empty for compact output")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runLower(ctx context.Context, inputs []string, output, indent string, noCache bool) error {
	prog := newProgress(c.Logger)
	store := c.newCache(noCache)
	defer store.Close()
	docs := cache.NewDocuments(store, c.Config.Cache.TTL)
	format := "json" + indent

	results := make([]lowerResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelScenes)
	for i, input := range inputs {
		g.Go(func() error {
			res, err := c.lowerScene(ctx, docs, input, format, indent)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			res.output = outputPath(output, input, len(inputs))
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		if err := writeOutput(res.output, res.data); err != nil {
			return err
		}
		if res.output == "" {
			continue
		}
		printFile(res.output)
		printStats(res.nodes, res.links, res.cached)
		if res.unconnected > 0 {
			printWarning("%d nodes with unconnected inputs", res.unconnected)
		}
	}
	prog.done(fmt.Sprintf("Lowered %d scene(s)", len(inputs)))
	return nil
}

// lowerScene builds one scene on its own graph and encodes its document.
func (c *CLI) lowerScene(ctx context.Context, docs *cache.Documents, input, format, indent string) (lowerResult, error) {
	res := lowerResult{input: input}

	source, err := os.ReadFile(input)
	if err != nil {
		return res, err
	}
	if e, ok := docs.Lookup(ctx, source, format); ok {
		c.Logger.Debug("document cache hit", "scene", input)
		res.data, res.cached = e.Document, true
		res.nodes, res.links, res.unconnected = e.Nodes, e.Links, e.Unconnected
		return res, nil
	}

	sc, _, err := c.loadScene(input)
	if err != nil {
		return res, err
	}
	doc, err := lower.Lower(sc.Graph, lower.Options{Globals: sc.Globals, Logger: c.Logger.With("scene", input)})
	if err != nil {
		return res, err
	}

	var buf bytes.Buffer
	if err := lower.Encode(doc, &buf, indent); err != nil {
		return res, err
	}
	res.data = buf.Bytes()
	res.nodes = sc.Graph.NodeCount()
	res.links = sc.Graph.LinkCount()
	res.unconnected = len(doc.Unconnected)

	entry := cache.Entry{Document: res.data, Nodes: res.nodes, Links: res.links, Unconnected: res.unconnected}
	if err := docs.Store(ctx, source, format, entry); err != nil {
		c.Logger.Warn("cache write failed", "scene", input, "err", err)
	}
	return res, nil
}

// outputPath picks where one scene's document goes. A single scene uses
// output as given ("" is stdout); several scenes treat output as a directory.
func outputPath(output, input string, count int) string {
	if count == 1 {
		return output
	}
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".json"
	if output == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	return filepath.Join(output, name)
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); path != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}
