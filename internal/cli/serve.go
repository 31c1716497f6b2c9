package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeplot/internal/server"
	"github.com/matzehuels/nodeplot/pkg/engine"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		engineURL string
		timeout   time.Duration
		noEngine  bool
	)

	cmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "Serve a live node graph over HTTP",
		Long: `Serve a node graph over HTTP, starting from a scene or an empty graph.

The API edits nodes, links and globals, lowers documents, accepts engine
results, and exports DOT and scene snapshots. Prometheus metrics are served
at /metrics.

Routes:
  GET    /healthz
  GET    /nodes              POST /nodes
  GET    /nodes/{id}         PATCH /nodes/{id}     DELETE /nodes/{id}
  GET    /links              POST /links           DELETE /links/{input}
  GET    /globals            PUT /globals/{name}   DELETE /globals/{name}
  GET    /document           POST /requests        POST /feedback
  POST   /evaluate
  GET    /dot                GET /scene            PUT /scene`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			if !cmd.Flags().Changed("engine") {
				engineURL = c.Config.Engine.URL
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = c.Config.Engine.Timeout
			}
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			if noEngine {
				engineURL = ""
			}
			return c.runServe(cmd.Context(), input, addr, engineURL, timeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.Flags().StringVar(&engineURL, "engine", "", "compute engine URL for POST /evaluate")
	cmd.Flags().DurationVar(&timeout, "timeout", engine.DefaultTimeout, "engine round trip timeout")
	cmd.Flags().BoolVar(&noEngine, "no-engine", false, "only accept results through POST /feedback")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input, addr, engineURL string, timeout time.Duration) error {
	g, vars, err := c.loadSceneOrEmpty(input)
	if err != nil {
		return err
	}

	opts := server.Options{Logger: c.Logger}
	if engineURL != "" {
		eng, err := engine.NewHTTPEngine(engineURL, timeout)
		if err != nil {
			return err
		}
		opts.Engine = eng
	}

	metrics := server.NewMetrics()
	metrics.Install()
	opts.Metrics = metrics

	srv := server.New(g, vars, opts)
	printInfo("Serving %d nodes on http://%s", g.NodeCount(), addr)
	return srv.ListenAndServe(ctx, addr)
}
