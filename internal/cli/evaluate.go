package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeplot/pkg/engine"
	"github.com/matzehuels/nodeplot/pkg/lower"
)

// evaluateCommand creates the evaluate command.
func (c *CLI) evaluateCommand() *cobra.Command {
	var (
		engineURL string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "evaluate [scene]",
		Short: "Send a scene to the compute engine and show node statuses",
		Long: `Lower a scene, post the document to the compute engine, and apply the
validation results it returns.

The engine URL and timeout default to the engine.url and engine.timeout
configuration keys (NODEPLOT_ENGINE_URL, NODEPLOT_ENGINE_TIMEOUT).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("engine") {
				engineURL = c.Config.Engine.URL
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = c.Config.Engine.Timeout
			}
			return c.runEvaluate(cmd.Context(), args[0], engineURL, timeout)
		},
	}

	cmd.Flags().StringVar(&engineURL, "engine", "", "compute engine URL")
	cmd.Flags().DurationVar(&timeout, "timeout", engine.DefaultTimeout, "engine round trip timeout")

	return cmd
}

func (c *CLI) runEvaluate(ctx context.Context, input, engineURL string, timeout time.Duration) error {
	eng, err := engine.NewHTTPEngine(engineURL, timeout)
	if err != nil {
		return err
	}
	sc, _, err := c.loadScene(input)
	if err != nil {
		return err
	}

	x := engine.NewExchange(sc.Graph, sc.Globals, eng, c.Logger)
	spin := startSpinner(os.Stderr, "Evaluating "+input)
	summary, err := x.Run(ctx)
	spin.stop()

	if errors.Is(err, lower.ErrCycle) {
		printStatuses(sc.Graph)
		return err
	}
	if err != nil {
		return err
	}

	printSummary(summary)
	printStatuses(sc.Graph)
	if req := x.Latest(); req != nil {
		printKeyValue("request", req.ID)
		printKeyValue("hash", req.Hash[:12])
	}
	return nil
}
