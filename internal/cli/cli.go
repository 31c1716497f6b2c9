// Package cli implements the nodeplot command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeplot/internal/config"
	"github.com/matzehuels/nodeplot/pkg/buildinfo"
	"github.com/matzehuels/nodeplot/pkg/cache"
	"github.com/matzehuels/nodeplot/pkg/globals"
	"github.com/matzehuels/nodeplot/pkg/graph"
	"github.com/matzehuels/nodeplot/pkg/scene"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "nodeplot"

	// maxParallelScenes bounds how many scene files lower processes at once.
	maxParallelScenes = 4
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Configuration is loaded before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "nodeplot edits node graphs of parametric plots",
		Long:         `nodeplot builds node graphs of intervals, curves, surfaces and transforms, lowers them into documents for a compute engine, and applies the engine's validation results back onto the graph.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.lowerCommand())
	root.AddCommand(c.evaluateCommand())
	root.AddCommand(c.feedbackCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Helpers
// =============================================================================

// loadScene reads and builds a scene script. The raw bytes are returned for
// cache keys.
func (c *CLI) loadScene(path string) (*scene.Scene, []byte, error) {
	format, err := scene.FormatOf(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	script, err := scene.Parse(data, format)
	if err != nil {
		return nil, nil, err
	}
	sc, err := script.Build(c.Logger.With("scene", path))
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("scene built", "path", path, "nodes", sc.Graph.NodeCount(), "links", sc.Graph.LinkCount())
	return sc, data, nil
}

// loadSceneOrEmpty builds the scene at path, or an empty graph when path is "".
func (c *CLI) loadSceneOrEmpty(path string) (*graph.Graph, *globals.Set, error) {
	if path == "" {
		return graph.New(), &globals.Set{}, nil
	}
	sc, _, err := c.loadScene(path)
	if err != nil {
		return nil, nil, err
	}
	return sc.Graph, sc.Globals, nil
}

// newCache opens the document cache in the configured directory. Any
// failure to open it degrades to a null cache.
func (c *CLI) newCache(noCache bool) cache.Cache {
	if noCache || c.Config.Cache.Dir == "" {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(c.Config.Cache.Dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", c.Config.Cache.Dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns os.Stdout for an empty path, otherwise creates path.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
