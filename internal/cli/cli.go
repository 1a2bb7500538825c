// Package cli implements the flowcanvas command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mlindgren/flowcanvas/pkg/buildinfo"
	"github.com/mlindgren/flowcanvas/pkg/cache"
	"github.com/mlindgren/flowcanvas/pkg/layout"
	"github.com/mlindgren/flowcanvas/pkg/pipeline"
	"github.com/mlindgren/flowcanvas/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flowcanvas"

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
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "flowcanvas",
		Short:        "Flowcanvas lays out and renders survey flow graphs",
		Long:         `Flowcanvas is a CLI tool for computing smart layouts of survey flow graphs and rendering them as diagrams, making branching logic easier to review.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. CLI invocations work on
// files, so the runner gets an in-memory store.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, store.NewMemoryStore(), c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowcanvas/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// loadLayoutConfig resolves the layout tuning table: the defaults, or a TOML
// override file when --config is set.
func loadLayoutConfig(path string) (layout.Config, error) {
	if path == "" {
		return layout.DefaultConfig(), nil
	}
	return layout.LoadConfig(path)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// outputBase derives the base output path from the output and input paths,
// stripping a known format extension so multiple artifacts can share it.
func outputBase(output, input string) string {
	if output == "" {
		input = strings.TrimSuffix(input, filepath.Ext(input))
		return strings.TrimSuffix(input, ".flow")
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	for _, f := range []string{pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatDOT, pipeline.FormatJSON} {
		if ext == f {
			return strings.TrimSuffix(output, "."+ext)
		}
	}
	return output
}
