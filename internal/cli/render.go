package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlindgren/flowcanvas/pkg/pipeline"
)

// renderCommand creates the render command for generating diagram artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		theme      string
		configPath string
		noCache    bool
		noMeasured bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "render [document.flow.json]",
		Short: "Render a survey flow document to SVG, PNG, DOT, or JSON",
		Long: `Render a survey flow document to one or more diagram formats.

The render command runs the full pipeline: it loads the document, computes
a smart layout, and writes one artifact per requested format. Layouts and
artifacts are cached locally, so re-rendering an unchanged document is
instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				Path:        args[0],
				UseMeasured: !noMeasured,
				Refresh:     refresh,
				Formats:     parseFormats(formatsStr),
				Theme:       theme,
				Logger:      c.Logger,
			}
			cfg, err := loadLayoutConfig(configPath)
			if err != nil {
				return err
			}
			opts.Config = cfg
			return c.runRender(cmd.Context(), args[0], output, opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: light (default), dark")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML layout tuning file (overrides defaults)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noMeasured, "no-measured", false, "ignore host-measured node sizes")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")

	return cmd
}

// runRender executes the pipeline and writes one file per artifact.
func (c *CLI) runRender(ctx context.Context, input, output string, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := outputBase(output, input)
	written := make([]string, 0, len(opts.Formats))
	for _, format := range opts.Formats {
		var path string
		if output != "" && len(opts.Formats) == 1 {
			path = output
		} else {
			path = base + "." + format
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	printSuccess("Rendered %d artifact(s)", len(written))
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)

	return nil
}
