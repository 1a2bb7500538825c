package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlindgren/flowcanvas/pkg/pipeline"
)

// layoutCommand creates the layout command for computing flow layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		configPath string
		noCache    bool
		noMeasured bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "layout [document.flow.json]",
		Short: "Compute a smart layout for a survey flow document",
		Long: `Compute a smart layout for a survey flow document.

The layout command reads a flow document, analyzes its structure, computes
adaptive positions for every node, and writes the positioned document back
out as JSON. The output can be rendered with 'flowcanvas render' or opened
interactively with 'flowcanvas view'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, configPath, noCache, noMeasured, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML layout tuning file (overrides defaults)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noMeasured, "no-measured", false, "ignore host-measured node sizes")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")

	return cmd
}

// runLayout loads the document, computes the layout, and writes the
// positioned document.
func (c *CLI) runLayout(ctx context.Context, input, output, configPath string, noCache, noMeasured, refresh bool) error {
	cfg, err := loadLayoutConfig(configPath)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Path:        input,
		Config:      cfg,
		UseMeasured: !noMeasured,
		Refresh:     refresh,
		Formats:     []string{pipeline.FormatJSON},
		Logger:      c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = outputBase("", input) + ".layout.json"
	}
	if err := os.WriteFile(outputPath, result.Artifacts[pipeline.FormatJSON], 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete (%s flow)", result.Layout.Metrics.Complexity)
	printFile(outputPath)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
	if result.Layout.OverlapsResolved {
		printDetail("overlap resolver moved nodes after the layered pass")
	}
	printNewline()
	printNextStep("Render", "flowcanvas render "+outputPath)

	return nil
}
