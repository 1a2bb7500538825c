package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/flow/analyze"
	"github.com/mlindgren/flowcanvas/pkg/layout"
)

// inspectCommand creates the inspect command for analyzing flow structure.
func (c *CLI) inspectCommand() *cobra.Command {
	var showClusters bool

	cmd := &cobra.Command{
		Use:   "inspect [document.flow.json]",
		Short: "Analyze a flow document's structure and complexity",
		Long: `Analyze a flow document's structure and complexity.

Inspect prints the structural metrics the layout engine derives from the
graph (node counts, depth, conditional branching, complexity tier) and the
spacing the adaptive heuristic would choose. With --clusters it also lists
the branch clusters by rank.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(args[0], showClusters)
		},
	}

	cmd.Flags().BoolVar(&showClusters, "clusters", false, "list branch clusters by rank")

	return cmd
}

func (c *CLI) runInspect(input string, showClusters bool) error {
	doc, err := flow.ReadDocumentFile(input)
	if err != nil {
		return err
	}
	g, err := doc.Graph()
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	metrics := analyze.Analyze(g)
	spacing := layout.SpacingFor(metrics, layout.DefaultConfig().Spacing)
	prog.done(fmt.Sprintf("Analyzed %d nodes", metrics.TotalNodes))

	name := doc.Name
	if name == "" {
		name = input
	}
	fmt.Println(StyleTitle.Render(name))
	printNewline()
	printKeyValue("nodes", fmt.Sprintf("%d (%d blocks)", metrics.TotalNodes, metrics.BlockNodes))
	printKeyValue("edges", fmt.Sprintf("%d (%d conditional)", g.EdgeCount(), metrics.ConditionalEdges))
	printKeyValue("max depth", fmt.Sprintf("%d", metrics.MaxDepth))
	printKeyValue("avg nodes/rank", fmt.Sprintf("%.2f", metrics.AvgNodesPerRank))
	printKeyValue("complexity", string(metrics.Complexity))
	printKeyValue("rank separation", fmt.Sprintf("%.0f", spacing.RankSep))
	printKeyValue("node separation", fmt.Sprintf("%.0f", spacing.NodeSep))

	if !showClusters {
		return nil
	}

	clusters := analyze.Clusters(g)
	printNewline()
	fmt.Println(StyleHighlight.Render(fmt.Sprintf("%d branch cluster(s)", len(clusters))))
	for _, cl := range clusters {
		printDetail("rank %d: %s", cl.Rank, strings.Join(cl.NodeIDs, ", "))
	}

	return nil
}
