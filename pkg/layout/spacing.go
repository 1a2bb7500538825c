package layout

import "github.com/mlindgren/flowcanvas/pkg/flow/analyze"

// Spacing is the separation pair fed to the layered layout.
type Spacing struct {
	RankSep float64
	NodeSep float64
}

// SpacingFor picks separations for a graph from its metrics.
//
// Rank separation follows the complexity tier: complex graphs get the max,
// simple graphs the min, moderate the base. Node separation follows rank
// density instead: more than 3 blocks per rank gets the max, fewer than 2
// the min. When the graph has conditional branches, a fixed bonus is added
// on top of whichever tier was chosen so edge labels have room.
func SpacingFor(m analyze.Metrics, cfg SpacingConfig) Spacing {
	var s Spacing

	switch m.Complexity {
	case analyze.ComplexityComplex:
		s.RankSep = cfg.RankSep.Max
	case analyze.ComplexitySimple:
		s.RankSep = cfg.RankSep.Min
	default:
		s.RankSep = cfg.RankSep.Base
	}

	switch {
	case m.AvgNodesPerRank > 3:
		s.NodeSep = cfg.NodeSep.Max
	case m.AvgNodesPerRank < 2:
		s.NodeSep = cfg.NodeSep.Min
	default:
		s.NodeSep = cfg.NodeSep.Base
	}

	if m.HasConditionalFlow() {
		s.RankSep += cfg.ConditionalRankBonus
		s.NodeSep += cfg.ConditionalNodeBonus
	}

	return s
}
