package layout

import (
	"math"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
)

// Per-type height increments for unmeasured blocks. Selection blocks grow
// with their option count, matrix blocks with their row count; the caps keep
// pathological content from dwarfing the canvas.
const (
	optionRowHeight  = 28
	optionHeightCap  = 200
	matrixRowHeight  = 32
	matrixRowBase    = 40
	matrixHeightCap  = 280
	textareaHeight   = 80
	rangeHeight      = 56
	selectHeight     = 40
	defaultTypeAdd   = 44
	descLineChars    = 45
	descLineHeight   = 16
	descHeightCap    = 48
	rulesBadgeHeight = 24
)

// EstimateSize approximates a node's rendered footprint from its content.
//
// This is a heuristic, not a text-measurement function: it only needs to be
// close enough for a readable first-pass layout, because the host's actual
// measured size supersedes it once the node has been painted. It always
// returns a size.
func EstimateSize(n *flow.Node, cfg EstimateConfig) geom.Size {
	if n.Kind != flow.KindBlock {
		return geom.Size{Width: cfg.TerminalWidth, Height: cfg.TerminalHeight}
	}

	var b flow.BlockContent
	if n.Block != nil {
		b = *n.Block
	}

	width := cfg.MinWidth
	if extra := len(b.Label) - cfg.LabelBaseChars; extra > 0 {
		width = min(width+float64(extra)*cfg.WidthPerChar, cfg.MaxWidth)
	}

	height := cfg.BaseHeight + typeHeight(b)

	if b.Description != "" {
		lines := math.Ceil(float64(len(b.Description)) / descLineChars)
		height += min(lines*descLineHeight, descHeightCap)
	}
	if b.HasRules() {
		height += rulesBadgeHeight
	}

	return geom.Size{Width: width, Height: height}
}

func typeHeight(b flow.BlockContent) float64 {
	switch b.Type {
	case flow.BlockTypeRadio, flow.BlockTypeCheckbox:
		return min(float64(b.OptionCount())*optionRowHeight, optionHeightCap)
	case flow.BlockTypeMatrix:
		return min(float64(b.RowCount())*matrixRowHeight+matrixRowBase, matrixHeightCap)
	case flow.BlockTypeTextarea:
		return textareaHeight
	case flow.BlockTypeRange:
		return rangeHeight
	case flow.BlockTypeSelect:
		return selectHeight
	default:
		return defaultTypeAdd
	}
}

// SizeFunc returns the sizing function the layout pipeline uses, so callers
// that need the same node footprints (rendering, viewport culling) agree
// with the computed positions.
func (c Config) SizeFunc(useMeasured bool) func(*flow.Node) geom.Size {
	return func(n *flow.Node) geom.Size { return sizeFor(n, c, useMeasured) }
}

// sizeFor returns the node's layout size: the measured size padded by the
// configured padding when available (and wanted), the estimate otherwise.
func sizeFor(n *flow.Node, cfg Config, useMeasured bool) geom.Size {
	if useMeasured && n.Measured != nil && !n.Measured.IsZero() {
		return geom.Size{
			Width:  n.Measured.Width + cfg.MeasuredPadding,
			Height: n.Measured.Height + cfg.MeasuredPadding,
		}
	}
	return EstimateSize(n, cfg.Estimate)
}
