package layout

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// SpacingRange is a min/base/max triple for one spacing dimension.
type SpacingRange struct {
	Min  float64 `toml:"min"`
	Base float64 `toml:"base"`
	Max  float64 `toml:"max"`
}

// SpacingConfig tunes the adaptive spacing heuristic.
type SpacingConfig struct {
	// RankSep separates ranks (columns, in the left-to-right flow).
	RankSep SpacingRange `toml:"rank_sep"`
	// NodeSep separates siblings within a rank.
	NodeSep SpacingRange `toml:"node_sep"`
	// Extra separation added when the graph has conditional branches,
	// applied on top of whichever tier was selected.
	ConditionalRankBonus float64 `toml:"conditional_rank_bonus"`
	ConditionalNodeBonus float64 `toml:"conditional_node_bonus"`
}

// EstimateConfig tunes the node size estimator for unmeasured nodes.
type EstimateConfig struct {
	// Terminal (start/submit) node size.
	TerminalWidth  float64 `toml:"terminal_width"`
	TerminalHeight float64 `toml:"terminal_height"`

	// Block width: MinWidth plus WidthPerChar for every label character
	// beyond LabelBaseChars, capped at MaxWidth.
	MinWidth       float64 `toml:"min_width"`
	MaxWidth       float64 `toml:"max_width"`
	LabelBaseChars int     `toml:"label_base_chars"`
	WidthPerChar   float64 `toml:"width_per_char"`

	// Block height: BaseHeight plus a type-dependent increment.
	BaseHeight float64 `toml:"base_height"`
}

// Config is the complete layout tuning table.
// DefaultConfig returns the values the host UI ships with; a TOML file can
// override any subset for experimentation.
type Config struct {
	Spacing  SpacingConfig  `toml:"spacing"`
	Estimate EstimateConfig `toml:"estimate"`

	// MarginX/MarginY pad the layout's top-left origin.
	MarginX float64 `toml:"margin_x"`
	MarginY float64 `toml:"margin_y"`

	// MeasuredPadding is added around host-measured node sizes before they
	// are handed to the layered layout, and is the same padding the overlap
	// predicate uses.
	MeasuredPadding float64 `toml:"measured_padding"`
}

// DefaultConfig returns the standard tuning table.
func DefaultConfig() Config {
	return Config{
		Spacing: SpacingConfig{
			RankSep:              SpacingRange{Min: 180, Base: 220, Max: 280},
			NodeSep:              SpacingRange{Min: 60, Base: 80, Max: 120},
			ConditionalRankBonus: 30,
			ConditionalNodeBonus: 20,
		},
		Estimate: EstimateConfig{
			TerminalWidth:  140,
			TerminalHeight: 48,
			MinWidth:       300,
			MaxWidth:       420,
			LabelBaseChars: 30,
			WidthPerChar:   3,
			BaseHeight:     72,
		},
		MarginX:         80,
		MarginY:         60,
		MeasuredPadding: 16,
	}
}

// LoadConfig reads a TOML tuning file, starting from the defaults so that
// partial files only override the keys they mention.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load layout config %s: %w", path, err)
	}
	return cfg, nil
}
