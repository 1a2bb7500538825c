package layout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/flow/analyze"
	"github.com/mlindgren/flowcanvas/pkg/geom"
)

func TestSpacingForTiers(t *testing.T) {
	cfg := DefaultConfig().Spacing

	tests := []struct {
		name string
		m    analyze.Metrics
		want Spacing
	}{
		{
			"simple sparse",
			analyze.Metrics{Complexity: analyze.ComplexitySimple, AvgNodesPerRank: 1},
			Spacing{RankSep: 180, NodeSep: 60},
		},
		{
			"moderate base density",
			analyze.Metrics{Complexity: analyze.ComplexityModerate, AvgNodesPerRank: 2.5},
			Spacing{RankSep: 220, NodeSep: 80},
		},
		{
			"complex dense",
			analyze.Metrics{Complexity: analyze.ComplexityComplex, AvgNodesPerRank: 4},
			Spacing{RankSep: 280, NodeSep: 120},
		},
		{
			"conditional bonus on top of tier",
			analyze.Metrics{Complexity: analyze.ComplexitySimple, AvgNodesPerRank: 1, ConditionalEdges: 1},
			Spacing{RankSep: 210, NodeSep: 80},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpacingFor(tt.m, cfg); got != tt.want {
				t.Errorf("SpacingFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSpacingMonotonicInComplexity(t *testing.T) {
	cfg := DefaultConfig().Spacing
	simple := SpacingFor(analyze.Metrics{Complexity: analyze.ComplexitySimple}, cfg)
	moderate := SpacingFor(analyze.Metrics{Complexity: analyze.ComplexityModerate}, cfg)
	complexS := SpacingFor(analyze.Metrics{Complexity: analyze.ComplexityComplex}, cfg)

	if !(simple.RankSep < moderate.RankSep && moderate.RankSep < complexS.RankSep) {
		t.Errorf("rank separation not monotonic: %v, %v, %v",
			simple.RankSep, moderate.RankSep, complexS.RankSep)
	}
}

func TestEstimateSizeTerminals(t *testing.T) {
	cfg := DefaultConfig().Estimate
	for _, kind := range []flow.Kind{flow.KindStart, flow.KindSubmit} {
		got := EstimateSize(&flow.Node{ID: "t", Kind: kind}, cfg)
		if got != (geom.Size{Width: 140, Height: 48}) {
			t.Errorf("EstimateSize(%s) = %+v, want {140 48}", kind, got)
		}
	}
}

func TestEstimateSizeBlocks(t *testing.T) {
	cfg := DefaultConfig().Estimate
	opts := func(n int) []string { return make([]string, n) }

	tests := []struct {
		name  string
		block flow.BlockContent
		want  geom.Size
	}{
		{
			"short text block",
			flow.BlockContent{Type: flow.BlockTypeText, Label: "Name"},
			geom.Size{Width: 300, Height: 116},
		},
		{
			"label beyond base grows width",
			flow.BlockContent{Type: flow.BlockTypeText, Label: strings.Repeat("x", 50)},
			geom.Size{Width: 360, Height: 116},
		},
		{
			"width capped",
			flow.BlockContent{Type: flow.BlockTypeText, Label: strings.Repeat("x", 200)},
			geom.Size{Width: 420, Height: 116},
		},
		{
			"radio grows with options",
			flow.BlockContent{Type: flow.BlockTypeRadio, Label: "Pick", Options: opts(4)},
			geom.Size{Width: 300, Height: 184},
		},
		{
			"option height capped",
			flow.BlockContent{Type: flow.BlockTypeCheckbox, Label: "Pick", Options: opts(10)},
			geom.Size{Width: 300, Height: 272},
		},
		{
			"matrix grows with rows",
			flow.BlockContent{Type: flow.BlockTypeMatrix, Label: "Grid", Rows: opts(5)},
			geom.Size{Width: 300, Height: 272},
		},
		{
			"textarea",
			flow.BlockContent{Type: flow.BlockTypeTextarea, Label: "Notes"},
			geom.Size{Width: 300, Height: 152},
		},
		{
			"range",
			flow.BlockContent{Type: flow.BlockTypeRange, Label: "Pain"},
			geom.Size{Width: 300, Height: 128},
		},
		{
			"select",
			flow.BlockContent{Type: flow.BlockTypeSelect, Label: "Country"},
			geom.Size{Width: 300, Height: 112},
		},
		{
			"description adds capped lines",
			flow.BlockContent{Type: flow.BlockTypeText, Label: "Name", Description: strings.Repeat("d", 100)},
			geom.Size{Width: 300, Height: 164},
		},
		{
			"description cap",
			flow.BlockContent{Type: flow.BlockTypeText, Label: "Name", Description: strings.Repeat("d", 400)},
			geom.Size{Width: 300, Height: 164},
		},
		{
			"navigation rules add a badge",
			flow.BlockContent{
				Type: flow.BlockTypeText, Label: "Name",
				Rules: []flow.NavigationRule{{Condition: "empty", Target: "submit"}},
			},
			geom.Size{Width: 300, Height: 140},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &flow.Node{ID: "b", Kind: flow.KindBlock, Block: &tt.block}
			if got := EstimateSize(n, cfg); got != tt.want {
				t.Errorf("EstimateSize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEstimateSizeNilContent(t *testing.T) {
	cfg := DefaultConfig().Estimate
	got := EstimateSize(&flow.Node{ID: "b", Kind: flow.KindBlock}, cfg)
	if got != (geom.Size{Width: 300, Height: 116}) {
		t.Errorf("EstimateSize(nil content) = %+v, want {300 116}", got)
	}
}

func TestSizeForPrefersMeasured(t *testing.T) {
	cfg := DefaultConfig()
	n := &flow.Node{
		ID: "b", Kind: flow.KindBlock,
		Measured: &geom.Size{Width: 200, Height: 100},
		Block:    &flow.BlockContent{Type: flow.BlockTypeText, Label: "Name"},
	}

	if got := sizeFor(n, cfg, true); got != (geom.Size{Width: 216, Height: 116}) {
		t.Errorf("sizeFor(measured) = %+v, want {216 116}", got)
	}
	if got := sizeFor(n, cfg, false); got != (geom.Size{Width: 300, Height: 116}) {
		t.Errorf("sizeFor(estimate) = %+v, want {300 116}", got)
	}

	// Zero measured size falls back to the estimate.
	n.Measured = &geom.Size{}
	if got := sizeFor(n, cfg, true); got != (geom.Size{Width: 300, Height: 116}) {
		t.Errorf("sizeFor(zero measured) = %+v, want {300 116}", got)
	}
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.toml")
	data := []byte(`
margin_x = 100

[spacing.rank_sep]
max = 999
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MarginX != 100 {
		t.Errorf("MarginX = %v, want 100", cfg.MarginX)
	}
	if cfg.Spacing.RankSep.Max != 999 {
		t.Errorf("RankSep.Max = %v, want 999", cfg.Spacing.RankSep.Max)
	}
	// Untouched keys keep their defaults.
	if cfg.Spacing.RankSep.Base != 220 {
		t.Errorf("RankSep.Base = %v, want default 220", cfg.Spacing.RankSep.Base)
	}
	if cfg.MarginY != 60 {
		t.Errorf("MarginY = %v, want default 60", cfg.MarginY)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadConfig(missing) succeeded, want error")
	}
}
