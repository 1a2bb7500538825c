// Package render turns positioned flow graphs into artifacts.
//
// Four formats are supported:
//
//   - SVG: native renderer drawing node boxes, edges, and
//     collision-adjusted edge labels at the exact world positions the
//     layout pipeline computed
//   - DOT: styled Graphviz source for interoperability
//   - PNG: raster output, rendered from the DOT form by Graphviz
//   - JSON: the positioned document itself
//
// Renderers never mutate the graph; they require positions to have been
// applied by the layout engine first.
package render

import (
	"fmt"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
)

// Format identifies an artifact format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// Valid reports whether the format is one the renderer produces.
func (f Format) Valid() bool {
	switch f {
	case FormatSVG, FormatPNG, FormatDOT, FormatJSON:
		return true
	}
	return false
}

// Theme is a render color scheme.
type Theme struct {
	Name       string
	Background string
	NodeFill   string
	NodeStroke string
	StartFill  string
	SubmitFill string
	Text       string
	Muted      string
	Edge       string
	EdgeSoft   string
	LabelFill  string
}

// LightTheme is the default scheme.
func LightTheme() Theme {
	return Theme{
		Name:       "light",
		Background: "#fafafa",
		NodeFill:   "#ffffff",
		NodeStroke: "#d0d0d8",
		StartFill:  "#dcfce7",
		SubmitFill: "#dbeafe",
		Text:       "#1f2430",
		Muted:      "#6b7280",
		Edge:       "#4b5563",
		EdgeSoft:   "#9ca3af",
		LabelFill:  "#f3f4f6",
	}
}

// DarkTheme is the inverted scheme.
func DarkTheme() Theme {
	return Theme{
		Name:       "dark",
		Background: "#15171e",
		NodeFill:   "#1f2430",
		NodeStroke: "#3a4150",
		StartFill:  "#14532d",
		SubmitFill: "#1e3a8a",
		Text:       "#e5e7eb",
		Muted:      "#9ca3af",
		Edge:       "#9ca3af",
		EdgeSoft:   "#4b5563",
		LabelFill:  "#262b38",
	}
}

// ThemeByName returns the named theme; empty selects light.
func ThemeByName(name string) (Theme, error) {
	switch name {
	case "", "light":
		return LightTheme(), nil
	case "dark":
		return DarkTheme(), nil
	}
	return Theme{}, fmt.Errorf("unknown theme %q", name)
}

// Options configures rendering.
type Options struct {
	// Theme is the color scheme. Zero value means light.
	Theme Theme

	// SizeFor supplies node sizes. Required for SVG output.
	SizeFor func(*flow.Node) geom.Size

	// Padding is the margin around the drawing, in world units.
	Padding float64
}

func (o *Options) setDefaults() {
	if o.Theme.Name == "" {
		o.Theme = LightTheme()
	}
	if o.Padding == 0 {
		o.Padding = 40
	}
}
