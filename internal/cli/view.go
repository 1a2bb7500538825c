package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
	"github.com/mlindgren/flowcanvas/pkg/layout"
	"github.com/mlindgren/flowcanvas/pkg/viewport"
)

// viewContainer is the simulated canvas size the tracker culls against.
var viewContainer = geom.Size{Width: 1200, Height: 800}

// panStep is the screen-space pan distance per keypress.
const panStep = 120

// viewCommand creates the view command: an interactive viewport over a
// positioned flow document.
func (c *CLI) viewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [document.layout.json]",
		Short: "Explore a positioned flow document interactively",
		Long: `Explore a positioned flow document interactively.

View opens a terminal UI that drives the same viewport tracker the host
canvas uses: pan and zoom move a simulated 1200x800 container over the
world-space layout, and the node table shows which nodes the tracker
classifies as visible, nearby (within the render buffer), or offscreen.

Keys:
  arrows/hjkl  pan
  +/-          zoom in/out
  n/p          focus next/previous block
  f            fit all nodes
  q            quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(args[0])
		},
	}
	return cmd
}

func (c *CLI) runView(input string) error {
	doc, err := flow.ReadDocumentFile(input)
	if err != nil {
		return err
	}
	g, err := doc.Graph()
	if err != nil {
		return err
	}
	if g.NodeCount() == 0 {
		return fmt.Errorf("document %s has no nodes", input)
	}

	name := doc.Name
	if name == "" {
		name = input
	}

	model := newViewModel(g, name)
	defer model.tracker.Stop()

	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// viewModel - Interactive viewport exploration
// =============================================================================

// viewModel is the bubbletea model driving the viewport tracker and camera.
type viewModel struct {
	graph   *flow.Graph
	name    string
	tracker *viewport.Tracker
	camera  *viewport.Camera
	tf      viewport.Transform
	focused string
	height  int
}

func newViewModel(g *flow.Graph, name string) *viewModel {
	sizeFor := layout.DefaultConfig().SizeFunc(true)
	m := &viewModel{
		graph:   g,
		name:    name,
		tracker: viewport.NewTracker(g, viewContainer, viewport.Options{SizeFor: sizeFor}),
		camera:  viewport.NewCamera(g, viewContainer, sizeFor),
		height:  20,
	}
	// Start fitted so the whole flow is on screen.
	if tf, err := m.camera.FitAll(viewport.DefaultFitPadding); err == nil {
		m.apply(tf)
	} else {
		m.tf = viewport.Transform{Zoom: 1}
	}
	return m
}

// apply pushes a new transform into the tracker and recomputes immediately,
// so the next View reflects it without waiting for the debounce timer.
func (m *viewModel) apply(tf viewport.Transform) {
	m.tf = tf
	m.tracker.SetTransform(tf)
	m.tracker.Recompute()
}

func (m *viewModel) Init() tea.Cmd {
	return nil
}

func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.pan(panStep, 0)
		case "right", "l":
			m.pan(-panStep, 0)
		case "up", "k":
			m.pan(0, panStep)
		case "down", "j":
			m.pan(0, -panStep)
		case "+", "=":
			m.zoom(1.25)
		case "-", "_":
			m.zoom(0.8)
		case "n":
			if tf, id, err := m.camera.FocusNext(m.tf.Zoom); err == nil {
				m.focused = id
				m.apply(tf)
			}
		case "p":
			if tf, id, err := m.camera.FocusPrev(m.tf.Zoom); err == nil {
				m.focused = id
				m.apply(tf)
			}
		case "f":
			if tf, err := m.camera.FitAll(viewport.DefaultFitPadding); err == nil {
				m.focused = ""
				m.apply(tf)
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m *viewModel) pan(dx, dy float64) {
	tf := m.tf
	tf.X += dx
	tf.Y += dy
	m.apply(tf)
}

func (m *viewModel) zoom(factor float64) {
	tf := m.tf
	tf.Zoom *= factor
	m.apply(tf)
}

func (m *viewModel) View() string {
	var b strings.Builder

	details := "details off"
	if m.tracker.ShouldRenderDetails() {
		details = "details on"
	}
	b.WriteString(StyleTitle.Render(m.name))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  zoom %.2f · %s · %d visible / %d nearby",
		m.tf.Zoom, details, len(m.tracker.VisibleNodeIDs()), len(m.tracker.NearbyNodeIDs()))))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("arrows/hjkl pan  +/- zoom  n/p focus  f fit  q quit"))
	b.WriteString("\n\n")

	entries := m.tracker.NodeVisibility()
	if len(entries) > m.height {
		entries = entries[:m.height]
	}

	showDetails := m.tracker.ShouldRenderDetails()
	rows := make([][]string, 0, len(entries))
	for _, v := range entries {
		marker := "·"
		switch {
		case v.Visible:
			marker = "●"
		case v.Nearby:
			marker = "○"
		}
		cursor := " "
		if v.ID == m.focused {
			cursor = "▸"
		}
		rows = append(rows, []string{cursor, marker, v.ID, m.nodeDetail(v.ID, showDetails),
			fmt.Sprintf("%.0f", v.Distance)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Node", "Content", "Distance").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			}
			if row >= len(entries) {
				return lipgloss.NewStyle()
			}
			v := entries[row]
			switch {
			case v.Visible:
				return lipgloss.NewStyle().Foreground(colorGreen)
			case v.Nearby:
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle().Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// nodeDetail returns the content column for a node: block label and type at
// detail zoom, just the kind otherwise (mirroring the host's detail gating).
func (m *viewModel) nodeDetail(id string, details bool) string {
	n, ok := m.graph.Node(id)
	if !ok {
		return ""
	}
	if n.Kind != flow.KindBlock {
		return string(n.Kind)
	}
	if !details || n.Block == nil {
		return "block"
	}
	label := n.Block.Label
	if label == "" {
		label = "—"
	}
	return fmt.Sprintf("%s (%s)", label, n.Block.Type)
}
