// Package viz renders trajectories in the terminal: static ascii charts
// and a live view that follows a run as it marches.
package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const (
	chartWidth  = 72
	chartHeight = 16
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	chartStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	legendStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Chart renders one state component over time as an ascii graph.
func Chart(title string, values []float64) string {
	if len(values) < 2 {
		return titleStyle.Render(title) + "\n(not enough samples)"
	}
	graph := asciigraph.Plot(values,
		asciigraph.Width(chartWidth),
		asciigraph.Height(chartHeight),
	)
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(chartStyle.Render(graph))
	return b.String()
}

// Legend renders the time span and sample count under a chart.
func Legend(t0, t1 float64, samples int) string {
	return legendStyle.Render(
		fmt.Sprintf("t = %.4g .. %.4g  (%d samples)", t0, t1, samples))
}
