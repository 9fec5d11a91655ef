// Package viz renders fit progress and evaluation results in the
// terminal: ascii convergence plots, lattice comparison tables and a
// live fit monitor.
package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/lmoser/shellfit/internal/analysis"
	"github.com/lmoser/shellfit/internal/relax"
	"github.com/lmoser/shellfit/internal/storage"
)

const (
	graphWidth  = 80
	graphHeight = 12
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	headStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Convergence renders the best-cost series of a run.
func Convergence(hist []storage.HistoryRecord) string {
	if len(hist) < 2 {
		return "not enough history to plot"
	}
	return asciigraph.Plot(analysis.BestCosts(hist),
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption("best cost by generation"),
	)
}

// ParamTrace renders the evolution of one free parameter.
func ParamTrace(name string, idx int, hist []storage.HistoryRecord) string {
	if len(hist) < 2 {
		return "not enough history to plot"
	}
	vals := make([]float64, 0, len(hist))
	for _, h := range hist {
		if idx < len(h.Params) {
			vals = append(vals, h.Params[idx])
		}
	}
	return asciigraph.Plot(vals,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption(name+" by generation"),
	)
}

// pctStyle colors a percent difference by how far off it is.
func pctStyle(pct float64) lipgloss.Style {
	switch a := math.Abs(pct); {
	case a < 1.0:
		return okStyle
	case a < 3.0:
		return warnStyle
	default:
		return badStyle
	}
}

// LatticeTable renders the relaxed-vs-reference lattice comparison.
func LatticeTable(comps []relax.Comparison) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("lattice constants, fitted vs reference") + "\n\n")
	s.WriteString(headStyle.Render(fmt.Sprintf("%-20s %8s %8s %7s  %8s %8s %7s",
		"structure", "a fit", "a ref", "da%", "vol fit", "vol ref", "dV%")) + "\n")
	for _, c := range comps {
		da, _, _, dv := c.PctDiff()
		s.WriteString(fmt.Sprintf("%-20s %8.4f %8.4f %s  %8.3f %8.3f %s\n",
			c.Name,
			c.Fit.A, c.Ref.A, pctStyle(da).Render(fmt.Sprintf("%+6.2f%%", da)),
			c.FitVol, c.RefVol, pctStyle(dv).Render(fmt.Sprintf("%+6.2f%%", dv)),
		))
	}
	return s.String()
}

// LatticeBars renders the a-axis percent differences as a bar chart,
// one bar per structure.
func LatticeBars(comps []relax.Comparison) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("a-axis deviation from reference") + "\n\n")
	for _, c := range comps {
		da, _, _, _ := c.PctDiff()
		n := int(math.Min(math.Abs(da)*10, 40))
		bar := strings.Repeat("█", n)
		if n == 0 {
			bar = "▏"
		}
		s.WriteString(fmt.Sprintf("%-20s %s %s\n",
			c.Name, pctStyle(da).Render(bar), fmt.Sprintf("%+.2f%%", da)))
	}
	return s.String()
}
