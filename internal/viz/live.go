package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/lmoser/shellfit/internal/optim"
)

const historyCapacity = 600

var (
	monitorHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// ProgressMsg carries one optimizer generation into the monitor.
type ProgressMsg optim.Progress

// DoneMsg signals the end of the fit.
type DoneMsg struct {
	Err error
}

// Monitor is a live view of a running fit.
type Monitor struct {
	system   string
	params   []string
	last     optim.Progress
	costHist []float64
	start    time.Time
	done     bool
	err      error
}

// NewMonitor builds the monitor for a fit over the named parameters.
func NewMonitor(system string, params []string) Monitor {
	return Monitor{
		system:   system,
		params:   params,
		costHist: make([]float64, 0, historyCapacity),
		start:    time.Now(),
	}
}

func (m Monitor) Init() tea.Cmd { return nil }

// Update handles key presses and fit progress.
func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case ProgressMsg:
		m.last = optim.Progress(msg)
		m.costHist = append(m.costHist, m.last.BestCost)
		if len(m.costHist) > historyCapacity {
			m.costHist = m.costHist[1:]
		}
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

// View renders the monitor.
func (m Monitor) View() string {
	var s strings.Builder
	s.WriteString(monitorHeader.Render(strings.ToUpper(m.system)+" FIT") + "\n")

	switch {
	case m.done && m.err != nil:
		s.WriteString(failStyle.Render("FAILED: "+m.err.Error()) + "\n")
	case m.done:
		s.WriteString(doneStyle.Render("FINISHED") + "\n")
	default:
		s.WriteString("RUNNING\n")
	}

	if len(m.costHist) > 1 {
		chart := asciigraph.Plot(m.costHist,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("best cost"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Generation") + valueStyle.Render(fmt.Sprintf("%d", m.last.Generation)) + "\n")
	s.WriteString(labelStyle.Render("Best cost") + valueStyle.Render(fmt.Sprintf("%.6g", m.last.BestCost)) + "\n")
	s.WriteString(labelStyle.Render("Evaluations") + valueStyle.Render(fmt.Sprintf("%d", m.last.Evals)) + "\n")
	s.WriteString(labelStyle.Render("Elapsed") + valueStyle.Render(time.Since(m.start).Round(time.Second).String()) + "\n")

	for i, name := range m.params {
		if i < len(m.last.Best) {
			s.WriteString(labelStyle.Render(name) + valueStyle.Render(fmt.Sprintf("%.6g", m.last.Best[i])) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("q: abandon the monitor"))
	return s.String()
}
