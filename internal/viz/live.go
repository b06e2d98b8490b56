package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// ProgressMsg reports run progress, one per save point.
type ProgressMsg struct {
	Fraction float64
}

// DoneMsg ends the live view; Err is nil on success.
type DoneMsg struct {
	Err error
}

// Model is the bubbletea model for a running simulation. The simulation
// itself runs on another goroutine and feeds messages through a channel.
type Model struct {
	scenario string
	species  int
	msgs     <-chan tea.Msg

	fraction float64
	start    time.Time
	err      error
}

// NewModel returns a live view fed by msgs.
func NewModel(scenario string, species int, msgs <-chan tea.Msg) Model {
	return Model{
		scenario: scenario,
		species:  species,
		msgs:     msgs,
		start:    time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.listen()
}

func (m Model) listen() tea.Cmd {
	return func() tea.Msg { return <-m.msgs }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case ProgressMsg:
		m.fraction = msg.Fraction
		return m, m.listen()
	case DoneMsg:
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("mizer run: %s", m.scenario)))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	row("species", fmt.Sprintf("%d", m.species))
	row("progress", fmt.Sprintf("%5.1f%%", m.fraction*100))
	row("elapsed", time.Since(m.start).Round(time.Millisecond).String())

	b.WriteString("\n")
	b.WriteString(barStyle.Render(progressBar(m.fraction, 60)))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(fmt.Sprintf("\nrun failed: %v\n", m.err))
	}
	b.WriteString(helpStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
