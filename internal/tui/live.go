// Package tui runs a plant simulation behind a live terminal
// dashboard: per-node effluent readings, a scrolling chart of one
// watched component, and the settler profile when one is present.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/plantsim/plantsim/internal/model"
	"github.com/plantsim/plantsim/internal/sim"
	"github.com/plantsim/plantsim/internal/viz"
)

const (
	chartWidth    = 60
	chartHeight   = 8
	seriesHistory = 600
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	chartStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).Padding(1, 2)
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model drives a prepared run one timestep per frame.
type Model struct {
	name    string
	stepper *sim.Stepper
	nodes   []string

	watch   int // index into nodes
	keys    []string
	keyIdx  int
	series  []float64
	running bool
	done    bool
	err     error
}

// New wraps a prepared stepper. nodes is the execution order without
// the influent.
func New(name string, nodes []string, stepper *sim.Stepper) Model {
	return Model{
		name:    name,
		stepper: stepper,
		nodes:   nodes,
		watch:   len(nodes) - 1,
		keys:    []string{"flowrate"},
		series:  make([]float64, 0, seriesHistory),
		running: true,
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.done {
				m.stepper.Finalize()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "tab":
			m.watch = (m.watch + 1) % len(m.nodes)
			m.series = m.series[:0]
		case "left", "h":
			m.keyIdx = (m.keyIdx + len(m.keys) - 1) % len(m.keys)
			m.series = m.series[:0]
		case "right", "l":
			m.keyIdx = (m.keyIdx + 1) % len(m.keys)
			m.series = m.series[:0]
		}
		return m, nil
	case TickMsg:
		if m.running && !m.done {
			m.advance()
		}
		if m.done && m.err == nil && m.running {
			// keep the final frame on screen, stop stepping
			m.running = false
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	more, err := m.stepper.Step()
	if err != nil {
		m.err = err
		m.done = true
		return
	}
	if !more {
		m.err = m.stepper.Finalize()
		m.done = true
	}

	rec, ok := m.stepper.History().Last(m.nodes[m.watch])
	if !ok {
		return
	}
	if len(m.keys) == 1 {
		m.keys = append(m.keys, rec.Flow.Keys()...)
	}
	m.series = append(m.series, m.value(rec))
	if len(m.series) > seriesHistory {
		m.series = m.series[1:]
	}
}

func (m *Model) value(rec sim.Record) float64 {
	key := m.keys[m.keyIdx]
	if key == "flowrate" {
		return rec.Flow.Flowrate
	}
	return rec.Flow.Get(key)
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if len(m.series) > 1 {
		caption := fmt.Sprintf("%s @ %s", m.keys[m.keyIdx], m.nodes[m.watch])
		chart := viz.Sparkline(m.series, chartWidth, chartHeight)
		s.WriteString(chartStyle.Render(chart+"\n"+caption) + "\n\n")
	}

	s.WriteString(m.nodeTable())

	if prof := m.settlerProfile(); prof != "" {
		s.WriteString("\nSLUDGE PROFILE\n" + prof)
	}

	s.WriteString(helpStyle.Render("SP:Pause Tab:Node ←→:Component Q:Quit"))
	return panelStyle.Render(s.String())
}

func (m Model) statusLine() string {
	status := "RUNNING"
	switch {
	case m.err != nil:
		status = "ABORTED"
	case m.done:
		status = "DONE"
	case !m.running:
		status = "PAUSED"
	}
	line := fmt.Sprintf("%s  t=%.1f h  step %d/%d", status,
		m.stepper.Time(), m.stepper.StepsDone(), m.stepper.StepsTotal())
	if m.err != nil {
		line += "\n" + activeStyle.Render(m.err.Error())
	}
	return line
}

func (m Model) nodeTable() string {
	var s strings.Builder
	s.WriteString("NODE          FLOW m3/h  COD g/m3  TSS g/m3  NH4 g/m3\n")
	for i, id := range m.nodes {
		rec, ok := m.stepper.History().Last(id)
		if !ok {
			continue
		}
		comp := rec.Flow.Composition
		line := fmt.Sprintf("%-12s %10.1f %9.1f %9.1f %9.2f", id,
			rec.Flow.Flowrate, model.COD(comp), model.TSS(comp), comp["snh"])
		if i == m.watch {
			s.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + valueStyle.Render(line) + "\n")
		}
	}
	return s.String()
}

func (m Model) settlerProfile() string {
	for _, id := range m.nodes {
		rec, ok := m.stepper.History().Last(id)
		if !ok || rec.Snapshot.Kind != model.KindLayered {
			continue
		}
		return viz.Profile(rec.Snapshot)
	}
	return ""
}
