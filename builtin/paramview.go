package builtin

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hostwire/plugin-host/unit"
	"github.com/hostwire/plugin-host/view"
)

var (
	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7")).
			Padding(0, 1)

	paramNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	paramValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	paramCursorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#5F5FD7"))

	panelHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// layoutState is the negotiated geometry shared between a unit and its
// view model. The host applies configurations on its dispatcher goroutine
// while the TUI renders on its own, so access goes through a mutex.
type layoutState struct {
	mu  sync.Mutex
	cfg view.Configuration
}

func (l *layoutState) set(cfg view.Configuration) {
	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
}

func (l *layoutState) get() view.Configuration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// compactHeight is the tallest geometry rendered as a bare parameter
// strip. Anything taller gets value bars and a help footer.
const compactHeight = 8

// paramsModel is the control surface shared by the demo units: a cursor
// over the parameter list, horizontal keys nudging the selected value.
type paramsModel struct {
	title  string
	params *unit.ParamSet
	layout *layoutState
	cursor int
}

func newParamsModel(title string, params *unit.ParamSet, layout *layoutState) paramsModel {
	return paramsModel{title: title, params: params, layout: layout}
}

func (m paramsModel) Init() tea.Cmd {
	return nil
}

func (m paramsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.params.Count()-1 {
			m.cursor++
		}
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(+1)
	}
	return m, nil
}

// nudge moves the selected parameter one step, or a hundredth of its
// range for continuous parameters.
func (m paramsModel) nudge(direction int) {
	p := m.params.ByIndex(m.cursor)
	if p == nil {
		return
	}
	delta := 0.01
	if p.StepCount > 0 {
		delta = 1 / float64(p.StepCount)
	}
	_ = m.params.SetNormalized(p.ID, p.Normalized()+delta*float64(direction))
}

func (m paramsModel) View() string {
	cfg := m.layout.get()
	compact := cfg.Height != 0 && cfg.Height <= compactHeight

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render(m.title))
	b.WriteString("\n")

	for i, p := range m.params.All() {
		label := fmt.Sprintf("%-10s", p.Name)
		value := fmt.Sprintf("%9s", p.Format())
		if i == m.cursor {
			b.WriteString(paramCursorStyle.Render("> " + label))
		} else {
			b.WriteString("  " + paramNameStyle.Render(label))
		}
		if !compact {
			b.WriteString(" " + renderBar(p.Normalized(), barWidth(cfg)))
		}
		b.WriteString(" " + paramValueStyle.Render(value) + "\n")
	}

	if !compact {
		b.WriteString("\n" + panelHelpStyle.Render("↑/↓ param • ←/→ adjust"))
	}
	return b.String()
}

func barWidth(cfg view.Configuration) int {
	w := cfg.Width - 28
	if w < 8 {
		return 8
	}
	if w > 32 {
		return 32
	}
	return w
}

func renderBar(normalized float64, width int) string {
	filled := int(normalized*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
