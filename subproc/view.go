package subproc

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var frameFaultStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FF6B6B"))

// frameInterval paces the polling of remote frames. Remote views are
// display surfaces, not input targets, so a moderate rate is enough.
const frameInterval = 200 * time.Millisecond

type frameMsg struct {
	frame string
	err   error
}

// frameModel embeds a plug-in's custom view by polling rendered text
// frames over the process boundary. Key input is not forwarded; parameter
// edits travel through the host's own controls.
type frameModel struct {
	render func() (string, error)

	frame string
	err   error
}

func newFrameModel(render func() (string, error)) frameModel {
	return frameModel{render: render}
}

func (m frameModel) fetch() tea.Msg {
	frame, err := m.render()
	return frameMsg{frame: frame, err: err}
}

func (m frameModel) Init() tea.Cmd {
	return m.fetch
}

func (m frameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if f, ok := msg.(frameMsg); ok {
		if f.err != nil {
			m.err = f.err
		} else {
			m.frame, m.err = f.frame, nil
		}
		return m, tea.Tick(frameInterval, func(time.Time) tea.Msg { return m.fetch() })
	}
	return m, nil
}

func (m frameModel) View() string {
	if m.err != nil {
		return frameFaultStyle.Render("plug-in view unavailable: " + m.err.Error())
	}
	if m.frame == "" {
		return "waiting for plug-in view"
	}
	return m.frame
}
