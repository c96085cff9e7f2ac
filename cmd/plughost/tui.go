package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/config"
	"github.com/hostwire/plugin-host/host"
	"github.com/hostwire/plugin-host/registry"
	"github.com/hostwire/plugin-host/view"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// dispatchMsg carries one completion callback into the update loop.
type dispatchMsg struct {
	fn func()
}

// programDispatcher marshals session and registry callbacks onto the
// bubbletea update loop, where they may touch the model. Callbacks
// arriving before the program is bound are held and flushed on bind.
type programDispatcher struct {
	mu      sync.Mutex
	program *tea.Program
	held    []func()
}

func newProgramDispatcher() *programDispatcher {
	return &programDispatcher{}
}

func (d *programDispatcher) bind(p *tea.Program) {
	d.mu.Lock()
	d.program = p
	held := d.held
	d.held = nil
	d.mu.Unlock()

	if len(held) == 0 {
		return
	}
	// Send blocks until the program runs, so flush off this goroutine.
	go func() {
		for _, fn := range held {
			p.Send(dispatchMsg{fn: fn})
		}
	}()
}

func (d *programDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	p := d.program
	if p == nil {
		d.held = append(d.held, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	p.Send(dispatchMsg{fn: fn})
}

type uiState int

const (
	stateBrowse uiState = iota
	stateControl
	stateNamePreset
)

// hostModel drives the host UI: a browser over the component catalog and
// a control panel for the installed instance. All mutation happens on the
// update loop; asynchronous work re-enters through dispatchMsg.
type hostModel struct {
	ctx     context.Context
	cfg     *config.Config
	reg     *registry.Registry
	session *host.Session

	state uiState

	queryType component.Type
	entries   []component.Entry
	cursor    int
	scanning  bool

	inst     *host.Instance
	paramIdx int
	embedded tea.Model
	pending  bool
	loading  string

	nameInput textinput.Model

	status string
	err    error

	// Commands queued by dispatcher callbacks, drained after each batch.
	cmds []tea.Cmd
}

func newHostModel(ctx context.Context, cfg *config.Config, reg *registry.Registry, session *host.Session) *hostModel {
	ti := textinput.New()
	ti.Placeholder = "My Preset"
	ti.Prompt = "Name: "
	ti.Width = 32
	ti.CharLimit = 48
	return &hostModel{
		ctx:       ctx,
		cfg:       cfg,
		reg:       reg,
		session:   session,
		queryType: component.TypeEffect,
		nameInput: ti,
	}
}

func (m *hostModel) Init() tea.Cmd {
	m.scanning = true
	m.discover()
	return nil
}

// discover rescans the catalog for the current slot type. The result
// lands back on the update loop through the session's dispatcher.
func (m *hostModel) discover() {
	query := component.Description{Type: m.queryType}
	m.reg.Discover(m.ctx, query, m.session.Dispatcher(), func(entries []component.Entry) {
		m.entries = entries
		m.scanning = false
		if m.cursor >= len(entries) {
			m.cursor = 0
		}
	})
}

func (m *hostModel) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.cmds = append(m.cmds, cmd)
	}
}

func (m *hostModel) takeCmds() tea.Cmd {
	if len(m.cmds) == 0 {
		return nil
	}
	batch := tea.Batch(m.cmds...)
	m.cmds = nil
	return batch
}

func (m *hostModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dispatchMsg:
		msg.fn()
		return m, m.takeCmds()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Ticks and frames belong to the embedded view.
	return m, m.forwardToEmbedded(msg)
}

func (m *hostModel) forwardToEmbedded(msg tea.Msg) tea.Cmd {
	if m.embedded == nil {
		return nil
	}
	var cmd tea.Cmd
	m.embedded, cmd = m.embedded.Update(msg)
	return cmd
}

func (m *hostModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == stateNamePreset {
		return m.handleNameKey(key)
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}

	m.status = ""
	switch m.state {
	case stateBrowse:
		m.handleBrowseKey(key)
	case stateControl:
		m.handleControlKey(key)
	}
	return m, m.takeCmds()
}

func (m *hostModel) handleBrowseKey(key tea.KeyMsg) {
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "tab":
		if m.queryType == component.TypeEffect {
			m.queryType = component.TypeInstrument
		} else {
			m.queryType = component.TypeEffect
		}
		m.cursor = 0
		m.scanning = true
		m.discover()
	case "r":
		m.scanning = true
		m.discover()
	case "enter":
		if len(m.entries) == 0 {
			return
		}
		m.selectEntry(m.entries[m.cursor])
	case "esc":
		if m.inst != nil {
			m.state = stateControl
		}
	}
}

// selectEntry hands the entry to the session. Pressing enter on another
// row while a selection is still in flight is fine; the session keeps
// only the latest request.
func (m *hostModel) selectEntry(entry component.Entry) {
	m.pending = true
	m.loading = entry.DisplayName
	m.err = nil
	m.session.Select(m.ctx, entry, host.Auto, m.applySelection)
}

func (m *hostModel) applySelection(r host.Result) {
	m.pending = false
	if r.Err != nil {
		// The old instance was torn down before the failure, so the
		// session is empty now.
		m.err = r.Err
		m.inst = nil
		m.embedded = nil
		m.state = stateBrowse
		return
	}
	switch r.Outcome {
	case host.OutcomeCleared:
		m.inst = nil
		m.embedded = nil
		m.status = "selection cleared"
		m.state = stateBrowse
	case host.OutcomeInstalled:
		m.inst = r.Instance
		m.embedded = nil
		m.paramIdx = 0
		m.state = stateControl
		m.negotiateView(r.Instance)
	}
}

// negotiateView offers the configured geometries to the fresh instance
// and requests its embedded view when it advertises one.
func (m *hostModel) negotiateView(inst *host.Instance) {
	candidates := m.cfg.ViewConfigurations()
	supported := inst.SupportedViewConfigurations(candidates)
	if vc, ok := view.Negotiate(candidates, supported); ok {
		if err := inst.SelectViewConfiguration(vc); err != nil {
			m.err = err
		}
	}
	if !inst.Entry().HasCustomView {
		return
	}
	m.session.RequestView(m.ctx, func(vm tea.Model, ok bool) {
		// Drop deliveries for instances we already moved past.
		if !ok || m.inst != inst {
			return
		}
		m.embedded = vm
		m.queue(vm.Init())
	})
}

func (m *hostModel) handleControlKey(key tea.KeyMsg) {
	if m.inst == nil {
		m.state = stateBrowse
		return
	}
	switch key.String() {
	case "esc", "b":
		m.state = stateBrowse
	case "up", "k":
		if m.paramIdx > 0 {
			m.paramIdx--
		}
	case "down", "j":
		if m.paramIdx < m.inst.Unit().Params().Count()-1 {
			m.paramIdx++
		}
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(+1)
	case " ", "space":
		m.status = "transport " + m.session.Engine().Toggle().String()
	case "[":
		m.cyclePreset(-1)
	case "]":
		m.cyclePreset(+1)
	case "s":
		if !m.inst.Presets().SupportsUserPresets() {
			m.status = "plug-in does not support presets"
			return
		}
		m.nameInput.SetValue("")
		m.state = stateNamePreset
		m.queue(m.nameInput.Focus())
	case "x":
		m.deleteCurrentPreset()
	case "d":
		m.inst.Unit().Params().ResetDefaults()
		m.status = "defaults restored"
	}
}

// nudge moves the selected parameter one step, or a hundredth of the
// range for continuous parameters.
func (m *hostModel) nudge(direction int) {
	params := m.inst.Unit().Params()
	p := params.ByIndex(m.paramIdx)
	if p == nil {
		return
	}
	delta := 0.01
	if p.StepCount > 0 {
		delta = 1 / float64(p.StepCount)
	}
	if err := params.SetNormalized(p.ID, p.Normalized()+delta*float64(direction)); err != nil {
		m.err = err
	}
}

// cyclePreset steps through the factory presets followed by the user
// presets, wrapping at both ends.
func (m *hostModel) cyclePreset(direction int) {
	store := m.inst.Presets()
	all := append(store.FactoryPresets(), store.UserPresets()...)
	if len(all) == 0 {
		m.status = "no presets"
		return
	}
	idx := 0
	if direction < 0 {
		idx = len(all) - 1
	}
	if cur, ok := store.CurrentPreset(); ok {
		for i, p := range all {
			if p == cur {
				idx = (i + direction + len(all)) % len(all)
				break
			}
		}
	}
	if err := store.SetCurrentPreset(all[idx]); err != nil {
		m.err = err
		return
	}
	m.status = "preset " + all[idx].String()
}

func (m *hostModel) deleteCurrentPreset() {
	store := m.inst.Presets()
	cur, ok := store.CurrentPreset()
	if !ok {
		m.status = "no preset selected"
		return
	}
	if err := store.DeleteUserPreset(cur); err != nil {
		m.err = err
		return
	}
	m.status = "deleted " + cur.Name
}

func (m *hostModel) handleNameKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.nameInput.Blur()
		m.state = stateControl
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		m.nameInput.Blur()
		m.state = stateControl
		if name == "" {
			return m, nil
		}
		if p, err := m.inst.Presets().SaveUserPreset(name); err != nil {
			m.err = err
		} else {
			m.status = "saved " + p.String()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(key)
	return m, cmd
}

func (m *hostModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("plughost"))
	b.WriteString("  ")
	b.WriteString(detailStyle.Render(m.queryType.String() + " slot"))
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		m.renderBrowse(&b)
	case stateControl:
		m.renderControl(&b)
	case stateNamePreset:
		b.WriteString("Save preset as\n\n")
		b.WriteString(m.nameInput.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter save • esc cancel"))
	}

	if m.err != nil {
		b.WriteString("\n\n" + errorStyle.Render("Error: "+m.err.Error()))
	} else if m.status != "" {
		b.WriteString("\n\n" + statusStyle.Render(m.status))
	}
	return b.String()
}

func (m *hostModel) renderBrowse(b *strings.Builder) {
	switch {
	case m.scanning && len(m.entries) == 0:
		b.WriteString("Scanning...\n")
	case len(m.entries) == 0:
		b.WriteString("No components found.\n")
	}

	for i, e := range m.entries {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + m.formatEntry(e)))
		} else {
			b.WriteString("  " + m.formatEntry(e))
		}
		b.WriteString("\n")
	}

	if m.pending {
		b.WriteString("\n" + statusStyle.Render("Loading "+m.loading+"..."))
		b.WriteString("\n")
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ select • enter load • tab effects/instruments • r rescan • q quit"))
}

func (m *hostModel) formatEntry(e component.Entry) string {
	if e.IsSentinel() {
		return e.DisplayName
	}
	detail := fmt.Sprintf("%s %s, %s", e.ManufacturerName, e.Version, e.Packaging)
	if cur := m.session.Current(); cur != nil && !cur.Entry().IsSentinel() &&
		cur.Entry().Desc.SameComponent(*e.Desc) {
		detail += ", installed"
	}
	return nameStyle.Render(e.DisplayName) + " " + helpStyle.Render("("+detail+")")
}

func (m *hostModel) renderControl(b *strings.Builder) {
	inst := m.inst
	if inst == nil {
		b.WriteString("Nothing installed.\n")
		b.WriteString("\n" + helpStyle.Render("esc browse"))
		return
	}

	info := inst.Unit().Info()
	b.WriteString(nameStyle.Render(info.Name))
	b.WriteString(detailStyle.Render(fmt.Sprintf("  %s %s  •  %s  •  %s",
		info.Manufacturer, info.Version, inst.Locality(), m.session.Engine().State())))
	b.WriteString("\n")

	current := "(none)"
	if p, ok := inst.Presets().CurrentPreset(); ok {
		current = p.String()
	}
	b.WriteString("Preset: " + statusStyle.Render(current) + "\n\n")

	// With a host controller negotiated, host parameter rows render above
	// the embedded view; otherwise the view is on its own.
	hostControls := true
	if vc, ok := inst.ActiveViewConfiguration(); ok && m.embedded != nil {
		hostControls = vc.HostHasController
	}
	if hostControls {
		m.renderParams(b, inst)
	}
	if m.embedded != nil {
		b.WriteString("\n")
		b.WriteString(m.embedded.View())
		b.WriteString("\n")
	}

	b.WriteString("\n" + helpStyle.Render(
		"↑/↓ param • ←/→ adjust • [ ] preset • s save • x delete • d defaults • space transport • esc browse • q quit"))
}

func (m *hostModel) renderParams(b *strings.Builder, inst *host.Instance) {
	for i, p := range inst.Unit().Params().All() {
		label := fmt.Sprintf("%-14s", p.Name)
		if i == m.paramIdx {
			b.WriteString(selectedStyle.Render("> " + label))
		} else {
			b.WriteString("  " + detailStyle.Render(label))
		}
		b.WriteString(" " + renderMeter(p.Normalized(), 24))
		b.WriteString(" " + statusStyle.Render(fmt.Sprintf("%10s", p.Format())))
		b.WriteString("\n")
	}
}

func renderMeter(normalized float64, width int) string {
	filled := int(normalized*float64(width) + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
