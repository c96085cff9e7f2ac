package main

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostwire/plugin-host/builtin"
	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/config"
	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/graph"
	"github.com/hostwire/plugin-host/host"
	"github.com/hostwire/plugin-host/registry"
)

// chanDispatcher queues callbacks the way the program's update loop
// receives them, letting tests pump them on the test goroutine.
type chanDispatcher struct {
	msgs chan func()
}

func (d *chanDispatcher) Dispatch(fn func()) { d.msgs <- fn }

type tuiHarness struct {
	disp    *chanDispatcher
	session *host.Session
	model   *hostModel
}

func newTUIHarness(t *testing.T) *tuiHarness {
	t.Helper()

	disp := &chanDispatcher{msgs: make(chan func(), 16)}
	session := host.NewSession(graph.NewTransport(), disp, host.Policy{AllowInProcess: true})
	session.RegisterLoader(component.PackagingBuiltin, builtin.Loader())
	t.Cleanup(func() { _ = session.Close(context.Background()) })

	cfg := config.Default()
	reg := registry.New(builtin.Source())
	m := newHostModel(context.Background(), &cfg, reg, session)
	return &tuiHarness{disp: disp, session: session, model: m}
}

// pumpUntil feeds queued callbacks through Update until cond holds.
func (h *tuiHarness) pumpUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case fn := <-h.disp.msgs:
			h.model.Update(dispatchMsg{fn: fn})
		case <-deadline:
			t.Fatal("queued callbacks never satisfied the condition")
		}
	}
}

func (h *tuiHarness) press(k tea.KeyMsg) {
	h.model.Update(k)
}

func (h *tuiHarness) start(t *testing.T) {
	t.Helper()
	h.model.Init()
	h.pumpUntil(t, func() bool { return !h.model.scanning })
}

// install drives the browser to name and loads it.
func (h *tuiHarness) install(t *testing.T, name string) {
	t.Helper()
	for i, e := range h.model.entries {
		if e.DisplayName == name {
			h.model.cursor = i
			h.press(tea.KeyMsg{Type: tea.KeyEnter})
			h.pumpUntil(t, func() bool { return !h.model.pending })
			return
		}
	}
	t.Fatalf("no catalog entry named %q", name)
}

func TestHostModel_BrowseShowsEffectCatalog(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)

	require.NotEmpty(t, h.model.entries)
	assert.True(t, h.model.entries[0].IsSentinel(), "effect queries lead with the clear-slot row")

	out := h.model.View()
	assert.Contains(t, out, "(No Effect)")
	assert.Contains(t, out, "Studio Gain")
	assert.NotContains(t, out, "Lowpass Filter", "effects without a view stay out of the effect slot")
	assert.Contains(t, out, "effect slot")
}

func TestHostModel_TabSwitchesToInstruments(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)

	h.press(tea.KeyMsg{Type: tea.KeyTab})
	h.pumpUntil(t, func() bool { return !h.model.scanning })

	require.NotEmpty(t, h.model.entries)
	assert.False(t, h.model.entries[0].IsSentinel(), "instrument queries have no clear-slot row")

	out := h.model.View()
	assert.Contains(t, out, "instrument slot")
	assert.Contains(t, out, "Wave Synth")
}

func TestHostModel_SelectInstallsComponent(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)

	h.install(t, "Studio Gain")

	require.NotNil(t, h.model.inst)
	assert.Equal(t, stateControl, h.model.state)
	assert.Equal(t, host.InProcess, h.model.inst.Locality())

	// The embedded surface arrives as a second delivery.
	h.pumpUntil(t, func() bool { return h.model.embedded != nil })

	out := h.model.View()
	assert.Contains(t, out, "Studio Gain")
	assert.Contains(t, out, "Level")
	assert.Contains(t, out, "Preset: ")
}

func TestHostModel_SentinelClearsSlot(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)
	h.install(t, "Studio Gain")
	require.NotNil(t, h.model.inst)

	h.press(tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, stateBrowse, h.model.state)

	h.install(t, "(No Effect)")

	assert.Nil(t, h.model.inst)
	assert.Nil(t, h.model.embedded)
	assert.Equal(t, stateBrowse, h.model.state)
	assert.Nil(t, h.session.Current())
}

func TestHostModel_TransportToggle(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)
	h.install(t, "Studio Gain")

	h.press(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, graph.Playing, h.session.Engine().State())
	assert.Contains(t, h.model.View(), "playing")

	h.press(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, graph.Stopped, h.session.Engine().State())
}

func TestHostModel_NudgeMovesSelectedParam(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)
	h.install(t, "Studio Gain")

	level := h.model.inst.Unit().Params().ByIndex(0)
	require.NotNil(t, level)
	before := level.Normalized()

	h.press(tea.KeyMsg{Type: tea.KeyRight})
	assert.InDelta(t, before+0.01, level.Normalized(), 1e-9)

	h.press(tea.KeyMsg{Type: tea.KeyLeft})
	assert.InDelta(t, before, level.Normalized(), 1e-9)

	// Mute is stepped, so one nudge flips it all the way.
	h.press(tea.KeyMsg{Type: tea.KeyDown})
	h.press(tea.KeyMsg{Type: tea.KeyRight})
	mute := h.model.inst.Unit().Params().ByIndex(1)
	assert.Equal(t, 1.0, mute.Normalized())
}

func TestHostModel_PresetSaveFlow(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)
	h.install(t, "Studio Gain")

	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	require.Equal(t, stateNamePreset, h.model.state)
	assert.Contains(t, h.model.View(), "Save preset as")

	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Warm")})
	h.press(tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, stateControl, h.model.state)
	store := h.model.inst.Presets()
	require.Len(t, store.UserPresets(), 1)
	assert.Equal(t, "Warm", store.UserPresets()[0].Name)

	cur, ok := store.CurrentPreset()
	require.True(t, ok)
	assert.Equal(t, "Warm", cur.Name)
	assert.Contains(t, h.model.View(), "Warm")
}

func TestHostModel_PresetNameEscapeCancels(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)
	h.install(t, "Studio Gain")

	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("nope")})
	h.press(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, stateControl, h.model.state)
	assert.Empty(t, h.model.inst.Presets().UserPresets())
}

func TestHostModel_DeleteCurrentPreset(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)
	h.install(t, "Studio Gain")

	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Scratch")})
	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, h.model.inst.Presets().UserPresets(), 1)

	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Empty(t, h.model.inst.Presets().UserPresets())
	_, ok := h.model.inst.Presets().CurrentPreset()
	assert.False(t, ok, "deleting the current preset leaves none selected")
}

func TestHostModel_FactoryPresetsAreNotDeletable(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)
	h.install(t, "Studio Gain")

	// Cycle onto the first factory preset, then try to delete it.
	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")})
	cur, ok := h.model.inst.Presets().CurrentPreset()
	require.True(t, ok)
	require.True(t, cur.IsFactory())

	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	require.Error(t, h.model.err)
	assert.Equal(t, errors.KindInvalidDeleteTarget, errors.KindOf(h.model.err))
}

func TestHostModel_PresetCycling(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)
	h.install(t, "Studio Gain")

	factory := h.model.inst.Presets().FactoryPresets()
	require.NotEmpty(t, factory)

	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")})
	cur, ok := h.model.inst.Presets().CurrentPreset()
	require.True(t, ok)
	assert.Equal(t, factory[0], cur)

	// Backwards from the first entry wraps to the last.
	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("[")})
	cur, ok = h.model.inst.Presets().CurrentPreset()
	require.True(t, ok)
	assert.Equal(t, factory[len(factory)-1], cur)
}

func TestHostModel_FailedSelectionEmptiesSlot(t *testing.T) {
	h := newTUIHarness(t)
	h.start(t)
	h.install(t, "Studio Gain")
	require.NotNil(t, h.model.inst)

	// No wasm loader is registered in this harness, so this cannot load.
	desc := component.Description{
		Type:         component.TypeEffect,
		Subtype:      component.MustFourCC("ghst"),
		Manufacturer: component.MustFourCC("test"),
	}
	h.model.selectEntry(component.Entry{
		Desc:        &desc,
		DisplayName: "Ghost",
		Packaging:   component.PackagingWASM,
	})
	h.pumpUntil(t, func() bool { return !h.model.pending })

	require.Error(t, h.model.err)
	assert.Equal(t, errors.KindComponentNotFound, errors.KindOf(h.model.err))
	assert.Nil(t, h.model.inst, "the failed switch already tore the old instance down")
	assert.Equal(t, stateBrowse, h.model.state)
	assert.Contains(t, h.model.View(), "Error:")
}
