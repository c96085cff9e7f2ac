package subproc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/unit"
	"github.com/hostwire/plugin-host/view"
)

// tremoloUnit is a plug-in-side implementation with the full capability
// surface, served in process by the tests below.
type tremoloUnit struct {
	params *unit.ParamSet

	mu      sync.Mutex
	applied []view.Configuration
	closed  bool
}

var tremoloPresets = []struct {
	name   string
	values []float64
}{
	{"Subtle", []float64{0.2, 0.1}},
	{"Choppy", []float64{1, 0.6}},
}

func newTremoloUnit() *tremoloUnit {
	return &tremoloUnit{
		params: unit.NewParamSet(
			unit.NewParam(0, "Depth").Range(0, 100).Unit("%").Default(50).
				Formatter(unit.FormatPercent).Build(),
			unit.NewParam(1, "Rate").Range(0, 20).Unit("Hz").Default(5).
				Formatter(unit.FormatFrequency).Build(),
		),
	}
}

func (f *tremoloUnit) Info() unit.Info {
	return unit.Info{Name: "Tremolo", Manufacturer: "Hostwire", Version: "0.9.0"}
}

func (f *tremoloUnit) Params() *unit.ParamSet { return f.params }

func (f *tremoloUnit) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *tremoloUnit) wasClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *tremoloUnit) SaveState() ([]byte, error) {
	values := make(map[uint32]float64)
	for _, p := range f.params.All() {
		values[p.ID] = p.Normalized()
	}
	return json.Marshal(values)
}

func (f *tremoloUnit) LoadState(data []byte) error {
	var values map[uint32]float64
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	for id, v := range values {
		if err := f.params.SetNormalized(id, v); err != nil {
			return err
		}
	}
	return nil
}

func (f *tremoloUnit) FactoryPresetNames() []string {
	names := make([]string, len(tremoloPresets))
	for i, p := range tremoloPresets {
		names[i] = p.name
	}
	return names
}

func (f *tremoloUnit) LoadFactoryPreset(index int) error {
	if index < 0 || index >= len(tremoloPresets) {
		return errors.NotFound(errors.PhasePreset, "factory preset", fmt.Sprintf("#%d", index))
	}
	for id, v := range tremoloPresets[index].values {
		if err := f.params.SetNormalized(uint32(id), v); err != nil {
			return err
		}
	}
	return nil
}

func (f *tremoloUnit) View() tea.Model { return staticView{text: "[tremolo]"} }

func (f *tremoloUnit) SupportedViewConfigurations(candidates []view.Configuration) []view.Configuration {
	var out []view.Configuration
	for _, c := range candidates {
		if c.Width >= 40 {
			out = append(out, c)
		}
	}
	return out
}

func (f *tremoloUnit) ApplyViewConfiguration(cfg view.Configuration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, cfg)
}

func (f *tremoloUnit) appliedConfigs() []view.Configuration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]view.Configuration(nil), f.applied...)
}

type staticView struct{ text string }

func (v staticView) Init() tea.Cmd                       { return nil }
func (v staticView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }
func (v staticView) View() string                        { return v.text }

// bareUnit implements only the required unit surface.
type bareUnit struct {
	params *unit.ParamSet
}

func newBareUnit() *bareUnit {
	return &bareUnit{params: unit.NewParamSet(
		unit.NewParam(0, "Gain").Range(0, 1).Default(1).Build(),
	)}
}

func (b *bareUnit) Info() unit.Info {
	return unit.Info{Name: "Bare", Manufacturer: "Hostwire", Version: "0.1.0"}
}

func (b *bareUnit) Params() *unit.ParamSet { return b.params }

func (b *bareUnit) Close() error { return nil }

// serveLoader serves impl in process and returns a loader reattached to it,
// standing in for a launched plug-in executable.
func serveLoader(t *testing.T, impl unit.Unit) *Loader {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	reattachCh := make(chan *plugin.ReattachConfig)
	closeCh := make(chan struct{})

	go plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         pluginMap(impl),
		Logger:          hclog.NewNullLogger(),
		Test: &plugin.ServeTestConfig{
			Context:          ctx,
			ReattachConfigCh: reattachCh,
			CloseCh:          closeCh,
		},
	})

	var reattach *plugin.ReattachConfig
	select {
	case reattach = <-reattachCh:
	case <-time.After(5 * time.Second):
		t.Fatal("in-process plug-in server never came up")
	}

	t.Cleanup(func() {
		cancel()
		<-closeCh
	})

	return &Loader{reattach: reattach}
}

func loadRemote(t *testing.T, impl unit.Unit) unit.Unit {
	t.Helper()
	u, err := serveLoader(t, impl).Load(context.Background(), component.Entry{DisplayName: "Tremolo"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = u.Close() })
	return u
}

func TestLoad_MirrorsRemoteDescription(t *testing.T) {
	u := loadRemote(t, newTremoloUnit())

	info := u.Info()
	assert.Equal(t, "Tremolo", info.Name)
	assert.Equal(t, "Hostwire", info.Manufacturer)
	assert.Equal(t, "0.9.0", info.Version)

	params := u.Params()
	require.Equal(t, 2, params.Count())

	depth := params.Get(0)
	require.NotNil(t, depth)
	assert.Equal(t, "Depth", depth.Name)
	assert.Equal(t, "%", depth.Unit)
	assert.Equal(t, 0.0, depth.Min)
	assert.Equal(t, 100.0, depth.Max)
	assert.Equal(t, 0.5, depth.DefaultNormalized)
	assert.Equal(t, 0.5, depth.Normalized())
	assert.Equal(t, "50%", depth.Format())

	rate := params.Get(1)
	require.NotNil(t, rate)
	assert.Equal(t, "5.0 Hz", rate.Format())

	_, hasView := u.(unit.ViewProvider)
	assert.True(t, hasView)
}

func TestLoad_ForwardsMirrorEditsToRemote(t *testing.T) {
	impl := newTremoloUnit()
	u := loadRemote(t, impl)

	require.NoError(t, u.Params().SetNormalized(0, 0.25))

	assert.Equal(t, 0.25, impl.params.Get(0).Normalized())
}

func TestLoad_FactoryPresets(t *testing.T) {
	u := loadRemote(t, newTremoloUnit())

	fp, ok := u.(unit.FactoryPresetProvider)
	require.True(t, ok)
	assert.Equal(t, []string{"Subtle", "Choppy"}, fp.FactoryPresetNames())

	require.NoError(t, fp.LoadFactoryPreset(1))
	assert.Equal(t, 1.0, u.Params().Get(0).Normalized())
	assert.Equal(t, 0.6, u.Params().Get(1).Normalized())

	err := fp.LoadFactoryPreset(9)
	require.Error(t, err)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestLoad_StateRoundTrip(t *testing.T) {
	u := loadRemote(t, newTremoloUnit())

	require.NoError(t, u.Params().SetNormalized(0, 0.25))
	require.NoError(t, u.Params().SetNormalized(1, 0.75))

	sp, ok := u.(unit.StateProvider)
	require.True(t, ok)
	saved, err := sp.SaveState()
	require.NoError(t, err)
	require.NotEmpty(t, saved)

	require.NoError(t, u.(unit.FactoryPresetProvider).LoadFactoryPreset(0))
	assert.Equal(t, 0.2, u.Params().Get(0).Normalized())

	require.NoError(t, sp.LoadState(saved))
	assert.Equal(t, 0.25, u.Params().Get(0).Normalized())
	assert.Equal(t, 0.75, u.Params().Get(1).Normalized())
}

func TestLoad_BareUnitReportsUnsupported(t *testing.T) {
	u := loadRemote(t, newBareUnit())

	_, hasView := u.(unit.ViewProvider)
	assert.False(t, hasView)

	fp := u.(unit.FactoryPresetProvider)
	assert.Empty(t, fp.FactoryPresetNames())
	err := fp.LoadFactoryPreset(0)
	require.Error(t, err)
	assert.Equal(t, errors.KindUnsupported, errors.KindOf(err))

	sp := u.(unit.StateProvider)
	_, err = sp.SaveState()
	require.Error(t, err)
	assert.Equal(t, errors.KindUnsupported, errors.KindOf(err))

	err = sp.LoadState([]byte("{}"))
	require.Error(t, err)
	assert.Equal(t, errors.KindUnsupported, errors.KindOf(err))
}

func TestLoad_EmbeddedViewPollsFrames(t *testing.T) {
	u := loadRemote(t, newTremoloUnit())

	vp, ok := u.(unit.ViewProvider)
	require.True(t, ok)

	m := vp.View()
	cmd := m.Init()
	require.NotNil(t, cmd)

	next, tick := m.Update(cmd())
	assert.Equal(t, "[tremolo]", next.View())
	assert.NotNil(t, tick)
}

func TestLoad_ViewConfigurationNegotiation(t *testing.T) {
	impl := newTremoloUnit()
	u := loadRemote(t, impl)

	vc, ok := u.(unit.ViewConfigurable)
	require.True(t, ok)

	wide := view.Configuration{Width: 80, Height: 24, HostHasController: true}
	narrow := view.Configuration{Width: 20, Height: 10}
	supported := vc.SupportedViewConfigurations([]view.Configuration{wide, narrow})
	assert.Equal(t, []view.Configuration{wide}, supported)

	vc.ApplyViewConfiguration(wide)
	assert.Equal(t, []view.Configuration{wide}, impl.appliedConfigs())
}

func TestLoad_CloseShutsDownRemote(t *testing.T) {
	impl := newTremoloUnit()
	u := loadRemote(t, impl)

	require.NoError(t, u.Close())
	assert.True(t, impl.wasClosed())

	require.NoError(t, u.Close())

	err := u.(unit.FactoryPresetProvider).LoadFactoryPreset(0)
	require.Error(t, err)
	assert.Equal(t, errors.KindClosed, errors.KindOf(err))

	_, err = u.(unit.StateProvider).SaveState()
	require.Error(t, err)
	assert.Equal(t, errors.KindClosed, errors.KindOf(err))
}

func TestLoad_ClosedUnitFormatsNumerically(t *testing.T) {
	u := loadRemote(t, newTremoloUnit())

	depth := u.Params().Get(0)
	require.Equal(t, "50%", depth.Format())

	require.NoError(t, u.Close())
	assert.Equal(t, "50.00", depth.Format())
}

func TestLoad_MissingExecutablePath(t *testing.T) {
	_, err := NewLoader(Config{}).Load(context.Background(), component.Entry{DisplayName: "Ghost"})
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidData, errors.KindOf(err))
}

func TestLoad_MissingExecutable(t *testing.T) {
	entry := component.Entry{DisplayName: "Ghost", Path: filepath.Join(t.TempDir(), "nope")}
	_, err := NewLoader(Config{}).Load(context.Background(), entry)
	require.Error(t, err)
	assert.Equal(t, errors.KindLaunchFailed, errors.KindOf(err))
}

func TestLoad_NonExecutableArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a plug-in"), 0o644))

	_, err := NewLoader(Config{}).Load(context.Background(), component.Entry{DisplayName: "Plain", Path: path})
	require.Error(t, err)
	assert.Equal(t, errors.KindLaunchFailed, errors.KindOf(err))
}
