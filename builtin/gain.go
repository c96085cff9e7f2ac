package builtin

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/unit"
	"github.com/hostwire/plugin-host/view"
)

// Parameter identifiers for the gain unit.
const (
	gainParamLevel uint32 = iota
	gainParamMute
)

func init() {
	mustRegister(Registration{
		Desc: component.Description{
			Type:         component.TypeEffect,
			Subtype:      component.MustFourCC("gain"),
			Manufacturer: manufacturer,
			Flags:        component.FlagSandboxSafe,
		},
		DisplayName:      "Studio Gain",
		ManufacturerName: manufacturerName,
		Version:          "1.0.0",
		HasCustomView:    true,
		Factory:          newGain,
	})
}

// gainUnit is the simplest shipped effect: one level fader and a mute
// switch, with full state and view support.
type gainUnit struct {
	params *unit.ParamSet
	layout *layoutState
}

// Capabilities are discovered by type assertion, so pin them here.
var (
	_ unit.StateProvider         = (*gainUnit)(nil)
	_ unit.FactoryPresetProvider = (*gainUnit)(nil)
	_ unit.ViewProvider          = (*gainUnit)(nil)
	_ unit.ViewConfigurable      = (*gainUnit)(nil)
)

func newGain() unit.Unit {
	params := unit.NewParamSet(
		unit.NewParam(gainParamLevel, "Level").
			Range(-60, 12).
			Default(0).
			Unit("dB").
			Formatter(unit.FormatDecibel).
			Build(),
		unit.NewParam(gainParamMute, "Mute").
			Toggle().
			Formatter(unit.FormatOnOff).
			Build(),
	)
	return &gainUnit{params: params, layout: &layoutState{}}
}

func (g *gainUnit) Info() unit.Info {
	return unit.Info{Name: "Studio Gain", Manufacturer: manufacturerName, Version: "1.0.0"}
}

func (g *gainUnit) Params() *unit.ParamSet { return g.params }

func (g *gainUnit) Close() error { return nil }

func (g *gainUnit) SaveState() ([]byte, error) {
	return g.params.MarshalState(), nil
}

func (g *gainUnit) LoadState(data []byte) error {
	return g.params.UnmarshalState(data)
}

func (g *gainUnit) FactoryPresetNames() []string {
	return []string{"Unity", "Quiet", "Hot"}
}

func (g *gainUnit) LoadFactoryPreset(index int) error {
	switch index {
	case 0:
		g.params.ResetDefaults()
	case 1:
		_ = g.params.SetPlain(gainParamLevel, -20)
		_ = g.params.SetPlain(gainParamMute, 0)
	case 2:
		_ = g.params.SetPlain(gainParamLevel, 6)
		_ = g.params.SetPlain(gainParamMute, 0)
	default:
		return errors.NotFound(errors.PhasePreset, "factory preset", fmt.Sprintf("#%d", index))
	}
	return nil
}

func (g *gainUnit) View() tea.Model {
	return newParamsModel("Studio Gain", g.params, g.layout)
}

// The gain surface reflows into any geometry the host offers.
func (g *gainUnit) SupportedViewConfigurations(candidates []view.Configuration) []view.Configuration {
	out := make([]view.Configuration, len(candidates))
	copy(out, candidates)
	return out
}

func (g *gainUnit) ApplyViewConfiguration(cfg view.Configuration) {
	g.layout.set(cfg)
}
