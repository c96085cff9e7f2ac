package builtin

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/unit"
	"github.com/hostwire/plugin-host/view"
)

// Parameter identifiers for the wave synth.
const (
	synthParamWaveform uint32 = iota
	synthParamAttack
	synthParamRelease
	synthParamLevel
)

var waveformNames = []string{"Sine", "Saw", "Square", "Triangle"}

func init() {
	mustRegister(Registration{
		Desc: component.Description{
			Type:         component.TypeInstrument,
			Subtype:      component.MustFourCC("wave"),
			Manufacturer: manufacturer,
			Flags:        component.FlagSandboxSafe,
		},
		DisplayName:      "Wave Synth",
		ManufacturerName: manufacturerName,
		Version:          "1.0.0",
		HasCustomView:    true,
		Factory:          newWaveSynth,
	})
}

// waveSynth is the shipped instrument: an oscillator voice with an
// attack/release envelope, factory presets, and a strip-only view.
type waveSynth struct {
	params *unit.ParamSet
	layout *layoutState
}

var (
	_ unit.StateProvider         = (*waveSynth)(nil)
	_ unit.FactoryPresetProvider = (*waveSynth)(nil)
	_ unit.ViewProvider          = (*waveSynth)(nil)
	_ unit.ViewConfigurable      = (*waveSynth)(nil)
)

func newWaveSynth() unit.Unit {
	params := unit.NewParamSet(
		unit.NewParam(synthParamWaveform, "Waveform").
			Range(0, float64(len(waveformNames)-1)).
			Steps(int32(len(waveformNames)-1)).
			Formatter(formatWaveform).
			Build(),
		unit.NewParam(synthParamAttack, "Attack").
			Range(1, 1000).
			Default(10).
			Unit("ms").
			Formatter(unit.FormatMilliseconds).
			Build(),
		unit.NewParam(synthParamRelease, "Release").
			Range(10, 2000).
			Default(200).
			Unit("ms").
			Formatter(unit.FormatMilliseconds).
			Build(),
		unit.NewParam(synthParamLevel, "Level").
			Range(-60, 0).
			Default(-6).
			Unit("dB").
			Formatter(unit.FormatDecibel).
			Build(),
	)
	return &waveSynth{params: params, layout: &layoutState{}}
}

func formatWaveform(plain float64) string {
	i := int(plain + 0.5)
	if i < 0 || i >= len(waveformNames) {
		return "?"
	}
	return waveformNames[i]
}

func (w *waveSynth) Info() unit.Info {
	return unit.Info{Name: "Wave Synth", Manufacturer: manufacturerName, Version: "1.0.0"}
}

func (w *waveSynth) Params() *unit.ParamSet { return w.params }

func (w *waveSynth) Close() error { return nil }

func (w *waveSynth) SaveState() ([]byte, error) {
	return w.params.MarshalState(), nil
}

func (w *waveSynth) LoadState(data []byte) error {
	return w.params.UnmarshalState(data)
}

func (w *waveSynth) FactoryPresetNames() []string {
	return []string{"Init", "Soft Pad", "Pluck"}
}

func (w *waveSynth) LoadFactoryPreset(index int) error {
	switch index {
	case 0:
		w.params.ResetDefaults()
	case 1:
		_ = w.params.SetPlain(synthParamWaveform, 0)
		_ = w.params.SetPlain(synthParamAttack, 400)
		_ = w.params.SetPlain(synthParamRelease, 1200)
		_ = w.params.SetPlain(synthParamLevel, -9)
	case 2:
		_ = w.params.SetPlain(synthParamWaveform, 1)
		_ = w.params.SetPlain(synthParamAttack, 2)
		_ = w.params.SetPlain(synthParamRelease, 80)
		_ = w.params.SetPlain(synthParamLevel, -6)
	default:
		return errors.NotFound(errors.PhasePreset, "factory preset", fmt.Sprintf("#%d", index))
	}
	return nil
}

func (w *waveSynth) View() tea.Model {
	return newParamsModel("Wave Synth", w.params, w.layout)
}

// The synth view is a fixed strip; it only accepts short geometries.
func (w *waveSynth) SupportedViewConfigurations(candidates []view.Configuration) []view.Configuration {
	var out []view.Configuration
	for _, c := range candidates {
		if c.Height <= compactHeight {
			out = append(out, c)
		}
	}
	return out
}

func (w *waveSynth) ApplyViewConfiguration(cfg view.Configuration) {
	w.layout.set(cfg)
}
