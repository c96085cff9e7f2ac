package builtin

import (
	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/unit"
)

// Parameter identifiers for the lowpass unit.
const (
	lowpassParamCutoff uint32 = iota
	lowpassParamResonance
)

func init() {
	mustRegister(Registration{
		Desc: component.Description{
			Type:         component.TypeEffect,
			Subtype:      component.MustFourCC("lopa"),
			Manufacturer: manufacturer,
			Flags:        component.FlagSandboxSafe | component.FlagOfflineRender,
		},
		DisplayName:      "Lowpass Filter",
		ManufacturerName: manufacturerName,
		Version:          "1.0.0",
		Factory:          newLowpass,
	})
}

// lowpassUnit deliberately implements nothing beyond the core contract:
// no view, no state, no factory presets. It keeps the host's
// missing-capability paths honest.
type lowpassUnit struct {
	params *unit.ParamSet
}

func newLowpass() unit.Unit {
	params := unit.NewParamSet(
		unit.NewParam(lowpassParamCutoff, "Cutoff").
			Range(20, 20000).
			Default(1000).
			Unit("Hz").
			Formatter(unit.FormatFrequency).
			Build(),
		unit.NewParam(lowpassParamResonance, "Resonance").
			Range(0, 100).
			Default(10).
			Unit("%").
			Formatter(unit.FormatPercent).
			Build(),
	)
	return &lowpassUnit{params: params}
}

func (l *lowpassUnit) Info() unit.Info {
	return unit.Info{Name: "Lowpass Filter", Manufacturer: manufacturerName, Version: "1.0.0"}
}

func (l *lowpassUnit) Params() *unit.ParamSet { return l.params }

func (l *lowpassUnit) Close() error { return nil }
