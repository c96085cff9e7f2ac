// Package unit defines the SPI implemented by live plug-in instances.
//
// A Unit exposes identity, a parameter set, and teardown. Everything else is
// a capability discovered by interface assertion:
//
//   - StateProvider: full state capture and restore, required for user presets
//   - FactoryPresetProvider: built-in presets addressed by index
//   - ViewProvider: a custom control surface as a bubbletea model
//   - ViewConfigurable: surface geometry negotiation
//
// # Parameters
//
// Parameters store their live value normalized to [0, 1] and map it into a
// plain range for display. Declaration uses a fluent builder:
//
//	cutoff := unit.NewParam(1, "Cutoff").
//	    Range(20, 20000).
//	    Default(1000).
//	    Unit("Hz").
//	    Formatter(unit.FormatFrequency).
//	    Build()
//	params := unit.NewParamSet(cutoff)
//
// All mutation flows through the ParamSet, which advances a revision counter
// and feeds an optional watcher. Preset stores use the revision to detect
// manual edits; packaging adapters use the watcher to forward edits to wasm
// or subprocess guests.
//
// # State
//
// ParamSet.MarshalState and UnmarshalState implement the versioned blob
// format most units use for StateProvider. Units with state beyond their
// parameters implement StateProvider with their own encoding.
package unit
