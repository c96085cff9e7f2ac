// Package builtin holds the units compiled into the host binary.
//
// Units register a factory against their descriptor, usually from init.
// Source() exposes the registration table to the discovery registry and
// Loader() instantiates registered units for the session. Builtin units
// always execute in process.
//
// Three demo units ship with the host:
//
//	Studio Gain      effect      state, factory presets, reflowing view
//	Lowpass Filter   effect      bare contract, no optional capabilities
//	Wave Synth       instrument  state, factory presets, strip-only view
//
// The demo units do no signal processing; the shipped graph engine is a
// transport stub. They exist to exercise every host capability path with
// realistic parameter surfaces.
package builtin
