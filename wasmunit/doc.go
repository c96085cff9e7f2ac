// Package wasmunit hosts WebAssembly plug-in components in process.
//
// Each loaded component gets a dedicated wazero runtime, so tearing down
// the unit reclaims everything the module allocated. Catalog manifests
// declare a component's control interface as a WIT fragment; the loader
// parses the fragment, checks it covers the full control surface, and
// validates the compiled module's exports against it before the module is
// instantiated.
//
// # The control surface
//
// A hosted module exports six functions and its linear memory:
//
//	param-count:  func() -> u32
//	param-get:    func(id: u32) -> f64
//	param-set:    func(id: u32, value: f64)
//	preset-count: func() -> u32
//	preset-load:  func(index: u32) -> u32
//	describe:     func() -> u64
//
// describe returns a pointer/length pair packed into one u64, naming a
// JSON descriptor in guest memory that carries the component's identity,
// parameters, and factory preset names. Parameter values cross the
// boundary normalized to [0, 1].
//
// # The parameter mirror
//
// The host keeps its own parameter set, seeded from the guest at load
// time. Edits on the mirror are forwarded to the guest through param-set;
// after a guest-side preset load the mirror is read back with param-get.
// Guest calls are serialized, as module instances are not safe for
// concurrent use.
package wasmunit
