// Package host owns the lifecycle of the session's single live plug-in.
//
// A Session turns catalog entries into installed instances. Selection is
// asynchronous and serialized: each Select tears down the previous
// instance before the new component's resources are requested, and a later
// Select supersedes an unfinished earlier one, whose result is then
// discarded unseen. Completion callbacks are always redelivered onto the
// session's Dispatcher so presentation code stays single-threaded.
//
// # Execution locality
//
// Components run in process or out of process. The packaging constrains the
// choice: binary components always run out of process, builtin and wasm
// components always run in process. The host Policy can forbid in-process
// execution entirely, which makes builtin and wasm components fail with a
// permission error on constrained hosts.
//
// # The instance
//
// An installed Instance bundles the live unit with its preset store and
// view-configuration negotiation state. It stays valid until the next
// selection or session close tears it down.
package host
