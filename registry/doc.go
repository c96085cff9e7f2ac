// Package registry discovers installed audio components.
//
// A Registry fans a descriptor query out to its Sources, merges the
// answers, and applies host policy: denylisted display names are excluded,
// effect results are limited to components with custom views, and effect
// result sets start with the "(No Effect)" sentinel whose selection clears
// the session.
//
// Discovery is tolerant by construction. A failing source or unreadable
// manifest costs its own entries and a log line, never the scan. Callers
// therefore receive a possibly-empty result, not an error.
//
// Shipped sources: DirSource walks directories for *.plugin.json manifests
// describing wasm and binary components; the builtin package contributes a
// source for units compiled into the host; StaticSource serves a fixed
// list.
package registry
