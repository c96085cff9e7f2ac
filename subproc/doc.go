// Package subproc hosts plug-in components as separate processes.
//
// Plug-ins are standalone executables built against this module; they call
// Serve from main and the host launches them through hashicorp/go-plugin's
// net/rpc protocol. A crashing plug-in takes its process down, not the
// host, and Close reclaims the process outright.
//
// # The wire protocol
//
// At launch the host fetches a single self-description carrying the
// plug-in's identity, parameter declarations, current values, factory
// preset names, and whether it ships a view. From then on the host keeps
// a local parameter mirror: edits forward through SetParam, and after a
// remote preset or state load the mirror is read back in one Values call.
// Display formatting stays plug-in side and is fetched per render.
//
// net/rpc flattens Go errors to strings, so every reply embeds a Fault
// holding the error kind; the host rebuilds typed errors from it and the
// usual kind checks keep working across the process boundary.
//
// # Remote views
//
// A plug-in view cannot run in the host's terminal, so the host embeds a
// stand-in model that polls the plug-in for rendered text frames. Frames
// are display only; key input is never forwarded, and parameter edits
// travel through the host's own controls.
package subproc
