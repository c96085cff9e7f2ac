// Package plughost provides a control plane for hosting audio plug-ins in Go.
//
// The library discovers audio components, instantiates them in or out of
// process, wires them to a downstream audio graph, negotiates their view
// surfaces, and manages their presets. Sample rendering and the windowing
// toolkit stay behind interfaces; this module owns the decisions about which
// plug-in is live, where it executes, and what state it carries.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	plughost/            Root package with the Dispatcher callback contract
//	├── component/       Component descriptors, four-char codes, catalog entries
//	├── registry/        Filtered discovery over pluggable component sources
//	├── unit/            SPI implemented by live plug-in instances
//	├── host/            Session lifecycle, locality policy, selection tokens
//	├── preset/          Factory and user preset store with observers
//	├── view/            View configuration negotiation
//	├── graph/           Downstream audio graph and transport collaborator
//	├── builtin/         Go-native units compiled into the host
//	├── wasmunit/        WebAssembly units sandboxed in-process with wazero
//	├── subproc/         External plug-in binaries hosted over go-plugin RPC
//	├── errors/          Structured error types with phase and kind
//	└── config/          Host configuration file loading
//
// # Quick Start
//
// Discover effects and make one live:
//
//	session := host.NewSession(graph.NewTransport(), plughost.Sync(), host.Policy{AllowInProcess: true})
//	session.RegisterLoader(component.PackagingBuiltin, builtin.Loader())
//	defer session.Close(ctx)
//
//	reg := registry.New(builtin.Source())
//	query := component.Description{Type: component.TypeEffect}
//	reg.Discover(ctx, query, session.Dispatcher(), func(entries []component.Entry) {
//	    session.Select(ctx, entries[1], host.InProcess, func(res host.Result) {
//	        fmt.Println("installed:", res.Instance.Entry().DisplayName)
//	    })
//	})
//
// # Execution Locality
//
// Components declare a packaging (builtin, wasm, binary) and the session
// resolves where each one runs. Binary packagings always execute out of
// process; builtin and wasm packagings execute in process when the host
// policy allows it. Crashing or misbehaving plug-ins are absorbed by the
// wazero sandbox or the subprocess boundary and surface as errors, never as
// host panics.
//
// # Thread Safety
//
// Registry and Session are safe for concurrent use. A live Instance is NOT
// thread-safe; callers interact with it from the dispatcher context that
// delivered it, or synchronize access themselves.
package plughost
