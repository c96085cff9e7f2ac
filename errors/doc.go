// Package errors provides structured error types for the plug-in host.
//
// Errors are categorized by Phase (which host operation failed) and Kind
// (error category). The Error type carries the component name the error
// concerns and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInstantiate, errors.KindLaunchFailed).
//		Component("SpaceVerb").
//		Detail("helper exited during handshake").
//		Cause(execErr).
//		Build()
//
// Or use convenience constructors for the taxonomies the host reports:
//
//	err := errors.ComponentNotFound("SpaceVerb")
//	err := errors.InvalidDeleteTarget("Bright Room", 3)
//
// All errors implement the standard error interface and support
// errors.Is/As; two host Errors match when Phase and Kind agree. Kind
// matching across a wrapped chain is available via IsKind:
//
//	if errors.IsKind(err, errors.KindPermissionDenied) { ... }
//
// Discovery deliberately has no error surface: catalog failures degrade
// to empty result sets (see the registry package). Instantiation and
// preset failures are returned as values and never panic across the
// asynchronous completion boundary.
package errors
