package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which host operation the error occurred in
type Phase string

const (
	PhaseDiscover    Phase = "discover"    // catalog queries
	PhaseInstantiate Phase = "instantiate" // turning a descriptor into a live unit
	PhasePreset      Phase = "preset"      // preset store operations
	PhaseView        Phase = "view"        // view configuration and presentation
	PhaseGraph       Phase = "graph"       // audio graph connection and transport
	PhaseSubproc     Phase = "subproc"     // out-of-process plug-in hosting
	PhaseWASM        Phase = "wasm"        // sandboxed wasm plug-in hosting
	PhaseConfig      Phase = "config"      // host configuration
)

// Kind categorizes the error
type Kind string

const (
	KindComponentNotFound    Kind = "component_not_found"
	KindLaunchFailed         Kind = "launch_failed"
	KindIncompatibleVersion  Kind = "incompatible_version"
	KindPermissionDenied     Kind = "permission_denied"
	KindUnsupported          Kind = "unsupported"
	KindNotFound             Kind = "not_found"
	KindPersistFailed        Kind = "persist_failed"
	KindInvalidDeleteTarget  Kind = "invalid_delete_target"
	KindInvalidConfiguration Kind = "invalid_configuration"
	KindInvalidData          Kind = "invalid_data"
	KindCallFailed           Kind = "call_failed"
	KindClosed               Kind = "closed"
)

// Error is the structured error type used throughout the host
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Component string
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Component != "" {
		b.WriteString(": ")
		b.WriteString(e.Component)
	}

	if e.Detail != "" {
		if e.Component != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Component names the plug-in component the error concerns
func (b *Builder) Component(name string) *Builder {
	b.err.Component = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the instantiation taxonomy

// ComponentNotFound reports that no installed component matches a descriptor.
func ComponentNotFound(component string) *Error {
	return &Error{
		Phase:     PhaseInstantiate,
		Kind:      KindComponentNotFound,
		Component: component,
		Detail:    "no installed component matches",
	}
}

// LaunchFailed reports that a plug-in's hosting process could not start.
func LaunchFailed(component string, cause error) *Error {
	return &Error{
		Phase:     PhaseInstantiate,
		Kind:      KindLaunchFailed,
		Component: component,
		Detail:    "hosting process failed to launch",
		Cause:     cause,
	}
}

// IncompatibleVersion reports a protocol or artifact version mismatch.
func IncompatibleVersion(component string, got, want string) *Error {
	return &Error{
		Phase:     PhaseInstantiate,
		Kind:      KindIncompatibleVersion,
		Component: component,
		Detail:    fmt.Sprintf("version %s, host requires %s", got, want),
	}
}

// PermissionDenied reports an entitlement or sandbox denial.
func PermissionDenied(component string, cause error) *Error {
	return &Error{
		Phase:     PhaseInstantiate,
		Kind:      KindPermissionDenied,
		Component: component,
		Detail:    "denied by sandbox policy",
		Cause:     cause,
	}
}

// Convenience constructors for the preset taxonomy

// PresetsUnsupported reports that the unit declares no user-preset support.
func PresetsUnsupported(component string) *Error {
	return &Error{
		Phase:     PhasePreset,
		Kind:      KindUnsupported,
		Component: component,
		Detail:    "unit does not support user presets",
	}
}

// PresetNotFound reports a preset absent from the collection.
func PresetNotFound(name string, number int) *Error {
	return &Error{
		Phase:  PhasePreset,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("preset %q (%d) not found", name, number),
	}
}

// PersistFailed reports a lower-level failure persisting preset state.
func PersistFailed(name string, cause error) *Error {
	return &Error{
		Phase:  PhasePreset,
		Kind:   KindPersistFailed,
		Detail: fmt.Sprintf("persist preset %q", name),
		Cause:  cause,
	}
}

// InvalidDeleteTarget reports an attempt to delete a factory preset.
func InvalidDeleteTarget(name string, number int) *Error {
	return &Error{
		Phase:  PhasePreset,
		Kind:   KindInvalidDeleteTarget,
		Detail: fmt.Sprintf("preset %q (%d) is factory-owned and cannot be deleted", name, number),
		Value:  number,
	}
}

// General convenience constructors

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidConfiguration reports a view or host configuration the target rejects.
func InvalidConfiguration(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidConfiguration,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// CallFailed reports a guest or remote call that faulted after the
// component was already running.
func CallFailed(phase Phase, what string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCallFailed,
		Detail: fmt.Sprintf("call %s", what),
		Cause:  cause,
	}
}

// Closed reports use of a torn-down unit or session.
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// KindOf returns the Kind carried by err, or "" when err is not a host Error.
// It follows the cause chain to the outermost host Error.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// IsKind reports whether err carries the given Kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
