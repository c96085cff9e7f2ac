package host

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
)

// Locality is where a component executes relative to the host process.
type Locality uint8

const (
	// Auto lets the session resolve the locality from the component's
	// packaging and the host policy.
	Auto Locality = iota
	// InProcess runs the component inside the host process. Builtin and
	// wasm packagings only, and only when the policy allows it.
	InProcess
	// OutOfProcess runs the component in a separate process. Binary
	// packagings run here unconditionally.
	OutOfProcess
)

func (l Locality) String() string {
	switch l {
	case Auto:
		return "auto"
	case InProcess:
		return "in-process"
	case OutOfProcess:
		return "out-of-process"
	}
	return fmt.Sprintf("locality(%d)", uint8(l))
}

// Policy carries the host-wide execution constraints. Constrained hosts
// leave AllowInProcess false, forcing every component out of process.
type Policy struct {
	AllowInProcess bool
}

// resolveLocality maps a requested locality onto the one the component will
// actually get. Binary components never run in process; builtin and wasm
// components never run out of it, an out-of-process request on them is
// downgraded with a log line.
func resolveLocality(p Policy, entry component.Entry, requested Locality) (Locality, error) {
	switch entry.Packaging {
	case component.PackagingBinary:
		if requested == InProcess {
			return Auto, errors.New(errors.PhaseInstantiate, errors.KindPermissionDenied).
				Component(entry.DisplayName).
				Detail("binary components always run out of process").
				Build()
		}
		return OutOfProcess, nil

	case component.PackagingBuiltin, component.PackagingWASM:
		if requested == OutOfProcess {
			Logger().Debug("out-of-process request downgraded to in-process",
				zap.String("component", entry.DisplayName),
				zap.Stringer("packaging", entry.Packaging))
		}
		if !p.AllowInProcess {
			return Auto, errors.New(errors.PhaseInstantiate, errors.KindPermissionDenied).
				Component(entry.DisplayName).
				Detail("host policy forbids in-process execution").
				Build()
		}
		return InProcess, nil
	}

	return Auto, errors.New(errors.PhaseInstantiate, errors.KindComponentNotFound).
		Component(entry.DisplayName).
		Detail("unknown packaging %q", entry.Packaging).
		Build()
}
