package host

import (
	"context"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/unit"
)

// Loader turns catalog entries of one packaging into live units. The
// builtin, wasmunit, and subproc packages each provide one.
type Loader interface {
	Load(ctx context.Context, entry component.Entry) (unit.Unit, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, entry component.Entry) (unit.Unit, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, entry component.Entry) (unit.Unit, error) {
	return f(ctx, entry)
}
