package unit

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hostwire/plugin-host/view"
)

// Info identifies a live unit. Units report their own identity; the catalog
// entry that produced them may carry different display strings.
type Info struct {
	Name         string
	Manufacturer string
	Version      string
}

// Unit is a live plug-in instance. Implementations are not safe for
// concurrent use; the hosting session serializes access.
type Unit interface {
	// Info reports the unit's self-described identity.
	Info() Info

	// Params exposes the unit's parameter set. The returned set is live:
	// values written through it reach the unit.
	Params() *ParamSet

	// Close releases the unit's resources. A closed unit must not be used
	// again.
	Close() error
}

// StateProvider is implemented by units whose full parameter state can be
// captured and restored as an opaque blob. Units lacking it cannot carry
// user presets.
type StateProvider interface {
	SaveState() ([]byte, error)
	LoadState(data []byte) error
}

// FactoryPresetProvider is implemented by units that ship factory presets.
// Presets are addressed by index; the index doubles as the preset number.
type FactoryPresetProvider interface {
	FactoryPresetNames() []string
	LoadFactoryPreset(index int) error
}

// ViewProvider is implemented by units that ship a custom control surface.
// View constructs a fresh surface; the host embeds it in its own program.
type ViewProvider interface {
	View() tea.Model
}

// ViewConfigurable is implemented by view providers that adapt their surface
// to host-declared geometries. SupportedViewConfigurations returns the
// subset of candidates the unit can render, preserving candidate order.
// ApplyViewConfiguration is only called with a configuration previously
// reported supported.
type ViewConfigurable interface {
	SupportedViewConfigurations(candidates []view.Configuration) []view.Configuration
	ApplyViewConfiguration(cfg view.Configuration)
}
