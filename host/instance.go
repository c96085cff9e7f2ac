package host

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/preset"
	"github.com/hostwire/plugin-host/unit"
	"github.com/hostwire/plugin-host/view"
)

// Instance is a live, installed plug-in. It is owned by exactly one session
// and torn down when a later selection supersedes it or the session closes.
//
// Apart from Close, Instance methods are not safe for concurrent use;
// callers invoke them from the dispatcher context that delivered the
// instance.
type Instance struct {
	entry    component.Entry
	locality Locality
	u        unit.Unit
	presets  *preset.Store

	reported []view.Configuration
	active   *view.Configuration

	closed atomic.Bool
}

func newInstance(entry component.Entry, locality Locality, u unit.Unit) *Instance {
	return &Instance{
		entry:    entry,
		locality: locality,
		u:        u,
		presets:  preset.NewStore(u),
	}
}

// Entry returns the catalog entry this instance was created from.
func (i *Instance) Entry() component.Entry {
	return i.entry
}

// Locality reports where the component executes.
func (i *Instance) Locality() Locality {
	return i.locality
}

// Unit exposes the live unit.
func (i *Instance) Unit() unit.Unit {
	return i.u
}

// Presets returns the instance's preset store.
func (i *Instance) Presets() *preset.Store {
	return i.presets
}

// View asks the unit for its custom control surface. ok is false when the
// unit provides none or the instance is closed.
func (i *Instance) View() (tea.Model, bool) {
	if i.closed.Load() {
		return nil, false
	}
	vp, ok := i.u.(unit.ViewProvider)
	if !ok {
		return nil, false
	}
	m := vp.View()
	if m == nil {
		return nil, false
	}
	return m, true
}

// SupportedViewConfigurations reports which of the host's candidate
// geometries the unit can render into. The result is always a subset of
// candidates, in candidate order, and becomes the reference set for
// SelectViewConfiguration. Safe to call in any state; units without
// geometry support report none.
func (i *Instance) SupportedViewConfigurations(candidates []view.Configuration) []view.Configuration {
	if i.closed.Load() {
		return nil
	}
	vc, ok := i.u.(unit.ViewConfigurable)
	if !ok {
		return nil
	}
	supported := view.Intersect(candidates, vc.SupportedViewConfigurations(candidates))
	i.reported = supported
	return supported
}

// SelectViewConfiguration switches the unit's rendered layout. Only
// configurations previously reported by SupportedViewConfigurations are
// accepted; anything else is rejected without touching the active
// configuration.
func (i *Instance) SelectViewConfiguration(cfg view.Configuration) error {
	if i.closed.Load() {
		return errors.Closed(errors.PhaseView, "instance")
	}
	if !view.Contains(i.reported, cfg) {
		return errors.InvalidConfiguration(errors.PhaseView,
			"configuration "+cfg.String()+" was not reported as supported")
	}
	i.u.(unit.ViewConfigurable).ApplyViewConfiguration(cfg)
	i.active = &cfg
	return nil
}

// ActiveViewConfiguration returns the configuration last selected
// successfully.
func (i *Instance) ActiveViewConfiguration() (view.Configuration, bool) {
	if i.active == nil {
		return view.Configuration{}, false
	}
	return *i.active, true
}

// Close releases the unit. Closing twice is a no-op. Safe for concurrent
// use; the owning session closes instances from its own goroutine.
func (i *Instance) Close() error {
	if !i.closed.CompareAndSwap(false, true) {
		return nil
	}
	return i.u.Close()
}
