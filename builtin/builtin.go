package builtin

import (
	"context"
	"sync"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/host"
	"github.com/hostwire/plugin-host/registry"
	"github.com/hostwire/plugin-host/unit"
)

// Registration binds a catalog identity to a factory producing fresh
// units. Each Load call gets its own unit; registrations are immutable
// once added.
type Registration struct {
	Desc             component.Description
	DisplayName      string
	ManufacturerName string
	Version          string
	HasCustomView    bool
	Factory          func() unit.Unit
}

// Identity shared by the shipped demo units.
var manufacturer = component.MustFourCC("hwir")

const manufacturerName = "Hostwire"

var (
	regMu sync.RWMutex
	regs  []Registration
)

// Register adds a compiled-in unit to the catalog. Registrations with a
// duplicate descriptor are rejected so two factories never compete for
// one identity. The shipped demo units register themselves in init.
func Register(r Registration) error {
	if r.Factory == nil {
		return errors.InvalidData(errors.PhaseDiscover, "registration without factory")
	}
	if r.Desc.IsWildcard() {
		return errors.InvalidData(errors.PhaseDiscover, "registration descriptor must name exactly one component")
	}
	regMu.Lock()
	defer regMu.Unlock()
	for _, have := range regs {
		if have.Desc.SameComponent(r.Desc) {
			return errors.InvalidData(errors.PhaseDiscover, "duplicate registration for "+r.Desc.String())
		}
	}
	regs = append(regs, r)
	return nil
}

// mustRegister backs the init registrations of the shipped units. A
// failure there is a programming error caught on first import.
func mustRegister(r Registration) {
	if err := Register(r); err != nil {
		panic(err)
	}
}

func registered() []Registration {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]Registration, len(regs))
	copy(out, regs)
	return out
}

func lookup(desc component.Description) (Registration, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	for _, r := range regs {
		if r.Desc.SameComponent(desc) {
			return r, true
		}
	}
	return Registration{}, false
}

// source answers catalog queries over the registration table.
type source struct{}

// Source returns the catalog source listing every registered unit.
func Source() registry.Source {
	return source{}
}

func (source) Name() string { return "builtin" }

func (source) Scan(_ context.Context, query component.Description) ([]component.Entry, error) {
	var entries []component.Entry
	for _, r := range registered() {
		if !query.Matches(r.Desc) {
			continue
		}
		desc := r.Desc
		entries = append(entries, component.Entry{
			Desc:             &desc,
			DisplayName:      r.DisplayName,
			ManufacturerName: r.ManufacturerName,
			Version:          r.Version,
			Packaging:        component.PackagingBuiltin,
			HasCustomView:    r.HasCustomView,
		})
	}
	return entries, nil
}

// loader instantiates registered units by descriptor.
type loader struct{}

// Loader returns the host loader for builtin packagings.
func Loader() host.Loader {
	return loader{}
}

func (loader) Load(_ context.Context, entry component.Entry) (unit.Unit, error) {
	if entry.Desc == nil {
		return nil, errors.ComponentNotFound(entry.DisplayName)
	}
	r, ok := lookup(*entry.Desc)
	if !ok {
		return nil, errors.ComponentNotFound(entry.DisplayName)
	}
	return r.Factory(), nil
}
