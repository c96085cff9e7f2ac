package subproc

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-plugin"
	"go.uber.org/zap"

	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/unit"
	"github.com/hostwire/plugin-host/view"
)

// remoteUnit adapts a dispensed plug-in to the unit SPI. The host-side
// parameter set mirrors the remote one; edits forward over RPC, and state
// or preset loads pull the resulting values back.
type remoteUnit struct {
	client *plugin.Client
	ctl    *UnitRPC

	info        unit.Info
	params      *unit.ParamSet
	presetNames []string

	// refreshing suppresses edit forwarding while the mirror is being
	// rewritten from remote values.
	refreshing atomic.Bool
	closed     atomic.Bool
}

var (
	_ unit.Unit                  = (*remoteUnit)(nil)
	_ unit.StateProvider         = (*remoteUnit)(nil)
	_ unit.FactoryPresetProvider = (*remoteUnit)(nil)
	_ unit.ViewProvider          = (*viewRemoteUnit)(nil)
	_ unit.ViewConfigurable      = (*viewRemoteUnit)(nil)
)

func (u *remoteUnit) Info() unit.Info { return u.info }

func (u *remoteUnit) Params() *unit.ParamSet { return u.params }

func (u *remoteUnit) forwardEdit(id uint32, normalized float64) {
	if u.refreshing.Load() || u.closed.Load() {
		return
	}
	if err := u.ctl.SetParam(id, normalized); err != nil {
		Logger().Warn("parameter edit lost",
			zap.Uint32("param", id),
			zap.Error(err))
	}
}

// refreshMirror rewrites the host-side values from the remote ones without
// echoing them back over RPC.
func (u *remoteUnit) refreshMirror() error {
	values, err := u.ctl.Values()
	if err != nil {
		return err
	}
	u.refreshing.Store(true)
	defer u.refreshing.Store(false)
	for _, v := range values {
		_ = u.params.SetNormalized(v.ID, v.Normalized)
	}
	return nil
}

func (u *remoteUnit) SaveState() ([]byte, error) {
	if u.closed.Load() {
		return nil, errors.Closed(errors.PhaseSubproc, "plug-in")
	}
	return u.ctl.SaveState()
}

func (u *remoteUnit) LoadState(data []byte) error {
	if u.closed.Load() {
		return errors.Closed(errors.PhaseSubproc, "plug-in")
	}
	if err := u.ctl.LoadState(data); err != nil {
		return err
	}
	return u.refreshMirror()
}

func (u *remoteUnit) FactoryPresetNames() []string {
	names := make([]string, len(u.presetNames))
	copy(names, u.presetNames)
	return names
}

func (u *remoteUnit) LoadFactoryPreset(index int) error {
	if u.closed.Load() {
		return errors.Closed(errors.PhaseSubproc, "plug-in")
	}
	if err := u.ctl.LoadFactoryPreset(index); err != nil {
		return err
	}
	return u.refreshMirror()
}

// Close asks the remote side to shut down, then kills the process. Kill
// also reclaims plug-ins whose shutdown call failed.
func (u *remoteUnit) Close() error {
	if !u.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := u.ctl.Shutdown(); err != nil {
		Logger().Warn("plug-in shutdown failed", zap.Error(err))
	}
	u.client.Kill()
	return nil
}

// viewRemoteUnit adds the view surface for plug-ins that declared one.
// Remote views render frames only; key input stays with the host.
type viewRemoteUnit struct {
	*remoteUnit
}

func (u *viewRemoteUnit) View() tea.Model {
	return newFrameModel(u.ctl.RenderFrame)
}

func (u *viewRemoteUnit) SupportedViewConfigurations(candidates []view.Configuration) []view.Configuration {
	configs, err := u.ctl.SupportedViewConfigurations(candidates)
	if err != nil {
		Logger().Warn("view configuration query failed", zap.Error(err))
		return nil
	}
	return configs
}

func (u *viewRemoteUnit) ApplyViewConfiguration(cfg view.Configuration) {
	if err := u.ctl.ApplyViewConfiguration(cfg); err != nil {
		Logger().Warn("view configuration rejected", zap.Error(err))
	}
}
