package wasmunit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/unit"
)

// wasmUnit adapts a hosted module's control exports to the unit SPI. The
// host keeps a parameter mirror; edits on the mirror are forwarded to the
// guest, and guest-side preset loads are read back into the mirror.
//
// Guest calls are serialized by a mutex; wazero module instances are not
// safe for concurrent use.
type wasmUnit struct {
	rt     wazero.Runtime
	mod    api.Module
	info   unit.Info
	params *unit.ParamSet

	presetNames []string

	paramGet   api.Function
	paramSet   api.Function
	presetLoad api.Function

	// callCtx carries the guest call deadline for edits forwarded from
	// the parameter watch hook, which has no context of its own.
	callCtx context.Context

	mu         sync.Mutex
	refreshing atomic.Bool
	closed     atomic.Bool
}

var (
	_ unit.StateProvider         = (*wasmUnit)(nil)
	_ unit.FactoryPresetProvider = (*wasmUnit)(nil)
)

// newWasmUnit instantiates the adapter: it reads the guest's descriptor,
// builds the parameter mirror, and wires the edit forwarding.
func newWasmUnit(ctx context.Context, rt wazero.Runtime, mod api.Module) (*wasmUnit, error) {
	u := &wasmUnit{
		rt:         rt,
		mod:        mod,
		paramGet:   mod.ExportedFunction(fnParamGet),
		paramSet:   mod.ExportedFunction(fnParamSet),
		presetLoad: mod.ExportedFunction(fnPresetLoad),
		callCtx:    context.Background(),
	}

	desc, err := u.readDescriptor(ctx)
	if err != nil {
		return nil, err
	}
	u.info = unit.Info{Name: desc.Name, Manufacturer: desc.Manufacturer, Version: desc.Version}
	u.presetNames = desc.Presets

	params := make([]*unit.Param, 0, len(desc.Params))
	for _, pd := range desc.Params {
		b := unit.NewParam(pd.ID, pd.Name).
			Range(pd.Min, pd.Max).
			Default(pd.Default).
			Unit(pd.Unit)
		if pd.Steps > 0 {
			b.Steps(pd.Steps)
		}
		if f := formatterFor(pd.Kind); f != nil {
			b.Formatter(f)
		}
		params = append(params, b.Build())
	}
	u.params = unit.NewParamSet(params...)

	// Seed the mirror from the guest before the watch hook is installed,
	// so the seeding round does not echo back.
	if err := u.refreshMirror(ctx); err != nil {
		return nil, err
	}
	u.params.Watch(u.forwardEdit)

	return u, nil
}

// readDescriptor calls describe and decodes the JSON blob it points at.
func (u *wasmUnit) readDescriptor(ctx context.Context) (*descriptor, error) {
	describe := u.mod.ExportedFunction(fnDescribe)
	out, err := describe.Call(ctx)
	if err != nil {
		return nil, errors.CallFailed(errors.PhaseWASM, fnDescribe, err)
	}
	ptr := uint32(out[0] >> 32)
	length := uint32(out[0])

	mem := u.mod.ExportedMemory(memoryExport)
	data, ok := mem.Read(ptr, length)
	if !ok {
		return nil, errors.InvalidData(errors.PhaseWASM,
			fmt.Sprintf("descriptor %d+%d is outside module memory", ptr, length))
	}

	var desc descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, errors.New(errors.PhaseWASM, errors.KindInvalidData).
			Cause(err).
			Detail("decode descriptor").
			Build()
	}
	if desc.Name == "" {
		return nil, errors.InvalidData(errors.PhaseWASM, "descriptor has no name")
	}
	return &desc, nil
}

// refreshMirror reads every parameter value back from the guest. The
// refreshing flag keeps the writes from echoing through the watch hook.
func (u *wasmUnit) refreshMirror(ctx context.Context) error {
	u.refreshing.Store(true)
	defer u.refreshing.Store(false)

	for _, p := range u.params.All() {
		u.mu.Lock()
		out, err := u.paramGet.Call(ctx, uint64(p.ID))
		u.mu.Unlock()
		if err != nil {
			return errors.CallFailed(errors.PhaseWASM, fnParamGet, err)
		}
		if err := u.params.SetNormalized(p.ID, math.Float64frombits(out[0])); err != nil {
			return err
		}
	}
	return nil
}

// forwardEdit pushes a mirror edit into the guest. Watch hooks cannot
// return errors, so a faulting guest is logged and the mirror keeps the
// host-side value.
func (u *wasmUnit) forwardEdit(id uint32, normalized float64) {
	if u.refreshing.Load() || u.closed.Load() {
		return
	}
	u.mu.Lock()
	_, err := u.paramSet.Call(u.callCtx, uint64(id), math.Float64bits(normalized))
	u.mu.Unlock()
	if err != nil {
		Logger().Warn("parameter edit rejected by module",
			zap.String("component", u.info.Name),
			zap.Uint32("param", id),
			zap.Error(err))
	}
}

func (u *wasmUnit) Info() unit.Info {
	return u.info
}

func (u *wasmUnit) Params() *unit.ParamSet {
	return u.params
}

// SaveState snapshots the host-side mirror.
func (u *wasmUnit) SaveState() ([]byte, error) {
	return u.params.MarshalState(), nil
}

// LoadState restores the mirror; the watch hook forwards each restored
// value into the guest.
func (u *wasmUnit) LoadState(data []byte) error {
	return u.params.UnmarshalState(data)
}

func (u *wasmUnit) FactoryPresetNames() []string {
	out := make([]string, len(u.presetNames))
	copy(out, u.presetNames)
	return out
}

// LoadFactoryPreset asks the guest to install one of its presets, then
// reads the resulting parameter values back into the mirror.
func (u *wasmUnit) LoadFactoryPreset(index int) error {
	if u.closed.Load() {
		return errors.Closed(errors.PhaseWASM, "module")
	}
	if index < 0 || index >= len(u.presetNames) {
		return errors.NotFound(errors.PhasePreset, "factory preset", fmt.Sprintf("#%d", index))
	}

	u.mu.Lock()
	out, err := u.presetLoad.Call(u.callCtx, uint64(index))
	u.mu.Unlock()
	if err != nil {
		return errors.CallFailed(errors.PhaseWASM, fnPresetLoad, err)
	}
	if status := uint32(out[0]); status != 0 {
		return errors.New(errors.PhaseWASM, errors.KindNotFound).
			Component(u.info.Name).
			Detail("module rejected preset %d (status %d)", index, status).
			Build()
	}
	return u.refreshMirror(u.callCtx)
}

// Close tears down the module and its runtime. Closing twice is a no-op.
func (u *wasmUnit) Close() error {
	if !u.closed.CompareAndSwap(false, true) {
		return nil
	}
	return u.rt.Close(context.Background())
}

// formatterFor maps a descriptor's declared value kind onto the shared
// formatter library. Unknown kinds fall back to numeric display.
func formatterFor(kind string) func(float64) string {
	switch kind {
	case "decibel":
		return unit.FormatDecibel
	case "frequency":
		return unit.FormatFrequency
	case "percent":
		return unit.FormatPercent
	case "onoff":
		return unit.FormatOnOff
	case "milliseconds":
		return unit.FormatMilliseconds
	}
	return nil
}
