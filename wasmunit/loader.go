package wasmunit

import (
	"context"
	"os"
	"strings"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/unit"
)

// Config holds loader-wide limits applied to every hosted module.
type Config struct {
	// MemoryLimitPages caps each module's memory in 64KB pages.
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

// Loader hosts wasm components in process. Each loaded unit gets its own
// wazero runtime, so closing the unit reclaims everything the module
// allocated.
type Loader struct {
	cfg Config
}

// NewLoader builds the loader for wasm packagings.
func NewLoader(cfg Config) *Loader {
	return &Loader{cfg: cfg}
}

// Load compiles the entry's artifact, validates its exports against the
// control interface the manifest declared, and adapts it to the unit SPI.
func (l *Loader) Load(ctx context.Context, entry component.Entry) (unit.Unit, error) {
	if entry.Path == "" {
		return nil, errors.InvalidData(errors.PhaseWASM, "entry has no artifact path")
	}
	if strings.TrimSpace(entry.WIT) == "" {
		return nil, errors.InvalidData(errors.PhaseWASM, "entry declares no control interface")
	}

	sigs, err := parseControlInterface(entry.WIT)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, errors.LaunchFailed(entry.DisplayName, err)
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if l.cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(l.cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	ok := false
	defer func() {
		if !ok {
			_ = rt.Close(ctx)
		}
	}()

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return nil, errors.New(errors.PhaseWASM, errors.KindLaunchFailed).
			Component(entry.DisplayName).
			Cause(err).
			Detail("compile %s", entry.Path).
			Build()
	}

	if err := validateExports(compiled, sigs); err != nil {
		return nil, err
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(entry.DisplayName))
	if err != nil {
		return nil, errors.New(errors.PhaseWASM, errors.KindLaunchFailed).
			Component(entry.DisplayName).
			Cause(err).
			Detail("instantiate").
			Build()
	}

	u, err := newWasmUnit(ctx, rt, mod)
	if err != nil {
		return nil, err
	}

	Logger().Info("module loaded",
		zap.String("component", entry.DisplayName),
		zap.String("artifact", entry.Path),
		zap.Int("params", u.params.Count()),
		zap.Int("presets", len(u.presetNames)))

	ok = true
	return u, nil
}
