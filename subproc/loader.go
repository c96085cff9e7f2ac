package subproc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-plugin"
	"go.uber.org/zap"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/unit"
)

// Config holds loader-wide settings applied to every launched plug-in.
type Config struct {
	// StartTimeout bounds how long a plug-in process may take to finish
	// the handshake. 0 means the go-plugin default.
	StartTimeout time.Duration

	// Debug forwards plug-in log output to stderr at debug level.
	Debug bool
}

// Loader hosts plug-ins as child processes speaking go-plugin's net/rpc
// protocol. Each loaded unit owns its process; closing the unit kills it.
type Loader struct {
	cfg Config

	// reattach connects to an already-running plug-in instead of launching
	// an executable. Tests use it to serve plug-ins in process.
	reattach *plugin.ReattachConfig
}

// NewLoader builds the loader for binary packagings.
func NewLoader(cfg Config) *Loader {
	return &Loader{cfg: cfg}
}

// Load launches the entry's executable, completes the handshake, and
// mirrors the plug-in's self-description into a host-side unit.
func (l *Loader) Load(ctx context.Context, entry component.Entry) (unit.Unit, error) {
	if l.reattach == nil {
		if err := validateExecutable(entry); err != nil {
			return nil, err
		}
	}

	clientCfg := &plugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          pluginMap(nil),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger:           pluginLogger(l.cfg.Debug),
	}
	if l.reattach != nil {
		clientCfg.Reattach = l.reattach
	} else {
		clientCfg.Cmd = exec.Command(entry.Path)
		clientCfg.StartTimeout = l.cfg.StartTimeout
	}

	client := plugin.NewClient(clientCfg)

	ok := false
	defer func() {
		if !ok {
			client.Kill()
		}
	}()

	proto, err := client.Client()
	if err != nil {
		kind := errors.KindLaunchFailed
		if strings.Contains(err.Error(), "Incompatible API version") {
			kind = errors.KindIncompatibleVersion
		}
		return nil, errors.New(errors.PhaseSubproc, kind).
			Component(entry.DisplayName).
			Cause(err).
			Detail("handshake %s", entry.Path).
			Build()
	}

	raw, err := proto.Dispense(PluginName)
	if err != nil {
		return nil, errors.New(errors.PhaseSubproc, errors.KindLaunchFailed).
			Component(entry.DisplayName).
			Cause(err).
			Detail("dispense %q", PluginName).
			Build()
	}

	ctl, isUnit := raw.(*UnitRPC)
	if !isUnit {
		return nil, errors.New(errors.PhaseSubproc, errors.KindIncompatibleVersion).
			Component(entry.DisplayName).
			Detail("plug-in served %T, not a unit", raw).
			Build()
	}

	desc, err := ctl.Describe()
	if err != nil {
		return nil, err
	}
	if desc.Info.Name == "" {
		return nil, errors.InvalidData(errors.PhaseSubproc, "plug-in described itself without a name")
	}

	u := &remoteUnit{
		client:      client,
		ctl:         ctl,
		info:        desc.Info,
		presetNames: desc.PresetNames,
	}
	u.params = buildMirror(ctl, desc.Params, &u.closed)

	// Seed current values before watching, so the seed does not echo back.
	for _, v := range desc.Values {
		_ = u.params.SetNormalized(v.ID, v.Normalized)
	}
	u.params.Watch(u.forwardEdit)

	Logger().Info("plug-in launched",
		zap.String("component", entry.DisplayName),
		zap.String("executable", entry.Path),
		zap.Int("params", u.params.Count()),
		zap.Int("presets", len(u.presetNames)))

	ok = true
	if desc.HasView {
		return &viewRemoteUnit{remoteUnit: u}, nil
	}
	return u, nil
}

func validateExecutable(entry component.Entry) error {
	if entry.Path == "" {
		return errors.InvalidData(errors.PhaseSubproc, "entry has no executable path")
	}
	fi, err := os.Stat(entry.Path)
	if err != nil {
		return errors.LaunchFailed(entry.DisplayName, err)
	}
	if !fi.Mode().IsRegular() || fi.Mode().Perm()&0o111 == 0 {
		return errors.LaunchFailed(entry.DisplayName,
			fmt.Errorf("%s is not an executable file", entry.Path))
	}
	return nil
}

func buildMirror(ctl *UnitRPC, specs []ParamSpec, closed *atomic.Bool) *unit.ParamSet {
	params := make([]*unit.Param, 0, len(specs))
	for _, spec := range specs {
		b := unit.NewParam(spec.ID, spec.Name).
			Range(spec.Min, spec.Max).
			Unit(spec.Unit).
			Default(spec.Min + spec.DefaultNormalized*(spec.Max-spec.Min)).
			Formatter(remoteFormatter(ctl, spec, closed))
		if spec.Steps > 0 {
			b = b.Steps(spec.Steps)
		}
		params = append(params, b.Build())
	}
	return unit.NewParamSet(params...)
}

// remoteFormatter renders display strings by asking the plug-in, which owns
// the formatting logic. After close, or when the call fails, it falls back
// to a bare numeric rendering.
func remoteFormatter(ctl *UnitRPC, spec ParamSpec, closed *atomic.Bool) func(plain float64) string {
	return func(plain float64) string {
		if closed.Load() {
			return fmt.Sprintf("%.2f", plain)
		}
		normalized := 0.0
		if spec.Max > spec.Min {
			normalized = (plain - spec.Min) / (spec.Max - spec.Min)
		}
		text, err := ctl.FormatParam(spec.ID, normalized)
		if err != nil {
			return fmt.Sprintf("%.2f", plain)
		}
		return text
	}
}
