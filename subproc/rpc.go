package subproc

import (
	"fmt"
	"net/rpc"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-plugin"

	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/unit"
	"github.com/hostwire/plugin-host/view"
)

// PluginName is the key plug-in executables serve their unit under.
const PluginName = "unit"

// Handshake guards against the host executing a binary that merely looks
// like a plug-in. The cookie is no security boundary; it catches users
// running plug-in executables by hand.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "PLUGHOST_UNIT",
	MagicCookieValue: "d41be5278e18a2b1760c2e6cbcd18c1e",
}

func pluginMap(impl unit.Unit) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &UnitPlugin{Impl: impl},
	}
}

// Fault carries a structured failure across the process boundary. net/rpc
// flattens error values to bare strings, so replies hold the error kind
// explicitly and the host rebuilds a typed error from it.
type Fault struct {
	Kind    string
	Message string
}

func faultOf(err error) *Fault {
	if err == nil {
		return nil
	}
	kind := errors.KindOf(err)
	if kind == "" {
		kind = errors.KindCallFailed
	}
	return &Fault{Kind: string(kind), Message: err.Error()}
}

func (f *Fault) asError() error {
	if f == nil {
		return nil
	}
	return errors.New(errors.PhaseSubproc, errors.Kind(f.Kind)).
		Detail("%s", f.Message).
		Build()
}

// Empty stands in for RPC calls that carry no payload in one direction.
type Empty struct{}

// ParamSpec is the wire form of a parameter declaration. Formatters do not
// cross the boundary; the host formats through the FormatParam call.
type ParamSpec struct {
	ID                uint32
	Name              string
	Unit              string
	Min               float64
	Max               float64
	DefaultNormalized float64
	Steps             int32
}

// ParamValue is one parameter's current normalized value.
type ParamValue struct {
	ID         uint32
	Normalized float64
}

// DescribeReply is the plug-in's self-description, fetched once at launch.
type DescribeReply struct {
	Info        unit.Info
	Params      []ParamSpec
	Values      []ParamValue
	PresetNames []string
	HasView     bool
}

type ValuesReply struct {
	Values []ParamValue
	Fault  *Fault
}

type FormatArgs struct {
	ID         uint32
	Normalized float64
}

type FormatReply struct {
	Text  string
	Fault *Fault
}

type StateReply struct {
	Data  []byte
	Fault *Fault
}

type LoadStateArgs struct {
	Data []byte
}

type PresetArgs struct {
	Index int
}

type ViewConfigsArgs struct {
	Candidates []view.Configuration
}

type ViewConfigsReply struct {
	Configs []view.Configuration
	Fault   *Fault
}

type FrameReply struct {
	Frame string
	Fault *Fault
}

type AckReply struct {
	Fault *Fault
}

// UnitRPC is the host-side stub talking to a served unit.
type UnitRPC struct {
	client *rpc.Client
}

func (c *UnitRPC) Describe() (*DescribeReply, error) {
	var reply DescribeReply
	if err := c.client.Call("Plugin.Describe", Empty{}, &reply); err != nil {
		return nil, errors.CallFailed(errors.PhaseSubproc, "describe", err)
	}
	return &reply, nil
}

func (c *UnitRPC) SetParam(id uint32, normalized float64) error {
	var reply AckReply
	if err := c.client.Call("Plugin.SetParam", ParamValue{ID: id, Normalized: normalized}, &reply); err != nil {
		return errors.CallFailed(errors.PhaseSubproc, "set parameter", err)
	}
	return reply.Fault.asError()
}

func (c *UnitRPC) Values() ([]ParamValue, error) {
	var reply ValuesReply
	if err := c.client.Call("Plugin.Values", Empty{}, &reply); err != nil {
		return nil, errors.CallFailed(errors.PhaseSubproc, "read parameters", err)
	}
	return reply.Values, reply.Fault.asError()
}

func (c *UnitRPC) FormatParam(id uint32, normalized float64) (string, error) {
	var reply FormatReply
	if err := c.client.Call("Plugin.FormatParam", FormatArgs{ID: id, Normalized: normalized}, &reply); err != nil {
		return "", errors.CallFailed(errors.PhaseSubproc, "format parameter", err)
	}
	return reply.Text, reply.Fault.asError()
}

func (c *UnitRPC) SaveState() ([]byte, error) {
	var reply StateReply
	if err := c.client.Call("Plugin.SaveState", Empty{}, &reply); err != nil {
		return nil, errors.CallFailed(errors.PhaseSubproc, "save state", err)
	}
	return reply.Data, reply.Fault.asError()
}

func (c *UnitRPC) LoadState(data []byte) error {
	var reply AckReply
	if err := c.client.Call("Plugin.LoadState", LoadStateArgs{Data: data}, &reply); err != nil {
		return errors.CallFailed(errors.PhaseSubproc, "load state", err)
	}
	return reply.Fault.asError()
}

func (c *UnitRPC) LoadFactoryPreset(index int) error {
	var reply AckReply
	if err := c.client.Call("Plugin.LoadFactoryPreset", PresetArgs{Index: index}, &reply); err != nil {
		return errors.CallFailed(errors.PhaseSubproc, "load preset", err)
	}
	return reply.Fault.asError()
}

func (c *UnitRPC) SupportedViewConfigurations(candidates []view.Configuration) ([]view.Configuration, error) {
	var reply ViewConfigsReply
	if err := c.client.Call("Plugin.SupportedViewConfigurations", ViewConfigsArgs{Candidates: candidates}, &reply); err != nil {
		return nil, errors.CallFailed(errors.PhaseSubproc, "query view configurations", err)
	}
	return reply.Configs, reply.Fault.asError()
}

func (c *UnitRPC) ApplyViewConfiguration(cfg view.Configuration) error {
	var reply AckReply
	if err := c.client.Call("Plugin.ApplyViewConfiguration", cfg, &reply); err != nil {
		return errors.CallFailed(errors.PhaseSubproc, "apply view configuration", err)
	}
	return reply.Fault.asError()
}

func (c *UnitRPC) RenderFrame() (string, error) {
	var reply FrameReply
	if err := c.client.Call("Plugin.RenderFrame", Empty{}, &reply); err != nil {
		return "", errors.CallFailed(errors.PhaseSubproc, "render frame", err)
	}
	return reply.Frame, reply.Fault.asError()
}

func (c *UnitRPC) Shutdown() error {
	var reply AckReply
	if err := c.client.Call("Plugin.Shutdown", Empty{}, &reply); err != nil {
		return errors.CallFailed(errors.PhaseSubproc, "shutdown", err)
	}
	return reply.Fault.asError()
}

// UnitRPCServer is the plug-in side of the protocol, driving the served
// unit implementation on behalf of the host.
type UnitRPCServer struct {
	Impl unit.Unit

	// The embedded view model renders on demand, without a program loop
	// of its own. Built lazily on the first frame request.
	mu    sync.Mutex
	model tea.Model
}

func (s *UnitRPCServer) Describe(args Empty, reply *DescribeReply) error {
	reply.Info = s.Impl.Info()
	for _, p := range s.Impl.Params().All() {
		reply.Params = append(reply.Params, ParamSpec{
			ID:                p.ID,
			Name:              p.Name,
			Unit:              p.Unit,
			Min:               p.Min,
			Max:               p.Max,
			DefaultNormalized: p.DefaultNormalized,
			Steps:             p.StepCount,
		})
		reply.Values = append(reply.Values, ParamValue{ID: p.ID, Normalized: p.Normalized()})
	}
	if fp, ok := s.Impl.(unit.FactoryPresetProvider); ok {
		reply.PresetNames = fp.FactoryPresetNames()
	}
	_, reply.HasView = s.Impl.(unit.ViewProvider)
	return nil
}

func (s *UnitRPCServer) SetParam(args ParamValue, reply *AckReply) error {
	reply.Fault = faultOf(s.Impl.Params().SetNormalized(args.ID, args.Normalized))
	return nil
}

func (s *UnitRPCServer) Values(args Empty, reply *ValuesReply) error {
	for _, p := range s.Impl.Params().All() {
		reply.Values = append(reply.Values, ParamValue{ID: p.ID, Normalized: p.Normalized()})
	}
	return nil
}

func (s *UnitRPCServer) FormatParam(args FormatArgs, reply *FormatReply) error {
	p := s.Impl.Params().Get(args.ID)
	if p == nil {
		reply.Fault = faultOf(errors.NotFound(errors.PhaseSubproc, "parameter", fmt.Sprintf("#%d", args.ID)))
		return nil
	}
	reply.Text = p.FormatNormalized(args.Normalized)
	return nil
}

func (s *UnitRPCServer) SaveState(args Empty, reply *StateReply) error {
	sp, ok := s.Impl.(unit.StateProvider)
	if !ok {
		reply.Fault = faultOf(errors.Unsupported(errors.PhaseSubproc, "state capture"))
		return nil
	}
	data, err := sp.SaveState()
	reply.Data, reply.Fault = data, faultOf(err)
	return nil
}

func (s *UnitRPCServer) LoadState(args LoadStateArgs, reply *AckReply) error {
	sp, ok := s.Impl.(unit.StateProvider)
	if !ok {
		reply.Fault = faultOf(errors.Unsupported(errors.PhaseSubproc, "state restore"))
		return nil
	}
	reply.Fault = faultOf(sp.LoadState(args.Data))
	return nil
}

func (s *UnitRPCServer) LoadFactoryPreset(args PresetArgs, reply *AckReply) error {
	fp, ok := s.Impl.(unit.FactoryPresetProvider)
	if !ok {
		reply.Fault = faultOf(errors.PresetsUnsupported(s.Impl.Info().Name))
		return nil
	}
	reply.Fault = faultOf(fp.LoadFactoryPreset(args.Index))
	return nil
}

func (s *UnitRPCServer) SupportedViewConfigurations(args ViewConfigsArgs, reply *ViewConfigsReply) error {
	vc, ok := s.Impl.(unit.ViewConfigurable)
	if !ok {
		reply.Fault = faultOf(errors.Unsupported(errors.PhaseView, "view configuration"))
		return nil
	}
	reply.Configs = vc.SupportedViewConfigurations(args.Candidates)
	return nil
}

func (s *UnitRPCServer) ApplyViewConfiguration(args view.Configuration, reply *AckReply) error {
	vc, ok := s.Impl.(unit.ViewConfigurable)
	if !ok {
		reply.Fault = faultOf(errors.Unsupported(errors.PhaseView, "view configuration"))
		return nil
	}
	vc.ApplyViewConfiguration(args)
	return nil
}

func (s *UnitRPCServer) RenderFrame(args Empty, reply *FrameReply) error {
	vp, ok := s.Impl.(unit.ViewProvider)
	if !ok {
		reply.Fault = faultOf(errors.Unsupported(errors.PhaseView, "custom view"))
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		s.model = vp.View()
		s.model.Init()
	}
	reply.Frame = s.model.View()
	return nil
}

func (s *UnitRPCServer) Shutdown(args Empty, reply *AckReply) error {
	reply.Fault = faultOf(s.Impl.Close())
	return nil
}

// UnitPlugin wires the unit protocol into go-plugin's dispense machinery.
type UnitPlugin struct {
	Impl unit.Unit
}

func (p *UnitPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &UnitRPCServer{Impl: p.Impl}, nil
}

func (p *UnitPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &UnitRPC{client: c}, nil
}
