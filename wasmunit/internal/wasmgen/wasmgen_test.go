package wasmgen

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
)

func testModule() *Module {
	return &Module{
		Name:         "Test Gain",
		Manufacturer: "Hostwire",
		Version:      "1.0.0",
		Params: []Param{
			{ID: 0, Name: "Level", Min: -60, Max: 12, Default: 0, Unit: "dB", Kind: "decibel"},
			{ID: 1, Name: "Mute", Min: 0, Max: 1, Default: 0, Steps: 1, Kind: "onoff"},
		},
		Presets: []Preset{
			{Name: "Unity", Values: []float64{60.0 / 72.0, 0}},
			{Name: "Hot", Values: []float64{1, 1}},
		},
	}
}

// compile encodes m and runs it through wazero's decoder, which rejects
// malformed binaries outright.
func compile(t *testing.T, m *Module) (wazero.Runtime, wazero.CompiledModule) {
	t.Helper()
	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })
	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	return rt, compiled
}

func TestEncodeHeader(t *testing.T) {
	data, err := testModule().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(data[:4], []byte{0x00, 0x61, 0x73, 0x6D}) {
		t.Error("invalid magic number")
	}
	if !bytes.Equal(data[4:8], []byte{0x01, 0x00, 0x00, 0x00}) {
		t.Error("invalid version")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := testModule().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := testModule().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Encode is not deterministic")
	}
}

func TestEncodeRejectsSparseParamIDs(t *testing.T) {
	m := testModule()
	m.Params[1].ID = 7
	if _, err := m.Encode(); err == nil {
		t.Error("expected error for out-of-position param id")
	}
}

func TestEncodeRejectsPresetArity(t *testing.T) {
	m := testModule()
	m.Presets[0].Values = []float64{0.5}
	if _, err := m.Encode(); err == nil {
		t.Error("expected error for preset value count mismatch")
	}
}

func TestEncodeRejectsOversizeDescriptor(t *testing.T) {
	m := testModule()
	m.Name = strings.Repeat("x", paramBase)
	if _, err := m.Encode(); err == nil {
		t.Error("expected error for oversize descriptor")
	}
}

func TestNormalizedDefault(t *testing.T) {
	tests := []struct {
		param Param
		want  float64
	}{
		{Param{Min: 0, Max: 10, Default: 5}, 0.5},
		{Param{Min: -60, Max: 12, Default: 12}, 1},
		{Param{Min: 0, Max: 10, Default: -3}, 0},
		{Param{Min: 0, Max: 10, Default: 42}, 1},
		{Param{Min: 5, Max: 5, Default: 5}, 0},
	}

	for _, tt := range tests {
		if got := tt.param.normalizedDefault(); got != tt.want {
			t.Errorf("normalizedDefault(%+v): got %v, want %v", tt.param, got, tt.want)
		}
	}
}

func TestCompiledExports(t *testing.T) {
	_, compiled := compile(t, testModule())

	fns := compiled.ExportedFunctions()
	for _, name := range []string{"param-count", "param-get", "param-set", "preset-count", "preset-load", "describe"} {
		if _, ok := fns[name]; !ok {
			t.Errorf("missing function export %q", name)
		}
	}
	if _, ok := compiled.ExportedMemories()["memory"]; !ok {
		t.Error("missing memory export")
	}
}

func TestOmitExports(t *testing.T) {
	m := testModule()
	m.OmitExports = []string{"describe", "memory"}
	_, compiled := compile(t, m)

	if _, ok := compiled.ExportedFunctions()["describe"]; ok {
		t.Error("describe export should be omitted")
	}
	if _, ok := compiled.ExportedMemories()["memory"]; ok {
		t.Error("memory export should be omitted")
	}
}

func TestGeneratedModuleBehavior(t *testing.T) {
	ctx := context.Background()
	rt, compiled := compile(t, testModule())
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		t.Fatalf("InstantiateModule: %v", err)
	}

	call := func(name string, args ...uint64) []uint64 {
		t.Helper()
		out, err := mod.ExportedFunction(name).Call(ctx, args...)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		return out
	}

	if out := call("param-count"); out[0] != 2 {
		t.Errorf("param-count: got %d, want 2", out[0])
	}
	if out := call("preset-count"); out[0] != 2 {
		t.Errorf("preset-count: got %d, want 2", out[0])
	}

	// Defaults are seeded normalized by the data segment.
	if got := math.Float64frombits(call("param-get", 0)[0]); got != 60.0/72.0 {
		t.Errorf("param-get 0: got %v, want %v", got, 60.0/72.0)
	}
	if got := math.Float64frombits(call("param-get", 1)[0]); got != 0 {
		t.Errorf("param-get 1: got %v, want 0", got)
	}

	// Writes land in the addressed slot only.
	call("param-set", 1, math.Float64bits(0.25))
	if got := math.Float64frombits(call("param-get", 1)[0]); got != 0.25 {
		t.Errorf("param-get 1 after set: got %v, want 0.25", got)
	}
	if got := math.Float64frombits(call("param-get", 0)[0]); got != 60.0/72.0 {
		t.Errorf("param-get 0 after set: got %v, want %v", got, 60.0/72.0)
	}

	// Loading a preset installs its values and reports success.
	if out := call("preset-load", 1); out[0] != 0 {
		t.Fatalf("preset-load 1: got status %d, want 0", out[0])
	}
	if got := math.Float64frombits(call("param-get", 0)[0]); got != 1 {
		t.Errorf("param-get 0 after preset: got %v, want 1", got)
	}
	if got := math.Float64frombits(call("param-get", 1)[0]); got != 1 {
		t.Errorf("param-get 1 after preset: got %v, want 1", got)
	}
	if out := call("preset-load", 9); out[0] != 1 {
		t.Errorf("preset-load 9: got status %d, want 1", out[0])
	}

	// describe packs the descriptor location as (ptr << 32) | len.
	packed := call("describe")[0]
	ptr, length := uint32(packed>>32), uint32(packed)
	if ptr != descPtr {
		t.Errorf("describe ptr: got %d, want %d", ptr, descPtr)
	}
	raw, ok := mod.Memory().Read(ptr, length)
	if !ok {
		t.Fatalf("memory read at %d+%d failed", ptr, length)
	}
	var desc jsonDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	if desc.Name != "Test Gain" {
		t.Errorf("descriptor name: got %q, want %q", desc.Name, "Test Gain")
	}
	if len(desc.Params) != 2 || desc.Params[1].Steps != 1 {
		t.Errorf("descriptor params: got %+v", desc.Params)
	}
	if len(desc.Presets) != 2 || desc.Presets[0] != "Unity" {
		t.Errorf("descriptor presets: got %v", desc.Presets)
	}
}

func TestEncodeNoPresets(t *testing.T) {
	ctx := context.Background()
	m := testModule()
	m.Presets = nil
	rt, compiled := compile(t, m)
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		t.Fatalf("InstantiateModule: %v", err)
	}

	out, err := mod.ExportedFunction("preset-count").Call(ctx)
	if err != nil {
		t.Fatalf("preset-count: %v", err)
	}
	if out[0] != 0 {
		t.Errorf("preset-count: got %d, want 0", out[0])
	}

	out, err = mod.ExportedFunction("preset-load").Call(ctx, 0)
	if err != nil {
		t.Fatalf("preset-load: %v", err)
	}
	if out[0] != 1 {
		t.Errorf("preset-load 0: got status %d, want 1", out[0])
	}
}
