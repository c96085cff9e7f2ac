// Package wasmgen emits small WebAssembly modules implementing the host's
// control ABI. Tests and examples get real loadable artifacts without a
// wasm toolchain.
//
// Generated modules keep parameter values as f64 slots in linear memory,
// serve their descriptor JSON from a data segment, and implement preset
// loading as straight-line stores of the preset's values.
package wasmgen

import (
	"encoding/json"
	"fmt"
)

// Memory layout of generated modules. The descriptor JSON sits at the
// front of the first page, parameter slots start at paramBase.
const (
	descPtr   = 8
	paramBase = 4096
)

// Section ids and opcodes, per the WebAssembly binary format.
const (
	secType   byte = 1
	secFunc   byte = 3
	secMemory byte = 5
	secExport byte = 7
	secCode   byte = 10
	secData   byte = 11

	kindFunc   byte = 0
	kindMemory byte = 2

	valI32 byte = 0x7F
	valI64 byte = 0x7E
	valF64 byte = 0x7C

	opIf       byte = 0x04
	opEnd      byte = 0x0B
	opReturn   byte = 0x0F
	opLocalGet byte = 0x20
	opF64Load  byte = 0x2B
	opF64Store byte = 0x39
	opI32Const byte = 0x41
	opI64Const byte = 0x42
	opF64Const byte = 0x44
	opI32Eq    byte = 0x46
	opI32Add   byte = 0x6A
	opI32Mul   byte = 0x6C

	blockEmpty byte = 0x40
)

// ControlWIT declares the control surface exactly as generated modules
// export it. Manifests for generated artifacts embed this fragment.
const ControlWIT = `param-count: func() -> u32;
param-get: func(id: u32) -> f64;
param-set: func(id: u32, value: f64);
preset-count: func() -> u32;
preset-load: func(index: u32) -> u32;
describe: func() -> u64;`

// Param describes one parameter of the generated module. Plain-range
// fields land in the descriptor; the guest slot holds the normalized
// default.
type Param struct {
	ID      uint32
	Name    string
	Min     float64
	Max     float64
	Default float64
	Unit    string
	Steps   int32
	Kind    string
}

func (p Param) normalizedDefault() float64 {
	if p.Max <= p.Min {
		return 0
	}
	v := (p.Default - p.Min) / (p.Max - p.Min)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Preset is a named set of normalized values, indexed like Params.
type Preset struct {
	Name   string
	Values []float64
}

// Module is the generation spec.
type Module struct {
	Name         string
	Manufacturer string
	Version      string
	Params       []Param
	Presets      []Preset

	// OmitExports drops the named exports from the export section,
	// producing modules that fail host validation on purpose.
	OmitExports []string
}

// The descriptor schema mirrors the loader's; field names must match.
type jsonDescriptor struct {
	Name         string      `json:"name"`
	Manufacturer string      `json:"manufacturer,omitempty"`
	Version      string      `json:"version,omitempty"`
	Params       []jsonParam `json:"params"`
	Presets      []string    `json:"presets,omitempty"`
}

type jsonParam struct {
	ID      uint32  `json:"id"`
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Unit    string  `json:"unit,omitempty"`
	Steps   int32   `json:"steps,omitempty"`
	Kind    string  `json:"kind,omitempty"`
}

// Encode emits the module binary.
func (m *Module) Encode() ([]byte, error) {
	for i, p := range m.Params {
		if p.ID != uint32(i) {
			return nil, fmt.Errorf("param %q: id %d must equal its position %d", p.Name, p.ID, i)
		}
	}
	for _, pr := range m.Presets {
		if len(pr.Values) != len(m.Params) {
			return nil, fmt.Errorf("preset %q: %d values for %d params", pr.Name, len(pr.Values), len(m.Params))
		}
	}

	descJSON, err := m.descriptorJSON()
	if err != nil {
		return nil, err
	}
	if len(descJSON) > paramBase-descPtr {
		return nil, fmt.Errorf("descriptor JSON is %d bytes, limit %d", len(descJSON), paramBase-descPtr)
	}

	w := &writer{}
	w.bytes([]byte{0x00, 0x61, 0x73, 0x6D}) // \0asm
	w.bytes([]byte{0x01, 0x00, 0x00, 0x00}) // version 1

	w.section(secType, m.typeSection())
	w.section(secFunc, m.funcSection())
	w.section(secMemory, m.memorySection())
	w.section(secExport, m.exportSection())
	w.section(secCode, m.codeSection(len(descJSON)))
	w.section(secData, m.dataSection(descJSON))

	return w.buf, nil
}

func (m *Module) descriptorJSON() ([]byte, error) {
	d := jsonDescriptor{
		Name:         m.Name,
		Manufacturer: m.Manufacturer,
		Version:      m.Version,
		Params:       make([]jsonParam, len(m.Params)),
	}
	for i, p := range m.Params {
		d.Params[i] = jsonParam{
			ID:      p.ID,
			Name:    p.Name,
			Min:     p.Min,
			Max:     p.Max,
			Default: p.Default,
			Unit:    p.Unit,
			Steps:   p.Steps,
			Kind:    p.Kind,
		}
	}
	for _, pr := range m.Presets {
		d.Presets = append(d.Presets, pr.Name)
	}
	return json.Marshal(d)
}

// Function index space, also the code section order.
const (
	idxParamCount = iota
	idxParamGet
	idxParamSet
	idxPresetCount
	idxPresetLoad
	idxDescribe
	funcCount
)

// Type index space.
const (
	typeNoneToI32 = iota // () -> i32
	typeI32ToF64         // (i32) -> f64
	typeI32F64           // (i32, f64) -> ()
	typeI32ToI32         // (i32) -> i32
	typeNoneToI64        // () -> i64
	typeCount
)

func (m *Module) typeSection() []byte {
	s := &writer{}
	s.uleb(typeCount)
	writeFuncType(s, nil, []byte{valI32})
	writeFuncType(s, []byte{valI32}, []byte{valF64})
	writeFuncType(s, []byte{valI32, valF64}, nil)
	writeFuncType(s, []byte{valI32}, []byte{valI32})
	writeFuncType(s, nil, []byte{valI64})
	return s.buf
}

func writeFuncType(s *writer, params, results []byte) {
	s.byte(0x60)
	s.uleb(uint64(len(params)))
	s.bytes(params)
	s.uleb(uint64(len(results)))
	s.bytes(results)
}

func (m *Module) funcSection() []byte {
	s := &writer{}
	s.uleb(funcCount)
	for _, typeIdx := range []uint64{
		typeNoneToI32, // param-count
		typeI32ToF64,  // param-get
		typeI32F64,    // param-set
		typeNoneToI32, // preset-count
		typeI32ToI32,  // preset-load
		typeNoneToI64, // describe
	} {
		s.uleb(typeIdx)
	}
	return s.buf
}

func (m *Module) memorySection() []byte {
	s := &writer{}
	s.uleb(1)    // one memory
	s.byte(0x00) // limits: min only
	s.uleb(1)    // one page
	return s.buf
}

func (m *Module) exportSection() []byte {
	type export struct {
		name string
		kind byte
		idx  uint64
	}
	all := []export{
		{"param-count", kindFunc, idxParamCount},
		{"param-get", kindFunc, idxParamGet},
		{"param-set", kindFunc, idxParamSet},
		{"preset-count", kindFunc, idxPresetCount},
		{"preset-load", kindFunc, idxPresetLoad},
		{"describe", kindFunc, idxDescribe},
		{"memory", kindMemory, 0},
	}

	omitted := make(map[string]bool, len(m.OmitExports))
	for _, name := range m.OmitExports {
		omitted[name] = true
	}

	var kept []export
	for _, e := range all {
		if !omitted[e.name] {
			kept = append(kept, e)
		}
	}

	s := &writer{}
	s.uleb(uint64(len(kept)))
	for _, e := range kept {
		s.name(e.name)
		s.byte(e.kind)
		s.uleb(e.idx)
	}
	return s.buf
}

func (m *Module) codeSection(descLen int) []byte {
	bodies := [][]byte{
		constI32Body(int64(len(m.Params))),
		m.paramGetBody(),
		m.paramSetBody(),
		constI32Body(int64(len(m.Presets))),
		m.presetLoadBody(),
		describeBody(descLen),
	}

	s := &writer{}
	s.uleb(uint64(len(bodies)))
	for _, code := range bodies {
		s.uleb(uint64(len(code) + 1))
		s.byte(0x00) // no local declarations
		s.bytes(code)
	}
	return s.buf
}

func constI32Body(v int64) []byte {
	c := &writer{}
	c.byte(opI32Const)
	c.sleb(v)
	c.byte(opEnd)
	return c.buf
}

// slotAddress leaves the parameter slot address on the stack, computed
// from the id in local 0.
func slotAddress(c *writer) {
	c.byte(opLocalGet)
	c.uleb(0)
	c.byte(opI32Const)
	c.sleb(8)
	c.byte(opI32Mul)
	c.byte(opI32Const)
	c.sleb(paramBase)
	c.byte(opI32Add)
}

func (m *Module) paramGetBody() []byte {
	c := &writer{}
	slotAddress(c)
	c.byte(opF64Load)
	c.uleb(3) // alignment
	c.uleb(0) // offset
	c.byte(opEnd)
	return c.buf
}

func (m *Module) paramSetBody() []byte {
	c := &writer{}
	slotAddress(c)
	c.byte(opLocalGet)
	c.uleb(1)
	c.byte(opF64Store)
	c.uleb(3)
	c.uleb(0)
	c.byte(opEnd)
	return c.buf
}

// presetLoadBody compares the index against each preset and installs the
// matching one with straight-line stores. Unknown indexes return 1.
func (m *Module) presetLoadBody() []byte {
	c := &writer{}
	for i, pr := range m.Presets {
		c.byte(opLocalGet)
		c.uleb(0)
		c.byte(opI32Const)
		c.sleb(int64(i))
		c.byte(opI32Eq)
		c.byte(opIf)
		c.byte(blockEmpty)
		for slot, v := range pr.Values {
			c.byte(opI32Const)
			c.sleb(int64(paramBase + slot*8))
			c.byte(opF64Const)
			c.f64(v)
			c.byte(opF64Store)
			c.uleb(3)
			c.uleb(0)
		}
		c.byte(opI32Const)
		c.sleb(0)
		c.byte(opReturn)
		c.byte(opEnd)
	}
	c.byte(opI32Const)
	c.sleb(1)
	c.byte(opEnd)
	return c.buf
}

// describeBody returns the descriptor location packed as (ptr << 32) | len.
func describeBody(descLen int) []byte {
	c := &writer{}
	c.byte(opI64Const)
	c.sleb(int64(descPtr)<<32 | int64(descLen))
	c.byte(opEnd)
	return c.buf
}

func (m *Module) dataSection(descJSON []byte) []byte {
	s := &writer{}
	s.uleb(2) // two active segments

	s.uleb(0) // segment 0: descriptor JSON
	s.byte(opI32Const)
	s.sleb(descPtr)
	s.byte(opEnd)
	s.uleb(uint64(len(descJSON)))
	s.bytes(descJSON)

	s.uleb(0) // segment 1: normalized parameter defaults
	s.byte(opI32Const)
	s.sleb(paramBase)
	s.byte(opEnd)
	defaults := &writer{}
	for _, p := range m.Params {
		defaults.f64(p.normalizedDefault())
	}
	s.uleb(uint64(len(defaults.buf)))
	s.bytes(defaults.buf)

	return s.buf
}
