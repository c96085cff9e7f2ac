package wasmunit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/hostwire/plugin-host/errors"
)

// The control ABI every hosted module exports. All six functions traffic
// in flat core values; describe hands the host a pointer/length pair
// (packed into one u64) naming a JSON descriptor in guest memory.
const (
	fnParamCount  = "param-count"
	fnParamGet    = "param-get"
	fnParamSet    = "param-set"
	fnPresetCount = "preset-count"
	fnPresetLoad  = "preset-load"
	fnDescribe    = "describe"

	memoryExport = "memory"
)

// controlSurface is the canonical signature of each required export.
var controlSurface = map[string]signature{
	fnParamCount:  {results: []wit.Type{wit.U32{}}},
	fnParamGet:    {params: []wit.Type{wit.U32{}}, results: []wit.Type{wit.F64{}}},
	fnParamSet:    {params: []wit.Type{wit.U32{}, wit.F64{}}},
	fnPresetCount: {results: []wit.Type{wit.U32{}}},
	fnPresetLoad:  {params: []wit.Type{wit.U32{}}, results: []wit.Type{wit.U32{}}},
	fnDescribe:    {results: []wit.Type{wit.U64{}}},
}

type signature struct {
	params  []wit.Type
	results []wit.Type
}

// descriptor is the JSON blob served by the guest's describe export.
type descriptor struct {
	Name         string            `json:"name"`
	Manufacturer string            `json:"manufacturer"`
	Version      string            `json:"version"`
	Params       []paramDescriptor `json:"params"`
	Presets      []string          `json:"presets,omitempty"`
}

type paramDescriptor struct {
	ID      uint32  `json:"id"`
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Unit    string  `json:"unit,omitempty"`
	Steps   int32   `json:"steps,omitempty"`
	Kind    string  `json:"kind,omitempty"`
}

// Pattern: [export] name: func(params) -> result;
var funcPattern = regexp.MustCompile(`(?:export\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

// parseControlInterface parses the manifest's WIT fragment into function
// signatures and checks it declares the complete control surface.
func parseControlInterface(witText string) (map[string]signature, error) {
	sigs := make(map[string]signature)

	for _, match := range funcPattern.FindAllStringSubmatch(witText, -1) {
		name := match[1]
		sig := signature{}

		if params := strings.TrimSpace(match[2]); params != "" {
			for _, p := range splitParams(params) {
				typStr := p
				if idx := strings.LastIndex(p, ":"); idx != -1 {
					typStr = strings.TrimSpace(p[idx+1:])
				}
				t, err := wit.ParseType(typStr)
				if err != nil {
					return nil, errors.New(errors.PhaseWASM, errors.KindInvalidData).
						Cause(err).
						Detail("parse param type %q of %s", typStr, name).
						Build()
				}
				sig.params = append(sig.params, t)
			}
		}

		if result := strings.TrimSpace(match[3]); result != "" {
			t, err := wit.ParseType(result)
			if err != nil {
				return nil, errors.New(errors.PhaseWASM, errors.KindInvalidData).
					Cause(err).
					Detail("parse result type %q of %s", result, name).
					Build()
			}
			sig.results = []wit.Type{t}
		}

		sigs[name] = sig
	}

	for name, want := range controlSurface {
		declared, ok := sigs[name]
		if !ok {
			return nil, errors.New(errors.PhaseWASM, errors.KindIncompatibleVersion).
				Detail("control interface does not declare %s", name).
				Build()
		}
		if err := sameCoreShape(name, declared, want); err != nil {
			return nil, err
		}
	}

	return sigs, nil
}

// splitParams splits a parameter list on top-level commas.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
			current.WriteRune(ch)
		case ')', '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}
	return result
}

// coreValueType flattens a WIT primitive to its core wasm representation.
func coreValueType(t wit.Type) (api.ValueType, error) {
	switch t.(type) {
	case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32, wit.Char:
		return api.ValueTypeI32, nil
	case wit.U64, wit.S64:
		return api.ValueTypeI64, nil
	case wit.F32:
		return api.ValueTypeF32, nil
	case wit.F64:
		return api.ValueTypeF64, nil
	}
	return 0, errors.InvalidData(errors.PhaseWASM,
		fmt.Sprintf("type %T does not flatten to a single core value", t))
}

func coreValueTypes(types []wit.Type) ([]api.ValueType, error) {
	out := make([]api.ValueType, len(types))
	for i, t := range types {
		vt, err := coreValueType(t)
		if err != nil {
			return nil, err
		}
		out[i] = vt
	}
	return out, nil
}

// sameCoreShape compares two signatures by their flattened core types, so
// a manifest may declare s32 where the canonical surface says u32.
func sameCoreShape(name string, declared, want signature) error {
	dp, err := coreValueTypes(declared.params)
	if err != nil {
		return err
	}
	dr, err := coreValueTypes(declared.results)
	if err != nil {
		return err
	}
	wp, _ := coreValueTypes(want.params)
	wr, _ := coreValueTypes(want.results)
	if !equalValueTypes(dp, wp) || !equalValueTypes(dr, wr) {
		return errors.New(errors.PhaseWASM, errors.KindIncompatibleVersion).
			Detail("declared signature of %s does not match the control surface", name).
			Build()
	}
	return nil
}

func equalValueTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validateExports checks the compiled module against the declared control
// interface: every declared function must be exported with the matching
// core signature, and the module must export its memory.
func validateExports(compiled wazero.CompiledModule, sigs map[string]signature) error {
	exports := compiled.ExportedFunctions()

	for name, sig := range sigs {
		def, ok := exports[name]
		if !ok {
			return errors.New(errors.PhaseWASM, errors.KindIncompatibleVersion).
				Detail("module does not export %q", name).
				Build()
		}
		wantParams, err := coreValueTypes(sig.params)
		if err != nil {
			return err
		}
		wantResults, err := coreValueTypes(sig.results)
		if err != nil {
			return err
		}
		if !equalValueTypes(def.ParamTypes(), wantParams) || !equalValueTypes(def.ResultTypes(), wantResults) {
			return errors.New(errors.PhaseWASM, errors.KindIncompatibleVersion).
				Detail("export %q does not match its declared signature", name).
				Build()
		}
	}

	if _, ok := compiled.ExportedMemories()[memoryExport]; !ok {
		return errors.New(errors.PhaseWASM, errors.KindIncompatibleVersion).
			Detail("module does not export %q", memoryExport).
			Build()
	}
	return nil
}
