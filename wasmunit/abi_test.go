package wasmunit

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/wasmunit/internal/wasmgen"
)

func TestParseControlInterface_CanonicalSurface(t *testing.T) {
	sigs, err := parseControlInterface(wasmgen.ControlWIT)
	require.NoError(t, err)
	require.Len(t, sigs, len(controlSurface))

	get, ok := sigs[fnParamGet]
	require.True(t, ok)
	params, err := coreValueTypes(get.params)
	require.NoError(t, err)
	results, err := coreValueTypes(get.results)
	require.NoError(t, err)
	assert.Equal(t, []api.ValueType{api.ValueTypeI32}, params)
	assert.Equal(t, []api.ValueType{api.ValueTypeF64}, results)
}

func TestParseControlInterface_ExportKeyword(t *testing.T) {
	var b strings.Builder
	for _, line := range strings.Split(wasmgen.ControlWIT, "\n") {
		b.WriteString("export " + line + "\n")
	}
	_, err := parseControlInterface(b.String())
	require.NoError(t, err)
}

func TestParseControlInterface_CoreShapeStandIns(t *testing.T) {
	// s32 flattens to the same core type as u32, so a manifest may
	// declare either.
	_, err := parseControlInterface(strings.ReplaceAll(wasmgen.ControlWIT, "u32", "s32"))
	require.NoError(t, err)
}

func TestParseControlInterface_ExtraFunctionsAllowed(t *testing.T) {
	witText := wasmgen.ControlWIT + "\nrender: func(frames: u32) -> u32;"
	sigs, err := parseControlInterface(witText)
	require.NoError(t, err)
	assert.Contains(t, sigs, "render")
}

func TestParseControlInterface_MissingFunction(t *testing.T) {
	witText := strings.Replace(wasmgen.ControlWIT, "describe: func() -> u64;", "", 1)
	_, err := parseControlInterface(witText)
	require.Error(t, err)
	assert.Equal(t, errors.KindIncompatibleVersion, errors.KindOf(err))
}

func TestParseControlInterface_WrongShape(t *testing.T) {
	witText := strings.Replace(wasmgen.ControlWIT,
		"param-get: func(id: u32) -> f64;",
		"param-get: func(id: u32) -> f32;", 1)
	_, err := parseControlInterface(witText)
	require.Error(t, err)
	assert.Equal(t, errors.KindIncompatibleVersion, errors.KindOf(err))
}

func TestParseControlInterface_UnknownType(t *testing.T) {
	witText := strings.Replace(wasmgen.ControlWIT, "id: u32", "id: invalid-type-xyz", 1)
	_, err := parseControlInterface(witText)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidData, errors.KindOf(err))
}

func TestSplitParams(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"a: s32, b: s32", []string{"a: s32", "b: s32"}},
		{"single: u64", []string{"single: u64"}},
		{"", nil},
		{"pair: tuple<u32, f64>, z: u32", []string{"pair: tuple<u32, f64>", "z: u32"}},
		{" a : s32 , b : s32 ", []string{"a : s32", "b : s32"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, splitParams(tt.input), "input %q", tt.input)
	}
}

func TestCoreValueType(t *testing.T) {
	tests := []struct {
		typ  wit.Type
		want api.ValueType
	}{
		{wit.Bool{}, api.ValueTypeI32},
		{wit.U8{}, api.ValueTypeI32},
		{wit.S16{}, api.ValueTypeI32},
		{wit.U32{}, api.ValueTypeI32},
		{wit.Char{}, api.ValueTypeI32},
		{wit.U64{}, api.ValueTypeI64},
		{wit.S64{}, api.ValueTypeI64},
		{wit.F32{}, api.ValueTypeF32},
		{wit.F64{}, api.ValueTypeF64},
	}
	for _, tt := range tests {
		got, err := coreValueType(tt.typ)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	// Strings need a pointer/length pair, not a single core value.
	_, err := coreValueType(wit.String{})
	require.Error(t, err)
}

// wrongShapeWASM is a minimal hand-assembled module whose only export is
// "param-count" with the shape (i32, i32) -> i32.
var wrongShapeWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	// Type section: (i32, i32) -> i32
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	// Function section: func 0 uses type 0
	0x03, 0x02, 0x01, 0x00,
	// Export section: "param-count" -> func 0
	0x07, 0x0f, 0x01, 0x0b, 'p', 'a', 'r', 'a', 'm', '-', 'c', 'o', 'u', 'n', 't', 0x00, 0x00,
	// Code section: local.get 0 + local.get 1 = i32.add
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func TestValidateExports_SignatureMismatch(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)
	compiled, err := rt.CompileModule(ctx, wrongShapeWASM)
	require.NoError(t, err)

	err = validateExports(compiled, map[string]signature{fnParamCount: controlSurface[fnParamCount]})
	require.Error(t, err)
	assert.Equal(t, errors.KindIncompatibleVersion, errors.KindOf(err))
}
