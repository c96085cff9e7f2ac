package component

import (
	"testing"
)

func TestDescription_Matches(t *testing.T) {
	delay := Description{
		Type:         TypeEffect,
		Subtype:      MustFourCC("dly4"),
		Manufacturer: MustFourCC("hwir"),
	}
	synth := Description{
		Type:         TypeInstrument,
		Subtype:      MustFourCC("wsyn"),
		Manufacturer: MustFourCC("hwir"),
	}

	tests := []struct {
		name  string
		query Description
		want  map[string]bool
	}{
		{
			name:  "type only",
			query: Description{Type: TypeEffect},
			want:  map[string]bool{"delay": true, "synth": false},
		},
		{
			name:  "manufacturer wildcard",
			query: Description{Type: TypeInstrument, Subtype: MustFourCC("wsyn")},
			want:  map[string]bool{"delay": false, "synth": true},
		},
		{
			name:  "fully wildcard",
			query: Description{},
			want:  map[string]bool{"delay": true, "synth": true},
		},
		{
			name:  "exact",
			query: delay,
			want:  map[string]bool{"delay": true, "synth": false},
		},
	}

	candidates := map[string]Description{"delay": delay, "synth": synth}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for name, d := range candidates {
				if got := tt.query.Matches(d); got != tt.want[name] {
					t.Errorf("Matches(%s) = %v, want %v", name, got, tt.want[name])
				}
			}
		})
	}
}

func TestDescription_MatchesFlags(t *testing.T) {
	query := Description{Flags: FlagSandboxSafe, FlagsMask: FlagSandboxSafe}
	safe := Description{Type: TypeEffect, Subtype: MustFourCC("gain"), Manufacturer: MustFourCC("hwir"), Flags: FlagSandboxSafe}
	unsafe := Description{Type: TypeEffect, Subtype: MustFourCC("dirt"), Manufacturer: MustFourCC("hwir")}

	if !query.Matches(safe) {
		t.Error("flagged component must match masked query")
	}
	if query.Matches(unsafe) {
		t.Error("unflagged component must not match masked query")
	}
}

func TestDescription_SameComponent(t *testing.T) {
	a := Description{Type: TypeEffect, Subtype: MustFourCC("gain"), Manufacturer: MustFourCC("hwir")}
	b := a
	b.Flags = FlagSandboxSafe
	if !a.SameComponent(b) {
		t.Error("flag difference must not change component identity")
	}
	b.Subtype = MustFourCC("dely")
	if a.SameComponent(b) {
		t.Error("different subtypes reported as the same component")
	}
}

func TestDescription_IsWildcard(t *testing.T) {
	full := Description{Type: TypeEffect, Subtype: MustFourCC("gain"), Manufacturer: MustFourCC("hwir")}
	if full.IsWildcard() {
		t.Error("fully specified description reported as wildcard")
	}
	if !(Description{Type: TypeEffect}).IsWildcard() {
		t.Error("missing subtype/manufacturer must be wildcard")
	}
	if !(Description{Subtype: MustFourCC("gain"), Manufacturer: MustFourCC("hwir")}).IsWildcard() {
		t.Error("missing type must be wildcard")
	}
}

func TestType_Code(t *testing.T) {
	if TypeEffect.Code().String() != "aufx" {
		t.Errorf("effect code = %s, want aufx", TypeEffect.Code())
	}
	if TypeInstrument.Code().String() != "aumu" {
		t.Errorf("instrument code = %s, want aumu", TypeInstrument.Code())
	}
}

func TestParseType(t *testing.T) {
	for s, want := range map[string]Type{"effect": TypeEffect, "instrument": TypeInstrument} {
		got, err := ParseType(s)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("ParseType(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseType("midi"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestParsePackaging(t *testing.T) {
	for s, want := range map[string]Packaging{
		"builtin": PackagingBuiltin,
		"wasm":    PackagingWASM,
		"binary":  PackagingBinary,
	} {
		got, err := ParsePackaging(s)
		if err != nil {
			t.Fatalf("ParsePackaging(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("ParsePackaging(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParsePackaging("jar"); err == nil {
		t.Error("expected error for unknown packaging")
	}
}

func TestEntry_Sentinel(t *testing.T) {
	sentinel := Entry{DisplayName: "(No Effect)"}
	if !sentinel.IsSentinel() {
		t.Error("nil-descriptor entry must be the sentinel")
	}
	if sentinel.String() != "(No Effect)" {
		t.Errorf("sentinel String() = %q", sentinel.String())
	}

	d := Description{Type: TypeEffect, Subtype: MustFourCC("gain"), Manufacturer: MustFourCC("hwir")}
	real := Entry{Desc: &d, DisplayName: "Gain", ManufacturerName: "Hostwire"}
	if real.IsSentinel() {
		t.Error("entry with descriptor must not be the sentinel")
	}
}
