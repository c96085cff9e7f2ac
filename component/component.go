package component

import (
	"fmt"
)

// Type is the coarse component category used by catalog queries.
type Type uint8

const (
	// TypeEffect processes an incoming audio stream.
	TypeEffect Type = iota + 1
	// TypeInstrument generates audio from control events.
	TypeInstrument
)

// Code returns the category's registry code ('aufx' or 'aumu').
func (t Type) Code() FourCC {
	switch t {
	case TypeEffect:
		return MustFourCC("aufx")
	case TypeInstrument:
		return MustFourCC("aumu")
	}
	return Any
}

func (t Type) String() string {
	switch t {
	case TypeEffect:
		return "effect"
	case TypeInstrument:
		return "instrument"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ParseType converts a manifest string into a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "effect":
		return TypeEffect, nil
	case "instrument":
		return TypeInstrument, nil
	}
	return 0, fmt.Errorf("unknown component type %q", s)
}

// Packaging describes how a component's code is delivered and therefore
// which execution localities can host it.
type Packaging uint8

const (
	// PackagingBuiltin units are compiled into the host binary.
	PackagingBuiltin Packaging = iota + 1
	// PackagingWASM units are WebAssembly artifacts run in an
	// in-process sandbox.
	PackagingWASM
	// PackagingBinary units are external executables hosted in a
	// separate process.
	PackagingBinary
)

func (p Packaging) String() string {
	switch p {
	case PackagingBuiltin:
		return "builtin"
	case PackagingWASM:
		return "wasm"
	case PackagingBinary:
		return "binary"
	}
	return fmt.Sprintf("packaging(%d)", uint8(p))
}

// ParsePackaging converts a manifest string into a Packaging.
func ParsePackaging(s string) (Packaging, error) {
	switch s {
	case "builtin":
		return PackagingBuiltin, nil
	case "wasm":
		return PackagingWASM, nil
	case "binary":
		return PackagingBinary, nil
	}
	return 0, fmt.Errorf("unknown packaging %q", s)
}

// Capability flags carried by a Description, matched under a query's
// FlagsMask.
const (
	// FlagOfflineRender marks components that support faster than
	// realtime processing.
	FlagOfflineRender uint32 = 1 << 0
	// FlagSandboxSafe marks components safe to host in a restricted
	// process.
	FlagSandboxSafe uint32 = 1 << 1
)

// Description identifies one component class, or a wildcard set when
// used as a query. Values are immutable; wildcards are zero fields.
type Description struct {
	Type         Type
	Subtype      FourCC
	Manufacturer FourCC
	Flags        uint32
	FlagsMask    uint32
}

// IsWildcard reports whether any identity field is a wildcard, meaning
// the description cannot name exactly one component.
func (d Description) IsWildcard() bool {
	return d.Type == 0 || d.Subtype.IsWildcard() || d.Manufacturer.IsWildcard()
}

// Matches reports whether a query description d accepts the concrete
// description other. Zero fields on d match anything; Flags are compared
// under d's FlagsMask.
func (d Description) Matches(other Description) bool {
	if d.Type != 0 && d.Type != other.Type {
		return false
	}
	if !d.Subtype.Matches(other.Subtype) {
		return false
	}
	if !d.Manufacturer.Matches(other.Manufacturer) {
		return false
	}
	if d.FlagsMask != 0 && other.Flags&d.FlagsMask != d.Flags&d.FlagsMask {
		return false
	}
	return true
}

// SameComponent reports whether two descriptions name the same component.
// Capability flags are attributes, not identity, and are ignored.
func (d Description) SameComponent(other Description) bool {
	return d.Type == other.Type && d.Subtype == other.Subtype && d.Manufacturer == other.Manufacturer
}

func (d Description) String() string {
	return fmt.Sprintf("%s/%s/%s", d.Type.Code(), d.Subtype, d.Manufacturer)
}

// Entry is one row of a discovery result. A nil Desc marks the "no
// plug-in selected" sentinel the host prepends to effect queries.
// Entries are read-only snapshots; their lifetime is one result set.
type Entry struct {
	Desc             *Description
	DisplayName      string
	ManufacturerName string
	Version          string

	// Path locates the deliverable for wasm and binary packagings. It is
	// empty for builtin units.
	Path      string
	Packaging Packaging

	// WIT carries the declared control interface for wasm packagings,
	// used to validate the artifact's exports before instantiation.
	WIT string

	HasCustomView bool
}

// IsSentinel reports whether the entry is the "no plug-in" placeholder.
func (e Entry) IsSentinel() bool {
	return e.Desc == nil
}

func (e Entry) String() string {
	if e.IsSentinel() {
		return e.DisplayName
	}
	return fmt.Sprintf("%s (%s, %s)", e.DisplayName, e.ManufacturerName, e.Desc)
}
