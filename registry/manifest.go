package registry

import (
	"encoding/json"
	"path/filepath"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
)

// Manifest describes one installable component. Directory sources read one
// manifest per component from <name>.plugin.json files.
type Manifest struct {
	Name             string `json:"name"`
	Manufacturer     string `json:"manufacturer"`
	Version          string `json:"version"`
	Type             string `json:"type"`
	Subtype          string `json:"subtype"`
	ManufacturerCode string `json:"manufacturer_code"`
	Packaging        string `json:"packaging"`
	Artifact         string `json:"artifact"`
	Flags            uint32 `json:"flags,omitempty"`
	HasCustomView    bool   `json:"has_custom_view,omitempty"`

	// WIT declares the control interface a wasm artifact must export.
	WIT string `json:"wit,omitempty"`
}

// ParseManifest decodes and validates manifest JSON.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.New(errors.PhaseDiscover, errors.KindInvalidData).
			Cause(err).
			Detail("malformed manifest JSON").
			Build()
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	bad := func(detail string, args ...any) error {
		return errors.New(errors.PhaseDiscover, errors.KindInvalidData).
			Component(m.Name).
			Detail(detail, args...).
			Build()
	}

	if m.Name == "" {
		return bad("manifest missing name")
	}
	if _, err := component.ParseType(m.Type); err != nil {
		return bad("manifest type: %v", err)
	}
	if _, err := component.MakeFourCC(m.Subtype); err != nil {
		return bad("manifest subtype: %v", err)
	}
	if _, err := component.MakeFourCC(m.ManufacturerCode); err != nil {
		return bad("manifest manufacturer_code: %v", err)
	}
	pkg, err := component.ParsePackaging(m.Packaging)
	if err != nil {
		return bad("manifest packaging: %v", err)
	}
	switch pkg {
	case component.PackagingBuiltin:
		return bad("builtin components register in code, not manifests")
	case component.PackagingWASM:
		if m.Artifact == "" {
			return bad("wasm manifest missing artifact")
		}
		if m.WIT == "" {
			return bad("wasm manifest missing wit interface")
		}
	case component.PackagingBinary:
		if m.Artifact == "" {
			return bad("binary manifest missing artifact")
		}
	}
	return nil
}

// Entry converts a validated manifest into a catalog entry. Relative
// artifact paths resolve against baseDir, the manifest's directory.
func (m *Manifest) Entry(baseDir string) component.Entry {
	typ, _ := component.ParseType(m.Type)
	sub, _ := component.MakeFourCC(m.Subtype)
	manu, _ := component.MakeFourCC(m.ManufacturerCode)
	pkg, _ := component.ParsePackaging(m.Packaging)

	path := m.Artifact
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	return component.Entry{
		Desc: &component.Description{
			Type:         typ,
			Subtype:      sub,
			Manufacturer: manu,
			Flags:        m.Flags,
		},
		DisplayName:      m.Name,
		ManufacturerName: m.Manufacturer,
		Version:          m.Version,
		Path:             path,
		Packaging:        pkg,
		WIT:              m.WIT,
		HasCustomView:    m.HasCustomView,
	}
}
