package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	plughost "github.com/hostwire/plugin-host"
	"github.com/hostwire/plugin-host/component"
)

type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Scan(context.Context, component.Description) ([]component.Entry, error) {
	return nil, errors.New("registry daemon unreachable")
}

func effectEntry(name, subtype string, customView bool) component.Entry {
	return component.Entry{
		Desc: &component.Description{
			Type:         component.TypeEffect,
			Subtype:      component.MustFourCC(subtype),
			Manufacturer: component.MustFourCC("tstm"),
		},
		DisplayName:      name,
		ManufacturerName: "Test Manufacturer",
		Packaging:        component.PackagingBuiltin,
		HasCustomView:    customView,
	}
}

func instrumentEntry(name, subtype string) component.Entry {
	return component.Entry{
		Desc: &component.Description{
			Type:         component.TypeInstrument,
			Subtype:      component.MustFourCC(subtype),
			Manufacturer: component.MustFourCC("tstm"),
		},
		DisplayName:      name,
		ManufacturerName: "Test Manufacturer",
		Packaging:        component.PackagingBuiltin,
		HasCustomView:    true,
	}
}

func testCatalog() *StaticSource {
	return &StaticSource{Entries: []component.Entry{
		effectEntry("Zeta Drive", "zeta", true),
		effectEntry("Alpha Delay", "dly4", true),
		effectEntry("Headless EQ", "hdlq", false),
		effectEntry("Glitchy Reverb", "badv", true),
		instrumentEntry("Wave Synth", "wsyn"),
	}}
}

func TestScan_EffectQuery(t *testing.T) {
	r := New(testCatalog())
	r.SetDenylist([]string{"glitchy reverb"})

	got := r.Scan(context.Background(), component.Description{Type: component.TypeEffect})

	require.NotEmpty(t, got)
	assert.True(t, got[0].IsSentinel(), "first entry must be the sentinel")
	assert.Equal(t, "(No Effect)", got[0].DisplayName)

	names := make([]string, 0, len(got)-1)
	for _, e := range got[1:] {
		require.NotNil(t, e.Desc)
		assert.True(t, e.HasCustomView, "%s must have a custom view", e.DisplayName)
		names = append(names, e.DisplayName)
	}
	assert.Equal(t, []string{"Alpha Delay", "Zeta Drive"}, names,
		"headless and denylisted effects excluded, rest sorted by name")
}

func TestScan_InstrumentQuery(t *testing.T) {
	src := testCatalog()
	src.Entries = append(src.Entries, component.Entry{
		Desc: &component.Description{
			Type:         component.TypeInstrument,
			Subtype:      component.MustFourCC("orgn"),
			Manufacturer: component.MustFourCC("tstm"),
		},
		DisplayName: "Bare Organ",
	})
	r := New(src)

	got := r.Scan(context.Background(), component.Description{Type: component.TypeInstrument})

	require.Len(t, got, 2)
	assert.False(t, got[0].IsSentinel(), "instrument results carry no sentinel")
	for _, e := range got {
		assert.Equal(t, component.TypeInstrument, e.Desc.Type)
	}
	assert.Equal(t, "Bare Organ", got[0].DisplayName,
		"custom-view policy must not apply to instruments")
}

func TestScan_SubtypeQuery(t *testing.T) {
	r := New(testCatalog())

	got := r.Scan(context.Background(), component.Description{
		Type:    component.TypeEffect,
		Subtype: component.MustFourCC("dly4"),
	})

	require.Len(t, got, 2)
	assert.True(t, got[0].IsSentinel())
	assert.Equal(t, "Alpha Delay", got[1].DisplayName)
}

func TestScan_SourceErrorSwallowed(t *testing.T) {
	r := New(failingSource{}, testCatalog())

	got := r.Scan(context.Background(), component.Description{Type: component.TypeInstrument})
	require.Len(t, got, 1)
	assert.Equal(t, "Wave Synth", got[0].DisplayName)
}

func TestScan_AllSourcesFailing(t *testing.T) {
	r := New(failingSource{})

	got := r.Scan(context.Background(), component.Description{Type: component.TypeInstrument})
	assert.Empty(t, got, "discovery has no failure mode, only empty results")
}

func TestDiscover_DeliversOnDispatcher(t *testing.T) {
	r := New(testCatalog())

	disp := plughost.NewSerialDispatcher()
	defer disp.Close()

	done := make(chan []component.Entry, 1)
	r.Discover(context.Background(), component.Description{Type: component.TypeEffect}, disp, func(entries []component.Entry) {
		done <- entries
	})

	entries := <-done
	require.NotEmpty(t, entries)
	assert.True(t, entries[0].IsSentinel())
}

func TestAddSource(t *testing.T) {
	r := New()
	assert.Empty(t, r.Scan(context.Background(), component.Description{}))

	r.AddSource(testCatalog())
	assert.NotEmpty(t, r.Scan(context.Background(), component.Description{}))
}

func TestScan_WildcardTypeQuery(t *testing.T) {
	r := New(testCatalog())

	got := r.Scan(context.Background(), component.Description{})

	for _, e := range got {
		require.False(t, e.IsSentinel(), "untyped queries carry no sentinel")
	}
	// Headless EQ stays: the custom-view policy is effect-query specific.
	names := make([]string, len(got))
	for i, e := range got {
		names[i] = e.DisplayName
	}
	assert.Contains(t, names, "Headless EQ")
	assert.Contains(t, names, "Wave Synth")
}
