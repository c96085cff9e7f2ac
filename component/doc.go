// Package component defines the descriptor model for installed audio
// plug-ins.
//
// A Description is the four-field identity used by the component
// registry: category type, subtype, manufacturer, and capability flags
// under a mask. Subtype and manufacturer are four-character codes
// (FourCC); the zero code is a wildcard, so a partially-filled
// Description doubles as a catalog query:
//
//	// every installed effect by any manufacturer
//	q := component.Description{Type: component.TypeEffect}
//
//	// one concrete delay unit
//	d := component.Description{
//		Type:         component.TypeEffect,
//		Subtype:      component.MustFourCC("dly4"),
//		Manufacturer: component.MustFourCC("hwir"),
//	}
//	q.Matches(d) // true
//
// An Entry pairs a Description with presentation metadata (display name,
// manufacturer name, custom-view capability) plus the packaging that
// decides which execution localities can host it. Discovery results are
// finite, immutable slices of Entry; the sentinel Entry with a nil
// Description represents "no plug-in selected" and is prepended to
// effect queries by the registry.
package component
