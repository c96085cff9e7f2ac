package preset

import "fmt"

// Preset identifies one named parameter snapshot.
//
// Factory presets carry non-negative numbers assigned by the plug-in; the
// host never mutates them. User presets carry negative numbers assigned by
// the store, and a number is never reused within a store's lifetime.
type Preset struct {
	Name   string
	Number int
}

// IsFactory reports whether the preset is plug-in-owned.
func (p Preset) IsFactory() bool {
	return p.Number >= 0
}

func (p Preset) String() string {
	return fmt.Sprintf("%s (#%d)", p.Name, p.Number)
}

// EventType distinguishes user-collection mutations.
type EventType uint8

const (
	EventSaved EventType = iota
	EventDeleted
)

// Event describes one mutation of the user preset collection.
type Event struct {
	Type   EventType
	Preset Preset
}

// Observer receives notifications after every user-collection mutation.
type Observer interface {
	OnPresetEvent(Event)
}
