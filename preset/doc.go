// Package preset stores and restores named parameter snapshots for a live
// unit.
//
// Two collections exist per store. Factory presets are declared by the
// plug-in, numbered from zero, and immutable. User presets are captured by
// the host, numbered downward from -1, and ordered most recently saved
// first. The numbering scheme guarantees the two collections never collide
// and that a user preset number is never reused, even after deletion.
//
// The current preset tracks which snapshot the unit's live state came from.
// It goes stale the moment any parameter is edited; CurrentPreset then
// reports none until a preset is saved or restored again.
//
// Observers subscribe explicitly and receive an Event after every save and
// delete. Notifications run outside the store lock, so observers may call
// back into the store.
package preset
