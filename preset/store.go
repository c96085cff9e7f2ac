package preset

import (
	"fmt"
	"sync"

	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/unit"
)

// Store manages the preset collections of one live unit.
//
// The factory collection is read from the unit once at construction. The
// user collection holds state snapshots captured by SaveUserPreset. All
// mutations are serialized by a store mutex; observers are notified after
// the mutation completes, outside the lock.
type Store struct {
	mu         sync.Mutex
	u          unit.Unit
	state      unit.StateProvider
	loader     unit.FactoryPresetProvider
	factory    []Preset
	user       []Preset
	blobs      map[int][]byte
	nextNumber int
	current    *Preset
	currentRev uint64

	obsMu     sync.RWMutex
	observers []Observer
}

// NewStore builds the preset store for u, probing its capabilities. Units
// without state capture cannot hold user presets; units without factory
// presets expose an empty factory collection.
func NewStore(u unit.Unit) *Store {
	s := &Store{
		u:          u,
		blobs:      make(map[int][]byte),
		nextNumber: -1,
	}
	if sp, ok := u.(unit.StateProvider); ok {
		s.state = sp
	}
	if fp, ok := u.(unit.FactoryPresetProvider); ok {
		s.loader = fp
		for i, name := range fp.FactoryPresetNames() {
			s.factory = append(s.factory, Preset{Name: name, Number: i})
		}
	}
	return s
}

// FactoryPresets returns the plug-in's built-in presets, possibly empty.
func (s *Store) FactoryPresets() []Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Preset(nil), s.factory...)
}

// UserPresets returns the host-stored presets, most recently saved first.
func (s *Store) UserPresets() []Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Preset(nil), s.user...)
}

// SupportsUserPresets reports whether the unit's state can be captured.
func (s *Store) SupportsUserPresets() bool {
	return s.state != nil
}

// SaveUserPreset captures the unit's current state under a new user preset
// carrying the next free negative number. The saved preset becomes current.
func (s *Store) SaveUserPreset(name string) (Preset, error) {
	p, err := s.save(name)
	if err != nil {
		return Preset{}, err
	}
	s.notify(Event{Type: EventSaved, Preset: p})
	return p, nil
}

func (s *Store) save(name string) (Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return Preset{}, errors.PresetsUnsupported(s.u.Info().Name)
	}
	blob, err := s.state.SaveState()
	if err != nil {
		return Preset{}, errors.PersistFailed(name, err)
	}

	p := Preset{Name: name, Number: s.nextNumber}
	s.nextNumber--
	s.user = append([]Preset{p}, s.user...)
	s.blobs[p.Number] = blob
	s.setCurrentLocked(p)
	return p, nil
}

// DeleteUserPreset removes one user preset. Factory presets are rejected
// with an invalid-delete-target error; unknown presets with not-found. The
// collection is unchanged on any failure.
func (s *Store) DeleteUserPreset(p Preset) error {
	removed, err := s.remove(p)
	if err != nil {
		return err
	}
	s.notify(Event{Type: EventDeleted, Preset: removed})
	return nil
}

func (s *Store) remove(p Preset) (Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.IsFactory() {
		return Preset{}, errors.InvalidDeleteTarget(p.Name, p.Number)
	}
	for i, q := range s.user {
		if q.Number != p.Number {
			continue
		}
		s.user = append(s.user[:i], s.user[i+1:]...)
		delete(s.blobs, q.Number)
		if s.current != nil && s.current.Number == q.Number {
			s.current = nil
		}
		return q, nil
	}
	return Preset{}, errors.PresetNotFound(p.Name, p.Number)
}

// SetCurrentPreset restores the unit's state from the given preset and
// records it as current. Presets are addressed by number; the stored name
// wins over the argument's.
func (s *Store) SetCurrentPreset(p Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.IsFactory() {
		if s.loader == nil || p.Number >= len(s.factory) {
			return errors.PresetNotFound(p.Name, p.Number)
		}
		canonical := s.factory[p.Number]
		if err := s.loader.LoadFactoryPreset(p.Number); err != nil {
			return errors.Wrap(errors.PhasePreset, errors.KindPersistFailed, err,
				fmt.Sprintf("restore factory preset %q", canonical.Name))
		}
		s.setCurrentLocked(canonical)
		return nil
	}

	blob, ok := s.blobs[p.Number]
	if !ok {
		return errors.PresetNotFound(p.Name, p.Number)
	}
	var canonical Preset
	for _, q := range s.user {
		if q.Number == p.Number {
			canonical = q
			break
		}
	}
	if err := s.state.LoadState(blob); err != nil {
		return errors.Wrap(errors.PhasePreset, errors.KindPersistFailed, err,
			fmt.Sprintf("restore user preset %q", canonical.Name))
	}
	s.setCurrentLocked(canonical)
	return nil
}

// CurrentPreset reports the preset the unit's live state came from. It
// reports none once any parameter has been edited after the preset was
// saved or restored.
func (s *Store) CurrentPreset() (Preset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Preset{}, false
	}
	if s.u.Params().Revision() != s.currentRev {
		return Preset{}, false
	}
	return *s.current, true
}

// setCurrentLocked records p and the unit revision it corresponds to.
func (s *Store) setCurrentLocked(p Preset) {
	s.current = &p
	s.currentRev = s.u.Params().Revision()
}

// Subscribe adds an observer for user-collection events.
func (s *Store) Subscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// Unsubscribe removes an observer.
func (s *Store) Unsubscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	for i, obs := range s.observers {
		if obs == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Store) notify(e Event) {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	for _, o := range s.observers {
		o.OnPresetEvent(e)
	}
}
