package unit

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ParamSet is an ordered collection of parameters with revision tracking.
// All value mutation flows through the set; the revision counter advances on
// every accepted change, which lets preset stores detect manual edits.
type ParamSet struct {
	mu     sync.RWMutex
	params map[uint32]*Param
	order  []uint32
	watch  func(id uint32, normalized float64)

	rev atomic.Uint64
}

// NewParamSet builds a set from the given parameters. Duplicate IDs are
// skipped.
func NewParamSet(params ...*Param) *ParamSet {
	s := &ParamSet{params: make(map[uint32]*Param)}
	s.Add(params...)
	return s
}

// Add appends parameters, skipping IDs already present.
func (s *ParamSet) Add(params ...*Param) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range params {
		if _, exists := s.params[p.ID]; exists {
			continue
		}
		s.params[p.ID] = p
		s.order = append(s.order, p.ID)
	}
}

// Count returns the number of parameters.
func (s *ParamSet) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Get retrieves a parameter by ID, or nil.
func (s *ParamSet) Get(id uint32) *Param {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params[id]
}

// ByIndex retrieves a parameter by declaration order, or nil when out of
// range.
func (s *ParamSet) ByIndex(index int) *Param {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.order) {
		return nil
	}
	return s.params[s.order[index]]
}

// All returns the parameters in declaration order.
func (s *ParamSet) All() []*Param {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Param, len(s.order))
	for i, id := range s.order {
		out[i] = s.params[id]
	}
	return out
}

// SetNormalized stores a normalized value, clamped to [0, 1]. The revision
// advances and the watcher, if any, observes the accepted value.
func (s *ParamSet) SetNormalized(id uint32, normalized float64) error {
	s.mu.RLock()
	p := s.params[id]
	watch := s.watch
	s.mu.RUnlock()
	if p == nil {
		return fmt.Errorf("unknown parameter id %d", id)
	}
	p.setNormalized(normalized)
	s.rev.Add(1)
	if watch != nil {
		watch(id, p.Normalized())
	}
	return nil
}

// SetPlain stores a plain-range value, normalizing and clamping.
func (s *ParamSet) SetPlain(id uint32, plain float64) error {
	s.mu.RLock()
	p := s.params[id]
	s.mu.RUnlock()
	if p == nil {
		return fmt.Errorf("unknown parameter id %d", id)
	}
	return s.SetNormalized(id, p.Normalize(plain))
}

// ResetDefaults restores every parameter to its declared default.
func (s *ParamSet) ResetDefaults() {
	for _, p := range s.All() {
		_ = s.SetNormalized(p.ID, p.DefaultNormalized)
	}
}

// Revision returns a counter that advances on every accepted change.
func (s *ParamSet) Revision() uint64 {
	return s.rev.Load()
}

// Watch registers fn to observe accepted value changes. At most one watcher
// is held; packaging adapters use it to forward edits to the guest side.
func (s *ParamSet) Watch(fn func(id uint32, normalized float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watch = fn
}
