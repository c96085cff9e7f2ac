// Package graph models the downstream audio graph a hosted unit is wired
// into. Sample rendering happens outside this module; the graph tracks the
// single attachment slot and the transport state the presentation layer
// drives.
package graph

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/unit"
)

// State is the transport's play state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Engine is the downstream collaborator a session connects units to.
// Implementations hold at most one attached unit.
type Engine interface {
	// Attach wires u into the graph. Attaching over an existing
	// attachment is an error; callers detach first.
	Attach(ctx context.Context, u unit.Unit) error

	// Detach removes the current attachment. Detaching an empty graph is
	// a no-op.
	Detach(ctx context.Context) error

	Play()
	Stop()

	// Toggle flips the transport and returns the new state.
	Toggle() State

	State() State
}

// Transport is an Engine that records attachment and transport state
// without rendering audio. Hosts embed it while the real signal chain
// lives elsewhere.
type Transport struct {
	mu       sync.Mutex
	attached unit.Unit
	playing  bool
}

// NewTransport returns a stopped, empty transport.
func NewTransport() *Transport {
	return &Transport{}
}

func (t *Transport) Attach(_ context.Context, u unit.Unit) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.attached != nil {
		return errors.New(errors.PhaseGraph, errors.KindUnsupported).
			Component(t.attached.Info().Name).
			Detail("graph already has an attachment").
			Build()
	}
	t.attached = u
	Logger().Info("unit attached", zap.String("unit", u.Info().Name))
	return nil
}

func (t *Transport) Detach(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.attached == nil {
		return nil
	}
	Logger().Info("unit detached", zap.String("unit", t.attached.Info().Name))
	t.attached = nil
	return nil
}

// Attached returns the unit currently wired in, or nil.
func (t *Transport) Attached() unit.Unit {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attached
}

func (t *Transport) Play() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.playing {
		t.playing = true
		Logger().Info("transport playing")
	}
}

func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.playing {
		t.playing = false
		Logger().Info("transport stopped")
	}
}

func (t *Transport) Toggle() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = !t.playing
	Logger().Info("transport toggled", zap.Stringer("state", t.stateLocked()))
	return t.stateLocked()
}

func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Transport) stateLocked() State {
	if t.playing {
		return Playing
	}
	return Stopped
}
