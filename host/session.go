package host

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	plughost "github.com/hostwire/plugin-host"
	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/graph"
)

// SelectionToken identifies one Select call. Later calls supersede earlier
// ones; a superseded selection's result is discarded, never delivered.
type SelectionToken uint64

// Outcome distinguishes the two success shapes of a selection.
type Outcome uint8

const (
	// OutcomeInstalled means a component was instantiated and connected.
	OutcomeInstalled Outcome = iota + 1
	// OutcomeCleared means the sentinel was selected and the session now
	// holds no component.
	OutcomeCleared
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInstalled:
		return "installed"
	case OutcomeCleared:
		return "cleared"
	}
	return "unknown"
}

// Result is delivered to a Select completion callback. Err is set on
// failure; Instance is set only for OutcomeInstalled.
type Result struct {
	Outcome  Outcome
	Instance *Instance
	Err      error
}

// Session owns at most one live plug-in instance and the policy deciding
// where components run.
//
// Selection switching is sequential: teardown of the superseded instance
// completes before the next component's resources are requested, so two
// live units never contend for the session's single graph connection.
// Session methods are safe for concurrent use; completion callbacks run on
// the session's dispatcher.
type Session struct {
	engine  graph.Engine
	disp    plughost.Dispatcher
	policy  Policy
	loaders map[component.Packaging]Loader
	selects *plughost.SerialDispatcher

	mu      sync.Mutex
	token   uint64
	current *Instance
	closed  bool
}

// NewSession builds a session delivering callbacks through disp. Loaders
// are registered before the first Select.
func NewSession(engine graph.Engine, disp plughost.Dispatcher, policy Policy) *Session {
	return &Session{
		engine:  engine,
		disp:    disp,
		policy:  policy,
		loaders: make(map[component.Packaging]Loader),
		selects: plughost.NewSerialDispatcher(),
	}
}

// RegisterLoader installs the loader consulted for entries of packaging p.
// This must be called before any Select.
func (s *Session) RegisterLoader(p component.Packaging, l Loader) {
	s.loaders[p] = l
}

// Dispatcher returns the callback dispatcher the session was built with.
func (s *Session) Dispatcher() plughost.Dispatcher {
	return s.disp
}

// Engine returns the downstream graph engine.
func (s *Session) Engine() graph.Engine {
	return s.engine
}

// Current returns the installed instance, or nil when no selection is live.
func (s *Session) Current() *Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Select makes entry the session's component. It returns immediately with
// the selection's token; the outcome arrives asynchronously through the
// session dispatcher.
//
// Selecting the sentinel entry tears the current instance down and reports
// OutcomeCleared. Selecting a component tears the current instance down,
// instantiates the new one at the resolved locality, connects it to the
// graph, and reports OutcomeInstalled. On failure the session is left with
// no instance and the error is delivered in the result. If a later Select
// supersedes this one before it completes, its result is discarded and
// complete is never called.
func (s *Session) Select(ctx context.Context, entry component.Entry, locality Locality, complete func(Result)) SelectionToken {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.deliver(complete, Result{Err: errors.Closed(errors.PhaseInstantiate, "session")})
		return 0
	}
	s.token++
	tok := s.token
	s.mu.Unlock()

	s.selects.Dispatch(func() { s.performSelect(ctx, tok, entry, locality, complete) })
	return SelectionToken(tok)
}

// performSelect runs on the session's selection queue, one at a time.
func (s *Session) performSelect(ctx context.Context, tok uint64, entry component.Entry, locality Locality, complete func(Result)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	old := s.current
	s.current = nil
	s.mu.Unlock()

	s.teardown(ctx, old)

	if entry.IsSentinel() {
		if s.superseded(tok) {
			return
		}
		Logger().Info("selection cleared")
		s.deliver(complete, Result{Outcome: OutcomeCleared})
		return
	}

	inst, err := s.create(ctx, entry, locality)

	if s.superseded(tok) {
		if inst != nil {
			if cerr := inst.Close(); cerr != nil {
				Logger().Warn("superseded instance close failed",
					zap.String("component", entry.DisplayName),
					zap.Error(cerr))
			}
		}
		return
	}
	if err != nil {
		Logger().Warn("instantiation failed",
			zap.String("component", entry.DisplayName),
			zap.Error(err))
		s.deliver(complete, Result{Err: err})
		return
	}

	if aerr := s.engine.Attach(ctx, inst.Unit()); aerr != nil {
		_ = inst.Close()
		s.deliver(complete, Result{Err: aerr})
		return
	}

	s.mu.Lock()
	s.current = inst
	s.mu.Unlock()

	Logger().Info("component installed",
		zap.String("component", entry.DisplayName),
		zap.Stringer("locality", inst.Locality()))
	s.deliver(complete, Result{Outcome: OutcomeInstalled, Instance: inst})
}

// create resolves the locality and loads the unit. It does not touch the
// session's current instance.
func (s *Session) create(ctx context.Context, entry component.Entry, requested Locality) (*Instance, error) {
	if entry.Desc == nil || entry.Desc.IsWildcard() {
		return nil, errors.New(errors.PhaseInstantiate, errors.KindComponentNotFound).
			Component(entry.DisplayName).
			Detail("descriptor does not name exactly one component").
			Build()
	}

	resolved, err := resolveLocality(s.policy, entry, requested)
	if err != nil {
		return nil, err
	}

	loader, ok := s.loaders[entry.Packaging]
	if !ok {
		return nil, errors.New(errors.PhaseInstantiate, errors.KindComponentNotFound).
			Component(entry.DisplayName).
			Detail("no loader registered for %s packaging", entry.Packaging).
			Build()
	}

	u, err := loader.Load(ctx, entry)
	if err != nil {
		if errors.KindOf(err) == "" {
			err = errors.LaunchFailed(entry.DisplayName, err)
		}
		return nil, err
	}
	return newInstance(entry, resolved, u), nil
}

// superseded reports whether tok is no longer the session's newest
// selection, or the session closed underneath it.
func (s *Session) superseded(tok uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tok != s.token || s.closed
}

func (s *Session) teardown(ctx context.Context, inst *Instance) {
	if inst == nil {
		return
	}
	if err := s.engine.Detach(ctx); err != nil {
		Logger().Warn("graph detach failed", zap.Error(err))
	}
	if err := inst.Close(); err != nil {
		Logger().Warn("unit close failed",
			zap.String("component", inst.Entry().DisplayName),
			zap.Error(err))
	}
}

// RequestView asks the current unit for its custom surface. The completion
// callback runs on the session dispatcher with ok=false when no instance is
// live or the unit offers no view; in the no-instance case no plug-in is
// contacted.
func (s *Session) RequestView(ctx context.Context, complete func(m tea.Model, ok bool)) {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()

	if cur == nil {
		s.disp.Dispatch(func() { complete(nil, false) })
		return
	}
	go func() {
		m, ok := cur.View()
		if ctx.Err() != nil {
			return
		}
		s.disp.Dispatch(func() { complete(m, ok) })
	}()
}

// Close tears down the current instance and stops the session. Selections
// still queued are discarded. Closing twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.token++
	s.mu.Unlock()

	s.selects.Close()

	s.mu.Lock()
	old := s.current
	s.current = nil
	s.mu.Unlock()

	if old == nil {
		return nil
	}
	derr := s.engine.Detach(ctx)
	cerr := old.Close()
	if derr != nil {
		return derr
	}
	return cerr
}

func (s *Session) deliver(complete func(Result), r Result) {
	if complete == nil {
		return
	}
	s.disp.Dispatch(func() { complete(r) })
}
