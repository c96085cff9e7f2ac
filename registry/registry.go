package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	plughost "github.com/hostwire/plugin-host"
	"github.com/hostwire/plugin-host/component"
)

// SentinelEntry returns the "no plug-in selected" row prepended to effect
// query results. Selecting it clears the session's current plug-in.
func SentinelEntry() component.Entry {
	return component.Entry{DisplayName: "(No Effect)"}
}

// Registry answers catalog queries over a set of component sources.
// A Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sources  []Source
	denylist map[string]struct{}
}

// New builds a registry over the given sources.
func New(sources ...Source) *Registry {
	return &Registry{sources: sources}
}

// AddSource appends a source consulted by subsequent scans.
func (r *Registry) AddSource(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, s)
}

// SetDenylist installs the display names excluded from every result set.
// Matching is case-insensitive on the whole name.
func (r *Registry) SetDenylist(names []string) {
	deny := make(map[string]struct{}, len(names))
	for _, n := range names {
		deny[strings.ToLower(n)] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denylist = deny
}

// Discover launches a background scan and delivers the result through disp.
// The completion callback always runs, possibly with an empty slice;
// discovery has no failure mode visible to callers.
func (r *Registry) Discover(ctx context.Context, query component.Description, disp plughost.Dispatcher, complete func(entries []component.Entry)) {
	go func() {
		entries := r.Scan(ctx, query)
		disp.Dispatch(func() { complete(entries) })
	}()
}

// Scan queries every source synchronously and assembles the result set.
//
// Source failures are logged and contribute nothing. Entries on the
// denylist are dropped. Effect queries additionally drop components
// without a custom view and gain the sentinel entry at position zero.
func (r *Registry) Scan(ctx context.Context, query component.Description) []component.Entry {
	r.mu.RLock()
	sources := append([]Source(nil), r.sources...)
	deny := r.denylist
	r.mu.RUnlock()

	effectQuery := query.Type == component.TypeEffect

	var out []component.Entry
	for _, src := range sources {
		entries, err := src.Scan(ctx, query)
		if err != nil {
			Logger().Warn("component source failed",
				zap.String("source", src.Name()),
				zap.String("query", query.String()),
				zap.Error(err))
			continue
		}
		for _, e := range entries {
			if e.Desc == nil || !query.Matches(*e.Desc) {
				continue
			}
			if _, denied := deny[strings.ToLower(e.DisplayName)]; denied {
				Logger().Debug("denylisted component excluded",
					zap.String("name", e.DisplayName))
				continue
			}
			if effectQuery && !e.HasCustomView {
				continue
			}
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})

	if effectQuery {
		out = append([]component.Entry{SentinelEntry()}, out...)
	}

	Logger().Debug("scan complete",
		zap.String("query", query.String()),
		zap.Int("entries", len(out)))
	return out
}
