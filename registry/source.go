package registry

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hostwire/plugin-host/component"
)

// ManifestSuffix names the files a directory source treats as component
// manifests.
const ManifestSuffix = ".plugin.json"

// Source supplies catalog entries for one installation mechanism. Scan
// returns the entries matching the query; implementations may also return
// a superset, the registry filters again.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	Scan(ctx context.Context, query component.Description) ([]component.Entry, error)
}

// DirSource discovers wasm and binary components by walking directories for
// *.plugin.json manifests.
type DirSource struct {
	dirs []string
}

// NewDirSource builds a source over the given directories. Missing
// directories are skipped at scan time.
func NewDirSource(dirs ...string) *DirSource {
	return &DirSource{dirs: dirs}
}

func (s *DirSource) Name() string {
	return "dirs(" + strings.Join(s.dirs, ",") + ")"
}

// Scan walks every directory and parses each manifest found. Manifests that
// fail to parse are logged and skipped; a missing directory is not an error.
func (s *DirSource) Scan(ctx context.Context, query component.Description) ([]component.Entry, error) {
	var out []component.Entry
	for _, dir := range s.dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ManifestSuffix) {
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				Logger().Warn("unreadable manifest",
					zap.String("path", path),
					zap.Error(err))
				return nil
			}
			m, err := ParseManifest(data)
			if err != nil {
				Logger().Warn("skipping manifest",
					zap.String("path", path),
					zap.Error(err))
				return nil
			}

			entry := m.Entry(filepath.Dir(path))
			if query.Matches(*entry.Desc) {
				out = append(out, entry)
			}
			return nil
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// StaticSource serves a fixed entry list. Useful in tests and for hosts
// that assemble their catalog by other means.
type StaticSource struct {
	SourceName string
	Entries    []component.Entry
}

func (s *StaticSource) Name() string {
	if s.SourceName == "" {
		return "static"
	}
	return s.SourceName
}

func (s *StaticSource) Scan(_ context.Context, query component.Description) ([]component.Entry, error) {
	var out []component.Entry
	for _, e := range s.Entries {
		if e.Desc != nil && query.Matches(*e.Desc) {
			out = append(out, e)
		}
	}
	return out, nil
}
