// Package config loads the host configuration file. Every field has a
// usable default; a missing file in the working directory is not an error,
// a path named explicitly (flag or environment) must exist.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/hostwire/plugin-host/errors"
	"github.com/hostwire/plugin-host/view"
)

const (
	// EnvConfigPath names the environment variable consulted when no
	// explicit path is given.
	EnvConfigPath = "PLUGHOST_CONFIG"

	// DefaultFile is the file name tried in the working directory.
	DefaultFile = "plughost.json"
)

// ViewCandidate is the file form of a view configuration offer.
type ViewCandidate struct {
	Width             int  `json:"width"`
	Height            int  `json:"height"`
	HostHasController bool `json:"host_has_controller"`
}

// Config carries the host-wide settings.
type Config struct {
	LogLevel string `json:"log_level"`

	// PluginDirs are scanned for component manifests.
	PluginDirs []string `json:"plugin_dirs"`

	// Denylist holds display names excluded from every catalog result.
	Denylist []string `json:"denylist"`

	// AllowInProcess permits builtin and wasm components inside the host
	// process. Constrained hosts set it false and run everything out of
	// process.
	AllowInProcess bool `json:"allow_in_process"`

	// WASMMemoryPages caps each wasm unit's memory in 64KB pages.
	WASMMemoryPages uint32 `json:"wasm_memory_pages"`

	SubprocStartTimeoutSeconds int  `json:"subproc_start_timeout_seconds"`
	SubprocDebug               bool `json:"subproc_debug"`

	// ViewCandidates are offered to view-configurable plug-ins in
	// negotiation order.
	ViewCandidates []ViewCandidate `json:"view_candidates"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		PluginDirs:      []string{"plugins"},
		AllowInProcess:  true,
		WASMMemoryPages: 64,
		ViewCandidates: []ViewCandidate{
			{Width: 80, Height: 24, HostHasController: true},
			{Width: 60, Height: 18, HostHasController: true},
			{Width: 40, Height: 12},
		},
	}
}

// Load resolves and reads the configuration. path wins when non-empty,
// then $PLUGHOST_CONFIG, then plughost.json in the working directory.
// File values overlay the defaults field by field.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
				Cause(err).
				Detail("read %s", path).
				Build()
		}
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Cause(err).
			Detail("parse %s", path).
			Build()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.InvalidConfiguration(errors.PhaseConfig,
			"log_level must be debug, info, warn, or error")
	}

	if c.SubprocStartTimeoutSeconds < 0 {
		return errors.InvalidConfiguration(errors.PhaseConfig,
			"subproc_start_timeout_seconds must not be negative")
	}

	for _, v := range c.ViewCandidates {
		if v.Width <= 0 || v.Height <= 0 {
			return errors.InvalidConfiguration(errors.PhaseConfig,
				"view candidates need a positive width and height")
		}
	}

	for _, dir := range c.PluginDirs {
		if dir == "" {
			return errors.InvalidConfiguration(errors.PhaseConfig,
				"plugin_dirs entries must not be empty")
		}
	}

	return nil
}

// ViewConfigurations returns the candidate list in negotiation order.
func (c *Config) ViewConfigurations() []view.Configuration {
	out := make([]view.Configuration, len(c.ViewCandidates))
	for i, v := range c.ViewCandidates {
		out[i] = view.Configuration{
			Width:             v.Width,
			Height:            v.Height,
			HostHasController: v.HostHasController,
		}
	}
	return out
}

// SubprocStartTimeout returns the handshake deadline for launched
// plug-ins. Zero means the go-plugin default.
func (c *Config) SubprocStartTimeout() time.Duration {
	return time.Duration(c.SubprocStartTimeoutSeconds) * time.Second
}
