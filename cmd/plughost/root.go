package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hostwire/plugin-host/builtin"
	"github.com/hostwire/plugin-host/config"
	"github.com/hostwire/plugin-host/graph"
	"github.com/hostwire/plugin-host/host"
	"github.com/hostwire/plugin-host/registry"
	"github.com/hostwire/plugin-host/subproc"
	"github.com/hostwire/plugin-host/wasmunit"
)

var (
	flagConfig  string
	flagVerbose bool
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "plughost",
		Short: "Terminal host for audio plug-in components",
		Long: `plughost discovers audio plug-in components, instantiates them in or out
of process, and drives their parameters, presets, and embedded views from
the terminal.

Components come in three packagings: built into the host binary, wasm
artifacts run in an embedded sandbox, and external executables hosted in
a child process.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"config file (default "+config.DefaultFile+" or $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"debug logging")

	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newInfoCommand())
	rootCmd.AddCommand(newHostCommand())

	return rootCmd
}

// setup loads the configuration and wires logging and the component
// registry shared by every subcommand. logPath redirects log output away
// from the terminal for commands that own the screen; empty means stderr.
func setup(logPath string) (*config.Config, *registry.Registry, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}

	logger, err := buildLogger(cfg, logPath)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	setLoggers(logger)

	reg := registry.New(builtin.Source(), registry.NewDirSource(cfg.PluginDirs...))
	reg.SetDenylist(cfg.Denylist)
	return cfg, reg, nil
}

// buildLogger is silent unless logging was asked for, so the TUI and the
// tabular commands stay clean by default.
func buildLogger(cfg *config.Config, logPath string) (*zap.Logger, error) {
	if !flagVerbose && cfg.LogLevel != "debug" {
		return zap.NewNop(), nil
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapLevel(cfg.LogLevel))
	if flagVerbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if logPath != "" {
		zc.OutputPaths = []string{logPath}
		zc.ErrorOutputPaths = []string{logPath}
	}
	return zc.Build()
}

func zapLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

func setLoggers(l *zap.Logger) {
	registry.SetLogger(l.Named("registry"))
	host.SetLogger(l.Named("host"))
	graph.SetLogger(l.Named("graph"))
	wasmunit.SetLogger(l.Named("wasm"))
	subproc.SetLogger(l.Named("subproc"))
}
