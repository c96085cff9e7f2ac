package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hostwire/plugin-host/builtin"
	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/config"
	"github.com/hostwire/plugin-host/graph"
	"github.com/hostwire/plugin-host/host"
	"github.com/hostwire/plugin-host/registry"
	"github.com/hostwire/plugin-host/subproc"
	"github.com/hostwire/plugin-host/wasmunit"
)

func newHostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Run the interactive host",
		Long: `host opens a full-screen browser over the component catalog. Selecting
an entry instantiates it, connects it to the transport, and switches to a
control panel for its parameters, presets, and embedded view.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The TUI owns the terminal, so logs go to a file.
			cfg, reg, err := setup("plughost.log")
			if err != nil {
				return err
			}
			return runHost(cmd.Context(), cfg, reg)
		},
	}
	return cmd
}

func runHost(ctx context.Context, cfg *config.Config, reg *registry.Registry) error {
	disp := newProgramDispatcher()
	session := host.NewSession(graph.NewTransport(), disp, host.Policy{
		AllowInProcess: cfg.AllowInProcess,
	})
	session.RegisterLoader(component.PackagingBuiltin, builtin.Loader())
	session.RegisterLoader(component.PackagingWASM, wasmunit.NewLoader(wasmunit.Config{
		MemoryLimitPages: cfg.WASMMemoryPages,
	}))
	session.RegisterLoader(component.PackagingBinary, subproc.NewLoader(subproc.Config{
		StartTimeout: cfg.SubprocStartTimeout(),
		Debug:        cfg.SubprocDebug,
	}))

	p := tea.NewProgram(newHostModel(ctx, cfg, reg, session), tea.WithAltScreen())
	disp.bind(p)

	_, runErr := p.Run()
	closeErr := session.Close(ctx)
	if runErr != nil {
		return runErr
	}
	return closeErr
}
