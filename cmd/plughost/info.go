package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hostwire/plugin-host/component"
	"github.com/hostwire/plugin-host/errors"
)

func newInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <name>",
		Short: "Show one component in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := setup("")
			if err != nil {
				return err
			}

			name := args[0]
			for _, e := range reg.Scan(cmd.Context(), component.Description{}) {
				if e.IsSentinel() || !strings.EqualFold(e.DisplayName, name) {
					continue
				}
				printEntry(e)
				return nil
			}
			return errors.New(errors.PhaseDiscover, errors.KindComponentNotFound).
				Component(name).
				Detail("no such component in the catalog").
				Build()
		},
	}
	return cmd
}

func printEntry(e component.Entry) {
	fmt.Printf("Name:          %s\n", e.DisplayName)
	fmt.Printf("Manufacturer:  %s\n", e.ManufacturerName)
	fmt.Printf("Version:       %s\n", e.Version)
	fmt.Printf("Descriptor:    %s\n", e.Desc)
	fmt.Printf("Flags:         0x%08x\n", e.Desc.Flags)
	fmt.Printf("Packaging:     %s\n", e.Packaging)
	if e.Path != "" {
		fmt.Printf("Path:          %s\n", e.Path)
	}
	fmt.Printf("Custom view:   %v\n", e.HasCustomView)
	if e.WIT != "" {
		fmt.Printf("Control interface:\n%s\n", indent(e.WIT, "  "))
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
