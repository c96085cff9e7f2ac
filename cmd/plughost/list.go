package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hostwire/plugin-host/component"
)

var (
	listHeadStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB"))
	listNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	listDimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func newListCommand() *cobra.Command {
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed components",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := setup("")
			if err != nil {
				return err
			}

			var query component.Description
			if typeFilter != "" {
				t, err := component.ParseType(typeFilter)
				if err != nil {
					return err
				}
				query.Type = t
			}

			entries := reg.Scan(cmd.Context(), query)

			// Styling is for humans; pipes get plain columns.
			fd := int(os.Stdout.Fd())
			styled := term.IsTerminal(fd)
			width := 120
			if styled {
				if w, _, err := term.GetSize(fd); err == nil && w > 0 {
					width = w
				}
			}

			printed := 0
			header := fmt.Sprintf("%-28s %-18s %-10s %-12s %-8s %s",
				"NAME", "MANUFACTURER", "VERSION", "TYPE", "PACKAGING", "DESCRIPTOR")
			if styled {
				header = listHeadStyle.Render(header)
			}
			fmt.Println(header)
			for _, e := range entries {
				if e.IsSentinel() {
					continue
				}
				name := e.DisplayName
				if e.HasCustomView {
					name += " *"
				}
				desc := e.Desc.String()
				if width < 90 {
					desc = ""
				}
				row := fmt.Sprintf("%-28s %-18s %-10s %-12s %-8s %s",
					name, e.ManufacturerName, e.Version, e.Desc.Type, e.Packaging, desc)
				if styled {
					row = listNameStyle.Render(fmt.Sprintf("%-28s", name)) +
						fmt.Sprintf(" %-18s %-10s %-12s %-8s ",
							e.ManufacturerName, e.Version, e.Desc.Type, e.Packaging) +
						listDimStyle.Render(desc)
				}
				fmt.Println(row)
				printed++
			}
			fmt.Printf("\n%d components (* has custom view)\n", printed)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFilter, "type", "", "filter by component type (effect or instrument)")
	return cmd
}
