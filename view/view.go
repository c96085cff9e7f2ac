// Package view describes the surface geometries a host offers a plug-in and
// the negotiation over which of them the plug-in can render.
package view

import "fmt"

// Configuration is one surface geometry offered by the host. Width and
// Height are in character cells for terminal hosts. HostHasController
// reports whether the host renders its own generic parameter controls
// alongside the plug-in view.
type Configuration struct {
	Width             int
	Height            int
	HostHasController bool
}

func (c Configuration) String() string {
	if c.HostHasController {
		return fmt.Sprintf("%dx%d+controller", c.Width, c.Height)
	}
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}

// Contains reports whether list holds an entry equal to cfg.
func Contains(list []Configuration, cfg Configuration) bool {
	for _, c := range list {
		if c == cfg {
			return true
		}
	}
	return false
}

// Intersect returns the candidates present in supported, preserving
// candidate order.
func Intersect(candidates, supported []Configuration) []Configuration {
	var out []Configuration
	for _, c := range candidates {
		if Contains(supported, c) {
			out = append(out, c)
		}
	}
	return out
}

// Negotiate picks the first candidate the plug-in reported as supported.
// ok is false when the two sets share no configuration.
func Negotiate(candidates, supported []Configuration) (Configuration, bool) {
	for _, c := range candidates {
		if Contains(supported, c) {
			return c, true
		}
	}
	return Configuration{}, false
}
