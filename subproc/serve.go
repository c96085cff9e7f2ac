package subproc

import (
	"github.com/hashicorp/go-plugin"

	"github.com/hostwire/plugin-host/unit"
)

// Serve runs the plug-in side of the protocol and blocks until the host
// disconnects. Plug-in executables call it from main with their unit:
//
//	func main() {
//		subproc.Serve(newTremolo())
//	}
//
// The process must be started by a host; run by hand it prints the usual
// go-plugin cookie complaint and exits.
func Serve(u unit.Unit) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         pluginMap(u),
	})
}
