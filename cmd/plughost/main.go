package main

import (
	"fmt"
	"os"
)

// Populated by the linker, eg.
// go build -ldflags "-X main.version=v0.3.0".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
