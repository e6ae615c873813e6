// Package main is the entry point for the infermesh CLI.
//
// infermesh stands up two local kind clusters joined by a multi-cluster
// service mesh, installs the Gateway API Inference Extension into both and
// sends a completion request through the gateway.
//
// Commands: up, link, smoke, doctor, init, version.
//
// For detailed usage information, run:
//
//	infermesh --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/infermesh/cmd/infermesh/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
