// Package main is the entry point for the overcloud CLI.
//
// overcloud deploys and updates an OpenStack overcloud from an undercloud:
// it generates service passwords, prepares bare metal nodes, uploads
// images and drives the orchestration stack until it has converged.
//
// For detailed usage information, run:
//
//	overcloud --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/overcloud/cmd/overcloud/commands"
	"github.com/imamik/overcloud/internal/deployerr"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	commands.SetVersionInfo(version, commit, date)
	err := commands.Root().ExecuteContext(ctx)
	stop()

	if err != nil {
		if deployerr.IsCanceled(err) {
			fmt.Fprintln(os.Stderr, "Interrupted, the remote operation keeps running.")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
