package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/gamelib/internal/client/cli"
	"github.com/iudanet/gamelib/internal/client/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	build := cli.BuildInfo{Version: Version, BuildDate: BuildDate, GitCommit: GitCommit}
	if err := cli.Execute(ctx, os.Args[1:], iocli.NewStdio(), os.Stderr, build); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
