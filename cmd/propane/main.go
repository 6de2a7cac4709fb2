package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/launchbynttdata/launch-propane/internal/cli"
	buildinfo "github.com/launchbynttdata/launch-propane/internal/version"
)

// These variables will be set at build time by goreleaser
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	stampBuildInfo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "propane: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func stampBuildInfo() {
	if version != "" {
		buildinfo.Version = version
	}
	if commit != "" {
		buildinfo.Commit = commit
	}
	if date != "" {
		buildinfo.BuildDate = date
	}
}
