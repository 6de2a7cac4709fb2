package buildcmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/launchbynttdata/launch-propane/internal/sdist"
)

// ErrNilDistribution is returned when a command has no distribution to act on.
var ErrNilDistribution = errors.New("build command: nil distribution")

// Command is a build step driven through initialize, finalize and run.
type Command interface {
	Name() string
	// InitializeOptions resets every option to its default.
	InitializeOptions()
	// FinalizeOptions fills options that depend on other options or the distribution.
	FinalizeOptions(ctx context.Context) error
	Run(ctx context.Context) error
}

// Metadata is the in-memory package metadata commands may rewrite.
type Metadata struct {
	Name    string
	Version string
}

// Distribution is the shared state commands operate on.
type Distribution struct {
	// Root is the build root. Every relative path below is resolved against it.
	Root         string
	Metadata     Metadata
	PackageData  map[string][]string
	Requirements string
	Readme       string
	Manifest     string
	DistDir      string
	Format       sdist.Format
}

// Execute runs cmd through its lifecycle. configure, when set, applies caller
// overrides between initialization and finalization.
func Execute(ctx context.Context, cmd Command, configure func()) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.InitializeOptions()
	if configure != nil {
		configure()
	}
	if err := cmd.FinalizeOptions(ctx); err != nil {
		return fmt.Errorf("%s: finalizing options: %w", cmd.Name(), err)
	}
	if err := cmd.Run(ctx); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return nil
}
