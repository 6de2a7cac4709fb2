package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

var (
	// ErrUnavailable indicates the git executable could not be launched.
	ErrUnavailable = errors.New("git: command unavailable")
	// ErrFailed indicates git ran but exited with a non-zero status.
	ErrFailed = errors.New("git: command failed")
)

// MetadataDir is the directory that marks a build root as a Git work tree.
const MetadataDir = ".git"

// Describer describes the current commit in terms of reachable tags.
type Describer interface {
	// Describe runs the equivalent of `git describe --tags --dirty --always` in dir
	// and returns its raw standard output.
	Describe(ctx context.Context, dir string) (string, error)
}

// IsRepository reports whether root holds a Git metadata directory.
func IsRepository(root string) bool {
	info, err := os.Stat(filepath.Join(root, MetadataDir))
	if err != nil {
		return false
	}
	return info.IsDir()
}
