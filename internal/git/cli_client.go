package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultBinary is the executable used when none is configured.
const DefaultBinary = "git"

var describeArgs = []string{"describe", "--tags", "--dirty", "--always"}

// CLI shells out to a git executable.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI describer. An empty binary falls back to DefaultBinary.
func NewCLI(binary string) CLI {
	trimmed := strings.TrimSpace(binary)
	if trimmed == "" {
		trimmed = DefaultBinary
	}
	return CLI{binary: trimmed}
}

// Binary returns the executable the describer invokes.
func (c CLI) Binary() string {
	return c.binary
}

// Describe waits for git to finish; no timeout is applied beyond ctx.
func (c CLI) Describe(ctx context.Context, dir string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, c.binary, describeArgs...)
	cmd.Dir = dir

	out, err := cmd.Output()
	if err == nil {
		return string(out), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		if stderr == "" {
			return "", fmt.Errorf("%w: exit status %d", ErrFailed, exitErr.ExitCode())
		}
		return "", fmt.Errorf("%w: exit status %d: %s", ErrFailed, exitErr.ExitCode(), stderr)
	}
	return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
}
