package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsRepository(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if IsRepository(root) {
		t.Fatalf("expected empty dir not to be a repository")
	}

	if err := os.WriteFile(filepath.Join(root, MetadataDir), []byte("gitdir: elsewhere"), 0o644); err != nil {
		t.Fatalf("write .git file: %v", err)
	}
	if IsRepository(root) {
		t.Fatalf("expected a .git file not to count as metadata directory")
	}

	other := t.TempDir()
	if err := os.Mkdir(filepath.Join(other, MetadataDir), 0o755); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}
	if !IsRepository(other) {
		t.Fatalf("expected .git directory to be detected")
	}
}

func TestNewCLIDefaultsBinary(t *testing.T) {
	t.Parallel()

	if got := NewCLI("  ").Binary(); got != DefaultBinary {
		t.Fatalf("binary: want %s got %s", DefaultBinary, got)
	}
	if got := NewCLI("/usr/local/bin/git").Binary(); got != "/usr/local/bin/git" {
		t.Fatalf("binary: want custom path got %s", got)
	}
}

func TestDescribeUnavailableBinary(t *testing.T) {
	t.Parallel()

	_, err := NewCLI("propane-no-such-git-binary").Describe(context.Background(), t.TempDir())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable got %v", err)
	}
}

func TestDescribeFailsOutsideRepository(t *testing.T) {
	requireGit(t)

	_, err := NewCLI("").Describe(context.Background(), t.TempDir())
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed got %v", err)
	}
}

func TestDescribeTaggedRepository(t *testing.T) {
	requireGit(t)

	root := t.TempDir()
	runGit(t, root, "init", "-q")
	runGit(t, root, "commit", "-q", "--allow-empty", "-m", "initial")
	runGit(t, root, "tag", "v1.2.3")

	out, err := NewCLI("").Describe(context.Background(), root)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if strings.TrimSpace(out) != "v1.2.3" {
		t.Fatalf("describe: want v1.2.3 got %q", out)
	}

	if err := os.WriteFile(filepath.Join(root, "tracked.txt"), []byte("a"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	runGit(t, root, "add", "tracked.txt")
	runGit(t, root, "commit", "-q", "-m", "second")
	if err := os.WriteFile(filepath.Join(root, "tracked.txt"), []byte("b"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err = NewCLI("").Describe(context.Background(), root)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	trimmed := strings.TrimSpace(out)
	if !strings.HasPrefix(trimmed, "v1.2.3-1-g") || !strings.HasSuffix(trimmed, "-dirty") {
		t.Fatalf("describe: unexpected output %q", trimmed)
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(DefaultBinary); err != nil {
		t.Skip("git not installed")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	base := []string{
		"-c", "user.name=propane-test",
		"-c", "user.email=propane-test@example.com",
		"-c", "commit.gpgsign=false",
		"-c", "tag.gpgsign=false",
	}
	cmd := exec.Command(DefaultBinary, append(base, args...)...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1", "GIT_TERMINAL_PROMPT=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
}
