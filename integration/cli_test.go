//go:build integration
// +build integration

package integration_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/launchbynttdata/launch-propane/internal/versionfile"
)

const (
	envLogLevel          = "PROPANE_LOG_LEVEL"
	envTagPrefix         = "PROPANE_TAG_PREFIX"
	gitAuthorName        = "propane-integration"
	gitAuthorEmail       = "propane-integration@example.com"
	gitTerminalPromptOff = "GIT_TERMINAL_PROMPT=0"
	cliTimeout           = 5 * time.Minute
)

func TestIntegrationVersionFromTaggedRepository(t *testing.T) {
	workspace := newGitWorkspace(t)
	workspace.writeFile(t, "pkg/__init__.py", "")
	workspace.commitAll(t, "initial")
	workspace.run(t, "tag", "v1.2.3")

	stdout, stderr, err := runCLI(t, []string{"--root", workspace.dir, "--package-dir", "pkg", "version"}, nil)
	require.NoError(t, err, stderr)
	require.Equal(t, "1.2.3", stdout)
	require.Contains(t, stderr, "set ")

	version, ok := versionfile.ReadVersion(filepath.Join(workspace.dir, "pkg", "_version.py"))
	require.True(t, ok)
	require.Equal(t, "1.2.3", version)
}

func TestIntegrationVersionReportsDistanceAndDirty(t *testing.T) {
	workspace := newGitWorkspace(t)
	workspace.writeFile(t, "pkg/__init__.py", "")
	workspace.commitAll(t, "initial")
	workspace.run(t, "tag", "v2.0.0")
	workspace.writeFile(t, "pkg/module.py", "x = 1\n")
	workspace.commitAll(t, "second")
	workspace.writeFile(t, "pkg/module.py", "x = 2\n")

	stdout, stderr, err := runCLI(t, []string{"--root", workspace.dir, "--package-dir", "pkg", "version"}, nil)
	require.NoError(t, err, stderr)
	require.True(t, strings.HasPrefix(stdout, "2.0.0-1-g"), stdout)
	require.True(t, strings.HasSuffix(stdout, "-dirty"), stdout)
}

func TestIntegrationVersionHonoursEnvPrefix(t *testing.T) {
	workspace := newGitWorkspace(t)
	workspace.writeFile(t, "README.md", "demo\n")
	workspace.commitAll(t, "initial")
	workspace.run(t, "tag", "release-4.5.6")

	stdout, stderr, err := runCLI(t, []string{"--root", workspace.dir, "version"}, map[string]string{envTagPrefix: "release-"})
	require.NoError(t, err, stderr)
	require.Equal(t, "4.5.6", stdout)
	require.FileExists(t, filepath.Join(workspace.dir, "_version.py"))
}

func TestIntegrationVersionOutsideRepository(t *testing.T) {
	dir := t.TempDir()

	stdout, stderr, err := runCLI(t, []string{"--root", dir, "version"}, nil)
	require.NoError(t, err, stderr)
	require.Empty(t, stdout)
	require.Contains(t, stderr, "does not appear to be a Git repository")
	require.NoFileExists(t, filepath.Join(dir, "_version.py"))

	_, _, err = runCLI(t, []string{"--root", dir, "version", "--strict"}, nil)
	require.Error(t, err)
}

func TestIntegrationSdistStampsArchive(t *testing.T) {
	workspace := newGitWorkspace(t)
	workspace.writeFile(t, "propane.yaml", "name: demo\npackage_data:\n  pkg: ['*.py']\n")
	workspace.writeFile(t, "README.md", "# demo\n")
	workspace.writeFile(t, "pkg/__init__.py", "")
	workspace.commitAll(t, "initial")
	workspace.run(t, "tag", "v0.9.0")

	stdout, stderr, err := runCLI(t, []string{"--root", workspace.dir, "sdist"}, nil)
	require.NoError(t, err, stderr)
	require.Equal(t, filepath.Join(workspace.dir, "dist", "demo-0.9.0.tar.gz"), stdout)

	require.ElementsMatch(t, []string{
		"demo-0.9.0/README.md",
		"demo-0.9.0/pkg/__init__.py",
		"demo-0.9.0/pkg/_version.py",
		"demo-0.9.0/propane.yaml",
	}, archiveEntries(t, stdout))
}

func runCLI(t *testing.T, args []string, overrides map[string]string) (string, string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", append([]string{"run", "./cmd/propane"}, args...)...)
	cmd.Dir = projectRoot(t)
	envMap := map[string]string{envLogLevel: "verbose"}
	for k, v := range overrides {
		envMap[k] = v
	}
	cmd.Env = append(os.Environ(), flattenEnv(envMap)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	t.Logf("running CLI: propane %s overrides=%v", strings.Join(args, " "), overrides)
	err := cmd.Run()
	stdoutStr := strings.TrimSpace(stdout.String())
	stderrStr := strings.TrimSpace(stderr.String())
	t.Logf("CLI result for %v err=%v stdout=%q stderr=%q", args, err, stdoutStr, stderrStr)
	return stdoutStr, stderrStr, err
}

type gitWorkspace struct {
	dir string
}

func newGitWorkspace(t *testing.T) *gitWorkspace {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	workspace := &gitWorkspace{dir: t.TempDir()}
	workspace.run(t, "init", "--quiet")
	workspace.run(t, "config", "user.name", gitAuthorName)
	workspace.run(t, "config", "user.email", gitAuthorEmail)
	workspace.run(t, "config", "commit.gpgsign", "false")
	workspace.run(t, "config", "tag.gpgsign", "false")
	return workspace
}

func (w *gitWorkspace) writeFile(t *testing.T, relPath, content string) {
	t.Helper()
	fullPath := filepath.Join(w.dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		t.Fatalf("creating directory: %v", err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", relPath, err)
	}
}

func (w *gitWorkspace) commitAll(t *testing.T, message string) {
	t.Helper()
	w.run(t, "add", "--all")
	w.run(t, "commit", "--quiet", "-m", message)
}

func (w *gitWorkspace) run(t *testing.T, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = w.dir
	cmd.Env = append(os.Environ(), gitTerminalPromptOff)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s failed: %s", strings.Join(args, " "), output)
	}
}

func archiveEntries(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	tr := tar.NewReader(zr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return names
		}
		require.NoError(t, err)
		names = append(names, header.Name)
	}
}

func projectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("unable to locate go.mod from %s", dir)
		}
		dir = parent
	}
}

func flattenEnv(values map[string]string) []string {
	result := make([]string, 0, len(values))
	for k, v := range values {
		result = append(result, k+"="+v)
	}
	return result
}
