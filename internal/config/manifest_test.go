package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/launchbynttdata/launch-propane/internal/sdist"
)

func TestLoadManifestMissingUsesDefaults(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "mypkg")
	require.NoError(t, os.Mkdir(root, 0o755))

	m, err := LoadManifest(filepath.Join(root, DefaultManifestFilename), root)
	require.NoError(t, err)
	require.Equal(t, "mypkg", m.Name)
	require.Equal(t, "requirements.txt", m.Requirements)
	require.Equal(t, "README.md", m.Readme)
	require.Equal(t, sdist.DefaultDistDir, m.Sdist.DistDir)
	require.Empty(t, m.PackageData)
}

func TestLoadManifestParsesYAML(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, DefaultManifestFilename)
	content := `name: propane-demo
version: 0.0.1
package_data:
  demo:
    - "*.txt"
    - "data/*.json"
  tools: []
readme: docs/README.md
sdist:
  format: zstdtar
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadManifest(path, root)
	require.NoError(t, err)
	require.Equal(t, "propane-demo", m.Name)
	require.Equal(t, "0.0.1", m.Version)
	require.Equal(t, []string{"*.txt", "data/*.json"}, m.PackageData["demo"])
	require.Contains(t, m.PackageData, "tools")
	require.Equal(t, "docs/README.md", m.Readme)
	require.Equal(t, "zstdtar", m.Sdist.Format)
}

func TestLoadManifestRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "name: [unterminated"},
		{name: "escaping package dir", content: "name: x\npackage_data:\n  ../outside: []\n"},
		{name: "unknown format", content: "name: x\nsdist:\n  format: zip\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			path := filepath.Join(root, DefaultManifestFilename)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := LoadManifest(path, root)
			require.Error(t, err)
		})
	}
}

func TestManifestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, DefaultManifestFilename)
	original := &Manifest{Name: "demo", PackageData: map[string][]string{"demo": {"*.txt"}}}
	require.NoError(t, original.Save(path))

	loaded, err := LoadManifest(path, root)
	require.NoError(t, err)
	require.Equal(t, "demo", loaded.Name)
	require.Equal(t, []string{"*.txt"}, loaded.PackageData["demo"])
}
