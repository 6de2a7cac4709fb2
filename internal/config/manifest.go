package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/launchbynttdata/launch-propane/internal/pkgmeta"
	"github.com/launchbynttdata/launch-propane/internal/sdist"
)

// DefaultManifestFilename is looked up in the build root when no manifest is given.
const DefaultManifestFilename = "propane.yaml"

// Manifest is the packaging metadata for a project.
type Manifest struct {
	// Name is the distribution name. Defaults to the build root's base name.
	Name string `yaml:"name"`
	// Version is the static fallback version; sdist replaces it with the derived one.
	Version string `yaml:"version,omitempty"`
	// PackageData maps package directories to included file patterns.
	PackageData map[string][]string `yaml:"package_data,omitempty"`
	// Requirements is the requirements file path relative to the root.
	Requirements string `yaml:"requirements,omitempty"`
	// Readme is the readme path relative to the root.
	Readme string `yaml:"readme,omitempty"`
	// Sdist configures the source distribution archive.
	Sdist SdistSettings `yaml:"sdist,omitempty"`
}

// SdistSettings configures archive output.
type SdistSettings struct {
	DistDir string `yaml:"dist_dir,omitempty"`
	Format  string `yaml:"format,omitempty"`
}

// LoadManifest reads the manifest at path. A missing file yields defaults derived
// from root; other read or decode failures are returned.
func LoadManifest(path, root string) (*Manifest, error) {
	manifest := &Manifest{}

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read manifest: %w", err)
	default:
		if err := yaml.Unmarshal(contents, manifest); err != nil {
			return nil, fmt.Errorf("unmarshal manifest %s: %w", path, err)
		}
	}

	manifest.applyDefaults(root)
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Validate checks the manifest for values that cannot be packaged.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("manifest: name is required")
	}
	for dir := range m.PackageData {
		clean := filepath.Clean(dir)
		if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return fmt.Errorf("manifest: package directory %q must stay inside the build root", dir)
		}
	}
	if _, err := sdist.ParseFormat(m.Sdist.Format); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

func (m *Manifest) applyDefaults(root string) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" && root != "" {
		m.Name = filepath.Base(filepath.Clean(root))
	}
	if m.Requirements == "" {
		m.Requirements = pkgmeta.DefaultRequirementsFile
	}
	if m.Readme == "" {
		m.Readme = pkgmeta.DefaultReadmeFile
	}
	if m.Sdist.DistDir == "" {
		m.Sdist.DistDir = sdist.DefaultDistDir
	}
}
