// Package pkgmeta loads the packaging metadata files that accompany a distribution.
package pkgmeta

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultRequirementsFile lists install requirements, one per line.
	DefaultRequirementsFile = "requirements.txt"
	// DefaultReadmeFile is used as the long description.
	DefaultReadmeFile = "README.md"
)

var skippedPrefixes = []string{"#", "-e"}

// InstallRequirements reads the requirements file at path. Blank lines, comments and
// editable installs are skipped. A missing file is an error.
func InstallRequirements(path string) ([]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening requirements: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var requirements []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || hasSkippedPrefix(line) {
			continue
		}
		requirements = append(requirements, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading requirements: %w", err)
	}
	return requirements, nil
}

// Readme returns the whole readme file at path.
func Readme(path string) (string, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("reading readme: %w", err)
	}
	return string(contents), nil
}

func hasSkippedPrefix(line string) bool {
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
