package layout

import (
	"os"
	"path/filepath"
	"sort"
)

// VersionFilename is the name of the generated version file.
const VersionFilename = "_version.py"

// ResolveVersionPath locates the generated version file for the declared package data.
//
// A single declared package always wins regardless of disk state. With several
// packages the directories are scanned in lexicographic order and the first one
// already holding a version file is chosen; otherwise the first directory is used.
// Without any declaration the file lives at the build root.
func ResolveVersionPath(root string, packageData map[string][]string) string {
	dirs := PackageDirs(packageData)
	switch len(dirs) {
	case 0:
		return filepath.Join(root, VersionFilename)
	case 1:
		return filepath.Join(root, dirs[0], VersionFilename)
	}

	for _, dir := range dirs {
		candidate := filepath.Join(root, dir, VersionFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return filepath.Join(root, dirs[0], VersionFilename)
}

// PackageDirs returns the declared package directories in lexicographic order.
func PackageDirs(packageData map[string][]string) []string {
	if len(packageData) == 0 {
		return nil
	}
	dirs := make([]string, 0, len(packageData))
	for dir := range packageData {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
