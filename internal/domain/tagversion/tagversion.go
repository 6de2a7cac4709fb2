package tagversion

import (
	"strings"

	semver "github.com/blang/semver/v4"
)

// DefaultPrefix is the tag prefix stripped when none is configured.
const DefaultPrefix = "v"

// Derive turns raw describe output into a version string. When the output starts
// with prefix exactly len(prefix) bytes are removed before trimming; otherwise the
// trimmed output is used verbatim.
func Derive(describeOutput, prefix string) string {
	if strings.HasPrefix(describeOutput, prefix) {
		return strings.TrimSpace(describeOutput[len(prefix):])
	}
	return strings.TrimSpace(describeOutput)
}

// ParseSemver reports whether version is a semantic version, tolerating a leading v.
// Describe output such as 1.2.3-4-gabcdef-dirty parses with a single pre-release part.
func ParseSemver(version string) (semver.Version, bool) {
	normalized := strings.TrimSpace(version)
	if normalized == "" {
		return semver.Version{}, false
	}

	if parsed, err := semver.Parse(normalized); err == nil {
		return parsed, true
	}

	if len(normalized) > 1 && (normalized[0] == 'v' || normalized[0] == 'V') {
		if parsed, err := semver.Parse(normalized[1:]); err == nil {
			return parsed, true
		}
	}

	return semver.Version{}, false
}
