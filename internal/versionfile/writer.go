package versionfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-propane/internal/domain/layout"
	"github.com/launchbynttdata/launch-propane/internal/domain/record"
	"github.com/launchbynttdata/launch-propane/internal/domain/tagversion"
	"github.com/launchbynttdata/launch-propane/internal/git"
)

// FileMode is applied to freshly written version files.
const FileMode = 0o644

// ErrNilDescriber is returned when the writer has no way to query git.
var ErrNilDescriber = errors.New("version file writer: nil describer")

// Outcome classifies the result of an update.
type Outcome string

const (
	// OutcomeWritten means the version file was regenerated.
	OutcomeWritten Outcome = "written"
	// OutcomeNotRepository means the build root has no Git metadata directory.
	OutcomeNotRepository Outcome = "not-repository"
	// OutcomeGitUnavailable means git could not be launched.
	OutcomeGitUnavailable Outcome = "git-unavailable"
	// OutcomeGitFailed means git exited non-zero or produced no version.
	OutcomeGitFailed Outcome = "git-failed"
)

// Options controls a single update.
type Options struct {
	// Root is the build root holding the Git metadata directory.
	Root string
	// Path overrides the version file location. Relative paths are joined to Root.
	Path string
	// TagPrefix is stripped from describe output when present.
	TagPrefix string
}

// Result describes what an update did. Only a written result carries a version.
type Result struct {
	Outcome Outcome
	Path    string
	Version string
	Record  record.Record
	Semver  bool
}

// OK reports whether the version file was regenerated.
func (r Result) OK() bool {
	return r.Outcome == OutcomeWritten
}

// Writer regenerates version files from git describe output.
type Writer struct {
	describer git.Describer
	logger    *zap.Logger
	now       func() time.Time
}

// NewWriter constructs a Writer. A nil logger discards diagnostics.
func NewWriter(describer git.Describer, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{describer: describer, logger: logger, now: time.Now}
}

// TargetPath resolves where an update with opts writes.
func TargetPath(opts Options) string {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return filepath.Join(opts.Root, layout.VersionFilename)
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(opts.Root, path)
}

// Update queries git and rewrites the version file. Derivation problems are reported
// through Result.Outcome and leave any existing file untouched; the returned error is
// reserved for failures to write the file.
func (w *Writer) Update(ctx context.Context, opts Options) (Result, error) {
	if w == nil || w.describer == nil {
		return Result{}, ErrNilDescriber
	}

	path := TargetPath(opts)
	result := Result{Path: path}
	log := w.logger.With(zap.String("path", path))

	if !git.IsRepository(opts.Root) {
		result.Outcome = OutcomeNotRepository
		log.Warn("this does not appear to be a Git repository", zap.String("root", opts.Root))
		return result, nil
	}

	output, err := w.describer.Describe(ctx, opts.Root)
	if err != nil {
		result.Outcome = OutcomeGitFailed
		if errors.Is(err, git.ErrUnavailable) {
			result.Outcome = OutcomeGitUnavailable
		}
		log.Warn(fmt.Sprintf("unable to run git, leaving %s alone", path),
			zap.String("outcome", string(result.Outcome)), zap.Error(err))
		return result, nil
	}

	version := tagversion.Derive(output, opts.TagPrefix)
	if version == "" {
		result.Outcome = OutcomeGitFailed
		log.Warn(fmt.Sprintf("unable to run git, leaving %s alone", path),
			zap.String("outcome", string(result.Outcome)), zap.String("reason", "empty describe output"))
		return result, nil
	}

	now := w.now()
	contents, err := render(version, now)
	if err != nil {
		return result, fmt.Errorf("rendering version file: %w", err)
	}

	// Whole-file overwrite; a crash mid-write can leave a truncated file.
	if err := os.WriteFile(path, contents, FileMode); err != nil {
		return result, fmt.Errorf("writing version file %s: %w", path, err)
	}

	_, isSemver := tagversion.ParseSemver(version)
	result.Outcome = OutcomeWritten
	result.Version = version
	result.Record = record.New(version, record.WithDate(record.DateOf(now)), record.WithTime(now))
	result.Semver = isSemver

	log.Info(fmt.Sprintf("set %s to '%s'", path, version),
		zap.String("version", version), zap.Bool("semver", isSemver))
	log.Debug("describe output", zap.String("raw", strings.TrimSpace(output)), zap.String("prefix", opts.TagPrefix))

	return result, nil
}
