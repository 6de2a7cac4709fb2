package buildcmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-propane/internal/domain/layout"
	"github.com/launchbynttdata/launch-propane/internal/domain/record"
	"github.com/launchbynttdata/launch-propane/internal/domain/tagversion"
	"github.com/launchbynttdata/launch-propane/internal/versionfile"
)

// ErrVersionNotDerived is returned in strict mode when the version file was not regenerated.
var ErrVersionNotDerived = errors.New("version was not derived from git")

// VersionCommand regenerates the version file on demand.
type VersionCommand struct {
	// VersionPath is the file to update. Empty resolves from the package data.
	VersionPath string
	// TagPrefix is stripped from git tags.
	TagPrefix string
	// Strict turns a soft failure into an error.
	Strict bool

	dist    *Distribution
	writer  *versionfile.Writer
	logger  *zap.Logger
	result versionfile.Result
	record record.Record
	known  bool
}

// NewVersionCommand constructs a VersionCommand.
func NewVersionCommand(dist *Distribution, writer *versionfile.Writer, logger *zap.Logger) *VersionCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VersionCommand{dist: dist, writer: writer, logger: logger}
}

func (c *VersionCommand) Name() string {
	return "version"
}

func (c *VersionCommand) InitializeOptions() {
	c.VersionPath = ""
	c.TagPrefix = tagversion.DefaultPrefix
	c.Strict = false
}

func (c *VersionCommand) FinalizeOptions(context.Context) error {
	if c.dist == nil {
		return ErrNilDistribution
	}
	if c.VersionPath == "" {
		c.VersionPath = layout.ResolveVersionPath(c.dist.Root, c.dist.PackageData)
	}
	c.logger.Debug("version file resolved", zap.String("path", c.VersionPath))
	return nil
}

func (c *VersionCommand) Run(ctx context.Context) error {
	result, err := c.writer.Update(ctx, versionfile.Options{
		Root:      c.dist.Root,
		Path:      c.VersionPath,
		TagPrefix: c.TagPrefix,
	})
	if err != nil {
		return err
	}
	c.result = result

	c.record, c.known = versionfile.ReadRecord(result.Path)
	if c.known {
		c.logger.Info("version is now "+c.record.Version(),
			zap.String("path", result.Path),
			zap.Stringer("date", c.record.Date()),
			zap.Time("time", c.record.Time()),
		)
	} else {
		c.logger.Warn("version is unknown", zap.String("path", result.Path))
	}

	if c.Strict && !result.OK() {
		return fmt.Errorf("%w (%s)", ErrVersionNotDerived, result.Outcome)
	}
	return nil
}

// Result returns the writer outcome of the last run.
func (c *VersionCommand) Result() versionfile.Result {
	return c.result
}

// Version returns the version read back after the last run.
func (c *VersionCommand) Version() (string, bool) {
	return c.record.Version(), c.known
}

// Record returns the full record read back after the last run.
func (c *VersionCommand) Record() (record.Record, bool) {
	return c.record, c.known
}
