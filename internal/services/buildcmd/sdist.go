package buildcmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-propane/internal/domain/layout"
	"github.com/launchbynttdata/launch-propane/internal/domain/tagversion"
	"github.com/launchbynttdata/launch-propane/internal/sdist"
	"github.com/launchbynttdata/launch-propane/internal/versionfile"
)

// SourceDistCommand is the plain source distribution step.
type SourceDistCommand struct {
	DistDir string
	Format  sdist.Format

	dist    *Distribution
	builder sdist.Builder
	logger  *zap.Logger
	extra   []string
	archive string
}

// NewSourceDistCommand constructs a SourceDistCommand.
func NewSourceDistCommand(dist *Distribution, builder sdist.Builder, logger *zap.Logger) *SourceDistCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SourceDistCommand{dist: dist, builder: builder, logger: logger}
}

func (c *SourceDistCommand) Name() string {
	return "sdist"
}

func (c *SourceDistCommand) InitializeOptions() {
	c.DistDir = ""
	c.Format = ""
	c.extra = nil
	c.archive = ""
}

func (c *SourceDistCommand) FinalizeOptions(context.Context) error {
	if c.dist == nil {
		return ErrNilDistribution
	}
	if c.DistDir == "" {
		c.DistDir = c.dist.DistDir
	}
	if c.DistDir == "" {
		c.DistDir = sdist.DefaultDistDir
	}
	if c.Format == "" {
		c.Format = c.dist.Format
	}
	format, err := sdist.ParseFormat(string(c.Format))
	if err != nil {
		return err
	}
	c.Format = format
	return nil
}

func (c *SourceDistCommand) Run(ctx context.Context) error {
	extra := append([]string{c.dist.Readme, c.dist.Requirements, c.dist.Manifest}, c.extra...)
	files, err := sdist.CollectFiles(c.dist.Root, c.DistDir, c.dist.PackageData, extra...)
	if err != nil {
		return fmt.Errorf("collecting files: %w", err)
	}

	archive, err := c.builder.Build(ctx,
		sdist.Config{Root: c.dist.Root, DistDir: c.DistDir, Format: c.Format},
		sdist.Metadata{Name: c.dist.Metadata.Name, Version: c.dist.Metadata.Version},
		files)
	if err != nil {
		return err
	}
	c.archive = archive
	c.logger.Info("source distribution written", zap.String("archive", archive), zap.Int("files", len(files)))
	return nil
}

// Archive returns the path of the archive produced by the last run.
func (c *SourceDistCommand) Archive() string {
	return c.archive
}

// VersionedSourceDistCommand regenerates the version file before every source
// distribution so the archive never ships a stale version.
type VersionedSourceDistCommand struct {
	*SourceDistCommand

	writer      *versionfile.Writer
	versionPath string
	result      versionfile.Result
}

// NewVersionedSourceDistCommand wraps base with version regeneration.
func NewVersionedSourceDistCommand(base *SourceDistCommand, writer *versionfile.Writer) *VersionedSourceDistCommand {
	return &VersionedSourceDistCommand{SourceDistCommand: base, writer: writer}
}

func (c *VersionedSourceDistCommand) FinalizeOptions(ctx context.Context) error {
	if err := c.SourceDistCommand.FinalizeOptions(ctx); err != nil {
		return err
	}
	c.versionPath = layout.ResolveVersionPath(c.dist.Root, c.dist.PackageData)
	return nil
}

func (c *VersionedSourceDistCommand) Run(ctx context.Context) error {
	result, err := c.writer.Update(ctx, versionfile.Options{
		Root:      c.dist.Root,
		Path:      c.versionPath,
		TagPrefix: tagversion.DefaultPrefix,
	})
	if err != nil {
		return err
	}
	c.result = result

	// The base step names the archive from the metadata, so it must see the fresh version.
	version, ok := versionfile.ReadVersion(c.versionPath)
	c.dist.Metadata.Version = version
	if !ok {
		c.logger.Warn("packaging with unknown version", zap.String("path", c.versionPath))
	}

	c.extra = append(c.extra, c.versionPath)
	return c.SourceDistCommand.Run(ctx)
}

// VersionPath returns the version file location resolved during finalization.
func (c *VersionedSourceDistCommand) VersionPath() string {
	return c.versionPath
}

// Result returns the writer outcome of the last run.
func (c *VersionedSourceDistCommand) Result() versionfile.Result {
	return c.result
}
