package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-propane/internal/config"
	"github.com/launchbynttdata/launch-propane/internal/domain/layout"
	"github.com/launchbynttdata/launch-propane/internal/domain/tagversion"
	"github.com/launchbynttdata/launch-propane/internal/git"
	"github.com/launchbynttdata/launch-propane/internal/logging"
	"github.com/launchbynttdata/launch-propane/internal/pkgmeta"
	"github.com/launchbynttdata/launch-propane/internal/sdist"
	"github.com/launchbynttdata/launch-propane/internal/services/buildcmd"
	"github.com/launchbynttdata/launch-propane/internal/version"
	"github.com/launchbynttdata/launch-propane/internal/versionfile"
)

const (
	envRoot        = "PROPANE_ROOT"
	envManifest    = "PROPANE_MANIFEST"
	envLogLevel    = "PROPANE_LOG_LEVEL"
	envPackageDirs = "PROPANE_PACKAGE_DIRS"
	envGitBinary   = "PROPANE_GIT_BINARY"
	envVersionPath = "PROPANE_VERSION_PATH"
	envTagPrefix   = "PROPANE_TAG_PREFIX"
	envStrict      = "PROPANE_STRICT"
	envDistDir     = "PROPANE_DIST_DIR"
	envSdistFormat = "PROPANE_SDIST_FORMAT"
)

// Execute runs the CLI root command with the provided context.
func Execute(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return newRootCommand().ExecuteContext(ctx)
}

type rootFlagSet struct {
	root        *stringFlag
	manifest    *stringFlag
	logLevel    *stringFlag
	packageDirs *stringSliceFlag
	gitBinary   *stringFlag
}

type runtimeConfig struct {
	resolver config.Resolver
	logger   *zap.Logger
	manifest *config.Manifest
	dist     *buildcmd.Distribution
	writer   *versionfile.Writer
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "propane",
		Short:         "Stamp Git-derived versions into Python source distributions",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version.Version
	cmd.SetVersionTemplate("propane {{.Version}}\n")

	flags := bindRootFlags(cmd)
	cmd.AddCommand(
		newVersionCommand(flags),
		newSdistCommand(flags),
		newRequirementsCommand(flags),
		newReadmeCommand(flags),
		newInitCommand(flags),
		newBuildInfoCommand(),
	)

	return cmd
}

func bindRootFlags(cmd *cobra.Command) *rootFlagSet {
	fs := cmd.PersistentFlags()
	return &rootFlagSet{
		root:        bindStringFlag(fs, "root", "", envRoot, "", "Build root (defaults to the working directory)"),
		manifest:    bindStringFlag(fs, "manifest", "m", envManifest, config.DefaultManifestFilename, "Project manifest, relative to the build root"),
		logLevel:    bindStringFlag(fs, "log-level", "", envLogLevel, logging.LevelTerse, "Log verbosity (quiet, terse or verbose)"),
		packageDirs: bindStringSliceFlag(fs, "package-dir", envPackageDirs, nil, "Extra package directories to declare"),
		gitBinary:   bindStringFlag(fs, "git", "", envGitBinary, git.DefaultBinary, "Git executable"),
	}
}

func newBuildInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build-info",
		Short: "Print build metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "propane %s\n", version.Summary()); err != nil {
				return fmt.Errorf("writing build info: %w", err)
			}
			return nil
		},
	}
}

func newVersionCommand(rootFlags *rootFlagSet) *cobra.Command {
	var pathFlag *stringFlag
	var prefixFlag *stringFlag
	var strictFlag *boolFlag

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Update " + layout.VersionFilename + " from the Git repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			strict, err := strictFlag.Value(runtime.resolver)
			if err != nil {
				return err
			}

			command := buildcmd.NewVersionCommand(runtime.dist, runtime.writer, runtime.logger)
			err = buildcmd.Execute(ctx, command, func() {
				command.VersionPath = pathFlag.Path(runtime.resolver, runtime.dist.Root)
				command.TagPrefix = prefixFlag.Value(runtime.resolver)
				command.Strict = strict
			})
			if err != nil {
				return err
			}

			if result := command.Result(); !result.OK() {
				runtime.logger.Debug("version file left unchanged",
					zap.String("path", result.Path), zap.String("outcome", string(result.Outcome)))
			}

			if v, ok := command.Version(); ok {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), v); err != nil {
					return fmt.Errorf("writing version: %w", err)
				}
			}
			return nil
		},
	}

	fs := cmd.Flags()
	pathFlag = bindStringFlag(fs, "version-path", "f", envVersionPath, "", "Path to the version file to update [default: resolved from package data]")
	prefixFlag = bindStringFlag(fs, "tag-prefix", "t", envTagPrefix, tagversion.DefaultPrefix, "Git tag prefix to strip")
	strictFlag = bindBoolFlag(fs, "strict", envStrict, false, "Fail when the version cannot be derived from Git")

	return cmd
}

func newSdistCommand(rootFlags *rootFlagSet) *cobra.Command {
	var distDirFlag *stringFlag
	var formatFlag *stringFlag

	cmd := &cobra.Command{
		Use:   "sdist",
		Short: "Regenerate the version file and build a source distribution",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			base := buildcmd.NewSourceDistCommand(runtime.dist, sdist.NewBuilder(runtime.logger), runtime.logger)
			command := buildcmd.NewVersionedSourceDistCommand(base, runtime.writer)
			err = buildcmd.Execute(ctx, command, func() {
				command.DistDir = distDirFlag.Path(runtime.resolver, runtime.dist.Root)
				command.Format = sdist.Format(formatFlag.Value(runtime.resolver))
			})
			if err != nil {
				return err
			}

			runtime.logger.Info("source distribution ready",
				zap.String("archive", command.Archive()),
				zap.String("version_file", command.VersionPath()),
				zap.String("outcome", string(command.Result().Outcome)),
			)

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), command.Archive()); err != nil {
				return fmt.Errorf("writing archive path: %w", err)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	distDirFlag = bindStringFlag(fs, "dist-dir", "d", envDistDir, "", "Directory to put the archive in [default: manifest or dist]")
	formatFlag = bindStringFlag(fs, "format", "", envSdistFormat, "", "Archive format (gztar, zstdtar or lz4tar) [default: manifest or gztar]")

	return cmd
}

func newRequirementsCommand(rootFlags *rootFlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "requirements",
		Short: "Print the install requirements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			requirements, err := pkgmeta.InstallRequirements(runtime.dist.Requirements)
			if err != nil {
				return err
			}
			runtime.logger.Debug("requirements loaded", zap.Int("count", len(requirements)))

			out := cmd.OutOrStdout()
			for _, requirement := range requirements {
				if _, err := fmt.Fprintln(out, requirement); err != nil {
					return fmt.Errorf("writing requirements: %w", err)
				}
			}
			return nil
		},
	}
}

func newReadmeCommand(rootFlags *rootFlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "readme",
		Short: "Print the long description",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			readme, err := pkgmeta.Readme(runtime.dist.Readme)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprint(cmd.OutOrStdout(), readme); err != nil {
				return fmt.Errorf("writing readme: %w", err)
			}
			return nil
		},
	}
}

func newInitCommand(rootFlags *rootFlagSet) *cobra.Command {
	var forceFlag *boolFlag

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a project manifest from the current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			force, err := forceFlag.Value(runtime.resolver)
			if err != nil {
				return err
			}

			path := runtime.dist.Manifest
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("manifest %s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("checking manifest: %w", err)
			}

			runtime.manifest.PackageData = runtime.dist.PackageData
			if err := runtime.manifest.Save(path); err != nil {
				return err
			}
			runtime.logger.Info("manifest written", zap.String("path", path))

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
				return fmt.Errorf("writing manifest path: %w", err)
			}
			return nil
		},
	}

	forceFlag = bindBoolFlag(cmd.Flags(), "force", "", false, "Overwrite an existing manifest")

	return cmd
}

func buildRuntime(flags *rootFlagSet) (runtimeConfig, func(), error) {
	// The log level is resolved before a logger exists to report on it.
	logger, err := logging.New(flags.logLevel.Value(config.NewResolver(nil)))
	if err != nil {
		return runtimeConfig{}, nil, fmt.Errorf("configuring logger: %w", err)
	}

	resolver := config.NewResolver(logger)

	root, err := resolveRoot(flags.root.Value(resolver))
	if err != nil {
		return runtimeConfig{}, nil, err
	}

	manifestPath := flags.manifest.Path(resolver, root)
	manifest, err := config.LoadManifest(manifestPath, root)
	if err != nil {
		return runtimeConfig{}, nil, err
	}

	format, err := sdist.ParseFormat(manifest.Sdist.Format)
	if err != nil {
		return runtimeConfig{}, nil, err
	}

	packageData := make(map[string][]string, len(manifest.PackageData))
	for dir, patterns := range manifest.PackageData {
		packageData[dir] = patterns
	}
	for _, dir := range flags.packageDirs.Value(resolver) {
		if _, ok := packageData[dir]; !ok {
			packageData[dir] = nil
		}
	}

	dist := &buildcmd.Distribution{
		Root:         root,
		Metadata:     buildcmd.Metadata{Name: manifest.Name, Version: manifest.Version},
		PackageData:  packageData,
		Requirements: underRoot(root, manifest.Requirements),
		Readme:       underRoot(root, manifest.Readme),
		Manifest:     manifestPath,
		DistDir:      underRoot(root, manifest.Sdist.DistDir),
		Format:       format,
	}

	describer := git.NewCLI(flags.gitBinary.Value(resolver))
	logger.Debug("runtime ready",
		zap.String("root", root),
		zap.String("manifest", manifestPath),
		zap.String("git", describer.Binary()),
		zap.Int("packages", len(packageData)),
	)

	cleanup := func() {
		_ = logger.Sync()
	}

	return runtimeConfig{
		resolver: resolver,
		logger:   logger,
		manifest: manifest,
		dist:     dist,
		writer:   versionfile.NewWriter(describer, logger),
	}, cleanup, nil
}

// resolveRoot is the only place the working directory is consulted.
func resolveRoot(value string) (string, error) {
	if value == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determining working directory: %w", err)
		}
		value = wd
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolving build root %s: %w", value, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("build root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("build root %s is not a directory", abs)
	}
	return abs, nil
}

func underRoot(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
