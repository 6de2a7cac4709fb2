package sdist

import (
	"archive/tar"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-propane/internal/domain/layout"
)

// Format selects the archive compression.
type Format string

const (
	// FormatGzip writes a .tar.gz archive.
	FormatGzip Format = "gztar"
	// FormatZstd writes a .tar.zst archive.
	FormatZstd Format = "zstdtar"
	// FormatLZ4 writes a .tar.lz4 archive.
	FormatLZ4 Format = "lz4tar"

	// DigestSuffix is appended to the archive path for its BLAKE3 checksum file.
	DigestSuffix = ".blake3"

	// DefaultDistDir is where archives land relative to the build root.
	DefaultDistDir = "dist"
	// UnknownVersion names archives whose version could not be derived.
	UnknownVersion = "UNKNOWN"
)

// ErrUnknownFormat is returned for unsupported archive formats.
var ErrUnknownFormat = errors.New("sdist: unknown archive format")

// ParseFormat validates an archive format name. Empty selects FormatGzip.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatGzip:
		return FormatGzip, nil
	case FormatZstd:
		return FormatZstd, nil
	case FormatLZ4:
		return FormatLZ4, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, value)
	}
}

// Extension returns the archive file suffix for the format.
func (f Format) Extension() string {
	switch f {
	case FormatZstd:
		return ".tar.zst"
	case FormatLZ4:
		return ".tar.lz4"
	default:
		return ".tar.gz"
	}
}

// Config locates the build root and the archive destination.
type Config struct {
	Root    string
	DistDir string
	Format  Format
}

// Metadata names the distribution.
type Metadata struct {
	Name    string
	Version string
}

// BaseName returns "<name>-<version>", substituting UNKNOWN for missing parts.
func (m Metadata) BaseName() string {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		name = UnknownVersion
	}
	version := strings.TrimSpace(m.Version)
	if version == "" {
		version = UnknownVersion
	}
	return name + "-" + version
}

// CollectFiles expands the declared package data under root. Packages without
// patterns contribute every file below their directory. Extra files are included
// when they exist inside root. Nothing under distDir is collected, so earlier
// archives never end up inside new ones. The result holds slash-separated paths
// relative to root.
func CollectFiles(root, distDir string, packageData map[string][]string, extra ...string) ([]string, error) {
	output := resolveDistDir(root, distDir)
	seen := make(map[string]struct{})
	add := func(path string) error {
		rel, ok := relativeTo(root, path)
		if !ok {
			return fmt.Errorf("sdist: %s is outside %s", path, root)
		}
		if !within(output, path) {
			seen[rel] = struct{}{}
		}
		return nil
	}

	for _, dir := range layout.PackageDirs(packageData) {
		base := filepath.Join(root, dir)
		patterns := packageData[dir]
		if len(patterns) == 0 {
			if err := walkFiles(base, output, add); err != nil {
				return nil, err
			}
			continue
		}
		for _, pattern := range patterns {
			matches, err := filepath.Glob(filepath.Join(base, pattern))
			if err != nil {
				return nil, fmt.Errorf("expanding %s/%s: %w", dir, pattern, err)
			}
			for _, match := range matches {
				if !isRegular(match) {
					continue
				}
				if err := add(match); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, path := range extra {
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		rel, ok := relativeTo(root, path)
		if !ok || !isRegular(path) || within(output, path) {
			continue
		}
		seen[rel] = struct{}{}
	}

	files := make([]string, 0, len(seen))
	for rel := range seen {
		files = append(files, rel)
	}
	sort.Strings(files)
	return files, nil
}

func walkFiles(base, skip string, add func(string) error) error {
	if _, err := os.Stat(base); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(base, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path == skip {
				return filepath.SkipDir
			}
			if path != base && (strings.HasPrefix(entry.Name(), ".") || entry.Name() == "__pycache__") {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		return add(path)
	})
}

func resolveDistDir(root, distDir string) string {
	if distDir == "" {
		distDir = DefaultDistDir
	}
	if !filepath.IsAbs(distDir) {
		distDir = filepath.Join(root, distDir)
	}
	return filepath.Clean(distDir)
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func relativeTo(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Builder writes source distribution archives.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder constructs a Builder. A nil logger discards output.
func NewBuilder(logger *zap.Logger) Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Builder{logger: logger}
}

// Build archives files (relative to cfg.Root) under a "<name>-<version>/" prefix and
// returns the archive path.
func (b Builder) Build(ctx context.Context, cfg Config, meta Metadata, files []string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	format := cfg.Format
	if format == "" {
		format = FormatGzip
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return "", err
	}

	distDir := resolveDistDir(cfg.Root, cfg.DistDir)
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return "", fmt.Errorf("creating dist dir: %w", err)
	}

	base := meta.BaseName()
	archivePath := filepath.Join(distDir, base+format.Extension())
	log := b.logger.With(zap.String("archive", archivePath), zap.String("format", string(format)))
	log.Info("creating source distribution", zap.Int("files", len(files)))

	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}

	hasher := blake3.New()
	writeErr := b.write(ctx, io.MultiWriter(out, hasher), format, cfg.Root, base, files, log)
	closeErr := out.Close()
	if writeErr != nil {
		_ = os.Remove(archivePath)
		return "", writeErr
	}
	if closeErr != nil {
		return "", fmt.Errorf("closing archive: %w", closeErr)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	line := digest + "  " + filepath.Base(archivePath) + "\n"
	if err := os.WriteFile(archivePath+DigestSuffix, []byte(line), 0o644); err != nil {
		return "", fmt.Errorf("writing checksum: %w", err)
	}
	log.Debug("archive checksum written", zap.String("blake3", digest))
	return archivePath, nil
}

func (b Builder) write(ctx context.Context, out io.Writer, format Format, root, base string, files []string, log *zap.Logger) error {
	compressor, err := newCompressor(out, format)
	if err != nil {
		return err
	}

	tw := tar.NewWriter(compressor)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFile(tw, root, base, rel); err != nil {
			return err
		}
		log.Debug("added file", zap.String("file", rel))
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finishing tar stream: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("finishing compression: %w", err)
	}
	return nil
}

func newCompressor(out io.Writer, format Format) (io.WriteCloser, error) {
	switch format {
	case FormatZstd:
		enc, err := zstd.NewWriter(out)
		if err != nil {
			return nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		return enc, nil
	case FormatLZ4:
		return lz4.NewWriter(out), nil
	default:
		return gzip.NewWriter(out), nil
	}
}

func addFile(tw *tar.Writer, root, base, rel string) error {
	path := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", rel, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("building header for %s: %w", rel, err)
	}
	header.Name = base + "/" + rel
	header.Uid, header.Gid = 0, 0
	header.Uname, header.Gname = "", ""

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("writing header for %s: %w", rel, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", rel, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if _, err := io.Copy(tw, file); err != nil {
		return fmt.Errorf("copying %s: %w", rel, err)
	}
	return nil
}
