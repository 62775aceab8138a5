package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/versyx/prospector/internal/logger"
)

// Defaults mirror the published packaging recipe.
const (
	// DefaultSpecFile is the bundler spec describing the prospector executable.
	DefaultSpecFile = "prospector.spec"

	// DefaultPackagerCommand is the bundler invoked with the spec file.
	DefaultPackagerCommand = "pyinstaller"

	// DefaultUPXVersion is the pinned UPX release.
	DefaultUPXVersion = "4.2.4"

	// DefaultBaseURL is where UPX release archives are downloaded from.
	DefaultBaseURL = "https://github.com/upx/upx/releases/download"

	// Output directories produced by the bundler and removed before each run.
	buildDirname = "build"
	distDirname  = "dist"
)

var (
	// errSpecFileMissing is returned when the bundler spec is not in the working directory.
	errSpecFileMissing = errors.New("spec file not found")

	// errChecksumMismatch is returned when the downloaded archive does not match the pinned checksum.
	errChecksumMismatch = errors.New("archive checksum mismatch")

	// errBadHTTPStatus is returned for unexpected download statuses.
	errBadHTTPStatus = errors.New("unexpected http status")

	// errUPXDirMissing is returned when extraction did not produce the release directory.
	errUPXDirMissing = errors.New("upx directory missing after extraction")
)

// Options contains inputs for the builder entry point.
type Options struct {
	// WorkDir is the directory containing the spec file. Defaults to the
	// current working directory.
	WorkDir string
	// SpecFile is the bundler spec filename (defaults to prospector.spec).
	SpecFile string
	// PackagerCommand is the bundler executable (defaults to pyinstaller).
	PackagerCommand string
	// UPXVersion is the pinned UPX release version.
	UPXVersion string
	// BaseURL is the release download root; overridable for tests.
	BaseURL string
	// ArchiveChecksum optionally pins the SHA-256 hex digest of the
	// release archive. Verification is skipped when empty.
	ArchiveChecksum string
}

// builder executes the packaging pipeline for a single run.
type builder struct {
	workDir         string
	specFile        string
	packagerCommand string
	upxVersion      string
	baseURL         string
	archiveChecksum string
}

// Run executes the packaging pipeline: verify the spec file is present,
// make the pinned UPX release available, clean stale output directories,
// invoke the bundler and remove the UPX directory afterwards.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "prospector-builder")

	b, err := newBuilder(opts)
	if err != nil {
		return err
	}

	if err = b.run(ctx); err != nil {
		return fmt.Errorf("builder failed: %w", err)
	}

	logger.Info(ctx, "Builder completed successfully")

	return nil
}

// newBuilder applies defaults and verifies the precondition: the spec file
// must exist in the working directory. Nothing is touched otherwise.
func newBuilder(opts *Options) (*builder, error) {
	if opts == nil {
		opts = &Options{}
	}

	b := &builder{
		workDir:         opts.WorkDir,
		specFile:        opts.SpecFile,
		packagerCommand: opts.PackagerCommand,
		upxVersion:      opts.UPXVersion,
		baseURL:         opts.BaseURL,
		archiveChecksum: opts.ArchiveChecksum,
	}

	if b.workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}

		b.workDir = cwd
	}

	if b.specFile == "" {
		b.specFile = DefaultSpecFile
	}

	if b.packagerCommand == "" {
		b.packagerCommand = DefaultPackagerCommand
	}

	if b.upxVersion == "" {
		b.upxVersion = DefaultUPXVersion
	}

	if b.baseURL == "" {
		b.baseURL = DefaultBaseURL
	}

	if _, err := os.Stat(filepath.Join(b.workDir, b.specFile)); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("this command must be run from the directory containing %s: %w",
			b.specFile, errSpecFileMissing)
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", b.specFile, err)
	}

	return b, nil
}

// run executes the pipeline steps in order.
func (b *builder) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Building", "spec", b.specFile)

	logger.Info(ctx, "Checking for UPX")

	if err := b.ensureUPX(ctx); err != nil {
		return fmt.Errorf("prepare upx: %w", err)
	}

	for _, dir := range []string{buildDirname, distDirname} {
		if err := b.cleanDirectory(ctx, dir); err != nil {
			return fmt.Errorf("clean %s: %w", dir, err)
		}
	}

	if err := b.runPackager(ctx); err != nil {
		return fmt.Errorf("run packager: %w", err)
	}

	logger.Info(ctx, "Removing UPX")

	if err := os.RemoveAll(b.upxDir()); err != nil {
		return fmt.Errorf("remove upx directory: %w", err)
	}

	return nil
}

// upxRelease is the versioned release name, e.g. upx-4.2.4-win64.
func (b *builder) upxRelease() string {
	return "upx-" + b.upxVersion + "-win64"
}

// upxDir is the absolute path of the unpacked release directory.
func (b *builder) upxDir() string {
	return filepath.Join(b.workDir, b.upxRelease())
}

// ensureUPX downloads and unpacks the pinned release unless its directory
// is already present, in which case no network access happens.
func (b *builder) ensureUPX(ctx context.Context) error {
	if _, err := os.Stat(b.upxDir()); err == nil {
		logger.Info(ctx, "UPX is available")
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat upx directory: %w", err)
	}

	archiveName := b.upxRelease() + ".zip"
	archivePath := filepath.Join(b.workDir, archiveName)
	archiveURL := fmt.Sprintf("%s/v%s/%s", b.baseURL, b.upxVersion, archiveName)

	logger.InfoKV(ctx, "Downloading UPX", "url", archiveURL)

	if err := b.downloadArchive(ctx, archiveURL, archivePath); err != nil {
		return err
	}

	if b.archiveChecksum != "" {
		if err := verifyChecksum(archivePath, b.archiveChecksum); err != nil {
			_ = os.Remove(archivePath)
			return err
		}
	}

	if err := extractZip(archivePath, b.workDir); err != nil {
		_ = os.Remove(archivePath)
		return fmt.Errorf("extract %s: %w", archiveName, err)
	}

	if err := os.Remove(archivePath); err != nil {
		return fmt.Errorf("remove archive: %w", err)
	}

	if _, err := os.Stat(b.upxDir()); err != nil {
		return fmt.Errorf("%s: %w", b.upxRelease(), errUPXDirMissing)
	}

	return nil
}

// downloadArchive fetches the release archive to the provided path.
func (b *builder) downloadArchive(ctx context.Context, url, destination string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	outputFile, err := os.Create(filepath.Clean(destination))
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}

	if _, err = io.Copy(outputFile, response.Body); err != nil {
		_ = outputFile.Close()
		return fmt.Errorf("write archive: %w", err)
	}

	return outputFile.Close()
}

// cleanDirectory removes a stale output directory if present.
func (b *builder) cleanDirectory(ctx context.Context, name string) error {
	dir := filepath.Join(b.workDir, name)

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Cleaning directory", "path", dir)

	return os.RemoveAll(dir)
}

// runPackager invokes the bundler with the spec file and the UPX directory.
// Failures are returned as-is; there is no retry.
func (b *builder) runPackager(ctx context.Context) error {
	logger.InfoKV(ctx, "Running packager", "command", b.packagerCommand)

	cmd := exec.CommandContext(ctx, b.packagerCommand, b.specFile, "--upx-dir", b.upxDir())
	cmd.Dir = b.workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// verifyChecksum compares the file's SHA-256 digest with the pinned hex value.
func verifyChecksum(path, expectedHex string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return fmt.Errorf("hash archive: %w", err)
	}

	actualHex := hex.EncodeToString(hasher.Sum(nil))
	if actualHex != expectedHex {
		return fmt.Errorf("expected %s, got %s: %w", expectedHex, actualHex, errChecksumMismatch)
	}

	return nil
}
