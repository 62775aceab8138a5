package builder

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// errUnsafeArchivePath is returned when an archive entry escapes the destination.
var errUnsafeArchivePath = errors.New("archive entry escapes destination")

// extractZip unpacks a zip archive into the destination directory,
// preserving entry modes and rejecting paths that escape the destination.
func extractZip(archivePath, destination string) error {
	reader, err := zip.OpenReader(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, entry := range reader.File {
		if err = extractZipEntry(entry, destination); err != nil {
			return err
		}
	}

	return nil
}

// extractZipEntry writes a single archive entry under the destination.
func extractZipEntry(entry *zip.File, destination string) error {
	target := filepath.Join(destination, filepath.Clean(entry.Name))

	// Zip-slip guard.
	if !strings.HasPrefix(target, filepath.Clean(destination)+string(os.PathSeparator)) {
		return fmt.Errorf("%s: %w", entry.Name, errUnsafeArchivePath)
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(target, entry.Mode().Perm()|0o700)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	source, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", entry.Name, err)
	}

	defer func() {
		_ = source.Close()
	}()

	mode := entry.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	outputFile, err := os.OpenFile(filepath.Clean(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	if _, err = io.Copy(outputFile, source); err != nil {
		_ = outputFile.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}

	return outputFile.Close()
}
