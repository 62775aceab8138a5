package builder

import (
	"context"
	"encoding/base64"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/versyx/prospector/internal/service/updater"
)

// chdir mirrors t.Chdir, which is unavailable before Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(prev))
	})
}

func TestRunManifest(t *testing.T) {
	chdir(t, t.TempDir())

	for _, fileName := range updater.FilesWithChecksum() {
		require.NoError(t, os.WriteFile(fileName, []byte("stub "+fileName), 0o600))
	}

	opts := &ManifestOptions{
		APIBaseURL:   "https://api.example.com",
		UpdateFolder: "https://updates.example.com/prospector",
	}

	require.NoError(t, RunManifest(context.Background(), opts))

	contents, err := os.ReadFile(updater.VersionFilename)
	require.NoError(t, err)

	var desc updater.Description
	require.NoError(t, yaml.Unmarshal(contents, &desc))

	require.NotEmpty(t, desc.VersionNumber)
	require.Len(t, desc.Roles, 2)

	for _, fileName := range updater.FilesWithChecksum() {
		encoded, ok := desc.Files[fileName]
		require.True(t, ok, "missing checksum for %s", fileName)

		decoded, decodeErr := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, decodeErr)

		expected, sumErr := updater.GetFileChecksum(fileName)
		require.NoError(t, sumErr)
		require.Equal(t, expected, decoded)
	}
}

func TestRunManifestMissingArtifact(t *testing.T) {
	chdir(t, t.TempDir())

	opts := &ManifestOptions{
		APIBaseURL:   "https://api.example.com",
		UpdateFolder: "https://updates.example.com/prospector",
	}

	require.ErrorIs(t, RunManifest(context.Background(), opts), os.ErrNotExist)
}

func TestRunManifestInvalidSettings(t *testing.T) {
	chdir(t, t.TempDir())

	opts := &ManifestOptions{
		APIBaseURL:   "not a url",
		UpdateFolder: "https://updates.example.com/prospector",
	}

	require.Error(t, RunManifest(context.Background(), opts))
}
