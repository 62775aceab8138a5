package updater

import (
	"crypto/sha512"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetFileChecksum(t *testing.T) {
	t.Parallel()

	fileName := filepath.Join(t.TempDir(), "artifact.bin")
	content := []byte("prospector release payload")

	require.NoError(t, os.WriteFile(fileName, content, 0o600))

	checksum, err := GetFileChecksum(fileName)
	require.NoError(t, err)

	expected := sha512.Sum512(content)
	require.Equal(t, expected[:], checksum)
}

func TestGetFileChecksumMissingFile(t *testing.T) {
	t.Parallel()

	_, err := GetFileChecksum(filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
}

func TestNewDescription(t *testing.T) {
	t.Parallel()

	description := NewDescription()
	require.NotNil(t, description)
	require.NotNil(t, description.Files)
	require.NotNil(t, description.Roles)
	require.NotNil(t, description.Executables)
}

func TestRolesCoverExecutables(t *testing.T) {
	t.Parallel()

	for role, files := range AllowedUserRoles() {
		executable, ok := ExecutablesByUserRoles()[role]
		require.True(t, ok, "role %s has no executable", role)

		fileSet := sliceToSet(files)
		_, found := fileSet[executable]
		require.True(t, found, "executable %s is not among role %s files", executable, role)
	}
}

func TestSliceToSet(t *testing.T) {
	t.Parallel()

	set := sliceToSet([]string{"a", "b", "a"})
	require.Len(t, set, 2)
	require.Contains(t, set, "a")
	require.Contains(t, set, "b")
}
