package tokens

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFileStore_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileStore_NotFound(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "missing.yaml"))
	pair, err := store.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, pair)
}

// TestFileStore_SaveLoad_Roundtrip ensures Save followed by Load returns the
// same pair and that the file is owner-only.
func TestFileStore_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "tokens.yaml")
	store := NewFileStore(path)

	want := &Pair{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
	}

	require.NoError(t, store.Save(context.Background(), want))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, filePermissions, info.Mode().Perm())
}

// TestFileStore_Clear removes the file and tolerates repeated calls.
func TestFileStore_Clear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tokens.yaml")
	store := NewFileStore(path)

	require.NoError(t, store.Save(context.Background(), &Pair{AccessToken: "x"}))
	require.NoError(t, store.Clear(context.Background()))
	require.NoError(t, store.Clear(context.Background()))

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileStore_SaveNil rejects a nil pair.
func TestFileStore_SaveNil(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "tokens.yaml"))
	require.Error(t, store.Save(context.Background(), nil))
}
