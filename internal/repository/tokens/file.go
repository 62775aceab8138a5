package tokens

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// filePermissions keeps the token file readable by the owner only.
const filePermissions os.FileMode = 0o600

// FileStore persists the token pair to a YAML file on disk.
// Used on hosts without a working credential manager.
type FileStore struct {
	// path is the filesystem location of the token file.
	path string
	// mu protects concurrent access to the token file.
	mu sync.Mutex
}

// NewFileStore creates a store that reads/writes YAML at the provided path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: filepath.Clean(path),
	}
}

// Load reads the token pair from disk.
func (s *FileStore) Load(_ context.Context) (*Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read token file: %w", err)
	}

	var pair Pair
	if err = yaml.Unmarshal(contents, &pair); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}

	return &pair, nil
}

// Save writes the token pair to disk with owner-only permissions.
func (s *FileStore) Save(_ context.Context, pair *Pair) error {
	if pair == nil {
		return errPairIsNotSet
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	if err = os.WriteFile(s.path, data, filePermissions); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}

	return nil
}

// Clear removes the token file. A missing file is not an error.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}

	return nil
}

// Resolve picks the credential manager when it works on this host and the
// file store under reportDir otherwise.
func Resolve(reportDir string) Store {
	kr := NewKeyringStore()
	if kr.Available() {
		return kr
	}

	return NewFileStore(filepath.Join(reportDir, "prospector-tokens.yaml"))
}
