package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Credential-manager keys, matching the names used by earlier releases.
const (
	accessTokenKey  = "AccessToken"
	refreshTokenKey = "RefreshToken"
)

// KeyringStore persists tokens in the OS credential manager
// (Windows Credential Manager, macOS Keychain, Secret Service on Linux).
type KeyringStore struct{}

// NewKeyringStore creates a credential-manager backed store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// Load reads both tokens from the credential manager.
func (s *KeyringStore) Load(_ context.Context) (*Pair, error) {
	access, err := keyring.Get(ServiceName, accessTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read access token: %w", err)
	}

	refresh, err := keyring.Get(ServiceName, refreshTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("read refresh token: %w", err)
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Save writes both tokens to the credential manager.
func (s *KeyringStore) Save(_ context.Context, pair *Pair) error {
	if pair == nil {
		return errPairIsNotSet
	}

	if err := keyring.Set(ServiceName, accessTokenKey, pair.AccessToken); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}

	if err := keyring.Set(ServiceName, refreshTokenKey, pair.RefreshToken); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}

	return nil
}

// Clear removes both tokens. Missing entries are not an error.
func (s *KeyringStore) Clear(_ context.Context) error {
	for _, key := range []string{accessTokenKey, refreshTokenKey} {
		if err := keyring.Delete(ServiceName, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}

	return nil
}

// Available reports whether the credential manager works on this host.
// Headless machines without a secret service fall back to the file store.
func (s *KeyringStore) Available() bool {
	_, err := keyring.Get(ServiceName, accessTokenKey)

	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
