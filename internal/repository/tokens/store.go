package tokens

import (
	"context"
	"errors"
)

// Pair holds the bearer tokens issued by the prospector API.
type Pair struct {
	// AccessToken authorizes API requests.
	AccessToken string `yaml:"access_token"`
	// RefreshToken obtains a new pair when the access token expires.
	RefreshToken string `yaml:"refresh_token"`
}

// Store defines persistence operations for the token pair.
type Store interface {
	Load(ctx context.Context) (*Pair, error)
	Save(ctx context.Context, pair *Pair) error
	Clear(ctx context.Context) error
}

// ServiceName is the credential-manager entry the tokens live under.
const ServiceName = "ProspectorService"

var (
	// ErrNotFound is returned when no tokens have been stored yet.
	ErrNotFound = errors.New("tokens not found")

	// errPairIsNotSet is returned when a nil pair is provided.
	errPairIsNotSet = errors.New("token pair is not set")
)
