package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/rehttp"

	"github.com/versyx/prospector/internal/domain/profile"
	"github.com/versyx/prospector/internal/repository/tokens"
)

// API paths relative to the configured base URL.
const (
	loginPath    = "/auth/login"
	refreshPath  = "/auth/refresh"
	profilesPath = "/devices/profiles"
)

const (
	// maxRetries bounds transport-level retries for transient failures.
	maxRetries = 3

	// retryBaseDelay and retryMaxDelay bound the jittered backoff between retries.
	retryBaseDelay = 100 * time.Millisecond
	retryMaxDelay  = 2 * time.Second

	// maxErrorBodySize caps how much of an error response is read for diagnostics.
	maxErrorBodySize = 4 << 10
)

var (
	// ErrUnauthorized is returned when the API rejects the access token.
	ErrUnauthorized = errors.New("unauthorized")

	// errBaseURLRequired is returned when no API base URL is provided.
	errBaseURLRequired = errors.New("api base url must be provided")

	// errBadStatus is returned for unexpected HTTP statuses.
	errBadStatus = errors.New("unexpected http status")
)

// Client talks JSON over HTTP to the prospector API.
type Client struct {
	// baseURL is the API root, e.g. https://prospect-api.versyx.net/api.
	baseURL string
	// httpClient carries the retrying transport and request timeout.
	httpClient *http.Client
}

// Option configures client behaviour.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client, used by tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New creates an API client for the provided base URL.
// Transient failures (connection errors, 5xx) are retried with jittered
// exponential backoff at the transport level.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	transport := rehttp.NewTransport(
		http.DefaultTransport,
		rehttp.RetryAll(
			rehttp.RetryMaxRetries(maxRetries),
			rehttp.RetryAny(
				rehttp.RetryTemporaryErr(),
				rehttp.RetryStatuses(
					http.StatusInternalServerError,
					http.StatusBadGateway,
					http.StatusServiceUnavailable,
					http.StatusGatewayTimeout,
				),
			),
		),
		rehttp.ExpJitterDelay(retryBaseDelay, retryMaxDelay),
	)

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// loginRequest is the credentials payload for the login endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest is the payload for the token refresh endpoint.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse is the pair returned by login and refresh.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*tokens.Pair, error) {
	var response tokenResponse

	err := c.postJSON(ctx, loginPath, "", loginRequest{Email: email, Password: password}, &response)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return &tokens.Pair{
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	var response tokenResponse

	err := c.postJSON(ctx, refreshPath, "", refreshRequest{RefreshToken: refreshToken}, &response)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	return &tokens.Pair{
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
	}, nil
}

// SubmitProfile sends a device profile with bearer authorization.
// A 401 response maps to ErrUnauthorized so callers can refresh and retry.
func (c *Client) SubmitProfile(ctx context.Context, accessToken string, p *profile.Profile) error {
	if err := c.postJSON(ctx, profilesPath, accessToken, p, nil); err != nil {
		return fmt.Errorf("submit profile: %w", err)
	}

	return nil
}

// postJSON performs a JSON POST and optionally decodes the response body.
func (c *Client) postJSON(ctx context.Context, path, accessToken string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	switch {
	case response.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices:
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodySize))

		return fmt.Errorf("%s %s, %s: %s: %w",
			http.MethodPost, path, response.Status, firstLine(string(snippet)), errBadStatus)
	}

	if result == nil {
		return nil
	}

	if err = json.NewDecoder(response.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// firstLine trims a response snippet to its first non-empty line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}

	return s
}
