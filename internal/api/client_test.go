package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/versyx/prospector/internal/domain/profile"
)

// TestLogin exchanges credentials for a token pair.
func TestLogin(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "user@versyx.net", body["email"])
		require.Equal(t, "secret", body["password"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
		})
	}))
	defer server.Close()

	client, err := New(server.URL + "/api")
	require.NoError(t, err)

	pair, err := client.Login(context.Background(), "user@versyx.net", "secret")
	require.NoError(t, err)
	require.Equal(t, "access-1", pair.AccessToken)
	require.Equal(t, "refresh-1", pair.RefreshToken)
}

// TestSubmitProfile_Unauthorized maps a 401 to ErrUnauthorized.
func TestSubmitProfile_Unauthorized(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	err = client.SubmitProfile(context.Background(), "stale", profile.New())
	require.ErrorIs(t, err, ErrUnauthorized)
}

// TestSubmitProfile_RetriesServerErrors verifies the retrying transport
// recovers from transient 5xx responses.
func TestSubmitProfile_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	err = client.SubmitProfile(context.Background(), "token", profile.New())
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

// TestSubmitProfile_BadStatus surfaces non-retryable failures with status info.
func TestSubmitProfile_BadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "validation failed", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	err = client.SubmitProfile(context.Background(), "token", profile.New())
	require.Error(t, err)
	require.ErrorContains(t, err, "422")
}

// TestNew_RequiresBaseURL rejects an empty base URL.
func TestNew_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New("")
	require.Error(t, err)
}
