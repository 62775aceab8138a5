package profiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveCredentialsProvided(t *testing.T) {
	t.Parallel()

	email, password, err := resolveCredentials(&LoginOptions{
		Email:    "  user@example.com  ",
		Password: "hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, "user@example.com", email)
	require.Equal(t, "hunter2", password)
}
