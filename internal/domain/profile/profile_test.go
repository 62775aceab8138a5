package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNew verifies a fresh profile carries a snapshot ID and timestamp.
func TestNew(t *testing.T) {
	t.Parallel()

	p := New()
	require.NotEmpty(t, p.ID)
	require.False(t, p.CollectedAt.IsZero())
}

// TestReportFilename checks HWID truncation and the snapshot ID fallback.
func TestReportFilename(t *testing.T) {
	t.Parallel()

	p := &Profile{HWID: "3f2a1b9c0d4e5f6a7b8c"}
	require.Equal(t, "prospector-profile-3f2a1b9c.json", p.ReportFilename())

	p = &Profile{ID: "abcdef01-2345"}
	require.Equal(t, "prospector-profile-abcdef01.json", p.ReportFilename())
}
