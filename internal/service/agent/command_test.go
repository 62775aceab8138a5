package agent

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/versyx/prospector/internal/config"
	"github.com/versyx/prospector/internal/logger"
)

func TestNewAgentAppliesConfiguredLogLevel(t *testing.T) {
	previous := logger.Level()
	defer logger.SetLevel(previous)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	settings := "api_base_url: https://api.example.com\nlog_level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(settings), 0o600))

	a, err := newAgent(&Options{ConfigPath: path})
	require.NoError(t, err)
	require.Equal(t, "@every 1h", a.schedule)
	require.Equal(t, zapcore.ErrorLevel, logger.Level())
}

func TestLoopRunsImmediatelyAndStops(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32

	a := &agent{
		cfg:      &config.Config{},
		schedule: "@every 1h",
		run: func(_ context.Context) error {
			runs.Add(1)
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- a.loop(ctx)
	}()

	require.Eventually(t, func() bool {
		return runs.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop after context cancellation")
	}
}

func TestLoopRejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	a := &agent{
		cfg:      &config.Config{},
		schedule: "not a schedule",
		run: func(_ context.Context) error {
			return nil
		},
	}

	require.ErrorIs(t, a.loop(context.Background()), errInvalidSchedule)
}

func TestRunOnceSkipsOverlappingTicks(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})

	var runs atomic.Int32

	a := &agent{
		cfg:      &config.Config{},
		schedule: "@every 1h",
		run: func(_ context.Context) error {
			runs.Add(1)
			close(started)
			<-release

			return nil
		},
	}

	ctx := context.Background()

	go a.runOnce(ctx)
	<-started

	// The first run is still holding the busy flag, so this tick is dropped.
	a.runOnce(ctx)
	require.Equal(t, int32(1), runs.Load())

	close(release)

	require.Eventually(t, func() bool {
		return !a.busy.Load()
	}, 5*time.Second, 10*time.Millisecond)
}
