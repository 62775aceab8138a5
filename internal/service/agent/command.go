package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/mitchellh/go-ps"
	"github.com/robfig/cron/v3"

	"github.com/versyx/prospector/internal/config"
	"github.com/versyx/prospector/internal/logger"
	"github.com/versyx/prospector/internal/service/profiler"
)

var (
	errAgentAlreadyRunning = errors.New("the agent is already running")
	errInvalidSchedule     = errors.New("invalid schedule expression")
)

// Options are inputs accepted by the agent entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
}

// job is the unit of work scheduled by the agent.
type job func(ctx context.Context) error

// agent periodically collects and submits device profiles on a cron schedule.
type agent struct {
	cfg      *config.Config
	schedule string
	run      job
	// busy guards against overlapping runs when a collection outlasts the interval.
	busy atomic.Bool
}

// Run starts the agent loop and blocks until the context is cancelled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "prospector-agent")

	a, err := newAgent(opts)
	if err != nil {
		return err
	}

	return a.loop(ctx)
}

func newAgent(opts *Options) (*agent, error) {
	alreadyRunning, err := isAlreadyRunning()
	if err != nil {
		return nil, err
	}

	if alreadyRunning {
		return nil, errAgentAlreadyRunning
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	profilerOpts := &profiler.Options{ConfigPath: configPath, Send: true}

	return &agent{
		cfg:      cfg,
		schedule: cfg.Schedule,
		run: func(ctx context.Context) error {
			return profiler.Run(ctx, profilerOpts)
		},
	}, nil
}

// loop runs the job once immediately, then on the configured schedule
// until the context is cancelled.
func (a *agent) loop(ctx context.Context) error {
	scheduler := cron.New()

	if _, err := scheduler.AddFunc(a.schedule, func() {
		a.runOnce(ctx)
	}); err != nil {
		return fmt.Errorf("%w: %s", errInvalidSchedule, err)
	}

	logger.InfoKV(ctx, "Agent started", "schedule", a.schedule)

	a.runOnce(ctx)
	scheduler.Start()

	<-ctx.Done()

	logger.Info(ctx, "Agent is shutting down")

	// Let an in-flight job finish before returning.
	<-scheduler.Stop().Done()

	return nil
}

// runOnce executes the job unless the previous run is still in flight.
func (a *agent) runOnce(ctx context.Context) {
	if !a.busy.CompareAndSwap(false, true) {
		logger.Warn(ctx, "Previous collection is still running, skipping this tick")
		return
	}

	defer a.busy.Store(false)

	if err := a.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Collection failed", "error", err)
	}
}

// isAlreadyRunning reports whether another agent process with the same
// executable name exists.
func isAlreadyRunning() (bool, error) {
	executablePath, err := os.Executable()
	if err != nil {
		return false, err
	}

	executableName := filepath.Base(executablePath)

	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == executableName {
			return true, nil
		}
	}

	return false, nil
}
