package profiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"

	"github.com/versyx/prospector/internal/api"
	"github.com/versyx/prospector/internal/collector"
	"github.com/versyx/prospector/internal/config"
	"github.com/versyx/prospector/internal/domain/profile"
	"github.com/versyx/prospector/internal/logger"
	"github.com/versyx/prospector/internal/repository/tokens"
)

// sourceAPI is recorded in each profile to mark how the data was gathered.
const sourceAPI = "wmi"

const reportDirPermissions os.FileMode = 0o700

var (
	errNotLoggedIn   = errors.New("not logged in, run \"prospector login\" first")
	errSessionLapsed = errors.New("session expired, run \"prospector login\" again")
)

// apiClient is the subset of the API surface the profiler needs.
// Satisfied by api.Client, narrowed for tests.
type apiClient interface {
	Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error)
	SubmitProfile(ctx context.Context, accessToken string, p *profile.Profile) error
}

// Options are inputs accepted by the profiler entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// Send submits the collected profile to the API.
	Send bool
	// Silent suppresses all output except errors.
	Silent bool
	// NoReport skips writing the local JSON report.
	NoReport bool
}

// profiler collects a device profile, stores it locally and optionally submits it.
type profiler struct {
	cfg       *config.Config
	collector *collector.Collector
	client    apiClient
	store     tokens.Store
}

// Run collects a device profile and handles it according to the options.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "prospector")

	p, err := newProfiler(opts)
	if err != nil {
		return err
	}

	// Silent wins over the configured level.
	if opts.Silent {
		logger.SetLevel(zapcore.ErrorLevel)
	}

	return p.run(ctx, opts)
}

func newProfiler(opts *Options) (*profiler, error) {
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

	client, err := api.New(cfg.APIBaseURL, api.WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	return &profiler{
		cfg:       cfg,
		collector: collector.New(sourceAPI),
		client:    client,
		store:     tokens.Resolve(cfg.ReportDir),
	}, nil
}

func (p *profiler) run(ctx context.Context, opts *Options) error {
	logger.Info(ctx, "Collecting device profile")

	collected, err := p.collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect profile: %w", err)
	}

	logger.InfoKV(ctx, "Profile collected", "hwid", collected.HWID, "hostname", collected.Hostname)

	if !opts.NoReport {
		var reportPath string

		reportPath, err = p.writeReport(collected)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		logger.InfoKV(ctx, "Report saved", "path", reportPath)
	}

	if opts.Send {
		if err = p.submit(ctx, collected); err != nil {
			return fmt.Errorf("submit profile: %w", err)
		}

		logger.Info(ctx, "Profile submitted")
	}

	return nil
}

// writeReport stores the profile as indented JSON in the report directory
// and returns the full path of the written file.
func (p *profiler) writeReport(collected *profile.Profile) (string, error) {
	if err := os.MkdirAll(p.cfg.ReportDir, reportDirPermissions); err != nil {
		return "", err
	}

	contents, err := json.MarshalIndent(collected, "", "    ")
	if err != nil {
		return "", err
	}

	reportPath := filepath.Join(p.cfg.ReportDir, collected.ReportFilename())
	if err = os.WriteFile(reportPath, contents, config.DefaultFilePermissions); err != nil {
		return "", err
	}

	return reportPath, nil
}

// submit sends the profile with the stored access token. On an expired token
// it refreshes the session once, persists the new pair and retries.
func (p *profiler) submit(ctx context.Context, collected *profile.Profile) error {
	pair, err := p.store.Load(ctx)
	if err != nil {
		if errors.Is(err, tokens.ErrNotFound) {
			return errNotLoggedIn
		}

		return err
	}

	err = p.client.SubmitProfile(ctx, pair.AccessToken, collected)
	if !errors.Is(err, api.ErrUnauthorized) {
		return err
	}

	logger.Info(ctx, "Access token expired, refreshing session")

	refreshed, err := p.client.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errSessionLapsed
		}

		return fmt.Errorf("refresh session: %w", err)
	}

	if err = p.store.Save(ctx, refreshed); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}

	return p.client.SubmitProfile(ctx, refreshed.AccessToken, collected)
}
