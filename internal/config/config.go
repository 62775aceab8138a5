package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the prospector binaries.
type Config struct {
	// APIBaseURL is the base URL of the prospector API, e.g.
	// https://prospect-api.versyx.net/api.
	APIBaseURL string `yaml:"api_base_url" validate:"required,url"`
	// UpdateFolder is the URL where update artifacts and the release
	// manifest are hosted. Optional; self-update is disabled without it.
	UpdateFolder string `yaml:"update_folder" validate:"omitempty,url"`
	// Timeout is the duration for HTTP requests made by the client.
	Timeout time.Duration `yaml:"timeout"`
	// Schedule is the cron expression used by the agent between
	// collection runs.
	Schedule string `yaml:"schedule"`
	// ReportDir is where collected profiles are written as JSON.
	ReportDir string `yaml:"report_dir"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// UpdateRole is set at runtime by the updater to pick a role-specific
	// file set from the release manifest. It is not persisted to YAML.
	UpdateRole string `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "prospector-settings.yaml"

	// DefaultTimeout is the default duration for HTTP requests.
	DefaultTimeout = 5 * time.Second

	// DefaultSchedule is the default agent collection schedule.
	DefaultSchedule = "@every 1h"

	// DefaultReportDirname is the directory under the user home where
	// profile reports are stored.
	DefaultReportDirname = ".prospector"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")

	// validate is the shared validator instance for settings structs.
	//nolint:gochecknoglobals // Validator is stateless and safe for concurrent use.
	validate = validator.New()
)

// Load reads configuration from the provided path, applies defaults and
// validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate applies defaults to the provided settings and checks required
// fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}

	if cfg.ReportDir == "" {
		cfg.ReportDir = DefaultReportDir()
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	return nil
}

// DefaultReportDir returns the per-user report directory.
// Falls back to a relative directory when the home cannot be resolved.
func DefaultReportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultReportDirname
	}

	return filepath.Join(home, DefaultReportDirname)
}
