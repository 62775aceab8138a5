package builder

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/versyx/prospector/internal/config"
	"github.com/versyx/prospector/internal/logger"
	"github.com/versyx/prospector/internal/service/updater"
)

// ManifestOptions contains inputs for the manifest entry point.
type ManifestOptions struct {
	// ConfigPath is an optional path to persist distribution settings
	// (defaults to prospector-settings.yaml).
	ConfigPath string
	// APIBaseURL is the base URL of the prospector API written into the settings
	// distributed alongside the binaries.
	APIBaseURL string
	// UpdateFolder is the URL where update artifacts will be uploaded.
	UpdateFolder string
}

// manifester prepares the release manifest for distribution.
// It is unexported—callers should use RunManifest, which encapsulates setup and validation.
type manifester struct {
	// cfg holds the settings distributed with the release.
	cfg *config.Config
	// cfgFilename is the path where configuration is saved.
	cfgFilename string
	// desc contains the release manifest with files, roles, and executables.
	desc *updater.Description
}

// errUpdaterRunning indicates that a manifest was requested while an update is in progress.
var errUpdaterRunning = errors.New("the updater is running now")

// RunManifest executes the manifest generation workflow.
func RunManifest(ctx context.Context, opts *ManifestOptions) error {
	ctx = logger.WithName(ctx, "prospector-builder")

	cfg := &config.Config{
		APIBaseURL:   opts.APIBaseURL,
		UpdateFolder: opts.UpdateFolder,
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	m, err := newManifester(ctx, opts.ConfigPath, cfg)
	if err != nil {
		return fmt.Errorf("initialize manifest generation: %w", err)
	}

	if err = m.run(ctx); err != nil {
		return fmt.Errorf("manifest generation failed: %w", err)
	}

	logger.Info(ctx, "Manifest generation completed successfully")

	return nil
}

// newManifester creates a manifester with the provided settings and configuration path.
func newManifester(ctx context.Context, configFilename string, settings *config.Config) (*manifester, error) {
	if updater.IsUpdaterRunningNow(ctx) {
		return nil, errUpdaterRunning
	}

	if configFilename == "" {
		configFilename = config.DefaultConfigFilename
	}

	if err := config.Save(configFilename, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	return &manifester{
		cfg:         settings,
		cfgFilename: configFilename,
		desc:        updater.NewDescription(),
	}, nil
}

// run populates and writes the release manifest to disk.
func (m *manifester) run(ctx context.Context) error {
	logger.Info(ctx, "Preparing release manifest")

	if err := m.fillDescription(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving release manifest", "path", updater.VersionFilename)

	if err := m.saveDescription(); err != nil {
		return err
	}

	m.printNextSteps(ctx)

	return nil
}

// fillDescription populates roles, executables and file checksums into the manifest.
func (m *manifester) fillDescription() error {
	for role, files := range updater.AllowedUserRoles() {
		m.desc.Roles[role] = append([]string(nil), files...)
	}

	maps.Copy(m.desc.Executables, updater.ExecutablesByUserRoles())

	for _, fileName := range updater.FilesWithChecksum() {
		if _, err := os.Stat(fileName); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", fileName, os.ErrNotExist)
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", fileName, err)
		}

		checksum, err := updater.GetFileChecksum(fileName)
		if err != nil {
			return err
		}

		m.desc.Files[fileName] = base64.StdEncoding.EncodeToString(checksum)
	}

	return nil
}

// saveDescription writes the manifest to the standard VersionFilename.
func (m *manifester) saveDescription() error {
	contents, err := yaml.Marshal(m.desc)
	if err != nil {
		return err
	}

	return os.WriteFile(updater.VersionFilename, contents, updater.DefaultFileMode)
}

// printNextSteps logs human-readable guidance for distributing the created files.
func (m *manifester) printNextSteps(ctx context.Context) {
	files := make([]string, 0, len(m.desc.Files)+1)
	for fileName := range m.desc.Files {
		files = append(files, fileName)
	}

	files = append(files, updater.VersionFilename)
	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("You should upload the following files to the folder ")
	builder.WriteString(m.cfg.UpdateFolder)
	builder.WriteString(":\n")
	builder.WriteString(strings.Join(files, ",\n"))

	for role, fileList := range m.desc.Roles {
		builder.WriteString("\n\nFor a user with the \"")
		builder.WriteString(role)
		builder.WriteString("\" role, copy the following files to the local computer:\n")
		builder.WriteString(strings.Join(fileList, ",\n"))
		builder.WriteString("\nAt system startup, set the command to run: prospector-updater ")
		builder.WriteString(role)
	}

	logger.Info(ctx, builder.String())
}
