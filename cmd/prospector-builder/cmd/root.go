package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/versyx/prospector/internal/config"
	"github.com/versyx/prospector/internal/service/builder"
	"github.com/versyx/prospector/internal/version"
)

var (
	// specFile is the pyinstaller spec file describing the client build.
	specFile string
	// upxVersion pins the UPX release fetched for compression.
	upxVersion string
	// upxChecksum optionally pins the SHA-256 hex digest of the UPX archive.
	upxChecksum string
	// packagerCommand is the executable invoked to build the client.
	packagerCommand string

	// configPath stores the path to the configuration YAML file for manifest generation.
	configPath string
	// apiBaseURL is written into the distributed settings.
	apiBaseURL string
	// updateFolder is where release artifacts will be uploaded.
	updateFolder string

	// rootCmd represents the base command for packaging the client application.
	rootCmd = &cobra.Command{
		Use:   "prospector-builder",
		Short: "Package the client application with a compressed executable.",
		Long: `Builds the distributable client from its pyinstaller spec file.

Downloads the pinned UPX release when it is not already present, clears the
build and dist directories, runs the packager with UPX compression enabled
and removes the UPX directory afterwards. Must be run from the directory
containing the spec file.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &builder.Options{
				SpecFile:        specFile,
				UPXVersion:      upxVersion,
				ArchiveChecksum: upxChecksum,
				PackagerCommand: packagerCommand,
			}

			return builder.Run(ctx, options)
		},
	}

	// manifestCmd generates the release manifest for the updater.
	manifestCmd = &cobra.Command{
		Use:   "manifest",
		Short: "Generate the release manifest for distribution",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &builder.ManifestOptions{
				ConfigPath:   configPath,
				APIBaseURL:   apiBaseURL,
				UpdateFolder: updateFolder,
			}

			return builder.RunManifest(ctx, options)
		},
	}
)

// Execute runs the prospector-builder CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVar(&specFile, "spec-file", builder.DefaultSpecFile, "pyinstaller spec file to build")
	rootCmd.Flags().StringVar(&upxVersion, "upx-version", builder.DefaultUPXVersion, "UPX release to fetch")
	rootCmd.Flags().StringVar(&upxChecksum, "upx-checksum", "",
		"expected SHA-256 hex digest of the UPX archive (verification is skipped when empty)")
	rootCmd.Flags().StringVar(&packagerCommand, "packager", builder.DefaultPackagerCommand,
		"packager executable to invoke")

	manifestCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename,
		"path to configuration file")
	manifestCmd.Flags().StringVar(&apiBaseURL, "api-url", "", "base URL of the prospector API")
	manifestCmd.Flags().StringVar(&updateFolder, "update-folder", "", "URL of the update folder")

	rootCmd.AddCommand(manifestCmd)
}
