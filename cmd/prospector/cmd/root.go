package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/versyx/prospector/internal/config"
	"github.com/versyx/prospector/internal/service/profiler"
	"github.com/versyx/prospector/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// send submits the collected profile to the API.
	send bool
	// silent suppresses all output except errors.
	silent bool
	// noReport skips writing the local JSON report.
	noReport bool

	// loginEmail and loginPassword allow non-interactive login.
	loginEmail    string
	loginPassword string

	// rootCmd represents the base command for collecting a device profile.
	rootCmd = &cobra.Command{
		Use:   "prospector",
		Short: "Collect a device hardware and software profile.",
		Long: `Collects a full inventory of this machine: operating system, BIOS, CPU,
memory, disks, GPUs, network interfaces, Wi-Fi details and installed software.

The profile is written as a JSON report to the configured report directory.
With --send the profile is also submitted to the prospector API using the
stored credentials; run "prospector login" first to store them.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &profiler.Options{
				ConfigPath: configPath,
				Send:       send,
				Silent:     silent,
				NoReport:   noReport,
			}

			return profiler.Run(ctx, options)
		},
	}

	// loginCmd authenticates and stores the token pair.
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the prospector API and store the session",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &profiler.LoginOptions{
				ConfigPath: configPath,
				Email:      loginEmail,
				Password:   loginPassword,
			}

			return profiler.Login(ctx, options)
		},
	}

	// logoutCmd drops the stored token pair.
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return profiler.Logout(ctx, configPath)
		},
	}
)

// Execute runs the prospector CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename,
		"path to configuration file")
	rootCmd.Flags().BoolVar(&send, "send", false, "submit the collected profile to the API")
	rootCmd.Flags().BoolVar(&silent, "silent", false, "suppress all output except errors")
	rootCmd.Flags().BoolVar(&noReport, "no-report", false, "skip writing the local JSON report")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when empty)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when empty)")

	rootCmd.AddCommand(loginCmd, logoutCmd)
}
