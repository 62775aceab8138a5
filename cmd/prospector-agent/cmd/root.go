package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/versyx/prospector/internal/config"
	"github.com/versyx/prospector/internal/service/agent"
	"github.com/versyx/prospector/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for the background profiling agent.
	rootCmd = &cobra.Command{
		Use:   "prospector-agent",
		Short: "Collect and submit device profiles on a schedule.",
		Long: `Background service that collects a device profile and submits it to the
prospector API on the schedule from the configuration file.

Runs one collection immediately on startup, then follows the cron schedule.
Only one agent instance may run per machine.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return agent.Run(ctx, &agent.Options{ConfigPath: configPath})
		},
	}
)

// Execute runs the prospector-agent CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
