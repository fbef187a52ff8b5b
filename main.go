package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mukfin/scripts/pkg/config"
	"github.com/mukfin/scripts/pkg/logger"
)

var (
	configPath string
	cfg        *config.Config
	logCtx     context.Context
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cloud-inventory",
		Short: "Multi-cloud VM, patch and package inventory",
		Long:  "Read-only inventory of Azure and Google Cloud virtual machines, Azure needed patches and GCP installed packages, written as CSV reports",
	}

	// Global flags shared by every report
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an optional JSON or YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warning, error)")
	rootCmd.PersistentFlags().String("log-dir", "", "Directory for a copy of the log output")
	rootCmd.PersistentFlags().Duration("command-timeout", 0, "Timeout for each az/gcloud invocation (default 2m)")
	rootCmd.PersistentFlags().Int("parallel", 0, "Number of scopes fetched concurrently (default 1)")
	rootCmd.PersistentFlags().String("summary-file", "", "Write a JSON or YAML run summary to this path")

	// Add commands
	rootCmd.AddCommand(NewVMInventoryCommand())
	rootCmd.AddCommand(NewAzurePatchesCommand())
	rootCmd.AddCommand(NewGCPPackagesCommand())
	rootCmd.AddCommand(NewVersionCommand())

	// Set up context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Set up persistent pre-run to initialize config and logger
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Skip config loading for version command
		if cmd.Name() == "version" {
			return nil
		}

		loaded, err := config.LoadConfig(configPath, cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded

		// Setup logger and update context
		ctx := logger.SetupLogger(cmd.Context(), cfg.Log.Level, cfg.Log.Dir)
		cmd.SetContext(ctx)
		logCtx = ctx
		logger.GetLoggerFromContext(ctx).Debugf("Logger initialized (level: %s)", logger.GetCurrentLogLevel(ctx))
		return nil
	}

	// Execute command with context
	err := rootCmd.ExecuteContext(ctx)
	if logCtx != nil {
		_ = logger.Close(logCtx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Command execution failed: %v\n", err)
		os.Exit(1)
	}
}
