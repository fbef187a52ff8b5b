package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mukfin/scripts/pkg/auth"
	"github.com/mukfin/scripts/pkg/collector"
	"github.com/mukfin/scripts/pkg/logger"
	"github.com/mukfin/scripts/pkg/pipeline"
	"github.com/mukfin/scripts/pkg/providers/azure"
	"github.com/mukfin/scripts/pkg/providers/gcp"
	"github.com/mukfin/scripts/pkg/utils"
)

// Version information variables (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// NewVMInventoryCommand creates the vm-inventory command
func NewVMInventoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vm-inventory",
		Short: "Export Azure and GCP VM metadata to CSV",
		Long: "List the virtual machines of every selected Azure subscription and GCP project and write " +
			"cloud, scope, name, status and the owner/cleardata/environment tags to one CSV file",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVMInventory(cmd.Context())
		},
	}

	cmd.Flags().StringArray("azure-subscription", nil,
		"Azure subscription ID or display name to include (repeatable). Defaults to all accessible subscriptions")
	cmd.Flags().StringArray("gcp-project", nil,
		"GCP project ID to include (repeatable). Defaults to the active gcloud project")
	cmd.Flags().String("output", "vm_inventory.csv", "Output CSV path")
	cmd.Flags().Bool("include-arc", false, "Also list Azure Arc-enabled servers of the selected subscriptions")

	return cmd
}

// NewAzurePatchesCommand creates the azure-patches command
func NewAzurePatchesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "azure-patches <workspace-id>",
		Short: "Export updates an Azure Log Analytics workspace reports as needed",
		Long: "Query the Update table of a Log Analytics workspace for updates marked as needed in the last " +
			"AZURE_PATCH_TIMESPAN_DAYS days and write them to AZURE_PATCH_OUTPUT",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspaceID := cfg.Azure.Patch.WorkspaceID
			if len(args) == 1 {
				workspaceID = args[0]
			}
			if strings.TrimSpace(workspaceID) == "" {
				return errors.New("a Log Analytics workspace ID is required: azure-patches <workspace-id>")
			}
			return runAzurePatches(cmd.Context(), workspaceID)
		},
	}

	return cmd
}

// NewGCPPackagesCommand creates the gcp-packages command
func NewGCPPackagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gcp-packages",
		Short: "Export packages installed on GCP instances",
		Long: "Read the OS Config inventory of every instance in GCP_PROJECTS and write one row per installed " +
			"package to GCP_PACKAGES_OUTPUT",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGCPPackages(cmd.Context())
		},
	}

	return cmd
}

// NewVersionCommand creates a new version command
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version, build commit, and build time information",
		Run: func(cmd *cobra.Command, args []string) {
			runVersion()
		},
	}

	return cmd
}

// runVMInventory collects Azure VMs (and Arc servers when enabled) followed by GCP instances
func runVMInventory(ctx context.Context) error {
	log := logger.GetLoggerFromContext(ctx)
	runner := utils.NewExecRunner(cfg.Command.Timeout)

	azureSource := collector.NewAzureVMSource(azure.NewClient(runner), cfg.Azure.Subscriptions)
	if cfg.VMInventory.IncludeArc {
		cred, err := auth.NewAuthProvider().UserCredential(cfg)
		if err != nil {
			return fmt.Errorf("failed to get Azure credential for Arc machines: %w", err)
		}
		azureSource.WithArc(azure.NewMachineListerFactory(cred))
	}
	gcpSource := collector.NewGCPVMSource(gcp.NewClient(runner), cfg.GCP.Projects)

	// A provider becomes required once the user names scopes for it
	steps := []pipeline.Step{
		{Source: azureSource, Required: len(cfg.Azure.Subscriptions) > 0},
		{Source: gcpSource, Required: len(cfg.GCP.Projects) > 0},
	}
	if logger.IsDebugEnabled(ctx) {
		log.Debugf("VM inventory selection (azureSubscriptions: %v, gcpProjects: %v, includeArc: %t, parallel: %d)",
			cfg.Azure.Subscriptions, cfg.GCP.Projects, cfg.VMInventory.IncludeArc, cfg.Collection.Parallelism)
	}
	return runPipeline(ctx, log, pipeline.KindVMInventory, cfg.VMInventory.Output, steps)
}

// runAzurePatches reports the needed updates of one Log Analytics workspace
func runAzurePatches(ctx context.Context, workspaceID string) error {
	log := logger.GetLoggerFromContext(ctx)
	runner := utils.NewExecRunner(cfg.Command.Timeout)

	log.Infof("Querying needed patches of the last %d day(s)", cfg.Azure.Patch.TimespanDays)
	source := collector.NewAzurePatchSource(azure.NewClient(runner), workspaceID, cfg.Azure.Patch.TimespanDays)
	steps := []pipeline.Step{{Source: source, Required: true}}
	return runPipeline(ctx, log, pipeline.KindAzurePatches, cfg.Azure.Patch.Output, steps)
}

// runGCPPackages reports installed packages of the configured projects
func runGCPPackages(ctx context.Context) error {
	log := logger.GetLoggerFromContext(ctx)
	runner := utils.NewExecRunner(cfg.Command.Timeout)

	log.Infof("Collecting installed packages for project(s): %s", strings.Join(cfg.GCP.Packages.Projects, " "))
	source := collector.NewGCPPackageSource(gcp.NewClient(runner), cfg.GCP.Packages.Projects)
	steps := []pipeline.Step{{Source: source, Required: true}}
	return runPipeline(ctx, log, pipeline.KindGCPPackages, cfg.GCP.Packages.Output, steps)
}

// runPipeline executes a report and persists the run summary when requested
func runPipeline(ctx context.Context, log *logrus.Logger, kind pipeline.Kind, output string, steps []pipeline.Step) error {
	runner := collector.NewRunner(log, cfg.Collection.Parallelism)
	summary, err := pipeline.New(kind, output, steps, runner, log).Run(ctx)

	if cfg.SummaryFile != "" && summary != nil {
		if writeErr := pipeline.WriteSummary(cfg.SummaryFile, summary); writeErr != nil {
			log.Warnf("Failed to write run summary: %s", writeErr)
		} else {
			log.Debugf("Run summary written to %s", cfg.SummaryFile)
		}
	}
	return err
}

// runVersion displays version information
func runVersion() {
	fmt.Printf("Cloud Inventory\n")
	fmt.Printf("Version: %s\n", Version)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Build Time: %s\n", BuildTime)
}
