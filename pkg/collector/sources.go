package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mukfin/scripts/pkg/inventory"
	"github.com/mukfin/scripts/pkg/normalize"
	"github.com/mukfin/scripts/pkg/providers/azure"
	"github.com/mukfin/scripts/pkg/providers/gcp"
)

// AzureVMLister is the subset of the Azure CLI client used for VM inventory.
// It exists to allow lightweight mocking in unit tests.
type AzureVMLister interface {
	ListSubscriptions(ctx context.Context) ([]azure.Subscription, error)
	ListVirtualMachines(ctx context.Context, subscriptionID string) ([]azure.VirtualMachine, error)
}

// PatchQuerier runs the needed-patches query against a Log Analytics workspace
type PatchQuerier interface {
	QueryNeededPatches(ctx context.Context, workspaceID string, days int) ([]azure.NeededPatch, error)
}

// GCPInstanceLister is the subset of the gcloud client used for VM inventory
type GCPInstanceLister interface {
	ActiveProject(ctx context.Context) (string, error)
	ListInstances(ctx context.Context, project string) ([]gcp.Instance, error)
}

// GCPInventoryDescriber adds OS Config inventory lookups to GCPInstanceLister
type GCPInventoryDescriber interface {
	GCPInstanceLister
	DescribeInventory(ctx context.Context, project, zone, instance string) (*gcp.Inventory, error)
}

// AzureVMSource lists Azure VMs per subscription and, when an Arc lister
// factory is set, the Arc-enabled servers of the same subscriptions.
type AzureVMSource struct {
	client    AzureVMLister
	requested []string
	arc       azure.MachineListerFactory
}

// NewAzureVMSource creates an Azure VM source. An empty request selects
// every subscription visible to the current login.
func NewAzureVMSource(client AzureVMLister, requested []string) *AzureVMSource {
	return &AzureVMSource{client: client, requested: requested}
}

// WithArc enables Arc-enabled server collection
func (s *AzureVMSource) WithArc(factory azure.MachineListerFactory) *AzureVMSource {
	s.arc = factory
	return s
}

func (s *AzureVMSource) Name() string                 { return "azure-vms" }
func (s *AzureVMSource) Provider() inventory.Provider { return inventory.ProviderAzure }
func (s *AzureVMSource) Tool() string                 { return azure.CLIName }

func (s *AzureVMSource) Scopes(ctx context.Context) ([]inventory.Scope, []inventory.Warning, error) {
	subscriptions, err := s.client.ListSubscriptions(ctx)
	if err != nil {
		return nil, nil, inventory.NewScopeError(inventory.ErrAuth, inventory.ProviderAzure, "", err)
	}
	scopes, warnings := azure.ResolveSubscriptions(s.requested, subscriptions)
	return scopes, warnings, nil
}

func (s *AzureVMSource) Collect(ctx context.Context, scope inventory.Scope) (inventory.Batch, error) {
	vms, err := s.client.ListVirtualMachines(ctx, scope.ID)
	if err != nil {
		return inventory.Batch{}, inventory.NewScopeError(inventory.ErrFetch, inventory.ProviderAzure, scope.Label(), err)
	}

	var batch inventory.Batch
	for _, vm := range vms {
		batch.Rows = append(batch.Rows, normalize.AzureVM(vm, scope))
	}
	if s.arc == nil {
		return batch, nil
	}

	machines, err := azure.ListArcMachines(ctx, s.arc, scope.ID)
	if err != nil {
		batch.Warnings = append(batch.Warnings, inventory.WarningFromError(inventory.ProviderAzure, scope.Label(),
			inventory.NewScopeError(inventory.ErrFetch, inventory.ProviderAzure, scope.Label(), err)))
		return batch, nil
	}
	for _, machine := range machines {
		batch.Rows = append(batch.Rows, normalize.ArcMachine(machine, scope))
	}
	return batch, nil
}

// GCPVMSource lists compute instances per project. Without explicit projects
// it falls back to the active gcloud project, and to nothing when none is set.
type GCPVMSource struct {
	client   GCPInstanceLister
	projects []string
}

// NewGCPVMSource creates a GCP VM source
func NewGCPVMSource(client GCPInstanceLister, projects []string) *GCPVMSource {
	return &GCPVMSource{client: client, projects: projects}
}

func (s *GCPVMSource) Name() string                 { return "gcp-vms" }
func (s *GCPVMSource) Provider() inventory.Provider { return inventory.ProviderGCP }
func (s *GCPVMSource) Tool() string                 { return gcp.CLIName }

func (s *GCPVMSource) Scopes(ctx context.Context) ([]inventory.Scope, []inventory.Warning, error) {
	if len(s.projects) > 0 {
		return projectScopes(s.projects), nil, nil
	}
	project, err := s.client.ActiveProject(ctx)
	if err != nil {
		return nil, nil, inventory.NewScopeError(inventory.ErrAuth, inventory.ProviderGCP, "", err)
	}
	if project == "" {
		return nil, nil, nil
	}
	return projectScopes([]string{project}), nil, nil
}

func (s *GCPVMSource) Collect(ctx context.Context, scope inventory.Scope) (inventory.Batch, error) {
	instances, err := s.client.ListInstances(ctx, scope.ID)
	if err != nil {
		return inventory.Batch{}, inventory.NewScopeError(inventory.ErrFetch, inventory.ProviderGCP, scope.ID, err)
	}
	var batch inventory.Batch
	for _, instance := range instances {
		batch.Rows = append(batch.Rows, normalize.GCPInstance(instance, scope))
	}
	return batch, nil
}

// AzurePatchSource reports the updates a Log Analytics workspace marks as needed
type AzurePatchSource struct {
	client      PatchQuerier
	workspaceID string
	days        int
}

// NewAzurePatchSource creates a patch source for one workspace and look-back window
func NewAzurePatchSource(client PatchQuerier, workspaceID string, days int) *AzurePatchSource {
	return &AzurePatchSource{client: client, workspaceID: workspaceID, days: days}
}

func (s *AzurePatchSource) Name() string                 { return "azure-patches" }
func (s *AzurePatchSource) Provider() inventory.Provider { return inventory.ProviderAzure }
func (s *AzurePatchSource) Tool() string                 { return azure.CLIName }

func (s *AzurePatchSource) Scopes(_ context.Context) ([]inventory.Scope, []inventory.Warning, error) {
	if strings.TrimSpace(s.workspaceID) == "" {
		return nil, nil, errors.New("log analytics workspace ID is required")
	}
	return []inventory.Scope{{Provider: inventory.ProviderAzure, ID: s.workspaceID}}, nil, nil
}

func (s *AzurePatchSource) Collect(ctx context.Context, scope inventory.Scope) (inventory.Batch, error) {
	patches, err := s.client.QueryNeededPatches(ctx, scope.ID, s.days)
	if err != nil {
		return inventory.Batch{}, inventory.NewScopeError(inventory.ErrFetch, inventory.ProviderAzure, scope.ID, err)
	}
	var batch inventory.Batch
	for _, patch := range patches {
		batch.Rows = append(batch.Rows, normalize.NeededPatch(patch))
	}
	return batch, nil
}

// GCPPackageSource reports the installed packages of every instance in a set
// of projects. An instance without inventory data is skipped with a warning.
type GCPPackageSource struct {
	client   GCPInventoryDescriber
	projects []string
}

// NewGCPPackageSource creates a package source for the given projects
func NewGCPPackageSource(client GCPInventoryDescriber, projects []string) *GCPPackageSource {
	return &GCPPackageSource{client: client, projects: projects}
}

func (s *GCPPackageSource) Name() string                 { return "gcp-packages" }
func (s *GCPPackageSource) Provider() inventory.Provider { return inventory.ProviderGCP }
func (s *GCPPackageSource) Tool() string                 { return gcp.CLIName }

func (s *GCPPackageSource) Scopes(_ context.Context) ([]inventory.Scope, []inventory.Warning, error) {
	return projectScopes(s.projects), nil, nil
}

func (s *GCPPackageSource) Collect(ctx context.Context, scope inventory.Scope) (inventory.Batch, error) {
	instances, err := s.client.ListInstances(ctx, scope.ID)
	if err != nil {
		return inventory.Batch{}, inventory.NewScopeError(inventory.ErrFetch, inventory.ProviderGCP, scope.ID, err)
	}

	var batch inventory.Batch
	for _, instance := range instances {
		inv, err := s.client.DescribeInventory(ctx, scope.ID, instance.ZoneName(), instance.Name)
		if err != nil {
			target := fmt.Sprintf("%s/%s", scope.ID, instance.Name)
			batch.Warnings = append(batch.Warnings, inventory.WarningFromError(inventory.ProviderGCP, target,
				inventory.NewScopeError(inventory.ErrFetch, inventory.ProviderGCP, target, err)))
			continue
		}
		for _, row := range normalize.InstalledPackages(scope.ID, instance, inv) {
			batch.Rows = append(batch.Rows, row)
		}
	}
	return batch, nil
}

// projectScopes turns project IDs into scopes, dropping blanks and duplicates
func projectScopes(projects []string) []inventory.Scope {
	seen := make(map[string]bool, len(projects))
	scopes := make([]inventory.Scope, 0, len(projects))
	for _, project := range projects {
		project = strings.TrimSpace(project)
		if project == "" || seen[project] {
			continue
		}
		seen[project] = true
		scopes = append(scopes, inventory.Scope{Provider: inventory.ProviderGCP, ID: project})
	}
	return scopes
}
