// Package normalize maps provider records onto the canonical report rows.
// Every function is pure; absent source values become empty strings.
package normalize

import (
	"sort"

	"github.com/mukfin/scripts/pkg/inventory"
	"github.com/mukfin/scripts/pkg/providers/azure"
	"github.com/mukfin/scripts/pkg/providers/gcp"
)

const (
	// CloudAzure is the cloud column value of Azure rows
	CloudAzure = "azure"
	// CloudAzureArc is the cloud column value of Azure Arc-enabled server rows
	CloudAzureArc = "azure-arc"
	// CloudGCP is the cloud column value of Google Cloud rows
	CloudGCP = "gcp"

	// UnknownStatus is reported when a record has no state at all
	UnknownStatus = "unknown"
)

// Tag and label keys read into the VM inventory
const (
	TagOwner       = "owner"
	TagClearData   = "cleardata"
	TagEnvironment = "environment"
)

// Status picks the primary state, then the secondary one, then UnknownStatus.
func Status(primary, secondary string) string {
	if primary != "" {
		return primary
	}
	if secondary != "" {
		return secondary
	}
	return UnknownStatus
}

// AzureVM builds the inventory row of an Azure VM. The subscription column
// carries the subscription display name, falling back to its ID.
func AzureVM(vm azure.VirtualMachine, scope inventory.Scope) inventory.VMRow {
	return inventory.VMRow{
		Cloud:                  CloudAzure,
		SubscriptionOrProject:  scope.Label(),
		ResourceGroupOrProject: vm.ResourceGroup,
		Name:                   vm.Name,
		Status:                 Status(vm.PowerState, vm.ProvisioningState),
		Owner:                  vm.Tags[TagOwner],
		ClearData:              vm.Tags[TagClearData],
		Environment:            vm.Tags[TagEnvironment],
	}
}

// ArcMachine builds the inventory row of an Azure Arc-enabled server.
func ArcMachine(machine azure.ArcMachine, scope inventory.Scope) inventory.VMRow {
	return inventory.VMRow{
		Cloud:                  CloudAzureArc,
		SubscriptionOrProject:  scope.Label(),
		ResourceGroupOrProject: machine.ResourceGroup,
		Name:                   machine.Name,
		Status:                 Status(machine.Status, machine.ProvisioningState),
		Owner:                  machine.Tags[TagOwner],
		ClearData:              machine.Tags[TagClearData],
		Environment:            machine.Tags[TagEnvironment],
	}
}

// GCPInstance builds the inventory row of a compute instance. GCP has no
// resource groups, so the project fills both scope columns.
func GCPInstance(instance gcp.Instance, scope inventory.Scope) inventory.VMRow {
	return inventory.VMRow{
		Cloud:                  CloudGCP,
		SubscriptionOrProject:  scope.ID,
		ResourceGroupOrProject: scope.ID,
		Name:                   instance.Name,
		Status:                 Status(instance.Status, ""),
		Owner:                  instance.Labels[TagOwner],
		ClearData:              instance.Labels[TagClearData],
		Environment:            instance.Labels[TagEnvironment],
	}
}

// NeededPatch copies one query result row into schema order.
func NeededPatch(patch azure.NeededPatch) inventory.PatchRow {
	return inventory.PatchRow{
		Cloud:          CloudAzure,
		VMName:         patch.Computer,
		OSType:         patch.OSType,
		Classification: patch.Classification,
		KB:             patch.KBID,
		Title:          patch.Title,
		Product:        patch.Product,
		TimeGenerated:  patch.TimeGenerated,
	}
}

// InstalledPackages returns one row per installed package of an instance,
// ordered by inventory item key so repeated runs produce identical files.
func InstalledPackages(project string, instance gcp.Instance, inv *gcp.Inventory) []inventory.PackageRow {
	if inv == nil {
		return nil
	}

	keys := make([]string, 0, len(inv.Items))
	for key := range inv.Items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var rows []inventory.PackageRow
	for _, key := range keys {
		item := inv.Items[key]
		if item.Type != gcp.InventoryItemTypeInstalled {
			continue
		}
		pkg, ok := item.InstalledPackage.Package()
		if !ok {
			continue
		}
		rows = append(rows, inventory.PackageRow{
			Cloud:          CloudGCP,
			Project:        project,
			Zone:           instance.ZoneName(),
			VMName:         instance.Name,
			OSLongName:     inv.OSInfo.LongName,
			OSVersion:      inv.OSInfo.Version,
			PackageManager: pkg.Manager,
			PackageName:    pkg.Name,
			PackageVersion: pkg.Version,
		})
	}
	return rows
}
