package pipeline

import (
	"time"

	"github.com/mukfin/scripts/pkg/inventory"
)

// Kind names a report pipeline
type Kind string

const (
	// KindVMInventory merges Azure, optional Arc, and GCP VMs into one report
	KindVMInventory Kind = "vm-inventory"
	// KindAzurePatches reports updates a Log Analytics workspace marks as needed
	KindAzurePatches Kind = "azure-patches"
	// KindGCPPackages reports packages installed on GCP instances
	KindGCPPackages Kind = "gcp-packages"
)

// Schema returns the CSV schema written by the pipeline
func (k Kind) Schema() inventory.Schema {
	switch k {
	case KindAzurePatches:
		return inventory.PatchStatusSchema
	case KindGCPPackages:
		return inventory.PackageInventorySchema
	default:
		return inventory.VMInventorySchema
	}
}

// FailOnZeroRows reports whether an empty report fails the run
func (k Kind) FailOnZeroRows() bool {
	return k == KindVMInventory
}

// emptyMessage is printed when a pipeline that tolerates empty reports finds nothing
func (k Kind) emptyMessage() string {
	switch k {
	case KindAzurePatches:
		return "No needed patches found"
	case KindGCPPackages:
		return "No installed packages found"
	default:
		return "No VMs found or all queries failed"
	}
}

// State is the lifecycle position of a pipeline run
type State string

const (
	StateInit            State = "Init"
	StateResolvingScopes State = "ResolvingScopes"
	StateCollecting      State = "Collecting"
	StateFinalizing      State = "Finalizing"
	StateSuccess         State = "Success"
	StateFailure         State = "Failure"
)

// Summary describes one pipeline run
type Summary struct {
	RunID     string              `json:"runId" yaml:"runId"`
	Kind      Kind                `json:"kind" yaml:"kind"`
	State     State               `json:"state" yaml:"state"`
	Output    string              `json:"output" yaml:"output"`
	Rows      int                 `json:"rows" yaml:"rows"`
	Providers []inventory.Result  `json:"providers" yaml:"providers"`
	Warnings  []inventory.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	StartedAt time.Time           `json:"startedAt" yaml:"startedAt"`
	Duration  time.Duration       `json:"duration" yaml:"duration"`
	Error     string              `json:"error,omitempty" yaml:"error,omitempty"`
}
