package config

import "time"

// Config represents the complete cloud-inventory configuration structure.
// Values come from (lowest to highest precedence) defaults, an optional config
// file, environment variables and command line flags.
type Config struct {
	Log         LogConfig         `json:"log"`
	Command     CommandConfig     `json:"command"`
	Collection  CollectionConfig  `json:"collection"`
	VMInventory VMInventoryConfig `json:"vmInventory"`
	Azure       AzureConfig       `json:"azure"`
	GCP         GCPConfig         `json:"gcp"`
	SummaryFile string            `json:"summaryFile"` // Optional JSON/YAML run summary destination
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `json:"level"` // Logging level: debug, info, warning, error
	Dir   string `json:"dir"`   // Optional directory for a log file copy
}

// CommandConfig holds settings for external CLI invocations.
type CommandConfig struct {
	Timeout time.Duration `json:"timeout"` // Per-call timeout; a timed out call fails its scope
}

// CollectionConfig holds settings for the collection runner.
type CollectionConfig struct {
	Parallelism int `json:"parallelism"` // Number of scopes fetched concurrently (1 = sequential)
}

// VMInventoryConfig holds settings for the VM inventory report.
type VMInventoryConfig struct {
	Output     string `json:"output"`     // CSV destination
	IncludeArc bool   `json:"includeArc"` // Also report Azure Arc-enabled servers
}

// AzureConfig holds Azure-specific configuration.
type AzureConfig struct {
	Subscriptions    []string                `json:"subscriptions"`              // Subscription IDs or display names; empty means all
	ServicePrincipal *ServicePrincipalConfig `json:"servicePrincipal,omitempty"` // Optional SDK credential for Arc listing
	Patch            PatchConfig             `json:"patch"`
}

// ServicePrincipalConfig holds Azure service principal authentication configuration.
// When provided, service principal authentication will be used instead of Azure CLI.
type ServicePrincipalConfig struct {
	TenantID     string `json:"tenantId"`     // Azure AD tenant ID
	ClientID     string `json:"clientId"`     // Azure AD application (client) ID
	ClientSecret string `json:"clientSecret"` // Azure AD application client secret
}

// PatchConfig holds settings for the Azure needed-patches report.
type PatchConfig struct {
	WorkspaceID  string `json:"workspaceId"`  // Log Analytics workspace (customer) ID
	Output       string `json:"output"`       // CSV destination
	TimespanDays int    `json:"timespanDays"` // Look-back window of the Update query
}

// GCPConfig holds Google Cloud configuration.
type GCPConfig struct {
	Projects []string       `json:"projects"` // Projects for the VM inventory; empty means the active gcloud project
	Packages PackagesConfig `json:"packages"`
}

// PackagesConfig holds settings for the GCP package inventory report.
type PackagesConfig struct {
	Projects []string `json:"projects"` // Projects to inventory
	Output   string   `json:"output"`   // CSV destination
}

// IsSPConfigured checks if service principal credentials are provided in the configuration
func (cfg *Config) IsSPConfigured() bool {
	return cfg.Azure.ServicePrincipal != nil &&
		cfg.Azure.ServicePrincipal.ClientID != "" &&
		cfg.Azure.ServicePrincipal.ClientSecret != "" &&
		cfg.Azure.ServicePrincipal.TenantID != ""
}
