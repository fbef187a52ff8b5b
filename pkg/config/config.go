package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mukfin/scripts/pkg/logger"
	"github.com/mukfin/scripts/pkg/utils"
)

const (
	// Default configuration values
	defaultLogLevel          = "info"
	defaultCommandTimeout    = 2 * time.Minute
	defaultParallelism       = 1
	defaultVMInventoryOutput = "vm_inventory.csv"
	defaultPatchOutput       = "./reports/output/azure_needed_patches.csv"
	defaultPatchTimespanDays = 7
	defaultPackagesOutput    = "./reports/output/gcp_packages.csv"

	// Environment variable prefix for every key, e.g. CLOUD_INVENTORY_LOG_LEVEL
	envPrefix = "CLOUD_INVENTORY"
)

// defaultPackageProjects are placeholders used when GCP_PROJECTS is not set
var defaultPackageProjects = []string{"example-project-1", "example-project-2"}

// envBindings maps configuration keys to the unprefixed environment variables
// the report scripts have always honoured.
var envBindings = map[string]string{
	"azure.patch.output":       "AZURE_PATCH_OUTPUT",
	"azure.patch.timespanDays": "AZURE_PATCH_TIMESPAN_DAYS",
	"gcp.packages.projects":    "GCP_PROJECTS",
	"gcp.packages.output":      "GCP_PACKAGES_OUTPUT",
}

// flagBindings maps configuration keys to command line flag names.
var flagBindings = map[string]string{
	"log.level":              "log-level",
	"log.dir":                "log-dir",
	"command.timeout":        "command-timeout",
	"collection.parallelism": "parallel",
	"summaryFile":            "summary-file",
	"vmInventory.output":     "output",
	"vmInventory.includeArc": "include-arc",
}

// LoadConfig loads configuration from an optional config file (JSON or YAML),
// environment variables and the given flag set. Flags that are not defined on
// the flag set are ignored, so every command can share this loader.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setViperDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", env, err)
		}
	}

	if flags != nil {
		for key, name := range flagBindings {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	if configPath != "" {
		if !utils.FileExists(configPath) {
			return nil, fmt.Errorf("config file %s does not exist", configPath)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file at %s: %w", configPath, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Repeatable flags are applied directly so values containing commas survive
	if flags != nil {
		if values, ok := changedStringArray(flags, "azure-subscription"); ok {
			config.Azure.Subscriptions = values
		}
		if values, ok := changedStringArray(flags, "gcp-project"); ok {
			config.GCP.Projects = values
		}
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func setViperDefaults(v *viper.Viper) {
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.dir", "")
	v.SetDefault("command.timeout", defaultCommandTimeout)
	v.SetDefault("collection.parallelism", defaultParallelism)
	v.SetDefault("summaryFile", "")
	v.SetDefault("vmInventory.output", defaultVMInventoryOutput)
	v.SetDefault("vmInventory.includeArc", false)
	v.SetDefault("azure.subscriptions", []string{})
	v.SetDefault("azure.servicePrincipal.tenantId", "")
	v.SetDefault("azure.servicePrincipal.clientId", "")
	v.SetDefault("azure.servicePrincipal.clientSecret", "")
	v.SetDefault("azure.patch.workspaceId", "")
	v.SetDefault("azure.patch.output", defaultPatchOutput)
	v.SetDefault("azure.patch.timespanDays", defaultPatchTimespanDays)
	v.SetDefault("gcp.projects", []string{})
	v.SetDefault("gcp.packages.projects", strings.Join(defaultPackageProjects, " "))
	v.SetDefault("gcp.packages.output", defaultPackagesOutput)
}

func changedStringArray(flags *pflag.FlagSet, name string) ([]string, bool) {
	flag := flags.Lookup(name)
	if flag == nil || !flag.Changed {
		return nil, false
	}
	values, err := flags.GetStringArray(name)
	if err != nil {
		return nil, false
	}
	return values, true
}

// SetDefaults sets default values for any missing configuration fields and
// normalizes list values
func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Command.Timeout == 0 {
		c.Command.Timeout = defaultCommandTimeout
	}
	if c.Collection.Parallelism == 0 {
		c.Collection.Parallelism = defaultParallelism
	}
	if c.VMInventory.Output == "" {
		c.VMInventory.Output = defaultVMInventoryOutput
	}
	if c.Azure.Patch.Output == "" {
		c.Azure.Patch.Output = defaultPatchOutput
	}
	if c.Azure.Patch.TimespanDays == 0 {
		c.Azure.Patch.TimespanDays = defaultPatchTimespanDays
	}
	if c.GCP.Packages.Output == "" {
		c.GCP.Packages.Output = defaultPackagesOutput
	}

	c.Azure.Subscriptions = splitFields(c.Azure.Subscriptions, false)
	c.GCP.Projects = splitFields(c.GCP.Projects, true)
	// GCP_PROJECTS is space separated
	c.GCP.Packages.Projects = splitFields(c.GCP.Packages.Projects, true)
	if len(c.GCP.Packages.Projects) == 0 {
		c.GCP.Packages.Projects = append([]string(nil), defaultPackageProjects...)
	}
}

// splitFields trims entries and drops empty ones. With onWhitespace, entries
// are additionally split on whitespace; subscription display names may contain
// spaces, project IDs never do.
func splitFields(values []string, onWhitespace bool) []string {
	var out []string
	for _, value := range values {
		if onWhitespace {
			out = append(out, strings.Fields(value)...)
			continue
		}
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := logger.ValidateLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %s: %w", c.Log.Level, err)
	}
	if c.Command.Timeout < 0 {
		return fmt.Errorf("command.timeout must be positive, got %s", c.Command.Timeout)
	}
	if c.Collection.Parallelism < 1 {
		return fmt.Errorf("collection.parallelism must be at least 1, got %d", c.Collection.Parallelism)
	}
	if c.Azure.Patch.TimespanDays < 1 {
		return fmt.Errorf("azure.patch.timespanDays must be at least 1, got %d", c.Azure.Patch.TimespanDays)
	}
	if sp := c.Azure.ServicePrincipal; sp != nil && (sp.ClientID != "" || sp.ClientSecret != "") && !c.IsSPConfigured() {
		return fmt.Errorf("azure.servicePrincipal requires tenantId, clientId and clientSecret")
	}
	return nil
}
