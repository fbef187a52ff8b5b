package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestSetDefaults(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		want   func(*Config) bool // validation function
	}{
		{
			name:   "empty config gets all defaults",
			config: &Config{},
			want: func(c *Config) bool {
				return c.Log.Level == "info" &&
					c.Command.Timeout == 2*time.Minute &&
					c.Collection.Parallelism == 1 &&
					c.VMInventory.Output == "vm_inventory.csv" &&
					c.Azure.Patch.Output == "./reports/output/azure_needed_patches.csv" &&
					c.Azure.Patch.TimespanDays == 7 &&
					c.GCP.Packages.Output == "./reports/output/gcp_packages.csv" &&
					len(c.GCP.Packages.Projects) == 2
			},
		},
		{
			name: "existing values are preserved",
			config: &Config{
				Log:         LogConfig{Level: "debug", Dir: "/custom/log/dir"},
				VMInventory: VMInventoryConfig{Output: "out.csv"},
				Azure:       AzureConfig{Patch: PatchConfig{TimespanDays: 30}},
			},
			want: func(c *Config) bool {
				return c.Log.Level == "debug" &&
					c.Log.Dir == "/custom/log/dir" &&
					c.VMInventory.Output == "out.csv" &&
					c.Azure.Patch.TimespanDays == 30
			},
		},
		{
			name: "space separated project lists are split",
			config: &Config{
				GCP: GCPConfig{
					Projects: []string{"proj-a proj-b", " "},
					Packages: PackagesConfig{Projects: []string{"p1  p2 p3"}},
				},
			},
			want: func(c *Config) bool {
				return strings.Join(c.GCP.Projects, ",") == "proj-a,proj-b" &&
					strings.Join(c.GCP.Packages.Projects, ",") == "p1,p2,p3"
			},
		},
		{
			name: "subscription display names keep their spaces",
			config: &Config{
				Azure: AzureConfig{Subscriptions: []string{" Pay As You Go ", ""}},
			},
			want: func(c *Config) bool {
				return len(c.Azure.Subscriptions) == 1 && c.Azure.Subscriptions[0] == "Pay As You Go"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.SetDefaults()
			if !tt.want(tt.config) {
				t.Errorf("SetDefaults() failed validation for %s: %+v", tt.name, tt.config)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.SetDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "defaults pass",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid log level fails",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: true,
			errMsg:  "invalid log.level: trace",
		},
		{
			name:    "log level error names the accepted levels",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
			errMsg:  "Valid levels are: debug, info, warning, error",
		},
		{
			name:    "log level is case insensitive",
			mutate:  func(c *Config) { c.Log.Level = "WARNING" },
			wantErr: false,
		},
		{
			name:    "negative parallelism fails",
			mutate:  func(c *Config) { c.Collection.Parallelism = -1 },
			wantErr: true,
			errMsg:  "collection.parallelism",
		},
		{
			name:    "negative timespan fails",
			mutate:  func(c *Config) { c.Azure.Patch.TimespanDays = -3 },
			wantErr: true,
			errMsg:  "azure.patch.timespanDays",
		},
		{
			name:    "negative timeout fails",
			mutate:  func(c *Config) { c.Command.Timeout = -time.Second },
			wantErr: true,
			errMsg:  "command.timeout",
		},
		{
			name: "partial service principal fails",
			mutate: func(c *Config) {
				c.Azure.ServicePrincipal = &ServicePrincipalConfig{ClientID: "app"}
			},
			wantErr: true,
			errMsg:  "azure.servicePrincipal",
		},
		{
			name: "complete service principal passes",
			mutate: func(c *Config) {
				c.Azure.ServicePrincipal = &ServicePrincipalConfig{TenantID: "t", ClientID: "app", ClientSecret: "s"}
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Fatalf("expected error containing %q, got %v", tt.errMsg, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.VMInventory.Output != "vm_inventory.csv" {
		t.Errorf("unexpected vm inventory output %q", cfg.VMInventory.Output)
	}
	if cfg.Azure.Patch.TimespanDays != 7 {
		t.Errorf("unexpected timespan %d", cfg.Azure.Patch.TimespanDays)
	}
	if strings.Join(cfg.GCP.Packages.Projects, " ") != "example-project-1 example-project-2" {
		t.Errorf("unexpected default package projects %v", cfg.GCP.Packages.Projects)
	}
	if len(cfg.GCP.Projects) != 0 {
		t.Errorf("vm inventory projects should default to empty, got %v", cfg.GCP.Projects)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("AZURE_PATCH_OUTPUT", "/tmp/patches.csv")
	t.Setenv("AZURE_PATCH_TIMESPAN_DAYS", "14")
	t.Setenv("GCP_PROJECTS", "alpha beta gamma")
	t.Setenv("GCP_PACKAGES_OUTPUT", "/tmp/packages.csv")
	t.Setenv("CLOUD_INVENTORY_LOG_LEVEL", "debug")

	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Azure.Patch.Output != "/tmp/patches.csv" {
		t.Errorf("unexpected patch output %q", cfg.Azure.Patch.Output)
	}
	if cfg.Azure.Patch.TimespanDays != 14 {
		t.Errorf("unexpected timespan %d", cfg.Azure.Patch.TimespanDays)
	}
	if strings.Join(cfg.GCP.Packages.Projects, ",") != "alpha,beta,gamma" {
		t.Errorf("unexpected package projects %v", cfg.GCP.Packages.Projects)
	}
	if cfg.GCP.Packages.Output != "/tmp/packages.csv" {
		t.Errorf("unexpected packages output %q", cfg.GCP.Packages.Output)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("unexpected log level %q", cfg.Log.Level)
	}
}

func TestLoadConfigFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: warning
vmInventory:
  output: from-file.csv
azure:
  subscriptions:
    - sub-from-file
collection:
  parallelism: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "vm_inventory.csv", "")
	flags.StringArray("azure-subscription", nil, "")
	flags.StringArray("gcp-project", nil, "")
	flags.Int("parallel", 1, "")
	if err := flags.Parse([]string{"--output", "from-flag.csv", "--azure-subscription", "Prod, EU", "--azure-subscription", "sub-2"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := LoadConfig(path, flags)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Log.Level != "warning" {
		t.Errorf("expected log level from file, got %q", cfg.Log.Level)
	}
	if cfg.VMInventory.Output != "from-flag.csv" {
		t.Errorf("expected flag to override file, got %q", cfg.VMInventory.Output)
	}
	if cfg.Collection.Parallelism != 2 {
		t.Errorf("expected parallelism from file, got %d", cfg.Collection.Parallelism)
	}
	if strings.Join(cfg.Azure.Subscriptions, "|") != "Prod, EU|sub-2" {
		t.Errorf("unexpected subscriptions %v", cfg.Azure.Subscriptions)
	}
	if len(cfg.GCP.Projects) != 0 {
		t.Errorf("unexpected projects %v", cfg.GCP.Projects)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"), nil); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
