package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mukfin/scripts/pkg/collector"
	"github.com/mukfin/scripts/pkg/inventory"
)

type stubSource struct {
	name     string
	provider inventory.Provider
	tool     string
	scopes   []inventory.Scope
	scopeErr error
	rows     map[string][]inventory.Row
	errs     map[string]error
	calls    int
}

func (s *stubSource) Name() string                 { return s.name }
func (s *stubSource) Provider() inventory.Provider { return s.provider }
func (s *stubSource) Tool() string                 { return s.tool }

func (s *stubSource) Scopes(context.Context) ([]inventory.Scope, []inventory.Warning, error) {
	return s.scopes, nil, s.scopeErr
}

func (s *stubSource) Collect(_ context.Context, scope inventory.Scope) (inventory.Batch, error) {
	s.calls++
	if err := s.errs[scope.ID]; err != nil {
		return inventory.Batch{}, err
	}
	return inventory.Batch{Rows: s.rows[scope.ID]}, nil
}

// warningSource reports a per-instance warning and no rows for every scope
type warningSource struct {
	stubSource
}

func (s *warningSource) Collect(_ context.Context, scope inventory.Scope) (inventory.Batch, error) {
	s.calls++
	return inventory.Batch{Warnings: []inventory.Warning{
		{Provider: s.provider, Scope: scope.ID + "/vm-a", Reason: "inventory not found"},
	}}, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func allTools(string) bool { return true }

func newPipeline(kind Kind, output string, stdout io.Writer, steps ...Step) *Pipeline {
	logger := testLogger()
	return New(kind, output, steps, collector.NewRunner(logger, 1), logger).
		WithToolCheck(allTools).
		WithStdout(stdout)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func azureSource() *stubSource {
	return &stubSource{
		name:     "azure-vms",
		provider: inventory.ProviderAzure,
		tool:     "az",
		scopes: []inventory.Scope{
			{Provider: inventory.ProviderAzure, ID: "sub-bad"},
			{Provider: inventory.ProviderAzure, ID: "sub-1"},
		},
		rows: map[string][]inventory.Row{
			"sub-1": {inventory.VMRow{Cloud: "azure", SubscriptionOrProject: "sub-1", ResourceGroupOrProject: "rg-1", Name: "vm-01", Status: "Succeeded", Owner: "alice"}},
		},
		errs: map[string]error{"sub-bad": errors.New("AuthorizationFailed")},
	}
}

func gcpSource() *stubSource {
	return &stubSource{
		name:     "gcp-vms",
		provider: inventory.ProviderGCP,
		tool:     "gcloud",
		scopes:   []inventory.Scope{{Provider: inventory.ProviderGCP, ID: "proj1"}},
		rows: map[string][]inventory.Row{
			"proj1": {inventory.VMRow{Cloud: "gcp", SubscriptionOrProject: "proj1", ResourceGroupOrProject: "proj1", Name: "web-1", Status: "RUNNING"}},
		},
	}
}

func TestVMInventoryWithOneFailedScope(t *testing.T) {
	output := filepath.Join(t.TempDir(), "vm_inventory.csv")
	var stdout bytes.Buffer

	p := newPipeline(KindVMInventory, output, &stdout, Step{Source: azureSource()}, Step{Source: gcpSource()})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, p.State())
	assert.Equal(t, StateSuccess, summary.State)
	assert.Equal(t, 2, summary.Rows)
	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Providers, 2)
	assert.Equal(t, 1, summary.Providers[0].Failed)
	require.Len(t, summary.Warnings, 1)
	assert.Equal(t, "sub-bad", summary.Warnings[0].Scope)
	assert.Equal(t, "Wrote 2 records to "+output+"\n", stdout.String())

	records := readCSV(t, output)
	require.Len(t, records, 3)
	assert.Equal(t, inventory.VMInventorySchema.Columns, records[0])
	assert.Equal(t, []string{"azure", "sub-1", "rg-1", "vm-01", "Succeeded", "alice", "", ""}, records[1])
	assert.Equal(t, []string{"gcp", "proj1", "proj1", "web-1", "RUNNING", "", "", ""}, records[2])
}

func TestVMInventoryZeroRowsFails(t *testing.T) {
	output := filepath.Join(t.TempDir(), "vm_inventory.csv")
	var stdout bytes.Buffer

	azure := azureSource()
	azure.scopeErr = errors.New("please run az login")
	gcp := gcpSource()
	gcp.scopes = nil

	p := newPipeline(KindVMInventory, output, &stdout, Step{Source: azure}, Step{Source: gcp})
	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, inventory.ErrZeroRows))
	assert.Equal(t, StateFailure, summary.State)
	assert.NotEmpty(t, summary.Error)
	assert.Empty(t, stdout.String())
	assert.Equal(t, 0, azure.calls)

	records := readCSV(t, output)
	assert.Len(t, records, 1, "only the header may be left behind")
}

func TestEmptyPatchReportSucceeds(t *testing.T) {
	output := filepath.Join(t.TempDir(), "reports", "output", "azure_needed_patches.csv")
	var stdout bytes.Buffer

	src := &stubSource{
		name:     "azure-patches",
		provider: inventory.ProviderAzure,
		tool:     "az",
		scopes:   []inventory.Scope{{Provider: inventory.ProviderAzure, ID: "ws-1"}},
	}
	p := newPipeline(KindAzurePatches, output, &stdout, Step{Source: src, Required: true})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, summary.State)
	assert.Equal(t, 0, summary.Rows)
	assert.Contains(t, stdout.String(), "No needed patches found")

	records := readCSV(t, output)
	require.Len(t, records, 1)
	assert.Equal(t, inventory.PatchStatusSchema.Columns, records[0])
}

func TestEmptyReportAfterFailedQuery(t *testing.T) {
	output := filepath.Join(t.TempDir(), "azure_needed_patches.csv")
	var stdout bytes.Buffer

	src := &stubSource{
		name:     "azure-patches",
		provider: inventory.ProviderAzure,
		tool:     "az",
		scopes:   []inventory.Scope{{Provider: inventory.ProviderAzure, ID: "ws-1"}},
		errs:     map[string]error{"ws-1": errors.New("AuthorizationFailed")},
	}
	p := newPipeline(KindAzurePatches, output, &stdout, Step{Source: src, Required: true})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, summary.State)
	require.Len(t, summary.Warnings, 1)

	assert.NotContains(t, stdout.String(), "No needed patches found")
	assert.Equal(t, "No rows written; 1 scope(s) failed, see warnings. Wrote header only to "+output+"\n", stdout.String())
}

func TestEmptyPackageReportWithInstanceWarnings(t *testing.T) {
	output := filepath.Join(t.TempDir(), "gcp_packages.csv")
	var stdout bytes.Buffer

	src := &warningSource{stubSource: stubSource{
		name:     "gcp-packages",
		provider: inventory.ProviderGCP,
		tool:     "gcloud",
		scopes:   []inventory.Scope{{Provider: inventory.ProviderGCP, ID: "proj1"}},
	}}
	p := newPipeline(KindGCPPackages, output, &stdout, Step{Source: src, Required: true})
	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout.String(), "No rows written; 1 warning(s) reported"), stdout.String())
}

func TestProviderWithoutScopesLeavesOtherRows(t *testing.T) {
	output := filepath.Join(t.TempDir(), "vm_inventory.csv")
	var stdout bytes.Buffer

	azure := azureSource()
	azure.scopes = nil
	gcp := gcpSource()

	p := newPipeline(KindVMInventory, output, &stdout, Step{Source: azure}, Step{Source: gcp})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, summary.State)
	assert.Equal(t, 1, summary.Rows)
	assert.Empty(t, summary.Warnings)
	assert.Equal(t, 0, azure.calls)
	require.Len(t, summary.Providers, 2)
	assert.Equal(t, 0, summary.Providers[0].Scopes)
	assert.Equal(t, 1, summary.Providers[1].Rows)
	assert.Equal(t, "Wrote 1 records to "+output+"\n", stdout.String())

	records := readCSV(t, output)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"gcp", "proj1", "proj1", "web-1", "RUNNING", "", "", ""}, records[1])
}

func TestMissingRequiredToolIsFatal(t *testing.T) {
	output := filepath.Join(t.TempDir(), "gcp_packages.csv")
	src := &stubSource{name: "gcp-packages", provider: inventory.ProviderGCP, tool: "gcloud"}

	logger := testLogger()
	p := New(KindGCPPackages, output, []Step{{Source: src, Required: true}}, collector.NewRunner(logger, 1), logger).
		WithToolCheck(func(string) bool { return false }).
		WithStdout(io.Discard)

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, inventory.ErrMissingTool))
	assert.Equal(t, StateFailure, summary.State)
	assert.Equal(t, 0, src.calls)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no report may be created before the tool check passes")
}

func TestMissingOptionalToolSkipsSource(t *testing.T) {
	output := filepath.Join(t.TempDir(), "vm_inventory.csv")
	azure := azureSource()
	gcp := gcpSource()

	logger := testLogger()
	p := New(KindVMInventory, output, []Step{{Source: azure}, {Source: gcp}}, collector.NewRunner(logger, 1), logger).
		WithToolCheck(func(name string) bool { return name == "gcloud" }).
		WithStdout(io.Discard)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rows)
	assert.Equal(t, 0, azure.calls)
	require.Len(t, summary.Providers, 1)
	assert.Equal(t, inventory.ProviderGCP, summary.Providers[0].Provider)
	require.Len(t, summary.Warnings, 1)
	assert.Contains(t, summary.Warnings[0].Reason, `"az"`)

	t.Run("no source left", func(t *testing.T) {
		p := New(KindVMInventory, output, []Step{{Source: azure}, {Source: gcp}}, collector.NewRunner(logger, 1), logger).
			WithToolCheck(func(string) bool { return false }).
			WithStdout(io.Discard)
		_, err := p.Run(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, inventory.ErrMissingTool))
	})
}

func TestOutputDirectoryFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	p := newPipeline(KindVMInventory, filepath.Join(blocker, "out.csv"), io.Discard, Step{Source: gcpSource()})
	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailure, summary.State)
}

func TestWriteSummary(t *testing.T) {
	summary := &Summary{
		RunID:  "run-1",
		Kind:   KindGCPPackages,
		State:  StateSuccess,
		Output: "out.csv",
		Rows:   3,
		Warnings: []inventory.Warning{
			{Provider: inventory.ProviderGCP, Scope: "proj1/vm-b", Reason: "fetch failed"},
		},
	}
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "summary.json")
		require.NoError(t, WriteSummary(path, summary))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "run-1", decoded["runId"])
		assert.Equal(t, "gcp-packages", decoded["kind"])
		assert.EqualValues(t, 3, decoded["rows"])
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "summary.yaml")
		require.NoError(t, WriteSummary(path, summary))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, yaml.Unmarshal(data, &decoded))
		assert.Equal(t, "Success", decoded["state"])
		assert.Equal(t, 3, decoded["rows"])
		warnings, ok := decoded["warnings"].([]interface{})
		require.True(t, ok)
		assert.Len(t, warnings, 1)
	})

	t.Run("nil summary", func(t *testing.T) {
		assert.Error(t, WriteSummary(filepath.Join(dir, "x.json"), nil))
	})
}

func TestKindSchema(t *testing.T) {
	assert.Equal(t, inventory.VMInventorySchema, KindVMInventory.Schema())
	assert.Equal(t, inventory.PatchStatusSchema, KindAzurePatches.Schema())
	assert.Equal(t, inventory.PackageInventorySchema, KindGCPPackages.Schema())
	assert.True(t, KindVMInventory.FailOnZeroRows())
	assert.False(t, KindAzurePatches.FailOnZeroRows())
	assert.False(t, KindGCPPackages.FailOnZeroRows())
}
