package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mukfin/scripts/pkg/utils"
)

// CLIName is the Google Cloud CLI executable
const CLIName = "gcloud"

// unsetValue is what `gcloud config get-value` prints for a missing property
const unsetValue = "(unset)"

// Client talks to Google Cloud through gcloud, reusing its login context.
type Client struct {
	runner utils.CommandRunner
}

// NewClient creates a gcloud client
func NewClient(runner utils.CommandRunner) *Client {
	return &Client{runner: runner}
}

// ActiveProject returns the project of the active gcloud configuration, or an
// empty string when none is configured
func (c *Client) ActiveProject(ctx context.Context) (string, error) {
	output, err := c.runner.Output(ctx, CLIName, "config", "get-value", "project")
	if err != nil {
		return "", fmt.Errorf("failed to read active gcloud project: %w", err)
	}
	project := strings.TrimSpace(string(output))
	if project == unsetValue {
		return "", nil
	}
	return project, nil
}

// ListInstances returns the compute instances of one project
func (c *Client) ListInstances(ctx context.Context, project string) ([]Instance, error) {
	var instances []Instance
	if err := c.runJSON(ctx, &instances, "compute", "instances", "list",
		"--project", project,
		"--format", "json"); err != nil {
		return nil, fmt.Errorf("failed to list instances in project %s: %w", project, err)
	}
	return instances, nil
}

// DescribeInventory returns the OS Config inventory of one instance
func (c *Client) DescribeInventory(ctx context.Context, project, zone, instance string) (*Inventory, error) {
	inv := &Inventory{}
	if err := c.runJSON(ctx, inv, "compute", "os-config", "inventories", "describe", instance,
		"--location", zone,
		"--project", project,
		"--view", "full",
		"--format", "json"); err != nil {
		return nil, fmt.Errorf("failed to describe inventory of %s/%s: %w", zone, instance, err)
	}
	return inv, nil
}

func (c *Client) runJSON(ctx context.Context, target interface{}, args ...string) error {
	output, err := c.runner.Output(ctx, CLIName, args...)
	if err != nil {
		return err
	}
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(trimmed), target); err != nil {
		return fmt.Errorf("failed to parse JSON output from %s: %w", utils.CommandLine(CLIName, args...), err)
	}
	return nil
}
