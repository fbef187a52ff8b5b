package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mukfin/scripts/pkg/inventory"
	"github.com/mukfin/scripts/pkg/utils"
)

// CLIName is the Azure CLI executable
const CLIName = "az"

// Client talks to Azure through the Azure CLI, reusing its login context.
type Client struct {
	runner utils.CommandRunner
}

// NewClient creates an Azure CLI client
func NewClient(runner utils.CommandRunner) *Client {
	return &Client{runner: runner}
}

// ListSubscriptions returns every subscription visible to the current credential,
// in the order the CLI reports them
func (c *Client) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	var subscriptions []Subscription
	if err := c.runJSON(ctx, &subscriptions, "account", "list", "--output", "json"); err != nil {
		return nil, fmt.Errorf("failed to list Azure subscriptions: %w", err)
	}
	return subscriptions, nil
}

// ListVirtualMachines returns the VMs of one subscription including their power state
func (c *Client) ListVirtualMachines(ctx context.Context, subscriptionID string) ([]VirtualMachine, error) {
	var vms []VirtualMachine
	if err := c.runJSON(ctx, &vms, "vm", "list",
		"--subscription", subscriptionID,
		"--show-details",
		"--output", "json"); err != nil {
		return nil, fmt.Errorf("failed to list VMs in subscription %s: %w", subscriptionID, err)
	}
	return vms, nil
}

func (c *Client) runJSON(ctx context.Context, target interface{}, args ...string) error {
	output, err := c.runner.Output(ctx, CLIName, args...)
	if err != nil {
		return err
	}
	return decodeJSON(output, target, utils.CommandLine(CLIName, args...))
}

// decodeJSON treats empty output as an empty result
func decodeJSON(output []byte, target interface{}, command string) error {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(trimmed), target); err != nil {
		return fmt.Errorf("failed to parse JSON output from %s: %w", command, err)
	}
	return nil
}

// ResolveSubscriptions maps requested subscription IDs or display names onto
// the available subscriptions. An exact ID match wins over a case-insensitive
// name match. Entries that match nothing produce a warning and are skipped.
// With no request, every available subscription is returned.
func ResolveSubscriptions(requested []string, available []Subscription) ([]inventory.Scope, []inventory.Warning) {
	if len(requested) == 0 {
		scopes := make([]inventory.Scope, 0, len(available))
		for _, sub := range available {
			scopes = append(scopes, subscriptionScope(sub))
		}
		return scopes, nil
	}

	byID := make(map[string]Subscription, len(available))
	byName := make(map[string]Subscription, len(available))
	for _, sub := range available {
		byID[sub.ID] = sub
		name := strings.ToLower(sub.Name)
		if _, exists := byName[name]; !exists {
			byName[name] = sub
		}
	}

	var scopes []inventory.Scope
	var warnings []inventory.Warning
	seen := make(map[string]bool)
	for _, value := range requested {
		sub, ok := byID[value]
		if !ok {
			sub, ok = byName[strings.ToLower(value)]
		}
		if !ok {
			err := inventory.NewScopeError(inventory.ErrScopeNotFound, inventory.ProviderAzure, value,
				fmt.Errorf("subscription is not available in the current context"))
			warnings = append(warnings, inventory.WarningFromError(inventory.ProviderAzure, value, err))
			continue
		}
		if seen[sub.ID] {
			continue
		}
		seen[sub.ID] = true
		scopes = append(scopes, subscriptionScope(sub))
	}
	return scopes, warnings
}

func subscriptionScope(sub Subscription) inventory.Scope {
	return inventory.Scope{Provider: inventory.ProviderAzure, ID: sub.ID, DisplayName: sub.Name}
}
