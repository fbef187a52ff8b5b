package azure

import (
	"context"
	"fmt"
)

// neededPatchesQuery returns the latest "Needed" record per computer and update
// from the Update Management table.
const neededPatchesQuery = `Update
| where TimeGenerated > ago(%dd)
| where UpdateState == "Needed"
| summarize arg_max(TimeGenerated, *) by Computer, KBID, Title
| project Computer, OSType, Classification, KBID, Title, Product, TimeGenerated
| order by Computer asc, Classification asc, KBID asc`

// NeededPatchesQuery renders the Log Analytics query for the given look-back window
func NeededPatchesQuery(days int) string {
	return fmt.Sprintf(neededPatchesQuery, days)
}

// QueryNeededPatches runs the needed-patches query against a Log Analytics workspace
func (c *Client) QueryNeededPatches(ctx context.Context, workspaceID string, days int) ([]NeededPatch, error) {
	var patches []NeededPatch
	if err := c.runJSON(ctx, &patches, "monitor", "log-analytics", "query",
		"--workspace", workspaceID,
		"--analytics-query", NeededPatchesQuery(days),
		"--output", "json"); err != nil {
		return nil, fmt.Errorf("failed to query needed patches in workspace %s: %w", workspaceID, err)
	}
	return patches, nil
}
