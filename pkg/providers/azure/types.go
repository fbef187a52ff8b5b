package azure

// Subscription is one entry of `az account list`.
type Subscription struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	TenantID  string `json:"tenantId"`
	IsDefault bool   `json:"isDefault"`
}

// VirtualMachine is one entry of `az vm list --show-details`.
// PowerState is only populated because of --show-details.
type VirtualMachine struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	ResourceGroup     string            `json:"resourceGroup"`
	Location          string            `json:"location"`
	PowerState        string            `json:"powerState"`
	ProvisioningState string            `json:"provisioningState"`
	Tags              map[string]string `json:"tags"`
}

// NeededPatch is one row of the Log Analytics Update query.
type NeededPatch struct {
	Computer       string `json:"Computer"`
	OSType         string `json:"OSType"`
	Classification string `json:"Classification"`
	KBID           string `json:"KBID"`
	Title          string `json:"Title"`
	Product        string `json:"Product"`
	TimeGenerated  string `json:"TimeGenerated"`
}

// ArcMachine is the subset of an Azure Arc-enabled server the inventory needs.
type ArcMachine struct {
	ID                string
	Name              string
	ResourceGroup     string
	Status            string
	ProvisioningState string
	Tags              map[string]string
}
