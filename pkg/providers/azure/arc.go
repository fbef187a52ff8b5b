package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/hybridcompute/armhybridcompute"
	"github.com/Azure/go-autorest/autorest/to"
)

// MachineLister is the subset of the Arc machines client we need.
// It exists to allow lightweight mocking in unit tests.
type MachineLister interface {
	ListMachines(ctx context.Context) ([]*armhybridcompute.Machine, error)
}

// MachineListerFactory creates a MachineLister for one subscription
type MachineListerFactory func(subscriptionID string) (MachineLister, error)

// NewMachineListerFactory returns a factory backed by the Azure SDK
func NewMachineListerFactory(cred azcore.TokenCredential) MachineListerFactory {
	return func(subscriptionID string) (MachineLister, error) {
		client, err := armhybridcompute.NewMachinesClient(subscriptionID, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create hybrid compute client: %w", err)
		}
		return &sdkMachineLister{client: client}, nil
	}
}

type sdkMachineLister struct {
	client *armhybridcompute.MachinesClient
}

func (l *sdkMachineLister) ListMachines(ctx context.Context) ([]*armhybridcompute.Machine, error) {
	var machines []*armhybridcompute.Machine
	pager := l.client.NewListBySubscriptionPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list Arc machines via SDK: %w", err)
		}
		machines = append(machines, page.Value...)
	}
	return machines, nil
}

// ListArcMachines lists the Arc-enabled servers of one subscription
func ListArcMachines(ctx context.Context, factory MachineListerFactory, subscriptionID string) ([]ArcMachine, error) {
	lister, err := factory(subscriptionID)
	if err != nil {
		return nil, err
	}
	machines, err := lister.ListMachines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list Arc machines in subscription %s: %w", subscriptionID, err)
	}

	result := make([]ArcMachine, 0, len(machines))
	for _, machine := range machines {
		if machine == nil {
			continue
		}
		result = append(result, ArcMachineFromSDK(machine))
	}
	return result, nil
}

// ArcMachineFromSDK flattens the SDK model, leaving absent values empty
func ArcMachineFromSDK(machine *armhybridcompute.Machine) ArcMachine {
	m := ArcMachine{
		ID:   to.String(machine.ID),
		Name: to.String(machine.Name),
		Tags: to.StringMap(machine.Tags),
	}
	if resourceID, err := arm.ParseResourceID(m.ID); err == nil {
		m.ResourceGroup = resourceID.ResourceGroupName
	}
	if props := machine.Properties; props != nil {
		if props.Status != nil {
			m.Status = string(*props.Status)
		}
		m.ProvisioningState = to.String(props.ProvisioningState)
	}
	return m
}
