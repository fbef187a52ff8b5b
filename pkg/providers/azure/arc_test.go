package azure

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/hybridcompute/armhybridcompute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMachineLister struct {
	machines []*armhybridcompute.Machine
	err      error
}

func (f *fakeMachineLister) ListMachines(ctx context.Context) ([]*armhybridcompute.Machine, error) {
	return f.machines, f.err
}

func ptr[T any](v T) *T { return &v }

func TestArcMachineFromSDK(t *testing.T) {
	machine := &armhybridcompute.Machine{
		ID:   ptr("/subscriptions/11111111-1111-1111-1111-111111111111/resourceGroups/rg-edge/providers/Microsoft.HybridCompute/machines/edge-01"),
		Name: ptr("edge-01"),
		Tags: map[string]*string{"owner": ptr("bob"), "environment": ptr("prod")},
		Properties: &armhybridcompute.MachineProperties{
			Status:            ptr(armhybridcompute.StatusTypesConnected),
			ProvisioningState: ptr("Succeeded"),
		},
	}

	got := ArcMachineFromSDK(machine)
	assert.Equal(t, "edge-01", got.Name)
	assert.Equal(t, "rg-edge", got.ResourceGroup)
	assert.Equal(t, "Connected", got.Status)
	assert.Equal(t, "Succeeded", got.ProvisioningState)
	assert.Equal(t, "bob", got.Tags["owner"])
	assert.Equal(t, "prod", got.Tags["environment"])
}

func TestArcMachineFromSDKMissingFields(t *testing.T) {
	got := ArcMachineFromSDK(&armhybridcompute.Machine{Name: ptr("bare")})
	assert.Equal(t, "bare", got.Name)
	assert.Empty(t, got.ResourceGroup)
	assert.Empty(t, got.Status)
	assert.Empty(t, got.ProvisioningState)
}

func TestListArcMachines(t *testing.T) {
	var requested string
	factory := func(subscriptionID string) (MachineLister, error) {
		requested = subscriptionID
		return &fakeMachineLister{machines: []*armhybridcompute.Machine{
			{Name: ptr("edge-01")},
			nil,
			{Name: ptr("edge-02")},
		}}, nil
	}

	machines, err := ListArcMachines(context.Background(), factory, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", requested)
	require.Len(t, machines, 2)
	assert.Equal(t, "edge-02", machines[1].Name)
}

func TestListArcMachinesErrors(t *testing.T) {
	factoryErr := func(string) (MachineLister, error) { return nil, errors.New("no credential") }
	_, err := ListArcMachines(context.Background(), factoryErr, "sub-1")
	require.Error(t, err)

	listErr := func(string) (MachineLister, error) {
		return &fakeMachineLister{err: errors.New("forbidden")}, nil
	}
	_, err = ListArcMachines(context.Background(), listErr, "sub-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
}
