package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePickupIsConstant(t *testing.T) {
	table := NewTable(DefaultPickupFee)
	assert.Equal(t, int64(120), table.Resolve(Pickup()))

	withRegion := Pickup()
	withRegion.Region = "lamu"
	assert.Equal(t, int64(120), table.Resolve(withRegion))
}

func TestResolveTabledRegions(t *testing.T) {
	table := NewTable(DefaultPickupFee)
	for key, fee := range countyFees {
		assert.Equal(t, fee, table.Resolve(RegionDelivery(key)), key)
	}
	assert.Equal(t, int64(200), table.Resolve(RegionDelivery(" Nairobi ")))
}

func TestResolveUnknownRegionFallsBackToZero(t *testing.T) {
	table := NewTable(DefaultPickupFee)
	assert.Equal(t, int64(0), table.Resolve(RegionDelivery("unknown_region")))
	assert.False(t, table.Known("unknown_region"))
	assert.True(t, table.Known("Mombasa"))
}

func TestParseSelection(t *testing.T) {
	sel, err := ParseSelection("pickup", "")
	require.NoError(t, err)
	assert.Equal(t, MethodPickup, sel.Method)

	sel, err = ParseSelection("Delivery", "Kisumu")
	require.NoError(t, err)
	assert.Equal(t, RegionDelivery("kisumu"), sel)

	_, err = ParseSelection("delivery", "  ")
	assert.Error(t, err)

	_, err = ParseSelection("drone", "nairobi")
	assert.Error(t, err)
}

func TestRegionsSorted(t *testing.T) {
	regions := NewTable(DefaultPickupFee).Regions()
	require.Len(t, regions, len(countyFees))
	assert.Equal(t, "busia", regions[0].Key)
	assert.Equal(t, "thika", regions[len(regions)-1].Key)
}
