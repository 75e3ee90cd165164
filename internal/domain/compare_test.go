package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareScenarios(t *testing.T) {
	oldRows := []CapacityRow{
		{EnergySource: "Gas", GenTech: "GT", CapacityMW: 900},
		{EnergySource: "Coal", GenTech: "ST", CapacityMW: 500},
	}
	newRows := []CapacityRow{
		{EnergySource: "Solar", GenTech: "PV", CapacityMW: 300},
		{EnergySource: "Gas", GenTech: "GT", CapacityMW: 1000},
		{EnergySource: "Gas", GenTech: "CC", CapacityMW: 2000},
	}

	out := CompareScenarios(oldRows, newRows)

	require.Len(t, out, 3)
	assert.Equal(t, "CC", out[0].GenTech)
	assert.False(t, out[0].HasOld)
	assert.Equal(t, CapacityDiff{EnergySource: "Gas", GenTech: "GT", NewMW: 1000, OldMW: 900, HasOld: true, DiffMW: 100}, out[1])
	assert.Equal(t, "Solar", out[2].EnergySource)
	assert.Zero(t, out[2].DiffMW)
}
