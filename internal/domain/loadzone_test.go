package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loaded(id int64, zone int, tech, fuel string, mw, hr float64, year int) LoadedPlant {
	return LoadedPlant{
		Plant: Plant{
			Name: "p", GenTech: tech, EnergySource: fuel, EIAPlantCode: int(id),
			CapacityLimitMW: mw, FullLoadHeatRate: hr, State: "CA",
			BuildYears: []BuildYear{{Year: year, CapacityMW: mw}},
		},
		ID:         id,
		LoadZoneID: zone,
	}
}

func TestHRGroup(t *testing.T) {
	assert.Equal(t, 0, HRGroup(0))
	assert.Equal(t, 0, HRGroup(math.NaN()))
	assert.Equal(t, 10, HRGroup(10.4))
	assert.Equal(t, 11, HRGroup(10.5))
}

func TestAggregateByLoadZone(t *testing.T) {
	plants := []LoadedPlant{
		loaded(1, 3, "GT", FuelGas, 100, 10.2, 1990),
		loaded(2, 3, "GT", FuelGas, 300, 9.8, 2000),
		loaded(3, 3, "GT", FuelGas, 50, 12, 2000),
		loaded(4, 5, "GT", FuelGas, 50, 10, 2000),
		loaded(5, 0, "GT", FuelGas, 50, 10, 2000),
	}
	plants[1].MaxAge = 40

	out := AggregateByLoadZone(plants)

	require.Len(t, out, 3)
	a := out[0]
	assert.Equal(t, "LZ_3_GT_Gas_HR_10", a.Name)
	assert.InDelta(t, 400, a.CapacityLimitMW, 1e-9)
	assert.InDelta(t, 9.9, a.FullLoadHeatRate, 1e-9)
	assert.Equal(t, 40, a.MaxAge)
	assert.Equal(t, []int64{1, 2}, a.Members)
	assert.Equal(t, []BuildYear{{Year: 1990, CapacityMW: 100}, {Year: 2000, CapacityMW: 300}}, a.BuildYears)
	assert.Equal(t, "LZ_3_GT_Gas_HR_12", out[1].Name)
	assert.Equal(t, 5, out[2].LoadZoneID)
}

func TestHydroFlows(t *testing.T) {
	plants := []LoadedPlant{
		loaded(10, 1, "HY", "Water", 200, 0, 1960),
		loaded(11, 1, "HY", "Water", 100, 0, 1970),
	}
	plants[1].EIAPlantCode = 99
	cfs := []HydroCapacityFactor{
		{Year: 2018, Month: 1, PlantCode: 10, PrimeMover: "HY", CapacityFactor: 0.5},
		{Year: 2018, Month: 1, PlantCode: 10, PrimeMover: "HY", CapacityFactor: 0.9},
		{Year: 2018, Month: 2, PlantCode: 10, PrimeMover: "HY", CapacityFactor: math.NaN()},
		{Year: 2018, Month: 1, PlantCode: 99, PrimeMover: "HY", CapacityFactor: 0.2},
		{Year: 2018, Month: 1, PlantCode: 12, PrimeMover: "HY", CapacityFactor: 0.2},
	}

	flows := HydroFlows(cfs, plants)

	require.Len(t, flows, 3)
	assert.InDelta(t, 100, flows[0].AvgFlow, 1e-9)
	assert.InDelta(t, 50, flows[0].MinFlow, 1e-9)
	assert.InDelta(t, MissingHydroFlow, flows[1].AvgFlow, 1e-12)
	assert.InDelta(t, MissingHydroFlow, flows[1].MinFlow, 1e-12)
	assert.Equal(t, int64(11), flows[2].PlantID)

	agg := AggregateHydroFlows(flows, []AggregatedPlant{
		{Plant: Plant{GenTech: "HY"}, ID: 500, LoadZoneID: 1},
		{Plant: Plant{GenTech: "HY"}, ID: 501, LoadZoneID: 2},
	})

	require.Len(t, agg, 2)
	assert.Equal(t, int64(500), agg[0].PlantID)
	assert.Equal(t, 1, agg[0].Month)
	assert.InDelta(t, 120, agg[0].AvgFlow, 1e-9)
	assert.InDelta(t, 60, agg[0].MinFlow, 1e-9)
	assert.Equal(t, 2, agg[1].Month)
}
