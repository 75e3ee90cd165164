package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRegion(t *testing.T) {
	counties := NewCountySet([]CountyKey{{County: "el paso", State: "tx"}})
	gens := []Generator{
		{PlantCode: 1, NercRegion: "WECC", County: "CLARK", State: "NV"},
		{PlantCode: 2, NercRegion: "", County: "EL PASO", State: "TX"},
		{PlantCode: 3, NercRegion: "", County: "Harris", State: "TX"},
		{PlantCode: 4, NercRegion: "TRE", County: "El Paso", State: "TX"},
	}

	out := FilterRegion(gens, "wecc", counties)

	require.Len(t, out, 2)
	assert.Equal(t, "Clark", out[0].County)
	assert.Equal(t, 2, out[1].PlantCode)
}

func TestCollapseCoalSourcesAndFuelMap(t *testing.T) {
	gens := []Generator{{EnergySource: "SUB", EnergySource2: "BIT", EnergySource3: "NG"}, {EnergySource: "NUC"}, {EnergySource: "XYZ"}}
	CollapseCoalSources(gens)
	assert.Equal(t, CoalCode, gens[0].EnergySource)
	assert.Equal(t, CoalCode, gens[0].EnergySource2)
	assert.Equal(t, "NG", gens[0].EnergySource3)

	ApplyFuelMap(gens)
	assert.Equal(t, FuelCoal, gens[0].EnergySource)
	assert.Equal(t, "Uranium", gens[1].EnergySource)
	assert.Equal(t, "XYZ", gens[2].EnergySource)
}

func TestRealisticHeatRate(t *testing.T) {
	tests := []struct {
		hr   float64
		fuel string
		want bool
	}{
		{10, FuelCoal, true},
		{8.6, FuelCoal, false},
		{7, FuelGas, true},
		{6.7, FuelGas, false},
		{100.5, FuelGas, false},
		{0, FuelGas, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RealisticHeatRate(tt.hr, tt.fuel), "%v %s", tt.hr, tt.fuel)
	}
}

func thermal(code int, pm, fuel string, year int) Generator {
	return Generator{PlantCode: code, PrimeMover: pm, EnergySource: fuel, OperatingYear: year, OperationalStatus: Operable}
}

func TestAssignHeatRates(t *testing.T) {
	existing := []Generator{
		thermal(1, "GT", FuelGas, 2000),
		thermal(2, "GT", FuelGas, 2001),
		thermal(3, "GT", FuelGas, 2002),
		thermal(4, "GT", FuelGas, 2003),
		thermal(5, "GT", FuelGas, 2001), // unrealistic measured value
		thermal(6, "GT", FuelGas, 1950), // no measurement, isolated vintage
		thermal(7, "IC", "DistillateFuelOil", 1990),
		{PlantCode: 8, PrimeMover: "PV", EnergySource: "Solar", OperatingYear: 2015},
	}
	records := []HeatRateRecord{
		{Year: 2018, PlantCode: 1, PrimeMover: "GT", EnergySource: "NG", BestHeatRate: 10},
		{Year: 2018, PlantCode: 2, PrimeMover: "GT", EnergySource: "NG", BestHeatRate: 11},
		{Year: 2018, PlantCode: 3, PrimeMover: "GT", EnergySource: "NG", BestHeatRate: 12},
		{Year: 2018, PlantCode: 4, PrimeMover: "GT", EnergySource: "NG", BestHeatRate: 13},
		{Year: 2018, PlantCode: 5, PrimeMover: "GT", EnergySource: "NG", BestHeatRate: 3},
		{Year: 2017, PlantCode: 6, PrimeMover: "GT", EnergySource: "NG", BestHeatRate: 9},
		{Year: 2018, PlantCode: 8, PrimeMover: "PV", EnergySource: "SUN", BestHeatRate: 9},
	}
	proposed := []Generator{
		{PlantCode: 9, PrimeMover: "GT", EnergySource: FuelGas, OperationalStatus: Proposed},
		{PlantCode: 10, PrimeMover: "WT", EnergySource: "Wind", OperationalStatus: Proposed},
	}

	rep := AssignHeatRates(existing, proposed, records, 2018)

	assert.Equal(t, 4, rep.Measured)
	assert.InDelta(t, 10, existing[0].BestHeatRate, 1e-9)
	assert.InDelta(t, 11.5, existing[4].BestHeatRate, 1e-9) // mean of 4 peers within ±2 years
	assert.InDelta(t, 11.5, existing[5].BestHeatRate, 1e-9) // window widens until peers are found
	assert.Zero(t, existing[6].BestHeatRate)                // no IC peers at all
	assert.Zero(t, existing[7].BestHeatRate)
	assert.InDelta(t, 11.5, proposed[0].BestHeatRate, 1e-9)
	assert.Zero(t, proposed[1].BestHeatRate)
	assert.Equal(t, 1, rep.Unassigned)
	assert.Equal(t, 8, rep.Thermal)
	assert.Equal(t, 3, rep.FromVintage)
}

func TestClampTails(t *testing.T) {
	gens := make([]Generator, 400)
	idx := make([]int, len(gens))
	for i := range gens {
		gens[i].BestHeatRate = float64(i + 1)
		idx[i] = i
	}

	clamped := clampTails(gens, idx)

	assert.Equal(t, 4, clamped)
	assert.InDelta(t, 3, gens[0].BestHeatRate, 1e-9)
	assert.InDelta(t, 3, gens[1].BestHeatRate, 1e-9)
	assert.InDelta(t, 398, gens[399].BestHeatRate, 1e-9)
	assert.InDelta(t, 200, gens[199].BestHeatRate, 1e-9)
}

func TestSplitProposed(t *testing.T) {
	existing := []Generator{
		{PlantCode: 1, PrimeMover: "GT", EnergySource: FuelGas},
		{PlantCode: 2, PrimeMover: "GT", EnergySource: FuelGas, OperatingYear: 1990},
		{PlantCode: 2, PrimeMover: "GT", EnergySource: FuelGas, OperatingYear: 2000},
	}
	proposed := []Generator{
		{PlantCode: 1, PrimeMover: "GT", EnergySource: FuelGas},
		{PlantCode: 2, PrimeMover: "GT", EnergySource: FuelGas},
		{PlantCode: 3, PrimeMover: "PV", EnergySource: "Solar"},
	}

	s := SplitProposed(existing, proposed)

	require.Len(t, s.New, 1)
	assert.Equal(t, 3, s.New[0].PlantCode)
	require.Len(t, s.Uprates, 1)
	assert.Equal(t, 1, s.Uprates[0].PlantCode)
	require.Len(t, s.Ambiguous, 1)
	assert.Equal(t, 2, s.Ambiguous[0].PlantCode)
}

func TestPartitionByStatus(t *testing.T) {
	existing, proposed := PartitionByStatus([]Generator{{OperationalStatus: Operable}, {OperationalStatus: Proposed}, {}})
	assert.Len(t, existing, 2)
	assert.Len(t, proposed, 1)
}
