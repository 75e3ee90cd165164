package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestHeatRate(t *testing.T) {
	tests := []struct {
		name string
		hr   Monthly
		want float64
	}{
		{"second smallest", Monthly{12, 9, 10, 11, 15, 15, 15, 15, 15, 15, 15, 15}, 10},
		{"skips invalid", Monthly{math.NaN(), math.Inf(1), -3, 0, 8, 7, 0, 0, 0, 0, 0, 0}, 8},
		{"single valid month", Monthly{0, 0, 9}, 0},
		{"no valid month", Monthly{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BestHeatRate(tt.hr), 1e-9)
		})
	}
}

func TestHeatRates(t *testing.T) {
	projects := []Generator{
		{PlantCode: 1, PrimeMover: "ST", EnergySource: "BIT", NameplateMW: 100, State: "UT", County: "Emery", EnergySource2: "SUB"},
		{PlantCode: 1, PrimeMover: "ST", EnergySource: "SUB", NameplateMW: 50, State: "UT", County: "Emery"},
		{PlantCode: 2, PrimeMover: "GT", EnergySource: "NG", NameplateMW: 10, State: "CA"},
	}
	generation := []GenerationRecord{
		{PlantCode: 1, PrimeMover: "ST", EnergySource: "BIT", NetGen: flat(1000), ElecMMBtu: flat(6000)},
		{PlantCode: 1, PrimeMover: "ST", EnergySource: "SUB", NetGen: flat(1000), ElecMMBtu: flat(4000)},
		{PlantCode: 2, PrimeMover: "GT", EnergySource: "NG", NetGen: flat(-5), ElecMMBtu: flat(100)},
		{PlantCode: 3, PrimeMover: "HY", EnergySource: WaterCode, NetGen: flat(1000)},
	}

	res := HeatRates(2018, generation, projects)

	require.Len(t, res.Records, 1)
	coal := res.Records[0]
	assert.Equal(t, CoalCode, coal.EnergySource)
	assert.InDelta(t, 150, coal.NameplateMW, 1e-9)
	assert.InDelta(t, 5, coal.HeatRate[0], 1e-9)
	assert.InDelta(t, 5, coal.BestHeatRate, 1e-9)
	assert.InDelta(t, 1, coal.FuelFraction, 1e-9)
	assert.InDelta(t, 1, coal.MonthlyFuelFraction[6], 1e-9)
	assert.InDelta(t, 2000.0/(744*150), coal.CapacityFactor[0], 1e-9)
	assert.Equal(t, "SUB", coal.EnergySource2)

	require.Len(t, res.Negative, 1)
	assert.Equal(t, 2, res.Negative[0].PlantCode)

	assert.Len(t, coal.NarrowRecords(), 12)
	assert.Len(t, coal.WideRecord(), len(HeatRateWideColumns()))
}

func TestHeatRates_FuelFractionAcrossFuels(t *testing.T) {
	projects := []Generator{
		{PlantCode: 5, PrimeMover: "ST", EnergySource: "NG", NameplateMW: 200},
		{PlantCode: 5, PrimeMover: "ST", EnergySource: "DFO", NameplateMW: 200},
	}
	generation := []GenerationRecord{
		{PlantCode: 5, PrimeMover: "ST", EnergySource: "NG", NetGen: flat(900), ElecMMBtu: flat(9000)},
		{PlantCode: 5, PrimeMover: "ST", EnergySource: "DFO", NetGen: flat(100), ElecMMBtu: flat(1000)},
	}

	res := HeatRates(2018, generation, projects)

	require.Len(t, res.Records, 2)
	assert.InDelta(t, 0.9, res.Records[0].FuelFraction, 1e-9)
	assert.InDelta(t, 0.1, res.Records[1].FuelFraction, 1e-9)
}

func TestMultiFuel(t *testing.T) {
	records := []HeatRateRecord{
		{PlantCode: 1, PrimeMover: "ST", FuelFraction: 0.5, State: "CA", NameplateMW: 100},
		{PlantCode: 2, PrimeMover: "ST", FuelFraction: 0.97, State: "CA", NameplateMW: 100},
		{PlantCode: 3, PrimeMover: "GT", FuelFraction: 0.3, State: "CA", NameplateMW: 100},
		{PlantCode: 4, PrimeMover: "ST", FuelFraction: 0.12, State: "TN", NameplateMW: 100},
	}
	projects := []Generator{
		{PlantCode: 1, PrimeMover: "ST"},
		{PlantCode: 3, PrimeMover: "GT", EnergySource: "NG"},
		{PlantCode: 3, PrimeMover: "GT", EnergySource: "DFO"},
		{PlantCode: 4, PrimeMover: "ST"},
	}

	out := MultiFuel(records, projects, 0.05, 0.95)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].PlantCode)
	assert.Equal(t, 4, out[1].PlantCode)

	summary := SummarizeMultiFuel(out, []float64{0.05, 0.15})
	require.Len(t, summary, 2)
	assert.Equal(t, 1, summary[0].Records)
	assert.InDelta(t, 100, summary[0].CapacityMW, 1e-9)
	assert.Equal(t, 1, summary[1].Records)
}
