package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetiredGeneratorFromRow(t *testing.T) {
	r := RetiredGeneratorFromRow(Row{
		ColEntityID:       "803",
		ColPlantCode:      "6000",
		ColGeneratorID:    "GT1",
		ColState:          "nv",
		ColPrimeMover:     "CT",
		ColNameplate:      "75.0",
		ColOperatingYear:  "1975",
		ColRetirementYear: "2019",
	})

	assert.Equal(t, 803, r.EntityID)
	assert.Equal(t, "CC", r.PrimeMover)
	assert.Equal(t, "NV", r.State)
	assert.InDelta(t, 75, r.NameplateMW, 1e-9)
	assert.Equal(t, 2019, r.RetirementYear)
}

func TestReconcileRetired(t *testing.T) {
	unit := func(id string, state string, mw float64) Generator {
		return Generator{
			UtilityID: 803, PlantCode: 6000, PlantName: testPlantName, GeneratorID: id,
			State: state, County: "Clark", PrimeMover: "GT", EnergySource: "NG",
			OperatingYear: 1975, NameplateMW: mw,
		}
	}
	generators := []Generator{
		unit("GT1", "NV", 75),
		unit("GT2", "NV", 75),
		unit("GT3", "NV", 80),
		unit("GT1", "TN", 75),
	}
	retired := []RetiredGenerator{
		{EntityID: 803, PlantCode: 6000, GeneratorID: "GT1", State: "NV", PrimeMover: "GT", OperatingYear: 1975, NameplateMW: 75.0000001, RetirementYear: 2019},
		{EntityID: 803, PlantCode: 6000, GeneratorID: "GT2", State: "NV", PrimeMover: "GT", OperatingYear: 1975, NameplateMW: 75, RetirementYear: 2020},
		{EntityID: 803, PlantCode: 6000, GeneratorID: "GT3", State: "NV", PrimeMover: "GT", OperatingYear: 1975, NameplateMW: 70, RetirementYear: 2020},
		{EntityID: 803, PlantCode: 6000, GeneratorID: "GT1", State: "TN", PrimeMover: "GT", OperatingYear: 1975, NameplateMW: 75, RetirementYear: 2020},
	}

	units, projects := ReconcileRetired(generators, retired)

	require.Len(t, units, 2)
	assert.Equal(t, "GT1", units[0].GeneratorID)
	require.Len(t, projects, 1)
	assert.InDelta(t, 150, projects[0].NameplateMW, 1e-9)
	assert.Equal(t, 2020, projects[0].RetirementYear)
	assert.Empty(t, projects[0].GeneratorID)
	assert.Len(t, projects[0].Record(), len(RetiredProjectColumns))
	assert.Len(t, units[0].UnitRecord(), len(RetiredUnitColumns))
}

func TestRetiredProjectFromRow(t *testing.T) {
	p := RetiredProject{PlantCode: 6000, PlantName: testPlantName, NameplateMW: 150, OperatingYear: 1975, PrimeMover: "GT", State: "NV", County: "Clark", RetirementYear: 2020}
	row := Row{}
	for i, c := range RetiredProjectColumns {
		row[c] = p.Record()[i]
	}
	assert.Equal(t, p, RetiredProjectFromRow(row))
}
