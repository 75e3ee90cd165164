package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlantEvent(t *testing.T) {
	now := time.Date(2019, 6, 3, 8, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	defer SetClock(nil)

	p := LoadedPlant{
		Plant: Plant{
			Name:            "Sunrise_PV_Solar",
			GenTech:         "PV",
			EnergySource:    "Solar",
			EIAPlantCode:    57001,
			CapacityLimitMW: 20,
			IsVariable:      true,
			Latitude:        33.1,
			Longitude:       -116.2,
			HasLocation:     true,
			County:          "San Diego",
			State:           "CA",
			BuildYears:      []BuildYear{{Year: 2012, CapacityMW: 10}, {Year: 2014, CapacityMW: 10}},
		},
		ID:         501,
		LoadZoneID: 9,
	}

	ev := NewPlantEvent(19, p, "run-7")
	assert.Equal(t, "19-501", ev.ID)
	assert.Equal(t, int64(501), ev.GenerationPlant)
	assert.Equal(t, 9, ev.LoadZoneID)
	assert.Equal(t, now, ev.LoadedAt)
	assert.Equal(t, "run-7", ev.RunID)
	require.NotNil(t, ev.Location)
	assert.InDelta(t, -116.2, ev.Location.Lon, 1e-9)
	assert.Equal(t, []BuildYearEvent{{Year: 2012, CapacityMW: 10}, {Year: 2014, CapacityMW: 10}}, ev.BuildYears)

	p.HasLocation, p.County, p.State = false, "", ""
	assert.Nil(t, NewPlantEvent(20, p, "run-7").Location)
}
