package domain

import (
	"strconv"
	"time"
)

// BuildYearEvent is one vintage of a loaded plant.
type BuildYearEvent struct {
	Year       int     `json:"build_year"`
	CapacityMW float64 `json:"capacity_mw"`
}

// Location is where a plant is, as reported to EIA.
type Location struct {
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
	County string  `json:"county,omitempty"`
	State  string  `json:"state,omitempty"`
}

// PlantEvent describes a generation plant after it was written to the
// switch schema. It is published once per plant and scenario.
type PlantEvent struct {
	ID               string           `json:"id"` // "{scenario}-{generation_plant_id}"
	ScenarioID       int              `json:"scenario_id"`
	GenerationPlant  int64            `json:"generation_plant_id"`
	Name             string           `json:"name"`
	GenTech          string           `json:"gen_tech"`
	EnergySource     string           `json:"energy_source"`
	EIAPlantCode     int              `json:"eia_plant_code,omitempty"`
	LoadZoneID       int              `json:"load_zone_id"`
	CapacityLimitMW  float64          `json:"capacity_limit_mw"`
	FullLoadHeatRate float64          `json:"full_load_heat_rate,omitempty"`
	MaxAge           int              `json:"max_age"`
	IsVariable       bool             `json:"is_variable"`
	IsBaseload       bool             `json:"is_baseload"`
	IsCogen          bool             `json:"is_cogen"`
	Location         *Location        `json:"location,omitempty"`
	BuildYears       []BuildYearEvent `json:"build_years"`

	RunID    string    `json:"run_id"`
	LoadedAt time.Time `json:"loaded_at"`
}

// NewPlantEvent builds the event for a plant loaded into a scenario.
func NewPlantEvent(scenario int, p LoadedPlant, runID string) PlantEvent {
	ev := PlantEvent{
		ID:               strconv.Itoa(scenario) + "-" + strconv.FormatInt(p.ID, 10),
		ScenarioID:       scenario,
		GenerationPlant:  p.ID,
		Name:             p.Name,
		GenTech:          p.GenTech,
		EnergySource:     p.EnergySource,
		EIAPlantCode:     p.EIAPlantCode,
		LoadZoneID:       p.LoadZoneID,
		CapacityLimitMW:  p.CapacityLimitMW,
		FullLoadHeatRate: p.FullLoadHeatRate,
		MaxAge:           p.MaxAge,
		IsVariable:       p.IsVariable,
		IsBaseload:       p.IsBaseload,
		IsCogen:          p.IsCogen,
		BuildYears:       make([]BuildYearEvent, len(p.BuildYears)),
		RunID:            runID,
		LoadedAt:         Now().UTC(),
	}
	if p.HasLocation || p.County != "" || p.State != "" {
		ev.Location = &Location{County: p.County, State: p.State}
		if p.HasLocation {
			ev.Location.Lat, ev.Location.Lon = p.Latitude, p.Longitude
		}
	}
	for i, by := range p.BuildYears {
		ev.BuildYears[i] = BuildYearEvent(by)
	}
	return ev
}
