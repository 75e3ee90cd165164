package domain

import (
	"fmt"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// BuildYear is capacity installed in one year for a generation plant.
type BuildYear struct {
	Year       int
	CapacityMW float64
}

// Plant is a row of the Switch generation_plant table together with its
// build years.
type Plant struct {
	Name             string
	GenTech          string
	EnergySource     string
	EIAPlantCode     int
	CapacityLimitMW  float64
	FullLoadHeatRate float64 // 0 when the plant has none
	MaxAge           int     // 0 defers to the technology default
	IsVariable       bool
	IsBaseload       bool
	IsCogen          bool
	Latitude         float64
	Longitude        float64
	HasLocation      bool
	County           string
	State            string
	BuildYears       []BuildYear
}

// Key identifies the EIA project a plant was built from.
func (p Plant) Key() string {
	return fmt.Sprintf("%d|%s|%s", p.EIAPlantCode, p.GenTech, p.EnergySource)
}

// UploadReport summarizes PrepareUpload.
type UploadReport struct {
	Projects        int
	DroppedFuel     int
	FullyRetired    int
	PartlyRetiredMW float64
	Plants          int
}

type retirementKey struct {
	plant  int
	pm     string
	state  string
	county string
	year   int
}

// PrepareUpload turns the existing and new generation projects of the final
// year into Switch generation plants:
//   - purchased steam is dropped and "Other" fuel is modeled as gas;
//   - capacity reported retired by EIA-860M is subtracted, removing projects
//     that are entirely retired;
//   - max age comes from the planned retirement year when known;
//   - projects of the same plant, technology, and fuel are merged into one
//     plant whose heat rate is the capacity-weighted average, keeping each
//     vintage as a build year.
func PrepareUpload(projects []Generator, retired []RetiredProject) ([]Plant, UploadReport) {
	rep := UploadReport{Projects: len(projects)}

	retiredMW := make(map[retirementKey]float64, len(retired))
	for _, r := range retired {
		k := retirementKey{r.PlantCode, r.PrimeMover, r.State, TitleCaseCounty(r.County), r.OperatingYear}
		retiredMW[k] += r.NameplateMW
	}

	type group struct {
		plant      Plant
		weightedHR float64
		hrWeight   float64
		maxAge     int
		years      map[int]float64
	}
	var order []string
	groups := make(map[string]*group)

	for _, g := range projects {
		switch g.EnergySource {
		case FuelPurchasedSteam:
			rep.DroppedFuel++
			continue
		case FuelOther:
			g.EnergySource = FuelGas
		}

		mw := g.NameplateMW
		k := retirementKey{g.PlantCode, g.PrimeMover, g.State, TitleCaseCounty(g.County), g.OperatingYear}
		if r, ok := retiredMW[k]; ok {
			net := mw - r
			if net == 0 {
				rep.FullyRetired++
				continue
			}
			if net > 0 {
				rep.PartlyRetiredMW += r
				mw = net
			}
		}

		maxAge := 0
		if g.PlannedRetirementYear > 0 {
			maxAge = g.PlannedRetirementYear - g.OperatingYear
		}

		tech := g.PrimeMover
		if tech == "BA" {
			tech = BatteryTech
		}
		p := Plant{
			Name:         g.PlantName,
			GenTech:      tech,
			EnergySource: g.EnergySource,
			EIAPlantCode: g.PlantCode,
			IsVariable:   slices.Contains(VariablePrimeMovers, g.PrimeMover),
			IsBaseload:   slices.Contains(BaseloadFuels, g.EnergySource),
			IsCogen:      g.Cogen == "Y",
			Latitude:     g.Latitude,
			Longitude:    g.Longitude,
			HasLocation:  g.HasLocation,
			County:       g.County,
			State:        g.State,
		}
		key := p.Key()
		grp, ok := groups[key]
		if !ok {
			grp = &group{plant: p, years: make(map[int]float64)}
			groups[key] = grp
			order = append(order, key)
		} else {
			grp.plant.IsCogen = grp.plant.IsCogen || p.IsCogen
			if !grp.plant.HasLocation && p.HasLocation {
				grp.plant.Latitude, grp.plant.Longitude, grp.plant.HasLocation = p.Latitude, p.Longitude, true
			}
		}
		grp.plant.CapacityLimitMW += mw
		grp.hrWeight += mw
		if g.BestHeatRate > 0 {
			grp.weightedHR += g.BestHeatRate * mw
		}
		grp.maxAge = max(grp.maxAge, maxAge)
		grp.years[g.OperatingYear] += mw
	}

	plants := make([]Plant, 0, len(order))
	for _, key := range order {
		grp := groups[key]
		p := grp.plant
		if grp.hrWeight > 0 && grp.weightedHR > 0 {
			p.FullLoadHeatRate = RoundHeatRate(grp.weightedHR / grp.hrWeight)
		}
		p.MaxAge = grp.maxAge
		for year, mw := range grp.years {
			p.BuildYears = append(p.BuildYears, BuildYear{Year: year, CapacityMW: mw})
		}
		sort.Slice(p.BuildYears, func(i, j int) bool { return p.BuildYears[i].Year < p.BuildYears[j].Year })
		plants = append(plants, p)
	}
	rep.Plants = len(plants)
	return plants, rep
}

// RoundHeatRate rounds a heat rate to three decimals, half away from zero.
func RoundHeatRate(hr float64) float64 {
	f, _ := decimal.NewFromFloat(hr).Round(3).Float64()
	return f
}

// Upload is the transform output handed to the loader: the plants of the
// final form year and the historic hydro capacity factors of every year.
type Upload struct {
	Year   int
	Plants []Plant
	Hydro  []HydroCapacityFactor
}

// ScenarioLoad lists the plants written for one generation plant scenario.
type ScenarioLoad struct {
	Scenario int
	Plants   []LoadedPlant
}
