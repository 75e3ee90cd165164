package domain

import (
	"fmt"
	"math"
	"strings"
)

// RetiredGenerator is one row of the EIA-860M retired generators sheet.
type RetiredGenerator struct {
	EntityID        int
	PlantCode       int
	PlantName       string
	GeneratorID     string
	State           string
	County          string
	PrimeMover      string
	EnergySource    string
	Technology      string
	NameplateMW     float64
	OperatingYear   int
	RetirementYear  int
	RetirementMonth int
}

// RetiredGeneratorFromRow builds a RetiredGenerator from a normalized
// EIA-860M row.
func RetiredGeneratorFromRow(r Row) RetiredGenerator {
	entity := r.Get(ColEntityID)
	if entity == "" {
		entity = r.Get(ColUtilityID)
	}
	return RetiredGenerator{
		EntityID:        ParseInt(entity),
		PlantCode:       ParseInt(r.Get(ColPlantCode)),
		PlantName:       r.Get(ColPlantName),
		GeneratorID:     normalizeID(r.Get(ColGeneratorID)),
		State:           strings.ToUpper(r.Get(ColState)),
		County:          r.Get(ColCounty),
		PrimeMover:      NormalizePrimeMover(r.Get(ColPrimeMover)),
		EnergySource:    strings.ToUpper(r.Get(ColEnergySource)),
		Technology:      r.Get("Technology"),
		NameplateMW:     ParseFloat(r.Get(ColNameplate)),
		OperatingYear:   ParseInt(r.Get(ColOperatingYear)),
		RetirementYear:  ParseInt(r.Get(ColRetirementYear)),
		RetirementMonth: ParseInt(r.Get("Retirement Month")),
	}
}

// RetiredProject is generation capacity reported as retired by EIA-860M
// that still appears among the annual EIA-860 generators.
type RetiredProject struct {
	PlantCode        int
	PlantName        string
	NameplateMW      float64
	OperatingYear    int
	PrimeMover       string
	EnergySource     string
	State            string
	County           string
	RetirementYear   int
	RegulatoryStatus string
	GeneratorID      string
	UnitCode         string
}

// RetiredUnitColumns are the columns of the unaggregated retired units output.
var RetiredUnitColumns = []string{
	ColEIAPlantCode, ColPlantName, ColGeneratorID, ColUnitCode, ColNameplate,
	ColOperatingYear, ColPrimeMover, ColEnergySource, ColState, ColCounty,
	ColRetirementYear, ColRegulatoryStatus,
}

// RetiredProjectColumns are the columns of the aggregated retired output.
var RetiredProjectColumns = []string{
	ColEIAPlantCode, ColPlantName, ColNameplate, ColOperatingYear, ColPrimeMover,
	ColState, ColCounty, ColRetirementYear, ColRegulatoryStatus,
}

// UnitRecord renders p in RetiredUnitColumns order.
func (p RetiredProject) UnitRecord() []string {
	return []string{
		fmt.Sprint(p.PlantCode), p.PlantName, p.GeneratorID, p.UnitCode,
		FormatValue(p.NameplateMW), FormatInt(p.OperatingYear), p.PrimeMover,
		p.EnergySource, p.State, p.County, FormatInt(p.RetirementYear), p.RegulatoryStatus,
	}
}

// Record renders p in RetiredProjectColumns order.
func (p RetiredProject) Record() []string {
	return []string{
		fmt.Sprint(p.PlantCode), p.PlantName, FormatValue(p.NameplateMW),
		FormatInt(p.OperatingYear), p.PrimeMover, p.State, p.County,
		FormatInt(p.RetirementYear), p.RegulatoryStatus,
	}
}

// RetiredProjectFromRow parses one aggregated retired output row.
func RetiredProjectFromRow(r Row) RetiredProject {
	g := GeneratorFromRow(r)
	return RetiredProject{
		PlantCode:        g.PlantCode,
		PlantName:        g.PlantName,
		NameplateMW:      g.NameplateMW,
		OperatingYear:    g.OperatingYear,
		PrimeMover:       g.PrimeMover,
		State:            g.State,
		County:           g.County,
		RetirementYear:   ParseInt(r.Get(ColRetirementYear)),
		RegulatoryStatus: g.RegulatoryStatus,
	}
}

type retiredKey struct {
	entity    int
	plant     int
	generator string
	state     string
	pm        string
	year      int
	mw        float64
}

// ReconcileRetired finds annual generators that EIA-860M already reports as
// retired. Generators and retirements are matched on utility, plant,
// generator id, state, prime mover, operating year, and nameplate capacity;
// only WECC states are kept. Units are returned as matched, and aggregated
// per plant, prime mover, energy source, and operating year.
func ReconcileRetired(generators []Generator, retired []RetiredGenerator) (units, projects []RetiredProject) {
	retiredYear := make(map[retiredKey]int, len(retired))
	for _, r := range retired {
		k := retiredKey{r.EntityID, r.PlantCode, r.GeneratorID, r.State, r.PrimeMover, r.OperatingYear, roundMW(r.NameplateMW)}
		retiredYear[k] = r.RetirementYear
	}
	for _, g := range generators {
		if !IsWECCState(g.State) {
			continue
		}
		k := retiredKey{g.UtilityID, g.PlantCode, g.GeneratorID, g.State, NormalizePrimeMover(g.PrimeMover), g.OperatingYear, roundMW(g.NameplateMW)}
		year, ok := retiredYear[k]
		if !ok {
			continue
		}
		units = append(units, RetiredProject{
			PlantCode:        g.PlantCode,
			PlantName:        g.PlantName,
			NameplateMW:      g.NameplateMW,
			OperatingYear:    g.OperatingYear,
			PrimeMover:       NormalizePrimeMover(g.PrimeMover),
			EnergySource:     g.EnergySource,
			State:            g.State,
			County:           g.County,
			RetirementYear:   year,
			RegulatoryStatus: g.RegulatoryStatus,
			GeneratorID:      g.GeneratorID,
			UnitCode:         g.UnitCode,
		})
	}

	type aggKey struct {
		plant int
		pm    string
		es    string
		year  int
	}
	index := make(map[aggKey]int)
	for _, u := range units {
		k := aggKey{u.PlantCode, u.PrimeMover, u.EnergySource, u.OperatingYear}
		if i, ok := index[k]; ok {
			p := projects[i]
			p.NameplateMW += u.NameplateMW
			p.PlantName = maxString(p.PlantName, u.PlantName)
			p.County = maxString(p.County, u.County)
			p.RetirementYear = max(p.RetirementYear, u.RetirementYear)
			p.RegulatoryStatus = maxString(p.RegulatoryStatus, u.RegulatoryStatus)
			projects[i] = p
			continue
		}
		index[k] = len(projects)
		u.GeneratorID, u.UnitCode = "", ""
		projects = append(projects, u)
	}
	return units, projects
}

// roundMW removes float noise so capacities read from different workbooks
// compare equal.
func roundMW(mw float64) float64 {
	return math.Round(mw*1000) / 1000
}
