package domain

import (
	"fmt"
	"strings"
)

// GroupKey identifies the rows merged by Aggregate. ok is false when a key
// component is blank; such rows are never merged with others.
type GroupKey func(g Generator) (key string, ok bool)

// ByPlantUnit groups generators that EIA reports as parts of the same unit.
func ByPlantUnit(g Generator) (string, bool) {
	if g.PlantCode == 0 || g.UnitCode == "" {
		return "", false
	}
	return fmt.Sprintf("%d|%s", g.PlantCode, g.UnitCode), true
}

// ByProject groups generators of one plant sharing technology, fuel, and vintage.
func ByProject(g Generator) (string, bool) {
	if g.PlantCode == 0 || g.PrimeMover == "" || g.EnergySource == "" || g.OperatingYear == 0 {
		return "", false
	}
	return fmt.Sprintf("%d|%s|%s|%d", g.PlantCode, g.PrimeMover, g.EnergySource, g.OperatingYear), true
}

// ByTechnology groups generators of one plant sharing technology, fuel, and
// operational status, ignoring vintage.
func ByTechnology(g Generator) (string, bool) {
	if g.PlantCode == 0 || g.PrimeMover == "" || g.EnergySource == "" {
		return "", false
	}
	return fmt.Sprintf("%d|%s|%s|%s", g.PlantCode, g.PrimeMover, g.EnergySource, g.OperationalStatus), true
}

// Aggregate merges generators sharing a key. Nameplate and minimum load are
// summed; every other attribute takes its maximum. Output keeps the order in
// which each group first appears.
func Aggregate(gens []Generator, key GroupKey) []Generator {
	out := make([]Generator, 0, len(gens))
	index := make(map[string]int, len(gens))
	for _, g := range gens {
		k, ok := key(g)
		if !ok {
			out = append(out, g)
			continue
		}
		if i, seen := index[k]; seen {
			out[i] = mergeGenerators(out[i], g)
			continue
		}
		index[k] = len(out)
		out = append(out, g)
	}
	return out
}

// AggregateProjects applies the two-step aggregation used for generation
// projects: first units, then plant technology vintages.
func AggregateProjects(gens []Generator) []Generator {
	return Aggregate(Aggregate(gens, ByPlantUnit), ByProject)
}

func mergeGenerators(a, b Generator) Generator {
	out := Generator{
		PlantCode:             max(a.PlantCode, b.PlantCode),
		PlantName:             maxString(a.PlantName, b.PlantName),
		UtilityID:             max(a.UtilityID, b.UtilityID),
		GeneratorID:           maxString(a.GeneratorID, b.GeneratorID),
		UnitCode:              maxString(a.UnitCode, b.UnitCode),
		Status:                maxString(a.Status, b.Status),
		OperationalStatus:     maxString(a.OperationalStatus, b.OperationalStatus),
		RegulatoryStatus:      maxString(a.RegulatoryStatus, b.RegulatoryStatus),
		NameplateMW:           a.NameplateMW + b.NameplateMW,
		MinimumLoadMW:         a.MinimumLoadMW + b.MinimumLoadMW,
		PrimeMover:            maxString(a.PrimeMover, b.PrimeMover),
		EnergySource:          maxString(a.EnergySource, b.EnergySource),
		EnergySource2:         maxString(a.EnergySource2, b.EnergySource2),
		EnergySource3:         maxString(a.EnergySource3, b.EnergySource3),
		County:                maxString(a.County, b.County),
		State:                 maxString(a.State, b.State),
		NercRegion:            maxString(a.NercRegion, b.NercRegion),
		OperatingYear:         max(a.OperatingYear, b.OperatingYear),
		PlannedRetirementYear: max(a.PlannedRetirementYear, b.PlannedRetirementYear),
		BalancingAuthority:    maxString(a.BalancingAuthority, b.BalancingAuthority),
		GridVoltageKV:         max(a.GridVoltageKV, b.GridVoltageKV),
		CarbonCapture:         maxString(a.CarbonCapture, b.CarbonCapture),
		Cogen:                 maxString(a.Cogen, b.Cogen),
		ColdStartTime:         maxString(a.ColdStartTime, b.ColdStartTime),
		BestHeatRate:          max(a.BestHeatRate, b.BestHeatRate),
	}
	switch {
	case a.HasLocation && b.HasLocation:
		out.Latitude, out.Longitude, out.HasLocation = max(a.Latitude, b.Latitude), max(a.Longitude, b.Longitude), true
	case a.HasLocation:
		out.Latitude, out.Longitude, out.HasLocation = a.Latitude, a.Longitude, true
	case b.HasLocation:
		out.Latitude, out.Longitude, out.HasLocation = b.Latitude, b.Longitude, true
	}
	return out
}

func maxString(a, b string) string {
	if b > a {
		return b
	}
	return a
}

// FilterAcceptedStatus keeps generators whose status is modeled and returns
// how many were dropped.
func FilterAcceptedStatus(gens []Generator) ([]Generator, int) {
	out := gens[:0:0]
	for _, g := range gens {
		if IsAcceptedStatus(g.Status) {
			out = append(out, g)
		}
	}
	return out, len(gens) - len(out)
}

// NormalizePrimeMovers collapses combined-cycle parts into CC in place.
func NormalizePrimeMovers(gens []Generator) {
	for i := range gens {
		gens[i].PrimeMover = NormalizePrimeMover(gens[i].PrimeMover)
	}
}

// plantKey is the join key between the plant and generator sheets.
type plantKey struct {
	utility int
	code    int
	name    string
	state   string
}

func plantKeyOf(g Generator) plantKey {
	return plantKey{utility: g.UtilityID, code: g.PlantCode, name: strings.ToUpper(g.PlantName), state: g.State}
}

// MergePlants inner-joins existing generators with their plant records.
// Location and regional attributes come from the plant.
func MergePlants(gens, plants []Generator) []Generator {
	byKey := make(map[plantKey]Generator, len(plants))
	for _, p := range plants {
		byKey[plantKeyOf(p)] = p
	}
	out := make([]Generator, 0, len(gens))
	for _, g := range gens {
		p, ok := byKey[plantKeyOf(g)]
		if !ok {
			continue
		}
		g.County = firstNonEmpty(p.County, g.County)
		g.NercRegion = firstNonEmpty(p.NercRegion, g.NercRegion)
		g.BalancingAuthority = firstNonEmpty(p.BalancingAuthority, g.BalancingAuthority)
		g.RegulatoryStatus = firstNonEmpty(p.RegulatoryStatus, g.RegulatoryStatus)
		if p.GridVoltageKV != 0 {
			g.GridVoltageKV = p.GridVoltageKV
		}
		if p.HasLocation {
			g.Latitude, g.Longitude, g.HasLocation = p.Latitude, p.Longitude, true
		}
		out = append(out, g)
	}
	return out
}

// BuildProjects turns the parsed sheets of one EIA-860 year into generation
// projects: existing generators are merged with plants and appended with the
// proposed ones, statuses are filtered, prime movers normalized, and the
// result aggregated. The unaggregated generators are returned too, for
// retirement reconciliation.
func BuildProjects(plants, existing, proposed []Generator) (projects, generators []Generator, rejected int) {
	merged := MergePlants(existing, plants)
	for i := range merged {
		merged[i].OperationalStatus = Operable
	}
	props := make([]Generator, len(proposed))
	copy(props, proposed)
	for i := range props {
		props[i].OperationalStatus = Proposed
	}
	all := append(merged, props...)
	rejected = len(existing) - len(merged)
	all, dropped := FilterAcceptedStatus(all)
	rejected += dropped
	NormalizePrimeMovers(all)
	return AggregateProjects(all), all, rejected
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
