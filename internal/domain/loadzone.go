package domain

import (
	"fmt"
	"math"
	"sort"
)

// LoadedPlant is a generation plant after insertion, with the database id
// and the load zone assigned from its location.
type LoadedPlant struct {
	Plant
	ID         int64
	LoadZoneID int
}

// AggregatedPlant is a synthetic plant representing every plant of one
// technology, fuel, and heat rate group within a load zone.
type AggregatedPlant struct {
	Plant
	ID         int64 // set once inserted
	LoadZoneID int
	HRGroup    int
	Members    []int64
}

// HRGroup buckets plants by their rounded heat rate; plants without a heat
// rate fall into group 0.
func HRGroup(hr float64) int {
	if hr <= 0 || math.IsNaN(hr) {
		return 0
	}
	return int(math.Round(hr))
}

// AggregatedName is the generation_plant name of an aggregated plant.
func AggregatedName(loadZone int, tech, fuel string, hrGroup int) string {
	return fmt.Sprintf("LZ_%d_%s_%s_HR_%d", loadZone, tech, fuel, hrGroup)
}

// AggregateByLoadZone merges plants sharing technology, load zone, fuel, and
// heat rate group. Capacity and build-year capacity are summed, the heat rate
// is capacity weighted, and the remaining attributes take their maximum.
// Plants without a load zone are skipped.
func AggregateByLoadZone(plants []LoadedPlant) []AggregatedPlant {
	type key struct {
		tech  string
		zone  int
		fuel  string
		group int
	}
	type acc struct {
		agg      AggregatedPlant
		hrWeight float64
		hrSum    float64
		years    map[int]float64
	}
	var order []key
	groups := make(map[key]*acc)
	for _, p := range plants {
		if p.LoadZoneID == 0 {
			continue
		}
		k := key{p.GenTech, p.LoadZoneID, p.EnergySource, HRGroup(p.FullLoadHeatRate)}
		a, ok := groups[k]
		if !ok {
			a = &acc{
				agg: AggregatedPlant{
					Plant: Plant{
						Name:         AggregatedName(k.zone, k.tech, k.fuel, k.group),
						GenTech:      k.tech,
						EnergySource: k.fuel,
						IsVariable:   p.IsVariable,
						IsBaseload:   p.IsBaseload,
						IsCogen:      p.IsCogen,
						State:        p.State,
					},
					LoadZoneID: k.zone,
					HRGroup:    k.group,
				},
				years: make(map[int]float64),
			}
			groups[k] = a
			order = append(order, k)
		}
		a.agg.CapacityLimitMW += p.CapacityLimitMW
		a.agg.MaxAge = max(a.agg.MaxAge, p.MaxAge)
		a.agg.IsVariable = a.agg.IsVariable || p.IsVariable
		a.agg.IsBaseload = a.agg.IsBaseload || p.IsBaseload
		a.agg.IsCogen = a.agg.IsCogen || p.IsCogen
		a.agg.State = maxString(a.agg.State, p.State)
		a.agg.Members = append(a.agg.Members, p.ID)
		if p.FullLoadHeatRate > 0 {
			a.hrSum += p.FullLoadHeatRate * p.CapacityLimitMW
			a.hrWeight += p.CapacityLimitMW
		}
		for _, by := range p.BuildYears {
			a.years[by.Year] += by.CapacityMW
		}
	}

	out := make([]AggregatedPlant, 0, len(order))
	for _, k := range order {
		a := groups[k]
		if a.hrWeight > 0 {
			a.agg.FullLoadHeatRate = RoundHeatRate(a.hrSum / a.hrWeight)
		}
		for year, mw := range a.years {
			a.agg.BuildYears = append(a.agg.BuildYears, BuildYear{Year: year, CapacityMW: mw})
		}
		sort.Slice(a.agg.BuildYears, func(i, j int) bool { return a.agg.BuildYears[i].Year < a.agg.BuildYears[j].Year })
		out = append(out, a.agg)
	}
	return out
}

// MissingHydroFlow replaces flows that cannot be computed.
const MissingHydroFlow = 0.01

// HydroFlow is one monthly row of hydro_historical_monthly_capacity_factors.
type HydroFlow struct {
	PlantID  int64
	Year     int
	Month    int
	MinFlow  float64
	AvgFlow  float64
	zoneTech string
}

// HydroFlows converts monthly hydro capacity factors into average and
// minimum flows (MW) for the loaded plants matching on EIA plant code and
// technology. Undefined flows become MissingHydroFlow; duplicate plant
// months keep their first value.
func HydroFlows(cfs []HydroCapacityFactor, plants []LoadedPlant) []HydroFlow {
	type plantTech struct {
		code int
		tech string
	}
	byKey := make(map[plantTech][]LoadedPlant)
	for _, p := range plants {
		k := plantTech{p.EIAPlantCode, p.GenTech}
		byKey[k] = append(byKey[k], p)
	}
	type flowKey struct {
		plant int64
		year  int
		month int
	}
	seen := make(map[flowKey]bool)
	var out []HydroFlow
	for _, cf := range cfs {
		for _, p := range byKey[plantTech{cf.PlantCode, cf.PrimeMover}] {
			k := flowKey{p.ID, cf.Year, cf.Month}
			if seen[k] {
				continue
			}
			seen[k] = true
			avg := cf.CapacityFactor * p.CapacityLimitMW
			minFlow := avg / 2
			if math.IsNaN(avg) || math.IsInf(avg, 0) {
				avg, minFlow = MissingHydroFlow, MissingHydroFlow
			}
			out = append(out, HydroFlow{
				PlantID:  p.ID,
				Year:     cf.Year,
				Month:    cf.Month,
				AvgFlow:  avg,
				MinFlow:  minFlow,
				zoneTech: fmt.Sprintf("%d|%s", p.LoadZoneID, p.GenTech),
			})
		}
	}
	return out
}

// AggregateHydroFlows sums plant flows per load zone, technology, year, and
// month, and assigns the totals to every aggregated plant of that load zone
// and technology.
func AggregateHydroFlows(flows []HydroFlow, aggregated []AggregatedPlant) []HydroFlow {
	type monthKey struct {
		zoneTech string
		year     int
		month    int
	}
	var order []monthKey
	sums := make(map[monthKey]*HydroFlow)
	for _, f := range flows {
		k := monthKey{f.zoneTech, f.Year, f.Month}
		s, ok := sums[k]
		if !ok {
			s = &HydroFlow{Year: f.Year, Month: f.Month}
			sums[k] = s
			order = append(order, k)
		}
		s.AvgFlow += f.AvgFlow
		s.MinFlow += f.MinFlow
	}
	byZoneTech := make(map[string][]int64)
	for _, a := range aggregated {
		zt := fmt.Sprintf("%d|%s", a.LoadZoneID, a.GenTech)
		byZoneTech[zt] = append(byZoneTech[zt], a.ID)
	}
	var out []HydroFlow
	for _, k := range order {
		s := sums[k]
		for _, id := range byZoneTech[k.zoneTech] {
			out = append(out, HydroFlow{PlantID: id, Year: s.Year, Month: s.Month, AvgFlow: s.AvgFlow, MinFlow: s.MinFlow})
		}
	}
	return out
}
