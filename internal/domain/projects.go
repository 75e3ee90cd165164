package domain

import (
	"math"
	"sort"
	"strings"
)

// CountyKey identifies a county within a state.
type CountyKey struct {
	County string
	State  string
}

// CountySet is the set of counties belonging to a modeled region.
type CountySet map[CountyKey]bool

// NewCountySet builds a CountySet, title-casing county names.
func NewCountySet(keys []CountyKey) CountySet {
	set := make(CountySet, len(keys))
	for _, k := range keys {
		set[CountyKey{County: TitleCaseCounty(k.County), State: strings.ToUpper(k.State)}] = true
	}
	return set
}

// Contains reports whether county and state are in the set.
func (s CountySet) Contains(county, state string) bool {
	return s[CountyKey{County: TitleCaseCounty(county), State: strings.ToUpper(state)}]
}

// FilterRegion keeps generators in the region: those reporting its NERC
// region, and those without a NERC region located in one of its counties.
// County names are title-cased on the way through.
func FilterRegion(gens []Generator, region string, counties CountySet) []Generator {
	region = strings.ToUpper(region)
	out := make([]Generator, 0, len(gens))
	for _, g := range gens {
		g.County = TitleCaseCounty(g.County)
		switch {
		case g.NercRegion == region:
		case g.NercRegion == "" && counties.Contains(g.County, g.State):
		default:
			continue
		}
		out = append(out, g)
	}
	return out
}

// CollapseCoalSources maps coal energy sources to CoalCode in place,
// including the secondary fuels.
func CollapseCoalSources(gens []Generator) {
	for i := range gens {
		gens[i].EnergySource = CollapseCoal(gens[i].EnergySource)
		gens[i].EnergySource2 = CollapseCoal(gens[i].EnergySource2)
		gens[i].EnergySource3 = CollapseCoal(gens[i].EnergySource3)
	}
}

// ApplyFuelMap replaces primary energy sources with Switch fuel names in place.
func ApplyFuelMap(gens []Generator) {
	for i := range gens {
		gens[i].EnergySource = SwitchFuel(gens[i].EnergySource)
	}
}

// Heat rate plausibility bounds in MMBtu/MWh.
const (
	MinCoalHeatRate = 8.607
	MinHeatRate     = 6.711
	MaxHeatRate     = 100

	// HeatRateClampFraction of valid heat rates on each tail are clamped.
	HeatRateClampFraction = 0.005

	minVintagePeers  = 4
	vintageWindowMax = 103
)

// RealisticHeatRate reports whether hr is plausible for the Switch fuel.
func RealisticHeatRate(hr float64, fuel string) bool {
	if hr <= 0 || math.IsNaN(hr) || math.IsInf(hr, 0) || hr > MaxHeatRate {
		return false
	}
	if fuel == FuelCoal {
		return hr >= MinCoalHeatRate
	}
	return hr >= MinHeatRate
}

// HeatRateReport summarizes AssignHeatRates.
type HeatRateReport struct {
	Thermal     int
	Measured    int
	Clamped     int
	FromVintage int
	FromPrime   int
	Unassigned  int
}

// AssignHeatRates sets BestHeatRate on thermal generators in place.
// Existing plants take the measured best heat rate of the year when it is
// realistic; the tails of that distribution are clamped. Plants without a
// usable value, and proposed plants (vintage = year), get the mean of plants
// sharing prime mover and fuel within a vintage window that widens until
// enough peers are found, falling back to the prime-mover mean. Generator
// energy sources must already be Switch fuel names.
func AssignHeatRates(existing, proposed []Generator, records []HeatRateRecord, year int) HeatRateReport {
	best := make(map[techKey]float64, len(records))
	for _, r := range records {
		if r.Year != year || r.BestHeatRate <= 0 {
			continue
		}
		k := techKey{r.PlantCode, r.PrimeMover, SwitchFuel(r.EnergySource)}
		if _, dup := best[k]; !dup {
			best[k] = r.BestHeatRate
		}
	}

	var rep HeatRateReport
	var thermal []int
	for i := range existing {
		g := &existing[i]
		g.BestHeatRate = 0
		if !IsThermal(g.PrimeMover) {
			continue
		}
		thermal = append(thermal, i)
		if hr, ok := best[techKey{g.PlantCode, g.PrimeMover, g.EnergySource}]; ok && RealisticHeatRate(hr, g.EnergySource) {
			g.BestHeatRate = hr
			rep.Measured++
		}
	}
	rep.Thermal = len(thermal)
	rep.Clamped = clampTails(existing, thermal)

	peers := make([]Generator, 0, len(thermal))
	for _, i := range thermal {
		if existing[i].BestHeatRate > 0 {
			peers = append(peers, existing[i])
		}
	}
	fill := func(g *Generator, vintage int) {
		if hr, ok := vintageAverage(peers, g.PrimeMover, g.EnergySource, vintage); ok {
			g.BestHeatRate = hr
			rep.FromVintage++
			return
		}
		if hr, ok := primeMoverAverage(peers, g.PrimeMover); ok {
			g.BestHeatRate = hr
			rep.FromPrime++
			return
		}
		rep.Unassigned++
	}
	for _, i := range thermal {
		if existing[i].BestHeatRate == 0 {
			fill(&existing[i], existing[i].OperatingYear)
		}
	}
	for i := range proposed {
		g := &proposed[i]
		g.BestHeatRate = 0
		if IsThermal(g.PrimeMover) {
			rep.Thermal++
			fill(g, year)
		}
	}
	return rep
}

// clampTails limits the lowest and highest n = floor(0.5% of valid) heat
// rates to the values at sorted positions n and len-1-n.
func clampTails(gens []Generator, idx []int) int {
	var valid []int
	for _, i := range idx {
		if gens[i].BestHeatRate > 0 {
			valid = append(valid, i)
		}
	}
	n := int(float64(len(valid)) * HeatRateClampFraction)
	if n == 0 {
		return 0
	}
	sort.SliceStable(valid, func(a, b int) bool {
		return gens[valid[a]].BestHeatRate < gens[valid[b]].BestHeatRate
	})
	lo := gens[valid[n]].BestHeatRate
	hi := gens[valid[len(valid)-1-n]].BestHeatRate
	for k := 0; k < n; k++ {
		gens[valid[k]].BestHeatRate = lo
		gens[valid[len(valid)-1-k]].BestHeatRate = hi
	}
	return 2 * n
}

func vintageAverage(peers []Generator, pm, fuel string, vintage int) (float64, bool) {
	var sum float64
	var n int
	for window := 2; ; window += 2 {
		sum, n = 0, 0
		for _, p := range peers {
			if p.PrimeMover != pm || p.EnergySource != fuel {
				continue
			}
			if p.OperatingYear < vintage-window || p.OperatingYear > vintage+window {
				continue
			}
			sum += p.BestHeatRate
			n++
		}
		if n >= minVintagePeers || window >= vintageWindowMax {
			break
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func primeMoverAverage(peers []Generator, pm string) (float64, bool) {
	var sum float64
	var n int
	for _, p := range peers {
		if p.PrimeMover == pm {
			sum += p.BestHeatRate
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ProjectSplit partitions proposed generation projects.
type ProjectSplit struct {
	New     []Generator
	Uprates []Generator
	// Ambiguous proposed projects match more than one existing project and
	// are left out of both sets.
	Ambiguous []Generator
}

// SplitProposed classifies proposed projects by how many existing projects
// share their plant, prime mover, and energy source: none makes a new
// project, one an uprate.
func SplitProposed(existing, proposed []Generator) ProjectSplit {
	count := make(map[techKey]int, len(existing))
	for _, g := range existing {
		count[techKey{g.PlantCode, g.PrimeMover, g.EnergySource}]++
	}
	var s ProjectSplit
	for _, p := range proposed {
		switch count[techKey{p.PlantCode, p.PrimeMover, p.EnergySource}] {
		case 0:
			s.New = append(s.New, p)
		case 1:
			s.Uprates = append(s.Uprates, p)
		default:
			s.Ambiguous = append(s.Ambiguous, p)
		}
	}
	return s
}

// PartitionByStatus splits projects into existing and proposed.
func PartitionByStatus(gens []Generator) (existing, proposed []Generator) {
	for _, g := range gens {
		if g.OperationalStatus == Proposed {
			proposed = append(proposed, g)
		} else {
			existing = append(existing, g)
		}
	}
	return existing, proposed
}
