package domain

import (
	"fmt"
	"math"
	"sort"
)

// HeatRateRecord is the monthly heat rate profile of one fuel-based plant,
// prime mover, and energy source for a year.
type HeatRateRecord struct {
	Year          int
	PlantCode     int
	PlantName     string
	State         string
	County        string
	PrimeMover    string
	EnergySource  string
	EnergySource2 string
	EnergySource3 string
	NameplateMW   float64

	// FuelFraction is the record's share of all fuel consumed by the plant
	// and prime mover over the year.
	FuelFraction float64
	BestHeatRate float64 // 0 when fewer than two valid months exist

	HeatRate            Monthly // MMBtu/MWh; NaN or ±Inf where undefined
	CapacityFactor      Monthly
	MonthlyFuelFraction Monthly
	NetGen              Monthly
}

// HeatRateResult partitions the heat rate records of one year.
type HeatRateResult struct {
	Records []HeatRateRecord
	// Negative holds records whose twelve monthly heat rates are all <= 0.
	Negative []HeatRateRecord
}

// HeatRates derives monthly heat rates, capacity factors, and fuel fractions
// for the fuel-based generation of one year. Coal types are combined first,
// then records are matched to operable projects on plant, prime mover, and
// energy source.
func HeatRates(year int, gen []GenerationRecord, projects []Generator) HeatRateResult {
	type pmKey struct {
		plant int
		pm    string
	}
	totals := make(map[pmKey]Monthly)
	var fuelBased []GenerationRecord
	for _, g := range gen {
		if !IsFuelBased(g.PrimeMover) {
			continue
		}
		k := pmKey{g.PlantCode, g.PrimeMover}
		totals[k] = totals[k].Add(g.ElecMMBtu)
		g.EnergySource = CollapseCoal(g.EnergySource)
		fuelBased = append(fuelBased, g)
	}
	fuelBased = AggregateGeneration(fuelBased)

	projByKey := make(map[techKey]Generator)
	for _, p := range projects {
		if !IsFuelBased(p.PrimeMover) {
			continue
		}
		p.EnergySource = CollapseCoal(p.EnergySource)
		k := techKey{p.PlantCode, p.PrimeMover, p.EnergySource}
		if prev, ok := projByKey[k]; ok {
			p = mergeGenerators(prev, p)
		}
		projByKey[k] = p
	}

	var res HeatRateResult
	for _, g := range fuelBased {
		p, ok := projByKey[g.key()]
		if !ok {
			continue
		}
		total := totals[pmKey{g.PlantCode, g.PrimeMover}]
		rec := HeatRateRecord{
			Year:          year,
			PlantCode:     g.PlantCode,
			PlantName:     g.PlantName,
			State:         firstNonEmpty(p.State, g.State),
			County:        p.County,
			PrimeMover:    g.PrimeMover,
			EnergySource:  g.EnergySource,
			EnergySource2: p.EnergySource2,
			EnergySource3: p.EnergySource3,
			NameplateMW:   p.NameplateMW,
			FuelFraction:  g.ElecMMBtu.Sum() / total.Sum(),
			NetGen:        g.NetGen,
		}
		for m := 0; m < 12; m++ {
			hours := float64(DaysInMonth(year, m+1) * 24)
			rec.HeatRate[m] = g.ElecMMBtu[m] / g.NetGen[m]
			rec.CapacityFactor[m] = g.NetGen[m] / (hours * p.NameplateMW)
			rec.MonthlyFuelFraction[m] = g.ElecMMBtu[m] / total[m]
		}
		if allNonPositive(rec.HeatRate) {
			res.Negative = append(res.Negative, rec)
			continue
		}
		rec.BestHeatRate = BestHeatRate(rec.HeatRate)
		res.Records = append(res.Records, rec)
	}
	return res
}

// allNonPositive reports whether every month is <= 0. NaN months compare
// false, so a record with any undefined month is kept.
func allNonPositive(m Monthly) bool {
	for _, v := range m {
		if !(v <= 0) {
			return false
		}
	}
	return true
}

// BestHeatRate returns the second-smallest positive finite monthly heat
// rate. The minimum is skipped as it is often a partial-month artifact.
// It returns 0 when fewer than two valid months exist.
func BestHeatRate(hr Monthly) float64 {
	valid := make([]float64, 0, 12)
	for _, v := range hr {
		if v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < 2 {
		return 0
	}
	sort.Float64s(valid)
	return valid[1]
}

// MultiFuel returns the records whose yearly fuel share lies within
// [lo, hi], excluding plant prime movers with more than one project (their
// fuels are burned by different units rather than blended).
func MultiFuel(records []HeatRateRecord, projects []Generator, lo, hi float64) []HeatRateRecord {
	type pmKey struct {
		plant int
		pm    string
	}
	count := make(map[pmKey]int)
	for _, p := range projects {
		if IsFuelBased(p.PrimeMover) {
			count[pmKey{p.PlantCode, p.PrimeMover}]++
		}
	}
	var out []HeatRateRecord
	for _, r := range records {
		if r.FuelFraction < lo || r.FuelFraction > hi {
			continue
		}
		if count[pmKey{r.PlantCode, r.PrimeMover}] > 1 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// MultiFuelSummary counts multi-fuel records in WECC states at one
// fuel-share threshold.
type MultiFuelSummary struct {
	Threshold  float64
	Records    int
	CapacityMW float64
}

// SummarizeMultiFuel reports WECC multi-fuel counts as the share band
// tightens from [t, 1-t] for each threshold.
func SummarizeMultiFuel(records []HeatRateRecord, thresholds []float64) []MultiFuelSummary {
	out := make([]MultiFuelSummary, 0, len(thresholds))
	for _, t := range thresholds {
		s := MultiFuelSummary{Threshold: t}
		for _, r := range records {
			if !IsWECCState(r.State) || r.FuelFraction < t || r.FuelFraction > 1-t {
				continue
			}
			s.Records++
			s.CapacityMW += r.NameplateMW
		}
		out = append(out, s)
	}
	return out
}

// HeatRateNarrowColumns are the columns of the narrow heat rate output.
var HeatRateNarrowColumns = []string{
	"Month", "Year", ColPlantCode, ColPlantName, ColState, ColCounty,
	ColPrimeMover, ColEnergySource, ColEnergySource2, ColEnergySource3,
	ColNameplate, "Heat Rate", "Capacity Factor",
	"Fraction of Total Fuel Consumption", "Net Electricity Generation (MWh)",
}

// NarrowRecords renders one row per month in HeatRateNarrowColumns order.
func (r HeatRateRecord) NarrowRecords() [][]string {
	out := make([][]string, 0, 12)
	for m := 0; m < 12; m++ {
		out = append(out, []string{
			fmt.Sprint(m + 1), fmt.Sprint(r.Year), fmt.Sprint(r.PlantCode), r.PlantName,
			r.State, r.County, r.PrimeMover, r.EnergySource, r.EnergySource2,
			r.EnergySource3, FormatValue(r.NameplateMW), FormatValue(r.HeatRate[m]),
			FormatValue(r.CapacityFactor[m]), FormatValue(r.MonthlyFuelFraction[m]),
			FormatValue(r.NetGen[m]),
		})
	}
	return out
}

// HeatRateWideColumns are the columns of the wide heat rate output.
func HeatRateWideColumns() []string {
	cols := []string{
		"Year", ColPlantCode, ColPlantName, ColState, ColCounty, ColPrimeMover,
		ColEnergySource, ColEnergySource2, ColEnergySource3, ColNameplate,
		"Fraction of Yearly Fuel Use", ColBestHeatRate,
	}
	for _, prefix := range []string{"Heat Rate ", "Capacity Factor ", "Fraction of Total Fuel Consumption "} {
		for _, m := range MonthNames {
			cols = append(cols, prefix+m)
		}
	}
	return cols
}

// WideRecord renders r in HeatRateWideColumns order.
func (r HeatRateRecord) WideRecord() []string {
	rec := []string{
		fmt.Sprint(r.Year), fmt.Sprint(r.PlantCode), r.PlantName, r.State, r.County,
		r.PrimeMover, r.EnergySource, r.EnergySource2, r.EnergySource3,
		FormatValue(r.NameplateMW), FormatValue(r.FuelFraction), FormatFloat(r.BestHeatRate),
	}
	for _, series := range []Monthly{r.HeatRate, r.CapacityFactor, r.MonthlyFuelFraction} {
		for _, v := range series {
			rec = append(rec, FormatValue(v))
		}
	}
	return rec
}

// BestHeatRateFromRow reads the identifying columns and best heat rate of a
// wide heat rate row.
func BestHeatRateFromRow(r Row) HeatRateRecord {
	return HeatRateRecord{
		Year:         ParseInt(r.Get("Year")),
		PlantCode:    ParseInt(r.Get(ColPlantCode)),
		PlantName:    r.Get(ColPlantName),
		State:        r.Get(ColState),
		PrimeMover:   r.Get(ColPrimeMover),
		EnergySource: r.Get(ColEnergySource),
		NameplateMW:  ParseFloat(r.Get(ColNameplate)),
		FuelFraction: ParseFloat(r.Get("Fraction of Yearly Fuel Use")),
		BestHeatRate: ParseFloat(r.Get(ColBestHeatRate)),
	}
}
