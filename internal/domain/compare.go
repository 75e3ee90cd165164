package domain

import "sort"

// CapacityRow is installed capacity of one fuel and technology in a scenario.
type CapacityRow struct {
	EnergySource string
	GenTech      string
	CapacityMW   float64
}

// CapacityDiff compares a fuel and technology between two scenarios.
type CapacityDiff struct {
	EnergySource string
	GenTech      string
	NewMW        float64
	OldMW        float64
	HasOld       bool
	DiffMW       float64
}

// CompareScenarios left-joins the new scenario's capacity with the old one
// on fuel and technology. Rows missing from the old scenario have no
// difference.
func CompareScenarios(oldRows, newRows []CapacityRow) []CapacityDiff {
	type key struct{ es, tech string }
	old := make(map[key]float64, len(oldRows))
	for _, r := range oldRows {
		old[key{r.EnergySource, r.GenTech}] += r.CapacityMW
	}
	out := make([]CapacityDiff, 0, len(newRows))
	for _, r := range newRows {
		d := CapacityDiff{EnergySource: r.EnergySource, GenTech: r.GenTech, NewMW: r.CapacityMW}
		if mw, ok := old[key{r.EnergySource, r.GenTech}]; ok {
			d.OldMW, d.HasOld, d.DiffMW = mw, true, r.CapacityMW-mw
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EnergySource != out[j].EnergySource {
			return out[i].EnergySource < out[j].EnergySource
		}
		return out[i].GenTech < out[j].GenTech
	})
	return out
}

// ScenarioSummary describes the thermal fleet of a scenario.
type ScenarioSummary struct {
	ScenarioID       int
	Plants           int
	CapacityGW       float64
	WeightedHeatRate float64
}
