package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Monthly holds one value per calendar month, January first.
type Monthly [12]float64

// Sum returns the total over all months.
func (m Monthly) Sum() float64 {
	var s float64
	for _, v := range m {
		s += v
	}
	return s
}

// Add returns the element-wise sum of m and o.
func (m Monthly) Add(o Monthly) Monthly {
	for i := range m {
		m[i] += o[i]
	}
	return m
}

// MonthNames are the month suffixes EIA-923 uses in its monthly columns.
var MonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// DaysInMonth returns the number of days of month (1-12) in year.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// GenerationRecord is one EIA-923 generation and fuel consumption row.
type GenerationRecord struct {
	Year         int
	PlantCode    int
	PlantName    string
	State        string
	PrimeMover   string
	EnergySource string
	NetGen       Monthly // MWh
	ElecMMBtu    Monthly // fuel consumed for electricity
	ElecQuantity Monthly // physical units; consumption for pumped storage
}

var monthlyColumn = regexp.MustCompile(`^(Netgen|Elec Mmbtu|Elec Quantity) (\w+)$`)

// GenerationFromRow builds a GenerationRecord from a normalized EIA-923
// page 1 row.
func GenerationFromRow(year int, r Row) (GenerationRecord, error) {
	rec := GenerationRecord{
		Year:         year,
		PlantCode:    ParseInt(r.Get(ColPlantCode)),
		PlantName:    r.Get(ColPlantName),
		State:        strings.ToUpper(r.Get(ColState)),
		PrimeMover:   strings.ToUpper(r.Get(ColPrimeMover)),
		EnergySource: strings.ToUpper(r.Get(ColEnergySource)),
	}
	if rec.PlantCode == 0 {
		return rec, fmt.Errorf("missing plant code")
	}
	for col, val := range r {
		m := monthlyColumn.FindStringSubmatch(col)
		if m == nil {
			continue
		}
		month := monthIndex(m[2])
		if month < 0 {
			continue
		}
		v := ParseFloat(val)
		switch m[1] {
		case "Netgen":
			rec.NetGen[month] = v
		case "Elec Mmbtu":
			rec.ElecMMBtu[month] = v
		case "Elec Quantity":
			rec.ElecQuantity[month] = v
		}
	}
	return rec, nil
}

func monthIndex(name string) int {
	for i, m := range MonthNames {
		if strings.EqualFold(m, name) || strings.EqualFold(m[:3], name) {
			return i
		}
	}
	return -1
}

type techKey struct {
	plant int
	pm    string
	es    string
}

func (r GenerationRecord) key() techKey { return techKey{r.PlantCode, r.PrimeMover, r.EnergySource} }

// AggregateGeneration drops the state-level increment pseudo plant,
// normalizes prime movers, and sums monthly values per plant, prime mover,
// and energy source.
func AggregateGeneration(recs []GenerationRecord) []GenerationRecord {
	out := make([]GenerationRecord, 0, len(recs))
	index := make(map[techKey]int, len(recs))
	for _, r := range recs {
		if r.PlantCode == StateFuelIncrementPlant {
			continue
		}
		r.PrimeMover = NormalizePrimeMover(r.PrimeMover)
		if i, ok := index[r.key()]; ok {
			out[i] = mergeGeneration(out[i], r)
			continue
		}
		index[r.key()] = len(out)
		out = append(out, r)
	}
	return out
}

func mergeGeneration(a, b GenerationRecord) GenerationRecord {
	a.PlantName = maxString(a.PlantName, b.PlantName)
	a.State = maxString(a.State, b.State)
	a.NetGen = a.NetGen.Add(b.NetGen)
	a.ElecMMBtu = a.ElecMMBtu.Add(b.ElecMMBtu)
	a.ElecQuantity = a.ElecQuantity.Add(b.ElecQuantity)
	return a
}

// OperableProjects aggregates the existing generation projects of a year by
// plant, prime mover, energy source, and operational status.
func OperableProjects(projects []Generator) []Generator {
	var operable []Generator
	for _, p := range projects {
		if p.OperationalStatus == Operable {
			operable = append(operable, p)
		}
	}
	return Aggregate(operable, ByTechnology)
}

// CrossCheckReport lists the records that could not be matched between the
// EIA-860 projects and the EIA-923 generation of one year.
type CrossCheckReport struct {
	ProjectsWithoutGeneration []Generator
	GenerationWithoutProjects []GenerationRecord
	MissingCapacityMW         float64
	TotalCapacityMW           float64
	MissingGenerationMWh      float64
	TotalGenerationMWh        float64
}

// CrossCheck matches projects and generation on plant, prime mover, and
// energy source.
func CrossCheck(projects []Generator, gen []GenerationRecord) CrossCheckReport {
	var rep CrossCheckReport
	genKeys := make(map[techKey]bool, len(gen))
	for _, g := range gen {
		genKeys[g.key()] = true
	}
	projKeys := make(map[techKey]bool, len(projects))
	for _, p := range projects {
		k := techKey{p.PlantCode, p.PrimeMover, p.EnergySource}
		projKeys[k] = true
		rep.TotalCapacityMW += p.NameplateMW
		if !genKeys[k] {
			rep.ProjectsWithoutGeneration = append(rep.ProjectsWithoutGeneration, p)
			rep.MissingCapacityMW += p.NameplateMW
		}
	}
	for _, g := range gen {
		total := g.NetGen.Sum()
		rep.TotalGenerationMWh += total
		if !projKeys[g.key()] {
			rep.GenerationWithoutProjects = append(rep.GenerationWithoutProjects, g)
			rep.MissingGenerationMWh += total
		}
	}
	return rep
}

// HydroCapacityFactor is the monthly capacity factor of one hydro project.
type HydroCapacityFactor struct {
	Year           int
	Month          int
	PlantCode      int
	PlantName      string
	State          string
	County         string
	PrimeMover     string
	NameplateMW    float64
	CapacityFactor float64
	NetGenMWh      float64
}

// HydroNarrowColumns are the columns of the narrow hydro output.
var HydroNarrowColumns = []string{
	"Month", "Year", ColPlantCode, ColPlantName, ColState, ColCounty,
	ColPrimeMover, ColNameplate, "Capacity Factor", "Net Electricity Generation (MWh)",
}

// Record renders h in HydroNarrowColumns order.
func (h HydroCapacityFactor) Record() []string {
	return []string{
		fmt.Sprint(h.Month), fmt.Sprint(h.Year), fmt.Sprint(h.PlantCode), h.PlantName,
		h.State, h.County, h.PrimeMover, FormatValue(h.NameplateMW),
		FormatValue(h.CapacityFactor), FormatValue(h.NetGenMWh),
	}
}

// HydroCapacityFactorFromRow parses one narrow hydro output row.
func HydroCapacityFactorFromRow(r Row) HydroCapacityFactor {
	return HydroCapacityFactor{
		Year:           ParseInt(r.Get("Year")),
		Month:          ParseInt(r.Get("Month")),
		PlantCode:      ParseInt(r.Get(ColPlantCode)),
		PlantName:      r.Get(ColPlantName),
		State:          r.Get(ColState),
		County:         r.Get(ColCounty),
		PrimeMover:     r.Get(ColPrimeMover),
		NameplateMW:    ParseFloat(r.Get(ColNameplate)),
		CapacityFactor: ParseFloat(r.Get("Capacity Factor")),
		NetGenMWh:      ParseFloat(r.Get("Net Electricity Generation (MWh)")),
	}
}

// HydroCapacityFactors computes monthly capacity factors of the water-fueled
// generation matched to operable projects. Pumped storage consumption
// (elec quantity) is added back so units are modeled as simple turbines.
func HydroCapacityFactors(year int, gen []GenerationRecord, projects []Generator) []HydroCapacityFactor {
	byKey := make(map[techKey]Generator)
	for _, p := range projects {
		if p.EnergySource == WaterCode {
			byKey[techKey{p.PlantCode, p.PrimeMover, p.EnergySource}] = p
		}
	}
	var out []HydroCapacityFactor
	for _, g := range gen {
		if g.EnergySource != WaterCode {
			continue
		}
		p, ok := byKey[g.key()]
		if !ok || p.NameplateMW <= 0 {
			continue
		}
		for m := 0; m < 12; m++ {
			mwh := g.NetGen[m] + g.ElecQuantity[m]
			hours := float64(DaysInMonth(year, m+1) * 24)
			out = append(out, HydroCapacityFactor{
				Year:           year,
				Month:          m + 1,
				PlantCode:      g.PlantCode,
				PlantName:      g.PlantName,
				State:          firstNonEmpty(p.State, g.State),
				County:         p.County,
				PrimeMover:     g.PrimeMover,
				NameplateMW:    p.NameplateMW,
				CapacityFactor: mwh / (hours * p.NameplateMW),
				NetGenMWh:      mwh,
			})
		}
	}
	return out
}

// HydroWideColumns are the columns of the wide hydro output: one row per
// project and year, one capacity factor and generation column per month.
func HydroWideColumns() []string {
	cols := []string{"Year", ColPlantCode, ColPlantName, ColState, ColCounty, ColPrimeMover, ColNameplate}
	for _, m := range MonthNames {
		cols = append(cols, "Capacity Factor "+m)
	}
	for _, m := range MonthNames {
		cols = append(cols, "Net Electricity Generation (MWh) "+m)
	}
	return cols
}

// HydroWideRecords pivots narrow capacity factors into wide rows.
func HydroWideRecords(cfs []HydroCapacityFactor) [][]string {
	type wideKey struct {
		year  int
		plant int
		pm    string
	}
	var order []wideKey
	rows := make(map[wideKey][]string)
	for _, h := range cfs {
		k := wideKey{h.Year, h.PlantCode, h.PrimeMover}
		row, ok := rows[k]
		if !ok {
			row = make([]string, 7+24)
			copy(row, []string{fmt.Sprint(h.Year), fmt.Sprint(h.PlantCode), h.PlantName, h.State, h.County, h.PrimeMover, FormatValue(h.NameplateMW)})
			rows[k] = row
			order = append(order, k)
		}
		if h.Month >= 1 && h.Month <= 12 {
			row[6+h.Month] = FormatValue(h.CapacityFactor)
			row[18+h.Month] = FormatValue(h.NetGenMWh)
		}
	}
	out := make([][]string, 0, len(order))
	for _, k := range order {
		out = append(out, rows[k])
	}
	return out
}
