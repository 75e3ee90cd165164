package eiatest

import (
	"math"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

// Dataset is the content of one synthetic EIA-860/923 year.
type Dataset struct {
	Year       int
	Plants     []domain.Generator
	Existing   []domain.Generator
	Proposed   []domain.Generator
	Generation []domain.GenerationRecord
}

type samplePlant struct {
	code      int
	name      string
	state     string
	county    string
	nerc      string
	lat, lon  float64
	utility   int
	authority string
}

var samplePlants = []samplePlant{
	{100, "Cholla", "AZ", "Navajo", "WECC", 34.94, -110.30, 803, "Arizona Public Service Company"},
	{200, "Desert Star", "NV", "Clark", "WECC", 35.78, -114.99, 17166, "Nevada Power Company"},
	{300, "Grand Coulee", "WA", "Grant", "WECC", 47.96, -118.98, 1, "Bonneville Power Administration"},
	{400, "Topaz Solar Farms", "CA", "San Luis Obispo", "WECC", 35.38, -120.07, 56769, "California Independent System Operator"},
	{500, "Ocotillo Wind", "CA", "Imperial", "WECC", 32.74, -116.04, 56372, "Imperial Irrigation District"},
	{600, "Palo Verde", "AZ", "Maricopa", "WECC", 33.39, -112.86, 803, "Arizona Public Service Company"},
	{700, "Allen", "TN", "Shelby", "SERC", 35.07, -90.15, 18642, "Tennessee Valley Authority"},
	{800, "Kern Peakers", "CA", "Kern", "WECC", 35.37, -119.02, 14328, "California Independent System Operator"},
	{900, "Kern Storage", "CA", "Kern", "WECC", 35.40, -119.10, 14328, "California Independent System Operator"},
	{1000, "El Paso Solar", "TX", "El Paso", "", 31.80, -106.30, 5701, "El Paso Electric Company"},
}

// Sample returns a small deterministic dataset covering coal, combined cycle,
// hydro, solar, wind, nuclear, peakers, storage, a non-WECC plant, and a
// plant identified by county only.
func Sample(year int) Dataset {
	d := Dataset{Year: year}
	for _, p := range samplePlants {
		d.Plants = append(d.Plants, domain.Generator{
			UtilityID: p.utility, PlantCode: p.code, PlantName: p.name, State: p.state,
			County: p.county, NercRegion: p.nerc, Latitude: p.lat, Longitude: p.lon,
			HasLocation: true, BalancingAuthority: p.authority, GridVoltageKV: 230,
			RegulatoryStatus: "RE",
		})
	}

	unit := func(plant int, id, unitCode, pm, es string, mw float64, opYear int) domain.Generator {
		p := samplePlants[indexOf(plant)]
		return domain.Generator{
			UtilityID: p.utility, PlantCode: plant, PlantName: p.name, State: p.state,
			GeneratorID: id, UnitCode: unitCode, PrimeMover: pm, Status: "OP",
			NameplateMW: mw, OperatingYear: opYear, EnergySource: es, Cogen: "N",
		}
	}
	d.Existing = []domain.Generator{
		unit(100, "1", "", "ST", "BIT", 250, 1980),
		unit(100, "2", "", "ST", "SUB", 250, 1978),
		unit(200, "CT1", "1", "CT", "NG", 150, 2000),
		unit(200, "ST1", "1", "CA", "NG", 80, 2000),
		unit(300, "G1", "", "HY", "WAT", 800, 1942),
		unit(300, "G2", "", "HY", "WAT", 800, 1942),
		unit(400, "PV1", "", "PV", "SUN", 550, 2014),
		unit(500, "WT1", "", "WT", "WND", 265, 2012),
		unit(600, "1", "", "ST", "NUC", 1300, 1986),
		unit(700, "GT1", "", "GT", "NG", 100, 1971),
		unit(800, "GT1", "", "GT", "NG", 50, 1975),
		unit(800, "GT2", "", "GT", "NG", 50, 1975),
		unit(800, "GT3", "", "GT", "NG", 60, 1990),
		unit(900, "B1", "", "BA", "MWH", 20, 2018),
		unit(1000, "PV1", "", "PV", "SUN", 10, 2015),
	}
	d.Existing[0].EnergySource2 = "SUB"
	d.Existing[2].MinimumLoadMW = 60
	d.Existing[3].Cogen = "Y"
	d.Existing[8].PlannedRetirementYear = 2045
	d.Existing[8].Status = "SB"
	d.Existing = append(d.Existing, unit(100, "3", "", "ST", "BIT", 100, 1962))
	d.Existing[len(d.Existing)-1].Status = "RE"

	proposed := func(plant int, id, pm, es, status string, mw float64) domain.Generator {
		g := unit(plant, id, "", pm, es, mw, year+2)
		g.Status = status
		g.County = samplePlants[indexOf(plant)].county
		g.Cogen = ""
		return g
	}
	d.Proposed = []domain.Generator{
		proposed(200, "PV2", "PV", "SUN", "U", 100),
		proposed(800, "GT1", "GT", "NG", "T", 75),
		proposed(600, "2", "ST", "NUC", "P", 1100),
	}

	for _, g := range d.Existing {
		if g.Status == "RE" {
			continue
		}
		rec := domain.GenerationRecord{
			Year: year, PlantCode: g.PlantCode, PlantName: g.PlantName, State: g.State,
			PrimeMover: g.PrimeMover, EnergySource: g.EnergySource,
		}
		for m := range 12 {
			hours := float64(domain.DaysInMonth(year, m+1) * 24)
			cf, hr := profile(g, m)
			rec.NetGen[m] = math.Round(cf * hours * g.NameplateMW)
			rec.ElecMMBtu[m] = math.Round(rec.NetGen[m] * hr)
			if g.PrimeMover == "BA" {
				rec.ElecQuantity[m] = math.Round(0.2 * hours * g.NameplateMW)
				rec.NetGen[m] = -math.Round(0.05 * hours * g.NameplateMW)
			}
		}
		d.Generation = append(d.Generation, rec)
	}
	d.Generation = append(d.Generation, domain.GenerationRecord{
		Year: year, PlantCode: domain.StateFuelIncrementPlant, PlantName: "State-Fuel Level Increment",
		State: "CA", PrimeMover: "ST", EnergySource: "NG", NetGen: flatMonthly(1000),
	})
	return d
}

// profile returns a capacity factor and heat rate for month m.
func profile(g domain.Generator, m int) (cf, hr float64) {
	season := math.Sin(float64(m) / 11 * math.Pi) // 0 in winter, 1 mid-year
	switch g.PrimeMover {
	case "ST":
		if g.EnergySource == "NUC" {
			return 0.92, 10.45
		}
		return 0.6 + 0.1*season, 10.2 + 0.05*float64(m%4)
	case "CT", "CA":
		return 0.5 + 0.2*season, 7.1 + 0.02*float64(m%3)
	case "GT":
		return 0.03 + 0.05*season, 11.4 + 0.1*float64(m%2)
	case "HY":
		return 0.3 + 0.4*season, 0
	case "PV":
		return 0.15 + 0.15*season, 0
	case "WT":
		return 0.35 - 0.1*season, 0
	}
	return 0, 0
}

func indexOf(code int) int {
	for i, p := range samplePlants {
		if p.code == code {
			return i
		}
	}
	panic("eiatest: unknown sample plant")
}

func flatMonthly(v float64) domain.Monthly {
	var m domain.Monthly
	for i := range m {
		m[i] = v
	}
	return m
}

// SampleRetired lists units of the sample that the monthly inventory reports
// as retired: two of the Kern peakers.
func SampleRetired(year int) []domain.RetiredGenerator {
	p := samplePlants[indexOf(800)]
	r := func(id string) domain.RetiredGenerator {
		return domain.RetiredGenerator{
			EntityID: p.utility, PlantCode: p.code, PlantName: p.name, GeneratorID: id,
			State: p.state, County: p.county, PrimeMover: "GT", EnergySource: "NG",
			Technology: "Natural Gas Fired Combustion Turbine", NameplateMW: 50,
			OperatingYear: 1975, RetirementYear: year + 1, RetirementMonth: 12,
		}
	}
	return []domain.RetiredGenerator{r("GT1"), r("GT2")}
}
