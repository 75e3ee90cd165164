package domain

import (
	"math"
	"strconv"
	"strings"
)

// Row is a spreadsheet or tab-file row keyed by canonical column name.
type Row map[string]string

// Get returns the trimmed value of col, or "" when absent.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r[col])
}

// Generator is one EIA-860 generator, or a generation project after
// aggregation. Numeric fields hold zero when EIA left them blank.
type Generator struct {
	PlantCode             int
	PlantName             string
	UtilityID             int
	GeneratorID           string
	UnitCode              string
	Status                string
	OperationalStatus     string
	RegulatoryStatus      string
	NameplateMW           float64
	MinimumLoadMW         float64
	PrimeMover            string
	EnergySource          string
	EnergySource2         string
	EnergySource3         string
	County                string
	State                 string
	NercRegion            string
	OperatingYear         int
	PlannedRetirementYear int

	// Reported on the plant and generator sheets of recent form years only.
	Latitude           float64
	Longitude          float64
	HasLocation        bool
	BalancingAuthority string
	GridVoltageKV      float64
	CarbonCapture      string
	Cogen              string
	ColdStartTime      string

	BestHeatRate float64
}

// GeneratorFromRow builds a Generator from a parsed row. It accepts both the
// raw EIA column names (after NormalizeColumnName) and the processed tab
// file names, where the plant code is called "EIA Plant Code".
func GeneratorFromRow(r Row) Generator {
	code := r.Get(ColPlantCode)
	if code == "" {
		code = r.Get(ColEIAPlantCode)
	}
	g := Generator{
		PlantCode:             ParseInt(code),
		PlantName:             r.Get(ColPlantName),
		UtilityID:             ParseInt(r.Get(ColUtilityID)),
		GeneratorID:           normalizeID(r.Get(ColGeneratorID)),
		UnitCode:              normalizeID(r.Get(ColUnitCode)),
		Status:                strings.ToUpper(r.Get(ColStatus)),
		OperationalStatus:     r.Get(ColOperationalStatus),
		RegulatoryStatus:      r.Get(ColRegulatoryStatus),
		NameplateMW:           ParseFloat(r.Get(ColNameplate)),
		MinimumLoadMW:         ParseFloat(r.Get(ColMinimumLoad)),
		PrimeMover:            strings.ToUpper(r.Get(ColPrimeMover)),
		EnergySource:          strings.ToUpper(r.Get(ColEnergySource)),
		EnergySource2:         strings.ToUpper(r.Get(ColEnergySource2)),
		EnergySource3:         strings.ToUpper(r.Get(ColEnergySource3)),
		County:                r.Get(ColCounty),
		State:                 strings.ToUpper(r.Get(ColState)),
		NercRegion:            strings.ToUpper(r.Get(ColNercRegion)),
		OperatingYear:         ParseInt(r.Get(ColOperatingYear)),
		PlannedRetirementYear: ParseInt(r.Get(ColPlannedRetirementYear)),
		BalancingAuthority:    r.Get(ColBalancingAuthority),
		GridVoltageKV:         ParseFloat(r.Get(ColGridVoltage)),
		CarbonCapture:         r.Get(ColCarbonCapture),
		Cogen:                 strings.ToUpper(r.Get(ColCogen)),
		ColdStartTime:         r.Get(ColColdStart),
		BestHeatRate:          ParseFloat(r.Get(ColBestHeatRate)),
	}
	lat, latOK := parseOptionalFloat(r.Get(ColLatitude))
	lon, lonOK := parseOptionalFloat(r.Get(ColLongitude))
	if latOK && lonOK {
		g.Latitude, g.Longitude, g.HasLocation = lat, lon, true
	}
	return g
}

// ProjectColumns are the columns of generation_projects_{year}.tab. The
// end year additionally carries ProjectExtraColumns.
var ProjectColumns = []string{
	ColEIAPlantCode, ColPlantName, ColUtilityID, ColStatus, ColOperationalStatus,
	ColRegulatoryStatus, ColNameplate, ColPrimeMover, ColEnergySource,
	ColEnergySource2, ColEnergySource3, ColCounty, ColState, ColNercRegion,
	ColOperatingYear, ColPlannedRetirementYear, ColBestHeatRate,
}

// ProjectExtraColumns are only reported for the most recent form year.
var ProjectExtraColumns = []string{
	ColColdStart, ColLatitude, ColLongitude, ColBalancingAuthority,
	ColGridVoltage, ColCarbonCapture, ColCogen, ColMinimumLoad,
}

// ProjectRecord renders g in ProjectColumns order, followed by
// ProjectExtraColumns when extras is set.
func (g Generator) ProjectRecord(extras bool) []string {
	rec := []string{
		strconv.Itoa(g.PlantCode), g.PlantName, FormatInt(g.UtilityID), g.Status,
		g.OperationalStatus, g.RegulatoryStatus, FormatFloat(g.NameplateMW),
		g.PrimeMover, g.EnergySource, g.EnergySource2, g.EnergySource3, g.County,
		g.State, g.NercRegion, FormatInt(g.OperatingYear),
		FormatInt(g.PlannedRetirementYear), FormatFloat(g.BestHeatRate),
	}
	if !extras {
		return rec
	}
	lat, lon := "", ""
	if g.HasLocation {
		lat, lon = FormatFloat(g.Latitude), FormatFloat(g.Longitude)
	}
	return append(rec, g.ColdStartTime, lat, lon, g.BalancingAuthority,
		FormatFloat(g.GridVoltageKV), g.CarbonCapture, g.Cogen, FormatFloat(g.MinimumLoadMW))
}

// ParseInt reads an integer that may have been stored as a float ("1234.0").
// Blank and unparsable values yield 0.
func ParseInt(s string) int {
	f := ParseFloat(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

// ParseFloat reads a numeric cell. EIA marks missing values with blanks or
// ".", both of which yield 0.
func ParseFloat(s string) float64 {
	f, ok := parseOptionalFloat(s)
	if !ok {
		return 0
	}
	return f
}

func parseOptionalFloat(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatFloat renders f for tab files; zero, NaN, and infinities are blank.
func FormatFloat(f float64) string {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatValue renders f for tab files, keeping zero but blanking NaN and
// infinities.
func FormatValue(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatInt renders n for tab files; zero is blank.
func FormatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// normalizeID strips the ".0" spreadsheets append to numeric identifiers.
func normalizeID(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".0") {
		if _, err := strconv.Atoi(strings.TrimSuffix(s, ".0")); err == nil {
			return strings.TrimSuffix(s, ".0")
		}
	}
	return strings.ToUpper(s)
}
