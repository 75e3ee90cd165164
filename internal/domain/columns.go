package domain

import (
	"strings"
	"unicode"
)

// Canonical column names used by parsed sheets and processed tab files.
const (
	ColPlantCode             = "Plant Code"
	ColEIAPlantCode          = "EIA Plant Code"
	ColPlantName             = "Plant Name"
	ColUtilityID             = "Utility Id"
	ColEntityID              = "Entity Id"
	ColGeneratorID           = "Generator Id"
	ColUnitCode              = "Unit Code"
	ColStatus                = "Status"
	ColOperationalStatus     = "Operational Status"
	ColRegulatoryStatus      = "Regulatory Status"
	ColNameplate             = "Nameplate Capacity (MW)"
	ColMinimumLoad           = "Minimum Load (MW)"
	ColPrimeMover            = "Prime Mover"
	ColEnergySource          = "Energy Source"
	ColEnergySource2         = "Energy Source 2"
	ColEnergySource3         = "Energy Source 3"
	ColCounty                = "County"
	ColState                 = "State"
	ColNercRegion            = "Nerc Region"
	ColOperatingYear         = "Operating Year"
	ColPlannedRetirementYear = "Planned Retirement Year"
	ColRetirementYear        = "Retirement Year"
	ColLatitude              = "Latitude"
	ColLongitude             = "Longitude"
	ColBalancingAuthority    = "Balancing Authority Name"
	ColGridVoltage           = "Grid Voltage (kV)"
	ColCarbonCapture         = "Carbon Capture Technology"
	ColCogen                 = "Cogen"
	ColColdStart             = "Time From Cold Shutdown To Full Load"
	ColBestHeatRate          = "Best Heat Rate"
)

// columnRenames unifies the names EIA has used for the same field across
// form years. Keys are already title-cased.
var columnRenames = map[string]string{
	"Sector":                                       "Sector Number",
	"Carboncapture":                                ColCarbonCapture,
	"Associated With Combined Heat And Power System": ColCogen,
	"Carbon Capture Technology?":                   ColCarbonCapture,
	"Nameplate":                                    ColNameplate,
	"Plant Id":                                     ColPlantCode,
	"Reported Prime Mover":                         ColPrimeMover,
	"Reported Fuel Type Code":                      ColEnergySource,
	"Energy Source 1":                              ColEnergySource,
	"Energy Source Code":                           ColEnergySource,
	"Plntname":                                     ColPlantName,
	"Plntcode":                                     ColPlantCode,
	"Gencode":                                      ColGeneratorID,
	"Primemover":                                   ColPrimeMover,
	"Current Year":                                 ColOperatingYear,
	"Utilcode":                                     ColUtilityID,
	"Nerc":                                         ColNercRegion,
	"Insvyear":                                     ColOperatingYear,
	"Retireyear":                                   ColPlannedRetirementYear,
	"Cntyname":                                     ColCounty,
	"Proposed Nameplate":                           ColNameplate,
	"Proposed Status":                              ColStatus,
	"Eia Plant Code":                               ColEIAPlantCode,
	"Prime Mover Code":                             ColPrimeMover,
	"Plant State":                                  ColState,
}

// NormalizeColumnName maps a raw spreadsheet header onto its canonical name:
// words are title-cased, underscores and line breaks become spaces, unit
// suffixes are restored, and historic aliases are renamed.
func NormalizeColumnName(raw string) string {
	s := TitleCase(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "(Mw)", "(MW)")
	s = strings.ReplaceAll(s, "(Kv)", "(kV)")
	if renamed, ok := columnRenames[s]; ok {
		return renamed
	}
	return s
}

// TitleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest, so "PLANT_ID" becomes "Plant_Id".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		isLetter := unicode.IsLetter(r)
		switch {
		case isLetter && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case isLetter:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}

// TitleCaseCounty normalizes county names for region matching.
func TitleCaseCounty(s string) string {
	return TitleCase(strings.TrimSpace(s))
}
