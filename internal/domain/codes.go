package domain

import (
	"slices"
	"strings"
)

// AcceptedStatusCodes are the EIA-860 generator statuses kept for modeling:
// operating, standby, testing, cold standby, temporarily out of service,
// seasonal, and the proposed stages from approvals pending to complete.
var AcceptedStatusCodes = []string{"OP", "SB", "CO", "SC", "OA", "OZ", "TS", "L", "T", "U", "V"}

// FuelPrimeMovers burn fuel and therefore have heat rates. CA, CT and CS are
// combined-cycle parts and collapse into CC before use.
var FuelPrimeMovers = []string{"ST", "GT", "IC", "CA", "CT", "CS", "CC"}

// ThermalPrimeMovers receive a heat rate in the generation plant table.
var ThermalPrimeMovers = []string{"CC", "GT", "IC", "ST"}

// VariablePrimeMovers produce on an exogenous resource profile.
var VariablePrimeMovers = []string{"HY", "PV", "WT"}

// CoalCodes are the coal energy sources aggregated into CoalCode.
var CoalCodes = []string{"ANT", "BIT", "LIG", "SGC", "SUB", "WC", "RC"}

// CoalCode is the synthetic energy source for all coal types.
const CoalCode = "COAL"

// WaterCode is the energy source of conventional and pumped hydro.
const WaterCode = "WAT"

// WECCStates are the states with territory in the Western Interconnection.
var WECCStates = []string{"WA", "OR", "CA", "AZ", "NV", "NM", "UT", "ID", "MT", "WY", "CO", "TX"}

// FuelMap translates EIA energy source codes into Switch fuel names.
var FuelMap = map[string]string{
	"LFG":  "Bio_Gas",
	"OBG":  "Bio_Gas",
	"AB":   "Bio_Solid",
	"BLQ":  "Bio_Liquid",
	"NG":   "Gas",
	"OG":   "Gas",
	"PG":   "Gas",
	"DFO":  "DistillateFuelOil",
	"JF":   "ResidualFuelOil",
	"COAL": "Coal",
	"PC":   "Coal",
	"GEO":  "Geothermal",
	"NUC":  "Uranium",
	"PUR":  "Purchased_Steam",
	"WH":   "Waste_Heat",
	"SUN":  "Solar",
	"WDL":  "Bio_Liquid",
	"WDS":  "Bio_Solid",
	"MSW":  "Bio_Solid",
	"OTH":  "Other",
	"WAT":  "Water",
	"MWH":  "Electricity",
	"WND":  "Wind",
}

// Switch fuel names referenced by the upload rules.
const (
	FuelCoal           = "Coal"
	FuelGas            = "Gas"
	FuelOther          = "Other"
	FuelPurchasedSteam = "Purchased_Steam"
	FuelElectricity    = "Electricity"
)

// BaseloadFuels mark a plant as baseload. EIA nuclear maps to Uranium.
var BaseloadFuels = []string{"Uranium", "Nuclear", FuelCoal, "Geothermal"}

// Operational statuses attached while parsing EIA-860 generator sheets.
const (
	Operable = "Operable"
	Proposed = "Proposed"
)

// BatteryTech is the Switch technology name for EIA prime mover BA.
const BatteryTech = "Battery_Storage"

// StateFuelIncrementPlant is the EIA-923 pseudo plant holding state-level
// fuel increments; it is never a real generator.
const StateFuelIncrementPlant = 99999

// NormalizePrimeMover collapses combined-cycle parts into CC.
func NormalizePrimeMover(pm string) string {
	pm = strings.ToUpper(strings.TrimSpace(pm))
	switch pm {
	case "CA", "CT", "CS":
		return "CC"
	}
	return pm
}

// CollapseCoal maps any coal energy source to CoalCode.
func CollapseCoal(es string) string {
	if slices.Contains(CoalCodes, es) {
		return CoalCode
	}
	return es
}

// SwitchFuel maps an EIA energy source to its Switch fuel, leaving unknown
// codes unchanged.
func SwitchFuel(es string) string {
	if f, ok := FuelMap[es]; ok {
		return f
	}
	return es
}

// IsAcceptedStatus reports whether status is kept for modeling.
func IsAcceptedStatus(status string) bool {
	return slices.Contains(AcceptedStatusCodes, strings.ToUpper(strings.TrimSpace(status)))
}

// IsFuelBased reports whether pm burns fuel.
func IsFuelBased(pm string) bool { return slices.Contains(FuelPrimeMovers, pm) }

// IsThermal reports whether pm is assigned a heat rate.
func IsThermal(pm string) bool { return slices.Contains(ThermalPrimeMovers, pm) }

// IsWECCState reports whether state is in the Western Interconnection.
func IsWECCState(state string) bool { return slices.Contains(WECCStates, state) }

