package postgres

// Switch tables.
const (
	GenerationPlantTable        = "generation_plant"
	ScenarioMemberTable         = "generation_plant_scenario_member"
	ExistingAndPlannedTable     = "generation_plant_existing_and_planned"
	CostTable                   = "generation_plant_cost"
	HydroCapacityFactorTable    = "hydro_historical_monthly_capacity_factors"
	VariableCapacityFactorTable = "variable_capacity_factors"
	TechnologyTable             = "generation_plant_technologies"
	FuelCellBackupTable         = "fuel_cell_generation_plant_backup"
	LoadZoneTable               = "load_zone"
	CountyTable                 = "us_counties"
	StateTable                  = "us_states"
	RegionTable                 = "ventyx_nerc_reg_region"
)

// AMPL-era tables holding the historical variable capacity factors.
const (
	amplProjectsTable   = "temp_ampl__proposed_projects_v3"
	amplFactorsTable    = "temp_variable_capacity_factors_historical"
	amplTimepointsTable = "temp_load_scenario_historic_timepoints"
	rawTimepointTable   = "raw_timepoint"
)

const plantID = "generation_plant_id"

// mappingTable is a scenario description table keyed by its own scenario id.
type mappingTable struct {
	name string
	key  string
}

var (
	plantScenarios = mappingTable{"generation_plant_scenario", "generation_plant_scenario_id"}
	buildScenarios = mappingTable{"generation_plant_existing_and_planned_scenario", "generation_plant_existing_and_planned_scenario_id"}
	costScenarios  = mappingTable{"generation_plant_cost_scenario", "generation_plant_cost_scenario_id"}
	hydroScenarios = mappingTable{"hydro_simple_scenario", "hydro_simple_scenario_id"}
)

// Scenario id columns of the data tables.
const (
	memberScenarioCol = "generation_plant_scenario_id"
	buildScenarioCol  = "generation_plant_existing_and_planned_scenario_id"
	costScenarioCol   = "generation_plant_cost_scenario_id"
	hydroScenarioCol  = "hydro_simple_scenario_id"
)

// LoaderTables are the tables written by a scenario load, in dependency
// order. They are the default set for backups.
var LoaderTables = []string{
	GenerationPlantTable,
	plantScenarios.name,
	ScenarioMemberTable,
	buildScenarios.name,
	ExistingAndPlannedTable,
	costScenarios.name,
	CostTable,
	hydroScenarios.name,
	HydroCapacityFactorTable,
	VariableCapacityFactorTable,
	FuelCellBackupTable,
}

// plantNumericColumns may hold NaN after aggregation and are nulled by
// Cleanup.
var plantNumericColumns = []string{
	"connect_cost_per_mw", "full_load_heat_rate", "hydro_efficiency", "min_build_capacity",
	"unit_size", "storage_efficiency", "store_to_release_ratio",
	"min_load_fraction", "startup_fuel", "startup_om",
	"ccs_capture_efficiency", "ccs_energy_load",
}
