// Package domain models EIA generator data and the transformations that turn
// it into Switch generation plants for the WECC model.
//
// # Data Sources
//
// Three EIA forms are used, all published at https://www.eia.gov/electricity/data/:
//
//	EIA-860   annual generator inventory: one plant sheet and one generator
//	          workbook per year. The generator workbook holds existing units
//	          on its first sheet and proposed units on its second (before
//	          2009 these were separate GenY and PRGenY files).
//	EIA-923   annual generation and fuel consumption, monthly, per plant,
//	          prime mover, and reported fuel ("Page 1 Generation and Fuel
//	          Data").
//	EIA-860M  monthly update whose third sheet lists retired generators.
//
// # EIA Conventions
//
// Column names drift between form years ("PLNTCODE", "Plant Id", "Plant
// Code"); NormalizeColumnName maps every known spelling onto one canonical
// name. Numeric cells may be blank or "." when unknown; both parse as zero.
// Identifiers stored as numbers come back as floats ("1234.0") and are
// normalized.
//
// Prime movers:
//
//	CA, CT, CS   parts of a combined cycle, collapsed into CC
//	ST, GT, IC   steam turbine, combustion turbine, internal combustion
//	HY, PS       conventional and pumped-storage hydro
//	PV, WT       photovoltaic and onshore wind
//	BA           battery storage, modeled as Battery_Storage
//
// Energy sources are EIA codes (NG, BIT, WAT, ...) until the project stage,
// where FuelMap translates them into Switch fuel names (Gas, Coal, Water,
// ...). The seven coal types are first combined into COAL.
//
// Plant code 99999 in EIA-923 carries state-level fuel increments rather than
// a real plant and is discarded.
//
// # Derived Quantities
//
// Capacity factor for a month is generation divided by the energy the
// nameplate could produce running every hour of the month:
//
//	CF = MWh / (days_in_month × 24 × nameplate_MW)
//
// Heat rate is fuel burned for electricity divided by net generation
// (MMBtu/MWh). Monthly heat rates are noisy; the best heat rate of a year is
// the second-smallest positive month, skipping the minimum which is often an
// artifact of partial-month reporting.
//
// # Aggregation
//
// Generators become projects in two steps: units are merged first, then
// units of the same plant, prime mover, fuel, and operating year. Nameplate
// capacity is summed and every other attribute takes its maximum; rows with a
// blank grouping key are never merged.
package domain
