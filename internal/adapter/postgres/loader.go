package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

// wgs84 is the SRID of plant locations and load zone boundaries.
const wgs84 = 4326

// Scenario identifies the scenario rows a load replaces. The same id is used
// for the plant, build-year, cost, and hydro scenarios.
type Scenario struct {
	ID               int
	SourceID         int // mapping rows are copied from this scenario first
	Name             string
	Description      string
	HydroName        string
	HydroDescription string
}

// LoadOptions controls the destructive parts of a load.
type LoadOptions struct {
	// PurgeOrphans deletes generation plants that belong to no scenario.
	// Foreign-key triggers are disabled for that statement.
	PurgeOrphans bool
}

// LoadResult reports a scenario load.
type LoadResult struct {
	Scenario   int
	Plants     []domain.LoadedPlant
	Zones      ZoneAssignment
	Purged     int64
	BuildYears int
	Costs      int
	HydroFlows []domain.HydroFlow
}

// AggregateResult reports the load of the load-zone aggregated scenario.
type AggregateResult struct {
	Scenario   int
	Plants     []domain.AggregatedPlant
	BuildYears int
	Costs      int
	HydroFlows int
}

// LoadPlants replaces the plants of a scenario. Everything runs in a single
// transaction: previous scenario rows are deleted, the plants are inserted
// and assigned to load zones, technology defaults are applied, and the
// scenario membership, build years, costs, and hydro flows are written.
// Plants that cannot be placed in a load zone are dropped.
func (s *Store) LoadPlants(ctx context.Context, sc Scenario, plants []domain.Plant, hydro []domain.HydroCapacityFactor, opts LoadOptions) (*LoadResult, error) {
	res := &LoadResult{Scenario: sc.ID}
	logger := s.logger.With("scenario", sc.ID)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.relaxPlantConstraints(ctx, tx); err != nil {
			return err
		}
		if err := s.clearScenario(ctx, tx, sc.ID); err != nil {
			return err
		}
		if opts.PurgeOrphans {
			n, err := s.purgeOrphans(ctx, tx)
			if err != nil {
				return err
			}
			res.Purged = n
			logger.Warn("purged generation plants outside every scenario", "plants", n)
		}

		records := make([]goqu.Record, len(plants))
		for i, p := range plants {
			rec, err := plantRecord(p, 0)
			if err != nil {
				return err
			}
			records[i] = rec
		}
		ids, err := s.insertPlants(ctx, tx, records)
		if err != nil {
			return err
		}
		logger.Info("inserted generation plants", "plants", len(ids))

		zones, err := s.assignLoadZones(ctx, tx, ids)
		if err != nil {
			return err
		}
		res.Zones = zones
		s.recordZones(zones)
		logger.Info("assigned load zones",
			"contains", zones.Contains,
			"county", zones.County,
			"nearest", zones.Nearest,
			"unassigned", zones.Unassigned,
		)
		if zones.Unassigned > 0 {
			logger.Warn("dropping plants without a load zone",
				"plants", zones.Unassigned,
				"capacity_gw", zones.UnassignedMW/1000,
			)
		}

		if err := s.applyTechnologyDefaults(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.writeMappings(ctx, tx, sc); err != nil {
			return err
		}

		placed, err := s.placedPlants(ctx, tx, ids)
		if err != nil {
			return err
		}
		for i, id := range ids {
			pl, ok := placed[id]
			if !ok {
				continue
			}
			p := plants[i]
			p.MaxAge = pl.maxAge
			res.Plants = append(res.Plants, domain.LoadedPlant{Plant: p, ID: id, LoadZoneID: pl.zone})
		}

		loadedIDs := make([]int64, len(res.Plants))
		for i, p := range res.Plants {
			loadedIDs[i] = p.ID
		}
		if err := s.insertMembers(ctx, tx, sc.ID, loadedIDs); err != nil {
			return err
		}
		if err := s.restorePlantConstraints(ctx, tx); err != nil {
			return err
		}

		years := make([]plantYears, len(res.Plants))
		for i, p := range res.Plants {
			years[i] = plantYears{id: p.ID, years: p.BuildYears}
		}
		if res.BuildYears, err = s.insertBuildYears(ctx, tx, sc.ID, years); err != nil {
			return err
		}
		if res.Costs, err = s.insertCosts(ctx, tx, sc.ID, years); err != nil {
			return err
		}

		res.HydroFlows = domain.HydroFlows(hydro, res.Plants)
		return s.insertHydroFlows(ctx, tx, sc.ID, res.HydroFlows)
	})
	if err != nil {
		return nil, fmt.Errorf("load scenario %d: %w", sc.ID, err)
	}

	s.metrics.PlantsLoaded.WithLabelValues(strconv.Itoa(sc.ID)).Add(float64(len(res.Plants)))
	logger.Info("scenario loaded",
		"plants", len(res.Plants),
		"build_years", res.BuildYears,
		"hydro_flows", len(res.HydroFlows),
	)
	return res, nil
}

// LoadAggregated replaces an aggregated scenario with the plants of a
// disaggregated load merged by load zone, technology, fuel, and heat rate
// group.
func (s *Store) LoadAggregated(ctx context.Context, sc Scenario, source *LoadResult, opts LoadOptions) (*AggregateResult, error) {
	res := &AggregateResult{Scenario: sc.ID, Plants: domain.AggregateByLoadZone(source.Plants)}
	logger := s.logger.With("scenario", sc.ID)
	logger.Info("aggregated plants by load zone", "plants", len(source.Plants), "aggregated", len(res.Plants))

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.clearScenario(ctx, tx, sc.ID); err != nil {
			return err
		}
		if opts.PurgeOrphans {
			if _, err := s.purgeOrphans(ctx, tx); err != nil {
				return err
			}
		}

		records := make([]goqu.Record, len(res.Plants))
		for i, a := range res.Plants {
			rec, err := plantRecord(a.Plant, a.LoadZoneID)
			if err != nil {
				return err
			}
			records[i] = rec
		}
		ids, err := s.insertPlants(ctx, tx, records)
		if err != nil {
			return err
		}
		for i := range res.Plants {
			res.Plants[i].ID = ids[i]
		}

		if err := s.applyTechnologyDefaults(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.writeMappings(ctx, tx, sc); err != nil {
			return err
		}
		if err := s.insertMembers(ctx, tx, sc.ID, ids); err != nil {
			return err
		}

		years := make([]plantYears, len(res.Plants))
		for i, a := range res.Plants {
			years[i] = plantYears{id: a.ID, years: a.BuildYears}
		}
		if res.BuildYears, err = s.insertBuildYears(ctx, tx, sc.ID, years); err != nil {
			return err
		}
		if res.Costs, err = s.insertCosts(ctx, tx, sc.ID, years); err != nil {
			return err
		}

		flows := domain.AggregateHydroFlows(source.HydroFlows, res.Plants)
		res.HydroFlows = len(flows)
		return s.insertHydroFlows(ctx, tx, sc.ID, flows)
	})
	if err != nil {
		return nil, fmt.Errorf("load aggregated scenario %d: %w", sc.ID, err)
	}

	s.metrics.PlantsLoaded.WithLabelValues(strconv.Itoa(sc.ID)).Add(float64(len(res.Plants)))
	logger.Info("scenario loaded", "plants", len(res.Plants), "build_years", res.BuildYears, "hydro_flows", res.HydroFlows)
	return res, nil
}

// plantRecord maps a plant onto generation_plant columns. A zero heat rate
// or load zone is stored as NULL.
func plantRecord(p domain.Plant, loadZone int) (goqu.Record, error) {
	rec := goqu.Record{
		"name":                p.Name,
		"gen_tech":            p.GenTech,
		"load_zone_id":        nullInt(loadZone),
		"capacity_limit_mw":   p.CapacityLimitMW,
		"full_load_heat_rate": nullFloat(p.FullLoadHeatRate),
		"max_age":             p.MaxAge,
		"is_variable":         p.IsVariable,
		"is_baseload":         p.IsBaseload,
		"is_cogen":            p.IsCogen,
		"energy_source":       p.EnergySource,
		"eia_plant_code":      nullInt(p.EIAPlantCode),
		"county":              nullString(p.County),
		"state":               nullString(p.State),
		"latitude":            nil,
		"longitude":           nil,
		"geom":                nil,
	}
	if p.HasLocation {
		geom, err := ewkb.Marshal(orb.Point{p.Longitude, p.Latitude}, wgs84)
		if err != nil {
			return nil, fmt.Errorf("encode location of %s: %w", p.Name, err)
		}
		rec["latitude"] = p.Latitude
		rec["longitude"] = p.Longitude
		rec["geom"] = goqu.Func("ST_GeomFromEWKB", geom)
	}
	return rec, nil
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// insertPlants inserts one row per record and returns the generated ids in
// record order.
func (s *Store) insertPlants(ctx context.Context, q querier, records []goqu.Record) ([]int64, error) {
	if len(records) == 0 {
		return nil, nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		sql, args, err := build(s.dialect.Insert(s.t(GenerationPlantTable)).Prepared(true).
			Rows(rec).
			Returning(goqu.C(plantID)))
		if err != nil {
			return nil, err
		}
		batch.Queue(sql, args...)
	}

	br := q.SendBatch(ctx, batch)
	ids := make([]int64, len(records))
	for i := range records {
		if err := br.QueryRow().Scan(&ids[i]); err != nil {
			_ = br.Close()
			return nil, fmt.Errorf("insert generation plant %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("insert generation plants: %w", err)
	}
	return ids, nil
}

func (s *Store) relaxPlantConstraints(ctx context.Context, q querier) error {
	return s.alterPlantNullability(ctx, q, "DROP")
}

func (s *Store) restorePlantConstraints(ctx context.Context, q querier) error {
	return s.alterPlantNullability(ctx, q, "SET")
}

func (s *Store) alterPlantNullability(ctx context.Context, q querier, verb string) error {
	for _, col := range []string{"load_zone_id", "max_age"} {
		sql := fmt.Sprintf("ALTER TABLE %s ALTER %s %s NOT NULL", s.ident(GenerationPlantTable), col, verb)
		if _, err := q.Exec(ctx, sql); err != nil {
			return fmt.Errorf("%s NOT NULL on %s: %w", verb, col, err)
		}
	}
	return nil
}

// clearScenario deletes the rows of a scenario from the data tables and
// then from the scenario mapping tables. Variable capacity factors of the
// scenario's plants go first since they hang off the membership.
func (s *Store) clearScenario(ctx context.Context, q querier, scenario int) error {
	n, err := exec(ctx, q, s.deleteScenarioFactors(scenario))
	if err != nil {
		return fmt.Errorf("clear %s: %w", s.Table(VariableCapacityFactorTable), err)
	}
	s.logger.Debug("cleared scenario rows", "table", s.Table(VariableCapacityFactorTable), "rows", n)

	steps := []struct {
		table string
		col   string
	}{
		{HydroCapacityFactorTable, hydroScenarioCol},
		{ScenarioMemberTable, memberScenarioCol},
		{CostTable, costScenarioCol},
		{ExistingAndPlannedTable, buildScenarioCol},
		{hydroScenarios.name, hydroScenarios.key},
		{costScenarios.name, costScenarios.key},
		{buildScenarios.name, buildScenarios.key},
		{plantScenarios.name, plantScenarios.key},
	}
	for _, st := range steps {
		n, err := exec(ctx, q, s.deleteScenario(st.table, st.col, scenario))
		if err != nil {
			return fmt.Errorf("clear %s: %w", st.table, err)
		}
		s.logger.Debug("cleared scenario rows", "table", s.Table(st.table), "rows", n)
	}
	return nil
}

func (s *Store) deleteScenarioFactors(scenario int) *goqu.DeleteDataset {
	members := s.dialect.From(s.t(ScenarioMemberTable)).
		Select(goqu.C(plantID)).
		Where(goqu.C(memberScenarioCol).Eq(scenario))
	return s.dialect.Delete(s.t(VariableCapacityFactorTable)).Prepared(true).
		Where(goqu.C(plantID).In(members))
}

func (s *Store) deleteScenario(table, col string, scenario int) *goqu.DeleteDataset {
	return s.dialect.Delete(s.t(table)).Prepared(true).Where(goqu.C(col).Eq(scenario))
}

// purgeOrphans deletes generation plants outside every scenario with
// foreign-key triggers disabled for the transaction.
func (s *Store) purgeOrphans(ctx context.Context, q querier) (int64, error) {
	if _, err := q.Exec(ctx, "SET LOCAL session_replication_role = replica"); err != nil {
		return 0, fmt.Errorf("disable triggers: %w", err)
	}
	n, err := exec(ctx, q, s.orphanPlants())
	if err != nil {
		return 0, fmt.Errorf("purge orphan plants: %w", err)
	}
	if _, err := q.Exec(ctx, "SET LOCAL session_replication_role = DEFAULT"); err != nil {
		return 0, fmt.Errorf("restore triggers: %w", err)
	}
	return n, nil
}

func (s *Store) orphanPlants() *goqu.DeleteDataset {
	members := s.dialect.From(s.t(ScenarioMemberTable)).Select(goqu.C(plantID))
	return s.dialect.Delete(s.t(GenerationPlantTable)).Prepared(true).
		Where(goqu.C(plantID).NotIn(members))
}

// applyTechnologyDefaults copies outage rates and variable O&M from the
// technology table, fills max_age where no retirement year was known, and
// sets battery storage parameters.
func (s *Store) applyTechnologyDefaults(ctx context.Context, q querier, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	for _, ds := range s.technologyDefaults(ids) {
		if _, err := exec(ctx, q, ds); err != nil {
			return fmt.Errorf("apply technology defaults: %w", err)
		}
	}
	return nil
}

// Battery storage parameters applied to every loaded battery.
const (
	batteryStorageEfficiency   = 0.75
	batteryStoreToReleaseRatio = 1
)

func (s *Store) technologyDefaults(ids []int64) []*goqu.UpdateDataset {
	plant := s.t(GenerationPlantTable)
	tech := s.t(TechnologyTable)
	sameTech := goqu.And(
		plant.Col("energy_source").Eq(tech.Col("energy_source")),
		plant.Col("gen_tech").Eq(tech.Col("gen_tech")),
		plant.Col(plantID).In(ids),
	)
	params := goqu.Record{}
	for _, col := range []string{"forced_outage_rate", "scheduled_outage_rate", "variable_o_m"} {
		params[col] = tech.Col(col)
	}
	return []*goqu.UpdateDataset{
		s.dialect.Update(plant).Prepared(true).Set(params).From(tech).Where(sameTech),
		s.dialect.Update(plant).Prepared(true).
			Set(goqu.Record{"max_age": tech.Col("max_age")}).
			From(tech).
			Where(sameTech, plant.Col("max_age").Eq(0), tech.Col("max_age").IsNotNull()),
		s.dialect.Update(plant).Prepared(true).
			Set(goqu.Record{
				"storage_efficiency":     batteryStorageEfficiency,
				"store_to_release_ratio": batteryStoreToReleaseRatio,
			}).
			Where(
				goqu.C("energy_source").Eq(domain.FuelElectricity),
				goqu.C("gen_tech").Eq(domain.BatteryTech),
				goqu.C(plantID).In(ids),
			),
	}
}

// writeMappings creates the four scenario description rows. Each is copied
// from the source scenario and then given the new name and description.
func (s *Store) writeMappings(ctx context.Context, q querier, sc Scenario) error {
	for _, m := range []mappingTable{plantScenarios, buildScenarios, costScenarios, hydroScenarios} {
		name, desc := sc.Name, sc.Description
		if m == hydroScenarios {
			name, desc = sc.HydroName, sc.HydroDescription
		}
		for _, ds := range s.mappingRows(m, sc.ID, sc.SourceID, name, desc) {
			if _, err := exec(ctx, q, ds); err != nil {
				return fmt.Errorf("write %s: %w", s.Table(m.name), err)
			}
		}
	}
	return nil
}

func (s *Store) mappingRows(m mappingTable, id, sourceID int, name, desc string) []*goqu.InsertDataset {
	t := s.t(m.name)
	cols := []any{m.key, "name", "description"}
	var rows []*goqu.InsertDataset
	if sourceID > 0 && sourceID != id {
		rows = append(rows, s.dialect.Insert(t).Prepared(true).
			Cols(cols...).
			FromQuery(s.dialect.From(t).
				Select(goqu.Cast(goqu.V(id), "INTEGER"), goqu.C("name"), goqu.C("description")).
				Where(goqu.C(m.key).Eq(sourceID))).
			OnConflict(goqu.DoNothing()))
	}
	rows = append(rows, s.dialect.Insert(t).Prepared(true).
		Rows(goqu.Record{m.key: id, "name": nullString(name), "description": nullString(desc)}).
		OnConflict(goqu.DoUpdate(m.key, goqu.Record{
			"name":        goqu.L("COALESCE(EXCLUDED.name, ?)", t.Col("name")),
			"description": goqu.L("COALESCE(EXCLUDED.description, ?)", t.Col("description")),
		})))
	return rows
}

func (s *Store) insertMembers(ctx context.Context, q querier, scenario int, ids []int64) error {
	rows := make([][]any, len(ids))
	for i, id := range ids {
		rows[i] = []any{scenario, id}
	}
	_, err := s.insertRows(ctx, q, ScenarioMemberTable, []any{memberScenarioCol, plantID}, rows)
	return err
}

type plantYears struct {
	id    int64
	years []domain.BuildYear
}

func (s *Store) insertBuildYears(ctx context.Context, q querier, scenario int, plants []plantYears) (int, error) {
	var rows [][]any
	for _, p := range plants {
		for _, by := range p.years {
			rows = append(rows, []any{scenario, p.id, by.Year, by.CapacityMW})
		}
	}
	return s.insertRows(ctx, q, ExistingAndPlannedTable, []any{buildScenarioCol, plantID, "build_year", "capacity"}, rows)
}

// insertCosts writes zero fixed and overnight costs for every build year.
func (s *Store) insertCosts(ctx context.Context, q querier, scenario int, plants []plantYears) (int, error) {
	var rows [][]any
	for _, p := range plants {
		for _, by := range p.years {
			rows = append(rows, []any{scenario, p.id, by.Year, 0.0, 0.0})
		}
	}
	return s.insertRows(ctx, q, CostTable, []any{costScenarioCol, plantID, "build_year", "fixed_o_m", "overnight_cost"}, rows)
}

// insertHydroFlows bulk-copies monthly hydro flows.
func (s *Store) insertHydroFlows(ctx context.Context, tx pgx.Tx, scenario int, flows []domain.HydroFlow) error {
	if len(flows) == 0 {
		return nil
	}
	rows := make([][]any, len(flows))
	for i, f := range flows {
		rows[i] = []any{scenario, f.PlantID, f.Year, f.Month, f.MinFlow, f.AvgFlow}
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{s.Table(HydroCapacityFactorTable)},
		[]string{hydroScenarioCol, plantID, "year", "month", "hydro_min_flow_mw", "hydro_avg_flow_mw"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy hydro flows: %w", err)
	}
	return nil
}

// maxParams keeps multi-row inserts under the PostgreSQL bind limit.
const maxParams = 65535

// insertRows inserts rows in chunks that fit the parameter limit.
func (s *Store) insertRows(ctx context.Context, q querier, table string, cols []any, rows [][]any) (int, error) {
	for _, chunk := range chunkRows(rows, maxParams/len(cols)) {
		ds := s.dialect.Insert(s.t(table)).Prepared(true).Cols(cols...).Vals(chunk...)
		if _, err := exec(ctx, q, ds); err != nil {
			return 0, fmt.Errorf("insert into %s: %w", s.Table(table), err)
		}
	}
	return len(rows), nil
}

func chunkRows(rows [][]any, size int) [][][]any {
	var out [][][]any
	for len(rows) > size {
		out = append(out, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}

type placement struct {
	zone   int
	maxAge int
}

// placedPlants returns the load zone and max age of the plants still present.
func (s *Store) placedPlants(ctx context.Context, q querier, ids []int64) (map[int64]placement, error) {
	sql, args, err := build(s.dialect.From(s.t(GenerationPlantTable)).Prepared(true).
		Select(plantID, "load_zone_id", "max_age").
		Where(goqu.C(plantID).In(ids)))
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("read placed plants: %w", err)
	}
	out := make(map[int64]placement, len(ids))
	for rows.Next() {
		var (
			id     int64
			pl     placement
			zone   *int32
			maxAge *int32
		)
		if err := rows.Scan(&id, &zone, &maxAge); err != nil {
			rows.Close()
			return nil, err
		}
		if zone != nil {
			pl.zone = int(*zone)
		}
		if maxAge != nil {
			pl.maxAge = int(*maxAge)
		}
		out[id] = pl
	}
	return out, rows.Err()
}

func (s *Store) recordZones(z ZoneAssignment) {
	m := s.metrics.LoadZoneAssignments
	m.WithLabelValues("contains").Add(float64(z.Contains))
	m.WithLabelValues("county").Add(float64(z.County))
	m.WithLabelValues("nearest").Add(float64(z.Nearest))
	m.WithLabelValues("unassigned").Add(float64(z.Unassigned))
}
