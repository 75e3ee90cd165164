package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

// PullScenario summarizes the build-year capacity of a scenario: plant rows,
// total capacity, and the capacity-weighted heat rate of plants that have
// one.
func (s *Store) PullScenario(ctx context.Context, scenario int) (domain.ScenarioSummary, error) {
	sum := domain.ScenarioSummary{ScenarioID: scenario}
	sql, args, err := build(s.scenarioSummary(scenario))
	if err != nil {
		return sum, err
	}
	var capacityMW float64
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&sum.Plants, &capacityMW, &sum.WeightedHeatRate); err != nil {
		return sum, fmt.Errorf("summarize scenario %d: %w", scenario, err)
	}
	sum.CapacityGW = capacityMW / 1000
	return sum, nil
}

func (s *Store) scenarioSummary(scenario int) *goqu.SelectDataset {
	return s.dialect.From(s.t(GenerationPlantTable)).Prepared(true).
		Join(s.t(ExistingAndPlannedTable), goqu.Using(plantID)).
		Select(
			goqu.COUNT(goqu.Star()),
			goqu.L("COALESCE(SUM(capacity), 0)"),
			goqu.L("COALESCE(SUM(capacity * full_load_heat_rate) FILTER (WHERE full_load_heat_rate > 0)"+
				" / NULLIF(SUM(capacity) FILTER (WHERE full_load_heat_rate > 0), 0), 0)"),
		).
		Where(goqu.C(buildScenarioCol).Eq(scenario))
}

// CapacityByEnergySource sums the build-year capacity of a scenario by
// energy source and technology.
func (s *Store) CapacityByEnergySource(ctx context.Context, scenario int) ([]domain.CapacityRow, error) {
	sql, args, err := build(s.capacityByEnergySource(scenario))
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("capacity of scenario %d: %w", scenario, err)
	}
	defer rows.Close()

	var out []domain.CapacityRow
	for rows.Next() {
		var r domain.CapacityRow
		if err := rows.Scan(&r.CapacityMW, &r.EnergySource, &r.GenTech); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) capacityByEnergySource(scenario int) *goqu.SelectDataset {
	return s.dialect.From(s.t(GenerationPlantTable)).Prepared(true).
		Join(s.t(ExistingAndPlannedTable), goqu.Using(plantID)).
		Select(goqu.SUM("capacity").As("total_capacity_limit_mw"), "energy_source", "gen_tech").
		Where(goqu.C(buildScenarioCol).Eq(scenario)).
		GroupBy("energy_source", "gen_tech").
		Order(goqu.C("energy_source").Asc(), goqu.C("gen_tech").Asc())
}

// MembershipGap is a plant of a scenario missing required rows.
type MembershipGap struct {
	PlantID     int64
	Name        string
	NoLoadZone  bool
	NoBuildYear bool
	NoCost      bool
}

// ScenarioGaps lists the plants of a scenario lacking a load zone, a build
// year row, or a cost row.
func (s *Store) ScenarioGaps(ctx context.Context, scenario int) ([]MembershipGap, error) {
	sql := fmt.Sprintf(`SELECT g.generation_plant_id, g.name,
			g.load_zone_id IS NULL,
			NOT EXISTS (SELECT 1 FROM %[3]s b WHERE b.generation_plant_id = g.generation_plant_id AND b.%[5]s = $1),
			NOT EXISTS (SELECT 1 FROM %[4]s c WHERE c.generation_plant_id = g.generation_plant_id AND c.%[6]s = $1)
		FROM %[1]s g
		JOIN %[2]s m USING (generation_plant_id)
		WHERE m.generation_plant_scenario_id = $1
		ORDER BY g.generation_plant_id`,
		s.ident(GenerationPlantTable), s.ident(ScenarioMemberTable),
		s.ident(ExistingAndPlannedTable), s.ident(CostTable),
		buildScenarioCol, costScenarioCol,
	)
	rows, err := s.pool.Query(ctx, sql, scenario)
	if err != nil {
		return nil, fmt.Errorf("check scenario %d membership: %w", scenario, err)
	}
	defer rows.Close()

	var gaps []MembershipGap
	for rows.Next() {
		var g MembershipGap
		if err := rows.Scan(&g.PlantID, &g.Name, &g.NoLoadZone, &g.NoBuildYear, &g.NoCost); err != nil {
			return nil, err
		}
		if g.NoLoadZone || g.NoBuildYear || g.NoCost {
			gaps = append(gaps, g)
		}
	}
	return gaps, rows.Err()
}
