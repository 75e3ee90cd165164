package postgres

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"
)

// AMPL technology ids whose historical profiles are averaged per load zone.
var (
	WindTechnologies  = []int{4}
	SolarTechnologies = []int{6, 25, 26}
)

// ProfileSource pairs a Switch technology with the AMPL technologies whose
// profiles it inherits.
type ProfileSource struct {
	GenTech      string
	Technologies []int
}

// DefaultProfileSources assigns onshore wind profiles to WT plants and the
// average of residential, commercial, and central PV profiles to PV plants.
var DefaultProfileSources = []ProfileSource{
	{GenTech: "WT", Technologies: WindTechnologies},
	{GenTech: "PV", Technologies: SolarTechnologies},
}

// VarCFOptions controls AssignVariableCapacityFactors.
type VarCFOptions struct {
	Scenarios   []int
	LoadZones   int // zones 1..LoadZones are processed
	Sources     []ProfileSource
	Concurrency int
}

// AssignVariableCapacityFactors gives every variable plant of the scenarios
// the average AMPL profile of its load zone. Existing factors of those
// plants are replaced. Zones are processed concurrently, one statement per
// zone and technology.
func (s *Store) AssignVariableCapacityFactors(ctx context.Context, opts VarCFOptions) (int64, error) {
	if opts.LoadZones <= 0 {
		opts.LoadZones = 50
	}
	if len(opts.Sources) == 0 {
		opts.Sources = DefaultProfileSources
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	for _, scenario := range opts.Scenarios {
		n, err := exec(ctx, s.pool, s.deleteScenarioFactors(scenario))
		if err != nil {
			return 0, fmt.Errorf("clear variable capacity factors of scenario %d: %w", scenario, err)
		}
		s.logger.Info("cleared variable capacity factors", "scenario", scenario, "rows", n)
	}

	pool := pond.NewResultPool[int64](opts.Concurrency)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	sql := s.zoneFactorsSQL()
	for _, src := range opts.Sources {
		for zone := 1; zone <= opts.LoadZones; zone++ {
			group.SubmitErr(func() (int64, error) {
				tag, err := s.pool.Exec(ctx, sql, zone, src.Technologies, src.GenTech, opts.Scenarios)
				if err != nil {
					return 0, fmt.Errorf("assign %s profiles in load zone %d: %w", src.GenTech, zone, err)
				}
				s.logger.Debug("assigned variable capacity factors",
					"gen_tech", src.GenTech,
					"load_zone", zone,
					"rows", tag.RowsAffected(),
				)
				return tag.RowsAffected(), nil
			})
		}
	}

	counts, err := group.Wait()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	s.logger.Info("assigned variable capacity factors", "rows", total, "scenarios", opts.Scenarios)
	return total, nil
}

// zoneFactorsSQL averages the AMPL profiles of one load zone and technology
// set per timepoint and inserts them for each matching plant.
// Parameters: zone, AMPL technology ids, gen_tech, scenario ids.
func (s *Store) zoneFactorsSQL() string {
	return fmt.Sprintf(`INSERT INTO %[1]s
		(generation_plant_id, raw_timepoint_id, timestamp_utc, capacity_factor, variable_capacity_factors_scenario_id)
		SELECT DISTINCT ON (g.generation_plant_id, factors.timepoint_id)
			g.generation_plant_id, factors.timepoint_id, factors.timestamp_utc, factors.cap_factor, 1
		FROM %[2]s g
		JOIN %[3]s m USING (generation_plant_id)
		JOIN (
			SELECT p.area_id, t.timepoint_id, r.timestamp_utc, avg(h.cap_factor) AS cap_factor
			FROM %[4]s p
			JOIN %[5]s h USING (project_id)
			JOIN %[6]s t ON (h.hour = t.historic_hour)
			JOIN %[7]s r ON (t.timepoint_id = r.raw_timepoint_id)
			WHERE p.area_id = $1 AND p.technology_id = ANY($2)
			GROUP BY 1, 2, 3
		) factors ON (factors.area_id = g.load_zone_id)
		WHERE g.gen_tech = $3
		AND m.generation_plant_scenario_id = ANY($4)`,
		s.ident(VariableCapacityFactorTable),
		s.ident(GenerationPlantTable),
		s.ident(ScenarioMemberTable),
		amplProjectsTable, amplFactorsTable, amplTimepointsTable, rawTimepointTable,
	)
}
