package postgres

import (
	"context"
	"fmt"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

// PacificZone is the time zone solar hours are evaluated in.
const PacificZone = "America/Los_Angeles"

// SolarHourlyProfile averages the capacity factors of the PV plants of a
// scenario by hour of day in Pacific time. timestamp_utc is stored without a
// zone, so it is first marked as UTC and then converted.
func (s *Store) SolarHourlyProfile(ctx context.Context, scenario int) ([]domain.HourlyCapacityFactor, error) {
	rows, err := s.pool.Query(ctx, s.solarProfileSQL(), scenario, PacificZone)
	if err != nil {
		return nil, fmt.Errorf("solar profile of scenario %d: %w", scenario, err)
	}
	defer rows.Close()

	var out []domain.HourlyCapacityFactor
	for rows.Next() {
		var h domain.HourlyCapacityFactor
		if err := rows.Scan(&h.PacificHour, &h.Average, &h.Samples); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Parameters: plant scenario id, time zone.
func (s *Store) solarProfileSQL() string {
	return fmt.Sprintf(`SELECT
			EXTRACT(HOUR FROM (v.timestamp_utc AT TIME ZONE 'UTC') AT TIME ZONE $2)::int AS pacific_hour,
			avg(v.capacity_factor)::float8,
			count(*)
		FROM %[1]s v
		JOIN %[2]s g USING (generation_plant_id)
		JOIN %[3]s m USING (generation_plant_id)
		WHERE g.gen_tech = 'PV'
		AND m.generation_plant_scenario_id = $1
		GROUP BY 1
		ORDER BY 1`,
		s.ident(VariableCapacityFactorTable),
		s.ident(GenerationPlantTable),
		s.ident(ScenarioMemberTable),
	)
}

// CheckSolar runs the day/night plausibility check over a scenario's PV
// profile.
func (s *Store) CheckSolar(ctx context.Context, scenario int) ([]domain.SolarViolation, error) {
	hours, err := s.SolarHourlyProfile(ctx, scenario)
	if err != nil {
		return nil, err
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("scenario %d has no PV capacity factors", scenario)
	}
	return domain.CheckSolarProfile(hours), nil
}
