package postgres

import (
	"context"
	"fmt"
)

// nearestZoneMiles bounds how far outside every load zone a plant may be
// and still be assigned to the closest one.
const nearestZoneMiles = 100

const metersPerMile = 1609

// ZoneAssignment counts plants by the pass that placed them.
type ZoneAssignment struct {
	Contains     int64
	County       int64
	Nearest      int64
	Unassigned   int64
	UnassignedMW float64
}

// assignLoadZones places the given plants in load zones. Plants with a
// location take the zone containing it; plants without one take the zone
// containing their county's centroid; plants just outside the modeled area
// take the nearest zone. Plants left without a zone are deleted.
func (s *Store) assignLoadZones(ctx context.Context, q querier, ids []int64) (ZoneAssignment, error) {
	var z ZoneAssignment
	if len(ids) == 0 {
		return z, nil
	}

	passes := []struct {
		name  string
		sql   string
		count *int64
	}{
		{"contains", s.zoneByLocationSQL(), &z.Contains},
		{"county", s.zoneByCountySQL(), &z.County},
		{"nearest", s.zoneByNearestSQL(), &z.Nearest},
	}
	for _, p := range passes {
		tag, err := q.Exec(ctx, p.sql, ids)
		if err != nil {
			return z, fmt.Errorf("assign load zones by %s: %w", p.name, err)
		}
		*p.count = tag.RowsAffected()
	}

	err := q.QueryRow(ctx, fmt.Sprintf(
		`SELECT count(*), COALESCE(sum(capacity_limit_mw), 0) FROM %s
		WHERE load_zone_id IS NULL AND generation_plant_id = ANY($1)`,
		s.ident(GenerationPlantTable)), ids).Scan(&z.Unassigned, &z.UnassignedMW)
	if err != nil {
		return z, fmt.Errorf("count unassigned plants: %w", err)
	}
	if z.Unassigned > 0 {
		_, err := q.Exec(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE load_zone_id IS NULL AND generation_plant_id = ANY($1)`,
			s.ident(GenerationPlantTable)), ids)
		if err != nil {
			return z, fmt.Errorf("delete unassigned plants: %w", err)
		}
	}
	return z, nil
}

func (s *Store) zoneByLocationSQL() string {
	return fmt.Sprintf(`UPDATE %[1]s g SET load_zone_id = z.load_zone_id
		FROM %[2]s z
		WHERE ST_Contains(z.boundary, g.geom)
		AND g.generation_plant_id = ANY($1)`,
		s.ident(GenerationPlantTable), LoadZoneTable)
}

func (s *Store) zoneByCountySQL() string {
	return fmt.Sprintf(`UPDATE %[1]s g SET load_zone_id = z.load_zone_id
		FROM %[2]s c
		JOIN %[3]s z ON ST_Contains(z.boundary, ST_Centroid(c.the_geom))
		WHERE g.load_zone_id IS NULL
		AND g.state = c.state_name AND g.county = c.name
		AND g.generation_plant_id = ANY($1)`,
		s.ident(GenerationPlantTable), CountyTable, LoadZoneTable)
}

func (s *Store) zoneByNearestSQL() string {
	return fmt.Sprintf(`UPDATE %[1]s g SET load_zone_id = n.load_zone_id
		FROM (
			SELECT p.generation_plant_id, nearest.load_zone_id
			FROM %[1]s p
			CROSS JOIN LATERAL (
				SELECT z.load_zone_id, ST_Distance(p.geom::geography, z.boundary::geography) AS meters
				FROM %[2]s z
				ORDER BY 2
				LIMIT 1
			) nearest
			WHERE p.load_zone_id IS NULL AND p.geom IS NOT NULL
			AND p.generation_plant_id = ANY($1)
			AND nearest.meters / %[3]d < %[4]d
		) n
		WHERE g.generation_plant_id = n.generation_plant_id`,
		s.ident(GenerationPlantTable), LoadZoneTable, metersPerMile, nearestZoneMiles)
}
