package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

// RegionName returns the NERC abbreviation of a region, such as WECC.
func (s *Store) RegionName(ctx context.Context, regionID int) (string, error) {
	sql, args, err := build(s.dialect.From(RegionTable).Prepared(true).
		Select("regionabr").
		Where(goqu.C("gid").Eq(regionID)))
	if err != nil {
		return "", err
	}
	var name string
	err = s.pool.QueryRow(ctx, sql, args...).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("region %d not found", regionID)
	}
	if err != nil {
		return "", fmt.Errorf("read region %d: %w", regionID, err)
	}
	return name, nil
}

// RegionCounties lists the counties with at least minFraction of their area
// inside a region. States are returned as USPS codes.
func (s *Store) RegionCounties(ctx context.Context, regionID int, minFraction float64) ([]domain.CountyKey, error) {
	rows, err := s.pool.Query(ctx, s.regionCountiesSQL(), regionID, minFraction)
	if err != nil {
		return nil, fmt.Errorf("read counties of region %d: %w", regionID, err)
	}
	defer rows.Close()

	var out []domain.CountyKey
	for rows.Next() {
		var name, state string
		if err := rows.Scan(&name, &state); err != nil {
			return nil, err
		}
		out = append(out, domain.CountyKey{County: name, State: domain.StateAbbreviation(state)})
	}
	return out, rows.Err()
}

// Parameters: region gid, minimum area fraction.
func (s *Store) regionCountiesSQL() string {
	return fmt.Sprintf(`SELECT cts.name, sts.state
		FROM %[1]s regions
		CROSS JOIN %[2]s cts
		JOIN (SELECT DISTINCT state, state_fips FROM %[3]s) sts ON (sts.state_fips = cts.statefp)
		WHERE regions.gid = $1
		AND ST_Area(ST_Intersection(cts.the_geom, regions.the_geom)) / ST_Area(cts.the_geom) >= $2
		ORDER BY sts.state, cts.name`,
		RegionTable, CountyTable, StateTable,
	)
}
