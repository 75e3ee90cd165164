package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
	"github.com/couchcryptid/eia-switch-etl/internal/tabfile"
)

// CountySource looks up the counties of a modeled region in the GIS database.
type CountySource interface {
	RegionName(ctx context.Context, regionID int) (string, error)
	RegionCounties(ctx context.Context, regionID int, minFraction float64) ([]domain.CountyKey, error)
}

var countyColumns = []string{"County", "State"}

// CountyCachePath is where the county list of region is cached.
func CountyCachePath(otherDataDir, region string) string {
	return filepath.Join(otherDataDir, region+"_counties.tab")
}

// RegionCounties returns the county set of the configured region. A cached
// list is used when present; otherwise src is queried and the cache written.
func RegionCounties(ctx context.Context, src CountySource, otherDataDir, region string, regionID int, minFraction float64, logger *slog.Logger) (domain.CountySet, error) {
	path := CountyCachePath(otherDataDir, region)
	if tabfile.Exists(path) {
		rows, err := tabfile.Read(path)
		if err != nil {
			return nil, err
		}
		keys := make([]domain.CountyKey, 0, len(rows))
		for _, r := range rows {
			keys = append(keys, domain.CountyKey{County: r.Get("County"), State: r.Get("State")})
		}
		logger.Info("using cached region counties", "path", path, "counties", len(keys))
		return domain.NewCountySet(keys), nil
	}
	if src == nil {
		return nil, fmt.Errorf("county cache %s not found and no GIS database configured", path)
	}

	name, err := src.RegionName(ctx, regionID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(name, region) {
		logger.Warn("region name differs from GIS database", "configured", region, "gis", name, "region_id", regionID)
	}
	keys, err := src.RegionCounties(ctx, regionID, minFraction)
	if err != nil {
		return nil, err
	}
	set := domain.NewCountySet(keys)
	records := make([][]string, 0, len(set))
	for k := range set {
		records = append(records, []string{k.County, k.State})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i][1] != records[j][1] {
			return records[i][1] < records[j][1]
		}
		return records[i][0] < records[j][0]
	})
	if err := tabfile.Write(path, countyColumns, records); err != nil {
		return nil, err
	}
	logger.Info("cached region counties", "path", path, "counties", len(set))
	return set, nil
}
