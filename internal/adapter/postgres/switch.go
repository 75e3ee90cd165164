package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

// scenarioStore is the part of Store a SwitchLoader drives.
type scenarioStore interface {
	LoadPlants(ctx context.Context, sc Scenario, plants []domain.Plant, hydro []domain.HydroCapacityFactor, opts LoadOptions) (*LoadResult, error)
	LoadAggregated(ctx context.Context, sc Scenario, source *LoadResult, opts LoadOptions) (*AggregateResult, error)
	AssignVariableCapacityFactors(ctx context.Context, opts VarCFOptions) (int64, error)
	Cleanup(ctx context.Context, scenarios []int) (*CleanupResult, error)
}

// SwitchLoader writes an upload as the disaggregated and load-zone
// aggregated scenarios. It implements pipeline.Loader.
type SwitchLoader struct {
	store         scenarioStore
	sourceID      int
	disaggregated int
	aggregated    int
	purge         bool
	logger        *slog.Logger
}

// NewSwitchLoader creates a SwitchLoader for the scenarios in cfg.
func NewSwitchLoader(store *Store, cfg *config.Config, logger *slog.Logger) *SwitchLoader {
	return newSwitchLoader(store, cfg, logger)
}

func newSwitchLoader(store scenarioStore, cfg *config.Config, logger *slog.Logger) *SwitchLoader {
	return &SwitchLoader{
		store:         store,
		sourceID:      cfg.SourceScenarioID,
		disaggregated: cfg.DisaggregatedScenarioID,
		aggregated:    cfg.AggregatedScenarioID,
		purge:         cfg.AllowPurge,
		logger:        logger,
	}
}

const pumpedHydroNote = "Pumped hydro units are modeled as simple turbines " +
	"(summing netgen and electricity consumption columns)."

// DisaggregatedScenario describes the scenario holding one row per EIA
// plant, technology, and fuel.
func DisaggregatedScenario(id, sourceID, year, firstHydroYear, existing, proposed int) Scenario {
	desc := fmt.Sprintf("Dataset from the EIA 860 and EIA 923 forms not aggregated by LZ. "+
		"Approximately %d existing and %d proposed generators.", existing, proposed)
	return Scenario{
		ID:               id,
		SourceID:         sourceID,
		Name:             fmt.Sprintf("EIA-WECC Existing and Proposed %d", year),
		Description:      desc,
		HydroName:        fmt.Sprintf("EIA923 datasets %d until %d", firstHydroYear, year),
		HydroDescription: pumpedHydroNote,
	}
}

// AggregatedScenario describes the scenario holding plants merged by load
// zone, technology, fuel, and heat rate group.
func AggregatedScenario(id, sourceID, disaggregatedID, year, firstHydroYear int) Scenario {
	return Scenario{
		ID:               id,
		SourceID:         sourceID,
		Name:             fmt.Sprintf("EIA-WECC Existing and Proposed %d Aggregated by LZ", year),
		Description:      "Dataset from the EIA 860 and EIA 923 forms aggregated by LZ.",
		HydroName:        fmt.Sprintf("EIA923 datasets %d until %d Aggregated by LZ", firstHydroYear, year),
		HydroDescription: fmt.Sprintf("Same as scenario id %d, but aggregated by load zone.", disaggregatedID),
	}
}

// Load replaces both scenarios, assigns variable capacity factors to their
// plants, and runs the post-load cleanup.
func (l *SwitchLoader) Load(ctx context.Context, upload *domain.Upload) ([]domain.ScenarioLoad, error) {
	firstHydroYear := upload.Year
	for _, h := range upload.Hydro {
		firstHydroYear = min(firstHydroYear, h.Year)
	}
	existing, proposed := countVintages(upload.Plants, upload.Year)
	opts := LoadOptions{PurgeOrphans: l.purge}

	dis := DisaggregatedScenario(l.disaggregated, l.sourceID, upload.Year, firstHydroYear, existing, proposed)
	res, err := l.store.LoadPlants(ctx, dis, upload.Plants, upload.Hydro, opts)
	if err != nil {
		return nil, err
	}

	agg := AggregatedScenario(l.aggregated, l.sourceID, l.disaggregated, upload.Year, firstHydroYear)
	aggRes, err := l.store.LoadAggregated(ctx, agg, res, opts)
	if err != nil {
		return nil, err
	}

	scenarios := []int{l.disaggregated, l.aggregated}
	n, err := l.store.AssignVariableCapacityFactors(ctx, VarCFOptions{Scenarios: scenarios})
	if err != nil {
		return nil, err
	}
	if _, err := l.store.Cleanup(ctx, scenarios); err != nil {
		return nil, err
	}

	aggregated := make([]domain.LoadedPlant, len(aggRes.Plants))
	for i, a := range aggRes.Plants {
		aggregated[i] = domain.LoadedPlant{Plant: a.Plant, ID: a.ID, LoadZoneID: a.LoadZoneID}
	}
	l.logger.Info("switch scenarios loaded",
		"disaggregated", l.disaggregated,
		"plants", len(res.Plants),
		"aggregated", l.aggregated,
		"aggregated_plants", len(aggregated),
		"variable_capacity_factors", n,
	)
	return []domain.ScenarioLoad{
		{Scenario: l.disaggregated, Plants: res.Plants},
		{Scenario: l.aggregated, Plants: aggregated},
	}, nil
}

// countVintages counts build years up to year as existing and later ones as
// proposed.
func countVintages(plants []domain.Plant, year int) (existing, proposed int) {
	for _, p := range plants {
		for _, by := range p.BuildYears {
			if by.Year > year {
				proposed++
			} else {
				existing++
			}
		}
	}
	return existing, proposed
}
