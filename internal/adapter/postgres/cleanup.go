package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
)

// CleanupResult reports Cleanup.
type CleanupResult struct {
	FuelCellsRemoved  int64
	OtherHeatRates    int64
	NaNsNulled        int64
	ConnectCostZeroed int64
}

// Cleanup finishes a load for Switch runs:
//   - fuel cells are copied to the fuel cell backup table and removed with
//     their memberships, costs, and build years, since no heat rate was
//     derived for them;
//   - "other" gas technologies get the average gas heat rate of the
//     scenarios;
//   - NaN plant parameters become NULL;
//   - a missing connection cost becomes 0.
func (s *Store) Cleanup(ctx context.Context, scenarios []int) (*CleanupResult, error) {
	res := &CleanupResult{}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		n, err := s.removeFuelCells(ctx, tx)
		if err != nil {
			return err
		}
		res.FuelCellsRemoved = n

		if res.OtherHeatRates, err = exec(ctx, tx, s.otherGasHeatRate(scenarios)); err != nil {
			return fmt.Errorf("assign heat rate to other gas plants: %w", err)
		}
		for _, ds := range s.nullNaNs() {
			n, err := exec(ctx, tx, ds)
			if err != nil {
				return fmt.Errorf("replace NaN values: %w", err)
			}
			res.NaNsNulled += n
		}
		if res.ConnectCostZeroed, err = exec(ctx, tx, s.zeroConnectCost()); err != nil {
			return fmt.Errorf("default connect cost: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}
	s.logger.Info("cleanup finished",
		"fuel_cells_removed", res.FuelCellsRemoved,
		"other_heat_rates", res.OtherHeatRates,
		"nans_nulled", res.NaNsNulled,
		"connect_costs_zeroed", res.ConnectCostZeroed,
	)
	return res, nil
}

const fuelCellTech = "FC"

func (s *Store) removeFuelCells(ctx context.Context, q querier) (int64, error) {
	backup := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s WHERE gen_tech = $1",
		s.ident(FuelCellBackupTable), s.ident(GenerationPlantTable))
	if _, err := q.Exec(ctx, backup, fuelCellTech); err != nil {
		return 0, fmt.Errorf("back up fuel cells: %w", err)
	}

	fuelCells := s.dialect.From(s.t(GenerationPlantTable)).
		Select(goqu.C(plantID)).
		Where(goqu.C("gen_tech").Eq(fuelCellTech))
	for _, table := range []string{ScenarioMemberTable, CostTable, ExistingAndPlannedTable} {
		ds := s.dialect.Delete(s.t(table)).Prepared(true).Where(goqu.C(plantID).In(fuelCells))
		if _, err := exec(ctx, q, ds); err != nil {
			return 0, fmt.Errorf("remove fuel cells from %s: %w", s.Table(table), err)
		}
	}
	n, err := exec(ctx, q, s.dialect.Delete(s.t(GenerationPlantTable)).Prepared(true).
		Where(goqu.C("gen_tech").Eq(fuelCellTech)))
	if err != nil {
		return 0, fmt.Errorf("remove fuel cells: %w", err)
	}
	return n, nil
}

func (s *Store) otherGasHeatRate(scenarios []int) *goqu.UpdateDataset {
	avg := s.dialect.From(s.t(GenerationPlantTable)).
		Join(s.t(ScenarioMemberTable), goqu.Using(plantID)).
		Select(goqu.AVG("full_load_heat_rate")).
		Where(
			goqu.C("energy_source").Eq("Gas"),
			goqu.C("full_load_heat_rate").Gt(0),
			goqu.C(memberScenarioCol).In(scenarios),
		)
	return s.dialect.Update(s.t(GenerationPlantTable)).Prepared(true).
		Set(goqu.Record{"full_load_heat_rate": avg}).
		Where(goqu.C("gen_tech").Eq("OT"), goqu.C("energy_source").Eq("Gas"))
}

func (s *Store) nullNaNs() []*goqu.UpdateDataset {
	out := make([]*goqu.UpdateDataset, len(plantNumericColumns))
	for i, col := range plantNumericColumns {
		out[i] = s.dialect.Update(s.t(GenerationPlantTable)).Prepared(true).
			Set(goqu.Record{col: nil}).
			Where(goqu.C(col).Eq(goqu.L("'NaN'::double precision")))
	}
	return out
}

func (s *Store) zeroConnectCost() *goqu.UpdateDataset {
	return s.dialect.Update(s.t(GenerationPlantTable)).Prepared(true).
		Set(goqu.Record{"connect_cost_per_mw": 0.0}).
		Where(goqu.C("connect_cost_per_mw").IsNull())
}
