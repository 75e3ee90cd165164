package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/eia-switch-etl/internal/reference"
)

// referenceTable is the database table a lookup table is loaded into.
func referenceTable(name string) string { return "eia_" + name }

// LoadReference upserts the EIA lookup tables into eia_generator_status,
// eia_energy_source, and eia_prime_mover in one transaction. Rows are keyed
// by code; codes absent from the set are left in place. It returns the rows
// written per table.
func (s *Store) LoadReference(ctx context.Context, set *reference.Set) (map[string]int64, error) {
	counts := make(map[string]int64, 3)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, tbl := range set.Tables() {
			if len(tbl.Entries) == 0 {
				continue
			}
			n, err := exec(ctx, tx, s.referenceUpsert(tbl))
			if err != nil {
				return fmt.Errorf("load %s: %w", referenceTable(tbl.Name), err)
			}
			counts[tbl.Name] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("reference tables loaded", "rows", counts)
	return counts, nil
}

func (s *Store) referenceUpsert(tbl *reference.Table) *goqu.InsertDataset {
	energy := tbl.Name == reference.EnergySource
	rows := make([]any, len(tbl.Entries))
	for i, e := range tbl.Entries {
		rec := goqu.Record{"code": e.Code, "label": e.Label, "description": e.Description}
		if energy {
			rec["unit"] = nullString(e.Unit)
			rec["heat_low"], rec["heat_high"] = heatRange(e)
		}
		rows[i] = rec
	}
	update := goqu.Record{
		"label":       goqu.L("EXCLUDED.label"),
		"description": goqu.L("EXCLUDED.description"),
	}
	if energy {
		update["unit"] = goqu.L("EXCLUDED.unit")
		update["heat_low"] = goqu.L("EXCLUDED.heat_low")
		update["heat_high"] = goqu.L("EXCLUDED.heat_high")
	}
	// Lookup tables are shared and never prefixed.
	return s.dialect.Insert(goqu.T(referenceTable(tbl.Name))).Prepared(true).
		Rows(rows...).
		OnConflict(goqu.DoUpdate("code", update))
}

// heatRange stores an unknown heating value (both bounds 0) as NULL.
func heatRange(e reference.Entry) (low, high any) {
	if e.HeatLow == 0 && e.HeatHigh == 0 {
		return nil, nil
	}
	return e.HeatLow, e.HeatHigh
}
