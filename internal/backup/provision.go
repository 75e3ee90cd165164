package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Store copies and inspects tables. Implemented by the postgres adapter.
type Store interface {
	CreateBackup(ctx context.Context, prefix, table string) (int64, error)
	TableShape(ctx context.Context, table string) (Shape, error)
}

// Result is the outcome of backing up one table.
type Result struct {
	Table  string
	Backup string
	Rows   int64
}

// Provision backs up each table in order, asking the guard before each one.
// It stops at the first refusal or failure and returns the tables already
// copied.
func Provision(ctx context.Context, store Store, guard *Guard, prefix string, tables []string, logger *slog.Logger) ([]Result, error) {
	if prefix == "" {
		return nil, errors.New("backup prefix is required")
	}
	var done []Result
	for _, table := range tables {
		name := prefix + table
		if err := guard.Confirm(fmt.Sprintf("replace %s with a copy of %s", name, table)); err != nil {
			return done, err
		}
		rows, err := store.CreateBackup(ctx, prefix, table)
		if err != nil {
			return done, err
		}
		logger.Info("backup created", "table", table, "backup", name, "rows", rows)
		done = append(done, Result{Table: table, Backup: name, Rows: rows})
	}
	return done, nil
}

// Verify compares each table with its backup. A missing backup is reported
// as a problem rather than an error.
func Verify(ctx context.Context, store Store, prefix string, tables []string) ([]Report, error) {
	reports := make([]Report, 0, len(tables))
	for _, table := range tables {
		src, err := store.TableShape(ctx, table)
		if err != nil {
			return reports, err
		}
		dst, err := store.TableShape(ctx, prefix+table)
		if errors.Is(err, ErrNoTable) {
			reports = append(reports, Report{
				Table:      table,
				Backup:     prefix + table,
				SourceRows: src.Rows,
				Problems:   []string{"backup table does not exist"},
			})
			continue
		}
		if err != nil {
			return reports, err
		}
		reports = append(reports, Compare(src, dst))
	}
	return reports, nil
}
