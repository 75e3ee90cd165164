// Package postgres loads processed EIA generation plants into the switch
// schema of the switch_wecc database and runs the operator queries around
// it: backups, activity monitoring, reporting and data-quality checks.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // register the postgres dialect
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/eia-switch-etl/internal/observability"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store is a connection pool to switch_wecc. Every table the loader writes
// is addressed through Table so the whole load can be redirected to backup
// copies by setting a prefix.
type Store struct {
	pool    *pgxpool.Pool
	prefix  string
	dialect goqu.DialectWrapper
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Options configures a Store.
type Options struct {
	URL     string
	Schema  string // placed on the search_path
	Prefix  string // prepended to written table names
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	if opts.Schema != "" {
		poolConfig.ConnConfig.RuntimeParams["search_path"] = opts.Schema + ",public"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	return &Store{
		pool:    pool,
		prefix:  opts.Prefix,
		dialect: goqu.Dialect("postgres"),
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks connectivity; used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Prefix returns the table-name prefix in use.
func (s *Store) Prefix() string { return s.prefix }

// Table returns the prefixed name of a switch table.
func (s *Store) Table(name string) string {
	return s.prefix + name
}

// t is the goqu identifier of a prefixed table.
func (s *Store) t(name string) exp.IdentifierExpression {
	return goqu.T(s.Table(name))
}

// ident is the quoted SQL identifier of a prefixed table, for statements
// written by hand.
func (s *Store) ident(name string) string {
	return pgx.Identifier{s.Table(name)}.Sanitize()
}

// build renders a goqu dataset to SQL with numbered placeholders.
func build(ds interface {
	ToSQL() (string, []any, error)
}) (string, []any, error) {
	sql, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return sql, args, nil
}

// exec runs a goqu dataset.
func exec(ctx context.Context, q querier, ds interface {
	ToSQL() (string, []any, error)
}) (int64, error) {
	sql, args, err := build(ds)
	if err != nil {
		return 0, err
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
