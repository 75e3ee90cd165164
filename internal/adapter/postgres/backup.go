package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/eia-switch-etl/internal/backup"
)

// CreateBackup replaces prefix+table with a copy of table: same columns,
// indexes, defaults, and constraints, then the same rows. The copy runs in
// its own transaction.
func (s *Store) CreateBackup(ctx context.Context, prefix, table string) (int64, error) {
	var rows int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, sql := range backupStatements(prefix, table) {
			tag, err := tx.Exec(ctx, sql)
			if err != nil {
				return err
			}
			rows = tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("back up %s: %w", table, err)
	}
	return rows, nil
}

func backupStatements(prefix, table string) []string {
	src := pgx.Identifier{table}.Sanitize()
	dst := pgx.Identifier{prefix + table}.Sanitize()
	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", dst),
		fmt.Sprintf("CREATE TABLE %s (LIKE %s INCLUDING INDEXES INCLUDING DEFAULTS INCLUDING CONSTRAINTS)", dst, src),
		fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", dst, src),
	}
}

// TableShape reads the columns, indexes, and row count of a table in the
// current schema.
func (s *Store) TableShape(ctx context.Context, table string) (backup.Shape, error) {
	shape := backup.Shape{Table: table}

	rows, err := s.pool.Query(ctx, `SELECT column_name, data_type, udt_name, is_nullable = 'YES', ordinal_position
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return shape, fmt.Errorf("read columns of %s: %w", table, err)
	}
	for rows.Next() {
		var c backup.Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.UDTName, &c.Nullable, &c.Ordinal); err != nil {
			rows.Close()
			return shape, err
		}
		shape.Columns = append(shape.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return shape, err
	}
	if len(shape.Columns) == 0 {
		return shape, fmt.Errorf("table %s: %w", table, backup.ErrNoTable)
	}

	rows, err = s.pool.Query(ctx, `SELECT indexdef FROM pg_indexes
		WHERE schemaname = current_schema() AND tablename = $1
		ORDER BY indexname`, table)
	if err != nil {
		return shape, fmt.Errorf("read indexes of %s: %w", table, err)
	}
	for rows.Next() {
		var def string
		if err := rows.Scan(&def); err != nil {
			rows.Close()
			return shape, err
		}
		shape.Indexes = append(shape.Indexes, def)
	}
	if err := rows.Err(); err != nil {
		return shape, err
	}

	count := fmt.Sprintf("SELECT count(*) FROM %s", pgx.Identifier{table}.Sanitize())
	if err := s.pool.QueryRow(ctx, count).Scan(&shape.Rows); err != nil {
		return shape, fmt.Errorf("count rows of %s: %w", table, err)
	}
	return shape, nil
}

// Activity lists the non-idle backends of the current database other than
// this connection.
func (s *Store) Activity(ctx context.Context) ([]backup.Backend, error) {
	rows, err := s.pool.Query(ctx, `SELECT pid, COALESCE(usename, ''), COALESCE(state, ''),
			COALESCE(EXTRACT(EPOCH FROM now() - query_start), 0)::float8, COALESCE(query, '')
		FROM pg_stat_activity
		WHERE datname = current_database()
		AND state IS DISTINCT FROM 'idle'
		AND pid <> pg_backend_pid()
		ORDER BY query_start`)
	if err != nil {
		return nil, fmt.Errorf("read pg_stat_activity: %w", err)
	}
	defer rows.Close()

	var out []backup.Backend
	for rows.Next() {
		var b backup.Backend
		var seconds float64
		if err := rows.Scan(&b.PID, &b.User, &b.State, &seconds, &b.Query); err != nil {
			return nil, err
		}
		b.Running = time.Duration(seconds * float64(time.Second))
		out = append(out, b)
	}
	return out, rows.Err()
}
