package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plantShape(table string, rows int64) Shape {
	return Shape{
		Table: table,
		Columns: []Column{
			{Name: "generation_plant_id", DataType: "integer", UDTName: "int4", Ordinal: 1},
			{Name: "name", DataType: "character varying", UDTName: "varchar", Ordinal: 2},
			{Name: "load_zone_id", DataType: "integer", UDTName: "int4", Nullable: true, Ordinal: 3},
		},
		Indexes: []string{
			fmt.Sprintf("CREATE UNIQUE INDEX %s_pkey ON switch.%s USING btree (generation_plant_id)", table, table),
			fmt.Sprintf("CREATE INDEX %s_geom_idx ON switch.%s USING gist (geom)", table, table),
		},
		Rows: rows,
	}
}

func TestCompare_Match(t *testing.T) {
	r := Compare(plantShape("generation_plant", 42), plantShape("jsz_backup_generation_plant", 42))
	assert.True(t, r.OK(), r.Problems)
	assert.Equal(t, "jsz_backup_generation_plant", r.Backup)
	assert.Equal(t, int64(42), r.BackupRows)
}

func TestCompare_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Shape)
		want   string
	}{
		{
			name:   "row count",
			mutate: func(s *Shape) { s.Rows = 41 },
			want:   "row count 41 differs from source 42",
		},
		{
			name:   "missing column",
			mutate: func(s *Shape) { s.Columns = s.Columns[:2] },
			want:   "column missing from backup: load_zone_id",
		},
		{
			name:   "nullability",
			mutate: func(s *Shape) { s.Columns[2].Nullable = false },
			want:   "column load_zone_id differs",
		},
		{
			name: "extra column",
			mutate: func(s *Shape) {
				s.Columns = append(s.Columns, Column{Name: "extra", DataType: "text", UDTName: "text", Nullable: true, Ordinal: 4})
			},
			want: "unexpected column in backup: extra",
		},
		{
			name:   "missing index",
			mutate: func(s *Shape) { s.Indexes = s.Indexes[:1] },
			want:   "index missing from backup: CREATE INDEX ON <table> USING gist (geom)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := plantShape("jsz_backup_generation_plant", 42)
			tt.mutate(&dst)

			r := Compare(plantShape("generation_plant", 42), dst)
			require.False(t, r.OK())
			assert.Contains(t, strings.Join(r.Problems, "\n"), tt.want)
		})
	}
}

func TestNormalizeIndex(t *testing.T) {
	tests := []struct {
		def   string
		table string
		want  string
	}{
		{
			def:   "CREATE UNIQUE INDEX generation_plant_pkey ON switch.generation_plant USING btree (generation_plant_id)",
			table: "generation_plant",
			want:  "CREATE UNIQUE INDEX ON <table> USING btree (generation_plant_id)",
		},
		{
			def:   "CREATE INDEX jsz_backup_load_zone_boundary_idx ON jsz_backup_load_zone USING gist (boundary)",
			table: "jsz_backup_load_zone",
			want:  "CREATE INDEX ON <table> USING gist (boundary)",
		},
		{
			def:   `CREATE INDEX "Odd Name" ON ONLY switch."MixedCase" USING btree (id)`,
			table: "MixedCase",
			want:  "CREATE INDEX ON ONLY <table> USING btree (id)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeIndex(tt.def, tt.table))
		})
	}
}

func TestGuard_Confirm(t *testing.T) {
	var out bytes.Buffer
	g := NewGuard(strings.NewReader("y\nno\n"), &out, false, slog.Default())

	require.NoError(t, g.Confirm("copy a"))
	err := g.Confirm("copy b")
	require.ErrorIs(t, err, ErrAborted)
	assert.Contains(t, out.String(), "copy a? [y/N] ")

	// input is exhausted
	require.ErrorIs(t, g.Confirm("copy c"), ErrAborted)
}

func TestGuard_AnswerWithoutNewline(t *testing.T) {
	g := NewGuard(strings.NewReader("YES"), &bytes.Buffer{}, false, slog.Default())
	require.NoError(t, g.Confirm("copy"))
}

func TestGuard_YesOverride(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	g := NewGuard(strings.NewReader(""), &bytes.Buffer{}, true, logger)

	require.NoError(t, g.Confirm("copy"))
	assert.Contains(t, logs.String(), "level=WARN")
}

type fakeStore struct {
	shapes  map[string]Shape
	created []string
	failOn  string
}

func (f *fakeStore) CreateBackup(_ context.Context, prefix, table string) (int64, error) {
	if table == f.failOn {
		return 0, errors.New("boom")
	}
	f.created = append(f.created, prefix+table)
	return f.shapes[table].Rows, nil
}

func (f *fakeStore) TableShape(_ context.Context, table string) (Shape, error) {
	s, ok := f.shapes[table]
	if !ok {
		return Shape{}, fmt.Errorf("table %s: %w", table, ErrNoTable)
	}
	return s, nil
}

func TestProvision_StopsOnRefusal(t *testing.T) {
	store := &fakeStore{shapes: map[string]Shape{"a": {Rows: 3}, "b": {Rows: 4}, "c": {Rows: 5}}}
	guard := NewGuard(strings.NewReader("y\ny\nn\n"), &bytes.Buffer{}, false, slog.Default())

	done, err := Provision(context.Background(), store, guard, "bk_", []string{"a", "b", "c"}, slog.Default())
	require.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, []string{"bk_a", "bk_b"}, store.created)
	require.Len(t, done, 2)
	assert.Equal(t, Result{Table: "b", Backup: "bk_b", Rows: 4}, done[1])
}

func TestProvision_StopsOnFailure(t *testing.T) {
	store := &fakeStore{shapes: map[string]Shape{}, failOn: "b"}
	guard := NewGuard(strings.NewReader(""), &bytes.Buffer{}, true, slog.Default())

	done, err := Provision(context.Background(), store, guard, "bk_", []string{"a", "b", "c"}, slog.Default())
	require.Error(t, err)
	assert.Len(t, done, 1)
	assert.Equal(t, []string{"bk_a"}, store.created)
}

func TestProvision_RequiresPrefix(t *testing.T) {
	guard := NewGuard(strings.NewReader(""), &bytes.Buffer{}, true, slog.Default())
	_, err := Provision(context.Background(), &fakeStore{}, guard, "", []string{"a"}, slog.Default())
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	store := &fakeStore{shapes: map[string]Shape{
		"generation_plant":            plantShape("generation_plant", 10),
		"jsz_backup_generation_plant": plantShape("jsz_backup_generation_plant", 10),
		"load_zone":                   {Table: "load_zone", Rows: 50},
	}}

	reports, err := Verify(context.Background(), store, "jsz_backup_", []string{"generation_plant", "load_zone"})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.True(t, reports[0].OK())
	assert.False(t, reports[1].OK())
	assert.Equal(t, []string{"backup table does not exist"}, reports[1].Problems)
	assert.Equal(t, int64(50), reports[1].SourceRows)
}

func TestVerify_MissingSource(t *testing.T) {
	_, err := Verify(context.Background(), &fakeStore{}, "jsz_backup_", []string{"nope"})
	require.ErrorIs(t, err, ErrNoTable)
}

func TestFlagInterference(t *testing.T) {
	backends := []Backend{
		{PID: 1, Query: "INSERT INTO jsz_backup_generation_plant SELECT * FROM generation_plant", Running: time.Minute},
		{PID: 2, Query: "DELETE FROM generation_plant_scenario_member WHERE generation_plant_scenario_id = 19"},
		{PID: 3, Query: "UPDATE generation_plant SET max_age = 30"},
		{PID: 4, Query: "SELECT 1"},
	}
	tables := []string{"generation_plant", "generation_plant_scenario_member"}

	got := FlagInterference(backends, "jsz_backup_", tables)
	require.Len(t, got, 4)

	assert.Equal(t, []string{"generation_plant"}, got[0].Tables)
	assert.True(t, got[0].Interferes)
	assert.Equal(t, []string{"generation_plant_scenario_member"}, got[1].Tables)
	assert.False(t, got[1].Interferes)
	assert.True(t, got[2].Interferes)
	assert.Empty(t, got[3].Tables)
	assert.False(t, got[3].Interferes)

	assert.Empty(t, backends[0].Tables, "input is not modified")
}
