//go:build integration

package integration_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/eia-switch-etl/internal/adapter/postgres"
	"github.com/couchcryptid/eia-switch-etl/internal/backup"
	"github.com/couchcryptid/eia-switch-etl/internal/reference"
)

func TestReferenceLoad(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	url := startPostgres(ctx, t)
	store := openStore(ctx, t, url, "")

	set, err := reference.Load()
	require.NoError(t, err)

	counts, err := store.LoadReference(ctx, set)
	require.NoError(t, err)
	for _, tbl := range set.Tables() {
		assert.Equal(t, int64(len(tbl.Entries)), counts[tbl.Name], tbl.Name)
	}

	// Loading twice upserts rather than duplicating.
	_, err = store.LoadReference(ctx, set)
	require.NoError(t, err)
	assert.Equal(t, len(set.Statuses.Entries), queryInt(ctx, t, url, "SELECT count(*) FROM switch.eia_generator_status"))
}

func TestBackupProvisionAndVerify(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	url := startPostgres(ctx, t)
	store := openStore(ctx, t, url, "")
	seedLoadZone(ctx, t, url)

	tables := []string{postgres.LoadZoneTable, "generation_plant_scenario"}

	// Declining the first prompt copies nothing.
	declined := backup.NewGuard(strings.NewReader("n\n"), &strings.Builder{}, false, discardLogger())
	done, err := backup.Provision(ctx, store, declined, "jsz_backup_", tables, discardLogger())
	require.True(t, errors.Is(err, backup.ErrAborted))
	assert.Empty(t, done)

	guard := backup.NewGuard(strings.NewReader("y\nyes\n"), &strings.Builder{}, false, discardLogger())
	done, err = backup.Provision(ctx, store, guard, "jsz_backup_", tables, discardLogger())
	require.NoError(t, err)
	require.Len(t, done, 2)
	assert.Equal(t, int64(1), done[0].Rows)

	reports, err := backup.Verify(ctx, store, "jsz_backup_", tables)
	require.NoError(t, err)
	for _, r := range reports {
		assert.True(t, r.OK(), "%s: %v", r.Table, r.Problems)
	}

	execSQL(ctx, t, url, `INSERT INTO switch.generation_plant_scenario VALUES (99, 'drift', 'added after backup')`)
	reports, err = backup.Verify(ctx, store, "jsz_backup_", tables)
	require.NoError(t, err)
	assert.True(t, reports[0].OK())
	require.False(t, reports[1].OK())
	assert.Contains(t, reports[1].Problems[0], "row count")

	backends, err := store.Activity(ctx)
	require.NoError(t, err)
	for _, b := range backup.FlagInterference(backends, "jsz_backup_", postgres.LoaderTables) {
		assert.False(t, b.Interferes, "no concurrent loads in the test database")
	}
}
