package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/eia-switch-etl/internal/adapter/postgres"
	"github.com/couchcryptid/eia-switch-etl/internal/backup"
	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/domain"
	"github.com/couchcryptid/eia-switch-etl/internal/tabfile"
)

type fakeChecks struct {
	shapes  map[string]backup.Shape
	profile []domain.HourlyCapacityFactor
	gaps    map[int][]postgres.MembershipGap
}

func (f *fakeChecks) CreateBackup(context.Context, string, string) (int64, error) { return 0, nil }

func (f *fakeChecks) TableShape(_ context.Context, table string) (backup.Shape, error) {
	s, ok := f.shapes[table]
	if !ok {
		return backup.Shape{}, backup.ErrNoTable
	}
	return s, nil
}

func (f *fakeChecks) SolarHourlyProfile(context.Context, int) ([]domain.HourlyCapacityFactor, error) {
	return f.profile, nil
}

func (f *fakeChecks) ScenarioGaps(_ context.Context, scenario int) ([]postgres.MembershipGap, error) {
	return f.gaps[scenario], nil
}

func goodProfile() []domain.HourlyCapacityFactor {
	out := make([]domain.HourlyCapacityFactor, 24)
	for h := range out {
		avg := 0.0
		if h >= 7 && h <= 18 {
			avg = 0.3
		}
		out[h] = domain.HourlyCapacityFactor{PacificHour: h, Average: avg, Samples: 365}
	}
	return out
}

func TestValidateProcessed(t *testing.T) {
	dir := t.TempDir()
	header := []string{domain.ColEIAPlantCode, domain.ColNameplate, domain.ColPrimeMover, domain.ColEnergySource}
	require.NoError(t, tabfile.Write(filepath.Join(dir, "existing_generation_projects_2018.tab"), header,
		[][]string{{"100", "500", "ST", "Coal"}}))
	require.NoError(t, tabfile.Write(filepath.Join(dir, "new_generation_projects_2018.tab"), header,
		[][]string{{"0", "-1", "", "Solar"}}))

	p := validateProcessed(dir, 2018)
	require.Len(t, p.errors, 3)
	assert.Contains(t, p.errors[0], "new_generation_projects_2018.tab:2: invalid plant code")
	assert.Contains(t, p.errors[1], "invalid nameplate")
	assert.Contains(t, p.errors[2], "missing prime mover")

	missing := validateProcessed(t.TempDir(), 2018)
	assert.Len(t, missing.errors, 2)
}

func TestDatabasePhases(t *testing.T) {
	cfg := &config.Config{BackupPrefix: "jsz_backup_", DisaggregatedScenarioID: 19, AggregatedScenarioID: 20}
	plant := backup.Shape{Table: "generation_plant", Rows: 10}

	db := &fakeChecks{
		shapes:  map[string]backup.Shape{"generation_plant": plant},
		profile: goodProfile(),
		gaps: map[int][]postgres.MembershipGap{
			20: {{PlantID: 7, Name: "LZ_3_PV_Solar_HR_0", NoBuildYear: true, NoCost: true}},
		},
	}

	phases := databasePhases(context.Background(), db, cfg, false, []int{19, 20})
	require.Len(t, phases, 3)
	assert.True(t, phases[0].skipped)
	assert.True(t, phases[1].passed(), phases[1].errors)
	require.Len(t, phases[2].errors, 1)
	assert.Equal(t, "scenario 20 plant 7 (LZ_3_PV_Solar_HR_0) missing build year, cost", phases[2].errors[0])

	parity := validateBackups(context.Background(), db, cfg.BackupPrefix, []string{"generation_plant"})
	require.Len(t, parity.errors, 1)
	assert.Contains(t, parity.errors[0], "backup table does not exist")
}

func TestValidateSolar(t *testing.T) {
	bad := goodProfile()
	bad[23].Average = 0.2
	p := validateSolar(context.Background(), &fakeChecks{profile: bad}, 19)
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "hour 23")

	empty := validateSolar(context.Background(), &fakeChecks{}, 19)
	assert.Equal(t, []string{"scenario 19 has no PV capacity factors"}, empty.errors)
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 0, report(&out, []*phase{{name: "ok"}, skipped("later")}))
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "Phase")
	assert.Contains(t, out.String(), "PASS")
	assert.Contains(t, out.String(), "SKIP")

	out.Reset()
	failing := &phase{name: "broken"}
	failing.errorf("row %d bad", 3)
	assert.Equal(t, 1, report(&out, []*phase{failing}))
	assert.Contains(t, out.String(), "FAIL")
	assert.Contains(t, out.String(), "[1] row 3 bad")
	assert.Contains(t, out.String(), "Validation FAILED.")
}

func TestRun_Offline(t *testing.T) {
	var out bytes.Buffer
	cfg := &config.Config{OutputDir: t.TempDir(), EndYear: 2018}
	code := run(context.Background(), cfg, true, false, &out)
	assert.Equal(t, 1, code, "processed files are missing")
	assert.Contains(t, out.String(), "Reference tables")
	assert.Contains(t, out.String(), "SKIP")
}
