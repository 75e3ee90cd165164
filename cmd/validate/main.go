// Command validate runs the data-quality checks on an EIA load into
// switch_wecc and prints a PASS/FAIL report per phase: reference tables,
// the processed generation project files, backup parity, the solar
// capacity factor profile, and scenario membership.
//
// Usage:
//
//	go run ./cmd/validate -offline     # file-based phases only
//	go run ./cmd/validate -backups     # also compare backup tables
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/couchcryptid/eia-switch-etl/internal/adapter/postgres"
	"github.com/couchcryptid/eia-switch-etl/internal/backup"
	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/domain"
	"github.com/couchcryptid/eia-switch-etl/internal/observability"
	"github.com/couchcryptid/eia-switch-etl/internal/reference"
	"github.com/couchcryptid/eia-switch-etl/internal/tabfile"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	skipped bool
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	offline := flag.Bool("offline", false, "skip phases that need the database")
	backups := flag.Bool("backups", false, "compare the loader tables with their backups")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if code := run(ctx, cfg, *offline, *backups, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

// checks is the database side of validation. Implemented by
// *postgres.Store.
type checks interface {
	backup.Store
	SolarHourlyProfile(ctx context.Context, scenario int) ([]domain.HourlyCapacityFactor, error)
	ScenarioGaps(ctx context.Context, scenario int) ([]postgres.MembershipGap, error)
}

func run(ctx context.Context, cfg *config.Config, offline, backups bool, out io.Writer) int {
	fmt.Fprintln(out, "=== switch_wecc EIA Load Validation ===")
	fmt.Fprintln(out)

	phases := []*phase{
		validateReference(),
		validateProcessed(cfg.OutputDir, cfg.EndYear),
	}

	if offline {
		phases = append(phases, skipped("Backup parity"), skipped("Solar capacity factors"), skipped("Scenario membership"))
		return report(out, phases)
	}

	logger := observability.NewLogger(cfg)
	store, err := postgres.Open(ctx, postgres.Options{
		URL:    cfg.DatabaseURL,
		Schema: cfg.Schema,
		Prefix: cfg.TablePrefix(),
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: connect to switch_wecc: %v\n", err)
		return 1
	}
	defer store.Close()

	scenarios := []int{cfg.DisaggregatedScenarioID, cfg.AggregatedScenarioID}
	phases = append(phases, databasePhases(ctx, store, cfg, backups, scenarios)...)
	return report(out, phases)
}

func databasePhases(ctx context.Context, db checks, cfg *config.Config, backups bool, scenarios []int) []*phase {
	parity := skipped("Backup parity")
	if backups {
		parity = validateBackups(ctx, db, cfg.BackupPrefix, postgres.LoaderTables)
	}
	return []*phase{
		parity,
		validateSolar(ctx, db, cfg.DisaggregatedScenarioID),
		validateMembership(ctx, db, scenarios),
	}
}

func report(out io.Writer, phases []*phase) int {
	fmt.Fprintln(out)
	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Phase", "Result", "Errors"})

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "\033[33mSKIP\033[0m"
		case !p.passed():
			status = "\033[31mFAIL\033[0m"
			allPassed = false
		}
		table.Append([]string{p.name, status, strconv.Itoa(len(p.errors))})
	}
	table.Render()

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func skipped(name string) *phase { return &phase{name: name, skipped: true} }

// ── Phases ──

func validateReference() *phase {
	p := &phase{name: "Reference tables"}
	set, err := reference.Load()
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	for _, v := range set.Validate() {
		p.errorf("%s", v)
	}
	return p
}

// validateProcessed checks the existing and new project files of the end
// year: each row needs a plant code, a positive nameplate, a prime mover,
// and an energy source.
func validateProcessed(outputDir string, year int) *phase {
	p := &phase{name: "Processed generation projects"}
	for _, prefix := range []string{"existing", "new"} {
		name := fmt.Sprintf("%s_generation_projects_%d.tab", prefix, year)
		rows, err := tabfile.Read(filepath.Join(outputDir, name))
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		if prefix == "existing" && len(rows) == 0 {
			p.errorf("%s: no rows", name)
		}
		for i, r := range rows {
			line := i + 2
			if code, err := strconv.Atoi(r.Get(domain.ColEIAPlantCode)); err != nil || code <= 0 {
				p.errorf("%s:%d: invalid plant code %q", name, line, r.Get(domain.ColEIAPlantCode))
			}
			if mw, err := strconv.ParseFloat(r.Get(domain.ColNameplate), 64); err != nil || mw <= 0 {
				p.errorf("%s:%d: invalid nameplate %q", name, line, r.Get(domain.ColNameplate))
			}
			if r.Get(domain.ColPrimeMover) == "" {
				p.errorf("%s:%d: missing prime mover", name, line)
			}
			if r.Get(domain.ColEnergySource) == "" {
				p.errorf("%s:%d: missing energy source", name, line)
			}
		}
	}
	return p
}

func validateBackups(ctx context.Context, db backup.Store, prefix string, tables []string) *phase {
	p := &phase{name: "Backup parity"}
	reports, err := backup.Verify(ctx, db, prefix, tables)
	if err != nil {
		p.errorf("verify: %v", err)
		return p
	}
	for _, r := range reports {
		for _, problem := range r.Problems {
			p.errorf("%s: %s", r.Backup, problem)
		}
	}
	return p
}

func validateSolar(ctx context.Context, db checks, scenario int) *phase {
	p := &phase{name: fmt.Sprintf("Solar capacity factors (scenario %d)", scenario)}
	profile, err := db.SolarHourlyProfile(ctx, scenario)
	if err != nil {
		p.errorf("read profile: %v", err)
		return p
	}
	if len(profile) == 0 {
		p.errorf("scenario %d has no PV capacity factors", scenario)
		return p
	}
	for _, v := range domain.CheckSolarProfile(profile) {
		p.errorf("%s", v)
	}
	return p
}

func validateMembership(ctx context.Context, db checks, scenarios []int) *phase {
	p := &phase{name: "Scenario membership"}
	for _, id := range scenarios {
		gaps, err := db.ScenarioGaps(ctx, id)
		if err != nil {
			p.errorf("scenario %d: %v", id, err)
			continue
		}
		for _, g := range gaps {
			var missing []string
			if g.NoLoadZone {
				missing = append(missing, "load zone")
			}
			if g.NoBuildYear {
				missing = append(missing, "build year")
			}
			if g.NoCost {
				missing = append(missing, "cost")
			}
			p.errorf("scenario %d plant %d (%s) missing %s", id, g.PlantID, g.Name, strings.Join(missing, ", "))
		}
	}
	return p
}
