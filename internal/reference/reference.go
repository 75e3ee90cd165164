// Package reference holds the EIA-860 lookup tables for generator status,
// energy source, and prime mover codes. The tables ship as tab-separated
// files embedded in the binary.
package reference

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

//go:embed data/*.tab
var files embed.FS

// Table names, matching the embedded file names and the database tables
// they are loaded into (with an "eia_" prefix).
const (
	GeneratorStatus = "generator_status"
	EnergySource    = "energy_source"
	PrimeMover      = "prime_mover"
)

// Entry is one row of a lookup table. Unit and the heating-value range are
// only populated for energy sources.
type Entry struct {
	Code        string
	Label       string
	Description string
	Unit        string
	HeatLow     float64 // MMBtu per Unit
	HeatHigh    float64
}

// Table is an ordered lookup table indexed by code.
type Table struct {
	Name    string
	Entries []Entry
	byCode  map[string]int
}

// Lookup returns the entry for code.
func (t *Table) Lookup(code string) (Entry, bool) {
	i, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Entry{}, false
	}
	return t.Entries[i], true
}

// Codes returns every code in file order.
func (t *Table) Codes() []string {
	out := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		out[i] = e.Code
	}
	return out
}

// Missing returns the codes not present in the table, sorted.
func (t *Table) Missing(codes []string) []string {
	var out []string
	for _, c := range codes {
		if _, ok := t.Lookup(c); !ok {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Set bundles the three lookup tables.
type Set struct {
	Statuses      *Table
	EnergySources *Table
	PrimeMovers   *Table
}

// Tables returns the tables in load order.
func (s *Set) Tables() []*Table {
	return []*Table{s.Statuses, s.EnergySources, s.PrimeMovers}
}

// Load parses the embedded tables. It fails on malformed rows; semantic
// problems such as duplicate codes are reported by Validate.
func Load() (*Set, error) {
	statuses, err := loadTable(GeneratorStatus)
	if err != nil {
		return nil, err
	}
	sources, err := loadTable(EnergySource)
	if err != nil {
		return nil, err
	}
	movers, err := loadTable(PrimeMover)
	if err != nil {
		return nil, err
	}
	return &Set{Statuses: statuses, EnergySources: sources, PrimeMovers: movers}, nil
}

func loadTable(name string) (*Table, error) {
	f, err := files.Open("data/" + name + ".tab")
	if err != nil {
		return nil, fmt.Errorf("open reference table %s: %w", name, err)
	}
	defer f.Close()
	t, err := Parse(name, f)
	if err != nil {
		return nil, fmt.Errorf("parse reference table %s: %w", name, err)
	}
	return t, nil
}

// Parse reads a tab-separated lookup table with a header row. The header
// must start with code, label, and description; energy-source tables add
// unit, heat_low, and heat_high.
func Parse(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"code", "label", "description"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}
	_, hasHeat := col["heat_low"]

	t := &Table{Name: name, byCode: make(map[string]int)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		e := Entry{
			Code:        strings.TrimSpace(rec[col["code"]]),
			Label:       strings.TrimSpace(rec[col["label"]]),
			Description: strings.TrimSpace(rec[col["description"]]),
		}
		if hasHeat {
			e.Unit = field(rec, col, "unit")
			if e.HeatLow, err = parseHeat(field(rec, col, "heat_low")); err != nil {
				return nil, fmt.Errorf("line %d heat_low: %w", line, err)
			}
			if e.HeatHigh, err = parseHeat(field(rec, col, "heat_high")); err != nil {
				return nil, fmt.Errorf("line %d heat_high: %w", line, err)
			}
		}
		if _, dup := t.byCode[e.Code]; !dup {
			t.byCode[e.Code] = len(t.Entries)
		}
		t.Entries = append(t.Entries, e)
	}
	return t, nil
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseHeat(s string) (float64, error) {
	if s == "" || s == "N/A" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// Violation describes one integrity problem in a lookup table.
type Violation struct {
	Table string
	Code  string
	Issue string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s[%s]: %s", v.Table, v.Code, v.Issue)
}

// Validate checks every table for unique non-empty codes, non-empty
// descriptions, and ordered heating-value ranges, then checks that every code
// the processing rules depend on is present in its table. All violations are
// returned.
func (s *Set) Validate() []Violation {
	var out []Violation
	for _, t := range s.Tables() {
		out = append(out, t.validate()...)
	}
	return append(out, s.crossReferences()...)
}

func (s *Set) crossReferences() []Violation {
	fuelCodes := slices.DeleteFunc(slices.Collect(maps.Keys(domain.FuelMap)), func(c string) bool {
		return c == domain.CoalCode
	})
	refs := []struct {
		table *Table
		codes []string
		issue string
	}{
		{s.Statuses, domain.AcceptedStatusCodes, "accepted status not in table"},
		{s.EnergySources, domain.CoalCodes, "coal code not in table"},
		{s.EnergySources, fuelCodes, "fuel map key not in table"},
		{s.PrimeMovers, domain.FuelPrimeMovers, "fuel prime mover not in table"},
		{s.PrimeMovers, domain.VariablePrimeMovers, "variable prime mover not in table"},
	}
	var out []Violation
	for _, r := range refs {
		for _, code := range r.table.Missing(r.codes) {
			out = append(out, Violation{Table: r.table.Name, Code: code, Issue: r.issue})
		}
	}
	return out
}

func (t *Table) validate() []Violation {
	var out []Violation
	seen := make(map[string]bool, len(t.Entries))
	for _, e := range t.Entries {
		if e.Code == "" {
			out = append(out, Violation{Table: t.Name, Issue: "empty code"})
			continue
		}
		if seen[e.Code] {
			out = append(out, Violation{Table: t.Name, Code: e.Code, Issue: "duplicate code"})
		}
		seen[e.Code] = true
		if e.Description == "" {
			out = append(out, Violation{Table: t.Name, Code: e.Code, Issue: "empty description"})
		}
		if e.HeatLow > e.HeatHigh {
			out = append(out, Violation{Table: t.Name, Code: e.Code,
				Issue: fmt.Sprintf("heat_low %g exceeds heat_high %g", e.HeatLow, e.HeatHigh)})
		}
	}
	return out
}
