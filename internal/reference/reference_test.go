package reference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	set, err := Load()
	require.NoError(t, err)

	assert.Len(t, set.Tables(), 3)
	assert.Empty(t, set.Validate())

	op, ok := set.Statuses.Lookup("OP")
	require.True(t, ok)
	assert.Equal(t, "Operating", op.Label)

	bit, ok := set.EnergySources.Lookup("BIT")
	require.True(t, ok)
	assert.Equal(t, "tons", bit.Unit)
	assert.InDelta(t, 20, bit.HeatLow, 1e-9)
	assert.InDelta(t, 29, bit.HeatHigh, 1e-9)

	_, ok = set.PrimeMovers.Lookup("XX")
	assert.False(t, ok)
}

// without returns a copy of tbl with code removed.
func without(tbl *Table, code string) *Table {
	out := &Table{Name: tbl.Name, byCode: make(map[string]int)}
	for _, e := range tbl.Entries {
		if e.Code == code {
			continue
		}
		out.byCode[e.Code] = len(out.Entries)
		out.Entries = append(out.Entries, e)
	}
	return out
}

func TestValidate_CrossReferences(t *testing.T) {
	tests := []struct {
		name string
		drop func(s *Set)
		want string
	}{
		{
			name: "accepted status",
			drop: func(s *Set) { s.Statuses = without(s.Statuses, "OP") },
			want: "generator_status[OP]: accepted status not in table",
		},
		{
			name: "coal code",
			drop: func(s *Set) { s.EnergySources = without(s.EnergySources, "LIG") },
			want: "energy_source[LIG]: coal code not in table",
		},
		{
			name: "fuel map key",
			drop: func(s *Set) { s.EnergySources = without(s.EnergySources, "NG") },
			want: "energy_source[NG]: fuel map key not in table",
		},
		{
			name: "fuel prime mover",
			drop: func(s *Set) { s.PrimeMovers = without(s.PrimeMovers, "GT") },
			want: "prime_mover[GT]: fuel prime mover not in table",
		},
		{
			name: "variable prime mover",
			drop: func(s *Set) { s.PrimeMovers = without(s.PrimeMovers, "WT") },
			want: "prime_mover[WT]: variable prime mover not in table",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Load()
			require.NoError(t, err)
			tt.drop(set)

			var issues []string
			for _, v := range set.Validate() {
				issues = append(issues, v.String())
			}
			assert.Equal(t, []string{tt.want}, issues)
		})
	}
}

func TestParse(t *testing.T) {
	in := "code\tlabel\tdescription\tunit\theat_low\theat_high\n" +
		"NG\tNatural Gas\tNatural Gas\tmcf\t0.8\t1.1\n" +
		"SUN\tSolar\tSolar\t\tN/A\t\n"

	tbl, err := Parse(EnergySource, strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"NG", "SUN"}, tbl.Codes())
	sun, ok := tbl.Lookup("SUN")
	require.True(t, ok)
	assert.Zero(t, sun.HeatLow)
	assert.Equal(t, []string{"ZZ"}, tbl.Missing([]string{"ZZ", "NG"}))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing description", "code\tlabel\nOP\tOperating\n"},
		{"bad heat", "code\tlabel\tdescription\tunit\theat_low\theat_high\nNG\tGas\tGas\tmcf\tlow\t1\n"},
		{"ragged row", "code\tlabel\tdescription\nOP\tOperating\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("t", strings.NewReader(tt.in))
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	in := "code\tlabel\tdescription\tunit\theat_low\theat_high\n" +
		"NG\tGas\tNatural Gas\tmcf\t0.8\t1.1\n" +
		"NG\tGas\tNatural Gas\tmcf\t0.8\t1.1\n" +
		"\tBlank\tBlank\t\t\t\n" +
		"XX\tNone\t\t\t\t\n" +
		"BAD\tBad\tBad\ttons\t30\t20\n"
	tbl, err := Parse(EnergySource, strings.NewReader(in))
	require.NoError(t, err)

	var issues []string
	for _, v := range tbl.validate() {
		issues = append(issues, v.String())
	}

	assert.Equal(t, []string{
		"energy_source[NG]: duplicate code",
		"energy_source[]: empty code",
		"energy_source[XX]: empty description",
		"energy_source[BAD]: heat_low 30 exceeds heat_high 20",
	}, issues)
}
