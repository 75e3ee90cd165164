package backup

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

// Backend is a non-idle server process from pg_stat_activity.
type Backend struct {
	PID     int32
	User    string
	State   string
	Query   string
	Running time.Duration

	// Tables lists the watched tables named in Query. Interferes is set
	// when another backend names one of them too.
	Tables     []string
	Interferes bool
}

// FlagInterference marks backends whose queries mention a watched table that
// another backend also mentions. A backup table counts as its source, so a
// copy of generation_plant interferes with a load into it.
func FlagInterference(backends []Backend, prefix string, tables []string) []Backend {
	out := slices.Clone(backends)
	users := make(map[string]int)
	for i := range out {
		out[i].Tables = mentionedTables(out[i].Query, prefix, tables)
		for _, t := range out[i].Tables {
			users[t]++
		}
	}
	for i := range out {
		for _, t := range out[i].Tables {
			if users[t] > 1 {
				out[i].Interferes = true
				break
			}
		}
	}
	return out
}

var wordPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// mentionedTables returns the watched tables named in a query, matching
// whole identifiers.
func mentionedTables(query, prefix string, tables []string) []string {
	watched := make(map[string]bool, len(tables))
	for _, t := range tables {
		watched[t] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if prefix != "" {
			word = strings.TrimPrefix(word, prefix)
		}
		if watched[word] && !seen[word] {
			seen[word] = true
			out = append(out, word)
		}
	}
	slices.Sort(out)
	return out
}
