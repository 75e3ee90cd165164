// Package backup provisions and verifies backup copies of switch tables. A
// backup of table T is named prefix+T and must match T in columns, indexes,
// and rows at the time of the copy.
package backup

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ErrNoTable is returned when a table does not exist in the current schema.
var ErrNoTable = errors.New("table does not exist")

// Column describes one table column.
type Column struct {
	Name     string
	DataType string
	UDTName  string
	Nullable bool
	Ordinal  int
}

func (c Column) String() string {
	null := "NOT NULL"
	if c.Nullable {
		null = "NULL"
	}
	return fmt.Sprintf("%d:%s %s(%s) %s", c.Ordinal, c.Name, c.DataType, c.UDTName, null)
}

// Shape is the structure and size of a table.
type Shape struct {
	Table   string
	Columns []Column
	Indexes []string // index definitions as reported by pg_indexes
	Rows    int64
}

// Report compares a table with its backup.
type Report struct {
	Table      string
	Backup     string
	SourceRows int64
	BackupRows int64
	Problems   []string
}

// OK reports whether the backup matches the source.
func (r Report) OK() bool { return len(r.Problems) == 0 }

// Compare checks that dst is a faithful copy of src. Index definitions are
// compared with index and table names removed, since copied indexes are
// renamed by PostgreSQL.
func Compare(src, dst Shape) Report {
	r := Report{Table: src.Table, Backup: dst.Table, SourceRows: src.Rows, BackupRows: dst.Rows}

	if !slices.Equal(src.Columns, dst.Columns) {
		r.Problems = append(r.Problems, columnProblems(src.Columns, dst.Columns)...)
	}

	srcIdx := normalizeIndexes(src.Indexes, src.Table)
	dstIdx := normalizeIndexes(dst.Indexes, dst.Table)
	for _, def := range difference(srcIdx, dstIdx) {
		r.Problems = append(r.Problems, "index missing from backup: "+def)
	}
	for _, def := range difference(dstIdx, srcIdx) {
		r.Problems = append(r.Problems, "unexpected index in backup: "+def)
	}

	if src.Rows != dst.Rows {
		r.Problems = append(r.Problems, fmt.Sprintf("row count %d differs from source %d", dst.Rows, src.Rows))
	}
	return r
}

func columnProblems(src, dst []Column) []string {
	var out []string
	byName := make(map[string]Column, len(dst))
	for _, c := range dst {
		byName[c.Name] = c
	}
	for _, c := range src {
		d, ok := byName[c.Name]
		switch {
		case !ok:
			out = append(out, "column missing from backup: "+c.Name)
		case d != c:
			out = append(out, fmt.Sprintf("column %s differs: %s in source, %s in backup", c.Name, c, d))
		}
		delete(byName, c.Name)
	}
	var extra []string
	for name := range byName {
		extra = append(extra, name)
	}
	slices.Sort(extra)
	for _, name := range extra {
		out = append(out, "unexpected column in backup: "+name)
	}
	return out
}

var indexName = regexp.MustCompile(`^CREATE (UNIQUE )?INDEX (?:"[^"]+"|\S+) ON `)

// normalizeIndex strips the index name and the table name from a
// pg_indexes definition.
func normalizeIndex(def, table string) string {
	def = indexName.ReplaceAllString(def, "CREATE ${1}INDEX ON ")
	for _, name := range []string{`"` + table + `"`, table} {
		def = replaceTable(def, name)
	}
	return def
}

// replaceTable substitutes the table reference following "ON " or
// "ON ONLY ", qualified or not.
func replaceTable(def, name string) string {
	for _, on := range []string{" ON ONLY ", " ON "} {
		i := strings.Index(def, on)
		if i < 0 {
			continue
		}
		rest := def[i+len(on):]
		ref, tail, _ := strings.Cut(rest, " ")
		if ref == name || strings.HasSuffix(ref, "."+name) {
			return def[:i+len(on)] + "<table> " + tail
		}
	}
	return def
}

func normalizeIndexes(defs []string, table string) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = normalizeIndex(d, table)
	}
	slices.Sort(out)
	return out
}

// difference returns the elements of a not matched in b, counting
// duplicates.
func difference(a, b []string) []string {
	left := make(map[string]int, len(b))
	for _, s := range b {
		left[s]++
	}
	var out []string
	for _, s := range a {
		if left[s] > 0 {
			left[s]--
			continue
		}
		out = append(out, s)
	}
	return out
}
