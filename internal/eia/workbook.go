package eia

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

// ErrSheetNotFound is returned when a workbook lacks the requested sheet.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrUnsupportedFormat is returned for files that are not Excel workbooks,
// such as the dBase tables EIA published before 2004.
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

// Sheet selects a worksheet by name, or by zero-based index when Name is
// empty.
type Sheet struct {
	Index int
	Name  string
}

func (s Sheet) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("#%d", s.Index)
}

// ReadSheet reads a worksheet of an .xlsx or legacy .xls workbook. The first
// skip rows are discarded, the next one is the header, and each following
// non-blank row becomes a Row keyed by the normalized column name.
func ReadSheet(path string, sheet Sheet, skip int) ([]domain.Row, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(path, sheet)
	case ".xls":
		records, err = readXLS(path, sheet)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s sheet %s: %w", filepath.Base(path), sheet, err)
	}
	return toRows(records, skip), nil
}

func readXLSX(path string, sheet Sheet) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name, err := resolveSheet(f.GetSheetList(), sheet)
	if err != nil {
		return nil, err
	}
	rows, err := f.Rows(name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		out = append(out, cols)
	}
	return out, rows.Error()
}

func readXLS(path string, sheet Sheet) ([][]string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, err
	}
	names := make([]string, wb.NumSheets())
	for i := range names {
		if ws := wb.GetSheet(i); ws != nil {
			names[i] = ws.Name
		}
	}
	name, err := resolveSheet(names, sheet)
	if err != nil {
		return nil, err
	}
	ws := wb.GetSheet(slices.Index(names, name))

	out := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			out = append(out, nil)
			continue
		}
		cols := make([]string, row.LastCol())
		for j := range cols {
			cols[j] = row.Col(j)
		}
		out = append(out, cols)
	}
	return out, nil
}

func resolveSheet(names []string, sheet Sheet) (string, error) {
	if sheet.Name != "" {
		for _, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), sheet.Name) {
				return n, nil
			}
		}
		return "", fmt.Errorf("%q: %w", sheet.Name, ErrSheetNotFound)
	}
	if sheet.Index < 0 || sheet.Index >= len(names) {
		return "", fmt.Errorf("index %d of %d: %w", sheet.Index, len(names), ErrSheetNotFound)
	}
	return names[sheet.Index], nil
}

func toRows(records [][]string, skip int) []domain.Row {
	if len(records) <= skip {
		return nil
	}
	header := make([]string, len(records[skip]))
	for i, h := range records[skip] {
		header[i] = domain.NormalizeColumnName(h)
	}

	rows := make([]domain.Row, 0, len(records)-skip-1)
	for _, rec := range records[skip+1:] {
		if blank(rec) {
			continue
		}
		row := make(domain.Row, len(header))
		for i, h := range header {
			if h == "" || i >= len(rec) {
				continue
			}
			if _, dup := row[h]; dup {
				continue
			}
			row[h] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
