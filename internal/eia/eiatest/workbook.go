// Package eiatest writes synthetic EIA workbooks and archives laid out like
// the published forms, for tests and offline runs.
package eiatest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet: Preamble blank title rows, then Header and Rows.
type Sheet struct {
	Name     string
	Preamble int
	Header   []string
	Rows     [][]string
}

// WriteWorkbook saves sheets as an .xlsx workbook at path.
func WriteWorkbook(path string, sheets ...Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return err
		}
		for r := 0; r < s.Preamble; r++ {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			if err := f.SetCellValue(s.Name, cell, fmt.Sprintf("%s (preamble %d)", s.Name, r+1)); err != nil {
				return err
			}
		}
		rows := append([][]string{s.Header}, s.Rows...)
		for r, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, s.Preamble+r+1)
			values := make([]any, len(row))
			for c, v := range row {
				values[c] = v
			}
			if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
				return err
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// Zip writes the files to archive, each stored under its base name.
func Zip(archive string, files ...string) error {
	out, err := os.Create(archive)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	for _, path := range files {
		if err := addFile(zw, path); err != nil {
			zw.Close()
			out.Close()
			return fmt.Errorf("add %s: %w", path, err)
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func addFile(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
