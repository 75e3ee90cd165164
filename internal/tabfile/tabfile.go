// Package tabfile reads and writes the tab-separated files exchanged between
// pipeline stages: processed generation projects, heat rates, hydro capacity
// factors and the download log.
package tabfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

// Write creates or truncates path and writes header followed by records.
// Parent directories are created as needed.
func Write(path string, header []string, records [][]string) error {
	return write(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, header, records)
}

// Append adds records to path. The header is written only when the file is
// new or empty.
func Append(path string, header []string, records [][]string) error {
	return write(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, header, records)
}

func write(path string, flag int, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > 0 {
		header = nil
	}
	if err := Encode(f, header, records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes header (when non-nil) and records to w.
func Encode(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if header != nil {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

// Read parses path into rows keyed by header name.
func Read(path string) ([]domain.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// Decode parses tab-separated text with a header row. Short rows leave the
// missing columns empty.
func Decode(r io.Reader) ([]domain.Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []domain.Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row := make(domain.Row, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
