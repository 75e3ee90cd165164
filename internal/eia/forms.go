package eia

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

// Sheets and header offsets of the EIA workbooks.
const (
	GenerationSheet = "Page 1 Generation and Fuel Data"
	RetiredSheet    = 2
	SkipRows860M    = 1
)

// SkipRows860 is the number of rows above the EIA-860 header.
func SkipRows860(year int) int {
	if year <= 2010 {
		return 0
	}
	return 1
}

// SkipRows923 is the number of rows above the EIA-923 page 1 header.
func SkipRows923(year int) int {
	if year >= 2011 {
		return 5
	}
	return 7
}

// Files860 are the workbooks of an extracted EIA-860 year.
type Files860 struct {
	Plant     string
	Generator string // existing on sheet 0, proposed on sheet 1
	Existing  string // geny*, before 2009
	Proposed  string // prgeny*, before 2009
}

// Find860Files locates the plant and generator workbooks in dir. Lock files
// left by open workbooks are ignored and dBase tables are logged and skipped.
func Find860Files(dir string, logger *slog.Logger) (Files860, error) {
	var files Files860
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := strings.ToLower(d.Name())
		if strings.Contains(name, "~") {
			return nil
		}
		if strings.HasSuffix(name, ".dbf") {
			logger.Warn("skipping unsupported dBase file", "file", path)
			return nil
		}
		switch {
		case strings.HasPrefix(name, "prgeny"):
			files.Proposed = path
		case strings.HasPrefix(name, "geny"):
			files.Existing = path
		case strings.Contains(name, "plant"):
			files.Plant = path
		case strings.Contains(name, "generator"):
			files.Generator = path
		}
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("scan %s: %w", dir, err)
	}
	if files.Plant == "" {
		return files, fmt.Errorf("%s: no plant workbook", dir)
	}
	if files.Generator == "" && (files.Existing == "" || files.Proposed == "") {
		return files, fmt.Errorf("%s: no generator workbooks", dir)
	}
	return files, nil
}

// Form860Data is the parsed content of one EIA-860 year.
type Form860Data struct {
	Year     int
	Plants   []domain.Generator
	Existing []domain.Generator
	Proposed []domain.Generator
}

// Parse860 reads the plant and generator workbooks of an extracted EIA-860
// year. Footnote rows without a plant code are dropped.
func Parse860(dir string, year int, logger *slog.Logger) (*Form860Data, error) {
	files, err := Find860Files(dir, logger)
	if err != nil {
		return nil, err
	}
	skip := SkipRows860(year)
	out := &Form860Data{Year: year}

	if out.Plants, err = readGenerators(files.Plant, Sheet{Index: 0}, skip); err != nil {
		return nil, err
	}
	existing, proposed := Sheet{Index: 0}, Sheet{Index: 1}
	existingPath, proposedPath := files.Generator, files.Generator
	if files.Generator == "" {
		existingPath, proposedPath = files.Existing, files.Proposed
		proposed = Sheet{Index: 0}
	}
	if out.Existing, err = readGenerators(existingPath, existing, skip); err != nil {
		return nil, err
	}
	if out.Proposed, err = readGenerators(proposedPath, proposed, skip); err != nil {
		return nil, err
	}
	return out, nil
}

func readGenerators(path string, sheet Sheet, skip int) ([]domain.Generator, error) {
	rows, err := ReadSheet(path, sheet, skip)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Generator, 0, len(rows))
	for _, r := range rows {
		g := domain.GeneratorFromRow(r)
		if g.PlantCode == 0 {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

// LargestFile returns the largest regular file in dir. The EIA-923 page 1
// workbook has changed names over the years but is always the largest.
func LargestFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var (
		best string
		size int64 = -1
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return "", err
		}
		if info.Size() > size {
			best, size = filepath.Join(dir, e.Name()), info.Size()
		}
	}
	if best == "" {
		return "", fmt.Errorf("%s: no files", dir)
	}
	return best, nil
}

// Parse923 reads monthly generation and fuel consumption from an extracted
// EIA-923 year. It returns the records and the number of rows rejected for
// lacking a plant code.
func Parse923(dir string, year int) ([]domain.GenerationRecord, int, error) {
	path, err := LargestFile(dir)
	if err != nil {
		return nil, 0, err
	}
	rows, err := ReadSheet(path, Sheet{Name: GenerationSheet}, SkipRows923(year))
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.GenerationRecord, 0, len(rows))
	rejected := 0
	for _, r := range rows {
		rec, err := domain.GenerationFromRow(year, r)
		if err != nil {
			rejected++
			continue
		}
		out = append(out, rec)
	}
	return out, rejected, nil
}

// Parse860M reads the retired generators sheet of an EIA-860M workbook.
func Parse860M(path string) ([]domain.RetiredGenerator, error) {
	rows, err := ReadSheet(path, Sheet{Index: RetiredSheet}, SkipRows860M)
	if err != nil {
		if errors.Is(err, ErrSheetNotFound) {
			return nil, fmt.Errorf("%s has no retired generators sheet: %w", filepath.Base(path), err)
		}
		return nil, err
	}
	out := make([]domain.RetiredGenerator, 0, len(rows))
	for _, r := range rows {
		g := domain.RetiredGeneratorFromRow(r)
		if g.PlantCode == 0 {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}
