package eia

import (
	"fmt"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
)

// Form identifies an EIA survey.
type Form string

const (
	Form860  Form = "eia860"
	Form923  Form = "eia923"
	Form860M Form = "eia860m"
)

// Source is one downloadable EIA file.
type Source struct {
	Form Form
	Year int
	Name string
	URL  string
}

// FileName860 is the annual EIA-860 archive for year.
func FileName860(year int) string {
	return fmt.Sprintf("eia860%d.zip", year)
}

// FileName923 is the annual EIA-923 archive for year. Before 2008 the survey
// was published as EIA-906/920.
func FileName923(year int) string {
	if year >= 2008 {
		return fmt.Sprintf("f923_%d.zip", year)
	}
	return fmt.Sprintf("f906920_%d.zip", year)
}

// FileName860M is the monthly generator inventory workbook.
func FileName860M(month string, year int) string {
	return fmt.Sprintf("%s_generator%d.xlsx", month, year)
}

// RetiredInventoryYear is the EIA-860M year compared against an annual
// EIA-860 year; the monthly inventory runs about two years ahead.
func RetiredInventoryYear(annualYear int) int {
	return annualYear + 2
}

func yearURL(base string, latest, year int, name string) string {
	if year == latest {
		return fmt.Sprintf("%s/xls/%s", base, name)
	}
	return fmt.Sprintf("%s/archive/xls/%s", base, name)
}

// Sources lists every file needed for the configured years: EIA-860 and
// EIA-923 for each year, then the EIA-860M inventory for the end year.
func Sources(cfg *config.Config) []Source {
	years := cfg.Years()
	out := make([]Source, 0, 2*len(years)+1)
	for _, y := range years {
		name := FileName860(y)
		out = append(out, Source{Form: Form860, Year: y, Name: name, URL: yearURL(cfg.EIA860BaseURL, cfg.Latest860Year, y, name)})
	}
	for _, y := range years {
		name := FileName923(y)
		out = append(out, Source{Form: Form923, Year: y, Name: name, URL: yearURL(cfg.EIA923BaseURL, cfg.Latest923Year, y, name)})
	}
	name := FileName860M(cfg.EndMonth, RetiredInventoryYear(cfg.EndYear))
	out = append(out, Source{
		Form: Form860M,
		Year: cfg.EndYear,
		Name: name,
		URL:  fmt.Sprintf("%s/xls/%s", cfg.EIA860MBaseURL, name),
	})
	return out
}
