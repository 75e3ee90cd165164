package eia

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/alitto/pond/v2"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/domain"
	"github.com/couchcryptid/eia-switch-etl/internal/observability"
)

// YearForms holds the parsed EIA-860 and EIA-923 content of one year.
type YearForms struct {
	Year       int
	Form860    *Form860Data
	Generation []domain.GenerationRecord
}

// Dataset is everything extracted for a run, years in ascending order.
type Dataset struct {
	Years []YearForms
	// Retired holds the EIA-860M retirements compared against the end year.
	Retired []domain.RetiredGenerator
}

// EndYear returns the forms of the most recent year.
func (d *Dataset) EndYear() YearForms {
	return d.Years[len(d.Years)-1]
}

// Extractor downloads and parses the EIA forms for the configured years.
// It implements pipeline.Extractor.
type Extractor struct {
	cfg        *config.Config
	downloader *Downloader
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewExtractor creates an Extractor.
func NewExtractor(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{
		cfg:        cfg,
		downloader: NewDownloader(cfg, logger, metrics),
		logger:     logger,
		metrics:    metrics,
	}
}

// Extract fetches every source, unzips the annual archives, and parses them.
// Years are parsed concurrently.
func (e *Extractor) Extract(ctx context.Context, runID string) (*Dataset, error) {
	downloads, err := e.downloader.FetchAll(ctx, Sources(e.cfg), runID)
	if err != nil {
		return nil, err
	}

	type yearFiles struct {
		year   int
		dir860 string
		dir923 string
	}
	byYear := make(map[int]*yearFiles)
	var retiredPath string
	for _, d := range downloads {
		if d.Source.Form == Form860M {
			retiredPath = d.Path
			continue
		}
		dir, err := Unzip(d.Path)
		if err != nil {
			return nil, fmt.Errorf("unzip %s: %w", d.Source.Name, err)
		}
		yf, ok := byYear[d.Source.Year]
		if !ok {
			yf = &yearFiles{year: d.Source.Year}
			byYear[d.Source.Year] = yf
		}
		if d.Source.Form == Form860 {
			yf.dir860 = dir
		} else {
			yf.dir923 = dir
		}
	}

	pool := pond.NewResultPool[YearForms](e.cfg.DownloadConcurrency)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)
	for _, yf := range byYear {
		group.SubmitErr(func() (YearForms, error) {
			return e.parseYear(yf.year, yf.dir860, yf.dir923)
		})
	}
	years, err := group.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })

	ds := &Dataset{Years: years}
	if len(ds.Years) == 0 {
		return nil, fmt.Errorf("no EIA years configured")
	}
	if retiredPath != "" {
		if ds.Retired, err = Parse860M(retiredPath); err != nil {
			return nil, err
		}
		e.metrics.RowsParsed.WithLabelValues(string(Form860M)).Add(float64(len(ds.Retired)))
	}
	e.logger.Info("extracted EIA forms",
		"years", len(ds.Years),
		"retired_generators", len(ds.Retired),
		"downloads", len(downloads),
	)
	return ds, nil
}

func (e *Extractor) parseYear(year int, dir860, dir923 string) (YearForms, error) {
	out := YearForms{Year: year}
	if dir860 == "" || dir923 == "" {
		return out, fmt.Errorf("year %d: missing EIA-860 or EIA-923 archive", year)
	}

	f860, err := Parse860(dir860, year, e.logger)
	if err != nil {
		return out, fmt.Errorf("parse EIA-860 %d: %w", year, err)
	}
	out.Form860 = f860
	e.metrics.RowsParsed.WithLabelValues(string(Form860)).
		Add(float64(len(f860.Plants) + len(f860.Existing) + len(f860.Proposed)))

	gen, rejected, err := Parse923(dir923, year)
	if err != nil {
		return out, fmt.Errorf("parse EIA-923 %d: %w", year, err)
	}
	out.Generation = gen
	e.metrics.RowsParsed.WithLabelValues(string(Form923)).Add(float64(len(gen)))
	e.metrics.RowsRejected.WithLabelValues("invalid_generation_row").Add(float64(rejected))

	e.logger.Info("parsed EIA year",
		"year", year,
		"plants", len(f860.Plants),
		"existing", len(f860.Existing),
		"proposed", len(f860.Proposed),
		"generation_records", len(gen),
		"rejected_generation_rows", rejected,
	)
	return out, nil
}
