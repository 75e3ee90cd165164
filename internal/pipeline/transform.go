package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/domain"
	"github.com/couchcryptid/eia-switch-etl/internal/eia"
	"github.com/couchcryptid/eia-switch-etl/internal/observability"
	"github.com/couchcryptid/eia-switch-etl/internal/tabfile"
)

// Multi-fuel detection bounds on the yearly fuel share, and the thresholds
// summarized for WECC plants.
const (
	MultiFuelLow  = 0.05
	MultiFuelHigh = 0.95
)

var multiFuelThresholds = []float64{0.05, 0.10, 0.15, 0.20}

var incompleteColumns = []string{
	"Source", domain.ColPlantCode, domain.ColPlantName, domain.ColState,
	domain.ColPrimeMover, domain.ColEnergySource, domain.ColNameplate,
	"Net Electricity Generation (MWh)",
}

// Processor implements Transformer. It turns the parsed EIA forms into the
// processed tab files and the plants uploaded to switch_wecc.
type Processor struct {
	outputDir    string
	otherDataDir string
	region       string
	regionID     int
	areaFraction float64
	counties     CountySource
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewProcessor creates a Processor. counties may be nil when the region's
// county list is already cached.
func NewProcessor(cfg *config.Config, counties CountySource, logger *slog.Logger, metrics *observability.Metrics) *Processor {
	return &Processor{
		outputDir:    cfg.OutputDir,
		otherDataDir: cfg.OtherDataDir,
		region:       cfg.RegionName,
		regionID:     cfg.RegionID,
		areaFraction: cfg.RegionAreaFraction,
		counties:     counties,
		logger:       logger,
		metrics:      metrics,
	}
}

// yearResult carries what later steps need from one processed year.
type yearResult struct {
	projects   []domain.Generator
	generators []domain.Generator
	heatRates  []domain.HeatRateRecord
}

// Transform processes every year, reconciles retirements and prepares the
// final year's plants for upload.
func (p *Processor) Transform(ctx context.Context, ds *eia.Dataset) (*domain.Upload, error) {
	if ds == nil || len(ds.Years) == 0 {
		return nil, fmt.Errorf("transform: no EIA years extracted")
	}
	endYear := ds.EndYear().Year

	var (
		hydro     []domain.HydroCapacityFactor
		heatRates []domain.HeatRateRecord
		negative  []domain.HeatRateRecord
		multiFuel []domain.HeatRateRecord
		last      yearResult
	)
	for _, yf := range ds.Years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.processYear(yf, yf.Year == endYear)
		if err != nil {
			return nil, err
		}
		gen := domain.AggregateGeneration(yf.Generation)
		operable := domain.OperableProjects(res.projects)
		if err := p.crossCheck(yf.Year, operable, gen); err != nil {
			return nil, err
		}

		hydro = append(hydro, domain.HydroCapacityFactors(yf.Year, gen, operable)...)
		hr := domain.HeatRates(yf.Year, gen, operable)
		heatRates = append(heatRates, hr.Records...)
		negative = append(negative, hr.Negative...)
		multiFuel = append(multiFuel, domain.MultiFuel(hr.Records, operable, MultiFuelLow, MultiFuelHigh)...)
		p.metrics.RowsRejected.WithLabelValues("negative_heat_rate").Add(float64(len(hr.Negative)))

		res.heatRates = hr.Records
		last = res
	}

	if err := p.writeHistoric(hydro, heatRates, negative, multiFuel); err != nil {
		return nil, err
	}

	retired, err := p.reconcileRetired(endYear, last.generators, ds.Retired)
	if err != nil {
		return nil, err
	}

	existing, newProjects, err := p.regionProjects(ctx, endYear, last)
	if err != nil {
		return nil, err
	}

	upload := make([]domain.Generator, 0, len(existing)+len(newProjects))
	upload = append(append(upload, existing...), newProjects...)
	plants, rep := domain.PrepareUpload(upload, retired)
	p.metrics.RowsRejected.WithLabelValues("fully_retired").Add(float64(rep.FullyRetired))
	p.logger.Info("prepared upload",
		"year", endYear,
		"projects", rep.Projects,
		"dropped_fuel", rep.DroppedFuel,
		"fully_retired", rep.FullyRetired,
		"partly_retired_mw", rep.PartlyRetiredMW,
		"plants", rep.Plants,
	)
	return &domain.Upload{Year: endYear, Plants: plants, Hydro: hydro}, nil
}

// processYear builds the generation projects of one EIA-860 year and writes
// generation_projects_{year}.tab.
func (p *Processor) processYear(yf eia.YearForms, endYear bool) (yearResult, error) {
	f := yf.Form860
	projects, generators, rejected := domain.BuildProjects(f.Plants, f.Existing, f.Proposed)
	p.metrics.RowsRejected.WithLabelValues("unmatched_or_status").Add(float64(rejected))

	header := domain.ProjectColumns
	if endYear {
		header = append(append([]string{}, domain.ProjectColumns...), domain.ProjectExtraColumns...)
	}
	records := make([][]string, len(projects))
	for i, g := range projects {
		records[i] = g.ProjectRecord(endYear)
	}
	path := filepath.Join(p.outputDir, fmt.Sprintf("generation_projects_%d.tab", yf.Year))
	if err := tabfile.Write(path, header, records); err != nil {
		return yearResult{}, err
	}
	p.logger.Info("wrote generation projects",
		"year", yf.Year,
		"projects", len(projects),
		"generators", len(generators),
		"rejected", rejected,
	)
	return yearResult{projects: projects, generators: generators}, nil
}

// crossCheck reports the hydro and thermal records present in only one of
// the two forms.
func (p *Processor) crossCheck(year int, operable []domain.Generator, gen []domain.GenerationRecord) error {
	kinds := []struct {
		name  string
		proj  func(domain.Generator) bool
		match func(domain.GenerationRecord) bool
	}{
		{
			name:  "hydro",
			proj:  func(g domain.Generator) bool { return g.EnergySource == domain.WaterCode },
			match: func(r domain.GenerationRecord) bool { return r.EnergySource == domain.WaterCode },
		},
		{
			name:  "thermal",
			proj:  func(g domain.Generator) bool { return domain.IsFuelBased(g.PrimeMover) },
			match: func(r domain.GenerationRecord) bool { return domain.IsFuelBased(r.PrimeMover) },
		},
	}
	for _, k := range kinds {
		rep := domain.CrossCheck(filter(operable, k.proj), filter(gen, k.match))
		path := filepath.Join(p.outputDir, fmt.Sprintf("incomplete_data_%s_%d.csv", k.name, year))
		if err := tabfile.Write(path, incompleteColumns, incompleteRecords(rep)); err != nil {
			return err
		}
		p.logger.Info("cross-checked EIA-860 and EIA-923",
			"year", year,
			"kind", k.name,
			"projects_without_generation", len(rep.ProjectsWithoutGeneration),
			"generation_without_projects", len(rep.GenerationWithoutProjects),
			"missing_capacity_share", share(rep.MissingCapacityMW, rep.TotalCapacityMW),
			"missing_generation_share", share(rep.MissingGenerationMWh, rep.TotalGenerationMWh),
		)
	}
	return nil
}

func incompleteRecords(rep domain.CrossCheckReport) [][]string {
	out := make([][]string, 0, len(rep.ProjectsWithoutGeneration)+len(rep.GenerationWithoutProjects))
	for _, g := range rep.ProjectsWithoutGeneration {
		out = append(out, []string{
			"EIA-860", fmt.Sprint(g.PlantCode), g.PlantName, g.State, g.PrimeMover,
			g.EnergySource, domain.FormatValue(g.NameplateMW), "",
		})
	}
	for _, r := range rep.GenerationWithoutProjects {
		out = append(out, []string{
			"EIA-923", fmt.Sprint(r.PlantCode), r.PlantName, r.State, r.PrimeMover,
			r.EnergySource, "", domain.FormatValue(r.NetGen.Sum()),
		})
	}
	return out
}

// writeHistoric writes the outputs accumulated over every processed year.
func (p *Processor) writeHistoric(hydro []domain.HydroCapacityFactor, heatRates, negative, multiFuel []domain.HeatRateRecord) error {
	narrowHydro := make([][]string, len(hydro))
	for i, h := range hydro {
		narrowHydro[i] = h.Record()
	}
	narrowHR := make([][]string, 0, len(heatRates)*12)
	wideHR := make([][]string, len(heatRates))
	for i, r := range heatRates {
		narrowHR = append(narrowHR, r.NarrowRecords()...)
		wideHR[i] = r.WideRecord()
	}

	files := []struct {
		name    string
		header  []string
		records [][]string
	}{
		{"historic_hydro_capacity_factors_NARROW.tab", domain.HydroNarrowColumns, narrowHydro},
		{"historic_hydro_capacity_factors_WIDE.tab", domain.HydroWideColumns(), domain.HydroWideRecords(hydro)},
		{"historic_heat_rates_NARROW.tab", domain.HeatRateNarrowColumns, narrowHR},
		{"historic_heat_rates_WIDE.tab", domain.HeatRateWideColumns(), wideHR},
		{"negative_heat_rate_outputs.tab", domain.HeatRateWideColumns(), wideRecords(negative)},
		{"multi_fuel_heat_rates.tab", domain.HeatRateWideColumns(), wideRecords(multiFuel)},
	}
	for _, f := range files {
		if err := tabfile.Write(filepath.Join(p.outputDir, f.name), f.header, f.records); err != nil {
			return err
		}
	}

	for _, s := range domain.SummarizeMultiFuel(multiFuel, multiFuelThresholds) {
		p.logger.Info("multi-fuel plants in WECC",
			"threshold", s.Threshold,
			"records", s.Records,
			"capacity_mw", s.CapacityMW,
		)
	}
	p.logger.Info("wrote historic outputs",
		"hydro_months", len(hydro),
		"heat_rate_records", len(heatRates),
		"negative_heat_rates", len(negative),
		"multi_fuel", len(multiFuel),
	)
	return nil
}

func wideRecords(records []domain.HeatRateRecord) [][]string {
	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = r.WideRecord()
	}
	return out
}

// reconcileRetired writes the annual generators EIA-860M reports as retired.
func (p *Processor) reconcileRetired(year int, generators []domain.Generator, retired []domain.RetiredGenerator) ([]domain.RetiredProject, error) {
	units, projects := domain.ReconcileRetired(generators, retired)

	unitRecords := make([][]string, len(units))
	for i, u := range units {
		unitRecords[i] = u.UnitRecord()
	}
	projectRecords := make([][]string, len(projects))
	for i, r := range projects {
		projectRecords[i] = r.Record()
	}
	unitPath := filepath.Join(p.outputDir, fmt.Sprintf("retired_WECC_generation_units_still_in_generator_projects_%d.tab", year))
	if err := tabfile.Write(unitPath, domain.RetiredUnitColumns, unitRecords); err != nil {
		return nil, err
	}
	projectPath := filepath.Join(p.outputDir, fmt.Sprintf("retired_WECC_aggregated_generation_projects_%d.tab", year))
	if err := tabfile.Write(projectPath, domain.RetiredProjectColumns, projectRecords); err != nil {
		return nil, err
	}
	p.logger.Info("reconciled retired generators",
		"year", year,
		"retired_reported", len(retired),
		"units_still_listed", len(units),
		"projects", len(projects),
	)
	return projects, nil
}

// regionProjects filters the end year to the region, assigns heat rates and
// splits proposed projects into new builds and uprates.
func (p *Processor) regionProjects(ctx context.Context, year int, last yearResult) (existing, newProjects []domain.Generator, err error) {
	counties, err := RegionCounties(ctx, p.counties, p.otherDataDir, p.region, p.regionID, p.areaFraction, p.logger)
	if err != nil {
		return nil, nil, err
	}

	regional := domain.FilterRegion(last.projects, p.region, counties)
	domain.CollapseCoalSources(regional)
	regional = domain.AggregateProjects(regional)
	domain.ApplyFuelMap(regional)

	existing, proposed := domain.PartitionByStatus(regional)
	hr := domain.AssignHeatRates(existing, proposed, last.heatRates, year)
	p.logger.Info("assigned heat rates",
		"year", year,
		"thermal", hr.Thermal,
		"measured", hr.Measured,
		"clamped", hr.Clamped,
		"from_vintage", hr.FromVintage,
		"from_prime_mover", hr.FromPrime,
		"unassigned", hr.Unassigned,
	)

	split := domain.SplitProposed(existing, proposed)
	for _, g := range split.Ambiguous {
		p.logger.Warn("proposed project matches several existing projects, skipping",
			"plant_code", g.PlantCode,
			"prime_mover", g.PrimeMover,
			"energy_source", g.EnergySource,
			"operating_year", g.OperatingYear,
		)
	}
	p.metrics.RowsRejected.WithLabelValues("ambiguous_uprate").Add(float64(len(split.Ambiguous)))

	header := append(append([]string{}, domain.ProjectColumns...), domain.ProjectExtraColumns...)
	outputs := []struct {
		prefix string
		gens   []domain.Generator
	}{
		{"existing_generation_projects", existing},
		{"new_generation_projects", split.New},
		{"uprates_to_generation_projects", split.Uprates},
	}
	for _, o := range outputs {
		records := make([][]string, len(o.gens))
		for i, g := range o.gens {
			records[i] = g.ProjectRecord(true)
		}
		path := filepath.Join(p.outputDir, fmt.Sprintf("%s_%d.tab", o.prefix, year))
		if err := tabfile.Write(path, header, records); err != nil {
			return nil, nil, err
		}
	}
	p.logger.Info("split regional projects",
		"region", p.region,
		"existing", len(existing),
		"new", len(split.New),
		"uprates", len(split.Uprates),
		"ambiguous", len(split.Ambiguous),
	)
	return existing, split.New, nil
}

func filter[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total
}
