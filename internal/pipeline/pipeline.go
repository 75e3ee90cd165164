package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
	"github.com/couchcryptid/eia-switch-etl/internal/eia"
	"github.com/couchcryptid/eia-switch-etl/internal/observability"
)

// Extractor downloads and parses the EIA forms of a run.
type Extractor interface {
	Extract(ctx context.Context, runID string) (*eia.Dataset, error)
}

// Transformer turns parsed forms into the plants to upload.
type Transformer interface {
	Transform(ctx context.Context, ds *eia.Dataset) (*domain.Upload, error)
}

// Loader writes an upload into the switch schema and reports the plants
// inserted per scenario.
type Loader interface {
	Load(ctx context.Context, upload *domain.Upload) ([]domain.ScenarioLoad, error)
}

// Publisher announces loaded plants downstream.
type Publisher interface {
	Publish(ctx context.Context, events []domain.PlantEvent) error
}

// Options tune how runs are scheduled and retried.
type Options struct {
	// Interval between runs. Zero runs once.
	Interval time.Duration
	// MaxAttempts per failing stage before the run is abandoned.
	MaxAttempts int
}

// Pipeline orchestrates the extract-transform-load run.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	publisher   Publisher
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options
	ready       atomic.Bool
	last        atomic.Pointer[domain.RunSummary]
}

// New creates a Pipeline with the given stages and observability. Pass a
// nil publisher to skip publication.
func New(e Extractor, t Transformer, l Loader, pub Publisher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		publisher:   pub,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
	}
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Ready reports whether a run has completed.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// LastRun returns the summary of the most recent run, if any.
func (p *Pipeline) LastRun() (domain.RunSummary, bool) {
	s := p.last.Load()
	if s == nil {
		return domain.RunSummary{}, false
	}
	return *s, true
}

// Run executes one run, then repeats every Interval until the context is
// cancelled. With no interval it returns the first run's error.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.opts.Interval, "max_attempts", p.opts.MaxAttempts)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		_, err := p.RunOnce(ctx)
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
		if p.opts.Interval <= 0 {
			return err
		}
		if err != nil {
			p.logger.Error("run failed, waiting for next interval", "error", err, "interval", p.opts.Interval)
		}
		if !retry.SleepWithContext(ctx, p.opts.Interval) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce performs a single extract-transform-load run and returns the
// plants loaded per scenario.
func (p *Pipeline) RunOnce(ctx context.Context) ([]domain.ScenarioLoad, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := time.Now()
	summary := domain.RunSummary{RunID: runID, StartedAt: domain.Now().UTC()}
	logger.Info("run started")

	loads, err := p.run(ctx, runID, logger)
	summary.FinishedAt = domain.Now().UTC()
	if err != nil {
		summary.Error = err.Error()
		p.last.Store(&summary)
		p.metrics.Runs.WithLabelValues("error").Inc()
		logger.Error("run failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	summary.Plants = make(map[int]int, len(loads))
	for _, l := range loads {
		summary.Plants[l.Scenario] = len(l.Plants)
	}
	p.last.Store(&summary)
	p.metrics.Runs.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	logger.Info("run completed", "duration", time.Since(start), "scenarios", len(loads))
	return loads, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, logger *slog.Logger) ([]domain.ScenarioLoad, error) {
	var ds *eia.Dataset
	err := p.stage(ctx, "extract", logger, func() error {
		var err error
		ds, err = p.extractor.Extract(ctx, runID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Transform failures are not retried.
	var upload *domain.Upload
	start := time.Now()
	upload, err = p.transformer.Transform(ctx, ds)
	p.metrics.StageDuration.WithLabelValues("transform").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	var loads []domain.ScenarioLoad
	err = p.stage(ctx, "load", logger, func() error {
		var err error
		loads, err = p.loader.Load(ctx, upload)
		return err
	})
	if err != nil {
		return nil, err
	}

	if p.publisher != nil {
		if err := p.publish(ctx, runID, loads); err != nil {
			return nil, err
		}
	}
	return loads, nil
}

// stage runs fn, retrying failures with exponential backoff: start at 200ms,
// double each retry, cap at 5s.
func (p *Pipeline) stage(ctx context.Context, name string, logger *slog.Logger, fn func() error) error {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	start := time.Now()
	defer func() {
		p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= p.opts.MaxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempt, err)
		}
		logger.Warn(name+" failed, retrying", "error", err, "attempt", attempt, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func (p *Pipeline) publish(ctx context.Context, runID string, loads []domain.ScenarioLoad) error {
	var events []domain.PlantEvent
	for _, l := range loads {
		for _, plant := range l.Plants {
			events = append(events, domain.NewPlantEvent(l.Scenario, plant, runID))
		}
	}
	if err := p.publisher.Publish(ctx, events); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	p.logger.Info("published loaded plants", "run_id", runID, "events", len(events))
	return nil
}
