package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eia_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	Runs            *prometheus.CounterVec   // labels: outcome={success,error}
	RunDuration     prometheus.Histogram     // full extract-transform-load cycle
	StageDuration   *prometheus.HistogramVec // labels: stage={extract,transform,load}

	// Acquisition metrics.
	Downloads     *prometheus.CounterVec // labels: form, outcome={downloaded,reused,error}
	DownloadBytes prometheus.Counter
	RowsParsed    *prometheus.CounterVec // labels: form
	RowsRejected  *prometheus.CounterVec // labels: reason

	// Loader metrics.
	PlantsLoaded        *prometheus.CounterVec // labels: scenario
	LoadZoneAssignments *prometheus.CounterVec // labels: method={contains,county,nearest,unassigned}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PipelineRunning,
		m.Runs,
		m.RunDuration,
		m.StageDuration,
		m.Downloads,
		m.DownloadBytes,
		m.RowsParsed,
		m.RowsRejected,
		m.PlantsLoaded,
		m.LoadZoneAssignments,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}, []string{"stage"}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "EIA file acquisitions by form and outcome.",
		}, []string{"form", "outcome"}),
		DownloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_bytes_total",
			Help:      "Bytes fetched from the EIA website.",
		}),
		RowsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Spreadsheet rows parsed by form.",
		}, []string{"form"}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Rows dropped during processing by reason.",
		}, []string{"reason"}),
		PlantsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plants_loaded_total",
			Help:      "Generation plants inserted into the switch schema by scenario.",
		}, []string{"scenario"}),
		LoadZoneAssignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_zone_assignments_total",
			Help:      "Load zone assignments by method.",
		}, []string{"method"}),
	}
}
