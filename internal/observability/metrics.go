package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ET
// pipeline.
type Metrics struct {
	DaysProcessed   prometheus.Counter
	DaysSkipped     prometheus.Counter
	DayErrors       prometheus.Counter
	ScenesProcessed prometheus.Counter
	SceneErrors     prometheus.Counter
	ProductsStored  prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Per-scene processing metrics.
	SceneDuration  prometheus.Histogram
	ETFractionMean prometheus.Histogram

	// Catalog adapter metrics.
	CatalogRequests *prometheus.CounterVec // labels: asset={weather,scenes,ancillary}, outcome={success,error,missing}
	CatalogCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DaysProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "days_processed_total",
			Help:      "Total days fully processed.",
		}),
		DaysSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "days_skipped_total",
			Help:      "Total days skipped because no weather data was available.",
		}),
		DayErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "day_errors_total",
			Help:      "Total days that failed and were skipped.",
		}),
		ScenesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "scenes_processed_total",
			Help:      "Total scenes successfully processed into products.",
		}),
		SceneErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "scene_errors_total",
			Help:      "Total per-scene failures.",
		}),
		ProductsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "products_stored_total",
			Help:      "Total ET products written to the sink.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ssebop_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		SceneDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ssebop_etl",
			Name:      "scene_processing_duration_seconds",
			Help:      "Duration of a complete per-scene model run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ETFractionMean: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ssebop_etl",
			Name:      "et_fraction_mean",
			Help:      "Mean ET fraction per product, for drift detection.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "catalog_requests_total",
			Help:      "Catalog API requests by asset kind and outcome.",
		}, []string{"asset", "outcome"}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "catalog_cache_total",
			Help:      "Catalog cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.DaysProcessed,
		m.DaysSkipped,
		m.DayErrors,
		m.ScenesProcessed,
		m.SceneErrors,
		m.ProductsStored,
		m.PipelineRunning,
		m.SceneDuration,
		m.ETFractionMean,
		m.CatalogRequests,
		m.CatalogCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DaysProcessed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "days_processed_total"}),
		DaysSkipped:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "days_skipped_total"}),
		DayErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "day_errors_total"}),
		ScenesProcessed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "scenes_processed_total"}),
		SceneErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "scene_errors_total"}),
		ProductsStored:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "products_stored_total"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "ssebop_etl", Name: "pipeline_running"}),
		SceneDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "ssebop_etl", Name: "scene_processing_duration_seconds"}),
		ETFractionMean:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "ssebop_etl", Name: "et_fraction_mean"}),
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "catalog_requests_total"}, []string{"asset", "outcome"}),
		CatalogCache:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "catalog_cache_total"}, []string{"result"}),
	}
}
