package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disease_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the risk service.
type Metrics struct {
	// Risk table refresh pipeline.
	MessagesConsumed prometheus.Counter
	RowsApplied      prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge
	RiskTableRows    prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Live weather metrics.
	LiveRequests    *prometheus.CounterVec   // labels: endpoint={current,forecast}, outcome={success,error}
	LiveCache       *prometheus.CounterVec   // labels: endpoint={current,forecast}, result={hit,miss}
	LiveAPIDuration *prometheus.HistogramVec // labels: endpoint={current,forecast}
	LiveEnabled     prometheus.Gauge

	// Upstream model forecast and input gathering.
	ModelRequests  *prometheus.CounterVec // labels: outcome={success,error}
	FeedFallbacks  *prometheus.CounterVec // labels: source={current,forecast,model}
	FeedCollection prometheus.Histogram

	// Alerting.
	AlertScans         prometheus.Counter
	AlertsPublished    prometheus.Counter
	AlertPublishErrors prometheus.Counter
	AlertScanDuration  prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total risk table update messages read from the source topic.",
		}),
		RowsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_rows_applied_total",
			Help:      "Total (city, disease) rows replaced in the risk table.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total update messages rejected as invalid.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh pipeline is active, 0 when shut down.",
		}),
		RiskTableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "risk_table_rows",
			Help:      "Number of (city, disease) rows held in the authoritative risk table.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		LiveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_requests_total",
			Help:      "Live weather API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		LiveCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_cache_total",
			Help:      "Live weather cache lookups by endpoint and result.",
		}, []string{"endpoint", "result"}),
		LiveAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "live_api_duration_seconds",
			Help:      "OpenWeather API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		LiveEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_enabled",
			Help:      "1 when live weather input is enabled, 0 otherwise.",
		}),
		ModelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Upstream model forecast requests by outcome.",
		}, []string{"outcome"}),
		FeedFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fallbacks_total",
			Help:      "Optional inputs that were unavailable and fell through to the next tier.",
		}, []string{"source"}),
		FeedCollection: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_collection_duration_seconds",
			Help:      "Time spent gathering live and model inputs for one query.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		AlertScans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_scans_total",
			Help:      "Total alert scans over every (city, disease) pair.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Total alerts written to the sink topic.",
		}),
		AlertPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_publish_errors_total",
			Help:      "Total failed alert batch writes.",
		}),
		AlertScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alert_scan_duration_seconds",
			Help:      "Duration of one alert scan including publication.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.RowsApplied,
		m.TransformErrors,
		m.PipelineRunning,
		m.RiskTableRows,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.LiveRequests,
		m.LiveCache,
		m.LiveAPIDuration,
		m.LiveEnabled,
		m.ModelRequests,
		m.FeedFallbacks,
		m.FeedCollection,
		m.AlertScans,
		m.AlertsPublished,
		m.AlertPublishErrors,
		m.AlertScanDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_consumed_total"}),
		RowsApplied:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "risk_rows_applied_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		RiskTableRows:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "risk_table_rows"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_processing_duration_seconds"}),
		LiveRequests:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "live_requests_total"}, []string{"endpoint", "outcome"}),
		LiveCache:               prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "live_cache_total"}, []string{"endpoint", "result"}),
		LiveAPIDuration:         prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "live_api_duration_seconds"}, []string{"endpoint"}),
		LiveEnabled:             prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "live_enabled"}),
		ModelRequests:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "model_requests_total"}, []string{"outcome"}),
		FeedFallbacks:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "feed_fallbacks_total"}, []string{"source"}),
		FeedCollection:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "feed_collection_duration_seconds"}),
		AlertScans:              prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "alert_scans_total"}),
		AlertsPublished:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "alerts_published_total"}),
		AlertPublishErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "alert_publish_errors_total"}),
		AlertScanDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "alert_scan_duration_seconds"}),
	}
}
