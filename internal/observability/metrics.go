package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// prediction service.
type Metrics struct {
	CyclesTotal      *prometheus.CounterVec   // labels: period={now,morning,evening}, outcome={success,fetch_error,normalize_error,no_data}
	CycleDuration    *prometheus.HistogramVec // labels: period
	PredictionScore  *prometheus.GaugeVec     // labels: period
	SchedulerRunning prometheus.Gauge

	// Upstream observation API metrics.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,error,open_circuit}
	UpstreamDuration prometheus.Histogram

	// Delivery metrics per configured sink.
	SinkDeliveries *prometheus.CounterVec // labels: sink={kafka,mqtt,redis,log}, outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commute",
			Name:      "prediction_cycles_total",
			Help:      "Prediction cycles by target period and outcome.",
		}, []string{"period", "outcome"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "commute",
			Name:      "prediction_cycle_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-score cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"period"}),
		PredictionScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "commute",
			Name:      "prediction_score",
			Help:      "Most recent comfort score per target period.",
		}, []string{"period"}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "commute",
			Name:      "scheduler_running",
			Help:      "1 when the prediction scheduler is active, 0 when shut down.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commute",
			Name:      "upstream_requests_total",
			Help:      "Observation API requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "commute",
			Name:      "upstream_request_duration_seconds",
			Help:      "Observation API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SinkDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commute",
			Name:      "sink_deliveries_total",
			Help:      "Prediction deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.PredictionScore,
		m.SchedulerRunning,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.SinkDeliveries,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CyclesTotal:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "commute", Name: "prediction_cycles_total"}, []string{"period", "outcome"}),
		CycleDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "commute", Name: "prediction_cycle_duration_seconds"}, []string{"period"}),
		PredictionScore:  prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "commute", Name: "prediction_score"}, []string{"period"}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "commute", Name: "scheduler_running"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "commute", Name: "upstream_requests_total"}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "commute", Name: "upstream_request_duration_seconds"}),
		SinkDeliveries:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "commute", Name: "sink_deliveries_total"}, []string{"sink", "outcome"}),
	}
}
