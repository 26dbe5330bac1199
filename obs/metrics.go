// Package obs exposes the daemon's Prometheus instrumentation.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for the live ingest daemon.
type Metrics struct {
	SamplesIngested   prometheus.Counter
	SessionsCompleted *prometheus.CounterVec
	SessionsFailed    prometheus.Counter
	ActiveSessions    prometheus.Gauge
	AnalyzeDuration   prometheus.Histogram
}

// New builds and registers the collectors on reg. Passing a fresh registry
// keeps tests isolated from the process-wide default.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SamplesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grf_samples_ingested_total",
			Help: "Force samples accepted over the ingest socket.",
		}),
		SessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grf_sessions_completed_total",
			Help: "Sessions analyzed and persisted, by test type.",
		}, []string{"test_type"}),
		SessionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grf_sessions_failed_total",
			Help: "Sessions that ended in an analysis or storage error.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grf_active_sessions",
			Help: "Capture sessions currently receiving samples.",
		}),
		AnalyzeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grf_analyze_duration_seconds",
			Help:    "Wall time spent analyzing a completed session.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	reg.MustRegister(m.SamplesIngested, m.SessionsCompleted, m.SessionsFailed,
		m.ActiveSessions, m.AnalyzeDuration)
	return m
}
