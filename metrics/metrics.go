package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// AnalysisTotal counts completed analysis calls by kind and outcome.
	AnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geoint",
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Completed analysis requests by kind and result.",
		},
		[]string{"kind", "result"},
	)

	// AnalysisDuration tracks wall-clock time of analysis calls.
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geoint",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Duration of analysis requests.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"kind"},
	)

	// AnalysisInFlight gauges analysis calls currently awaiting the model.
	AnalysisInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "geoint",
			Subsystem: "analysis",
			Name:      "in_flight",
			Help:      "Analysis requests currently in flight.",
		},
	)

	// AudioSynthesisTotal counts briefing synthesis calls by outcome.
	AudioSynthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geoint",
			Subsystem: "audio",
			Name:      "synthesis_total",
			Help:      "Audio briefing synthesis calls by result.",
		},
		[]string{"result"},
	)

	// SessionsActive gauges live analysis sessions.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "geoint",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of active sessions.",
		},
	)

	registerOnce sync.Once
)

// Register registers all metrics with the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			AnalysisTotal,
			AnalysisDuration,
			AnalysisInFlight,
			AudioSynthesisTotal,
			SessionsActive,
		)
	})
}

// ObserveAnalysis records one completed analysis call.
func ObserveAnalysis(kind, result string, d time.Duration) {
	AnalysisTotal.WithLabelValues(kind, result).Inc()
	AnalysisDuration.WithLabelValues(kind).Observe(d.Seconds())
}
