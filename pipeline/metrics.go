package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects pipeline execution metrics for Prometheus.
//
// Thread-safe: all methods delegate to prometheus collectors, which are
// safe for concurrent use. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Gauge metrics (current value observations).
	inflightTurns prometheus.Gauge

	// Histogram metrics (distribution observations).
	stageLatency *prometheus.HistogramVec

	// Counter metrics (cumulative totals).
	validatorCalls *prometheus.CounterVec
	repairAttempts *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
}

// NewMetrics creates and registers all pipeline execution metrics with the
// provided Prometheus registry.
//
// All metrics are registered under the "resumeflow" namespace. The stage
// latency histogram uses buckets sized for model-backed stage durations
// (10ms to 60s).
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	metrics := NewMetrics(registry)
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	m := &Metrics{}

	m.inflightTurns = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "resumeflow",
		Name:      "inflight_turns",
		Help:      "Current number of owner turns being advanced concurrently",
	})

	m.stageLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "resumeflow",
		Name:      "stage_latency_ms",
		Help:      "Stage execution duration in milliseconds (from dispatch to commit)",
		Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 30000, 60000},
	}, []string{"stage", "status"}) // status: success, error, skipped

	m.validatorCalls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resumeflow",
		Name:      "validator_calls_total",
		Help:      "Cumulative count of external validator invocations",
	}, []string{"stage", "outcome"}) // outcome: valid, invalid, error

	m.repairAttempts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resumeflow",
		Name:      "repair_attempts_total",
		Help:      "Cumulative count of model repair attempts during validation loops",
	}, []string{"stage"})

	m.cacheHits = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resumeflow",
		Name:      "cache_hits_total",
		Help:      "Cumulative count of session cache hits",
	}, []string{"key"})

	m.cacheMisses = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resumeflow",
		Name:      "cache_misses_total",
		Help:      "Cumulative count of session cache misses",
	}, []string{"key"})

	return m
}

// TurnStarted increments the inflight turn gauge.
func (m *Metrics) TurnStarted() {
	if m == nil {
		return
	}
	m.inflightTurns.Inc()
}

// TurnFinished decrements the inflight turn gauge.
func (m *Metrics) TurnFinished() {
	if m == nil {
		return
	}
	m.inflightTurns.Dec()
}

// RecordStageLatency records the execution duration of a stage in
// milliseconds. Status is one of "success", "error", or "skipped".
func (m *Metrics) RecordStageLatency(stage string, latency time.Duration, status string) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage, status).Observe(float64(latency.Milliseconds()))
}

// IncrementValidatorCalls increments the validator call counter.
// Outcome is one of "valid", "invalid", or "error".
func (m *Metrics) IncrementValidatorCalls(stage, outcome string) {
	if m == nil {
		return
	}
	m.validatorCalls.WithLabelValues(stage, outcome).Inc()
}

// IncrementRepairAttempts increments the repair attempt counter for a stage.
func (m *Metrics) IncrementRepairAttempts(stage string) {
	if m == nil {
		return
	}
	m.repairAttempts.WithLabelValues(stage).Inc()
}

// IncrementCacheHits increments the cache hit counter for a key.
func (m *Metrics) IncrementCacheHits(key string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(key).Inc()
}

// IncrementCacheMisses increments the cache miss counter for a key.
func (m *Metrics) IncrementCacheMisses(key string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(key).Inc()
}
