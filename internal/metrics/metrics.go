package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for the podcast pipeline.
type Metrics struct {
	registry         *prometheus.Registry
	runsTotal        *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	scriptLength     prometheus.Histogram
	truncationsTotal prometheus.Counter
	audioBytesTotal  prometheus.Counter
	activeRuns       prometheus.Gauge
}

// New creates and registers the pipeline metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "podcast_runs_total",
		Help: "Total number of pipeline runs by outcome",
	}, []string{"outcome"})
	failuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "podcast_failures_total",
		Help: "Total number of failed runs by error kind",
	}, []string{"kind"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "podcast_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"stage"})
	scriptLength := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "podcast_script_chars",
		Help:    "Length of composed scripts in characters",
		Buckets: []float64{250, 500, 1000, 1500, 1800, 2000, 2500, 4000},
	})
	truncationsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "podcast_script_truncations_total",
		Help: "Total number of scripts cut down to the character budget",
	})
	audioBytesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "podcast_audio_bytes_total",
		Help: "Total bytes of audio written",
	})
	activeRuns := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "podcast_active_runs",
		Help: "Number of pipeline runs in progress",
	})

	registry.MustRegister(
		runsTotal,
		failuresTotal,
		stageDuration,
		scriptLength,
		truncationsTotal,
		audioBytesTotal,
		activeRuns,
		collectors.NewGoCollector(),
	)

	return &Metrics{
		registry:         registry,
		runsTotal:        runsTotal,
		failuresTotal:    failuresTotal,
		stageDuration:    stageDuration,
		scriptLength:     scriptLength,
		truncationsTotal: truncationsTotal,
		audioBytesTotal:  audioBytesTotal,
		activeRuns:       activeRuns,
	}
}

// RunStarted marks a run as in progress.
func (m *Metrics) RunStarted() {
	m.activeRuns.Inc()
}

// RunSucceeded records a successful run.
func (m *Metrics) RunSucceeded(audioBytes int) {
	m.activeRuns.Dec()
	m.runsTotal.WithLabelValues("success").Inc()
	m.audioBytesTotal.Add(float64(audioBytes))
}

// RunFailed records a failed run under its error kind.
func (m *Metrics) RunFailed(kind string) {
	m.activeRuns.Dec()
	m.runsTotal.WithLabelValues("failure").Inc()
	m.failuresTotal.WithLabelValues(kind).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveScript records a composed script length.
func (m *Metrics) ObserveScript(length int, truncated bool) {
	m.scriptLength.Observe(float64(length))
	if truncated {
		m.truncationsTotal.Inc()
	}
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
