// Package metrics provides Prometheus metrics for drop ingestion.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop outcome labels.
const (
	OutcomeAccepted      = "accepted"
	OutcomeOutside       = "outside_region"
	OutcomeIndeterminate = "geometry_indeterminate"
	OutcomeEmpty         = "empty_drop"
	OutcomeInspectFailed = "inspection_failed"
	OutcomeStoreFailed   = "store_failed"
)

// Recorder owns a private registry so several daemons can coexist in one
// process.
type Recorder struct {
	registry *prometheus.Registry

	dropsTotal        *prometheus.CounterVec
	inspectDuration   *prometheus.HistogramVec
	persistDuration   prometheus.Histogram
	historyEntries    prometheus.Gauge
	storeSaveFailures prometheus.Counter
}

// New registers the dropzone collectors plus the Go runtime and process
// collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		dropsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropzone_drops_total",
				Help: "Total drop events by outcome",
			},
			[]string{"outcome"},
		),
		inspectDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dropzone_inspect_duration_seconds",
				Help:    "File inspection duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"file_type"},
		),
		persistDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dropzone_history_persist_duration_seconds",
				Help:    "Time to merge and save the history",
				Buckets: prometheus.DefBuckets,
			},
		),
		historyEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dropzone_history_entries",
				Help: "Number of entries in the persisted history",
			},
		),
		storeSaveFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dropzone_store_save_failures_total",
				Help: "Total failed history saves",
			},
		),
	}
}

// Handler returns the HTTP handler exposing this recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry for tests and custom exporters.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// RecordDrop counts a drop outcome.
func (r *Recorder) RecordDrop(outcome string) {
	if r == nil {
		return
	}
	r.dropsTotal.WithLabelValues(outcome).Inc()
}

// RecordInspect records a successful inspection.
func (r *Recorder) RecordInspect(fileType string, duration time.Duration) {
	if r == nil {
		return
	}
	r.inspectDuration.WithLabelValues(fileType).Observe(duration.Seconds())
}

// RecordPersist records a history merge and save attempt.
func (r *Recorder) RecordPersist(duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.persistDuration.Observe(duration.Seconds())
	if err != nil {
		r.storeSaveFailures.Inc()
	}
}

// SetHistoryEntries updates the history size gauge.
func (r *Recorder) SetHistoryEntries(n int) {
	if r == nil {
		return
	}
	r.historyEntries.Set(float64(n))
}
