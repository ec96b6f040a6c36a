// Package metrics provides Prometheus metrics collection for tlgen.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/IbnNafis007/tlgen/ports"
)

// Collector holds all Prometheus metrics for the compiler.
type Collector struct {
	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
	LastRun     prometheus.Gauge

	// Output metrics
	Definitions *prometheus.GaugeVec
	FilesTotal  prometheus.Counter
	Diagnostics *prometheus.CounterVec

	// Watch metrics
	Reloads      prometheus.Counter
	ReloadErrors prometheus.Counter
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tlgen",
				Name:      "compile_runs_total",
				Help:      "Total number of compilation runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "tlgen",
				Name:      "compile_duration_seconds",
				Help:      "Compilation run duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		LastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tlgen",
				Name:      "last_run_timestamp",
				Help:      "Unix timestamp of the last completed run",
			},
		),
		Definitions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tlgen",
				Name:      "definitions",
				Help:      "Definitions compiled in the last run by kind",
			},
			[]string{"kind"},
		),
		FilesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tlgen",
				Name:      "files_written_total",
				Help:      "Total number of generated files written",
			},
		),
		Diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tlgen",
				Name:      "diagnostics_total",
				Help:      "Total schema diagnostics reported by kind",
			},
			[]string{"kind"},
		),
		Reloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tlgen",
				Name:      "watch_reloads_total",
				Help:      "Total number of successful watch-mode reloads",
			},
		),
		ReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tlgen",
				Name:      "watch_reload_errors_total",
				Help:      "Total number of failed watch-mode reloads",
			},
		),
	}
}

// RunCompleted records one finished compilation run.
func (c *Collector) RunCompleted(outcome string, duration time.Duration) {
	c.RunsTotal.WithLabelValues(outcome).Inc()
	c.RunDuration.Observe(duration.Seconds())
	c.LastRun.SetToCurrentTime()
}

// DefinitionsCompiled records the definition counts of the last run.
func (c *Collector) DefinitionsCompiled(types, functions int) {
	c.Definitions.WithLabelValues("type").Set(float64(types))
	c.Definitions.WithLabelValues("function").Set(float64(functions))
}

// DiagnosticsReported counts diagnostics by kind name.
func (c *Collector) DiagnosticsReported(kind string, count int) {
	if count == 0 {
		return
	}
	c.Diagnostics.WithLabelValues(kind).Add(float64(count))
}

// FilesWritten counts generated artifacts written to disk.
func (c *Collector) FilesWritten(count int) {
	c.FilesTotal.Add(float64(count))
}

// ReloadRecorded records a watch-mode reload attempt.
func (c *Collector) ReloadRecorded(err error) {
	if err != nil {
		c.ReloadErrors.Inc()
		return
	}
	c.Reloads.Inc()
}

// Ensure interface compliance.
var _ ports.CompileMetrics = (*Collector)(nil)
