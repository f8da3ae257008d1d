// Package metrics records per-run counters in a Prometheus registry.
//
// The program is run by an external scheduler and exits after one run, so
// nothing is served over HTTP. Instead the registry can be written in the
// node_exporter textfile format for a collector to pick up.
//
// All methods are safe to call on a nil *Run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cs2cal"

// Run holds the metrics of a single calendar update.
type Run struct {
	registry *prometheus.Registry

	fetchAttempts *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	events        *prometheus.GaugeVec
	degraded      prometheus.Gauge
	lastRun       prometheus.Gauge
	duration      prometheus.Gauge
}

// New creates a Run with its own registry.
func New() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "HTTP attempts made against the source site",
		}, []string{"endpoint"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Fetches that failed after all retries",
		}, []string{"endpoint"}),
		events: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events",
			Help:      "Events written to the calendar by role",
		}, []string{"role"}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "degraded",
			Help:      "1 when the last run wrote a failure placeholder",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
	}
	r.registry.MustRegister(r.fetchAttempts, r.fetchFailures, r.events, r.degraded, r.lastRun, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Run) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Run) FetchAttempt(endpoint string) {
	if r == nil {
		return
	}
	r.fetchAttempts.WithLabelValues(endpoint).Inc()
}

func (r *Run) FetchFailure(endpoint string) {
	if r == nil {
		return
	}
	r.fetchFailures.WithLabelValues(endpoint).Inc()
}

// SetEvents records how many events of role were written.
func (r *Run) SetEvents(role string, n int) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(role).Set(float64(n))
}

// Finish records the outcome and timing of the run.
func (r *Run) Finish(degraded bool, started, finished time.Time) {
	if r == nil {
		return
	}
	if degraded {
		r.degraded.Set(1)
	} else {
		r.degraded.Set(0)
	}
	r.lastRun.Set(float64(finished.Unix()))
	r.duration.Set(finished.Sub(started).Seconds())
}

// WriteTextfile writes the registry to path in the text exposition format.
func (r *Run) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
