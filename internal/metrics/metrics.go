// Package metrics collects and exposes Prometheus metrics for the message
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records pipeline-level metrics. Workers and the sweeper report
// through this interface so tests can pass a no-op.
type Collector interface {
	RecordProcessed(responseType string, duration time.Duration)
	RecordDropped(reason string)
	RecordRetry()
	RecordDeadLetter()
	RecordSweep(moved int)
}

// PrometheusCollector is the production Collector implementation
type PrometheusCollector struct {
	processed  *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	retries    prometheus.Counter
	deadLetter prometheus.Counter
	sweepMoved prometheus.Counter
	latency    prometheus.Histogram
}

// NewPrometheusCollector creates a collector and registers its metrics
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoreplyx_events_processed_total",
			Help: "Processed events by response type",
		}, []string{"response_type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoreplyx_events_dropped_total",
			Help: "Events dropped without retry, by reason",
		}, []string{"reason"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autoreplyx_event_retries_total",
			Help: "Events pushed to the retry queue",
		}),
		deadLetter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autoreplyx_events_dead_lettered_total",
			Help: "Events moved to the dead-letter queue",
		}),
		sweepMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autoreplyx_retry_sweep_moved_total",
			Help: "Events moved from the retry queue back to the main queue",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "autoreplyx_event_processing_seconds",
			Help:    "Per-event processing latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.processed,
		c.dropped,
		c.retries,
		c.deadLetter,
		c.sweepMoved,
		c.latency,
	)

	return c
}

func (c *PrometheusCollector) RecordProcessed(responseType string, duration time.Duration) {
	c.processed.WithLabelValues(responseType).Inc()
	c.latency.Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordDropped(reason string) {
	c.dropped.WithLabelValues(reason).Inc()
}

func (c *PrometheusCollector) RecordRetry() {
	c.retries.Inc()
}

func (c *PrometheusCollector) RecordDeadLetter() {
	c.deadLetter.Inc()
}

func (c *PrometheusCollector) RecordSweep(moved int) {
	c.sweepMoved.Add(float64(moved))
}

// Noop is a Collector that records nothing; used in tests
type Noop struct{}

func (Noop) RecordProcessed(string, time.Duration) {}
func (Noop) RecordDropped(string)                  {}
func (Noop) RecordRetry()                          {}
func (Noop) RecordDeadLetter()                     {}
func (Noop) RecordSweep(int)                       {}
