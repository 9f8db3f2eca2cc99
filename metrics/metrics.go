// Package metrics exports Prometheus metrics of maglev tables.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gobwas/maglev"
)

// Collector collects metrics of table mutations.
// It implements prometheus.Collector and should be attached to tables via
// maglev.WithTrace(c.Trace()). Single collector may serve multiple tables.
type Collector struct {
	rebuilds prometheus.Counter
	moved    prometheus.Counter
	latency  prometheus.Histogram
	backends prometheus.Gauge
	errors   *prometheus.CounterVec
}

// NewCollector creates a new collector. Metric names are prefixed by
// namespace (if non-empty) and "maglev".
func NewCollector(namespace string, labels prometheus.Labels) *Collector {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace:   namespace,
			Subsystem:   "maglev",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}
	}
	return &Collector{
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts(opts(
			"rebuilds_total",
			"Number of lookup table rebuilds.",
		))),
		moved: prometheus.NewCounter(prometheus.CounterOpts(opts(
			"moved_slots_total",
			"Number of slots which changed their owner on rebuild.",
		))),
		backends: prometheus.NewGauge(prometheus.GaugeOpts(opts(
			"backends",
			"Number of backends after the last rebuild.",
		))),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "maglev",
			Name:        "rebuild_duration_seconds",
			Help:        "Duration of lookup table rebuilds.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts(opts(
			"mutation_errors_total",
			"Number of failed backend insertions and deletions.",
		)), []string{"op"}),
	}
}

// Trace returns table trace which feeds the collector.
func (c *Collector) Trace() maglev.Trace {
	return maglev.Trace{
		OnInsert: func(string) func(error) {
			return c.onDone("insert")
		},
		OnDelete: func(string) func(error) {
			return c.onDone("delete")
		},
		OnRebuild: func(maglev.TraceRebuildStart) func(maglev.TraceRebuildDone) {
			start := time.Now()
			return func(d maglev.TraceRebuildDone) {
				c.latency.Observe(time.Since(start).Seconds())
				c.rebuilds.Inc()
				c.moved.Add(float64(d.Moved))
				c.backends.Set(float64(d.Backends))
			}
		},
	}
}

func (c *Collector) onDone(op string) func(error) {
	return func(err error) {
		if err != nil {
			c.errors.WithLabelValues(op).Inc()
		}
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.rebuilds.Describe(ch)
	c.moved.Describe(ch)
	c.latency.Describe(ch)
	c.backends.Describe(ch)
	c.errors.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.rebuilds.Collect(ch)
	c.moved.Collect(ch)
	c.latency.Collect(ch)
	c.backends.Collect(ch)
	c.errors.Collect(ch)
}
