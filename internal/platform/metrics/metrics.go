package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus instruments. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	transitions      *prometheus.CounterVec
	publishFailures  prometheus.Counter
	bookingsCreated  prometheus.Counter
	aggregateLatency prometheus.Histogram
	overdueMarked    prometheus.Counter
}

// NewCollector creates a collector on its own registry so tests can build
// as many as they like.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tms_load_transitions_total",
			Help: "Load status transition attempts by target status and outcome",
		}, []string{"to", "outcome"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tms_event_publish_failures_total",
			Help: "Status change events that could not be delivered to a sink",
		}),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tms_bookings_created_total",
			Help: "Bookings created",
		}),
		aggregateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tms_kpi_aggregate_seconds",
			Help:    "Time to read a load snapshot and aggregate KPIs",
			Buckets: prometheus.DefBuckets,
		}),
		overdueMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tms_loads_marked_overdue_total",
			Help: "Invoiced loads moved to payment_overdue by the sweeper",
		}),
	}

	c.registry.MustRegister(
		c.transitions,
		c.publishFailures,
		c.bookingsCreated,
		c.aggregateLatency,
		c.overdueMarked,
		collectors.NewGoCollector(),
	)

	return c
}

// RecordTransition counts a transition attempt. outcome is "ok" or an error
// class such as "conflict".
func (c *Collector) RecordTransition(to string, outcome string) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(to, outcome).Inc()
}

func (c *Collector) RecordPublishFailure() {
	if c == nil {
		return
	}
	c.publishFailures.Inc()
}

func (c *Collector) RecordBookingCreated() {
	if c == nil {
		return
	}
	c.bookingsCreated.Inc()
}

func (c *Collector) ObserveAggregate(seconds float64) {
	if c == nil {
		return
	}
	c.aggregateLatency.Observe(seconds)
}

func (c *Collector) RecordOverdue(n int) {
	if c == nil {
		return
	}
	c.overdueMarked.Add(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests that gather values.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
