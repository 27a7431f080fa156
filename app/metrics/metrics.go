package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the mailing service.
type Metrics struct {
	DeliveryAttemptsTotal *prometheus.CounterVec
	OccurrencesTotal      *prometheus.CounterVec
	ScheduledTotal        prometheus.Counter
	DispatchDuration      prometheus.Histogram

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		DeliveryAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailings_delivery_attempts_total",
				Help: "Delivery attempts to single recipients by result",
			},
			[]string{"result"},
		),
		OccurrencesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailings_occurrences_total",
				Help: "Mailing occurrences handled by the dispatcher by outcome",
			},
			[]string{"outcome"},
		),
		ScheduledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailings_scheduled_total",
			Help: "Due occurrences published by the scheduler",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailings_dispatch_duration_seconds",
			Help:    "Time spent dispatching one occurrence",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.DeliveryAttemptsTotal,
		m.OccurrencesTotal,
		m.ScheduledTotal,
		m.DispatchDuration,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
