// Package metrics exposes the console's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/egresados-admin/internal/api"
)

const namespace = "egresados_console"

// Metrics holds the collectors registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests    *prometheus.HistogramVec
	loaderOutcomes *prometheus.CounterVec
	bulkActions    *prometheus.CounterVec
}

// New creates a registry with the console collectors plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		apiRequests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Duration of requests to the egresados API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "outcome"}),
		loaderOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_outcomes_total",
			Help:      "Route loader results by route and outcome.",
		}, []string{"route", "outcome"}),
		bulkActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_actions_total",
			Help:      "Bulk action submissions by action and outcome.",
		}, []string{"action", "outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAPIRequest implements api.Observer.
func (m *Metrics) ObserveAPIRequest(endpoint string, outcome api.Kind, d time.Duration) {
	m.apiRequests.WithLabelValues(endpoint, outcome.String()).Observe(d.Seconds())
}

// LoaderOutcome counts one loader result.
func (m *Metrics) LoaderOutcome(route, outcome string) {
	m.loaderOutcomes.WithLabelValues(route, outcome).Inc()
}

// BulkAction counts one bulk submission.
func (m *Metrics) BulkAction(action, outcome string) {
	m.bulkActions.WithLabelValues(action, outcome).Inc()
}
