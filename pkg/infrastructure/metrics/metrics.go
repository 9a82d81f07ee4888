package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Task outcomes
const (
	OutcomeSuccess           = "success"
	OutcomeValidationError   = "validation_error"
	OutcomeOptimizationError = "optimization_error"
	OutcomeError             = "error"
)

// Metrics holds the planning collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	tasks     *prometheus.CounterVec
	decisions *prometheus.CounterVec
	solve     prometheus.Histogram
	stockout  *prometheus.GaugeVec
}

// New registers the planning collectors plus Go runtime collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "tasks_total",
			Help:      "Material/country planning tasks by outcome.",
		}, []string{"outcome"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "decisions_total",
			Help:      "Issued procurement decisions by signal.",
		}, []string{"signal"}),
		solve: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sentinel",
			Name:      "solve_seconds",
			Help:      "Duration of procurement LP solves.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		stockout: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sentinel",
			Name:      "stockout_probability",
			Help:      "Latest simulated stockout probability per material and country.",
		}, []string{"material", "country"}),
	}
}

// TaskCompleted counts a finished planning task
func (m *Metrics) TaskCompleted(outcome string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(outcome).Inc()
}

// DecisionIssued counts a decision by its signal
func (m *Metrics) DecisionIssued(signal string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(signal).Inc()
}

// ObserveSolve records one solve duration
func (m *Metrics) ObserveSolve(d time.Duration) {
	if m == nil {
		return
	}
	m.solve.Observe(d.Seconds())
}

// SetStockoutProbability publishes the latest risk for a material and country
func (m *Metrics) SetStockoutProbability(material, country string, probability float64) {
	if m == nil {
		return
	}
	m.stockout.WithLabelValues(material, country).Set(probability)
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
