// Package metrics owns the Prometheus collectors of the service. All methods are safe
// on a nil *Metrics so components can run without instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tisabrain"

// Collection labels.
const (
	CollectionHistory  = "history"
	CollectionCalendar = "calendar"
)

type Metrics struct {
	registry *prometheus.Registry

	mutations           *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	items               *prometheus.GaugeVec
	generations         *prometheus.CounterVec
	bufferPending       prometheus.Gauge
	bufferFlushed       *prometheus.CounterVec
}

// New builds a private registry with the Go and process collectors plus the service metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Applied mutations by collection and operation.",
		}, []string{"collection", "operation"}),
		persistenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Snapshots that could not be saved or loaded.",
		}, []string{"collection", "stage"}),
		items: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items",
			Help:      "Items currently held per collection.",
		}, []string{"collection"}),
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Content generation requests by outcome.",
		}, []string{"outcome"}),
		bufferPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_pending",
			Help:      "Snapshots waiting in the local pending buffer.",
		}),
		bufferFlushed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_flush_total",
			Help:      "Pending snapshot flush attempts by result.",
		}, []string{"result"}),
	}
}

// Registry returns the registry to expose over HTTP.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Mutation(collection, operation string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(collection, operation).Inc()
}

// PersistenceFailure counts a failed save or load; stage is "save" or "load".
func (m *Metrics) PersistenceFailure(collection, stage string) {
	if m == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(collection, stage).Inc()
}

func (m *Metrics) SetItems(collection string, n int) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(collection).Set(float64(n))
}

func (m *Metrics) Generation(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetBufferPending(n int) {
	if m == nil {
		return
	}
	m.bufferPending.Set(float64(n))
}

func (m *Metrics) BufferFlush(result string) {
	if m == nil {
		return
	}
	m.bufferFlushed.WithLabelValues(result).Inc()
}
