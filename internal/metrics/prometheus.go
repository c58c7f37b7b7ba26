// Package metrics implements pkg/metrics.Provider on top of
// github.com/prometheus/client_golang.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ridgewayhq/ridgeway/pkg/metrics"
)

// PrometheusProvider registers and serves the dispatch engine's metrics
// through a dedicated Prometheus registry, kept separate from the default
// global one so an embedding application's own metrics aren't mixed in.
type PrometheusProvider struct {
	registry *prometheus.Registry
	ns       string
}

// NewPrometheusProvider builds a provider whose metric names are prefixed
// with namespace (e.g. "ridgeway").
func NewPrometheusProvider(namespace string) *PrometheusProvider {
	return &PrometheusProvider{registry: prometheus.NewRegistry(), ns: namespace}
}

func (p *PrometheusProvider) NewCounterVec(name, help string, labels []string) metrics.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: p.ns,
		Name:      name,
		Help:      help,
	}, labels)
	p.registry.MustRegister(vec)
	return counterVec{vec}
}

func (p *PrometheusProvider) NewHistogramVec(name, help string, labels []string, buckets []float64) metrics.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: p.ns,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	p.registry.MustRegister(vec)
	return histogramVec{vec}
}

// Handler returns an http.Handler that serves this provider's metrics in
// the Prometheus exposition format, meant to be mounted on a separate
// admin listener rather than the proxy's own request path.
func (p *PrometheusProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

type counterVec struct{ v *prometheus.CounterVec }

func (c counterVec) WithLabelValues(labels ...string) metrics.Counter {
	return c.v.WithLabelValues(labels...)
}

type histogramVec struct{ v *prometheus.HistogramVec }

func (h histogramVec) WithLabelValues(labels ...string) metrics.Histogram {
	return h.v.WithLabelValues(labels...)
}
