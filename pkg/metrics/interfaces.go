// Package metrics defines the metrics abstraction the dispatch engine
// reports through; internal/metrics (PrometheusProvider) is its only driver.
package metrics

// Counter is a monotonically increasing value.
type Counter interface {
	Inc()
	Add(v float64)
}

// CounterVec is a Counter parameterized by label values.
type CounterVec interface {
	WithLabelValues(labels ...string) Counter
}

// Histogram records observations into configured buckets.
type Histogram interface {
	Observe(v float64)
}

// HistogramVec is a Histogram parameterized by label values.
type HistogramVec interface {
	WithLabelValues(labels ...string) Histogram
}

// Provider constructs and registers the metrics the dispatch engine
// emits.
type Provider interface {
	NewCounterVec(name, help string, labels []string) CounterVec
	NewHistogramVec(name, help string, labels []string, buckets []float64) HistogramVec
}
