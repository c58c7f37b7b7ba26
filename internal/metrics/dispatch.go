package metrics

import "github.com/ridgewayhq/ridgeway/pkg/metrics"

// Dispatch bundles the metric vectors the dispatch engine populates on
// every request, under fixed names and label sets.
type Dispatch struct {
	RequestsTotal          metrics.CounterVec   // labels: service, status
	RequestDurationSeconds metrics.HistogramVec // labels: service
	UpstreamSelectedTotal  metrics.CounterVec   // labels: service, upstream
	BodyFilterRejections   metrics.CounterVec   // labels: service
}

// NewDispatch registers the dispatch engine's metric vectors against p.
func NewDispatch(p metrics.Provider) *Dispatch {
	return &Dispatch{
		RequestsTotal: p.NewCounterVec(
			"requests_total", "Total requests handled, by service and status class.",
			[]string{"service", "status"}),
		RequestDurationSeconds: p.NewHistogramVec(
			"request_duration_seconds", "Request handling latency in seconds, by service.",
			[]string{"service"}, nil),
		UpstreamSelectedTotal: p.NewCounterVec(
			"upstream_selected_total", "Times an upstream was selected by the load balancer, by service and upstream.",
			[]string{"service", "upstream"}),
		BodyFilterRejections: p.NewCounterVec(
			"body_filter_rejections_total", "Requests rejected by a body filter, by service.",
			[]string{"service"}),
	}
}
