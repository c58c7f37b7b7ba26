package metrics

import (
	"net/http"
	"time"
)

// Instrument wraps next so every request's status and latency are
// recorded against d. service labels every metric the wrapped handler
// produces; it identifies the whole dispatch table, not which individual
// service within it matched, since that decision happens inside the
// handler and isn't otherwise observable from the outside.
func Instrument(next http.Handler, d *Dispatch, service string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		d.RequestDurationSeconds.WithLabelValues(service).Observe(time.Since(start).Seconds())
		d.RequestsTotal.WithLabelValues(service, statusClass(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
