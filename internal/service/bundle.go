package service

import (
	"errors"
	"io"
	"net/http"

	"github.com/ridgewayhq/ridgeway/internal/forward"
)

// MaxBodyBytes is the hard cap on a request body this engine will ever
// buffer. A request whose size cannot be determined in advance (for
// example, chunked framing with no declared length) is treated as
// exceeding the cap rather than read speculatively.
const MaxBodyBytes = 64 * 1024

// Bundle is an ordered, immutable list of services. A request is routed
// to the first service whose filters match; priority is purely list
// order, there is no separate specificity ranking.
type Bundle struct {
	services []*Service
}

// NewBundle builds a Bundle from services, preserving their order.
func NewBundle(services []*Service) *Bundle {
	cp := make([]*Service, len(services))
	copy(cp, services)
	return &Bundle{services: cp}
}

// ServeHTTP implements http.Handler: it walks services in order, forwards
// the request through the first match, and translates dispatch failures
// into the corresponding HTTP status.
func (b *Bundle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	for _, svc := range b.services {
		matched, err := svc.Matches(r)
		if err != nil {
			http.Error(w, "internal filter error", http.StatusInternalServerError)
			return
		}
		if !matched {
			continue
		}

		if !bodySizeOK(r) {
			http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
			return
		}

		var body []byte
		if svc.NeedsBody() {
			body, err = io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusInternalServerError)
				return
			}
			if len(body) > MaxBodyBytes {
				http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
				return
			}
		}

		resp, err := svc.Dispatch(ctx, r, body)
		if err != nil {
			writeDispatchError(w, svc, err)
			return
		}
		defer resp.Body.Close()

		copyResponse(w, resp)
		return
	}

	http.Error(w, "no service matched", http.StatusNotFound)
}

func writeDispatchError(w http.ResponseWriter, svc *Service, err error) {
	switch {
	case errors.Is(err, ErrBodyRejected):
		if body := svc.NotFoundBody(); len(body) > 0 {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write(body)
			return
		}
		http.Error(w, "request rejected", http.StatusForbidden)
	case errors.Is(err, ErrFilterFailure), errors.Is(err, ErrMiddlewareFailure):
		http.Error(w, "internal error", http.StatusInternalServerError)
	case errors.Is(err, forward.ErrUpstreamUnavailable):
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func copyResponse(w http.ResponseWriter, resp *http.Response) {
	dst := w.Header()
	for k, values := range resp.Header {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// bodySizeOK reports whether the declared request size is known and
// within MaxBodyBytes. A negative Content-Length (unknown, e.g. chunked)
// fails safe.
func bodySizeOK(r *http.Request) bool {
	if r.ContentLength < 0 {
		return r.Body == nil || r.Body == http.NoBody
	}
	return r.ContentLength <= MaxBodyBytes
}
