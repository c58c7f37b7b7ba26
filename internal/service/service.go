// Package service implements a single routing rule: a set of header
// filters that decide whether a request matches, an optional body filter
// and middleware stage, and a load balancer that picks which upstream
// forwards the request.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ridgewayhq/ridgeway/internal/filter"
	"github.com/ridgewayhq/ridgeway/internal/forward"
	"github.com/ridgewayhq/ridgeway/internal/loadbalancer"
	"github.com/ridgewayhq/ridgeway/internal/middleware"
)

// Service is one routing rule plus everything needed to carry an admitted
// request through to an upstream and back.
type Service struct {
	name        string
	filters     []filter.Filter
	bodyFilters []filter.BodyFilter
	pipeline    *middleware.Pipeline
	lb          *loadbalancer.RoundRobin
	notFoundBody []byte
	forwarder   forward.Forwarder
	needsBody   bool

	onUpstreamSelected func(service, upstream string)
	onBodyRejected     func(service string)
}

// Option configures a Service at construction.
type Option func(*Service)

// WithBodyFilters attaches body filters, evaluated in order after header
// filters match and before the request is forwarded.
func WithBodyFilters(filters ...filter.BodyFilter) Option {
	return func(s *Service) { s.bodyFilters = filters }
}

// WithMiddleware attaches an incoming/outgoing pipeline.
func WithMiddleware(p *middleware.Pipeline) Option {
	return func(s *Service) { s.pipeline = p }
}

// WithNotFoundBody sets the response body returned when a body filter
// rejects a request, in place of the default 403 text.
func WithNotFoundBody(body []byte) Option {
	return func(s *Service) { s.notFoundBody = body }
}

// WithName attaches a name used only to label metrics hooks; it has no
// effect on matching or dispatch.
func WithName(name string) Option {
	return func(s *Service) { s.name = name }
}

// WithUpstreamSelectedHook registers a callback run every time the load
// balancer picks an upstream for this service.
func WithUpstreamSelectedHook(fn func(service, upstream string)) Option {
	return func(s *Service) { s.onUpstreamSelected = fn }
}

// WithBodyRejectedHook registers a callback run every time a body filter
// rejects a request for this service.
func WithBodyRejectedHook(fn func(service string)) Option {
	return func(s *Service) { s.onBodyRejected = fn }
}

// New builds a Service. lb and forwarder are required; every other piece,
// including headerFilters, is optional. Whether the body must be buffered before dispatch is
// computed once here, from the body filters and the middleware pipeline's
// own precomputed flag, not re-derived per request.
func New(headerFilters []filter.Filter, lb *loadbalancer.RoundRobin, forwarder forward.Forwarder, opts ...Option) (*Service, error) {
	if lb == nil {
		return nil, fmt.Errorf("service: a load balancer is required")
	}
	if forwarder == nil {
		return nil, fmt.Errorf("service: a forwarder is required")
	}
	s := &Service{filters: headerFilters, lb: lb, forwarder: forwarder}
	for _, opt := range opts {
		opt(s)
	}
	s.needsBody = len(s.bodyFilters) > 0 || (s.pipeline != nil && s.pipeline.IncomingNeedsBody())
	return s, nil
}

// Matches reports whether r is admitted by this service's header filters.
func (s *Service) Matches(r *http.Request) (bool, error) {
	ok, err := filter.Match(s.filters, r)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFilterFailure, err)
	}
	return ok, nil
}

// NeedsBody reports whether Dispatch requires the request body to already
// be buffered into memory.
func (s *Service) NeedsBody() bool { return s.needsBody }

// Dispatch runs body filters, incoming middleware, upstream selection,
// forwarding, and outgoing middleware, in that order, short-circuiting on
// the first failure. body is nil when NeedsBody is false; callers must
// buffer it themselves beforehand when NeedsBody is true.
func (s *Service) Dispatch(ctx context.Context, r *http.Request, body []byte) (*http.Response, error) {
	if len(s.bodyFilters) > 0 {
		ok, err := filter.MatchBody(ctx, s.bodyFilters, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFilterFailure, err)
		}
		if !ok {
			if s.onBodyRejected != nil {
				s.onBodyRejected(s.name)
			}
			return nil, ErrBodyRejected
		}
	}

	if s.pipeline != nil {
		if err := s.pipeline.ProcessIncoming(r, &body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMiddlewareFailure, err)
		}
	}

	target := s.lb.Pick()
	if s.onUpstreamSelected != nil {
		s.onUpstreamSelected(s.name, target.Address)
	}

	resp, err := s.forwarder.Forward(ctx, target, r, body)
	if err != nil {
		return nil, err
	}

	if s.pipeline != nil && s.pipeline.OutgoingNeedsBody() {
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read response body: %v", forward.ErrUpstreamUnavailable, err)
		}
		if err := s.pipeline.ProcessOutgoing(target.Address, resp, &respBody); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMiddlewareFailure, err)
		}
		resp.Body = io.NopCloser(bytes.NewReader(respBody))
		resp.ContentLength = int64(len(respBody))
	} else if s.pipeline != nil {
		if err := s.pipeline.ProcessOutgoing(target.Address, resp, nil); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMiddlewareFailure, err)
		}
	}

	return resp, nil
}

// NotFoundBody returns the body to use for a 403 from a rejected body
// filter. A nil/empty slice means "no custom body": the default 403 text
// is sent instead.
func (s *Service) NotFoundBody() []byte { return s.notFoundBody }
