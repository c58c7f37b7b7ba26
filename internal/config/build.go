package config

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ridgewayhq/ridgeway/internal/filter"
	"github.com/ridgewayhq/ridgeway/internal/forward"
	"github.com/ridgewayhq/ridgeway/internal/loadbalancer"
	"github.com/ridgewayhq/ridgeway/internal/metrics"
	"github.com/ridgewayhq/ridgeway/internal/middleware"
	"github.com/ridgewayhq/ridgeway/internal/service"
	"github.com/ridgewayhq/ridgeway/internal/tlsmgr"
	"github.com/ridgewayhq/ridgeway/internal/upstream"
	"github.com/ridgewayhq/ridgeway/pkg/log"
)

// defaultJWKSTTL is the refresh interval a "jwt" FilterSpec gets when it
// names a JWKS URL but leaves JWKSTTL unset.
const defaultJWKSTTL = 5 * time.Minute

// Build constructs the immutable service.Bundle a File describes. fwd is
// the Forwarder every service will use to reach its upstreams; callers
// typically pass a forward.Traced wrapping a forward.Client. dispatchMetrics
// is optional; when non-nil, each service reports upstream selections and
// body-filter rejections against it under its own name.
func Build(f *File, fwd forward.Forwarder, dispatchMetrics *metrics.Dispatch) (*service.Bundle, error) {
	services := make([]*service.Service, 0, len(f.Services))
	for _, spec := range f.Services {
		svc, err := buildService(spec, fwd, dispatchMetrics)
		if err != nil {
			return nil, fmt.Errorf("config: service %q: %w", spec.Name, err)
		}
		services = append(services, svc)
	}
	return service.NewBundle(services), nil
}

func buildService(spec ServiceSpec, fwd forward.Forwarder, dispatchMetrics *metrics.Dispatch) (*service.Service, error) {
	filters, err := buildFilters(spec.Filters)
	if err != nil {
		return nil, err
	}

	servers := make([]upstream.Upstream, 0, len(spec.Upstreams))
	for _, u := range spec.Upstreams {
		up, err := upstream.New(u.Address, u.TLS)
		if err != nil {
			return nil, err
		}
		servers = append(servers, up)
	}
	lb, err := loadbalancer.New(servers)
	if err != nil {
		return nil, err
	}

	opts := []service.Option{service.WithName(spec.Name)}
	if pipeline := buildPipeline(spec.Middleware); pipeline != nil {
		opts = append(opts, service.WithMiddleware(pipeline))
	}
	if spec.NotFoundBody != "" {
		opts = append(opts, service.WithNotFoundBody([]byte(spec.NotFoundBody)))
	}
	if dispatchMetrics != nil {
		opts = append(opts,
			service.WithUpstreamSelectedHook(func(svcName, upstream string) {
				dispatchMetrics.UpstreamSelectedTotal.WithLabelValues(svcName, upstream).Inc()
			}),
			service.WithBodyRejectedHook(func(svcName string) {
				dispatchMetrics.BodyFilterRejections.WithLabelValues(svcName).Inc()
			}),
		)
	}

	return service.New(filters, lb, fwd, opts...)
}

func buildFilters(specs []FilterSpec) ([]filter.Filter, error) {
	out := make([]filter.Filter, 0, len(specs))
	for _, s := range specs {
		f, err := buildFilter(s)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", s.Kind, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func buildFilter(s FilterSpec) (filter.Filter, error) {
	switch s.Kind {
	case "method":
		return filter.Method(s.Value), nil
	case "host":
		return filter.HostRegex(s.Value)
	case "path":
		return filter.PathRegex(s.Value)
	case "ip_whitelist":
		return filter.IPWhitelist(s.Values)
	case "ip_blacklist":
		return filter.IPBlacklist(s.Values)
	case "jwt":
		return buildJWTFilter(s.JWT)
	default:
		return nil, fmt.Errorf("unknown filter kind %q", s.Kind)
	}
}

func buildJWTFilter(spec *JWTSpec) (filter.Filter, error) {
	if spec == nil {
		return nil, fmt.Errorf("jwt filter requires a jwt block")
	}
	switch {
	case spec.JWKSURL != "":
		ttl := defaultJWKSTTL
		if spec.JWKSTTL != "" {
			parsed, err := time.ParseDuration(spec.JWKSTTL)
			if err != nil {
				return nil, fmt.Errorf("jwt filter: invalid jwks_ttl %q: %w", spec.JWKSTTL, err)
			}
			ttl = parsed
		}
		return filter.JWTBearer(filter.JWKSKeyFunc(spec.JWKSURL, ttl)), nil
	case spec.Secret != "":
		secret := []byte(spec.Secret)
		keyFunc := func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("jwt filter: unexpected signing method %v", token.Header["alg"])
			}
			return secret, nil
		}
		return filter.JWTBearer(keyFunc), nil
	default:
		return nil, fmt.Errorf("jwt filter requires either secret or jwks_url")
	}
}

func buildPipeline(spec MiddlewareSpec) *middleware.Pipeline {
	var incoming []middleware.IncomingStep
	var outgoing []middleware.OutgoingStep

	for k, v := range spec.AddRequestHeaders {
		incoming = append(incoming, middleware.AddRequestHeader(k, v))
	}
	for _, k := range spec.RemoveRequestHeaders {
		incoming = append(incoming, middleware.RemoveRequestHeader(k))
	}
	for k, v := range spec.AddResponseHeaders {
		outgoing = append(outgoing, middleware.AddResponseHeader(k, v))
	}
	for _, k := range spec.RemoveResponseHeaders {
		outgoing = append(outgoing, middleware.RemoveResponseHeader(k))
	}
	if spec.TagUpstreamHeader != "" {
		outgoing = append(outgoing, middleware.TagUpstreamHeader(spec.TagUpstreamHeader))
	}

	if len(incoming) == 0 && len(outgoing) == 0 {
		return nil
	}
	return middleware.New(incoming, outgoing)
}

// TLSConfigFromSpec builds a *tls.Config from a listener's TLS material, or
// nil when the listener spec carries none. When the spec names an ACME
// block, the returned manager is non-nil and must be Run and Close by the
// caller; otherwise it is nil and the config is built from the static
// cert/key pair instead.
func (l ListenerSpec) TLSConfigFromSpec(logger log.Logger) (*tls.Config, *tlsmgr.Manager, error) {
	if l.TLS == nil {
		return nil, nil, nil
	}
	if l.TLS.ACME != nil {
		mgr, err := tlsmgr.New(tlsmgr.Config{
			Domains:   l.TLS.ACME.Domains,
			Email:     l.TLS.ACME.Email,
			CacheDir:  l.TLS.ACME.CacheDir,
			AcceptTOS: l.TLS.ACME.AcceptTOS,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("config: listener %q: %w", l.Name, err)
		}
		return mgr.TLSConfig(), mgr, nil
	}
	cert, err := tls.LoadX509KeyPair(l.TLS.CertFile, l.TLS.KeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("config: load TLS material for listener %q: %w", l.Name, err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}, nil, nil
}
