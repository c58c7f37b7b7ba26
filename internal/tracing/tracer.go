// Package tracing bootstraps the OpenTelemetry tracer provider used to
// emit one span per forwarded request.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config controls tracer construction. Exporter is optional; when nil the
// provider samples but drops spans, which is useful for development
// without pulling in a concrete exporter dependency.
type Config struct {
	Enabled     bool
	ServiceName string
	SampleRate  float64
	Exporter    sdktrace.SpanExporter
}

// TracerProvider wraps an sdktrace.TracerProvider, installs it as the
// global provider, and exposes the one tracer ridgeway's forwarder uses.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	enabled  bool
}

// New builds a TracerProvider from cfg. When cfg.Enabled is false it
// returns a provider whose Tracer() yields a no-op tracer.
func New(cfg Config) (*TracerProvider, error) {
	if !cfg.Enabled {
		return &TracerProvider{tracer: otel.Tracer("ridgeway")}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: build resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRate > 0 && cfg.SampleRate < 1.0 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}
	if cfg.Exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(cfg.Exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer("ridgeway"),
		enabled:  true,
	}, nil
}

// Tracer returns the tracer to start spans with.
func (tp *TracerProvider) Tracer() trace.Tracer { return tp.tracer }

// Shutdown flushes and stops the underlying provider. It is a no-op when
// tracing was disabled.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if !tp.enabled {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}
