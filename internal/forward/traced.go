package forward

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ridgewayhq/ridgeway/internal/upstream"
)

// Traced wraps a Forwarder, starting one span named "ridgeway.forward"
// per call and recording the outcome on it.
type Traced struct {
	Next   Forwarder
	Tracer trace.Tracer
}

func (t Traced) Forward(ctx context.Context, u upstream.Upstream, r *http.Request, body []byte) (*http.Response, error) {
	ctx, span := t.Tracer.Start(ctx, "ridgeway.forward", trace.WithAttributes(
		attribute.String("upstream.address", u.Address),
		attribute.Bool("upstream.tls", u.UseTLS),
		attribute.String("http.method", r.Method),
	))
	defer span.End()

	resp, err := t.Next.Forward(ctx, u, r, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}
