package zaplog

import "context"

type traceIDKey struct{}

// ContextWithTraceID attaches a trace ID to ctx so WithContext can surface
// it on every subsequent log entry.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func traceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceIDKey{}).(string); ok {
		return v
	}
	return ""
}
