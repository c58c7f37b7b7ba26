package log

// Standard field names for the dispatch engine's log entries. This is a
// deliberately short list, not a catalog of every field a generic gateway
// might want. FieldTraceID is the one the zaplog driver attaches itself;
// the rest, and the helpers below, are not used by any log site in this
// module.
const (
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldHost         = "host"
	FieldPeer         = "peer"
	FieldService      = "service"
	FieldUpstream     = "upstream"
	FieldStatus       = "status"
	FieldDuration     = "duration"
	FieldListener     = "listener"
	FieldError        = "error"
	FieldTraceID      = "trace_id"
	FieldRequestID    = "request_id"
)

// RequestFields builds the standard field set describing an incoming
// request.
func RequestFields(method, path, host, peer string) []Field {
	return []Field{
		String(FieldMethod, method),
		String(FieldPath, path),
		String(FieldHost, host),
		String(FieldPeer, peer),
	}
}

// ForwardFields builds the standard field set describing a request that
// has been dispatched to an upstream.
func ForwardFields(service, upstream string, status int) []Field {
	return []Field{
		String(FieldService, service),
		String(FieldUpstream, upstream),
		Int(FieldStatus, status),
	}
}
