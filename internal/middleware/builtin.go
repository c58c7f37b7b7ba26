package middleware

import "net/http"

// AddRequestHeader sets header to value on every request, overwriting any
// existing value.
func AddRequestHeader(header, value string) IncomingStep {
	return Incoming(func(r *http.Request) error {
		r.Header.Set(header, value)
		return nil
	})
}

// RemoveRequestHeader deletes header from every request.
func RemoveRequestHeader(header string) IncomingStep {
	return Incoming(func(r *http.Request) error {
		r.Header.Del(header)
		return nil
	})
}

// RenameRequestHeader moves the value at from to to, if present.
func RenameRequestHeader(from, to string) IncomingStep {
	return Incoming(func(r *http.Request) error {
		if v := r.Header.Get(from); v != "" {
			r.Header.Set(to, v)
			r.Header.Del(from)
		}
		return nil
	})
}

// AddResponseHeader sets header to value on every response, overwriting
// any existing value.
func AddResponseHeader(header, value string) OutgoingStep {
	return Outgoing(func(upstream string, resp *http.Response) error {
		resp.Header.Set(header, value)
		return nil
	})
}

// RemoveResponseHeader deletes header from every response.
func RemoveResponseHeader(header string) OutgoingStep {
	return Outgoing(func(upstream string, resp *http.Response) error {
		resp.Header.Del(header)
		return nil
	})
}

// RenameResponseHeader moves the value at from to to, if present.
func RenameResponseHeader(from, to string) OutgoingStep {
	return Outgoing(func(upstream string, resp *http.Response) error {
		if v := resp.Header.Get(from); v != "" {
			resp.Header.Set(to, v)
			resp.Header.Del(from)
		}
		return nil
	})
}

// TagUpstreamHeader records which upstream served the response, useful
// for debugging a round-robin rotation.
func TagUpstreamHeader(header string) OutgoingStep {
	return Outgoing(func(upstream string, resp *http.Response) error {
		resp.Header.Set(header, upstream)
		return nil
	})
}
