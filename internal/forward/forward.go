// Package forward sends an admitted request to a chosen upstream over a
// fresh connection and returns its response.
package forward

import (
	"context"
	"errors"
	"net/http"

	"github.com/ridgewayhq/ridgeway/internal/upstream"
)

// ErrUpstreamUnavailable wraps any failure to connect to, handshake with,
// or exchange bytes with an upstream. Every such failure is collapsed to
// this one sentinel; Bundle maps it to a 502.
var ErrUpstreamUnavailable = errors.New("forward: upstream unavailable")

// Forwarder sends r to u and returns the upstream's response. body is the
// already-buffered request body when the caller needed to inspect or
// rewrite it; a nil body means the caller never buffered one and the
// implementation must stream r.Body through untouched instead.
type Forwarder interface {
	Forward(ctx context.Context, u upstream.Upstream, r *http.Request, body []byte) (*http.Response, error)
}
