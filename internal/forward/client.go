package forward

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/ridgewayhq/ridgeway/internal/upstream"
)

// Client forwards requests over a fresh connection per call: it never
// pools or reuses a backend connection, so header casing and framing are
// exactly what this process wrote, not whatever a shared transport's
// connection happens to carry over from a previous request.
type Client struct {
	// Dialer is used for plain-text connections. A zero value uses
	// net.Dialer{}.
	Dialer *net.Dialer

	// TLSConfig is used for net.DialTLS-style connections when the
	// upstream requires TLS. A nil value uses a minimal default.
	TLSConfig *tls.Config
}

// NewClient builds a Client with default dialing behavior.
func NewClient() *Client {
	return &Client{Dialer: &net.Dialer{}, TLSConfig: &tls.Config{}}
}

// Forward implements Forwarder.
func (c *Client) Forward(ctx context.Context, u upstream.Upstream, r *http.Request, body []byte) (*http.Response, error) {
	conn, err := c.dial(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUpstreamUnavailable, u.Address, err)
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if err := writeRequest(conn, r, body); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: write request to %s: %v", ErrUpstreamUnavailable, u.Address, err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), r)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: read response from %s: %v", ErrUpstreamUnavailable, u.Address, err)
	}
	// The connection stays open while the caller reads the body; closing
	// the response body closes it.
	resp.Body = struct {
		io.Reader
		io.Closer
	}{resp.Body, conn}
	return resp, nil
}

func (c *Client) dial(ctx context.Context, u upstream.Upstream) (net.Conn, error) {
	dialer := c.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if !u.UseTLS {
		return dialer.DialContext(ctx, "tcp", u.Address)
	}
	tlsConf := c.TLSConfig
	if tlsConf == nil {
		tlsConf = &tls.Config{}
	}
	tlsDialer := &tls.Dialer{NetDialer: dialer, Config: tlsConf}
	return tlsDialer.DialContext(ctx, "tcp", u.Address)
}

// writeRequest writes r as an HTTP/1.1 request line and headers directly
// to conn, preserving the canonical casing net/http already applied when
// the header map was built, then writes the body. It avoids
// net/http.Request.Write so the caller, not the standard client, decides
// framing: always Content-Length, never chunked. body is the already
// buffered body when the caller needed to inspect or rewrite it; when
// body is nil, r.Body is streamed through untouched instead, so a
// service with no body filters and no body middleware never materializes
// the request body in memory.
func writeRequest(w net.Conn, r *http.Request, body []byte) error {
	bw := bufio.NewWriter(w)

	requestURI := r.URL.RequestURI()
	if _, err := fmt.Fprintf(bw, "%s %s HTTP/1.1\r\n", r.Method, requestURI); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "Host: %s\r\n", r.Host); err != nil {
		return err
	}

	contentLength := int64(len(body))
	streaming := body == nil
	if streaming {
		contentLength = r.ContentLength
		if contentLength < 0 {
			contentLength = 0
		}
	}

	wroteContentLength := false
	for key, values := range r.Header {
		if key == "Content-Length" {
			if !streaming {
				continue
			}
			wroteContentLength = true
		}
		for _, v := range values {
			if _, err := fmt.Fprintf(bw, "%s: %s\r\n", key, v); err != nil {
				return err
			}
		}
	}
	if !wroteContentLength && (contentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut) {
		if _, err := fmt.Fprintf(bw, "Content-Length: %d\r\n", contentLength); err != nil {
			return err
		}
	}

	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}

	if streaming {
		if contentLength > 0 && r.Body != nil {
			if _, err := io.CopyN(bw, r.Body, contentLength); err != nil {
				return err
			}
		}
	} else if len(body) > 0 {
		if _, err := bw.Write(body); err != nil {
			return err
		}
	}
	return bw.Flush()
}
