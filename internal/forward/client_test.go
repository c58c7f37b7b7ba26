package forward

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ridgewayhq/ridgeway/internal/upstream"
)

// startEchoUpstream runs a one-shot TCP server that reads a single HTTP
// request line + headers and replies with a fixed response, returning the
// exact bytes of the request line and header block it received.
func startEchoUpstream(t *testing.T, response string) (addr string, received chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	received = make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		defer ln.Close()

		br := bufio.NewReader(conn)
		var raw []byte
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				break
			}
			raw = append(raw, line...)
			if line == "\r\n" {
				break
			}
		}
		received <- string(raw)
		_, _ = io.WriteString(conn, response)
	}()
	return ln.Addr().String(), received
}

func TestForwardPreservesHeaderCaseAndReturnsResponse(t *testing.T) {
	addr, received := startEchoUpstream(t, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok")

	r := httptest.NewRequest(http.MethodGet, "http://example.com/path", nil)
	r.Host = "example.com"
	r.Header.Set("X-Request-Id", "abc123")

	u, err := upstream.New(addr, false)
	if err != nil {
		t.Fatalf("upstream.New: %v", err)
	}

	c := NewClient()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := c.Forward(ctx, u, r, nil)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Fatalf("body = %q, want %q", body, "ok")
	}

	raw := <-received
	if !contains(raw, "X-Request-Id: abc123\r\n") {
		t.Fatalf("request did not preserve header case: %q", raw)
	}
	if !contains(raw, "GET /path HTTP/1.1\r\n") {
		t.Fatalf("request line wrong: %q", raw)
	}
}

// startEchoUpstreamWithBody is startEchoUpstream plus reading a body of
// exactly contentLength bytes past the header block, so a test can assert
// on the bytes a streamed (unbuffered) request body actually put on the
// wire.
func startEchoUpstreamWithBody(t *testing.T, response string, contentLength int) (addr string, receivedHeaders, receivedBody chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	receivedHeaders = make(chan string, 1)
	receivedBody = make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		defer ln.Close()

		br := bufio.NewReader(conn)
		var raw []byte
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				break
			}
			raw = append(raw, line...)
			if line == "\r\n" {
				break
			}
		}
		receivedHeaders <- string(raw)

		body := make([]byte, contentLength)
		if contentLength > 0 {
			if _, err := io.ReadFull(br, body); err != nil {
				return
			}
		}
		receivedBody <- string(body)
		_, _ = io.WriteString(conn, response)
	}()
	return ln.Addr().String(), receivedHeaders, receivedBody
}

func TestForwardStreamsRequestBodyWhenUnbuffered(t *testing.T) {
	const payload = "name=widget&qty=3"
	addr, headers, body := startEchoUpstreamWithBody(t, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok", len(payload))

	r := httptest.NewRequest(http.MethodPost, "http://example.com/submit", strings.NewReader(payload))
	r.Host = "example.com"
	r.ContentLength = int64(len(payload))

	u, err := upstream.New(addr, false)
	if err != nil {
		t.Fatalf("upstream.New: %v", err)
	}

	c := NewClient()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := c.Forward(ctx, u, r, nil)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	defer resp.Body.Close()

	rawHeaders := <-headers
	if !contains(rawHeaders, "POST /submit HTTP/1.1\r\n") {
		t.Fatalf("request line wrong: %q", rawHeaders)
	}
	wantCL := "Content-Length: " + strconv.Itoa(len(payload)) + "\r\n"
	if !contains(rawHeaders, wantCL) {
		t.Fatalf("headers missing %q: %q", wantCL, rawHeaders)
	}

	gotBody := <-body
	if gotBody != payload {
		t.Fatalf("upstream received body %q, want %q: a nil body arg must stream r.Body, not drop it", gotBody, payload)
	}
}

func TestForwardDialFailureWrapsErrUpstreamUnavailable(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	r.Host = "example.com"

	u, err := upstream.New("127.0.0.1:1", false)
	if err != nil {
		t.Fatalf("upstream.New: %v", err)
	}

	c := NewClient()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err = c.Forward(ctx, u, r, nil)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("got %v, want ErrUpstreamUnavailable", err)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
