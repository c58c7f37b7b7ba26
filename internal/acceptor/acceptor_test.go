package acceptor

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestAcceptorServesPlainHTTP(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("served"))
	})

	a, err := New("127.0.0.1:0", handler)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	go a.Run()

	conn, err := net.DialTimeout("tcp", a.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("GET / HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	out, err := io.ReadAll(conn)
	if err != nil && err != io.EOF {
		t.Fatalf("read: %v", err)
	}
	if !contains(string(out), "served") {
		t.Fatalf("response did not contain expected body: %q", out)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
