package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPipelineNeedsBodyComputedOnce(t *testing.T) {
	p := New(
		[]IncomingStep{AddRequestHeader("X-A", "1")},
		[]OutgoingStep{AddResponseHeader("X-B", "1")},
	)
	if p.IncomingNeedsBody() || p.OutgoingNeedsBody() {
		t.Fatal("no step needs a body")
	}

	p2 := New(
		[]IncomingStep{IncomingWithBody(func(r *http.Request, body *[]byte) error { return nil })},
		nil,
	)
	if !p2.IncomingNeedsBody() {
		t.Fatal("expected incomingNeedsBody true")
	}
	if p2.OutgoingNeedsBody() {
		t.Fatal("expected outgoingNeedsBody false")
	}
}

func TestProcessIncomingShortCircuits(t *testing.T) {
	wantErr := errors.New("boom")
	called := false
	p := New([]IncomingStep{
		Incoming(func(r *http.Request) error { return wantErr }),
		Incoming(func(r *http.Request) error { called = true; return nil }),
	}, nil)

	r := httptest.NewRequest("GET", "/", nil)
	err := p.ProcessIncoming(r, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
	if called {
		t.Fatal("second step should not have run")
	}
}

func TestHeaderTransformSteps(t *testing.T) {
	p := New(
		[]IncomingStep{
			AddRequestHeader("X-Added", "v"),
			RenameRequestHeader("X-Old", "X-New"),
			RemoveRequestHeader("X-Drop"),
		},
		[]OutgoingStep{TagUpstreamHeader("X-Upstream")},
	)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Old", "val")
	r.Header.Set("X-Drop", "gone")
	if err := p.ProcessIncoming(r, nil); err != nil {
		t.Fatalf("ProcessIncoming: %v", err)
	}
	if r.Header.Get("X-Added") != "v" {
		t.Fatal("X-Added not set")
	}
	if r.Header.Get("X-New") != "val" || r.Header.Get("X-Old") != "" {
		t.Fatal("rename did not move header")
	}
	if r.Header.Get("X-Drop") != "" {
		t.Fatal("X-Drop not removed")
	}

	resp := &http.Response{Header: http.Header{}}
	if err := p.ProcessOutgoing("a:8080", resp, nil); err != nil {
		t.Fatalf("ProcessOutgoing: %v", err)
	}
	if resp.Header.Get("X-Upstream") != "a:8080" {
		t.Fatal("upstream tag not set")
	}
}

func TestIncomingExternalNotImplemented(t *testing.T) {
	p := New([]IncomingStep{IncomingExternal()}, nil)
	r := httptest.NewRequest("GET", "/", nil)
	if err := p.ProcessIncoming(r, nil); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("got %v, want ErrNotImplemented", err)
	}
}

func TestOutgoingWithBodyRewritesBody(t *testing.T) {
	p := New(nil, []OutgoingStep{
		OutgoingWithBody(func(upstream string, resp *http.Response, body *[]byte) error {
			*body = bytes.ToUpper(*body)
			return nil
		}),
	})
	body := []byte("hello")
	resp := &http.Response{Header: http.Header{}}
	if err := p.ProcessOutgoing("a:8080", resp, &body); err != nil {
		t.Fatalf("ProcessOutgoing: %v", err)
	}
	if string(body) != "HELLO" {
		t.Fatalf("got %q, want HELLO", body)
	}
}
