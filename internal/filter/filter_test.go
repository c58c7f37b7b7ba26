package filter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func req(method, host, path string) *http.Request {
	r := httptest.NewRequest(method, "http://example.com"+path, nil)
	r.Host = host
	r.RemoteAddr = "10.0.0.1:5000"
	return r
}

func TestMethodFilter(t *testing.T) {
	f := Method("POST")
	ok, err := f.Match(req("POST", "a", "/"))
	if err != nil || !ok {
		t.Fatalf("got (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = f.Match(req("GET", "a", "/"))
	if err != nil || ok {
		t.Fatalf("got (%v, %v), want (false, nil)", ok, err)
	}
}

func TestHostRegexMissingHost(t *testing.T) {
	f, err := HostRegex(".*")
	if err != nil {
		t.Fatalf("HostRegex: %v", err)
	}
	r := req("GET", "", "/")
	r.Host = ""
	_, err = f.Match(r)
	if !errors.Is(err, ErrMissingHost) {
		t.Fatalf("got %v, want ErrMissingHost", err)
	}
}

func TestPathRegex(t *testing.T) {
	f, err := PathRegex(`^/api/`)
	if err != nil {
		t.Fatalf("PathRegex: %v", err)
	}
	ok, err := f.Match(req("GET", "a", "/api/v1/x"))
	if err != nil || !ok {
		t.Fatalf("got (%v, %v), want (true, nil)", ok, err)
	}
	ok, _ = f.Match(req("GET", "a", "/other"))
	if ok {
		t.Fatal("expected no match")
	}
}

func TestIPWhitelistAndBlacklist(t *testing.T) {
	wl, err := IPWhitelist([]string{"10.0.0.1"})
	if err != nil {
		t.Fatalf("IPWhitelist: %v", err)
	}
	ok, err := wl.Match(req("GET", "a", "/"))
	if err != nil || !ok {
		t.Fatalf("whitelist: got (%v, %v)", ok, err)
	}

	bl, err := IPBlacklist([]string{"10.0.0.1"})
	if err != nil {
		t.Fatalf("IPBlacklist: %v", err)
	}
	ok, err = bl.Match(req("GET", "a", "/"))
	if err != nil || ok {
		t.Fatalf("blacklist: got (%v, %v), want (false, nil)", ok, err)
	}
}

func TestMatchSequentialPropagatesError(t *testing.T) {
	hostFilter, _ := HostRegex(".*")
	filters := []Filter{hostFilter}
	r := req("GET", "", "/")
	r.Host = ""
	_, err := Match(filters, r)
	if !errors.Is(err, ErrMissingHost) {
		t.Fatalf("got %v, want ErrMissingHost", err)
	}
}

func TestMatchParallelSwallowsError(t *testing.T) {
	hostFilter, _ := HostRegex(".*")
	filters := make([]Filter, 0, 6)
	for i := 0; i < 5; i++ {
		filters = append(filters, Method("POST"))
	}
	filters = append(filters, hostFilter)

	r := req("GET", "", "/")
	r.Host = ""
	ok, err := Match(filters, r)
	if err != nil {
		t.Fatalf("parallel mode should swallow filter errors, got %v", err)
	}
	if ok {
		t.Fatal("no filter should have matched")
	}
}

func TestMatchParallelRequiresEveryFilter(t *testing.T) {
	filters := make([]Filter, 0, 6)
	for i := 0; i < 6; i++ {
		filters = append(filters, Method("GET"))
	}

	ok, err := Match(filters, req("GET", "a", "/"))
	if err != nil || !ok {
		t.Fatalf("got (%v, %v), want (true, nil) when every filter passes", ok, err)
	}
}

func TestMatchParallelOneFailureRejects(t *testing.T) {
	filters := make([]Filter, 0, 6)
	for i := 0; i < 5; i++ {
		filters = append(filters, Method("GET"))
	}
	filters = append(filters, Method("POST"))

	ok, err := Match(filters, req("GET", "a", "/"))
	if err != nil || ok {
		t.Fatalf("got (%v, %v), want (false, nil) when one filter fails", ok, err)
	}
}

func TestMatchSequentialRequiresEveryFilter(t *testing.T) {
	getFilter := Method("GET")
	pathFilter, _ := PathRegex("^/admin")

	ok, err := Match([]Filter{getFilter, pathFilter}, req("GET", "a", "/other"))
	if err != nil || ok {
		t.Fatalf("got (%v, %v), want (false, nil): path filter should reject", ok, err)
	}

	ok, err = Match([]Filter{getFilter, pathFilter}, req("GET", "a", "/admin"))
	if err != nil || !ok {
		t.Fatalf("got (%v, %v), want (true, nil): both filters pass", ok, err)
	}
}

func TestExternalFilterNotImplemented(t *testing.T) {
	_, err := External().Match(req("GET", "a", "/"))
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("got %v, want ErrNotImplemented", err)
	}
}
