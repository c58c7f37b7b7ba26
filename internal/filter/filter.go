// Package filter implements the header-level admission checks a service
// runs before it will forward a request: method, host, path, IP
// allow/deny lists, and custom predicates.
package filter

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
)

// ErrMissingHost is returned by a HostRegex filter when the request carries
// no Host header to match against.
var ErrMissingHost = errors.New("filter: request has no host")

// ErrNotImplemented is returned when an External filter or body filter is
// invoked; no plugin runtime is wired in.
var ErrNotImplemented = errors.New("filter: external variant not implemented")

// Filter reports whether a request is admitted. A false result without an
// error means "this filter does not match, try the next service"; an error
// means evaluation itself failed and dispatch should abort with a 500.
type Filter interface {
	Match(r *http.Request) (bool, error)
}

type filterFunc func(r *http.Request) (bool, error)

func (f filterFunc) Match(r *http.Request) (bool, error) { return f(r) }

// Method matches requests whose HTTP method equals m exactly.
func Method(m string) Filter {
	return filterFunc(func(r *http.Request) (bool, error) {
		return r.Method == m, nil
	})
}

// HostRegex matches requests whose Host header matches pattern. It fails
// with ErrMissingHost if the request carries no host, mirroring the
// original implementation's treatment of an absent Host as an evaluation
// error rather than a non-match.
func HostRegex(pattern string) (Filter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("filter: compile host pattern: %w", err)
	}
	return filterFunc(func(r *http.Request) (bool, error) {
		host := r.Host
		if host == "" {
			return false, ErrMissingHost
		}
		return re.MatchString(host), nil
	}), nil
}

// PathRegex matches requests whose URL path matches pattern.
func PathRegex(pattern string) (Filter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("filter: compile path pattern: %w", err)
	}
	return filterFunc(func(r *http.Request) (bool, error) {
		return re.MatchString(r.URL.Path), nil
	}), nil
}

func peerIP(r *http.Request) (net.IP, error) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("filter: cannot parse peer address %q", r.RemoteAddr)
	}
	return ip, nil
}

// IPBlacklist rejects requests whose peer address is in ips.
func IPBlacklist(ips []string) (Filter, error) {
	set, err := ipSet(ips)
	if err != nil {
		return nil, err
	}
	return filterFunc(func(r *http.Request) (bool, error) {
		ip, err := peerIP(r)
		if err != nil {
			return false, err
		}
		return !set[ip.String()], nil
	}), nil
}

// IPWhitelist admits only requests whose peer address is in ips.
func IPWhitelist(ips []string) (Filter, error) {
	set, err := ipSet(ips)
	if err != nil {
		return nil, err
	}
	return filterFunc(func(r *http.Request) (bool, error) {
		ip, err := peerIP(r)
		if err != nil {
			return false, err
		}
		return set[ip.String()], nil
	}), nil
}

func ipSet(ips []string) (map[string]bool, error) {
	set := make(map[string]bool, len(ips))
	for _, s := range ips {
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("filter: invalid IP %q", s)
		}
		set[ip.String()] = true
	}
	return set, nil
}

// Custom wraps an arbitrary predicate as a Filter.
func Custom(fn func(r *http.Request) (bool, error)) Filter {
	return filterFunc(fn)
}

// External is a placeholder for a filter implemented outside the process
// (a plugin). It always fails with ErrNotImplemented; nothing in this
// module loads external filter code.
func External() Filter {
	return filterFunc(func(r *http.Request) (bool, error) {
		return false, ErrNotImplemented
	})
}
