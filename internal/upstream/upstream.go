// Package upstream describes the backend servers a service forwards to.
package upstream

import "fmt"

// Upstream is a single backend target. It is immutable once constructed:
// the dispatch engine has no notion of adding, removing, or re-weighting
// targets after a Bundle is built.
type Upstream struct {
	Address string
	UseTLS  bool
}

// New constructs an Upstream, rejecting an empty address.
func New(address string, useTLS bool) (Upstream, error) {
	if address == "" {
		return Upstream{}, fmt.Errorf("upstream: address cannot be empty")
	}
	return Upstream{Address: address, UseTLS: useTLS}, nil
}

func (u Upstream) String() string {
	scheme := "http"
	if u.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Address)
}
