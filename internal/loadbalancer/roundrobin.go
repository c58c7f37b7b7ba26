// Package loadbalancer selects an upstream target for a request.
package loadbalancer

import (
	"fmt"
	"sync/atomic"

	"github.com/ridgewayhq/ridgeway/internal/upstream"
)

// RoundRobin cycles through a fixed, non-empty set of upstreams using a
// lock-free atomic counter. The server set is immutable: there is no
// add/remove/reweight operation, matching the dispatch engine's contract
// that a service's upstream group is fixed at construction time.
type RoundRobin struct {
	servers []upstream.Upstream
	next    atomic.Uint64
}

// New builds a RoundRobin over servers. servers must be non-empty.
func New(servers []upstream.Upstream) (*RoundRobin, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("loadbalancer: at least one upstream is required")
	}
	cp := make([]upstream.Upstream, len(servers))
	copy(cp, servers)
	return &RoundRobin{servers: cp}, nil
}

// Pick returns the next upstream in rotation. The counter uses relaxed
// (atomic, non-synchronizing beyond the add itself) ordering: concurrent
// callers may observe picks out of strict request order, but each pick is
// still a distinct slot, so the distribution stays even.
func (rb *RoundRobin) Pick() upstream.Upstream {
	n := rb.next.Add(1) - 1
	return rb.servers[n%uint64(len(rb.servers))]
}

// Len reports the number of servers in the rotation.
func (rb *RoundRobin) Len() int {
	return len(rb.servers)
}
