package filter

import (
	"context"
	"fmt"
)

// bodyFilterKind tags which entry point a BodyFilter accepts. The kind is
// fixed at construction so a mismatched call fails fast instead of
// silently no-oping.
type bodyFilterKind int

const (
	bodyFilterSync bodyFilterKind = iota
	bodyFilterAsync
	bodyFilterExternal
)

// BodyFilter inspects a fully-buffered request body and reports whether
// the request is admitted. It comes in two internal variants (a
// synchronous one over a byte slice, and an async one over a context and
// the same byte slice) plus a reserved External variant for plugin-backed
// filters.
// Only one entry point is valid per instance; calling the other returns an
// error instead of running the wrong code path.
type BodyFilter struct {
	kind bodyFilterKind
	sync func(body []byte) (bool, error)
	strm func(ctx context.Context, body []byte) (bool, error)
}

// SyncBodyFilter builds a BodyFilter whose Match entry point is valid.
func SyncBodyFilter(fn func(body []byte) (bool, error)) BodyFilter {
	return BodyFilter{kind: bodyFilterSync, sync: fn}
}

// AsyncBodyFilter builds a BodyFilter whose MatchContext entry point is
// valid.
func AsyncBodyFilter(fn func(ctx context.Context, body []byte) (bool, error)) BodyFilter {
	return BodyFilter{kind: bodyFilterAsync, strm: fn}
}

// ExternalBodyFilter builds a BodyFilter reserved for a plugin-backed
// implementation. Both entry points fail with ErrNotImplemented.
func ExternalBodyFilter() BodyFilter {
	return BodyFilter{kind: bodyFilterExternal}
}

// Match runs the synchronous entry point. It returns an error if this
// instance was built as an async or external filter.
func (bf BodyFilter) Match(body []byte) (bool, error) {
	switch bf.kind {
	case bodyFilterSync:
		return bf.sync(body)
	case bodyFilterExternal:
		return false, ErrNotImplemented
	default:
		return false, fmt.Errorf("filter: Match called on an async body filter")
	}
}

// MatchContext runs the async entry point. It returns an error if this
// instance was built as a sync or external filter.
func (bf BodyFilter) MatchContext(ctx context.Context, body []byte) (bool, error) {
	switch bf.kind {
	case bodyFilterAsync:
		return bf.strm(ctx, body)
	case bodyFilterExternal:
		return false, ErrNotImplemented
	default:
		return false, fmt.Errorf("filter: MatchContext called on a sync body filter")
	}
}

// UsesAsync reports whether this filter must be driven through
// MatchContext rather than Match.
func (bf BodyFilter) UsesAsync() bool {
	return bf.kind == bodyFilterAsync
}

// MatchBody runs filters over body in order, stopping at the first
// rejection or error. Unlike header Match, body filters are always
// evaluated sequentially: the original implementation never extends its
// parallel fast path to body filters, and buffering already forces the
// whole body to be resident before any filter runs.
func MatchBody(ctx context.Context, filters []BodyFilter, body []byte) (bool, error) {
	for _, bf := range filters {
		var (
			ok  bool
			err error
		)
		if bf.UsesAsync() {
			ok, err = bf.MatchContext(ctx, body)
		} else {
			ok, err = bf.Match(body)
		}
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
