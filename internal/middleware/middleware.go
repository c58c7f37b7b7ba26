// Package middleware implements the incoming/outgoing mutation pipeline a
// service runs around a forwarded request: header and body rewriting that
// happens after filters admit a request and before it is handed to the
// load balancer, and again on the way back from the upstream.
package middleware

import "net/http"

type incomingKind int

const (
	incomingPlain incomingKind = iota
	incomingWithBody
	incomingExternal
)

// IncomingStep mutates a request before it is forwarded. A step either
// only needs the request's headers, or also needs its buffered body; which
// one is fixed when the step is built, and Pipeline uses that to decide
// once, for the whole chain, whether the body must be read into memory at
// all.
type IncomingStep struct {
	kind     incomingKind
	plain    func(r *http.Request) error
	withBody func(r *http.Request, body *[]byte) error
}

// Incoming builds a step that only touches request headers.
func Incoming(fn func(r *http.Request) error) IncomingStep {
	return IncomingStep{kind: incomingPlain, plain: fn}
}

// IncomingWithBody builds a step that may rewrite the request body.
func IncomingWithBody(fn func(r *http.Request, body *[]byte) error) IncomingStep {
	return IncomingStep{kind: incomingWithBody, withBody: fn}
}

// IncomingExternal is a placeholder for a plugin-backed step. It always
// fails with ErrNotImplemented.
func IncomingExternal() IncomingStep {
	return IncomingStep{kind: incomingExternal}
}

func (s IncomingStep) needsBody() bool { return s.kind == incomingWithBody }

func (s IncomingStep) run(r *http.Request, body *[]byte) error {
	switch s.kind {
	case incomingPlain:
		return s.plain(r)
	case incomingWithBody:
		return s.withBody(r, body)
	default:
		return ErrNotImplemented
	}
}

type outgoingKind int

const (
	outgoingPlain outgoingKind = iota
	outgoingWithBody
	outgoingExternal
)

// OutgoingStep mutates a response on its way back to the client. upstream
// identifies which backend produced the response, the same way an
// incoming step sees the inbound request.
type OutgoingStep struct {
	kind     outgoingKind
	plain    func(upstream string, resp *http.Response) error
	withBody func(upstream string, resp *http.Response, body *[]byte) error
}

// Outgoing builds a step that only touches response headers.
func Outgoing(fn func(upstream string, resp *http.Response) error) OutgoingStep {
	return OutgoingStep{kind: outgoingPlain, plain: fn}
}

// OutgoingWithBody builds a step that may rewrite the response body.
func OutgoingWithBody(fn func(upstream string, resp *http.Response, body *[]byte) error) OutgoingStep {
	return OutgoingStep{kind: outgoingWithBody, withBody: fn}
}

// OutgoingExternal is a placeholder for a plugin-backed step. It always
// fails with ErrNotImplemented.
func OutgoingExternal() OutgoingStep {
	return OutgoingStep{kind: outgoingExternal}
}

func (s OutgoingStep) needsBody() bool { return s.kind == outgoingWithBody }

func (s OutgoingStep) run(upstream string, resp *http.Response, body *[]byte) error {
	switch s.kind {
	case outgoingPlain:
		return s.plain(upstream, resp)
	case outgoingWithBody:
		return s.withBody(upstream, resp, body)
	default:
		return ErrNotImplemented
	}
}

// Pipeline is an ordered chain of incoming and outgoing steps. Whether
// either direction needs the body buffered is computed once, here, rather
// than re-checked on every request.
type Pipeline struct {
	incoming          []IncomingStep
	outgoing          []OutgoingStep
	incomingNeedsBody bool
	outgoingNeedsBody bool
}

// New builds a Pipeline from an ordered incoming and outgoing step list.
func New(incoming []IncomingStep, outgoing []OutgoingStep) *Pipeline {
	p := &Pipeline{incoming: incoming, outgoing: outgoing}
	for _, s := range incoming {
		if s.needsBody() {
			p.incomingNeedsBody = true
			break
		}
	}
	for _, s := range outgoing {
		if s.needsBody() {
			p.outgoingNeedsBody = true
			break
		}
	}
	return p
}

// IncomingNeedsBody reports whether any incoming step requires the
// request body to be buffered before dispatch can proceed.
func (p *Pipeline) IncomingNeedsBody() bool { return p.incomingNeedsBody }

// OutgoingNeedsBody reports whether any outgoing step requires the
// response body to be buffered.
func (p *Pipeline) OutgoingNeedsBody() bool { return p.outgoingNeedsBody }

// ProcessIncoming runs the incoming chain in order, stopping at the first
// error.
func (p *Pipeline) ProcessIncoming(r *http.Request, body *[]byte) error {
	for _, s := range p.incoming {
		if err := s.run(r, body); err != nil {
			return err
		}
	}
	return nil
}

// ProcessOutgoing runs the outgoing chain in order, stopping at the first
// error.
func (p *Pipeline) ProcessOutgoing(upstream string, resp *http.Response, body *[]byte) error {
	for _, s := range p.outgoing {
		if err := s.run(upstream, resp, body); err != nil {
			return err
		}
	}
	return nil
}
