package service

import "errors"

var (
	// ErrNoMatch means no service in a Bundle matched the request.
	ErrNoMatch = errors.New("service: no service matched request")

	// ErrBodyTooLarge means the request body exceeds the size cap, or its
	// size could not be determined in advance.
	ErrBodyTooLarge = errors.New("service: request body exceeds size cap")

	// ErrBodyRejected means a body filter rejected the request.
	ErrBodyRejected = errors.New("service: body filter rejected request")

	// ErrFilterFailure means a header filter failed to evaluate.
	ErrFilterFailure = errors.New("service: filter evaluation failed")

	// ErrMiddlewareFailure means an incoming or outgoing middleware step
	// failed.
	ErrMiddlewareFailure = errors.New("service: middleware step failed")
)
