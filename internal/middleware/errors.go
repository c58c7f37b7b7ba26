package middleware

import "errors"

// ErrNotImplemented is returned when an External step runs. No plugin
// runtime is wired in.
var ErrNotImplemented = errors.New("middleware: external variant not implemented")
