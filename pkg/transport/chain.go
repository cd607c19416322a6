// Package transport is the ordered stage chain every API request passes
// through: instrumentation, classification, authentication and dispatch.
package transport

import "net/http"

// Handler sends a request and returns its outcome.
type Handler func(req *http.Request) (*http.Response, error)

// Middleware wraps a Handler with one stage.
type Middleware func(next Handler) Handler

// Chain applies middlewares to h in declaration order: the first middleware
// is the outermost and sees the request first and the outcome last.
// Chain(h, a, b) is a(b(h)).
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}
