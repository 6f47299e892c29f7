package handler

import "net/http"

// Response renders an HTTP response: headers, status code and body.
// A non-nil error is passed to the router's error handler, which decides
// how the failure is presented to the client.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc handles a request using the router's context type.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler renders errors returned by responses or recovered from panics.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps a handler with cross-cutting behavior.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
