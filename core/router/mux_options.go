package router

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/pluginbridge/core/handler"
)

// Option configures a Router built by New.
type Option[C handler.Context] func(*mux[C])

// WithErrorHandler replaces the default plain-text error handler. A nil
// handler is ignored.
func WithErrorHandler[C handler.Context](h handler.ErrorHandler[C]) Option[C] {
	return func(m *mux[C]) {
		if h != nil {
			m.errorHandler = h
		}
	}
}

// WithMiddleware installs middlewares ahead of any added later with Use.
func WithMiddleware[C handler.Context](middlewares ...handler.Middleware[C]) Option[C] {
	return func(m *mux[C]) {
		m.middlewares = append(m.middlewares, middlewares...)
	}
}

// WithContextFactory sets how the per-request context is built from the
// writer, the request and the matched route parameters.
func WithContextFactory[C handler.Context](f func(http.ResponseWriter, *http.Request, map[string]string) C) Option[C] {
	return func(m *mux[C]) {
		m.newContext = f
	}
}

// WithLogger sets the logger used for panics that happen after the response
// was written.
func WithLogger[C handler.Context](logger *slog.Logger) Option[C] {
	return func(m *mux[C]) {
		if logger != nil {
			m.logger = logger
		}
	}
}
