package router

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/pluginbridge/core/handler"
	"github.com/dmitrymomot/pluginbridge/core/logger"
)

var validMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodConnect,
	http.MethodOptions,
	http.MethodTrace,
}

// mux is the private implementation of Router interface.
// Path matching is delegated to chi; handlers, middlewares and errors stay
// in the handler.HandlerFunc[C] world.
type mux[C handler.Context] struct {
	chi          chi.Router
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger
	hasRoutes    bool
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		chi:          chi.NewRouter(),
		errorHandler: defaultErrorHandler[C],
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.newContext == nil {
		m.newContext = func(w http.ResponseWriter, r *http.Request, params map[string]string) C {
			// Only the default *Context works without a factory
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(newContext(w, r, params)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	m.chi.NotFound(m.adapt(func(C) handler.Response { return failWith(ErrNotFound) }))
	m.chi.MethodNotAllowed(m.adapt(func(C) handler.Response { return failWith(ErrMethodNotAllowed) }))

	return m
}

func failWith(err error) handler.Response {
	return func(http.ResponseWriter, *http.Request) error { return err }
}

// derive creates a router sharing configuration with m but registering into r.
func (m *mux[C]) derive(r chi.Router, middlewares []handler.Middleware[C]) *mux[C] {
	return &mux[C]{
		chi:          r,
		middlewares:  middlewares,
		errorHandler: m.errorHandler,
		newContext:   m.newContext,
		logger:       m.logger,
	}
}

// ServeHTTP implements http.Handler interface.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.chi.ServeHTTP(w, r)
}

// adapt turns a HandlerFunc into an http.HandlerFunc. Middlewares are
// chained at registration time.
func (m *mux[C]) adapt(fn handler.HandlerFunc[C]) http.HandlerFunc {
	if len(m.middlewares) > 0 {
		fn = chain(m.middlewares, fn)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		m.serve(w, r, fn)
	}
}

func (m *mux[C]) serve(w http.ResponseWriter, r *http.Request, fn handler.HandlerFunc[C]) {
	ww := newResponseWriter(w)
	ctx := m.newContext(ww, r, urlParams(r))

	defer func() {
		if p := recover(); p != nil {
			panicErr := &panicError{
				value: p,
				stack: debug.Stack(),
			}

			if ww.Written() {
				m.logger.Error("panic after response written",
					logger.Panic(panicErr.value),
					slog.String("stack", string(panicErr.stack)),
					logger.Path(r.URL.Path),
					logger.Method(r.Method),
					logger.StatusCode(ww.Status()),
				)
				return
			}
			m.errorHandler(ctx, panicErr)
		}
	}()

	response := fn(ctx)
	if response == nil {
		m.errorHandler(ctx, ErrNilResponse)
		return
	}

	// Middlewares may have replaced the request (SetValue).
	req := ctx.Request()
	if req == nil {
		req = r
	}
	if err := response(ww, req); err != nil {
		m.errorHandler(ctx, err)
	}
}

func urlParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || len(rctx.URLParams.Keys) == 0 {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodGet, pattern, h)
}

func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPost, pattern, h)
}

func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPut, pattern, h)
}

func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodDelete, pattern, h)
}

func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPatch, pattern, h)
}

func (m *mux[C]) Head(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodHead, pattern, h)
}

func (m *mux[C]) Options(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodOptions, pattern, h)
}

// Handle registers a handler for all HTTP methods.
func (m *mux[C]) Handle(pattern string, h handler.HandlerFunc[C]) {
	m.validatePattern(pattern)
	m.hasRoutes = true
	m.chi.Handle(pattern, m.adapt(h))
}

// Method registers a handler for the given HTTP methods.
func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], methods ...string) {
	seen := make(map[string]bool, len(methods))
	for _, method := range methods {
		method = strings.ToUpper(method)
		if seen[method] {
			continue
		}
		seen[method] = true
		m.handle(method, pattern, h)
	}
}

func (m *mux[C]) handle(method, pattern string, h handler.HandlerFunc[C]) {
	if !slices.Contains(validMethods, method) {
		panic(fmt.Errorf("%w: '%s'", ErrInvalidMethod, method))
	}
	m.validatePattern(pattern)
	m.hasRoutes = true
	m.chi.Method(method, pattern, m.adapt(h))
}

func (m *mux[C]) validatePattern(pattern string) {
	if len(pattern) == 0 || pattern[0] != '/' {
		panic(fmt.Errorf("%w: '%s'", ErrInvalidPattern, pattern))
	}
}

// Use appends middleware to the router. Middlewares apply to routes
// registered after the call, so they must come first.
func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	if m.hasRoutes {
		panic("router: all middlewares must be defined before routes on a mux")
	}
	m.middlewares = append(m.middlewares, middlewares...)
}

// With creates a new inline router with additional middleware.
func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	stack := slices.Concat(m.middlewares, middlewares)
	return m.derive(m.chi.With(), stack)
}

// Group creates a new inline router for grouping routes.
func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	im := m.With()
	if fn != nil {
		fn(im)
	}
	return im
}

// Route creates a new sub-router mounted at the given pattern.
func (m *mux[C]) Route(pattern string, fn func(r Router[C])) Router[C] {
	if fn == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilSubrouter, pattern))
	}

	var sub *mux[C]
	m.chi.Route(pattern, func(r chi.Router) {
		sub = m.derive(r, slices.Clone(m.middlewares))
		fn(sub)
	})
	return sub
}

// Mount attaches an http.Handler, usually another Router, at pattern.
// Middlewares of m run before the mounted handler.
func (m *mux[C]) Mount(pattern string, h http.Handler) {
	if h == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilRouter, pattern))
	}
	m.hasRoutes = true
	m.chi.Mount(pattern, m.adapt(func(C) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			h.ServeHTTP(w, r)
			return nil
		}
	}))
}

// Routes returns all registered routes.
func (m *mux[C]) Routes() []Route {
	var routes []Route
	_ = chi.Walk(m.chi, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, Route{Method: method, Pattern: route})
		return nil
	})
	return routes
}

// chain builds a handler by wrapping fn with middlewares, first one outermost.
func chain[C handler.Context](middlewares []handler.Middleware[C], fn handler.HandlerFunc[C]) handler.HandlerFunc[C] {
	for i := len(middlewares) - 1; i >= 0; i-- {
		fn = middlewares[i](fn)
	}
	return fn
}
