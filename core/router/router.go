package router

import (
	"net/http"

	"github.com/dmitrymomot/pluginbridge/core/handler"
)

// Router registers typed handlers on top of chi. Every handler receives the
// context built by the configured factory and returns a handler.Response.
type Router[C handler.Context] interface {
	http.Handler
	Routes

	Get(pattern string, h handler.HandlerFunc[C])
	Post(pattern string, h handler.HandlerFunc[C])
	Put(pattern string, h handler.HandlerFunc[C])
	Delete(pattern string, h handler.HandlerFunc[C])
	Patch(pattern string, h handler.HandlerFunc[C])
	Head(pattern string, h handler.HandlerFunc[C])
	Options(pattern string, h handler.HandlerFunc[C])

	Handle(pattern string, h handler.HandlerFunc[C])
	Method(pattern string, h handler.HandlerFunc[C], methods ...string)

	Use(middlewares ...handler.Middleware[C])
	With(middlewares ...handler.Middleware[C]) Router[C]

	Group(fn func(r Router[C])) Router[C]
	Route(pattern string, fn func(r Router[C])) Router[C]
	Mount(pattern string, h http.Handler)
}

// Routes lists what a router serves; the bridge logs it at startup.
type Routes interface {
	Routes() []Route
}

// Route is a registered method and pattern pair.
type Route struct {
	Method  string
	Pattern string
}

// New returns a chi-backed Router. Context types other than *Context need
// WithContextFactory.
func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux[C](opts...)
}
