package router

import (
	"context"
	"net/http"
	"time"
)

// Context is the default handler.Context implementation used when no
// context factory is configured.
type Context struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

func newContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return &Context{w: w, r: r, params: params}
}

// NewContext builds a Context. Custom context types typically embed it and
// call NewContext from their factory.
func NewContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return newContext(w, r, params)
}

func (c *Context) Request() *http.Request {
	return c.r
}

func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the URL parameter by name, or an empty string.
func (c *Context) Param(key string) string {
	if c.params == nil {
		return ""
	}
	return c.params[key]
}

// SetValue stores a value on the request context. Later handlers and
// middlewares see it via Value.
func (c *Context) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
}

func (c *Context) Deadline() (time.Time, bool) {
	if c.r == nil {
		return time.Time{}, false
	}
	return c.r.Context().Deadline()
}

func (c *Context) Done() <-chan struct{} {
	if c.r == nil {
		return nil
	}
	return c.r.Context().Done()
}

func (c *Context) Err() error {
	if c.r == nil {
		return nil
	}
	return c.r.Context().Err()
}

func (c *Context) Value(key any) any {
	if c.r == nil {
		return nil
	}
	return c.r.Context().Value(key)
}
