package bridge

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/pluginbridge/core/binder"
	"github.com/dmitrymomot/pluginbridge/core/response"
	"github.com/dmitrymomot/pluginbridge/core/router"
)

// Context is the per-request context handed to bridge handlers.
type Context struct {
	*router.Context
	maxBodySize int64
}

func contextFactory(maxBodySize int64) func(http.ResponseWriter, *http.Request, map[string]string) *Context {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
		return &Context{
			Context:     router.NewContext(w, r, params),
			maxBodySize: maxBodySize,
		}
	}
}

// BindJSON decodes and validates the request body into v. Errors are
// already mapped to HTTP errors.
func (c *Context) BindJSON(v any) error {
	return httpBindError(binder.Bind(c.Request(), v, binder.JSONWithConfig(binder.JSONConfig{
		MaxSize: c.maxBodySize,
	})))
}

// BindQuery binds and validates route and query parameters into v.
func (c *Context) BindQuery(v any) error {
	return httpBindError(binder.Bind(c.Request(), v, binder.Path(c.pathParam), binder.Query()))
}

func (c *Context) pathParam(_ *http.Request, name string) string {
	return c.Param(name)
}

func httpBindError(err error) error {
	if err == nil {
		return nil
	}

	var verr binder.ValidationErrors
	switch {
	case errors.As(err, &verr):
		return response.ErrUnprocessableEntity.WithDetails(verr.Details())
	case errors.Is(err, binder.ErrRequestTooLarge):
		return response.ErrRequestEntityTooLarge.WithError(err)
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return response.ErrUnsupportedMediaType.WithError(err)
	default:
		return response.ErrBadRequest.WithError(err)
	}
}
