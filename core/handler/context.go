package handler

import (
	"context"
	"net/http"
)

// Context is the request context handed to every handler.
// It embeds context.Context so it can be passed to any blocking call,
// e.g. a long-poll wait that must stop when the client disconnects.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}
