package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pluginbridge/core/handler"
	"github.com/dmitrymomot/pluginbridge/core/logger"
	"github.com/dmitrymomot/pluginbridge/core/response"
	"github.com/dmitrymomot/pluginbridge/core/router"
	"github.com/dmitrymomot/pluginbridge/middleware"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates id and sets header", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		r.Use(middleware.RequestID[*router.Context]())

		var captured string
		r.Get("/test", func(ctx *router.Context) handler.Response {
			id, ok := middleware.GetRequestID(ctx)
			assert.True(t, ok)
			captured = id
			return response.NoContent()
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		require.NotEmpty(t, captured)
		assert.Equal(t, captured, rec.Header().Get(middleware.DefaultRequestIDHeader))
	})

	t.Run("ignores incoming id by default", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		r.Use(middleware.RequestID[*router.Context]())
		r.Get("/test", func(*router.Context) handler.Response { return response.NoContent() })

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(middleware.DefaultRequestIDHeader, "client-id")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.NotEqual(t, "client-id", rec.Header().Get(middleware.DefaultRequestIDHeader))
	})

	t.Run("reuses incoming id when configured", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
			UseExisting: true,
			HeaderName:  "X-Trace",
		}))
		r.Get("/test", func(*router.Context) handler.Response { return response.NoContent() })

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Trace", "trace-42")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "trace-42", rec.Header().Get("X-Trace"))
	})

	t.Run("custom generator", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
			Generator: func() string { return "fixed" },
		}))
		r.Get("/test", func(*router.Context) handler.Response { return response.NoContent() })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, "fixed", rec.Header().Get(middleware.DefaultRequestIDHeader))
	})

	t.Run("skip leaves no id", func(t *testing.T) {
		t.Parallel()
		r := router.New[*router.Context]()
		r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
			Skip: func(handler.Context) bool { return true },
		}))
		r.Get("/test", func(ctx *router.Context) handler.Response {
			_, ok := middleware.GetRequestID(ctx)
			assert.False(t, ok)
			return response.NoContent()
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Empty(t, rec.Header().Get(middleware.DefaultRequestIDHeader))
	})
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithJSONFormatter(),
		logger.WithContextExtractors(middleware.RequestIDExtractor),
	)

	r := router.New[*router.Context]()
	r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
		Generator: func() string { return "req-1" },
	}))
	r.Get("/test", func(ctx *router.Context) handler.Response {
		log.InfoContext(ctx, "inside handler")
		return response.NoContent()
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	attr, ok := middleware.RequestIDExtractor(context.Background())
	assert.Equal(t, slog.Attr{}, attr)
	assert.False(t, ok)
}
