package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pluginbridge/core/health"
	"github.com/dmitrymomot/pluginbridge/core/logger"
	"github.com/dmitrymomot/pluginbridge/core/router"
)

func newRouter(checks ...health.Check) router.Router[*router.Context] {
	r := router.New[*router.Context]()
	r.Get("/live", health.Liveness[*router.Context])
	r.Get("/ping", health.NoContent[*router.Context])
	r.Get("/ready", health.Readiness[*router.Context](logger.Nop(), checks...))
	return r
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	r := newRouter()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestNoContent(t *testing.T) {
	t.Parallel()

	r := newRouter()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("connection refused") }

	t.Run("no checks is ready", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var report health.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, health.StatusReady, report.Status)
	})

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()
		r := newRouter(health.Check{Name: "a", Fn: ok}, health.Check{Name: "b", Fn: ok})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var report health.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, map[string]string{"a": "ok", "b": "ok"}, report.Checks)
	})

	t.Run("failing check returns 503 with reason", func(t *testing.T) {
		t.Parallel()
		r := newRouter(health.Check{Name: "a", Fn: ok}, health.Check{Name: "redis", Fn: fail})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var report health.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, health.StatusNotReady, report.Status)
		assert.Equal(t, "ok", report.Checks["a"])
		assert.Equal(t, "connection refused", report.Checks["redis"])
	})
}

func TestRun_ChecksGetDeadline(t *testing.T) {
	t.Parallel()

	report := health.Run(context.Background(), health.Check{
		Name: "deadline",
		Fn: func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		},
	})
	assert.Equal(t, health.StatusReady, report.Status)
}
