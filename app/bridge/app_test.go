package bridge_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pluginbridge/app/bridge"
	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/outbox"
	"github.com/dmitrymomot/pluginbridge/core/server"
)

func testConfig() bridge.Config {
	srv := server.DefaultConfig()
	srv.Addr = "127.0.0.1:0"
	srv.ShutdownTimeout = 2 * time.Second

	return bridge.Config{
		Server:        srv,
		Outbox:        outbox.Config{Capacity: 10},
		AppName:       "pluginbridge-test",
		Env:           "test",
		LiveKeepAlive: 0,
		LiveBuffer:    16,
		MaxBodySize:   1 << 16,
	}
}

func newTestApp(t *testing.T, opts ...bridge.AppOption) *bridge.App {
	t.Helper()
	app, err := bridge.NewApp(append([]bridge.AppOption{bridge.WithConfig(testConfig())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(app.Correlator().Shutdown)
	return app
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func addResult(t *testing.T, app *bridge.App, r correlation.Result) {
	t.Helper()
	_, err := app.Correlator().AddResult(r)
	require.NoError(t, err)
}

func newRawRequest(method, target, body, contentType string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return req, httptest.NewRecorder()
}
