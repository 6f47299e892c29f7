package bridge

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/handler"
	"github.com/dmitrymomot/pluginbridge/core/health"
	"github.com/dmitrymomot/pluginbridge/core/router"
	"github.com/dmitrymomot/pluginbridge/integration/database/redis"
	"github.com/dmitrymomot/pluginbridge/middleware"
)

func (a *App) routes() {
	r := a.router

	r.Use(
		middleware.RequestID[*Context](),
		middleware.LoggingWithConfig[*Context](middleware.LoggingConfig{
			Logger:               a.logger,
			SlowRequestThreshold: correlation.MaxWaitTimeout + 5*time.Second,
			Skip: func(ctx handler.Context) bool {
				p := ctx.Request().URL.Path
				return p == "/metrics" || strings.HasPrefix(p, "/health/")
			},
		}),
	)

	r.Get("/health/live", health.Liveness[*Context])
	r.Get("/health/ready", health.Readiness[*Context](a.logger, a.readinessChecks()...))
	r.Get("/metrics", a.serveMetrics)

	r.Route("/api", func(api router.Router[*Context]) {
		api.Post("/commands", a.submitCommand)
		api.Get("/commands", a.listCommands)
		api.Get("/commands/next", a.nextCommand)
		api.Delete("/commands/{id}", a.withdrawCommand)

		api.Post("/results", a.addResult)
		api.Get("/results/{id}", a.getResult)
		api.Get("/results/{id}/status", a.resultStatus)

		api.Get("/events", a.events)
	})

	r.Get("/ws", a.websocket)
}

func (a *App) readinessChecks() []health.Check {
	checks := []health.Check{
		{Name: "correlator", Fn: a.correlator.Healthcheck},
		{Name: "outbox", Fn: a.outbox.Healthcheck},
	}
	if a.redis != nil {
		checks = append(checks, health.Check{Name: "redis", Fn: redis.Healthcheck(a.redis)})
	}
	return checks
}

func (a *App) serveMetrics(*Context) handler.Response {
	h := a.metrics.Handler()
	return func(w http.ResponseWriter, r *http.Request) error {
		h.ServeHTTP(w, r)
		return nil
	}
}
