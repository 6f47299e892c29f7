// Package health provides HTTP handlers for service health monitoring.
//
// Handlers:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//   - NoContent: Returns 204 for minimal overhead
//
// Usage:
//
//	r.Get("/health/live", health.Liveness[*bridge.Context])
//	r.Get("/health/ready", health.Readiness[*bridge.Context](
//		logger,
//		health.Check{Name: "correlator", Fn: correlator.Healthcheck},
//		health.Check{Name: "redis", Fn: redis.Healthcheck(client)},
//	))
//	r.Get("/ping", health.NoContent[*bridge.Context])
//
// Checks run concurrently; each receives the request context bounded by
// CheckTimeout.
package health
