// Package middleware provides handler.Middleware implementations shared by
// the HTTP surface: request ID propagation and structured request logging.
//
//	r := router.New[*bridge.Context]()
//	r.Use(
//		middleware.RequestID[*bridge.Context](),
//		middleware.LoggingWithConfig[*bridge.Context](middleware.LoggingConfig{
//			Logger: log,
//			Skip: func(ctx handler.Context) bool {
//				return ctx.Request().URL.Path == "/metrics"
//			},
//		}),
//	)
//
// RequestID must run before Logging for the ID to appear in log records.
// Add RequestIDExtractor to the logger so every record written with the
// request context carries it.
package middleware
